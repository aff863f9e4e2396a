package store

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BatmanBruc/gembot/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string, log *zap.SugaredLogger) (*PostgresStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = buildPostgresDSNFromEnv()
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse postgres dsn")
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to postgres")
	}
	s := &PostgresStore{pool: pool}
	if err := s.runMigrations(ctx, log); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func buildPostgresDSNFromEnv() string {
	host := strings.TrimSpace(os.Getenv("POSTGRES_HOST"))
	if host == "" {
		host = "localhost"
	}
	port := strings.TrimSpace(os.Getenv("POSTGRES_PORT"))
	if port == "" {
		port = "5432"
	}
	db := strings.TrimSpace(os.Getenv("POSTGRES_DB"))
	if db == "" {
		db = "gembot"
	}
	user := strings.TrimSpace(os.Getenv("POSTGRES_USER"))
	if user == "" {
		user = "gembot"
	}
	pass := os.Getenv("POSTGRES_PASSWORD")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", urlEscape(user), urlEscape(pass), host, port, db)
}

func urlEscape(s string) string {
	r := strings.NewReplacer(
		"%", "%25",
		":", "%3A",
		"/", "%2F",
		"@", "%40",
		"?", "%3F",
		"#", "%23",
		"[", "%5B",
		"]", "%5D",
	)
	return r.Replace(s)
}

func (s *PostgresStore) runMigrations(ctx context.Context, log *zap.SugaredLogger) error {
	db := stdlib.OpenDB(*s.pool.Config().ConnConfig)
	defer db.Close()

	return runMigrations(ctx, db, goose.DialectPostgres, "migrations/postgres", log)
}

func (s *PostgresStore) Create(ctx context.Context, conv types.Conversation) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	tag, err := s.pool.Exec(ctx, `
INSERT INTO conversations (conv_id, user_id, title)
VALUES ($1, $2, $3)
ON CONFLICT (conv_id) DO NOTHING
`, conv.ConversationID, conv.UserID, strings.TrimSpace(conv.Title))
	if err != nil {
		return false, errors.Wrapf(err, "failed to create conversation %s", conv.ConversationID)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) CountByUser(ctx context.Context, userID int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var count int
	err := s.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM conversations WHERE user_id = $1
`, userID).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count conversations")
	}
	return count, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID int64, offset, limit int) ([]types.Conversation, error) {
	if limit <= 0 {
		limit = types.PageSize
	}
	if offset < 0 {
		offset = 0
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := s.pool.Query(ctx, `
SELECT id, conv_id, user_id, title, created_at
FROM conversations
WHERE user_id = $1
ORDER BY id DESC
LIMIT $2 OFFSET $3
`, userID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list conversations")
	}
	defer rows.Close()

	convs := make([]types.Conversation, 0, limit)
	for rows.Next() {
		var c types.Conversation
		if err := rows.Scan(&c.ID, &c.ConversationID, &c.UserID, &c.Title, &c.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan conversation")
		}
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to list conversations")
	}
	return convs, nil
}

func (s *PostgresStore) GetByUserAndID(ctx context.Context, userID int64, conversationID string) (*types.Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var c types.Conversation
	err := s.pool.QueryRow(ctx, `
SELECT id, conv_id, user_id, title, created_at
FROM conversations
WHERE user_id = $1 AND conv_id = $2
`, userID, conversationID).Scan(&c.ID, &c.ConversationID, &c.UserID, &c.Title, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrConversationNotFound
		}
		return nil, errors.Wrapf(err, "failed to get conversation %s", conversationID)
	}
	return &c, nil
}

func (s *PostgresStore) DeleteByUserAndID(ctx context.Context, userID int64, conversationID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
DELETE FROM conversations WHERE user_id = $1 AND conv_id = $2
`, userID, conversationID)
	if err != nil {
		return errors.Wrapf(err, "failed to delete conversation %s", conversationID)
	}
	return nil
}
