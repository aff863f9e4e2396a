package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	// Register the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/BatmanBruc/gembot/types"
)

// DefaultSQLitePath is used when no DSN is configured for the sqlite driver.
const DefaultSQLitePath = "./conversations_data.db"

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, path string, log *zap.SugaredLogger) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultSQLitePath
	}

	// Each pragma needs the _pragma= prefix with the modernc driver.
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sqlite db %s", path)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping sqlite db")
	}
	if err := runMigrations(ctx, db, goose.DialectSQLite3, "migrations/sqlite", log); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Create(ctx context.Context, conv types.Conversation) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res, err := s.db.ExecContext(ctx, `
INSERT OR IGNORE INTO conversations (conv_id, user_id, title)
VALUES (?, ?, ?)
`, conv.ConversationID, conv.UserID, strings.TrimSpace(conv.Title))
	if err != nil {
		return false, errors.Wrapf(err, "failed to create conversation %s", conv.ConversationID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to read affected rows")
	}
	return n > 0, nil
}

func (s *SQLiteStore) CountByUser(ctx context.Context, userID int64) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations WHERE user_id = ?`, userID).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count conversations")
	}
	return count, nil
}

func (s *SQLiteStore) ListByUser(ctx context.Context, userID int64, offset, limit int) ([]types.Conversation, error) {
	if limit <= 0 {
		limit = types.PageSize
	}
	if offset < 0 {
		offset = 0
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, `
SELECT id, conv_id, user_id, title, created_at
FROM conversations
WHERE user_id = ?
ORDER BY id DESC
LIMIT ? OFFSET ?
`, userID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list conversations")
	}
	defer rows.Close()

	convs := make([]types.Conversation, 0, limit)
	for rows.Next() {
		c, err := scanSQLiteConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to list conversations")
	}
	return convs, nil
}

func (s *SQLiteStore) GetByUserAndID(ctx context.Context, userID int64, conversationID string) (*types.Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	row := s.db.QueryRowContext(ctx, `
SELECT id, conv_id, user_id, title, created_at
FROM conversations
WHERE user_id = ? AND conv_id = ?
`, userID, conversationID)
	c, err := scanSQLiteConversation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrConversationNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *SQLiteStore) DeleteByUserAndID(ctx context.Context, userID int64, conversationID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE user_id = ? AND conv_id = ?`, userID, conversationID); err != nil {
		return errors.Wrapf(err, "failed to delete conversation %s", conversationID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteConversation(row rowScanner) (*types.Conversation, error) {
	var (
		c       types.Conversation
		created int64
	)
	if err := row.Scan(&c.ID, &c.ConversationID, &c.UserID, &c.Title, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to scan conversation")
	}
	c.CreatedAt = time.Unix(created, 0).UTC()
	return &c, nil
}
