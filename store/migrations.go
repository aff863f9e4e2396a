package store

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// gooseLogger routes goose output through zap.
type gooseLogger struct {
	log *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Infof(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Errorf(format, v...)
}

func runMigrations(ctx context.Context, db *sql.DB, dialect goose.Dialect, dir string, log *zap.SugaredLogger) error {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	fsys, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return errors.Wrapf(err, "failed to open migrations dir %s", dir)
	}
	provider, err := goose.NewProvider(dialect, db, fsys,
		goose.WithLogger(gooseLogger{log: log}),
		goose.WithVerbose(true),
	)
	if err != nil {
		return errors.Wrap(err, "failed to create migration provider")
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to run migrations")
	}
	log.Infow("Migrations applied", "dialect", dialect, "applied", len(results))
	return nil
}
