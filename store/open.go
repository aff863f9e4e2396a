package store

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BatmanBruc/gembot/types"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// OpenConversationStore connects the selected driver and applies pending
// migrations. An empty dsn falls back to DefaultSQLitePath for sqlite and to
// the POSTGRES_* variables for postgres.
func OpenConversationStore(ctx context.Context, driver, dsn string, log *zap.SugaredLogger) (types.ConversationStore, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite:
		return NewSQLiteStore(ctx, dsn, log)
	case DriverPostgres:
		return NewPostgresStore(ctx, dsn, log)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedStoreDriver, driver)
	}
}
