package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BatmanBruc/gembot/internal/config"
	"github.com/BatmanBruc/gembot/internal/logger"
	"github.com/BatmanBruc/gembot/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		driver := strings.ToLower(strings.TrimSpace(v.GetString(config.KeyDBDriver)))
		dsn := strings.TrimSpace(v.GetString(config.KeyDBDSN))

		log, err := logger.New(v.GetString(config.KeyLogMode))
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		conversations, err := store.OpenConversationStore(cmd.Context(), driver, dsn, log.Named("store"))
		if err != nil {
			return fmt.Errorf("failed to migrate %s store: %w", driver, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", driver)
		return conversations.Close()
	},
}
