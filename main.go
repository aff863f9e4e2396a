package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BatmanBruc/gembot/internal/config"
)

var (
	envFile string
	v       = config.New()
)

var rootCmd = &cobra.Command{
	Use:   "gembot",
	Short: "Private Telegram front-end for a generative AI chat",
	Long: `gembot relays the owner's Telegram messages and photos to a generative
AI provider and keeps saved conversations so they can be continued later.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return config.LoadEnvFile(envFile)
	},
	RunE: runBot,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flags.String("log-mode", "", "development or production")
	_ = v.BindPFlag(config.KeyLogMode, flags.Lookup("log-mode"))

	rootCmd.AddCommand(runCmd, migrateCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
