package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"customerapi/internal/platform/config"
	"customerapi/internal/platform/logger"
)

var (
	cfg       *config.Config
	appLogger *slog.Logger
	envFile   string
)

var rootCmd = &cobra.Command{
	Use:               "customer-api",
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	Short:             "Customer CRUD REST API",
	Long: `customer-api serves the customer REST API.

Running without a subcommand is the same as "serve".`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(envFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		appLogger = logger.New(cfg.Environment, cfg.LogLevel)
		slog.SetDefault(appLogger)
		return nil
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before the environment")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
