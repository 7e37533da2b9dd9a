package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	pg "diffreview/internal/adapters/postgres"
	"diffreview/internal/config"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diffreview",
		Short: "Visual comparison review service",
		Long: `diffreview runs image comparisons through an analysis engine, keeps each
project's comparison history and records the reviewer's verdict on every result.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional
			_ = godotenv.Load()
		},
	}
	cmd.AddCommand(newServeCmd(), newMigrateCmd(), newUserCmd())
	return cmd
}

// loadConfig reads the environment and installs the JSON logger.
func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	return cfg, logger, err
}

func connect(ctx context.Context, cfg config.Config) (*pg.DB, error) {
	db, err := pg.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	return db, nil
}
