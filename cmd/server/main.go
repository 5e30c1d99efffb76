package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eventsync/server/internal/adapter/outbound/postgres"
	"github.com/eventsync/server/internal/app"
	"github.com/eventsync/server/internal/shared/config"
	"github.com/eventsync/server/internal/shared/database"
	"github.com/eventsync/server/internal/shared/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "eventsync-server",
	Short:         "Team collaboration server for campus events",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the invitation sweeper",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		application, err := app.New(cfg)
		if err != nil {
			return fmt.Errorf("initialize application: %w", err)
		}
		defer application.Stop()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := application.Run(ctx); err != nil {
			return err
		}
		application.Logger().Info("server exited")
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the collaboration tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		log, err := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		db, err := database.New(&cfg.Database, log)
		if err != nil {
			return err
		}
		defer func() { _ = database.Close(db) }()

		if err := postgres.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("migration complete", zap.String("database", cfg.Database.Database))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.AddCommand(serveCmd, migrateCmd, versionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
