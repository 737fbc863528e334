package main

import (
	"errors"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
	"github.com/threadspace/threadspace/internal/config"
)

var migrateDown bool

var migrateCmd = &cobra.Command{
	Use:         "migrate",
	Short:       "Run database migrations",
	Args:        cobra.NoArgs,
	Annotations: structuredLogging(),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return configError(err)
		}
		if cfg.StoreBackend != config.StoreBackendPostgres {
			return configError(errors.New("migrate requires STORE_BACKEND=postgres"))
		}

		m, err := migrate.New(
			"file://db/migrations",
			cfg.DatabaseURL,
		)
		if err != nil {
			return err
		}
		defer func() {
			_, _ = m.Close()
		}()

		run := m.Up
		if migrateDown {
			run = func() error { return m.Steps(-1) }
		}
		if err := run(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				slog.Info("no changes to apply")
				return nil
			}
			return err
		}

		slog.Info("migrations applied successfully", "down", migrateDown)
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "roll back the most recent migration")
}
