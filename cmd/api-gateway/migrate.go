package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/noah-isme/class-fee-api/migrations"
	"github.com/noah-isme/class-fee-api/pkg/config"
	"github.com/noah-isme/class-fee-api/pkg/database"
)

var gooseRunFunc = goose.RunContext // mockable

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS]",
		Short: "Apply or inspect database migrations (up, down, status, version, redo, reset, up-to, down-to)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return errors.New("no config found in context")
			}
			db, err := database.NewPostgres(cmd.Context(), cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to postgres: %w", err)
			}
			defer db.Close()
			return runMigrations(cmd.Context(), db.DB, args)
		},
	}
}

func runMigrations(ctx context.Context, db *sql.DB, args []string) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := gooseRunFunc(ctx, args[0], db, ".", args[1:]...); err != nil {
		return fmt.Errorf("migrate %s: %w", args[0], err)
	}
	return nil
}
