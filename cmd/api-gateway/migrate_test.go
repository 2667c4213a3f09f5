package main

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-fee-api/migrations"
)

func TestRunMigrations(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	original := gooseRunFunc
	t.Cleanup(func() { gooseRunFunc = original })

	var gotCommand, gotDir string
	var gotArgs []string
	gooseRunFunc = func(ctx context.Context, command string, db *sql.DB, dir string, args ...string) error {
		gotCommand, gotDir, gotArgs = command, dir, args
		if command == "bogus" {
			return errors.New(`"bogus": no such command`)
		}
		return nil
	}

	require.NoError(t, runMigrations(context.Background(), sqlDB, []string{"up-to", "1"}))
	assert.Equal(t, "up-to", gotCommand)
	assert.Equal(t, ".", gotDir)
	assert.Equal(t, []string{"1"}, gotArgs)

	err = runMigrations(context.Background(), sqlDB, []string{"bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate bogus")
}

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	assert.Contains(t, files, "00001_init.sql")
}

func TestMigrateCommandRequiresArgs(t *testing.T) {
	cmd := migrateCommand()
	assert.Error(t, cmd.Args(cmd, nil))
	assert.NoError(t, cmd.Args(cmd, []string{"status"}))
}
