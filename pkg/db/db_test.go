package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	database, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, VerifyConfiguration(database))
}

func TestOpenCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "nested", "test.db")

	database, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, VerifyConfiguration(database))
}

func TestMigrationRunner(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer database.Close()

	migrations := []Migration{
		{
			Version:     20260815120001,
			Description: "add column",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec("ALTER TABLE things ADD COLUMN note TEXT")
				return err
			},
		},
		{
			Version:     20260815120000,
			Description: "create table",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec("CREATE TABLE things (id INTEGER PRIMARY KEY)")
				return err
			},
			Down: func(tx *sql.Tx) error {
				_, err := tx.Exec("DROP TABLE things")
				return err
			},
		},
	}

	runner := NewMigrationRunner(database)
	ctx := context.Background()

	// migrations apply in version order regardless of slice order
	require.NoError(t, runner.Run(ctx, migrations))

	versions, err := runner.GetAppliedVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{20260815120000, 20260815120001}, versions)

	// re-running is a no-op
	require.NoError(t, runner.Run(ctx, migrations))
	versions, err = runner.GetAppliedVersions(ctx)
	require.NoError(t, err)
	assert.Len(t, versions, 2)

	// rollback removes the latest version but needs a Down function
	err = runner.Rollback(ctx, migrations)
	assert.Error(t, err, "latest migration has no Down")
}
