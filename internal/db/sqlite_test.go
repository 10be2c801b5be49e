package db_test

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomotodo/internal/db"
)

func TestRunMigrationsIsIdempotent(t *testing.T) {
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.RunMigrations(database, db.MigrationSource("")))
	require.NoError(t, db.RunMigrations(database, db.MigrationSource("")))

	var applied int
	require.NoError(t, database.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&applied))
	assert.Equal(t, 1, applied)

	for _, table := range []string{"todos", "pomodoro_sessions", "timer_state"} {
		var name string
		err := database.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		require.NoError(t, err, "table %s", table)
	}
}

func TestForeignKeysEnabled(t *testing.T) {
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "fk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	var enabled int
	require.NoError(t, database.QueryRow(`PRAGMA foreign_keys`).Scan(&enabled))
	assert.Equal(t, 1, enabled)
}

func TestRunMigrationsRollsBackFailedFile(t *testing.T) {
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "bad.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	source := fstest.MapFS{
		"0001_ok.sql":  {Data: []byte(`CREATE TABLE notes (id TEXT PRIMARY KEY);`)},
		"0002_bad.sql": {Data: []byte(`CREATE TABLE broken (;`)},
		"README.md":    {Data: []byte("ignored")},
	}

	err = db.RunMigrations(database, source)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0002_bad.sql")

	var names []string
	rows, err := database.Query(`SELECT name FROM schema_migrations ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"0001_ok.sql"}, names)
}
