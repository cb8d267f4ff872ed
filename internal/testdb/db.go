package testdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/phrazzld/scry-tutor/internal/config"
	"github.com/phrazzld/scry-tutor/internal/platform/sqlstore"
	"github.com/stretchr/testify/require"
)

// Timeout bounds opening and migrating a test database.
const Timeout = 30 * time.Second

// OpenSQLite returns a migrated SQLite database private to t.
func OpenSQLite(t *testing.T) *sqlstore.DB {
	t.Helper()
	return open(t, config.DatabaseConfig{
		Driver: "sqlite",
		URL:    filepath.Join(t.TempDir(), "scry.db"),
	})
}

// OpenPostgres returns the migrated PostgreSQL test database, skipping t
// when none is configured. In CI a missing database is a failure.
func OpenPostgres(t *testing.T) *sqlstore.DB {
	t.Helper()

	dbURL := PostgresURL()
	if dbURL == "" {
		if IsCI() {
			t.Fatalf("%s must be set in CI", EnvTestDBURL)
		}
		t.Skipf("%s not set; skipping PostgreSQL test", EnvTestDBURL)
	}
	t.Logf("using PostgreSQL test database %s", MaskURL(dbURL))

	return open(t, config.DatabaseConfig{Driver: "postgres", URL: dbURL})
}

// ForEachDialect runs fn as a subtest against SQLite and, when configured,
// PostgreSQL.
func ForEachDialect(t *testing.T, fn func(t *testing.T, db *sqlstore.DB)) {
	t.Helper()

	t.Run("sqlite", func(t *testing.T) {
		fn(t, OpenSQLite(t))
	})
	t.Run("postgres", func(t *testing.T) {
		fn(t, OpenPostgres(t))
	})
}

func open(t *testing.T, cfg config.DatabaseConfig) *sqlstore.DB {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	db, err := sqlstore.Open(ctx, cfg, nil)
	require.NoError(t, err, "failed to open %s test database", cfg.Driver)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx), "failed to migrate %s test database", cfg.Driver)
	return db
}
