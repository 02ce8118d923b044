package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sc4plugins/custom-budget-departments/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*Store, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func TestOpen(t *testing.T) {
	store, err := Open(context.Background(), "", ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	assert.Equal(t, DriverSQLite, store.Driver())

	_, err = Open(context.Background(), "mysql", "whatever")
	assert.ErrorIs(t, err, common.ErrInvalidConfig)

	_, err = Open(context.Background(), DriverSQLite, "  ")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestRebind(t *testing.T) {
	query := "SELECT * FROM segments WHERE city_id = ? AND type_id = ?"

	assert.Equal(t, query, rebind(DriverSQLite, query))
	assert.Equal(t, "SELECT * FROM segments WHERE city_id = $1 AND type_id = $2", rebind(DriverPostgres, query))
}

func TestMigrate_Idempotent(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))

	version, err := store.schemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
	assert.Equal(t, ExpectedSchemaVersion, migrations[len(migrations)-1].Version)
}

func TestMigrate_CreatesTables(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	for _, table := range []string{"cities", "segments"} {
		var count int
		err := store.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s", table)
	}
}

func TestMigrate_NilContext(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	//nolint:staticcheck // nil context is the case under test
	assert.ErrorIs(t, store.Migrate(nil), ErrNilContext)
}

func TestMigrations_DialectTypes(t *testing.T) {
	sqlite := migrations[1].Queries(DriverSQLite)[0]
	postgres := migrations[1].Queries(DriverPostgres)[0]

	assert.Contains(t, sqlite, "BLOB")
	assert.Contains(t, sqlite, "DATETIME")
	assert.Contains(t, postgres, "BYTEA")
	assert.Contains(t, postgres, "TIMESTAMPTZ")
}
