// Package testutil provides test helpers shared across packages.
package testutil

import (
	"context"
	"testing"

	"github.com/sc4plugins/custom-budget-departments/internal/model"
	"github.com/sc4plugins/custom-budget-departments/internal/service"
	"github.com/sc4plugins/custom-budget-departments/internal/storage"
)

// TestDB is a migrated in-memory store with one city.
type TestDB struct {
	Store  *storage.Store
	t      *testing.T
	CityID string
}

// SetupTestDB creates a new in-memory test database holding a single city.
// It automatically handles migrations and cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	city, err := store.CreateCity(ctx, t.Name())
	if err != nil {
		t.Fatalf("failed to seed city: %v", err)
	}

	return &TestDB{
		Store:  store,
		CityID: city.ID,
		t:      t,
	}
}

// Segment returns the save segment of the seeded city.
func (db *TestDB) Segment() service.DBSegment {
	return db.Store.Segment(context.Background(), db.CityID)
}

// MustRecord returns the stored bytes for key or fails the test.
func (db *TestDB) MustRecord(key model.ResourceKey) []byte {
	db.t.Helper()
	data, err := db.Store.ReadRecord(context.Background(), db.CityID, key)
	if err != nil {
		db.t.Fatalf("record %08x:%08x:%08x: %v", key.Type, key.Group, key.Instance, err)
	}
	return data
}
