// Package testutil provides shared fixtures for tests that need a real database.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/subscription-sentinel/internal/storage"
)

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	// Now fixes the storage clock and the reference time for seed data.
	Now time.Time
	// CustomSetup runs after migrations and seeding.
	CustomSetup func(context.Context, *storage.SQLiteStorage) error
	// Seed loads the demo subscription set.
	Seed bool
}

// SetupTestDB creates a migrated in-memory database that is closed when the test ends.
//
// Example:
//
//	store := testutil.SetupTestDB(t, testutil.TestDBOptions{Now: now, Seed: true})
func SetupTestDB(t *testing.T, opts TestDBOptions) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	if !opts.Now.IsZero() {
		now := opts.Now
		store.SetClock(func() time.Time { return now })
	} else {
		opts.Now = time.Now()
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	if opts.Seed {
		seeded, err := store.Seed(ctx, opts.Now)
		if err != nil {
			t.Fatalf("failed to seed database: %v", err)
		}
		if !seeded {
			t.Fatal("expected an empty database to be seeded")
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return store
}
