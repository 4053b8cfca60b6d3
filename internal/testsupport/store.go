package testsupport

import (
	"context"
	"testing"

	"blast/internal/config"
	"blast/internal/shotdata"
	"blast/internal/tracking"
)

// MustOpenStore opens the SQLite tracking store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *tracking.Store {
	t.Helper()

	store, err := tracking.Open(cfg)
	if err != nil {
		t.Fatalf("tracking.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// AddVersion publishes a version through the store.
func AddVersion(t testing.TB, store *tracking.Store, rec shotdata.Record) shotdata.Record {
	t.Helper()

	out, err := store.AddVersion(context.Background(), rec)
	if err != nil {
		t.Fatalf("store.AddVersion: %v", err)
	}
	return out
}
