//go:build integration

package pgstore

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"motocusto/internal/core"
	"motocusto/internal/ports"
)

// Run with: POSTGRES_TEST_DSN=postgres://... go test -tags=integration ./internal/pgstore

func TestIntegration_StoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set, skipping integration test")
	}
	ctx := context.Background()

	if err := RunMigrations(dsn); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	pool, err := NewPool(ctx, PoolConfig{DSN: dsn})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	store := NewStore(pool)
	defer store.Close()

	userID := uuid.NewString()

	cfg, err := store.LoadConfiguration(ctx, userID)
	if err != nil || cfg != (core.CostConfiguration{}) {
		t.Fatalf("LoadConfiguration: %+v err=%v", cfg, err)
	}
	saved, err := store.SaveConfiguration(ctx, userID, core.CostConfiguration{Oil: core.MaintenanceItem{Price: 40, LifespanKm: 1000}})
	if err != nil || saved.Version != 1 {
		t.Fatalf("SaveConfiguration: %+v err=%v", saved, err)
	}

	e, err := store.SaveEntry(ctx, userID, core.Entry{Date: core.NewDate(2025, 5, 1), OdometerEnd: 120, GrossEarnings: 250})
	if err != nil || e.Version != 1 {
		t.Fatalf("SaveEntry: %+v err=%v", e, err)
	}
	got, err := store.GetEntry(ctx, userID, e.ID)
	if err != nil || got != e {
		t.Fatalf("GetEntry: %+v err=%v", got, err)
	}

	if err := store.MarkSyncError(ctx, e.ID, e.Version); err != nil {
		t.Fatalf("MarkSyncError: %v", err)
	}
	if p := findPending(t, store, e.ID); p == nil || p.Attempts != 1 {
		t.Fatalf("entry in error not retried: %+v", p)
	}
	if err := store.MarkSynced(ctx, e.ID, e.Version); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	if p := findPending(t, store, e.ID); p != nil {
		t.Fatalf("synced entry still queued: %+v", p)
	}

	if err := store.DeleteEntry(ctx, userID, e.ID); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if err := store.DeleteEntry(ctx, userID, e.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func findPending(t *testing.T, store *Store, entryID string) *ports.PendingEntry {
	t.Helper()
	pending, err := store.PendingSync(context.Background(), 1000)
	if err != nil {
		t.Fatalf("PendingSync: %v", err)
	}
	for i := range pending {
		if pending[i].EntryID == entryID {
			return &pending[i]
		}
	}
	return nil
}
