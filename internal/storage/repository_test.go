package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"motocusto/internal/core"
	"motocusto/internal/ports"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "motocusto.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_Configuration(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cfg, err := repo.LoadConfiguration(ctx, "u1")
	if err != nil {
		t.Fatalf("LoadConfiguration: %v", err)
	}
	if cfg != (core.CostConfiguration{}) {
		t.Fatalf("expected zero configuration, got %+v", cfg)
	}

	in := core.CostConfiguration{
		Oil:       core.MaintenanceItem{Price: 45, LifespanKm: 1000},
		DriveKit:  core.MaintenanceItem{Price: 280, LifespanKm: 15000},
		FrontTire: core.MaintenanceItem{Price: 180, LifespanKm: 10000},
		RearTire:  core.MaintenanceItem{Price: 220, LifespanKm: 8000},
		Fuel:      core.FuelCost{PricePerLiter: 5.89, KmPerLiter: 38},
	}
	saved, err := repo.SaveConfiguration(ctx, "u1", in)
	if err != nil || saved.Version != 1 {
		t.Fatalf("SaveConfiguration: version=%d err=%v", saved.Version, err)
	}
	saved, err = repo.SaveConfiguration(ctx, "u1", in)
	if err != nil || saved.Version != 2 {
		t.Fatalf("second SaveConfiguration: version=%d err=%v", saved.Version, err)
	}

	got, err := repo.LoadConfiguration(ctx, "u1")
	if err != nil {
		t.Fatalf("LoadConfiguration: %v", err)
	}
	in.Version = 2
	if got != in {
		t.Fatalf("LoadConfiguration() = %+v, want %+v", got, in)
	}
}

func TestSQLiteRepository_Entries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	second, err := repo.SaveEntry(ctx, "u1", core.Entry{
		Date: core.NewDate(2025, 4, 2), OdometerStart: 1200, OdometerEnd: 1350,
		FoodExpense: 22.5, OtherExpenses: 3, GrossEarnings: 310.4,
	})
	if err != nil || second.ID == "" || second.Version != 1 {
		t.Fatalf("SaveEntry insert: %+v err=%v", second, err)
	}
	first, err := repo.SaveEntry(ctx, "u1", core.Entry{Date: core.NewDate(2025, 4, 1), OdometerStart: 1000, OdometerEnd: 1200})
	if err != nil {
		t.Fatalf("SaveEntry insert: %v", err)
	}
	if _, err := repo.SaveEntry(ctx, "u2", core.Entry{Date: core.NewDate(2025, 4, 1)}); err != nil {
		t.Fatalf("SaveEntry other user: %v", err)
	}

	entries, err := repo.LoadEntries(ctx, "u1")
	if err != nil || len(entries) != 2 {
		t.Fatalf("LoadEntries: %d err=%v", len(entries), err)
	}
	if entries[0].ID != first.ID || entries[1].ID != second.ID {
		t.Fatal("entries are not ordered by date")
	}
	if entries[1] != second {
		t.Fatalf("round trip mismatch: %+v vs %+v", entries[1], second)
	}

	second.GrossEarnings = 400
	updated, err := repo.SaveEntry(ctx, "u1", second)
	if err != nil || updated.Version != 2 {
		t.Fatalf("SaveEntry update: %+v err=%v", updated, err)
	}
	got, err := repo.GetEntry(ctx, "u1", second.ID)
	if err != nil || got.GrossEarnings != 400 || got.Version != 2 {
		t.Fatalf("GetEntry: %+v err=%v", got, err)
	}

	if _, err := repo.GetEntry(ctx, "u2", second.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign entry, got %v", err)
	}
	if _, err := repo.SaveEntry(ctx, "u2", second); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating foreign entry, got %v", err)
	}

	if err := repo.DeleteEntry(ctx, "u1", first.ID); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if err := repo.DeleteEntry(ctx, "u1", first.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteRepository_SyncStatus(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e, err := repo.SaveEntry(ctx, "u1", core.Entry{Date: core.NewDate(2025, 4, 1)})
	if err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}

	pending, err := repo.PendingSync(ctx, 10)
	if err != nil || len(pending) != 1 || pending[0].EntryID != e.ID || pending[0].UserID != "u1" {
		t.Fatalf("PendingSync: %+v err=%v", pending, err)
	}

	if err := repo.MarkSynced(ctx, e.ID, e.Version+1); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	if pending, _ := repo.PendingSync(ctx, 10); len(pending) != 1 {
		t.Fatal("MarkSynced with a newer version must not apply")
	}

	if err := repo.MarkSynced(ctx, e.ID, e.Version); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	if pending, _ := repo.PendingSync(ctx, 10); len(pending) != 0 {
		t.Fatalf("expected empty pending list, got %d", len(pending))
	}

	// editing puts the entry back in the queue
	if _, err := repo.SaveEntry(ctx, "u1", e); err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}
	if pending, _ := repo.PendingSync(ctx, 10); len(pending) != 1 {
		t.Fatal("updated entry was not marked pending")
	}
}

func TestSQLiteRepository_Users(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, core.User{Name: "Joana", Email: " Joana@Example.com ", PasswordHash: "hash"})
	if err != nil || u.ID == "" || u.Email != "joana@example.com" {
		t.Fatalf("CreateUser: %+v err=%v", u, err)
	}
	if _, err := repo.CreateUser(ctx, core.User{Name: "J", Email: "joana@example.com", PasswordHash: "x"}); !errors.Is(err, core.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	got, err := repo.GetUserByEmail(ctx, "JOANA@example.com")
	if err != nil || got.ID != u.ID || got.PasswordHash != "hash" {
		t.Fatalf("GetUserByEmail: %+v err=%v", got, err)
	}
	if _, err := repo.GetUserByEmail(ctx, "missing@example.com"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteRepository_SyncErrorRetries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e, err := repo.SaveEntry(ctx, "u1", core.Entry{Date: core.NewDate(2025, 4, 2)})
	if err != nil {
		t.Fatalf("SaveEntry: %v", err)
	}

	if err := repo.MarkSyncError(ctx, e.ID, e.Version+1); err != nil {
		t.Fatalf("MarkSyncError: %v", err)
	}
	if pending, _ := repo.PendingSync(ctx, 10); len(pending) != 1 || pending[0].Attempts != 0 {
		t.Fatalf("MarkSyncError with another version must not apply: %+v", pending)
	}

	for i := 1; i <= ports.MaxSyncAttempts; i++ {
		pending, err := repo.PendingSync(ctx, 10)
		if err != nil || len(pending) != 1 {
			t.Fatalf("attempt %d: entry in error should be retried: %+v err=%v", i, pending, err)
		}
		if err := repo.MarkSyncError(ctx, e.ID, e.Version); err != nil {
			t.Fatalf("MarkSyncError: %v", err)
		}
	}
	if pending, _ := repo.PendingSync(ctx, 10); len(pending) != 0 {
		t.Fatalf("entry out of attempts is still picked up: %+v", pending)
	}

	n, err := repo.RetryFailedSyncs(ctx)
	if err != nil || n != 1 {
		t.Fatalf("RetryFailedSyncs = %d, %v", n, err)
	}
	pending, _ := repo.PendingSync(ctx, 10)
	if len(pending) != 1 || pending[0].Attempts != 0 {
		t.Fatalf("reset entry not pending: %+v", pending)
	}
}
