// Package ports declares the interfaces between the services and their
// outbound adapters (storage backends, the spreadsheet mirror, the advisor).
package ports

import (
	"context"
	"time"

	"motocusto/internal/core"
)

// Sync states recorded per entry.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

// MaxSyncAttempts is how many failed attempts an entry in error gets before
// the sweep stops picking it up. RetryFailedSyncs starts the count over.
const MaxSyncAttempts = 5

type (
	// SettingsStore persists the single cost configuration of each user.
	SettingsStore interface {
		// LoadConfiguration returns the zero configuration (Version 0) when
		// the user never saved one.
		LoadConfiguration(ctx context.Context, userID string) (core.CostConfiguration, error)
		// SaveConfiguration replaces the configuration and returns it with
		// its new Version.
		SaveConfiguration(ctx context.Context, userID string, cfg core.CostConfiguration) (core.CostConfiguration, error)
	}

	EntryStore interface {
		// LoadEntries returns all entries of the user ordered by date.
		LoadEntries(ctx context.Context, userID string) ([]core.Entry, error)
		GetEntry(ctx context.Context, userID, entryID string) (core.Entry, error)
		// SaveEntry inserts (empty ID) or replaces an entry, bumps its
		// Version and marks it pending for sync.
		SaveEntry(ctx context.Context, userID string, e core.Entry) (core.Entry, error)
		DeleteEntry(ctx context.Context, userID, entryID string) error
	}

	UserStore interface {
		CreateUser(ctx context.Context, u core.User) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
	}

	// PendingEntry is the minimal data the sync worker needs to enqueue work.
	PendingEntry struct {
		UserID    string
		EntryID   string
		Version   int64
		Attempts  int
		UpdatedAt time.Time
	}

	SyncStore interface {
		// PendingSync returns pending entries and entries in error with
		// fewer than MaxSyncAttempts failed attempts, oldest first.
		PendingSync(ctx context.Context, limit int) ([]PendingEntry, error)
		// MarkSynced and MarkSyncError are no-ops when the stored version
		// moved past version.
		MarkSynced(ctx context.Context, entryID string, version int64) error
		MarkSyncError(ctx context.Context, entryID string, version int64) error
		// RetryFailedSyncs resets every entry in error to pending and
		// returns how many were reset.
		RetryFailedSyncs(ctx context.Context) (int, error)
	}

	// Store is what every backend provides.
	Store interface {
		SettingsStore
		EntryStore
		UserStore
		SyncStore
		Ping(ctx context.Context) error
		Close() error
	}

	// SheetRow is an entry together with its breakdown, as mirrored to a
	// spreadsheet.
	SheetRow struct {
		UserID    string
		Entry     core.Entry
		Breakdown core.CostBreakdown
	}

	SheetWriter interface {
		UpsertEntry(ctx context.Context, row SheetRow) error
		DeleteEntry(ctx context.Context, entryID string) error
	}

	// Advisor produces free-text suggestions from recent entries.
	Advisor interface {
		Suggest(ctx context.Context, entries []AdvisorEntry) ([]string, error)
	}

	// AdvisorEntry is the reduced view of an entry sent to the advisor.
	AdvisorEntry struct {
		Date          string  `json:"date"`
		DistanceKm    float64 `json:"distanceKm"`
		FoodExpense   float64 `json:"foodExpense"`
		OtherExpenses float64 `json:"otherExpenses"`
		GrossEarnings float64 `json:"grossEarnings"`
	}
)
