package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"motocusto/internal/core"
	"motocusto/internal/ports"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

var _ ports.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// LoadConfiguration implements ports.SettingsStore
func (r *SQLiteRepository) LoadConfiguration(ctx context.Context, userID string) (core.CostConfiguration, error) {
	s, err := r.queries.GetSettings(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CostConfiguration{}, nil
	}
	if err != nil {
		return core.CostConfiguration{}, fmt.Errorf("get settings: %w", err)
	}
	return settingToCore(s), nil
}

// SaveConfiguration implements ports.SettingsStore
func (r *SQLiteRepository) SaveConfiguration(ctx context.Context, userID string, cfg core.CostConfiguration) (core.CostConfiguration, error) {
	version, err := r.queries.UpsertSettings(ctx, UpsertSettingsParams{
		UserID:              userID,
		OilPrice:            cfg.Oil.Price,
		OilLifespanKm:       cfg.Oil.LifespanKm,
		DriveKitPrice:       cfg.DriveKit.Price,
		DriveKitLifespanKm:  cfg.DriveKit.LifespanKm,
		FrontTirePrice:      cfg.FrontTire.Price,
		FrontTireLifespanKm: cfg.FrontTire.LifespanKm,
		RearTirePrice:       cfg.RearTire.Price,
		RearTireLifespanKm:  cfg.RearTire.LifespanKm,
		FuelPricePerLiter:   cfg.Fuel.PricePerLiter,
		FuelKmPerLiter:      cfg.Fuel.KmPerLiter,
		UpdatedAt:           r.now().UnixMilli(),
	})
	if err != nil {
		return core.CostConfiguration{}, fmt.Errorf("upsert settings: %w", err)
	}
	cfg.Version = version

	slog.InfoContext(ctx, "Cost configuration saved to SQLite",
		"user_id", userID,
		"version", version)
	return cfg, nil
}

// LoadEntries implements ports.EntryStore
func (r *SQLiteRepository) LoadEntries(ctx context.Context, userID string) ([]core.Entry, error) {
	rows, err := r.queries.ListEntriesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	entries := make([]core.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := entryToCore(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// GetEntry implements ports.EntryStore
func (r *SQLiteRepository) GetEntry(ctx context.Context, userID, entryID string) (core.Entry, error) {
	row, err := r.queries.GetEntry(ctx, entryID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, core.ErrNotFound
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("get entry by id: %w", err)
	}
	return entryToCore(row)
}

// SaveEntry implements ports.EntryStore
func (r *SQLiteRepository) SaveEntry(ctx context.Context, userID string, e core.Entry) (core.Entry, error) {
	now := r.now().UnixMilli()

	if e.ID == "" {
		e.ID = uuid.NewString()
		err := r.queries.CreateEntry(ctx, CreateEntryParams{
			ID:            e.ID,
			UserID:        userID,
			Day:           e.Date.String(),
			OdometerStart: e.OdometerStart,
			OdometerEnd:   e.OdometerEnd,
			FoodExpense:   e.FoodExpense,
			OtherExpenses: e.OtherExpenses,
			GrossEarnings: e.GrossEarnings,
			Now:           now,
		})
		if err != nil {
			return core.Entry{}, fmt.Errorf("create entry: %w", err)
		}
		e.Version = 1

		slog.InfoContext(ctx, "Entry saved to SQLite",
			"id", e.ID,
			"user_id", userID,
			"date", e.Date.String(),
			"distance_km", e.Distance())
		return e, nil
	}

	version, err := r.queries.UpdateEntry(ctx, UpdateEntryParams{
		Day:           e.Date.String(),
		OdometerStart: e.OdometerStart,
		OdometerEnd:   e.OdometerEnd,
		FoodExpense:   e.FoodExpense,
		OtherExpenses: e.OtherExpenses,
		GrossEarnings: e.GrossEarnings,
		UpdatedAt:     now,
		ID:            e.ID,
		UserID:        userID,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, core.ErrNotFound
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("update entry: %w", err)
	}
	e.Version = version

	slog.InfoContext(ctx, "Entry updated in SQLite",
		"id", e.ID,
		"user_id", userID,
		"version", version)
	return e, nil
}

// DeleteEntry implements ports.EntryStore
func (r *SQLiteRepository) DeleteEntry(ctx context.Context, userID, entryID string) error {
	n, err := r.queries.DeleteEntry(ctx, entryID, userID)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// CreateUser implements ports.UserStore
func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = r.now().UTC()

	err := r.queries.CreateUser(ctx, CreateUserParams{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UnixMilli(),
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.User{}, core.ErrEmailTaken
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetUserByEmail implements ports.UserStore
func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row, err := r.queries.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return core.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		CreatedAt:    time.UnixMilli(row.CreatedAt).UTC(),
	}, nil
}

// PendingSync returns entries that need to be mirrored to Google Sheets
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]ports.PendingEntry, error) {
	rows, err := r.queries.GetPendingSyncEntries(ctx, GetPendingSyncEntriesParams{
		MaxAttempts: ports.MaxSyncAttempts,
		Limit:       int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("get pending sync entries: %w", err)
	}

	pending := make([]ports.PendingEntry, len(rows))
	for i, row := range rows {
		pending[i] = ports.PendingEntry{
			UserID:    row.UserID,
			EntryID:   row.ID,
			Version:   row.Version,
			Attempts:  int(row.SyncAttempts),
			UpdatedAt: time.UnixMilli(row.UpdatedAt).UTC(),
		}
	}
	return pending, nil
}

// MarkSynced marks an entry version as successfully synced
func (r *SQLiteRepository) MarkSynced(ctx context.Context, entryID string, version int64) error {
	if err := r.queries.MarkEntrySynced(ctx, entryID, version); err != nil {
		return fmt.Errorf("mark entry synced: %w", err)
	}

	slog.InfoContext(ctx, "Entry marked as synced", "id", entryID, "version", version)
	return nil
}

// MarkSyncError records a failed attempt for an entry version
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, entryID string, version int64) error {
	if err := r.queries.MarkEntrySyncError(ctx, entryID, version); err != nil {
		return fmt.Errorf("mark entry sync error: %w", err)
	}

	slog.WarnContext(ctx, "Entry marked with sync error", "id", entryID, "version", version)
	return nil
}

// RetryFailedSyncs puts every entry in error back to pending
func (r *SQLiteRepository) RetryFailedSyncs(ctx context.Context) (int, error) {
	n, err := r.queries.RetryFailedSyncs(ctx)
	if err != nil {
		return 0, fmt.Errorf("retry failed syncs: %w", err)
	}
	return int(n), nil
}

func settingToCore(s Setting) core.CostConfiguration {
	return core.CostConfiguration{
		Oil:       core.MaintenanceItem{Price: s.OilPrice, LifespanKm: s.OilLifespanKm},
		DriveKit:  core.MaintenanceItem{Price: s.DriveKitPrice, LifespanKm: s.DriveKitLifespanKm},
		FrontTire: core.MaintenanceItem{Price: s.FrontTirePrice, LifespanKm: s.FrontTireLifespanKm},
		RearTire:  core.MaintenanceItem{Price: s.RearTirePrice, LifespanKm: s.RearTireLifespanKm},
		Fuel:      core.FuelCost{PricePerLiter: s.FuelPricePerLiter, KmPerLiter: s.FuelKmPerLiter},
		Version:   s.Version,
	}
}

func entryToCore(row Entry) (core.Entry, error) {
	day, err := core.ParseDate(row.Day)
	if err != nil {
		return core.Entry{}, fmt.Errorf("entry %s: %w", row.ID, err)
	}
	return core.Entry{
		ID:            row.ID,
		Date:          day,
		OdometerStart: row.OdometerStart,
		OdometerEnd:   row.OdometerEnd,
		FoodExpense:   row.FoodExpense,
		OtherExpenses: row.OtherExpenses,
		GrossEarnings: row.GrossEarnings,
		Version:       row.Version,
	}, nil
}
