package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"motocusto/internal/core"
	"motocusto/internal/ports"
)

// Store implements ports.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ ports.Store = (*Store)(nil)

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

// --- Settings ---

func (s *Store) LoadConfiguration(ctx context.Context, userID string) (core.CostConfiguration, error) {
	var c core.CostConfiguration
	err := s.pool.QueryRow(ctx,
		`SELECT oil_price, oil_lifespan_km, drive_kit_price, drive_kit_lifespan_km,
		        front_tire_price, front_tire_lifespan_km, rear_tire_price, rear_tire_lifespan_km,
		        fuel_price_per_liter, fuel_km_per_liter, version
		 FROM settings WHERE user_id = $1`, userID).Scan(
		&c.Oil.Price, &c.Oil.LifespanKm,
		&c.DriveKit.Price, &c.DriveKit.LifespanKm,
		&c.FrontTire.Price, &c.FrontTire.LifespanKm,
		&c.RearTire.Price, &c.RearTire.LifespanKm,
		&c.Fuel.PricePerLiter, &c.Fuel.KmPerLiter,
		&c.Version,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.CostConfiguration{}, nil
	}
	if err != nil {
		return core.CostConfiguration{}, fmt.Errorf("load configuration: %w", err)
	}
	return c, nil
}

func (s *Store) SaveConfiguration(ctx context.Context, userID string, cfg core.CostConfiguration) (core.CostConfiguration, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO settings (user_id, oil_price, oil_lifespan_km, drive_kit_price, drive_kit_lifespan_km,
		                       front_tire_price, front_tire_lifespan_km, rear_tire_price, rear_tire_lifespan_km,
		                       fuel_price_per_liter, fuel_km_per_liter)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (user_id) DO UPDATE SET
		     oil_price = EXCLUDED.oil_price,
		     oil_lifespan_km = EXCLUDED.oil_lifespan_km,
		     drive_kit_price = EXCLUDED.drive_kit_price,
		     drive_kit_lifespan_km = EXCLUDED.drive_kit_lifespan_km,
		     front_tire_price = EXCLUDED.front_tire_price,
		     front_tire_lifespan_km = EXCLUDED.front_tire_lifespan_km,
		     rear_tire_price = EXCLUDED.rear_tire_price,
		     rear_tire_lifespan_km = EXCLUDED.rear_tire_lifespan_km,
		     fuel_price_per_liter = EXCLUDED.fuel_price_per_liter,
		     fuel_km_per_liter = EXCLUDED.fuel_km_per_liter,
		     version = settings.version + 1,
		     updated_at = now()
		 RETURNING version`,
		userID,
		cfg.Oil.Price, cfg.Oil.LifespanKm,
		cfg.DriveKit.Price, cfg.DriveKit.LifespanKm,
		cfg.FrontTire.Price, cfg.FrontTire.LifespanKm,
		cfg.RearTire.Price, cfg.RearTire.LifespanKm,
		cfg.Fuel.PricePerLiter, cfg.Fuel.KmPerLiter,
	).Scan(&cfg.Version)
	if err != nil {
		return core.CostConfiguration{}, fmt.Errorf("save configuration: %w", err)
	}
	return cfg, nil
}

// --- Entries ---

const entryColumns = `id, day, odometer_start, odometer_end, food_expense, other_expenses, gross_earnings, version`

func scanEntry(row scannable) (core.Entry, error) {
	var (
		e   core.Entry
		day time.Time
	)
	err := row.Scan(&e.ID, &day, &e.OdometerStart, &e.OdometerEnd, &e.FoodExpense, &e.OtherExpenses, &e.GrossEarnings, &e.Version)
	if err != nil {
		return core.Entry{}, err
	}
	e.Date = core.NewDate(day.Year(), int(day.Month()), day.Day())
	return e, nil
}

func (s *Store) LoadEntries(ctx context.Context, userID string) ([]core.Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE user_id = $1 ORDER BY day, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) GetEntry(ctx context.Context, userID, entryID string) (core.Entry, error) {
	e, err := scanEntry(s.pool.QueryRow(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = $1 AND user_id = $2`, entryID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Entry{}, fmt.Errorf("get entry %s: %w", entryID, core.ErrNotFound)
		}
		return core.Entry{}, fmt.Errorf("get entry %s: %w", entryID, err)
	}
	return e, nil
}

func (s *Store) SaveEntry(ctx context.Context, userID string, e core.Entry) (core.Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
		err := s.pool.QueryRow(ctx,
			`INSERT INTO entries (id, user_id, day, odometer_start, odometer_end, food_expense, other_expenses, gross_earnings)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING version`,
			e.ID, userID, e.Date.Time, e.OdometerStart, e.OdometerEnd, e.FoodExpense, e.OtherExpenses, e.GrossEarnings,
		).Scan(&e.Version)
		if err != nil {
			return core.Entry{}, fmt.Errorf("create entry: %w", err)
		}
		return e, nil
	}

	err := s.pool.QueryRow(ctx,
		`UPDATE entries SET day = $3, odometer_start = $4, odometer_end = $5, food_expense = $6,
		        other_expenses = $7, gross_earnings = $8, version = version + 1,
		        sync_status = 'pending', sync_attempts = 0, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING version`,
		e.ID, userID, e.Date.Time, e.OdometerStart, e.OdometerEnd, e.FoodExpense, e.OtherExpenses, e.GrossEarnings,
	).Scan(&e.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Entry{}, fmt.Errorf("update entry %s: %w", e.ID, core.ErrNotFound)
		}
		return core.Entry{}, fmt.Errorf("update entry %s: %w", e.ID, err)
	}
	return e, nil
}

func (s *Store) DeleteEntry(ctx context.Context, userID, entryID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM entries WHERE id = $1 AND user_id = $2`, entryID, userID)
	return execExpectOne(tag, err, "delete entry %s", entryID)
}

// --- Users ---

func (s *Store) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, name, email, password_hash) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		u.ID, u.Name, u.Email, u.PasswordHash,
	).Scan(&u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, core.ErrEmailTaken
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	var u core.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.User{}, core.ErrNotFound
		}
		return core.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// --- Sync bookkeeping ---

func (s *Store) PendingSync(ctx context.Context, limit int) ([]ports.PendingEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, version, sync_attempts, updated_at FROM entries
		 WHERE sync_status = 'pending' OR (sync_status = 'error' AND sync_attempts < $1)
		 ORDER BY updated_at LIMIT $2`, ports.MaxSyncAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending entries: %w", err)
	}
	defer rows.Close()

	var pending []ports.PendingEntry
	for rows.Next() {
		var p ports.PendingEntry
		if err := rows.Scan(&p.EntryID, &p.UserID, &p.Version, &p.Attempts, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan pending entry: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

func (s *Store) MarkSynced(ctx context.Context, entryID string, version int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE entries SET sync_status = 'synced', sync_attempts = 0 WHERE id = $1 AND version = $2`, entryID, version)
	if err != nil {
		return fmt.Errorf("mark entry synced: %w", err)
	}
	return nil
}

func (s *Store) MarkSyncError(ctx context.Context, entryID string, version int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE entries SET sync_status = 'error', sync_attempts = sync_attempts + 1
		 WHERE id = $1 AND version = $2`, entryID, version)
	if err != nil {
		return fmt.Errorf("mark entry sync error: %w", err)
	}
	return nil
}

func (s *Store) RetryFailedSyncs(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE entries SET sync_status = 'pending', sync_attempts = 0 WHERE sync_status = 'error'`)
	if err != nil {
		return 0, fmt.Errorf("retry failed syncs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// execExpectOne turns a zero-row Exec into core.ErrNotFound.
func execExpectOne(tag pgconn.CommandTag, err error, format string, args ...any) error {
	if err != nil {
		return fmt.Errorf(fmt.Sprintf(format, args...)+": %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf(fmt.Sprintf(format, args...)+": %w", core.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
