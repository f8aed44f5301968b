package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    int64
}

type Setting struct {
	UserID              string
	OilPrice            float64
	OilLifespanKm       float64
	DriveKitPrice       float64
	DriveKitLifespanKm  float64
	FrontTirePrice      float64
	FrontTireLifespanKm float64
	RearTirePrice       float64
	RearTireLifespanKm  float64
	FuelPricePerLiter   float64
	FuelKmPerLiter      float64
	Version             int64
	UpdatedAt           int64
}

type Entry struct {
	ID            string
	UserID        string
	Day           string
	OdometerStart float64
	OdometerEnd   float64
	FoodExpense   float64
	OtherExpenses float64
	GrossEarnings float64
	Version       int64
	SyncStatus    string
	CreatedAt     int64
	UpdatedAt     int64
}

const createUser = `-- name: CreateUser :exec
INSERT INTO users (id, name, email, password_hash, created_at)
VALUES (?, ?, ?, ?, ?)
`

type CreateUserParams struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    int64
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) error {
	_, err := q.db.ExecContext(ctx, createUser,
		arg.ID,
		arg.Name,
		arg.Email,
		arg.PasswordHash,
		arg.CreatedAt,
	)
	return err
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT id, name, email, password_hash, created_at FROM users
WHERE email = ?
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByEmail, email)
	var i User
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Email,
		&i.PasswordHash,
		&i.CreatedAt,
	)
	return i, err
}

const getSettings = `-- name: GetSettings :one
SELECT user_id, oil_price, oil_lifespan_km, drive_kit_price, drive_kit_lifespan_km,
       front_tire_price, front_tire_lifespan_km, rear_tire_price, rear_tire_lifespan_km,
       fuel_price_per_liter, fuel_km_per_liter, version, updated_at
FROM settings
WHERE user_id = ?
`

func (q *Queries) GetSettings(ctx context.Context, userID string) (Setting, error) {
	row := q.db.QueryRowContext(ctx, getSettings, userID)
	var i Setting
	err := row.Scan(
		&i.UserID,
		&i.OilPrice,
		&i.OilLifespanKm,
		&i.DriveKitPrice,
		&i.DriveKitLifespanKm,
		&i.FrontTirePrice,
		&i.FrontTireLifespanKm,
		&i.RearTirePrice,
		&i.RearTireLifespanKm,
		&i.FuelPricePerLiter,
		&i.FuelKmPerLiter,
		&i.Version,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertSettings = `-- name: UpsertSettings :one
INSERT INTO settings (
    user_id, oil_price, oil_lifespan_km, drive_kit_price, drive_kit_lifespan_km,
    front_tire_price, front_tire_lifespan_km, rear_tire_price, rear_tire_lifespan_km,
    fuel_price_per_liter, fuel_km_per_liter, version, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
ON CONFLICT (user_id) DO UPDATE SET
    oil_price = excluded.oil_price,
    oil_lifespan_km = excluded.oil_lifespan_km,
    drive_kit_price = excluded.drive_kit_price,
    drive_kit_lifespan_km = excluded.drive_kit_lifespan_km,
    front_tire_price = excluded.front_tire_price,
    front_tire_lifespan_km = excluded.front_tire_lifespan_km,
    rear_tire_price = excluded.rear_tire_price,
    rear_tire_lifespan_km = excluded.rear_tire_lifespan_km,
    fuel_price_per_liter = excluded.fuel_price_per_liter,
    fuel_km_per_liter = excluded.fuel_km_per_liter,
    version = settings.version + 1,
    updated_at = excluded.updated_at
RETURNING version
`

type UpsertSettingsParams struct {
	UserID              string
	OilPrice            float64
	OilLifespanKm       float64
	DriveKitPrice       float64
	DriveKitLifespanKm  float64
	FrontTirePrice      float64
	FrontTireLifespanKm float64
	RearTirePrice       float64
	RearTireLifespanKm  float64
	FuelPricePerLiter   float64
	FuelKmPerLiter      float64
	UpdatedAt           int64
}

func (q *Queries) UpsertSettings(ctx context.Context, arg UpsertSettingsParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, upsertSettings,
		arg.UserID,
		arg.OilPrice,
		arg.OilLifespanKm,
		arg.DriveKitPrice,
		arg.DriveKitLifespanKm,
		arg.FrontTirePrice,
		arg.FrontTireLifespanKm,
		arg.RearTirePrice,
		arg.RearTireLifespanKm,
		arg.FuelPricePerLiter,
		arg.FuelKmPerLiter,
		arg.UpdatedAt,
	)
	var version int64
	err := row.Scan(&version)
	return version, err
}

const entryColumns = `id, user_id, day, odometer_start, odometer_end, food_expense, other_expenses,
       gross_earnings, version, sync_status, created_at, updated_at`

const listEntriesByUser = `-- name: ListEntriesByUser :many
SELECT ` + entryColumns + `
FROM entries
WHERE user_id = ?
ORDER BY day, id
`

func (q *Queries) ListEntriesByUser(ctx context.Context, userID string) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, listEntriesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Entry
	for rows.Next() {
		i, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getEntry = `-- name: GetEntry :one
SELECT ` + entryColumns + `
FROM entries
WHERE id = ? AND user_id = ?
`

func (q *Queries) GetEntry(ctx context.Context, id, userID string) (Entry, error) {
	return scanEntry(q.db.QueryRowContext(ctx, getEntry, id, userID))
}

const createEntry = `-- name: CreateEntry :exec
INSERT INTO entries (
    id, user_id, day, odometer_start, odometer_end, food_expense, other_expenses,
    gross_earnings, version, sync_status, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, 'pending', ?, ?)
`

type CreateEntryParams struct {
	ID            string
	UserID        string
	Day           string
	OdometerStart float64
	OdometerEnd   float64
	FoodExpense   float64
	OtherExpenses float64
	GrossEarnings float64
	Now           int64
}

func (q *Queries) CreateEntry(ctx context.Context, arg CreateEntryParams) error {
	_, err := q.db.ExecContext(ctx, createEntry,
		arg.ID,
		arg.UserID,
		arg.Day,
		arg.OdometerStart,
		arg.OdometerEnd,
		arg.FoodExpense,
		arg.OtherExpenses,
		arg.GrossEarnings,
		arg.Now,
		arg.Now,
	)
	return err
}

const updateEntry = `-- name: UpdateEntry :one
UPDATE entries SET
    day = ?,
    odometer_start = ?,
    odometer_end = ?,
    food_expense = ?,
    other_expenses = ?,
    gross_earnings = ?,
    version = version + 1,
    sync_status = 'pending',
    sync_attempts = 0,
    updated_at = ?
WHERE id = ? AND user_id = ?
RETURNING version
`

type UpdateEntryParams struct {
	Day           string
	OdometerStart float64
	OdometerEnd   float64
	FoodExpense   float64
	OtherExpenses float64
	GrossEarnings float64
	UpdatedAt     int64
	ID            string
	UserID        string
}

func (q *Queries) UpdateEntry(ctx context.Context, arg UpdateEntryParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, updateEntry,
		arg.Day,
		arg.OdometerStart,
		arg.OdometerEnd,
		arg.FoodExpense,
		arg.OtherExpenses,
		arg.GrossEarnings,
		arg.UpdatedAt,
		arg.ID,
		arg.UserID,
	)
	var version int64
	err := row.Scan(&version)
	return version, err
}

const deleteEntry = `-- name: DeleteEntry :execrows
DELETE FROM entries WHERE id = ? AND user_id = ?
`

func (q *Queries) DeleteEntry(ctx context.Context, id, userID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteEntry, id, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getPendingSyncEntries = `-- name: GetPendingSyncEntries :many
SELECT id, user_id, version, sync_attempts, updated_at
FROM entries
WHERE sync_status = 'pending'
   OR (sync_status = 'error' AND sync_attempts < ?)
ORDER BY updated_at
LIMIT ?
`

type GetPendingSyncEntriesParams struct {
	MaxAttempts int64
	Limit       int64
}

type GetPendingSyncEntriesRow struct {
	ID           string
	UserID       string
	Version      int64
	SyncAttempts int64
	UpdatedAt    int64
}

func (q *Queries) GetPendingSyncEntries(ctx context.Context, arg GetPendingSyncEntriesParams) ([]GetPendingSyncEntriesRow, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSyncEntries, arg.MaxAttempts, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetPendingSyncEntriesRow
	for rows.Next() {
		var i GetPendingSyncEntriesRow
		if err := rows.Scan(&i.ID, &i.UserID, &i.Version, &i.SyncAttempts, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markEntrySynced = `-- name: MarkEntrySynced :exec
UPDATE entries SET sync_status = 'synced', sync_attempts = 0
WHERE id = ? AND version = ?
`

func (q *Queries) MarkEntrySynced(ctx context.Context, id string, version int64) error {
	_, err := q.db.ExecContext(ctx, markEntrySynced, id, version)
	return err
}

const markEntrySyncError = `-- name: MarkEntrySyncError :exec
UPDATE entries SET sync_status = 'error', sync_attempts = sync_attempts + 1
WHERE id = ? AND version = ?
`

func (q *Queries) MarkEntrySyncError(ctx context.Context, id string, version int64) error {
	_, err := q.db.ExecContext(ctx, markEntrySyncError, id, version)
	return err
}

const retryFailedSyncs = `-- name: RetryFailedSyncs :execrows
UPDATE entries SET sync_status = 'pending', sync_attempts = 0
WHERE sync_status = 'error'
`

func (q *Queries) RetryFailedSyncs(ctx context.Context) (int64, error) {
	result, err := q.db.ExecContext(ctx, retryFailedSyncs)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var i Entry
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Day,
		&i.OdometerStart,
		&i.OdometerEnd,
		&i.FoodExpense,
		&i.OtherExpenses,
		&i.GrossEarnings,
		&i.Version,
		&i.SyncStatus,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
