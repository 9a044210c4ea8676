package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"luxdrive/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL UNIQUE,
	password   TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS bookings (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL DEFAULT '',
	tracking_code TEXT NOT NULL,
	data          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id);
CREATE INDEX IF NOT EXISTS idx_bookings_tracking_code ON bookings(tracking_code);
CREATE TABLE IF NOT EXISTS cars (
	position INTEGER PRIMARY KEY,
	data     TEXT NOT NULL
);
`

// sqliteBackend implements Store on an embedded SQLite database. Bookings are
// kept as JSON documents with the lookup columns pulled out and indexed.
type sqliteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (creating if needed) the database at path and applies
// the schema. Use ":memory:" for a throwaway database.
func NewSQLiteBackend(ctx context.Context, path string) (Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path cannot be empty")
	}
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection serialises writers and keeps ":memory:" databases shared.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.ExecContext(ctx, sqliteSchema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to apply sqlite schema: %w", err)
	}
	return &sqliteBackend{db: sqlDB}, nil
}

func (b *sqliteBackend) Users() UserRepository { return &sqliteUserRepository{db: b.db} }

func (b *sqliteBackend) Bookings() BookingRepository { return &sqliteBookingRepository{db: b.db} }

func (b *sqliteBackend) Cars() CarRepository { return &sqliteCarRepository{db: b.db} }

func (b *sqliteBackend) Close(ctx context.Context) error { return b.db.Close() }

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

type sqliteUserRepository struct {
	db *sql.DB
}

func (r *sqliteUserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, email, password, created_at FROM users ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *sqliteUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, email, password, created_at FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user with email '%s': %w", email, ErrNotFound)
	}
	return u, err
}

func (r *sqliteUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password, created_at) VALUES (?, ?, ?, ?)`,
		user.ID, user.Email, user.Password, user.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user with email '%s': %w", user.Email, ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to insert user '%s': %w", user.ID, err)
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var createdAt string
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &createdAt); err != nil {
		return nil, err
	}
	if createdAt != "" {
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at of user '%s': %w", u.ID, err)
		}
		u.CreatedAt = t
	}
	return &u, nil
}

type sqliteBookingRepository struct {
	db *sql.DB
}

func (r *sqliteBookingRepository) FindAll(ctx context.Context) ([]models.Booking, error) {
	return r.query(ctx, `SELECT data FROM bookings ORDER BY rowid`)
}

func (r *sqliteBookingRepository) FindByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return r.query(ctx, `SELECT data FROM bookings WHERE user_id = ? ORDER BY rowid`, userID)
}

func (r *sqliteBookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	return r.queryOne(ctx, `SELECT data FROM bookings WHERE id = ?`, "ID", id)
}

func (r *sqliteBookingRepository) FindByTrackingCode(ctx context.Context, code string) (*models.Booking, error) {
	return r.queryOne(ctx, `SELECT data FROM bookings WHERE tracking_code = ? ORDER BY rowid LIMIT 1`, "tracking code", code)
}

func (r *sqliteBookingRepository) query(ctx context.Context, query string, args ...any) ([]models.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var b models.Booking
		if err := json.Unmarshal([]byte(data), &b); err != nil {
			return nil, fmt.Errorf("failed to decode booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *sqliteBookingRepository) queryOne(ctx context.Context, query, field, value string) (*models.Booking, error) {
	var data string
	err := r.db.QueryRowContext(ctx, query, value).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking with %s '%s': %w", field, value, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking with %s '%s': %w", field, value, err)
	}
	var b models.Booking
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return nil, fmt.Errorf("failed to decode booking '%s': %w", value, err)
	}
	return &b, nil
}

func (r *sqliteBookingRepository) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	data, err := json.Marshal(booking)
	if err != nil {
		return nil, fmt.Errorf("failed to encode booking: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO bookings (id, user_id, tracking_code, data) VALUES (?, ?, ?, ?)`,
		booking.ID, booking.UserID, booking.TrackingCode, string(data))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("booking with ID '%s': %w", booking.ID, ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to insert booking '%s': %w", booking.ID, err)
	}
	return booking, nil
}

func (r *sqliteBookingRepository) Update(ctx context.Context, id string, mutate BookingMutator) (*models.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx, `SELECT data FROM bookings WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking with ID '%s': %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking '%s': %w", id, err)
	}

	var b models.Booking
	if err := json.Unmarshal([]byte(data), &b); err != nil {
		return nil, fmt.Errorf("failed to decode booking '%s': %w", id, err)
	}
	if err := mutate(&b); err != nil {
		return nil, err
	}
	b.ID = id

	encoded, err := json.Marshal(&b)
	if err != nil {
		return nil, fmt.Errorf("failed to encode booking '%s': %w", id, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE bookings SET user_id = ?, tracking_code = ?, data = ? WHERE id = ?`,
		b.UserID, b.TrackingCode, string(encoded), id); err != nil {
		return nil, fmt.Errorf("failed to update booking '%s': %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit booking '%s': %w", id, err)
	}
	return &b, nil
}

type sqliteCarRepository struct {
	db *sql.DB
}

func (r *sqliteCarRepository) FindAll(ctx context.Context) ([]models.Car, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT data FROM cars ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cars: %w", err)
	}
	defer rows.Close()

	cars := []models.Car{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var c models.Car
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, fmt.Errorf("failed to decode car: %w", err)
		}
		cars = append(cars, c)
	}
	return cars, rows.Err()
}

func (r *sqliteCarRepository) ReplaceAll(ctx context.Context, cars []models.Car) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cars`); err != nil {
		return fmt.Errorf("failed to clear cars: %w", err)
	}
	for i, c := range cars {
		data, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to encode car '%s': %w", c.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO cars (position, data) VALUES (?, ?)`, i, string(data)); err != nil {
			return fmt.Errorf("failed to insert car '%s': %w", c.Name, err)
		}
	}
	return tx.Commit()
}
