package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"

	"github.com/vikiai/newsletter/datastore"
	"github.com/vikiai/newsletter/models"
)

const (
	tableName = "subscribers"

	dbMaxOpenConns    = 25
	dbMaxIdleConns    = 25
	dbConnMaxLifetime = 5 * time.Minute
)

const schema = `
	CREATE TABLE IF NOT EXISTS ` + tableName + ` (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,

		CONSTRAINT subscribers__uniq__email UNIQUE (email)
	)
`

type store struct {
	db *sql.DB
}

// New wraps an open connection pool. The subscribers table must exist; see
// Migrate.
func New(db *sql.DB) datastore.SubscriberStore {
	return &store{db: db}
}

// Open connects to PostgreSQL, verifies the connection within pingTimeout and
// creates the subscribers table if it is missing.
func Open(ctx context.Context, connStr string, pingTimeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(dbMaxOpenConns)
	db.SetMaxIdleConns(dbMaxIdleConns)
	db.SetConnMaxLifetime(dbConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err = db.PingContext(pingCtx); err != nil {
		db.Close() // Close unusable connection pool
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err = Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate creates the subscribers table when it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create %s table: %w", tableName, err)
	}
	return nil
}

// FindByEmail implements datastore.SubscriberStore.FindByEmail
func (s *store) FindByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	query := `
		SELECT id, email, created_at
		FROM ` + tableName + `
		WHERE email = $1
	`
	var sub models.Subscriber
	err := s.db.QueryRowContext(ctx, query, datastore.NormalizeEmail(email)).Scan(&sub.ID, &sub.Email, &sub.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, datastore.ErrSubscriberNotFound
		}
		return nil, datastore.Unavailable("find subscriber", err)
	}
	return &sub, nil
}

// Insert implements datastore.SubscriberStore.Insert
func (s *store) Insert(ctx context.Context, email string) (*models.Subscriber, error) {
	query := `
		INSERT INTO ` + tableName + ` (id, email, created_at)
		VALUES ($1, $2, $3)
		RETURNING id, email, created_at
	`
	var sub models.Subscriber
	err := s.db.QueryRowContext(
		ctx,
		query,
		uuid.NewString(),
		datastore.NormalizeEmail(email),
		time.Now().UTC(),
	).Scan(&sub.ID, &sub.Email, &sub.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, datastore.ErrSubscriberExists
		}
		return nil, datastore.Unavailable("insert subscriber", err)
	}
	return &sub, nil
}

// DeleteByEmail implements datastore.SubscriberStore.DeleteByEmail
func (s *store) DeleteByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	query := `
		DELETE FROM ` + tableName + `
		WHERE email = $1
		RETURNING id, email, created_at
	`
	var sub models.Subscriber
	err := s.db.QueryRowContext(ctx, query, datastore.NormalizeEmail(email)).Scan(&sub.ID, &sub.Email, &sub.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, datastore.ErrSubscriberNotFound
		}
		return nil, datastore.Unavailable("delete subscriber", err)
	}
	return &sub, nil
}

// Count implements datastore.SubscriberStore.Count
func (s *store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+tableName).Scan(&n); err != nil {
		return 0, datastore.Unavailable("count subscribers", err)
	}
	return n, nil
}

func (s *store) Ping(ctx context.Context) error {
	return datastore.Unavailable("ping database", s.db.PingContext(ctx))
}

func (s *store) Close(_ context.Context) error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgerrcode.UniqueViolation
	}
	return false
}
