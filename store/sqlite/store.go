// Package sqlite provides a Store backed by SQLite via the modernc driver,
// suitable for single-node deployments without an external database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	coursegate "github.com/coursegate/coursegate"
	"github.com/coursegate/coursegate/entitlement"
	"github.com/coursegate/coursegate/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using database/sql with the sqlite driver.
type Store struct {
	db *sql.DB
}

// New wraps an existing database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (or creates) the SQLite database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("coursegate/sqlite: open %s: %w", path, err)
	}
	// SQLite handles one writer at a time; serialize access through the pool.
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

// DB returns the underlying database handle for direct access.
func (s *Store) DB() *sql.DB { return s.db }

// GetEntitlement returns the record for uid. An absent row is returned as
// the zero record with Paid=false.
func (s *Store) GetEntitlement(ctx context.Context, uid string) (entitlement.Record, error) {
	query := `
		SELECT uid, paid, created_at, updated_at
		FROM entitlements
		WHERE uid = ?
	`
	var (
		r                  entitlement.Record
		paid               int
		createdAt, updated string
	)
	err := s.db.QueryRowContext(ctx, query, uid).Scan(&r.UID, &paid, &createdAt, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entitlement.Record{UID: uid, Paid: false}, nil
		}
		return entitlement.Record{}, fmt.Errorf("%w: get entitlement: %v", coursegate.ErrStoreUnavailable, err)
	}

	r.Paid = paid != 0
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		r.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updated); err == nil {
		r.UpdatedAt = t
	}
	return r, nil
}

// SetPaid merges paid=true into the record for uid.
func (s *Store) SetPaid(ctx context.Context, uid string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO entitlements (uid, paid, created_at, updated_at)
		VALUES (?, 1, ?, ?)
		ON CONFLICT (uid) DO UPDATE SET
			paid = 1,
			updated_at = CASE WHEN entitlements.paid = 1 THEN entitlements.updated_at ELSE excluded.updated_at END
	`
	if _, err := s.db.ExecContext(ctx, query, uid, now, now); err != nil {
		return fmt.Errorf("%w: set paid: %v", coursegate.ErrStoreUnavailable, err)
	}
	return nil
}

// Migrate creates the entitlements table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, migrationSQL); err != nil {
		return fmt.Errorf("coursegate/sqlite: migrate: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", coursegate.ErrStoreUnavailable, err)
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
