// Package postgres provides a Store backed by PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	coursegate "github.com/coursegate/coursegate"
	"github.com/coursegate/coursegate/entitlement"
	"github.com/coursegate/coursegate/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a PostgreSQL store on top of an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Open connects to the given PostgreSQL URL and returns a ready store.
func Open(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("coursegate/postgres: connect: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Pool returns the underlying pool for direct access.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// GetEntitlement returns the record for uid. An absent row is returned as
// the zero record with Paid=false.
func (s *Store) GetEntitlement(ctx context.Context, uid string) (entitlement.Record, error) {
	query := `
		SELECT uid, paid, created_at, updated_at
		FROM entitlements
		WHERE uid = $1
	`
	var r entitlement.Record
	err := s.pool.QueryRow(ctx, query, uid).Scan(&r.UID, &r.Paid, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entitlement.Record{UID: uid, Paid: false}, nil
		}
		return entitlement.Record{}, fmt.Errorf("%w: get entitlement: %v", coursegate.ErrStoreUnavailable, err)
	}
	return r, nil
}

// SetPaid merges paid=true into the record for uid. The upsert never resets
// created_at, so duplicate deliveries leave the row's history intact.
func (s *Store) SetPaid(ctx context.Context, uid string) error {
	query := `
		INSERT INTO entitlements (uid, paid, created_at, updated_at)
		VALUES ($1, TRUE, NOW(), NOW())
		ON CONFLICT (uid) DO UPDATE SET
			paid = TRUE,
			updated_at = CASE WHEN entitlements.paid THEN entitlements.updated_at ELSE NOW() END
	`
	if _, err := s.pool.Exec(ctx, query, uid); err != nil {
		return fmt.Errorf("%w: set paid: %v", coursegate.ErrStoreUnavailable, err)
	}
	return nil
}

// Migrate creates the entitlements table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, migrationSQL); err != nil {
		return fmt.Errorf("coursegate/postgres: migrate: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", coursegate.ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
