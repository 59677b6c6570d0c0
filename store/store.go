// Package store defines the unified storage interface for Coursegate and a
// factory that selects a backend from a connection URL.
package store

import (
	"context"

	"github.com/coursegate/coursegate/entitlement"
)

// Store is the unified storage interface. The entitlement record is the only
// durable domain state; everything else in the system is runtime-only or
// configuration-supplied.
//
// Implementations must make SetPaid an idempotent merge upsert so that
// concurrent and duplicate webhook deliveries need no external locking.
type Store interface {
	// Entitlement methods
	GetEntitlement(ctx context.Context, uid string) (entitlement.Record, error)
	SetPaid(ctx context.Context, uid string) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// compile-time check that Store satisfies the narrow entitlement contract
var _ entitlement.Store = (Store)(nil)
