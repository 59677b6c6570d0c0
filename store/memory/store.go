// Package memory provides an in-memory Store for tests and single-process
// deployments without durable storage.
package memory

import (
	"context"
	"sync"

	coursegate "github.com/coursegate/coursegate"
	"github.com/coursegate/coursegate/entitlement"
	"github.com/coursegate/coursegate/store"
	"github.com/coursegate/coursegate/types"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store with mutex-guarded maps.
type Store struct {
	mu      sync.RWMutex
	records map[string]entitlement.Record
	closed  bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		records: make(map[string]entitlement.Record),
	}
}

// GetEntitlement returns the record for uid. An absent record is returned as
// the zero record with Paid=false.
func (s *Store) GetEntitlement(_ context.Context, uid string) (entitlement.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return entitlement.Record{}, coursegate.ErrStoreClosed
	}

	if r, ok := s.records[uid]; ok {
		return r, nil
	}
	return entitlement.Record{UID: uid, Paid: false}, nil
}

// SetPaid merges paid=true into the record for uid, creating it lazily.
func (s *Store) SetPaid(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return coursegate.ErrStoreClosed
	}

	if r, ok := s.records[uid]; ok {
		if r.Paid {
			return nil
		}
		r.Paid = true
		r.Touch()
		s.records[uid] = r
		return nil
	}

	s.records[uid] = entitlement.Record{
		UID:    uid,
		Paid:   true,
		Entity: types.NewEntity(),
	}
	return nil
}

// Migrate is a no-op for the in-memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping reports whether the store is still open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return coursegate.ErrStoreClosed
	}
	return nil
}

// Close marks the store closed. Subsequent operations fail with ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
