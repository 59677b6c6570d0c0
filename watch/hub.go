// Package watch implements the entitlement watch channel: a live, push-based
// read that delivers the current entitlement value immediately on subscribe
// and again on every subsequent change.
//
// Delivery is at-least-once and coalescing: when a subscriber lags, older
// pending values are replaced. The entitlement is a monotonic boolean, and
// the queue enforces that order: an unpaid value never replaces or follows
// a paid one, so the terminal state is never lost.
package watch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/coursegate/coursegate/entitlement"
	"github.com/coursegate/coursegate/id"
)

// Reader is the point-read fragment of the store needed for the initial
// snapshot delivered on subscribe.
type Reader interface {
	GetEntitlement(ctx context.Context, uid string) (entitlement.Record, error)
}

// Func is the subscriber callback. It is invoked from a dedicated goroutine
// owned by the subscription, one change at a time, in order.
type Func func(change entitlement.Change)

// Hub fans entitlement changes out to per-uid subscribers.
type Hub struct {
	mu     sync.Mutex
	reader Reader
	logger *slog.Logger
	subs   map[string]map[*Subscription]struct{}
	closed bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) { h.logger = logger }
}

// NewHub creates a Hub reading initial snapshots from reader.
func NewHub(reader Reader, opts ...Option) *Hub {
	h := &Hub{
		reader: reader,
		logger: slog.Default(),
		subs:   make(map[string]map[*Subscription]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscription is a live watch on one user's entitlement.
type Subscription struct {
	ID  id.WatchID
	UID string

	hub      *Hub
	fn       Func
	pending  chan entitlement.Change
	stop     chan struct{}
	stopOnce sync.Once

	qmu  sync.Mutex // serializes enqueue; guards paid
	paid bool       // a Paid=true change has been accepted
}

// Subscribe registers fn for changes to uid's entitlement and immediately
// delivers the current value. The returned subscription must be canceled
// when the consuming session goes away; a session re-subscribing is expected
// to cancel its previous subscription first.
func (h *Hub) Subscribe(ctx context.Context, uid string, fn Func) (*Subscription, error) {
	sub := &Subscription{
		ID:      id.NewWatchID(),
		UID:     uid,
		hub:     h,
		fn:      fn,
		pending: make(chan entitlement.Change, 1),
		stop:    make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, context.Canceled
	}
	if h.subs[uid] == nil {
		h.subs[uid] = make(map[*Subscription]struct{})
	}
	h.subs[uid][sub] = struct{}{}
	h.mu.Unlock()

	go sub.run()

	// Register first, read second: a transition racing with Subscribe is
	// then delivered at least once (possibly twice, never zero times).
	record, err := h.reader.GetEntitlement(ctx, uid)
	if err != nil {
		sub.Cancel()
		return nil, err
	}
	sub.enqueue(entitlement.ChangeOf(record))

	h.logger.Debug("watch subscription opened",
		"subscription_id", sub.ID.String(),
		"uid", uid,
		"paid", record.Paid,
	)

	return sub, nil
}

// Publish delivers a change to every subscriber watching change.UID.
// It never blocks on slow subscribers.
func (h *Hub) Publish(change entitlement.Change) {
	h.mu.Lock()
	targets := make([]*Subscription, 0, len(h.subs[change.UID]))
	for sub := range h.subs[change.UID] {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		sub.enqueue(change)
	}
}

// SubscriberCount returns the number of open subscriptions for uid.
func (h *Hub) SubscriberCount(uid string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs[uid])
}

// Close cancels every open subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var all []*Subscription
	for _, set := range h.subs {
		for sub := range set {
			all = append(all, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range all {
		sub.Cancel()
	}
}

// Cancel detaches the subscription. It is safe to call more than once and
// after Cancel returns no further callbacks will be started.
func (s *Subscription) Cancel() {
	s.stopOnce.Do(func() {
		s.hub.mu.Lock()
		if set, ok := s.hub.subs[s.UID]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(s.hub.subs, s.UID)
			}
		}
		s.hub.mu.Unlock()

		close(s.stop)
	})
}

// enqueue places change into the pending slot, replacing any value the
// subscriber has not consumed yet. Delivery is monotonic: once a Paid=true
// change has been accepted, a later unpaid value is dropped so a snapshot
// read serialized before a concurrent grant cannot roll the watcher back.
func (s *Subscription) enqueue(change entitlement.Change) {
	s.qmu.Lock()
	defer s.qmu.Unlock()

	if change.Paid {
		s.paid = true
	} else if s.paid {
		return
	}

	select {
	case s.pending <- change:
		return
	default:
	}
	// Slot occupied: drop the stale value. Only run() drains concurrently,
	// so after this the send cannot block.
	select {
	case <-s.pending:
	default:
	}
	s.pending <- change
}

// run drains the pending slot, invoking the callback sequentially.
func (s *Subscription) run() {
	for {
		select {
		case <-s.stop:
			return
		case change := <-s.pending:
			s.fn(change)
		}
	}
}
