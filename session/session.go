// Package session owns the per-viewer runtime state: the active lesson,
// the mirrored entitlement flag, and the live watch subscription keeping
// that mirror current. A Session is created on sign-in and torn down on
// sign-out; it is the only consumer of the watch channel on the client
// side and never writes entitlement state itself.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coursegate/coursegate/entitlement"
	"github.com/coursegate/coursegate/lesson"
	"github.com/coursegate/coursegate/watch"
)

// Subscriber opens live entitlement subscriptions. *watch.Hub satisfies it.
type Subscriber interface {
	Subscribe(ctx context.Context, uid string, fn watch.Func) (*watch.Subscription, error)
}

// Session is one viewer's mutable runtime context.
type Session struct {
	uid     string
	catalog *lesson.Catalog
	logger  *slog.Logger

	mu          sync.Mutex
	activeIndex int
	hasAccess   bool
	sub         *watch.Subscription
	onUnlock    func()
	closed      bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger.With("component", "session") }
}

// OnUnlock registers a callback fired once when the entitlement mirror
// flips from false to true: the moment to rebuild the lesson view and
// dismiss any open paywall.
func OnUnlock(fn func()) Option {
	return func(s *Session) { s.onUnlock = fn }
}

// New creates a session for uid over the given catalog. The session
// starts on the free lesson with no access; call Attach to begin
// mirroring the durable entitlement.
func New(uid string, catalog *lesson.Catalog, opts ...Option) *Session {
	s := &Session{
		uid:         uid,
		catalog:     catalog,
		activeIndex: lesson.FreeLessonIndex,
		logger:      slog.Default().With("component", "session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach opens the session's watch subscription on src. Attaching again
// cancels the previous subscription first, so a session never holds two
// live listeners.
func (s *Session) Attach(ctx context.Context, src Subscriber) error {
	s.mu.Lock()
	prev := s.sub
	s.sub = nil
	s.mu.Unlock()
	if prev != nil {
		prev.Cancel()
	}

	sub, err := src.Subscribe(ctx, s.uid, s.apply)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sub.Cancel()
		return nil
	}
	s.sub = sub
	s.mu.Unlock()

	s.logger.Debug("session attached", "uid", s.uid)
	return nil
}

// apply mirrors a watch-channel delivery into the session.
func (s *Session) apply(change entitlement.Change) {
	s.mu.Lock()
	unlocked := change.Paid && !s.hasAccess
	s.hasAccess = change.Paid
	fn := s.onUnlock
	s.mu.Unlock()

	if unlocked {
		s.logger.Info("entitlement unlocked", "uid", s.uid)
		if fn != nil {
			fn()
		}
	}
}

// HasAccess reports the mirrored entitlement flag.
func (s *Session) HasAccess() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasAccess
}

// ActiveIndex returns the lesson the viewer is currently on.
func (s *Session) ActiveIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeIndex
}

// Select attempts to switch the viewer to the lesson at index. A denied
// selection leaves the active lesson unchanged.
func (s *Session) Select(index int) lesson.Decision {
	if _, err := s.catalog.Get(index); err != nil {
		return lesson.Denied
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if lesson.Gate(index, s.hasAccess) == lesson.Denied {
		return lesson.Denied
	}
	s.activeIndex = index
	return lesson.Allowed
}

// View renders the catalog for this viewer's current entitlement.
func (s *Session) View() []lesson.View {
	return s.catalog.ViewFor(s.HasAccess())
}

// Close tears the session down: the watch subscription is canceled and
// the viewer state reset. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	sub := s.sub
	s.sub = nil
	s.activeIndex = lesson.FreeLessonIndex
	s.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
	s.logger.Debug("session closed", "uid", s.uid)
}

// ──────────────────────────────────────────────────────────────
// Player events
// ──────────────────────────────────────────────────────────────

// PlayerEvent is a structured message from the embedded video surface.
type PlayerEvent struct {
	Event string `json:"event"`
}

// EventEnded signals that the current lesson finished playing.
const EventEnded = "ended"

// ShouldPromptPaywall reports whether an inbound player event should open
// the paywall: the free lesson just ended and the viewer is still locked.
func (s *Session) ShouldPromptPaywall(evt PlayerEvent) bool {
	if evt.Event != EventEnded {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeIndex == lesson.FreeLessonIndex && !s.hasAccess
}

// ──────────────────────────────────────────────────────────────
// Post-payment return
// ──────────────────────────────────────────────────────────────

// BannerDuration is how long the post-payment confirmation banner stays up.
const BannerDuration = 5 * time.Second
