package coursegate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/coursegate/coursegate/checkout"
	"github.com/coursegate/coursegate/entitlement"
	"github.com/coursegate/coursegate/hooks"
	"github.com/coursegate/coursegate/lesson"
	"github.com/coursegate/coursegate/store"
	"github.com/coursegate/coursegate/watch"
)

// Checkout opens hosted payment sessions. *checkout.Client satisfies it.
type Checkout interface {
	CreateSession(ctx context.Context, uid, email string) (checkout.Session, error)
}

// Service is the entitlement engine: one durable paid flag per user, a
// live watch channel over it, and the checkout path that leads to it
// being set.
type Service struct {
	store       store.Store
	hub         *watch.Hub
	broadcaster watch.Broadcaster
	checkout    Checkout
	catalog     *lesson.Catalog
	hooks       *hooks.Registry
	logger      *slog.Logger
}

// Option configures a Service instance.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
		s.hooks.WithLogger(logger)
	}
}

// WithHook registers a lifecycle hook.
func WithHook(h hooks.Hook) Option {
	return func(s *Service) {
		_ = s.hooks.Register(h) //nolint:errcheck // best-effort hook registration during init
	}
}

// WithCheckout wires the payment-session client.
func WithCheckout(c Checkout) Option {
	return func(s *Service) { s.checkout = c }
}

// WithBroadcaster wires cross-process change delivery.
func WithBroadcaster(b watch.Broadcaster) Option {
	return func(s *Service) { s.broadcaster = b }
}

// WithCatalog attaches the lesson catalog.
func WithCatalog(c *lesson.Catalog) Option {
	return func(s *Service) { s.catalog = c }
}

// New creates a Service over the given store.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:       st,
		broadcaster: watch.NopBroadcaster{},
		hooks:       hooks.NewRegistry(),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.hub = watch.NewHub(st, watch.WithLogger(s.logger))

	return s
}

// Start migrates the store and initializes hooks.
func (s *Service) Start(ctx context.Context) error {
	if err := s.store.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: migrate: %v", ErrStoreUnavailable, err)
	}

	s.hooks.EmitInit(ctx, s)

	s.logger.Info("coursegate started")
	return nil
}

// Stop shuts the Service down: hooks are notified, the watch hub closed,
// and the store released.
func (s *Service) Stop() error {
	ctx := context.Background()
	s.hooks.EmitShutdown(ctx)
	s.hub.Close()
	if err := s.broadcaster.Close(); err != nil {
		s.logger.Warn("broadcaster close failed", "error", err)
	}
	if err := s.store.Close(); err != nil {
		return err
	}

	s.logger.Info("coursegate stopped")
	return nil
}

// ──────────────────────────────────────────────────────────────
// Entitlements
// ──────────────────────────────────────────────────────────────

// Entitled reads the durable paid flag for uid. Users never written to
// the store report an unpaid record, not an error.
func (s *Service) Entitled(ctx context.Context, uid string) (entitlement.Record, error) {
	if uid == "" {
		return entitlement.Record{}, fmt.Errorf("%w: uid is required", ErrMissingIdentity)
	}
	return s.store.GetEntitlement(ctx, uid)
}

// Grant durably sets the paid flag for uid and pushes the change to live
// watchers, locally and across processes. Granting an already-paid user
// is a no-op write but still republished, which subscribers coalesce.
func (s *Service) Grant(ctx context.Context, uid string) error {
	if uid == "" {
		return fmt.Errorf("%w: uid is required", ErrMissingIdentity)
	}

	if err := s.store.SetPaid(ctx, uid); err != nil {
		return err
	}

	change := entitlement.Change{UID: uid, Paid: true, ObservedAt: time.Now()}
	s.hub.Publish(change)
	if err := s.broadcaster.Publish(ctx, change); err != nil {
		s.logger.Warn("broadcast failed", "uid", uid, "error", err)
	}
	s.hooks.EmitAccessGranted(ctx, uid)

	return nil
}

// Watch opens a live subscription on uid's entitlement. fn receives the
// current value immediately and every change after, until the returned
// subscription is canceled.
func (s *Service) Watch(ctx context.Context, uid string, fn watch.Func) (*watch.Subscription, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: uid is required", ErrMissingIdentity)
	}

	delivered := func(c entitlement.Change) {
		fn(c)
		s.hooks.EmitEntitlementDelivered(context.WithoutCancel(ctx), c)
	}
	return s.hub.Subscribe(ctx, uid, delivered)
}

// Hub exposes the watch hub for wiring broadcasters and ingest handlers.
func (s *Service) Hub() *watch.Hub { return s.hub }

// SetBroadcaster wires cross-process change delivery after construction.
// Broadcasters usually need the hub, which only exists once the service
// does, so this runs as a second wiring step rather than an Option.
func (s *Service) SetBroadcaster(b watch.Broadcaster) { s.broadcaster = b }

// Store exposes the underlying entitlement store.
func (s *Service) Store() store.Store { return s.store }

// Hooks exposes the hook registry.
func (s *Service) Hooks() *hooks.Registry { return s.hooks }

// ──────────────────────────────────────────────────────────────
// Checkout
// ──────────────────────────────────────────────────────────────

// CreateCheckout opens a payment session for uid and returns the hosted
// page URL to redirect the buyer to.
func (s *Service) CreateCheckout(ctx context.Context, uid, email string) (checkout.Session, error) {
	if uid == "" {
		return checkout.Session{}, fmt.Errorf("%w: uid is required", ErrMissingIdentity)
	}
	if s.checkout == nil {
		return checkout.Session{}, fmt.Errorf("%w: no checkout client configured", ErrCheckoutFailed)
	}

	sess, err := s.checkout.CreateSession(ctx, uid, email)
	if err != nil {
		s.hooks.EmitCheckoutFailed(ctx, uid, err)
		return checkout.Session{}, fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
	}

	s.hooks.EmitCheckoutCreated(ctx, uid, sess.URL)
	return sess, nil
}

// ──────────────────────────────────────────────────────────────
// Lessons
// ──────────────────────────────────────────────────────────────

// Lessons renders the catalog for uid's current entitlement.
func (s *Service) Lessons(ctx context.Context, uid string) ([]lesson.View, error) {
	if s.catalog == nil {
		return nil, fmt.Errorf("%w: no catalog configured", ErrLessonNotFound)
	}

	paid := false
	if uid != "" {
		record, err := s.store.GetEntitlement(ctx, uid)
		if err != nil {
			return nil, err
		}
		paid = record.Paid
	}

	return s.catalog.ViewFor(paid), nil
}

// Catalog exposes the lesson catalog, or nil when none is configured.
func (s *Service) Catalog() *lesson.Catalog { return s.catalog }

// Ping checks store health.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
