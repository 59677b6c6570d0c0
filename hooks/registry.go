package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coursegate/coursegate/entitlement"
)

// Registry manages all registered hooks and provides efficient dispatch.
// It uses type-cached discovery so emits avoid repeated type assertions.
type Registry struct {
	mu     sync.RWMutex
	hooks  []Hook
	logger *slog.Logger

	// Type-cached hook lists for efficient dispatch
	onInit                 []OnInit
	onShutdown             []OnShutdown
	onWebhookReceived      []OnWebhookReceived
	onWebhookRejected      []OnWebhookRejected
	onAccessGranted        []OnAccessGranted
	onEntitlementDelivered []OnEntitlementDelivered
	onCheckoutCreated      []OnCheckoutCreated
	onCheckoutFailed       []OnCheckoutFailed
}

// NewRegistry creates a new hook registry.
func NewRegistry() *Registry {
	return &Registry{logger: slog.Default()}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a hook to the registry and caches its interfaces.
func (r *Registry) Register(h Hook) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.hooks {
		if existing.Name() == h.Name() {
			return fmt.Errorf("hooks: duplicate registration: %s", h.Name())
		}
	}

	r.hooks = append(r.hooks, h)

	// Type-switch to cache interfaces
	if v, ok := h.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := h.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := h.(OnWebhookReceived); ok {
		r.onWebhookReceived = append(r.onWebhookReceived, v)
	}
	if v, ok := h.(OnWebhookRejected); ok {
		r.onWebhookRejected = append(r.onWebhookRejected, v)
	}
	if v, ok := h.(OnAccessGranted); ok {
		r.onAccessGranted = append(r.onAccessGranted, v)
	}
	if v, ok := h.(OnEntitlementDelivered); ok {
		r.onEntitlementDelivered = append(r.onEntitlementDelivered, v)
	}
	if v, ok := h.(OnCheckoutCreated); ok {
		r.onCheckoutCreated = append(r.onCheckoutCreated, v)
	}
	if v, ok := h.(OnCheckoutFailed); ok {
		r.onCheckoutFailed = append(r.onCheckoutFailed, v)
	}

	return nil
}

// Get returns a hook by name, or nil if not registered.
func (r *Registry) Get(name string) Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, h := range r.hooks {
		if h.Name() == name {
			return h
		}
	}
	return nil
}

// List returns all registered hooks.
func (r *Registry) List() []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Hook, len(r.hooks))
	copy(out, r.hooks)
	return out
}

// Count returns the number of registered hooks.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.hooks)
}

// EmitInit calls OnInit for all hooks that implement it.
func (r *Registry) EmitInit(ctx context.Context, svc interface{}) {
	r.mu.RLock()
	hooks := r.onInit
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnInit(ctx, svc)
		}); err != nil {
			r.logger.Warn("hook OnInit failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all hooks that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	hooks := r.onShutdown
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("hook OnShutdown failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitWebhookReceived calls OnWebhookReceived for all hooks that implement it.
func (r *Registry) EmitWebhookReceived(ctx context.Context, eventType string, payload []byte) {
	r.mu.RLock()
	hooks := r.onWebhookReceived
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnWebhookReceived(ctx, eventType, payload)
		}); err != nil {
			r.logger.Warn("hook OnWebhookReceived failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitWebhookRejected calls OnWebhookRejected for all hooks that implement it.
func (r *Registry) EmitWebhookRejected(ctx context.Context, reason string) {
	r.mu.RLock()
	hooks := r.onWebhookRejected
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnWebhookRejected(ctx, reason)
		}); err != nil {
			r.logger.Warn("hook OnWebhookRejected failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitAccessGranted calls OnAccessGranted for all hooks that implement it.
func (r *Registry) EmitAccessGranted(ctx context.Context, uid string) {
	r.mu.RLock()
	hooks := r.onAccessGranted
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnAccessGranted(ctx, uid)
		}); err != nil {
			r.logger.Warn("hook OnAccessGranted failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitEntitlementDelivered calls OnEntitlementDelivered for all hooks that
// implement it.
func (r *Registry) EmitEntitlementDelivered(ctx context.Context, change entitlement.Change) {
	r.mu.RLock()
	hooks := r.onEntitlementDelivered
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnEntitlementDelivered(ctx, change)
		}); err != nil {
			r.logger.Warn("hook OnEntitlementDelivered failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitCheckoutCreated calls OnCheckoutCreated for all hooks that implement it.
func (r *Registry) EmitCheckoutCreated(ctx context.Context, uid, url string) {
	r.mu.RLock()
	hooks := r.onCheckoutCreated
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnCheckoutCreated(ctx, uid, url)
		}); err != nil {
			r.logger.Warn("hook OnCheckoutCreated failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// EmitCheckoutFailed calls OnCheckoutFailed for all hooks that implement it.
func (r *Registry) EmitCheckoutFailed(ctx context.Context, uid string, cause error) {
	r.mu.RLock()
	hooks := r.onCheckoutFailed
	r.mu.RUnlock()

	for _, h := range hooks {
		if err := r.callWithTimeout(ctx, h.Name(), func() error {
			return h.OnCheckoutFailed(ctx, uid, cause)
		}); err != nil {
			r.logger.Warn("hook OnCheckoutFailed failed",
				"hook", h.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout runs a hook callback with a hard timeout so a slow hook
// cannot stall the webhook response past the provider's delivery deadline.
func (r *Registry) callWithTimeout(ctx context.Context, hookName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("hook timeout: %s", hookName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
