// Package hooks provides an extensible hook system for Coursegate.
// Hooks observe lifecycle events — webhook deliveries, grants, watch
// deliveries, checkout attempts — to extend functionality without
// touching the core pipeline.
package hooks

import (
	"context"

	"github.com/coursegate/coursegate/entitlement"
)

// Hook is the base interface that all hooks must implement.
type Hook interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the service starts.
type OnInit interface {
	Hook
	OnInit(ctx context.Context, svc interface{}) error
}

// OnShutdown is called when the service is shutting down.
type OnShutdown interface {
	Hook
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Webhook hooks
// ──────────────────────────────────────────────────

// OnWebhookReceived is called for every signature-verified webhook delivery,
// before the event is processed.
type OnWebhookReceived interface {
	Hook
	OnWebhookReceived(ctx context.Context, eventType string, payload []byte) error
}

// OnWebhookRejected is called when a delivery fails signature verification.
type OnWebhookRejected interface {
	Hook
	OnWebhookRejected(ctx context.Context, reason string) error
}

// ──────────────────────────────────────────────────
// Entitlement hooks
// ──────────────────────────────────────────────────

// OnAccessGranted is called after a payment confirmation has been durably
// recorded for a user.
type OnAccessGranted interface {
	Hook
	OnAccessGranted(ctx context.Context, uid string) error
}

// OnEntitlementDelivered is called each time a watch subscription delivers a
// change to a subscriber, including the initial snapshot.
type OnEntitlementDelivered interface {
	Hook
	OnEntitlementDelivered(ctx context.Context, change entitlement.Change) error
}

// ──────────────────────────────────────────────────
// Checkout hooks
// ──────────────────────────────────────────────────

// OnCheckoutCreated is called when a checkout session has been created for a
// user and the redirect URL is about to be returned.
type OnCheckoutCreated interface {
	Hook
	OnCheckoutCreated(ctx context.Context, uid, url string) error
}

// OnCheckoutFailed is called when checkout session creation fails.
type OnCheckoutFailed interface {
	Hook
	OnCheckoutFailed(ctx context.Context, uid string, err error) error
}
