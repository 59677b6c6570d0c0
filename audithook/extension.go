// Package audithook bridges Coursegate lifecycle events to an audit
// trail backend.
//
// It defines a local Recorder interface so the package does not depend
// on any particular audit store. Callers inject a RecorderFunc adapter
// that bridges to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coursegate/coursegate/entitlement"
	"github.com/coursegate/coursegate/hooks"
)

// Compile-time interface checks.
var (
	_ hooks.Hook                   = (*Extension)(nil)
	_ hooks.OnWebhookReceived      = (*Extension)(nil)
	_ hooks.OnWebhookRejected      = (*Extension)(nil)
	_ hooks.OnAccessGranted        = (*Extension)(nil)
	_ hooks.OnEntitlementDelivered = (*Extension)(nil)
	_ hooks.OnCheckoutCreated      = (*Extension)(nil)
	_ hooks.OnCheckoutFailed       = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement. It is
// defined locally so callers inject their concrete backend at wiring
// time without this package importing it.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Coursegate lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements hooks.Hook.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Webhook hooks
// ──────────────────────────────────────────────────

// OnWebhookReceived implements hooks.OnWebhookReceived.
func (e *Extension) OnWebhookReceived(ctx context.Context, eventType string, _ []byte) error {
	return e.record(ctx, ActionWebhookReceived, SeverityInfo, OutcomeSuccess,
		ResourceWebhook, "", CategoryPayment, nil,
		"event_type", eventType,
	)
}

// OnWebhookRejected implements hooks.OnWebhookRejected.
func (e *Extension) OnWebhookRejected(ctx context.Context, reason string) error {
	return e.record(ctx, ActionWebhookRejected, SeverityWarning, OutcomeFailure,
		ResourceWebhook, "", CategoryPayment, nil,
		"reject_reason", reason,
	)
}

// ──────────────────────────────────────────────────
// Entitlement hooks
// ──────────────────────────────────────────────────

// OnAccessGranted implements hooks.OnAccessGranted.
func (e *Extension) OnAccessGranted(ctx context.Context, uid string) error {
	return e.record(ctx, ActionAccessGranted, SeverityInfo, OutcomeSuccess,
		ResourceEntitlement, uid, CategoryAccess, nil,
		"uid", uid,
	)
}

// OnEntitlementDelivered implements hooks.OnEntitlementDelivered.
func (e *Extension) OnEntitlementDelivered(ctx context.Context, change entitlement.Change) error {
	return e.record(ctx, ActionEntitlementDelivered, SeverityInfo, OutcomeSuccess,
		ResourceEntitlement, change.UID, CategoryAccess, nil,
		"uid", change.UID,
		"paid", change.Paid,
	)
}

// ──────────────────────────────────────────────────
// Checkout hooks
// ──────────────────────────────────────────────────

// OnCheckoutCreated implements hooks.OnCheckoutCreated.
func (e *Extension) OnCheckoutCreated(ctx context.Context, uid, url string) error {
	return e.record(ctx, ActionCheckoutCreated, SeverityInfo, OutcomeSuccess,
		ResourceCheckout, uid, CategoryPayment, nil,
		"uid", uid,
		"redirect_url", url,
	)
}

// OnCheckoutFailed implements hooks.OnCheckoutFailed.
func (e *Extension) OnCheckoutFailed(ctx context.Context, uid string, err error) error {
	return e.record(ctx, ActionCheckoutFailed, SeverityError, OutcomeFailure,
		ResourceCheckout, uid, CategoryPayment, err,
		"uid", uid,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audithook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
