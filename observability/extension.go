// Package observability provides a metrics extension for Coursegate that
// records lifecycle event counts through an injected MetricFactory.
package observability

import (
	"context"

	"github.com/coursegate/coursegate/entitlement"
	"github.com/coursegate/coursegate/hooks"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ hooks.Hook                   = (*MetricsExtension)(nil)
	_ hooks.OnInit                 = (*MetricsExtension)(nil)
	_ hooks.OnWebhookReceived      = (*MetricsExtension)(nil)
	_ hooks.OnWebhookRejected      = (*MetricsExtension)(nil)
	_ hooks.OnAccessGranted        = (*MetricsExtension)(nil)
	_ hooks.OnEntitlementDelivered = (*MetricsExtension)(nil)
	_ hooks.OnCheckoutCreated      = (*MetricsExtension)(nil)
	_ hooks.OnCheckoutFailed       = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Coursegate hook to track the payment pipeline.
type MetricsExtension struct {
	factory MetricFactory

	// Webhook metrics
	WebhookReceived Counter
	WebhookRejected Counter

	// Entitlement metrics
	AccessGranted        Counter
	EntitlementDelivered Counter

	// Checkout metrics
	CheckoutCreated Counter
	CheckoutFailed  Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		WebhookReceived: factory.Counter("coursegate.webhook.received"),
		WebhookRejected: factory.Counter("coursegate.webhook.rejected"),

		AccessGranted:        factory.Counter("coursegate.access.granted"),
		EntitlementDelivered: factory.Counter("coursegate.entitlement.delivered"),

		CheckoutCreated: factory.Counter("coursegate.checkout.created"),
		CheckoutFailed:  factory.Counter("coursegate.checkout.failed"),
	}
}

// Name implements hooks.Hook.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements hooks.OnInit.
func (m *MetricsExtension) OnInit(context.Context, interface{}) error { return nil }

// OnWebhookReceived implements hooks.OnWebhookReceived.
func (m *MetricsExtension) OnWebhookReceived(_ context.Context, _ string, _ []byte) error {
	m.WebhookReceived.Inc()
	return nil
}

// OnWebhookRejected implements hooks.OnWebhookRejected.
func (m *MetricsExtension) OnWebhookRejected(_ context.Context, _ string) error {
	m.WebhookRejected.Inc()
	return nil
}

// OnAccessGranted implements hooks.OnAccessGranted.
func (m *MetricsExtension) OnAccessGranted(_ context.Context, _ string) error {
	m.AccessGranted.Inc()
	return nil
}

// OnEntitlementDelivered implements hooks.OnEntitlementDelivered.
func (m *MetricsExtension) OnEntitlementDelivered(_ context.Context, _ entitlement.Change) error {
	m.EntitlementDelivered.Inc()
	return nil
}

// OnCheckoutCreated implements hooks.OnCheckoutCreated.
func (m *MetricsExtension) OnCheckoutCreated(_ context.Context, _, _ string) error {
	m.CheckoutCreated.Inc()
	return nil
}

// OnCheckoutFailed implements hooks.OnCheckoutFailed.
func (m *MetricsExtension) OnCheckoutFailed(_ context.Context, _ string, _ error) error {
	m.CheckoutFailed.Inc()
	return nil
}
