package audithook

// Action constants for audit events.
const (
	// Webhook actions
	ActionWebhookReceived = "webhook.received"
	ActionWebhookRejected = "webhook.rejected"

	// Entitlement actions
	ActionAccessGranted        = "access.granted"
	ActionEntitlementDelivered = "entitlement.delivered"

	// Checkout actions
	ActionCheckoutCreated = "checkout.created"
	ActionCheckoutFailed  = "checkout.failed"
)

// Resource constants for audit events.
const (
	ResourceWebhook     = "webhook"
	ResourceEntitlement = "entitlement"
	ResourceCheckout    = "checkout"
)

// Category constants for audit events.
const (
	CategoryPayment = "payment"
	CategoryAccess  = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
