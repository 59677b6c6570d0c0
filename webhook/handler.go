package webhook

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/coursegate/coursegate/entitlement"
	"github.com/coursegate/coursegate/hooks"
	"github.com/coursegate/coursegate/watch"
)

// maxPayloadBytes caps how much of a webhook body is read before
// verification. Provider events are small; anything larger is hostile.
const maxPayloadBytes = 256 << 10

// Publisher receives entitlement changes as they are committed.
type Publisher interface {
	Publish(change entitlement.Change)
}

// Handler terminates provider webhook deliveries: it verifies the payload
// signature against the raw body, persists the paid flag for completed
// checkouts, and fans the change out to live watchers.
type Handler struct {
	store       entitlement.Store
	secret      string
	tolerance   time.Duration
	hub         Publisher
	broadcaster watch.Broadcaster
	hooks       *hooks.Registry
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the handler's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger.With("component", "webhook") }
}

// WithPublisher routes committed changes to a local watch hub.
func WithPublisher(p Publisher) Option {
	return func(h *Handler) { h.hub = p }
}

// WithBroadcaster routes committed changes to other processes.
func WithBroadcaster(b watch.Broadcaster) Option {
	return func(h *Handler) { h.broadcaster = b }
}

// WithHooks attaches a hook registry for delivery lifecycle events.
func WithHooks(reg *hooks.Registry) Option {
	return func(h *Handler) { h.hooks = reg }
}

// WithTolerance overrides the signature timestamp tolerance.
func WithTolerance(d time.Duration) Option {
	return func(h *Handler) { h.tolerance = d }
}

// WithClock overrides the handler's clock.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// NewHandler builds a webhook Handler persisting to store and verifying
// deliveries with secret.
func NewHandler(store entitlement.Store, secret string, opts ...Option) *Handler {
	h := &Handler{
		store:       store,
		secret:      secret,
		tolerance:   DefaultTolerance,
		broadcaster: watch.NopBroadcaster{},
		hooks:       hooks.NewRegistry(),
		logger:      slog.Default().With("component", "webhook"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		h.logger.Warn("webhook body read failed", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable body"})
		return
	}

	// Verification runs over the exact bytes received. Re-serialized or
	// pretty-printed payloads never verify, which is the point.
	if err := VerifySignature(payload, r.Header.Get(SignatureHeader), h.secret, h.tolerance, h.now()); err != nil {
		h.logger.Warn("webhook signature rejected", "error", err)
		h.hooks.EmitWebhookRejected(ctx, "invalid signature")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid signature"})
		return
	}

	evt, err := ParseEvent(payload)
	if err != nil {
		h.logger.Warn("webhook payload unparseable", "error", err)
		h.hooks.EmitWebhookRejected(ctx, "malformed event")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed event"})
		return
	}

	h.hooks.EmitWebhookReceived(ctx, evt.Type, payload)

	if evt.Type != EventCheckoutCompleted {
		// Authenticated but irrelevant. Ack so the provider stops retrying.
		h.logger.Debug("ignoring event", "event_id", evt.ID, "type", evt.Type)
		writeAck(w)
		return
	}

	uid := evt.Data.Object.ClientReferenceID
	if uid == "" {
		h.logger.Warn("completed checkout without client reference",
			"event_id", evt.ID,
			"session_id", evt.Data.Object.ID,
		)
		h.hooks.EmitWebhookRejected(ctx, "missing client reference")
		writeAck(w)
		return
	}

	if err := h.store.SetPaid(ctx, uid); err != nil {
		// Refuse the ack so the provider redelivers; the grant is not lost.
		h.logger.Error("entitlement write failed", "event_id", evt.ID, "uid", uid, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "store unavailable"})
		return
	}

	change := entitlement.Change{UID: uid, Paid: true, ObservedAt: h.now()}
	if h.hub != nil {
		h.hub.Publish(change)
	}
	if err := h.broadcaster.Publish(ctx, change); err != nil {
		// Local state is already committed; cross-process delivery is
		// best effort and remote readers recover on their next snapshot.
		h.logger.Warn("broadcast failed", "uid", uid, "error", err)
	}
	h.hooks.EmitAccessGranted(ctx, uid)

	h.logger.Info("access granted",
		"event_id", evt.ID,
		"session_id", evt.Data.Object.ID,
		"uid", uid,
	)
	writeAck(w)
}

func writeAck(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
