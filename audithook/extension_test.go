package audithook

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/coursegate/coursegate/entitlement"
)

type captureRecorder struct {
	mu     sync.Mutex
	events []*AuditEvent
	fail   bool
}

func (c *captureRecorder) Record(_ context.Context, evt *AuditEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("backend down")
	}
	c.events = append(c.events, evt)
	return nil
}

func TestRecordsLifecycleEvents(t *testing.T) {
	rec := &captureRecorder{}
	ext := New(rec)
	ctx := context.Background()

	if err := ext.OnWebhookReceived(ctx, "checkout.session.completed", nil); err != nil {
		t.Fatalf("OnWebhookReceived: %v", err)
	}
	if err := ext.OnAccessGranted(ctx, "u1"); err != nil {
		t.Fatalf("OnAccessGranted: %v", err)
	}
	if err := ext.OnEntitlementDelivered(ctx, entitlement.Change{UID: "u1", Paid: true}); err != nil {
		t.Fatalf("OnEntitlementDelivered: %v", err)
	}
	if err := ext.OnCheckoutFailed(ctx, "u1", errors.New("provider down")); err != nil {
		t.Fatalf("OnCheckoutFailed: %v", err)
	}

	if len(rec.events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(rec.events))
	}

	granted := rec.events[1]
	if granted.Action != ActionAccessGranted || granted.ResourceID != "u1" {
		t.Errorf("unexpected grant event: %+v", granted)
	}
	failed := rec.events[3]
	if failed.Outcome != OutcomeFailure || failed.Reason == "" {
		t.Errorf("failure event should carry outcome and reason: %+v", failed)
	}
}

func TestActionFiltering(t *testing.T) {
	rec := &captureRecorder{}
	ext := New(rec, WithEnabledActions(ActionAccessGranted))
	ctx := context.Background()

	_ = ext.OnWebhookReceived(ctx, "checkout.session.completed", nil)
	_ = ext.OnAccessGranted(ctx, "u1")

	if len(rec.events) != 1 || rec.events[0].Action != ActionAccessGranted {
		t.Fatalf("expected only grant event, got %+v", rec.events)
	}

	rec2 := &captureRecorder{}
	ext2 := New(rec2, WithDisabledActions(ActionWebhookReceived))
	_ = ext2.OnWebhookReceived(ctx, "checkout.session.completed", nil)
	_ = ext2.OnAccessGranted(ctx, "u1")

	if len(rec2.events) != 1 || rec2.events[0].Action != ActionAccessGranted {
		t.Fatalf("expected webhook event filtered, got %+v", rec2.events)
	}
}

func TestRecorderFailureIsSwallowed(t *testing.T) {
	rec := &captureRecorder{fail: true}
	ext := New(rec)

	if err := ext.OnAccessGranted(context.Background(), "u1"); err != nil {
		t.Fatalf("recorder failure must not propagate, got %v", err)
	}
}
