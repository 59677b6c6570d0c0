package hooks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coursegate/coursegate/entitlement"
)

type recordingHook struct {
	name      string
	granted   atomic.Int64
	delivered atomic.Int64
	received  atomic.Int64
	failErr   error
}

func (h *recordingHook) Name() string { return h.name }

func (h *recordingHook) OnAccessGranted(_ context.Context, _ string) error {
	h.granted.Add(1)
	return h.failErr
}

func (h *recordingHook) OnEntitlementDelivered(_ context.Context, _ entitlement.Change) error {
	h.delivered.Add(1)
	return nil
}

func (h *recordingHook) OnWebhookReceived(_ context.Context, _ string, _ []byte) error {
	h.received.Add(1)
	return nil
}

type slowHook struct{}

func (slowHook) Name() string { return "slow" }
func (slowHook) OnAccessGranted(ctx context.Context, _ string) error {
	select {
	case <-time.After(10 * time.Second):
	case <-ctx.Done():
	}
	return nil
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(&recordingHook{name: "a"}); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if err := r.Register(&recordingHook{name: "a"}); err == nil {
		t.Error("expected duplicate registration error")
	}
	if r.Count() != 1 {
		t.Errorf("expected 1 hook, got %d", r.Count())
	}
}

func TestEmitDispatchesToImplementors(t *testing.T) {
	r := NewRegistry()
	h := &recordingHook{name: "rec"}
	if err := r.Register(h); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	ctx := context.Background()
	r.EmitAccessGranted(ctx, "u1")
	r.EmitAccessGranted(ctx, "u2")
	r.EmitEntitlementDelivered(ctx, entitlement.Change{UID: "u1", Paid: true})
	r.EmitWebhookReceived(ctx, "checkout.session.completed", []byte("{}"))

	if got := h.granted.Load(); got != 2 {
		t.Errorf("granted: got %d, want 2", got)
	}
	if got := h.delivered.Load(); got != 1 {
		t.Errorf("delivered: got %d, want 1", got)
	}
	if got := h.received.Load(); got != 1 {
		t.Errorf("received: got %d, want 1", got)
	}
}

func TestEmitSurvivesHookError(t *testing.T) {
	r := NewRegistry()
	failing := &recordingHook{name: "failing", failErr: errors.New("boom")}
	ok := &recordingHook{name: "ok"}
	_ = r.Register(failing)
	_ = r.Register(ok)

	// A failing hook must not prevent later hooks from running.
	r.EmitAccessGranted(context.Background(), "u1")

	if got := ok.granted.Load(); got != 1 {
		t.Errorf("second hook not dispatched: got %d, want 1", got)
	}
}

func TestEmitHonorsContextCancellation(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(slowHook{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	r.EmitAccessGranted(ctx, "u1")
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("emit blocked for %v despite canceled context", elapsed)
	}
}

func TestGetAndList(t *testing.T) {
	r := NewRegistry()
	h := &recordingHook{name: "rec"}
	_ = r.Register(h)

	if got := r.Get("rec"); got != h {
		t.Error("Get returned wrong hook")
	}
	if got := r.Get("absent"); got != nil {
		t.Error("Get for unknown name should return nil")
	}
	if list := r.List(); len(list) != 1 || list[0] != h {
		t.Errorf("unexpected List result: %v", list)
	}
}
