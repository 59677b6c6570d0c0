package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coursegate/coursegate/entitlement"
	"github.com/coursegate/coursegate/lesson"
	"github.com/coursegate/coursegate/store/memory"
	"github.com/coursegate/coursegate/watch"
)

func testCatalog(t *testing.T) *lesson.Catalog {
	t.Helper()

	cat, err := lesson.NewCatalog([]lesson.Lesson{
		{Index: 0, Title: "Intro", URL: "https://cdn.example.com/0.mp4"},
		{Index: 1, Title: "Basics", URL: "https://cdn.example.com/1.mp4"},
		{Index: 2, Title: "Advanced", URL: "https://cdn.example.com/2.mp4"},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition never became true")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestSessionMirrorsEntitlement(t *testing.T) {
	store := memory.New()
	hub := watch.NewHub(store)
	defer hub.Close()

	var unlocks atomic.Int32
	sess := New("u1", testCatalog(t), OnUnlock(func() { unlocks.Add(1) }))
	defer sess.Close()

	if err := sess.Attach(context.Background(), hub); err != nil {
		t.Fatalf("attach: %v", err)
	}

	// Initial value arrives without any transition.
	waitUntil(t, func() bool { return hub.SubscriberCount("u1") == 1 })
	if sess.HasAccess() {
		t.Fatal("fresh session should not have access")
	}

	if err := store.SetPaid(context.Background(), "u1"); err != nil {
		t.Fatalf("set paid: %v", err)
	}
	hub.Publish(entitlement.Change{UID: "u1", Paid: true, ObservedAt: time.Now()})

	waitUntil(t, func() bool { return sess.HasAccess() })
	waitUntil(t, func() bool { return unlocks.Load() == 1 })

	// A repeated paid delivery does not fire the unlock callback again.
	hub.Publish(entitlement.Change{UID: "u1", Paid: true, ObservedAt: time.Now()})
	time.Sleep(50 * time.Millisecond)
	if n := unlocks.Load(); n != 1 {
		t.Errorf("unlock callback fired %d times, want 1", n)
	}
}

func TestSessionSelectRespectsGate(t *testing.T) {
	sess := New("u1", testCatalog(t))
	defer sess.Close()

	if got := sess.Select(1); got != lesson.Denied {
		t.Errorf("locked lesson selected without payment: %v", got)
	}
	if sess.ActiveIndex() != 0 {
		t.Errorf("denied selection changed active index to %d", sess.ActiveIndex())
	}
	if got := sess.Select(0); got != lesson.Allowed {
		t.Errorf("free lesson denied: %v", got)
	}
	if got := sess.Select(99); got != lesson.Denied {
		t.Errorf("unknown lesson allowed: %v", got)
	}

	sess.apply(entitlement.Change{UID: "u1", Paid: true})
	if got := sess.Select(2); got != lesson.Allowed {
		t.Errorf("paid viewer denied lesson 2: %v", got)
	}
	if sess.ActiveIndex() != 2 {
		t.Errorf("active index = %d, want 2", sess.ActiveIndex())
	}
}

func TestSessionViewTracksAccess(t *testing.T) {
	sess := New("u1", testCatalog(t))
	defer sess.Close()

	views := sess.View()
	if views[1].State != lesson.Locked {
		t.Errorf("lesson 1 should render locked, got %v", views[1].State)
	}

	sess.apply(entitlement.Change{UID: "u1", Paid: true})
	for _, v := range sess.View() {
		if v.State != lesson.Unlocked {
			t.Errorf("lesson %d still locked after unlock", v.Index)
		}
	}
}

func TestReattachCancelsPriorSubscription(t *testing.T) {
	store := memory.New()
	hub := watch.NewHub(store)
	defer hub.Close()

	sess := New("u1", testCatalog(t))
	defer sess.Close()

	for i := 0; i < 3; i++ {
		if err := sess.Attach(context.Background(), hub); err != nil {
			t.Fatalf("attach %d: %v", i, err)
		}
	}
	waitUntil(t, func() bool { return hub.SubscriberCount("u1") == 1 })
}

func TestCloseCancelsSubscriptionAndResets(t *testing.T) {
	store := memory.New()
	hub := watch.NewHub(store)
	defer hub.Close()

	sess := New("u1", testCatalog(t))
	if err := sess.Attach(context.Background(), hub); err != nil {
		t.Fatalf("attach: %v", err)
	}
	sess.apply(entitlement.Change{UID: "u1", Paid: true})
	if sess.Select(2) != lesson.Allowed {
		t.Fatal("setup: expected selection to succeed")
	}

	sess.Close()
	sess.Close() // idempotent

	waitUntil(t, func() bool { return hub.SubscriberCount("u1") == 0 })
	if sess.ActiveIndex() != lesson.FreeLessonIndex {
		t.Errorf("active index not reset, got %d", sess.ActiveIndex())
	}
}

func TestShouldPromptPaywall(t *testing.T) {
	sess := New("u1", testCatalog(t))
	defer sess.Close()

	if !sess.ShouldPromptPaywall(PlayerEvent{Event: EventEnded}) {
		t.Error("free lesson ended while locked should prompt")
	}
	if sess.ShouldPromptPaywall(PlayerEvent{Event: "paused"}) {
		t.Error("non-ended event should not prompt")
	}

	sess.apply(entitlement.Change{UID: "u1", Paid: true})
	if sess.ShouldPromptPaywall(PlayerEvent{Event: EventEnded}) {
		t.Error("paid viewer should never be prompted")
	}
}

func TestDetectPaymentReturn(t *testing.T) {
	ok, cleaned, err := DetectPaymentReturn("https://course.example.com/?payment=success")
	if err != nil || !ok {
		t.Fatalf("expected success detection, got ok=%v err=%v", ok, err)
	}
	if cleaned != "https://course.example.com/" {
		t.Errorf("cleaned url = %q", cleaned)
	}

	ok, cleaned, err = DetectPaymentReturn("https://course.example.com/?payment=success&tab=2")
	if err != nil || !ok {
		t.Fatalf("expected success detection, got ok=%v err=%v", ok, err)
	}
	if cleaned != "https://course.example.com/?tab=2" {
		t.Errorf("other params must survive stripping, got %q", cleaned)
	}

	ok, _, err = DetectPaymentReturn("https://course.example.com/")
	if err != nil || ok {
		t.Errorf("plain url misdetected: ok=%v err=%v", ok, err)
	}
	ok, _, err = DetectPaymentReturn("https://course.example.com/?payment=canceled")
	if err != nil || ok {
		t.Errorf("non-success value misdetected: ok=%v err=%v", ok, err)
	}
}
