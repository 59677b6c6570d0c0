package coursegate_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coursegate/coursegate"
	"github.com/coursegate/coursegate/checkout"
	"github.com/coursegate/coursegate/entitlement"
	"github.com/coursegate/coursegate/lesson"
	"github.com/coursegate/coursegate/store/memory"
)

type fakeCheckout struct {
	mu    sync.Mutex
	calls []string
	fail  bool
}

func (f *fakeCheckout) CreateSession(_ context.Context, uid, _ string) (checkout.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, uid)
	if f.fail {
		return checkout.Session{}, errors.New("provider down")
	}
	return checkout.Session{ID: "cs_test_1", URL: "https://pay.example.com/cs_test_1"}, nil
}

func newService(t *testing.T, opts ...coursegate.Option) *coursegate.Service {
	t.Helper()

	svc := coursegate.New(memory.New(), opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = svc.Stop() })
	return svc
}

func testCatalog(t *testing.T) *lesson.Catalog {
	t.Helper()

	cat, err := lesson.NewCatalog([]lesson.Lesson{
		{Index: 0, Title: "Intro", URL: "https://cdn.example.com/0.mp4"},
		{Index: 1, Title: "Basics", URL: "https://cdn.example.com/1.mp4"},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

func TestGrantThenEntitled(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	record, err := svc.Entitled(ctx, "u1")
	if err != nil {
		t.Fatalf("entitled: %v", err)
	}
	if record.Paid {
		t.Fatal("unknown user must read as unpaid")
	}

	if err := svc.Grant(ctx, "u1"); err != nil {
		t.Fatalf("grant: %v", err)
	}

	record, err = svc.Entitled(ctx, "u1")
	if err != nil || !record.Paid {
		t.Fatalf("expected paid record, got %+v err=%v", record, err)
	}

	// Redelivered grant stays idempotent.
	if err := svc.Grant(ctx, "u1"); err != nil {
		t.Fatalf("second grant: %v", err)
	}
}

func TestWatchObservesGrant(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	changes := make(chan entitlement.Change, 8)
	sub, err := svc.Watch(ctx, "u1", func(c entitlement.Change) { changes <- c })
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer sub.Cancel()

	select {
	case c := <-changes:
		if c.Paid {
			t.Fatalf("initial value should be unpaid, got %+v", c)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("initial value never delivered")
	}

	if err := svc.Grant(ctx, "u1"); err != nil {
		t.Fatalf("grant: %v", err)
	}

	select {
	case c := <-changes:
		if !c.Paid {
			t.Fatalf("expected paid transition, got %+v", c)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("paid transition never delivered")
	}
}

func TestCreateCheckout(t *testing.T) {
	fake := &fakeCheckout{}
	svc := newService(t, coursegate.WithCheckout(fake))

	sess, err := svc.CreateCheckout(context.Background(), "u1", "a@b.com")
	if err != nil {
		t.Fatalf("create checkout: %v", err)
	}
	if sess.URL == "" {
		t.Error("expected redirect url")
	}

	fake.fail = true
	_, err = svc.CreateCheckout(context.Background(), "u2", "")
	if !errors.Is(err, coursegate.ErrCheckoutFailed) {
		t.Fatalf("expected ErrCheckoutFailed, got %v", err)
	}
	if !coursegate.IsRetryable(err) {
		t.Error("checkout failure should be retryable")
	}
}

func TestCreateCheckoutWithoutClient(t *testing.T) {
	svc := newService(t)
	if _, err := svc.CreateCheckout(context.Background(), "u1", "a@b.com"); !errors.Is(err, coursegate.ErrCheckoutFailed) {
		t.Fatalf("expected ErrCheckoutFailed, got %v", err)
	}
}

func TestIdentityIsRequired(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	if _, err := svc.Entitled(ctx, ""); !errors.Is(err, coursegate.ErrMissingIdentity) {
		t.Errorf("Entitled: expected ErrMissingIdentity, got %v", err)
	}
	if err := svc.Grant(ctx, ""); !errors.Is(err, coursegate.ErrMissingIdentity) {
		t.Errorf("Grant: expected ErrMissingIdentity, got %v", err)
	}
	if _, err := svc.Watch(ctx, "", nil); !errors.Is(err, coursegate.ErrMissingIdentity) {
		t.Errorf("Watch: expected ErrMissingIdentity, got %v", err)
	}
	if _, err := svc.CreateCheckout(ctx, "", ""); !errors.Is(err, coursegate.ErrMissingIdentity) {
		t.Errorf("CreateCheckout: expected ErrMissingIdentity, got %v", err)
	}
}

func TestLessonsFollowEntitlement(t *testing.T) {
	svc := newService(t, coursegate.WithCatalog(testCatalog(t)))
	ctx := context.Background()

	views, err := svc.Lessons(ctx, "u1")
	if err != nil {
		t.Fatalf("lessons: %v", err)
	}
	if views[0].State != lesson.Unlocked || views[1].State != lesson.Locked {
		t.Errorf("unpaid view wrong: %+v", views)
	}

	// Anonymous viewers get the unpaid rendering too.
	views, err = svc.Lessons(ctx, "")
	if err != nil || views[1].State != lesson.Locked {
		t.Errorf("anonymous view wrong: %+v err=%v", views, err)
	}

	if err := svc.Grant(ctx, "u1"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	views, err = svc.Lessons(ctx, "u1")
	if err != nil {
		t.Fatalf("lessons: %v", err)
	}
	for _, v := range views {
		if v.State != lesson.Unlocked {
			t.Errorf("lesson %d still locked after grant", v.Index)
		}
	}
}
