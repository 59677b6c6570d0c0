package checkout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coursegate/coursegate/types"
)

func TestCreateSession(t *testing.T) {
	var captured *http.Request
	var form map[string]string

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_123","url":"https://pay.example.com/cs_test_123"}`))
	}))
	defer provider.Close()

	client := NewClient("sk_test_abc", "https://course.example.com",
		WithBaseURL(provider.URL),
	)

	sess, err := client.CreateSession(context.Background(), "user-9", "buyer@example.com")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.ID != "cs_test_123" || sess.URL != "https://pay.example.com/cs_test_123" {
		t.Errorf("unexpected session: %+v", sess)
	}

	if captured.URL.Path != "/v1/checkout/sessions" {
		t.Errorf("unexpected path %q", captured.URL.Path)
	}
	if got := captured.Header.Get("Authorization"); got != "Bearer sk_test_abc" {
		t.Errorf("unexpected auth header %q", got)
	}
	if captured.Header.Get("Idempotency-Key") == "" {
		t.Error("missing idempotency key")
	}

	want := map[string]string{
		"mode":                                      "payment",
		"client_reference_id":                       "user-9",
		"success_url":                               "https://course.example.com?payment=success",
		"cancel_url":                                "https://course.example.com",
		"line_items[0][quantity]":                   "1",
		"line_items[0][price_data][currency]":       "usd",
		"line_items[0][price_data][unit_amount]":    "2990",
		"line_items[0][price_data][product_data][name]": "Full Course Access",
		"customer_email":                                "buyer@example.com",
	}
	for k, v := range want {
		if form[k] != v {
			t.Errorf("form[%s] = %q, want %q", k, form[k], v)
		}
	}
}

func TestCreateSessionCustomProduct(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if got := r.PostForm.Get("line_items[0][price_data][unit_amount]"); got != "4500" {
			t.Errorf("unit_amount = %q, want 4500", got)
		}
		if got := r.PostForm.Get("line_items[0][price_data][currency]"); got != "eur" {
			t.Errorf("currency = %q, want eur", got)
		}
		_, _ = w.Write([]byte(`{"id":"cs_1","url":"https://pay.example.com/cs_1"}`))
	}))
	defer provider.Close()

	client := NewClient("sk_test_abc", "https://course.example.com",
		WithBaseURL(provider.URL),
		WithProduct(Product{Name: "Masterclass", Price: types.EUR(4500)}),
	)
	if _, err := client.CreateSession(context.Background(), "user-9", "buyer@example.com"); err != nil {
		t.Fatalf("create session: %v", err)
	}
}

func TestCreateSessionProviderError(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"invalid api key"}}`, http.StatusUnauthorized)
	}))
	defer provider.Close()

	client := NewClient("sk_bad", "https://course.example.com", WithBaseURL(provider.URL))
	if _, err := client.CreateSession(context.Background(), "user-9", "buyer@example.com"); err == nil {
		t.Fatal("expected error on provider refusal")
	}
}

func TestCreateSessionRequiresUID(t *testing.T) {
	client := NewClient("sk_test_abc", "https://course.example.com")
	if _, err := client.CreateSession(context.Background(), "", ""); err == nil {
		t.Fatal("expected error for empty uid")
	}
}

func TestCreateSessionMissingURL(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"cs_1"}`))
	}))
	defer provider.Close()

	client := NewClient("sk_test_abc", "https://course.example.com", WithBaseURL(provider.URL))
	if _, err := client.CreateSession(context.Background(), "user-9", "buyer@example.com"); err == nil {
		t.Fatal("expected error when session has no url")
	}
}
