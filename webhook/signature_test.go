package webhook

import (
	"errors"
	"testing"
	"time"

	"github.com/coursegate/coursegate"
)

func TestVerifySignatureAcceptsValid(t *testing.T) {
	now := time.Unix(1700000000, 0)
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	header := Sign(payload, "whsec_test", now)

	if err := VerifySignature(payload, header, "whsec_test", DefaultTolerance, now); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
}

func TestVerifySignatureRejectsTamperedByte(t *testing.T) {
	now := time.Unix(1700000000, 0)
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	header := Sign(payload, "whsec_test", now)

	tampered := append([]byte(nil), payload...)
	tampered[10] ^= 0x01

	err := VerifySignature(tampered, header, "whsec_test", DefaultTolerance, now)
	if !errors.Is(err, coursegate.ErrInvalidSignature) {
		t.Fatalf("expected signature error, got %v", err)
	}
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	now := time.Unix(1700000000, 0)
	payload := []byte(`{}`)
	header := Sign(payload, "whsec_test", now)

	err := VerifySignature(payload, header, "whsec_other", DefaultTolerance, now)
	if !errors.Is(err, coursegate.ErrInvalidSignature) {
		t.Fatalf("expected signature error, got %v", err)
	}
}

func TestVerifySignatureRejectsStaleTimestamp(t *testing.T) {
	signed := time.Unix(1700000000, 0)
	payload := []byte(`{}`)
	header := Sign(payload, "whsec_test", signed)

	err := VerifySignature(payload, header, "whsec_test", DefaultTolerance, signed.Add(6*time.Minute))
	if !errors.Is(err, coursegate.ErrInvalidSignature) {
		t.Fatalf("expected tolerance error, got %v", err)
	}

	// Inside the window it still verifies.
	if err := VerifySignature(payload, header, "whsec_test", DefaultTolerance, signed.Add(4*time.Minute)); err != nil {
		t.Fatalf("in-window signature rejected: %v", err)
	}
}

func TestVerifySignatureHeaderShapes(t *testing.T) {
	now := time.Unix(1700000000, 0)
	payload := []byte(`{}`)
	good := Sign(payload, "whsec_test", now)

	cases := []struct {
		name   string
		header string
	}{
		{"empty", ""},
		{"no timestamp", "v1=deadbeef"},
		{"no signature", "t=1700000000"},
		{"bad timestamp", "t=notanumber,v1=deadbeef"},
		{"garbage element", "t=1700000000;v1=deadbeef"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := VerifySignature(payload, tc.header, "whsec_test", DefaultTolerance, now)
			if !errors.Is(err, coursegate.ErrInvalidSignature) {
				t.Fatalf("expected signature error, got %v", err)
			}
		})
	}

	// Extra unknown scheme elements do not break a valid header.
	withExtra := good + ",v0=ffff"
	if err := VerifySignature(payload, withExtra, "whsec_test", DefaultTolerance, now); err != nil {
		t.Fatalf("header with extra schemes rejected: %v", err)
	}
}

func TestParseEvent(t *testing.T) {
	evt, err := ParseEvent([]byte(`{
		"id": "evt_42",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_test_a1", "client_reference_id": "user-7"}}
	}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if evt.ID != "evt_42" || evt.Type != EventCheckoutCompleted {
		t.Errorf("unexpected envelope: %+v", evt)
	}
	if evt.Data.Object.ClientReferenceID != "user-7" {
		t.Errorf("unexpected client reference: %q", evt.Data.Object.ClientReferenceID)
	}

	if _, err := ParseEvent([]byte(`not json`)); !errors.Is(err, coursegate.ErrMalformedEvent) {
		t.Errorf("expected malformed error for invalid JSON, got %v", err)
	}
	// A missing type still decodes; the handler acks it as irrelevant.
	evt, err = ParseEvent([]byte(`{"id":"evt_1"}`))
	if err != nil {
		t.Errorf("typeless event should decode, got %v", err)
	}
	if evt.Type != "" {
		t.Errorf("unexpected type: %q", evt.Type)
	}
}
