// Package coursegate turns external payment confirmations into a durable
// per-user entitlement and pushes that change live to connected viewers.
//
// Coursegate is designed as a library, not a service. Import it directly
// into your Go application and mount its handlers on your own server. It
// provides:
//
//   - Signed webhook ingestion for payment confirmations (Stripe scheme)
//   - A durable, idempotent per-user paid flag over pluggable stores
//   - A live watch channel delivering entitlement changes to open sessions
//   - An access gate deciding lesson availability from a single boolean
//   - Checkout-session creation against the provider's hosted flow
//   - Cross-process change fan-out via Redis pub/sub
//
// # Quick Start
//
// Create a service with your preferred store:
//
//	import (
//	    "github.com/coursegate/coursegate"
//	    "github.com/coursegate/coursegate/store/postgres"
//	)
//
//	st, err := postgres.Open(ctx, databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	svc := coursegate.New(st)
//	if err := svc.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Stop()
//
// Grant and observe entitlements:
//
//	sub, _ := svc.Watch(ctx, "user-1", func(c entitlement.Change) {
//	    fmt.Println("paid:", c.Paid)
//	})
//	defer sub.Cancel()
//
//	_ = svc.Grant(ctx, "user-1")
//
// # Core Concepts
//
// The entitlement is a single boolean per user that, once set, is
// permanent. Absent users read as unpaid; there is no not-found error.
// Writes are merge-upserts, so concurrent or redelivered confirmations
// commute. The watch channel delivers the current value on subscribe and
// every change after, at least once, coalescing bursts to the newest
// value.
//
// The webhook handler verifies the provider's signature over the raw
// request bytes before anything else, acks events it does not act on,
// and refuses the ack when the store write fails so the provider
// redelivers.
package coursegate
