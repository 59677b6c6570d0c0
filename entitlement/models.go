// Package entitlement defines the durable per-user access record and the
// change notification type flowing through the watch channel.
package entitlement

import (
	"time"

	"github.com/coursegate/coursegate/types"
)

// Record is the durable entitlement for a single user, keyed by the opaque
// uid issued by the identity provider. It is created lazily on the first
// payment confirmation; once Paid is true it is never reset by this system.
type Record struct {
	UID  string `json:"uid"`
	Paid bool   `json:"paid"`
	types.Entity
}

// Change describes an observed transition of a user's entitlement record.
// It is what watch subscribers receive, including the initial snapshot.
type Change struct {
	UID        string    `json:"uid"`
	Paid       bool      `json:"paid"`
	ObservedAt time.Time `json:"observed_at"`
}

// ChangeOf builds the Change corresponding to the current state of a record.
func ChangeOf(r Record) Change {
	return Change{
		UID:        r.UID,
		Paid:       r.Paid,
		ObservedAt: time.Now().UTC(),
	}
}
