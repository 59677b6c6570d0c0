package entitlement

import "context"

// Store is the narrow persistence contract for entitlement records.
// The unified store.Store satisfies it; consumers that only need
// entitlement access (the watch hub, the webhook receiver) depend on
// this fragment instead of the full store.
type Store interface {
	// GetEntitlement returns the record for uid. An absent record is not an
	// error: it is returned as the zero record with Paid=false.
	GetEntitlement(ctx context.Context, uid string) (Record, error)

	// SetPaid merges paid=true into the record for uid, creating it if
	// necessary. The merge is idempotent and commutative: applying it N>=1
	// times is indistinguishable from applying it once, and it never
	// clobbers other fields such as CreatedAt.
	SetPaid(ctx context.Context, uid string) error
}
