package mongo

import (
	"time"

	"github.com/coursegate/coursegate/entitlement"
	"github.com/coursegate/coursegate/types"
)

// entitlementModel is the BSON document shape for one user's entitlement.
// The uid is the document id; there is no separate key field.
type entitlementModel struct {
	UID       string    `bson:"_id"`
	Paid      bool      `bson:"paid"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (m entitlementModel) toRecord() entitlement.Record {
	return entitlement.Record{
		UID:  m.UID,
		Paid: m.Paid,
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
	}
}
