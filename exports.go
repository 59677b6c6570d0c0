package coursegate

import (
	"github.com/coursegate/coursegate/entitlement"
	"github.com/coursegate/coursegate/types"
)

// Re-export common types for convenience so users don't have to import subpackages.

// Record is re-exported from the entitlement package.
type Record = entitlement.Record

// Change is re-exported from the entitlement package.
type Change = entitlement.Change

// Money is re-exported from the types package.
type Money = types.Money

// Entity is re-exported from the types package.
type Entity = types.Entity

// Re-export Money constructors
var (
	USD  = types.USD
	EUR  = types.EUR
	GBP  = types.GBP
	JPY  = types.JPY
	Zero = types.Zero
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
