package coursegate

import "github.com/coursegate/coursegate/id"

// ID is the primary identifier type for coursegate entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
