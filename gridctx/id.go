package gridctx

import "github.com/google/uuid"

// ID is an opaque identifier for correlations, causation links, nodes, and
// operations. IDs are compared structurally and carry no internal format
// guarantees beyond non-emptiness.
type ID string

// IDGenerator mints opaque identifiers. Implementations must be safe for
// concurrent use.
type IDGenerator interface {
	NewID() ID
}

// UUIDGenerator mints time-ordered UUIDv7 identifiers.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() ID {
	return ID(uuid.Must(uuid.NewV7()).String())
}
