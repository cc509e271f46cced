package domain

import "time"

type DispositionKind string

const (
	DispositionAvailable DispositionKind = "available"
	DispositionReserved  DispositionKind = "reserved"
	DispositionSold      DispositionKind = "sold"
)

// Disposition is the state of one element within a drawing. Exactly one of
// the holder fields is meaningful depending on Kind.
type Disposition struct {
	ElementID string
	Kind      DispositionKind
	// HolderID is the claimant holding the active reservation
	// (reserved) or owning the sale (sold).
	HolderID  string
	ExpiresAt time.Time // reserved only
}

// Snapshot buckets a drawing's catalog by disposition, in catalog order.
type Snapshot struct {
	Available []string
	Reserved  []string
	Sold      []string
}

// AvailabilityResult reports a bulk availability check.
type AvailabilityResult struct {
	OK          bool
	Unavailable []string
}
