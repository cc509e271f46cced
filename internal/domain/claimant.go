package domain

import "time"

type ClaimantKind string

const (
	// ClaimantKindDurable identifies a buyer reachable at a contact
	// address; repeat purchases resolve to the same record.
	ClaimantKindDurable ClaimantKind = "durable"
	// ClaimantKindEphemeral identifies a guest or in-person buyer with no
	// usable contact; a fresh record per reservation.
	ClaimantKindEphemeral ClaimantKind = "ephemeral"
)

// Claimant is the buyer identity reservations and sales are owned by.
// Ownership is always by id, never by raw contact string.
type Claimant struct {
	ID        string
	Name      string
	Contact   string
	Kind      ClaimantKind
	CreatedAt time.Time
}
