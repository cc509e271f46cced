package domain

import "time"

// Sale is a confirmed purchase promoted from a reservation. Immutable once
// created.
type Sale struct {
	ID            string
	DrawingID     string
	ReservationID string
	ClaimantID    string
	Elements      []string
	SettledAt     time.Time
}
