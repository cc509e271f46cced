package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusActive   ReservationStatus = "active"
	ReservationStatusSettled  ReservationStatus = "settled"
	ReservationStatusReleased ReservationStatus = "released"
)

// Reservation is a time-boxed hold on a set of elements pending payment.
// The element set is fixed at creation; the reservation is settled or
// released as a whole.
type Reservation struct {
	ID            string
	DrawingID     string
	ClaimantID    string
	Elements      []string
	Status        ReservationStatus
	CreatedAt     time.Time
	ExpiresAt     time.Time
	ReleaseReason string
}

// Expired reports whether the hold window has passed. Expiry is advisory:
// an expired reservation can still settle until its elements are sold to
// someone else.
func (r Reservation) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
