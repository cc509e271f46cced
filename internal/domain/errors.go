package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDrawingNotFound            = errors.New("drawing not found")
	ErrDrawingClosed              = errors.New("drawing closed")
	ErrDrawingNameRequired        = errors.New("drawing name required")
	ErrElementsRequired           = errors.New("at least one element required")
	ErrDuplicateElements          = errors.New("duplicate elements")
	ErrElementNotInCatalog        = errors.New("element not in catalog")
	ErrReservationNotFound        = errors.New("reservation not found")
	ErrReservationAlreadySettled  = errors.New("reservation already settled")
	ErrReservationAlreadyReleased = errors.New("reservation already released")
	ErrClaimantNameRequired       = errors.New("claimant name required")
	ErrUnauthorized               = errors.New("caller is not the drawing organizer")
	ErrInvalidID                  = errors.New("invalid id")

	// ErrElementConflict is the late-detected arbiter violation: a unique
	// index rejected an element row another record already owns. The
	// transaction is rolled back whole; callers re-read to report ids.
	ErrElementConflict = errors.New("element ownership conflict")

	// ErrContactTaken signals a concurrent insert won the claimants
	// contact index; callers re-read and reuse the winner.
	ErrContactTaken = errors.New("claimant contact already registered")
)

// ElementsUnavailableError reports which requested elements were already
// reserved or sold. Recoverable: the caller can re-offer the rest.
type ElementsUnavailableError struct {
	IDs []string
}

func (e *ElementsUnavailableError) Error() string {
	return fmt.Sprintf("elements unavailable: %s", strings.Join(e.IDs, ", "))
}

// SettlementConflictError means payment was confirmed for elements that were
// meanwhile sold to someone else. Requires manual reconciliation; the
// existing sale is never overwritten.
type SettlementConflictError struct {
	ReservationID string
	SaleID        string
	IDs           []string
}

func (e *SettlementConflictError) Error() string {
	return fmt.Sprintf("settlement conflict on reservation %s: elements %s already sold (sale %s)",
		e.ReservationID, strings.Join(e.IDs, ", "), e.SaleID)
}
