package domain

import "time"

type DrawingStatus string

const (
	DrawingStatusActive DrawingStatus = "active"
	DrawingStatusClosed DrawingStatus = "closed"
)

// Drawing is a single raffle instance. Its element catalog is fixed at
// creation and never changes for the lifetime of the drawing.
type Drawing struct {
	ID          string
	OrganizerID string
	Name        string
	Status      DrawingStatus
	// Elements is the ordered catalog of purchasable identifiers.
	Elements  []string
	CreatedAt time.Time
}

// HasElement reports whether id belongs to the drawing's catalog.
func (d Drawing) HasElement(id string) bool {
	for _, e := range d.Elements {
		if e == id {
			return true
		}
	}
	return false
}
