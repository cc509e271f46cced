package app

import (
	"context"
	"time"

	"github.com/jhleal91/rifas-app-sub000/internal/clock"
	"github.com/jhleal91/rifas-app-sub000/internal/domain"
)

type InventoryRepository interface {
	Snapshot(ctx context.Context, drawingID string, now time.Time) (domain.Snapshot, error)
	Disposition(ctx context.Context, drawingID, elementID string, now time.Time) (domain.Disposition, error)
}

type AvailabilityChecker interface {
	FindUnavailable(ctx context.Context, drawingID string, elementIDs []string, now time.Time) ([]string, error)
}

// InventoryService answers read-only disposition questions. Writes never go
// through here; the reserving/settling transactions do their own checks
// under lock.
type InventoryService struct {
	repo         InventoryRepository
	availability AvailabilityChecker
	clock        clock.Clock
}

func NewInventoryService(repo InventoryRepository, availability AvailabilityChecker, clk clock.Clock) *InventoryService {
	return &InventoryService{
		repo:         repo,
		availability: availability,
		clock:        clk,
	}
}

// Snapshot lists the drawing's elements by disposition in catalog order.
// Holds whose window has passed are presented as available even before the
// sweeper gets to them.
func (s *InventoryService) Snapshot(ctx context.Context, drawingID string) (domain.Snapshot, error) {
	return s.repo.Snapshot(ctx, drawingID, s.clock.Now())
}

func (s *InventoryService) Disposition(ctx context.Context, drawingID, elementID string) (domain.Disposition, error) {
	return s.repo.Disposition(ctx, drawingID, elementID, s.clock.Now())
}

// BulkAvailabilityCheck is advisory: it answers "would this set be free
// right now". The authoritative check runs inside the reserving
// transaction.
func (s *InventoryService) BulkAvailabilityCheck(ctx context.Context, drawingID string, elementIDs []string) (domain.AvailabilityResult, error) {
	if len(elementIDs) == 0 {
		return domain.AvailabilityResult{}, domain.ErrElementsRequired
	}
	unavailable, err := s.availability.FindUnavailable(ctx, drawingID, elementIDs, s.clock.Now())
	if err != nil {
		return domain.AvailabilityResult{}, err
	}
	return domain.AvailabilityResult{
		OK:          len(unavailable) == 0,
		Unavailable: orderByRequest(elementIDs, unavailable),
	}, nil
}
