package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jhleal91/rifas-app-sub000/internal/clock"
	"github.com/jhleal91/rifas-app-sub000/internal/domain"
)

type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetDrawingForUpdate(ctx context.Context, drawingID string) (domain.Drawing, error)
	ReleaseExpiredHolds(ctx context.Context, drawingID string, elementIDs []string, now time.Time) (int, error)
	FindUnavailable(ctx context.Context, drawingID string, elementIDs []string, now time.Time) ([]string, error)
	CreateReservation(ctx context.Context, res domain.Reservation) error
	GetReservation(ctx context.Context, id string) (domain.Reservation, error)
	Release(ctx context.Context, id, reason string) (bool, error)
}

type ReservationService struct {
	repo    ReservationRepository
	clock   clock.Clock
	holdTTL time.Duration
}

const defaultHoldTTL = 15 * time.Minute

func NewReservationService(repo ReservationRepository, clk clock.Clock, opts ...ReservationServiceOption) *ReservationService {
	svc := &ReservationService{
		repo:    repo,
		clock:   clk,
		holdTTL: defaultHoldTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ReservationServiceOption func(*ReservationService)

// WithHoldTTL overrides the default hold window for new reservations.
func WithHoldTTL(d time.Duration) ReservationServiceOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

type CreateReservationInput struct {
	DrawingID  string
	ClaimantID string
	Elements   []string
	// HoldDuration overrides the service TTL when positive.
	HoldDuration time.Duration
}

func (s *ReservationService) CreateReservation(ctx context.Context, in CreateReservationInput) (domain.Reservation, error) {
	if len(in.Elements) == 0 {
		return domain.Reservation{}, domain.ErrElementsRequired
	}
	if hasDuplicates(in.Elements) {
		return domain.Reservation{}, domain.ErrDuplicateElements
	}

	ttl := s.holdTTL
	if in.HoldDuration > 0 {
		ttl = in.HoldDuration
	}

	now := s.clock.Now()
	var result domain.Reservation

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		drawing, err := s.repo.GetDrawingForUpdate(txCtx, in.DrawingID)
		if err != nil {
			return err
		}
		if drawing.Status != domain.DrawingStatusActive {
			return domain.ErrDrawingClosed
		}
		for _, e := range in.Elements {
			if !drawing.HasElement(e) {
				return domain.ErrElementNotInCatalog
			}
		}

		// Expired holds are released, not respected: the window passing
		// is what frees the elements, the sweeper is only a janitor.
		if _, err := s.repo.ReleaseExpiredHolds(txCtx, in.DrawingID, in.Elements, now); err != nil {
			return err
		}

		unavailable, err := s.repo.FindUnavailable(txCtx, in.DrawingID, in.Elements, now)
		if err != nil {
			return err
		}
		if len(unavailable) > 0 {
			return &domain.ElementsUnavailableError{IDs: orderByRequest(in.Elements, unavailable)}
		}

		res := domain.Reservation{
			ID:         uuid.NewString(),
			DrawingID:  in.DrawingID,
			ClaimantID: in.ClaimantID,
			Elements:   in.Elements,
			Status:     domain.ReservationStatusActive,
			CreatedAt:  now,
			ExpiresAt:  now.Add(ttl),
		}
		if err := s.repo.CreateReservation(txCtx, res); err != nil {
			return err
		}

		result = res
		return nil
	})
	if err != nil {
		// A unique-index loss aborts the transaction, so the conflicting
		// ids are re-read outside it.
		if errors.Is(err, domain.ErrElementConflict) {
			return domain.Reservation{}, s.unavailableAfterConflict(ctx, in.DrawingID, in.Elements)
		}
		return domain.Reservation{}, err
	}
	return result, nil
}

// Release returns a reservation's elements to the pool. Idempotent: an
// already released or settled reservation is left alone.
func (s *ReservationService) Release(ctx context.Context, reservationID, reason string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		did, err := s.repo.Release(txCtx, reservationID, reason)
		if err != nil {
			return err
		}
		if !did {
			// Distinguish "nothing to do" from "no such reservation".
			if _, err := s.repo.GetReservation(txCtx, reservationID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *ReservationService) unavailableAfterConflict(ctx context.Context, drawingID string, elements []string) error {
	unavailable, err := s.repo.FindUnavailable(ctx, drawingID, elements, s.clock.Now())
	if err != nil || len(unavailable) == 0 {
		// The winner may have released already; report the whole request.
		return &domain.ElementsUnavailableError{IDs: elements}
	}
	return &domain.ElementsUnavailableError{IDs: orderByRequest(elements, unavailable)}
}

func hasDuplicates(ids []string) bool {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}

// orderByRequest keeps error listings in the order the caller asked for.
func orderByRequest(requested, subset []string) []string {
	in := make(map[string]struct{}, len(subset))
	for _, id := range subset {
		in[id] = struct{}{}
	}
	out := make([]string, 0, len(subset))
	for _, id := range requested {
		if _, ok := in[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
