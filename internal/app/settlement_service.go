package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jhleal91/rifas-app-sub000/internal/clock"
	"github.com/jhleal91/rifas-app-sub000/internal/domain"
)

type SettlementRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetReservationForUpdate(ctx context.Context, id string) (domain.Reservation, error)
	GetDrawingForUpdate(ctx context.Context, drawingID string) (domain.Drawing, error)
	ReleaseExpiredHolds(ctx context.Context, drawingID string, elementIDs []string, now time.Time) (int, error)
	FindUnavailable(ctx context.Context, drawingID string, elementIDs []string, now time.Time) ([]string, error)
	FindActiveConflicts(ctx context.Context, drawingID string, elementIDs []string, excludeID string, now time.Time) ([]string, error)
	CreateReservation(ctx context.Context, res domain.Reservation) error
	MarkSettled(ctx context.Context, id string) error
	Release(ctx context.Context, id, reason string) (bool, error)
}

type SaleRepository interface {
	CreateSale(ctx context.Context, sale domain.Sale) error
	GetSaleByReservationID(ctx context.Context, reservationID string) (*domain.Sale, error)
	FindConflictingSale(ctx context.Context, drawingID string, elementIDs []string) (string, []string, error)
}

type DrawingGetter interface {
	GetDrawing(ctx context.Context, id string) (domain.Drawing, error)
}

type SettlementService struct {
	repo     SettlementRepository
	sales    SaleRepository
	drawings DrawingGetter
	clock    clock.Clock
	logger   *log.Logger
}

func NewSettlementService(repo SettlementRepository, sales SaleRepository, drawings DrawingGetter, clk clock.Clock, logger *log.Logger) *SettlementService {
	if logger == nil {
		logger = log.Default()
	}
	return &SettlementService{
		repo:     repo,
		sales:    sales,
		drawings: drawings,
		clock:    clk,
		logger:   logger,
	}
}

type SettleResult struct {
	Sale domain.Sale
	// Created is false when an earlier settle already produced the sale;
	// callers treat that as success.
	Created bool
}

// Settle promotes a reservation to a sale, first writer wins. Payment
// callbacks, client confirmations and organizer validation all funnel
// through here and may race; repeats return the existing sale. Expiry does
// not block settlement: a paid hold settles late as long as none of its
// elements belong to another sale or active hold.
func (s *SettlementService) Settle(ctx context.Context, reservationID string) (SettleResult, error) {
	now := s.clock.Now()
	var result SettleResult
	var res domain.Reservation

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		res, err = s.repo.GetReservationForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}

		switch res.Status {
		case domain.ReservationStatusSettled:
			sale, err := s.sales.GetSaleByReservationID(txCtx, res.ID)
			if err != nil {
				return err
			}
			if sale == nil {
				return fmt.Errorf("reservation %s marked settled but has no sale", res.ID)
			}
			result = SettleResult{Sale: *sale, Created: false}
			return nil

		case domain.ReservationStatusReleased:
			// Swept before payment landed. The elements may have moved
			// on; serialize against new holds via the drawing lock and
			// re-claim only if everything is still free.
			if _, err := s.repo.GetDrawingForUpdate(txCtx, res.DrawingID); err != nil {
				return err
			}
			saleID, conflicting, err := s.sales.FindConflictingSale(txCtx, res.DrawingID, res.Elements)
			if err != nil {
				return err
			}
			if len(conflicting) > 0 {
				return &domain.SettlementConflictError{ReservationID: res.ID, SaleID: saleID, IDs: conflicting}
			}
			if _, err := s.repo.ReleaseExpiredHolds(txCtx, res.DrawingID, res.Elements, now); err != nil {
				return err
			}
			held, err := s.repo.FindActiveConflicts(txCtx, res.DrawingID, res.Elements, res.ID, now)
			if err != nil {
				return err
			}
			if len(held) > 0 {
				return &domain.SettlementConflictError{ReservationID: res.ID, IDs: held}
			}
		}

		sale := domain.Sale{
			ID:            uuid.NewString(),
			DrawingID:     res.DrawingID,
			ReservationID: res.ID,
			ClaimantID:    res.ClaimantID,
			Elements:      res.Elements,
			SettledAt:     now,
		}
		if err := s.sales.CreateSale(txCtx, sale); err != nil {
			return err
		}
		if err := s.repo.MarkSettled(txCtx, res.ID); err != nil {
			return err
		}

		result = SettleResult{Sale: sale, Created: true}
		return nil
	})
	if err != nil {
		// Losing the one-sale-per-reservation index means another
		// trigger path settled first; that is the desired state.
		if errors.Is(err, domain.ErrReservationAlreadySettled) {
			if sale, serr := s.sales.GetSaleByReservationID(ctx, reservationID); serr == nil && sale != nil {
				return SettleResult{Sale: *sale, Created: false}, nil
			}
		}
		return SettleResult{}, s.resolveSettleError(ctx, reservationID, res, err)
	}
	return result, nil
}

// SettleAsOrganizer is the manual-validation path: same settlement, gated
// on drawing ownership.
func (s *SettlementService) SettleAsOrganizer(ctx context.Context, organizerID, reservationID string) (SettleResult, error) {
	if err := s.checkOrganizer(ctx, organizerID, reservationID); err != nil {
		return SettleResult{}, err
	}
	return s.Settle(ctx, reservationID)
}

// Reject is an organizer-driven release with a recorded reason. Unlike
// settle, repeats are loud: the second reject finds nothing to prevent.
func (s *SettlementService) Reject(ctx context.Context, organizerID, reservationID, reason string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.repo.GetReservationForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}
		drawing, err := s.repo.GetDrawingForUpdate(txCtx, res.DrawingID)
		if err != nil {
			return err
		}
		if drawing.OrganizerID != organizerID {
			return domain.ErrUnauthorized
		}

		switch res.Status {
		case domain.ReservationStatusSettled:
			return domain.ErrReservationAlreadySettled
		case domain.ReservationStatusReleased:
			return domain.ErrReservationAlreadyReleased
		}

		_, err = s.repo.Release(txCtx, res.ID, "rejected: "+reason)
		return err
	})
}

type DirectSaleInput struct {
	DrawingID   string
	OrganizerID string
	ClaimantID  string
	Elements    []string
}

// DirectSale sells elements with no prior hold (in-person sales). It runs
// the exact availability transaction reservations use, with a zero-duration
// hold settled in the same atomic unit, so the one-owner invariant is
// enforced identically on every entry path.
func (s *SettlementService) DirectSale(ctx context.Context, in DirectSaleInput) (SettleResult, error) {
	if len(in.Elements) == 0 {
		return SettleResult{}, domain.ErrElementsRequired
	}
	if hasDuplicates(in.Elements) {
		return SettleResult{}, domain.ErrDuplicateElements
	}

	now := s.clock.Now()
	var result SettleResult

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		drawing, err := s.repo.GetDrawingForUpdate(txCtx, in.DrawingID)
		if err != nil {
			return err
		}
		if drawing.OrganizerID != in.OrganizerID {
			return domain.ErrUnauthorized
		}
		if drawing.Status != domain.DrawingStatusActive {
			return domain.ErrDrawingClosed
		}
		for _, e := range in.Elements {
			if !drawing.HasElement(e) {
				return domain.ErrElementNotInCatalog
			}
		}

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
			ExpiresAt:  now,
		}
		if err := s.repo.CreateReservation(txCtx, res); err != nil {
			return err
		}

		sale := domain.Sale{
			ID:            uuid.NewString(),
			DrawingID:     in.DrawingID,
			ReservationID: res.ID,
			ClaimantID:    in.ClaimantID,
			Elements:      in.Elements,
			SettledAt:     now,
		}
		if err := s.sales.CreateSale(txCtx, sale); err != nil {
			return err
		}
		if err := s.repo.MarkSettled(txCtx, res.ID); err != nil {
			return err
		}

		result = SettleResult{Sale: sale, Created: true}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrElementConflict) {
			unavailable, ferr := s.repo.FindUnavailable(ctx, in.DrawingID, in.Elements, s.clock.Now())
			if ferr != nil || len(unavailable) == 0 {
				unavailable = in.Elements
			}
			return SettleResult{}, &domain.ElementsUnavailableError{IDs: orderByRequest(in.Elements, unavailable)}
		}
		return SettleResult{}, err
	}
	return result, nil
}

func (s *SettlementService) checkOrganizer(ctx context.Context, organizerID, reservationID string) error {
	res, err := s.repo.GetReservationForUpdate(ctx, reservationID)
	if err != nil {
		return err
	}
	drawing, err := s.drawings.GetDrawing(ctx, res.DrawingID)
	if err != nil {
		return err
	}
	if drawing.OrganizerID != organizerID {
		return domain.ErrUnauthorized
	}
	return nil
}

// resolveSettleError maps aborted-transaction losses to their idempotent or
// reconciliation outcomes, re-reading outside the dead transaction.
func (s *SettlementService) resolveSettleError(ctx context.Context, reservationID string, res domain.Reservation, err error) error {
	var conflict *domain.SettlementConflictError
	if errors.As(err, &conflict) {
		s.logger.Printf("ERROR settlement conflict reservation=%s sale=%s elements=%v",
			conflict.ReservationID, conflict.SaleID, conflict.IDs)
		return err
	}

	if errors.Is(err, domain.ErrElementConflict) && res.ID != "" {
		saleID, conflicting, ferr := s.sales.FindConflictingSale(ctx, res.DrawingID, res.Elements)
		if ferr != nil || len(conflicting) == 0 {
			conflicting = res.Elements
		}
		cerr := &domain.SettlementConflictError{ReservationID: res.ID, SaleID: saleID, IDs: conflicting}
		s.logger.Printf("ERROR settlement conflict reservation=%s sale=%s elements=%v", cerr.ReservationID, cerr.SaleID, cerr.IDs)
		return cerr
	}

	return err
}
