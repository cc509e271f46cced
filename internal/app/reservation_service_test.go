package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhleal91/rifas-app-sub000/internal/clock"
	"github.com/jhleal91/rifas-app-sub000/internal/domain"
)

func TestReservationService_CreateReservation(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ttl := 15 * time.Minute

	drawing := domain.Drawing{
		ID:          "drawing-1",
		OrganizerID: "org-1",
		Name:        "spring raffle",
		Status:      domain.DrawingStatusActive,
		Elements:    []string{"1", "2", "3"},
	}

	makeSvc := func(drawings []domain.Drawing, reservations []domain.Reservation) (*ReservationService, *fakeStore) {
		store := newFakeStore(drawings, reservations)
		svc := NewReservationService(store, clock.NewFixed(now), WithHoldTTL(ttl))
		return svc, store
	}

	t.Run("creates hold on free elements", func(t *testing.T) {
		svc, store := makeSvc([]domain.Drawing{drawing}, nil)

		res, err := svc.CreateReservation(context.Background(), CreateReservationInput{
			DrawingID:  "drawing-1",
			ClaimantID: "claimant-x",
			Elements:   []string{"1", "2"},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.ID == "" {
			t.Fatalf("expected reservation ID to be set")
		}
		if res.Status != domain.ReservationStatusActive {
			t.Fatalf("expected status %s, got %s", domain.ReservationStatusActive, res.Status)
		}
		if res.ExpiresAt != now.Add(ttl) {
			t.Fatalf("expected expires_at %v, got %v", now.Add(ttl), res.ExpiresAt)
		}
		if len(store.reservations) != 1 {
			t.Fatalf("expected 1 reservation stored, got %d", len(store.reservations))
		}
	})

	t.Run("reports only the unavailable elements", func(t *testing.T) {
		held := domain.Reservation{
			ID:         "res-1",
			DrawingID:  "drawing-1",
			ClaimantID: "claimant-x",
			Elements:   []string{"1", "2"},
			Status:     domain.ReservationStatusActive,
			ExpiresAt:  now.Add(10 * time.Minute),
		}
		svc, _ := makeSvc([]domain.Drawing{drawing}, []domain.Reservation{held})

		_, err := svc.CreateReservation(context.Background(), CreateReservationInput{
			DrawingID:  "drawing-1",
			ClaimantID: "claimant-y",
			Elements:   []string{"2", "3"},
		})
		var unavailable *domain.ElementsUnavailableError
		if !errors.As(err, &unavailable) {
			t.Fatalf("expected ElementsUnavailableError, got %v", err)
		}
		if len(unavailable.IDs) != 1 || unavailable.IDs[0] != "2" {
			t.Fatalf("expected unavailable [2], got %v", unavailable.IDs)
		}
	})

	t.Run("expired holds free their elements", func(t *testing.T) {
		expired := domain.Reservation{
			ID:         "res-1",
			DrawingID:  "drawing-1",
			ClaimantID: "claimant-x",
			Elements:   []string{"1", "2", "3"},
			Status:     domain.ReservationStatusActive,
			ExpiresAt:  now.Add(-time.Second),
		}
		svc, store := makeSvc([]domain.Drawing{drawing}, []domain.Reservation{expired})

		res, err := svc.CreateReservation(context.Background(), CreateReservationInput{
			DrawingID:  "drawing-1",
			ClaimantID: "claimant-y",
			Elements:   []string{"1", "3"},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(res.Elements) != 2 {
			t.Fatalf("expected 2 elements held, got %d", len(res.Elements))
		}
		if got := store.reservations["res-1"].Status; got != domain.ReservationStatusReleased {
			t.Fatalf("expected expired hold released, got %s", got)
		}
	})

	t.Run("sold elements stay unavailable", func(t *testing.T) {
		settled := domain.Reservation{
			ID:         "res-1",
			DrawingID:  "drawing-1",
			ClaimantID: "claimant-x",
			Elements:   []string{"2"},
			Status:     domain.ReservationStatusSettled,
			ExpiresAt:  now.Add(-time.Hour),
		}
		svc, store := makeSvc([]domain.Drawing{drawing}, []domain.Reservation{settled})
		store.sales = append(store.sales, &domain.Sale{
			ID:            "sale-1",
			DrawingID:     "drawing-1",
			ReservationID: "res-1",
			ClaimantID:    "claimant-x",
			Elements:      []string{"2"},
		})

		_, err := svc.CreateReservation(context.Background(), CreateReservationInput{
			DrawingID:  "drawing-1",
			ClaimantID: "claimant-y",
			Elements:   []string{"2"},
		})
		var unavailable *domain.ElementsUnavailableError
		if !errors.As(err, &unavailable) {
			t.Fatalf("expected ElementsUnavailableError, got %v", err)
		}
	})

	t.Run("rejects element outside the catalog", func(t *testing.T) {
		svc, _ := makeSvc([]domain.Drawing{drawing}, nil)

		_, err := svc.CreateReservation(context.Background(), CreateReservationInput{
			DrawingID:  "drawing-1",
			ClaimantID: "claimant-x",
			Elements:   []string{"1", "9"},
		})
		if !errors.Is(err, domain.ErrElementNotInCatalog) {
			t.Fatalf("expected ErrElementNotInCatalog, got %v", err)
		}
	})

	t.Run("rejects closed drawing", func(t *testing.T) {
		closed := drawing
		closed.Status = domain.DrawingStatusClosed
		svc, _ := makeSvc([]domain.Drawing{closed}, nil)

		_, err := svc.CreateReservation(context.Background(), CreateReservationInput{
			DrawingID:  "drawing-1",
			ClaimantID: "claimant-x",
			Elements:   []string{"1"},
		})
		if !errors.Is(err, domain.ErrDrawingClosed) {
			t.Fatalf("expected ErrDrawingClosed, got %v", err)
		}
	})

	t.Run("rejects empty and duplicated element sets", func(t *testing.T) {
		svc, _ := makeSvc([]domain.Drawing{drawing}, nil)

		if _, err := svc.CreateReservation(context.Background(), CreateReservationInput{
			DrawingID: "drawing-1", ClaimantID: "claimant-x",
		}); !errors.Is(err, domain.ErrElementsRequired) {
			t.Fatalf("expected ErrElementsRequired, got %v", err)
		}
		if _, err := svc.CreateReservation(context.Background(), CreateReservationInput{
			DrawingID: "drawing-1", ClaimantID: "claimant-x", Elements: []string{"1", "1"},
		}); !errors.Is(err, domain.ErrDuplicateElements) {
			t.Fatalf("expected ErrDuplicateElements, got %v", err)
		}
	})
}

func TestReservationService_Release(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	drawing := domain.Drawing{
		ID: "drawing-1", OrganizerID: "org-1", Status: domain.DrawingStatusActive,
		Elements: []string{"1", "2"},
	}

	t.Run("releases an active hold", func(t *testing.T) {
		active := domain.Reservation{
			ID: "res-1", DrawingID: "drawing-1", ClaimantID: "claimant-x",
			Elements: []string{"1"}, Status: domain.ReservationStatusActive,
			ExpiresAt: now.Add(time.Minute),
		}
		store := newFakeStore([]domain.Drawing{drawing}, []domain.Reservation{active})
		svc := NewReservationService(store, clock.NewFixed(now))

		if err := svc.Release(context.Background(), "res-1", "superseded"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := store.reservations["res-1"].ReleaseReason; got != "superseded" {
			t.Fatalf("expected reason recorded, got %q", got)
		}
	})

	t.Run("is a no-op on released and settled holds", func(t *testing.T) {
		done := domain.Reservation{
			ID: "res-1", DrawingID: "drawing-1", ClaimantID: "claimant-x",
			Elements: []string{"1"}, Status: domain.ReservationStatusSettled,
			ExpiresAt: now.Add(time.Minute),
		}
		store := newFakeStore([]domain.Drawing{drawing}, []domain.Reservation{done})
		svc := NewReservationService(store, clock.NewFixed(now))

		if err := svc.Release(context.Background(), "res-1", "expired"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := store.reservations["res-1"].Status; got != domain.ReservationStatusSettled {
			t.Fatalf("expected settled hold untouched, got %s", got)
		}
	})

	t.Run("unknown reservation is an error", func(t *testing.T) {
		store := newFakeStore([]domain.Drawing{drawing}, nil)
		svc := NewReservationService(store, clock.NewFixed(now))

		if err := svc.Release(context.Background(), "missing", "expired"); !errors.Is(err, domain.ErrReservationNotFound) {
			t.Fatalf("expected ErrReservationNotFound, got %v", err)
		}
	})
}
