package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jhleal91/rifas-app-sub000/internal/app"
	"github.com/jhleal91/rifas-app-sub000/internal/domain"
	"github.com/jhleal91/rifas-app-sub000/internal/notify"
)

// ReservationCreator is the minimal interface needed to create a hold.
type ReservationCreator interface {
	CreateReservation(ctx context.Context, in app.CreateReservationInput) (domain.Reservation, error)
}

// ClaimantResolver maps buyer info to a stable claimant.
type ClaimantResolver interface {
	Resolve(ctx context.Context, name, contact string) (domain.Claimant, error)
}

// DrawingNamer supplies the drawing name for notifications.
type DrawingNamer interface {
	GetDrawing(ctx context.Context, id string) (domain.Drawing, error)
}

// HandleCreateReservation places a time-boxed hold on a set of elements.
func HandleCreateReservation(reservations ReservationCreator, claimants ClaimantResolver, drawings DrawingNamer, notifier notify.Notifier, logger *log.Logger) http.HandlerFunc {
	if logger == nil {
		logger = log.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		drawingID := chi.URLParam(r, "drawingID")

		var req createReservationRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if len(req.Elements) == 0 {
			writeError(w, http.StatusBadRequest, codeElementsRequired, domain.ErrElementsRequired.Error())
			return
		}
		if req.Claimant.Name == "" {
			writeError(w, http.StatusBadRequest, codeClaimantNameRequired, domain.ErrClaimantNameRequired.Error())
			return
		}

		claimant, err := claimants.Resolve(r.Context(), req.Claimant.Name, req.Claimant.Contact)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		res, err := reservations.CreateReservation(r.Context(), app.CreateReservationInput{
			DrawingID:  drawingID,
			ClaimantID: claimant.ID,
			Elements:   req.Elements,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		notifyReservation(r.Context(), drawings, notifier, logger, res, claimant.Name)

		writeJSON(w, http.StatusCreated, reservationResponse{
			ID:         res.ID,
			DrawingID:  res.DrawingID,
			ClaimantID: res.ClaimantID,
			Elements:   res.Elements,
			Status:     string(res.Status),
			ExpiresAt:  res.ExpiresAt,
		})
	}
}

// notifyReservation is fire and forget; a delivery failure never affects
// the committed hold.
func notifyReservation(ctx context.Context, drawings DrawingNamer, notifier notify.Notifier, logger *log.Logger, res domain.Reservation, claimantName string) {
	if notifier == nil {
		return
	}
	name := res.DrawingID
	if d, err := drawings.GetDrawing(ctx, res.DrawingID); err == nil {
		name = d.Name
	}
	if err := notifier.ReservationCreated(name, claimantName, res.Elements); err != nil {
		logger.Printf("WARN reservation notification failed: %v", err)
	}
}

type createReservationRequest struct {
	Elements []string        `json:"elements"`
	Claimant claimantRequest `json:"claimant"`
}

type claimantRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
}

type reservationResponse struct {
	ID         string    `json:"id"`
	DrawingID  string    `json:"drawing_id"`
	ClaimantID string    `json:"claimant_id"`
	Elements   []string  `json:"elements"`
	Status     string    `json:"status"`
	ExpiresAt  time.Time `json:"expires_at"`
}
