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

// Settler is the settlement surface shared by every trigger path: payment
// provider callback, client confirmation and organizer validation.
type Settler interface {
	Settle(ctx context.Context, reservationID string) (app.SettleResult, error)
	SettleAsOrganizer(ctx context.Context, organizerID, reservationID string) (app.SettleResult, error)
	Reject(ctx context.Context, organizerID, reservationID, reason string) error
	DirectSale(ctx context.Context, in app.DirectSaleInput) (app.SettleResult, error)
}

// HandleConfirmReservation is the client-confirmed settlement path: the
// buyer's client calls it after the provider reports payment.
func HandleConfirmReservation(svc Settler, drawings DrawingNamer, notifier notify.Notifier, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Settle(r.Context(), chi.URLParam(r, "reservationID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		finishSettle(w, r, res, drawings, notifier, logger)
	}
}

// HandlePaymentCallback is the asynchronous provider path. The provider
// retries on non-2xx, so an already-settled reservation answers 200.
func HandlePaymentCallback(svc Settler, drawings DrawingNamer, notifier notify.Notifier, logger *log.Logger) http.HandlerFunc {
	if logger == nil {
		logger = log.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req paymentCallbackRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.ReservationID == "" {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "reservation_id is required")
			return
		}

		logger.Printf("payment callback reservation=%s ref=%s", req.ReservationID, req.PaymentRef)

		res, err := svc.Settle(r.Context(), req.ReservationID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		finishSettle(w, r, res, drawings, notifier, logger)
	}
}

// HandleValidateReservation is the organizer's manual settlement path.
func HandleValidateReservation(svc Settler, drawings DrawingNamer, notifier notify.Notifier, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.SettleAsOrganizer(r.Context(), organizerID(r.Context()), chi.URLParam(r, "reservationID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		finishSettle(w, r, res, drawings, notifier, logger)
	}
}

// HandleRejectReservation releases a hold the organizer does not accept.
// Rejecting twice fails with reservation_already_released; rejecting a
// settled hold fails with reservation_already_settled.
func HandleRejectReservation(svc Settler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rejectRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		err := svc.Reject(r.Context(), organizerID(r.Context()), chi.URLParam(r, "reservationID"), req.Reason)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleDirectSale sells elements with no prior hold, e.g. in-person sales.
func HandleDirectSale(svc Settler, claimants ClaimantResolver, drawings DrawingNamer, notifier notify.Notifier, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req directSaleRequest
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

		name := req.Claimant.Name
		if name == "" {
			name = "walk-in buyer"
		}
		claimant, err := claimants.Resolve(r.Context(), name, req.Claimant.Contact)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		res, err := svc.DirectSale(r.Context(), app.DirectSaleInput{
			DrawingID:   chi.URLParam(r, "drawingID"),
			OrganizerID: organizerID(r.Context()),
			ClaimantID:  claimant.ID,
			Elements:    req.Elements,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		finishSettle(w, r, res, drawings, notifier, logger)
	}
}

func finishSettle(w http.ResponseWriter, r *http.Request, res app.SettleResult, drawings DrawingNamer, notifier notify.Notifier, logger *log.Logger) {
	if logger == nil {
		logger = log.Default()
	}
	// Notify only on the settle that actually created the sale; repeats
	// would spam the organizer.
	if res.Created && notifier != nil {
		name := res.Sale.DrawingID
		if d, err := drawings.GetDrawing(r.Context(), res.Sale.DrawingID); err == nil {
			name = d.Name
		}
		if err := notifier.SaleSettled(name, res.Sale.ClaimantID, res.Sale.Elements); err != nil {
			logger.Printf("WARN sale notification failed: %v", err)
		}
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, saleResponse{
		ID:            res.Sale.ID,
		DrawingID:     res.Sale.DrawingID,
		ReservationID: res.Sale.ReservationID,
		ClaimantID:    res.Sale.ClaimantID,
		Elements:      res.Sale.Elements,
		SettledAt:     res.Sale.SettledAt,
	})
}

type paymentCallbackRequest struct {
	ReservationID string `json:"reservation_id"`
	PaymentRef    string `json:"payment_ref,omitempty"`
}

type rejectRequest struct {
	Reason string `json:"reason,omitempty"`
}

type directSaleRequest struct {
	Elements []string        `json:"elements"`
	Claimant claimantRequest `json:"claimant"`
}

type saleResponse struct {
	ID            string    `json:"id"`
	DrawingID     string    `json:"drawing_id"`
	ReservationID string    `json:"reservation_id"`
	ClaimantID    string    `json:"claimant_id"`
	Elements      []string  `json:"elements"`
	SettledAt     time.Time `json:"settled_at"`
}
