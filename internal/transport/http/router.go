package http

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jhleal91/rifas-app-sub000/internal/notify"
	"github.com/jhleal91/rifas-app-sub000/internal/ratelimit"
)

// RouterConfig wires the service layer into the HTTP surface.
type RouterConfig struct {
	Drawings     DrawingService
	Inventory    SnapshotService
	Reservations ReservationCreator
	Claimants    ClaimantResolver
	Settlement   Settler
	Notifier     notify.Notifier
	Limiter      *ratelimit.Limiter
	CORSOrigins  []string
	Logger       *log.Logger
}

// NewRouter builds the full route table.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(CORS(cfg.CORSOrigins))
	r.NotFound(NotFoundHandler())

	r.Get("/healthz", HealthHandler)

	// Public reads and buyer flows.
	r.Get("/drawings/{drawingID}", HandleGetDrawing(cfg.Drawings))
	r.Get("/drawings/{drawingID}/elements", HandleSnapshot(cfg.Inventory))
	r.With(RateLimit(cfg.Limiter)).
		Post("/drawings/{drawingID}/reservations", HandleCreateReservation(cfg.Reservations, cfg.Claimants, cfg.Drawings, cfg.Notifier, cfg.Logger))
	r.Post("/reservations/{reservationID}/confirm", HandleConfirmReservation(cfg.Settlement, cfg.Drawings, cfg.Notifier, cfg.Logger))
	r.Post("/payments/callback", HandlePaymentCallback(cfg.Settlement, cfg.Drawings, cfg.Notifier, cfg.Logger))

	// Organizer-only operations.
	r.Route("/admin", func(r chi.Router) {
		r.Use(RequireOrganizer)
		r.Post("/drawings", HandleCreateDrawing(cfg.Drawings))
		r.Get("/drawings", HandleListDrawings(cfg.Drawings))
		r.Post("/drawings/{drawingID}/close", HandleCloseDrawing(cfg.Drawings))
		r.Post("/drawings/{drawingID}/sales", HandleDirectSale(cfg.Settlement, cfg.Claimants, cfg.Drawings, cfg.Notifier, cfg.Logger))
		r.Post("/drawings/{drawingID}/reservations/{reservationID}/validate", HandleValidateReservation(cfg.Settlement, cfg.Drawings, cfg.Notifier, cfg.Logger))
		r.Post("/drawings/{drawingID}/reservations/{reservationID}/reject", HandleRejectReservation(cfg.Settlement))
	})

	return r
}
