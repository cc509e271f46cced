package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jhleal91/rifas-app-sub000/internal/app"
	"github.com/jhleal91/rifas-app-sub000/internal/domain"
)

// DrawingService is the minimal interface for drawing endpoints.
type DrawingService interface {
	CreateDrawing(ctx context.Context, in app.CreateDrawingInput) (domain.Drawing, error)
	GetDrawing(ctx context.Context, id string) (domain.Drawing, error)
	ListDrawings(ctx context.Context, organizerID string) ([]domain.Drawing, error)
	CloseDrawing(ctx context.Context, organizerID, id string) error
}

// SnapshotService is the minimal interface for the public availability read.
type SnapshotService interface {
	Snapshot(ctx context.Context, drawingID string) (domain.Snapshot, error)
}

// HandleCreateDrawing creates a drawing with its immutable element catalog.
func HandleCreateDrawing(svc DrawingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createDrawingRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, codeDrawingNameRequired, domain.ErrDrawingNameRequired.Error())
			return
		}
		if len(req.Elements) == 0 && req.ElementCount <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidElementCount, "elements or a positive element_count is required")
			return
		}

		drawing, err := svc.CreateDrawing(r.Context(), app.CreateDrawingInput{
			OrganizerID:  organizerID(r.Context()),
			Name:         req.Name,
			Elements:     req.Elements,
			ElementCount: req.ElementCount,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toDrawingResponse(drawing))
	}
}

// HandleListDrawings lists the calling organizer's drawings.
func HandleListDrawings(svc DrawingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drawings, err := svc.ListDrawings(r.Context(), organizerID(r.Context()))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		resp := make([]drawingResponse, 0, len(drawings))
		for _, d := range drawings {
			resp = append(resp, toDrawingResponse(d))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleCloseDrawing moves a drawing to closed; no new holds or sales after.
func HandleCloseDrawing(svc DrawingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := svc.CloseDrawing(r.Context(), organizerID(r.Context()), chi.URLParam(r, "drawingID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleGetDrawing is the public drawing summary.
func HandleGetDrawing(svc DrawingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drawing, err := svc.GetDrawing(r.Context(), chi.URLParam(r, "drawingID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toDrawingResponse(drawing))
	}
}

// HandleSnapshot is the public availability listing. Expired-but-unswept
// holds appear as available so the UI never shows artificially taken
// elements.
func HandleSnapshot(svc SnapshotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := svc.Snapshot(r.Context(), chi.URLParam(r, "drawingID"))
		if err != nil {
			if errors.Is(err, domain.ErrInvalidID) || errors.Is(err, domain.ErrDrawingNotFound) {
				writeError(w, http.StatusNotFound, codeDrawingNotFound, domain.ErrDrawingNotFound.Error())
				return
			}
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snapshotResponse{
			Available: snap.Available,
			Reserved:  snap.Reserved,
			Sold:      snap.Sold,
		})
	}
}

type createDrawingRequest struct {
	Name         string   `json:"name"`
	Elements     []string `json:"elements,omitempty"`
	ElementCount int      `json:"element_count,omitempty"`
}

type drawingResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Elements  []string  `json:"elements"`
	CreatedAt time.Time `json:"created_at"`
}

func toDrawingResponse(d domain.Drawing) drawingResponse {
	elements := d.Elements
	if elements == nil {
		elements = []string{}
	}
	return drawingResponse{
		ID:        d.ID,
		Name:      d.Name,
		Status:    string(d.Status),
		Elements:  elements,
		CreatedAt: d.CreatedAt,
	}
}

type snapshotResponse struct {
	Available []string `json:"available"`
	Reserved  []string `json:"reserved"`
	Sold      []string `json:"sold"`
}
