package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jhleal91/rifas-app-sub000/internal/domain"
)

const (
	codeNotFound                   = "not_found"
	codeInvalidRequestBody         = "invalid_request_body"
	codeInvalidID                  = "invalid_id"
	codeDrawingNameRequired        = "drawing_name_required"
	codeInvalidElementCount        = "invalid_element_count"
	codeElementsRequired           = "elements_required"
	codeDuplicateElements          = "duplicate_elements"
	codeElementNotInCatalog        = "element_not_in_catalog"
	codeClaimantNameRequired       = "claimant_name_required"
	codeDrawingNotFound            = "drawing_not_found"
	codeDrawingClosed              = "drawing_closed"
	codeElementsUnavailable        = "elements_unavailable"
	codeReservationNotFound        = "reservation_not_found"
	codeReservationAlreadySettled  = "reservation_already_settled"
	codeReservationAlreadyReleased = "reservation_already_released"
	codeSettlementConflict         = "settlement_conflict"
	codeUnauthorized               = "unauthorized"
	codeOrganizerIdentityRequired  = "organizer_identity_required"
	codeRateLimited                = "rate_limited"
	codeForbidden                  = "forbidden"
	codeInternalError              = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	// Elements carries the offending ids for unavailability and
	// settlement conflicts.
	Elements []string `json:"elements,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorElements(w, status, code, msg, nil)
}

func writeErrorElements(w http.ResponseWriter, status int, code, msg string, elements []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error:    msg,
		Code:     code,
		Elements: elements,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps engine errors shared by several handlers; handlers
// cover their route-specific cases before falling through to this.
func writeDomainError(w http.ResponseWriter, err error) {
	var unavailable *domain.ElementsUnavailableError
	var conflict *domain.SettlementConflictError

	switch {
	case errors.As(err, &unavailable):
		writeErrorElements(w, http.StatusConflict, codeElementsUnavailable, err.Error(), unavailable.IDs)
	case errors.As(err, &conflict):
		writeErrorElements(w, http.StatusConflict, codeSettlementConflict, err.Error(), conflict.IDs)
	case errors.Is(err, domain.ErrDrawingNotFound):
		writeError(w, http.StatusNotFound, codeDrawingNotFound, err.Error())
	case errors.Is(err, domain.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, codeReservationNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusNotFound, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrDrawingClosed):
		writeError(w, http.StatusConflict, codeDrawingClosed, err.Error())
	case errors.Is(err, domain.ErrElementNotInCatalog):
		writeError(w, http.StatusBadRequest, codeElementNotInCatalog, err.Error())
	case errors.Is(err, domain.ErrElementsRequired):
		writeError(w, http.StatusBadRequest, codeElementsRequired, err.Error())
	case errors.Is(err, domain.ErrDuplicateElements):
		writeError(w, http.StatusBadRequest, codeDuplicateElements, err.Error())
	case errors.Is(err, domain.ErrClaimantNameRequired):
		writeError(w, http.StatusBadRequest, codeClaimantNameRequired, err.Error())
	case errors.Is(err, domain.ErrReservationAlreadySettled):
		writeError(w, http.StatusConflict, codeReservationAlreadySettled, err.Error())
	case errors.Is(err, domain.ErrReservationAlreadyReleased):
		writeError(w, http.StatusConflict, codeReservationAlreadyReleased, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusForbidden, codeUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
