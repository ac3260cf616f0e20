package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	cartrepo "github.com/shafadisyaaulia/seasnacky-sub000/internal/cart/repository"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/catalog"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps service errors to HTTP statuses. It is the only
// place where that translation happens.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: verr.Error(), Code: "validation_error", Details: verr.Field})
	case errors.Is(err, domain.ErrValidation):
		respondError(w, r, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, domain.ErrMissingTrackingNumber):
		respondJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "missing_tracking_number", Details: "tracking_number"})
	case errors.Is(err, domain.ErrRegionNotFound):
		respondError(w, r, http.StatusUnprocessableEntity, "region_not_found", err.Error())
	case errors.Is(err, domain.ErrUnknownBuyer):
		respondError(w, r, http.StatusUnprocessableEntity, "unknown_buyer", err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		respondError(w, r, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, catalog.ErrProductNotFound):
		respondError(w, r, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, cartrepo.ErrItemNotFound), errors.Is(err, cartrepo.ErrCartNotFound):
		respondError(w, r, http.StatusNotFound, "cart_item_not_found", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		respondError(w, r, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrNotOwner):
		respondError(w, r, http.StatusForbidden, "not_owner", err.Error())
	case errors.Is(err, domain.ErrPaymentDeclined):
		respondError(w, r, http.StatusPaymentRequired, "payment_declined", err.Error())
	case errors.Is(err, domain.ErrStorageUnavailable):
		respondError(w, r, http.StatusServiceUnavailable, "storage_unavailable", "storage temporarily unavailable, retry later")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("unhandled service error")
		respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
