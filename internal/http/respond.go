package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/internal/backend"
	"github.com/fjod/go_cart/sponsor-checkout/internal/checkout"
	"github.com/fjod/go_cart/sponsor-checkout/internal/gateway"
	"github.com/fjod/go_cart/sponsor-checkout/internal/identity"
	"github.com/fjod/go_cart/sponsor-checkout/internal/verify"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleDomainError maps service errors onto HTTP status codes.
func handleDomainError(w http.ResponseWriter, err error) {
	var (
		validationErr *domain.ValidationError
		gatewayErr    *domain.GatewayError
		networkErr    *domain.NetworkError
		reconcileErr  *domain.ReconciliationError
	)

	switch {
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: validationErr.Message, Code: "invalid_argument", Details: validationErr.Field})
	case errors.Is(err, checkout.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, checkout.ErrMixedOrganizers):
		respondError(w, http.StatusBadRequest, "mixed_organizers", err.Error())
	case errors.Is(err, gateway.ErrGatewayDisabled):
		respondError(w, http.StatusBadRequest, "payment_method_unavailable", err.Error())
	case errors.Is(err, gateway.ErrUnknownChoice), errors.Is(err, identity.ErrUnknownMode):
		respondError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, verify.ErrMissingSessionID):
		respondError(w, http.StatusBadRequest, "missing_session_id", err.Error())
	case errors.Is(err, checkout.ErrCheckoutInFlight):
		respondError(w, http.StatusConflict, "checkout_in_progress", err.Error())
	case errors.Is(err, identity.ErrAccountExists):
		respondError(w, http.StatusConflict, "account_exists", err.Error())
	case errors.Is(err, identity.ErrNoAccount):
		respondError(w, http.StatusNotFound, "no_account", err.Error())
	case errors.Is(err, identity.ErrInvalidCredential):
		respondError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, verify.ErrChecksNotAccepted):
		respondError(w, http.StatusUnprocessableEntity, "checks_not_accepted", err.Error())
	case errors.As(err, &reconcileErr):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "payment could not be verified, please contact support",
			Code:    "reconciliation_failed",
			Details: reconcileErr.Reason,
		})
	case errors.As(err, &gatewayErr):
		respondJSON(w, http.StatusPaymentRequired, ErrorResponse{Error: gatewayErr.Error(), Code: "payment_failed", Details: gatewayErr.Reason})
	case errors.As(err, &networkErr):
		respondError(w, http.StatusBadGateway, "network_error", networkErr.Error())
	case errors.Is(err, backend.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		log.Printf("unhandled error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
