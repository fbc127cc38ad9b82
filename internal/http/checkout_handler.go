package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/internal/checkout"
	"github.com/fjod/go_cart/sponsor-checkout/internal/identity"
	"github.com/fjod/go_cart/sponsor-checkout/internal/verify"
	"github.com/fjod/go_cart/sponsor-checkout/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// maxBodySize caps request bodies at 1MB.
const maxBodySize = 1 << 20

type CheckoutService interface {
	Submit(ctx context.Context, req checkout.SubmitRequest) (*checkout.SubmitResult, error)
	PreviewFees(ctx context.Context, items []domain.CartItem, coverFees bool, choice domain.PaymentChoice) (*domain.FeeBreakdown, error)
	VerifyStripeReturn(ctx context.Context, clientID, sessionID string, auth *domain.AuthContext, email string) (*verify.StripeResult, bool, error)
	UpdateSessionEmail(sessionID, email string)
	SessionPrefill(sessionID string) (identity.LookupState, bool)
}

type CheckVerifier interface {
	VerifyCheckPledge(ctx context.Context, organizerID string) (*verify.CheckInstructions, error)
}

type CheckoutHandler struct {
	service CheckoutService
	checks  CheckVerifier
	timeout time.Duration
}

func NewCheckoutHandler(service CheckoutService, checks CheckVerifier, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		checks:  checks,
		timeout: timeout,
	}
}

type FeePreviewRequestDTO struct {
	Items         []domain.CartItem    `json:"items"`
	CoverFees     bool                 `json:"coverFees"`
	PaymentMethod domain.PaymentChoice `json:"paymentMethod"`
}

type StripeVerifyResponseDTO struct {
	verify.StripeResult
	GuestSession bool `json:"guestSession"`
}

type SessionEmailRequestDTO struct {
	Email string `json:"email"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

func (h *CheckoutHandler) PreviewFees(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req FeePreviewRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}

	breakdown, err := h.service.PreviewFees(ctx, req.Items, req.CoverFees, req.PaymentMethod)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, breakdown)
}

func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req checkout.SubmitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.ClientID = getClientIDFromContext(r.Context())
	req.Auth = getAuthFromContext(r.Context())

	res, err := h.service.Submit(ctx, req)
	if err != nil {
		logger.Printf(ctx, "request_id=%s checkout %s failed: %v", getRequestID(r.Context()), req.CheckoutSessionID, err)
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, res)
}

func (h *CheckoutHandler) VerifyStripe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session_id", "session_id query parameter is required")
		return
	}
	email := r.URL.Query().Get("email")

	res, saved, err := h.service.VerifyStripeReturn(ctx, getClientIDFromContext(r.Context()), sessionID, getAuthFromContext(r.Context()), email)
	if err != nil {
		logger.Printf(ctx, "request_id=%s stripe session %s verification failed: %v", getRequestID(r.Context()), sessionID, err)
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, StripeVerifyResponseDTO{StripeResult: *res, GuestSession: saved})
}

func (h *CheckoutHandler) CheckInstructions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	organizerID := chi.URLParam(r, "organizer_id")
	if organizerID == "" {
		respondError(w, http.StatusBadRequest, "invalid_organizer_id", "organizer_id is required")
		return
	}

	instructions, err := h.checks.VerifyCheckPledge(ctx, organizerID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, instructions)
}

// UpdateSessionEmail accepts the email field as the buyer types. The lookup runs after the
// debounce period, so the answer is read back through SessionPrefill.
func (h *CheckoutHandler) UpdateSessionEmail(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "session_id is required")
		return
	}

	var req SessionEmailRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}

	h.service.UpdateSessionEmail(sessionID, req.Email)
	w.WriteHeader(http.StatusAccepted)
}

func (h *CheckoutHandler) SessionPrefill(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	state, ok := h.service.SessionPrefill(sessionID)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "no email has been entered for this session")
		return
	}

	respondJSON(w, http.StatusOK, state)
}
