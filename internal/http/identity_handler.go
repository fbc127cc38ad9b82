package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/internal/identity"
)

type SponsorIdentity interface {
	LookupReturningSponsor(ctx context.Context, email string) (*domain.ReturningSponsorLookup, error)
	PostPaymentAccountFlow(ctx context.Context, req identity.AccountRequest) (*identity.AccountResult, error)
}

type GuestSessionReader interface {
	Get(ctx context.Context, clientID string) (*domain.GuestSession, error)
}

type IdentityHandler struct {
	identity  SponsorIdentity
	sessions  GuestSessionReader
	jwtSecret []byte
	tokenTTL  time.Duration
	timeout   time.Duration
}

func NewIdentityHandler(
	sponsors SponsorIdentity,
	sessions GuestSessionReader,
	jwtSecret []byte,
	tokenTTL time.Duration,
	timeout time.Duration) *IdentityHandler {

	return &IdentityHandler{
		identity:  sponsors,
		sessions:  sessions,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		timeout:   timeout,
	}
}

type AccountRequestDTO struct {
	Mode     identity.AccountMode `json:"mode"`
	Email    string               `json:"email"`
	Password string               `json:"password"`
	Name     string               `json:"name"`
}

type AccountResponseDTO struct {
	identity.AccountResult
	Token string `json:"token,omitempty"`
}

func (h *IdentityHandler) LookupSponsor(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lookup, err := h.identity.LookupReturningSponsor(ctx, r.URL.Query().Get("email"))
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, lookup)
}

func (h *IdentityHandler) GetGuestSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	clientID := getClientIDFromContext(r.Context())
	if clientID == "" {
		respondError(w, http.StatusBadRequest, "missing_client_id", ClientIDHeader+" header is required")
		return
	}

	guest, err := h.sessions.Get(ctx, clientID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if guest == nil {
		respondError(w, http.StatusNotFound, "not_found", "no active guest session")
		return
	}

	respondJSON(w, http.StatusOK, guest)
}

// CreateAccount runs the post-payment account flow for a guest and, when token signing is
// configured, returns an access token for the new session.
func (h *IdentityHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AccountRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.identity.PostPaymentAccountFlow(ctx, identity.AccountRequest{
		ClientID: getClientIDFromContext(r.Context()),
		Mode:     req.Mode,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}

	out := AccountResponseDTO{AccountResult: *res}
	if len(h.jwtSecret) > 0 {
		token, err := SignToken(res.Auth, h.jwtSecret, h.tokenTTL)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to issue token")
			return
		}
		out.Token = token
	}

	respondJSON(w, http.StatusOK, out)
}
