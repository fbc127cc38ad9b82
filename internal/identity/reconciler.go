// Package identity decides who a purchase belongs to: returning sponsors, authenticated
// buyers, and guests who later claim an account.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/internal/backend"
	"github.com/fjod/go_cart/sponsor-checkout/pkg/logger"
)

// LookupDebounce is the quiet period after the last keystroke before a lookup goes out.
const LookupDebounce = 500 * time.Millisecond

type SponsorDirectory interface {
	LookupByEmail(ctx context.Context, email string) (*domain.ReturningSponsorLookup, error)
	LinkAccount(ctx context.Context, email, userID string) error
}

type Accounts interface {
	Register(ctx context.Context, req backend.RegisterRequest) (*domain.AuthContext, error)
	SignIn(ctx context.Context, email, password string) (*domain.AuthContext, error)
}

type GuestSessionStore interface {
	Get(ctx context.Context, clientID string) (*domain.GuestSession, error)
	Clear(ctx context.Context, clientID string) error
}

type Reconciler struct {
	directory SponsorDirectory
	accounts  Accounts
	sessions  GuestSessionStore
}

func NewReconciler(directory SponsorDirectory, accounts Accounts, sessions GuestSessionStore) *Reconciler {
	return &Reconciler{
		directory: directory,
		accounts:  accounts,
		sessions:  sessions,
	}
}

// LookupReturningSponsor finds prior purchases for email. Empty or malformed emails are
// answered "not found" without a network call.
func (r *Reconciler) LookupReturningSponsor(ctx context.Context, email string) (*domain.ReturningSponsorLookup, error) {
	email = strings.TrimSpace(email)
	if !IsValidEmail(email) {
		return domain.NotFoundLookup(), nil
	}
	lookup, err := r.directory.LookupByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, fmt.Errorf("failed to look up sponsor: %w", err)
	}
	return lookup, nil
}

type AccountMode string

const (
	AccountModeCreate AccountMode = "create"
	AccountModeSignIn AccountMode = "signin"
)

type AccountRequest struct {
	ClientID string
	Mode     AccountMode
	Email    string
	Password string
	Name     string
}

type AccountResult struct {
	Auth           *domain.AuthContext `json:"auth"`
	SponsorshipIDs []string            `json:"sponsorshipIds"`
}

// PostPaymentAccountFlow lets a guest create an account (or sign in when one already
// exists), links the email's sponsorships to it, and clears the guest session.
func (r *Reconciler) PostPaymentAccountFlow(ctx context.Context, req AccountRequest) (*AccountResult, error) {
	email := strings.TrimSpace(req.Email)
	if !IsValidEmail(email) {
		return nil, &domain.ValidationError{Field: "email", Message: "a valid email is required"}
	}
	if req.Password == "" {
		return nil, &domain.ValidationError{Field: "password", Message: "password is required"}
	}

	lookup, err := r.LookupReturningSponsor(ctx, email)
	if err != nil {
		return nil, err
	}

	var auth *domain.AuthContext
	switch req.Mode {
	case AccountModeCreate:
		if lookup.HasAccount {
			return nil, ErrAccountExists
		}
		auth, err = r.accounts.Register(ctx, backend.RegisterRequest{Email: email, Password: req.Password, Name: req.Name})
	case AccountModeSignIn:
		if !lookup.HasAccount {
			return nil, ErrNoAccount
		}
		auth, err = r.accounts.SignIn(ctx, email, req.Password)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
	}
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 401 {
			return nil, ErrInvalidCredential
		}
		if errors.As(err, &apiErr) && apiErr.StatusCode == 409 {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("account %s failed: %w", req.Mode, err)
	}

	ids, err := r.LinkGuestPurchases(ctx, req.ClientID, email, auth)
	if err != nil {
		return nil, err
	}
	return &AccountResult{Auth: auth, SponsorshipIDs: ids}, nil
}

// LinkGuestPurchases attaches the email's sponsorships to auth. Linking is idempotent on the
// backend, so running it again for already-linked purchases succeeds.
func (r *Reconciler) LinkGuestPurchases(ctx context.Context, clientID, email string, auth *domain.AuthContext) ([]string, error) {
	if !auth.IsAuthenticated() {
		return nil, errors.New("linking requires an authenticated account")
	}
	if err := r.directory.LinkAccount(ctx, strings.ToLower(email), auth.UserID); err != nil {
		return nil, fmt.Errorf("failed to link sponsorships: %w", err)
	}

	ids := []string{}
	if clientID == "" {
		return ids, nil
	}
	guest, err := r.sessions.Get(ctx, clientID)
	if err != nil {
		logger.Printf(ctx, "read guest session for client %s failed: %v", clientID, err)
	}
	if guest != nil {
		ids = guest.SponsorshipIDs
	}
	if err := r.sessions.Clear(ctx, clientID); err != nil {
		logger.Printf(ctx, "clear guest session for client %s failed: %v", clientID, err)
	}
	return ids, nil
}
