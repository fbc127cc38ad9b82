// Package gateway holds one Strategy per payment processor. Every strategy creates the
// sponsorship drafts before it touches the processor and deletes them again if the attempt
// fails before confirmation.
package gateway

import (
	"context"
	"errors"
	"strings"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/internal/backend"
	"github.com/fjod/go_cart/sponsor-checkout/internal/drafts"
	"github.com/fjod/go_cart/sponsor-checkout/internal/fees"
)

// Request is everything a strategy needs for one checkout attempt.
type Request struct {
	CheckoutSessionID string
	Auth              *domain.AuthContext
	Organizer         *domain.OrganizerProfile
	Items             []domain.CartItem
	Sponsor           domain.SponsorInfo
	Policy            domain.FeePolicy
	Breakdown         domain.FeeBreakdown
	// SourceID is the Square card nonce obtained by the browser.
	SourceID   string
	SuccessURL string
	CancelURL  string
}

func (r Request) OrganizerID() string {
	if r.Organizer != nil && r.Organizer.ID != "" {
		return r.Organizer.ID
	}
	if len(r.Items) > 0 {
		return r.Items[0].OrganizerID
	}
	return ""
}

type Result struct {
	Success        bool                  `json:"success"`
	Method         domain.PaymentMethod  `json:"paymentMethod"`
	RedirectURL    string                `json:"redirectUrl,omitempty"`
	SponsorshipIDs []string              `json:"sponsorshipIds"`
	PaymentID      string                `json:"paymentId,omitempty"`
	Check          *domain.CheckSettings `json:"check,omitempty"`
	IsTest         bool                  `json:"isTest,omitempty"`
}

// Redirected reports whether the attempt continues on the processor's hosted page.
func (r *Result) Redirected() bool {
	return r != nil && r.RedirectURL != ""
}

type Strategy interface {
	Method() domain.PaymentMethod
	Dispatch(ctx context.Context, req Request) (*Result, error)
}

type DraftWriter interface {
	CreateDrafts(ctx context.Context, auth *domain.AuthContext, items []domain.CartItem, sponsor domain.SponsorInfo, opts drafts.Options) ([]string, error)
	CleanupDrafts(ctx context.Context, ids []string)
	MarkPaid(ctx context.Context, ids []string, paymentID string) error
}

func createDrafts(ctx context.Context, w DraftWriter, req Request, method domain.PaymentMethod, isTest bool) ([]string, error) {
	isCheck := method == domain.PaymentMethodCheck
	ids, err := w.CreateDrafts(ctx, req.Auth, req.Items, req.Sponsor, drafts.Options{
		PaymentMethod: method,
		Amounts:       fees.AllocateItemAmounts(req.Items, req.Policy, req.Breakdown.CoverFees, isCheck),
		IsTest:        isTest,
	})
	if err != nil {
		return nil, classify(method, "could not create sponsorship records", err)
	}
	return ids, nil
}

// classify turns a collaborator error into one of the buyer-facing error kinds.
func classify(method domain.PaymentMethod, reason string, err error) error {
	var vErr *domain.ValidationError
	var netErr *domain.NetworkError
	var gErr *domain.GatewayError
	if errors.As(err, &vErr) || errors.As(err, &netErr) || errors.As(err, &gErr) {
		return err
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		reason = apiErr.Message
	}
	return &domain.GatewayError{Gateway: method, Reason: reason, Err: err}
}

func joinIDs(ids []string) string {
	return strings.Join(ids, ",")
}
