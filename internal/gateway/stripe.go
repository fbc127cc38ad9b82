package gateway

import (
	"context"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/internal/backend"
)

type StripeSessions interface {
	CreateStripeCheckout(ctx context.Context, req backend.StripeCheckoutRequest) (string, error)
}

// StripeStrategy redirects the buyer to a hosted checkout page. Confirmation happens later,
// when the buyer returns and the session is verified.
type StripeStrategy struct {
	drafts   DraftWriter
	sessions StripeSessions
}

func NewStripeStrategy(drafts DraftWriter, sessions StripeSessions) *StripeStrategy {
	return &StripeStrategy{drafts: drafts, sessions: sessions}
}

func (s *StripeStrategy) Method() domain.PaymentMethod {
	return domain.PaymentMethodStripe
}

func (s *StripeStrategy) Dispatch(ctx context.Context, req Request) (*Result, error) {
	ids, err := createDrafts(ctx, s.drafts, req, domain.PaymentMethodStripe, false)
	if err != nil {
		return nil, err
	}

	items := make([]backend.StripeLineItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = backend.StripeLineItem{PackageID: item.PackageID, Title: item.Title, Amount: item.Price}
	}
	url, err := s.sessions.CreateStripeCheckout(ctx, backend.StripeCheckoutRequest{
		OrganizerID:   req.OrganizerID(),
		Items:         items,
		CustomerEmail: req.Sponsor.Email,
		SuccessURL:    req.SuccessURL,
		CancelURL:     req.CancelURL,
		Metadata: map[string]string{
			"sponsorshipIds":    joinIDs(ids),
			"checkoutSessionId": req.CheckoutSessionID,
		},
		CoverFees: req.Breakdown.CoverFees,
	})
	if err != nil {
		s.drafts.CleanupDrafts(ctx, ids)
		return nil, classify(domain.PaymentMethodStripe, "could not start checkout session", err)
	}

	// Drafts stay pending after the redirect; an abandoned session is never cleaned up here.
	return &Result{
		Success:        true,
		Method:         domain.PaymentMethodStripe,
		RedirectURL:    url,
		SponsorshipIDs: ids,
	}, nil
}
