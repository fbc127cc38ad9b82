package gateway

import (
	"context"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
)

// CheckStrategy records a pledge to mail a check. No money moves and the drafts stay pending
// until the organizer reconciles them.
type CheckStrategy struct {
	drafts DraftWriter
}

func NewCheckStrategy(drafts DraftWriter) *CheckStrategy {
	return &CheckStrategy{drafts: drafts}
}

func (s *CheckStrategy) Method() domain.PaymentMethod {
	return domain.PaymentMethodCheck
}

func (s *CheckStrategy) Dispatch(ctx context.Context, req Request) (*Result, error) {
	if req.Organizer == nil || !req.Organizer.CheckSettings.Enabled {
		return nil, ErrGatewayDisabled
	}
	ids, err := createDrafts(ctx, s.drafts, req, domain.PaymentMethodCheck, false)
	if err != nil {
		return nil, err
	}
	instructions := req.Organizer.CheckSettings
	return &Result{
		Success:        true,
		Method:         domain.PaymentMethodCheck,
		SponsorshipIDs: ids,
		Check:          &instructions,
	}, nil
}
