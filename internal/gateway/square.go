package gateway

import (
	"context"
	"strings"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/internal/backend"
	"github.com/fjod/go_cart/sponsor-checkout/pkg/logger"
)

type SquarePayments interface {
	ProcessSquarePayment(ctx context.Context, req backend.SquarePaymentRequest) (*backend.SquarePaymentResult, error)
}

// SquareStrategy charges a card nonce synchronously.
type SquareStrategy struct {
	drafts   DraftWriter
	payments SquarePayments
}

func NewSquareStrategy(drafts DraftWriter, payments SquarePayments) *SquareStrategy {
	return &SquareStrategy{drafts: drafts, payments: payments}
}

func (s *SquareStrategy) Method() domain.PaymentMethod {
	return domain.PaymentMethodSquare
}

func (s *SquareStrategy) Dispatch(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.SourceID) == "" {
		return nil, &domain.ValidationError{Field: "sourceId", Message: "card details are required"}
	}
	ids, err := createDrafts(ctx, s.drafts, req, domain.PaymentMethodSquare, false)
	if err != nil {
		return nil, err
	}

	payment, err := s.payments.ProcessSquarePayment(ctx, backend.SquarePaymentRequest{
		SourceID:       req.SourceID,
		Amount:         req.Breakdown.Total,
		OrganizerID:    req.OrganizerID(),
		SponsorshipIDs: ids,
		PayerEmail:     req.Sponsor.Email,
		CoverFees:      req.Breakdown.CoverFees,
	})
	if err != nil {
		s.drafts.CleanupDrafts(ctx, ids)
		return nil, classify(domain.PaymentMethodSquare, "card was declined", err)
	}

	// The card is charged at this point; a failed status update must not undo the purchase.
	if err := s.drafts.MarkPaid(ctx, ids, payment.PaymentID); err != nil {
		logger.Printf(ctx, "square payment %s captured but marking drafts paid failed: %v", payment.PaymentID, err)
	}
	return &Result{
		Success:        true,
		Method:         domain.PaymentMethodSquare,
		SponsorshipIDs: ids,
		PaymentID:      payment.PaymentID,
	}, nil
}
