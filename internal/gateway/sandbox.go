package gateway

import (
	"context"
	"time"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/pkg/logger"
	"github.com/google/uuid"
)

const DefaultSandboxDelay = 1500 * time.Millisecond

// SandboxStrategy simulates a processor for demos: it waits, then always succeeds. Its drafts
// are flagged as test records.
type SandboxStrategy struct {
	drafts DraftWriter
	delay  time.Duration
}

func NewSandboxStrategy(drafts DraftWriter, delay time.Duration) *SandboxStrategy {
	return &SandboxStrategy{drafts: drafts, delay: delay}
}

func (s *SandboxStrategy) Method() domain.PaymentMethod {
	return domain.PaymentMethodSandbox
}

func (s *SandboxStrategy) Dispatch(ctx context.Context, req Request) (*Result, error) {
	ids, err := createDrafts(ctx, s.drafts, req, domain.PaymentMethodSandbox, true)
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		s.drafts.CleanupDrafts(ctx, ids)
		return nil, &domain.GatewayError{Gateway: domain.PaymentMethodSandbox, Reason: "simulated payment interrupted", Err: ctx.Err()}
	case <-timer.C:
	}

	paymentID := "sandbox_" + uuid.NewString()
	if err := s.drafts.MarkPaid(ctx, ids, paymentID); err != nil {
		logger.Printf(ctx, "sandbox payment %s: marking drafts paid failed: %v", paymentID, err)
	}
	return &Result{
		Success:        true,
		Method:         domain.PaymentMethodSandbox,
		SponsorshipIDs: ids,
		PaymentID:      paymentID,
		IsTest:         true,
	}, nil
}
