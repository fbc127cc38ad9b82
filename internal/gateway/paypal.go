package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/pkg/logger"
)

type PayPalOrders interface {
	CreateOrder(ctx context.Context, order PayPalOrderRequest) (*PayPalOrder, error)
	CaptureOrder(ctx context.Context, orderID string) (*PayPalCapture, error)
}

// PayPalStrategy creates an order carrying the draft ids and captures it in the same attempt.
type PayPalStrategy struct {
	drafts DraftWriter
	orders PayPalOrders
}

func NewPayPalStrategy(drafts DraftWriter, orders PayPalOrders) *PayPalStrategy {
	return &PayPalStrategy{drafts: drafts, orders: orders}
}

func (s *PayPalStrategy) Method() domain.PaymentMethod {
	return domain.PaymentMethodPayPal
}

func (s *PayPalStrategy) Dispatch(ctx context.Context, req Request) (*Result, error) {
	ids, err := createDrafts(ctx, s.drafts, req, domain.PaymentMethodPayPal, false)
	if err != nil {
		return nil, err
	}

	capture, err := s.createAndCapture(ctx, req, ids)
	if err != nil {
		s.drafts.CleanupDrafts(ctx, ids)
		return nil, err
	}

	paymentID := capture.CaptureID
	if paymentID == "" {
		paymentID = capture.OrderID
	}
	if err := s.drafts.MarkPaid(ctx, ids, paymentID); err != nil {
		logger.Printf(ctx, "paypal capture %s completed but marking drafts paid failed: %v", paymentID, err)
	}
	return &Result{
		Success:        true,
		Method:         domain.PaymentMethodPayPal,
		SponsorshipIDs: ids,
		PaymentID:      paymentID,
	}, nil
}

func (s *PayPalStrategy) createAndCapture(ctx context.Context, req Request, ids []string) (*PayPalCapture, error) {
	order, err := s.orders.CreateOrder(ctx, PayPalOrderRequest{
		ReferenceID: req.CheckoutSessionID,
		CustomID:    joinIDs(ids),
		Description: fmt.Sprintf("%d sponsorship package(s)", len(ids)),
		Amount:      req.Breakdown.Total,
	})
	if err != nil {
		return nil, payPalFailure("could not create order", err)
	}

	capture, err := s.orders.CaptureOrder(ctx, order.ID)
	if err != nil {
		return nil, payPalFailure("could not capture order", err)
	}
	if capture.Status != payPalStatusCompleted {
		return nil, &domain.GatewayError{
			Gateway: domain.PaymentMethodPayPal,
			Reason:  fmt.Sprintf("capture of order %s ended in status %s", order.ID, capture.Status),
		}
	}
	return capture, nil
}

func payPalFailure(reason string, err error) error {
	var ppErr *PayPalError
	if errors.As(err, &ppErr) && ppErr.Message != "" {
		reason = ppErr.Message
	}
	return classify(domain.PaymentMethodPayPal, reason, err)
}
