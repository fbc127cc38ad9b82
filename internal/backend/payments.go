package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

type StripeLineItem struct {
	PackageID string          `json:"packageId"`
	Title     string          `json:"title"`
	Amount    decimal.Decimal `json:"amount"`
}

type StripeCheckoutRequest struct {
	OrganizerID   string            `json:"organizerId"`
	Items         []StripeLineItem  `json:"items"`
	CustomerEmail string            `json:"customerEmail"`
	SuccessURL    string            `json:"successUrl"`
	CancelURL     string            `json:"cancelUrl"`
	Metadata      map[string]string `json:"metadata"`
	CoverFees     bool              `json:"coverFees"`
}

type stripeCheckoutResponse struct {
	URL string `json:"url"`
}

// StripeVerification is the backend's view of a Stripe checkout session. The sponsorship ids
// come from the session metadata written at creation time.
type StripeVerification struct {
	Verified       bool     `json:"verified"`
	Count          int      `json:"count"`
	SponsorshipIDs []string `json:"sponsorshipIds"`
	PaymentID      string   `json:"paymentId,omitempty"`
}

type SquarePaymentRequest struct {
	SourceID       string          `json:"sourceId"`
	Amount         decimal.Decimal `json:"amount"`
	OrganizerID    string          `json:"organizerId"`
	SponsorshipIDs []string        `json:"sponsorshipIds"`
	PayerEmail     string          `json:"payerEmail"`
	CoverFees      bool            `json:"coverFees"`
}

type SquarePaymentResult struct {
	PaymentID string `json:"paymentId"`
}

func (c *Client) CreateStripeCheckout(ctx context.Context, req StripeCheckoutRequest) (string, error) {
	var resp stripeCheckoutResponse
	if err := c.do(ctx, "create stripe checkout", http.MethodPost, "/payments/stripe/create-checkout", req, &resp); err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", &APIError{Op: "create stripe checkout", StatusCode: http.StatusOK, Message: "response carried no redirect url"}
	}
	return resp.URL, nil
}

func (c *Client) VerifyStripeSession(ctx context.Context, sessionID string) (*StripeVerification, error) {
	var v StripeVerification
	path := "/payments/stripe/verify-session?sessionId=" + url.QueryEscape(sessionID)
	if err := c.do(ctx, "verify stripe session", http.MethodGet, path, nil, &v); err != nil {
		return nil, err
	}
	if v.SponsorshipIDs == nil {
		v.SponsorshipIDs = []string{}
	}
	return &v, nil
}

func (c *Client) ProcessSquarePayment(ctx context.Context, req SquarePaymentRequest) (*SquarePaymentResult, error) {
	var res SquarePaymentResult
	if err := c.do(ctx, "process square payment", http.MethodPost, "/payments/square/process-payment", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
