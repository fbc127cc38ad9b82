package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/internal/backend"
	"github.com/fjod/go_cart/sponsor-checkout/internal/drafts"
	"github.com/fjod/go_cart/sponsor-checkout/internal/fees"
	"github.com/fjod/go_cart/sponsor-checkout/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultPolicy = domain.FeePolicy{
	ProcessingFeeRate: decimal.RequireFromString("0.03"),
	PlatformFeeRate:   decimal.RequireFromString("0.05"),
}

func newRequest(coverFees, isCheck bool) Request {
	items := []domain.CartItem{
		{PackageID: "gold", OrganizerID: "org-1", Title: "Gold", Price: decimal.RequireFromString("100")},
		{PackageID: "silver", OrganizerID: "org-1", Title: "Silver", Price: decimal.RequireFromString("50")},
	}
	return Request{
		CheckoutSessionID: "chk-1",
		Organizer: &domain.OrganizerProfile{
			ID:   "org-1",
			Name: "Riverside 5K",
			CheckSettings: domain.CheckSettings{
				Enabled:        true,
				PayableTo:      "Riverside Running Club",
				MailingAddress: "1 River Rd",
			},
		},
		Items: items,
		Sponsor: domain.SponsorInfo{
			CompanyName: "Acme",
			ContactName: "Jo Doe",
			Email:       "jo@acme.com",
		},
		Policy:     defaultPolicy,
		Breakdown:  fees.ComputeBreakdown(domain.Subtotal(items), defaultPolicy, coverFees, isCheck),
		SourceID:   "cnon:card-nonce-ok",
		SuccessURL: "https://app.test/success",
		CancelURL:  "https://app.test/cancel",
	}
}

func setup() (*testutil.FakeBackend, *drafts.Manager) {
	fb := testutil.NewFakeBackend()
	return fb, drafts.NewManager(fb)
}

func TestStripeStrategy_CreatesPendingDraftsThenRedirects(t *testing.T) {
	fb, m := setup()
	s := NewStripeStrategy(m, fb)

	res, err := s.Dispatch(context.Background(), newRequest(true, false))

	require.NoError(t, err)
	assert.True(t, res.Redirected())
	assert.Equal(t, fb.StripeURL, res.RedirectURL)
	assert.Equal(t, []string{"sp-1", "sp-2"}, res.SponsorshipIDs)

	require.Len(t, fb.StripeRequests, 1)
	sent := fb.StripeRequests[0]
	assert.Equal(t, "sp-1,sp-2", sent.Metadata["sponsorshipIds"])
	assert.Equal(t, "chk-1", sent.Metadata["checkoutSessionId"])
	assert.True(t, sent.CoverFees)
	assert.Equal(t, "org-1", sent.OrganizerID)

	d, ok := fb.Draft("sp-1")
	require.True(t, ok)
	assert.Equal(t, domain.SponsorshipStatusPending, d.Status)
	assert.Equal(t, "108", d.Amount.String())
}

func TestStripeStrategy_FailureBeforeRedirectCleansUp(t *testing.T) {
	fb, m := setup()
	fb.StripeErr = &backend.APIError{Op: "create stripe checkout", StatusCode: 400, Message: "organizer not connected"}
	s := NewStripeStrategy(m, fb)

	_, err := s.Dispatch(context.Background(), newRequest(false, false))

	var gErr *domain.GatewayError
	require.ErrorAs(t, err, &gErr)
	assert.Equal(t, "organizer not connected", gErr.Reason)
	assert.Equal(t, 0, fb.DraftCount())
	assert.Equal(t, []string{"DELETE /sponsorships/sp-1", "DELETE /sponsorships/sp-2"}, fb.CallsWithPrefix("DELETE"))
}

func TestSquareStrategy_ChargesTotalAndMarksPaid(t *testing.T) {
	fb, m := setup()
	s := NewSquareStrategy(m, fb)

	res, err := s.Dispatch(context.Background(), newRequest(true, false))

	require.NoError(t, err)
	assert.Equal(t, "sq_pay_1", res.PaymentID)
	require.Len(t, fb.SquareRequests, 1)
	assert.Equal(t, "162", fb.SquareRequests[0].Amount.String())
	assert.Equal(t, []string{"sp-1", "sp-2"}, fb.SquareRequests[0].SponsorshipIDs)

	for _, id := range res.SponsorshipIDs {
		d, ok := fb.Draft(id)
		require.True(t, ok)
		assert.Equal(t, domain.SponsorshipStatusPaid, d.Status)
		require.NotNil(t, d.PaymentID)
		assert.Equal(t, "sq_pay_1", *d.PaymentID)
	}
}

func TestSquareStrategy_FailureAfterTwoDraftsCleansUpExactlyThose(t *testing.T) {
	fb, m := setup()
	fb.SquareErr = &backend.APIError{Op: "process square payment", StatusCode: 402, Message: "CARD_DECLINED"}
	s := NewSquareStrategy(m, fb)

	_, err := s.Dispatch(context.Background(), newRequest(false, false))

	var gErr *domain.GatewayError
	require.ErrorAs(t, err, &gErr)
	assert.Equal(t, domain.PaymentMethodSquare, gErr.Gateway)
	assert.True(t, domain.IsRetryable(err))
	assert.Equal(t, []string{"DELETE /sponsorships/sp-1", "DELETE /sponsorships/sp-2"}, fb.CallsWithPrefix("DELETE"))

	for _, id := range []string{"sp-1", "sp-2"} {
		_, err := fb.GetSponsorship(context.Background(), id)
		assert.ErrorIs(t, err, backend.ErrNotFound)
	}
}

func TestSquareStrategy_NetworkErrorKeepsKind(t *testing.T) {
	fb, m := setup()
	fb.SquareErr = &domain.NetworkError{Op: "process square payment", Err: errors.New("connection reset")}
	s := NewSquareStrategy(m, fb)

	_, err := s.Dispatch(context.Background(), newRequest(false, false))

	var netErr *domain.NetworkError
	assert.ErrorAs(t, err, &netErr)
	assert.Equal(t, 0, fb.DraftCount())
}

func TestSquareStrategy_MissingNonceIsValidationError(t *testing.T) {
	fb, m := setup()
	s := NewSquareStrategy(m, fb)
	req := newRequest(false, false)
	req.SourceID = " "

	_, err := s.Dispatch(context.Background(), req)

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "sourceId", vErr.Field)
	assert.Empty(t, fb.Calls())
}

func TestPayPalStrategy_CreatesOrderWithDraftIDsAndCaptures(t *testing.T) {
	fb, m := setup()
	orders := &mockPayPalOrders{}
	s := NewPayPalStrategy(m, orders)

	res, err := s.Dispatch(context.Background(), newRequest(false, false))

	require.NoError(t, err)
	assert.Equal(t, "CAPTURE-1", res.PaymentID)
	require.Len(t, orders.created, 1)
	assert.Equal(t, "sp-1,sp-2", orders.created[0].CustomID)
	assert.Equal(t, "150", orders.created[0].Amount.String())
	assert.Equal(t, []string{"ORDER-1"}, orders.captured)

	d, _ := fb.Draft("sp-2")
	assert.Equal(t, domain.SponsorshipStatusPaid, d.Status)
}

func TestPayPalStrategy_IncompleteCaptureCleansUp(t *testing.T) {
	fb, m := setup()
	orders := &mockPayPalOrders{captureStatus: "PENDING"}
	s := NewPayPalStrategy(m, orders)

	_, err := s.Dispatch(context.Background(), newRequest(false, false))

	var gErr *domain.GatewayError
	require.ErrorAs(t, err, &gErr)
	assert.Contains(t, gErr.Reason, "PENDING")
	assert.Equal(t, 0, fb.DraftCount())
}

func TestPayPalStrategy_CreateOrderErrorCleansUp(t *testing.T) {
	fb, m := setup()
	orders := &mockPayPalOrders{createErr: &PayPalError{StatusCode: 422, Name: "UNPROCESSABLE_ENTITY", Message: "amount mismatch"}}
	s := NewPayPalStrategy(m, orders)

	_, err := s.Dispatch(context.Background(), newRequest(false, false))

	var gErr *domain.GatewayError
	require.ErrorAs(t, err, &gErr)
	assert.Equal(t, "amount mismatch", gErr.Reason)
	assert.Empty(t, orders.captured)
	assert.Equal(t, 0, fb.DraftCount())
}

func TestCheckStrategy_DraftsStayPendingAtBarePrice(t *testing.T) {
	fb, m := setup()
	s := NewCheckStrategy(m)

	res, err := s.Dispatch(context.Background(), newRequest(true, true))

	require.NoError(t, err)
	require.NotNil(t, res.Check)
	assert.Equal(t, "Riverside Running Club", res.Check.PayableTo)
	assert.Empty(t, res.PaymentID)

	d, ok := fb.Draft("sp-1")
	require.True(t, ok)
	assert.Equal(t, domain.SponsorshipStatusPending, d.Status)
	assert.Equal(t, domain.PaymentMethodCheck, d.PaymentMethod)
	assert.Equal(t, "100", d.Amount.String())
	assert.Empty(t, fb.CallsWithPrefix("PUT"))
}

func TestCheckStrategy_DisabledForOrganizer(t *testing.T) {
	fb, m := setup()
	s := NewCheckStrategy(m)
	req := newRequest(false, true)
	req.Organizer.CheckSettings.Enabled = false

	_, err := s.Dispatch(context.Background(), req)

	assert.ErrorIs(t, err, ErrGatewayDisabled)
	assert.Empty(t, fb.Calls())
}

func TestSandboxStrategy_MarksTestDraftsPaid(t *testing.T) {
	fb, m := setup()
	s := NewSandboxStrategy(m, time.Millisecond)

	res, err := s.Dispatch(context.Background(), newRequest(false, false))

	require.NoError(t, err)
	assert.True(t, res.IsTest)
	assert.Regexp(t, `^sandbox_[0-9a-f-]{36}$`, res.PaymentID)
	d, _ := fb.Draft("sp-1")
	assert.True(t, d.IsTest)
	assert.Equal(t, domain.SponsorshipStatusPaid, d.Status)
}

func TestSandboxStrategy_CancelledDuringDelayCleansUp(t *testing.T) {
	fb, m := setup()
	s := NewSandboxStrategy(m, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.Dispatch(ctx, newRequest(false, false))

	var gErr *domain.GatewayError
	require.ErrorAs(t, err, &gErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, fb.DraftCount())
}

func TestStrategies_DraftCreationFailureSurfacesAndCleansUp(t *testing.T) {
	fb, m := setup()
	fb.FailCreateAt[2] = &domain.NetworkError{Op: "create sponsorship", Err: errors.New("timeout")}
	s := NewSquareStrategy(m, fb)

	_, err := s.Dispatch(context.Background(), newRequest(false, false))

	var netErr *domain.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Empty(t, fb.SquareRequests)
	assert.Equal(t, []string{"DELETE /sponsorships/sp-1"}, fb.CallsWithPrefix("DELETE"))
}
