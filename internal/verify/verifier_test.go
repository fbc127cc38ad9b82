package verify

import (
	"context"
	"errors"
	"testing"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/internal/backend"
	"github.com/fjod/go_cart/sponsor-checkout/internal/drafts"
	"github.com/fjod/go_cart/sponsor-checkout/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Verifier, *testutil.FakeBackend, []string) {
	t.Helper()
	fb := testutil.NewFakeBackend()
	m := drafts.NewManager(fb)
	items := []domain.CartItem{
		{PackageID: "gold", OrganizerID: "org-1", Title: "Gold", Price: decimal.NewFromInt(100)},
		{PackageID: "silver", OrganizerID: "org-1", Title: "Silver", Price: decimal.NewFromInt(50)},
	}
	sponsor := domain.SponsorInfo{CompanyName: "Acme", ContactName: "Jo Doe", Email: "jo@acme.com"}
	ids, err := m.CreateDrafts(context.Background(), nil, items, sponsor, drafts.Options{PaymentMethod: domain.PaymentMethodStripe})
	require.NoError(t, err)
	return NewVerifier(fb, m, fb), fb, ids
}

func TestVerifyStripeSession_MarksDraftsPaid(t *testing.T) {
	v, fb, ids := setup(t)
	fb.StripeSessions["cs_1"] = &backend.StripeVerification{Verified: true, Count: 2, SponsorshipIDs: ids, PaymentID: "pi_1"}

	res, err := v.VerifyStripeSession(context.Background(), "cs_1")

	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, ids, res.SponsorshipIDs)
	for _, id := range ids {
		d, _ := fb.Draft(id)
		assert.Equal(t, domain.SponsorshipStatusPaid, d.Status)
		require.NotNil(t, d.PaymentID)
		assert.Equal(t, "pi_1", *d.PaymentID)
	}
}

func TestVerifyStripeSession_TwiceIsIdempotent(t *testing.T) {
	v, fb, ids := setup(t)
	fb.StripeSessions["cs_1"] = &backend.StripeVerification{Verified: true, Count: 2, SponsorshipIDs: ids, PaymentID: "pi_1"}
	ctx := context.Background()
	draftsBefore := fb.DraftCount()

	first, err := v.VerifyStripeSession(ctx, "cs_1")
	require.NoError(t, err)
	second, err := v.VerifyStripeSession(ctx, "cs_1")
	require.NoError(t, err)

	assert.Equal(t, first.SponsorshipIDs, second.SponsorshipIDs)
	assert.Equal(t, draftsBefore, fb.DraftCount())
	assert.Len(t, fb.CallsWithPrefix("POST /sponsorships"), 2, "only the drafts from setup")
	assert.Len(t, fb.CallsWithPrefix("PUT /sponsorships"), 2, "paid transition applied once per draft")
}

func TestVerifyStripeSession_RefreshAfterBrandingSubmitted(t *testing.T) {
	v, fb, ids := setup(t)
	fb.StripeSessions["cs_1"] = &backend.StripeVerification{Verified: true, Count: 2, SponsorshipIDs: ids, PaymentID: "pi_1"}
	ctx := context.Background()

	first, err := v.VerifyStripeSession(ctx, "cs_1")
	require.NoError(t, err)
	require.NoError(t, drafts.NewManager(fb).TransitionStatus(ctx, ids[0], domain.SponsorshipStatusBrandingSubmitted, ""))

	second, err := v.VerifyStripeSession(ctx, "cs_1")

	require.NoError(t, err)
	assert.Equal(t, first.SponsorshipIDs, second.SponsorshipIDs)
	d, _ := fb.Draft(ids[0])
	assert.Equal(t, domain.SponsorshipStatusBrandingSubmitted, d.Status)
	d, _ = fb.Draft(ids[1])
	assert.Equal(t, domain.SponsorshipStatusPaid, d.Status)
}

func TestVerifyStripeSession_UnverifiedIsReconciliationError(t *testing.T) {
	v, fb, ids := setup(t)
	fb.StripeSessions["cs_2"] = &backend.StripeVerification{Verified: false, SponsorshipIDs: ids}

	_, err := v.VerifyStripeSession(context.Background(), "cs_2")

	var rErr *domain.ReconciliationError
	require.ErrorAs(t, err, &rErr)
	assert.Equal(t, "cs_2", rErr.SessionID)
	assert.False(t, domain.IsRetryable(err))
	d, _ := fb.Draft(ids[0])
	assert.Equal(t, domain.SponsorshipStatusPending, d.Status)
}

func TestVerifyStripeSession_BackendFailureKeepsKind(t *testing.T) {
	v, fb, _ := setup(t)
	fb.VerifyErr = &domain.NetworkError{Op: "verify stripe session", Err: errors.New("eof")}

	_, err := v.VerifyStripeSession(context.Background(), "cs_1")

	var netErr *domain.NetworkError
	assert.ErrorAs(t, err, &netErr)
}

func TestVerifyStripeSession_RequiresSessionID(t *testing.T) {
	v, fb, _ := setup(t)
	calls := len(fb.Calls())

	_, err := v.VerifyStripeSession(context.Background(), "  ")

	assert.ErrorIs(t, err, ErrMissingSessionID)
	assert.Len(t, fb.Calls(), calls)
}

func TestVerifyCheckPledge(t *testing.T) {
	v, fb, ids := setup(t)
	fb.Profiles["org-1"] = &domain.OrganizerProfile{
		ID:   "org-1",
		Name: "Riverside 5K",
		CheckSettings: domain.CheckSettings{
			Enabled:        true,
			PayableTo:      "Riverside Running Club",
			MailingAddress: "1 River Rd",
			Instructions:   "Write the invoice number on the memo line",
		},
	}

	got, err := v.VerifyCheckPledge(context.Background(), "org-1")

	require.NoError(t, err)
	assert.Equal(t, "Riverside Running Club", got.PayableTo)
	assert.Equal(t, "Riverside 5K", got.OrganizerName)
	d, _ := fb.Draft(ids[0])
	assert.Equal(t, domain.SponsorshipStatusPending, d.Status)
}

func TestVerifyCheckPledge_NotAccepted(t *testing.T) {
	v, fb, _ := setup(t)
	fb.Profiles["org-1"] = &domain.OrganizerProfile{ID: "org-1"}

	_, err := v.VerifyCheckPledge(context.Background(), "org-1")
	assert.ErrorIs(t, err, ErrChecksNotAccepted)

	_, err = v.VerifyCheckPledge(context.Background(), "org-404")
	assert.ErrorIs(t, err, backend.ErrNotFound)
}
