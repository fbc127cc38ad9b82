package http

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/internal/checkout"
	"github.com/fjod/go_cart/sponsor-checkout/internal/identity"
	"github.com/fjod/go_cart/sponsor-checkout/internal/verify"
)

type CheckoutServiceMock struct {
	mu sync.Mutex

	submitResult *checkout.SubmitResult
	breakdown    *domain.FeeBreakdown
	stripeResult *verify.StripeResult
	guestSaved   bool
	prefill      map[string]identity.LookupState
	err          error

	lastSubmit   checkout.SubmitRequest
	lastVerify   []string
	emailUpdates map[string]string
}

func (m *CheckoutServiceMock) Submit(ctx context.Context, req checkout.SubmitRequest) (*checkout.SubmitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSubmit = req
	if m.err != nil {
		return nil, m.err
	}
	return m.submitResult, nil
}

func (m *CheckoutServiceMock) PreviewFees(ctx context.Context, items []domain.CartItem, coverFees bool, choice domain.PaymentChoice) (*domain.FeeBreakdown, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.breakdown, nil
}

func (m *CheckoutServiceMock) VerifyStripeReturn(ctx context.Context, clientID, sessionID string, auth *domain.AuthContext, email string) (*verify.StripeResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastVerify = []string{clientID, sessionID, email}
	if m.err != nil {
		return nil, false, m.err
	}
	return m.stripeResult, m.guestSaved, nil
}

func (m *CheckoutServiceMock) UpdateSessionEmail(sessionID, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailUpdates == nil {
		m.emailUpdates = make(map[string]string)
	}
	m.emailUpdates[sessionID] = email
}

func (m *CheckoutServiceMock) SessionPrefill(sessionID string) (identity.LookupState, bool) {
	state, ok := m.prefill[sessionID]
	return state, ok
}

type CheckVerifierMock struct {
	instructions *verify.CheckInstructions
	err          error
}

func (m CheckVerifierMock) VerifyCheckPledge(ctx context.Context, organizerID string) (*verify.CheckInstructions, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.instructions, nil
}

type SponsorIdentityMock struct {
	lookup  *domain.ReturningSponsorLookup
	account *identity.AccountResult
	err     error

	lastAccount identity.AccountRequest
}

func (m *SponsorIdentityMock) LookupReturningSponsor(ctx context.Context, email string) (*domain.ReturningSponsorLookup, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.lookup, nil
}

func (m *SponsorIdentityMock) PostPaymentAccountFlow(ctx context.Context, req identity.AccountRequest) (*identity.AccountResult, error) {
	m.lastAccount = req
	if m.err != nil {
		return nil, m.err
	}
	return m.account, nil
}

type GuestSessionsMock struct {
	sessions map[string]*domain.GuestSession
	err      error
}

func (m GuestSessionsMock) Get(ctx context.Context, clientID string) (*domain.GuestSession, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.sessions[clientID], nil
}
