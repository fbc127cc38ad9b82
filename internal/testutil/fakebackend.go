// Package testutil holds an in-memory marketplace backend shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/internal/backend"
)

type account struct {
	userID   string
	password string
}

// FakeBackend mimics the marketplace endpoints in memory and records every call.
type FakeBackend struct {
	mu sync.Mutex

	Sponsorships map[string]*domain.SponsorshipDraft
	nextID       int
	calls        []string

	// FailCreateAt fails the n-th (1-based) CreateSponsorship call with the mapped error.
	FailCreateAt map[int]error
	createCount  int
	DeleteErr    map[string]error

	StripeURL      string
	StripeErr      error
	StripeRequests []backend.StripeCheckoutRequest
	StripeSessions map[string]*backend.StripeVerification
	VerifyErr      error

	SquareErr       error
	SquarePaymentID string
	SquareRequests  []backend.SquarePaymentRequest

	Lookups   map[string]*domain.ReturningSponsorLookup
	LookupErr error
	Linked    map[string]string
	LinkErr   error

	Profiles   map[string]*domain.OrganizerProfile
	ProfileErr error
	Settings   domain.SystemSettings

	accounts map[string]account
}

func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		Sponsorships:    make(map[string]*domain.SponsorshipDraft),
		FailCreateAt:    make(map[int]error),
		DeleteErr:       make(map[string]error),
		StripeURL:       "https://checkout.stripe.test/session",
		StripeSessions:  make(map[string]*backend.StripeVerification),
		SquarePaymentID: "sq_pay_1",
		Lookups:         make(map[string]*domain.ReturningSponsorLookup),
		Linked:          make(map[string]string),
		Profiles:        make(map[string]*domain.OrganizerProfile),
		accounts:        make(map[string]account),
	}
}

func (f *FakeBackend) record(call string) {
	f.calls = append(f.calls, call)
}

// Calls returns the recorded calls in order, e.g. "DELETE /sponsorships/sp-1".
func (f *FakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallsWithPrefix filters Calls by prefix.
func (f *FakeBackend) CallsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (f *FakeBackend) Draft(id string) (*domain.SponsorshipDraft, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.Sponsorships[id]
	if !ok {
		return nil, false
	}
	cp := *d
	return &cp, true
}

func (f *FakeBackend) DraftCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sponsorships)
}

func (f *FakeBackend) AddAccount(email, userID, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[strings.ToLower(email)] = account{userID: userID, password: password}
}

func (f *FakeBackend) CreateSponsorship(_ context.Context, req backend.CreateSponsorshipRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("POST /sponsorships")
	f.createCount++
	if err, ok := f.FailCreateAt[f.createCount]; ok {
		return "", err
	}
	f.nextID++
	id := fmt.Sprintf("sp-%d", f.nextID)
	f.Sponsorships[id] = &domain.SponsorshipDraft{
		ID:            id,
		OrganizerID:   req.OrganizerID,
		PackageID:     req.PackageID,
		PackageTitle:  req.PackageTitle,
		Amount:        req.Amount,
		Status:        req.Status,
		PayerEmail:    req.PayerEmail,
		SponsorUserID: req.SponsorUserID,
		SponsorInfo:   req.SponsorInfo,
		PaymentMethod: req.PaymentMethod,
		IsTest:        req.IsTest,
	}
	return id, nil
}

func (f *FakeBackend) GetSponsorship(_ context.Context, id string) (*domain.SponsorshipDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GET /sponsorships/" + id)
	d, ok := f.Sponsorships[id]
	if !ok {
		return nil, fmt.Errorf("get sponsorship: %w", backend.ErrNotFound)
	}
	cp := *d
	return &cp, nil
}

func (f *FakeBackend) UpdateSponsorship(_ context.Context, id string, update backend.SponsorshipUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("PUT /sponsorships/" + id)
	d, ok := f.Sponsorships[id]
	if !ok {
		return fmt.Errorf("update sponsorship: %w", backend.ErrNotFound)
	}
	if update.Status != nil {
		d.Status = *update.Status
	}
	if update.PaymentID != nil {
		pid := *update.PaymentID
		d.PaymentID = &pid
	}
	return nil
}

func (f *FakeBackend) DeleteSponsorship(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DELETE /sponsorships/" + id)
	if err, ok := f.DeleteErr[id]; ok {
		return err
	}
	if _, ok := f.Sponsorships[id]; !ok {
		return fmt.Errorf("delete sponsorship: %w", backend.ErrNotFound)
	}
	delete(f.Sponsorships, id)
	return nil
}

func (f *FakeBackend) LookupByEmail(_ context.Context, email string) (*domain.ReturningSponsorLookup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GET /sponsorships/lookup-by-email/" + email)
	if f.LookupErr != nil {
		return nil, f.LookupErr
	}
	if l, ok := f.Lookups[strings.ToLower(email)]; ok {
		cp := *l
		return &cp, nil
	}
	return domain.NotFoundLookup(), nil
}

func (f *FakeBackend) LinkAccount(_ context.Context, email, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("POST /sponsorships/link-account")
	if f.LinkErr != nil {
		return f.LinkErr
	}
	f.Linked[strings.ToLower(email)] = userID
	for _, d := range f.Sponsorships {
		if domain.EmailMatches(d.PayerEmail, email) {
			uid := userID
			d.SponsorUserID = &uid
		}
	}
	return nil
}

func (f *FakeBackend) CreateStripeCheckout(_ context.Context, req backend.StripeCheckoutRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("POST /payments/stripe/create-checkout")
	f.StripeRequests = append(f.StripeRequests, req)
	if f.StripeErr != nil {
		return "", f.StripeErr
	}
	return f.StripeURL, nil
}

func (f *FakeBackend) VerifyStripeSession(_ context.Context, sessionID string) (*backend.StripeVerification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GET /payments/stripe/verify-session?sessionId=" + sessionID)
	if f.VerifyErr != nil {
		return nil, f.VerifyErr
	}
	v, ok := f.StripeSessions[sessionID]
	if !ok {
		return &backend.StripeVerification{SponsorshipIDs: []string{}}, nil
	}
	cp := *v
	cp.SponsorshipIDs = append([]string(nil), v.SponsorshipIDs...)
	return &cp, nil
}

func (f *FakeBackend) ProcessSquarePayment(_ context.Context, req backend.SquarePaymentRequest) (*backend.SquarePaymentResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("POST /payments/square/process-payment")
	f.SquareRequests = append(f.SquareRequests, req)
	if f.SquareErr != nil {
		return nil, f.SquareErr
	}
	return &backend.SquarePaymentResult{PaymentID: f.SquarePaymentID}, nil
}

func (f *FakeBackend) GetOrganizerProfile(_ context.Context, organizerID string) (*domain.OrganizerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GET /organizers/" + organizerID + "/profile")
	if f.ProfileErr != nil {
		return nil, f.ProfileErr
	}
	p, ok := f.Profiles[organizerID]
	if !ok {
		return nil, fmt.Errorf("get organizer profile: %w", backend.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (f *FakeBackend) GetSystemSettings(_ context.Context) (*domain.SystemSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GET /settings/payments")
	s := f.Settings
	return &s, nil
}

func (f *FakeBackend) Register(_ context.Context, req backend.RegisterRequest) (*domain.AuthContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("POST /auth/register")
	key := strings.ToLower(req.Email)
	if _, ok := f.accounts[key]; ok {
		return nil, &backend.APIError{Op: "register account", StatusCode: 409, Message: "account exists"}
	}
	userID := fmt.Sprintf("user-%d", len(f.accounts)+1)
	f.accounts[key] = account{userID: userID, password: req.Password}
	return &domain.AuthContext{UserID: userID, Email: req.Email, EmailVerified: true}, nil
}

func (f *FakeBackend) SignIn(_ context.Context, email, password string) (*domain.AuthContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("POST /auth/login")
	a, ok := f.accounts[strings.ToLower(email)]
	if !ok || a.password != password {
		return nil, &backend.APIError{Op: "sign in", StatusCode: 401, Message: "invalid credentials"}
	}
	return &domain.AuthContext{UserID: a.userID, Email: email, EmailVerified: true}, nil
}
