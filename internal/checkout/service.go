// Package checkout runs one sponsor checkout end to end: fee policy, gateway dispatch, the
// attempt ledger, and the guest session written after a guest pays.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/internal/debounce"
	"github.com/fjod/go_cart/sponsor-checkout/internal/fees"
	"github.com/fjod/go_cart/sponsor-checkout/internal/gateway"
	"github.com/fjod/go_cart/sponsor-checkout/internal/identity"
	"github.com/fjod/go_cart/sponsor-checkout/internal/repository"
	"github.com/fjod/go_cart/sponsor-checkout/internal/verify"
	"github.com/fjod/go_cart/sponsor-checkout/pkg/logger"
	"github.com/shopspring/decimal"
)

type OrganizerSource interface {
	GetOrganizerProfile(ctx context.Context, organizerID string) (*domain.OrganizerProfile, error)
	GetSystemSettings(ctx context.Context) (*domain.SystemSettings, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, choice domain.PaymentChoice, system domain.SystemSettings, req gateway.Request) (*gateway.Result, error)
}

type StripeVerifier interface {
	VerifyStripeSession(ctx context.Context, sessionID string) (*verify.StripeResult, error)
}

type GuestSessionWriter interface {
	Save(ctx context.Context, clientID, email string, sponsorshipIDs []string) (*domain.GuestSession, error)
}

type Ledger interface {
	RecordAttempt(ctx context.Context, attempt *repository.Attempt) error
}

type Options struct {
	DefaultProcessingFeeRate decimal.Decimal
	DefaultPlatformFeeRate   decimal.Decimal
	SuccessURL               string
	CancelURL                string
	// Ledger may be nil; attempts are then only logged.
	Ledger Ledger
	// Scheduler drives debounced email lookups; nil means real timers.
	Scheduler debounce.Scheduler
}

type Service struct {
	organizers OrganizerSource
	dispatcher Dispatcher
	verifier   StripeVerifier
	sessions   GuestSessionWriter
	reconciler *identity.Reconciler
	opts       Options

	inFlight *inFlight

	lookupsMu sync.Mutex
	lookups   map[string]*identity.DebouncedLookup
}

func NewService(
	organizers OrganizerSource,
	dispatcher Dispatcher,
	verifier StripeVerifier,
	sessions GuestSessionWriter,
	reconciler *identity.Reconciler,
	opts Options) *Service {

	return &Service{
		organizers: organizers,
		dispatcher: dispatcher,
		verifier:   verifier,
		sessions:   sessions,
		reconciler: reconciler,
		opts:       opts,
		inFlight:   newInFlight(),
		lookups:    make(map[string]*identity.DebouncedLookup),
	}
}

type SubmitRequest struct {
	CheckoutSessionID string               `json:"checkoutSessionId"`
	ClientID          string               `json:"-"`
	Auth              *domain.AuthContext  `json:"-"`
	Items             []domain.CartItem    `json:"items"`
	Sponsor           domain.SponsorInfo   `json:"sponsor"`
	PaymentChoice     domain.PaymentChoice `json:"paymentMethod"`
	CoverFees         bool                 `json:"coverFees"`
	SourceID          string               `json:"sourceId,omitempty"`
}

type SubmitResult struct {
	gateway.Result
	Breakdown    domain.FeeBreakdown `json:"breakdown"`
	GuestSession bool                `json:"guestSession"`
}

func (r SubmitRequest) validate() error {
	if err := r.Sponsor.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.CheckoutSessionID) == "" {
		return &domain.ValidationError{Field: "checkoutSessionId", Message: "checkout session id is required"}
	}
	if !r.PaymentChoice.IsValid() {
		return &domain.ValidationError{Field: "paymentMethod", Message: fmt.Sprintf("unsupported payment method %q", r.PaymentChoice)}
	}
	return validateItems(r.Items)
}

// validateItems checks a cart is non-empty, priced non-negatively and from one organizer.
func validateItems(items []domain.CartItem) error {
	if len(items) == 0 {
		return ErrEmptyCart
	}
	organizerID := items[0].OrganizerID
	for _, item := range items {
		if item.Price.IsNegative() {
			return &domain.ValidationError{Field: "items", Message: "package price must not be negative"}
		}
		if item.OrganizerID != organizerID {
			return ErrMixedOrganizers
		}
	}
	return nil
}

// Submit runs one checkout attempt. Only one attempt per checkout session may be in flight.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if !s.inFlight.acquire(req.CheckoutSessionID) {
		return nil, ErrCheckoutInFlight
	}
	defer s.inFlight.release(req.CheckoutSessionID)

	organizerID := req.Items[0].OrganizerID
	profile, err := s.organizers.GetOrganizerProfile(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load organizer %s: %w", organizerID, err)
	}
	system, err := s.organizers.GetSystemSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment settings: %w", err)
	}

	policy := s.feePolicy(profile)
	isCheck := req.PaymentChoice == domain.PaymentChoiceCheck
	breakdown := fees.ComputeBreakdown(domain.Subtotal(req.Items), policy, req.CoverFees, isCheck)

	gwReq := gateway.Request{
		CheckoutSessionID: req.CheckoutSessionID,
		Auth:              req.Auth,
		Organizer:         profile,
		Items:             req.Items,
		Sponsor:           req.Sponsor,
		Policy:            policy,
		Breakdown:         breakdown,
		SourceID:          req.SourceID,
		SuccessURL:        s.opts.SuccessURL,
		CancelURL:         s.opts.CancelURL,
	}
	res, err := s.dispatcher.Dispatch(ctx, req.PaymentChoice, *system, gwReq)
	s.recordAttempt(ctx, req, profile, *system, breakdown, res, err)
	if err != nil {
		return nil, err
	}

	out := &SubmitResult{Result: *res, Breakdown: breakdown}
	if !res.Redirected() && identity.IsGuestPurchase(req.Auth, req.Sponsor.Email) {
		out.GuestSession = s.saveGuestSession(ctx, req.ClientID, req.Sponsor.Email, res.SponsorshipIDs)
	}
	s.ForgetSession(req.CheckoutSessionID)
	return out, nil
}

// PreviewFees computes the breakdown the buyer will see for the current cart and choices.
func (s *Service) PreviewFees(ctx context.Context, items []domain.CartItem, coverFees bool, choice domain.PaymentChoice) (*domain.FeeBreakdown, error) {
	if err := validateItems(items); err != nil {
		return nil, err
	}
	organizerID := items[0].OrganizerID
	profile, err := s.organizers.GetOrganizerProfile(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load organizer %s: %w", organizerID, err)
	}
	b := fees.ComputeBreakdown(domain.Subtotal(items), s.feePolicy(profile), coverFees, choice == domain.PaymentChoiceCheck)
	return &b, nil
}

// VerifyStripeReturn confirms a Stripe session after the redirect back and, for a guest,
// records the purchase in the client's guest session.
func (s *Service) VerifyStripeReturn(ctx context.Context, clientID, sessionID string, auth *domain.AuthContext, email string) (*verify.StripeResult, bool, error) {
	res, err := s.verifier.VerifyStripeSession(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	saved := false
	if email != "" && identity.IsGuestPurchase(auth, email) {
		saved = s.saveGuestSession(ctx, clientID, email, res.SponsorshipIDs)
	}
	return res, saved, nil
}

// UpdateSessionEmail feeds a keystroke of the sponsor email field into the session's
// debounced returning-sponsor lookup.
func (s *Service) UpdateSessionEmail(sessionID, email string) {
	s.lookupsMu.Lock()
	lookup, ok := s.lookups[sessionID]
	if !ok {
		lookup = identity.NewDebouncedLookup(s.reconciler, s.opts.Scheduler)
		s.lookups[sessionID] = lookup
	}
	s.lookupsMu.Unlock()
	lookup.Update(email)
}

// SessionPrefill returns the latest lookup state for the session's email field.
func (s *Service) SessionPrefill(sessionID string) (identity.LookupState, bool) {
	s.lookupsMu.Lock()
	lookup, ok := s.lookups[sessionID]
	s.lookupsMu.Unlock()
	if !ok {
		return identity.LookupState{}, false
	}
	return lookup.State(), true
}

// ForgetSession drops the session's lookup state once its checkout has gone through.
func (s *Service) ForgetSession(sessionID string) {
	s.lookupsMu.Lock()
	lookup, ok := s.lookups[sessionID]
	delete(s.lookups, sessionID)
	s.lookupsMu.Unlock()
	if ok {
		lookup.Cancel()
	}
}

func (s *Service) feePolicy(profile *domain.OrganizerProfile) domain.FeePolicy {
	return profile.FeePolicy(s.opts.DefaultProcessingFeeRate, s.opts.DefaultPlatformFeeRate)
}

func (s *Service) saveGuestSession(ctx context.Context, clientID, email string, ids []string) bool {
	if clientID == "" || len(ids) == 0 {
		return false
	}
	if _, err := s.sessions.Save(ctx, clientID, email, ids); err != nil {
		logger.Printf(ctx, "save guest session for client %s failed: %v", clientID, err)
		return false
	}
	return true
}

func (s *Service) recordAttempt(
	ctx context.Context,
	req SubmitRequest,
	profile *domain.OrganizerProfile,
	system domain.SystemSettings,
	breakdown domain.FeeBreakdown,
	res *gateway.Result,
	dispatchErr error) {

	attempt := &repository.Attempt{
		CheckoutSessionID: req.CheckoutSessionID,
		OrganizerID:       req.Items[0].OrganizerID,
		Total:             breakdown.Total,
		CreatedAt:         time.Now().UTC(),
	}
	switch {
	case dispatchErr != nil:
		// Attempts rejected before any draft was written are not part of the ledger.
		if !domain.IsRetryable(dispatchErr) {
			return
		}
		method, err := gateway.Resolve(req.PaymentChoice, profile, system)
		if err != nil {
			return
		}
		attempt.PaymentMethod = method
		attempt.Status = repository.AttemptStatusFailed
		attempt.Error = dispatchErr.Error()
	case res.Redirected():
		attempt.PaymentMethod = res.Method
		attempt.Status = repository.AttemptStatusRedirected
		attempt.SponsorshipIDs = res.SponsorshipIDs
	default:
		attempt.PaymentMethod = res.Method
		attempt.Status = repository.AttemptStatusSucceeded
		attempt.SponsorshipIDs = res.SponsorshipIDs
		attempt.PaymentID = res.PaymentID
		attempt.IsTest = res.IsTest
	}

	logger.Printf(ctx, "checkout attempt session=%s method=%s status=%s total=%s",
		attempt.CheckoutSessionID, attempt.PaymentMethod, attempt.Status, attempt.Total.StringFixed(2))
	if s.opts.Ledger == nil {
		return
	}
	if err := s.opts.Ledger.RecordAttempt(context.WithoutCancel(ctx), attempt); err != nil && !errors.Is(err, repository.ErrDuplicateAttempt) {
		logger.Printf(ctx, "record checkout attempt for session %s failed: %v", attempt.CheckoutSessionID, err)
	}
}
