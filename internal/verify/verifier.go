// Package verify confirms payments after the buyer comes back from an off-site processor.
package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/internal/backend"
	"github.com/fjod/go_cart/sponsor-checkout/pkg/logger"
	"golang.org/x/sync/singleflight"
)

type StripeSessions interface {
	VerifyStripeSession(ctx context.Context, sessionID string) (*backend.StripeVerification, error)
}

type DraftUpdater interface {
	MarkPaid(ctx context.Context, ids []string, paymentID string) error
}

type OrganizerProfiles interface {
	GetOrganizerProfile(ctx context.Context, organizerID string) (*domain.OrganizerProfile, error)
}

type StripeResult struct {
	Verified       bool     `json:"verified"`
	Count          int      `json:"count"`
	SponsorshipIDs []string `json:"sponsorshipIds"`
	PaymentID      string   `json:"paymentId,omitempty"`
}

type CheckInstructions struct {
	OrganizerID    string `json:"organizerId"`
	OrganizerName  string `json:"organizerName"`
	PayableTo      string `json:"payableTo"`
	MailingAddress string `json:"mailingAddress"`
	Instructions   string `json:"instructions"`
}

type Verifier struct {
	sessions   StripeSessions
	drafts     DraftUpdater
	organizers OrganizerProfiles
	sfg        singleflight.Group
}

func NewVerifier(sessions StripeSessions, drafts DraftUpdater, organizers OrganizerProfiles) *Verifier {
	return &Verifier{
		sessions:   sessions,
		drafts:     drafts,
		organizers: organizers,
	}
}

// VerifyStripeSession confirms a returning Stripe session and marks its drafts paid. The
// draft ids come from the session metadata held by the backend, never from the caller, so a
// page refresh repeats the same work: no drafts are created and paid drafts stay paid.
func (v *Verifier) VerifyStripeSession(ctx context.Context, sessionID string) (*StripeResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrMissingSessionID
	}

	// Concurrent refreshes of the same return page share one verification.
	res, err, shared := v.sfg.Do(sessionID, func() (interface{}, error) {
		return v.verifyStripe(context.WithoutCancel(ctx), sessionID)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Printf(ctx, "stripe session %s verification shared with a concurrent request", sessionID)
	}
	out := *res.(*StripeResult)
	out.SponsorshipIDs = append([]string(nil), out.SponsorshipIDs...)
	return &out, nil
}

func (v *Verifier) verifyStripe(ctx context.Context, sessionID string) (*StripeResult, error) {
	session, err := v.sessions.VerifyStripeSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify stripe session: %w", err)
	}
	if !session.Verified {
		return nil, &domain.ReconciliationError{SessionID: sessionID, Reason: "payment was not confirmed by the processor"}
	}

	paymentID := session.PaymentID
	if paymentID == "" {
		paymentID = sessionID
	}
	if err := v.drafts.MarkPaid(ctx, session.SponsorshipIDs, paymentID); err != nil {
		return nil, fmt.Errorf("failed to mark sponsorships paid for session %s: %w", sessionID, err)
	}

	count := session.Count
	if count == 0 {
		count = len(session.SponsorshipIDs)
	}
	logger.Printf(ctx, "stripe session %s verified, %d sponsorship(s) paid", sessionID, count)
	return &StripeResult{
		Verified:       true,
		Count:          count,
		SponsorshipIDs: session.SponsorshipIDs,
		PaymentID:      paymentID,
	}, nil
}

// VerifyCheckPledge only fetches the organizer's mailing instructions. Check drafts stay
// pending until the organizer records the payment.
func (v *Verifier) VerifyCheckPledge(ctx context.Context, organizerID string) (*CheckInstructions, error) {
	profile, err := v.organizers.GetOrganizerProfile(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load organizer %s: %w", organizerID, err)
	}
	if !profile.CheckSettings.Enabled {
		return nil, ErrChecksNotAccepted
	}
	return &CheckInstructions{
		OrganizerID:    organizerID,
		OrganizerName:  profile.Name,
		PayableTo:      profile.CheckSettings.PayableTo,
		MailingAddress: profile.CheckSettings.MailingAddress,
		Instructions:   profile.CheckSettings.Instructions,
	}, nil
}
