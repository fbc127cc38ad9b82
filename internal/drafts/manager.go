// Package drafts creates, advances, and compensates the provisional sponsorship records
// written ahead of a payment attempt.
package drafts

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/internal/backend"
	"github.com/fjod/go_cart/sponsor-checkout/internal/identity"
	"github.com/fjod/go_cart/sponsor-checkout/pkg/logger"
	"github.com/shopspring/decimal"
)

type Store interface {
	CreateSponsorship(ctx context.Context, req backend.CreateSponsorshipRequest) (string, error)
	GetSponsorship(ctx context.Context, id string) (*domain.SponsorshipDraft, error)
	UpdateSponsorship(ctx context.Context, id string, update backend.SponsorshipUpdate) error
	DeleteSponsorship(ctx context.Context, id string) error
}

type Options struct {
	// Status defaults to pending.
	Status        domain.SponsorshipStatus
	PaymentMethod domain.PaymentMethod
	// Amounts holds one amount per cart item; nil means the bare item price.
	Amounts []decimal.Decimal
	IsTest  bool
}

type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// CreateDrafts writes one draft per cart item, each with its own copy of sponsor taken at
// call time. Writes are independent; if one fails, the drafts already written are cleaned
// up before the error is returned.
func (m *Manager) CreateDrafts(
	ctx context.Context,
	auth *domain.AuthContext,
	items []domain.CartItem,
	sponsor domain.SponsorInfo,
	opts Options) ([]string, error) {

	if err := sponsor.Validate(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &domain.ValidationError{Field: "items", Message: "cart is empty"}
	}
	if opts.Amounts != nil && len(opts.Amounts) != len(items) {
		return nil, ErrAmountMismatch
	}
	status := opts.Status
	if status == "" {
		status = domain.SponsorshipStatusPending
	}

	sponsorUserID := identity.ResolveSponsorUserID(auth, sponsor.Email)

	ids := make([]string, 0, len(items))
	for i, item := range items {
		amount := item.Price
		if opts.Amounts != nil {
			amount = opts.Amounts[i]
		}
		snapshot := sponsor

		id, err := m.store.CreateSponsorship(ctx, backend.CreateSponsorshipRequest{
			OrganizerID:   item.OrganizerID,
			PackageID:     item.PackageID,
			PackageTitle:  item.Title,
			Amount:        amount,
			Status:        status,
			PayerEmail:    snapshot.Email,
			SponsorUserID: sponsorUserID,
			SponsorName:   snapshot.ContactName,
			SponsorEmail:  snapshot.Email,
			SponsorPhone:  snapshot.Phone,
			SponsorInfo:   snapshot,
			PaymentMethod: opts.PaymentMethod,
			IsTest:        opts.IsTest,
		})
		if err != nil {
			logger.Printf(ctx, "create draft for package %s failed after %d drafts: %v", item.PackageID, len(ids), err)
			m.CleanupDrafts(ctx, ids)
			return nil, fmt.Errorf("failed to create sponsorship draft: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CleanupDrafts deletes drafts as a compensating action. It is best-effort: a failed delete
// is logged and the rest still run. It runs even when ctx is already cancelled.
func (m *Manager) CleanupDrafts(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}
	cleanupCtx := context.WithoutCancel(ctx)
	for _, id := range ids {
		err := m.store.DeleteSponsorship(cleanupCtx, id)
		if err != nil && !errors.Is(err, backend.ErrNotFound) {
			logger.Printf(ctx, "cleanup of draft %s failed: %v", id, err)
			continue
		}
		logger.Printf(ctx, "draft %s cleaned up", id)
	}
}

// TransitionStatus moves a draft forward. Asking for the status it already has changes
// nothing; asking to move backwards is ErrIllegalTransition.
func (m *Manager) TransitionStatus(ctx context.Context, id string, newStatus domain.SponsorshipStatus, paymentID string) error {
	return m.transition(ctx, id, newStatus, paymentID, false)
}

// transition applies newStatus. With allowReached, a draft already at or past newStatus
// is left alone instead of being reported as a backwards move.
func (m *Manager) transition(ctx context.Context, id string, newStatus domain.SponsorshipStatus, paymentID string, allowReached bool) error {
	if !newStatus.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrIllegalTransition, newStatus)
	}
	draft, err := m.store.GetSponsorship(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load draft %s: %w", id, err)
	}
	if draft.Status == newStatus || (allowReached && draft.Status.HasReached(newStatus)) {
		return nil
	}
	if !domain.CanTransitionTo(draft.Status, newStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, draft.Status, newStatus)
	}

	update := backend.SponsorshipUpdate{Status: &newStatus}
	if paymentID != "" {
		update.PaymentID = &paymentID
	}
	if err := m.store.UpdateSponsorship(ctx, id, update); err != nil {
		return fmt.Errorf("failed to update draft %s: %w", id, err)
	}
	return nil
}

// MarkPaid transitions every draft to paid, attempting all of them before reporting errors.
// Drafts already paid or further along are left as they are, so repeating it is safe.
func (m *Manager) MarkPaid(ctx context.Context, ids []string, paymentID string) error {
	var errs []error
	for _, id := range ids {
		if err := m.transition(ctx, id, domain.SponsorshipStatusPaid, paymentID, true); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
