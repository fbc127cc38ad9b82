package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/pkg/logger"
)

// StorageKeyPrefix is the fixed storage key; the client id scopes it to one browser.
const StorageKeyPrefix = "sponsor_guest_session:"

// GuestSessions stores one GuestSession JSON blob per client. It is a convenience path to
// fulfillment pages only; account linkage on the backend is authoritative.
type GuestSessions struct {
	kv  KV
	now func() time.Time
}

type Option func(*GuestSessions)

func WithClock(now func() time.Time) Option {
	return func(g *GuestSessions) {
		g.now = now
	}
}

func NewGuestSessions(kv KV, opts ...Option) *GuestSessions {
	g := &GuestSessions{kv: kv, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func storageKey(clientID string) string {
	return StorageKeyPrefix + clientID
}

// Get returns the client's session, or nil when there is none or it has expired.
func (g *GuestSessions) Get(ctx context.Context, clientID string) (*domain.GuestSession, error) {
	data, err := g.kv.Get(ctx, storageKey(clientID))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var s domain.GuestSession
	if err := json.Unmarshal(data, &s); err != nil {
		logger.Printf(ctx, "discarding unreadable guest session for client %s: %v", clientID, err)
		_ = g.kv.Delete(ctx, storageKey(clientID))
		return nil, nil
	}
	if !s.IsValidAt(g.now()) {
		_ = g.kv.Delete(ctx, storageKey(clientID))
		return nil, nil
	}
	return &s, nil
}

// Save records sponsorships bought by a guest. Purchases under the same email extend the
// current session (ids merged, original creation time kept); a different email replaces it.
func (g *GuestSessions) Save(ctx context.Context, clientID, email string, sponsorshipIDs []string) (*domain.GuestSession, error) {
	if clientID == "" {
		return nil, errors.New("guest session requires a client id")
	}
	current, err := g.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}

	next := &domain.GuestSession{Email: email, SponsorshipIDs: []string{}, CreatedAt: g.now().UTC()}
	if current != nil && domain.EmailMatches(current.Email, email) {
		next.CreatedAt = current.CreatedAt
		next.SponsorshipIDs = append(next.SponsorshipIDs, current.SponsorshipIDs...)
	}
	for _, id := range sponsorshipIDs {
		if !slices.Contains(next.SponsorshipIDs, id) {
			next.SponsorshipIDs = append(next.SponsorshipIDs, id)
		}
	}

	data, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("marshal guest session failed: %w", err)
	}
	ttl := domain.GuestSessionTTL - g.now().Sub(next.CreatedAt)
	if err := g.kv.Set(ctx, storageKey(clientID), data, ttl); err != nil {
		return nil, err
	}
	return next, nil
}

// Clear drops the session once its sponsorships are linked to an account.
func (g *GuestSessions) Clear(ctx context.Context, clientID string) error {
	return g.kv.Delete(ctx, storageKey(clientID))
}
