package checkout

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/internal/gateway"
	"github.com/fjod/go_cart/sponsor-checkout/internal/repository"
)

type MockLedger struct {
	mu       sync.Mutex
	Attempts []*repository.Attempt
	Err      error
}

func (m *MockLedger) RecordAttempt(_ context.Context, attempt *repository.Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Attempts = append(m.Attempts, attempt)
	return m.Err
}

// BlockingDispatcher holds every dispatch until release is closed.
type BlockingDispatcher struct {
	started chan string
	release chan struct{}
}

func NewBlockingDispatcher() *BlockingDispatcher {
	return &BlockingDispatcher{started: make(chan string, 4), release: make(chan struct{})}
}

func (d *BlockingDispatcher) Dispatch(_ context.Context, _ domain.PaymentChoice, _ domain.SystemSettings, req gateway.Request) (*gateway.Result, error) {
	d.started <- req.CheckoutSessionID
	<-d.release
	return &gateway.Result{Success: true, Method: domain.PaymentMethodSandbox, SponsorshipIDs: []string{"sp-x"}}, nil
}
