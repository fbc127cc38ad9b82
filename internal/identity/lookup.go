package identity

import (
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_cart/sponsor-checkout/domain"
	"github.com/fjod/go_cart/sponsor-checkout/internal/debounce"
	"github.com/fjod/go_cart/sponsor-checkout/pkg/logger"
)

// LookupState is what the sponsor form shows for the email typed so far.
type LookupState struct {
	Email   string                         `json:"email"`
	Pending bool                           `json:"pending"`
	Result  *domain.ReturningSponsorLookup `json:"result,omitempty"`
}

// DebouncedLookup follows one form's email field. Each Update supersedes the previous
// one, and a lookup that finishes after a newer Update never overwrites its state.
type DebouncedLookup struct {
	reconciler *Reconciler
	task       *debounce.Task
	delay      time.Duration

	mu    sync.Mutex
	state LookupState
}

func NewDebouncedLookup(reconciler *Reconciler, sched debounce.Scheduler) *DebouncedLookup {
	return &DebouncedLookup{
		reconciler: reconciler,
		task:       debounce.NewTask(sched),
		delay:      LookupDebounce,
	}
}

// Update records the latest email and schedules a lookup for it. Invalid emails resolve
// to "not found" immediately.
func (d *DebouncedLookup) Update(email string) {
	email = strings.TrimSpace(email)
	if !IsValidEmail(email) {
		d.task.Cancel()
		d.set(LookupState{Email: email, Result: domain.NotFoundLookup()})
		return
	}

	// Invalidate any run in flight before publishing the new pending state.
	d.task.Cancel()
	d.set(LookupState{Email: email, Pending: true})
	d.task.Schedule(func(run debounce.Run) {
		result, err := d.reconciler.LookupReturningSponsor(run.Context(), email)
		if err != nil {
			logger.Printf(run.Context(), "returning sponsor lookup failed: %v", err)
			result = domain.NotFoundLookup()
		}
		run.Commit(func() {
			d.set(LookupState{Email: email, Result: result})
		})
	}, d.delay)
}

func (d *DebouncedLookup) Cancel() {
	d.task.Cancel()
	d.mu.Lock()
	d.state.Pending = false
	d.mu.Unlock()
}

func (d *DebouncedLookup) State() LookupState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *DebouncedLookup) set(s LookupState) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}
