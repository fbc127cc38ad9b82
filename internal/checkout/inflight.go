package checkout

import "sync"

// inFlight is the per-checkout-session double-submission guard. Different sessions never
// contend with each other.
type inFlight struct {
	mu       sync.Mutex
	sessions map[string]struct{}
}

func newInFlight() *inFlight {
	return &inFlight{sessions: make(map[string]struct{})}
}

func (f *inFlight) acquire(sessionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, held := f.sessions[sessionID]; held {
		return false
	}
	f.sessions[sessionID] = struct{}{}
	return true
}

func (f *inFlight) release(sessionID string) {
	f.mu.Lock()
	delete(f.sessions, sessionID)
	f.mu.Unlock()
}
