// Package quota is a process-local, last-known quota/health state tracker
// for the external providers of §4.2. It recovers the *intent* of the
// original backend's operator diagnostic scripts (checking each provider's
// quota before reporting healthy) without reproducing their
// provider-specific mechanics, which SPEC_FULL's supplemented
// "quota/health diagnostics endpoint" feature explicitly scopes out.
package quota

import "sync"

// Tracker records, per provider name, whether the most recent call returned
// a quota-exceeded classification. It has no memory of individual calls or
// time windows — only "last known state" — which is all a liveness-style
// health check needs.
type Tracker struct {
	mu    sync.Mutex
	state map[string]bool
}

func NewTracker() *Tracker {
	return &Tracker{state: map[string]bool{}}
}

// Mark records whether provider's most recent call hit its quota. A nil
// receiver is a no-op so callers can wire a *Tracker optionally.
func (t *Tracker) Mark(provider string, quotaExceeded bool) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state[provider] = quotaExceeded
}

// Snapshot returns a copy of the current per-provider quota state. A nil
// receiver returns an empty map.
func (t *Tracker) Snapshot() map[string]bool {
	if t == nil {
		return map[string]bool{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]bool, len(t.state))
	for k, v := range t.state {
		out[k] = v
	}
	return out
}
