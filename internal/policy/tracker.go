package policy

import (
	"context"
	"sync"
	"time"

	"github.com/xdg/cosigner/internal/request"
	"github.com/xdg/cosigner/internal/session"
)

// Pending is a request waiting for a human answer.
type Pending struct {
	Session *session.Session
	Request *request.Request
	Since   time.Time
}

// Matches reports whether p is the given request of the given session.
func (p Pending) Matches(sessionID, requestID string) bool {
	return p.Session != nil && p.Request != nil &&
		p.Session.ID == sessionID && p.Request.ID == requestID
}

// Tracker holds at most one pending authorization. A new pending request
// replaces the previous one; each request's own outcome is independent
// of the slot.
type Tracker struct {
	mu        sync.Mutex
	pending   *Pending
	displayed bool
	send      func(Pending)
}

// NewTracker returns an empty tracker. send, if not nil, receives a
// pending request that a later grant allowed.
func NewTracker(send func(Pending)) *Tracker {
	return &Tracker{send: send}
}

// Set records p as the pending authorization, replacing any other. The
// prompt for p is assumed to be on screen.
func (t *Tracker) Set(p Pending) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = &p
	t.displayed = true
}

// Current returns the pending authorization, if any.
func (t *Tracker) Current() (Pending, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == nil {
		return Pending{}, false
	}
	return *t.pending, true
}

// Clear empties the slot if it holds the given request. It reports
// whether anything was cleared.
func (t *Tracker) Clear(sessionID, requestID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == nil || !t.pending.Matches(sessionID, requestID) {
		return false
	}
	t.pending = nil
	return true
}

// ClearSession empties the slot if it belongs to sessionID.
func (t *Tracker) ClearSession(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending != nil && t.pending.Session != nil && t.pending.Session.ID == sessionID {
		t.pending = nil
	}
}

// Background notes that the prompt is no longer on screen.
func (t *Tracker) Background() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.displayed = false
}

// Resurface returns the pending authorization when its prompt should be
// shown again: once after each Background, never twice for the same
// display cycle.
func (t *Tracker) Resurface() (Pending, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == nil || t.displayed {
		return Pending{}, false
	}
	t.displayed = true
	return *t.pending, true
}

// SendAllowedPendingIfNeeded checks the pending request against allowed
// and, when it is now allowed, clears the slot and hands the request to
// the sender. The check runs without the tracker lock held.
func (t *Tracker) SendAllowedPendingIfNeeded(ctx context.Context, allowed func(context.Context, Pending) bool) (Pending, bool) {
	p, ok := t.Current()
	if !ok || !allowed(ctx, p) {
		return Pending{}, false
	}

	t.mu.Lock()
	if t.pending == nil || !t.pending.Matches(p.Session.ID, p.Request.ID) {
		t.mu.Unlock()
		return Pending{}, false
	}
	t.pending = nil
	send := t.send
	t.mu.Unlock()

	if send != nil {
		send(p)
	}
	return p, true
}
