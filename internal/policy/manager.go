package policy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/xdg/cosigner/internal/audit"
	"github.com/xdg/cosigner/internal/expcache"
	"github.com/xdg/cosigner/internal/request"
	"github.com/xdg/cosigner/internal/securestore"
	"github.com/xdg/cosigner/internal/session"
	"github.com/xdg/cosigner/internal/team"
)

// DefaultReadTeamDecryptLogWindow is how long log decryption stays
// allowed after a read-team approval.
const DefaultReadTeamDecryptLogWindow = 6 * time.Hour

// NeverAskResolver reports whether team policy lets never-ask take effect.
// *team.Resolver implements it.
type NeverAskResolver interface {
	IsNeverAskAvailable(ctx context.Context) (bool, error)
}

// LegacySource exposes the old shared defaults the per-session migration
// reads. *LegacyDefaults implements it.
type LegacySource interface {
	// UserApproval returns the old "requires user approval" flag of a
	// session; ok is false when it was never set.
	UserApproval(sessionID string) (needsApproval, ok bool)
}

// Options configures a Manager. Store is required.
type Options struct {
	Store    Storage
	Caches   CacheOpener
	Resolver NeverAskResolver
	Tracker  *Tracker
	Audit    *audit.Logger
	Legacy   LegacySource
	// ReadTeamDecryptLogWindow defaults to DefaultReadTeamDecryptLogWindow.
	ReadTeamDecryptLogWindow time.Duration
	Now                      func() time.Time
}

// Manager owns the policy of every session in the process and the
// pending authorization slot.
type Manager struct {
	store          Storage
	caches         CacheOpener
	resolver       NeverAskResolver
	tracker        *Tracker
	audit          *audit.Logger
	legacy         LegacySource
	readTeamWindow time.Duration
	now            func() time.Time

	mu       sync.Mutex
	sessions map[string]*SessionPolicy
}

// NewManager returns a manager for opts.
func NewManager(opts Options) *Manager {
	m := &Manager{
		store:          opts.Store,
		caches:         opts.Caches,
		resolver:       opts.Resolver,
		tracker:        opts.Tracker,
		audit:          opts.Audit,
		legacy:         opts.Legacy,
		readTeamWindow: opts.ReadTeamDecryptLogWindow,
		now:            opts.Now,
		sessions:       make(map[string]*SessionPolicy),
	}
	if m.resolver == nil {
		m.resolver = team.NewResolver(nil, 0)
	}
	if m.tracker == nil {
		m.tracker = NewTracker(nil)
	}
	if m.readTeamWindow <= 0 {
		m.readTeamWindow = DefaultReadTeamDecryptLogWindow
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Tracker returns the pending authorization tracker.
func (m *Manager) Tracker() *Tracker {
	return m.tracker
}

// For returns the policy of a session, loading it on first use.
func (m *Manager) For(sessionID string) *SessionPolicy {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.sessions[sessionID]; ok {
		return p
	}
	p := loadSessionPolicy(m, sessionID)
	m.sessions[sessionID] = p
	return p
}

// Caches returns the host caches of every loaded session, for sweeping.
func (m *Manager) Caches() []*expcache.Cache {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var caches []*expcache.Cache
	for _, id := range ids {
		if c := m.sessions[id].hosts; c != nil {
			caches = append(caches, c)
		}
	}
	return caches
}

func decisionFor(s *session.Session, req *request.Request) audit.Decision {
	d := audit.Decision{Session: s.ID, Request: req.ID, Kind: req.Kind().String(), Summary: req.Summary()}
	if uh := req.UserHost(); uh != nil {
		d.Host = uh.String()
	}
	return d
}

// Evaluate decides req for s. An AskHuman verdict records req as the
// pending authorization.
func (m *Manager) Evaluate(ctx context.Context, s *session.Session, req *request.Request) Decision {
	d := decisionFor(s, req)
	if m.For(s.ID).IsAllowed(ctx, req) {
		_ = m.audit.LogAutoApprove(d)
		return Allow
	}
	if !req.IsApprovable() {
		_ = m.audit.LogDeny(d, "request cannot be approved")
		return Deny
	}
	m.tracker.Set(Pending{Session: s, Request: req, Since: m.now()})
	_ = m.audit.LogAsk(d)
	return AskHuman
}

// Respond records a human's answer to req. The pending slot is cleared
// if it still holds req.
func (m *Manager) Respond(ctx context.Context, s *session.Session, req *request.Request, approved bool) {
	m.tracker.Clear(s.ID, req.ID)
	d := decisionFor(s, req)
	if !approved {
		_ = m.audit.LogReject(d)
		return
	}
	m.For(s.ID).Allow(ctx, req)
	_ = m.audit.LogApprove(d)
}

// sendAllowedPendingIfNeeded hands the pending request to the tracker's
// sender when a new grant now allows it.
func (m *Manager) sendAllowedPendingIfNeeded(ctx context.Context) {
	p, sent := m.tracker.SendAllowedPendingIfNeeded(ctx, func(ctx context.Context, p Pending) bool {
		return m.For(p.Session.ID).IsAllowed(ctx, p.Request)
	})
	if sent {
		_ = m.audit.LogAutoApprove(decisionFor(p.Session, p.Request))
	}
}

// Destroy deletes a session's policy state: its settings and every
// per-host exception. Used at unpair.
func (m *Manager) Destroy(sessionID string) error {
	m.mu.Lock()
	p := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	var errs []error
	if err := m.store.Delete(SettingsKey(sessionID)); err != nil && !errors.Is(err, securestore.ErrNotFound) {
		errs = append(errs, fmt.Errorf("delete settings: %w", err))
	}

	var hosts *expcache.Cache
	if p != nil {
		hosts = p.hosts
	} else if m.caches != nil {
		if c, err := m.caches(HostsCacheName(sessionID)); err == nil {
			hosts = c
		} else if !errors.Is(err, securestore.ErrUnavailable) {
			errs = append(errs, fmt.Errorf("open host cache: %w", err))
		}
	}
	if hosts != nil {
		if err := hosts.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("destroy host cache: %w", err))
		}
	}

	m.tracker.ClearSession(sessionID)
	_ = m.audit.LogUnpair(sessionID)
	return errors.Join(errs...)
}

// RequireUserInteractionU2F reports the legacy global flag. It defaults
// to true when unset or unreadable.
func (m *Manager) RequireUserInteractionU2F() bool {
	data, err := m.store.Get(U2FRequiresApprovalKey)
	if err != nil {
		return true
	}
	return bytes.Equal(data, []byte{0x01})
}

// SetRequireUserInteractionU2F stores the legacy global flag.
func (m *Manager) SetRequireUserInteractionU2F(require bool) error {
	b := byte(0x00)
	if require {
		b = 0x01
	}
	if err := m.store.Set(U2FRequiresApprovalKey, []byte{b}); err != nil {
		return fmt.Errorf("set u2f interaction flag: %w", err)
	}
	return nil
}
