package policy

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/xdg/cosigner/internal/clog"
	"github.com/xdg/cosigner/internal/expcache"
	"github.com/xdg/cosigner/internal/request"
	"github.com/xdg/cosigner/internal/securestore"
)

var log = clog.For("policy")

// SessionPolicy is the decision engine bound to one session's settings
// and per-host exceptions. The in-memory settings are authoritative for
// the life of the process even when persisting them fails.
type SessionPolicy struct {
	sessionID string
	m         *Manager

	mu       sync.Mutex
	settings Settings
	// hosts is nil when the cache could not be opened (storage
	// unavailable); every host lookup then misses.
	hosts *expcache.Cache
}

func loadSessionPolicy(m *Manager, sessionID string) *SessionPolicy {
	p := &SessionPolicy{sessionID: sessionID, m: m, settings: DefaultSettings()}

	if m.caches != nil {
		hosts, err := m.caches(HostsCacheName(sessionID))
		if err != nil {
			log.Warn("session %s: host cache unavailable: %v", sessionID, err)
		} else {
			p.hosts = hosts
		}
	}

	if !m.store.Available() {
		log.Warn("session %s: secure storage unavailable, using default settings", sessionID)
		return p
	}
	data, err := m.store.Get(SettingsKey(sessionID))
	switch {
	case errors.Is(err, securestore.ErrNotFound):
		return p
	case err != nil:
		log.Error("session %s: reading policy settings: %v", sessionID, err)
		return p
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		log.Error("session %s: corrupt policy settings, using defaults: %v", sessionID, err)
		return p
	}
	p.settings = s
	return p
}

// SessionID returns the session this policy belongs to.
func (p *SessionPolicy) SessionID() string {
	return p.sessionID
}

// Settings returns a copy of the current settings.
func (p *SessionPolicy) Settings() Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings.Clone()
}

// IsAllowed reports whether req may proceed without a human. It never
// fails: storage problems resolve to the safe default and team policy
// errors resolve to false.
func (p *SessionPolicy) IsAllowed(ctx context.Context, req *request.Request) bool {
	if req == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	switch b := req.Body.(type) {
	case request.Me, request.Unpair, request.NoOp:
		return true

	case request.U2FRegister, request.U2FAuthenticate:
		return p.settings.U2FZeroTouch

	case request.Hosts, request.ReadTeam, request.TeamOperation:
		return false

	case request.SSHSign:
		if b.UserHost == nil {
			return p.isAllAllowed(ctx, req) && p.settings.PermitUnknownHosts
		}
		if p.hosts != nil {
			p.hosts.RemoveExpired()
		}
		return p.isAllAllowed(ctx, req) || p.hostAllowed(b.UserHost)

	case request.GitSign, request.DecryptLog:
		return p.isAllAllowed(ctx, req)

	default:
		return false
	}
}

// isAllAllowed is the blanket check. Callers hold p.mu.
func (p *SessionPolicy) isAllAllowed(ctx context.Context, req *request.Request) bool {
	if p.settings.NeverAsk {
		ok, err := p.m.resolver.IsNeverAskAvailable(ctx)
		if err != nil {
			log.Error("session %s: checking never ask policy: %v", p.sessionID, err)
			return false
		}
		return ok
	}

	category, ok := req.AllowCategory()
	if !ok {
		return false
	}
	until, ok := p.settings.AllowedUntil[category]
	if !ok {
		return false
	}
	return p.m.now().Before(time.Unix(until, 0))
}

// hostAllowed reports a live per-host exception. Callers hold p.mu.
func (p *SessionPolicy) hostAllowed(uh *request.VerifiedUserHost) bool {
	if p.hosts == nil {
		return false
	}
	data, ok := p.hosts.Get(uh.UniqueID())
	if !ok {
		return false
	}
	var host TemporarilyAllowedHost
	if err := json.Unmarshal(data, &host); err != nil {
		log.Warn("session %s: discarding malformed host exception: %v", p.sessionID, err)
		return false
	}
	return p.m.now().Before(host.Expires)
}

// Allow records a one-time approval of req. Only read-team approvals
// change state: they grant a blanket decrypt-log allow for the window
// that follows.
func (p *SessionPolicy) Allow(ctx context.Context, req *request.Request) {
	if req == nil {
		return
	}
	switch req.Body.(type) {
	case request.ReadTeam:
		p.AllowAll(ctx, request.CategoryDecryptLog, p.m.readTeamWindow)
	case request.SSHSign, request.GitSign, request.Hosts, request.Me, request.DecryptLog,
		request.NoOp, request.Unpair, request.TeamOperation, request.U2FRegister, request.U2FAuthenticate:
		// The approval itself satisfied the request.
	}
}

// AllowAllFor grants a blanket allow for req's category, if it has one.
func (p *SessionPolicy) AllowAllFor(ctx context.Context, req *request.Request, d time.Duration) {
	category, ok := req.AllowCategory()
	if !ok {
		return
	}
	p.AllowAll(ctx, category, d)
}

// AllowAll allows every request in category for d. A blanket SSH allow
// drops all per-host exceptions.
func (p *SessionPolicy) AllowAll(ctx context.Context, category request.AllowCategory, d time.Duration) {
	until := p.m.now().Add(d)

	p.mu.Lock()
	p.settings.AllowedUntil[category] = until.Unix()
	if category == request.CategorySSH {
		p.removeAllHosts()
	}
	p.save()
	p.mu.Unlock()

	_ = p.m.audit.LogGrantAll(p.sessionID, string(category), until)
	p.m.sendAllowedPendingIfNeeded(ctx)
}

// AllowThis allows SSH requests verified for uh for d.
func (p *SessionPolicy) AllowThis(ctx context.Context, uh *request.VerifiedUserHost, d time.Duration) {
	until := p.m.now().Add(d)

	p.mu.Lock()
	if p.hosts == nil {
		log.Error("session %s: cannot save temporary host %s: storage unavailable", p.sessionID, uh)
	} else if data, err := json.Marshal(TemporarilyAllowedHost{UserHost: *uh, Expires: until}); err != nil {
		log.Error("session %s: encoding temporary host: %v", p.sessionID, err)
	} else if err := p.hosts.Set(uh.UniqueID(), data, d); err != nil {
		log.Error("session %s: saving temporary host: %v", p.sessionID, err)
	}
	p.mu.Unlock()

	_ = p.m.audit.LogGrantHost(p.sessionID, uh.String(), until)
	p.m.sendAllowedPendingIfNeeded(ctx)
}

// SetAlwaysAsk revokes every grant, including never-ask. It also marks
// legacy migration done so the old setting cannot re-enable never-ask.
func (p *SessionPolicy) SetAlwaysAsk() {
	p.mu.Lock()
	p.settings.NeverAsk = false
	p.settings.AllowedUntil = map[request.AllowCategory]int64{}
	p.settings.HasMigratedOldPolicies = true
	p.removeAllHosts()
	p.save()
	p.mu.Unlock()

	_ = p.m.audit.LogAlwaysAsk(p.sessionID, "", "")
}

// SetAlwaysAskFor revokes the blanket allow of one category.
func (p *SessionPolicy) SetAlwaysAskFor(category request.AllowCategory) {
	p.mu.Lock()
	delete(p.settings.AllowedUntil, category)
	p.save()
	p.mu.Unlock()

	_ = p.m.audit.LogAlwaysAsk(p.sessionID, string(category), "")
}

// SetAlwaysAskForHost revokes the per-host exception of uh.
func (p *SessionPolicy) SetAlwaysAskForHost(uh *request.VerifiedUserHost) {
	p.mu.Lock()
	if p.hosts != nil {
		if err := p.hosts.Remove(uh.UniqueID()); err != nil {
			log.Error("session %s: removing temporary host %s: %v", p.sessionID, uh, err)
		}
	}
	p.mu.Unlock()

	_ = p.m.audit.LogAlwaysAsk(p.sessionID, "", uh.String())
}

// SetNeverAsk turns on never-ask and drops the grants it subsumes. Team
// eligibility is not checked here; IsAllowed enforces it on every decision.
func (p *SessionPolicy) SetNeverAsk() {
	p.mu.Lock()
	p.settings.NeverAsk = true
	p.settings.AllowedUntil = map[request.AllowCategory]int64{}
	p.removeAllHosts()
	p.save()
	p.mu.Unlock()

	_ = p.m.audit.LogNeverAsk(p.sessionID)
}

// SetZeroTouch enables or disables U2F zero-touch.
func (p *SessionPolicy) SetZeroTouch(enabled bool) {
	p.update(func(s *Settings) { s.U2FZeroTouch = enabled })
}

// SetShowApprovedNotifications sets the display preference for
// auto-approved requests.
func (p *SessionPolicy) SetShowApprovedNotifications(show bool) {
	p.update(func(s *Settings) { s.ShowApprovedNotifications = show })
}

// SetPermitUnknownHosts sets whether blanket SSH allows cover requests
// without a verified host.
func (p *SessionPolicy) SetPermitUnknownHosts(permit bool) {
	p.update(func(s *Settings) { s.PermitUnknownHosts = permit })
}

// SetHasMigratedOldPolicySettings marks legacy migration done.
func (p *SessionPolicy) SetHasMigratedOldPolicySettings() {
	p.update(func(s *Settings) { s.HasMigratedOldPolicies = true })
}

func (p *SessionPolicy) update(fn func(*Settings)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.settings)
	p.save()
}

// TemporarilyApprovedHosts lists the live per-host exceptions ordered by
// expiry. Malformed entries are skipped.
func (p *SessionPolicy) TemporarilyApprovedHosts() []TemporarilyAllowedHost {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.hosts == nil {
		return nil
	}
	p.hosts.RemoveExpired()

	now := p.m.now()
	var hosts []TemporarilyAllowedHost
	for _, data := range p.hosts.AllObjects() {
		var h TemporarilyAllowedHost
		if err := json.Unmarshal(data, &h); err != nil {
			continue
		}
		if !now.Before(h.Expires) {
			continue
		}
		hosts = append(hosts, h)
	}
	sort.Slice(hosts, func(i, j int) bool { return hosts[i].Expires.Before(hosts[j].Expires) })
	return hosts
}

// Callers hold p.mu.
func (p *SessionPolicy) removeAllHosts() {
	if p.hosts == nil {
		return
	}
	if err := p.hosts.RemoveAll(); err != nil {
		log.Error("session %s: clearing temporary hosts: %v", p.sessionID, err)
	}
}

// save persists the settings. Failures are logged; the in-memory state
// stays in effect. Callers hold p.mu.
func (p *SessionPolicy) save() {
	data, err := json.Marshal(p.settings)
	if err != nil {
		log.Error("session %s: could not encode policy settings: %v", p.sessionID, err)
		return
	}
	if err := p.m.store.Set(SettingsKey(p.sessionID), data); err != nil {
		log.Error("session %s: could not save policy settings: %v", p.sessionID, err)
	}
}
