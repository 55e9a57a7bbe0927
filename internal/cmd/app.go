package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/xdg/cosigner/internal/audit"
	"github.com/xdg/cosigner/internal/clog"
	"github.com/xdg/cosigner/internal/config"
	"github.com/xdg/cosigner/internal/expcache"
	"github.com/xdg/cosigner/internal/notify"
	"github.com/xdg/cosigner/internal/policy"
	"github.com/xdg/cosigner/internal/securestore"
	"github.com/xdg/cosigner/internal/session"
	"github.com/xdg/cosigner/internal/team"
)

// app is the state every policy command works on, opened from the config.
type app struct {
	cfg      *config.GlobalConfig
	store    *securestore.Store
	sessions *session.Registry
	teams    *team.ConfigIdentityProvider
	resolver *team.Resolver
	policy   *policy.Manager
	caches   policy.CacheOpener
	notes    *notify.Presenter

	auditFile *os.File
}

func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(cfg)
}

func newApp(cfg *config.GlobalConfig) (*app, error) {
	store, err := securestore.Open(cfg.Storage.SecureStoreDir(), securestore.Options{CreateIdentity: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open secure storage: %w", err)
	}
	if !store.Available() {
		clog.Warn("secure storage at %s is unavailable; using default settings", store.Dir())
	}

	sessions, err := session.NewRegistry(cfg.Storage.SessionsDir())
	if err != nil {
		return nil, fmt.Errorf("failed to open session registry: %w", err)
	}

	a := &app{cfg: cfg, store: store, sessions: sessions}

	var auditLog *audit.Logger
	if cfg.Log.AuditFile != "" {
		f, err := clog.OpenLogFile(cfg.Log.AuditFile)
		if err != nil {
			clog.Warn("failed to open audit log file %s: %v", cfg.Log.AuditFile, err)
		} else {
			a.auditFile = f
			auditLog = audit.NewLogger(f)
			auditLog.SetClock(now)
		}
	}

	legacy, err := policy.LoadLegacyDefaults(config.LegacyDefaultsPath())
	if err != nil {
		clog.Warn("ignoring legacy defaults: %v", err)
		legacy = policy.NewLegacyDefaults(nil)
	}

	a.teams = &team.ConfigIdentityProvider{DatabasePath: cfg.Team.Database, TeamID: cfg.Team.ID}
	a.resolver = team.NewResolver(a.teams, cfg.Policy.TemporaryApproval())
	a.caches = policy.NewCacheOpener(cfg.Storage.CacheRoot(), store.Sealer(), now)
	a.policy = policy.NewManager(policy.Options{
		Store:                    store,
		Caches:                   a.caches,
		Resolver:                 a.resolver,
		Audit:                    auditLog,
		Legacy:                   legacy,
		ReadTeamDecryptLogWindow: cfg.Policy.DecryptLogWindow(),
		Now:                      now,
	})
	return a, nil
}

// inAppFilter returns the duplicate presentation filter, or a filter that
// suppresses nothing when its cache cannot be opened.
func (a *app) inAppFilter() *notify.InAppFilter {
	c, err := a.caches(notify.InAppCacheName)
	if err != nil {
		clog.Debug("in-app cache unavailable: %v", err)
		return notify.NewInAppFilter(nil)
	}
	return notify.NewInAppFilter(c)
}

// presenter returns the notification numbering, which restarts every
// group when its cache cannot be opened.
func (a *app) presenter() *notify.Presenter {
	if a.notes == nil {
		c, err := a.caches(notify.ShownCacheName)
		if err != nil {
			clog.Debug("shown notification cache unavailable: %v", err)
		}
		a.notes = notify.NewPresenter(c)
	}
	return a.notes
}

// allCaches loads the policy of every paired session and returns their
// host caches plus the in-app cache, for the sweeper.
func (a *app) allCaches() []*expcache.Cache {
	list, err := a.sessions.List()
	if err != nil {
		clog.Warn("listing sessions for sweep: %v", err)
	}
	for _, s := range list {
		a.policy.For(s.ID)
	}
	caches := a.policy.Caches()
	for _, name := range []string{notify.InAppCacheName, notify.ShownCacheName} {
		if c, err := a.caches(name); err == nil {
			caches = append(caches, c)
		}
	}
	return caches
}

func (a *app) lookupSession(ref string) (*session.Session, error) {
	s, err := a.sessions.Lookup(ref)
	if err != nil {
		return nil, sessionLookupError(ref, err)
	}
	return s, nil
}

func (a *app) Close() error {
	var errs []error
	if err := a.teams.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.auditFile != nil {
		if err := a.auditFile.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
