package policy

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/xdg/cosigner/internal/securestore"
	"github.com/xdg/cosigner/internal/session"
)

// MigrateOldPolicySettingsIfNeeded turns a legacy "don't require user
// approval" setting into never-ask, once per session. It reports whether
// the session was migrated.
func (m *Manager) MigrateOldPolicySettingsIfNeeded(sessionID string) bool {
	p := m.For(sessionID)
	if p.Settings().HasMigratedOldPolicies || m.legacy == nil {
		return false
	}
	needsApproval, ok := m.legacy.UserApproval(sessionID)
	if !ok || needsApproval {
		return false
	}

	p.SetHasMigratedOldPolicySettings()
	p.SetNeverAsk()
	log.Info("session %s: migrated legacy approval setting to never ask", sessionID)
	_ = m.audit.LogMigrate(sessionID, "legacy user approval disabled: never ask")
	return true
}

// MigrateZeroTouchBrowserSettingIfNeeded propagates a disabled legacy
// global "U2F requires interaction" flag to every browser session as
// zero-touch, then deletes the flag. It returns the number of sessions
// changed. A missing flag means there is nothing to migrate.
func (m *Manager) MigrateZeroTouchBrowserSettingIfNeeded(sessions []*session.Session) (int, error) {
	old, err := m.store.Get(U2FRequiresApprovalKey)
	if errors.Is(err, securestore.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		log.Error("migrating zero touch: %v", err)
		return 0, fmt.Errorf("migrate zero touch: %w", err)
	}

	migrated := 0
	if bytes.Equal(old, []byte{0x00}) {
		for _, s := range sessions {
			if !s.Browser {
				continue
			}
			m.For(s.ID).SetZeroTouch(true)
			_ = m.audit.LogMigrate(s.ID, "legacy u2f interaction disabled: zero touch")
			migrated++
		}
	}

	if err := m.SetRequireUserInteractionU2F(true); err != nil {
		log.Error("migrating zero touch: %v", err)
		return migrated, err
	}
	if err := m.store.Delete(U2FRequiresApprovalKey); err != nil && !errors.Is(err, securestore.ErrNotFound) {
		log.Error("migrating zero touch: %v", err)
		return migrated, fmt.Errorf("migrate zero touch: delete flag: %w", err)
	}
	return migrated, nil
}
