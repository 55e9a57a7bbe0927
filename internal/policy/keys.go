package policy

import (
	"time"

	"github.com/xdg/cosigner/internal/expcache"
	"github.com/xdg/cosigner/internal/securestore"
)

// Storage key prefixes. Each is suffixed with "_<session id>".
const (
	settingsKeyPrefix     = "policy_settings"
	hostsCachePrefix      = "policy_temporarily_approved_user_at_hosts"
	legacyUserApprovalKey = "policy_user_approval"
)

// U2FRequiresApprovalKey holds the legacy global "U2F requires
// interaction" flag as a single byte.
const U2FRequiresApprovalKey = "u2f_requires_approval"

// SettingsKey is the secure store key of a session's settings.
func SettingsKey(sessionID string) string {
	return settingsKeyPrefix + "_" + sessionID
}

// HostsCacheName is the cache namespace of a session's per-host exceptions.
func HostsCacheName(sessionID string) string {
	return hostsCachePrefix + "_" + sessionID
}

// LegacyUserApprovalKey is the legacy defaults key of a session's old
// "requires user approval" flag.
func LegacyUserApprovalKey(sessionID string) string {
	return legacyUserApprovalKey + "_" + sessionID
}

// Storage is the secure-at-rest store settings are kept in.
// *securestore.Store implements it.
type Storage interface {
	Available() bool
	Get(key string) ([]byte, error)
	Set(key string, data []byte) error
	Delete(key string) error
}

var _ Storage = (*securestore.Store)(nil)

// CacheOpener opens the named expiring cache.
type CacheOpener func(name string) (*expcache.Cache, error)

// NewCacheOpener opens caches under root sealed by sealer. A nil sealer
// (storage unavailable) makes every open fail.
func NewCacheOpener(root string, sealer *securestore.Sealer, now func() time.Time) CacheOpener {
	return func(name string) (*expcache.Cache, error) {
		return expcache.Open(root, name, sealer, now)
	}
}
