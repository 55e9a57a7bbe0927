// Package config provides the cosigner global configuration. The types map
// to ~/.config/cosigner/config.yaml.
package config

import (
	"path/filepath"
	"time"
)

// GlobalConfig represents the top-level configuration for cosigner.
type GlobalConfig struct {
	Storage StorageConfig `yaml:"storage,omitempty"`
	Team    TeamConfig    `yaml:"team,omitempty"`
	Policy  PolicyConfig  `yaml:"policy,omitempty"`
	Sweep   SweepConfig   `yaml:"sweep,omitempty"`
	Log     LogConfig     `yaml:"log,omitempty"`
}

// StorageConfig locates the on-disk state: the sealed key/blob store, the
// temporal allow caches and the paired session registry.
type StorageConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// SecureStoreDir returns the directory of the sealed key/blob store.
func (s StorageConfig) SecureStoreDir() string {
	return filepath.Join(s.Dir, "keychain")
}

// CacheRoot returns the parent directory of every cache namespace.
func (s StorageConfig) CacheRoot() string {
	return filepath.Join(s.Dir, "caches")
}

// SessionsDir returns the directory of the session registry.
func (s StorageConfig) SessionsDir() string {
	return filepath.Join(s.Dir, "sessions")
}

// TeamConfig identifies the team this installation belongs to. An empty
// Database means no team identity.
type TeamConfig struct {
	Database string `yaml:"database,omitempty"`
	ID       string `yaml:"id,omitempty"`
}

// Linked reports whether both the database and the team id are set.
func (t TeamConfig) Linked() bool {
	return t.Database != "" && t.ID != ""
}

// PolicyConfig holds the durations used by the decision engine.
type PolicyConfig struct {
	DefaultTemporaryApproval string `yaml:"default_temporary_approval,omitempty"`
	ReadTeamDecryptLogWindow string `yaml:"readteam_decrypt_log_window,omitempty"`
}

// TemporaryApproval returns the parsed default temporary approval, falling
// back to the built-in default when unset or invalid. Validation rejects
// invalid values before they reach here.
func (p PolicyConfig) TemporaryApproval() time.Duration {
	return durationOr(p.DefaultTemporaryApproval, defaultTemporaryApproval)
}

// DecryptLogWindow returns the parsed read-team decrypt log window.
func (p PolicyConfig) DecryptLogWindow() time.Duration {
	return durationOr(p.ReadTeamDecryptLogWindow, defaultDecryptLogWindow)
}

// SweepConfig controls the daemon's expired-entry sweeper.
type SweepConfig struct {
	Schedule string `yaml:"schedule,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	File      string `yaml:"file,omitempty"`
	Level     string `yaml:"level,omitempty"`
	AuditFile string `yaml:"audit_file,omitempty"`
}

func durationOr(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
