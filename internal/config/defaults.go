package config

import "time"

const (
	defaultTemporaryApproval = 3 * time.Hour
	defaultDecryptLogWindow  = 6 * time.Hour
	defaultSweepSchedule     = "@every 1m"
)

// DefaultGlobalConfig returns a GlobalConfig with all defaults populated.
// No team database is configured by default, so never-ask stays available
// until a team identity is linked.
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Storage: StorageConfig{
			Dir: "~/.local/share/cosigner",
		},
		Policy: PolicyConfig{
			DefaultTemporaryApproval: "3h",
			ReadTeamDecryptLogWindow: "6h",
		},
		Sweep: SweepConfig{
			Schedule: defaultSweepSchedule,
		},
		Log: LogConfig{
			File:      "~/.local/state/cosigner/cosigner.log",
			Level:     "info",
			AuditFile: "~/.local/state/cosigner/audit.log",
		},
	}
}

// applyDefaults fills fields that a partial config file left empty.
func applyDefaults(cfg *GlobalConfig) {
	def := DefaultGlobalConfig()
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = def.Storage.Dir
	}
	if cfg.Policy.DefaultTemporaryApproval == "" {
		cfg.Policy.DefaultTemporaryApproval = def.Policy.DefaultTemporaryApproval
	}
	if cfg.Policy.ReadTeamDecryptLogWindow == "" {
		cfg.Policy.ReadTeamDecryptLogWindow = def.Policy.ReadTeamDecryptLogWindow
	}
	if cfg.Sweep.Schedule == "" {
		cfg.Sweep.Schedule = def.Sweep.Schedule
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
}
