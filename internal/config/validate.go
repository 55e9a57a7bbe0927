package config

import (
	"fmt"
	"time"

	"github.com/xdg/cosigner/internal/expcache"
)

// validLogLevels defines the allowed log level values.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateGlobalConfig validates a parsed GlobalConfig. It checks that:
//   - policy durations parse and are positive
//   - sweep.schedule is a valid cron schedule
//   - log.level is one of: debug, info, warn, error (if non-empty)
//   - team.database and team.id are set together
//
// Returns nil if the config is valid, or an error naming the invalid field.
func ValidateGlobalConfig(cfg *GlobalConfig) error {
	if cfg.Policy.DefaultTemporaryApproval != "" {
		if err := validateDuration(cfg.Policy.DefaultTemporaryApproval, "policy.default_temporary_approval"); err != nil {
			return err
		}
	}
	if cfg.Policy.ReadTeamDecryptLogWindow != "" {
		if err := validateDuration(cfg.Policy.ReadTeamDecryptLogWindow, "policy.readteam_decrypt_log_window"); err != nil {
			return err
		}
	}

	if cfg.Sweep.Schedule != "" {
		if err := expcache.ValidateSchedule(cfg.Sweep.Schedule); err != nil {
			return fmt.Errorf("sweep.schedule: %w", err)
		}
	}

	switch {
	case cfg.Team.Database != "" && cfg.Team.ID == "":
		return fmt.Errorf("team.id: required when team.database is set")
	case cfg.Team.ID != "" && cfg.Team.Database == "":
		return fmt.Errorf("team.database: required when team.id is set")
	}

	if cfg.Log.Level != "" {
		if !validLogLevels[cfg.Log.Level] {
			return fmt.Errorf("log.level: invalid value %q, must be one of: debug, info, warn, error", cfg.Log.Level)
		}
	}

	return nil
}

// validateDuration validates that a duration string parses and is positive.
func validateDuration(d, field string) error {
	v, err := time.ParseDuration(d)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", field, d)
	}
	if v <= 0 {
		return fmt.Errorf("%s: must be positive, got %q", field, d)
	}
	return nil
}
