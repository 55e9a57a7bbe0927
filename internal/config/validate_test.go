package config

import (
	"strings"
	"testing"
)

func TestValidateGlobalConfig_Empty(t *testing.T) {
	if err := ValidateGlobalConfig(&GlobalConfig{}); err != nil {
		t.Errorf("ValidateGlobalConfig(empty) error = %v, want nil", err)
	}
}

func TestValidateGlobalConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		cfg     GlobalConfig
		errText string
	}{
		{
			name:    "unparseable approval",
			cfg:     GlobalConfig{Policy: PolicyConfig{DefaultTemporaryApproval: "3 hours"}},
			errText: "policy.default_temporary_approval: invalid duration",
		},
		{
			name:    "zero approval",
			cfg:     GlobalConfig{Policy: PolicyConfig{DefaultTemporaryApproval: "0s"}},
			errText: "must be positive",
		},
		{
			name:    "negative window",
			cfg:     GlobalConfig{Policy: PolicyConfig{ReadTeamDecryptLogWindow: "-6h"}},
			errText: "policy.readteam_decrypt_log_window: must be positive",
		},
		{
			name:    "bad schedule",
			cfg:     GlobalConfig{Sweep: SweepConfig{Schedule: "sometimes"}},
			errText: "sweep.schedule",
		},
		{
			name:    "database without id",
			cfg:     GlobalConfig{Team: TeamConfig{Database: "/tmp/team.db"}},
			errText: "team.id",
		},
		{
			name:    "id without database",
			cfg:     GlobalConfig{Team: TeamConfig{ID: "acme"}},
			errText: "team.database: required",
		},
		{
			name:    "unknown level",
			cfg:     GlobalConfig{Log: LogConfig{Level: "trace"}},
			errText: "log.level",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGlobalConfig(&tt.cfg)
			if err == nil {
				t.Fatal("ValidateGlobalConfig() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("error = %q, want it to contain %q", err, tt.errText)
			}
		})
	}
}

func TestValidateGlobalConfig_Valid(t *testing.T) {
	cfg := &GlobalConfig{
		Team:   TeamConfig{Database: "/tmp/team.db", ID: "team"},
		Policy: PolicyConfig{DefaultTemporaryApproval: "15m", ReadTeamDecryptLogWindow: "24h"},
		Sweep:  SweepConfig{Schedule: "*/5 * * * * *"},
		Log:    LogConfig{Level: "warn"},
	}
	if err := ValidateGlobalConfig(cfg); err != nil {
		t.Errorf("ValidateGlobalConfig() error = %v, want nil", err)
	}
}
