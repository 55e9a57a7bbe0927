package config

import (
	"testing"
	"time"
)

func TestDefaultGlobalConfig(t *testing.T) {
	cfg := DefaultGlobalConfig()

	if err := ValidateGlobalConfig(cfg); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Team.Linked() {
		t.Error("default config should not link a team")
	}
	if got := cfg.Policy.TemporaryApproval(); got != 3*time.Hour {
		t.Errorf("TemporaryApproval() = %v, want 3h", got)
	}
	if got := cfg.Policy.DecryptLogWindow(); got != 6*time.Hour {
		t.Errorf("DecryptLogWindow() = %v, want 6h", got)
	}
	if cfg.Sweep.Schedule != "@every 1m" {
		t.Errorf("Sweep.Schedule = %q", cfg.Sweep.Schedule)
	}
}

func TestDefaultConfigTemplate_MatchesDefaults(t *testing.T) {
	cfg, err := ParseGlobalConfig([]byte(defaultConfigTemplate))
	if err != nil {
		t.Fatalf("template should parse: %v", err)
	}
	if *cfg != *DefaultGlobalConfig() {
		t.Errorf("template = %+v, want %+v", cfg, DefaultGlobalConfig())
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &GlobalConfig{
		Policy: PolicyConfig{DefaultTemporaryApproval: "1h"},
		Log:    LogConfig{File: "/tmp/x.log"},
	}
	applyDefaults(cfg)

	if cfg.Policy.DefaultTemporaryApproval != "1h" {
		t.Errorf("applyDefaults should keep set values, got %q", cfg.Policy.DefaultTemporaryApproval)
	}
	if cfg.Policy.ReadTeamDecryptLogWindow != "6h" {
		t.Errorf("ReadTeamDecryptLogWindow = %q, want 6h", cfg.Policy.ReadTeamDecryptLogWindow)
	}
	if cfg.Storage.Dir == "" || cfg.Sweep.Schedule == "" || cfg.Log.Level != "info" {
		t.Errorf("applyDefaults left empty fields: %+v", cfg)
	}
	if cfg.Log.File != "/tmp/x.log" {
		t.Errorf("Log.File = %q", cfg.Log.File)
	}
	// An unset audit file stays unset and disables the audit trail.
	if cfg.Log.AuditFile != "" {
		t.Errorf("Log.AuditFile = %q, want empty", cfg.Log.AuditFile)
	}
}

func TestPolicyConfig_DurationFallback(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 3 * time.Hour},
		{"45m", 45 * time.Minute},
		{"bogus", 3 * time.Hour},
		{"-1h", 3 * time.Hour},
	}
	for _, tt := range tests {
		p := PolicyConfig{DefaultTemporaryApproval: tt.in}
		if got := p.TemporaryApproval(); got != tt.want {
			t.Errorf("TemporaryApproval(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
