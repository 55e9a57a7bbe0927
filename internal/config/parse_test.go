package config

import (
	"strings"
	"testing"
)

func TestParseGlobalConfig_Valid(t *testing.T) {
	data := []byte(`
storage:
  dir: /var/lib/cosigner
team:
  database: /var/lib/cosigner/team.db
  id: team-1
policy:
  default_temporary_approval: 90m
sweep:
  schedule: "@every 30s"
log:
  level: debug
`)
	cfg, err := ParseGlobalConfig(data)
	if err != nil {
		t.Fatalf("ParseGlobalConfig() error = %v", err)
	}

	if cfg.Storage.Dir != "/var/lib/cosigner" {
		t.Errorf("Storage.Dir = %q", cfg.Storage.Dir)
	}
	if cfg.Team.Database != "/var/lib/cosigner/team.db" || cfg.Team.ID != "team-1" {
		t.Errorf("Team = %+v", cfg.Team)
	}
	if cfg.Policy.DefaultTemporaryApproval != "90m" {
		t.Errorf("Policy.DefaultTemporaryApproval = %q", cfg.Policy.DefaultTemporaryApproval)
	}
	if cfg.Policy.ReadTeamDecryptLogWindow != "" {
		t.Errorf("Policy.ReadTeamDecryptLogWindow = %q, want empty", cfg.Policy.ReadTeamDecryptLogWindow)
	}
	if cfg.Sweep.Schedule != "@every 30s" {
		t.Errorf("Sweep.Schedule = %q", cfg.Sweep.Schedule)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestParseGlobalConfig_Empty(t *testing.T) {
	cfg, err := ParseGlobalConfig(nil)
	if err != nil {
		t.Fatalf("ParseGlobalConfig(nil) error = %v", err)
	}
	if *cfg != (GlobalConfig{}) {
		t.Errorf("ParseGlobalConfig(nil) = %+v, want zero value", cfg)
	}
}

func TestParseGlobalConfig_UnknownField(t *testing.T) {
	_, err := ParseGlobalConfig([]byte("policy:\n  never_ask: true\n"))
	if err == nil {
		t.Fatal("ParseGlobalConfig() should reject unknown fields")
	}
	if !strings.Contains(err.Error(), "never_ask") {
		t.Errorf("error should name the unknown field, got %v", err)
	}
}

func TestParseGlobalConfig_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unclosed flow sequence", "storage:\n  dir: [unclosed\n"},
		{"type mismatch", "storage: [1, 2]\n"},
		{"tab indentation", "log:\n\tlevel: info\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseGlobalConfig([]byte(tt.data)); err == nil {
				t.Errorf("ParseGlobalConfig(%q) should fail", tt.data)
			}
		})
	}
}

func TestMarshalGlobalConfig_RoundTrip(t *testing.T) {
	cfg := DefaultGlobalConfig()
	cfg.Team = TeamConfig{Database: "/tmp/team.db", ID: "t"}

	data, err := MarshalGlobalConfig(cfg)
	if err != nil {
		t.Fatalf("MarshalGlobalConfig() error = %v", err)
	}
	got, err := ParseGlobalConfig(data)
	if err != nil {
		t.Fatalf("ParseGlobalConfig() error = %v", err)
	}
	if *got != *cfg {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}
