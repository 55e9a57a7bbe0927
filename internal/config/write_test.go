package config

import (
	"os"
	"strings"
	"testing"
)

func TestWriteDefaultConfig_Creates(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path := GlobalConfigPath()
	if err := WriteDefaultConfig(); err != nil {
		t.Fatalf("WriteDefaultConfig() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("os.Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config file permissions = %o, want 0600", perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("os.ReadFile() error = %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# Cosigner global configuration") {
		t.Error("config file should start with header comment")
	}
	for _, section := range []string{"storage:", "team:", "policy:", "sweep:", "log:"} {
		if !strings.Contains(content, section) {
			t.Errorf("config file missing section %q", section)
		}
	}
}

func TestWriteDefaultConfig_NoOverwrite(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if err := EnsureDir(); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	custom := "log:\n  level: error\n"
	if err := os.WriteFile(GlobalConfigPath(), []byte(custom), 0o600); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}

	if err := WriteDefaultConfig(); err != nil {
		t.Fatalf("WriteDefaultConfig() error = %v", err)
	}

	data, err := os.ReadFile(GlobalConfigPath())
	if err != nil {
		t.Fatalf("os.ReadFile() error = %v", err)
	}
	if string(data) != custom {
		t.Errorf("WriteDefaultConfig() overwrote existing file: %q", data)
	}
}

func TestWriteGlobalConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultGlobalConfig()
	cfg.Team = TeamConfig{Database: "/srv/team.db", ID: "acme"}
	if err := WriteGlobalConfig(cfg); err != nil {
		t.Fatalf("WriteGlobalConfig() error = %v", err)
	}

	loaded, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig() error = %v", err)
	}
	if loaded.Team != cfg.Team {
		t.Errorf("Team = %+v, want %+v", loaded.Team, cfg.Team)
	}

	info, err := os.Stat(GlobalConfigPath())
	if err != nil {
		t.Fatalf("os.Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config file permissions = %o, want 0600", perm)
	}
}

func TestWriteGlobalConfig_RejectsInvalid(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultGlobalConfig()
	cfg.Log.Level = "chatty"
	if err := WriteGlobalConfig(cfg); err == nil {
		t.Fatal("WriteGlobalConfig() should reject an invalid config")
	}
	if _, err := os.Stat(GlobalConfigPath()); !os.IsNotExist(err) {
		t.Error("WriteGlobalConfig() should not create a file for an invalid config")
	}
}
