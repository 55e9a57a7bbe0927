package config

import (
	"fmt"
	"os"

	"github.com/xdg/cosigner/internal/pathutil"
)

// Dir returns the cosigner configuration directory path.
// By default, this is ~/.config/cosigner/. If the XDG_CONFIG_HOME
// environment variable is set, it uses $XDG_CONFIG_HOME/cosigner/ instead.
// The returned path always has a trailing slash.
func Dir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = "~/.config"
	}
	return pathutil.ExpandHome(base) + "/cosigner/"
}

// EnsureDir creates the cosigner configuration directory if it
// doesn't exist. It uses 0700 permissions (user-only access).
func EnsureDir() error {
	if err := os.MkdirAll(Dir(), 0o700); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	return nil
}

// GlobalConfigPath returns the full path to the global configuration file.
// This is Dir() + "config.yaml".
func GlobalConfigPath() string {
	return Dir() + "config.yaml"
}

// LegacyDefaultsPath returns the path of the shared defaults file left by
// older releases. Per-session migration reads it once.
func LegacyDefaultsPath() string {
	return Dir() + "legacy_defaults.yaml"
}
