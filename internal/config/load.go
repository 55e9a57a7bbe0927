package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/xdg/cosigner/internal/clog"
	"github.com/xdg/cosigner/internal/pathutil"
)

var log = clog.For("config")

// LoadGlobalConfig loads the global configuration from GlobalConfigPath().
// If the config file doesn't exist, the default file is written and
// DefaultGlobalConfig() is returned.
func LoadGlobalConfig() (*GlobalConfig, error) {
	return LoadGlobalConfigFile(GlobalConfigPath())
}

// LoadGlobalConfigFile loads the global configuration from path. Only the
// default path is created when missing; an explicit path that does not
// exist is an error. Fields the file leaves empty take their defaults, and
// all paths containing ~ are expanded.
func LoadGlobalConfigFile(path string) (*GlobalConfig, error) {
	log.Debug("loading global config from %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == GlobalConfigPath() {
			log.Info("config file not found, creating defaults")
			if writeErr := WriteDefaultConfig(); writeErr != nil {
				log.Warn("failed to create default config: %v", writeErr)
			}
			cfg := DefaultGlobalConfig()
			expandGlobalPaths(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read global config: %w", err)
	}

	cfg, err := ParseGlobalConfig(data)
	if err != nil {
		return nil, fmt.Errorf("load global config: %w", err)
	}
	applyDefaults(cfg)

	if err := ValidateGlobalConfig(cfg); err != nil {
		return nil, fmt.Errorf("load global config: %w", err)
	}

	expandGlobalPaths(cfg)
	return cfg, nil
}

// expandGlobalPaths expands ~ to the home directory in all path fields.
func expandGlobalPaths(cfg *GlobalConfig) {
	cfg.Storage.Dir = pathutil.Resolve(cfg.Storage.Dir)
	cfg.Team.Database = pathutil.Resolve(cfg.Team.Database)
	cfg.Log.File = pathutil.Resolve(cfg.Log.File)
	cfg.Log.AuditFile = pathutil.Resolve(cfg.Log.AuditFile)
}
