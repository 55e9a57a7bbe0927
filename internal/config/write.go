package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/xdg/cosigner/internal/securestore"
)

// WriteDefaultConfig creates the default global configuration file with
// comments. If the config file already exists, it returns nil without
// overwriting. The file is written with 0600 permissions.
func WriteDefaultConfig() error {
	path := GlobalConfigPath()

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat config file: %w", err)
	}

	if err := EnsureDir(); err != nil {
		return err
	}

	if err := securestore.WriteAtomic(path, []byte(defaultConfigTemplate)); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

// WriteGlobalConfig writes cfg to GlobalConfigPath(), replacing any
// existing file atomically. Comments from the template are not preserved.
func WriteGlobalConfig(cfg *GlobalConfig) error {
	if err := EnsureDir(); err != nil {
		return err
	}
	return WriteGlobalConfigFile(GlobalConfigPath(), cfg)
}

// WriteGlobalConfigFile validates cfg and writes it to path atomically
// with 0600 permissions. The parent directory must exist.
func WriteGlobalConfigFile(path string, cfg *GlobalConfig) error {
	if err := ValidateGlobalConfig(cfg); err != nil {
		return fmt.Errorf("write global config: %w", err)
	}

	data, err := MarshalGlobalConfig(cfg)
	if err != nil {
		return err
	}

	if err := securestore.WriteAtomic(path, data); err != nil {
		return fmt.Errorf("write global config: %w", err)
	}
	return nil
}
