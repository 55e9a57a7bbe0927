package policy

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LegacyDefaults is the old shared defaults file. Only boolean values
// are meaningful; anything else reads as unset.
type LegacyDefaults struct {
	values map[string]any
}

// LoadLegacyDefaults reads the YAML file at path. A missing file yields
// empty defaults.
func LoadLegacyDefaults(path string) (*LegacyDefaults, error) {
	d := &LegacyDefaults{values: map[string]any{}}
	if path == "" {
		return d, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read legacy defaults: %w", err)
	}
	if err := yaml.Unmarshal(data, &d.values); err != nil {
		return nil, fmt.Errorf("parse legacy defaults %s: %w", path, err)
	}
	if d.values == nil {
		d.values = map[string]any{}
	}
	return d, nil
}

// NewLegacyDefaults returns defaults holding values.
func NewLegacyDefaults(values map[string]any) *LegacyDefaults {
	if values == nil {
		values = map[string]any{}
	}
	return &LegacyDefaults{values: values}
}

// Bool returns a boolean value and whether it was set as a boolean.
func (d *LegacyDefaults) Bool(key string) (bool, bool) {
	if d == nil {
		return false, false
	}
	v, ok := d.values[key].(bool)
	return v, ok
}

// UserApproval implements LegacySource.
func (d *LegacyDefaults) UserApproval(sessionID string) (bool, bool) {
	return d.Bool(LegacyUserApprovalKey(sessionID))
}
