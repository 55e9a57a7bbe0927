package config

import (
	"fmt"
	"os"
	"os/exec"
)

// EditGlobalConfig opens the global configuration file in the user's editor.
// If the file doesn't exist, the default one is written first. The editor
// is taken from EDITOR, falling back to "vi". After the editor exits the
// file is loaded and validated; a validation failure is logged and returned
// so the caller can tell the user, but the edited file is left in place.
func EditGlobalConfig() error {
	path := GlobalConfigPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := WriteDefaultConfig(); err != nil {
			return fmt.Errorf("create default config: %w", err)
		}
	}

	if err := openEditor(path); err != nil {
		return err
	}

	if _, err := LoadGlobalConfig(); err != nil {
		log.Warn("global config has errors after edit: %v", err)
		return err
	}
	return nil
}

// openEditor opens the specified file in the user's editor.
func openEditor(path string) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	cmd := exec.Command(editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor %q failed: %w", editor, err)
	}
	return nil
}
