// Package pathutil provides path manipulation utilities.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome replaces a leading ~ in path with the user's home directory.
// If the home directory cannot be determined, the path is returned unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// Resolve expands ~ and cleans the result. An empty path stays empty so
// callers can keep "unset" distinct from the working directory.
func Resolve(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Clean(ExpandHome(path))
}
