// Package clog provides leveled operational logging for cosigner.
// User-facing CLI output lives in internal/term; the per-verdict audit
// trail lives in internal/audit.
//
// Log levels:
//   - Debug: verdict tracing and storage paths, only with --debug
//   - Info: grants, migrations, sweeps
//   - Warn: corrupt or missing state that was replaced by safe defaults
//   - Error: failed writes and failed team policy lookups
//
// File output receives every enabled level. Stderr receives Warn and
// Error only, and nothing at all in daemon mode (cosigner serve).
package clog

import "strings"

// Level represents the severity of a log message.
type Level int

const (
	// LevelDebug is for verbose diagnostic information.
	LevelDebug Level = iota
	// LevelInfo is for normal operational events.
	LevelInfo
	// LevelWarn is for unexpected conditions that don't prevent operation.
	LevelWarn
	// LevelError is for failures that affect functionality.
	LevelError
)

// String returns the uppercase name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level string (case-insensitive).
// Returns LevelInfo if the string is not recognized.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error", "err":
		return LevelError
	default:
		return LevelInfo
	}
}
