package clog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger handles leveled logging to a file writer and, outside daemon
// mode, to stderr.
type Logger struct {
	mu         sync.Mutex
	level      Level
	fileWriter io.Writer
	errWriter  io.Writer
	daemonMode bool
	now        func() time.Time
}

// NewLogger creates a logger at Info level writing warnings to stderr.
func NewLogger() *Logger {
	return &Logger{
		level:     LevelInfo,
		errWriter: os.Stderr,
		now:       time.Now,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetFileOutput sets the file writer. Pass nil to disable file logging.
func (l *Logger) SetFileOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fileWriter = w
}

// SetErrOutput sets the stderr writer. Pass nil to disable it.
func (l *Logger) SetErrOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errWriter = w
}

// SetDaemonMode enables or disables daemon mode.
// In daemon mode, logs only go to the file writer.
func (l *Logger) SetDaemonMode(daemon bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.daemonMode = daemon
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.log(LevelDebug, format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

func (l *Logger) log(level Level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	msg := fmt.Sprintf(format, args...)

	if l.fileWriter != nil {
		line := fmt.Sprintf("%s [%s] %s\n", l.now().UTC().Format(time.RFC3339), level, msg)
		_, _ = l.fileWriter.Write([]byte(line))
	}

	if !l.daemonMode && l.errWriter != nil && level >= LevelWarn {
		_, _ = fmt.Fprintf(l.errWriter, "[%s] %s\n", level, msg)
	}
}

// Component is a view of a Logger that prefixes every message with a
// component name, e.g. "policy: error saving settings".
type Component struct {
	name   string
	logger func() *Logger
}

// For returns a component view of this logger.
func (l *Logger) For(name string) *Component {
	return &Component{name: name, logger: func() *Logger { return l }}
}

// Debug logs a prefixed debug message.
func (c *Component) Debug(format string, args ...any) {
	c.logger().log(LevelDebug, c.name+": "+format, args...)
}

// Info logs a prefixed informational message.
func (c *Component) Info(format string, args ...any) {
	c.logger().log(LevelInfo, c.name+": "+format, args...)
}

// Warn logs a prefixed warning.
func (c *Component) Warn(format string, args ...any) {
	c.logger().log(LevelWarn, c.name+": "+format, args...)
}

// Error logs a prefixed error.
func (c *Component) Error(format string, args ...any) {
	c.logger().log(LevelError, c.name+": "+format, args...)
}

// OpenLogFile opens a log file in append mode, creating parent
// directories if needed.
func OpenLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// StateDir returns $XDG_STATE_HOME/cosigner, defaulting to
// ~/.local/state/cosigner.
func StateDir() string {
	stateDir := os.Getenv("XDG_STATE_HOME")
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		stateDir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateDir, "cosigner")
}

// DefaultLogPath returns StateDir()/cosigner.log.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "cosigner.log")
}

// DefaultAuditPath returns StateDir()/audit.log.
func DefaultAuditPath() string {
	return filepath.Join(StateDir(), "audit.log")
}
