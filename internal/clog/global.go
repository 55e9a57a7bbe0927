package clog

import (
	"io"
	"log"
	"os"
	"sync"
)

var (
	stdMu sync.RWMutex
	std   = NewLogger()
)

func global() *Logger {
	stdMu.RLock()
	defer stdMu.RUnlock()
	return std
}

// Configure sets up the global logger. An empty logPath disables file
// logging. In daemon mode nothing is written to stderr.
func Configure(logPath string, level Level, daemonMode bool) error {
	l := global()
	l.SetLevel(level)
	l.SetDaemonMode(daemonMode)

	if logPath != "" {
		f, err := OpenLogFile(logPath)
		if err != nil {
			return err
		}
		l.SetFileOutput(f)
	}
	return nil
}

// SetLevel sets the minimum log level for the global logger.
func SetLevel(level Level) {
	global().SetLevel(level)
}

// SetFileOutput sets the file writer for the global logger.
func SetFileOutput(w io.Writer) {
	global().SetFileOutput(w)
}

// SetErrOutput sets the stderr writer for the global logger.
func SetErrOutput(w io.Writer) {
	global().SetErrOutput(w)
}

// SetDaemonMode enables or disables daemon mode for the global logger.
func SetDaemonMode(daemon bool) {
	global().SetDaemonMode(daemon)
}

// Debug logs a debug message using the global logger.
func Debug(format string, args ...any) {
	global().Debug(format, args...)
}

// Info logs an informational message using the global logger.
func Info(format string, args ...any) {
	global().Info(format, args...)
}

// Warn logs a warning using the global logger.
func Warn(format string, args ...any) {
	global().Warn(format, args...)
}

// Error logs an error using the global logger.
func Error(format string, args ...any) {
	global().Error(format, args...)
}

// For returns a component view bound to whatever logger is global at
// the time each message is written, so ReplaceGlobal in tests also
// captures package-level component loggers.
func For(name string) *Component {
	return &Component{name: name, logger: global}
}

// Close closes the file writer if it implements io.Closer.
func Close() error {
	l := global()
	l.mu.Lock()
	defer l.mu.Unlock()

	if closer, ok := l.fileWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Reset resets the global logger to default state.
func Reset() {
	stdMu.Lock()
	defer stdMu.Unlock()
	std = NewLogger()
}

// Discard configures the global logger to discard all output.
func Discard() {
	l := global()
	l.SetFileOutput(io.Discard)
	l.SetErrOutput(io.Discard)
}

// TestLogger returns a Debug-level logger that writes to w.
func TestLogger(w io.Writer) *Logger {
	l := NewLogger()
	l.SetFileOutput(w)
	l.SetErrOutput(nil)
	l.SetLevel(LevelDebug)
	return l
}

// ReplaceGlobal replaces the global logger and returns the previous one.
func ReplaceGlobal(l *Logger) *Logger {
	stdMu.Lock()
	defer stdMu.Unlock()
	old := std
	std = l
	return old
}

// Writer returns an io.Writer that forwards each write to the global
// logger at the given level.
func Writer(level Level) io.Writer {
	return &levelWriter{level: level}
}

// StdLogger returns a *log.Logger writing to clog at the given level,
// for libraries that take a standard logger.
func StdLogger(level Level) *log.Logger {
	return log.New(Writer(level), "", 0)
}

type levelWriter struct {
	level Level
}

func (w *levelWriter) Write(p []byte) (n int, err error) {
	msg := string(p)
	if len(msg) > 0 && msg[len(msg)-1] == '\n' {
		msg = msg[:len(msg)-1]
	}
	global().log(w.level, "%s", msg)
	return len(p), nil
}

func init() {
	std.SetErrOutput(os.Stderr)
}
