// Package term provides user-facing terminal output for the cosigner CLI.
// Operational logging goes through internal/clog instead.
//
// Print/Printf/Println write to stdout and are suppressed with --silent.
// Warn and Error write to stderr and are never suppressed. Table renders
// aligned columns for listings (sessions, temporarily allowed hosts).
package term

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"
)

var (
	mu     sync.Mutex
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	silent bool
)

// SetSilent enables or disables silent mode.
func SetSilent(s bool) {
	mu.Lock()
	defer mu.Unlock()
	silent = s
}

// SetOutput sets the writer for stdout output. Pass nil to use os.Stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	stdout = w
}

// SetErrOutput sets the writer for stderr output. Pass nil to use os.Stderr.
func SetErrOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	stderr = w
}

// Printf formats according to a format specifier and writes to stdout.
func Printf(format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	if silent {
		return
	}
	_, _ = fmt.Fprintf(stdout, format, a...)
}

// Println writes its operands to stdout followed by a newline.
func Println(a ...any) {
	mu.Lock()
	defer mu.Unlock()
	if silent {
		return
	}
	_, _ = fmt.Fprintln(stdout, a...)
}

// Warn writes a "Warning: " line to stderr.
func Warn(format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	_, _ = fmt.Fprintf(stderr, "Warning: %s\n", fmt.Sprintf(format, a...))
}

// Error writes an "Error: " line to stderr.
func Error(format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	_, _ = fmt.Fprintf(stderr, "Error: %s\n", fmt.Sprintf(format, a...))
}

// Table writes header and rows as tab-aligned columns to stdout.
// Nothing is written when rows is empty.
func Table(header []string, rows [][]string) {
	mu.Lock()
	defer mu.Unlock()
	if silent || len(rows) == 0 {
		return
	}
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

// Reset restores the default writers and disables silent mode.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	stdout = os.Stdout
	stderr = os.Stderr
	silent = false
}
