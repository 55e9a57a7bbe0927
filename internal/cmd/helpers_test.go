package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/xdg/cosigner/internal/clog"
	"github.com/xdg/cosigner/internal/config"
	"github.com/xdg/cosigner/internal/session"
	"github.com/xdg/cosigner/internal/term"
)

// cliEnv is an isolated cosigner installation in a temp dir.
type cliEnv struct {
	t       *testing.T
	dir     string
	cfgPath string
	out     *bytes.Buffer
	errOut  *bytes.Buffer
}

func newCLIEnv(t *testing.T) *cliEnv {
	return newCLIEnvWithConfig(t, "")
}

// newCLIEnvWithConfig writes extra YAML after the storage and log sections.
func newCLIEnvWithConfig(t *testing.T, extra string) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))

	e := &cliEnv{
		t:       t,
		dir:     dir,
		cfgPath: filepath.Join(dir, "cosigner.yaml"),
		out:     &bytes.Buffer{},
		errOut:  &bytes.Buffer{},
	}
	content := "storage:\n  dir: " + filepath.Join(dir, "data") + "\n" +
		"log:\n  file: " + filepath.Join(dir, "state", "cosigner.log") + "\n" +
		"  audit_file: " + e.auditPath() + "\n" + extra
	if err := os.WriteFile(e.cfgPath, []byte(content), 0o600); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}

	term.SetOutput(e.out)
	term.SetErrOutput(e.errOut)
	clog.SetErrOutput(io.Discard)
	t.Cleanup(func() {
		term.Reset()
		_ = clog.Close()
		clog.Reset()
		resetFlags(rootCmd)
		now = time.Now
	})
	return e
}

func (e *cliEnv) auditPath() string {
	return filepath.Join(e.dir, "state", "audit.log")
}

// run executes the command line against this installation and returns
// its stdout.
func (e *cliEnv) run(args ...string) (string, error) {
	return e.runContext(context.Background(), args...)
}

func (e *cliEnv) runContext(ctx context.Context, args ...string) (string, error) {
	e.t.Helper()
	resetFlags(rootCmd)
	e.out.Reset()
	rootCmd.SetArgs(append([]string{"--config", e.cfgPath}, args...))
	err := rootCmd.ExecuteContext(ctx)
	return e.out.String(), err
}

func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("cosigner %s: %v", strings.Join(args, " "), err)
	}
	return out
}

// app opens the installation the way a command does.
func (e *cliEnv) app() *app {
	e.t.Helper()
	cfg, err := config.LoadGlobalConfigFile(e.cfgPath)
	if err != nil {
		e.t.Fatalf("LoadGlobalConfigFile() error = %v", err)
	}
	a, err := newApp(cfg)
	if err != nil {
		e.t.Fatalf("newApp() error = %v", err)
	}
	e.t.Cleanup(func() { _ = a.Close() })
	return a
}

func (e *cliEnv) session(name string) *session.Session {
	e.t.Helper()
	s, err := e.app().sessions.Lookup(name)
	if err != nil {
		e.t.Fatalf("Lookup(%q) error = %v", name, err)
	}
	return s
}

func (e *cliEnv) auditLog() string {
	e.t.Helper()
	data, err := os.ReadFile(e.auditPath())
	if err != nil && !os.IsNotExist(err) {
		e.t.Fatalf("os.ReadFile() error = %v", err)
	}
	return string(data)
}

// resetFlags restores every flag to its default, since cobra keeps flag
// values between Execute calls.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
