package clog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGlobalFunctions(t *testing.T) {
	defer Reset()

	var buf bytes.Buffer
	ReplaceGlobal(TestLogger(&buf))

	Debug("debug %s", "msg")
	Info("info %s", "msg")
	Warn("warn %s", "msg")
	Error("error %s", "msg")

	output := buf.String()
	for _, want := range []string{"[DEBUG] debug msg", "[INFO] info msg", "[WARN] warn msg", "[ERROR] error msg"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestFor_FollowsReplacedGlobal(t *testing.T) {
	defer Reset()

	c := For("team")

	var buf bytes.Buffer
	ReplaceGlobal(TestLogger(&buf))

	c.Warn("no team configured")

	if !strings.Contains(buf.String(), "[WARN] team: no team configured") {
		t.Errorf("component logger did not follow global, got: %q", buf.String())
	}
}

func TestConfigure(t *testing.T) {
	defer Reset()

	logPath := filepath.Join(t.TempDir(), "test.log")
	if err := Configure(logPath, LevelDebug, true); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	defer func() { _ = Close() }()

	Debug("test message")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(content), "[DEBUG] test message") {
		t.Errorf("expected message in log file, got: %s", content)
	}
}

func TestConfigure_EmptyPath(t *testing.T) {
	defer Reset()

	if err := Configure("", LevelInfo, false); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	Info("test")
}

func TestStdLogger(t *testing.T) {
	defer Reset()

	var buf bytes.Buffer
	ReplaceGlobal(TestLogger(&buf))

	StdLogger(LevelError).Println("cron: job panicked")

	output := buf.String()
	if !strings.Contains(output, "[ERROR] cron: job panicked") {
		t.Errorf("expected forwarded message, got: %q", output)
	}
	if strings.Count(output, "\n") != 1 {
		t.Errorf("expected single newline, got: %q", output)
	}
}
