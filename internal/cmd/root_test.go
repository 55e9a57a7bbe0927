package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommand_Help(t *testing.T) {
	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stdout)
	defer rootCmd.SetOut(nil)
	defer rootCmd.SetErr(nil)
	defer resetFlags(rootCmd)

	rootCmd.SetArgs([]string{"--help"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("root command --help returned error: %v", err)
	}

	output := stdout.String()
	for _, expected := range []string{"cosigner", "paired session", "Usage:", "Available Commands:"} {
		if !strings.Contains(output, expected) {
			t.Errorf("help output missing expected string %q\nGot: %s", expected, output)
		}
	}
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	want := []string{"session", "check", "policy", "team", "migrate", "config", "serve"}
	have := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("missing subcommand: %s", name)
		}
	}
}

func TestPolicyCommand_HasSubcommands(t *testing.T) {
	want := []string{
		"show", "allow-all", "allow-host", "hosts", "never-ask", "always-ask",
		"zero-touch", "unknown-hosts", "notifications", "interval",
	}
	have := map[string]bool{}
	for _, c := range policyCmd.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("missing policy subcommand: %s", name)
		}
	}
}
