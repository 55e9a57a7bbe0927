package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/xdg/cosigner/internal/config"
)

func TestTeamShow_NotLinked(t *testing.T) {
	e := newCLIEnv(t)

	out := e.mustRun("team", "show")
	if !strings.Contains(out, "No team linked.") || !strings.Contains(out, "Temporary approval: 3 hours") {
		t.Errorf("team show output = %q", out)
	}
}

func TestTeamSet_LinksAndStoresPolicy(t *testing.T) {
	e := newCLIEnv(t)
	db := filepath.Join(e.dir, "teams", "team.db")

	out := e.mustRun("team", "set", "--database", db, "--id", "acme", "--name", "Acme", "--temporary-approval", "1h")
	if !strings.Contains(out, "Linked team acme ("+db+")") {
		t.Errorf("team set output missing link line: %q", out)
	}
	if !strings.Contains(out, "Team acme: approvals last 1 hour, never ask disabled") {
		t.Errorf("team set output missing policy line: %q", out)
	}

	cfg, err := config.LoadGlobalConfigFile(e.cfgPath)
	if err != nil {
		t.Fatalf("LoadGlobalConfigFile() error = %v", err)
	}
	if cfg.Team.Database != db || cfg.Team.ID != "acme" {
		t.Errorf("team config = %+v", cfg.Team)
	}

	out = e.mustRun("team", "show")
	for _, want := range []string{
		"Team:               acme (Acme)",
		"Policy:             approvals last 1 hour, never ask disabled",
		"Temporary approval: 1 hour",
		"Never ask allowed:  no",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("team show missing %q\n%s", want, out)
		}
	}
}

func TestTeamSet_ClearApproval(t *testing.T) {
	e := newCLIEnv(t)
	db := filepath.Join(e.dir, "team.db")
	e.mustRun("team", "set", "--database", db, "--id", "acme", "--temporary-approval", "1h")

	out := e.mustRun("team", "set", "--no-temporary-approval")
	if strings.TrimSpace(out) != "Team acme: no mandated approval duration" {
		t.Errorf("team set output = %q", out)
	}

	out = e.mustRun("team", "show")
	if !strings.Contains(out, "Never ask allowed:  yes") {
		t.Errorf("team show = %q", out)
	}
}

func TestTeamSet_Errors(t *testing.T) {
	e := newCLIEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"not linked", []string{"team", "set", "--name", "Acme"}, "no team linked"},
		{"both approval flags", []string{"team", "set", "--temporary-approval", "1h", "--no-temporary-approval"}, "not both"},
		{"negative approval", []string{"team", "set", "--temporary-approval=-1h"}, "must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.run(tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestTeamShow_MissingDatabase(t *testing.T) {
	db := "/nonexistent-cosigner-test/team.db"
	e := newCLIEnvWithConfig(t, "team:\n  database: "+db+"\n  id: acme\n")

	out := e.mustRun("team", "show")
	if !strings.Contains(out, "does not exist; never ask is refused") {
		t.Errorf("team show = %q", out)
	}
}

func TestCheck_NeverAskRefusedWhenTeamDatabaseMissing(t *testing.T) {
	db := filepath.Join(t.TempDir(), "gone", "team.db")
	e := newCLIEnvWithConfig(t, "team:\n  database: "+db+"\n  id: acme\n")
	e.mustRun("session", "add", "laptop")
	e.mustRun("policy", "never-ask", "laptop")
	if !strings.Contains(e.errOut.String(), "cannot read team policy") {
		t.Errorf("never-ask should warn about the unreadable team policy, stderr = %q", e.errOut.String())
	}

	_, err := e.run("check", "laptop", "--type", "ssh", "--user-host", "alice@build", "--no-prompt")
	wantExitCode(t, err, ExitAskHuman)
}
