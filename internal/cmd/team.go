package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/xdg/cosigner/internal/config"
	"github.com/xdg/cosigner/internal/team"
	"github.com/xdg/cosigner/internal/term"
)

var (
	teamDatabase      string
	teamID            string
	teamName          string
	teamApproval      time.Duration
	teamClearApproval bool
)

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Manage the linked team",
	Long: `Manage the team this device is linked to.

The team database holds each team's policy. A team that sets a temporary
approval duration uses it for every "allow all" window and disables never
ask for every session.`,
}

var teamSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Link a team and set its policy",
	Long: `Link a team and set its policy.

--database and --id update the team section of the config file. --name,
--temporary-approval and --no-temporary-approval update the team's record in
the team database, creating it if needed.`,
	Args: cobra.NoArgs,
	RunE: runTeamSet,
}

var teamShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the linked team and its policy",
	Args:  cobra.NoArgs,
	RunE:  runTeamShow,
}

func init() {
	f := teamSetCmd.Flags()
	f.StringVar(&teamDatabase, "database", "", "team database file")
	f.StringVar(&teamID, "id", "", "team id")
	f.StringVar(&teamName, "name", "", "team display name")
	f.DurationVar(&teamApproval, "temporary-approval", 0, "mandated temporary approval duration")
	f.BoolVar(&teamClearApproval, "no-temporary-approval", false, "remove the mandated approval duration")

	teamCmd.AddCommand(teamSetCmd)
	teamCmd.AddCommand(teamShowCmd)
	rootCmd.AddCommand(teamCmd)
}

func runTeamSet(cmd *cobra.Command, args []string) error {
	if teamApproval < 0 {
		return fmt.Errorf("--temporary-approval must be positive")
	}
	if teamApproval > 0 && teamClearApproval {
		return fmt.Errorf("give either --temporary-approval or --no-temporary-approval, not both")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if teamDatabase != "" || teamID != "" {
		if teamDatabase != "" {
			cfg.Team.Database = teamDatabase
		}
		if teamID != "" {
			cfg.Team.ID = teamID
		}
		if err := saveConfig(cfg); err != nil {
			return err
		}
		term.Printf("Linked team %s (%s)\n", cfg.Team.ID, cfg.Team.Database)
	}
	if !cfg.Team.Linked() {
		return fmt.Errorf("no team linked; pass --database and --id")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Team.Database), 0o700); err != nil {
		return fmt.Errorf("failed to create team database dir: %w", err)
	}
	store, err := team.OpenStore(cfg.Team.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	var saved *team.Team
	err = store.WithTransaction(cmd.Context(), func(tx *team.Tx) error {
		t, err := tx.FetchTeam(cfg.Team.ID)
		if errors.Is(err, team.ErrNoTeam) {
			t = &team.Team{ID: cfg.Team.ID}
		} else if err != nil {
			return err
		}
		applyTeamFlags(cmd, t)
		saved = t
		return tx.PutTeam(t)
	})
	if err != nil {
		return fmt.Errorf("failed to save team: %w", err)
	}

	term.Printf("Team %s: %s\n", saved.ID, describeTeamPolicy(saved.Policy))
	return nil
}

func applyTeamFlags(cmd *cobra.Command, t *team.Team) {
	if cmd.Flags().Changed("name") {
		t.Name = teamName
	}
	switch {
	case teamClearApproval:
		t.Policy.TemporaryApprovalSeconds = nil
	case teamApproval > 0:
		secs := int64(teamApproval / time.Second)
		t.Policy.TemporaryApprovalSeconds = &secs
	}
}

func runTeamShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	interval := a.resolver.TemporaryApprovalInterval(ctx)
	if !a.cfg.Team.Linked() {
		term.Println("No team linked.")
		term.Printf("Temporary approval: %s\n", interval.Description)
		return nil
	}

	id, err := a.teams.TeamIdentity(ctx)
	if errors.Is(err, os.ErrNotExist) {
		term.Printf("Team %s: database %s does not exist; never ask is refused until it can be read\n", a.cfg.Team.ID, a.cfg.Team.Database)
		return nil
	}
	if err != nil {
		return err
	}
	t, err := id.FetchTeam(ctx)
	if err != nil {
		return fmt.Errorf("failed to read team %s: %w", a.cfg.Team.ID, err)
	}
	neverAsk, err := a.resolver.IsNeverAskAvailable(ctx)
	if err != nil {
		return err
	}

	name := t.Name
	if name == "" {
		name = "-"
	}
	term.Printf("Team:               %s (%s)\n", t.ID, name)
	term.Printf("Database:           %s\n", a.cfg.Team.Database)
	term.Printf("Policy:             %s\n", describeTeamPolicy(t.Policy))
	term.Printf("Temporary approval: %s\n", interval.Description)
	term.Printf("Never ask allowed:  %s\n", yesNo(neverAsk))
	return nil
}

func describeTeamPolicy(p team.Policy) string {
	if p.TemporaryApprovalSeconds == nil {
		return "no mandated approval duration"
	}
	d := time.Duration(*p.TemporaryApprovalSeconds) * time.Second
	return "approvals last " + team.LongLabel(d) + ", never ask disabled"
}

// saveConfig writes cfg back to the file it was loaded from.
func saveConfig(cfg *config.GlobalConfig) error {
	var err error
	if configFlag != "" {
		err = config.WriteGlobalConfigFile(configFlag, cfg)
	} else {
		err = config.WriteGlobalConfig(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
