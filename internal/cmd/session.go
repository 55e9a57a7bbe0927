package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/xdg/cosigner/internal/prompt"
	"github.com/xdg/cosigner/internal/session"
	"github.com/xdg/cosigner/internal/term"
)

var (
	sessionBrowser    bool
	sessionTeamLinked bool
	sessionRemoveYes  bool
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage paired sessions",
	Long: `Manage the sessions paired with this device.

Each session has its own policy settings. Removing a session deletes its
settings and every temporary host exception (unpair).`,
}

var sessionAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Pair a new session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionAdd,
}

var sessionListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List paired sessions",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE:    runSessionList,
}

var sessionRemoveCmd = &cobra.Command{
	Use:     "remove <session>",
	Short:   "Unpair a session and delete its policy",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE:    runSessionRemove,
}

func init() {
	sessionAddCmd.Flags().BoolVar(&sessionBrowser, "browser", false, "the session is a browser extension")
	sessionAddCmd.Flags().BoolVar(&sessionTeamLinked, "team", false, "the session is linked to the team")
	sessionRemoveCmd.Flags().BoolVarP(&sessionRemoveYes, "yes", "y", false, "do not ask for confirmation")

	sessionCmd.AddCommand(sessionAddCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionRemoveCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.sessions.Lookup(args[0]); err == nil {
		return fmt.Errorf("a session named %q is already paired", args[0])
	}

	s := session.New(args[0], sessionBrowser, now())
	s.TeamLinked = sessionTeamLinked
	if err := a.sessions.Save(s); err != nil {
		return fmt.Errorf("failed to pair session: %w", err)
	}

	// Legacy settings apply to the new session before its first request.
	a.policy.MigrateOldPolicySettingsIfNeeded(s.ID)

	term.Printf("Paired session %s (%s)\n", s.Name(), s.ID)
	return nil
}

func runSessionList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.sessions.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(list) == 0 {
		term.Println("No paired sessions.")
		return nil
	}

	rows := make([][]string, 0, len(list))
	for _, s := range list {
		st := a.policy.For(s.ID).Settings()
		rows = append(rows, []string{
			s.Name(),
			s.ID,
			sessionType(s),
			askMode(st.NeverAsk),
			s.PairedAt.Local().Format(time.DateTime),
		})
	}
	term.Table([]string{"NAME", "ID", "TYPE", "POLICY", "PAIRED"}, rows)
	return nil
}

func runSessionRemove(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.lookupSession(args[0])
	if err != nil {
		return err
	}

	if !sessionRemoveYes {
		if !prompt.IsInteractive(os.Stdin) {
			return fmt.Errorf("refusing to remove %s without --yes", s.Name())
		}
		p := prompt.NewStdinYesNoPrompter(os.Stdin, os.Stdout)
		ok, err := p.PromptYesNo(fmt.Sprintf("Remove session %s and its policy? [y/N] ", s.Name()), false)
		if err != nil {
			return err
		}
		if !ok {
			term.Println("Aborted.")
			return nil
		}
	}

	return unpair(a, s)
}

// unpair deletes the policy state of s, then the session itself. The
// session record is kept if its policy could not be deleted, so the
// removal can be retried.
func unpair(a *app, s *session.Session) error {
	if err := a.policy.Destroy(s.ID); err != nil {
		return fmt.Errorf("failed to delete policy of %s: %w", s.Name(), err)
	}
	if err := a.sessions.Remove(s.ID); err != nil {
		return fmt.Errorf("failed to remove session %s: %w", s.Name(), err)
	}
	term.Printf("Removed session %s\n", s.Name())
	return nil
}

func sessionType(s *session.Session) string {
	t := "app"
	if s.Browser {
		t = "browser"
	}
	if s.TeamLinked {
		t += ", team"
	}
	return t
}

func askMode(neverAsk bool) string {
	if neverAsk {
		return "never ask"
	}
	return "ask"
}
