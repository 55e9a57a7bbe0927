package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xdg/cosigner/internal/term"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply settings left by older releases",
	Long: `Apply settings left by older releases to every paired session.

A session whose legacy "require user approval" setting was off switches to
never ask, once. A disabled legacy "U2F requires interaction" flag turns on
zero touch U2F for every browser session, and the flag is then reset.

Both migrations also run on their own: the first before a session's first
check, the second when "cosigner serve" starts.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	migrated, zeroTouch, err := migrateAll(a)
	if err != nil {
		return err
	}
	term.Printf("Migrated %d session(s) to never ask, %d browser session(s) to zero touch\n", migrated, zeroTouch)
	return nil
}

func migrateAll(a *app) (neverAsk, zeroTouch int, err error) {
	list, err := a.sessions.List()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	for _, s := range list {
		if a.policy.MigrateOldPolicySettingsIfNeeded(s.ID) {
			neverAsk++
		}
	}
	zeroTouch, err = a.policy.MigrateZeroTouchBrowserSettingIfNeeded(list)
	if err != nil {
		return neverAsk, zeroTouch, fmt.Errorf("failed to migrate zero touch setting: %w", err)
	}
	return neverAsk, zeroTouch, nil
}
