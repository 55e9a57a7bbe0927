package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/xdg/cosigner/internal/policy"
	"github.com/xdg/cosigner/internal/request"
	"github.com/xdg/cosigner/internal/team"
	"github.com/xdg/cosigner/internal/term"
)

var (
	policyFor     time.Duration
	alwaysAskHost string
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Show and change a session's policy",
	Long: `Show and change the policy settings of a paired session.

Durations given with --for default to the temporary approval interval,
which a linked team may override.`,
}

var policyShowCmd = &cobra.Command{
	Use:   "show <session>",
	Short: "Show a session's settings and grants",
	Args:  cobra.ExactArgs(1),
	RunE:  runPolicyShow,
}

var policyAllowAllCmd = &cobra.Command{
	Use:   "allow-all <session> <category>",
	Short: "Allow every request of a category for a while",
	Long: `Allow every request of a category without asking, until the window ends.

Categories: ` + categoryNames() + `.
Allowing all SSH requests drops every per-host exception.`,
	Args: cobra.ExactArgs(2),
	RunE: runPolicyAllowAll,
}

var policyAllowHostCmd = &cobra.Command{
	Use:   "allow-host <session> <user@host>",
	Short: "Allow SSH logins to one user@host for a while",
	Args:  cobra.ExactArgs(2),
	RunE:  runPolicyAllowHost,
}

var policyHostsCmd = &cobra.Command{
	Use:   "hosts <session>",
	Short: "List temporarily allowed user@hosts",
	Args:  cobra.ExactArgs(1),
	RunE:  runPolicyHosts,
}

var policyNeverAskCmd = &cobra.Command{
	Use:   "never-ask <session>",
	Short: "Stop asking for approval",
	Long: `Stop asking for approval of any request from the session.

A team that mandates an approval duration disables never ask; the setting
is kept but takes no effect while that team policy holds.`,
	Args: cobra.ExactArgs(1),
	RunE: runPolicyNeverAsk,
}

var policyAlwaysAskCmd = &cobra.Command{
	Use:   "always-ask <session> [category]",
	Short: "Revoke grants",
	Long: `Revoke grants of a session.

With a category, only that category's blanket allow is revoked. With --host,
only that user@host's exception is revoked. With neither, every grant and
never ask are revoked.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPolicyAlwaysAsk,
}

var policyZeroTouchCmd = &cobra.Command{
	Use:   "zero-touch <session> on|off",
	Short: "Toggle U2F without user presence",
	Args:  cobra.ExactArgs(2),
	RunE:  runPolicyZeroTouch,
}

var policyUnknownHostsCmd = &cobra.Command{
	Use:   "unknown-hosts <session> on|off",
	Short: "Toggle SSH to hosts that could not be verified",
	Args:  cobra.ExactArgs(2),
	RunE:  runPolicyUnknownHosts,
}

var policyNotificationsCmd = &cobra.Command{
	Use:   "notifications <session> on|off",
	Short: "Toggle notifications for auto-approved requests",
	Args:  cobra.ExactArgs(2),
	RunE:  runPolicyNotifications,
}

var policyIntervalCmd = &cobra.Command{
	Use:   "interval",
	Short: "Show the temporary approval interval",
	Args:  cobra.NoArgs,
	RunE:  runPolicyInterval,
}

var (
	runPolicyZeroTouch = toggleRunner("zero touch", func(a *app, id string, on bool) {
		a.policy.For(id).SetZeroTouch(on)
	})
	runPolicyUnknownHosts = toggleRunner("unknown hosts", func(a *app, id string, on bool) {
		a.policy.For(id).SetPermitUnknownHosts(on)
	})
	runPolicyNotifications = toggleRunner("approved notifications", func(a *app, id string, on bool) {
		a.policy.For(id).SetShowApprovedNotifications(on)
	})
)

func init() {
	policyAllowAllCmd.Flags().DurationVar(&policyFor, "for", 0, "length of the window (default: approval interval)")
	policyAllowHostCmd.Flags().DurationVar(&policyFor, "for", 0, "length of the window (default: approval interval)")
	policyAlwaysAskCmd.Flags().StringVar(&alwaysAskHost, "host", "", "revoke only this user@host exception")

	for _, c := range []*cobra.Command{
		policyShowCmd, policyAllowAllCmd, policyAllowHostCmd, policyHostsCmd,
		policyNeverAskCmd, policyAlwaysAskCmd, policyZeroTouchCmd,
		policyUnknownHostsCmd, policyNotificationsCmd, policyIntervalCmd,
	} {
		policyCmd.AddCommand(c)
	}
	rootCmd.AddCommand(policyCmd)
}

func categoryNames() string {
	names := make([]string, len(request.AllCategories))
	for i, c := range request.AllCategories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func runPolicyShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.lookupSession(args[0])
	if err != nil {
		return err
	}
	p := a.policy.For(s.ID)
	st := p.Settings()

	neverAsk := onOff(st.NeverAsk)
	if st.NeverAsk {
		available, err := a.resolver.IsNeverAskAvailable(cmd.Context())
		switch {
		case err != nil:
			neverAsk += " (team policy unreadable, asking)"
		case !available:
			neverAsk += " (disabled by team policy)"
		}
	}

	term.Printf("Session:                 %s (%s)\n", s.Name(), s.ID)
	term.Printf("Never ask:               %s\n", neverAsk)
	term.Printf("Zero touch U2F:          %s\n", onOff(st.U2FZeroTouch))
	term.Printf("Unknown hosts:           %s\n", onOff(st.PermitUnknownHosts))
	term.Printf("Approved notifications:  %s\n", onOff(st.ShowApprovedNotifications))

	t := now()
	var rows [][]string
	for _, c := range request.AllCategories {
		until, ok := st.AllowedUntilTime(c)
		if !ok || !until.After(t) {
			continue
		}
		rows = append(rows, []string{string(c), until.Local().Format(time.DateTime), remaining(until.Sub(t))})
	}
	if len(rows) > 0 {
		term.Println()
		term.Table([]string{"CATEGORY", "ALLOWED UNTIL", "REMAINING"}, rows)
	}
	printHosts(p.TemporarilyApprovedHosts())
	return nil
}

func runPolicyAllowAll(cmd *cobra.Command, args []string) error {
	category, err := request.ParseAllowCategory(args[1])
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.lookupSession(args[0])
	if err != nil {
		return err
	}
	d := grantDuration(cmd, a)
	a.policy.For(s.ID).AllowAll(cmd.Context(), category, d)
	term.Printf("Allowed all %s requests from %s for %s\n", category, s.Name(), team.LongLabel(d))
	return nil
}

func runPolicyAllowHost(cmd *cobra.Command, args []string) error {
	uh, err := request.ParseUserHost(args[1])
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.lookupSession(args[0])
	if err != nil {
		return err
	}
	d := grantDuration(cmd, a)
	a.policy.For(s.ID).AllowThis(cmd.Context(), uh, d)
	term.Printf("Allowed SSH logins to %s from %s for %s\n", uh, s.Name(), team.LongLabel(d))
	return nil
}

func runPolicyHosts(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.lookupSession(args[0])
	if err != nil {
		return err
	}
	hosts := a.policy.For(s.ID).TemporarilyApprovedHosts()
	if len(hosts) == 0 {
		term.Println("No temporarily allowed hosts.")
		return nil
	}
	printHosts(hosts)
	return nil
}

func runPolicyNeverAsk(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.lookupSession(args[0])
	if err != nil {
		return err
	}
	a.policy.For(s.ID).SetNeverAsk()

	available, err := a.resolver.IsNeverAskAvailable(cmd.Context())
	switch {
	case err != nil:
		term.Warn("cannot read team policy (%v); requests will still be asked", err)
	case !available:
		term.Warn("team policy mandates approval; never ask has no effect for now")
	}
	term.Printf("Never asking for %s\n", s.Name())
	return nil
}

func runPolicyAlwaysAsk(cmd *cobra.Command, args []string) error {
	if len(args) == 2 && alwaysAskHost != "" {
		return fmt.Errorf("give either a category or --host, not both")
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.lookupSession(args[0])
	if err != nil {
		return err
	}
	p := a.policy.For(s.ID)

	switch {
	case len(args) == 2:
		category, err := request.ParseAllowCategory(args[1])
		if err != nil {
			return err
		}
		p.SetAlwaysAskFor(category)
		term.Printf("Always asking for %s requests from %s\n", category, s.Name())
	case alwaysAskHost != "":
		uh, err := request.ParseUserHost(alwaysAskHost)
		if err != nil {
			return err
		}
		p.SetAlwaysAskForHost(uh)
		term.Printf("Always asking for SSH logins to %s from %s\n", uh, s.Name())
	default:
		p.SetAlwaysAsk()
		term.Printf("Always asking for every request from %s\n", s.Name())
	}
	return nil
}

func runPolicyInterval(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	interval := a.resolver.TemporaryApprovalInterval(cmd.Context())
	term.Printf("%s (%s)\n", interval.Description, interval.Short)
	return nil
}

func toggleRunner(what string, set func(a *app, sessionID string, on bool)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		on, err := parseOnOff(args[1])
		if err != nil {
			return err
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.lookupSession(args[0])
		if err != nil {
			return err
		}
		set(a, s.ID, on)
		term.Printf("Turned %s %s for %s\n", what, onOff(on), s.Name())
		return nil
	}
}

// grantDuration is --for when given, else the approval interval.
func grantDuration(cmd *cobra.Command, a *app) time.Duration {
	if policyFor > 0 {
		return policyFor
	}
	return a.resolver.TemporaryApprovalInterval(cmd.Context()).Value
}

func printHosts(hosts []policy.TemporarilyAllowedHost) {
	if len(hosts) == 0 {
		return
	}
	t := now()
	rows := make([][]string, 0, len(hosts))
	for _, h := range hosts {
		fp := h.UserHost.Fingerprint()
		if fp == "" {
			fp = "-"
		}
		rows = append(rows, []string{
			h.UserHost.String(),
			fp,
			h.Expires.Local().Format(time.DateTime),
			remaining(h.Expires.Sub(t)),
		})
	}
	term.Println()
	term.Table([]string{"USER@HOST", "HOST KEY", "EXPIRES", "REMAINING"}, rows)
}

func remaining(d time.Duration) string {
	if d <= 0 {
		return "expired"
	}
	return d.Round(time.Minute).String()
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
