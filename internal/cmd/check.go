package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/xdg/cosigner/internal/clog"
	"github.com/xdg/cosigner/internal/policy"
	"github.com/xdg/cosigner/internal/prompt"
	"github.com/xdg/cosigner/internal/request"
	"github.com/xdg/cosigner/internal/session"
	"github.com/xdg/cosigner/internal/term"
)

var (
	checkType      string
	checkUserHost  string
	checkHostKey   string
	checkDisplay   string
	checkGit       string
	checkAppID     string
	checkOperation string
	checkNoPrompt  bool
)

var checkCmd = &cobra.Command{
	Use:   "check <session> [request.json|-]",
	Short: "Decide a request for a session",
	Long: `Decide whether a request from a paired session is allowed.

The request is read as JSON from a file, or from stdin with "-". Without a
file argument it is built from the flags and given a fresh id:

  cosigner check laptop --type ssh --user-host alice@build.example.com
  cosigner check laptop --type git --git tag

When the verdict is "ask" and stdin is a terminal, the approval prompt is
shown and the answer is recorded. Exit status: 0 allow, 2 ask, 3 deny.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCheck,
}

func init() {
	f := checkCmd.Flags()
	f.StringVar(&checkType, "type", "", "request type ("+kindNames()+")")
	f.StringVar(&checkUserHost, "user-host", "", "verified user@host of an ssh request")
	f.StringVar(&checkHostKey, "host-key", "", "authorized_keys line of the verified host")
	f.StringVar(&checkDisplay, "display", "", "display string of an ssh request")
	f.StringVar(&checkGit, "git", "commit", "git signature kind: commit or tag")
	f.StringVar(&checkAppID, "app-id", "", "U2F application id")
	f.StringVar(&checkOperation, "operation", "", "team operation name")
	f.BoolVar(&checkNoPrompt, "no-prompt", false, "never show the approval prompt")
	rootCmd.AddCommand(checkCmd)
}

func kindNames() string {
	s := ""
	for i, k := range request.Kinds {
		if i > 0 {
			s += ", "
		}
		s += k.String()
	}
	return s
}

func runCheck(cmd *cobra.Command, args []string) error {
	req, fromStdin, err := readCheckRequest(args[1:])
	if err != nil {
		return err
	}
	if req.Received.IsZero() {
		req.Received = now()
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

	var p prompt.Prompter
	if !checkNoPrompt && !fromStdin && prompt.IsInteractive(os.Stdin) {
		p = prompt.NewStdinPrompter(os.Stdin, os.Stdout)
	}

	d, err := decide(cmd.Context(), a, s, req, p)
	if err != nil {
		return err
	}
	term.Println(d.String())
	return exitForDecision(d)
}

// decide runs the per-session migration and evaluates req. An AskHuman
// verdict is put to p when p is non-nil. The returned decision is the
// final one: Allow or Deny after an answer, AskHuman if nobody answered.
func decide(ctx context.Context, a *app, s *session.Session, req *request.Request, p prompt.Prompter) (policy.Decision, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	a.policy.MigrateOldPolicySettingsIfNeeded(s.ID)

	d := a.policy.Evaluate(ctx, s, req)
	switch d {
	case policy.Allow:
		presentApproved(a, s, req)
		return d, nil
	case policy.Deny:
		return d, nil
	}

	if p == nil {
		return d, nil
	}
	interval := a.resolver.TemporaryApprovalInterval(ctx)
	choice, err := prompt.AskApproval(p, s.Name(), req, interval)
	if err != nil {
		clog.Warn("approval prompt failed, rejecting: %v", err)
	}

	sp := a.policy.For(s.ID)
	switch choice {
	case prompt.AllowOnce:
		a.policy.Respond(ctx, s, req, true)
	case prompt.AllowHost:
		a.policy.Respond(ctx, s, req, true)
		sp.AllowThis(ctx, req.UserHost(), interval.Value)
	case prompt.AllowCategory:
		a.policy.Respond(ctx, s, req, true)
		sp.AllowAllFor(ctx, req, interval.Value)
	default:
		a.policy.Respond(ctx, s, req, false)
		return policy.Deny, nil
	}
	return policy.Allow, nil
}

// presentApproved prints the notification of an auto-approved request
// when the session wants them and it was not shown a moment ago.
func presentApproved(a *app, s *session.Session, req *request.Request) {
	if !a.policy.For(s.ID).Settings().ShowApprovedNotifications {
		return
	}
	if !a.inAppFilter().ShouldPresent(req.ID) {
		return
	}
	delivery := a.presenter().Next(s, req)
	term.Printf("Approved for %s: %s\n", s.Name(), delivery.Body(req.Summary()))
}

func readCheckRequest(args []string) (*request.Request, bool, error) {
	if len(args) == 0 {
		req, err := requestFromFlags()
		return req, false, err
	}

	var (
		data []byte
		err  error
	)
	fromStdin := args[0] == "-"
	if fromStdin {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return nil, fromStdin, fmt.Errorf("failed to read request: %w", err)
	}
	req, err := request.Parse(data)
	if err != nil {
		return nil, fromStdin, fmt.Errorf("invalid request: %w", err)
	}
	return req, fromStdin, nil
}

// requestFromFlags builds the wire form from the check flags and parses it,
// so flag-built requests get the same validation as JSON ones.
func requestFromFlags() (*request.Request, error) {
	if checkType == "" {
		return nil, fmt.Errorf("either a request file or --type is required")
	}
	kind, err := request.ParseKind(checkType)
	if err != nil {
		return nil, err
	}

	w := map[string]any{"id": uuid.NewString(), "type": kind.String()}
	switch kind {
	case request.KindSSH:
		ssh := map[string]any{"display": checkDisplay}
		if checkUserHost != "" {
			uh, err := request.ParseUserHost(checkUserHost)
			if err != nil {
				return nil, err
			}
			uh.HostKey = checkHostKey
			ssh["verified_user_and_host"] = uh
			if checkDisplay == "" {
				ssh["display"] = uh.String()
			}
		}
		w["ssh"] = ssh
	case request.KindGit:
		w["git"] = map[string]any{"kind": checkGit}
	case request.KindTeamOperation:
		w["team_operation"] = map[string]any{"operation": checkOperation}
	case request.KindU2FRegister, request.KindU2FAuthenticate:
		w["u2f"] = map[string]any{"app_id": checkAppID}
	}

	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return request.Parse(data)
}
