package cmd

import (
	"errors"
	"fmt"

	"github.com/xdg/cosigner/internal/policy"
	"github.com/xdg/cosigner/internal/session"
)

// Exit codes of cosigner check.
const (
	ExitAllow    = 0
	ExitAskHuman = 2
	ExitDeny     = 3
)

// ExitCodeError carries a process exit code without an error message.
type ExitCodeError struct {
	Code int
}

// NewExitCodeError returns an ExitCodeError for code.
func NewExitCodeError(code int) *ExitCodeError {
	return &ExitCodeError{Code: code}
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// exitForDecision maps a verdict to the check exit status; Allow is nil.
func exitForDecision(d policy.Decision) error {
	switch d {
	case policy.Allow:
		return nil
	case policy.AskHuman:
		return NewExitCodeError(ExitAskHuman)
	default:
		return NewExitCodeError(ExitDeny)
	}
}

// sessionLookupError turns a registry miss into a message naming ref.
func sessionLookupError(ref string, err error) error {
	if errors.Is(err, session.ErrNotFound) {
		return fmt.Errorf("no paired session %q; see \"cosigner session list\"", ref)
	}
	return fmt.Errorf("failed to look up session %q: %w", ref, err)
}
