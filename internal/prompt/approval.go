package prompt

import (
	"fmt"

	"github.com/xdg/cosigner/internal/request"
	"github.com/xdg/cosigner/internal/team"
)

// Choice is the human's answer to an approval prompt.
type Choice int

const (
	// AllowOnce approves only this request.
	AllowOnce Choice = iota
	// AllowHost approves this user@host for the temporary approval interval.
	AllowHost
	// AllowCategory approves every request of this category for the interval.
	AllowCategory
	// Reject refuses the request.
	Reject
)

// String returns a lowercase name for logs.
func (c Choice) String() string {
	switch c {
	case AllowOnce:
		return "allow once"
	case AllowHost:
		return "allow host"
	case AllowCategory:
		return "allow category"
	case Reject:
		return "reject"
	default:
		return fmt.Sprintf("choice(%d)", int(c))
	}
}

// Option pairs a choice with the label shown for it.
type Option struct {
	Choice Choice
	Label  string
}

var categoryLabels = map[request.AllowCategory]string{
	request.CategorySSH:        "SSH logins",
	request.CategoryGitCommit:  "git commit signatures",
	request.CategoryGitTag:     "git tag signatures",
	request.CategoryDecryptLog: "team log decryption",
}

// ApprovalOptions lists the answers that make sense for req. The host
// option needs a verified user@host; the category option needs a request
// that belongs to an allow category. Reject is always last.
func ApprovalOptions(req *request.Request, interval team.ApprovalTime) []Option {
	opts := []Option{{Choice: AllowOnce, Label: "Allow once"}}
	if uh := req.UserHost(); uh != nil {
		opts = append(opts, Option{
			Choice: AllowHost,
			Label:  fmt.Sprintf("Allow %s for %s", uh, interval.Description),
		})
	}
	if cat, ok := req.AllowCategory(); ok {
		opts = append(opts, Option{
			Choice: AllowCategory,
			Label:  fmt.Sprintf("Allow all %s for %s", categoryLabels[cat], interval.Description),
		})
	}
	return append(opts, Option{Choice: Reject, Label: "Reject"})
}

// AskApproval asks the human about req on behalf of sessionName. Reject is
// the default so an empty answer never approves anything.
func AskApproval(p Prompter, sessionName string, req *request.Request, interval team.ApprovalTime) (Choice, error) {
	opts := ApprovalOptions(req, interval)
	labels := make([]string, len(opts))
	for i, o := range opts {
		labels[i] = o.Label
	}

	idx, err := p.Prompt(fmt.Sprintf("%s requests %s.", sessionName, req.Summary()), labels, len(opts)-1)
	if err != nil {
		return Reject, err
	}
	if idx < 0 || idx >= len(opts) {
		return Reject, fmt.Errorf("selection %d out of range", idx)
	}
	return opts[idx].Choice, nil
}
