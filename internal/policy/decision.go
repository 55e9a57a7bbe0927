// Package policy decides whether a request from a paired session may
// proceed without a human, and keeps the per-session authorization state
// that decision depends on.
package policy

// Decision is the verdict for one request.
type Decision int

// Decision constants.
const (
	Allow Decision = iota
	Deny
	AskHuman
)

// String returns a human-readable representation of a Decision.
func (d Decision) String() string {
	switch d {
	case Allow:
		return "Allow"
	case Deny:
		return "Deny"
	case AskHuman:
		return "AskHuman"
	default:
		return "Unknown"
	}
}
