// Package request defines the signed requests a paired session sends for
// authorization. A request body is one of a closed set of variants; the
// policy engine dispatches on the variant to decide whether the request
// may proceed without a human.
package request

import "fmt"

// Kind identifies a request body variant.
type Kind int

// The closed set of request kinds.
const (
	KindSSH Kind = iota + 1
	KindGit
	KindHosts
	KindMe
	KindDecryptLog
	KindNoOp
	KindUnpair
	KindReadTeam
	KindTeamOperation
	KindU2FRegister
	KindU2FAuthenticate
)

// Kinds lists every kind, in declaration order.
var Kinds = []Kind{
	KindSSH, KindGit, KindHosts, KindMe, KindDecryptLog, KindNoOp,
	KindUnpair, KindReadTeam, KindTeamOperation, KindU2FRegister, KindU2FAuthenticate,
}

var kindNames = map[Kind]string{
	KindSSH:             "ssh",
	KindGit:             "git",
	KindHosts:           "hosts",
	KindMe:              "me",
	KindDecryptLog:      "decrypt_log",
	KindNoOp:            "no_op",
	KindUnpair:          "unpair",
	KindReadTeam:        "read_team",
	KindTeamOperation:   "team_operation",
	KindU2FRegister:     "u2f_register",
	KindU2FAuthenticate: "u2f_authenticate",
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a wire name to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// AllowCategory is the storage key for a blanket "allow until" grant.
// Only ssh, git commit, git tag and log decryption requests can be
// blanket-allowed.
type AllowCategory string

// Allow categories.
const (
	CategorySSH        AllowCategory = "ssh"
	CategoryGitCommit  AllowCategory = "git_commit"
	CategoryGitTag     AllowCategory = "git_tag"
	CategoryDecryptLog AllowCategory = "teams_decrypt_log"
)

// AllCategories lists every allow category.
var AllCategories = []AllowCategory{CategorySSH, CategoryGitCommit, CategoryGitTag, CategoryDecryptLog}

// ParseAllowCategory validates a category name.
func ParseAllowCategory(s string) (AllowCategory, error) {
	for _, c := range AllCategories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown allow category %q", s)
}
