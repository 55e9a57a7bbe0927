package request

import (
	"errors"
	"time"
)

var (
	// ErrUnknownKind is returned when a wire request names no known kind.
	ErrUnknownKind = errors.New("request: unknown kind")
	// ErrMissingID is returned when a wire request has no id.
	ErrMissingID = errors.New("request: missing id")
	// ErrMissingBody is returned when a wire request lacks the payload its kind requires.
	ErrMissingBody = errors.New("request: missing body")
)

// Request is an identified action awaiting authorization. It is created
// by the transport layer and is not modified afterwards.
type Request struct {
	ID       string
	Body     Body
	Received time.Time
}

// Kind returns the body kind, or 0 for a request without a body.
func (r *Request) Kind() Kind {
	if r == nil || r.Body == nil {
		return 0
	}
	return r.Body.Kind()
}

// AllowCategory returns the blanket-allow category for the request. The
// second result is false for kinds that can never be blanket-allowed.
func (r *Request) AllowCategory() (AllowCategory, bool) {
	if r == nil {
		return "", false
	}
	switch b := r.Body.(type) {
	case SSHSign:
		return CategorySSH, true
	case DecryptLog:
		return CategoryDecryptLog, true
	case GitSign:
		switch b.Git {
		case GitCommit:
			return CategoryGitCommit, true
		case GitTag:
			return CategoryGitTag, true
		}
	}
	return "", false
}

// IsApprovable reports whether a human can be asked about the request.
// Housekeeping requests are answered without any prompt.
func (r *Request) IsApprovable() bool {
	switch r.Kind() {
	case KindMe, KindUnpair, KindNoOp, 0:
		return false
	default:
		return true
	}
}

// UserHost returns the verified user@host of an SSH request, or nil.
func (r *Request) UserHost() *VerifiedUserHost {
	if r == nil {
		return nil
	}
	if ssh, ok := r.Body.(SSHSign); ok {
		return ssh.UserHost
	}
	return nil
}

// Summary is a short human description, used in prompts and audit lines.
func (r *Request) Summary() string {
	switch b := r.Body.(type) {
	case SSHSign:
		if b.Display != "" {
			return "SSH login " + b.Display
		}
		if b.UserHost != nil {
			return "SSH login " + b.UserHost.String()
		}
		return "SSH login to an unknown host"
	case GitSign:
		return "git " + b.Git.String() + " signature"
	case TeamOperation:
		if b.Operation != "" {
			return "team operation " + b.Operation
		}
		return "team operation"
	case U2FRegister:
		return "U2F register " + b.AppID
	case U2FAuthenticate:
		return "U2F authenticate " + b.AppID
	case nil:
		return "empty request"
	default:
		return b.Kind().String()
	}
}
