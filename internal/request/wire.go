package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// wireRequest is the JSON form a transport hands to the engine.
type wireRequest struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	UnixSeconds int64     `json:"unix_seconds,omitempty"`
	SSH         *wireSSH  `json:"ssh,omitempty"`
	Git         *wireGit  `json:"git,omitempty"`
	Team        *wireTeam `json:"team_operation,omitempty"`
	U2F         *wireU2F  `json:"u2f,omitempty"`
}

type wireSSH struct {
	Display  string            `json:"display,omitempty"`
	UserHost *VerifiedUserHost `json:"verified_user_and_host,omitempty"`
}

type wireGit struct {
	Kind string `json:"kind"`
}

type wireTeam struct {
	Operation string `json:"operation"`
}

type wireU2F struct {
	AppID string `json:"app_id"`
}

// Parse decodes a JSON request. Unknown fields are rejected.
func Parse(data []byte) (*Request, error) {
	var w wireRequest
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("request: decode: %w", err)
	}
	if w.ID == "" {
		return nil, ErrMissingID
	}
	kind, err := ParseKind(w.Type)
	if err != nil {
		return nil, err
	}

	r := &Request{ID: w.ID}
	if w.UnixSeconds > 0 {
		r.Received = time.Unix(w.UnixSeconds, 0)
	}

	switch kind {
	case KindSSH:
		if w.SSH == nil {
			return nil, fmt.Errorf("%w: ssh", ErrMissingBody)
		}
		if w.SSH.UserHost != nil {
			if err := w.SSH.UserHost.Validate(); err != nil {
				return nil, err
			}
		}
		r.Body = SSHSign{Display: w.SSH.Display, UserHost: w.SSH.UserHost}
	case KindGit:
		if w.Git == nil {
			return nil, fmt.Errorf("%w: git", ErrMissingBody)
		}
		switch w.Git.Kind {
		case "commit":
			r.Body = GitSign{Git: GitCommit}
		case "tag":
			r.Body = GitSign{Git: GitTag}
		default:
			return nil, fmt.Errorf("request: unknown git kind %q", w.Git.Kind)
		}
	case KindHosts:
		r.Body = Hosts{}
	case KindMe:
		r.Body = Me{}
	case KindDecryptLog:
		r.Body = DecryptLog{}
	case KindNoOp:
		r.Body = NoOp{}
	case KindUnpair:
		r.Body = Unpair{}
	case KindReadTeam:
		r.Body = ReadTeam{}
	case KindTeamOperation:
		var op string
		if w.Team != nil {
			op = w.Team.Operation
		}
		r.Body = TeamOperation{Operation: op}
	case KindU2FRegister, KindU2FAuthenticate:
		var app string
		if w.U2F != nil {
			app = w.U2F.AppID
		}
		if kind == KindU2FRegister {
			r.Body = U2FRegister{AppID: app}
		} else {
			r.Body = U2FAuthenticate{AppID: app}
		}
	}
	return r, nil
}
