package request

// Body is a request body variant. The set is closed: only types in this
// package implement it.
type Body interface {
	Kind() Kind
	isBody()
}

// GitKind says what a git signature covers.
type GitKind int

// Git signature kinds.
const (
	GitCommit GitKind = iota + 1
	GitTag
)

// String returns "commit" or "tag".
func (g GitKind) String() string {
	switch g {
	case GitCommit:
		return "commit"
	case GitTag:
		return "tag"
	default:
		return "unknown"
	}
}

// SSHSign asks for an SSH signature. UserHost is set only when the host
// authentication data in the request verified.
type SSHSign struct {
	Display  string
	UserHost *VerifiedUserHost
}

// GitSign asks for a git commit or tag signature.
type GitSign struct {
	Git GitKind
}

// Hosts asks for the list of known hosts.
type Hosts struct{}

// Me asks for the device's public identity.
type Me struct{}

// DecryptLog asks to decrypt a team audit log block.
type DecryptLog struct{}

// NoOp is a transport keepalive.
type NoOp struct{}

// Unpair tells the device the remote peer unpaired.
type Unpair struct{}

// ReadTeam asks to read team data.
type ReadTeam struct{}

// TeamOperation asks to perform a team administration operation.
type TeamOperation struct {
	Operation string
}

// U2FRegister asks to register a U2F credential.
type U2FRegister struct {
	AppID string
}

// U2FAuthenticate asks to authenticate with a U2F credential.
type U2FAuthenticate struct {
	AppID string
}

func (SSHSign) Kind() Kind         { return KindSSH }
func (GitSign) Kind() Kind         { return KindGit }
func (Hosts) Kind() Kind           { return KindHosts }
func (Me) Kind() Kind              { return KindMe }
func (DecryptLog) Kind() Kind      { return KindDecryptLog }
func (NoOp) Kind() Kind            { return KindNoOp }
func (Unpair) Kind() Kind          { return KindUnpair }
func (ReadTeam) Kind() Kind        { return KindReadTeam }
func (TeamOperation) Kind() Kind   { return KindTeamOperation }
func (U2FRegister) Kind() Kind     { return KindU2FRegister }
func (U2FAuthenticate) Kind() Kind { return KindU2FAuthenticate }

func (SSHSign) isBody()         {}
func (GitSign) isBody()         {}
func (Hosts) isBody()           {}
func (Me) isBody()              {}
func (DecryptLog) isBody()      {}
func (NoOp) isBody()            {}
func (Unpair) isBody()          {}
func (ReadTeam) isBody()        {}
func (TeamOperation) isBody()   {}
func (U2FRegister) isBody()     {}
func (U2FAuthenticate) isBody() {}
