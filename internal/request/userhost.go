package request

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/ssh"
)

// ErrInvalidUserHost is returned for an empty user or hostname, or a host
// key that does not parse.
var ErrInvalidUserHost = errors.New("request: invalid user@host")

// uniqueIDKey separates user@host ids from any other keyed hash of the same input.
var uniqueIDKey = blake3.Sum256([]byte("cosigner verified user@host id"))

// VerifiedUserHost is a user@hostname pair whose host key signature the
// transport layer already checked.
type VerifiedUserHost struct {
	User     string `json:"user"`
	Hostname string `json:"hostname"`
	// HostKey is the host public key in authorized_keys format, if known.
	HostKey string `json:"host_key,omitempty"`
}

// NewVerifiedUserHost validates its arguments and returns a user@host.
func NewVerifiedUserHost(user, hostname, hostKey string) (*VerifiedUserHost, error) {
	uh := &VerifiedUserHost{User: user, Hostname: hostname, HostKey: hostKey}
	if err := uh.Validate(); err != nil {
		return nil, err
	}
	return uh, nil
}

// ParseUserHost parses "user@hostname". The hostname may itself contain
// '@'; the first one separates the user.
func ParseUserHost(s string) (*VerifiedUserHost, error) {
	user, host, ok := strings.Cut(s, "@")
	if !ok {
		return nil, fmt.Errorf("%w: %q has no '@'", ErrInvalidUserHost, s)
	}
	return NewVerifiedUserHost(user, host, "")
}

// Validate checks the pair has both halves and a parseable host key.
func (u *VerifiedUserHost) Validate() error {
	if u.User == "" || u.Hostname == "" {
		return fmt.Errorf("%w: user and hostname are required", ErrInvalidUserHost)
	}
	if u.HostKey != "" {
		if _, _, _, _, err := ssh.ParseAuthorizedKey([]byte(u.HostKey)); err != nil {
			return fmt.Errorf("%w: host key: %v", ErrInvalidUserHost, err)
		}
	}
	return nil
}

// String returns "user@hostname".
func (u *VerifiedUserHost) String() string {
	return u.User + "@" + u.Hostname
}

// UniqueID is the stable per-host cache key for u. It depends only on the
// user and hostname, so a rotated host key keeps its temporary approval.
func (u *VerifiedUserHost) UniqueID() string {
	h, err := blake3.NewKeyed(uniqueIDKey[:])
	if err != nil {
		// Only fails for a key that is not 32 bytes.
		panic(err)
	}
	_, _ = h.Write([]byte(u.User))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(u.Hostname))
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the SHA256 fingerprint of the host key, or "" when
// no key is recorded.
func (u *VerifiedUserHost) Fingerprint() string {
	if u.HostKey == "" {
		return ""
	}
	pub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(u.HostKey))
	if err != nil {
		return ""
	}
	return ssh.FingerprintSHA256(pub)
}
