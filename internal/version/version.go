// Package version provides version information for cosigner.
// Version and Commit are set at build time via ldflags.
package version

// Version is the current version of cosigner.
// Set at build time via: -ldflags "-X github.com/xdg/cosigner/internal/version.Version=v1.0.0"
var Version = "dev"

// Commit is the source revision the binary was built from, if known.
var Commit = ""

// String returns the version with the commit appended when it is set.
func String() string {
	if Commit == "" {
		return Version
	}
	short := Commit
	if len(short) > 12 {
		short = short[:12]
	}
	return Version + " (" + short + ")"
}
