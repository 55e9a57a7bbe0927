package version

import "testing"

func TestString(t *testing.T) {
	tests := []struct {
		name    string
		version string
		commit  string
		want    string
	}{
		{"dev build", "dev", "", "dev"},
		{"release without commit", "v1.0.0", "", "v1.0.0"},
		{"short commit", "v1.0.0", "abc123", "v1.0.0 (abc123)"},
		{"long commit is truncated", "v1.2.0", "0123456789abcdef0123", "v1.2.0 (0123456789ab)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origVersion, origCommit := Version, Commit
			defer func() { Version, Commit = origVersion, origCommit }()

			Version, Commit = tt.version, tt.commit
			if got := String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
