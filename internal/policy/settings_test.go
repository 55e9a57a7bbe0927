package policy

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/xdg/cosigner/internal/request"
)

func TestSettings_RoundTrip(t *testing.T) {
	allowed := []map[request.AllowCategory]int64{
		{},
		{request.CategorySSH: 1700000000},
		{request.CategoryGitCommit: 1, request.CategoryGitTag: 2, request.CategoryDecryptLog: 3, request.CategorySSH: 4},
	}
	for mask := 0; mask < 32; mask++ {
		for _, a := range allowed {
			s := Settings{
				AllowedUntil:              a,
				ShowApprovedNotifications: mask&1 != 0,
				PermitUnknownHosts:        mask&2 != 0,
				U2FZeroTouch:              mask&4 != 0,
				NeverAsk:                  mask&8 != 0,
				HasMigratedOldPolicies:    mask&16 != 0,
			}
			data, err := json.Marshal(s)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			var got Settings
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("Unmarshal(%s): %v", data, err)
			}
			if !got.Equal(s) {
				t.Errorf("round trip of %+v produced %+v", s, got)
			}
		}
	}
}

func TestSettings_Keys(t *testing.T) {
	data, err := json.Marshal(DefaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{
		`"allowed_until":{}`,
		`"should_show_approved_notifications":true`,
		`"should_permit_unknownHosts_allowed":false`,
		`"u2f_zero_touch":false`,
		`"should_never_ask":false`,
		`"has_migrated_old_policies":false`,
	} {
		if !strings.Contains(string(data), key) {
			t.Errorf("encoded settings %s missing %s", data, key)
		}
	}
}

func TestSettings_OptionalZeroTouch(t *testing.T) {
	blob := `{"allowed_until":{"ssh":5},"should_show_approved_notifications":false,` +
		`"should_permit_unknownHosts_allowed":true,"should_never_ask":false,"has_migrated_old_policies":true}`
	var s Settings
	if err := json.Unmarshal([]byte(blob), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := Settings{
		AllowedUntil:           map[request.AllowCategory]int64{request.CategorySSH: 5},
		PermitUnknownHosts:     true,
		HasMigratedOldPolicies: true,
	}
	if !s.Equal(want) {
		t.Errorf("got %+v, want %+v", s, want)
	}
}

func TestSettings_MissingRequiredKey(t *testing.T) {
	full := map[string]any{
		"allowed_until":                      map[string]int64{},
		"should_show_approved_notifications": true,
		"should_permit_unknownHosts_allowed": false,
		"should_never_ask":                   false,
		"has_migrated_old_policies":          false,
	}
	for key := range full {
		t.Run(key, func(t *testing.T) {
			partial := map[string]any{}
			for k, v := range full {
				if k != key {
					partial[k] = v
				}
			}
			data, _ := json.Marshal(partial)
			var s Settings
			if err := json.Unmarshal(data, &s); err == nil {
				t.Errorf("Unmarshal without %q should fail", key)
			}
		})
	}
}

func TestSettings_CloneIsIndependent(t *testing.T) {
	s := DefaultSettings()
	c := s.Clone()
	c.AllowedUntil[request.CategorySSH] = 1
	if _, ok := s.AllowedUntil[request.CategorySSH]; ok {
		t.Error("Clone shares AllowedUntil with original")
	}
}

func TestTemporarilyAllowedHost_JSON(t *testing.T) {
	h := TemporarilyAllowedHost{
		UserHost: request.VerifiedUserHost{User: "root", Hostname: "db"},
		Expires:  time.Unix(1700000123, 0),
	}
	data, err := json.Marshal(h)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"user_and_host":{"user":"root","hostname":"db"}`) ||
		!strings.Contains(string(data), `"expires":1700000123`) {
		t.Errorf("unexpected encoding %s", data)
	}
	var got TemporarilyAllowedHost
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.UserHost != h.UserHost || !got.Expires.Equal(h.Expires) {
		t.Errorf("got %+v, want %+v", got, h)
	}

	for _, bad := range []string{`{}`, `{"expires":1}`, `{"user_and_host":{"user":"","hostname":"h"},"expires":1}`, `[]`,
		`{"user_and_host":{"user":"root","hostname":"db"},"expires":1e300}`,
		`{"user_and_host":{"user":"root","hostname":"db"},"expires":-5}`,
	} {
		if err := json.Unmarshal([]byte(bad), &got); err == nil {
			t.Errorf("Unmarshal(%s) should fail", bad)
		}
	}
}
