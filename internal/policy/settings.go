package policy

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/xdg/cosigner/internal/expcache"
	"github.com/xdg/cosigner/internal/request"
)

// Settings is the persisted authorization state of one session.
type Settings struct {
	// AllowedUntil maps a blanket-allow category to its deadline in unix
	// seconds. A missing or past deadline means not allowed.
	AllowedUntil map[request.AllowCategory]int64

	ShowApprovedNotifications bool
	PermitUnknownHosts        bool
	U2FZeroTouch              bool
	NeverAsk                  bool
	HasMigratedOldPolicies    bool
}

// DefaultSettings is the state of a session with nothing persisted.
func DefaultSettings() Settings {
	return Settings{
		AllowedUntil:              map[request.AllowCategory]int64{},
		ShowApprovedNotifications: true,
	}
}

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	c := s
	c.AllowedUntil = maps.Clone(s.AllowedUntil)
	if c.AllowedUntil == nil {
		c.AllowedUntil = map[request.AllowCategory]int64{}
	}
	return c
}

// Equal reports whether two settings hold the same state. A nil and an
// empty AllowedUntil are equal.
func (s Settings) Equal(o Settings) bool {
	return maps.Equal(s.AllowedUntil, o.AllowedUntil) &&
		s.ShowApprovedNotifications == o.ShowApprovedNotifications &&
		s.PermitUnknownHosts == o.PermitUnknownHosts &&
		s.U2FZeroTouch == o.U2FZeroTouch &&
		s.NeverAsk == o.NeverAsk &&
		s.HasMigratedOldPolicies == o.HasMigratedOldPolicies
}

// AllowedUntilTime returns the blanket-allow deadline for c, if any.
func (s Settings) AllowedUntilTime(c request.AllowCategory) (time.Time, bool) {
	until, ok := s.AllowedUntil[c]
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(until, 0), true
}

// settingsJSON is the stored form. Every key except u2f_zero_touch is
// required; pointers detect absence.
type settingsJSON struct {
	AllowedUntil              *map[request.AllowCategory]int64 `json:"allowed_until"`
	ShowApprovedNotifications *bool                            `json:"should_show_approved_notifications"`
	PermitUnknownHosts        *bool                            `json:"should_permit_unknownHosts_allowed"`
	U2FZeroTouch              *bool                            `json:"u2f_zero_touch"`
	NeverAsk                  *bool                            `json:"should_never_ask"`
	HasMigratedOldPolicies    *bool                            `json:"has_migrated_old_policies"`
}

// MarshalJSON implements json.Marshaler.
func (s Settings) MarshalJSON() ([]byte, error) {
	allowed := s.AllowedUntil
	if allowed == nil {
		allowed = map[request.AllowCategory]int64{}
	}
	return json.Marshal(settingsJSON{
		AllowedUntil:              &allowed,
		ShowApprovedNotifications: &s.ShowApprovedNotifications,
		PermitUnknownHosts:        &s.PermitUnknownHosts,
		U2FZeroTouch:              &s.U2FZeroTouch,
		NeverAsk:                  &s.NeverAsk,
		HasMigratedOldPolicies:    &s.HasMigratedOldPolicies,
	})
}

// UnmarshalJSON implements json.Unmarshaler. A missing required key is
// an error so that a truncated blob is rejected rather than half-read.
func (s *Settings) UnmarshalJSON(data []byte) error {
	var w settingsJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	required := []struct {
		name    string
		present bool
	}{
		{"allowed_until", w.AllowedUntil != nil},
		{"should_show_approved_notifications", w.ShowApprovedNotifications != nil},
		{"should_permit_unknownHosts_allowed", w.PermitUnknownHosts != nil},
		{"should_never_ask", w.NeverAsk != nil},
		{"has_migrated_old_policies", w.HasMigratedOldPolicies != nil},
	}
	for _, r := range required {
		if !r.present {
			return fmt.Errorf("policy settings: missing %q", r.name)
		}
	}

	out := Settings{
		AllowedUntil:              *w.AllowedUntil,
		ShowApprovedNotifications: *w.ShowApprovedNotifications,
		PermitUnknownHosts:        *w.PermitUnknownHosts,
		NeverAsk:                  *w.NeverAsk,
		HasMigratedOldPolicies:    *w.HasMigratedOldPolicies,
	}
	if out.AllowedUntil == nil {
		out.AllowedUntil = map[request.AllowCategory]int64{}
	}
	if w.U2FZeroTouch != nil {
		out.U2FZeroTouch = *w.U2FZeroTouch
	}
	*s = out
	return nil
}

// TemporarilyAllowedHost is one per-host exception.
type TemporarilyAllowedHost struct {
	UserHost request.VerifiedUserHost
	Expires  time.Time
}

type temporarilyAllowedHostJSON struct {
	UserHost *request.VerifiedUserHost `json:"user_and_host"`
	Expires  *float64                  `json:"expires"`
}

// MarshalJSON implements json.Marshaler.
func (h TemporarilyAllowedHost) MarshalJSON() ([]byte, error) {
	expires := float64(h.Expires.UnixNano()) / float64(time.Second)
	return json.Marshal(temporarilyAllowedHostJSON{UserHost: &h.UserHost, Expires: &expires})
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *TemporarilyAllowedHost) UnmarshalJSON(data []byte) error {
	var w temporarilyAllowedHostJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.UserHost == nil || w.Expires == nil {
		return fmt.Errorf("temporarily allowed host: missing user_and_host or expires")
	}
	if err := w.UserHost.Validate(); err != nil {
		return err
	}
	expires, err := expcache.UnixFloat(*w.Expires)
	if err != nil {
		return fmt.Errorf("temporarily allowed host: %w", err)
	}
	h.UserHost = *w.UserHost
	h.Expires = expires
	return nil
}
