package team

import (
	"context"
	"fmt"
	"time"

	"github.com/xdg/cosigner/internal/clog"
)

var log = clog.For("team")

// DefaultTemporaryApproval is offered when no team mandates a duration.
const DefaultTemporaryApproval = 3 * time.Hour

// ApprovalTime is the temporary approval duration to offer, with labels
// for display.
type ApprovalTime struct {
	Description string // "3 hours"
	Short       string // "3h"
	Value       time.Duration
}

// Resolver applies team policy on top of local settings.
type Resolver struct {
	Identity IdentityProvider
	// Default is the temporary approval duration without a team
	// mandate. Zero means DefaultTemporaryApproval.
	Default time.Duration
}

// NewResolver returns a resolver over p. A nil provider means no team.
func NewResolver(p IdentityProvider, def time.Duration) *Resolver {
	if p == nil {
		p = NoTeam{}
	}
	return &Resolver{Identity: p, Default: def}
}

// IsNeverAskAvailable reports whether never-ask may take effect: true
// without a team, otherwise true only when the team's policy sets no
// temporary approval duration. Store errors are returned as is; callers
// deciding on a request must treat them as a refusal.
func (r *Resolver) IsNeverAskAvailable(ctx context.Context) (bool, error) {
	id, err := r.Identity.TeamIdentity(ctx)
	if err != nil {
		return false, err
	}
	if id == nil {
		return true, nil
	}
	t, err := id.FetchTeam(ctx)
	if err != nil {
		return false, err
	}
	return t.Policy.TemporaryApprovalSeconds == nil, nil
}

// TemporaryApprovalInterval returns the team-mandated duration when one is
// set, else the default. Failures resolving the team fall back to the
// default.
func (r *Resolver) TemporaryApprovalInterval(ctx context.Context) ApprovalTime {
	d := r.Default
	if d <= 0 {
		d = DefaultTemporaryApproval
	}

	id, err := r.Identity.TeamIdentity(ctx)
	if err != nil {
		log.Warn("resolving team identity: %v", err)
	}
	if id != nil {
		t, err := id.FetchTeam(ctx)
		switch {
		case err != nil:
			log.Warn("fetching team policy: %v", err)
		case t.Policy.TemporaryApprovalSeconds != nil:
			d = time.Duration(*t.Policy.TemporaryApprovalSeconds) * time.Second
		}
	}
	return NewApprovalTime(d)
}

// NewApprovalTime labels d.
func NewApprovalTime(d time.Duration) ApprovalTime {
	return ApprovalTime{Description: LongLabel(d), Short: ShortLabel(d), Value: d}
}

type unit struct {
	size  time.Duration
	long  string
	short string
}

var units = []unit{
	{24 * time.Hour, "day", "d"},
	{time.Hour, "hour", "h"},
	{time.Minute, "minute", "m"},
	{time.Second, "second", "s"},
}

func largestUnit(d time.Duration) (int64, unit) {
	for _, u := range units {
		if d >= u.size {
			return int64(d / u.size), u
		}
	}
	return 0, units[len(units)-1]
}

// LongLabel renders d in its largest whole unit, e.g. "3 hours", "1 day".
func LongLabel(d time.Duration) string {
	n, u := largestUnit(d)
	if n == 1 {
		return "1 " + u.long
	}
	return fmt.Sprintf("%d %ss", n, u.long)
}

// ShortLabel renders d in its largest whole unit, e.g. "3h", "1d".
func ShortLabel(d time.Duration) string {
	n, u := largestUnit(d)
	return fmt.Sprintf("%d%s", n, u.short)
}
