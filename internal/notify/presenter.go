package notify

import (
	"strconv"
	"time"

	"github.com/xdg/cosigner/internal/expcache"
	"github.com/xdg/cosigner/internal/request"
	"github.com/xdg/cosigner/internal/session"
)

// ShownCacheName is the cache namespace of posted notifications and their
// group counts.
const ShownCacheName = "shown_note_cache"

// ShownWindow is how long a posted notification counts as still on screen.
const ShownWindow = 5 * time.Minute

// Presenter numbers the approval notifications of each group. A repeat
// within ShownWindow replaces the previous notification and carries the
// repeat count. Counts and posted ids live in an expcache so separate
// processes continue the same sequence.
type Presenter struct {
	counter *Counter
	shown   *expcache.Cache
}

// NewPresenter returns a presenter over shown. With a nil cache every
// delivery is the first of its group.
func NewPresenter(shown *expcache.Cache) *Presenter {
	return &Presenter{counter: NewCounter(), shown: shown}
}

// Next reserves the delivery of req from s and records it as shown.
func (p *Presenter) Next(s *session.Session, req *request.Request) Delivery {
	group := GroupFor(s, req)
	if p.shown == nil {
		return p.counter.Next(group, nil)
	}

	if data, ok := p.shown.Get(countKey(group)); ok {
		if n, err := strconv.Atoi(string(data)); err == nil {
			p.counter.Restore(group, n)
		}
	}
	d := p.counter.Next(group, func(id string) bool {
		_, ok := p.shown.Get(shownKey(id))
		return ok
	})

	if err := p.shown.Set(shownKey(d.ID), []byte{}, ShownWindow); err != nil {
		log.Warn("recording notification %s: %v", d.ID, err)
	}
	if err := p.shown.Set(countKey(group), []byte(strconv.Itoa(d.Count)), ShownWindow); err != nil {
		log.Warn("recording count of %s: %v", group, err)
	}
	if d.Replaces != "" {
		_ = p.shown.Remove(shownKey(d.Replaces))
	}
	return d
}

func countKey(g GroupID) string { return "count/" + string(g) }

func shownKey(id string) string { return "shown/" + id }
