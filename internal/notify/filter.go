package notify

import (
	"time"

	"github.com/xdg/cosigner/internal/clog"
	"github.com/xdg/cosigner/internal/expcache"
)

var log = clog.For("notify")

// InAppCacheName is the cache namespace of recently presented requests.
const InAppCacheName = "in_app_note_cache"

// InAppWindow is how long a presented request is suppressed.
const InAppWindow = 30 * time.Second

// InAppFilter suppresses a second in-app presentation of the same
// auto-approved request, as happens when the app opens while the system
// notification is still being delivered.
type InAppFilter struct {
	cache *expcache.Cache
}

// NewInAppFilter returns a filter over cache. With a nil cache nothing is
// suppressed.
func NewInAppFilter(cache *expcache.Cache) *InAppFilter {
	return &InAppFilter{cache: cache}
}

// ShouldPresent reports whether requestID should be shown now, and
// records that it was.
func (f *InAppFilter) ShouldPresent(requestID string) bool {
	if f == nil || f.cache == nil {
		return true
	}
	if _, seen := f.cache.Get(requestID); seen {
		f.cache.RemoveExpired()
		return false
	}
	if err := f.cache.Set(requestID, []byte{}, InAppWindow); err != nil {
		log.Warn("recording presented request %s: %v", requestID, err)
	}
	return true
}
