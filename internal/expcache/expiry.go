package expcache

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidExpiry is returned for a stored expiry that is not a usable
// unix time.
var ErrInvalidExpiry = errors.New("expcache: invalid expiry")

// maxExpiry keeps the nanosecond conversion inside int64 (about year 2255).
const maxExpiry = 9e9

// UnixFloat converts fractional unix seconds, the persisted expiry form,
// to a time. NaN, infinities, negative values and values past maxExpiry
// are rejected so a corrupt entry is dropped instead of reinterpreted.
func UnixFloat(sec float64) (time.Time, error) {
	if math.IsNaN(sec) || math.IsInf(sec, 0) || sec < 0 || sec > maxExpiry {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidExpiry, sec)
	}
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*1e9)), nil
}
