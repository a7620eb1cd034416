// Package clock provides the injectable time source used to bucket
// per-caller daily counters by business date.
package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is the subset of clockwork.Clock the router depends on. Kept
// as its own interface so callers outside this package never import
// clockwork directly.
type Clock interface {
	Now() time.Time
}

// Real returns a Clock backed by the system clock.
func Real() Clock {
	return clockwork.NewRealClock()
}

// BusinessDate returns the calendar date (midnight, in loc) that c.Now()
// falls on. Every counter lookup and pointer mutation within a single
// assign call must use the same business date, so callers should
// compute it once per request and thread it through.
func BusinessDate(c Clock, loc *time.Location) time.Time {
	now := c.Now().In(loc)
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
