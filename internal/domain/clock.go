package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock stamps GeneratedAt on responses. Tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock replaces the time source used for response timestamps. Pass nil to
// restore the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time from the package clock in UTC.
func Now() time.Time {
	return clock.Now().UTC()
}
