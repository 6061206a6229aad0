package epochtime

import (
	"time"

	"github.com/lightningnetwork/lnd/clock"
)

// Beginning is the start of the chain's epoch: 2013-11-24 12:00:00 UTC.
// All block and transaction timestamps are whole seconds since Beginning.
var Beginning = time.Date(2013, time.November, 24, 12, 0, 0, 0, time.UTC)

var beginningMilli = Beginning.UnixNano() / int64(time.Millisecond)

// FromTime converts t to epoch seconds, rounding to the nearest second.
func FromTime(t time.Time) int32 {
	milli := t.UnixNano() / int64(time.Millisecond)
	return int32((milli - beginningMilli + 500) / 1000)
}

// ToTime converts epoch seconds to a time.Time.
func ToTime(timestamp int32) time.Time {
	return Beginning.Add(time.Duration(timestamp) * time.Second)
}

// Source reads the current epoch time from a clock.
type Source struct {
	clock clock.Clock
}

// NewSource returns a Source reading from the given clock.
func NewSource(c clock.Clock) *Source {
	return &Source{clock: c}
}

// NewDefaultSource returns a Source reading the system clock.
func NewDefaultSource() *Source {
	return NewSource(clock.NewDefaultClock())
}

// Now returns the current epoch time in seconds.
func (s *Source) Now() int32 {
	return FromTime(s.clock.Now())
}

// Clock returns the underlying clock.
func (s *Source) Clock() clock.Clock {
	return s.clock
}
