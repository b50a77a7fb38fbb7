package clock

import "time"

// SystemClock reads wall time in the club's time zone so "today" matches the calendar the
// club uses.
type SystemClock struct {
	loc *time.Location
}

// NewSystemClock returns a clock in loc; nil means UTC.
func NewSystemClock(loc *time.Location) SystemClock {
	if loc == nil {
		loc = time.UTC
	}
	return SystemClock{loc: loc}
}

func (c SystemClock) Now() time.Time {
	if c.loc == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.loc)
}
