// Package clock abstracts wall time so "today" defaults and timestamps are testable.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

// Today returns the current local date at midnight.
func Today(c Clock) time.Time {
	y, m, d := c.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.Now().Location())
}
