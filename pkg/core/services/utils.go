package services

import "time"

// dateLayout is the calendar-date wire format used across bookings and
// counters.
const dateLayout = "2006-01-02"

// Today returns the current calendar date in wire format.
func Today() string {
	return time.Now().Format(dateLayout)
}

// ValidDate reports whether s is a well-formed wire date.
func ValidDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// nowMillis returns the current time as Unix milliseconds, the timestamp
// format stored on every document.
func nowMillis() int64 {
	return time.Now().UnixMilli()
}
