package entity

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used across the API, the archive and storage.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string. The result is midnight UTC of that day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q must be YYYY-MM-DD", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate formats t as YYYY-MM-DD in its own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Today returns the current calendar date in loc as a YYYY-MM-DD string.
func Today(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(DateLayout)
}
