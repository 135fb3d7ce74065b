// Package inventory holds the calendar arithmetic behind per-day room
// inventory: day ranges, weekday segmentation, range patches and the
// availability quote.
package inventory

import (
	"errors"
	"strings"
	"time"
)

// DayLayout is the wire format of calendar days.
const DayLayout = "2006-01-02"

// MaxRangeDays bounds a single range operation.
const MaxRangeDays = 732

var (
	ErrInvalidDate    = errors.New("invalid date, expected YYYY-MM-DD")
	ErrEndBeforeStart = errors.New("end must not be before start")
	ErrRangeTooLong   = errors.New("date range too long")
)

// ParseDay parses a YYYY-MM-DD string into UTC midnight.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// FormatDay is the inverse of ParseDay.
func FormatDay(t time.Time) string { return t.UTC().Format(DayLayout) }

// Truncate returns UTC midnight of t's calendar day.
func Truncate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CheckRange validates a half-open range [start, end).  An empty range
// (start == end) is valid.
func CheckRange(start, end time.Time) error {
	if end.Before(start) {
		return ErrEndBeforeStart
	}
	if DaysBetween(start, end) > MaxRangeDays {
		return ErrRangeTooLong
	}
	return nil
}

// DaysBetween counts the days in [start, end).
func DaysBetween(start, end time.Time) int {
	return int(Truncate(end).Sub(Truncate(start)).Hours() / 24)
}

// Days lists every day in [start, end).
func Days(start, end time.Time) []time.Time {
	start, end = Truncate(start), Truncate(end)
	var out []time.Time
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}
