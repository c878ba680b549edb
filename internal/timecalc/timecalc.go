package timecalc

import (
	"fmt"
	"math"
	"time"
)

const (
	// DayLayout names the per-day history directories.
	DayLayout = "2006-01-02"
	// LabelLayout is the local timestamp layout stored next to raw instants.
	LabelLayout = "2006-01-02 15:04:05"
)

// FormatHHMMSS formats seconds as HH:MM:SS. Fractional seconds are floored;
// negative values render as zero.
func FormatHHMMSS(seconds float64) string {
	total := int64(math.Floor(seconds))
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// DayKey returns the calendar day of t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// Label returns the human-readable local timestamp for t.
func Label(t time.Time) string {
	return t.Format(LabelLayout)
}

// ParseDay parses a YYYY-MM-DD string as midnight in the local time zone.
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the start of the following day, the exclusive end of t's day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}
