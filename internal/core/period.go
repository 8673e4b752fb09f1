package core

import (
	"fmt"
	"strings"
	"time"
)

const monthKeyLayout = "2006-01"

// Direction moves the period cursor one month back or forward.
type Direction int

const (
	Prev Direction = -1
	Next Direction = 1
)

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prev", "previous", "back":
		return Prev, nil
	case "next", "forward":
		return Next, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", s)
	}
}

// KeyFor returns the YYYY-MM key of t's calendar month in t's own location.
func KeyFor(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// PreviousKey returns the key of the month before t's month.
func PreviousKey(t time.Time) string {
	return KeyFor(Shift(t, Prev))
}

// Shift moves t to the first of its month and then one month in dir, so the
// result never skips a month when t falls on a day the target month lacks.
// Time of day and location are kept.
func Shift(t time.Time, dir Direction) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	return first.AddDate(0, int(dir), 0)
}

// ParseKey returns midnight on the first day of the month named by key.
func ParseKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(monthKeyLayout, strings.TrimSpace(key), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMonthKey, key)
	}
	return t, nil
}

// SameMonth reports whether a falls in b's calendar month, judged in b's location.
func SameMonth(a, b time.Time) bool {
	a = a.In(b.Location())
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// FilterByMonth returns, in stored order, the transactions dated in t's
// calendar month.
func FilterByMonth(ledger []Transaction, t time.Time) []Transaction {
	out := make([]Transaction, 0)
	for _, tx := range ledger {
		if SameMonth(tx.Date, t) {
			out = append(out, tx)
		}
	}
	return out
}

// WithCalendarDate replaces the calendar date of orig, keeping its time of
// day and location.
func WithCalendarDate(orig time.Time, year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, orig.Hour(), orig.Minute(), orig.Second(), orig.Nanosecond(), orig.Location())
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
