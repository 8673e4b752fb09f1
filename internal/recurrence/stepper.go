// Package recurrence materializes recurring transactions and applies
// series-scoped edits and deletions to a ledger.
//
// This file implements the Strategy Pattern for calendar-month arithmetic.
// Each policy decides what happens when the anchor day does not exist in the
// target month (e.g. January 31 plus one month).
package recurrence

import (
	"fmt"
	"time"

	"budgetviz/internal/core"
)

// Policy names a month arithmetic strategy.
type Policy string

const (
	// Clamp moves the day to the last day of a shorter target month, so
	// every instance lands in the intended calendar month.
	Clamp Policy = "clamp"
	// Overflow lets the surplus days spill into the following month, the way
	// time.AddDate normalizes dates.
	Overflow Policy = "overflow"
)

// MonthStepper is the strategy interface for adding calendar months to an instant.
type MonthStepper interface {
	// AddMonths returns t moved n calendar months, keeping time of day and location.
	AddMonths(t time.Time, n int) time.Time
}

// ClampStepper implements MonthStepper by clamping to the target month's last day.
type ClampStepper struct{}

func (ClampStepper) AddMonths(t time.Time, n int) time.Time {
	if n == 0 {
		return t
	}
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	day := t.Day()
	if last := core.DaysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return core.WithCalendarDate(t, first.Year(), first.Month(), day)
}

// OverflowStepper implements MonthStepper with time.AddDate normalization.
type OverflowStepper struct{}

func (OverflowStepper) AddMonths(t time.Time, n int) time.Time {
	return t.AddDate(0, n, 0)
}

// steppers maps policies to their strategies.
var steppers = map[Policy]MonthStepper{
	Clamp:    ClampStepper{},
	Overflow: OverflowStepper{},
}

// GetStepper returns the month stepper registered for policy.
// An empty policy selects Clamp.
func GetStepper(policy Policy) (MonthStepper, error) {
	if policy == "" {
		policy = Clamp
	}
	s, ok := steppers[policy]
	if !ok {
		return nil, fmt.Errorf("unknown month policy: %s", policy)
	}
	return s, nil
}
