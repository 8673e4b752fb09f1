// Package rollover carries recurring budget fields from one month into the next.
package rollover

import (
	"github.com/shopspring/decimal"

	"budgetviz/internal/core"
)

// Resolve returns the budget to present for a month whose stored (or default)
// budget is current, given the previous month's budget if there is one.
//
// A month that already has recurring flags of its own is returned unchanged.
// Otherwise every field the previous month flags as recurring is copied over,
// and the previous flags are inherited so the chain continues. Neither input
// is modified.
func Resolve(current core.Budget, previous *core.Budget) core.Budget {
	if current.Recurring.Any() {
		return current
	}
	if previous == nil || !previous.Recurring.Any() {
		return current
	}

	draft := current
	flags := previous.Recurring
	if flags.IncomeGoal {
		draft.IncomeGoal = previous.IncomeGoal
	}
	if flags.SavingsGoal {
		draft.SavingsGoal = previous.SavingsGoal
	}
	for _, c := range core.Categories {
		if flags.ExpenseBudgets.Get(c) {
			draft.ExpenseBudgets.Set(c, previous.ExpenseBudgets.Get(c))
		}
	}
	draft.Recurring = flags
	return draft
}

// Breakdown shows how a budget divides its income goal.
type Breakdown struct {
	TotalExpenses    decimal.Decimal `json:"totalExpenses"`
	ExpensesPercent  float64         `json:"expensesPercent"`
	SavingsPercent   float64         `json:"savingsPercent"`
	Remaining        decimal.Decimal `json:"remaining"`
	RemainingPercent float64         `json:"remainingPercent"`
}

// Allocate computes the breakdown of b. Everything is zero when the income
// goal is not positive. RemainingPercent never drops below zero, Remaining
// may.
func Allocate(b core.Budget) Breakdown {
	if !b.IncomeGoal.IsPositive() {
		return Breakdown{TotalExpenses: decimal.Zero, Remaining: decimal.Zero}
	}
	total := b.ExpenseBudgets.Total()
	out := Breakdown{
		TotalExpenses:   total,
		ExpensesPercent: core.Percent(total, b.IncomeGoal),
		SavingsPercent:  core.Percent(b.SavingsGoal, b.IncomeGoal),
		Remaining:       b.IncomeGoal.Sub(total).Sub(b.SavingsGoal),
	}
	out.RemainingPercent = 100 - out.ExpensesPercent - out.SavingsPercent
	if out.RemainingPercent < 0 {
		out.RemainingPercent = 0
	}
	return out
}
