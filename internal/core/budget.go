package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	defaultIncomeGoal  = decimal.NewFromInt(5000)
	defaultSavingsGoal = decimal.NewFromInt(500)
)

type (
	// Budget is the plan for one calendar month.
	Budget struct {
		IncomeGoal     decimal.Decimal `json:"incomeGoal"`
		SavingsGoal    decimal.Decimal `json:"savingsGoal"`
		ExpenseBudgets CategoryAmounts `json:"expenseBudgets"`
		Recurring      RecurringFlags  `json:"recurring"`
	}

	// RecurringFlags marks which budget fields carry forward into the next
	// month when that month has no customized budget yet.
	RecurringFlags struct {
		IncomeGoal     bool          `json:"incomeGoal,omitempty"`
		SavingsGoal    bool          `json:"savingsGoal,omitempty"`
		ExpenseBudgets CategoryFlags `json:"expenseBudgets"`
	}

	// BudgetTable maps month keys (YYYY-MM) to budgets.
	BudgetTable map[string]Budget
)

// DefaultBudget is the budget shown for a month that has none stored.
func DefaultBudget() Budget {
	return Budget{
		IncomeGoal:  defaultIncomeGoal,
		SavingsGoal: defaultSavingsGoal,
	}
}

// Any reports whether at least one field is flagged as recurring.
func (r RecurringFlags) Any() bool {
	return r.IncomeGoal || r.SavingsGoal || r.ExpenseBudgets.Any()
}

func (b Budget) Validate() error {
	if b.IncomeGoal.IsNegative() {
		return fmt.Errorf("%w: income goal", ErrNegativeBudget)
	}
	if b.SavingsGoal.IsNegative() {
		return fmt.Errorf("%w: savings goal", ErrNegativeBudget)
	}
	for i, v := range b.ExpenseBudgets {
		if v.IsNegative() {
			return fmt.Errorf("%w: %s", ErrNegativeBudget, Categories[i])
		}
	}
	return nil
}

// Equal compares amounts by value, ignoring decimal scale.
func (b Budget) Equal(o Budget) bool {
	if !b.IncomeGoal.Equal(o.IncomeGoal) || !b.SavingsGoal.Equal(o.SavingsGoal) {
		return false
	}
	for i := range b.ExpenseBudgets {
		if !b.ExpenseBudgets[i].Equal(o.ExpenseBudgets[i]) {
			return false
		}
	}
	return b.Recurring == o.Recurring
}

// Clone returns a copy that shares nothing with t.
func (t BudgetTable) Clone() BudgetTable {
	out := make(BudgetTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
