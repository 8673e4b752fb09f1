package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryAmount is an expense total for one category.
type CategoryAmount struct {
	Category Category        `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// CategoryProgress compares spending in a category with its budget.
type CategoryProgress struct {
	Category Category        `json:"category"`
	Spent    decimal.Decimal `json:"spent"`
	Budgeted decimal.Decimal `json:"budgeted"`
	Percent  float64         `json:"percent"`
}

// MonthSummary is the overview of one month's transactions against its budget.
type MonthSummary struct {
	Key              string             `json:"key"`
	TotalIncome      decimal.Decimal    `json:"totalIncome"`
	TotalExpenses    decimal.Decimal    `json:"totalExpenses"`
	Balance          decimal.Decimal    `json:"balance"`
	BudgetedExpenses decimal.Decimal    `json:"budgetedExpenses"`
	SavingsGoal      decimal.Decimal    `json:"savingsGoal"`
	SavingsProgress  float64            `json:"savingsProgress"`
	ByCategory       []CategoryAmount   `json:"byCategory"`
	Progress         []CategoryProgress `json:"progress"`
}

// Summarize totals the given month's transactions. Expenses without a known
// category are counted as Other.
func Summarize(key string, txs []Transaction, b Budget) MonthSummary {
	s := MonthSummary{
		Key:              key,
		TotalIncome:      decimal.Zero,
		TotalExpenses:    decimal.Zero,
		BudgetedExpenses: b.ExpenseBudgets.Total(),
		SavingsGoal:      b.SavingsGoal,
	}

	var spent CategoryAmounts
	for _, tx := range txs {
		switch tx.Kind {
		case Income:
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
		case Expense:
			s.TotalExpenses = s.TotalExpenses.Add(tx.Amount)
			c := tx.Category
			if !c.IsValid() {
				c = Other
			}
			spent.Set(c, spent.Get(c).Add(tx.Amount))
		}
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpenses)
	s.SavingsProgress = Percent(s.Balance, b.SavingsGoal)
	if s.SavingsProgress < 0 {
		s.SavingsProgress = 0
	}

	s.ByCategory = make([]CategoryAmount, 0, NumCategories)
	for i, c := range Categories {
		if spent[i].IsPositive() {
			s.ByCategory = append(s.ByCategory, CategoryAmount{Category: c, Amount: spent[i]})
		}
	}
	sort.SliceStable(s.ByCategory, func(i, j int) bool {
		return s.ByCategory[i].Amount.GreaterThan(s.ByCategory[j].Amount)
	})

	s.Progress = make([]CategoryProgress, 0, NumCategories)
	for i, c := range Categories {
		budgeted := b.ExpenseBudgets[i]
		if !budgeted.IsPositive() && !spent[i].IsPositive() {
			continue
		}
		s.Progress = append(s.Progress, CategoryProgress{
			Category: c,
			Spent:    spent[i],
			Budgeted: budgeted,
			Percent:  Percent(spent[i], budgeted),
		})
	}
	return s
}

// SavingsProgressClamped returns savings progress limited to [0, 100] for display.
func (s MonthSummary) SavingsProgressClamped() float64 {
	if s.SavingsProgress > 100 {
		return 100
	}
	return s.SavingsProgress
}
