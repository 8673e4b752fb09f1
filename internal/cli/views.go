package cli

import (
	"fmt"
	"io"

	"budgetviz/internal/core"
	"budgetviz/internal/services"
)

func transactionTable(title string, txs []core.Transaction) Table {
	t := Table{
		Title:   title,
		Headers: []string{"Date", "Description", "Category", "Amount", "ID", "Series"},
	}
	for _, tx := range txs {
		t.Rows = append(t.Rows, []string{
			tx.Date.Format("2006-01-02"),
			tx.Description,
			string(tx.Category),
			FormatSigned(tx),
			ShortID(tx.ID),
			ShortID(tx.SeriesID),
		})
	}
	return t
}

func budgetTable(title string, b core.Budget) Table {
	mark := func(recurring bool) string {
		if recurring {
			return "↻"
		}
		return ""
	}

	t := Table{
		Title:   title,
		Headers: []string{"Field", "Amount", "Recurring"},
		Rows: [][]string{
			{"Income goal", FormatMoney(b.IncomeGoal), mark(b.Recurring.IncomeGoal)},
			{"Savings goal", FormatMoney(b.SavingsGoal), mark(b.Recurring.SavingsGoal)},
			{"---"},
		},
	}
	for _, c := range core.Categories {
		t.Rows = append(t.Rows, []string{
			string(c),
			FormatMoney(b.ExpenseBudgets.Get(c)),
			mark(b.Recurring.ExpenseBudgets.Get(c)),
		})
	}
	t.Rows = append(t.Rows, []string{"---"}, []string{"Total expenses", FormatMoney(b.ExpenseBudgets.Total()), ""})
	return t
}

func renderBreakdown(w io.Writer, view services.MonthView) {
	bd := view.Breakdown
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Expenses  %s\n", RenderProgressBar(bd.ExpensesPercent, 30))
	fmt.Fprintf(w, "  Savings   %s\n", RenderProgressBar(bd.SavingsPercent, 30))
	fmt.Fprintf(w, "  Remaining %s  (%s)\n", RenderProgressBar(bd.RemainingPercent, 30), FormatMoney(bd.Remaining))
}

func renderMonth(w io.Writer, view services.MonthView) {
	fmt.Fprintln(w, RenderTitle("MONTH "+view.Key))
	fmt.Fprintln(w)

	if len(view.Transactions) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("  No transactions this month."))
	} else {
		fmt.Fprint(w, RenderTable(transactionTable("Transactions", view.Transactions)))
	}

	s := view.Summary
	fmt.Fprint(w, RenderTable(Table{
		Title:   "Summary",
		Headers: []string{"", "Amount"},
		Rows: [][]string{
			{"Income", FormatMoney(s.TotalIncome)},
			{"Expenses", FormatMoney(s.TotalExpenses)},
			{"Balance", FormatMoney(s.Balance)},
			{"---"},
			{"Budgeted expenses", FormatMoney(s.BudgetedExpenses)},
			{"Savings goal", FormatMoney(s.SavingsGoal)},
		},
	}))
	fmt.Fprintf(w, "  Savings progress %s\n", RenderProgressBar(s.SavingsProgressClamped(), 30))

	if len(s.Progress) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "  "+headerStyle.Render("Spending vs budget"))
		for _, p := range s.Progress {
			fmt.Fprintf(w, "  %-15s %s  %s / %s\n", p.Category, RenderProgressBar(p.Percent, 20),
				FormatMoney(p.Spent), FormatMoney(p.Budgeted))
		}
	}
}
