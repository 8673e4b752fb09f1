package google

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"budgetviz/internal/core"
)

var (
	ledgerHeader = []any{"ID", "Series", "Date", "Description", "Amount", "Type", "Category"}
	budgetHeader = []any{"Month", "Field", "Amount", "Recurring"}
)

const (
	fieldIncomeGoal  = "incomeGoal"
	fieldSavingsGoal = "savingsGoal"
)

// ledgerRows renders the ledger as sheet rows, header first, in stored order.
func ledgerRows(ledger []core.Transaction) [][]any {
	rows := make([][]any, 0, len(ledger)+1)
	rows = append(rows, ledgerHeader)
	for _, tx := range ledger {
		rows = append(rows, []any{
			tx.ID,
			tx.SeriesID,
			tx.Date.Format(time.RFC3339Nano),
			tx.Description,
			tx.Amount.String(),
			string(tx.Kind),
			string(tx.Category),
		})
	}
	return rows
}

func parseLedgerRows(values [][]interface{}) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(values))
	for i, row := range values {
		cells := toStrings(row)
		if i == 0 && safeGet(cells, 0) == "ID" {
			continue
		}
		if strings.TrimSpace(safeGet(cells, 0)) == "" {
			continue
		}
		date, err := time.Parse(time.RFC3339Nano, safeGet(cells, 2))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid date %q: %w", i+1, safeGet(cells, 2), err)
		}
		amount, err := decimal.NewFromString(safeGet(cells, 4))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid amount %q: %w", i+1, safeGet(cells, 4), err)
		}
		kind, err := core.ParseKind(safeGet(cells, 5))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, core.Transaction{
			ID:          safeGet(cells, 0),
			SeriesID:    safeGet(cells, 1),
			Date:        date,
			Description: safeGet(cells, 3),
			Amount:      amount,
			Kind:        kind,
			Category:    core.Category(safeGet(cells, 6)),
		})
	}
	return out, nil
}

// budgetRows renders one row per month and field, months in key order.
func budgetRows(table core.BudgetTable) [][]any {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]any, 0, len(keys)*(core.NumCategories+2)+1)
	rows = append(rows, budgetHeader)
	for _, k := range keys {
		b := table[k]
		rows = append(rows,
			[]any{k, fieldIncomeGoal, b.IncomeGoal.String(), strconv.FormatBool(b.Recurring.IncomeGoal)},
			[]any{k, fieldSavingsGoal, b.SavingsGoal.String(), strconv.FormatBool(b.Recurring.SavingsGoal)},
		)
		for i, c := range core.Categories {
			rows = append(rows, []any{k, string(c), b.ExpenseBudgets[i].String(), strconv.FormatBool(b.Recurring.ExpenseBudgets[i])})
		}
	}
	return rows
}

func parseBudgetRows(values [][]interface{}) (core.BudgetTable, error) {
	table := core.BudgetTable{}
	for i, row := range values {
		cells := toStrings(row)
		if i == 0 && safeGet(cells, 0) == "Month" {
			continue
		}
		key := strings.TrimSpace(safeGet(cells, 0))
		if key == "" {
			continue
		}
		if _, err := core.ParseKey(key, time.UTC); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		amount, err := decimal.NewFromString(safeGet(cells, 2))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid amount %q: %w", i+1, safeGet(cells, 2), err)
		}
		recurring := strings.EqualFold(safeGet(cells, 3), "true")

		b, ok := table[key]
		if !ok {
			b = core.Budget{}
		}
		switch field := safeGet(cells, 1); field {
		case fieldIncomeGoal:
			b.IncomeGoal = amount
			b.Recurring.IncomeGoal = recurring
		case fieldSavingsGoal:
			b.SavingsGoal = amount
			b.Recurring.SavingsGoal = recurring
		default:
			c, err := core.ParseCategory(field)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			b.ExpenseBudgets.Set(c, amount)
			b.Recurring.ExpenseBudgets.Set(c, recurring)
		}
		table[key] = b
	}
	return table, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < len(arr) {
		return arr[idx]
	}
	return ""
}
