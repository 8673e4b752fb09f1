package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"budgetviz/internal/core"
)

// BudgetFile is the TOML layout read by `budget import`:
//
//	[months."2024-03"]
//	income_goal = 5000
//	savings_goal = "500"
//	recurring = ["income_goal", "Rent"]
//
//	[months."2024-03".expenses]
//	Rent = 1200
//	"Dining Out" = "150.50"
type BudgetFile struct {
	Months map[string]MonthEntry `toml:"months"`
}

type MonthEntry struct {
	IncomeGoal  tomlAmount            `toml:"income_goal"`
	SavingsGoal tomlAmount            `toml:"savings_goal"`
	Expenses    map[string]tomlAmount `toml:"expenses"`
	Recurring   []string              `toml:"recurring"`
}

// tomlAmount accepts an integer, a float or a string.
type tomlAmount struct {
	raw string
}

func (a *tomlAmount) UnmarshalTOML(v any) error {
	switch x := v.(type) {
	case string:
		a.raw = x
	case int64:
		a.raw = fmt.Sprint(x)
	case float64:
		a.raw = decimal.NewFromFloat(x).String()
	default:
		return fmt.Errorf("%w: unsupported value %v", core.ErrInvalidAmount, v)
	}
	return nil
}

func (a tomlAmount) value(field string) (decimal.Decimal, error) {
	if strings.TrimSpace(a.raw) == "" {
		return decimal.Zero, nil
	}
	d, err := core.ParseBudgetAmount(a.raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

// ImportedBudget is one month parsed from a budget file.
type ImportedBudget struct {
	Key    string
	Budget core.Budget
}

// ParseBudgetFile decodes and validates a TOML budget file. Months are
// returned in key order.
func ParseBudgetFile(r io.Reader) ([]ImportedBudget, error) {
	var file BudgetFile
	meta, err := toml.NewDecoder(r).Decode(&file)
	if err != nil {
		return nil, fmt.Errorf("parse budget file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parse budget file: unknown key %s", undecoded[0])
	}

	keys := make([]string, 0, len(file.Months))
	for k := range file.Months {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]ImportedBudget, 0, len(keys))
	for _, key := range keys {
		if _, err := core.ParseKey(key, nil); err != nil {
			return nil, err
		}
		b, err := file.Months[key].budget()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out = append(out, ImportedBudget{Key: key, Budget: b})
	}
	return out, nil
}

func (m MonthEntry) budget() (core.Budget, error) {
	var b core.Budget
	var err error
	if b.IncomeGoal, err = m.IncomeGoal.value("income_goal"); err != nil {
		return core.Budget{}, err
	}
	if b.SavingsGoal, err = m.SavingsGoal.value("savings_goal"); err != nil {
		return core.Budget{}, err
	}
	for name, raw := range m.Expenses {
		cat, err := core.ParseCategory(name)
		if err != nil {
			return core.Budget{}, err
		}
		v, err := raw.value(name)
		if err != nil {
			return core.Budget{}, err
		}
		b.ExpenseBudgets.Set(cat, v)
	}
	if b.Recurring, err = ParseRecurring(m.Recurring); err != nil {
		return core.Budget{}, err
	}
	return b, b.Validate()
}

// ParseRecurring turns field names into recurring flags. It accepts
// income_goal, savings_goal and category names in any case.
func ParseRecurring(names []string) (core.RecurringFlags, error) {
	var f core.RecurringFlags
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "":
		case "income_goal", "income":
			f.IncomeGoal = true
		case "savings_goal", "savings":
			f.SavingsGoal = true
		default:
			cat, err := core.ParseCategory(name)
			if err != nil {
				return core.RecurringFlags{}, err
			}
			f.ExpenseBudgets.Set(cat, true)
		}
	}
	return f, nil
}
