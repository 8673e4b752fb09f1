// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating request data.
// Bodies are JSON; amounts may be sent as numbers or strings and dates as
// YYYY-MM-DD or RFC 3339.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"budgetviz/internal/core"
	"budgetviz/internal/recurrence"
)

const (
	maxBodyBytes = 1 << 20
	dateLayout   = "2006-01-02"
)

var errEmptyBody = errors.New("request body is empty")

// flexString accepts a JSON string or a bare JSON number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = flexString(v)
		return nil
	}
	*f = flexString(s)
	return nil
}

// TransactionRequest is the body of POST and PUT /api/transactions.
type TransactionRequest struct {
	Description string     `json:"description"`
	Amount      flexString `json:"amount"`
	Type        string     `json:"type"`
	Category    string     `json:"category"`
	Date        string     `json:"date"`
	Occurrences int        `json:"occurrences"`
}

// Template converts the request into validated-ready fields. Amount and date
// syntax errors are reported as validation errors.
func (tr TransactionRequest) Template(loc *time.Location) (core.Template, error) {
	amount, err := core.ParseAmount(string(tr.Amount))
	if err != nil {
		return core.Template{}, err
	}
	kind, err := core.ParseKind(tr.Type)
	if err != nil {
		return core.Template{}, err
	}
	date, err := parseDate(tr.Date, loc)
	if err != nil {
		return core.Template{}, err
	}

	tpl := core.Template{
		Description: sanitizeInput(tr.Description),
		Amount:      amount,
		Kind:        kind,
		Date:        date,
	}
	if c := strings.TrimSpace(tr.Category); c != "" {
		cat, err := core.ParseCategory(c)
		if err != nil {
			return core.Template{}, err
		}
		tpl.Category = cat
	}
	return tpl, nil
}

// Fields converts the request for an edit of orig. A bare YYYY-MM-DD date
// replaces only the calendar date and keeps orig's time of day.
func (tr TransactionRequest) Fields(loc *time.Location, orig core.Transaction) (core.Fields, error) {
	fields, err := tr.Template(loc)
	if err != nil {
		return core.Fields{}, err
	}
	if d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(tr.Date), loc); err == nil {
		fields.Date = core.WithCalendarDate(orig.Date.In(loc), d.Year(), d.Month(), d.Day())
	}
	return fields, nil
}

// BudgetRequest is the body of PUT /api/budget. Amount values may be strings
// or numbers; missing categories are zero.
type BudgetRequest struct {
	Month          string                `json:"month"`
	IncomeGoal     flexString            `json:"incomeGoal"`
	SavingsGoal    flexString            `json:"savingsGoal"`
	ExpenseBudgets map[string]flexString `json:"expenseBudgets"`
	Recurring      core.RecurringFlags   `json:"recurring"`
}

// Budget converts the request into a core.Budget.
func (br BudgetRequest) Budget() (core.Budget, error) {
	var b core.Budget
	var err error

	if b.IncomeGoal, err = parseBudgetField("incomeGoal", br.IncomeGoal); err != nil {
		return core.Budget{}, err
	}
	if b.SavingsGoal, err = parseBudgetField("savingsGoal", br.SavingsGoal); err != nil {
		return core.Budget{}, err
	}
	for name, raw := range br.ExpenseBudgets {
		cat, err := core.ParseCategory(name)
		if err != nil {
			return core.Budget{}, err
		}
		v, err := parseBudgetField(name, raw)
		if err != nil {
			return core.Budget{}, err
		}
		b.ExpenseBudgets.Set(cat, v)
	}
	b.Recurring = br.Recurring
	return b, nil
}

func parseBudgetField(name string, raw flexString) (decimal.Decimal, error) {
	if strings.TrimSpace(string(raw)) == "" {
		return decimal.Zero, nil
	}
	v, err := core.ParseBudgetAmount(string(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// decodeJSON reads a bounded JSON body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// ParseScope reads the scope query parameter; absent means this-only.
func ParseScope(r *http.Request) (recurrence.Scope, error) {
	v := strings.TrimSpace(r.URL.Query().Get("scope"))
	if v == "" {
		return recurrence.ThisOnly, nil
	}
	return recurrence.ParseScope(v)
}

// ParseDeleteScope reads the scope query parameter for a delete. Absent
// returns the empty scope, which the service only accepts for untagged records.
func ParseDeleteScope(r *http.Request) (recurrence.Scope, error) {
	v := strings.TrimSpace(r.URL.Query().Get("scope"))
	if v == "" {
		return "", nil
	}
	return recurrence.ParseScope(v)
}

// ParseMonthKey reads the key query parameter. The second return is false
// when the parameter is absent.
func ParseMonthKey(r *http.Request, loc *time.Location) (time.Time, bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get("key"))
	if v == "" {
		return time.Time{}, false, nil
	}
	t, err := core.ParseKey(v, loc)
	return t, true, err
}

// parseDate accepts YYYY-MM-DD (midnight in loc) or RFC 3339.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, core.ErrInvalidDate
	}
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, s)
}
