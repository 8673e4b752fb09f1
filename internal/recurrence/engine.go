package recurrence

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"budgetviz/internal/core"
)

// Scope selects how far an edit or deletion reaches into a series.
type Scope string

const (
	ThisOnly      Scope = "this"
	ThisAndFuture Scope = "future"
)

func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ThisOnly:
		return ThisOnly, nil
	case ThisAndFuture:
		return ThisAndFuture, nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrInvalidScope, s)
	}
}

func (s Scope) IsValid() bool {
	return s == ThisOnly || s == ThisAndFuture
}

// Engine expands templates into transactions and applies scoped changes.
// Operations never modify the ledger they are given; callers replace their
// state with the returned slice.
type Engine struct {
	stepper MonthStepper
	newID   func() string
}

type Option func(*Engine)

// WithStepper selects the month arithmetic strategy.
func WithStepper(s MonthStepper) Option {
	return func(e *Engine) { e.stepper = s }
}

// WithIDGenerator replaces the uuid generator, mainly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		stepper: ClampStepper{},
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand materializes a template. With occurrences == 0 it returns a single
// untagged transaction; otherwise occurrences+1 transactions sharing a fresh
// series id, the i-th dated i months after the template date.
func (e *Engine) Expand(tpl core.Template, occurrences int) []core.Transaction {
	if occurrences < 0 {
		occurrences = 0
	}
	tpl = tpl.Normalize()
	base := core.Transaction{
		Description: tpl.Description,
		Amount:      tpl.Amount,
		Kind:        tpl.Kind,
		Category:    tpl.Category,
	}
	if occurrences > 0 {
		base.SeriesID = e.newID()
	}

	out := make([]core.Transaction, 0, occurrences+1)
	for i := 0; i <= occurrences; i++ {
		tx := base
		tx.ID = e.newID()
		tx.Date = e.stepper.AddMonths(tpl.Date, i)
		out = append(out, tx)
	}
	return out
}

// EditScoped applies fields to the transaction with the given id.
//
// With ThisAndFuture on a series member, every member of the same series
// dated on or after the edited instance's original date is rewritten; the
// k-th of them in date order gets fields.Date plus k months. Earlier members
// are untouched. An untagged transaction is always edited alone.
func (e *Engine) EditScoped(ledger []core.Transaction, id string, fields core.Fields, scope Scope) ([]core.Transaction, error) {
	if !scope.IsValid() {
		return ledger, fmt.Errorf("%w: %q", core.ErrInvalidScope, scope)
	}
	idx := indexOf(ledger, id)
	if idx < 0 {
		return ledger, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}

	out := clone(ledger)
	edited := out[idx]
	if scope == ThisOnly || !edited.IsRecurring() {
		out[idx] = edited.Apply(fields, fields.Date)
		return out, nil
	}

	members := make([]int, 0)
	for i, tx := range out {
		if tx.SeriesID == edited.SeriesID && !tx.Date.Before(edited.Date) {
			members = append(members, i)
		}
	}
	sort.SliceStable(members, func(a, b int) bool {
		ta, tb := out[members[a]], out[members[b]]
		if ta.Date.Equal(tb.Date) {
			// The edited instance anchors the new dates.
			return ta.ID == id && tb.ID != id
		}
		return ta.Date.Before(tb.Date)
	})

	for k, i := range members {
		out[i] = out[i].Apply(fields, e.stepper.AddMonths(fields.Date, k))
	}
	return out, nil
}

// DeleteScoped removes the transaction with the given id, or with
// ThisAndFuture and a non-empty seriesID, every member of that series dated on
// or after it. A series member needs an explicit scope.
func (e *Engine) DeleteScoped(ledger []core.Transaction, id, seriesID string, scope Scope) ([]core.Transaction, error) {
	idx := indexOf(ledger, id)
	if idx < 0 {
		return ledger, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	if seriesID != "" && scope == "" {
		return ledger, fmt.Errorf("%w: %s", core.ErrScopeRequired, id)
	}
	if seriesID == "" || scope == ThisOnly {
		out := make([]core.Transaction, 0, len(ledger)-1)
		out = append(out, ledger[:idx]...)
		return append(out, ledger[idx+1:]...), nil
	}
	if scope != ThisAndFuture {
		return ledger, fmt.Errorf("%w: %q", core.ErrInvalidScope, scope)
	}

	cutoff := ledger[idx].Date
	out := make([]core.Transaction, 0, len(ledger))
	for _, tx := range ledger {
		if tx.SeriesID == seriesID && !tx.Date.Before(cutoff) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

// Series returns the members of a series sorted by date.
func Series(ledger []core.Transaction, seriesID string) []core.Transaction {
	out := make([]core.Transaction, 0)
	if seriesID == "" {
		return out
	}
	for _, tx := range ledger {
		if tx.SeriesID == seriesID {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func indexOf(ledger []core.Transaction, id string) int {
	for i, tx := range ledger {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

func clone(ledger []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(ledger))
	copy(out, ledger)
	return out
}
