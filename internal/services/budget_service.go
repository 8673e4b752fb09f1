package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetviz/internal/core"
	"budgetviz/internal/metrics"
	"budgetviz/internal/recurrence"
	"budgetviz/internal/rollover"
	"budgetviz/internal/store"
)

// Notifier announces that a collection was rewritten in the store.
type Notifier interface {
	PublishCollectionChanged(ctx context.Context, collection store.Collection, count int) error
}

// MonthView is everything a presentation layer needs to render the month
// under the cursor.
type MonthView struct {
	Cursor         time.Time          `json:"cursor"`
	Key            string             `json:"key"`
	PreviousKey    string             `json:"previousKey"`
	Transactions   []core.Transaction `json:"transactions"`
	Budget         core.Budget        `json:"budget"`
	HasBudget      bool               `json:"hasBudget"`
	PreviousBudget *core.Budget       `json:"previousBudget,omitempty"`
	Draft          core.Budget        `json:"draft"`
	Summary        core.MonthSummary  `json:"summary"`
	Breakdown      rollover.Breakdown `json:"breakdown"`
}

// BudgetService owns the ledger, the budget table and the month cursor. It is
// the only writer of both collections; every entry point holds mu.
type BudgetService struct {
	mu sync.Mutex

	store          store.Store
	engine         *recurrence.Engine
	notifier       Notifier
	loc            *time.Location
	maxOccurrences int
	now            func() time.Time

	ledger  []core.Transaction
	budgets core.BudgetTable
	cursor  time.Time
}

type Option func(*BudgetService)

// WithNotifier publishes a change message after every successful save.
func WithNotifier(n Notifier) Option {
	return func(s *BudgetService) { s.notifier = n }
}

// WithLocation sets the time zone month boundaries are computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *BudgetService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithMaxOccurrences bounds the repeat count accepted by AddTransaction.
func WithMaxOccurrences(n int) Option {
	return func(s *BudgetService) { s.maxOccurrences = n }
}

// WithClock overrides time.Now for the initial cursor.
func WithClock(now func() time.Time) Option {
	return func(s *BudgetService) { s.now = now }
}

func NewBudgetService(st store.Store, engine *recurrence.Engine, opts ...Option) *BudgetService {
	if engine == nil {
		engine = recurrence.New()
	}
	s := &BudgetService{
		store:          st,
		engine:         engine,
		loc:            time.Local,
		maxOccurrences: 60,
		now:            time.Now,
		ledger:         []core.Transaction{},
		budgets:        core.BudgetTable{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cursor = s.now().In(s.loc)
	return s
}

// Load reads both collections concurrently. A collection that fails to load
// is replaced by an empty one and the failure is logged; the joined errors are
// returned so the caller can decide whether to carry on.
func (s *BudgetService) Load(ctx context.Context) error {
	var (
		ledger          []core.Transaction
		budgets         core.BudgetTable
		ledgerErr, bErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ledger, ledgerErr = s.store.LoadLedger(gctx)
		return nil
	})
	g.Go(func() error {
		budgets, bErr = s.store.LoadBudgetTable(gctx)
		return nil
	})
	_ = g.Wait()

	if ledgerErr != nil {
		slog.ErrorContext(ctx, "Failed to load ledger, starting empty", "error", ledgerErr)
		ledger = []core.Transaction{}
	}
	if bErr != nil {
		slog.ErrorContext(ctx, "Failed to load budgets, starting empty", "error", bErr)
		budgets = core.BudgetTable{}
	}
	if ledger == nil {
		ledger = []core.Transaction{}
	}
	if budgets == nil {
		budgets = core.BudgetTable{}
	}

	s.mu.Lock()
	s.ledger = ledger
	s.budgets = budgets
	s.mu.Unlock()

	metrics.LedgerSize.Set(float64(len(ledger)))
	metrics.BudgetMonths.Set(float64(len(budgets)))
	slog.InfoContext(ctx, "State loaded", "transactions", len(ledger), "budget_months", len(budgets))

	var errs []error
	if ledgerErr != nil {
		errs = append(errs, fmt.Errorf("load ledger: %w", ledgerErr))
	}
	if bErr != nil {
		errs = append(errs, fmt.Errorf("load budgets: %w", bErr))
	}
	return errors.Join(errs...)
}

// AddTransaction validates tpl and appends its expansion to the ledger.
func (s *BudgetService) AddTransaction(ctx context.Context, tpl core.Template, occurrences int) ([]core.Transaction, error) {
	if occurrences < 0 || occurrences > s.maxOccurrences {
		return nil, fmt.Errorf("%w: %d (max %d)", core.ErrInvalidOccurrences, occurrences, s.maxOccurrences)
	}
	tpl = tpl.Normalize()
	if err := tpl.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created := s.engine.Expand(tpl, occurrences)
	next := make([]core.Transaction, 0, len(s.ledger)+len(created))
	next = append(next, s.ledger...)
	next = append(next, created...)
	s.ledger = next

	metrics.TransactionsCreated.WithLabelValues(string(tpl.Kind)).Add(float64(len(created)))
	slog.InfoContext(ctx, "Transactions added",
		"count", len(created),
		"series_id", created[0].SeriesID,
		"month_key", core.KeyFor(created[0].Date))

	return created, s.persistLedger(ctx)
}

// EditTransaction rewrites the transaction id, or with ThisAndFuture the rest
// of its series, and returns the updated records.
func (s *BudgetService) EditTransaction(ctx context.Context, id string, fields core.Fields, scope recurrence.Scope) ([]core.Transaction, error) {
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.engine.EditScoped(s.ledger, id, fields, scope)
	if err != nil {
		return nil, err
	}
	changed := diff(s.ledger, next)
	s.ledger = next

	metrics.TransactionsEdited.WithLabelValues(string(scope)).Add(float64(len(changed)))
	slog.InfoContext(ctx, "Transactions edited",
		"transaction_id", id,
		"scope", scope,
		"count", len(changed))

	return changed, s.persistLedger(ctx)
}

// DeleteTransaction removes id, or with ThisAndFuture every member of seriesID
// dated on or after it. An empty seriesID falls back to the record's own tag.
// An empty scope is only accepted for untagged records. It returns the number of removed transactions.
func (s *BudgetService) DeleteTransaction(ctx context.Context, id, seriesID string, scope recurrence.Scope) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seriesID == "" {
		for _, tx := range s.ledger {
			if tx.ID == id {
				seriesID = tx.SeriesID
				break
			}
		}
	}

	if seriesID == "" && scope == "" {
		scope = recurrence.ThisOnly
	}

	next, err := s.engine.DeleteScoped(s.ledger, id, seriesID, scope)
	if err != nil {
		return 0, err
	}
	removed := len(s.ledger) - len(next)
	s.ledger = next

	metrics.TransactionsDeleted.WithLabelValues(string(scope)).Add(float64(removed))
	slog.InfoContext(ctx, "Transactions deleted",
		"transaction_id", id,
		"series_id", seriesID,
		"scope", scope,
		"count", removed)

	return removed, s.persistLedger(ctx)
}

// SaveBudget stores b under the cursor's month key, replacing whatever was
// there.
func (s *BudgetService) SaveBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveBudgetLocked(ctx, core.KeyFor(s.cursor), b)
}

// SaveBudgetFor stores b under an explicit month key.
func (s *BudgetService) SaveBudgetFor(ctx context.Context, key string, b core.Budget) error {
	if _, err := core.ParseKey(key, s.loc); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveBudgetLocked(ctx, key, b)
}

func (s *BudgetService) saveBudgetLocked(ctx context.Context, key string, b core.Budget) error {
	next := s.budgets.Clone()
	next[key] = b
	s.budgets = next

	metrics.BudgetSaves.Inc()
	slog.InfoContext(ctx, "Budget saved", "month_key", key, "recurring", b.Recurring.Any())
	return s.persistBudgets(ctx)
}

// NavigateMonth moves the cursor one month and returns the new cursor.
func (s *BudgetService) NavigateMonth(dir core.Direction) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = core.Shift(s.cursor, dir)
	return s.cursor
}

// SetCursor jumps to the month containing t.
func (s *BudgetService) SetCursor(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = t.In(s.loc)
}

func (s *BudgetService) Cursor() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

func (s *BudgetService) Location() *time.Location {
	return s.loc
}

// Transaction looks up a single record by id.
func (s *BudgetService) Transaction(id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.ledger {
		if tx.ID == id {
			return tx, nil
		}
	}
	return core.Transaction{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
}

// Series returns the members of a series in date order.
func (s *BudgetService) Series(seriesID string) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return recurrence.Series(s.ledger, seriesID)
}

// Ledger returns a copy of the whole ledger in stored order.
func (s *BudgetService) Ledger() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.ledger))
	copy(out, s.ledger)
	return out
}

// Budgets returns a copy of the budget table.
func (s *BudgetService) Budgets() core.BudgetTable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budgets.Clone()
}

// MonthView renders the month under the cursor.
func (s *BudgetService) MonthView() MonthView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(s.cursor)
}

// MonthViewAt renders the month containing t without moving the cursor.
func (s *BudgetService) MonthViewAt(t time.Time) MonthView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(t.In(s.loc))
}

func (s *BudgetService) viewLocked(at time.Time) MonthView {
	key := core.KeyFor(at)
	prevKey := core.PreviousKey(at)

	current, ok := s.budgets[key]
	if !ok {
		current = core.DefaultBudget()
	}
	var previous *core.Budget
	if p, ok := s.budgets[prevKey]; ok {
		previous = &p
	}

	txs := core.FilterByMonth(s.ledger, at)
	draft := rollover.Resolve(current, previous)

	return MonthView{
		Cursor:         at,
		Key:            key,
		PreviousKey:    prevKey,
		Transactions:   txs,
		Budget:         current,
		HasBudget:      ok,
		PreviousBudget: previous,
		Draft:          draft,
		Summary:        core.Summarize(key, txs, current),
		Breakdown:      rollover.Allocate(current),
	}
}

func (s *BudgetService) persistLedger(ctx context.Context) error {
	metrics.LedgerSize.Set(float64(len(s.ledger)))
	if err := s.store.SaveLedger(ctx, s.ledger); err != nil {
		return s.persistFailed(ctx, store.CollectionLedger, err)
	}
	s.notify(ctx, store.CollectionLedger, len(s.ledger))
	return nil
}

func (s *BudgetService) persistBudgets(ctx context.Context) error {
	metrics.BudgetMonths.Set(float64(len(s.budgets)))
	if err := s.store.SaveBudgetTable(ctx, s.budgets); err != nil {
		return s.persistFailed(ctx, store.CollectionBudgets, err)
	}
	s.notify(ctx, store.CollectionBudgets, len(s.budgets))
	return nil
}

func (s *BudgetService) persistFailed(ctx context.Context, c store.Collection, err error) error {
	metrics.PersistenceFailures.WithLabelValues(string(c)).Inc()
	slog.ErrorContext(ctx, "Failed to persist collection", "collection", c, "error", err)
	return fmt.Errorf("%w: %s: %v", core.ErrPersistence, c, err)
}

func (s *BudgetService) notify(ctx context.Context, c store.Collection, count int) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishCollectionChanged(ctx, c, count); err != nil {
		metrics.NotificationFailures.WithLabelValues(string(c)).Inc()
		slog.WarnContext(ctx, "Failed to publish collection change",
			"collection", c, "error", err)
	}
}

// diff returns the records of next that differ from their counterpart in prev.
// Both slices hold the same ids in the same order.
func diff(prev, next []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0)
	for i := range next {
		if i >= len(prev) || !sameTransaction(prev[i], next[i]) {
			out = append(out, next[i])
		}
	}
	return out
}

func sameTransaction(a, b core.Transaction) bool {
	return a.ID == b.ID &&
		a.Description == b.Description &&
		a.Amount.Equal(b.Amount) &&
		a.Kind == b.Kind &&
		a.Category == b.Category &&
		a.Date.Equal(b.Date) &&
		a.SeriesID == b.SeriesID
}
