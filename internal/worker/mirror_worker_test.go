package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budgetviz/internal/amqp"
	"budgetviz/internal/core"
	"budgetviz/internal/store"
	"budgetviz/internal/store/memory"
)

type brokenTarget struct {
	store.Store
}

func (brokenTarget) SaveLedger(context.Context, []core.Transaction) error {
	return errors.New("quota exceeded")
}

func seed(t *testing.T, st store.Store) {
	t.Helper()
	ctx := context.Background()
	ledger := []core.Transaction{
		{ID: "a", Description: "Salary", Amount: decimal.NewFromInt(3000), Kind: core.Income, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "b", Description: "Rent", Amount: decimal.NewFromInt(1200), Kind: core.Expense, Category: core.Rent, Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)},
	}
	if err := st.SaveLedger(ctx, ledger); err != nil {
		t.Fatal(err)
	}
	if err := st.SaveBudgetTable(ctx, core.BudgetTable{"2024-03": core.DefaultBudget()}); err != nil {
		t.Fatal(err)
	}
}

func TestMirrorWorker_HandleMessage(t *testing.T) {
	ctx := context.Background()
	source, target := memory.NewStore(), memory.NewStore()
	seed(t, source)
	w := NewMirrorWorker(source, target, time.Minute)

	msg := amqp.NewCollectionChangedMessage(store.CollectionLedger, 2)
	if err := w.HandleMessage(ctx, msg); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	ledger, err := target.LoadLedger(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ledger) != 2 {
		t.Errorf("expected 2 mirrored transactions, got %d", len(ledger))
	}
	budgets, err := target.LoadBudgetTable(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(budgets) != 0 {
		t.Errorf("budgets should not be mirrored by a ledger message, got %v", budgets)
	}
}

func TestMirrorWorker_MirrorAll(t *testing.T) {
	ctx := context.Background()
	source, target := memory.NewStore(), memory.NewStore()
	seed(t, source)
	w := NewMirrorWorker(source, target, time.Minute)

	if err := w.MirrorAll(ctx); err != nil {
		t.Fatalf("MirrorAll: %v", err)
	}
	budgets, _ := target.LoadBudgetTable(ctx)
	if _, ok := budgets["2024-03"]; !ok {
		t.Errorf("budgets not mirrored: %v", budgets)
	}
}

func TestMirrorWorker_Errors(t *testing.T) {
	ctx := context.Background()
	source := memory.NewStore()
	seed(t, source)
	w := NewMirrorWorker(source, brokenTarget{Store: memory.NewStore()}, time.Minute)

	if err := w.Mirror(ctx, store.CollectionLedger); err == nil {
		t.Error("expected error from failing target")
	}
	if err := w.Mirror(ctx, store.CollectionBudgets); err != nil {
		t.Errorf("budgets should still mirror: %v", err)
	}
	if err := w.Mirror(ctx, store.Collection("accounts")); err == nil {
		t.Error("expected error for unknown collection")
	}
	if err := w.MirrorAll(ctx); err == nil {
		t.Error("MirrorAll should report the ledger failure")
	}
}

func TestMirrorWorker_Lifecycle(t *testing.T) {
	ctx := context.Background()
	w := NewMirrorWorker(memory.NewStore(), memory.NewStore(), time.Minute)

	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !w.IsRunning() {
		t.Error("expected worker to be running")
	}
	if err := w.Start(ctx); err == nil {
		t.Error("second Start should fail")
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if w.IsRunning() {
		t.Error("expected worker to be stopped")
	}
	if err := w.Stop(stopCtx); err != nil {
		t.Errorf("Stop on stopped worker: %v", err)
	}

	if err := NewMirrorWorker(nil, nil, 0).Start(ctx); err == nil {
		t.Error("zero interval should be rejected")
	}
}

func TestMirrorWorker_ConcurrentStop(t *testing.T) {
	ctx := context.Background()
	w := NewMirrorWorker(memory.NewStore(), memory.NewStore(), time.Minute)
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- w.Stop(stopCtx)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Stop: %v", err)
		}
	}
	if w.IsRunning() {
		t.Error("expected worker to be stopped")
	}

	if err := w.Start(ctx); err != nil {
		t.Fatalf("restart after Stop: %v", err)
	}
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop after restart: %v", err)
	}
}
