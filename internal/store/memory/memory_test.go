package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budgetviz/internal/core"
	"budgetviz/internal/store"
)

func sampleLedger() []core.Transaction {
	return []core.Transaction{
		{
			ID:          "t1",
			SeriesID:    "s1",
			Description: "Rent",
			Amount:      decimal.RequireFromString("1200.50"),
			Kind:        core.Expense,
			Category:    core.Rent,
			Date:        time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:          "t2",
			Description: "Salary",
			Amount:      decimal.NewFromInt(3000),
			Kind:        core.Income,
			Date:        time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC),
		},
	}
}

func sampleBudgets() core.BudgetTable {
	b := core.DefaultBudget()
	b.ExpenseBudgets.Set(core.DiningOut, decimal.NewFromInt(150))
	b.Recurring.IncomeGoal = true
	return core.BudgetTable{"2024-01": b}
}

func exerciseStore(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	ledger, err := s.LoadLedger(ctx)
	if err != nil || ledger == nil || len(ledger) != 0 {
		t.Fatalf("fresh ledger = %v, %v", ledger, err)
	}
	table, err := s.LoadBudgetTable(ctx)
	if err != nil || table == nil || len(table) != 0 {
		t.Fatalf("fresh budgets = %v, %v", table, err)
	}

	if err := s.SaveLedger(ctx, sampleLedger()); err != nil {
		t.Fatalf("SaveLedger: %v", err)
	}
	if err := s.SaveBudgetTable(ctx, sampleBudgets()); err != nil {
		t.Fatalf("SaveBudgetTable: %v", err)
	}

	ledger, err = s.LoadLedger(ctx)
	if err != nil {
		t.Fatalf("LoadLedger: %v", err)
	}
	want := sampleLedger()
	if len(ledger) != len(want) {
		t.Fatalf("expected %d transactions, got %d", len(want), len(ledger))
	}
	for i := range want {
		got := ledger[i]
		if got.ID != want[i].ID || got.SeriesID != want[i].SeriesID || got.Category != want[i].Category ||
			got.Kind != want[i].Kind || !got.Amount.Equal(want[i].Amount) || !got.Date.Equal(want[i].Date) {
			t.Errorf("transaction %d: got %+v, want %+v", i, got, want[i])
		}
	}

	table, err = s.LoadBudgetTable(ctx)
	if err != nil {
		t.Fatalf("LoadBudgetTable: %v", err)
	}
	if b, ok := table["2024-01"]; !ok || !b.Equal(sampleBudgets()["2024-01"]) {
		t.Errorf("budget round trip: %+v", table)
	}

	// A save replaces the whole collection.
	if err := s.SaveLedger(ctx, sampleLedger()[:1]); err != nil {
		t.Fatalf("SaveLedger: %v", err)
	}
	if ledger, _ = s.LoadLedger(ctx); len(ledger) != 1 {
		t.Errorf("expected 1 transaction after overwrite, got %d", len(ledger))
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewStore())
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	exerciseStore(t, store.NewBlobBacked(fs))

	if _, err := os.Stat(filepath.Join(dir, store.LedgerKey+".json")); err != nil {
		t.Errorf("ledger file missing: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
}

func TestFileStoreCorruptDocument(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, store.LedgerKey+".json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := store.NewBlobBacked(fs).LoadLedger(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNewFileStoreRequiresDir(t *testing.T) {
	if _, err := NewFileStore(" "); err == nil {
		t.Fatal("expected error for empty dir")
	}
}

func TestStoreCopiesBlobs(t *testing.T) {
	s := New()
	ctx := context.Background()
	data := []byte(`[]`)
	if err := s.Put(ctx, "k", data); err != nil {
		t.Fatal(err)
	}
	data[0] = 'x'
	got, found, _ := s.Get(ctx, "k")
	if !found || string(got) != "[]" {
		t.Fatalf("stored blob aliased caller buffer: %q", got)
	}
}
