package recurrence

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"budgetviz/internal/core"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func rentTemplate(date time.Time) core.Template {
	return core.Template{
		Description: "Rent",
		Amount:      decimal.NewFromInt(1200),
		Kind:        core.Expense,
		Category:    core.Rent,
		Date:        date,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func assertDates(t *testing.T, txs []core.Transaction, want ...time.Time) {
	t.Helper()
	if len(txs) != len(want) {
		t.Fatalf("expected %d transactions, got %d", len(want), len(txs))
	}
	for i, w := range want {
		if !txs[i].Date.Equal(w) {
			t.Errorf("transaction %d (%s): date %s, want %s", i, txs[i].ID, txs[i].Date.Format("2006-01-02"), w.Format("2006-01-02"))
		}
	}
}

func TestExpandSeries(t *testing.T) {
	e := New(WithIDGenerator(sequentialIDs()))
	got := e.Expand(rentTemplate(day(2024, 1, 1)), 2)

	assertDates(t, got, day(2024, 1, 1), day(2024, 2, 1), day(2024, 3, 1))
	series := got[0].SeriesID
	if series == "" {
		t.Fatal("expected a series id")
	}
	ids := map[string]bool{}
	for _, tx := range got {
		if tx.SeriesID != series {
			t.Errorf("series id mismatch: %s", tx.SeriesID)
		}
		if tx.ID == series || ids[tx.ID] {
			t.Errorf("id %s is not unique", tx.ID)
		}
		ids[tx.ID] = true
		if tx.Description != "Rent" || !tx.Amount.Equal(decimal.NewFromInt(1200)) || tx.Category != core.Rent {
			t.Errorf("fields not copied: %+v", tx)
		}
	}
}

func TestExpandSingle(t *testing.T) {
	e := New()
	got := e.Expand(rentTemplate(day(2024, 1, 1)), 0)
	if len(got) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(got))
	}
	if got[0].SeriesID != "" {
		t.Errorf("single transaction must not be tagged, got %q", got[0].SeriesID)
	}
	if got[0].ID == "" {
		t.Error("expected a fresh id")
	}
}

func TestExpandCount(t *testing.T) {
	e := New()
	for n := 0; n <= 24; n++ {
		got := e.Expand(rentTemplate(day(2024, 1, 31)), n)
		if len(got) != n+1 {
			t.Fatalf("n=%d: expected %d transactions, got %d", n, n+1, len(got))
		}
	}
}

func TestExpandMonthSpacingClamp(t *testing.T) {
	e := New()
	for _, anchorDay := range []int{1, 15, 28, 29, 30, 31} {
		anchor := time.Date(2024, 1, anchorDay, 9, 30, 0, 0, time.UTC)
		got := e.Expand(rentTemplate(anchor), 13)
		for i, tx := range got {
			wantMonth := time.Month((int(anchor.Month())-1+i)%12 + 1)
			wantYear := anchor.Year() + (int(anchor.Month())-1+i)/12
			if tx.Date.Month() != wantMonth || tx.Date.Year() != wantYear {
				t.Fatalf("anchor day %d, instance %d: got %s, want %d-%02d", anchorDay, i, tx.Date.Format("2006-01-02"), wantYear, wantMonth)
			}
			if tx.Date.Hour() != 9 || tx.Date.Minute() != 30 {
				t.Errorf("time of day lost: %v", tx.Date)
			}
		}
	}
}

func TestExpandClampAndOverflow(t *testing.T) {
	clamp := New().Expand(rentTemplate(day(2024, 1, 31)), 2)
	assertDates(t, clamp, day(2024, 1, 31), day(2024, 2, 29), day(2024, 3, 31))

	overflow := New(WithStepper(OverflowStepper{})).Expand(rentTemplate(day(2024, 1, 31)), 2)
	assertDates(t, overflow, day(2024, 1, 31), day(2024, 3, 2), day(2024, 3, 31))
}

func TestGetStepper(t *testing.T) {
	if s, err := GetStepper(""); err != nil || s != (ClampStepper{}) {
		t.Fatalf("default stepper = %v, %v", s, err)
	}
	if s, err := GetStepper(Overflow); err != nil || s != (OverflowStepper{}) {
		t.Fatalf("overflow stepper = %v, %v", s, err)
	}
	if _, err := GetStepper("lunar"); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestEditScopedThisAndFuture(t *testing.T) {
	e := New(WithIDGenerator(sequentialIDs()))
	ledger := e.Expand(rentTemplate(day(2024, 1, 1)), 2)
	before := append([]core.Transaction(nil), ledger...)

	fields := rentTemplate(day(2024, 2, 15))
	fields.Amount = decimal.NewFromInt(1300)
	got, err := e.EditScoped(ledger, ledger[1].ID, fields, ThisAndFuture)
	if err != nil {
		t.Fatalf("EditScoped: %v", err)
	}

	assertDates(t, got, day(2024, 1, 1), day(2024, 2, 15), day(2024, 3, 15))
	if !got[0].Amount.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("past member changed: %+v", got[0])
	}
	for i := 1; i < 3; i++ {
		if !got[i].Amount.Equal(decimal.NewFromInt(1300)) {
			t.Errorf("future member %d not updated: %+v", i, got[i])
		}
		if got[i].ID != before[i].ID || got[i].SeriesID != before[i].SeriesID {
			t.Errorf("identity changed: %+v", got[i])
		}
	}
	for i := range ledger {
		if !ledger[i].Date.Equal(before[i].Date) || !ledger[i].Amount.Equal(before[i].Amount) {
			t.Fatalf("input ledger was modified at %d", i)
		}
	}
}

func TestEditScopedReanchorsUnsortedSubset(t *testing.T) {
	e := New(WithIDGenerator(sequentialIDs()))
	series := e.Expand(rentTemplate(day(2024, 1, 1)), 4)
	other := e.Expand(core.Template{
		Description: "Salary",
		Amount:      decimal.NewFromInt(3000),
		Kind:        core.Income,
		Date:        day(2024, 2, 1),
	}, 0)
	// Stored out of date order with an unrelated record in between.
	ledger := []core.Transaction{series[4], series[0], other[0], series[2], series[3], series[1]}

	got, err := e.EditScoped(ledger, series[2].ID, rentTemplate(day(2024, 3, 10)), ThisAndFuture)
	if err != nil {
		t.Fatalf("EditScoped: %v", err)
	}
	if len(got) != len(ledger) {
		t.Fatalf("ledger length changed: %d", len(got))
	}
	for i := range got {
		if got[i].ID != ledger[i].ID {
			t.Fatalf("ledger order changed at %d", i)
		}
	}
	assertDates(t, got,
		day(2024, 5, 10), // series[4]: k=2
		day(2024, 1, 1),  // series[0]: before the edited instance
		day(2024, 2, 1),  // unrelated
		day(2024, 3, 10), // series[2]: k=0
		day(2024, 4, 10), // series[3]: k=1
		day(2024, 2, 1),  // series[1]: before the edited instance
	)
}

func TestEditScopedPreservesPast(t *testing.T) {
	e := New()
	for target := 0; target < 6; target++ {
		ledger := e.Expand(rentTemplate(day(2024, 1, 20)), 5)
		got, err := e.EditScoped(ledger, ledger[target].ID, rentTemplate(day(2025, 6, 1)), ThisAndFuture)
		if err != nil {
			t.Fatalf("EditScoped: %v", err)
		}
		for i := 0; i < target; i++ {
			if got[i] != ledger[i] {
				t.Fatalf("target %d: past member %d changed", target, i)
			}
		}
		for k, i := 0, target; i < len(got); i, k = i+1, k+1 {
			want := ClampStepper{}.AddMonths(day(2025, 6, 1), k)
			if !got[i].Date.Equal(want) {
				t.Fatalf("target %d: member %d dated %v, want %v", target, i, got[i].Date, want)
			}
		}
	}
}

func TestEditScopedThisOnly(t *testing.T) {
	e := New(WithIDGenerator(sequentialIDs()))
	ledger := e.Expand(rentTemplate(day(2024, 1, 1)), 2)

	fields := rentTemplate(day(2024, 2, 20))
	fields.Description = "Rent (late)"
	got, err := e.EditScoped(ledger, ledger[1].ID, fields, ThisOnly)
	if err != nil {
		t.Fatalf("EditScoped: %v", err)
	}
	assertDates(t, got, day(2024, 1, 1), day(2024, 2, 20), day(2024, 3, 1))
	if got[1].Description != "Rent (late)" || got[2].Description != "Rent" {
		t.Errorf("unexpected descriptions: %q %q", got[1].Description, got[2].Description)
	}
	if got[1].SeriesID != ledger[1].SeriesID {
		t.Error("series tag must survive a single edit")
	}
}

func TestEditScopedUntaggedDegradesToThisOnly(t *testing.T) {
	e := New(WithIDGenerator(sequentialIDs()))
	single := e.Expand(rentTemplate(day(2024, 1, 1)), 0)
	other := e.Expand(rentTemplate(day(2024, 2, 1)), 0)
	ledger := append(single, other...)

	got, err := e.EditScoped(ledger, single[0].ID, rentTemplate(day(2024, 1, 5)), ThisAndFuture)
	if err != nil {
		t.Fatalf("EditScoped: %v", err)
	}
	assertDates(t, got, day(2024, 1, 5), day(2024, 2, 1))
}

func TestEditScopedErrors(t *testing.T) {
	e := New()
	ledger := e.Expand(rentTemplate(day(2024, 1, 1)), 1)

	got, err := e.EditScoped(ledger, "missing", rentTemplate(day(2024, 1, 1)), ThisOnly)
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(got) != len(ledger) {
		t.Fatal("ledger changed on missing id")
	}

	if _, err := e.EditScoped(ledger, ledger[0].ID, rentTemplate(day(2024, 1, 1)), "all"); !errors.Is(err, core.ErrInvalidScope) {
		t.Fatalf("expected ErrInvalidScope, got %v", err)
	}
}

func TestDeleteScoped(t *testing.T) {
	e := New(WithIDGenerator(sequentialIDs()))
	series := e.Expand(rentTemplate(day(2024, 1, 1)), 3)
	single := e.Expand(rentTemplate(day(2024, 3, 1)), 0)
	ledger := append(append([]core.Transaction(nil), series...), single...)

	t.Run("future removes target and later members", func(t *testing.T) {
		got, err := e.DeleteScoped(ledger, series[1].ID, series[1].SeriesID, ThisAndFuture)
		if err != nil {
			t.Fatalf("DeleteScoped: %v", err)
		}
		if len(got) != 2 || got[0].ID != series[0].ID || got[1].ID != single[0].ID {
			t.Fatalf("unexpected survivors: %+v", got)
		}
	})

	t.Run("this only removes one", func(t *testing.T) {
		got, err := e.DeleteScoped(ledger, series[1].ID, series[1].SeriesID, ThisOnly)
		if err != nil {
			t.Fatalf("DeleteScoped: %v", err)
		}
		if len(got) != len(ledger)-1 {
			t.Fatalf("expected %d survivors, got %d", len(ledger)-1, len(got))
		}
		for _, tx := range got {
			if tx.ID == series[1].ID {
				t.Fatal("target still present")
			}
		}
	})

	t.Run("no series id removes one", func(t *testing.T) {
		got, err := e.DeleteScoped(ledger, series[0].ID, "", ThisAndFuture)
		if err != nil {
			t.Fatalf("DeleteScoped: %v", err)
		}
		if len(got) != len(ledger)-1 {
			t.Fatalf("expected %d survivors, got %d", len(ledger)-1, len(got))
		}
	})

	t.Run("series member without scope", func(t *testing.T) {
		got, err := e.DeleteScoped(ledger, series[1].ID, series[1].SeriesID, "")
		if !errors.Is(err, core.ErrScopeRequired) || !core.IsValidation(err) {
			t.Fatalf("expected ErrScopeRequired, got %v", err)
		}
		if len(got) != len(ledger) {
			t.Fatal("ledger changed")
		}
	})

	t.Run("missing id is a no-op", func(t *testing.T) {
		got, err := e.DeleteScoped(ledger, "missing", "", ThisOnly)
		if !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if len(got) != len(ledger) {
			t.Fatal("ledger changed")
		}
	})

	if len(ledger) != 5 {
		t.Fatal("input ledger was modified")
	}
}

func TestParseScope(t *testing.T) {
	cases := map[string]Scope{"this": ThisOnly, "FUTURE": ThisAndFuture, " future ": ThisAndFuture}
	for in, want := range cases {
		got, err := ParseScope(in)
		if err != nil || got != want {
			t.Errorf("ParseScope(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseScope(""); !errors.Is(err, core.ErrInvalidScope) {
		t.Errorf("expected ErrInvalidScope for empty scope, got %v", err)
	}
}

func TestSeries(t *testing.T) {
	e := New(WithIDGenerator(sequentialIDs()))
	series := e.Expand(rentTemplate(day(2024, 1, 1)), 2)
	ledger := []core.Transaction{series[2], series[0], series[1]}
	got := Series(ledger, series[0].SeriesID)
	assertDates(t, got, day(2024, 1, 1), day(2024, 2, 1), day(2024, 3, 1))
	if len(Series(ledger, "")) != 0 {
		t.Error("empty series id should match nothing")
	}
}
