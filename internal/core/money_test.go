package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true}, // half-up rounding
		{" 2.50 ", "2.5", true},
		{"1200", "1200", true},
		{"-1", "", false},
		{"+1", "", false},
		{"0", "", false},
		{"0.001", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1e3", "", false},
		{".", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %s", tc.in, got)
		}
	}
}

func TestParseBudgetAmountAcceptsZero(t *testing.T) {
	got, err := ParseBudgetAmount("0")
	if err != nil || !got.IsZero() {
		t.Fatalf("expected zero, got %s (err=%v)", got, err)
	}
	if _, err := ParseBudgetAmount("-3"); err == nil {
		t.Fatal("expected error for negative budget amount")
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(decimal.NewFromInt(250), decimal.NewFromInt(1000)); got != 25 {
		t.Errorf("expected 25, got %v", got)
	}
	if got := Percent(decimal.NewFromInt(250), decimal.Zero); got != 0 {
		t.Errorf("expected 0 for zero whole, got %v", got)
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(decimal.RequireFromString("12.5")); got != "12.50" {
		t.Errorf("expected 12.50, got %s", got)
	}
}
