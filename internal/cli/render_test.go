package cli

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"budgetviz/internal/core"
)

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Totals",
		Headers: []string{"Name", "Amount"},
		Rows: [][]string{
			{"Rent", "1200.00"},
			{"---"},
			{"Dining Out", "15.00"},
		},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 8 {
		t.Fatalf("expected 8 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "Totals") {
		t.Errorf("title line = %q", lines[0])
	}
	if !strings.Contains(out, "│ Rent       │ 1200.00 │") {
		t.Errorf("rows not padded as expected:\n%s", out)
	}
	if RenderTable(Table{}) != "" {
		t.Error("empty table should render nothing")
	}
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		pct    float64
		filled int
		label  string
	}{
		{0, 0, "0.0%"},
		{50, 5, "50.0%"},
		{150, 10, "150.0%"},
		{-10, 0, "-10.0%"},
	}
	for _, tt := range tests {
		bar := RenderProgressBar(tt.pct, 10)
		if got := strings.Count(bar, "█"); got != tt.filled {
			t.Errorf("RenderProgressBar(%v) filled %d cells, want %d", tt.pct, got, tt.filled)
		}
		if !strings.Contains(bar, tt.label) {
			t.Errorf("RenderProgressBar(%v) = %q, missing %q", tt.pct, bar, tt.label)
		}
	}
}

func TestFormatting(t *testing.T) {
	income := core.Transaction{Kind: core.Income, Amount: decimal.NewFromInt(10)}
	expense := core.Transaction{Kind: core.Expense, Amount: decimal.RequireFromString("2.5")}
	if got := FormatSigned(income); !strings.Contains(got, "+10.00") {
		t.Errorf("FormatSigned(income) = %q", got)
	}
	if got := FormatSigned(expense); !strings.Contains(got, "-2.50") {
		t.Errorf("FormatSigned(expense) = %q", got)
	}
	if got := ShortID("3f2a9c1e-aaaa-bbbb"); got != "3f2a9c1e" {
		t.Errorf("ShortID = %q", got)
	}
	if got := ShortID("plain"); got != "plain" {
		t.Errorf("ShortID(plain) = %q", got)
	}
}
