// Package google stores the ledger and the budget table in two tabs of a
// Google spreadsheet. Every save clears a tab and rewrites it.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budgetviz/internal/core"
	"budgetviz/internal/store"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	ledgerSheet   string
	budgetsSheet  string
}

var _ store.Store = (*Client)(nil)

// Options configures the spreadsheet and how to authenticate.
type Options struct {
	SpreadsheetID string
	LedgerSheet   string
	BudgetsSheet  string
	// CredentialsJSON takes precedence over CredentialsFile. When both are
	// empty GOOGLE_APPLICATION_CREDENTIALS is consulted.
	CredentialsJSON string
	CredentialsFile string
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if opts.LedgerSheet == "" {
		opts.LedgerSheet = "Transactions"
	}
	if opts.BudgetsSheet == "" {
		opts.BudgetsSheet = "Budgets"
	}

	credentials, err := readCredentials(ctx, opts)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created",
		"spreadsheet_id", opts.SpreadsheetID,
		"ledger_sheet", opts.LedgerSheet,
		"budgets_sheet", opts.BudgetsSheet)

	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		ledgerSheet:   opts.LedgerSheet,
		budgetsSheet:  opts.BudgetsSheet,
	}, nil
}

func readCredentials(ctx context.Context, opts Options) ([]byte, error) {
	inline := strings.TrimSpace(opts.CredentialsJSON)
	file := strings.TrimSpace(opts.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", file)
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (c *Client) LoadLedger(ctx context.Context) ([]core.Transaction, error) {
	values, err := c.readSheet(ctx, c.ledgerSheet, "A:G")
	if err != nil {
		return nil, err
	}
	return parseLedgerRows(values)
}

func (c *Client) SaveLedger(ctx context.Context, ledger []core.Transaction) error {
	return c.replaceSheet(ctx, c.ledgerSheet, ledgerRows(ledger))
}

func (c *Client) LoadBudgetTable(ctx context.Context) (core.BudgetTable, error) {
	values, err := c.readSheet(ctx, c.budgetsSheet, "A:D")
	if err != nil {
		return nil, err
	}
	return parseBudgetRows(values)
}

func (c *Client) SaveBudgetTable(ctx context.Context, table core.BudgetTable) error {
	return c.replaceSheet(ctx, c.budgetsSheet, budgetRows(table))
}

func (c *Client) readSheet(ctx context.Context, sheet, cols string) ([][]interface{}, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!%s", sheet, cols)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

// replaceSheet clears the tab and writes rows from A1.
func (c *Client) replaceSheet(ctx context.Context, sheet string, rows [][]any) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	clearRange := fmt.Sprintf("%s!A:Z", sheet)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	rng := fmt.Sprintf("%s!A1", sheet)
	vr := &gsheet.ValueRange{Values: rows}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}

	slog.InfoContext(ctx, "Sheet rewritten", "sheet", sheet, "rows", len(rows)-1)
	return nil
}
