// Package store defines the persistence ports for the ledger and the budget
// table, plus the JSON codec shared by the blob-backed adapters.
package store

import (
	"context"

	"budgetviz/internal/core"
)

// Blob keys under which each collection is persisted as a whole.
const (
	LedgerKey  = "budget-visualizer-transactions"
	BudgetsKey = "budget-visualizer-budgets"
)

// Collection names a persisted collection in change notifications.
type Collection string

const (
	CollectionLedger  Collection = "ledger"
	CollectionBudgets Collection = "budgets"
)

func (c Collection) IsValid() bool {
	return c == CollectionLedger || c == CollectionBudgets
}

// Ports for outbound adapters. Every save replaces the whole collection.
type (
	LedgerStore interface {
		// LoadLedger returns an empty ledger when nothing was saved yet.
		LoadLedger(ctx context.Context) ([]core.Transaction, error)
		SaveLedger(ctx context.Context, ledger []core.Transaction) error
	}

	BudgetStore interface {
		// LoadBudgetTable returns an empty table when nothing was saved yet.
		LoadBudgetTable(ctx context.Context) (core.BudgetTable, error)
		SaveBudgetTable(ctx context.Context, table core.BudgetTable) error
	}

	Store interface {
		LedgerStore
		BudgetStore
	}

	// BlobStore is a key/value store of opaque documents.
	BlobStore interface {
		// Get reports found=false for a key that was never written.
		Get(ctx context.Context, key string) (data []byte, found bool, err error)
		Put(ctx context.Context, key string, data []byte) error
	}
)
