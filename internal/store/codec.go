package store

import (
	"context"
	"encoding/json"
	"fmt"

	"budgetviz/internal/core"
)

func EncodeLedger(ledger []core.Transaction) ([]byte, error) {
	if ledger == nil {
		ledger = []core.Transaction{}
	}
	return json.Marshal(ledger)
}

func DecodeLedger(data []byte) ([]core.Transaction, error) {
	var ledger []core.Transaction
	if err := json.Unmarshal(data, &ledger); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}
	if ledger == nil {
		ledger = []core.Transaction{}
	}
	return ledger, nil
}

func EncodeBudgets(table core.BudgetTable) ([]byte, error) {
	if table == nil {
		table = core.BudgetTable{}
	}
	return json.Marshal(table)
}

func DecodeBudgets(data []byte) (core.BudgetTable, error) {
	var table core.BudgetTable
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("decode budgets: %w", err)
	}
	if table == nil {
		table = core.BudgetTable{}
	}
	return table, nil
}

// BlobBacked adapts a BlobStore to Store by encoding each collection as one
// JSON document.
type BlobBacked struct {
	blobs BlobStore
}

func NewBlobBacked(blobs BlobStore) *BlobBacked {
	return &BlobBacked{blobs: blobs}
}

func (s *BlobBacked) LoadLedger(ctx context.Context) ([]core.Transaction, error) {
	data, found, err := s.blobs.Get(ctx, LedgerKey)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if !found {
		return []core.Transaction{}, nil
	}
	return DecodeLedger(data)
}

func (s *BlobBacked) SaveLedger(ctx context.Context, ledger []core.Transaction) error {
	data, err := EncodeLedger(ledger)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := s.blobs.Put(ctx, LedgerKey, data); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

func (s *BlobBacked) LoadBudgetTable(ctx context.Context) (core.BudgetTable, error) {
	data, found, err := s.blobs.Get(ctx, BudgetsKey)
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	if !found {
		return core.BudgetTable{}, nil
	}
	return DecodeBudgets(data)
}

func (s *BlobBacked) SaveBudgetTable(ctx context.Context, table core.BudgetTable) error {
	data, err := EncodeBudgets(table)
	if err != nil {
		return fmt.Errorf("encode budgets: %w", err)
	}
	if err := s.blobs.Put(ctx, BudgetsKey, data); err != nil {
		return fmt.Errorf("save budgets: %w", err)
	}
	return nil
}
