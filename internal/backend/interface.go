package backend

import (
	"context"

	"budgetviz/internal/services"
	"budgetviz/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// PingFunc reports whether the backend can serve requests.
type PingFunc func(ctx context.Context) error

// BackendResult contains the configured store, an optional change notifier
// and the functions to probe and release the underlying resources.
type BackendResult struct {
	Store    store.Store
	Notifier services.Notifier
	Ping     PingFunc
	Cleanup  CleanupFunc
}

// Close runs Cleanup if there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates the primary store and its notifier.
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	// CreateMirror creates the Google Sheets store the mirror worker writes to.
	CreateMirror(ctx context.Context, config Config) (store.Store, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// File backend
	DataDirectory string

	// SQLite backend
	SQLiteDBPath string

	// Change notifications; disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets backend and mirror
	GoogleSpreadsheetID      string
	GoogleLedgerSheet        string
	GoogleBudgetsSheet       string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, FileBackend, SQLiteBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
