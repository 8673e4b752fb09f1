package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budgetviz/internal/amqp"
	"budgetviz/internal/storage"
	"budgetviz/internal/store"
	gstore "budgetviz/internal/store/google"
	"budgetviz/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case MemoryBackend:
		result = f.createMemoryBackend()
	case FileBackend:
		result, err = f.createFileBackend(config)
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(config)
	case SheetsBackend:
		result, err = f.createSheetsBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.attachNotifier(result, config)
	return result, nil
}

// CreateMirror implements Factory.CreateMirror
func (f *DefaultFactory) CreateMirror(ctx context.Context, config Config) (store.Store, error) {
	if !config.HasMirror() {
		return nil, errors.New("no spreadsheet configured to mirror into")
	}
	return gstore.New(ctx, sheetsOptions(config))
}

func (f *DefaultFactory) createMemoryBackend() *BackendResult {
	f.logger.Info("Initialized memory backend")
	return &BackendResult{Store: memory.NewStore()}
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	blobs, err := memory.NewFileStore(config.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}

	f.logger.Info("Initialized file backend", "data_directory", config.DataDirectory)

	return &BackendResult{Store: store.NewBlobBacked(blobs)}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   store.NewBlobBacked(repo),
		Ping:    repo.Ping,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := gstore.New(ctx, sheetsOptions(config))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)

	return &BackendResult{Store: cli}, nil
}

// attachNotifier connects to the broker when one is configured. A broker
// that cannot be reached leaves the backend without notifications.
func (f *DefaultFactory) attachNotifier(result *BackendResult, config Config) {
	if config.AMQPURL == "" {
		return
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without notifications", "error", err)
		return
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	result.Notifier = client
	result.Cleanup = chainCleanup(result.Cleanup, client.Close)
}

func chainCleanup(funcs ...CleanupFunc) CleanupFunc {
	return func() error {
		var errs []error
		for _, fn := range funcs {
			if fn == nil {
				continue
			}
			if err := fn(); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}

func sheetsOptions(config Config) gstore.Options {
	return gstore.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		LedgerSheet:     config.GoogleLedgerSheet,
		BudgetsSheet:    config.GoogleBudgetsSheet,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	}
}
