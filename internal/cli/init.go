// Package cli holds the startup helpers shared by the binaries and the
// budgetctl command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"budgetviz/internal/backend"
	"budgetviz/internal/config"
	"budgetviz/internal/log"
	"budgetviz/internal/recurrence"
	"budgetviz/internal/services"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from cfg and installs it as the
// slog default. An unknown level falls back to info.
func SetupLogger(cfg *config.Config, out io.Writer, component string) *log.Logger {
	level, err := log.ParseLevel(cfg.LogLevel)
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Output:    out,
		Component: component,
	})
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Unknown log level, using info", log.FieldError, err)
	}
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation failed:\n%v\n", err)
		os.Exit(1)
	}
	return cfg
}

// NewEngine builds a recurrence engine for the configured month policy.
func NewEngine(cfg *config.Config) (*recurrence.Engine, error) {
	stepper, err := recurrence.GetStepper(recurrence.Policy(cfg.MonthPolicy))
	if err != nil {
		return nil, err
	}
	return recurrence.New(recurrence.WithStepper(stepper)), nil
}

// OpenService creates the configured backend and a loaded BudgetService over
// it. A load failure is logged and the service starts empty. The caller
// must Close the returned backend.
func OpenService(ctx context.Context, cfg *config.Config, logger *log.Logger) (*services.BudgetService, *backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, nil, err
	}

	engine, err := NewEngine(cfg)
	if err != nil {
		_ = result.Close()
		return nil, nil, err
	}

	opts := []services.Option{
		services.WithLocation(cfg.Location()),
		services.WithMaxOccurrences(cfg.MaxOccurrences),
	}
	if result.Notifier != nil {
		opts = append(opts, services.WithNotifier(result.Notifier))
	}
	svc := services.NewBudgetService(result.Store, engine, opts...)
	if err := svc.Load(ctx); err != nil {
		logger.Warn("Starting with partial state", log.FieldError, err)
	}
	return svc, result, nil
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
