// Package worker copies collections from the primary store into the
// spreadsheet mirror.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"budgetviz/internal/amqp"
	"budgetviz/internal/metrics"
	"budgetviz/internal/store"
)

// MirrorWorker replicates whole collections from source to target. Each copy
// overwrites the target collection.
type MirrorWorker struct {
	source   store.Store
	target   store.Store
	interval time.Duration

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewMirrorWorker(source, target store.Store, interval time.Duration) *MirrorWorker {
	return &MirrorWorker{
		source:   source,
		target:   target,
		interval: interval,
	}
}

// HandleMessage copies the collection named in msg.
func (w *MirrorWorker) HandleMessage(ctx context.Context, msg *amqp.CollectionChangedMessage) error {
	slog.InfoContext(ctx, "Processing collection change",
		"collection", msg.Collection,
		"count", msg.Count,
		"timestamp", msg.Timestamp)

	return w.Mirror(ctx, msg.Collection)
}

// Mirror copies one collection.
func (w *MirrorWorker) Mirror(ctx context.Context, c store.Collection) error {
	var (
		n   int
		err error
	)
	switch c {
	case store.CollectionLedger:
		n, err = w.mirrorLedger(ctx)
	case store.CollectionBudgets:
		n, err = w.mirrorBudgets(ctx)
	default:
		return fmt.Errorf("unknown collection %q", c)
	}

	if err != nil {
		metrics.MirrorRuns.WithLabelValues(string(c), "error").Inc()
		slog.ErrorContext(ctx, "Failed to mirror collection", "collection", c, "error", err)
		return err
	}
	metrics.MirrorRuns.WithLabelValues(string(c), "ok").Inc()
	slog.InfoContext(ctx, "Mirrored collection", "collection", c, "count", n)
	return nil
}

// MirrorAll copies both collections concurrently. It is used at startup and on
// every tick to recover from lost messages or worker downtime.
func (w *MirrorWorker) MirrorAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Mirror(gctx, store.CollectionLedger) })
	g.Go(func() error { return w.Mirror(gctx, store.CollectionBudgets) })
	return g.Wait()
}

func (w *MirrorWorker) mirrorLedger(ctx context.Context) (int, error) {
	ledger, err := w.source.LoadLedger(ctx)
	if err != nil {
		return 0, fmt.Errorf("load ledger from source: %w", err)
	}
	if err := w.target.SaveLedger(ctx, ledger); err != nil {
		return 0, fmt.Errorf("write ledger to mirror: %w", err)
	}
	return len(ledger), nil
}

func (w *MirrorWorker) mirrorBudgets(ctx context.Context) (int, error) {
	table, err := w.source.LoadBudgetTable(ctx)
	if err != nil {
		return 0, fmt.Errorf("load budgets from source: %w", err)
	}
	if err := w.target.SaveBudgetTable(ctx, table); err != nil {
		return 0, fmt.Errorf("write budgets to mirror: %w", err)
	}
	return len(table), nil
}

// Start begins the periodic mirror loop. Returns an error if already running.
func (w *MirrorWorker) Start(ctx context.Context) error {
	if w.interval <= 0 {
		return fmt.Errorf("invalid mirror interval %v", w.interval)
	}

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("mirror worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	stop, done := w.stopCh, w.doneCh
	w.mu.Unlock()

	go w.runLoop(ctx, stop, done)

	slog.InfoContext(ctx, "Mirror loop started", "interval", w.interval)
	return nil
}

// Stop gracefully stops the loop and waits for the current run to finish.
// Concurrent calls all wait on the same loop.
func (w *MirrorWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	done := w.doneCh
	if w.running {
		w.running = false
		close(w.stopCh)
	}
	w.mu.Unlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
		slog.InfoContext(ctx, "Mirror loop stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Mirror loop stop timed out")
		return ctx.Err()
	}
	return nil
}

// IsRunning returns whether the loop is currently running
func (w *MirrorWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *MirrorWorker) runLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.MirrorAll(ctx); err != nil {
				slog.WarnContext(ctx, "Periodic mirror failed", "error", err)
			}
		}
	}
}
