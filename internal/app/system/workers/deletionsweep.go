// internal/app/system/workers/deletionsweep.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/dispatchhub/internal/app/system/reconcile"
	"go.uber.org/zap"
)

// Sweeper finishes incomplete volunteer deletions from the journal.
type Sweeper interface {
	SweepDeletions(ctx context.Context) (reconcile.SweepSummary, error)
}

// DeletionSweep is a background worker that periodically runs the deletion
// journal sweep, so accounts left behind by a failed bulk delete are removed
// without an operator running dispatchctl.
type DeletionSweep struct {
	sweeper  Sweeper
	log      *zap.Logger
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDeletionSweep creates a sweep worker.
//
// Parameters:
//   - sweeper: usually a *reconcile.Service with a journal attached
//   - interval: how often to sweep (e.g., 15 minutes)
//   - timeout: upper bound for a single sweep
func NewDeletionSweep(sweeper Sweeper, logger *zap.Logger, interval, timeout time.Duration) *DeletionSweep {
	return &DeletionSweep{
		sweeper:  sweeper,
		log:      logger,
		interval: interval,
		timeout:  timeout,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *DeletionSweep) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("deletion sweep worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for an in-flight sweep to end.
// It is safe to call more than once.
func (w *DeletionSweep) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("deletion sweep worker stopped")
	})
}

func (w *DeletionSweep) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *DeletionSweep) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	// Stop cancels a sweep that is still running.
	go func() {
		select {
		case <-w.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	sum, err := w.sweeper.SweepDeletions(ctx)
	if err != nil {
		w.log.Error("deletion sweep failed", zap.Error(err))
		return
	}
	if sum.Checked > 0 {
		w.log.Info("deletion sweep done",
			zap.Int("checked", sum.Checked),
			zap.Int("accounts_deleted", sum.AccountsDeleted),
			zap.Int("abandoned", sum.Abandoned),
			zap.Int("pending", sum.Pending),
			zap.Int("errors", sum.Errors))
	}
}
