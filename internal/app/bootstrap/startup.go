// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/dispatchhub/internal/app/system/reconcile"
	"github.com/dalemusser/dispatchhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs after backends are connected and before the handler is built.
// It applies timeout overrides and, when enabled, sweeps the deletion journal
// so accounts left behind by an interrupted run are removed, then starts the
// periodic sweep worker.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	defer func() {
		if deps.Sweeper != nil {
			deps.Sweeper.Start()
		}
	}()

	if n := timeouts.ConfigureFromEnv(); n > 0 {
		cur := timeouts.Current()
		logger.Info("timeouts configured from environment",
			zap.Duration("ping", cur.Ping),
			zap.Duration("short", cur.Short),
			zap.Duration("routine", cur.Routine))
	}

	if !appCfg.SweepOnStartup || deps.Backends == nil || deps.Backends.Journal == nil {
		return nil
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Routine(), logger, "startup deletion sweep")
	defer cancel()

	svc := reconcile.New(deps.Backends.Docs, deps.Backends.Identity, logger).
		WithJournal(deps.Backends.Journal)
	if deps.Metrics != nil {
		svc.WithMetrics(deps.Metrics)
	}
	sum, err := svc.SweepDeletions(ctx)
	if err != nil {
		// A sweep failure leaves the journal intact; serving can proceed.
		logger.Warn("startup deletion sweep failed", zap.Error(err))
		return nil
	}
	logger.Info("startup deletion sweep done",
		zap.Int("checked", sum.Checked),
		zap.Int("accounts_deleted", sum.AccountsDeleted),
		zap.Int("errors", sum.Errors))
	return nil
}
