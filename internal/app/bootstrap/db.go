// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/dispatchhub/internal/app/system/backends"
	"github.com/dalemusser/dispatchhub/internal/app/system/indexes"
	"github.com/dalemusser/dispatchhub/internal/app/system/metrics"
	"github.com/dalemusser/dispatchhub/internal/app/system/ratelimit"
	"github.com/dalemusser/dispatchhub/internal/app/system/reconcile"
	"github.com/dalemusser/dispatchhub/internal/app/system/timeouts"
	"github.com/dalemusser/dispatchhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// ConnectDB opens every configured backend once for the life of the process.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	b, err := backends.Open(ctx, appCfg.Backends(), logger)
	if err != nil {
		logger.Error("backend connection failed", zap.Error(err))
		return DBDeps{}, err
	}
	deps := DBDeps{Backends: b, Metrics: metrics.NewCollector()}

	if appCfg.SweepInterval > 0 && b.Journal != nil {
		svc := reconcile.New(b.Docs, b.Identity, logger).
			WithJournal(b.Journal).
			WithMetrics(deps.Metrics)
		deps.Sweeper = workers.NewDeletionSweep(svc, logger, appCfg.SweepInterval, timeouts.Routine())
	}
	if appCfg.APIRateLimit > 0 {
		deps.Limiter = ratelimit.New(appCfg.APIRateLimit, time.Minute)
	}
	return deps, nil
}

// EnsureSchema creates the Mongo indexes when a Mongo backend is in use.
// Firestore needs no schema for single-field equality queries.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Backends == nil || deps.Backends.MongoDatabase == nil {
		return nil
	}
	if err := indexes.EnsureAll(ctx, deps.Backends.MongoDatabase, logger); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	return nil
}
