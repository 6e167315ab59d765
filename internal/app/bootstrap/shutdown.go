// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops the background workers and closes every backend opened by
// ConnectDB.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Sweeper != nil {
		deps.Sweeper.Stop()
	}
	if deps.Limiter != nil {
		deps.Limiter.Stop()
	}
	if deps.Backends == nil {
		return nil
	}
	logger.Info("closing backends")
	if err := deps.Backends.Close(ctx); err != nil {
		logger.Error("backend close failed", zap.Error(err))
		return err
	}
	return nil
}
