// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/dispatchhub/internal/app/system/backends"
	"github.com/dalemusser/dispatchhub/internal/app/system/metrics"
	"github.com/dalemusser/dispatchhub/internal/app/system/ratelimit"
	"github.com/dalemusser/dispatchhub/internal/app/system/workers"
)

// DBDeps holds the backends opened for this process, the metrics collector
// the handlers and routines report to, and the background pieces that must
// be stopped on shutdown.
type DBDeps struct {
	Backends *backends.Backends
	Metrics  *metrics.Collector

	// Sweeper is nil unless sweep_interval and saga_log_path are set.
	Sweeper *workers.DeletionSweep
	// Limiter is nil when api_rate_limit is 0.
	Limiter *ratelimit.Limiter
}
