// Package timeouts provides the timeout values used with context.WithTimeout
// around store calls.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks and connectivity verification
//   - Short: single-document reads and writes from HTTP handlers
//   - Routine: one complete maintenance run (bulk delete, orphan cleanup,
//     sweep, geocode backfill)
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults used until Configure or ConfigureFromEnv changes them.
const (
	DefaultPing    = 2 * time.Second
	DefaultShort   = 5 * time.Second
	DefaultRoutine = 2 * time.Hour
)

var (
	mu      sync.RWMutex
	ping    = DefaultPing
	short   = DefaultShort
	routine = DefaultRoutine
)

// Ping returns the timeout for health checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Short returns the timeout for single-document operations.
func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

// Routine returns the timeout for a whole maintenance run. Geocode backfills
// are paced at one request per second, so this is deliberately long.
func Routine() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return routine
}

// Config holds timeout values. Zero values keep the current setting.
type Config struct {
	Ping    time.Duration
	Short   time.Duration
	Routine time.Duration
}

// Configure sets custom timeout values.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		ping = cfg.Ping
	}
	if cfg.Short > 0 {
		short = cfg.Short
	}
	if cfg.Routine > 0 {
		routine = cfg.Routine
	}
}

// Reset restores the defaults. Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping, short, routine = DefaultPing, DefaultShort, DefaultRoutine
}

// ConfigureFromEnv reads DISPATCHHUB_TIMEOUT_PING, DISPATCHHUB_TIMEOUT_SHORT
// and DISPATCHHUB_TIMEOUT_ROUTINE (Go durations such as "500ms" or "90m").
// Invalid or non-positive values are ignored. It returns how many values
// were applied.
func ConfigureFromEnv() int {
	var cfg Config
	applied := 0
	for _, e := range []struct {
		name string
		dst  *time.Duration
	}{
		{"DISPATCHHUB_TIMEOUT_PING", &cfg.Ping},
		{"DISPATCHHUB_TIMEOUT_SHORT", &cfg.Short},
		{"DISPATCHHUB_TIMEOUT_ROUTINE", &cfg.Routine},
	} {
		v := os.Getenv(e.name)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*e.dst = d
			applied++
		}
	}
	Configure(cfg)
	return applied
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Short: short, Routine: routine}
}

// WithTimeout creates a context with timeout whose cancel function logs a
// warning if the deadline was hit.
//
//	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Routine(), log, "orphan cleanup")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
