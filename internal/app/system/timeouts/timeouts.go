// Package timeouts holds the deadlines applied to database work outside the
// request deadline: health pings, background jobs and startup tasks.
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing  = 2 * time.Second
	DefaultShort = 5 * time.Second
	DefaultLong  = 30 * time.Second
)

// Config overrides the defaults. Zero fields keep the current value.
type Config struct {
	Ping  time.Duration
	Short time.Duration
	Long  time.Duration
}

var (
	mu  sync.RWMutex
	cur = Config{Ping: DefaultPing, Short: DefaultShort, Long: DefaultLong}
)

// Ping is the deadline for health checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return cur.Ping
}

// Short is the deadline for single-document operations.
func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return cur.Short
}

// Long is the deadline for sweeps, schema setup and seeding.
func Long() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return cur.Long
}

func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if cfg.Ping > 0 {
		cur.Ping = cfg.Ping
	}
	if cfg.Short > 0 {
		cur.Short = cfg.Short
	}
	if cfg.Long > 0 {
		cur.Long = cfg.Long
	}
}

// Reset restores the defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = Config{Ping: DefaultPing, Short: DefaultShort, Long: DefaultLong}
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// WithTimeout is context.WithTimeout whose cancel logs when the deadline
// was the reason the operation ended.
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
