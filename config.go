package strom

import (
	"log/slog"
	"time"
)

// DefaultQueueCapacity is used for edges connected without an
// explicit capacity.
const DefaultQueueCapacity = 4096

// RuntimeConfig holds the tunables the runtime recognizes. The zero
// value is usable: zero workers auto-detects, zero capacity falls
// back to DefaultQueueCapacity, an unknown policy falls back to
// round-robin and a zero ShutdownTimeout drains without a deadline.
type RuntimeConfig struct {
	// NumWorkers is the worker goroutine count. 0 auto-detects from
	// hardware concurrency.
	NumWorkers int
	// DefaultQueueCapacity applies to edges with no explicit capacity.
	DefaultQueueCapacity int
	// SchedulingPolicy picks the scheduler. Priority and LoadAware
	// fall back to round-robin.
	SchedulingPolicy SchedulingPolicy
	// EnableMetrics turns on the periodic metrics reporter.
	EnableMetrics bool
	// MetricsInterval is the reporter period. 0 means 1s.
	MetricsInterval time.Duration
	// ShutdownTimeout bounds the drain phase of Stop. 0 waits until
	// every queue is empty, however long that takes. On expiry Stop
	// closes the queues and stops the workers without waiting further;
	// events still enqueued once the workers stop are not processed.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		DefaultQueueCapacity: DefaultQueueCapacity,
		SchedulingPolicy:     RoundRobin,
		MetricsInterval:      time.Second,
	}
}

// Option is a function that configures a Runtime.
type Option func(*Runtime)

// WithWorkersCount sets the number of workers.
var WithWorkersCount = func(n int) Option {
	return func(r *Runtime) {
		r.cfg.NumWorkers = n
	}
}

// WithDefaultQueueCapacity sets the capacity used for edges connected
// without an explicit one.
var WithDefaultQueueCapacity = func(n int) Option {
	return func(r *Runtime) {
		r.cfg.DefaultQueueCapacity = n
	}
}

// WithSchedulingPolicy sets the scheduling policy.
var WithSchedulingPolicy = func(p SchedulingPolicy) Option {
	return func(r *Runtime) {
		r.cfg.SchedulingPolicy = p
	}
}

// WithMetrics enables the periodic metrics reporter.
var WithMetrics = func(interval time.Duration) Option {
	return func(r *Runtime) {
		r.cfg.EnableMetrics = true
		r.cfg.MetricsInterval = interval
	}
}

// WithShutdownTimeout bounds the drain phase of Stop.
var WithShutdownTimeout = func(d time.Duration) Option {
	return func(r *Runtime) {
		r.cfg.ShutdownTimeout = d
	}
}

// WithLog sets the logger for the runtime.
var WithLog = func(log *slog.Logger) Option {
	return func(r *Runtime) {
		r.log = log
	}
}

// NullWriter is a writer that discards all data.
type NullWriter struct{}

func (NullWriter) Write([]byte) (int, error) { return 0, nil }

// NullLogger creates a logger that discards all output.
func NullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(NullWriter{}, nil))
}
