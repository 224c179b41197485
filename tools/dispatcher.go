// Capability dispatcher with timeout, retry and reliability tracking.
//
// Information Hiding:
// - Retry strategy implementation hidden
// - Backoff algorithm hidden
// - Error classification logic hidden

package tools

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Config holds dispatch execution configuration.
// The zero value is safe: timeout defaults to 10s, retries to 2,
// base delay to 250ms.
type Config struct {
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
}

// timeout returns the configured per-attempt timeout.
func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 10 * time.Second
	}
	return c.Timeout
}

// retries returns the configured retry cap.
func (c Config) retries() int {
	if c.MaxRetries < 0 {
		return 0
	}
	if c.MaxRetries == 0 {
		return 2
	}
	return c.MaxRetries
}

// baseDelay returns the linear backoff unit.
func (c Config) baseDelay() time.Duration {
	if c.BaseDelay <= 0 {
		return 250 * time.Millisecond
	}
	return c.BaseDelay
}

// DefaultConfig returns the default dispatch configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:    10 * time.Second,
		MaxRetries: 2,
		BaseDelay:  250 * time.Millisecond,
	}
}

// Dispatcher validates and executes capability calls.
type Dispatcher struct {
	registry *Registry
	config   Config
	metrics  *MetricsTable
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher over registry.
// A nil logger disables logging.
func NewDispatcher(registry *Registry, config Config, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		registry: registry,
		config:   config,
		metrics:  NewMetricsTable(),
		logger:   logger,
	}
}

// Registry returns the underlying capability registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Metrics returns the reliability metrics table.
func (d *Dispatcher) Metrics() *MetricsTable {
	return d.metrics
}

// Execute runs one capability call.
//
// Unknown capabilities and validation failures are fatal and never reach
// the executor. Transient executor failures and per-attempt timeouts are
// retried with linear backoff (attempt x base delay) up to the retry cap.
// Every attempt, success or failure, updates the capability's reliability
// metric. On success the executor's result is returned merged with
// success and execution_time_ms bookkeeping fields.
func (d *Dispatcher) Execute(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	capability, ok := d.registry.Get(name)
	if !ok {
		return nil, &UnknownCapabilityError{Name: name}
	}

	if err := capability.Schema.Validate(name, args); err != nil {
		d.logger.Warn("capability arguments rejected",
			zap.String("capability", name),
			zap.Any("args", Sanitize(args)),
			zap.Error(err))
		return nil, err
	}

	maxRetries := d.config.retries()
	attempts := 0
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			// Linear backoff: attempt x base delay.
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("dispatch cancelled: %w", ctx.Err())
			case <-time.After(time.Duration(attempt) * d.config.baseDelay()):
			}
		}

		attempts++
		start := time.Now()
		attemptCtx, cancel := context.WithTimeout(ctx, d.config.timeout())
		result, err := capability.Execute(attemptCtx, args)
		cancel()
		elapsed := time.Since(start)

		d.metrics.Record(name, err == nil, elapsed, err)

		if err == nil {
			d.logger.Debug("capability executed",
				zap.String("capability", name),
				zap.Any("args", Sanitize(args)),
				zap.Duration("elapsed", elapsed),
				zap.Int("attempt", attempt+1))

			merged := make(map[string]any, len(result)+2)
			for k, v := range result {
				merged[k] = v
			}
			merged["success"] = true
			merged["execution_time_ms"] = elapsed.Milliseconds()
			return merged, nil
		}

		lastErr = err
		d.logger.Warn("capability attempt failed",
			zap.String("capability", name),
			zap.Any("args", Sanitize(args)),
			zap.Int("attempt", attempt+1),
			zap.Bool("timeout", isTimeout(err)),
			zap.Error(err))

		if !retryable(err) {
			break
		}
	}

	return nil, &ExecutionError{Capability: name, Attempts: attempts, Err: lastErr}
}
