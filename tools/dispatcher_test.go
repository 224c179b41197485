package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{Timeout: 50 * time.Millisecond, MaxRetries: 2, BaseDelay: time.Millisecond}
}

func registryWith(t *testing.T, c Capability) *Registry {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, reg.Register(c))
	return reg
}

func TestDispatcherUnknownCapability(t *testing.T) {
	d := NewDispatcher(NewRegistry(), fastConfig(), nil)
	_, err := d.Execute(context.Background(), "teleport", nil)

	var uerr *UnknownCapabilityError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "teleport", uerr.Name)
}

func TestDispatcherSuccessMergesBookkeeping(t *testing.T) {
	reg := registryWith(t, Capability{
		Name: "echo",
		Execute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return map[string]any{"value": args["value"]}, nil
		},
	})

	d := NewDispatcher(reg, fastConfig(), nil)
	result, err := d.Execute(context.Background(), "echo", map[string]any{"value": "hi"})
	require.NoError(t, err)

	assert.Equal(t, "hi", result["value"])
	assert.Equal(t, true, result["success"])
	assert.Contains(t, result, "execution_time_ms")
}

// An executor that always fails transiently is invoked exactly
// 1 + MaxRetries times, then reported as an execution failure.
func TestDispatcherRetryCeiling(t *testing.T) {
	invocations := 0
	reg := registryWith(t, Capability{
		Name: "flaky",
		Execute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			invocations++
			return nil, errors.New("upstream unavailable")
		},
	})

	cfg := fastConfig()
	d := NewDispatcher(reg, cfg, nil)
	_, err := d.Execute(context.Background(), "flaky", nil)

	var eerr *ExecutionError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, 1+cfg.MaxRetries, invocations)
	assert.Equal(t, 1+cfg.MaxRetries, eerr.Attempts)
}

func TestDispatcherTimeoutIsRetried(t *testing.T) {
	invocations := 0
	reg := registryWith(t, Capability{
		Name: "slow",
		Execute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			invocations++
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})

	cfg := fastConfig()
	d := NewDispatcher(reg, cfg, nil)
	_, err := d.Execute(context.Background(), "slow", nil)

	var eerr *ExecutionError
	require.ErrorAs(t, err, &eerr)
	assert.True(t, isTimeout(eerr.Err))
	assert.Equal(t, 1+cfg.MaxRetries, invocations)
}

func TestDispatcherFatalErrorNotRetried(t *testing.T) {
	invocations := 0
	reg := registryWith(t, Capability{
		Name: "broken",
		Execute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			invocations++
			return nil, Fatal(errors.New("record gone"))
		},
	})

	d := NewDispatcher(reg, fastConfig(), nil)
	_, err := d.Execute(context.Background(), "broken", nil)

	var eerr *ExecutionError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, 1, invocations)
}

func TestDispatcherRecordsMetrics(t *testing.T) {
	fail := true
	reg := registryWith(t, Capability{
		Name: "wobbly",
		Execute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			if fail {
				fail = false
				return nil, errors.New("first attempt fails")
			}
			return map[string]any{}, nil
		},
	})

	d := NewDispatcher(reg, fastConfig(), nil)
	_, err := d.Execute(context.Background(), "wobbly", nil)
	require.NoError(t, err)

	metric, ok := d.Metrics().Metric("wobbly")
	require.True(t, ok)
	assert.Equal(t, uint64(2), metric.TotalExecutions)
	assert.Greater(t, metric.SuccessRate, 0.0)
	assert.Less(t, metric.SuccessRate, 1.0)
	assert.NotEmpty(t, metric.LastError)
}

func TestDispatcherCancelledContext(t *testing.T) {
	reg := registryWith(t, Capability{
		Name: "flaky",
		Execute: func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return nil, errors.New("transient")
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := fastConfig()
	cfg.BaseDelay = 10 * time.Millisecond
	d := NewDispatcher(reg, cfg, nil)
	_, err := d.Execute(ctx, "flaky", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
