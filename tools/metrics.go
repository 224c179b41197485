// Per-capability reliability tracking.
//
// Metrics are shared mutable state across concurrently executing calls
// from different turns; all updates go through one mutex.

package tools

import (
	"sync"
	"time"
)

// successRateAlpha is the weight of the newest observation in the
// exponential running average.
const successRateAlpha = 0.2

// ReliabilityMetric captures the rolling execution record of one capability.
// Never reset except at process restart.
type ReliabilityMetric struct {
	TotalExecutions    uint64
	SuccessRate        float64 // exponential running average
	AvgExecutionTimeMs float64
	LastSuccess        time.Time
	LastError          string
}

// ReliabilityScore derives a single ranking figure: high success weighted
// down by slow average execution, with the latency penalty capped at half.
func (m ReliabilityMetric) ReliabilityScore() float64 {
	penalty := m.AvgExecutionTimeMs / 10000
	if penalty > 0.5 {
		penalty = 0.5
	}
	return m.SuccessRate * (1 - penalty)
}

// MetricsTable holds reliability metrics for all capabilities.
type MetricsTable struct {
	mu      sync.Mutex
	metrics map[string]*ReliabilityMetric
}

// NewMetricsTable creates an empty metrics table.
func NewMetricsTable() *MetricsTable {
	return &MetricsTable{
		metrics: make(map[string]*ReliabilityMetric),
	}
}

// Record updates a capability's metric after one execution attempt.
func (t *MetricsTable) Record(name string, success bool, elapsed time.Duration, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, ok := t.metrics[name]
	if !ok {
		m = &ReliabilityMetric{}
		t.metrics[name] = m
	}

	observation := 0.0
	if success {
		observation = 1.0
	}
	if m.TotalExecutions == 0 {
		m.SuccessRate = observation
	} else {
		m.SuccessRate = successRateAlpha*observation + (1-successRateAlpha)*m.SuccessRate
	}

	elapsedMs := float64(elapsed.Milliseconds())
	total := float64(m.TotalExecutions)
	m.AvgExecutionTimeMs = (m.AvgExecutionTimeMs*total + elapsedMs) / (total + 1)
	m.TotalExecutions++

	if success {
		m.LastSuccess = time.Now()
	} else if err != nil {
		m.LastError = err.Error()
	}
}

// Metric returns a copy of the metric for a capability.
func (t *MetricsTable) Metric(name string) (ReliabilityMetric, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, ok := t.metrics[name]
	if !ok {
		return ReliabilityMetric{}, false
	}
	return *m, true
}

// Snapshot returns a copy of all metrics keyed by capability name.
func (t *MetricsTable) Snapshot() map[string]ReliabilityMetric {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]ReliabilityMetric, len(t.metrics))
	for name, m := range t.metrics {
		out[name] = *m
	}
	return out
}
