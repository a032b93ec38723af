// Package telemetry exposes prometheus metrics and cost tracking for
// research runs. The /metrics endpoint is served by the HTTP server.
package telemetry

import (
	"log"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors updated over a research run.
type Metrics struct {
	RequestsTotal  *prometheus.CounterVec
	RetriesTotal   prometheus.Counter
	CreditsUsed    prometheus.Gauge
	LearningsTotal prometheus.Counter
	RunsTotal      *prometheus.CounterVec
	RunDuration    prometheus.Histogram
}

// NewMetrics registers the run collectors with reg. Pass
// prometheus.DefaultRegisterer to serve them from the default
// /metrics handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reportd_requests_total",
			Help: "External service requests by operation kind.",
		}, []string{"op"}),
		RetriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "reportd_retries_total",
			Help: "Transient failures retried with backoff.",
		}),
		CreditsUsed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "reportd_credits_used",
			Help: "Credits consumed by the current research run.",
		}),
		LearningsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "reportd_learnings_total",
			Help: "Learnings accumulated across runs.",
		}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reportd_runs_total",
			Help: "Completed research runs by outcome.",
		}, []string{"status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "reportd_run_duration_seconds",
			Help:    "Wall time of research runs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}

// CostTracker accumulates per-operation credit spend for reporting.
type CostTracker struct {
	mu     sync.Mutex
	byOp   map[string]int
	total  int
	logger *log.Logger
}

func NewCostTracker() *CostTracker {
	return &CostTracker{
		byOp:   make(map[string]int),
		logger: log.New(log.Writer(), "[COST] ", log.LstdFlags),
	}
}

// Add records credits spent on one operation kind.
func (c *CostTracker) Add(op string, credits int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byOp[op] += credits
	c.total += credits
}

// Total returns the credits spent across all operations.
func (c *CostTracker) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Breakdown returns a copy of the per-operation spend.
func (c *CostTracker) Breakdown() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.byOp))
	for k, v := range c.byOp {
		out[k] = v
	}
	return out
}

// Log writes the current spend to the component log.
func (c *CostTracker) Log() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger.Printf("credits spent: total=%d breakdown=%v", c.total, c.byOp)
}
