// Package metrics provides in-memory runtime statistics and Prometheus counters
// for client-side job handling.
package metrics

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OperationMetrics holds aggregated timings for a single operation type.
type OperationMetrics struct {
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64
	TotalTimeMs int64
	AvgTimeMs   float64
	MinTimeMs   int64
	MaxTimeMs   int64
}

// Snapshot represents the client statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64
	Submit        *OperationSnapshot
	Poll          *OperationSnapshot
	Delete        *OperationSnapshot
	Download      *OperationSnapshot
}

// Operation names for the collector.
const (
	OpSubmit   = "submit"
	OpPoll     = "poll"
	OpDelete   = "delete"
	OpDownload = "download"
)

// Outcome label values.
const (
	OutcomeImmediate  = "immediate"
	OutcomeDeferred   = "deferred"
	OutcomeDone       = "done"
	OutcomeFailed     = "failed"
	OutcomeSuperseded = "superseded"
	OutcomeSuccess    = "success"
	OutcomeDeclined   = "declined"
	OutcomeError      = "error"
)

// Collector aggregates in-memory timings and exports outcome counters.
// All methods are thread-safe and safe to call on a nil *Collector.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics

	registry    *prometheus.Registry
	submissions *prometheus.CounterVec
	polls       *prometheus.CounterVec
	jobs        *prometheus.CounterVec
	cleanups    *prometheus.CounterVec
	durations   *prometheus.HistogramVec
}

// NewCollector creates a new metrics collector with its own Prometheus registry.
func NewCollector() *Collector {
	c := &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
		registry:  prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "anonyfiles",
			Name:      "submissions_total",
			Help:      "Submissions by operation and response shape.",
		}, []string{"operation", "outcome"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "anonyfiles",
			Name:      "polls_total",
			Help:      "Status polls by operation and reported status.",
		}, []string{"operation", "status"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "anonyfiles",
			Name:      "jobs_total",
			Help:      "Finished operations by final outcome.",
		}, []string{"operation", "outcome"}),
		cleanups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "anonyfiles",
			Name:      "cleanups_total",
			Help:      "Job deletions by outcome.",
		}, []string{"outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "anonyfiles",
			Name:      "request_duration_seconds",
			Help:      "Latency of service calls by operation.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
	}
	c.registry.MustRegister(c.submissions, c.polls, c.jobs, c.cleanups, c.durations)
	return c
}

// Gatherer exposes the collector's registry. A nil collector gathers nothing.
func (c *Collector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return prometheus.NewRegistry()
	}
	return c.registry
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}
	return m
}

// RecordTiming records timing for an operation.
func (c *Collector) RecordTiming(op string, duration time.Duration) {
	if c == nil {
		return
	}
	c.durations.WithLabelValues(op).Observe(duration.Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// RecordSubmission counts a submit call by operation and outcome.
func (c *Collector) RecordSubmission(operation, outcome string) {
	if c == nil {
		return
	}
	c.submissions.WithLabelValues(operation, outcome).Inc()
}

// RecordPoll counts a status poll by the status it reported.
func (c *Collector) RecordPoll(operation, status string) {
	if c == nil {
		return
	}
	c.polls.WithLabelValues(operation, status).Inc()
}

// RecordJob counts the final outcome of an operation.
func (c *Collector) RecordJob(operation, outcome string) {
	if c == nil {
		return
	}
	c.jobs.WithLabelValues(operation, outcome).Inc()
}

// RecordCleanup counts a job deletion attempt.
func (c *Collector) RecordCleanup(outcome string) {
	if c == nil {
		return
	}
	c.cleanups.WithLabelValues(outcome).Inc()
}

// snapshotOp creates a snapshot for an operation, returning nil if no data.
func snapshotOp(m *OperationMetrics) *OperationSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}

	return &OperationSnapshot{
		Count:       m.Count,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}
}

// Snapshot returns a point-in-time snapshot of all timings.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Submit:        snapshotOp(c.ops[OpSubmit]),
		Poll:          snapshotOp(c.ops[OpPoll]),
		Delete:        snapshotOp(c.ops[OpDelete]),
		Download:      snapshotOp(c.ops[OpDownload]),
	}
}

// LogValue renders the operations that saw traffic as one slog group.
func (s Snapshot) LogValue() slog.Value {
	attrs := []slog.Attr{slog.Float64("uptime_s", s.UptimeSeconds)}
	for _, op := range []struct {
		name string
		snap *OperationSnapshot
	}{
		{OpSubmit, s.Submit},
		{OpPoll, s.Poll},
		{OpDelete, s.Delete},
		{OpDownload, s.Download},
	} {
		if op.snap == nil {
			continue
		}
		attrs = append(attrs, slog.Group(op.name,
			"count", op.snap.Count,
			"avg_ms", op.snap.AvgTimeMs,
			"max_ms", op.snap.MaxTimeMs,
		))
	}
	return slog.GroupValue(attrs...)
}

// WriteTextfile writes the counters and latency histogram in the Prometheus text format, for
// pickup by the node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
