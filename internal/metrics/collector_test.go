package metrics

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTiming(t *testing.T) {
	c := NewCollector()

	c.RecordTiming(OpPoll, 10*time.Millisecond)
	c.RecordTiming(OpPoll, 30*time.Millisecond)

	snap := c.Snapshot()
	require.NotNil(t, snap.Poll)
	assert.Equal(t, int64(2), snap.Poll.Count)
	assert.Equal(t, int64(40), snap.Poll.TotalTimeMs)
	assert.Equal(t, float64(20), snap.Poll.AvgTimeMs)
	assert.Equal(t, int64(10), snap.Poll.MinTimeMs)
	assert.Equal(t, int64(30), snap.Poll.MaxTimeMs)
	assert.Nil(t, snap.Submit)
	assert.Nil(t, snap.Delete)
}

func TestCounters(t *testing.T) {
	c := NewCollector()

	c.RecordSubmission("anonymize", OutcomeDeferred)
	c.RecordPoll("anonymize", "pending")
	c.RecordPoll("anonymize", "pending")
	c.RecordPoll("anonymize", "finished")
	c.RecordJob("anonymize", OutcomeDone)
	c.RecordCleanup(OutcomeSuccess)

	assert.Equal(t, float64(1), testutil.ToFloat64(c.submissions.WithLabelValues("anonymize", OutcomeDeferred)))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.polls.WithLabelValues("anonymize", "pending")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.polls.WithLabelValues("anonymize", "finished")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.jobs.WithLabelValues("anonymize", OutcomeDone)))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.cleanups.WithLabelValues(OutcomeSuccess)))
}

func TestNilCollector(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.RecordTiming(OpSubmit, time.Second)
		c.RecordSubmission("anonymize", OutcomeImmediate)
		c.RecordPoll("anonymize", "pending")
		c.RecordJob("anonymize", OutcomeFailed)
		c.RecordCleanup(OutcomeError)
	})
	assert.NoError(t, c.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))

	var snap Snapshot
	require.NotPanics(t, func() { snap = c.Snapshot() })
	assert.Nil(t, snap.Submit)

	require.NotPanics(t, func() {
		families, err := c.Gatherer().Gather()
		assert.NoError(t, err)
		assert.Empty(t, families)
	})
}

func TestTimingsExported(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpSubmit, 300*time.Millisecond)
	c.RecordTiming(OpPoll, 20*time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(c.durations))

	path := filepath.Join(t.TempDir(), "anonyfiles.prom")
	require.NoError(t, c.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `anonyfiles_request_duration_seconds_count{operation="submit"} 1`)
}

func TestSnapshotLogValue(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpDelete, 40*time.Millisecond)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger.Debug("session timings", "timings", c.Snapshot())

	out := buf.String()
	assert.Contains(t, out, "timings.delete.count=1")
	assert.Contains(t, out, "timings.delete.max_ms=40")
	assert.NotContains(t, out, "timings.submit")
}

func TestWriteTextfile(t *testing.T) {
	c := NewCollector()
	c.RecordJob("deanonymize", OutcomeSuperseded)

	path := filepath.Join(t.TempDir(), "anonyfiles.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `anonyfiles_jobs_total{operation="deanonymize",outcome="superseded"} 1`))
}
