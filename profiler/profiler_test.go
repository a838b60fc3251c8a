package profiler

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfiler_RecordMetricWindow(t *testing.T) {
	p := New(ProfilingOptions{MaxSamples: 3})
	for _, v := range []float64{1, 2, 3, 10} {
		p.RecordMetric("strips", v)
	}

	s, ok := p.Metric("strips")
	require.True(t, ok)
	assert.Equal(t, int64(4), s.Count)
	assert.Equal(t, 3, s.Samples)
	assert.Equal(t, 5.0, s.Avg)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 10.0, s.Max)
}

func TestProfiler_RecordDuration(t *testing.T) {
	p := New(ProfilingOptions{})
	p.RecordDuration("diff", 2*time.Millisecond)
	p.RecordDuration("diff", 4*time.Millisecond)

	s, ok := p.Operation("diff")
	require.True(t, ok)
	assert.Equal(t, 3*time.Millisecond, s.Avg)
	assert.Equal(t, 2*time.Millisecond, s.Min)
	assert.Equal(t, 4*time.Millisecond, s.Max)

	_, ok = p.Operation("missing")
	assert.False(t, ok)
}

func TestProfiler_StartOperation(t *testing.T) {
	p := New(ProfilingOptions{})
	done := p.StartOperation("strips")
	done()

	s, ok := p.Operation("strips")
	require.True(t, ok)
	assert.Equal(t, int64(1), s.Count)
}

func TestProfiler_NilIsNoop(t *testing.T) {
	var p *Profiler
	assert.NotPanics(t, func() {
		p.StartOperation("x")()
		p.RecordMetric("x", 1)
		p.RecordDuration("x", time.Second)
	})

	var buf bytes.Buffer
	assert.NotPanics(t, func() {
		_, ok := p.Metric("x")
		assert.False(t, ok)
		_, ok = p.Operation("x")
		assert.False(t, ok)
		p.Report(&buf)
	})
	assert.Zero(t, buf.Len())
}

func TestProfiler_Report(t *testing.T) {
	p := New(ProfilingOptions{})
	p.RecordDuration("pyramid", time.Millisecond)
	p.RecordMetric("noise", 4)

	var buf bytes.Buffer
	p.Report(&buf)
	assert.Contains(t, buf.String(), "STAGE TIMINGS")
	assert.Contains(t, buf.String(), "pyramid: avg=1ms")
	assert.Contains(t, buf.String(), "noise: avg=4.00")
}
