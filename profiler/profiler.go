// Package profiler - Per-stage timing and metric statistics for the frame pipeline.
//
// The detector never throttles itself; it reports how long each stage took so
// a calling layer can decide to skip frames or lower the input rate.
package profiler

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// Profiler collects operation timings and custom metrics over a bounded
// number of recent samples.
//
// Recording is cheap and synchronous. The mutex only exists so a reporting
// goroutine can read while the pipeline keeps recording.
type Profiler struct {
	mu         sync.RWMutex
	maxSamples int
	startTime  time.Time

	metrics    map[string]*MetricTracker
	operations map[string]*TimeTracker
}

// MetricTracker tracks statistics for a custom metric.
type MetricTracker struct {
	values []float64
	sum    float64
	min    float64
	max    float64
	count  int64
}

// TimeTracker tracks operation timing statistics.
type TimeTracker struct {
	durations []time.Duration
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
}

// ProfilingOptions configures the profiler.
type ProfilingOptions struct {
	// MaxSamples specifies maximum number of samples kept per series (default: 600)
	MaxSamples int
}

// Summary is a snapshot of one series.
type Summary struct {
	Count   int64
	Samples int
	Avg     float64
	Min     float64
	Max     float64
}

// TimingSummary is a snapshot of one operation.
type TimingSummary struct {
	Count   int64
	Samples int
	Avg     time.Duration
	Min     time.Duration
	Max     time.Duration
}

// New creates a profiler with the specified options.
func New(opts ProfilingOptions) *Profiler {
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 600
	}
	return &Profiler{
		maxSamples: opts.MaxSamples,
		startTime:  time.Now(),
		metrics:    make(map[string]*MetricTracker),
		operations: make(map[string]*TimeTracker),
	}
}

// RecordMetric records a custom metric value.
//
// Arguments:
// - name: The name of the metric
// - value: The metric value to record
func (p *Profiler) RecordMetric(name string, value float64) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, exists := p.metrics[name]
	if !exists {
		tracker = &MetricTracker{
			values: make([]float64, 0, p.maxSamples),
			min:    value,
			max:    value,
		}
		p.metrics[name] = tracker
	}

	tracker.values = append(tracker.values, value)
	if len(tracker.values) > p.maxSamples {
		// Remove oldest sample
		tracker.sum -= tracker.values[0]
		tracker.values = tracker.values[1:]
	}
	tracker.sum += value
	tracker.count++
	tracker.min = min(tracker.min, value)
	tracker.max = max(tracker.max, value)
}

// StartOperation begins timing an operation. A nil profiler returns a no-op.
//
// Returns:
// - A function to call when the operation completes
func (p *Profiler) StartOperation(name string) func() {
	if p == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		p.RecordDuration(name, time.Since(start))
	}
}

// RecordDuration records the completion time of an operation.
func (p *Profiler) RecordDuration(name string, duration time.Duration) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, exists := p.operations[name]
	if !exists {
		tracker = &TimeTracker{
			minTime: duration,
			maxTime: duration,
		}
		p.operations[name] = tracker
	}

	tracker.durations = append(tracker.durations, duration)
	if len(tracker.durations) > p.maxSamples {
		tracker.totalTime -= tracker.durations[0]
		tracker.durations = tracker.durations[1:]
	}
	tracker.totalTime += duration
	tracker.count++
	tracker.minTime = min(tracker.minTime, duration)
	tracker.maxTime = max(tracker.maxTime, duration)
}

// Metric returns the summary of a custom metric. A nil profiler has none.
func (p *Profiler) Metric(name string) (Summary, bool) {
	if p == nil {
		return Summary{}, false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	tracker, ok := p.metrics[name]
	if !ok || len(tracker.values) == 0 {
		return Summary{}, false
	}
	return Summary{
		Count:   tracker.count,
		Samples: len(tracker.values),
		Avg:     tracker.sum / float64(len(tracker.values)),
		Min:     tracker.min,
		Max:     tracker.max,
	}, true
}

// Operation returns the timing summary of an operation.
func (p *Profiler) Operation(name string) (TimingSummary, bool) {
	if p == nil {
		return TimingSummary{}, false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	tracker, ok := p.operations[name]
	if !ok || len(tracker.durations) == 0 {
		return TimingSummary{}, false
	}
	return TimingSummary{
		Count:   tracker.count,
		Samples: len(tracker.durations),
		Avg:     tracker.totalTime / time.Duration(len(tracker.durations)),
		Min:     tracker.minTime,
		Max:     tracker.maxTime,
	}, true
}

// Report writes a human readable status report. A nil profiler writes nothing.
func (p *Profiler) Report(w io.Writer) {
	if p == nil {
		return
	}
	p.mu.RLock()
	metricNames := sortedKeys(p.metrics)
	operationNames := sortedKeys(p.operations)
	uptime := time.Since(p.startTime)
	p.mu.RUnlock()

	fmt.Fprintf(w, "PIPELINE STATUS REPORT - %s\n", time.Now().Format("15:04:05.000"))
	fmt.Fprintf(w, "Uptime: %v\n", uptime.Truncate(time.Millisecond))

	if len(operationNames) > 0 {
		fmt.Fprintf(w, "\nSTAGE TIMINGS:\n")
		for _, name := range operationNames {
			s, _ := p.Operation(name)
			fmt.Fprintf(w, "  %s: avg=%v, min=%v, max=%v, count=%d\n",
				name, s.Avg.Truncate(time.Microsecond), s.Min.Truncate(time.Microsecond),
				s.Max.Truncate(time.Microsecond), s.Count)
		}
	}

	if len(metricNames) > 0 {
		fmt.Fprintf(w, "\nMETRICS:\n")
		for _, name := range metricNames {
			s, _ := p.Metric(name)
			fmt.Fprintf(w, "  %s: avg=%.2f, min=%.2f, max=%.2f, samples=%d\n",
				name, s.Avg, s.Min, s.Max, s.Samples)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
