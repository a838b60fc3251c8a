package agglomerate

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spans is a minimal 1-D cluster set: each cluster covers [lo, hi].
type spans struct {
	lo, hi  []float32
	maxSpan float32
	maxGap  float32
	merged  []bool
	calls   int
}

func newSpans(points []float32, maxGap, maxSpan float32) *spans {
	s := &spans{maxGap: maxGap, maxSpan: maxSpan, merged: make([]bool, len(points))}
	for _, p := range points {
		s.lo = append(s.lo, p)
		s.hi = append(s.hi, p)
	}
	return s
}

func (s *spans) dist(i, j int) float32 {
	s.calls++
	lo, hi := min(s.lo[i], s.lo[j]), max(s.hi[i], s.hi[j])
	if hi-lo > s.maxSpan {
		return Infinite
	}
	gap := max(s.lo[i], s.lo[j]) - min(s.hi[i], s.hi[j])
	if gap > s.maxGap {
		return Infinite
	}
	return gap
}

func (s *spans) merge(i, j int) {
	s.lo[i] = min(s.lo[i], s.lo[j])
	s.hi[i] = max(s.hi[i], s.hi[j])
	s.merged[j] = true
}

func TestRun_MergesNearby(t *testing.T) {
	s := newSpans([]float32{0, 1, 2, 10, 11, 30}, 2, 100)
	got := New(0).Run(6, s.dist, s.merge)

	assert.Equal(t, []int{0, 3, 5}, got)
	assert.Equal(t, float32(0), s.lo[0])
	assert.Equal(t, float32(2), s.hi[0])
	assert.Equal(t, float32(11), s.hi[3])
}

func TestRun_RecomputesMergedDistances(t *testing.T) {
	// Single linkage would chain all three points; the merged span forbids it.
	s := newSpans([]float32{0, 2, 4}, 5, 3)
	got := New(0).Run(3, s.dist, s.merge)

	assert.Equal(t, []int{0, 2}, got)
	assert.True(t, s.merged[1])
	assert.Equal(t, Infinite, s.dist(0, 2))
}

func TestRun_TieBreaksInScanOrder(t *testing.T) {
	s := newSpans([]float32{0, 1, 2}, 1, 1)
	got := New(0).Run(3, s.dist, s.merge)

	assert.Equal(t, []int{0, 2}, got, "pair (0,1) is found before (1,2)")
}

func TestRun_TerminationInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	points := make([]float32, 120)
	for i := range points {
		points[i] = float32(rng.Intn(1000))
	}
	s := newSpans(points, 8, 40)
	got := New(0).Run(len(points), s.dist, s.merge)

	require.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), len(points))
	for x := 0; x < len(got); x++ {
		for y := x + 1; y < len(got); y++ {
			assert.Equal(t, Infinite, s.dist(got[x], got[y]),
				"survivors %d and %d could still merge", got[x], got[y])
		}
	}
}

func TestRun_SafetyCap(t *testing.T) {
	s := newSpans([]float32{0, 1, 2, 3, 4}, 10, 100)
	a := New(4)
	got := a.Run(5, s.dist, s.merge)

	assert.Empty(t, got)
	assert.Zero(t, s.calls)
	assert.Equal(t, 4, a.MaxClusters())
}

func TestNew_ClampsCap(t *testing.T) {
	assert.Equal(t, DefaultMaxClusters, New(0).MaxClusters())
	assert.Equal(t, DefaultMaxClusters, New(-3).MaxClusters())
	assert.Equal(t, MaxClustersLimit, New(MaxClustersLimit).MaxClusters())
	assert.Equal(t, MaxClustersLimit, New(1<<15).MaxClusters())

	// An oversized input is refused before the distance matrix is sized.
	a := New(1 << 15)
	never := func(i, j int) float32 { t.Fatalf("dist(%d, %d) called", i, j); return 0 }
	assert.Empty(t, a.Run(MaxClustersLimit+1, never, func(i, j int) {}))
	assert.Zero(t, cap(a.dist))
}

func TestRun_SmallInputs(t *testing.T) {
	a := New(8)
	never := func(i, j int) float32 { t.Fatalf("dist(%d, %d) called", i, j); return 0 }
	noMerge := func(i, j int) { t.Fatalf("merge(%d, %d) called", i, j) }

	assert.Empty(t, a.Run(0, never, noMerge))
	assert.Equal(t, []int{0}, a.Run(1, never, noMerge))
}

func TestRun_ReusesBuffers(t *testing.T) {
	a := New(0)
	first := newSpans([]float32{0, 1, 50}, 2, 10)
	assert.Equal(t, []int{0, 2}, a.Run(3, first.dist, first.merge))

	second := newSpans([]float32{0, 100}, 2, 10)
	assert.Equal(t, []int{0, 1}, a.Run(2, second.dist, second.merge))
}
