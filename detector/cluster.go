package detector

import (
	"log"

	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-streak/agglomerate"
	"github.com/nvr-ai/go-streak/images"
	"github.com/nvr-ai/go-streak/strips"
)

// Reason explains why a cluster is not the frame's object.
type Reason int

const (
	// ReasonNone marks a live candidate, or the accepted object.
	ReasonNone Reason = iota
	// ReasonMergedAway marks a cluster folded into another one.
	ReasonMergedAway
	// ReasonTooFewStrips marks a cluster with fewer than MinStrips strips.
	ReasonTooFewStrips
	// ReasonNotAnObject marks a cluster that failed motion validation.
	ReasonNotAnObject
	// ReasonSkipped marks a candidate left untried because an earlier one was accepted.
	ReasonSkipped
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonMergedAway:
		return "merged-away"
	case ReasonTooFewStrips:
		return "too-few-strips"
	case ReasonNotAnObject:
		return "not-an-object"
	case ReasonSkipped:
		return "skipped"
	}
	return "unknown"
}

// Endpoint is an extreme strip of a cluster.
type Endpoint struct {
	Strip strips.Index
	X, Y  int16
}

// Cluster is one or more components believed to form a single streak.
type Cluster struct {
	// Left and Right are the leftmost and rightmost contributing strips.
	Left, Right Endpoint
	// Strips is the number of contributing strips.
	Strips int
	// MinHalfHeight and MaxHalfHeight bound the strip half-heights.
	MinHalfHeight, MaxHalfHeight int16
	// Length is the summed horizontal extent of the merged components.
	Length int
	// Newer and Older are the presence boxes in the newer and older diff:
	// X1/X2 span strip centres (X2 exclusive), Y1/Y2 span strip rows.
	// Both are empty until the cluster is validated.
	Newer, Older images.Rect
	// Reason is ReasonNone for the object and for unvalidated candidates.
	Reason Reason

	// first and last index the cluster's component list in clusterSet.next.
	first, last int
}

// Span returns the horizontal distance between the endpoints.
func (c *Cluster) Span() int {
	return int(c.Right.X) - int(c.Left.X)
}

// clusterSet holds one frame's strips, components and clusters. Everything is
// truncated, not freed, between frames.
type clusterSet struct {
	strips     []strips.Strip
	components []strips.Index
	// next links the components of a cluster; -1 ends the list.
	next     []int
	clusters []Cluster

	step           int
	maxGap         int
	maxHeightRatio float32
}

func (s *clusterSet) reset() {
	s.strips = s.strips[:0]
	s.components = s.components[:0]
	s.next = s.next[:0]
	s.clusters = s.clusters[:0]
}

// seed turns every component into a single-component cluster.
func (s *clusterSet) seed() {
	s.next = s.next[:0]
	s.clusters = s.clusters[:0]
	for ci, first := range s.components {
		head := s.strips[first]
		c := Cluster{
			Left:          Endpoint{Strip: first, X: head.X, Y: head.Y},
			MinHalfHeight: head.HalfHeight,
			MaxHalfHeight: head.HalfHeight,
			first:         ci,
			last:          ci,
		}
		strips.Walk(s.strips, first, func(i strips.Index, st strips.Strip) bool {
			c.Strips++
			c.MinHalfHeight = min(c.MinHalfHeight, st.HalfHeight)
			c.MaxHalfHeight = max(c.MaxHalfHeight, st.HalfHeight)
			c.Right = Endpoint{Strip: i, X: st.X, Y: st.Y}
			return true
		})
		c.Length = c.Span() + s.step
		s.clusters = append(s.clusters, c)
		s.next = append(s.next, -1)
	}
}

// walk visits every strip of cluster c.
func (s *clusterSet) walk(c *Cluster, fn func(i strips.Index, st strips.Strip)) {
	for ci := c.first; ci >= 0; ci = s.next[ci] {
		strips.Walk(s.strips, s.components[ci], func(i strips.Index, st strips.Strip) bool {
			fn(i, st)
			return true
		})
	}
}

// distance is the cost of joining clusters i and j into one streak: the
// squared gap between the right end of the left cluster and the left end of
// the right one. Pairs that overlap by more than a column, sit too far apart,
// differ too much in strip height or jump vertically more than the gap allows
// never merge.
func (s *clusterSet) distance(i, j int) float32 {
	a, b := &s.clusters[i], &s.clusters[j]
	if b.Left.X < a.Left.X {
		a, b = b, a
	}

	gap := int(b.Left.X) - int(a.Right.X)
	if gap < -s.step || gap > s.maxGap {
		return agglomerate.Infinite
	}

	lo := min(a.MinHalfHeight, b.MinHalfHeight)
	hi := max(a.MaxHalfHeight, b.MaxHalfHeight)
	if lo <= 0 || float32(hi) > s.maxHeightRatio*float32(lo) {
		return agglomerate.Infinite
	}

	gx := float32(max(gap, 0))
	dy := float32(int(b.Left.Y) - int(a.Right.Y))
	if math32.Abs(dy) > 2*float32(hi)+gx {
		return agglomerate.Infinite
	}
	return gx*gx + dy*dy
}

// merge folds cluster j into cluster i.
func (s *clusterSet) merge(i, j int) {
	a, b := &s.clusters[i], &s.clusters[j]
	if b.Left.X < a.Left.X {
		a.Left = b.Left
	}
	if b.Right.X > a.Right.X {
		a.Right = b.Right
	}
	a.Strips += b.Strips
	a.MinHalfHeight = min(a.MinHalfHeight, b.MinHalfHeight)
	a.MaxHalfHeight = max(a.MaxHalfHeight, b.MaxHalfHeight)
	a.Length += b.Length
	s.next[a.last] = b.first
	a.last = b.last
	b.Reason = ReasonMergedAway
}

// clusterer is a clustering strategy. It returns the ids of the surviving
// clusters, or nothing when the set exceeds the safety cap.
type clusterer interface {
	cluster(s *clusterSet) []int
	maxClusters() int
}

// newClusterer maps a variant to its strategy.
func newClusterer(v ClusterVariant, maxClusters int) clusterer {
	switch v {
	case ClusterComponents:
		return &componentClusterer{limit: maxClusters}
	default:
		return &agglomerativeClusterer{engine: agglomerate.New(maxClusters)}
	}
}

type agglomerativeClusterer struct {
	engine *agglomerate.Agglomerator
}

func (a *agglomerativeClusterer) cluster(s *clusterSet) []int {
	return a.engine.Run(len(s.clusters), s.distance, s.merge)
}

func (a *agglomerativeClusterer) maxClusters() int {
	return a.engine.MaxClusters()
}

type componentClusterer struct {
	limit int
	live  []int
}

func (c *componentClusterer) cluster(s *clusterSet) []int {
	c.live = c.live[:0]
	if len(s.clusters) > c.limit {
		return c.live
	}
	for i := range s.clusters {
		c.live = append(c.live, i)
	}
	return c.live
}

func (c *componentClusterer) maxClusters() int {
	return c.limit
}

// clusterize seeds clusters from the components and runs the strategy. When
// the component count exceeds the safety cap the whole frame's clusters are
// dropped.
func clusterize(s *clusterSet, strategy clusterer, logger *log.Logger) []int {
	s.seed()
	live := strategy.cluster(s)
	if len(live) == 0 && len(s.clusters) > 0 {
		logger.Printf("⚠️  %d clusters exceed the safety cap of %d, dropping frame", len(s.clusters), strategy.maxClusters())
		s.clusters = s.clusters[:0]
		s.next = s.next[:0]
	}
	return live
}
