// Package agglomerate - A greedy pairwise clustering engine with pluggable
// distance and merge functions.
//
// The engine knows nothing about what a cluster is. Callers number their
// clusters 0..n-1 and supply:
//
//   - a Distance returning the cost of merging two live clusters, or Infinite
//     when they must never merge;
//   - a Merge folding the second cluster's data into the first.
//
// Each round merges the globally cheapest pair and then recomputes the
// surviving cluster's distances to every other live cluster from scratch. The
// merged cluster is treated as a new object, so no linkage shortcut (single,
// complete or average) is applied to cached distances.
//
// Complexity is O(n^3) time and O(n^2) space; MaxClusters bounds n.
package agglomerate

import "github.com/chewxy/math32"

// Infinite forbids merging a pair.
var Infinite = math32.Inf(1)

const (
	// DefaultMaxClusters is the safety cap used when none is given.
	DefaultMaxClusters = 512
	// MaxClustersLimit is the largest accepted safety cap. The distance matrix
	// at this size is 64 MiB.
	MaxClustersLimit = 4096
)

// Distance returns the cost of merging clusters i and j, with i < j.
type Distance func(i, j int) float32

// Merge folds cluster j into cluster i, with i < j. Cluster j is dead afterwards.
type Merge func(i, j int)

// Agglomerator owns the reusable distance matrix and live list.
type Agglomerator struct {
	maxClusters int
	dist        []float32
	live        []int
}

// New creates an Agglomerator that refuses inputs larger than maxClusters.
// A non-positive maxClusters selects DefaultMaxClusters; larger values are
// clamped to MaxClustersLimit.
func New(maxClusters int) *Agglomerator {
	if maxClusters <= 0 {
		maxClusters = DefaultMaxClusters
	}
	maxClusters = min(maxClusters, MaxClustersLimit)
	return &Agglomerator{maxClusters: maxClusters}
}

// MaxClusters returns the safety cap.
func (a *Agglomerator) MaxClusters() int {
	return a.maxClusters
}

// Run clusters n items and returns the ids of the surviving clusters in
// ascending order.
//
// When n exceeds the safety cap nothing is processed and Run returns an empty
// result; callers drop the whole set rather than clustering part of it.
//
// Arguments:
//   - n: Number of initial clusters, numbered 0..n-1.
//   - dist: Pair cost function, called only with i < j.
//   - merge: Called with i < j for each accepted pair.
//
// Returns:
//   - []int: Surviving cluster ids. The slice is owned by the Agglomerator
//     and valid until the next call.
func (a *Agglomerator) Run(n int, dist Distance, merge Merge) []int {
	a.live = a.live[:0]
	if n <= 0 || n > a.maxClusters {
		return a.live
	}

	if cap(a.dist) < n*n {
		a.dist = make([]float32, n*n)
	}
	a.dist = a.dist[:n*n]

	for i := 0; i < n; i++ {
		a.live = append(a.live, i)
		for j := i + 1; j < n; j++ {
			a.dist[i*n+j] = dist(i, j)
		}
	}

	for {
		bi, bj := -1, -1
		best := Infinite
		for x := 0; x < len(a.live); x++ {
			i := a.live[x]
			for y := x + 1; y < len(a.live); y++ {
				j := a.live[y]
				if d := a.dist[i*n+j]; d < best {
					best, bi, bj = d, x, y
				}
			}
		}
		if bi < 0 {
			return a.live
		}

		i, j := a.live[bi], a.live[bj]
		merge(i, j)
		a.live = append(a.live[:bj], a.live[bj+1:]...)

		for _, k := range a.live {
			switch {
			case k < i:
				a.dist[k*n+i] = dist(k, i)
			case k > i:
				a.dist[i*n+k] = dist(i, k)
			}
		}
	}
}
