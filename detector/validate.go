package detector

import (
	"slices"

	"github.com/nvr-ai/go-streak/images"
	"github.com/nvr-ai/go-streak/strips"
)

// presence returns the box of the cluster's strips whose centre lies on a
// foreground pixel of diff. X1/X2 span strip centres, Y1/Y2 strip rows.
func (s *clusterSet) presence(c *Cluster, diff images.Image) images.Rect {
	var box images.Rect
	s.walk(c, func(_ strips.Index, st strips.Strip) {
		px := min(int(st.X)/s.step, diff.Width-1)
		py := min(int(st.Y)/s.step, diff.Height-1)
		if diff.GrayAt(px, py) == images.MaskOff {
			return
		}
		box = box.Union(images.Rect{
			X1: int(st.X),
			Y1: st.Top(),
			X2: int(st.X) + 1,
			Y2: st.Bottom(),
		})
	})
	return box
}

// isObject decides whether a cluster with the given presence boxes is a
// single object travelling consistently in one direction.
//
// The diff whose leftmost strip is the cluster's leftmost strip is taken as
// the start of travel (diff1); the other must then reach the cluster's
// rightmost strip (diff2). Each end of the streak has to move by more than
// minMotion of the span between the two diffs.
func isObject(c *Cluster, newer, older images.Rect, minMotion float32) bool {
	if newer.Empty() || older.Empty() {
		return false
	}

	left, right := int(c.Left.X), int(c.Right.X)
	d1, d2 := newer, older
	if d1.X1 != left {
		d1, d2 = d2, d1
	}
	if d1.X1 != left || d2.X2-1 != right {
		return false
	}

	threshold := minMotion * float32(right-left)
	headMotion := float32(right - (d1.X2 - 1))
	tailMotion := float32(d2.X1 - left)
	return headMotion > threshold && tailMotion > threshold
}

// validate tries the candidate clusters longest first and returns the index
// of the first that passes, or -1. Candidates after the accepted one are
// marked skipped; failures are marked not-an-object.
func (s *clusterSet) validate(live []int, minStrips int, newer, older images.Image, minMotion float32, order []int) (int, []int) {
	order = order[:0]
	for _, i := range live {
		c := &s.clusters[i]
		if c.Strips < minStrips {
			c.Reason = ReasonTooFewStrips
			continue
		}
		order = append(order, i)
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return s.clusters[b].Length - s.clusters[a].Length
	})

	object := -1
	for _, i := range order {
		c := &s.clusters[i]
		if object >= 0 {
			c.Reason = ReasonSkipped
			continue
		}
		c.Newer = s.presence(c, newer)
		c.Older = s.presence(c, older)
		if isObject(c, c.Newer, c.Older, minMotion) {
			object = i
			continue
		}
		c.Reason = ReasonNotAnObject
	}
	return object, order
}
