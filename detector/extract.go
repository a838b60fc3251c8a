package detector

import (
	"image"
	"slices"

	"github.com/nvr-ai/go-streak/images"
	"github.com/nvr-ai/go-streak/strips"
)

// pixelExtent widens a presence box, whose X range spans strip centres, to
// the source pixels those strips cover.
func pixelExtent(r images.Rect, step int) images.Rect {
	if r.Empty() {
		return r
	}
	return images.Rect{
		X1: r.X1 - step/2,
		Y1: r.Y1,
		X2: r.X2 - 1 - step/2 + step,
		Y2: r.Y2,
	}
}

// objectBounds is the union of both presence boxes in source pixels, clipped to frame.
func objectBounds(c *Cluster, step int, frame images.Rect) images.Rect {
	return pixelExtent(c.Newer, step).Union(pixelExtent(c.Older, step)).Intersect(frame)
}

// processingPixels emits the pixels of every strip whose centre lies inside
// both diffs' horizontal ranges, straight from the strip geometry.
func (s *clusterSet) processingPixels(c *Cluster, frame images.Rect, dst []image.Point) []image.Point {
	lo := max(c.Newer.X1, c.Older.X1)
	hi := min(c.Newer.X2, c.Older.X2)
	s.walk(c, func(_ strips.Index, st strips.Strip) {
		x := int(st.X)
		if x < lo || x >= hi {
			return
		}
		r := images.Rect{X1: st.Left(s.step), Y1: st.Top(), X2: st.Left(s.step) + s.step, Y2: st.Bottom()}
		r = r.Intersect(frame)
		for py := r.Y1; py < r.Y2; py++ {
			for px := r.X1; px < r.X2; px++ {
				dst = append(dst, image.Pt(px, py))
			}
		}
	})
	sortPoints(dst)
	return dst
}

// sourcePixels re-differences the three newest source frames inside box and
// keeps the pixels that changed in both diffs.
func sourcePixels(frames *[3]images.Image, box images.Rect, threshold int, dst []image.Point) []image.Point {
	f0, f1, f2 := frames[0], frames[1], frames[2]
	for y := box.Y1; y < box.Y2; y++ {
		for x := box.X1; x < box.X2; x++ {
			if images.DiffAt(f0, f1, x, y, threshold) && images.DiffAt(f1, f2, x, y, threshold) {
				dst = append(dst, image.Pt(x, y))
			}
		}
	}
	return dst
}

// sortPoints orders points by row, then column.
func sortPoints(pts []image.Point) {
	slices.SortFunc(pts, func(a, b image.Point) int {
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		return a.X - b.X
	})
}
