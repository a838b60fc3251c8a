package strips

import (
	"math"

	"github.com/nvr-ai/go-streak/images"
	"github.com/pkg/errors"
)

// edgeGap stands in for the unbounded background beyond the top and bottom edges.
const edgeGap = int(^uint32(0) >> 1)

// runLength scans each column top to bottom and classifies runs as
// background or foreground. White runs shorter than MinHeight are folded back
// into the surrounding background and counted as noise.
type runLength struct {
	params     Params
	requireGap bool
}

func (g *runLength) Kind() Kind {
	if g.requireGap {
		return KindSandwiched
	}
	return KindLoose
}

func (g *runLength) Generate(mask images.Image, step int, dst []Strip) ([]Strip, int, error) {
	out := dst[:0]
	if mask.Format != images.FormatGray {
		return out, 0, errors.Wrapf(images.ErrUnsupportedFormat, "strip generation needs a gray mask, got %v", mask.Format)
	}
	if err := mask.Validate(); err != nil {
		return out, 0, err
	}
	if step < 1 {
		return out, 0, errors.Errorf("strips: step must be >= 1, got %d", step)
	}
	if mask.Width*step+step/2 > math.MaxInt16 || mask.Height*step > math.MaxInt16 {
		return out, 0, errors.Wrapf(ErrCoordinateRange, "%dx%d mask at step %d", mask.Width, mask.Height, step)
	}

	minGap := 0
	if g.requireGap {
		minGap = MinGapPixels(g.params.MinGap, mask.Height)
	}
	minHeight := g.params.MinHeight

	w, h := mask.Width, mask.Height
	noise := 0
	var err error

	for x := 0; x < w; x++ {
		// above is the background run preceding the pending white run (or the
		// next white run when nothing is pending); below is the background
		// accumulated after the pending run.
		above := edgeGap
		pending := false
		start, length, below := 0, 0, 0

		for y := 0; y < h; {
			on := mask.Data[y*w+x] != 0
			n := 1
			for y+n < h && (mask.Data[(y+n)*w+x] != 0) == on {
				n++
			}

			if on && n < minHeight {
				noise++
				on = false
			}

			switch {
			case !on && pending:
				below += n
			case !on:
				// Leading background: above is still the edge gap.
			default:
				if pending {
					if above >= minGap && below >= minGap {
						if out, err = appendStrip(out, x, start, length, step); err != nil {
							return out, noise, err
						}
					}
					above = below
				}
				pending, start, length, below = true, y, n, 0
			}
			y += n
		}

		if pending && above >= minGap {
			if out, err = appendStrip(out, x, start, length, step); err != nil {
				return out, noise, err
			}
		}
	}
	return out, noise, nil
}

func appendStrip(out []Strip, x, start, length, step int) ([]Strip, error) {
	if len(out) > MaxIndex {
		return out, errors.Wrapf(ErrIndexOverflow, "more than %d strips in one frame", MaxIndex+1)
	}
	top := start * step
	bottom := (start + length) * step
	return append(out, Strip{
		X:          int16(x*step + step/2),
		Y:          int16((top + bottom) / 2),
		HalfHeight: int16((bottom - top + 1) / 2),
		Next:       None,
	}), nil
}
