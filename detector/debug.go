package detector

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"
	"github.com/nvr-ai/go-streak/images"
	"github.com/nvr-ai/go-streak/strips"
	"gocv.io/x/gocv"
)

// Debug palette.
var (
	colorMask   = color.RGBA{0x40, 0x40, 0x40, 0xff}
	colorNewer  = color.RGBA{0xc0, 0x20, 0x20, 0xff}
	colorOlder  = color.RGBA{0x20, 0x20, 0xc0, 0xff}
	colorBoth   = color.RGBA{0xc0, 0x20, 0xc0, 0xff}
	colorBounds = color.RGBA{0xff, 0xff, 0x00, 0xff}

	reasonColors = map[Reason]color.RGBA{
		ReasonNone:         {0xff, 0xff, 0xff, 0xff},
		ReasonMergedAway:   {0x80, 0x80, 0x80, 0xff},
		ReasonTooFewStrips: {0xff, 0x80, 0x00, 0xff},
		ReasonNotAnObject:  {0x00, 0xc0, 0xff, 0xff},
		ReasonSkipped:      {0x80, 0x40, 0xff, 0xff},
	}
	colorObject = color.RGBA{0x00, 0xff, 0x00, 0xff}
)

// DebugImage renders the last frame's intermediate state at source
// resolution: the processing frame dimmed in the background, the
// preprocessed mask in gray, the newer and older diffs in red
// and blue, strips coloured by their cluster's Reason (green for the object)
// and the object's bounds in yellow.
//
// The image is built on first use after each Process and cached until the
// next one. It is nil before the Explorer is active.
func (e *Explorer) DebugImage() image.Image {
	if e.State() != StateActive {
		return nil
	}
	if e.debug != nil {
		return e.debug
	}

	done := e.profiler.StartOperation("debug")
	defer done()

	proc := e.processing()
	w, h, step := proc.Width(), proc.Height(), proc.Step
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			newer := proc.Diffs[0].GrayAt(x, y) != images.MaskOff
			older := proc.Diffs[1].GrayAt(x, y) != images.MaskOff
			switch {
			case newer && older:
				canvas.SetRGBA(x, y, colorBoth)
			case newer:
				canvas.SetRGBA(x, y, colorNewer)
			case older:
				canvas.SetRGBA(x, y, colorOlder)
			case proc.Preprocessed.GrayAt(x, y) != images.MaskOff:
				canvas.SetRGBA(x, y, colorMask)
			default:
				canvas.SetRGBA(x, y, dim(proc.Images[0].RGBA(x, y)))
			}
		}
	}

	paint := func(st strips.Strip, col color.RGBA) {
		x := int(st.X) / step
		for y := st.Top() / step; y < st.Bottom()/step && y < h; y++ {
			canvas.SetRGBA(x, y, col)
		}
	}
	// Strips of frames dropped by the safety cap belong to no cluster.
	for _, st := range e.set.strips {
		paint(st, reasonColors[ReasonMergedAway])
	}
	for i := range e.set.clusters {
		c := &e.set.clusters[i]
		if c.Reason == ReasonMergedAway {
			continue
		}
		col := reasonColors[c.Reason]
		if i == e.object {
			col = colorObject
		}
		e.set.walk(c, func(_ strips.Index, st strips.Strip) {
			paint(st, col)
		})
	}

	out := resize.Resize(uint(e.config.Width), uint(e.config.Height), canvas, resize.NearestNeighbor)
	if e.object >= 0 {
		out = e.outline(out, e.bounds, colorBounds)
	}
	e.debug = out
	return e.debug
}

// outline draws the one pixel border of r onto img. On failure the image is
// returned without it.
func (e *Explorer) outline(img image.Image, r images.Rect, c color.RGBA) image.Image {
	if r.Empty() {
		return img
	}
	mat, err := gocv.ImageToMatRGBA(img)
	if err != nil {
		e.logger.Printf("❌ debug outline: %v", err)
		return img
	}
	defer mat.Close()

	// OpenCV corners are inclusive.
	gocv.Rectangle(&mat, image.Rect(r.X1, r.Y1, r.X2-1, r.Y2-1), c, 1)

	out, err := mat.ToImage()
	if err != nil {
		e.logger.Printf("❌ debug outline: %v", err)
		return img
	}
	return out
}

func dim(c color.RGBA) color.RGBA {
	return color.RGBA{c.R >> 1, c.G >> 1, c.B >> 1, 0xff}
}
