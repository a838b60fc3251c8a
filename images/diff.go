package images

import "github.com/pkg/errors"

const (
	// MaskOn is the value of foreground pixels in a binary mask.
	MaskOn byte = 0xff
	// MaskOff is the value of background pixels in a binary mask.
	MaskOff byte = 0
)

// Thresholds maps each supported format to its difference threshold.
//
// For multi-channel formats the threshold applies to the sum of the absolute
// colour channel differences, so it is usually larger than the gray one.
type Thresholds map[Format]int

// DefaultThresholds returns the tuned per-format thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FormatGray: 30,
		FormatRGB:  75,
		FormatBGR:  75,
		FormatRGBA: 75,
		FormatBGRA: 75,
	}
}

// For returns the threshold configured for f.
func (t Thresholds) For(f Format) (int, error) {
	v, ok := t[f]
	if !ok {
		return 0, errors.Wrapf(ErrUnsupportedFormat, "no difference threshold for %v", f)
	}
	return v, nil
}

// DiffAt reports whether the pixel at (x, y) differs by more than threshold
// between a and b. It is the single-pixel form of Processor.AbsDiff used for
// cropped, full-resolution re-differencing.
func DiffAt(a, b Image, x, y, threshold int) bool {
	c := a.Format.Channels()
	o := (y*a.Width + x) * c
	sum := 0
	for k := 0; k < a.Format.colorChannels(); k++ {
		d := int(a.Data[o+k]) - int(b.Data[o+k])
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum > threshold
}
