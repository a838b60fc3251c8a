package images

import "github.com/pkg/errors"

var (
	// ErrUnsupportedFormat is returned when a stage cannot handle a pixel format.
	ErrUnsupportedFormat = errors.New("unsupported pixel format")
	// ErrShapeMismatch is returned when two images (or an image and its buffer) disagree in shape.
	ErrShapeMismatch = errors.New("image shape mismatch")
	// ErrOddDimension is returned when decimating an image with an odd width or height.
	ErrOddDimension = errors.New("odd image dimension")
)

// Format represents a raw pixel layout.
type Format int

const (
	// FormatGray is one byte per pixel.
	FormatGray Format = iota
	// FormatRGB is three bytes per pixel, red first.
	FormatRGB
	// FormatBGR is three bytes per pixel, blue first (OpenCV order).
	FormatBGR
	// FormatRGBA is four bytes per pixel, red first, alpha last.
	FormatRGBA
	// FormatBGRA is four bytes per pixel, blue first, alpha last.
	FormatBGRA
)

// Channels returns the number of bytes per pixel.
func (f Format) Channels() int {
	switch f {
	case FormatGray:
		return 1
	case FormatRGB, FormatBGR:
		return 3
	case FormatRGBA, FormatBGRA:
		return 4
	}
	return 0
}

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	return f.Channels() > 0
}

func (f Format) colorChannels() int {
	if f.hasAlpha() {
		return 3
	}
	return f.Channels()
}

func (f Format) hasAlpha() bool {
	return f == FormatRGBA || f == FormatBGRA
}

func (f Format) String() string {
	switch f {
	case FormatGray:
		return "gray"
	case FormatRGB:
		return "rgb"
	case FormatBGR:
		return "bgr"
	case FormatRGBA:
		return "rgba"
	case FormatBGRA:
		return "bgra"
	}
	return "unknown"
}
