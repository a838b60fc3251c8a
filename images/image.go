// Package images - Raw frame buffers and the per-pixel primitives the streak
// pipeline runs on: decimation, differencing and mask combination.
package images

import (
	"image/color"

	"github.com/pkg/errors"
)

// Image represents a raw, tightly packed pixel buffer with a format, width and height.
//
// Copying an Image value shares its buffer; use Clone for a deep copy and Swap
// to exchange ownership of two buffers without copying pixels.
type Image struct {
	// The format of the image.
	Format Format `json:"format"`
	// The data of the image, row-major, Width*Height*Format.Channels() bytes.
	Data []byte `json:"data"`
	// The width of the image.
	Width int `json:"width"`
	// The height of the image.
	Height int `json:"height"`
}

// NewImage allocates a zeroed image.
func NewImage(format Format, width, height int) Image {
	return Image{
		Format: format,
		Data:   make([]byte, width*height*format.Channels()),
		Width:  width,
		Height: height,
	}
}

// Reset reshapes the image, reusing the existing buffer when it is large enough.
// Pixel contents are unspecified afterwards.
func (m *Image) Reset(format Format, width, height int) {
	n := width * height * format.Channels()
	if cap(m.Data) < n {
		m.Data = make([]byte, n)
	}
	m.Data = m.Data[:n]
	m.Format = format
	m.Width = width
	m.Height = height
}

// Swap exchanges the buffers and shapes of two images.
func (m *Image) Swap(o *Image) {
	*m, *o = *o, *m
}

// Clone returns a deep copy of the image.
func (m Image) Clone() Image {
	c := m
	c.Data = make([]byte, len(m.Data))
	copy(c.Data, m.Data)
	return c
}

// SameShape reports whether both images have identical format and dimensions.
func (m Image) SameShape(o Image) bool {
	return m.Format == o.Format && m.Width == o.Width && m.Height == o.Height
}

// Stride is the number of bytes per row.
func (m Image) Stride() int {
	return m.Width * m.Format.Channels()
}

// Bounds returns the image rectangle.
func (m Image) Bounds() Rect {
	return Rect{X1: 0, Y1: 0, X2: m.Width, Y2: m.Height}
}

// Validate checks that the buffer length agrees with the declared shape.
func (m Image) Validate() error {
	if !m.Format.Valid() {
		return errors.Wrapf(ErrUnsupportedFormat, "format %v", m.Format)
	}
	if m.Width <= 0 || m.Height <= 0 {
		return errors.Wrapf(ErrShapeMismatch, "dimensions %dx%d", m.Width, m.Height)
	}
	if want := m.Width * m.Height * m.Format.Channels(); len(m.Data) != want {
		return errors.Wrapf(ErrShapeMismatch, "have %d bytes, want %d", len(m.Data), want)
	}
	return nil
}

// GrayAt returns the byte at (x, y) of the first channel. Callers check bounds.
func (m Image) GrayAt(x, y int) byte {
	return m.Data[(y*m.Width+x)*m.Format.Channels()]
}

// SetGray writes v into every colour channel of (x, y).
func (m Image) SetGray(x, y int, v byte) {
	c := m.Format.Channels()
	o := (y*m.Width + x) * c
	for i := 0; i < m.Format.colorChannels(); i++ {
		m.Data[o+i] = v
	}
	if m.Format.hasAlpha() {
		m.Data[o+c-1] = 0xff
	}
}

// Fill sets every colour channel of every pixel in r (clipped to the image) to v.
func (m Image) Fill(r Rect, v byte) {
	r = r.Intersect(m.Bounds())
	for y := r.Y1; y < r.Y2; y++ {
		for x := r.X1; x < r.X2; x++ {
			m.SetGray(x, y, v)
		}
	}
}

// RGBA returns the colour at (x, y).
func (m Image) RGBA(x, y int) color.RGBA {
	o := (y*m.Width + x) * m.Format.Channels()
	p := m.Data[o : o+m.Format.Channels()]
	switch m.Format {
	case FormatGray:
		return color.RGBA{p[0], p[0], p[0], 0xff}
	case FormatRGB:
		return color.RGBA{p[0], p[1], p[2], 0xff}
	case FormatBGR:
		return color.RGBA{p[2], p[1], p[0], 0xff}
	case FormatRGBA:
		return color.RGBA{p[0], p[1], p[2], p[3]}
	case FormatBGRA:
		return color.RGBA{p[2], p[1], p[0], p[3]}
	}
	return color.RGBA{}
}
