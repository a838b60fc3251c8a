package images

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessor_DecimateAreaAverage(t *testing.T) {
	p := NewProcessor()
	defer p.Close()

	src := NewImage(FormatGray, 4, 2)
	copy(src.Data, []byte{
		0, 4, 100, 100,
		8, 12, 100, 101,
	})
	var dst Image
	require.NoError(t, p.Decimate(src, &dst))

	assert.Equal(t, 2, dst.Width)
	assert.Equal(t, 1, dst.Height)
	assert.Equal(t, []byte{6, 100}, dst.Data)
}

func TestProcessor_DecimateMultiChannel(t *testing.T) {
	p := NewProcessor()
	defer p.Close()

	src := NewImage(FormatRGB, 2, 2)
	for i := 0; i < 4; i++ {
		copy(src.Data[i*3:], []byte{10, 20, byte(40 * i)})
	}
	var dst Image
	require.NoError(t, p.Decimate(src, &dst))
	assert.Equal(t, FormatRGB, dst.Format)
	assert.Equal(t, []byte{10, 20, 60}, dst.Data)
}

func TestProcessor_DecimateReusesBuffer(t *testing.T) {
	p := NewProcessor()
	defer p.Close()

	src := NewImage(FormatGray, 8, 8)
	src.Fill(Rect{X1: 0, Y1: 0, X2: 4, Y2: 4}, 200)
	dst := NewImage(FormatGray, 4, 4)
	first := &dst.Data[0]

	require.NoError(t, p.Decimate(src, &dst))
	assert.Same(t, first, &dst.Data[0])
	assert.Equal(t, byte(200), dst.GrayAt(1, 1))
	assert.Equal(t, byte(0), dst.GrayAt(2, 2))
}

func TestProcessor_DecimateOddDimension(t *testing.T) {
	p := NewProcessor()
	defer p.Close()

	var dst Image
	err := p.Decimate(NewImage(FormatGray, 3, 2), &dst)
	assert.True(t, errors.Is(err, ErrOddDimension))

	err = p.Decimate(NewImage(FormatGray, 2, 5), &dst)
	assert.True(t, errors.Is(err, ErrOddDimension))
}

func TestProcessor_AbsDiffGray(t *testing.T) {
	p := NewProcessor()
	defer p.Close()

	a := NewImage(FormatGray, 3, 1)
	b := NewImage(FormatGray, 3, 1)
	copy(a.Data, []byte{100, 100, 0})
	copy(b.Data, []byte{100, 131, 30})

	var dst Image
	require.NoError(t, p.AbsDiff(a, b, 30, &dst))
	assert.Equal(t, []byte{MaskOff, MaskOn, MaskOff}, dst.Data)
}

func TestProcessor_AbsDiffSumsColourChannelsIgnoringAlpha(t *testing.T) {
	p := NewProcessor()
	defer p.Close()

	a := NewImage(FormatRGBA, 2, 1)
	b := NewImage(FormatRGBA, 2, 1)
	copy(a.Data, []byte{10, 10, 10, 0, 0, 0, 0, 0})
	copy(b.Data, []byte{20, 20, 20, 255, 0, 0, 0, 255})

	var dst Image
	require.NoError(t, p.AbsDiff(a, b, 29, &dst))
	assert.Equal(t, FormatGray, dst.Format)
	assert.Equal(t, []byte{MaskOn, MaskOff}, dst.Data)
	assert.True(t, DiffAt(a, b, 0, 0, 29))
	assert.False(t, DiffAt(a, b, 1, 0, 29))
}

func TestProcessor_AbsDiffThresholdAboveByteRange(t *testing.T) {
	p := NewProcessor()
	defer p.Close()

	a := NewImage(FormatBGR, 2, 1)
	b := NewImage(FormatBGR, 2, 1)
	copy(a.Data, []byte{0, 0, 0, 0, 0, 0})
	copy(b.Data, []byte{255, 255, 255, 255, 255, 40})

	var dst Image
	require.NoError(t, p.AbsDiff(a, b, 600, &dst))
	assert.Equal(t, []byte{MaskOn, MaskOff}, dst.Data)
}

func TestProcessor_AbsDiffMismatch(t *testing.T) {
	p := NewProcessor()
	defer p.Close()

	var dst Image
	err := p.AbsDiff(NewImage(FormatGray, 2, 2), NewImage(FormatRGB, 2, 2), 10, &dst)
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	err = p.AbsDiff(NewImage(FormatGray, 2, 2), NewImage(FormatGray, 4, 1), 10, &dst)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestProcessor_Or(t *testing.T) {
	p := NewProcessor()
	defer p.Close()

	a := NewImage(FormatGray, 3, 1)
	b := NewImage(FormatGray, 3, 1)
	copy(a.Data, []byte{MaskOn, MaskOff, MaskOff})
	copy(b.Data, []byte{MaskOff, MaskOff, MaskOn})

	var dst Image
	require.NoError(t, p.Or(a, b, &dst))
	assert.Equal(t, []byte{MaskOn, MaskOff, MaskOn}, dst.Data)

	err := p.Or(a, NewImage(FormatRGB, 3, 1), &dst)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}
