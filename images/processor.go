package images

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Processor runs the per-frame pixel primitives (pyramid decimation,
// frame differencing and mask combination) on OpenCV matrices.
//
// Image buffers stay the owners of pixel data: each call wraps its inputs in
// Mat headers, runs the OpenCV operation into a scratch Mat kept on the
// Processor, and copies the result back into the destination Image.
//
// A Processor is not safe for concurrent use. Always call Close() when done
// to release native resources.
type Processor struct {
	diff   gocv.Mat // Absolute per-channel difference
	sum    gocv.Mat // Float accumulator for the colour channel sum
	plane  gocv.Mat // Float scratch for one channel and for the thresholded sum
	mask   gocv.Mat // Binary gray output of AbsDiff and Or
	scaled gocv.Mat // Output of Decimate
}

// NewProcessor allocates the scratch matrices.
func NewProcessor() *Processor {
	return &Processor{
		diff:   gocv.NewMat(),
		sum:    gocv.NewMat(),
		plane:  gocv.NewMat(),
		mask:   gocv.NewMat(),
		scaled: gocv.NewMat(),
	}
}

// Decimate halves both dimensions of src into dst using 2x2 area averaging.
//
// Each output channel is the rounded mean of the four source pixels it
// covers, which is what OpenCV's area interpolation computes for an exact
// factor-of-two reduction.
//
// Arguments:
//   - src: The image to decimate. Width and height must be even.
//   - dst: Receives the result; its buffer is reused when large enough.
//
// Returns:
//   - error: ErrOddDimension for odd input dimensions, or a shape error from src.
func (p *Processor) Decimate(src Image, dst *Image) error {
	if err := src.Validate(); err != nil {
		return err
	}
	if src.Width%2 != 0 || src.Height%2 != 0 {
		return errors.Wrapf(ErrOddDimension, "cannot decimate %dx%d", src.Width, src.Height)
	}

	in, err := wrap(src)
	if err != nil {
		return err
	}
	defer in.Close()

	w, h := src.Width/2, src.Height/2
	gocv.Resize(in, &p.scaled, image.Pt(w, h), 0, 0, gocv.InterpolationArea)

	dst.Reset(src.Format, w, h)
	return export(p.scaled, dst)
}

// AbsDiff computes |a-b| per pixel and thresholds it into a gray binary mask.
//
// Arguments:
//   - a, b: Images of identical format and dimensions.
//   - threshold: Pixels whose summed channel difference exceeds this become MaskOn.
//   - dst: Receives a FormatGray mask of the same dimensions.
//
// Returns:
//   - error: ErrShapeMismatch or ErrUnsupportedFormat.
func (p *Processor) AbsDiff(a, b Image, threshold int, dst *Image) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if !a.SameShape(b) || len(a.Data) != len(b.Data) {
		return errors.Wrapf(ErrShapeMismatch, "diff %v %dx%d against %v %dx%d",
			a.Format, a.Width, a.Height, b.Format, b.Width, b.Height)
	}

	ma, err := wrap(a)
	if err != nil {
		return err
	}
	defer ma.Close()
	mb, err := wrap(b)
	if err != nil {
		return err
	}
	defer mb.Close()

	gocv.AbsDiff(ma, mb, &p.diff)

	if a.Format.Channels() == 1 {
		gocv.Threshold(p.diff, &p.mask, float32(threshold), float32(MaskOn), gocv.ThresholdBinary)
	} else {
		// Sum in float so thresholds above 255 still compare against the true sum.
		planes := gocv.Split(p.diff)
		defer func() {
			for i := range planes {
				planes[i].Close()
			}
		}()
		planes[0].ConvertTo(&p.sum, gocv.MatTypeCV32F)
		for k := 1; k < a.Format.colorChannels(); k++ {
			planes[k].ConvertTo(&p.plane, gocv.MatTypeCV32F)
			gocv.Add(p.sum, p.plane, &p.sum)
		}
		gocv.Threshold(p.sum, &p.plane, float32(threshold), float32(MaskOn), gocv.ThresholdBinary)
		p.plane.ConvertTo(&p.mask, gocv.MatTypeCV8U)
	}

	dst.Reset(FormatGray, a.Width, a.Height)
	return export(p.mask, dst)
}

// Or combines two binary masks into dst.
func (p *Processor) Or(a, b Image, dst *Image) error {
	if a.Format != FormatGray || !a.SameShape(b) {
		return errors.Wrapf(ErrShapeMismatch, "or of %v %dx%d and %v %dx%d",
			a.Format, a.Width, a.Height, b.Format, b.Width, b.Height)
	}

	ma, err := wrap(a)
	if err != nil {
		return err
	}
	defer ma.Close()
	mb, err := wrap(b)
	if err != nil {
		return err
	}
	defer mb.Close()

	gocv.BitwiseOr(ma, mb, &p.mask)

	dst.Reset(FormatGray, a.Width, a.Height)
	return export(p.mask, dst)
}

// Close releases all OpenCV native resources used by the processor.
func (p *Processor) Close() {
	p.diff.Close()
	p.sum.Close()
	p.plane.Close()
	p.mask.Close()
	p.scaled.Close()
}

// matType returns the 8-bit OpenCV matrix type holding pixels of format f.
func matType(f Format) (gocv.MatType, error) {
	switch f.Channels() {
	case 1:
		return gocv.MatTypeCV8UC1, nil
	case 3:
		return gocv.MatTypeCV8UC3, nil
	case 4:
		return gocv.MatTypeCV8UC4, nil
	}
	return 0, errors.Wrapf(ErrUnsupportedFormat, "no matrix type for %v", f)
}

func wrap(img Image) (gocv.Mat, error) {
	if err := img.Validate(); err != nil {
		return gocv.Mat{}, err
	}
	mt, err := matType(img.Format)
	if err != nil {
		return gocv.Mat{}, err
	}
	mat, err := gocv.NewMatFromBytes(img.Height, img.Width, mt, img.Data)
	if err != nil {
		return gocv.Mat{}, errors.Wrapf(err, "wrapping %v %dx%d", img.Format, img.Width, img.Height)
	}
	return mat, nil
}

// export copies mat into dst, which must already have mat's shape.
func export(mat gocv.Mat, dst *Image) error {
	if mat.Rows() != dst.Height || mat.Cols() != dst.Width {
		return errors.Wrapf(ErrShapeMismatch, "matrix %dx%d into %dx%d image",
			mat.Cols(), mat.Rows(), dst.Width, dst.Height)
	}
	data, err := mat.DataPtrUint8()
	if err != nil {
		return errors.Wrap(err, "reading matrix data")
	}
	if len(data) != len(dst.Data) {
		return errors.Wrapf(ErrShapeMismatch, "matrix holds %d bytes, image %d", len(data), len(dst.Data))
	}
	copy(dst.Data, data)
	return nil
}
