// Package detector - Per-frame detection of a single fast-moving object from
// the motion-blur streak it leaves across three consecutive frames.
//
// Pipeline Overview:
//
//	┌──────────────┐
//	│ Input Frame  │  swapped into the rolling window
//	└──────┬───────┘
//	┌──────────────────────────────┐
//	│ Pyramid (2x2 area decimation)│
//	└──────┬───────────────────────┘
//	┌──────────────────────────────┐
//	│ Diffs (newer, older) + OR    │
//	└──────┬───────────────────────┘
//	┌──────────────────────────────┐
//	│ Strips → Components          │
//	└──────┬───────────────────────┘
//	┌──────────────────────────────┐
//	│ Clusters (agglomerative)     │
//	└──────┬───────────────────────┘
//	┌──────────────────────────────┐
//	│ Validation → Object          │
//	└──────┬───────────────────────┘
//	┌──────────────────────────────┐
//	│ Bounds / Pixels / Debug      │
//	└──────────────────────────────┘
//
// Usage:
//
//	cfg := detector.DefaultConfig(1280, 720, images.FormatGray)
//	ex, err := detector.NewExplorer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for frame := range frames {
//	    if err := ex.Process(&frame); err != nil {
//	        log.Fatal(err)
//	    }
//	    if ex.HaveObject() {
//	        fmt.Println(ex.Bounds())
//	    }
//	}
package detector

import (
	"math"

	"github.com/nvr-ai/go-streak/agglomerate"
	"github.com/nvr-ai/go-streak/controller"
	"github.com/nvr-ai/go-streak/images"
	"github.com/nvr-ai/go-streak/strips"
	"github.com/pkg/errors"
)

var (
	// ErrInvalidConfig is returned by NewExplorer when the configuration is unusable.
	ErrInvalidConfig = errors.New("invalid detector configuration")
	// ErrFrameMismatch is returned by Process when a frame does not match the configured shape.
	ErrFrameMismatch = errors.New("frame does not match configuration")
)

// PixelMode selects how object pixels are reported.
type PixelMode int

const (
	// PixelsProcessing reports pixels straight from the low-resolution strip geometry.
	PixelsProcessing PixelMode = iota
	// PixelsSource re-differences the source frames inside the bounding box.
	PixelsSource
)

func (m PixelMode) String() string {
	switch m {
	case PixelsProcessing:
		return "processing"
	case PixelsSource:
		return "source"
	}
	return "unknown"
}

// ClusterVariant selects the clustering strategy.
type ClusterVariant int

const (
	// ClusterAgglomerative merges components with the greedy agglomerator.
	ClusterAgglomerative ClusterVariant = iota
	// ClusterComponents keeps every component as its own cluster.
	ClusterComponents
)

func (v ClusterVariant) String() string {
	switch v {
	case ClusterAgglomerative:
		return "agglomerative"
	case ClusterComponents:
		return "components"
	}
	return "unknown"
}

// Config contains the construction-time parameters of an Explorer.
//
// The fractional thresholds are empirically tuned defaults rather than derived
// quantities.
type Config struct {
	// Width and Height of the source frames.
	Width, Height int
	// Format of the source frames.
	Format images.Format
	// MinGap is the background run required above and below a strip, as a
	// fraction of the processing height.
	MinGap float32
	// MinHeight is the shortest white run, in processing pixels, kept as a strip.
	MinHeight int
	// MaxHeight bounds the processing height; the pyramid halves the frame
	// until it fits.
	MaxHeight int
	// MinMotion is the displacement, as a fraction of the cluster span, each
	// end of a streak must move between the two diffs.
	MinMotion float32
	// MaxGapX is the widest horizontal gap, as a fraction of source width,
	// two clusters may be merged across.
	MaxGapX float32
	// MaxHeightRatio bounds the ratio of the tallest to the shortest strip
	// half-height within a merged cluster.
	MaxHeightRatio float32
	// MinStrips is the fewest strips a cluster needs to be considered.
	MinStrips int
	// MaxClusters is the clustering safety cap; frames with more components
	// drop all of them.
	MaxClusters int
	// Thresholds are the per-format difference thresholds.
	Thresholds images.Thresholds
	// BiasStep is added to the processing threshold per unit of noise bias.
	BiasStep int
	// Noise configures the noise bias controller.
	Noise controller.NoiseConfig
	// PixelMode selects the pixel reporting resolution.
	PixelMode PixelMode
	// StripKind selects the strip generation strategy.
	StripKind strips.Kind
	// Clustering selects the clustering strategy.
	Clustering ClusterVariant
}

// DefaultConfig returns the tuned defaults for a source of the given shape.
func DefaultConfig(width, height int, format images.Format) Config {
	return Config{
		Width:          width,
		Height:         height,
		Format:         format,
		MinGap:         0.02,
		MinHeight:      2,
		MaxHeight:      120,
		MinMotion:      0.1,
		MaxGapX:        0.25,
		MaxHeightRatio: 4,
		MinStrips:      3,
		MaxClusters:    agglomerate.DefaultMaxClusters,
		Thresholds:     images.DefaultThresholds(),
		BiasStep:       4,
		Noise:          controller.DefaultNoiseConfig(),
		PixelMode:      PixelsProcessing,
		StripKind:      strips.KindSandwiched,
		Clustering:     ClusterAgglomerative,
	}
}

// Validate checks the configuration and reports the first problem found.
func (c Config) Validate() error {
	_, err := c.levels()
	return err
}

// levels validates the configuration and returns the number of pyramid
// levels, source level included.
func (c Config) levels() (int, error) {
	invalid := func(format string, args ...interface{}) error {
		return errors.Wrapf(ErrInvalidConfig, format, args...)
	}

	switch {
	case c.Width <= 0 || c.Height <= 0:
		return 0, invalid("dimensions must be positive, got %dx%d", c.Width, c.Height)
	case c.Width > math.MaxInt16 || c.Height > math.MaxInt16:
		return 0, invalid("dimensions %dx%d exceed the %d coordinate range", c.Width, c.Height, math.MaxInt16)
	case !c.Format.Valid():
		return 0, invalid("unknown pixel format %d", int(c.Format))
	case c.MaxHeight < 1:
		return 0, invalid("max height must be >= 1, got %d", c.MaxHeight)
	case c.Height <= c.MaxHeight:
		return 0, invalid("height %d leaves no room to decimate below max height %d", c.Height, c.MaxHeight)
	case c.MinGap < 0 || c.MinGap >= 1:
		return 0, invalid("min gap must be in [0, 1), got %v", c.MinGap)
	case c.MinHeight < 1:
		return 0, invalid("min height must be >= 1, got %d", c.MinHeight)
	case c.MinMotion < 0 || c.MinMotion >= 1:
		return 0, invalid("min motion must be in [0, 1), got %v", c.MinMotion)
	case c.MaxGapX <= 0 || c.MaxGapX > 1:
		return 0, invalid("max gap must be in (0, 1], got %v", c.MaxGapX)
	case c.MaxHeightRatio < 1:
		return 0, invalid("max height ratio must be >= 1, got %v", c.MaxHeightRatio)
	case c.MinStrips < 1:
		return 0, invalid("min strips must be >= 1, got %d", c.MinStrips)
	case c.MaxClusters < 1 || c.MaxClusters > agglomerate.MaxClustersLimit:
		return 0, invalid("max clusters must be in [1, %d], got %d", agglomerate.MaxClustersLimit, c.MaxClusters)
	case c.BiasStep < 0:
		return 0, invalid("bias step must be >= 0, got %d", c.BiasStep)
	case c.PixelMode != PixelsProcessing && c.PixelMode != PixelsSource:
		return 0, invalid("unknown pixel mode %d", int(c.PixelMode))
	case c.Clustering != ClusterAgglomerative && c.Clustering != ClusterComponents:
		return 0, invalid("unknown clustering variant %d", int(c.Clustering))
	}
	if _, err := c.Thresholds.For(c.Format); err != nil {
		return 0, errors.Wrap(ErrInvalidConfig, err.Error())
	}
	if err := c.Noise.Validate(); err != nil {
		return 0, errors.Wrap(ErrInvalidConfig, err.Error())
	}

	n := 1
	w, h := c.Width, c.Height
	for h > c.MaxHeight {
		if w%2 != 0 || h%2 != 0 {
			return 0, invalid("level %d is %dx%d and cannot be halved", n-1, w, h)
		}
		w, h = w/2, h/2
		n++
	}
	return n, nil
}

// FitShape returns the largest width and height no bigger than the given
// ones that halve cleanly down to maxHeight. Callers crop their frames to it.
func FitShape(width, height, maxHeight int) (int, int) {
	if maxHeight < 1 || height <= maxHeight {
		return width, height
	}
	unit := 1
	for height/unit > maxHeight {
		unit *= 2
	}
	return width - width%unit, height - height%unit
}
