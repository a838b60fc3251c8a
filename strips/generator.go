package strips

import (
	"github.com/chewxy/math32"
	"github.com/nvr-ai/go-streak/images"
	"github.com/pkg/errors"
)

// Kind selects a strip generation strategy.
type Kind int

const (
	// KindSandwiched emits white runs bounded above and below by enough background.
	KindSandwiched Kind = iota
	// KindLoose emits every sufficiently tall white run regardless of the
	// surrounding background.
	KindLoose
)

func (k Kind) String() string {
	switch k {
	case KindSandwiched:
		return "sandwiched"
	case KindLoose:
		return "loose"
	}
	return "unknown"
}

// Params configures a Generator.
type Params struct {
	// MinGap is the minimum background run, as a fraction of mask height,
	// required above and below a strip.
	MinGap float32
	// MinHeight is the minimum white run, in mask pixels, for a strip.
	// Shorter runs are counted as noise.
	MinHeight int
}

// Generator turns a binary mask into an x-ascending list of strips.
type Generator interface {
	// Generate appends the strips of mask to dst[:0] and returns them together
	// with the number of white runs rejected as noise.
	//
	// Arguments:
	//   - mask: A FormatGray binary image at processing resolution.
	//   - step: Source pixels per mask pixel; strip geometry is scaled by it.
	//   - dst: Reusable arena.
	Generate(mask images.Image, step int, dst []Strip) ([]Strip, int, error)
	// Kind reports which strategy this is.
	Kind() Kind
}

// New creates the generator for kind.
//
// Returns:
//   - Generator: The configured strategy.
//   - error: If the kind is unknown or the parameters are invalid.
func New(kind Kind, params Params) (Generator, error) {
	if params.MinHeight < 1 {
		return nil, errors.Errorf("strips: min height must be >= 1, got %d", params.MinHeight)
	}
	if params.MinGap < 0 || params.MinGap >= 1 {
		return nil, errors.Errorf("strips: min gap must be in [0, 1), got %v", params.MinGap)
	}
	switch kind {
	case KindSandwiched:
		return &runLength{params: params, requireGap: true}, nil
	case KindLoose:
		return &runLength{params: params}, nil
	default:
		return nil, errors.Errorf("strips: unsupported generator kind %d", kind)
	}
}

// MinGapPixels converts a fractional gap into mask rows, never less than one.
func MinGapPixels(gap float32, height int) int {
	g := int(math32.Ceil(gap * float32(height)))
	if g < 1 {
		g = 1
	}
	return g
}
