// Package strips - Run-length strip extraction from binary motion masks and the
// greedy linking of strips into connected components.
//
// Strips live in a caller-owned slice (the arena) and reference each other by
// Index rather than by pointer, so a frame's strips can be rebuilt in place
// without allocating.
package strips

import (
	"math"

	"github.com/pkg/errors"
)

var (
	// ErrIndexOverflow is returned when a frame produces more strips than Index can address.
	ErrIndexOverflow = errors.New("strip index space exhausted")
	// ErrCoordinateRange is returned for a mask whose rescaled coordinates do not fit a Strip.
	ErrCoordinateRange = errors.New("strip coordinates exceed the int16 range")
)

// Index addresses a strip (or a component, by its first strip) inside an arena.
type Index int16

const (
	// None marks the end of a chain.
	None Index = -1
	// MaxIndex is the largest addressable arena position.
	MaxIndex = math.MaxInt16
)

// Valid reports whether i refers to an arena slot.
func (i Index) Valid() bool {
	return i >= 0
}

// Strip is a compact vertical run of foreground pixels.
//
// Coordinates are in source pixels: the strip was found at processing
// resolution and rescaled by the level's step, so its half-width is step/2.
type Strip struct {
	// X is the column centre.
	X int16
	// Y is the row centre.
	Y int16
	// HalfHeight is half the run height.
	HalfHeight int16
	// Next is the successor in the component chain, or None.
	Next Index
}

// Top returns the first row covered by the strip.
func (s Strip) Top() int {
	return int(s.Y) - int(s.HalfHeight)
}

// Bottom returns the row after the last one covered by the strip.
func (s Strip) Bottom() int {
	return int(s.Y) + int(s.HalfHeight)
}

// Left returns the first source column covered by a strip found at step.
func (s Strip) Left(step int) int {
	return int(s.X) - step/2
}

// Overlaps reports whether the vertical extents of s and o touch or intersect.
func (s Strip) Overlaps(o Strip) bool {
	dy := int(s.Y) - int(o.Y)
	if dy < 0 {
		dy = -dy
	}
	return dy <= int(s.HalfHeight)+int(o.HalfHeight)
}

// Walk calls fn for every strip of the component starting at first, in chain order.
// fn returning false stops the walk.
func Walk(arena []Strip, first Index, fn func(i Index, s Strip) bool) {
	for i := first; i.Valid(); i = arena[i].Next {
		if !fn(i, arena[i]) {
			return
		}
	}
}
