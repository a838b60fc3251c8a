package detector

import "github.com/nvr-ai/go-streak/images"

// Level is one stage of the resolution pyramid.
type Level struct {
	// Step is the number of source pixels per level pixel along each axis.
	Step int
	// Images is the rolling window: 0 is the newest frame, 2 the one two
	// frames before it.
	Images [3]images.Image
	// Diffs holds the binary differences: 0 is Images[0] against Images[1],
	// 1 is Images[1] against Images[2].
	Diffs [2]images.Image
	// Preprocessed is the union of both diffs, the mask strips are cut from.
	Preprocessed images.Image
}

func newLevel(format images.Format, width, height, step int, withDiffs bool) Level {
	l := Level{Step: step}
	for i := range l.Images {
		l.Images[i] = images.NewImage(format, width, height)
	}
	if withDiffs {
		for i := range l.Diffs {
			l.Diffs[i] = images.NewImage(images.FormatGray, width, height)
		}
		l.Preprocessed = images.NewImage(images.FormatGray, width, height)
	}
	return l
}

// Width returns the level width in pixels.
func (l *Level) Width() int { return l.Images[0].Width }

// Height returns the level height in pixels.
func (l *Level) Height() int { return l.Images[0].Height }

// shift drops the oldest image by moving its buffer to the newest slot.
func (l *Level) shift() {
	l.Images[0], l.Images[1], l.Images[2] = l.Images[2], l.Images[0], l.Images[1]
}

// shiftDiffs moves the newer diff into the older slot and frees the newer one.
func (l *Level) shiftDiffs() {
	l.Diffs[0], l.Diffs[1] = l.Diffs[1], l.Diffs[0]
}
