// Package controller - Hysteresis control of the detection threshold from the
// amount of short-run noise observed in recent frames.
package controller

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// NoiseConfig contains the parameters of the noise bias controller.
type NoiseConfig struct {
	// Window is the number of recent frames the quantile is taken over.
	Window int
	// Quantile selects the smoothed noise level, in [0, 1].
	Quantile float64
	// High is the fraction of image area above which the bias is raised.
	High float64
	// Low is the fraction of image area below which the bias is lowered.
	Low float64
	// MaxBias bounds the bias from above.
	MaxBias int
}

// DefaultNoiseConfig returns the tuned noise controller defaults.
func DefaultNoiseConfig() NoiseConfig {
	return NoiseConfig{
		Window:   15,
		Quantile: 0.5,
		High:     0.002,
		Low:      0.0005,
		MaxBias:  8,
	}
}

// Validate checks the configuration.
func (c NoiseConfig) Validate() error {
	switch {
	case c.Window < 1:
		return errors.Errorf("noise window must be >= 1, got %d", c.Window)
	case c.Quantile < 0 || c.Quantile > 1:
		return errors.Errorf("noise quantile must be in [0, 1], got %v", c.Quantile)
	case c.Low < 0 || c.High < c.Low:
		return errors.Errorf("noise band must satisfy 0 <= low <= high, got [%v, %v]", c.Low, c.High)
	case c.MaxBias < 0:
		return errors.Errorf("max bias must be >= 0, got %d", c.MaxBias)
	}
	return nil
}

// NoiseBias keeps a rolling window of per-frame noise counts and moves an
// integer bias one unit at a time when the smoothed count leaves the
// [Low, High] band. Inside the band the bias holds, which is what keeps it
// from oscillating on a borderline scene.
type NoiseBias struct {
	config  NoiseConfig
	history []float64
	sorted  []float64
	next    int
	filled  int
	level   float64
	bias    int
}

// NewNoiseBias creates a controller with a zero bias.
func NewNoiseBias(config NoiseConfig) (*NoiseBias, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &NoiseBias{
		config:  config,
		history: make([]float64, config.Window),
		sorted:  make([]float64, 0, config.Window),
	}, nil
}

// Observe records one frame's noise count and updates the bias.
//
// Arguments:
//   - noise: Number of short runs rejected in the frame.
//   - area: Pixel area of the mask the noise was counted on.
//
// Returns:
//   - int: The bias to apply to the next frame.
func (n *NoiseBias) Observe(noise, area int) int {
	n.history[n.next] = float64(noise)
	n.next = (n.next + 1) % len(n.history)
	if n.filled < len(n.history) {
		n.filled++
	}

	n.sorted = append(n.sorted[:0], n.history[:n.filled]...)
	sort.Float64s(n.sorted)
	n.level = stat.Quantile(n.config.Quantile, stat.Empirical, n.sorted, nil)

	a := float64(area)
	switch {
	case n.level > n.config.High*a:
		if n.bias < n.config.MaxBias {
			n.bias++
		}
	case n.level < n.config.Low*a:
		if n.bias > 0 {
			n.bias--
		}
	}
	return n.bias
}

// Bias returns the current bias.
func (n *NoiseBias) Bias() int {
	return n.bias
}

// Level returns the smoothed noise count computed by the last Observe.
func (n *NoiseBias) Level() float64 {
	return n.level
}
