package detector

import (
	"image"
	"io"
	"log"

	"github.com/nvr-ai/go-streak/controller"
	"github.com/nvr-ai/go-streak/images"
	"github.com/nvr-ai/go-streak/profiler"
	"github.com/nvr-ai/go-streak/strips"
	"github.com/pkg/errors"
)

// State is the warm-up phase of an Explorer.
type State int

const (
	// StateCold means no frame has been seen.
	StateCold State = iota
	// StateWarming means one or two frames have been seen; buffers fill but
	// no detection runs.
	StateWarming
	// StateActive means the full pipeline runs on every frame.
	StateActive
)

func (s State) String() string {
	switch s {
	case StateCold:
		return "cold"
	case StateWarming:
		return "warming"
	case StateActive:
		return "active"
	}
	return "unknown"
}

// Option configures the collaborators of an Explorer.
type Option func(*Explorer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *log.Logger) Option {
	return func(e *Explorer) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithProfiler records per-stage timings and per-frame metrics into p.
func WithProfiler(p *profiler.Profiler) Option {
	return func(e *Explorer) {
		e.profiler = p
	}
}

// Explorer owns the rolling frame window and runs the detection pipeline
// once per submitted frame.
//
// An Explorer is not safe for concurrent use. Every buffer it holds is reused
// from frame to frame; results read from it are valid until the next Process.
type Explorer struct {
	config    Config
	logger    *log.Logger
	profiler  *profiler.Profiler
	levels    []Level
	threshold int
	cv        *images.Processor

	generator strips.Generator
	builder   strips.Builder
	strategy  clusterer
	noise     *controller.NoiseBias

	frames int
	set    clusterSet
	live   []int
	order  []int
	object int
	bounds images.Rect

	pixels      []image.Point
	pixelsReady bool
	debug       image.Image
}

// NewExplorer validates the configuration and allocates every pyramid buffer.
//
// Arguments:
//   - config: Construction-time parameters; see DefaultConfig.
//   - opts: Optional collaborators such as WithLogger and WithProfiler.
//
// Returns:
//   - *Explorer: Ready to accept frames.
//   - error: Wrapping ErrInvalidConfig when the configuration is unusable.
func NewExplorer(config Config, opts ...Option) (*Explorer, error) {
	n, err := config.levels()
	if err != nil {
		return nil, err
	}
	threshold, err := config.Thresholds.For(config.Format)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}
	generator, err := strips.New(config.StripKind, strips.Params{MinGap: config.MinGap, MinHeight: config.MinHeight})
	if err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}
	noise, err := controller.NewNoiseBias(config.Noise)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}

	e := &Explorer{
		config:    config,
		logger:    log.New(io.Discard, "", 0),
		threshold: threshold,
		generator: generator,
		strategy:  newClusterer(config.Clustering, config.MaxClusters),
		noise:     noise,
		cv:        images.NewProcessor(),
		object:    -1,
	}
	for _, opt := range opts {
		opt(e)
	}

	w, h, step := config.Width, config.Height, 1
	for i := 0; i < n; i++ {
		e.levels = append(e.levels, newLevel(config.Format, w, h, step, i == n-1))
		w, h, step = w/2, h/2, step*2
	}

	proc := e.processing()
	e.set.step = proc.Step
	e.set.maxGap = int(config.MaxGapX * float32(config.Width))
	e.set.maxHeightRatio = config.MaxHeightRatio

	e.logger.Printf("✅ explorer initialized: %dx%d %v, %d levels, processing %dx%d (step %d), strips=%v clustering=%v pixels=%v",
		config.Width, config.Height, config.Format, n, proc.Width(), proc.Height(), proc.Step,
		config.StripKind, config.Clustering, config.PixelMode)
	return e, nil
}

// Close releases the native resources held by the Explorer. It must not be
// used afterwards.
func (e *Explorer) Close() {
	e.cv.Close()
}

// Config returns the configuration the Explorer was built with.
func (e *Explorer) Config() Config {
	return e.config
}

// Process absorbs one frame and runs the pipeline on it.
//
// The frame's buffer is swapped into the rolling window without copying.
// On return the caller's Image holds the buffer of the frame that dropped
// out of the window: it has the configured shape but unspecified contents,
// and the caller owns it.
//
// Returns:
//   - error: ErrFrameMismatch for a frame of the wrong shape,
//     strips.ErrIndexOverflow when a frame has more strips than can be
//     indexed. Finding nothing is not an error.
func (e *Explorer) Process(frame *images.Image) error {
	if err := e.checkFrame(frame); err != nil {
		return err
	}
	e.resetResults()

	done := e.profiler.StartOperation("pyramid")
	src := &e.levels[0]
	src.shift()
	frame.Swap(&src.Images[0])
	for k := 1; k < len(e.levels); k++ {
		l := &e.levels[k]
		l.shift()
		if err := e.cv.Decimate(e.levels[k-1].Images[0], &l.Images[0]); err != nil {
			done()
			return errors.Wrapf(err, "decimating level %d", k)
		}
	}
	done()
	e.frames++

	proc := e.processing()
	if e.frames >= 2 {
		done = e.profiler.StartOperation("diff")
		proc.shiftDiffs()
		threshold := e.threshold + e.noise.Bias()*e.config.BiasStep
		if err := e.cv.AbsDiff(proc.Images[0], proc.Images[1], threshold, &proc.Diffs[0]); err != nil {
			done()
			return errors.Wrap(err, "differencing newest frames")
		}
		done()
	}
	if e.State() != StateActive {
		return nil
	}

	if err := e.cv.Or(proc.Diffs[0], proc.Diffs[1], &proc.Preprocessed); err != nil {
		return errors.Wrap(err, "combining diffs")
	}

	done = e.profiler.StartOperation("strips")
	var noise int
	var err error
	e.set.strips, noise, err = e.generator.Generate(proc.Preprocessed, proc.Step, e.set.strips)
	done()
	if err != nil {
		return err
	}
	bias := e.noise.Observe(noise, proc.Width()*proc.Height())
	e.profiler.RecordMetric("strips", float64(len(e.set.strips)))
	e.profiler.RecordMetric("noise", float64(noise))
	e.profiler.RecordMetric("bias", float64(bias))
	e.profiler.RecordMetric("noise_level", e.noise.Level())
	if len(e.set.strips) == 0 {
		return nil
	}

	done = e.profiler.StartOperation("components")
	e.set.components = e.builder.Build(e.set.strips, proc.Step)
	done()

	done = e.profiler.StartOperation("clusters")
	e.live = clusterize(&e.set, e.strategy, e.logger)
	done()

	done = e.profiler.StartOperation("validate")
	e.object, e.order = e.set.validate(e.live, e.config.MinStrips, proc.Diffs[0], proc.Diffs[1], e.config.MinMotion, e.order)
	if e.object >= 0 {
		e.bounds = objectBounds(&e.set.clusters[e.object], proc.Step, e.levels[0].Images[0].Bounds())
	}
	done()
	return nil
}

func (e *Explorer) checkFrame(frame *images.Image) error {
	if frame == nil {
		return errors.Wrap(ErrFrameMismatch, "nil frame")
	}
	if frame.Format != e.config.Format || frame.Width != e.config.Width || frame.Height != e.config.Height {
		return errors.Wrapf(ErrFrameMismatch, "got %v %dx%d, configured %v %dx%d",
			frame.Format, frame.Width, frame.Height, e.config.Format, e.config.Width, e.config.Height)
	}
	if err := frame.Validate(); err != nil {
		return errors.Wrap(ErrFrameMismatch, err.Error())
	}
	return nil
}

func (e *Explorer) resetResults() {
	e.set.reset()
	e.live = e.live[:0]
	e.object = -1
	e.bounds = images.Rect{}
	e.pixels = e.pixels[:0]
	e.pixelsReady = false
	e.debug = nil
}

func (e *Explorer) processing() *Level {
	return &e.levels[len(e.levels)-1]
}

// State reports the warm-up phase.
func (e *Explorer) State() State {
	switch {
	case e.frames == 0:
		return StateCold
	case e.frames < 3:
		return StateWarming
	default:
		return StateActive
	}
}

// Frames returns the number of frames processed.
func (e *Explorer) Frames() int {
	return e.frames
}

// Levels returns the pyramid, source level first.
func (e *Explorer) Levels() []Level {
	return e.levels
}

// Step returns the source pixels per processing pixel.
func (e *Explorer) Step() int {
	return e.processing().Step
}

// NoiseBias returns the current threshold bias of the noise controller.
func (e *Explorer) NoiseBias() int {
	return e.noise.Bias()
}

// HaveObject reports whether the last frame produced an object.
func (e *Explorer) HaveObject() bool {
	return e.object >= 0
}

// Object returns the accepted cluster of the last frame.
func (e *Explorer) Object() (Cluster, bool) {
	if e.object < 0 {
		return Cluster{}, false
	}
	return e.set.clusters[e.object], true
}

// Bounds returns the object's bounding box in source pixels, or an empty Rect.
func (e *Explorer) Bounds() images.Rect {
	return e.bounds
}

// Strips returns the last frame's strips.
func (e *Explorer) Strips() []strips.Strip {
	return e.set.strips
}

// Components returns the first strip of each of the last frame's components.
func (e *Explorer) Components() []strips.Index {
	return e.set.components
}

// Clusters returns every cluster of the last frame, including merged-away
// and rejected ones, for diagnostics.
func (e *Explorer) Clusters() []Cluster {
	return e.set.clusters
}

// Pixels returns the object's pixels sorted by (y, x), computed on first
// use in the configured PixelMode.
func (e *Explorer) Pixels() []image.Point {
	if e.object < 0 {
		return nil
	}
	if e.pixelsReady {
		return e.pixels
	}

	done := e.profiler.StartOperation("pixels")
	defer done()

	c := &e.set.clusters[e.object]
	switch e.config.PixelMode {
	case PixelsSource:
		e.pixels = sourcePixels(&e.levels[0].Images, e.bounds, e.threshold, e.pixels[:0])
	default:
		e.pixels = e.set.processingPixels(c, e.levels[0].Images[0].Bounds(), e.pixels[:0])
	}
	e.pixelsReady = true
	return e.pixels
}
