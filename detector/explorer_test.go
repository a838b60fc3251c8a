package detector

import (
	"bytes"
	"image"
	"image/color"
	"log"
	"testing"

	"github.com/nvr-ai/go-streak/images"
	"github.com/nvr-ai/go-streak/profiler"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig decimates a 128x64 source once, to 64x32 at step 2.
func testConfig() Config {
	c := DefaultConfig(128, 64, images.FormatGray)
	c.MaxHeight = 32
	return c
}

func square(x, y int) images.Rect {
	return images.Rect{X1: x, Y1: y, X2: x + 8, Y2: y + 8}
}

func scene(rects ...images.Rect) images.Image {
	img := images.NewImage(images.FormatGray, 128, 64)
	for _, r := range rects {
		img.Fill(r, 0xff)
	}
	return img
}

// movingSquare is an 8x8 square crossing rows 28..35 left to right, 24 pixels per frame.
func movingSquare() []images.Image {
	return []images.Image{scene(square(16, 28)), scene(square(40, 28)), scene(square(64, 28))}
}

func feed(t *testing.T, e *Explorer, frames ...images.Image) {
	t.Helper()
	for i := range frames {
		f := frames[i].Clone()
		require.NoError(t, e.Process(&f))
	}
}

// middleSquare is the square as drawn in the middle frame.
func middleSquare() []image.Point {
	var pts []image.Point
	for y := 28; y < 36; y++ {
		for x := 40; x < 48; x++ {
			pts = append(pts, image.Pt(x, y))
		}
	}
	return pts
}

func TestExplorer_DetectsMovingSquare(t *testing.T) {
	for _, mode := range []PixelMode{PixelsProcessing, PixelsSource} {
		t.Run(mode.String(), func(t *testing.T) {
			cfg := testConfig()
			cfg.PixelMode = mode
			e, err := NewExplorer(cfg)
			require.NoError(t, err)
			defer e.Close()
			assert.Equal(t, cfg, e.Config())
			assert.Equal(t, StateCold, e.State())
			assert.Equal(t, 2, e.Step())
			require.Len(t, e.Levels(), 2)

			frames := movingSquare()
			feed(t, e, frames[0])
			assert.Equal(t, StateWarming, e.State())
			assert.False(t, e.HaveObject())
			feed(t, e, frames[1])
			assert.Equal(t, StateWarming, e.State())
			assert.False(t, e.HaveObject())
			feed(t, e, frames[2])
			assert.Equal(t, StateActive, e.State())
			assert.Equal(t, 3, e.Frames())

			require.True(t, e.HaveObject())
			obj, ok := e.Object()
			require.True(t, ok)
			assert.Equal(t, int16(17), obj.Left.X)
			assert.Equal(t, int16(71), obj.Right.X)
			assert.Equal(t, 12, obj.Strips)
			assert.Equal(t, ReasonNone, obj.Reason)
			assert.Len(t, e.Strips(), 12)
			assert.Len(t, e.Components(), 3)

			assert.Equal(t, images.Rect{X1: 16, Y1: 28, X2: 72, Y2: 36}, e.Bounds())
			assert.Equal(t, middleSquare(), e.Pixels())
			assert.Equal(t, 0, e.NoiseBias())
		})
	}
}

func TestExplorer_PixelsAreCached(t *testing.T) {
	e, err := NewExplorer(testConfig())
	require.NoError(t, err)
	defer e.Close()
	feed(t, e, movingSquare()...)

	first := e.Pixels()
	require.NotEmpty(t, first)
	assert.Same(t, &first[0], &e.Pixels()[0])
}

func TestExplorer_StaticSceneHasNoObject(t *testing.T) {
	e, err := NewExplorer(testConfig())
	require.NoError(t, err)
	defer e.Close()

	still := scene(square(40, 28))
	feed(t, e, still, still, still)

	assert.Equal(t, StateActive, e.State())
	assert.False(t, e.HaveObject())
	assert.Empty(t, e.Strips())
	assert.Empty(t, e.Clusters())
	assert.Empty(t, e.Pixels())
	assert.True(t, e.Bounds().Empty())
	_, ok := e.Object()
	assert.False(t, ok)
}

func TestExplorer_LongestCandidateWins(t *testing.T) {
	e, err := NewExplorer(testConfig())
	require.NoError(t, err)
	defer e.Close()

	// A slow square near the top leaves one long continuous streak; the fast
	// square below leaves three separate blobs.
	feed(t, e,
		scene(square(16, 4), square(16, 28)),
		scene(square(28, 4), square(40, 28)),
		scene(square(40, 4), square(64, 28)),
	)

	require.True(t, e.HaveObject())
	obj, _ := e.Object()
	assert.Equal(t, int16(17), obj.Left.X)
	assert.Equal(t, int16(47), obj.Right.X)
	assert.Equal(t, int16(8), obj.Left.Y)
	assert.Equal(t, images.Rect{X1: 16, Y1: 4, X2: 48, Y2: 12}, e.Bounds())

	clusters := e.Clusters()
	require.Len(t, clusters, 4)
	assert.Equal(t, ReasonSkipped, clusters[1].Reason)
	assert.Equal(t, 12, clusters[1].Strips)
}

func TestExplorer_ComponentsVariantRejectsBlobs(t *testing.T) {
	cfg := testConfig()
	cfg.Clustering = ClusterComponents
	e, err := NewExplorer(cfg)
	require.NoError(t, err)
	defer e.Close()
	feed(t, e, movingSquare()...)

	assert.False(t, e.HaveObject())
	require.Len(t, e.Clusters(), 3)
	for _, c := range e.Clusters() {
		assert.Equal(t, ReasonNotAnObject, c.Reason)
	}
}

func TestExplorer_SafetyCapDropsFrame(t *testing.T) {
	cfg := testConfig()
	cfg.MaxClusters = 2
	var buf bytes.Buffer
	e, err := NewExplorer(cfg, WithLogger(log.New(&buf, "", 0)))
	require.NoError(t, err)
	defer e.Close()
	feed(t, e, movingSquare()...)

	assert.False(t, e.HaveObject())
	assert.Empty(t, e.Clusters())
	assert.Len(t, e.Strips(), 12)
	assert.Contains(t, buf.String(), "explorer initialized")
	assert.Contains(t, buf.String(), "safety cap of 2")
}

func TestExplorer_FrameMismatch(t *testing.T) {
	truncated := scene()
	truncated.Data = truncated.Data[:10]

	tests := []struct {
		name  string
		frame *images.Image
	}{
		{name: "Nil frame", frame: nil},
		{name: "Wrong width", frame: &images.Image{Format: images.FormatGray, Width: 64, Height: 64, Data: make([]byte, 64*64)}},
		{name: "Wrong format", frame: func() *images.Image { f := images.NewImage(images.FormatRGB, 128, 64); return &f }()},
		{name: "Short buffer", frame: &truncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewExplorer(testConfig())
			require.NoError(t, err)
			defer e.Close()

			err = e.Process(tt.frame)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFrameMismatch), "got %v", err)
			assert.Equal(t, 0, e.Frames())
			assert.Equal(t, StateCold, e.State())
		})
	}
}

func TestExplorer_RecyclesOldestBuffer(t *testing.T) {
	e, err := NewExplorer(testConfig())
	require.NoError(t, err)
	defer e.Close()

	frames := append(movingSquare(), scene(square(88, 28)))
	var returned []images.Image
	for i := range frames {
		f := frames[i].Clone()
		require.NoError(t, e.Process(&f))
		returned = append(returned, f)
	}

	for _, r := range returned {
		assert.Equal(t, images.FormatGray, r.Format)
		assert.Len(t, r.Data, 128*64)
	}
	// The fourth frame pushed the first one out of the window.
	assert.Equal(t, frames[0].Data, returned[3].Data)
	assert.Equal(t, frames[3].Data, e.Levels()[0].Images[0].Data)
}

func TestExplorer_DebugImage(t *testing.T) {
	e, err := NewExplorer(testConfig())
	require.NoError(t, err)
	defer e.Close()

	// A static square never differs, so it only shows as dimmed background.
	static := square(104, 8)
	frames := []images.Image{
		scene(square(16, 28), static),
		scene(square(40, 28), static),
		scene(square(64, 28), static),
	}
	feed(t, e, frames[:2]...)
	assert.Nil(t, e.DebugImage())

	feed(t, e, frames[2])
	img := e.DebugImage()
	require.NotNil(t, img)
	assert.Equal(t, image.Rect(0, 0, 128, 64), img.Bounds())
	assert.Same(t, img, e.DebugImage())

	at := func(x, y int) color.RGBA {
		return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
	}
	assert.Equal(t, colorBounds, at(16, 28))
	assert.Equal(t, colorBounds, at(71, 35))
	assert.Equal(t, colorObject, at(44, 32))
	assert.Equal(t, color.RGBA{0x7f, 0x7f, 0x7f, 0xff}, at(105, 9))
	assert.Equal(t, color.RGBA{0, 0, 0, 0xff}, at(2, 60))
}

func TestExplorer_Profiler(t *testing.T) {
	p := profiler.New(profiler.ProfilingOptions{})
	e, err := NewExplorer(testConfig(), WithProfiler(p))
	require.NoError(t, err)
	defer e.Close()
	feed(t, e, movingSquare()...)

	pyramid, ok := p.Operation("pyramid")
	require.True(t, ok)
	assert.Equal(t, int64(3), pyramid.Count)
	diff, ok := p.Operation("diff")
	require.True(t, ok)
	assert.Equal(t, int64(2), diff.Count)
	for _, stage := range []string{"strips", "components", "clusters", "validate"} {
		_, ok := p.Operation(stage)
		assert.True(t, ok, stage)
	}

	strips, ok := p.Metric("strips")
	require.True(t, ok)
	assert.Equal(t, 12.0, strips.Avg)
	noise, ok := p.Metric("noise")
	require.True(t, ok)
	assert.Equal(t, 0.0, noise.Max)
	level, ok := p.Metric("noise_level")
	require.True(t, ok)
	assert.Equal(t, int64(1), level.Count)
	assert.Equal(t, 0.0, level.Max)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "cold", StateCold.String())
	assert.Equal(t, "warming", StateWarming.String())
	assert.Equal(t, "active", StateActive.String())
}

func BenchmarkExplorer_Process(b *testing.B) {
	cfg := DefaultConfig(1280, 720, images.FormatGray)
	e, err := NewExplorer(cfg)
	require.NoError(b, err)
	defer e.Close()

	var frames [3]images.Image
	for i := range frames {
		frames[i] = images.NewImage(images.FormatGray, 1280, 720)
		frames[i].Fill(images.Rect{X1: 200 + 240*i, Y1: 320, X2: 264 + 240*i, Y2: 384}, 0xff)
	}
	f := images.NewImage(images.FormatGray, 1280, 720)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(f.Data, frames[i%3].Data)
		if err := e.Process(&f); err != nil {
			b.Fatal(err)
		}
	}
}
