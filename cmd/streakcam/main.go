// Command streakcam runs the streak detector over a camera, a video file or a
// directory of numbered frames and draws the detected object.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"time"

	"github.com/nvr-ai/go-streak/detector"
	"github.com/nvr-ai/go-streak/images"
	"github.com/nvr-ai/go-streak/profiler"
	"github.com/nvr-ai/go-streak/strips"
	"github.com/nvr-ai/go-streak/util"
	"gocv.io/x/gocv"
)

const (
	// defaultMaxHeight is the processing height budget for live sources.
	defaultMaxHeight = 120
	// defaultReportEvery is the number of frames between profiler reports.
	defaultReportEvery = 300
)

var boxColor = color.RGBA{0, 255, 0, 0}

func main() {
	var (
		videoPath   string
		framesDir   string
		deviceID    int
		maxHeight   int
		minMotion   float64
		pixelMode   string
		clustering  string
		stripKind   string
		showWindow  bool
		showDebug   bool
		reportEvery int
		verbose     bool
	)
	flag.StringVar(&videoPath, "video", "", "Path to video file (.mp4, .avi, .mov, .mkv)")
	flag.StringVar(&framesDir, "frames", "", "Directory of numbered frame images (frame-N.png)")
	flag.IntVar(&deviceID, "device", 0, "Video capture device to use when no file input is given")
	flag.IntVar(&maxHeight, "max-height", defaultMaxHeight, "Maximum processing height; the pyramid halves frames until they fit")
	flag.Float64Var(&minMotion, "min-motion", 0.1, "Displacement each streak end must move, as a fraction of its span")
	flag.StringVar(&pixelMode, "pixels", detector.PixelsProcessing.String(), "Pixel reporting mode: processing or source")
	flag.StringVar(&clustering, "clustering", detector.ClusterAgglomerative.String(), "Clustering strategy: agglomerative or components")
	flag.StringVar(&stripKind, "strips", strips.KindSandwiched.String(), "Strip generation: sandwiched or loose")
	flag.BoolVar(&showWindow, "show-window", false, "Show the annotated frames")
	flag.BoolVar(&showDebug, "show-debug", false, "Show the intermediate detector state")
	flag.IntVar(&reportEvery, "report-every", defaultReportEvery, "Frames between profiler reports (0 disables)")
	flag.BoolVar(&verbose, "verbose", false, "Log detector internals")
	flag.Parse()

	input, err := util.ResolveInput(videoPath, framesDir, deviceID)
	if err != nil {
		log.Fatal(err)
	}

	source, err := openSource(input)
	if err != nil {
		log.Fatal(err)
	}
	defer source.Close()

	logger := log.New(os.Stderr, "streakcam: ", log.LstdFlags)
	prof := profiler.New(profiler.ProfilingOptions{MaxSamples: 600})

	img := gocv.NewMat()
	defer img.Close()
	gray := gocv.NewMat()
	defer gray.Close()

	var window, debugWindow *gocv.Window
	if showWindow {
		window = gocv.NewWindow("Streak Detection")
		defer window.Close()
	}
	if showDebug {
		debugWindow = gocv.NewWindow("Streak Debug")
		defer debugWindow.Close()
	}

	var (
		explorer *detector.Explorer
		frame    images.Image
		crop     image.Rectangle
	)
	frameCounter, objects := 0, 0
	for {
		if ok := source.Read(&img); !ok {
			fmt.Printf("End of input: %s\n", describe(input))
			break
		}
		if img.Empty() {
			continue
		}

		if explorer == nil {
			w, h := detector.FitShape(img.Cols(), img.Rows(), maxHeight)
			crop = image.Rect(0, 0, w, h)

			cfg := detector.DefaultConfig(w, h, images.FormatGray)
			cfg.MaxHeight = maxHeight
			cfg.MinMotion = float32(minMotion)
			if cfg.PixelMode, err = parsePixelMode(pixelMode); err != nil {
				log.Fatal(err)
			}
			if cfg.Clustering, err = parseClustering(clustering); err != nil {
				log.Fatal(err)
			}
			if cfg.StripKind, err = parseStripKind(stripKind); err != nil {
				log.Fatal(err)
			}

			opts := []detector.Option{detector.WithProfiler(prof)}
			if verbose {
				opts = append(opts, detector.WithLogger(logger))
			}
			if explorer, err = detector.NewExplorer(cfg, opts...); err != nil {
				log.Fatalf("❌ %v", err)
			}
			frame = images.NewImage(images.FormatGray, w, h)
			printConfig(input, img, explorer)
		}
		if img.Cols() < crop.Dx() || img.Rows() < crop.Dy() {
			log.Fatalf("❌ frame %d shrank to %dx%d", frameCounter, img.Cols(), img.Rows())
		}

		stop := prof.StartOperation("frame")
		region := img.Region(crop)
		gocv.CvtColor(region, &gray, gocv.ColorBGRToGray)
		region.Close()
		data, err := gray.DataPtrUint8()
		if err != nil {
			log.Fatalf("❌ reading frame %d: %v", frameCounter, err)
		}
		copy(frame.Data, data)
		if err := explorer.Process(&frame); err != nil {
			log.Fatalf("❌ frame %d: %v", frameCounter, err)
		}
		stop()

		if explorer.HaveObject() {
			objects++
			obj, _ := explorer.Object()
			b := explorer.Bounds()
			fmt.Printf("[%s] 🎯 Frame %d: object at %v (%d strips, %d pixels, bias %d)\n",
				time.Now().Format("15:04:05.000"), frameCounter, b.Rectangle(), obj.Strips,
				len(explorer.Pixels()), explorer.NoiseBias())
			gocv.Rectangle(&img, b.Rectangle(), boxColor, 2)
		}

		if window != nil {
			status := fmt.Sprintf("Frame %d | %s | Objects: %d", frameCounter, explorer.State(), objects)
			gocv.PutText(&img, status, image.Pt(10, 30), gocv.FontHersheyPlain, 1.2, color.RGBA{255, 255, 255, 0}, 2)
			window.IMShow(img)
			window.WaitKey(1)
		}
		if debugWindow != nil {
			showDebugImage(debugWindow, explorer)
		}

		frameCounter++
		if reportEvery > 0 && frameCounter%reportEvery == 0 {
			prof.Report(os.Stdout)
		}
	}

	if explorer != nil {
		explorer.Close()
	}
	fmt.Printf("\n✅ Processed %d frames, %d with an object\n", frameCounter, objects)
	prof.Report(os.Stdout)
}

func showDebugImage(window *gocv.Window, explorer *detector.Explorer) {
	debug := explorer.DebugImage()
	if debug == nil {
		return
	}
	mat, err := gocv.ImageToMatRGB(debug)
	if err != nil {
		log.Printf("⚠️  debug image: %v", err)
		return
	}
	defer mat.Close()
	window.IMShow(mat)
	window.WaitKey(1)
}

func printConfig(input util.InputConfig, img gocv.Mat, explorer *detector.Explorer) {
	cfg := explorer.Config()
	fmt.Printf("\n🚀 Streak Detection Started\n")
	fmt.Printf("=====================================\n")
	fmt.Printf("⚙️  Configuration:\n")
	fmt.Printf("   🎥 Input: %s\n", describe(input))
	fmt.Printf("   📐 Source: %dx%d, cropped to %dx%d\n", img.Cols(), img.Rows(), cfg.Width, cfg.Height)
	fmt.Printf("   🔻 Pyramid: %d levels, step %d\n", len(explorer.Levels()), explorer.Step())
	fmt.Printf("   📏 Min motion: %.2f of span\n", cfg.MinMotion)
	fmt.Printf("   🧩 Strips: %v | Clustering: %v | Pixels: %v\n", cfg.StripKind, cfg.Clustering, cfg.PixelMode)
	fmt.Printf("=====================================\n\n")
}

func describe(input util.InputConfig) string {
	switch input.Type {
	case util.InputCamera:
		return fmt.Sprintf("Camera (Device %d)", input.DeviceID)
	case util.InputVideo:
		return fmt.Sprintf("Video: %s", input.Path)
	case util.InputFrames:
		return fmt.Sprintf("Frames: %s", input.Path)
	}
	return "Unknown"
}

func parsePixelMode(s string) (detector.PixelMode, error) {
	for _, m := range []detector.PixelMode{detector.PixelsProcessing, detector.PixelsSource} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown pixel mode %q", s)
}

func parseClustering(s string) (detector.ClusterVariant, error) {
	for _, v := range []detector.ClusterVariant{detector.ClusterAgglomerative, detector.ClusterComponents} {
		if v.String() == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown clustering %q", s)
}

func parseStripKind(s string) (strips.Kind, error) {
	for _, k := range []strips.Kind{strips.KindSandwiched, strips.KindLoose} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown strip kind %q", s)
}
