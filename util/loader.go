// Package util - Helpers for feeding recorded frame sequences and capture
// devices into the detector.
package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrNoFrames is returned when a directory holds no frame files.
	ErrNoFrames = errors.New("no frame files found")
	// ErrFrameName is returned for an image file whose name carries no frame number.
	ErrFrameName = errors.New("file name carries no frame number")
)

// supportedImageExtensions lists the frame file formats the decoder accepts.
var supportedImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

// FrameFile is one frame of a recorded sequence.
type FrameFile struct {
	// Path is the path to the image file.
	Path string
	// Frame is the frame number parsed from the file name.
	Frame int
}

// Read returns the raw encoded bytes of the frame.
func (f FrameFile) Read() ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading frame %d", f.Frame)
	}
	return data, nil
}

// ParseFrameNumber extracts the frame number from names such as
// "frame-000123.png" or "123.jpg".
func ParseFrameNumber(name string) (int, error) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.TrimPrefix(base, "frame-")
	base = strings.TrimPrefix(base, "frame_")
	n, err := strconv.Atoi(base)
	if err != nil || n < 0 {
		return 0, errors.Wrapf(ErrFrameName, "%q", name)
	}
	return n, nil
}

// ListFrameFiles lists the image files of a directory in frame order. Frames
// are read lazily so long sequences do not have to fit in memory.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []FrameFile: The frames, sorted by frame number.
// - error: ErrFrameName for an image file without a frame number, ErrNoFrames for an empty directory.
func ListFrameFiles(dir string) ([]FrameFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", dir)
	}

	var frames []FrameFile
	for _, entry := range entries {
		if entry.IsDir() || !hasExtension(entry.Name(), supportedImageExtensions) {
			continue
		}
		frame, err := ParseFrameNumber(entry.Name())
		if err != nil {
			return nil, err
		}
		frames = append(frames, FrameFile{
			Path:  filepath.Join(dir, entry.Name()),
			Frame: frame,
		})
	}
	if len(frames) == 0 {
		return nil, errors.Wrapf(ErrNoFrames, "in %s", dir)
	}

	sort.Slice(frames, func(i, j int) bool {
		return frames[i].Frame < frames[j].Frame
	})
	return frames, nil
}

func hasExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}
