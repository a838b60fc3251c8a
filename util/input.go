package util

import (
	"os"

	"github.com/pkg/errors"
)

// supportedVideoExtensions lists the container formats the capture backend opens.
var supportedVideoExtensions = []string{".mp4", ".avi", ".mov", ".mkv"}

// ErrInput is returned for an unusable combination of input flags.
var ErrInput = errors.New("invalid input")

// InputType represents the type of input being processed.
type InputType int

const (
	// InputCamera reads from a capture device.
	InputCamera InputType = iota
	// InputVideo reads from a video file.
	InputVideo
	// InputFrames reads a directory of numbered image files.
	InputFrames
)

func (t InputType) String() string {
	switch t {
	case InputCamera:
		return "camera"
	case InputVideo:
		return "video"
	case InputFrames:
		return "frames"
	}
	return "unknown"
}

// InputConfig holds the input configuration.
type InputConfig struct {
	Type     InputType
	Path     string
	DeviceID int
}

// ResolveInput turns the command line input flags into an InputConfig. With
// neither a video nor a frame directory it falls back to the camera.
func ResolveInput(videoPath, framesDir string, deviceID int) (InputConfig, error) {
	switch {
	case videoPath != "" && framesDir != "":
		return InputConfig{}, errors.Wrap(ErrInput, "cannot use both a video and a frame directory")
	case videoPath != "":
		if err := validateFile(videoPath, supportedVideoExtensions); err != nil {
			return InputConfig{}, err
		}
		return InputConfig{Type: InputVideo, Path: videoPath}, nil
	case framesDir != "":
		info, err := os.Stat(framesDir)
		if err != nil {
			return InputConfig{}, errors.Wrapf(ErrInput, "frame directory: %v", err)
		}
		if !info.IsDir() {
			return InputConfig{}, errors.Wrapf(ErrInput, "%s is not a directory", framesDir)
		}
		return InputConfig{Type: InputFrames, Path: framesDir}, nil
	}
	if deviceID < 0 {
		return InputConfig{}, errors.Wrapf(ErrInput, "device id %d", deviceID)
	}
	return InputConfig{Type: InputCamera, DeviceID: deviceID}, nil
}

// validateFile checks that the file exists and has a supported extension.
func validateFile(path string, extensions []string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(ErrInput, "%v", err)
	}
	if info.IsDir() {
		return errors.Wrapf(ErrInput, "%s is a directory", path)
	}
	if !hasExtension(path, extensions) {
		return errors.Wrapf(ErrInput, "unsupported file extension: %s (supported: %v)", path, extensions)
	}
	return nil
}
