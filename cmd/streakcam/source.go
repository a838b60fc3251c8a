package main

import (
	"log"

	"github.com/nvr-ai/go-streak/util"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// frameSource yields decoded BGR frames.
type frameSource interface {
	Read(dst *gocv.Mat) bool
	Close() error
}

func openSource(input util.InputConfig) (frameSource, error) {
	switch input.Type {
	case util.InputVideo:
		capture, err := gocv.OpenVideoCapture(input.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "opening video file %s", input.Path)
		}
		return capture, nil
	case util.InputFrames:
		files, err := util.ListFrameFiles(input.Path)
		if err != nil {
			return nil, err
		}
		return &directorySource{files: files}, nil
	default:
		capture, err := gocv.OpenVideoCapture(input.DeviceID)
		if err != nil {
			return nil, errors.Wrapf(err, "opening video capture device %d", input.DeviceID)
		}
		return capture, nil
	}
}

// directorySource decodes numbered frame files one at a time.
type directorySource struct {
	files []util.FrameFile
	next  int
}

func (d *directorySource) Read(dst *gocv.Mat) bool {
	for d.next < len(d.files) {
		f := d.files[d.next]
		d.next++

		data, err := f.Read()
		if err != nil {
			log.Printf("⚠️  skipping frame %d: %v", f.Frame, err)
			continue
		}
		mat, err := gocv.IMDecode(data, gocv.IMReadColor)
		if err != nil {
			log.Printf("⚠️  skipping undecodable frame %s: %v", f.Path, err)
			continue
		}
		if mat.Empty() {
			log.Printf("⚠️  skipping empty frame %s", f.Path)
			mat.Close()
			continue
		}
		mat.CopyTo(dst)
		mat.Close()
		return true
	}
	return false
}

func (d *directorySource) Close() error {
	return nil
}
