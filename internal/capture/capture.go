// Package capture provides frame acquisition from camera and screen sources
package capture

import (
	"bytes"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder
	"os"

	"github.com/motionsnap/platform/internal/config"
	"github.com/motionsnap/platform/internal/errors"
	"github.com/motionsnap/platform/internal/frame"
)

// Source supplies the current frame from a live capture device.
type Source interface {
	Frame() (*frame.Frame, error)
	Close()
}

// New creates a source for the configured capture kind.
func New(cfg *config.Config) Source {
	if cfg.CaptureSource == "screen" {
		return NewScreen()
	}
	return newCamera(cfg.CaptureDevice)
}

// backend implements platform-specific raw capture, returning an encoded image.
type backend interface {
	captureRaw() ([]byte, error)
	cleanup()
}

// cameraSource decodes backend output into frames.
type cameraSource struct {
	backend
	tempDir string
}

func newCameraBase(b backend, tempDir string) *cameraSource {
	return &cameraSource{backend: b, tempDir: tempDir}
}

func (c *cameraSource) Frame() (*frame.Frame, error) {
	data, err := c.captureRaw()
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDecodeFailed, "decode captured image")
	}
	return frame.FromImage(img), nil
}

func (c *cameraSource) Close() {
	c.cleanup()
	if c.tempDir != "" {
		os.RemoveAll(c.tempDir)
	}
}
