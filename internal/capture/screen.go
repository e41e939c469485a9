package capture

import (
	"github.com/vova616/screenshot"

	"github.com/motionsnap/platform/internal/errors"
	"github.com/motionsnap/platform/internal/frame"
)

// screenSource grabs the desktop instead of a camera. Useful on machines
// without a camera and for watching an on-screen scene.
type screenSource struct{}

// NewScreen creates a screen-grab source.
func NewScreen() Source { return &screenSource{} }

func (s *screenSource) Frame() (*frame.Frame, error) {
	img, err := screenshot.CaptureScreen()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCaptureUnavailable, "screen grab failed")
	}
	return frame.New(img), nil
}

func (s *screenSource) Close() {}
