//go:build windows

package capture

import (
	"log/slog"

	"github.com/motionsnap/platform/internal/errors"
)

type windowsBackend struct{}

func (w *windowsBackend) captureRaw() ([]byte, error) {
	// TODO: Implement using Media Foundation or DirectShow
	return nil, errors.New(errors.CodeCaptureUnavailable, "Windows camera capture not yet implemented")
}

func (w *windowsBackend) cleanup() {}

// newCamera creates a platform-specific camera source
func newCamera(device string) Source {
	slog.Warn("camera capture unsupported on Windows, use CAPTURE_SOURCE=screen")
	return newCameraBase(&windowsBackend{}, "")
}
