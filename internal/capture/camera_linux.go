//go:build linux

package capture

import (
	"bytes"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/motionsnap/platform/internal/errors"
)

type linuxBackend struct {
	tempDir string
	device  string
}

func (l *linuxBackend) captureRaw() ([]byte, error) {
	tmpFile := filepath.Join(l.tempDir, "capture.jpg")
	device := l.device
	if device == "" {
		device = "/dev/video0"
	}
	// Try fswebcam first, fall back to ffmpeg's v4l2 input
	var cmd *exec.Cmd
	if _, err := exec.LookPath("fswebcam"); err == nil {
		cmd = exec.Command("fswebcam", "-d", device, "--no-banner", "-q", tmpFile)
	} else if _, err := exec.LookPath("ffmpeg"); err == nil {
		cmd = exec.Command("ffmpeg", "-y", "-loglevel", "error", "-f", "v4l2", "-i", device, "-frames:v", "1", tmpFile)
	} else {
		return nil, errors.New(errors.CodeCaptureUnavailable, "no camera tool found (install fswebcam or ffmpeg)")
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(err, errors.CodeCaptureUnavailable, "camera capture failed").
			WithMetadata("stderr", stderr.String())
	}
	data, err := os.ReadFile(tmpFile)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCaptureUnavailable, "read captured image")
	}
	os.Remove(tmpFile)
	return data, nil
}

func (l *linuxBackend) cleanup() {}

// newCamera creates a platform-specific camera source
func newCamera(device string) Source {
	tmpDir, err := os.MkdirTemp("", "motionsnap-capture-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		tmpDir = os.TempDir()
	}
	return newCameraBase(&linuxBackend{tempDir: tmpDir, device: device}, tmpDir)
}
