//go:build darwin

package capture

import (
	"bytes"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/motionsnap/platform/internal/errors"
)

type darwinBackend struct {
	tempDir string
	device  string
}

func (d *darwinBackend) captureRaw() ([]byte, error) {
	tmpFile := filepath.Join(d.tempDir, "capture.jpg")
	args := []string{"-q", tmpFile}
	if d.device != "" {
		args = append([]string{"-d", d.device}, args...)
	}
	cmd := exec.Command("imagesnap", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrap(err, errors.CodeCaptureUnavailable, "imagesnap failed").
			WithMetadata("stderr", stderr.String())
	}
	data, err := os.ReadFile(tmpFile)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeCaptureUnavailable, "read captured image")
	}
	os.Remove(tmpFile)
	return data, nil
}

func (d *darwinBackend) cleanup() {}

// newCamera creates a platform-specific camera source
func newCamera(device string) Source {
	tmpDir, err := os.MkdirTemp("", "motionsnap-capture-*")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		tmpDir = os.TempDir()
	}
	return newCameraBase(&darwinBackend{tempDir: tmpDir, device: device}, tmpDir)
}
