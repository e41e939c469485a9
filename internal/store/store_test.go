package store

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/motionsnap/platform/internal/frame"
)

func makeFrame(w, h int) *frame.Frame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 64, A: 255})
		}
	}
	return frame.New(img)
}

func TestNewCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	s, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", s.Dir(), dir)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("output dir should exist: %v", err)
	}
}

func TestSave(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	name := SuggestedName()
	saved, err := s.Save(context.Background(), makeFrame(32, 24), name)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if saved.Seq != 1 {
		t.Errorf("Seq = %d, want 1", saved.Seq)
	}
	if saved.Size <= 0 {
		t.Errorf("Size = %d, want > 0", saved.Size)
	}

	f, err := os.Open(saved.Path)
	if err != nil {
		t.Fatalf("saved file missing: %v", err)
	}
	defer f.Close()

	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("saved file is not a valid JPEG: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 24 {
		t.Errorf("saved dimensions = %dx%d, want 32x24", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestSaveSequenceIncrements(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	f := makeFrame(8, 8)
	for i := int64(1); i <= 3; i++ {
		saved, err := s.Save(context.Background(), f, SuggestedName())
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if saved.Seq != i {
			t.Errorf("Seq = %d, want %d", saved.Seq, i)
		}
	}
}

func TestSuggestedName(t *testing.T) {
	name := SuggestedName()
	if !strings.HasPrefix(name, FilePrefix) {
		t.Errorf("name %q should have prefix %q", name, FilePrefix)
	}
	if !strings.HasSuffix(name, ".jpg") {
		t.Errorf("name %q should have suffix .jpg", name)
	}
}

func TestSaveFailureDoesNotAdvanceSeq(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	// Point the store at a path that cannot be written
	s.dir = filepath.Join(dir, "missing", "deeper")
	s.retry.MaxRetries = 1
	s.retry.BaseDelay = 1

	if _, err := s.Save(context.Background(), makeFrame(4, 4), "x.jpg"); err == nil {
		t.Fatal("expected save failure")
	}

	s.dir = dir
	saved, err := s.Save(context.Background(), makeFrame(4, 4), "y.jpg")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.Seq != 1 {
		t.Errorf("Seq = %d, want 1 (failures must not consume sequence numbers)", saved.Seq)
	}
}
