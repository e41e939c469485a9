// Package store persists accepted frames to the local filesystem
package store

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/motionsnap/platform/internal/errors"
	"github.com/motionsnap/platform/internal/frame"
	"github.com/motionsnap/platform/internal/resilience"
)

// Saved confirms a completed save.
type Saved struct {
	Seq  int64  // sequence number within this store, starting at 1
	Path string // absolute path of the written file
	Size int64  // bytes written
}

// Saver is the persistence boundary the sampler writes through.
type Saver interface {
	Save(ctx context.Context, f *frame.Frame, suggestedName string) (Saved, error)
}

// Store writes frames as JPEG files into a single output directory.
// Transient write failures are retried with backoff; a circuit breaker
// keeps a dead disk from being hammered on every tick.
type Store struct {
	dir     string
	seq     atomic.Int64
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return nil, errors.Wrapf(err, errors.CodeStoreUnavailable, "create output dir %s", dir)
	}
	return &Store{
		dir:     dir,
		breaker: resilience.NewBreaker(resilience.DefaultConfig()),
		retry:   resilience.DefaultRetryConfig(),
	}, nil
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// SuggestedName returns the conventional file name for a frame saved now.
func SuggestedName() string {
	return fmt.Sprintf("%s%d.jpg", FilePrefix, time.Now().UnixMilli())
}

// Save encodes f as JPEG and writes it under the suggested name. On
// success it returns the confirmation with this store's next sequence
// number. Encode failures are terminal; write failures are retried.
func (s *Store) Save(ctx context.Context, f *frame.Frame, suggestedName string) (Saved, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, f.Image(), &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return Saved{}, errors.Wrap(err, errors.CodeEncodeFailed, "jpeg encode")
	}

	path := filepath.Join(s.dir, suggestedName)
	err := s.breaker.Execute(func() error {
		return resilience.Retry(ctx, s.retry, func() error {
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return errors.Wrapf(err, errors.CodeStoreFailed, "write %s", path)
			}
			return nil
		})
	})
	if err != nil {
		if err == resilience.ErrOpen {
			err = errors.Wrap(err, errors.CodeStoreUnavailable, "store suspended after repeated failures")
		}
		return Saved{}, err
	}

	saved := Saved{
		Seq:  s.seq.Add(1),
		Path: path,
		Size: int64(buf.Len()),
	}
	slog.Debug("frame saved", "seq", saved.Seq, "path", saved.Path, "bytes", saved.Size)
	return saved, nil
}
