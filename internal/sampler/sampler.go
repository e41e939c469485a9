// Package sampler implements the change-triggered frame sampler
package sampler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/motionsnap/platform/internal/capture"
	"github.com/motionsnap/platform/internal/errors"
	"github.com/motionsnap/platform/internal/frame"
	"github.com/motionsnap/platform/internal/store"
)

// Event describes one accepted frame.
type Event struct {
	Count      int       // session saved-frame count after this accept
	Seq        int64     // persistence sequence number, 0 when the save failed
	Score      float64   // difference score that triggered the accept, 0 on first frame
	Path       string    // saved file path, empty when the save failed
	SaveFailed bool      // persistence failed; the frame was still accepted
	HashDist   int       // perceptual distance to the previous accept, 0 on first frame
	CapturedAt time.Time // when the frame was sampled
}

// Sampler pulls one frame per tick from the source and saves it when it
// differs enough from the last accepted frame. All tick work, including
// the reference frame and comparison, runs on a single loop goroutine;
// only the externally queryable state is guarded by the mutex.
type Sampler struct {
	source   capture.Source
	saver    store.Saver
	interval time.Duration

	mu      sync.RWMutex
	running bool
	count   int

	// Loop-owned state, never touched outside the loop goroutine.
	ref         *frame.Frame
	captureDown bool

	stopCh chan struct{}
	done   chan struct{}
	events chan Event
}

// New creates a sampler over the given source and saver.
func New(source capture.Source, saver store.Saver) *Sampler {
	return &Sampler{
		source:   source,
		saver:    saver,
		interval: TickInterval,
		events:   make(chan Event, EventBuffer),
	}
}

// Events returns the channel of accepted-frame events.
func (s *Sampler) Events() <-chan Event { return s.events }

// Running reports whether a session is active.
func (s *Sampler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// SavedCount returns the current session's saved-frame count. It resets
// to zero on every Start.
func (s *Sampler) SavedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Start begins a session: resets the counter, clears the reference frame
// and arms the repeating tick. Valid only when idle.
func (s *Sampler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New(errors.CodeSessionState, "sampler already running")
	}
	s.running = true
	s.count = 0
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	s.mu.Unlock()

	s.ref = nil
	s.captureDown = false

	go s.loop(ctx, s.stopCh, s.done)
	return nil
}

// Stop disarms the tick and waits for the loop to exit. After Stop
// returns no further tick runs. Valid only when running.
func (s *Sampler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return errors.New(errors.CodeSessionState, "sampler not running")
	}
	stopCh, done := s.stopCh, s.done
	s.mu.Unlock()

	close(stopCh)
	<-done

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

func (s *Sampler) loop(ctx context.Context, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one sample-compare-decide pass. Errors are terminal to this
// tick only; the session always continues.
func (s *Sampler) tick(ctx context.Context) {
	f, err := s.source.Frame()
	if err != nil {
		// Log outages once, not per tick
		if !s.captureDown {
			slog.Warn("capture unavailable, skipping ticks", "error", err)
			s.captureDown = true
		}
		return
	}
	s.captureDown = false

	var score float64
	if s.ref != nil {
		cand := frame.Normalize(f, s.ref.Width(), s.ref.Height())
		score, err = frame.Score(cand, s.ref)
		if err != nil {
			slog.Error("frame comparison failed", "error", err)
			return
		}
		if score < AcceptScore {
			return
		}
	}

	s.accept(ctx, f, score)
}

// accept persists the frame and advances session state. The reference
// frame and counter track accepted frames, not completed saves, so they
// advance even when persistence fails.
func (s *Sampler) accept(ctx context.Context, f *frame.Frame, score float64) {
	prev := s.ref
	s.ref = f

	s.mu.Lock()
	s.count++
	count := s.count
	s.mu.Unlock()

	evt := Event{Count: count, Score: score, CapturedAt: f.CapturedAt()}
	if prev != nil {
		if dist, err := frame.PerceptualDistance(prev, f); err == nil {
			evt.HashDist = dist
		}
	}

	saved, err := s.saver.Save(ctx, f, store.SuggestedName())
	if err != nil {
		slog.Error("frame persist failed", "count", count, "error", err)
		evt.SaveFailed = true
	} else {
		evt.Seq = saved.Seq
		evt.Path = saved.Path
	}

	select {
	case s.events <- evt:
	default:
		slog.Debug("event channel full, dropping save event", "count", count)
	}
}
