package sampler

import (
	"context"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/motionsnap/platform/internal/errors"
	"github.com/motionsnap/platform/internal/frame"
	"github.com/motionsnap/platform/internal/store"
)

type fakeSource struct {
	mu     sync.Mutex
	frames []*frame.Frame
	idx    int
	err    error
	calls  int
}

func (f *fakeSource) Frame() (*frame.Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	fr := f.frames[f.idx]
	if f.idx < len(f.frames)-1 {
		f.idx++
	}
	return fr, nil
}

func (f *fakeSource) Close() {}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSaver struct {
	mu    sync.Mutex
	saves int
	err   error
}

func (f *fakeSaver) Save(_ context.Context, _ *frame.Frame, name string) (store.Saved, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return store.Saved{}, f.err
	}
	f.saves++
	return store.Saved{Seq: int64(f.saves), Path: name}, nil
}

func (f *fakeSaver) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

// solid returns a w x h frame filled with one color.
func solid(w, h int, c color.RGBA) *frame.Frame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return frame.New(img)
}

var black = color.RGBA{A: 255}
var white = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// variant returns a 40x25 black frame (1000 pixels) with exactly n
// pixels flipped to white, so that Score(base, variant) = n/10 percent.
func variant(n int) *frame.Frame {
	f := solid(40, 25, black)
	img := f.Image()
	for i := 0; i < n; i++ {
		img.SetRGBA(i%40, i/40, white)
	}
	return f
}

func drainEvent(t *testing.T, s *Sampler) Event {
	t.Helper()
	select {
	case evt := <-s.Events():
		return evt
	default:
		t.Fatal("expected a save event")
		return Event{}
	}
}

func TestFirstTickAlwaysAccepts(t *testing.T) {
	src := &fakeSource{frames: []*frame.Frame{solid(40, 25, black)}}
	sv := &fakeSaver{}
	s := New(src, sv)

	s.tick(context.Background())

	if got := s.SavedCount(); got != 1 {
		t.Errorf("SavedCount() = %d, want 1", got)
	}
	if sv.saveCount() != 1 {
		t.Errorf("saves = %d, want 1", sv.saveCount())
	}

	evt := drainEvent(t, s)
	if evt.Count != 1 || evt.Seq != 1 || evt.Score != 0 {
		t.Errorf("event = %+v, want Count=1 Seq=1 Score=0", evt)
	}
}

func TestRejectBelowThreshold(t *testing.T) {
	// 499 of 1000 pixels changed: score 49.9, just under the threshold
	src := &fakeSource{frames: []*frame.Frame{variant(0), variant(499)}}
	sv := &fakeSaver{}
	s := New(src, sv)

	s.tick(context.Background())
	s.tick(context.Background())

	if got := s.SavedCount(); got != 1 {
		t.Errorf("SavedCount() = %d, want 1 (49.9 must reject)", got)
	}
	if sv.saveCount() != 1 {
		t.Errorf("saves = %d, want 1", sv.saveCount())
	}
}

func TestAcceptAtThreshold(t *testing.T) {
	// Exactly 50.0: the threshold is inclusive
	src := &fakeSource{frames: []*frame.Frame{variant(0), variant(500)}}
	sv := &fakeSaver{}
	s := New(src, sv)

	s.tick(context.Background())
	s.tick(context.Background())

	if got := s.SavedCount(); got != 2 {
		t.Errorf("SavedCount() = %d, want 2 (50.0 must accept)", got)
	}

	drainEvent(t, s)
	evt := drainEvent(t, s)
	if evt.Score != 50.0 {
		t.Errorf("event score = %f, want 50.0", evt.Score)
	}
}

func TestRejectionKeepsReference(t *testing.T) {
	// After a rejection the reference stays at the last accepted frame,
	// so cumulative drift across rejected frames can still accept.
	src := &fakeSource{frames: []*frame.Frame{variant(0), variant(499), variant(998)}}
	sv := &fakeSaver{}
	s := New(src, sv)

	s.tick(context.Background()) // accept, reference = variant(0)
	s.tick(context.Background()) // 49.9 vs reference: reject
	s.tick(context.Background()) // 99.8 vs reference: accept

	if got := s.SavedCount(); got != 2 {
		t.Errorf("SavedCount() = %d, want 2", got)
	}
}

func TestCaptureUnavailableSkipsTick(t *testing.T) {
	src := &fakeSource{err: errors.New(errors.CodeCaptureUnavailable, "no camera")}
	sv := &fakeSaver{}
	s := New(src, sv)

	s.tick(context.Background())
	s.tick(context.Background())

	if got := s.SavedCount(); got != 0 {
		t.Errorf("SavedCount() = %d, want 0", got)
	}
	select {
	case evt := <-s.Events():
		t.Errorf("unexpected event %+v", evt)
	default:
	}
}

func TestPersistFailureStillAccepts(t *testing.T) {
	src := &fakeSource{frames: []*frame.Frame{variant(0), variant(0)}}
	sv := &fakeSaver{err: errors.New(errors.CodeStoreFailed, "disk full")}
	s := New(src, sv)

	s.tick(context.Background())

	if got := s.SavedCount(); got != 1 {
		t.Errorf("SavedCount() = %d, want 1 (accept is independent of persistence)", got)
	}
	evt := drainEvent(t, s)
	if !evt.SaveFailed {
		t.Error("event should be marked SaveFailed")
	}
	if evt.Seq != 0 {
		t.Errorf("Seq = %d, want 0 for failed save", evt.Seq)
	}

	// The failed frame became the reference: an identical frame now rejects
	s.tick(context.Background())
	if got := s.SavedCount(); got != 1 {
		t.Errorf("SavedCount() = %d, want 1 (identical frame must reject)", got)
	}
}

func TestDimensionChangeNormalized(t *testing.T) {
	// Resolution changes mid-session; the candidate is resized to the
	// reference dimensions before comparison.
	src := &fakeSource{frames: []*frame.Frame{solid(20, 20, black), solid(40, 40, white)}}
	sv := &fakeSaver{}
	s := New(src, sv)

	s.tick(context.Background())
	s.tick(context.Background())

	if got := s.SavedCount(); got != 2 {
		t.Errorf("SavedCount() = %d, want 2 (all-white vs all-black must accept)", got)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	src := &fakeSource{frames: []*frame.Frame{variant(0)}}
	sv := &fakeSaver{}
	s := New(src, sv)
	s.interval = 5 * time.Millisecond

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !s.Running() {
		t.Error("Running() = false, want true")
	}

	// Starting while running is invalid
	if err := s.Start(context.Background()); !errors.IsCode(err, errors.CodeSessionState) {
		t.Errorf("second Start() error = %v, want session state error", err)
	}

	time.Sleep(40 * time.Millisecond)

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if s.Running() {
		t.Error("Running() = true after Stop, want false")
	}
	if s.SavedCount() < 1 {
		t.Errorf("SavedCount() = %d, want >= 1 after running", s.SavedCount())
	}

	// No tick fires after Stop returns
	calls := src.callCount()
	time.Sleep(30 * time.Millisecond)
	if got := src.callCount(); got != calls {
		t.Errorf("source calls advanced from %d to %d after Stop", calls, got)
	}

	// Stopping while idle is invalid
	if err := s.Stop(); !errors.IsCode(err, errors.CodeSessionState) {
		t.Errorf("Stop() while idle error = %v, want session state error", err)
	}
}

func TestRestartResetsSession(t *testing.T) {
	src := &fakeSource{frames: []*frame.Frame{variant(0)}}
	sv := &fakeSaver{}
	s := New(src, sv)

	s.tick(context.Background())
	if got := s.SavedCount(); got != 1 {
		t.Fatalf("SavedCount() = %d, want 1", got)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := s.SavedCount(); got != 0 {
		t.Errorf("SavedCount() after restart = %d, want 0", got)
	}
	if s.ref != nil {
		t.Error("reference frame should be cleared on Start")
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestContextCancelStopsLoop(t *testing.T) {
	src := &fakeSource{frames: []*frame.Frame{variant(0)}}
	sv := &fakeSaver{}
	s := New(src, sv)
	s.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()
	time.Sleep(20 * time.Millisecond)

	calls := src.callCount()
	time.Sleep(20 * time.Millisecond)
	if got := src.callCount(); got != calls {
		t.Errorf("source calls advanced after context cancel")
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}
