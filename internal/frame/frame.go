// Package frame defines the sampled image type and the pixel-difference metric
package frame

import (
	"image"
	"image/draw"
	"time"

	"github.com/nfnt/resize"

	"github.com/motionsnap/platform/internal/errors"
)

// Frame is one sampled image from a capture source. The pixel data is
// owned by the Frame and must not be mutated after construction.
type Frame struct {
	img        *image.RGBA
	capturedAt time.Time
}

// New wraps an RGBA image without copying. The caller gives up ownership.
func New(img *image.RGBA) *Frame {
	return &Frame{img: img, capturedAt: time.Now()}
}

// FromImage converts any decoded image into a Frame, copying into RGBA.
func FromImage(src image.Image) *Frame {
	b := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	return New(rgba)
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.img.Rect.Dx() }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.img.Rect.Dy() }

// CapturedAt returns the capture timestamp.
func (f *Frame) CapturedAt() time.Time { return f.capturedAt }

// Image exposes the underlying RGBA image for encoding. Read-only.
func (f *Frame) Image() *image.RGBA { return f.img }

// Score computes the percentage of pixels that differ between two frames
// of identical dimensions. A pixel differs when at least one of its
// R, G, B channels deviates by more than ChannelThreshold; alpha is
// ignored. The result is in [0, 100], pure and symmetric.
func Score(a, b *Frame) (float64, error) {
	if a.Width() != b.Width() || a.Height() != b.Height() {
		return 0, errors.Newf(errors.CodeDimensionMismatch,
			"frame dimensions differ: %dx%d vs %dx%d",
			a.Width(), a.Height(), b.Width(), b.Height())
	}

	w, h := a.Width(), a.Height()
	total := w * h
	if total == 0 {
		return 0, errors.New(errors.CodeInvalidArgument, "empty frame")
	}

	diff := 0
	for y := 0; y < h; y++ {
		ao := a.img.PixOffset(a.img.Rect.Min.X, a.img.Rect.Min.Y+y)
		bo := b.img.PixOffset(b.img.Rect.Min.X, b.img.Rect.Min.Y+y)
		for x := 0; x < w; x++ {
			if channelDiffers(a.img.Pix[ao], b.img.Pix[bo]) ||
				channelDiffers(a.img.Pix[ao+1], b.img.Pix[bo+1]) ||
				channelDiffers(a.img.Pix[ao+2], b.img.Pix[bo+2]) {
				diff++
			}
			ao += 4
			bo += 4
		}
	}

	return float64(diff) / float64(total) * 100, nil
}

func channelDiffers(x, y uint8) bool {
	d := int(x) - int(y)
	if d < 0 {
		d = -d
	}
	return d > ChannelThreshold
}

// Normalize resizes f to the given dimensions, returning f unchanged when
// it already matches. Used to compare frames across a mid-session
// resolution change.
func Normalize(f *Frame, width, height int) *Frame {
	if f.Width() == width && f.Height() == height {
		return f
	}
	resized := resize.Resize(uint(width), uint(height), f.img, resize.Bilinear)
	nf := FromImage(resized)
	nf.capturedAt = f.capturedAt
	return nf
}
