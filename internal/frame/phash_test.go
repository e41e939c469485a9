package frame

import (
	"image"
	"image/color"
	"testing"
)

// makePattern builds visually distinct 64x64 frames for hash testing.
func makePattern(pattern int) *Frame {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			var c color.RGBA
			switch pattern {
			case 0: // solid gray
				c = color.RGBA{R: 128, G: 128, B: 128, A: 255}
			case 1: // checkerboard
				if (x/8+y/8)%2 == 0 {
					c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
				} else {
					c = color.RGBA{R: 0, G: 0, B: 0, A: 255}
				}
			case 2: // horizontal gradient
				c = color.RGBA{R: uint8(x * 4), G: 0, B: uint8(255 - x*4), A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return New(img)
}

func TestPerceptualDistanceIdentical(t *testing.T) {
	a := makePattern(1)

	dist, err := PerceptualDistance(a, a)
	if err != nil {
		t.Fatalf("PerceptualDistance() error = %v", err)
	}
	if dist != 0 {
		t.Errorf("distance = %d, want 0 for identical frames", dist)
	}
}

func TestPerceptualDistanceDistinct(t *testing.T) {
	a := makePattern(1) // checkerboard
	b := makePattern(2) // gradient

	dist, err := PerceptualDistance(a, b)
	if err != nil {
		t.Fatalf("PerceptualDistance() error = %v", err)
	}
	if dist == 0 {
		t.Error("visually distinct frames should have nonzero distance")
	}
}
