package frame

import (
	"github.com/corona10/goimagehash"

	"github.com/motionsnap/platform/internal/errors"
)

// PerceptualDistance returns the Hamming distance between the perception
// hashes of two frames. Unlike Score it is robust to dimension changes,
// so it serves as a scene-change magnitude indicator on save events.
func PerceptualDistance(a, b *Frame) (int, error) {
	ha, err := goimagehash.PerceptionHash(a.img)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeInternal, "perception hash")
	}
	hb, err := goimagehash.PerceptionHash(b.img)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeInternal, "perception hash")
	}
	dist, err := ha.Distance(hb)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeInternal, "hash distance")
	}
	return dist, nil
}
