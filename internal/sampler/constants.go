// Package sampler implements the change-triggered frame sampler
package sampler

import "time"

// Sampling constants
const (
	// TickInterval is the fixed sampling period
	TickInterval = 500 * time.Millisecond

	// AcceptScore is the minimum difference score (percent of pixels
	// changed) that triggers a save; the comparison is inclusive
	AcceptScore = 50.0

	// EventBuffer is the capacity of the save-event channel
	EventBuffer = 100
)
