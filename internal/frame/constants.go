// Package frame defines the sampled image type and the pixel-difference metric
package frame

// Difference metric constants
const (
	// Per-channel intensity delta a pixel must exceed to count as changed
	ChannelThreshold = 30
)
