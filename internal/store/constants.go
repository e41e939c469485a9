// Package store persists accepted frames to the local filesystem
package store

// Persistence constants
const (
	// JPEG encode quality for saved frames
	JPEGQuality = 90

	// Saved file name prefix; full names are photo-sequence-<unixms>.jpg
	FilePrefix = "photo-sequence-"

	// Directory permissions for the output dir
	DirPerm = 0o755
)
