package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrDecode indicates an activity file could not be decoded (corrupt or unsupported)
	ErrDecode = errors.New("decode failed")

	// ErrStorage indicates a disk or transactional failure during persistence
	ErrStorage = errors.New("storage failure")

	// ErrOutOfRange indicates a sample value failing plausibility bounds
	ErrOutOfRange = errors.New("value out of range")

	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")
)
