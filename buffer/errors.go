package buffer

import "errors"

// ErrInsufficientFrames is returned by Pin and PinNew when every frame of the pool is pinned.
// The manager never waits for a frame to be released: retrying is up to the caller.
var ErrInsufficientFrames = errors.New("buffer: no unpinned frame available")
