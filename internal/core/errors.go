package core

import "errors"

// Error taxonomy. Anything touching a single chat's turn degrades
// gracefully; only ErrConfig is fatal, and only at startup.
var (
	// ErrStorage marks a durable read/write failure. Callers fall back to
	// an empty in-memory context for the turn instead of aborting.
	ErrStorage = errors.New("memory storage failure")

	// ErrUpstream marks a failed AI or media-analysis call after retries.
	ErrUpstream = errors.New("upstream call failed")

	// ErrDegenerateResponse means post-processing collapsed the reply to
	// nothing. The caller regenerates once, then falls back to a template.
	ErrDegenerateResponse = errors.New("degenerate response after post-processing")

	// ErrConfig marks invalid startup configuration.
	ErrConfig = errors.New("invalid configuration")
)
