package panel

import "sync/atomic"

// Metrics counts events on paths that otherwise recover silently.
// Pure silence is hard to assert on; every discarded line, skipped
// frame, and rejected mutation leaves a mark here.
type Metrics struct {
	// FramerOverflows mirrors the framer's oversized-line count.
	FramerOverflows atomic.Uint64
	// UnknownLines counts lines matching no recognized command.
	UnknownLines atomic.Uint64
	// MalformedFields counts recognized telemetry keys whose values
	// failed conversion.
	MalformedFields atomic.Uint64
	// RejectedHashes counts NAME_HASH values that were too short.
	RejectedHashes atomic.Uint64
	// SkippedFrames counts render iterations that could not acquire
	// the render lock within bounds and deferred to the next tick.
	SkippedFrames atomic.Uint64
	// WriteErrors counts failed response writes.
	WriteErrors atomic.Uint64
}
