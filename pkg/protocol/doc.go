// Package protocol implements the panel's serial line protocol.
package protocol

// The link carries newline-terminated ASCII commands from the host:
// comma-separated KEY:VALUE telemetry tokens, NAME_* identity
// assignments, and the IMG_* chunked image upload family. Binary
// payloads travel hex-encoded so a line can never contain the
// terminator bytes.
//
// The framer consumes one byte at a time and never blocks; the
// parser classifies a complete line into a typed Command so
// downstream handlers never re-scan text.
//
// Producer: host monitor application
// Consumer: panel firmware core
