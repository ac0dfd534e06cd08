package protocol

// MaxLineLen is the framer's buffer capacity, sized for IMG_DATA
// lines carrying hex-encoded upload chunks. A line longer than this
// is discarded whole; losing one command is preferred over unbounded
// buffering on a device with scarce memory.
const MaxLineLen = 2048

// Framer accumulates raw bytes into discrete command lines.
// Feed is O(1) per byte and never blocks, so the surrounding task
// can yield between bursts.
type Framer struct {
	buf        [MaxLineLen]byte
	pos        int
	discarding bool
	overflows  uint64
}

// Feed consumes one byte. When the byte completes a non-empty line,
// it returns the line and true. Terminators are not included.
func (f *Framer) Feed(b byte) (line string, ok bool) {
	if b == '\n' || b == '\r' {
		if f.discarding {
			f.discarding = false
			f.pos = 0
			return "", false
		}
		if f.pos == 0 {
			return "", false
		}
		line, ok = string(f.buf[:f.pos]), true
		f.pos = 0
		return
	}
	if f.discarding {
		return "", false
	}
	if f.pos >= MaxLineLen {
		// Oversized line: drop everything through end-of-line.
		f.discarding = true
		f.pos = 0
		f.overflows++
		return "", false
	}
	f.buf[f.pos] = b
	f.pos++
	return "", false
}

// FeedBytes consumes a burst, invoking emit for each complete line.
func (f *Framer) FeedBytes(p []byte, emit func(line string)) {
	for _, b := range p {
		if line, ok := f.Feed(b); ok {
			emit(line)
		}
	}
}

// Pending reports how many bytes of an unterminated line are buffered.
func (f *Framer) Pending() int {
	return f.pos
}

// Overflows reports how many oversized lines have been discarded.
func (f *Framer) Overflows() uint64 {
	return f.overflows
}

// Reset drops any buffered partial line.
func (f *Framer) Reset() {
	f.pos = 0
	f.discarding = false
}
