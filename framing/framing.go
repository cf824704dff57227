// Package framing turns a stream of raw byte chunks into complete
// newline-terminated lines.
//
// The child process writes one protocol envelope per line, but the OS delivers
// stdout in arbitrary chunks: one read may carry several lines, or half of
// one. The Framer buffers the trailing partial line across chunk boundaries
// and emits each complete line exactly once, in order.
//
// # Usage
//
//	framer := framing.New(func(line []byte) {
//	    // one complete, trimmed, non-empty line
//	})
//	framer.Push(chunk) // called for every stdout read, in order
//
// A Framer is a stateful per-stream parser and is not safe for concurrent
// Push; feed it from the single goroutine that reads the stream.
package framing

import (
	"bytes"
)

// Framer splits incoming chunks into newline-terminated lines.
type Framer struct {
	buf  []byte
	emit func(line []byte)
}

// New creates a Framer that calls emit for every complete line.
// Lines are whitespace-trimmed; blank lines are skipped.
func New(emit func(line []byte)) *Framer {
	return &Framer{emit: emit}
}

// Push appends a chunk to the buffer and emits every complete line in it.
// The remainder after the last newline (possibly empty) stays buffered.
func (f *Framer) Push(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	f.buf = append(f.buf, chunk...)

	for {
		idx := bytes.IndexByte(f.buf, '\n')
		if idx < 0 {
			return
		}
		line := bytes.TrimSpace(f.buf[:idx])
		rest := f.buf[idx+1:]

		if len(line) > 0 {
			// Copy before emitting: the buffer is reused below.
			out := make([]byte, len(line))
			copy(out, line)
			f.emit(out)
		}

		f.buf = append(f.buf[:0], rest...)
	}
}

// Buffered returns the number of bytes held for an incomplete trailing line.
func (f *Framer) Buffered() int {
	return len(f.buf)
}

// Reset discards any buffered partial line.
func (f *Framer) Reset() {
	f.buf = f.buf[:0]
}
