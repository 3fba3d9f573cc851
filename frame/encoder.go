package frame

import (
	"fmt"
	"io"

	"github.com/groupio/groupio/varint"
)

// Encoder frames messages into groups and writes them to an [io.Writer].
//
// Messages accumulate in a pending buffer until a flush turns them into a
// single group on the wire. The flushing behaviour is controlled by
// [Encoder.WithBufferSize]. Encoders are not considered thread-safe.
type Encoder struct {
	w       io.Writer
	size    int
	pending [][]byte
	flushed int
	scratch []byte
}

// NewEncoder returns an encoder that writes groups to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// WithBufferSize sets the buffering behaviour and returns the encoder.
//
// Size 0 (the default) flushes at the end of every [Encoder.Write] call, so
// each call produces exactly one group. A positive size n holds up to n
// messages across calls and flushes a full group of n as soon as an n+1th
// message arrives. A negative size accumulates without bound until
// [Encoder.Flush] is called.
//
// It must be called before the first write.
func (e *Encoder) WithBufferSize(size int) *Encoder {
	e.size = size
	return e
}

// Write appends msgs to the pending buffer, flushing full groups as dictated
// by the buffering behaviour.
//
// The encoder retains msgs until they are flushed, so the caller must not
// modify them before that.
func (e *Encoder) Write(msgs ...[]byte) error {
	for _, msg := range msgs {
		if e.size > 0 && len(e.pending) >= e.size {
			if err := e.Flush(); err != nil {
				return err
			}
		}
		e.pending = append(e.pending, msg)
	}
	if e.size == 0 {
		return e.Flush()
	}
	return nil
}

// Flush writes the pending messages to the underlying writer as one group.
// It does nothing when the buffer is empty.
//
// The group is materialized in full and handed to the writer in a single
// call, so a failed flush leaves the pending buffer untouched.
func (e *Encoder) Flush() error {
	if len(e.pending) == 0 {
		return nil
	}

	buf := varint.Append(e.scratch[:0], uint64(len(e.pending)))
	for _, msg := range e.pending {
		buf = varint.Append(buf, uint64(len(msg)))
		buf = append(buf, msg...)
	}
	e.scratch = buf

	if _, err := e.w.Write(buf); err != nil {
		return fmt.Errorf("write group: %w", err)
	}

	e.pending = e.pending[:0]
	e.flushed += 1
	return nil
}

// Buffered returns the number of messages in the pending buffer.
func (e *Encoder) Buffered() int {
	return len(e.pending)
}

// Flushed returns the number of groups written so far.
func (e *Encoder) Flushed() int {
	return e.flushed
}
