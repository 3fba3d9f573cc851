package frame

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/groupio/groupio/varint"
)

// ErrUnexpectedEOF is returned when a stream ends inside a group: a declared
// count or size promises more data than the channel delivers.
var ErrUnexpectedEOF = fmt.Errorf("unexpected end of stream: %w", io.ErrUnexpectedEOF)

// Decoder reads a stream of groups lazily, one message per step.
//
// It follows the iterator shape of [bufio.Scanner]: [Decoder.Next] advances,
// [Decoder.Message] and [Decoder.Delim] report what it advanced to, and
// [Decoder.Err] reports what stopped it. Decoders are forward-only and not
// considered thread-safe.
type Decoder struct {
	br         *bufio.Reader
	delimiters bool
	allowEmpty bool

	remaining uint64
	delimDue  bool
	groups    int
	msg       []byte
	delim     bool
	err       error
	done      bool
}

// NewDecoder returns a decoder that reads groups from r.
func NewDecoder(r io.Reader) *Decoder {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Decoder{br: br}
}

// WithDelimiters makes the decoder report a delimiter step after every
// completed group, and returns the decoder. Delimiters are synthetic:
// nothing on the wire represents them.
//
// It must be called before the first [Decoder.Next].
func (d *Decoder) WithDelimiters(enabled bool) *Decoder {
	d.delimiters = enabled
	return d
}

// WithAllowEmpty makes the decoder treat zero message counts and zero
// message sizes as legitimate empty groups and empty messages instead of
// end-of-stream sentinels, and returns the decoder.
//
// It must be called before the first [Decoder.Next].
func (d *Decoder) WithAllowEmpty(enabled bool) *Decoder {
	d.allowEmpty = enabled
	return d
}

// Next advances the decoder to the next message or delimiter. It returns
// false when the stream ends or a decode error occurs; the two are told
// apart with [Decoder.Err].
func (d *Decoder) Next() bool {
	d.msg, d.delim = nil, false
	if d.err != nil || d.done {
		return false
	}

	if d.delimDue {
		d.delimDue = false
		d.delim = true
		return true
	}

	for d.remaining == 0 {
		count, err := varint.Read(d.br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				d.done = true
			} else {
				d.err = fmt.Errorf("read group count: %w", err)
			}
			return false
		}
		if count == 0 {
			if !d.allowEmpty {
				d.done = true
				return false
			}
			d.groups += 1
			if d.delimiters {
				d.delim = true
				return true
			}
			continue
		}
		d.remaining = count
	}

	size, err := varint.Read(d.br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = ErrUnexpectedEOF
		}
		d.err = fmt.Errorf("read message size: %w", err)
		return false
	}

	switch {
	case size == 0 && !d.allowEmpty:
		d.err = fmt.Errorf("message size 0: %w", ErrUnexpectedEOF)
		return false
	case size > math.MaxInt32:
		d.err = fmt.Errorf("message size %d too large: %w", size, ErrUnexpectedEOF)
		return false
	}

	msg := make([]byte, size)
	if _, err := io.ReadFull(d.br, msg); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = ErrUnexpectedEOF
		}
		d.err = fmt.Errorf("read message body: %w", err)
		return false
	}

	d.msg = msg
	d.remaining -= 1
	if d.remaining == 0 {
		d.groups += 1
		d.delimDue = d.delimiters
	}
	return true
}

// Message returns the message the decoder advanced to, or nil when the step
// is a delimiter. The slice is freshly allocated and owned by the caller.
func (d *Decoder) Message() []byte {
	return d.msg
}

// Delim reports whether the current step is a group delimiter.
func (d *Decoder) Delim() bool {
	return d.delim
}

// Groups returns the number of groups fully decoded so far.
func (d *Decoder) Groups() int {
	return d.groups
}

// Err returns the error that stopped the decoder, or nil after a clean end
// of stream.
func (d *Decoder) Err() error {
	return d.err
}
