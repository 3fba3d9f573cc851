// This package implements readers and writers for a binary stream format
// that stores an ordered sequence of opaque messages, framed into groups and
// compressed as a whole.
//
// On the wire a stream is an optional header followed by groups. Each group
// is a varint message count followed by that many length-prefixed messages:
//
//	stream := header? group*
//	group  := count:uvarint (size:uvarint payload:bytes)^count
//
// A zero count marks the end of the stream and a zero size marks a truncated
// message, unless empty values are explicitly allowed with [WithAllowEmpty].
// Group boundaries are invisible to readers by default; [WithGroupDelimiters]
// surfaces them as synthetic nil messages.
//
// [Writer] and [Reader] are plain synchronous handles. [AsyncWriter] and
// [AsyncReader] wrap them for concurrent, context-aware use. [Dump] and
// [Parse] bridge streams with typed items through a [Codec].
package groupio

import (
	"errors"
	"fmt"
	"io"
	"iter"
)

var (
	// ErrClosed is returned by operations on a closed handle.
	ErrClosed = errors.New("stream is closed")

	// ErrHeaderMismatch is returned when a reader configured with
	// [WithStrictHeader] opens a stream that starts with different bytes
	// than the configured header.
	ErrHeaderMismatch = errors.New("stream header mismatch")

	// ErrEmptyMessage is returned when a zero-length message is written
	// without [WithAllowEmpty].
	ErrEmptyMessage = errors.New("empty message")

	// ErrInterrupted is returned by an async handle whose previous operation
	// was abandoned mid-flight, leaving the stream position unknown.
	ErrInterrupted = errors.New("stream interrupted")
)

// Dump marshals the items of seq with codec and writes them to dst as one
// stream. With the default configuration the whole sequence lands in a
// single group.
func Dump[Item any](codec Codec[Item], dst io.Writer, seq iter.Seq[Item], options ...Option) error {
	w, err := NewWriter(dst, options...)
	if err != nil {
		return err
	}

	msgs := make([][]byte, 0)
	for item := range seq {
		msg, err := codec.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal item %d: %w", len(msgs), err)
		}
		msgs = append(msgs, msg)
	}

	if err := w.Write(msgs...); err != nil {
		return errors.Join(err, w.Close())
	}

	return w.Close()
}

// Parse returns an iterator over the items of the stream read from src,
// unmarshaled with codec. Group delimiters, if enabled, are skipped.
//
// The iterator yields a non-nil error once and stops if the stream is
// corrupt, truncated or fails to unmarshal.
func Parse[Item any](codec Codec[Item], src io.Reader, options ...Option) iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		var zero Item

		r, err := NewReader(src, options...)
		if err != nil {
			yield(zero, err)
			return
		}
		defer r.Close()

		for msg, err := range r.All() {
			if err != nil {
				yield(zero, err)
				return
			}
			if msg == nil {
				continue
			}

			item, err := codec.Unmarshal(msg)
			if err != nil {
				yield(zero, fmt.Errorf("unmarshal message: %w", err))
				return
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}

// WriteFile writes msgs to the stream file at path, replacing any previous
// content.
func WriteFile(path string, msgs [][]byte, options ...Option) error {
	w, err := Create(path, options...)
	if err != nil {
		return err
	}

	if err := w.Write(msgs...); err != nil {
		return errors.Join(err, w.Close())
	}

	return w.Close()
}

// ReadFile reads every message of the stream file at path. Group delimiters,
// if enabled, are skipped.
func ReadFile(path string, options ...Option) ([][]byte, error) {
	r, err := Open(path, options...)
	if err != nil {
		return nil, err
	}

	msgs := make([][]byte, 0)
	for msg, err := range r.All() {
		if err != nil {
			return nil, errors.Join(err, r.Close())
		}
		if msg == nil {
			continue
		}
		msgs = append(msgs, msg)
	}

	return msgs, r.Close()
}
