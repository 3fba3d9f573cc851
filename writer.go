package groupio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/spf13/afero"

	"github.com/groupio/groupio/frame"
)

// Writer writes messages to a stream, framing them into groups.
//
// Writers are not considered thread-safe. Use [AsyncWriter] to share a
// stream between goroutines.
type Writer struct {
	cfg  *config
	file afero.File
	comp io.WriteCloser
	enc  *frame.Encoder

	closing *atomic.Bool
}

// Create creates the stream file at path for writing, replacing any previous
// content. The configured header, if any, is written immediately.
func Create(path string, options ...Option) (*Writer, error) {
	cfg := newConfig(options...)

	file, err := cfg.fs.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create stream: %w", err)
	}

	w, err := newWriter(file, file, cfg, true)
	if err != nil {
		return nil, errors.Join(err, file.Close())
	}

	return w, nil
}

// Append opens the stream file at path for writing and appends groups after
// the existing ones, creating the file if needed. The header is never
// re-emitted: the start of the stream already carries it, or deliberately
// does not.
//
// Every compression writes appendable streams: a decompressor consumes the
// back-to-back compressed members transparently.
func Append(path string, options ...Option) (*Writer, error) {
	cfg := newConfig(options...)

	file, err := cfg.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("append stream: %w", err)
	}

	w, err := newWriter(file, file, cfg, false)
	if err != nil {
		return nil, errors.Join(err, file.Close())
	}

	return w, nil
}

// NewWriter writes a stream to an arbitrary channel. The channel stays open
// after [Writer.Close]: it belongs to the caller.
func NewWriter(dst io.Writer, options ...Option) (*Writer, error) {
	return newWriter(dst, nil, newConfig(options...), true)
}

func newWriter(dst io.Writer, file afero.File, cfg *config, writeHeader bool) (*Writer, error) {
	comp, err := cfg.compression.writer(&countingWriter{w: dst, c: cfg.metrics.bytesWritten}, cfg.level)
	if err != nil {
		return nil, err
	}

	if writeHeader && len(cfg.header) != 0 {
		if _, err := comp.Write(cfg.header); err != nil {
			return nil, fmt.Errorf("write stream header: %w", err)
		}
	}

	w := Writer{
		cfg:     cfg,
		file:    file,
		comp:    comp,
		enc:     frame.NewEncoder(comp).WithBufferSize(cfg.bufferSize),
		closing: new(atomic.Bool),
	}

	return &w, nil
}

// Write appends msgs to the stream, flushing full groups as dictated by
// [WithBufferSize]. Zero-length messages are rejected with
// [ErrEmptyMessage] unless the writer is configured with [WithAllowEmpty].
//
// The writer retains msgs until they are flushed, so the caller must not
// modify them before that.
func (w *Writer) Write(msgs ...[]byte) error {
	if w.closing.Load() {
		return ErrClosed
	}
	if !w.cfg.allowEmpty {
		for _, msg := range msgs {
			if len(msg) == 0 {
				return ErrEmptyMessage
			}
		}
	}

	flushed := w.enc.Flushed()
	err := w.enc.Write(msgs...)
	w.cfg.metrics.groupsWritten.WithLabelValues("auto").Add(float64(w.enc.Flushed() - flushed))
	if err != nil {
		return err
	}

	w.cfg.metrics.messagesWritten.Add(float64(len(msgs)))
	return nil
}

// Flush writes the buffered messages to the stream as one group. It does
// nothing when the buffer is empty, so back-to-back flushes still produce a
// single group.
//
// Flush sets a group boundary, not a durability point: the compression
// layer keeps its own buffers until the writer is closed.
func (w *Writer) Flush() error {
	if w.closing.Load() {
		return ErrClosed
	}

	flushed := w.enc.Flushed()
	if err := w.enc.Flush(); err != nil {
		return err
	}
	w.cfg.metrics.groupsWritten.WithLabelValues("manual").Add(float64(w.enc.Flushed() - flushed))

	return nil
}

// Buffered returns the number of messages waiting for a flush.
func (w *Writer) Buffered() int {
	return w.enc.Buffered()
}

// Close flushes the buffered messages as a final group, closes the
// compression layer and closes the stream file, if the writer owns one.
func (w *Writer) Close() error {
	if w.closing.Swap(true) {
		return ErrClosed
	}

	errs := make([]error, 0)

	// Flush the pending messages as a final group.
	flushed := w.enc.Flushed()
	if err := w.enc.Flush(); err != nil {
		errs = append(errs, err)
	}
	w.cfg.metrics.groupsWritten.WithLabelValues("close").Add(float64(w.enc.Flushed() - flushed))

	// Close the compressor, flushing its buffers to the channel. The channel
	// itself is left untouched.
	if err := w.comp.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close compressor: %w", err))
	}

	// Sync and close the stream file, if the writer owns one.
	if w.file != nil {
		if w.cfg.sync {
			if err := w.file.Sync(); err != nil {
				errs = append(errs, fmt.Errorf("sync file: %w", err))
			}
		}
		if err := w.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close file: %w", err))
		}
	}

	return errors.Join(errs...)
}
