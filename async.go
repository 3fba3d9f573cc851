package groupio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// AsyncReader is a [Reader] that is safe for concurrent use. Reads are
// serialized by a pump goroutine that owns the underlying reader.
//
// Every operation takes a context. An operation abandoned mid-flight, by
// cancellation or deadline, leaves the stream position unknown, so the
// handle is poisoned: the abandoned call returns the context error and every
// later operation returns [ErrInterrupted]. Close stays available to
// release the stream.
type AsyncReader struct {
	r    *Reader
	file afero.File

	closing     *atomic.Bool
	interrupted *atomic.Bool

	reqs chan chan recvResult
	quit chan struct{}
	pump *errgroup.Group
}

type recvResult struct {
	msg []byte
	err error
}

// OpenAsync opens the stream file at path for concurrent reading.
func OpenAsync(path string, options ...Option) (*AsyncReader, error) {
	cfg := newConfig(options...)

	file, err := cfg.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}

	r, err := newReader(file, nil, cfg)
	if err != nil {
		return nil, errors.Join(err, file.Close())
	}

	return newAsyncReader(r, file), nil
}

// NewAsyncReader reads a stream from an arbitrary channel, concurrently. The
// channel stays open after [AsyncReader.Close]: it belongs to the caller.
//
// Close does not unblock a pump stuck in a read on the channel; the caller
// must arrange for the channel to unblock, for example by closing its write
// end.
func NewAsyncReader(src io.Reader, options ...Option) (*AsyncReader, error) {
	r, err := newReader(src, nil, newConfig(options...))
	if err != nil {
		return nil, err
	}

	return newAsyncReader(r, nil), nil
}

func newAsyncReader(r *Reader, file afero.File) *AsyncReader {
	ar := AsyncReader{
		r:    r,
		file: file,

		closing:     new(atomic.Bool),
		interrupted: new(atomic.Bool),

		reqs: make(chan chan recvResult),
		quit: make(chan struct{}),
		pump: new(errgroup.Group),
	}

	ar.pump.Go(ar.pumpWorker)

	return &ar
}

// Recv returns the next message of the stream, in order across all callers.
// It returns [io.EOF] at a clean end of stream, and a nil message for a
// group delimiter when the reader is configured with [WithGroupDelimiters].
func (r *AsyncReader) Recv(ctx context.Context) ([]byte, error) {
	if r.closing.Load() {
		return nil, ErrClosed
	}
	if r.interrupted.Load() {
		return nil, ErrInterrupted
	}
	if err := ctx.Err(); err != nil {
		r.interrupted.Store(true)
		return nil, err
	}

	reply := make(chan recvResult, 1)

	select {
	case r.reqs <- reply:
	case <-r.quit:
		return nil, ErrClosed
	case <-ctx.Done():
		r.interrupted.Store(true)
		return nil, ctx.Err()
	}

	// The pump always delivers into the buffered reply, so abandoning it
	// here never blocks the pump.
	select {
	case res := <-reply:
		return res.msg, res.err
	case <-ctx.Done():
		r.interrupted.Store(true)
		return nil, ctx.Err()
	}
}

// Header returns the header bytes consumed from the stream at open, or nil
// when the reader was configured without one.
func (r *AsyncReader) Header() []byte {
	return r.r.Header()
}

// Close closes the reader. An in-flight Recv is interrupted: it observes a
// read error instead of its message.
func (r *AsyncReader) Close() error {
	if r.closing.Swap(true) {
		return ErrClosed
	}

	errs := make([]error, 0)

	// Signal to the pump that it must stop.
	close(r.quit)

	// Close the stream file first, if the reader owns one: it unblocks a
	// pump stuck in a read.
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close file: %w", err))
		}
	}

	if err := r.pump.Wait(); err != nil {
		errs = append(errs, fmt.Errorf("pump: %w", err))
	}

	// Close the inner reader once the pump is quiet.
	if err := r.r.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close reader: %w", err))
	}

	return errors.Join(errs...)
}

func (r *AsyncReader) pumpWorker() error {
	for {
		var reply chan recvResult
		select {
		case <-r.quit:
			return nil
		case reply = <-r.reqs:
		}

		var res recvResult
		switch {
		case r.r.next():
			res = recvResult{msg: r.r.dec.Message()}
		case r.r.dec.Err() != nil:
			res = recvResult{err: r.r.dec.Err()}
		default:
			res = recvResult{err: io.EOF}
		}

		reply <- res
	}
}

// AsyncWriter is a [Writer] that is safe for concurrent use. Writes are
// serialized by a pump goroutine that owns the underlying writer.
//
// Every operation takes a context. An operation abandoned mid-flight, by
// cancellation or deadline, leaves the stream position unknown, so the
// handle is poisoned: the abandoned call returns the context error and every
// later operation returns [ErrInterrupted]. Close stays available to
// release the stream.
type AsyncWriter struct {
	w *Writer

	closing     *atomic.Bool
	interrupted *atomic.Bool

	reqs chan writeRequest
	quit chan struct{}
	pump *errgroup.Group
}

type writeRequest struct {
	msgs  [][]byte
	flush bool
	reply chan error
}

// CreateAsync creates the stream file at path for concurrent writing,
// replacing any previous content.
func CreateAsync(path string, options ...Option) (*AsyncWriter, error) {
	w, err := Create(path, options...)
	if err != nil {
		return nil, err
	}

	return newAsyncWriter(w), nil
}

// AppendAsync opens the stream file at path for concurrent writing and
// appends groups after the existing ones, creating the file if needed.
func AppendAsync(path string, options ...Option) (*AsyncWriter, error) {
	w, err := Append(path, options...)
	if err != nil {
		return nil, err
	}

	return newAsyncWriter(w), nil
}

// NewAsyncWriter writes a stream to an arbitrary channel, concurrently. The
// channel stays open after [AsyncWriter.Close]: it belongs to the caller.
func NewAsyncWriter(dst io.Writer, options ...Option) (*AsyncWriter, error) {
	w, err := NewWriter(dst, options...)
	if err != nil {
		return nil, err
	}

	return newAsyncWriter(w), nil
}

func newAsyncWriter(w *Writer) *AsyncWriter {
	aw := AsyncWriter{
		w: w,

		closing:     new(atomic.Bool),
		interrupted: new(atomic.Bool),

		reqs: make(chan writeRequest),
		quit: make(chan struct{}),
		pump: new(errgroup.Group),
	}

	aw.pump.Go(aw.pumpWorker)

	return &aw
}

// Write appends msgs to the stream, flushing full groups as dictated by
// [WithBufferSize]. Messages from concurrent callers interleave in arrival
// order, but each call's messages stay together.
func (w *AsyncWriter) Write(ctx context.Context, msgs ...[]byte) error {
	return w.send(ctx, writeRequest{msgs: msgs})
}

// Flush writes the buffered messages to the stream as one group. It does
// nothing when the buffer is empty.
func (w *AsyncWriter) Flush(ctx context.Context) error {
	return w.send(ctx, writeRequest{flush: true})
}

// Close flushes the buffered messages as a final group, closes the
// compression layer and closes the stream file, if the writer owns one.
// In-flight writes are drained first.
func (w *AsyncWriter) Close() error {
	if w.closing.Swap(true) {
		return ErrClosed
	}

	errs := make([]error, 0)

	// Signal to the pump that it must stop.
	close(w.quit)
	if err := w.pump.Wait(); err != nil {
		errs = append(errs, fmt.Errorf("pump: %w", err))
	}

	// Close the inner writer once the pump is quiet.
	if err := w.w.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close writer: %w", err))
	}

	return errors.Join(errs...)
}

func (w *AsyncWriter) send(ctx context.Context, req writeRequest) error {
	if w.closing.Load() {
		return ErrClosed
	}
	if w.interrupted.Load() {
		return ErrInterrupted
	}
	if err := ctx.Err(); err != nil {
		w.interrupted.Store(true)
		return err
	}

	req.reply = make(chan error, 1)

	select {
	case w.reqs <- req:
	case <-w.quit:
		return ErrClosed
	case <-ctx.Done():
		w.interrupted.Store(true)
		return ctx.Err()
	}

	// The pump always delivers into the buffered reply, so abandoning it
	// here never blocks the pump.
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		w.interrupted.Store(true)
		return ctx.Err()
	}
}

func (w *AsyncWriter) pumpWorker() error {
	for {
		var req writeRequest
		select {
		case <-w.quit:
			return nil
		case req = <-w.reqs:
		}

		if req.flush {
			req.reply <- w.w.Flush()
		} else {
			req.reply <- w.w.Write(req.msgs...)
		}
	}
}
