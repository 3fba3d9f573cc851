package groupio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"runtime"
	"sync/atomic"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/groupio/groupio/frame"
)

// Reader reads messages from a stream in the order they were written.
//
// Readers are forward-only and not considered thread-safe. Use [AsyncReader]
// to share a stream between goroutines.
type Reader struct {
	cfg    *config
	file   afero.File
	decomp io.ReadCloser
	dec    *frame.Decoder
	header []byte

	closing *atomic.Bool
}

// Open opens the stream file at path for reading.
func Open(path string, options ...Option) (*Reader, error) {
	cfg := newConfig(options...)

	file, err := cfg.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}

	r, err := newReader(file, file, cfg)
	if err != nil {
		return nil, errors.Join(err, file.Close())
	}

	return r, nil
}

// NewReader reads a stream from an arbitrary channel. The channel stays open
// after [Reader.Close]: it belongs to the caller.
func NewReader(src io.Reader, options ...Option) (*Reader, error) {
	return newReader(src, nil, newConfig(options...))
}

func newReader(src io.Reader, file afero.File, cfg *config) (*Reader, error) {
	decomp, err := cfg.compression.reader(&countingReader{r: src, c: cfg.metrics.bytesRead})
	if err != nil {
		return nil, err
	}

	var header []byte
	if len(cfg.header) != 0 {
		header = make([]byte, len(cfg.header))
		if _, err := io.ReadFull(decomp, header); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				err = frame.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("read stream header: %w", err)
		}
		if cfg.strictHeader && !bytes.Equal(header, cfg.header) {
			return nil, fmt.Errorf("want header %q, got %q: %w", cfg.header, header, ErrHeaderMismatch)
		}
	}

	r := Reader{
		cfg:    cfg,
		file:   file,
		decomp: decomp,
		dec: frame.NewDecoder(decomp).
			WithDelimiters(cfg.delimiters).
			WithAllowEmpty(cfg.allowEmpty),
		header:  header,
		closing: new(atomic.Bool),
	}

	return &r, nil
}

// Header returns the header bytes consumed from the stream at open, or nil
// when the reader was configured without one.
func (r *Reader) Header() []byte {
	return r.header
}

// All returns an iterator over the remaining messages of the stream, in
// order. When the reader is configured with [WithGroupDelimiters], the
// iterator yields a nil message after every completed group.
//
// The iterator yields a non-nil error once and stops if the stream is
// corrupt or truncated. A clean end of stream just ends the iteration.
func (r *Reader) All() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		if r.closing.Load() {
			yield(nil, ErrClosed)
			return
		}
		for r.next() {
			if !yield(r.dec.Message(), nil) {
				return
			}
		}
		if err := r.dec.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// ForEach reads the remaining messages of the stream and calls fn for each
// of them from a pool of workers. Messages are dispatched in stream order,
// but fn calls run concurrently and may complete in any order.
//
// A non-positive workers means [runtime.GOMAXPROCS] workers. ForEach stops
// reading on the first fn error, on a read error, or when ctx is cancelled,
// and waits for the in-flight calls before returning.
func (r *Reader) ForEach(ctx context.Context, workers int, fn func(msg []byte) error) error {
	if r.closing.Load() {
		return ErrClosed
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for r.next() {
		if gctx.Err() != nil {
			break
		}
		msg := r.dec.Message()
		if msg == nil {
			continue
		}
		g.Go(func() error {
			return fn(msg)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if err := r.dec.Err(); err != nil {
		return err
	}

	return ctx.Err()
}

// Close closes the reader. The stream may be closed mid-group: remaining
// messages are simply never decoded.
func (r *Reader) Close() error {
	if r.closing.Swap(true) {
		return ErrClosed
	}

	errs := make([]error, 0)

	// Close the decompressor. The channel itself is left untouched.
	if err := r.decomp.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close decompressor: %w", err))
	}

	// Close the stream file, if the reader owns one.
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close file: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (r *Reader) next() bool {
	groups := r.dec.Groups()
	ok := r.dec.Next()
	if ok && !r.dec.Delim() {
		r.cfg.metrics.messagesRead.Inc()
	}
	r.cfg.metrics.groupsRead.Add(float64(r.dec.Groups() - groups))
	return ok
}
