package groupio

import (
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
)

// Compression identifies the transform applied to the whole byte stream,
// header included.
type Compression uint8

const (
	// None stores the stream bytes as-is.
	None Compression = iota
	// Gzip compresses the stream with gzip. This is the default.
	Gzip
	// Snappy compresses the stream with framed snappy.
	Snappy
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Snappy:
		return "snappy"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

func (c Compression) valid() bool {
	switch c {
	case None, Gzip, Snappy:
		return true
	default:
		return false
	}
}

// writer wraps w with the compression transform. The returned writer must be
// closed to complete the compressed stream.
func (c Compression) writer(w io.Writer, level int) (io.WriteCloser, error) {
	switch c {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		zw, err := gzip.NewWriterLevel(w, level)
		if err != nil {
			return nil, fmt.Errorf("gzip writer: %w", err)
		}
		return zw, nil
	case Snappy:
		return snappy.NewBufferedWriter(w), nil
	default:
		return nil, fmt.Errorf("unknown compression %d", c)
	}
}

// reader wraps r with the compression transform. Gzip streams are read in
// multistream mode, so appended streams decode as one.
func (c Compression) reader(r io.Reader) (io.ReadCloser, error) {
	switch c {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return zr, nil
	case Snappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unknown compression %d", c)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}
