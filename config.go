package groupio

import (
	"bytes"

	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
)

type Option = func(*config)

// WithBufferSize sets the number of messages held before an automatic flush.
//
// Size 0 (the default) flushes at the end of every Write call, so each call
// produces one group. A positive size n holds up to n messages across calls
// and flushes a full group of n as soon as an n+1th message arrives. A
// negative size disables automatic flushing entirely: messages accumulate
// until Flush or Close.
func WithBufferSize(size int) Option {
	return func(c *config) {
		c.bufferSize = size
	}
}

// WithCompression sets the transform applied to the whole byte stream. The
// default is [Gzip].
func WithCompression(compression Compression) Option {
	if !compression.valid() {
		panic("unknown compression")
	}
	return func(c *config) {
		c.compression = compression
	}
}

// WithCompressionLevel sets the gzip compression level. It has no effect on
// the other transforms.
func WithCompressionLevel(level int) Option {
	if level < gzip.StatelessCompression || level > gzip.BestCompression {
		panic("invalid compression level")
	}
	return func(c *config) {
		c.level = level
	}
}

// WithHeader sets the stream header.
//
// A writer emits the header once at the very start of the stream, before any
// group. A reader consumes exactly len(header) bytes at open and makes them
// available through Header; the consumed bytes are not compared with the
// configured ones unless [WithStrictHeader] is also set.
func WithHeader(header []byte) Option {
	if len(header) == 0 {
		panic("header can't be empty")
	}
	return func(c *config) {
		c.header = bytes.Clone(header)
	}
}

// WithStrictHeader makes readers fail with [ErrHeaderMismatch] when the
// stream starts with different bytes than the configured header.
func WithStrictHeader() Option {
	return func(c *config) {
		c.strictHeader = true
	}
}

// WithGroupDelimiters makes readers surface a nil message after every
// completed group. Delimiters are synthetic: nothing on the wire represents
// them, and writers are unaffected.
func WithGroupDelimiters() Option {
	return func(c *config) {
		c.delimiters = true
	}
}

// WithAllowEmpty allows empty values on the stream: writers may emit
// zero-length messages, and readers treat zero message counts and zero
// message sizes as empty groups and empty messages instead of end-of-stream
// sentinels.
func WithAllowEmpty() Option {
	return func(c *config) {
		c.allowEmpty = true
	}
}

// WithSync makes Close sync the stream file before closing it. It only
// applies to handles that own their file.
func WithSync() Option {
	return func(c *config) {
		c.sync = true
	}
}

// WithFS sets the filesystem used to resolve stream paths.
func WithFS(fs afero.Fs) Option {
	if fs == nil {
		panic("fs can't be nil")
	}
	return func(c *config) {
		c.fs = fs
	}
}

// WithPrometheus enables Prometheus metrics for the stream. If registerer is
// nil, metrics are collected but not registered.
func WithPrometheus(registerer prometheus.Registerer, namespace, subsystem string) Option {
	return func(c *config) {
		c.metrics = newMetrics(registerer, namespace, subsystem)
	}
}

type config struct {
	bufferSize   int
	compression  Compression
	level        int
	header       []byte
	strictHeader bool
	delimiters   bool
	allowEmpty   bool
	sync         bool
	fs           afero.Fs
	metrics      *metrics
}

func newConfig(options ...Option) *config {
	options = append([]Option{
		WithCompression(Gzip),
		WithCompressionLevel(gzip.DefaultCompression),
		WithFS(afero.NewOsFs()),
		WithPrometheus(nil, "", ""),
	}, options...)

	cfg := config{}
	for _, opt := range options {
		opt(&cfg)
	}

	return &cfg
}
