package groupio

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	messagesWritten prometheus.Counter
	messagesRead    prometheus.Counter
	groupsWritten   *prometheus.CounterVec
	groupsRead      prometheus.Counter
	bytesWritten    prometheus.Counter
	bytesRead       prometheus.Counter
}

func newMetrics(registerer prometheus.Registerer, namespace, subsystem string) *metrics {
	registerer = prometheus.WrapRegistererWith(
		prometheus.Labels{"component": "groupio"},
		registerer,
	)

	m := metrics{
		messagesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_written",
			Help:      "Number of messages written to the stream",
		}),
		messagesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_read",
			Help:      "Number of messages read from the stream",
		}),
		groupsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "groups_written",
			Help:      "Number of groups flushed to the stream",
		}, []string{"type"}),
		groupsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "groups_read",
			Help:      "Number of groups read from the stream",
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bytes_written",
			Help:      "Number of bytes written to the channel",
		}),
		bytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bytes_read",
			Help:      "Number of bytes read from the channel",
		}),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.messagesWritten,
			m.messagesRead,
			m.groupsWritten,
			m.groupsRead,
			m.bytesWritten,
			m.bytesRead,
		)
	}

	return &m
}

// countingWriter counts the bytes that actually reach the channel, after
// compression.
type countingWriter struct {
	w io.Writer
	c prometheus.Counter
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.c.Add(float64(n))
	return n, err
}

// countingReader counts the bytes pulled from the channel, before
// decompression.
type countingReader struct {
	r io.Reader
	c prometheus.Counter
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.c.Add(float64(n))
	return n, err
}
