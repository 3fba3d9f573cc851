package frame_test

import (
	"bytes"
	"io"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/groupio/groupio/frame"
	"github.com/groupio/groupio/varint"
)

func TestDecoderWalk(t *testing.T) {
	stream := []byte{
		2, 1, 'A', 2, 'B', 'B',
		1, 3, 'C', 'C', 'C',
	}
	dec := frame.NewDecoder(bytes.NewReader(stream))

	var msgs [][]byte
	for dec.Next() {
		msgs = append(msgs, dec.Message())
	}
	require.NoError(t, dec.Err())
	require.Equal(t, [][]byte{[]byte("A"), []byte("BB"), []byte("CCC")}, msgs)
	require.Equal(t, 2, dec.Groups())
}

func TestDecoderDelimiters(t *testing.T) {
	var buf bytes.Buffer
	enc := frame.NewEncoder(&buf).WithBufferSize(6)
	for i := range 12 {
		require.NoError(t, enc.Write([]byte{byte(i)}))
	}
	require.NoError(t, enc.Flush())

	dec := frame.NewDecoder(&buf).WithDelimiters(true)

	var (
		msgs   int
		step   int
		delims []int
	)
	for dec.Next() {
		step += 1
		if dec.Delim() {
			require.Nil(t, dec.Message())
			delims = append(delims, step)
			continue
		}
		msgs += 1
	}
	require.NoError(t, dec.Err())

	// Two groups of six, a delimiter after each, the last one included.
	require.Equal(t, 12, msgs)
	require.Equal(t, []int{7, 14}, delims)
	require.Equal(t, 2, dec.Groups())
}

func TestDecoderZeroCountEndsStream(t *testing.T) {
	stream := []byte{1, 1, 'x', 0, 1, 1, 'y'}
	dec := frame.NewDecoder(bytes.NewReader(stream))

	require.True(t, dec.Next())
	require.Equal(t, []byte("x"), dec.Message())
	require.False(t, dec.Next())
	require.NoError(t, dec.Err())
}

func TestDecoderZeroCountAllowed(t *testing.T) {
	stream := []byte{1, 1, 'x', 0, 1, 1, 'y'}
	dec := frame.NewDecoder(bytes.NewReader(stream)).
		WithAllowEmpty(true).
		WithDelimiters(true)

	var steps []string
	for dec.Next() {
		switch {
		case dec.Delim():
			steps = append(steps, "|")
		default:
			steps = append(steps, string(dec.Message()))
		}
	}
	require.NoError(t, dec.Err())
	require.Equal(t, []string{"x", "|", "|", "y", "|"}, steps)
	require.Equal(t, 3, dec.Groups())
}

func TestDecoderZeroSize(t *testing.T) {
	stream := []byte{2, 1, 'x', 0}

	dec := frame.NewDecoder(bytes.NewReader(stream))
	require.True(t, dec.Next())
	require.False(t, dec.Next())
	require.ErrorIs(t, dec.Err(), frame.ErrUnexpectedEOF)

	// With empty values allowed the same bytes decode as an empty message
	// completing the group.
	dec = frame.NewDecoder(bytes.NewReader(stream)).WithAllowEmpty(true)
	require.True(t, dec.Next())
	require.True(t, dec.Next())
	require.NotNil(t, dec.Message())
	require.Len(t, dec.Message(), 0)
	require.False(t, dec.Next())
	require.NoError(t, dec.Err())
	require.Equal(t, 1, dec.Groups())
}

func TestDecoderTruncatedBody(t *testing.T) {
	dec := frame.NewDecoder(bytes.NewReader([]byte{1, 5, 'x', 'y'}))

	require.False(t, dec.Next())
	require.ErrorIs(t, dec.Err(), frame.ErrUnexpectedEOF)
	require.ErrorIs(t, dec.Err(), io.ErrUnexpectedEOF)
}

func TestDecoderOverdeclaredCount(t *testing.T) {
	dec := frame.NewDecoder(bytes.NewReader([]byte{3, 1, 'x'}))

	require.True(t, dec.Next())
	require.False(t, dec.Next())
	require.ErrorIs(t, dec.Err(), frame.ErrUnexpectedEOF)
}

func TestDecoderTruncatedVarint(t *testing.T) {
	dec := frame.NewDecoder(bytes.NewReader([]byte{0x80}))

	require.False(t, dec.Next())
	require.ErrorIs(t, dec.Err(), varint.ErrTruncated)
}

func TestDecoderErrorSticks(t *testing.T) {
	dec := frame.NewDecoder(bytes.NewReader([]byte{1, 5, 'x'}))

	require.False(t, dec.Next())
	err := dec.Err()
	require.Error(t, err)
	require.False(t, dec.Next())
	require.Equal(t, err, dec.Err())
}

func TestRoundTrip(t *testing.T) {
	payloads := make([][]byte, 0)
	for range 1000 {
		msg := make([]byte, rand.IntN(64)+1)
		for j := range msg {
			msg[j] = byte(rand.IntN(256))
		}
		payloads = append(payloads, msg)
	}

	var buf bytes.Buffer
	enc := frame.NewEncoder(&buf).WithBufferSize(7)
	for _, msg := range payloads {
		require.NoError(t, enc.Write(msg))
	}
	require.NoError(t, enc.Flush())

	dec := frame.NewDecoder(&buf)
	var got [][]byte
	for dec.Next() {
		got = append(got, dec.Message())
	}
	require.NoError(t, dec.Err())
	require.Equal(t, payloads, got)

	// 142 full groups of 7 plus the flushed remainder of 6.
	require.Equal(t, 143, dec.Groups())
}
