// This package implements the unsigned varint encoding that frames every
// group and message on the wire.
//
// The bit layout is the LEB128 variant implemented by [encoding/binary]:
// seven payload bits per byte, least significant first, high bit set on
// every byte except the last. This package pins down the error contract on
// top of it: truncation and overflow are distinct errors, and reading from a
// stream distinguishes a clean end of input from a value cut short.
package varint

import (
	"encoding/binary"
	"errors"
	"io"
	"math/bits"
)

// MaxLen is the maximum number of bytes an encoded 64-bit value can occupy.
const MaxLen = binary.MaxVarintLen64

var (
	// ErrTruncated is returned when the input ends in the middle of an
	// encoded value.
	ErrTruncated = errors.New("truncated varint")

	// ErrOverflow is returned when an encoded value doesn't fit into 64 bits.
	ErrOverflow = errors.New("varint overflows 64 bits")
)

// Len returns the number of bytes [Append] uses to encode v.
func Len(v uint64) int {
	if v == 0 {
		return 1
	}
	return (bits.Len64(v) + 6) / 7
}

// Append appends the encoding of v to dst and returns the extended slice.
func Append(dst []byte, v uint64) []byte {
	return binary.AppendUvarint(dst, v)
}

// Uvarint decodes a value from the start of b and returns it together with
// the number of bytes it occupied.
func Uvarint(b []byte) (uint64, int, error) {
	v, n := binary.Uvarint(b)
	switch {
	case n == 0:
		return 0, 0, ErrTruncated
	case n < 0:
		return 0, 0, ErrOverflow
	}
	return v, n, nil
}

// Read decodes a value from br.
//
// It returns [io.EOF] only when the stream ends before the first byte of the
// value. An end of input after that is reported as [ErrTruncated].
func Read(br io.ByteReader) (uint64, error) {
	var v uint64
	var s uint
	for i := range MaxLen {
		b, err := br.ReadByte()
		if err != nil {
			if i > 0 && errors.Is(err, io.EOF) {
				err = ErrTruncated
			}
			return 0, err
		}
		if b < 0x80 {
			if i == MaxLen-1 && b > 1 {
				return 0, ErrOverflow
			}
			return v | uint64(b)<<s, nil
		}
		v |= uint64(b&0x7f) << s
		s += 7
	}
	return 0, ErrOverflow
}
