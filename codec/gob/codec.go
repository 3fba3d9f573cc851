// This package implements a [codec.Codec] backed by [encoding/gob].
//
// Gob streams are stateful, so every message gets a fresh encoder and
// decoder. This keeps messages self-contained at the cost of repeating the
// type description in each one.
package gob

import (
	"bytes"
	"encoding/gob"

	"github.com/groupio/groupio/codec"
)

type Codec[Item any] struct{}

var _ codec.Codec[any] = Codec[any]{}

func New[Item any]() Codec[Item] {
	return Codec[Item]{}
}

func (Codec[Item]) Marshal(item Item) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&item); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (Codec[Item]) Unmarshal(data []byte) (Item, error) {
	var item Item
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&item); err != nil {
		var zero Item
		return zero, err
	}
	return item, nil
}
