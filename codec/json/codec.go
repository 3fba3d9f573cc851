// This package implements a [codec.Codec] backed by [encoding/json].
package json

import (
	"encoding/json"

	"github.com/groupio/groupio/codec"
)

type Codec[Item any] struct{}

var _ codec.Codec[any] = Codec[any]{}

func New[Item any]() Codec[Item] {
	return Codec[Item]{}
}

func (Codec[Item]) Marshal(item Item) ([]byte, error) {
	return json.Marshal(item)
}

func (Codec[Item]) Unmarshal(data []byte) (Item, error) {
	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
		var zero Item
		return zero, err
	}
	return item, nil
}
