// This package implements a [codec.Codec] backed by [github.com/tinylib/msgp].
//
// Payload types are expected to carry the marshalling methods generated by
// the msgp tool.
package msgp

import (
	"github.com/tinylib/msgp/msgp"

	"github.com/groupio/groupio/codec"
)

type Codec[Item any, ItemPtr msgpable[Item]] struct{}

var _ codec.Codec[msgp.Raw] = Codec[msgp.Raw, *msgp.Raw]{}

func New[Item any, ItemPtr msgpable[Item]]() Codec[Item, ItemPtr] {
	return Codec[Item, ItemPtr]{}
}

func (Codec[Item, ItemPtr]) Marshal(item Item) ([]byte, error) {
	return ItemPtr(&item).MarshalMsg(nil)
}

func (Codec[Item, ItemPtr]) Unmarshal(data []byte) (Item, error) {
	var item Item
	if _, err := ItemPtr(&item).UnmarshalMsg(data); err != nil {
		var zero Item
		return zero, err
	}
	return item, nil
}

type msgpable[Item any] interface {
	*Item
	msgp.Marshaler
	msgp.Unmarshaler
}
