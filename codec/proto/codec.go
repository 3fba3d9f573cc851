// This package implements a [codec.Codec] for protocol buffer messages.
//
// The payload type is the pointer form of a generated message:
//
//	c := proto.New[durationpb.Duration]()
//	msg, err := c.Marshal(durationpb.New(time.Second))
package proto

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/groupio/groupio/codec"
)

// Codec carries the value type alongside its pointer form so that
// [Codec.Unmarshal] can allocate fresh messages without reflection.
type Codec[Item any, ItemPtr protoable[Item]] struct{}

var _ codec.Codec[*emptypb.Empty] = Codec[emptypb.Empty, *emptypb.Empty]{}

func New[Item any, ItemPtr protoable[Item]]() Codec[Item, ItemPtr] {
	return Codec[Item, ItemPtr]{}
}

func (Codec[Item, ItemPtr]) Marshal(item ItemPtr) ([]byte, error) {
	return proto.Marshal(item)
}

func (Codec[Item, ItemPtr]) Unmarshal(data []byte) (ItemPtr, error) {
	item := ItemPtr(new(Item))
	if err := proto.Unmarshal(data, item); err != nil {
		return nil, err
	}
	return item, nil
}

type protoable[Item any] interface {
	*Item
	proto.Message
}
