// This package implements the identity [codec.Codec] for raw byte payloads.
package raw

import "github.com/groupio/groupio/codec"

type Codec struct{}

var _ codec.Codec[[]byte] = Codec{}

func New() Codec {
	return Codec{}
}

func (Codec) Marshal(item []byte) ([]byte, error) {
	return item, nil
}

func (Codec) Unmarshal(data []byte) ([]byte, error) {
	return data, nil
}
