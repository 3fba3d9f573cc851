// This package contains the main [Codec] interface and several implementations inside subpackages.
package codec

// Codec converts items of a payload type to and from the bytes of a single
// message.
//
// A stream handle calls a codec once per message, so implementations must be
// safe to reuse across calls.
type Codec[Item any] interface {
	// Marshal serializes an item into the bytes of one message.
	Marshal(item Item) ([]byte, error)
	// Unmarshal deserializes the bytes of one message into an item.
	Unmarshal(data []byte) (Item, error)
}
