package groupio

import "github.com/groupio/groupio/codec"

// Codec translates items to and from the opaque messages carried by a
// stream. See the codec subpackages for ready-made implementations.
type Codec[Item any] = codec.Codec[Item]
