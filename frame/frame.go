// This package implements the group framing shared by every stream handle.
//
// A stream is a sequence of groups. Each group starts with a varint count of
// messages, followed by that many messages, each a varint size and then the
// payload bytes. Nothing marks the end of a group on the wire: a reader
// knows a group is over once it has consumed the announced number of
// messages.
//
// [Encoder] accumulates messages and writes them out as groups. [Decoder]
// walks groups lazily, one message per step. Compression, headers and
// channel ownership are layered on top by the root package.
package frame
