// Package netbuf provides the contiguous byte buffer shared by transports
// and protocol layers.
package netbuf

// Buffer is a growable, contiguous byte sequence. A transport owns one
// Buffer for receiving and one for sending; protocol layers append headers
// to the send buffer and parse slices of the receive buffer.
//
// Any mutating call may invalidate slices previously returned by Data.
type Buffer struct {
	b []byte
}

// New constructs a Buffer with the given initial contents. The slice is
// taken over by the buffer.
func New(b []byte) *Buffer {
	return &Buffer{b: b}
}

// Data returns the current contents. The slice aliases the buffer's
// storage and is valid until the next mutating call.
func (b *Buffer) Data() []byte {
	return b.b
}

// Size returns the number of bytes held.
func (b *Buffer) Size() int {
	return len(b.b)
}

// Resize sets the buffer to n bytes. Newly exposed bytes have unspecified
// contents.
func (b *Buffer) Resize(n int) {
	if n <= cap(b.b) {
		b.b = b.b[:n]
		return
	}
	grown := make([]byte, n)
	copy(grown, b.b)
	b.b = grown
}

// Reset empties the buffer, keeping its storage.
func (b *Buffer) Reset() {
	b.b = b.b[:0]
}

// PushBack appends the given bytes.
func (b *Buffer) PushBack(bytes ...byte) {
	b.b = append(b.b, bytes...)
}

// Write implements io.Writer by appending p, so encoding/binary and header
// writers can target the buffer directly.
func (b *Buffer) Write(p []byte) (int, error) {
	b.b = append(b.b, p...)
	return len(p), nil
}

// Swap exchanges contents with other in O(1).
func (b *Buffer) Swap(other *Buffer) {
	b.b, other.b = other.b, b.b
}
