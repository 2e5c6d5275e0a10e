package proto

import (
	"github.com/leemit/actor-framework/pkg/netbuf"
)

// Stack wraps a fully composed nest of layers behind the uniform interface
// an endpoint consumes. It seeds the running write offset and restores the
// send buffer when a header writer fails.
type Stack[M any] struct {
	outer Layer[M]
}

// NewStack wraps the outermost layer of a composed nest.
func NewStack[M any](outer Layer[M]) *Stack[M] {
	return &Stack[M]{outer: outer}
}

// NewOrderedBasp composes the canonical ordering-over-basp stack.
func NewOrderedBasp() *Stack[Message] {
	return NewStack[Message](NewOrdering[Message](Basp{}))
}

// Read feeds one transport read's worth of bytes through the stack.
func (s *Stack[M]) Read(parent Dispatcher[M], b []byte) (M, error) {
	return s.outer.Read(parent, b)
}

// Timeout re-enters the stack with a timeout message.
func (s *Stack[M]) Timeout(parent Dispatcher[M], msg any) (M, error) {
	return s.outer.Timeout(parent, msg)
}

// WriteHeader reserves all layers' headers at the end of buf, outermost
// first, with hw producing the innermost application header. On error the
// buffer is restored to its previous size; sequence counters already
// advanced by outer layers are not rolled back.
func (s *Stack[M]) WriteHeader(buf *netbuf.Buffer, hw HeaderWriter) (int, error) {
	before := buf.Size()
	n, err := s.outer.WriteHeader(buf, 0, hw)
	if err != nil {
		buf.Resize(before)
		return 0, err
	}
	return n, nil
}

// Offset returns the summed header size of all layers.
func (s *Stack[M]) Offset() int {
	return s.outer.Offset()
}
