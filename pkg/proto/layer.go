// Package proto implements the composable protocol-policy layers an
// endpoint routes its bytes through. Layers nest from outermost (wire) to
// innermost (application message): each layer strips its own header on
// ingress, appends it on egress, and may buffer fragments and arm timeouts.
package proto

import (
	"errors"
	"time"

	"github.com/leemit/actor-framework/pkg/netbuf"
)

var (
	// ErrDeferred occurs when a layer buffered the incoming bytes instead
	// of producing a message. The message may surface later through a
	// subsequent read or a timeout event.
	ErrDeferred = errors.New("message deferred by protocol layer")

	// ErrMalformedHeader occurs when a layer is handed fewer bytes than
	// its header size.
	ErrMalformedHeader = errors.New("malformed header")

	// ErrStaleMessage occurs when an already-delivered sequence number
	// arrives again and is dropped.
	ErrStaleMessage = errors.New("stale message dropped")

	// ErrUnexpectedMessage occurs when no layer in the stack can produce
	// a delivery for an event, e.g. a timeout whose sequence number is no
	// longer pending.
	ErrUnexpectedMessage = errors.New("unexpected message")

	// ErrBadHeaderWriter occurs when a header writer appends a number of
	// bytes other than the innermost layer's header size.
	ErrBadHeaderWriter = errors.New("header writer appended wrong number of bytes")
)

// HeaderWriter appends the innermost application header to the send buffer.
// It must append exactly the innermost layer's header size, in wire layout.
type HeaderWriter func(*netbuf.Buffer) error

// Dispatcher is what a layer sees of its parent endpoint: arming timeouts
// and pushing extra deliveries straight to the handler when one read event
// releases more than one message.
type Dispatcher[M any] interface {
	// SetTimeout schedules msg for redelivery via a timeout event after d.
	SetTimeout(d time.Duration, msg any)

	// Deliver hands msg to the endpoint's handler immediately.
	Deliver(msg M)
}

// Layer is a single tier of a protocol stack. An outer layer holds its
// inner layer and delegates to it after stripping its own header; the
// innermost layer produces the application message M.
type Layer[M any] interface {
	// HeaderSize returns the number of bytes this layer's header occupies
	// on the wire.
	HeaderSize() int

	// Offset returns the summed header sizes of this layer and all layers
	// below it.
	Offset() int

	// Read parses and strips this layer's header from the front of b,
	// then either defers (buffering the bytes and arming a timeout) or
	// delegates the remainder to the inner layer. Returned messages may
	// alias b; they are valid only until the receive buffer is refilled.
	Read(parent Dispatcher[M], b []byte) (M, error)

	// Timeout handles a timeout message belonging to this layer, or
	// delegates it to the inner layer.
	Timeout(parent Dispatcher[M], msg any) (M, error)

	// WriteHeader appends this layer's header to buf and recurses into
	// the inner layer, threading the running offset. The innermost layer
	// invokes hw to append the application header. Returns the total
	// header bytes appended.
	WriteHeader(buf *netbuf.Buffer, offset int, hw HeaderWriter) (int, error)
}
