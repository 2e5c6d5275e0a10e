// Package transport owns the socket I/O and the send/receive byte buffer
// pair an endpoint routes its protocol stack over.
package transport

import (
	"errors"

	"github.com/leemit/actor-framework/pkg/netbuf"
	"github.com/leemit/actor-framework/pkg/proto"
)

var (
	// ErrPeerClosed occurs when a stream read returns zero bytes because
	// the remote end closed the connection.
	ErrPeerClosed = errors.New("peer closed the connection")

	// ErrFrameTooLarge occurs when a frame exceeds the framed transport's
	// 16-bit length prefix.
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")

	// ErrNoPeer occurs when a datagram transport is asked to send before
	// a peer address is known.
	ErrNoPeer = errors.New("no peer address")
)

// Transport performs raw socket I/O for one connection. It owns a receive
// buffer, refilled in place by ReadSome, and a send buffer, grown by the
// protocol layers and drained by WriteSome.
type Transport interface {
	// ReadSome refills the receive buffer from the socket, overwriting
	// its previous contents.
	ReadSome() error

	// WriteSome transmits the entire send buffer and, on success,
	// empties it.
	WriteSome() error

	// WrBuf borrows the send buffer.
	WrBuf() *netbuf.Buffer

	// RecvBuf borrows the receive buffer.
	RecvBuf() *netbuf.Buffer

	// Close releases the underlying socket.
	Close() error
}

// ReadMessage refills t's receive buffer and feeds it through the stack,
// yielding the application message the innermost layer produced.
func ReadMessage[M any](t Transport, parent proto.Dispatcher[M], stack *proto.Stack[M]) (M, error) {
	var none M
	if err := t.ReadSome(); err != nil {
		return none, err
	}
	return stack.Read(parent, t.RecvBuf().Data())
}
