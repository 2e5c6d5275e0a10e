package transport

import (
	"io"
	"net"

	"github.com/pkg/errors"

	"github.com/leemit/actor-framework/pkg/netbuf"
)

// defaultReadSize bounds how many bytes a single stream read can deliver.
const defaultReadSize = 65536

// Stream is a raw stream transport. One ReadSome performs one read from
// the connection with no framing, so the protocol stack on top must be
// self-delimiting; stacks that need whole-message units should run over
// Framed or Datagram instead.
type Stream struct {
	conn net.Conn
	recv *netbuf.Buffer
	send *netbuf.Buffer
}

// NewStream constructs a stream transport over conn.
func NewStream(conn net.Conn) *Stream {
	return &Stream{
		conn: conn,
		recv: netbuf.New(nil),
		send: netbuf.New(nil),
	}
}

// ReadSome refills the receive buffer with one read's worth of bytes. A
// closed peer is reported as ErrPeerClosed.
func (s *Stream) ReadSome() error {
	s.recv.Resize(defaultReadSize)
	n, err := s.conn.Read(s.recv.Data())
	if err != nil {
		s.recv.Reset()
		if err == io.EOF {
			return ErrPeerClosed
		}
		return errors.Wrap(err, "stream read")
	}
	if n == 0 {
		s.recv.Reset()
		return ErrPeerClosed
	}
	s.recv.Resize(n)
	return nil
}

// WriteSome transmits the entire send buffer and empties it.
func (s *Stream) WriteSome() error {
	if s.send.Size() == 0 {
		return nil
	}
	if _, err := s.conn.Write(s.send.Data()); err != nil {
		return errors.Wrap(err, "stream write")
	}
	s.send.Reset()
	return nil
}

// WrBuf borrows the send buffer.
func (s *Stream) WrBuf() *netbuf.Buffer { return s.send }

// RecvBuf borrows the receive buffer.
func (s *Stream) RecvBuf() *netbuf.Buffer { return s.recv }

// Close closes the underlying connection.
func (s *Stream) Close() error { return s.conn.Close() }
