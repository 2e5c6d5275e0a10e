package transport

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/leemit/actor-framework/pkg/netbuf"
)

// maxFrameBody is the largest body a 16-bit length prefix can describe.
const maxFrameBody = 65535

// Framed runs whole-frame units over any stream by prepending a 2-byte
// big-endian length to every send buffer flush. One ReadSome yields
// exactly one frame, which gives reassembly layers datagram-like units on
// a TCP connection.
type Framed struct {
	rw   io.ReadWriter
	recv *netbuf.Buffer
	send *netbuf.Buffer
}

// NewFramed constructs a framed transport over rw.
func NewFramed(rw io.ReadWriter) *Framed {
	return &Framed{
		rw:   rw,
		recv: netbuf.New(nil),
		send: netbuf.New(nil),
	}
}

// ReadSome reads one length-prefixed frame into the receive buffer.
func (f *Framed) ReadSome() error {
	var prefix [2]byte
	if _, err := io.ReadFull(f.rw, prefix[:]); err != nil {
		if err == io.EOF {
			return ErrPeerClosed
		}
		return errors.Wrap(err, "frame prefix read")
	}
	size := int(binary.BigEndian.Uint16(prefix[:]))
	f.recv.Resize(size)
	if _, err := io.ReadFull(f.rw, f.recv.Data()); err != nil {
		f.recv.Reset()
		return errors.Wrap(err, "frame body read")
	}
	return nil
}

// WriteSome transmits the send buffer as one length-prefixed frame and
// empties it.
func (f *Framed) WriteSome() error {
	size := f.send.Size()
	if size == 0 {
		return nil
	}
	if size > maxFrameBody {
		return ErrFrameTooLarge
	}
	packet := make([]byte, size+2)
	binary.BigEndian.PutUint16(packet[:2], uint16(size))
	copy(packet[2:], f.send.Data())
	if _, err := f.rw.Write(packet); err != nil {
		return errors.Wrap(err, "frame write")
	}
	f.send.Reset()
	return nil
}

// WrBuf borrows the send buffer.
func (f *Framed) WrBuf() *netbuf.Buffer { return f.send }

// RecvBuf borrows the receive buffer.
func (f *Framed) RecvBuf() *netbuf.Buffer { return f.recv }

// Close closes the underlying stream when it is closable.
func (f *Framed) Close() error {
	if c, ok := f.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
