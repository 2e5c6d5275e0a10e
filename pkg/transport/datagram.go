package transport

import (
	"net"

	"github.com/pkg/errors"

	"github.com/leemit/actor-framework/pkg/netbuf"
)

// maxDatagramSize bounds a single received datagram.
const maxDatagramSize = 65535

// Datagram is a packet transport: one ReadSome yields exactly one
// datagram, one WriteSome sends the whole send buffer as one datagram.
// When constructed without a peer address, the sender of the first
// received datagram becomes the peer.
type Datagram struct {
	conn  net.PacketConn
	raddr net.Addr
	recv  *netbuf.Buffer
	send  *netbuf.Buffer
}

// NewDatagram constructs a datagram transport over conn, sending to raddr.
// raddr may be nil for the accepting side.
func NewDatagram(conn net.PacketConn, raddr net.Addr) *Datagram {
	return &Datagram{
		conn:  conn,
		raddr: raddr,
		recv:  netbuf.New(nil),
		send:  netbuf.New(nil),
	}
}

// ReadSome refills the receive buffer with one datagram.
func (d *Datagram) ReadSome() error {
	d.recv.Resize(maxDatagramSize)
	n, addr, err := d.conn.ReadFrom(d.recv.Data())
	if err != nil {
		d.recv.Reset()
		return errors.Wrap(err, "datagram read")
	}
	if d.raddr == nil {
		d.raddr = addr
	}
	d.recv.Resize(n)
	return nil
}

// WriteSome sends the send buffer as one datagram and empties it.
func (d *Datagram) WriteSome() error {
	if d.send.Size() == 0 {
		return nil
	}
	if d.raddr == nil {
		return ErrNoPeer
	}
	if _, err := d.conn.WriteTo(d.send.Data(), d.raddr); err != nil {
		return errors.Wrap(err, "datagram write")
	}
	d.send.Reset()
	return nil
}

// WrBuf borrows the send buffer.
func (d *Datagram) WrBuf() *netbuf.Buffer { return d.send }

// RecvBuf borrows the receive buffer.
func (d *Datagram) RecvBuf() *netbuf.Buffer { return d.recv }

// Close closes the underlying packet connection.
func (d *Datagram) Close() error { return d.conn.Close() }
