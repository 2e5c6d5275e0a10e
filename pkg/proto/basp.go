package proto

import (
	"encoding/binary"

	"github.com/leemit/actor-framework/pkg/netbuf"
)

// baspHeaderSize is the wire size of a Header: from(4) + to(4).
const baspHeaderSize = 8

// ActorID identifies an actor on either end of a connection.
type ActorID uint32

// Header is the BASP application header routing a payload between actors.
type Header struct {
	From ActorID
	To   ActorID
}

// Writer returns a HeaderWriter appending h in wire layout. Suitable as the
// header writer argument of an endpoint's WrBuf.
func (h Header) Writer() HeaderWriter {
	return func(buf *netbuf.Buffer) error {
		var tmp [baspHeaderSize]byte
		binary.LittleEndian.PutUint32(tmp[0:4], uint32(h.From))
		binary.LittleEndian.PutUint32(tmp[4:8], uint32(h.To))
		buf.PushBack(tmp[:]...)
		return nil
	}
}

// Message is a fully parsed BASP application message. Payload aliases the
// receive buffer (or an ordering layer's pending copy) and is valid only
// while the current read or timeout event is being handled; handlers that
// keep it longer must copy.
type Message struct {
	Header  Header
	Payload []byte
}

// Basp is the innermost protocol layer, parsing the BASP application
// header. It owns no timers.
type Basp struct{}

// HeaderSize returns the BASP header size.
func (Basp) HeaderSize() int { return baspHeaderSize }

// Offset returns the BASP header size; there is no layer below.
func (Basp) Offset() int { return baspHeaderSize }

// Read parses the header off the front of b; the rest is the payload.
func (Basp) Read(_ Dispatcher[Message], b []byte) (Message, error) {
	if len(b) < baspHeaderSize {
		return Message{}, ErrMalformedHeader
	}
	return Message{
		Header: Header{
			From: ActorID(binary.LittleEndian.Uint32(b[0:4])),
			To:   ActorID(binary.LittleEndian.Uint32(b[4:8])),
		},
		Payload: b[baspHeaderSize:],
	}, nil
}

// Timeout never matches; the BASP layer arms no timers.
func (Basp) Timeout(_ Dispatcher[Message], _ any) (Message, error) {
	return Message{}, ErrUnexpectedMessage
}

// WriteHeader invokes the caller-supplied header writer and checks that it
// appended exactly the declared header size.
func (Basp) WriteHeader(buf *netbuf.Buffer, offset int, hw HeaderWriter) (int, error) {
	before := buf.Size()
	if err := hw(buf); err != nil {
		return 0, err
	}
	if buf.Size()-before != baspHeaderSize {
		return 0, ErrBadHeaderWriter
	}
	return offset + baspHeaderSize, nil
}
