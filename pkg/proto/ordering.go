package proto

import (
	"encoding/binary"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/leemit/actor-framework/pkg/netbuf"
)

var log logrus.FieldLogger = logrus.StandardLogger().WithField("module", "proto")

// orderingHeaderSize is the wire size of the sequence number header.
const orderingHeaderSize = 4

// DefaultPendingTimeout is how long an out-of-order message waits for the
// missing sequence numbers before a timeout forces it through.
const DefaultPendingTimeout = 2 * time.Second

// OrderingTimeout is the timeout message the ordering layer arms for an
// out-of-order arrival. It re-enters the stack through a timeout event.
type OrderingTimeout struct {
	Seq uint32
}

// Ordering is a wrapper layer adding a sequence number to every outgoing
// frame and reassembling incoming frames into sequence order. Frames
// arriving ahead of the expected sequence number are copied into a pending
// map and released either by the arrival of the missing frames or by a
// timeout that gives up on them.
//
// Sequence numbers do not wrap; the 32-bit space is assumed adequate for a
// session.
type Ordering[M any] struct {
	// PendingTimeout is armed per buffered out-of-order frame.
	PendingTimeout time.Duration

	next         Layer[M]
	nextSeqRead  uint32
	nextSeqWrite uint32
	pending      map[uint32][]byte
}

// NewOrdering wraps next in an ordering layer with the default pending
// timeout.
func NewOrdering[M any](next Layer[M]) *Ordering[M] {
	return &Ordering[M]{
		PendingTimeout: DefaultPendingTimeout,
		next:           next,
		pending:        make(map[uint32][]byte),
	}
}

// HeaderSize returns the sequence header size.
func (o *Ordering[M]) HeaderSize() int { return orderingHeaderSize }

// Offset returns the summed header sizes of this layer and all layers
// below it.
func (o *Ordering[M]) Offset() int { return o.next.Offset() + orderingHeaderSize }

// Read strips the sequence header. In-order frames are delegated to the
// inner layer and followed by any directly succeeding pending frames;
// frames ahead of the expected sequence are buffered with a timeout armed;
// frames behind it are dropped.
func (o *Ordering[M]) Read(parent Dispatcher[M], b []byte) (M, error) {
	var none M
	if len(b) < orderingHeaderSize {
		return none, ErrMalformedHeader
	}
	seq := binary.LittleEndian.Uint32(b)
	switch {
	case seq == o.nextSeqRead:
		o.nextSeqRead++
		msg, err := o.next.Read(parent, b[orderingHeaderSize:])
		if err != nil {
			return none, err
		}
		return o.drain(parent, msg)

	case seq > o.nextSeqRead:
		// The receive buffer is refilled by the next read, so the bytes
		// must be copied out. A duplicate arrival overwrites the copy and
		// re-arms the timeout.
		buf := make([]byte, len(b)-orderingHeaderSize)
		copy(buf, b[orderingHeaderSize:])
		o.pending[seq] = buf
		log.Debugf("buffering out-of-order frame: seq(%d) expected(%d)", seq, o.nextSeqRead)
		parent.SetTimeout(o.PendingTimeout, OrderingTimeout{Seq: seq})
		return none, ErrDeferred

	default:
		log.Debugf("dropping stale frame: seq(%d) expected(%d)", seq, o.nextSeqRead)
		return none, ErrStaleMessage
	}
}

// drain releases directly succeeding pending frames after an in-order
// delivery. Only one message can travel up the stack per event, so all but
// the last are pushed to the handler through the parent.
func (o *Ordering[M]) drain(parent Dispatcher[M], msg M) (M, error) {
	for {
		buf, ok := o.pending[o.nextSeqRead]
		if !ok {
			return msg, nil
		}
		delete(o.pending, o.nextSeqRead)
		o.nextSeqRead++
		parent.Deliver(msg)
		next, err := o.next.Read(parent, buf)
		if err != nil {
			var none M
			return none, err
		}
		msg = next
	}
}

// Timeout releases the buffered frame the timeout was armed for, giving up
// on the sequence numbers before it. A timeout whose frame was already
// delivered in order is ignored.
func (o *Ordering[M]) Timeout(parent Dispatcher[M], msg any) (M, error) {
	to, ok := msg.(OrderingTimeout)
	if !ok {
		return o.next.Timeout(parent, msg)
	}
	var none M
	buf, ok := o.pending[to.Seq]
	if !ok {
		return none, ErrUnexpectedMessage
	}
	delete(o.pending, to.Seq)
	log.Debugf("pending frame timed out, advancing: seq(%d) expected(%d)", to.Seq, o.nextSeqRead)
	o.nextSeqRead = to.Seq + 1
	// The forced advance makes frames below the new expected sequence
	// undeliverable; their timeouts become no-ops.
	for seq := range o.pending {
		if seq < o.nextSeqRead {
			delete(o.pending, seq)
		}
	}
	return o.next.Read(parent, buf)
}

// WriteHeader appends the next write sequence number and recurses.
func (o *Ordering[M]) WriteHeader(buf *netbuf.Buffer, offset int, hw HeaderWriter) (int, error) {
	var tmp [orderingHeaderSize]byte
	binary.LittleEndian.PutUint32(tmp[:], o.nextSeqWrite)
	o.nextSeqWrite++
	buf.PushBack(tmp[:]...)
	return o.next.WriteHeader(buf, offset+orderingHeaderSize, hw)
}
