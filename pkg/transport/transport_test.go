package transport_test

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leemit/actor-framework/pkg/transport"
)

func TestMemReadSomeKeepsPrefill(t *testing.T) {
	tp := transport.NewMem()
	tp.RecvBuf().PushBack(1, 2, 3)

	require.NoError(t, tp.ReadSome())
	assert.Equal(t, []byte{1, 2, 3}, tp.RecvBuf().Data())
}

func TestMemWriteSomePreservesSendBuffer(t *testing.T) {
	tp := transport.NewMem()
	tp.WrBuf().PushBack(4, 5)

	require.NoError(t, tp.WriteSome())
	assert.Equal(t, []byte{4, 5}, tp.WrBuf().Data())
}

func TestFramedRoundTrip(t *testing.T) {
	a, b := net.Pipe()
	sender := transport.NewFramed(a)
	receiver := transport.NewFramed(b)

	sender.WrBuf().PushBack([]byte("hello stack")...)

	errCh := make(chan error, 1)
	go func() { errCh <- sender.WriteSome() }()

	require.NoError(t, receiver.ReadSome())
	require.NoError(t, <-errCh)

	assert.Equal(t, []byte("hello stack"), receiver.RecvBuf().Data())
	assert.Equal(t, 0, sender.WrBuf().Size())
}

func TestFramedPreservesFrameBoundaries(t *testing.T) {
	a, b := net.Pipe()
	sender := transport.NewFramed(a)
	receiver := transport.NewFramed(b)

	go func() {
		sender.WrBuf().PushBack(1, 2)
		_ = sender.WriteSome()
		sender.WrBuf().PushBack(3)
		_ = sender.WriteSome()
	}()

	require.NoError(t, receiver.ReadSome())
	assert.Equal(t, []byte{1, 2}, receiver.RecvBuf().Data())

	require.NoError(t, receiver.ReadSome())
	assert.Equal(t, []byte{3}, receiver.RecvBuf().Data())
}

func TestFramedPeerClosed(t *testing.T) {
	a, b := net.Pipe()
	receiver := transport.NewFramed(b)

	require.NoError(t, a.Close())
	assert.ErrorIs(t, receiver.ReadSome(), transport.ErrPeerClosed)
}

func TestFramedEmptySendIsNoop(t *testing.T) {
	a, _ := net.Pipe()
	sender := transport.NewFramed(a)
	require.NoError(t, sender.WriteSome())
}

func TestStreamReadSome(t *testing.T) {
	a, b := net.Pipe()
	tp := transport.NewStream(b)

	go func() {
		_, _ = a.Write([]byte{9, 8, 7})
	}()

	require.NoError(t, tp.ReadSome())
	assert.Equal(t, []byte{9, 8, 7}, tp.RecvBuf().Data())
}

func TestStreamPeerClosed(t *testing.T) {
	a, b := net.Pipe()
	tp := transport.NewStream(b)

	require.NoError(t, a.Close())
	assert.ErrorIs(t, tp.ReadSome(), transport.ErrPeerClosed)
}

func TestStreamWriteSomeEmptiesBuffer(t *testing.T) {
	a, b := net.Pipe()
	tp := transport.NewStream(a)
	tp.WrBuf().PushBack(1, 2, 3)

	go func() {
		buf := make([]byte, 3)
		_, _ = b.Read(buf)
	}()

	require.NoError(t, tp.WriteSome())
	assert.Equal(t, 0, tp.WrBuf().Size())
}

func TestDatagramRoundTrip(t *testing.T) {
	connA, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	connB, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	sender := transport.NewDatagram(connA, connB.LocalAddr())
	receiver := transport.NewDatagram(connB, nil)
	defer func() {
		require.NoError(t, sender.Close())
		require.NoError(t, receiver.Close())
	}()

	sender.WrBuf().PushBack([]byte("one datagram")...)
	require.NoError(t, sender.WriteSome())
	assert.Equal(t, 0, sender.WrBuf().Size())

	require.NoError(t, receiver.ReadSome())
	assert.Equal(t, []byte("one datagram"), receiver.RecvBuf().Data())

	// The accepting side learned its peer from the first datagram and can
	// answer.
	receiver.WrBuf().PushBack([]byte("reply")...)
	require.NoError(t, receiver.WriteSome())

	require.NoError(t, sender.ReadSome())
	assert.Equal(t, []byte("reply"), sender.RecvBuf().Data())
}

func TestDatagramWriteWithoutPeer(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	tp := transport.NewDatagram(conn, nil)
	tp.WrBuf().PushBack(1)
	assert.ErrorIs(t, tp.WriteSome(), transport.ErrNoPeer)
}
