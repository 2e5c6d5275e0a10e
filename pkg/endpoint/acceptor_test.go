package endpoint_test

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leemit/actor-framework/pkg/endpoint"
	"github.com/leemit/actor-framework/pkg/proto"
	"github.com/leemit/actor-framework/pkg/transport"
)

func TestAcceptorEchoExchange(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	inited := make(chan struct{}, 1)

	spawn := func(_ net.Conn, tp transport.Transport) (*endpoint.Endpoint[proto.Message], error) {
		var ep *endpoint.Endpoint[proto.Message]
		echo := endpoint.HandlerFunc[proto.Message](func(msg proto.Message) {
			reply := proto.Header{From: msg.Header.To, To: msg.Header.From}
			whdl, err := ep.WrBuf(reply.Writer())
			if err != nil {
				return
			}
			whdl.Buf.PushBack(msg.Payload...)
			_ = ep.Flush()
		})
		ep = endpoint.New(tp, proto.NewOrderedBasp(), echo)
		return ep, nil
	}
	init := func(*endpoint.Endpoint[proto.Message]) error {
		inited <- struct{}{}
		return nil
	}

	acceptor := endpoint.NewAcceptor(lis, spawn, init)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = acceptor.Serve(ctx) }()

	conn, err := net.Dial("tcp", lis.Addr().String())
	require.NoError(t, err)

	echoed := make(chan proto.Message, 1)
	client := endpoint.New(transport.NewFramed(conn), proto.NewOrderedBasp(),
		endpoint.HandlerFunc[proto.Message](func(msg proto.Message) {
			// The payload aliases the receive buffer; copy before handing
			// it to another goroutine.
			copied := msg
			copied.Payload = append([]byte(nil), msg.Payload...)
			echoed <- copied
		}))
	defer func() { _ = client.Close() }()

	whdl, err := client.WrBuf(proto.Header{From: 13, To: 42}.Writer())
	require.NoError(t, err)

	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, 1337)
	whdl.Buf.PushBack(payload...)
	require.NoError(t, client.Flush())

	select {
	case <-inited:
	case <-time.After(5 * time.Second):
		t.Fatal("init hook never ran")
	}

	require.NoError(t, client.ReadEvent())

	select {
	case msg := <-echoed:
		assert.Equal(t, proto.ActorID(42), msg.Header.From)
		assert.Equal(t, proto.ActorID(13), msg.Header.To)
		assert.Equal(t, uint32(1337), binary.LittleEndian.Uint32(msg.Payload))
	default:
		t.Fatal("no echo delivered")
	}
}
