package proto_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leemit/actor-framework/pkg/netbuf"
	"github.com/leemit/actor-framework/pkg/proto"
)

func baspBytes(from, to uint32, payload []byte) []byte {
	b := make([]byte, 8, 8+len(payload))
	binary.LittleEndian.PutUint32(b[0:4], from)
	binary.LittleEndian.PutUint32(b[4:8], to)
	return append(b, payload...)
}

func TestBaspRead(t *testing.T) {
	payload := []byte{0x39, 0x05, 0, 0}
	msg, err := proto.Basp{}.Read(nil, baspBytes(13, 42, payload))
	require.NoError(t, err)

	assert.Equal(t, proto.ActorID(13), msg.Header.From)
	assert.Equal(t, proto.ActorID(42), msg.Header.To)
	assert.Equal(t, payload, msg.Payload)
}

func TestBaspReadEmptyPayload(t *testing.T) {
	msg, err := proto.Basp{}.Read(nil, baspBytes(1, 2, nil))
	require.NoError(t, err)
	assert.Len(t, msg.Payload, 0)
}

func TestBaspReadMalformed(t *testing.T) {
	_, err := proto.Basp{}.Read(nil, []byte{1, 2, 3})
	assert.ErrorIs(t, err, proto.ErrMalformedHeader)
}

func TestBaspTimeoutNeverMatches(t *testing.T) {
	_, err := proto.Basp{}.Timeout(nil, struct{}{})
	assert.ErrorIs(t, err, proto.ErrUnexpectedMessage)
}

func TestBaspWriteHeader(t *testing.T) {
	buf := netbuf.New(nil)
	hdr := proto.Header{From: 13, To: 42}

	n, err := proto.Basp{}.WriteHeader(buf, 0, hdr.Writer())
	require.NoError(t, err)

	assert.Equal(t, 8, n)
	assert.Equal(t, baspBytes(13, 42, nil), buf.Data())
}

func TestBaspWriteHeaderSizeChecked(t *testing.T) {
	short := func(buf *netbuf.Buffer) error {
		buf.PushBack(1, 2, 3)
		return nil
	}
	_, err := proto.Basp{}.WriteHeader(netbuf.New(nil), 0, short)
	assert.ErrorIs(t, err, proto.ErrBadHeaderWriter)
}
