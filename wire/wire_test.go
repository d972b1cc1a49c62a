package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum100Matches(t *testing.T) {
	payload := []byte("D1005hello    ")
	got := Checksum(payload)
	var want int
	for _, b := range payload {
		want += int(b)
	}
	want %= 100
	assert.Equal(t, want, got)
}

func TestEncodeDecodeFrameRoundTrip(t *testing.T) {
	payload, err := EncodeDataPacket(1, []byte("hello"))
	require.NoError(t, err)
	frame, err := EncodeFrame(payload)
	require.NoError(t, err)
	require.Len(t, frame, FrameSize)
	assert.Equal(t, "XX", string(frame[:2]))

	decoded, err := DecodeFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestDecodeFrameBadPreamble(t *testing.T) {
	payload, _ := EncodeDataPacket(1, []byte("hi"))
	frame, _ := EncodeFrame(payload)
	frame[0] = 'Y'
	_, err := DecodeFrame(frame)
	assert.ErrorIs(t, err, ErrBadPreamble)
}

func TestDecodeFrameBadChecksum(t *testing.T) {
	payload, _ := EncodeDataPacket(1, []byte("hi"))
	frame, _ := EncodeFrame(payload)
	frame[len(frame)-1] ^= 0xFF
	_, err := DecodeFrame(frame)
	assert.ErrorIs(t, err, ErrBadChecksum)
}

func TestDecodeFrameBadPreambleAndChecksumBothReported(t *testing.T) {
	payload, _ := EncodeDataPacket(1, []byte("hi"))
	frame, _ := EncodeFrame(payload)
	frame[0] = 'Y'
	frame[len(frame)-1] ^= 0xFF

	_, err := DecodeFrame(frame)
	assert.ErrorIs(t, err, ErrBadPreamble)
	assert.ErrorIs(t, err, ErrBadChecksum)
}

func TestValidatorAccumulatesAndResets(t *testing.T) {
	var v Validator
	assert.NoError(t, v.Err())

	v.ValidateFrameSize([]byte("too short"))
	v.ValidatePacketSize([]byte("also too short"))
	err := v.Err()
	assert.ErrorIs(t, err, ErrFrameSize)
	assert.ErrorIs(t, err, ErrPacketSize)

	v.ResetErr()
	assert.NoError(t, v.Err())
}

func TestDataPacketRoundTrip(t *testing.T) {
	payload, err := EncodeDataPacket(3, []byte("abcdefghij"))
	require.NoError(t, err)
	require.Len(t, payload, PacketSize)

	kind, err := Kind(payload)
	require.NoError(t, err)
	assert.Equal(t, PacketKindData, kind)

	pkt, err := ParseDataPacket(payload)
	require.NoError(t, err)
	assert.Equal(t, NodeID(3), pkt.Dest)
	assert.Equal(t, []byte("abcdefghij"), pkt.Message)
}

func TestLSPPacketRoundTrip(t *testing.T) {
	payload, err := EncodeLSPPacket(2, 7, []NodeID{0, 1, 3})
	require.NoError(t, err)
	require.Len(t, payload, PacketSize)

	pkt, err := ParseLSPPacket(payload)
	require.NoError(t, err)
	assert.Equal(t, NodeID(2), pkt.Source)
	assert.Equal(t, 7, pkt.Seq)
	assert.Equal(t, []NodeID{0, 1, 3}, pkt.Neighbors)
}

func TestLSPPacketEmptyNeighbors(t *testing.T) {
	payload, err := EncodeLSPPacket(5, 0, nil)
	require.NoError(t, err)
	pkt, err := ParseLSPPacket(payload)
	require.NoError(t, err)
	assert.Empty(t, pkt.Neighbors)
}

func TestDataMessageRoundTrip(t *testing.T) {
	msg := DataMessage{Source: 0, Dest: 1, Seq: 42, Fragment: []byte("abcde")}
	encoded, err := msg.Encode()
	require.NoError(t, err)

	got, err := ParseDataMessage(encoded)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestDataMessageFragmentTooLong(t *testing.T) {
	msg := DataMessage{Source: 0, Dest: 1, Seq: 0, Fragment: []byte("abcdef")}
	_, err := msg.Encode()
	assert.ErrorIs(t, err, ErrMessageTooLong)
}

func TestNackMessageRoundTrip(t *testing.T) {
	msg := NackMessage{Source: 2, Dest: 0, Seq: 99}
	encoded, err := msg.Encode()
	require.NoError(t, err)
	got, err := ParseNackMessage(encoded)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestNackMessageSeqOutOfRange(t *testing.T) {
	_, err := NackMessage{Source: 0, Dest: 1, Seq: 100}.Encode()
	assert.ErrorIs(t, err, ErrInvalidSeq)
}

func TestParseNodeID(t *testing.T) {
	id, err := ParseNodeID('7')
	require.NoError(t, err)
	assert.Equal(t, NodeID(7), id)

	_, err = ParseNodeID('a')
	assert.ErrorIs(t, err, ErrInvalidNodeID)
}
