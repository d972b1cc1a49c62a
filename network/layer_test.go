package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meshnet/neighbor"
	"meshnet/wire"
)

type fakeDatalink struct {
	sent []sentFrame
}

type sentFrame struct {
	payload []byte
	nextHop wire.NodeID
}

func (f *fakeDatalink) SendFrame(payload []byte, nextHop wire.NodeID) error {
	cp := make([]byte, len(payload))
	copy(cp, payload)
	f.sent = append(f.sent, sentFrame{payload: cp, nextHop: nextHop})
	return nil
}

type fakeTransport struct {
	received [][]byte
}

func (f *fakeTransport) ReceiveFromNetwork(encoded []byte) {
	cp := make([]byte, len(encoded))
	copy(cp, encoded)
	f.received = append(f.received, cp)
}

func TestSendFromTransportNoRouteDropsSilently(t *testing.T) {
	set := neighbor.NewSet(nil)
	dl := &fakeDatalink{}
	tr := &fakeTransport{}
	l := NewLayer(0, set, dl, tr, nil)

	err := l.SendFromTransport([]byte("hi"), 9)
	require.NoError(t, err)
	assert.Empty(t, dl.sent)
}

func TestSendFromTransportRoutesToNextHop(t *testing.T) {
	set := neighbor.NewSet([]wire.NodeID{1})
	dl := &fakeDatalink{}
	tr := &fakeTransport{}
	l := NewLayer(0, set, dl, tr, nil)
	l.routingTable[2] = 1 // pretend routes have converged

	require.NoError(t, l.SendFromTransport([]byte("hi"), 2))
	require.Len(t, dl.sent, 1)
	assert.Equal(t, wire.NodeID(1), dl.sent[0].nextHop)
}

func TestReceiveDataLocalDeliversToTransport(t *testing.T) {
	set := neighbor.NewSet(nil)
	dl := &fakeDatalink{}
	tr := &fakeTransport{}
	l := NewLayer(1, set, dl, tr, nil)

	payload, err := wire.EncodeDataPacket(1, []byte("hello"))
	require.NoError(t, err)
	l.ReceiveFromDatalink(payload, 0)

	require.Len(t, tr.received, 1)
	assert.Equal(t, []byte("hello"), tr.received[0][:5])
}

func TestReceiveDataForwardsWhenNotLocal(t *testing.T) {
	set := neighbor.NewSet([]wire.NodeID{2})
	dl := &fakeDatalink{}
	tr := &fakeTransport{}
	l := NewLayer(1, set, dl, tr, nil)
	l.routingTable[3] = 2

	payload, err := wire.EncodeDataPacket(3, []byte("hi"))
	require.NoError(t, err)
	l.ReceiveFromDatalink(payload, 0)

	assert.Empty(t, tr.received)
	require.Len(t, dl.sent, 1)
	assert.Equal(t, wire.NodeID(2), dl.sent[0].nextHop)
	assert.Equal(t, payload, dl.sent[0].payload)
}

func TestLSPFloodSuppressionDropsStale(t *testing.T) {
	set := neighbor.NewSet([]wire.NodeID{2})
	dl := &fakeDatalink{}
	tr := &fakeTransport{}
	l := NewLayer(1, set, dl, tr, nil)

	payload, err := wire.EncodeLSPPacket(0, 5, []wire.NodeID{1})
	require.NoError(t, err)
	l.ReceiveFromDatalink(payload, 2)
	firstSent := len(dl.sent)
	require.NotZero(t, firstSent)

	// Re-deliver the same (origin, seq): must not reflood or recompute again.
	l.ReceiveFromDatalink(payload, 2)
	assert.Equal(t, firstSent, len(dl.sent))

	older, err := wire.EncodeLSPPacket(0, 3, []wire.NodeID{1})
	require.NoError(t, err)
	l.ReceiveFromDatalink(older, 2)
	assert.Equal(t, firstSent, len(dl.sent))
}

func TestLSPRefreshesPulseWhenNamed(t *testing.T) {
	set := neighbor.NewSet(nil)
	dl := &fakeDatalink{}
	tr := &fakeTransport{}
	l := NewLayer(1, set, dl, tr, nil)

	assert.False(t, set.IsNeighbor(0))
	payload, err := wire.EncodeLSPPacket(0, 1, []wire.NodeID{1})
	require.NoError(t, err)
	l.ReceiveFromDatalink(payload, 0)
	assert.True(t, set.IsNeighbor(0))
}

func TestRecomputeRoutesLinearTopology(t *testing.T) {
	// 0 -- 1 -- 2, routes computed on node 0 after LSPs from 1 and 2 arrive.
	set := neighbor.NewSet([]wire.NodeID{1})
	dl := &fakeDatalink{}
	tr := &fakeTransport{}
	l := NewLayer(0, set, dl, tr, nil)

	lsp1, err := wire.EncodeLSPPacket(1, 0, []wire.NodeID{0, 2})
	require.NoError(t, err)
	l.ReceiveFromDatalink(lsp1, 1)

	lsp2, err := wire.EncodeLSPPacket(2, 0, []wire.NodeID{1})
	require.NoError(t, err)
	l.ReceiveFromDatalink(lsp2, 1)

	hop, ok := l.Route(2)
	require.True(t, ok)
	assert.Equal(t, wire.NodeID(1), hop)

	self, ok := l.Route(0)
	require.True(t, ok)
	assert.Equal(t, wire.NodeID(0), self)
}

// A dead node's own last-known LSP record never expires, but once every
// live neighbor's fresher LSP stops naming it, nothing should still route
// to it: stale out-edges only belong to the dead node itself, and nothing
// ever reaches it to walk them.
func TestRecomputeRoutesDeadNodeStaleLSPBecomesUnreachable(t *testing.T) {
	set := neighbor.NewSet([]wire.NodeID{0}) // node 1 already pruned node 2
	dl := &fakeDatalink{}
	tr := &fakeTransport{}
	l := NewLayer(1, set, dl, tr, nil)

	// node 2's own last LSP before it died, listing node 3 as a neighbor.
	// Deliberately omits node 1 from the listed neighbors so delivering it
	// here doesn't also trip the pulse-refresh path (receiveLSP re-arms and
	// re-adds a neighbor whenever an incoming LSP names self, even a
	// duplicate/stale one) and undo the "already pruned" setup above.
	stale, err := wire.EncodeLSPPacket(2, 0, []wire.NodeID{3})
	require.NoError(t, err)
	l.ReceiveFromDatalink(stale, 0)

	// node 0's current LSP: still alive, still lists 1 and 3.
	lsp0, err := wire.EncodeLSPPacket(0, 0, []wire.NodeID{1, 3})
	require.NoError(t, err)
	l.ReceiveFromDatalink(lsp0, 0)

	// node 3's fresher LSP, emitted after it pruned node 2: no longer lists 2.
	lsp3, err := wire.EncodeLSPPacket(3, 0, []wire.NodeID{0})
	require.NoError(t, err)
	l.ReceiveFromDatalink(lsp3, 0)

	_, ok := l.Route(2)
	assert.False(t, ok, "node 2's own stale LSP record must not resurrect a route to it")

	hop, ok := l.Route(0)
	require.True(t, ok)
	assert.Equal(t, wire.NodeID(0), hop)
}

func TestEmitLSPSendsToEveryNeighborAndAdvancesSeq(t *testing.T) {
	set := neighbor.NewSet([]wire.NodeID{1, 2})
	dl := &fakeDatalink{}
	tr := &fakeTransport{}
	l := NewLayer(0, set, dl, tr, nil)

	l.EmitLSP()
	require.Len(t, dl.sent, 2)
	assert.Equal(t, 1, l.lspSeqNum)
}

func TestShouldEmitLSP(t *testing.T) {
	assert.True(t, ShouldEmitLSP(0))
	assert.True(t, ShouldEmitLSP(10))
	assert.False(t, ShouldEmitLSP(5))
}
