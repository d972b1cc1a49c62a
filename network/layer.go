// Package network implements link-state-packet flooding with
// sequence-number suppression, Dijkstra-based routing table computation,
// next-hop forwarding, and neighbor liveness refresh, per spec.md §4.2.
package network

import (
	"log/slog"

	"meshnet/internal/logger"
	"meshnet/neighbor"
	"meshnet/wire"
)

// lspEmitPeriod is how often (in ticks) a node emits a fresh LSP of its own,
// per spec.md §4.2.
const lspEmitPeriod = 10

// DatalinkSink is the downward interface the network layer hands encoded
// 15-byte payloads to for transmission toward a given next hop. Satisfied
// structurally by *datalink.Layer.
type DatalinkSink interface {
	SendFrame(payload []byte, nextHop wire.NodeID) error
}

// TransportSink is the upward interface the network layer hands locally
// addressed transport messages to. Satisfied structurally by
// *transport.Layer.
type TransportSink interface {
	ReceiveFromNetwork(encoded []byte)
}

// lspRecord is the latest-known link-state record for one originator.
type lspRecord struct {
	seq       int
	neighbors []wire.NodeID
}

// Layer is the per-node network layer.
type Layer struct {
	Self      wire.NodeID
	Neighbors *neighbor.Set
	Datalink  DatalinkSink
	Transport TransportSink

	routingTable   map[wire.NodeID]wire.NodeID
	lspData        map[wire.NodeID]lspRecord
	lspSeqNumTable map[wire.NodeID]int
	lspSeqNum      int

	log logger.L
}

// NewLayer constructs a network Layer.
func NewLayer(self wire.NodeID, neighbors *neighbor.Set, datalink DatalinkSink, transport TransportSink, log *slog.Logger) *Layer {
	l := &Layer{
		Self:           self,
		Neighbors:      neighbors,
		Datalink:       datalink,
		Transport:      transport,
		routingTable:   make(map[wire.NodeID]wire.NodeID),
		lspData:        make(map[wire.NodeID]lspRecord),
		lspSeqNumTable: make(map[wire.NodeID]int),
		log:            logger.L{Log: log},
	}
	l.routingTable[self] = self
	return l
}

// Route returns the current next hop toward dest, if any.
func (l *Layer) Route(dest wire.NodeID) (wire.NodeID, bool) {
	hop, ok := l.routingTable[dest]
	return hop, ok
}

// SendFromTransport is the egress path from the transport layer
// (spec.md §4.2): wrap message as a Data packet addressed to dest and hand
// it to the datalink layer toward the routed next hop. Messages to an
// unknown destination are dropped with a diagnostic, per spec.md §7's
// "no route" error kind.
func (l *Layer) SendFromTransport(message []byte, dest wire.NodeID) error {
	nextHop, ok := l.routingTable[dest]
	if !ok {
		l.log.Warn("network: no route", slog.Int("self", int(l.Self)), slog.Int("dest", int(dest)))
		return nil
	}
	payload, err := wire.EncodeDataPacket(dest, message)
	if err != nil {
		return err
	}
	return l.Datalink.SendFrame(payload, nextHop)
}

// ReceiveFromDatalink is the ingress path from the datalink layer
// (spec.md §4.2): dispatches on the packet discriminator.
func (l *Layer) ReceiveFromDatalink(payload []byte, from wire.NodeID) {
	kind, err := wire.Kind(payload)
	if err != nil {
		l.log.Warn("network: unparseable packet", slog.String("err", err.Error()))
		return
	}
	switch kind {
	case wire.PacketKindData:
		l.receiveData(payload)
	case wire.PacketKindLSP:
		l.receiveLSP(payload, from)
	}
}

func (l *Layer) receiveData(payload []byte) {
	pkt, err := wire.ParseDataPacket(payload)
	if err != nil {
		l.log.Warn("network: bad data packet", slog.String("err", err.Error()))
		return
	}
	if pkt.Dest == l.Self {
		l.Transport.ReceiveFromNetwork(pkt.Message)
		return
	}
	nextHop, ok := l.routingTable[pkt.Dest]
	if !ok {
		l.log.Warn("network: no route", slog.Int("self", int(l.Self)), slog.Int("dest", int(pkt.Dest)))
		return
	}
	// Forward the original 15-byte payload unchanged, per spec.md §4.2.
	if err := l.Datalink.SendFrame(payload, nextHop); err != nil {
		l.log.Warn("network: forward failed", slog.String("err", err.Error()))
	}
}

func (l *Layer) receiveLSP(payload []byte, from wire.NodeID) {
	pkt, err := wire.ParseLSPPacket(payload)
	if err != nil {
		l.log.Warn("network: bad LSP packet", slog.String("err", err.Error()))
		return
	}

	for _, n := range pkt.Neighbors {
		if n == l.Self {
			l.Neighbors.RefreshPulse(pkt.Source)
			break
		}
	}

	// Flood suppression: accept only strictly newer sequence numbers.
	prevSeq, seen := l.lspSeqNumTable[pkt.Source]
	if seen && pkt.Seq <= prevSeq {
		l.log.Trace("network: dropping stale/duplicate LSP", slog.Int("origin", int(pkt.Source)), slog.Int("seq", pkt.Seq))
		return
	}
	l.lspSeqNumTable[pkt.Source] = pkt.Seq

	rec, hadRecord := l.lspData[pkt.Source]
	if !hadRecord || pkt.Seq > rec.seq {
		l.lspData[pkt.Source] = lspRecord{seq: pkt.Seq, neighbors: pkt.Neighbors}
	}

	l.reflood(payload, pkt.Source, pkt.Neighbors, from)
	l.recomputeRoutes()
}

// reflood forwards an accepted LSP payload to every current neighbor except
// its originator and any neighbor already named in the LSP's own neighbor
// list, per spec.md §4.2. Notably this does not special-case the neighbor
// the LSP arrived from (`from`) beyond that exclusion set, matching the
// original implementation's flooding rule.
func (l *Layer) reflood(payload []byte, origin wire.NodeID, listed []wire.NodeID, from wire.NodeID) {
	_ = from
	already := make(map[wire.NodeID]bool, len(listed))
	for _, n := range listed {
		already[n] = true
	}
	for _, n := range l.Neighbors.List() {
		if n == origin || already[n] {
			continue
		}
		if err := l.Datalink.SendFrame(payload, n); err != nil {
			l.log.Warn("network: reflood failed", slog.String("err", err.Error()), slog.Int("to", int(n)))
		}
	}
}

// EmitLSP builds and floods this node's own LSP to every current neighbor,
// then advances lspSeqNum, per spec.md §4.2. Called every lspEmitPeriod
// ticks by the owning node.
func (l *Layer) EmitLSP() {
	neighbors := l.Neighbors.List()
	payload, err := wire.EncodeLSPPacket(l.Self, l.lspSeqNum, neighbors)
	if err != nil {
		l.log.Error("network: encode own LSP failed", slog.String("err", err.Error()))
		return
	}
	l.lspSeqNum = (l.lspSeqNum + 1) % 100
	for _, n := range neighbors {
		if err := l.Datalink.SendFrame(payload, n); err != nil {
			l.log.Warn("network: LSP emit failed", slog.String("err", err.Error()), slog.Int("to", int(n)))
		}
	}
}

// ShouldEmitLSP reports whether tick sec (0-based, within the node's
// lifetime) is due for an LSP emission, per spec.md §4.2 ("every 10
// ticks").
func ShouldEmitLSP(sec int) bool { return sec%lspEmitPeriod == 0 }
