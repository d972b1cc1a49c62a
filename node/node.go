// Package node ties the datalink, network, and transport layers together
// into the single-threaded, 1 Hz tick loop described in spec.md §5.
package node

import (
	"log/slog"
	"time"

	"meshnet/channelfs"
	"meshnet/datalink"
	"meshnet/internal/logger"
	"meshnet/neighbor"
	"meshnet/network"
	"meshnet/transport"
	"meshnet/wire"
)

// Config is everything needed to construct one node, mirroring the CLI
// grammar of spec.md §6.
type Config struct {
	ID           wire.NodeID
	Duration     int
	DestID       wire.NodeID
	Message      string
	StartingTime int // -1 when Message == ""
	Neighbors    []wire.NodeID
}

// Node owns the three protocol layers, the shared neighbor set, and the
// tick loop. It corresponds to one simulated process (spec.md §2).
type Node struct {
	cfg Config

	Neighbors *neighbor.Set
	Datalink  *datalink.Layer
	Network   *network.Layer
	Transport *transport.Layer

	log logger.L
}

// New constructs a Node wired over adapter's channel/output directories.
func New(cfg Config, adapter channelfs.Adapter, log *slog.Logger) *Node {
	n := &Node{cfg: cfg, log: logger.L{Log: log}}
	n.Neighbors = neighbor.NewSet(cfg.Neighbors)

	t := transport.NewLayer(cfg.ID, nil, adapter, log)
	net := network.NewLayer(cfg.ID, n.Neighbors, nil, t, log)
	dl := datalink.NewLayer(cfg.ID, adapter, n.Neighbors, net, t, log)

	net.Datalink = dl
	t.Network = net

	n.Datalink = dl
	n.Network = net
	n.Transport = t
	return n
}

// Run drives the node's full lifecycle: cfg.Duration ticks at 1 Hz
// wall-clock cadence, then a final flush to the output file, per spec.md
// §5's scheduling model.
func (n *Node) Run() error {
	n.log.Info("node: starting", slog.Int("id", int(n.cfg.ID)), slog.Int("duration", n.cfg.Duration))
	for sec := 0; sec < n.cfg.Duration; sec++ {
		if err := n.Tick(sec); err != nil {
			return err
		}
		if sec < n.cfg.Duration-1 {
			time.Sleep(time.Second)
		}
	}
	return n.Transport.OutputAll()
}

// Tick runs exactly one tick's worth of work, in the order fixed by
// spec.md §5: LSP emit (if due) → datalink inbound poll (which cascades
// synchronously through network delivery and, for local data, transport
// receive) → transport timers → transport send (if due) → neighbor pulse
// prune.
func (n *Node) Tick(sec int) error {
	if network.ShouldEmitLSP(sec) {
		n.Network.EmitLSP()
	}

	if err := n.Datalink.PollChannels(); err != nil {
		return err
	}

	n.Transport.Tick()

	if sec == n.cfg.StartingTime {
		n.Transport.Send([]byte(n.cfg.Message), n.cfg.DestID)
	}

	for _, dead := range n.Neighbors.TickAndPrune() {
		n.log.Warn("node: neighbor pruned", slog.Int("id", int(n.cfg.ID)), slog.Int("neighbor", int(dead)))
	}

	return nil
}
