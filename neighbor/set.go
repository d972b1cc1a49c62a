// Package neighbor owns the node-level neighbor set and per-neighbor pulse
// countdowns (spec.md §3 data model, §9 design notes: "mutable shared
// neighbor set"). It lives below node/datalink/network/transport so every
// layer can depend on it without a cycle through node.Node, which owns it.
// It is mutated only through the controlled mutators below: the network
// layer calls RefreshPulse on confirming LSPs, and node.Node calls
// TickAndPrune once per tick. Layers that only look (datalink) get the
// read-only Reader view.
package neighbor

import (
	"sort"

	"meshnet/wire"
)

// InitialPulse is the countdown value a neighbor is (re)armed to on
// construction or on receipt of a confirming LSP (spec.md §3).
const InitialPulse = 20

// Reader is the read-only view of a Set, handed to layers that only need
// to check membership (e.g. datalink validating a next hop), per the
// "pass an immutable view to reads" design note.
type Reader interface {
	IsNeighbor(id wire.NodeID) bool
	List() []wire.NodeID
}

// Set is the node's current neighbor table plus pulse countdowns.
type Set struct {
	ids    map[wire.NodeID]struct{}
	pulses map[wire.NodeID]int
}

// NewSet returns a Set seeded with initial neighbors, each armed at
// InitialPulse, per spec.md §3 ("Neighbor pulse: initialized at 20 on
// construction").
func NewSet(initial []wire.NodeID) *Set {
	s := &Set{ids: make(map[wire.NodeID]struct{}), pulses: make(map[wire.NodeID]int)}
	for _, id := range initial {
		s.ids[id] = struct{}{}
		s.pulses[id] = InitialPulse
	}
	return s
}

// IsNeighbor reports whether id is currently a believed-reachable neighbor.
func (s *Set) IsNeighbor(id wire.NodeID) bool {
	_, ok := s.ids[id]
	return ok
}

// List returns the current neighbor IDs, sorted for deterministic
// iteration (LSP encoding order, route computation).
func (s *Set) List() []wire.NodeID {
	out := make([]wire.NodeID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RefreshPulse arms id's countdown to InitialPulse, adding it to the
// neighbor set if it was not already present. Called by the network layer
// when an incoming LSP confirms we are among the originator's neighbors
// (spec.md §4.2).
func (s *Set) RefreshPulse(id wire.NodeID) {
	s.ids[id] = struct{}{}
	s.pulses[id] = InitialPulse
}

// TickAndPrune decrements every neighbor's pulse by one and removes (and
// returns) any that reach zero, per spec.md §3's neighbor-pulse lifecycle.
func (s *Set) TickAndPrune() []wire.NodeID {
	var dead []wire.NodeID
	for id := range s.pulses {
		s.pulses[id]--
		if s.pulses[id] <= 0 {
			dead = append(dead, id)
		}
	}
	for _, id := range dead {
		delete(s.pulses, id)
		delete(s.ids, id)
	}
	sort.Slice(dead, func(i, j int) bool { return dead[i] < dead[j] })
	return dead
}
