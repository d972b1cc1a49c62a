package network

import (
	"container/heap"
	"sort"

	"meshnet/wire"
)

// recomputeRoutes rebuilds the routing table from the current link-state
// database using Dijkstra's algorithm (spec.md §4.2, "Dijkstra shortest
// path... route compaction").
//
// Expansion out of a node is deliberately NOT a precomputed, symmetric
// adjacency list built from every stored LSP's neighbor list. Instead each
// node's out-edges are fetched lazily, from outEdges, at the moment it is
// popped off the queue with a finite distance: self's out-edges are its
// current live neighbor set, and any other node's out-edges are whatever
// that node's own last-known LSP record lists. A dead node's self-reported
// LSP never expires (spec.md Lifecycle), so its record can sit in lspData
// forever -- but since nothing is ever relaxed BY walking that record unless
// the dead node itself is first reached, and the only paths into it are
// through some live node's CURRENT out-edge list, it falls out of the graph
// the moment every live neighbor's fresher LSP stops naming it. This matches
// the Lifecycle note that pruning plus route recomputation makes a stale
// originator unreachable, without needing to special-case or expire
// individual lspData entries.
//
// Ties between equally-short paths are broken by ascending NodeID at each
// relaxation step (see dijkstraQueue below) -- this makes route computation
// a pure function of the link-state database, with no dependency on map
// iteration order.
func (l *Layer) recomputeRoutes() {
	dist := map[wire.NodeID]int{l.Self: 0}
	prev := map[wire.NodeID]wire.NodeID{}
	visited := map[wire.NodeID]bool{}

	pq := &dijkstraQueue{{node: l.Self, dist: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(dijkstraItem)
		if visited[cur.node] {
			continue
		}
		visited[cur.node] = true

		neighbors := l.outEdges(cur.node)
		sort.Slice(neighbors, func(i, j int) bool { return neighbors[i] < neighbors[j] })
		for _, n := range neighbors {
			nd := cur.dist + 1
			if d, ok := dist[n]; !ok || nd < d {
				dist[n] = nd
				prev[n] = cur.node
				heap.Push(pq, dijkstraItem{node: n, dist: nd})
			}
		}
	}

	table := map[wire.NodeID]wire.NodeID{l.Self: l.Self}
	for dest := range dist {
		if dest == l.Self {
			continue
		}
		hop, ok := nextHop(l.Self, dest, prev)
		if !ok {
			continue
		}
		table[dest] = hop
	}
	l.routingTable = table
}

// outEdges returns the nodes reachable in one hop from node: self's current
// live neighbor set, or -- for any other node -- the neighbor list from that
// node's own most recent LSP record, if one is on file.
func (l *Layer) outEdges(node wire.NodeID) []wire.NodeID {
	if node == l.Self {
		return append([]wire.NodeID(nil), l.Neighbors.List()...)
	}
	rec, ok := l.lspData[node]
	if !ok {
		return nil
	}
	return append([]wire.NodeID(nil), rec.neighbors...)
}

// nextHop walks the predecessor chain from dest back to self and returns
// the neighbor adjacent to self on that path -- the "route compaction" step
// spec.md §4.2 describes, turning a full shortest-path tree into a
// one-hop-per-destination routing table.
func nextHop(self, dest wire.NodeID, prev map[wire.NodeID]wire.NodeID) (wire.NodeID, bool) {
	cur := dest
	for {
		p, ok := prev[cur]
		if !ok {
			return 0, false
		}
		if p == self {
			return cur, true
		}
		cur = p
	}
}

// dijkstraItem is one entry in the priority queue: a candidate (node,
// distance) pair awaiting relaxation.
type dijkstraItem struct {
	node wire.NodeID
	dist int
}

// dijkstraQueue is a container/heap priority queue ordered by distance,
// breaking ties by NodeID so that pop order -- and therefore the resulting
// routing table -- is fully deterministic.
type dijkstraQueue []dijkstraItem

func (q dijkstraQueue) Len() int { return len(q) }
func (q dijkstraQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].node < q[j].node
}
func (q dijkstraQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *dijkstraQueue) Push(x any) {
	*q = append(*q, x.(dijkstraItem))
}

func (q *dijkstraQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
