package datalink

import "errors"

// ErrNotNeighbor is returned when asked to send to a next hop that is not
// currently a believed-reachable neighbor (spec.md §4.1: "next-hop neighbor
// ID that must be in neighbors").
var ErrNotNeighbor = errors.New("datalink: next hop is not a neighbor")
