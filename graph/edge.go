// Package graph builds the transient relational edge sets consumed by the
// decoder: short-range and strided temporal self-attention edges per agent,
// map-to-agent edges, and agent-to-agent edges per timestep. Edge sets are
// rebuilt from the current scene state on every forward pass and never
// persisted.
package graph

// Edge is an ordered pair of node indices. Src is the neighbor supplying the
// message; Dst is the query node receiving it.
type Edge struct {
	Src int
	Dst int
}
