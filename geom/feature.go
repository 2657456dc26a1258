package geom

// Per-edge relative features for the relational graphs. All builders are
// deterministic and side-effect-free; the destination node is the query that
// receives the aggregated message, so bearings are measured against the
// destination's heading.
//
// Feature layouts (inputDim == 2 / inputDim == 3):
//
//	temporal:   [dist, bearing, relHead, dt]         / [dist, bearing, dz, relHead, dt]
//	map->agent: [dist, bearing, relOrient]           / [dist, bearing, dz, relOrient]
//	agent->agent: same layout as map->agent with relHead in place of relOrient.
//
// The temporal time offset dt is signed: src - dst, negative for edges from
// the past into a later query timestep.

// TemporalEdgeFeature builds the feature vector for a temporal edge between
// two timesteps of the same agent. dt is srcStep-dstStep as a float.
func TemporalEdgeFeature(srcPos, dstPos Point3, srcHead, dstHead, dt float64, inputDim int) []float64 {
	relX := srcPos.X - dstPos.X
	relY := srcPos.Y - dstPos.Y
	hx, hy := HeadingVector(dstHead)
	dist := PlanarNorm(Point3{X: relX, Y: relY})
	bearing := AngleBetween2D(hx, hy, relX, relY)
	relHead := WrapAngle(srcHead - dstHead)
	if inputDim == 2 {
		return []float64{dist, bearing, relHead, dt}
	}
	return []float64{dist, bearing, srcPos.Z - dstPos.Z, relHead, dt}
}

// MapToAgentEdgeFeature builds the feature vector for an edge from a map
// point to an agent-timestep query node.
func MapToAgentEdgeFeature(mapPos, agentPos Point3, mapOrient, agentHead float64, inputDim int) []float64 {
	relX := mapPos.X - agentPos.X
	relY := mapPos.Y - agentPos.Y
	hx, hy := HeadingVector(agentHead)
	dist := PlanarNorm(Point3{X: relX, Y: relY})
	bearing := AngleBetween2D(hx, hy, relX, relY)
	relOrient := WrapAngle(mapOrient - agentHead)
	if inputDim == 2 {
		return []float64{dist, bearing, relOrient}
	}
	return []float64{dist, bearing, mapPos.Z - agentPos.Z, relOrient}
}

// AgentToAgentEdgeFeature builds the feature vector for an edge between two
// agents at the same timestep.
func AgentToAgentEdgeFeature(srcPos, dstPos Point3, srcHead, dstHead float64, inputDim int) []float64 {
	relX := srcPos.X - dstPos.X
	relY := srcPos.Y - dstPos.Y
	hx, hy := HeadingVector(dstHead)
	dist := PlanarNorm(Point3{X: relX, Y: relY})
	bearing := AngleBetween2D(hx, hy, relX, relY)
	relHead := WrapAngle(srcHead - dstHead)
	if inputDim == 2 {
		return []float64{dist, bearing, relHead}
	}
	return []float64{dist, bearing, srcPos.Z - dstPos.Z, relHead}
}

// MotionFeature builds the continuous per-(agent,timestep) state features
// consumed by the agent embedding: speed, the signed angle between the
// heading vector and the velocity, and the frozen box dimensions.
func MotionFeature(vel Point3, heading, length, width, height float64) []float64 {
	hx, hy := HeadingVector(heading)
	speed := PlanarNorm(vel)
	velBearing := AngleBetween2D(hx, hy, vel.X, vel.Y)
	return []float64{speed, velBearing, length, width, height}
}
