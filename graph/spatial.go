package graph

import "github.com/wgangyiii/Scenario-Generation/geom"

// MapToAgentEdges connects every valid (agent, timestep) query node to nearby
// map points in the same scene. Node indices are agent-major
// (node = agent*numSteps + step); map point sources keep their own indexing.
//
// Invalid query nodes are removed before the neighbor search runs, so the
// search never spends work on masked-out states.
func MapToAgentEdges(search NeighborSearch, mapPos []geom.Point3, mapScene []int,
	nodePos []geom.Point3, nodeValid []bool, nodeScene []int, k int) []Edge {

	queries := make([]geom.Point3, 0, len(nodePos))
	queryScene := make([]int, 0, len(nodePos))
	queryNode := make([]int, 0, len(nodePos))
	for n, p := range nodePos {
		if !nodeValid[n] {
			continue
		}
		queries = append(queries, p)
		queryScene = append(queryScene, sceneOf(nodeScene, n))
		queryNode = append(queryNode, n)
	}

	edges := search.NearestK(queries, mapPos, k, queryScene, mapScene)
	for i := range edges {
		edges[i].Dst = queryNode[edges[i].Dst]
	}
	return edges
}

// AgentToAgentEdges connects, at every timestep, each valid agent to its
// nearby valid agents in the same scene at that timestep. Node indices are
// time-major (node = step*numAgents + agent) so attention runs independently
// per timestep. Self-loops are excluded; the search is asked for one extra
// neighbor so the self match does not consume the budget.
func AgentToAgentEdges(search NeighborSearch, nodePos []geom.Point3, nodeValid []bool,
	agentScene []int, numAgents, numSteps, k int) []Edge {

	var edges []Edge
	for t := 0; t < numSteps; t++ {
		sub := make([]geom.Point3, 0, numAgents)
		subScene := make([]int, 0, numAgents)
		subNode := make([]int, 0, numAgents)
		for a := 0; a < numAgents; a++ {
			n := t*numAgents + a
			if !nodeValid[n] {
				continue
			}
			sub = append(sub, nodePos[n])
			subScene = append(subScene, sceneOf(agentScene, a))
			subNode = append(subNode, n)
		}
		if len(sub) < 2 {
			continue
		}
		for _, e := range search.NearestK(sub, sub, k+1, subScene, subScene) {
			if e.Src == e.Dst {
				continue
			}
			edges = append(edges, Edge{Src: subNode[e.Src], Dst: subNode[e.Dst]})
		}
	}
	return edges
}
