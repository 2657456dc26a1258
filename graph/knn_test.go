package graph

import (
	"reflect"
	"testing"

	"github.com/wgangyiii/Scenario-Generation/geom"
)

var searchImpls = map[string]NeighborSearch{
	"kdtree": KDTreeSearch{},
	"cutoff": CutoffSearch{Cutoff: 1000},
}

func TestNearestKSceneIsolation(t *testing.T) {
	// The nearest candidate geometrically belongs to another scene and must
	// never be matched.
	queries := []geom.Point3{{X: 0, Y: 0}}
	candidates := []geom.Point3{
		{X: 0.1, Y: 0},  // scene 1: closest but foreign
		{X: 5, Y: 0},    // scene 0
		{X: 10, Y: 0},   // scene 0
		{X: 0.2, Y: 0},  // scene 1
	}
	queryScene := []int{0}
	candidateScene := []int{1, 0, 0, 1}
	for name, s := range searchImpls {
		edges := s.NearestK(queries, candidates, 1, queryScene, candidateScene)
		for _, e := range edges {
			if candidateScene[e.Src] != 0 {
				t.Errorf("%s: matched foreign-scene candidate %d", name, e.Src)
			}
		}
		if name == "kdtree" {
			want := []Edge{{Src: 1, Dst: 0}}
			if !reflect.DeepEqual(edges, want) {
				t.Errorf("kdtree: edges = %v, want %v", edges, want)
			}
		}
	}
}

func TestKDTreeNearestKOrderAndLimit(t *testing.T) {
	queries := []geom.Point3{{X: 0, Y: 0}}
	candidates := []geom.Point3{
		{X: 3, Y: 0},
		{X: 1, Y: 0},
		{X: 2, Y: 0},
		{X: 4, Y: 0},
	}
	edges := KDTreeSearch{}.NearestK(queries, candidates, 2, nil, nil)
	want := []Edge{{Src: 1, Dst: 0}, {Src: 2, Dst: 0}}
	if !reflect.DeepEqual(edges, want) {
		t.Errorf("edges = %v, want %v", edges, want)
	}
}

func TestKDTreeDeterministicTies(t *testing.T) {
	// Two candidates at the same distance: the lower index wins the tie.
	queries := []geom.Point3{{X: 0, Y: 0}}
	candidates := []geom.Point3{
		{X: 1, Y: 0},
		{X: -1, Y: 0},
	}
	for i := 0; i < 10; i++ {
		edges := KDTreeSearch{}.NearestK(queries, candidates, 1, nil, nil)
		want := []Edge{{Src: 0, Dst: 0}}
		if !reflect.DeepEqual(edges, want) {
			t.Fatalf("run %d: edges = %v, want %v", i, edges, want)
		}
	}
}

func TestCutoffSearchLimit(t *testing.T) {
	queries := []geom.Point3{{X: 0, Y: 0}}
	candidates := []geom.Point3{
		{X: 1, Y: 0},
		{X: 19, Y: 0},
		{X: 21, Y: 0},
	}
	edges := CutoffSearch{}.NearestK(queries, candidates, 99, nil, nil)
	want := []Edge{{Src: 0, Dst: 0}, {Src: 1, Dst: 0}}
	if !reflect.DeepEqual(edges, want) {
		t.Errorf("edges = %v, want %v", edges, want)
	}
}

func TestMapToAgentEdgesMasksInvalidQueries(t *testing.T) {
	// One agent over two steps; step 1 is invalid and must get no edges.
	nodePos := []geom.Point3{{X: 0, Y: 0}, {X: 1, Y: 0}}
	nodeValid := []bool{true, false}
	mapPos := []geom.Point3{{X: 0.5, Y: 0}}
	for name, s := range searchImpls {
		edges := MapToAgentEdges(s, mapPos, nil, nodePos, nodeValid, nil, 4)
		for _, e := range edges {
			if e.Dst == 1 {
				t.Errorf("%s: invalid node received edge %v", name, e)
			}
		}
		if !hasEdge(edges, 0, 0) {
			t.Errorf("%s: missing edge from map point 0 to node 0", name)
		}
	}
}

func TestAgentToAgentEdgesNoSelfLoops(t *testing.T) {
	// Three agents over two steps, time-major nodes. Every agent must link to
	// others at the same step only, never to itself.
	numAgents, numSteps := 3, 2
	nodePos := make([]geom.Point3, numAgents*numSteps)
	nodeValid := make([]bool, numAgents*numSteps)
	for t2 := 0; t2 < numSteps; t2++ {
		for a := 0; a < numAgents; a++ {
			n := t2*numAgents + a
			nodePos[n] = geom.Point3{X: float64(a) * 2, Y: float64(t2)}
			nodeValid[n] = true
		}
	}
	for name, s := range searchImpls {
		edges := AgentToAgentEdges(s, nodePos, nodeValid, nil, numAgents, numSteps, 2)
		if len(edges) == 0 {
			t.Fatalf("%s: no edges built", name)
		}
		for _, e := range edges {
			if e.Src == e.Dst {
				t.Errorf("%s: self loop %v", name, e)
			}
			if e.Src/numAgents != e.Dst/numAgents {
				t.Errorf("%s: edge %v crosses timesteps", name, e)
			}
		}
	}
}

func TestAgentToAgentEdgesSkipSingleton(t *testing.T) {
	// Only one valid agent at a step: no pairs exist, so no edges.
	nodePos := []geom.Point3{{X: 0, Y: 0}, {X: 5, Y: 0}}
	nodeValid := []bool{true, false}
	edges := AgentToAgentEdges(KDTreeSearch{}, nodePos, nodeValid, nil, 2, 1, 4)
	if len(edges) != 0 {
		t.Errorf("edges = %v, want none", edges)
	}
}
