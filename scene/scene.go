// Package scene holds the mutable scene state the decoder and the rollout
// loop operate on: per-agent trajectories over a fixed time horizon, the
// static map point cloud, and the bookkeeping needed to combine several
// scenes into one batch.
package scene

import (
	"fmt"

	"github.com/wgangyiii/Scenario-Generation/geom"
)

// ActionSteps is the look-ahead window length of the prediction head and the
// chunk size of the rollout loop.
const ActionSteps = 10

// TargetDim is the per-offset regression target layout:
// [dx, dy, dz, vx, vy, dtheta] in the anchor timestep's local frame.
const TargetDim = 6

// Scene is the unit of work: all agents and map points of one (or, after
// Concat, several) traffic snapshots over NumSteps timesteps. All per-agent
// slices are indexed [agent][step] and stay time-major-aligned.
type Scene struct {
	NumAgents int
	NumSteps  int

	Position [][]geom.Point3 // [agent][step]
	Heading  [][]float64
	Velocity [][]geom.Point3
	Length   [][]float64
	Width    [][]float64
	Height   [][]float64
	Valid    [][]bool

	Type       []int   // discrete agent type, one per agent
	ID         []int64 // stable identifier, preserved across downselection
	TargetMask []bool  // track-to-predict flags
	AVIndex    int     // index of the ego agent

	// Target is filled by BuildTargets for training/validation:
	// [agent][step][offset][TargetDim].
	Target [][][][]float64

	MapPosition    []geom.Point3
	MapOrientation []float64
	MapType        []int
	MapMagnitude   []float64

	// Batch bookkeeping. For a single scene these are the trivial
	// one-scene values; Concat rewrites them.
	ScenarioIDs []string
	AgentBatch  []int // scene index per agent
	MapBatch    []int // scene index per map point
	AgentPtr    []int // per-scene agent offsets, len NumScenes+1
	MapPtr      []int // per-scene map-point offsets, len NumScenes+1
}

// New allocates a zeroed single-scene Scene.
func New(scenarioID string, numAgents, numSteps, numMapPoints int) *Scene {
	s := &Scene{
		NumAgents:      numAgents,
		NumSteps:       numSteps,
		Position:       make([][]geom.Point3, numAgents),
		Heading:        make([][]float64, numAgents),
		Velocity:       make([][]geom.Point3, numAgents),
		Length:         make([][]float64, numAgents),
		Width:          make([][]float64, numAgents),
		Height:         make([][]float64, numAgents),
		Valid:          make([][]bool, numAgents),
		Type:           make([]int, numAgents),
		ID:             make([]int64, numAgents),
		TargetMask:     make([]bool, numAgents),
		MapPosition:    make([]geom.Point3, numMapPoints),
		MapOrientation: make([]float64, numMapPoints),
		MapType:        make([]int, numMapPoints),
		MapMagnitude:   make([]float64, numMapPoints),
		ScenarioIDs:    []string{scenarioID},
		AgentBatch:     make([]int, numAgents),
		MapBatch:       make([]int, numMapPoints),
		AgentPtr:       []int{0, numAgents},
		MapPtr:         []int{0, numMapPoints},
	}
	for a := 0; a < numAgents; a++ {
		s.Position[a] = make([]geom.Point3, numSteps)
		s.Heading[a] = make([]float64, numSteps)
		s.Velocity[a] = make([]geom.Point3, numSteps)
		s.Length[a] = make([]float64, numSteps)
		s.Width[a] = make([]float64, numSteps)
		s.Height[a] = make([]float64, numSteps)
		s.Valid[a] = make([]bool, numSteps)
	}
	return s
}

// NumScenes returns the number of scenes combined in this batch.
func (s *Scene) NumScenes() int { return len(s.ScenarioIDs) }

// Validate checks the cross-field alignment invariants.
func (s *Scene) Validate() error {
	if s.NumAgents != len(s.Position) || s.NumAgents != len(s.Valid) ||
		s.NumAgents != len(s.ID) || s.NumAgents != len(s.Type) ||
		s.NumAgents != len(s.TargetMask) || s.NumAgents != len(s.AgentBatch) {
		return fmt.Errorf("scene: per-agent arrays disagree on agent count %d", s.NumAgents)
	}
	for a := 0; a < s.NumAgents; a++ {
		if len(s.Position[a]) != s.NumSteps || len(s.Heading[a]) != s.NumSteps ||
			len(s.Velocity[a]) != s.NumSteps || len(s.Valid[a]) != s.NumSteps {
			return fmt.Errorf("scene: agent %d arrays disagree on step count %d", a, s.NumSteps)
		}
	}
	if len(s.MapPosition) != len(s.MapOrientation) || len(s.MapPosition) != len(s.MapType) ||
		len(s.MapPosition) != len(s.MapMagnitude) || len(s.MapPosition) != len(s.MapBatch) {
		return fmt.Errorf("scene: per-map-point arrays disagree on point count %d", len(s.MapPosition))
	}
	if len(s.AgentPtr) != s.NumScenes()+1 || len(s.MapPtr) != s.NumScenes()+1 {
		return fmt.Errorf("scene: pointer arrays disagree with scene count %d", s.NumScenes())
	}
	if s.AVIndex < 0 || s.AVIndex >= s.NumAgents {
		return fmt.Errorf("scene: av index %d out of range [0, %d)", s.AVIndex, s.NumAgents)
	}
	return nil
}

// Concat combines several scenes into one batch, offsetting the pointer and
// batch-index arrays so graph construction can keep scenes isolated. All
// scenes must share the same step count.
func Concat(scenes []*Scene) (*Scene, error) {
	if len(scenes) == 0 {
		return nil, fmt.Errorf("scene: cannot concat an empty batch")
	}
	numSteps := scenes[0].NumSteps
	out := &Scene{NumSteps: numSteps, AgentPtr: []int{0}, MapPtr: []int{0}}
	for bi, s := range scenes {
		if s.NumSteps != numSteps {
			return nil, fmt.Errorf("scene: step count mismatch in batch: %d != %d", s.NumSteps, numSteps)
		}
		if s.NumScenes() != 1 {
			return nil, fmt.Errorf("scene: cannot concat an already-batched scene")
		}
		if bi == 0 {
			out.AVIndex = s.AVIndex
		}
		out.Position = append(out.Position, s.Position...)
		out.Heading = append(out.Heading, s.Heading...)
		out.Velocity = append(out.Velocity, s.Velocity...)
		out.Length = append(out.Length, s.Length...)
		out.Width = append(out.Width, s.Width...)
		out.Height = append(out.Height, s.Height...)
		out.Valid = append(out.Valid, s.Valid...)
		out.Type = append(out.Type, s.Type...)
		out.ID = append(out.ID, s.ID...)
		out.TargetMask = append(out.TargetMask, s.TargetMask...)
		if s.Target != nil {
			out.Target = append(out.Target, s.Target...)
		}
		out.MapPosition = append(out.MapPosition, s.MapPosition...)
		out.MapOrientation = append(out.MapOrientation, s.MapOrientation...)
		out.MapType = append(out.MapType, s.MapType...)
		out.MapMagnitude = append(out.MapMagnitude, s.MapMagnitude...)
		out.ScenarioIDs = append(out.ScenarioIDs, s.ScenarioIDs[0])
		for range s.AgentBatch {
			out.AgentBatch = append(out.AgentBatch, bi)
		}
		for range s.MapBatch {
			out.MapBatch = append(out.MapBatch, bi)
		}
		out.AgentPtr = append(out.AgentPtr, out.AgentPtr[len(out.AgentPtr)-1]+s.NumAgents)
		out.MapPtr = append(out.MapPtr, out.MapPtr[len(out.MapPtr)-1]+len(s.MapPosition))
	}
	out.NumAgents = len(out.Position)
	if out.Target != nil && len(out.Target) != out.NumAgents {
		return nil, fmt.Errorf("scene: partial targets in batch: %d agents have targets, want %d",
			len(out.Target), out.NumAgents)
	}
	return out, nil
}

// FreezeBoxDims holds every agent's bounding-box dimensions at their value
// from the last initialization step for the whole horizon. The benchmark
// fixes box sizes; they are never simulated.
func (s *Scene) FreezeBoxDims(numInitSteps int) {
	ref := numInitSteps - 1
	for a := 0; a < s.NumAgents; a++ {
		l, w, h := s.Length[a][ref], s.Width[a][ref], s.Height[a][ref]
		for t := 0; t < s.NumSteps; t++ {
			s.Length[a][t] = l
			s.Width[a][t] = w
			s.Height[a][t] = h
		}
	}
}

// ForceSimValidity prepares validity for a rollout: only agents valid at the
// initialization boundary are simulated; everything else is force-invalidated
// for the whole rollout horizon. Returns the per-agent simulation mask.
func (s *Scene) ForceSimValidity(numInitSteps int) []bool {
	evalMask := make([]bool, s.NumAgents)
	for a := 0; a < s.NumAgents; a++ {
		evalMask[a] = s.Valid[a][numInitSteps-1]
		for t := numInitSteps; t < s.NumSteps; t++ {
			s.Valid[a][t] = evalMask[a]
		}
	}
	return evalMask
}
