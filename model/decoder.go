package model

import (
	"fmt"
	"math/rand"

	"github.com/wgangyiii/Scenario-Generation/geom"
	"github.com/wgangyiii/Scenario-Generation/graph"
	"github.com/wgangyiii/Scenario-Generation/scene"
)

// Fixed type vocabularies of the benchmark data.
const (
	NumAgentTypes = 5
	NumMapTypes   = 17
)

// Config holds the decoder hyperparameters.
type Config struct {
	InputDim     int // 2 or 3
	HiddenDim    int
	NumSteps     int
	TimeSpan     int // stride of the long-range temporal graph; <=0 means NumSteps
	NumM2ANbrs   int
	NumA2ANbrs   int
	NumFreqBands int
	NumLayers    int
	NumHeads     int
	HeadDim      int
	Dropout      float64 // recognized but inert: this core runs forward passes only
}

// Decoder is the relational transformer decoder: it embeds per-timestep
// agent state and per-point map context, then alternates temporal
// self-attention, map->agent cross-attention and per-timestep agent->agent
// cross-attention, producing one embedding per (agent, timestep) node in
// agent-major order.
type Decoder struct {
	Cfg Config

	TypeAEmb *Embedding
	TypeMEmb *Embedding
	XAEmb    *FourierEmbedding
	XMEmb    *FourierEmbedding
	RPatch   *FourierEmbedding
	RTemp    *FourierEmbedding
	RM2A     *FourierEmbedding
	RA2A     *FourierEmbedding

	ToPatch   Layer
	TLayers   []Layer
	M2ALayers []Layer
	A2ALayers []Layer

	search graph.NeighborSearch
}

// NewDecoder validates the configuration and builds a decoder with randomly
// initialized parameters drawn from rng.
func NewDecoder(cfg Config, search graph.NeighborSearch, rng *rand.Rand) (*Decoder, error) {
	if cfg.InputDim != 2 && cfg.InputDim != 3 {
		return nil, fmt.Errorf("model: %d is not a valid input dimension (want 2 or 3)", cfg.InputDim)
	}
	if cfg.TimeSpan <= 0 {
		cfg.TimeSpan = cfg.NumSteps
	}
	if search == nil {
		search = graph.CutoffSearch{Cutoff: graph.DefaultDistCutoff}
	}

	inputDimXA := 5
	inputDimXM := cfg.InputDim - 1
	inputDimRT := 2 + cfg.InputDim
	inputDimRSpatial := 1 + cfg.InputDim

	d := &Decoder{
		Cfg:      cfg,
		TypeAEmb: NewEmbedding(NumAgentTypes, cfg.HiddenDim, rng),
		TypeMEmb: NewEmbedding(NumMapTypes, cfg.HiddenDim, rng),
		XAEmb:    NewFourierEmbedding(inputDimXA, cfg.HiddenDim, cfg.NumFreqBands, rng),
		XMEmb:    NewFourierEmbedding(inputDimXM, cfg.HiddenDim, cfg.NumFreqBands, rng),
		RPatch:   NewFourierEmbedding(inputDimRT, cfg.HiddenDim, cfg.NumFreqBands, rng),
		RTemp:    NewFourierEmbedding(inputDimRT, cfg.HiddenDim, cfg.NumFreqBands, rng),
		RM2A:     NewFourierEmbedding(inputDimRSpatial, cfg.HiddenDim, cfg.NumFreqBands, rng),
		RA2A:     NewFourierEmbedding(inputDimRSpatial, cfg.HiddenDim, cfg.NumFreqBands, rng),
		ToPatch:  NewEdgeAttention(cfg.HiddenDim, cfg.NumHeads, cfg.HeadDim, rng),
		search:   search,
	}
	for i := 0; i < cfg.NumLayers; i++ {
		d.TLayers = append(d.TLayers, NewEdgeAttention(cfg.HiddenDim, cfg.NumHeads, cfg.HeadDim, rng))
		d.M2ALayers = append(d.M2ALayers, NewEdgeAttention(cfg.HiddenDim, cfg.NumHeads, cfg.HeadDim, rng))
		d.A2ALayers = append(d.A2ALayers, NewEdgeAttention(cfg.HiddenDim, cfg.NumHeads, cfg.HeadDim, rng))
	}
	return d, nil
}

// SetNeighborSearch injects the neighbor-search implementation, e.g. after a
// checkpoint restore.
func (d *Decoder) SetNeighborSearch(search graph.NeighborSearch) { d.search = search }

// Forward runs the full decoder over the scene and returns one hidden-sized
// embedding per (agent, timestep) node, agent-major (node = agent*NumSteps +
// step). Rows for invalid nodes are zero and must not be consumed.
func (d *Decoder) Forward(s *scene.Scene) ([][]float64, error) {
	cfg := d.Cfg
	T := cfg.NumSteps
	if s.NumSteps < T {
		return nil, fmt.Errorf("model: scene has %d steps, decoder needs %d", s.NumSteps, T)
	}
	A := s.NumAgents
	numNodes := A * T

	// Validity over the modeled window, agent-major and time-major.
	valid := make([][]bool, A)
	validT := make([]bool, numNodes)
	validS := make([]bool, numNodes)
	var validIdxT, validIdxS []int
	for a := 0; a < A; a++ {
		valid[a] = s.Valid[a][:T]
		for t := 0; t < T; t++ {
			if s.Valid[a][t] {
				validT[a*T+t] = true
				validS[t*A+a] = true
			}
		}
	}
	for n := 0; n < numNodes; n++ {
		if validT[n] {
			validIdxT = append(validIdxT, n)
		}
		if validS[n] {
			validIdxS = append(validIdxS, n)
		}
	}

	// Agent state embeddings, computed at valid nodes only.
	xaRows := make([][]float64, numNodes)
	catA := make([][]float64, numNodes)
	for a := 0; a < A; a++ {
		typeEmb := d.TypeAEmb.Lookup(s.Type[a])
		for t := 0; t < T; t++ {
			n := a*T + t
			xaRows[n] = geom.MotionFeature(s.Velocity[a][t], s.Heading[a][t],
				s.Length[a][t], s.Width[a][t], s.Height[a][t])
			catA[n] = typeEmb
		}
	}
	x := d.XAEmb.ForwardAll(xaRows, catA, validIdxT)

	// Map point embeddings.
	numMap := len(s.MapPosition)
	xmRows := make([][]float64, numMap)
	catM := make([][]float64, numMap)
	for m := 0; m < numMap; m++ {
		if cfg.InputDim == 2 {
			xmRows[m] = []float64{s.MapMagnitude[m]}
		} else {
			xmRows[m] = []float64{s.MapMagnitude[m], s.MapPosition[m].Z}
		}
		catM[m] = d.TypeMEmb.Lookup(s.MapType[m])
	}
	xm := d.XMEmb.ForwardAll(xmRows, catM, nil)

	// Temporal graphs and their edge embeddings.
	patchEdges, stridedEdges := graph.TemporalEdges(valid, cfg.TimeSpan)
	rPatch := d.RPatch.ForwardAll(d.temporalFeatures(s, patchEdges, T), nil, nil)
	rT := d.RTemp.ForwardAll(d.temporalFeatures(s, stridedEdges, T), nil, nil)

	// Map->agent graph over agent-major nodes.
	nodePos := make([]geom.Point3, numNodes)
	nodeScene := make([]int, numNodes)
	for a := 0; a < A; a++ {
		for t := 0; t < T; t++ {
			nodePos[a*T+t] = s.Position[a][t]
			nodeScene[a*T+t] = s.AgentBatch[a]
		}
	}
	m2aEdges := graph.MapToAgentEdges(d.search, s.MapPosition, s.MapBatch,
		nodePos, validT, nodeScene, cfg.NumM2ANbrs)
	rM2A := make([][]float64, len(m2aEdges))
	for i, e := range m2aEdges {
		a, t := e.Dst/T, e.Dst%T
		rM2A[i] = geom.MapToAgentEdgeFeature(s.MapPosition[e.Src], s.Position[a][t],
			s.MapOrientation[e.Src], s.Heading[a][t], cfg.InputDim)
	}
	rM2A = d.RM2A.ForwardAll(rM2A, nil, nil)

	// Agent->agent graph over time-major nodes.
	nodePosS := make([]geom.Point3, numNodes)
	for a := 0; a < A; a++ {
		for t := 0; t < T; t++ {
			nodePosS[t*A+a] = s.Position[a][t]
		}
	}
	a2aEdges := graph.AgentToAgentEdges(d.search, nodePosS, validS,
		s.AgentBatch, A, T, cfg.NumA2ANbrs)
	rA2A := make([][]float64, len(a2aEdges))
	for i, e := range a2aEdges {
		sa, st := e.Src%A, e.Src/A
		da, dt := e.Dst%A, e.Dst/A
		rA2A[i] = geom.AgentToAgentEdgeFeature(s.Position[sa][st], s.Position[da][dt],
			s.Heading[sa][st], s.Heading[da][dt], cfg.InputDim)
	}
	rA2A = d.RA2A.ForwardAll(rA2A, nil, nil)

	// Short-range history fusion, then the layer stack.
	x = d.ToPatch.Apply(x, x, rPatch, patchEdges, validIdxT)
	for i := 0; i < cfg.NumLayers; i++ {
		x = d.TLayers[i].Apply(x, x, rT, stridedEdges, validIdxT)
		x = d.M2ALayers[i].Apply(x, xm, rM2A, m2aEdges, validIdxT)
		xs := make([][]float64, numNodes)
		for a := 0; a < A; a++ {
			for t := 0; t < T; t++ {
				xs[t*A+a] = x[a*T+t]
			}
		}
		xs = d.A2ALayers[i].Apply(xs, xs, rA2A, a2aEdges, validIdxS)
		for a := 0; a < A; a++ {
			for t := 0; t < T; t++ {
				x[a*T+t] = xs[t*A+a]
			}
		}
	}
	return x, nil
}

// temporalFeatures builds the raw relative features for a temporal edge set
// over agent-major nodes.
func (d *Decoder) temporalFeatures(s *scene.Scene, edges []graph.Edge, T int) [][]float64 {
	rows := make([][]float64, len(edges))
	for i, e := range edges {
		sa, st := e.Src/T, e.Src%T
		da, dt := e.Dst/T, e.Dst%T
		rows[i] = geom.TemporalEdgeFeature(s.Position[sa][st], s.Position[da][dt],
			s.Heading[sa][st], s.Heading[da][dt], float64(st-dt), d.Cfg.InputDim)
	}
	return rows
}
