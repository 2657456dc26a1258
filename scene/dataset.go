package scene

import (
	"fmt"
	"math/rand"
	"path/filepath"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// Dataset lazily loads serialized scenes matching a glob pattern. Scenes are
// read from disk on demand and kept in a small most-recent cache; the
// Tensors/Yield surface lets an external gomlx training harness consume
// batches directly.
type Dataset struct {
	// Pattern used to find scene files (e.g. "scenes/train/*.gob").
	Pattern string

	// BatchSize used by Yield.
	BatchSize int

	paths []string
	order []int
	rng   *rand.Rand

	cursor int

	cacheIdx   int
	cacheScene *Scene
}

// NewDataset builds a dataset over every scene file matching pattern.
func NewDataset(pattern string) (*Dataset, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob pattern %s: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scene files found matching pattern: %s", pattern)
	}
	order := make([]int, len(paths))
	for i := range order {
		order[i] = i
	}
	return &Dataset{
		Pattern:   pattern,
		BatchSize: 1,
		paths:     paths,
		order:     order,
		rng:       rand.New(rand.NewSource(0)),
		cacheIdx:  -1,
	}, nil
}

// Len returns the number of scenes in the dataset.
func (d *Dataset) Len() int { return len(d.paths) }

// Example loads the scene at global index idx.
func (d *Dataset) Example(idx int) (*Scene, error) {
	if idx < 0 || idx >= len(d.paths) {
		return nil, fmt.Errorf("index %d out of range [0, %d)", idx, len(d.paths))
	}
	if d.cacheIdx == idx {
		return d.cacheScene, nil
	}
	s, err := Load(d.paths[d.order[idx]])
	if err != nil {
		return nil, err
	}
	d.cacheIdx = idx
	d.cacheScene = s
	return s, nil
}

// Batch loads and concatenates the scenes at the given indices.
func (d *Dataset) Batch(indices []int) (*Scene, error) {
	scenes := make([]*Scene, 0, len(indices))
	for _, idx := range indices {
		s, err := d.Example(idx)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, s)
	}
	return Concat(scenes)
}

// Shuffle reorders the dataset deterministically for the given seed.
func (d *Dataset) Shuffle(seed int64) {
	d.rng.Seed(seed)
	d.rng.Shuffle(len(d.order), func(i, j int) {
		d.order[i], d.order[j] = d.order[j], d.order[i]
	})
	d.cacheIdx = -1
	d.cursor = 0
}

// inputDim is the per-node width of the exported input tensor:
// x, y, z, heading, vx, vy, length, width, height, type, valid.
const exportInputDim = 11

// Flat flattens a batch scene into contiguous float32 buffers, one row per
// (agent, timestep) node in agent-major order. Targets must have been built.
type Flat struct {
	Inputs   []float32
	Labels   []float32
	NumNodes int
	InputDim int
	LabelDim int
}

// Flatten produces the flat buffer view of a scene.
func Flatten(s *Scene) (*Flat, error) {
	if s.Target == nil {
		return nil, fmt.Errorf("scene has no targets; call BuildTargets before exporting")
	}
	numNodes := s.NumAgents * s.NumSteps
	labelDim := ActionSteps * TargetDim
	f := &Flat{
		Inputs:   make([]float32, numNodes*exportInputDim),
		Labels:   make([]float32, numNodes*labelDim),
		NumNodes: numNodes,
		InputDim: exportInputDim,
		LabelDim: labelDim,
	}
	for a := 0; a < s.NumAgents; a++ {
		for t := 0; t < s.NumSteps; t++ {
			n := a*s.NumSteps + t
			row := f.Inputs[n*exportInputDim:]
			row[0] = float32(s.Position[a][t].X)
			row[1] = float32(s.Position[a][t].Y)
			row[2] = float32(s.Position[a][t].Z)
			row[3] = float32(s.Heading[a][t])
			row[4] = float32(s.Velocity[a][t].X)
			row[5] = float32(s.Velocity[a][t].Y)
			row[6] = float32(s.Length[a][t])
			row[7] = float32(s.Width[a][t])
			row[8] = float32(s.Height[a][t])
			row[9] = float32(s.Type[a])
			if s.Valid[a][t] {
				row[10] = 1
			}
			lab := f.Labels[n*labelDim:]
			for k := 0; k < ActionSteps; k++ {
				for j := 0; j < TargetDim; j++ {
					lab[k*TargetDim+j] = float32(s.Target[a][t][k][j])
				}
			}
		}
	}
	return f, nil
}

// ToGomlxTensors converts the flat buffers into gomlx tensors of shape
// [numNodes, inputDim] and [numNodes, labelDim].
func (f *Flat) ToGomlxTensors() (inputs, labels *tensors.Tensor, err error) {
	in := make([][]float32, f.NumNodes)
	lab := make([][]float32, f.NumNodes)
	for n := 0; n < f.NumNodes; n++ {
		in[n] = f.Inputs[n*f.InputDim : (n+1)*f.InputDim]
		lab[n] = f.Labels[n*f.LabelDim : (n+1)*f.LabelDim]
	}
	return tensors.FromAnyValue(in), tensors.FromAnyValue(lab), nil
}

// Tensors loads a batch of scenes and returns them as gomlx tensors.
func (d *Dataset) Tensors(indices []int) (inputs, labels *tensors.Tensor, err error) {
	batch, err := d.Batch(indices)
	if err != nil {
		return nil, nil, err
	}
	if batch.Target == nil {
		batch.BuildTargets()
	}
	flat, err := Flatten(batch)
	if err != nil {
		return nil, nil, err
	}
	return flat.ToGomlxTensors()
}

// Name returns the dataset name for gomlx loops.
func (d *Dataset) Name() string { return "SceneDataset" }

// Yield returns the next batch for the gomlx train.Dataset interface.
func (d *Dataset) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	if d.cursor >= len(d.paths) {
		return nil, nil, nil, fmt.Errorf("dataset exhausted; call Restart")
	}
	end := d.cursor + d.BatchSize
	if end > len(d.paths) {
		end = len(d.paths)
	}
	indices := make([]int, 0, end-d.cursor)
	for i := d.cursor; i < end; i++ {
		indices = append(indices, i)
	}
	d.cursor = end
	in, lab, err := d.Tensors(indices)
	if err != nil {
		return nil, nil, nil, err
	}
	return nil, []*tensors.Tensor{in}, []*tensors.Tensor{lab}, nil
}

// Restart resets the dataset cursor for a new epoch.
func (d *Dataset) Restart() error {
	d.cursor = 0
	return nil
}
