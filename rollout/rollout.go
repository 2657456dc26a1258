// Package rollout closes the loop around the decoder: starting from the
// observed initialization steps it repeatedly predicts one action chunk,
// writes the sampled motion back into the scene, and re-runs the model on its
// own output until the full horizon is simulated.
package rollout

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/wgangyiii/Scenario-Generation/geom"
	"github.com/wgangyiii/Scenario-Generation/model"
	"github.com/wgangyiii/Scenario-Generation/scene"
)

// Config holds the rollout horizon parameters.
type Config struct {
	NumInitSteps    int // observed history length
	NumRolloutSteps int // simulated future length
	NumActionSteps  int // substeps per predicted chunk
	NumSamples      int // independent futures per scenario
	PosDim          int
	VelDim          int
	ThetaDim        int
}

// StateDim is the per-step layout of a simulated trajectory row:
// x, y, z, heading.
const StateDim = 4

// Prediction holds simulated futures keyed by scenario ID, then by agent ID:
// [sample][step][StateDim].
type Prediction map[string]map[int64][][][StateDim]float64

// Simulator draws closed-loop futures from a trained model.
type Simulator struct {
	Cfg     Config
	Decoder *model.Decoder
	Head    *model.Head

	rng *rand.Rand
	log *logrus.Entry
}

// NewSimulator validates the horizon against the decoder configuration and
// seeds the sampler.
func NewSimulator(cfg Config, dec *model.Decoder, head *model.Head, seed int64) (*Simulator, error) {
	if cfg.NumActionSteps <= 0 || cfg.NumRolloutSteps%cfg.NumActionSteps != 0 {
		return nil, fmt.Errorf("rollout: %d future steps do not divide into chunks of %d",
			cfg.NumRolloutSteps, cfg.NumActionSteps)
	}
	if cfg.NumInitSteps < 1 {
		return nil, fmt.Errorf("rollout: need at least one initialization step, got %d", cfg.NumInitSteps)
	}
	if total := cfg.NumInitSteps + cfg.NumRolloutSteps; total != dec.Cfg.NumSteps {
		return nil, fmt.Errorf("rollout: horizon %d does not match decoder step count %d",
			total, dec.Cfg.NumSteps)
	}
	if cfg.NumSamples < 1 {
		return nil, fmt.Errorf("rollout: need at least one sample, got %d", cfg.NumSamples)
	}
	return &Simulator{
		Cfg:     cfg,
		Decoder: dec,
		Head:    head,
		rng:     rand.New(rand.NewSource(seed)),
		log:     logrus.WithField("component", "rollout"),
	}, nil
}

// Run simulates every configured sample for the scene and returns the
// trajectories grouped by scenario and agent. Only agents observed at the
// last initialization step are simulated. The scene's future steps are used
// as scratch space: each sample overwrites the previous one, and the history
// before the initialization boundary is never touched.
func (sim *Simulator) Run(s *scene.Scene) (Prediction, error) {
	cfg := sim.Cfg
	s.FreezeBoxDims(cfg.NumInitSteps)
	evalMask := s.ForceSimValidity(cfg.NumInitSteps)

	numEval := 0
	for _, m := range evalMask {
		if m {
			numEval++
		}
	}
	sim.log.WithFields(logrus.Fields{
		"scenes":  s.NumScenes(),
		"agents":  numEval,
		"samples": cfg.NumSamples,
	}).Info("starting rollout")

	// Precompute independent per-sample seeds from the simulator RNG so the
	// whole run is reproducible from one seed.
	seeds := make([]int64, cfg.NumSamples)
	for i := range seeds {
		seeds[i] = sim.rng.Int63()
	}

	pred := make(Prediction)
	for _, sid := range s.ScenarioIDs {
		pred[sid] = make(map[int64][][][StateDim]float64)
	}
	for a := 0; a < s.NumAgents; a++ {
		if !evalMask[a] {
			continue
		}
		sid := s.ScenarioIDs[s.AgentBatch[a]]
		pred[sid][s.ID[a]] = make([][][StateDim]float64, cfg.NumSamples)
	}

	for smp := 0; smp < cfg.NumSamples; smp++ {
		rng := rand.New(rand.NewSource(seeds[smp]))
		if err := sim.runSample(s, evalMask, rng); err != nil {
			return nil, fmt.Errorf("sample %d: %w", smp, err)
		}
		for a := 0; a < s.NumAgents; a++ {
			if !evalMask[a] {
				continue
			}
			traj := make([][StateDim]float64, cfg.NumRolloutSteps)
			for i := 0; i < cfg.NumRolloutSteps; i++ {
				t := cfg.NumInitSteps + i
				traj[i] = [StateDim]float64{
					s.Position[a][t].X, s.Position[a][t].Y, s.Position[a][t].Z,
					s.Heading[a][t],
				}
			}
			sid := s.ScenarioIDs[s.AgentBatch[a]]
			pred[sid][s.ID[a]][smp] = traj
		}
		sim.log.WithField("sample", smp).Debug("sample complete")
	}
	sim.log.Info("rollout complete")
	return pred, nil
}

// runSample simulates one closed-loop future in place.
func (sim *Simulator) runSample(s *scene.Scene, evalMask []bool, rng *rand.Rand) error {
	cfg := sim.Cfg
	T := sim.Decoder.Cfg.NumSteps
	numChunks := cfg.NumRolloutSteps / cfg.NumActionSteps

	for c := 0; c < numChunks; c++ {
		anchor := cfg.NumInitSteps + c*cfg.NumActionSteps - 1
		emb, err := sim.Decoder.Forward(s)
		if err != nil {
			return err
		}
		var anchorIdx []int
		for a := 0; a < s.NumAgents; a++ {
			if evalMask[a] {
				anchorIdx = append(anchorIdx, a*T+anchor)
			}
		}
		out := sim.Head.Forward(emb, anchorIdx)

		for a := 0; a < s.NumAgents; a++ {
			if !evalMask[a] {
				continue
			}
			n := a*T + anchor
			k := sampleMode(out.Pi[n], rng)
			sim.writeChunk(s, a, anchor, out, n, k)
		}
	}
	return nil
}

// writeChunk rotates mode k's local action back into the global frame and
// writes it over the chunk's future steps.
func (sim *Simulator) writeChunk(s *scene.Scene, a, anchor int, out *model.Output, n, k int) {
	cfg := sim.Cfg
	base := s.Position[a][anchor]
	baseHead := s.Heading[a][anchor]
	baseZ := s.Position[a][cfg.NumInitSteps-1].Z

	for u := 0; u < cfg.NumActionSteps; u++ {
		t := anchor + 1 + u
		loc := out.PosLoc[n][k][u]
		gx, gy := geom.RotateToGlobal(loc[0], loc[1], baseHead)
		z := baseZ
		if cfg.PosDim == 3 {
			z = base.Z + loc[2]
		}
		s.Position[a][t] = geom.Point3{X: base.X + gx, Y: base.Y + gy, Z: z}

		vloc := out.VelLoc[n][k][u]
		vx, vy := geom.RotateToGlobal(vloc[0], vloc[1], baseHead)
		// Only the planar components are predicted; the vertical velocity
		// stays whatever the scene carries.
		s.Velocity[a][t] = geom.Point3{X: vx, Y: vy, Z: s.Velocity[a][t].Z}

		s.Heading[a][t] = geom.WrapAngle(baseHead + out.ThetaLoc[n][k][u])
	}
}

// sampleMode draws a mixture component index from the softmax of the logits
// by inverse-CDF sampling.
func sampleMode(logits []float64, rng *rand.Rand) int {
	lse := floats.LogSumExp(logits)
	r := rng.Float64()
	cum := 0.0
	for k, l := range logits {
		cum += math.Exp(l - lse)
		if r < cum {
			return k
		}
	}
	return len(logits) - 1
}
