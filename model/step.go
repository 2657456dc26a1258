package model

import (
	"github.com/wgangyiii/Scenario-Generation/scene"
)

// PredictMask marks which action substeps are supervisable: offset u of node
// (a, t) counts only when the anchor step t and the future step t+u+1 are
// both observed.
func PredictMask(valid [][]bool, numSteps, numActionSteps int) [][][]bool {
	mask := make([][][]bool, len(valid))
	for a := range valid {
		mask[a] = make([][]bool, numSteps)
		for t := 0; t < numSteps; t++ {
			row := make([]bool, numActionSteps)
			if valid[a][t] {
				for u := 0; u < numActionSteps; u++ {
					if t+u+1 < numSteps && valid[a][t+u+1] {
						row[u] = true
					}
				}
			}
			mask[a][t] = row
		}
	}
	return mask
}

// SceneLoss runs the decoder and head over a scene and returns the masked
// mixture negative log likelihood: each supervisable (agent, anchor) pair is
// normalized by its own substep count, then the pairs are averaged. Box
// dimensions are frozen to their value at the last initialization step before
// the forward pass, matching the rollout path; targets are built on demand.
func SceneLoss(dec *Decoder, head *Head, s *scene.Scene, numInitSteps int) (float64, error) {
	s.FreezeBoxDims(numInitSteps)
	if s.Target == nil {
		s.BuildTargets()
	}
	emb, err := dec.Forward(s)
	if err != nil {
		return 0, err
	}
	T := dec.Cfg.NumSteps
	mask := PredictMask(s.Valid, T, head.Cfg.NumActionSteps)

	var validIdx []int
	for a := 0; a < s.NumAgents; a++ {
		for t := 0; t < T; t++ {
			if s.Valid[a][t] {
				validIdx = append(validIdx, a*T+t)
			}
		}
	}
	out := head.Forward(emb, validIdx)

	total := 0.0
	pairs := 0
	for a := 0; a < s.NumAgents; a++ {
		for t := 0; t < T; t++ {
			any := false
			for _, m := range mask[a][t] {
				if m {
					any = true
					break
				}
			}
			if !any {
				continue
			}
			loss, count := head.MixtureNLLLoss(out, a*T+t, s.Target[a][t], mask[a][t])
			if count < 1 {
				count = 1
			}
			total += loss / float64(count)
			pairs++
		}
	}
	if pairs == 0 {
		return 0, nil
	}
	return total / float64(pairs), nil
}

// TrainingStep evaluates the training objective on one scene batch. The core
// is forward-only; parameter updates belong to an external harness consuming
// the exported tensors.
func TrainingStep(dec *Decoder, head *Head, s *scene.Scene, numInitSteps int) (float64, error) {
	return SceneLoss(dec, head, s, numInitSteps)
}

// ValidationStep evaluates the objective on a held-out scene batch.
func ValidationStep(dec *Decoder, head *Head, s *scene.Scene, numInitSteps int) (float64, error) {
	return SceneLoss(dec, head, s, numInitSteps)
}
