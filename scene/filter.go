package scene

import (
	"fmt"
	"math"
	"sort"
)

// Downselect reduces an oversized scene to at most maxAgents agents. The ego
// agent and every track-to-predict agent are kept unconditionally, even when
// that set alone exceeds the budget; remaining budget is filled first by
// agents nearest to the ego at the reference timestep (the last
// initialization step), then by agents with the most valid timesteps. Both
// ranking passes break ties deterministically by lowest original index.
//
// Downselection is destructive: all per-agent arrays are rebuilt in the new
// order, with the ego first and AVIndex reset accordingly. Agent IDs are
// preserved for every kept agent. It must run on a single scene, before
// batching and before target construction.
func (s *Scene) Downselect(maxAgents, numInitSteps int) error {
	if s.NumScenes() != 1 {
		return fmt.Errorf("scene: downselect requires a single scene, got batch of %d", s.NumScenes())
	}
	if s.Target != nil {
		return fmt.Errorf("scene: downselect must run before target construction")
	}
	if s.NumAgents <= maxAgents {
		return nil
	}
	refStep := numInitSteps - 1

	keep := make([]int, 0, maxAgents)
	seen := make(map[int]bool, maxAgents)
	add := func(a int) {
		if !seen[a] {
			seen[a] = true
			keep = append(keep, a)
		}
	}

	add(s.AVIndex)
	for a := 0; a < s.NumAgents; a++ {
		if s.TargetMask[a] {
			add(a)
		}
	}

	// Nearest-to-ego context agents, valid at the reference step.
	if len(keep) < maxAgents {
		ego := s.Position[s.AVIndex][refStep]
		type cand struct {
			idx  int
			dist float64
		}
		cands := make([]cand, 0, s.NumAgents)
		for a := 0; a < s.NumAgents; a++ {
			if seen[a] || !s.Valid[a][refStep] {
				continue
			}
			d := math.Hypot(s.Position[a][refStep].X-ego.X, s.Position[a][refStep].Y-ego.Y)
			cands = append(cands, cand{idx: a, dist: d})
		}
		sort.SliceStable(cands, func(i, j int) bool {
			if cands[i].dist != cands[j].dist {
				return cands[i].dist < cands[j].dist
			}
			return cands[i].idx < cands[j].idx
		})
		for _, c := range cands {
			if len(keep) >= maxAgents {
				break
			}
			add(c.idx)
		}
	}

	// Fill any remaining budget by total valid-timestep count.
	if len(keep) < maxAgents {
		type cand struct {
			idx   int
			count int
		}
		cands := make([]cand, 0, s.NumAgents)
		for a := 0; a < s.NumAgents; a++ {
			if seen[a] {
				continue
			}
			n := 0
			for _, v := range s.Valid[a] {
				if v {
					n++
				}
			}
			cands = append(cands, cand{idx: a, count: n})
		}
		sort.SliceStable(cands, func(i, j int) bool {
			if cands[i].count != cands[j].count {
				return cands[i].count > cands[j].count
			}
			return cands[i].idx < cands[j].idx
		})
		for _, c := range cands {
			if len(keep) >= maxAgents {
				break
			}
			add(c.idx)
		}
	}

	s.reindexAgents(keep)
	return nil
}

// reindexAgents rebuilds all per-agent arrays in the given order. The ego is
// expected to be first in keep.
func (s *Scene) reindexAgents(keep []int) {
	n := len(keep)
	s.Position = gather(s.Position, keep)
	s.Heading = gather(s.Heading, keep)
	s.Velocity = gather(s.Velocity, keep)
	s.Length = gather(s.Length, keep)
	s.Width = gather(s.Width, keep)
	s.Height = gather(s.Height, keep)
	s.Valid = gather(s.Valid, keep)
	s.Type = gather(s.Type, keep)
	s.ID = gather(s.ID, keep)
	s.TargetMask = gather(s.TargetMask, keep)
	s.AgentBatch = make([]int, n)
	s.AgentPtr = []int{0, n}
	s.NumAgents = n
	s.AVIndex = 0
}

func gather[T any](src []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = src[j]
	}
	return out
}
