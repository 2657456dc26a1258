package graph

// PatchWindow is the short history window every timestep attends to in full
// before the layer stack runs.
const PatchWindow = 10

// TemporalEdges builds the two per-agent temporal edge sets over agent-major
// node indices (node = agent*numSteps + step). For each agent and each
// ordered pair of valid timesteps i < j:
//
//   - the patch set keeps pairs with j-i < PatchWindow, giving every timestep
//     dense attention over its immediate past;
//   - the strided set keeps pairs with j-i a positive multiple of timeSpan,
//     downsampling long-range attention to a coarse grid.
//
// Edges run from the earlier timestep (source) to the later one (query), so
// information only flows forward in time.
func TemporalEdges(valid [][]bool, timeSpan int) (patch, strided []Edge) {
	if timeSpan <= 0 {
		timeSpan = 1
	}
	for a := range valid {
		steps := valid[a]
		base := a * len(steps)
		for j := 1; j < len(steps); j++ {
			if !steps[j] {
				continue
			}
			for i := 0; i < j; i++ {
				if !steps[i] {
					continue
				}
				gap := j - i
				if gap < PatchWindow {
					patch = append(patch, Edge{Src: base + i, Dst: base + j})
				}
				if gap%timeSpan == 0 {
					strided = append(strided, Edge{Src: base + i, Dst: base + j})
				}
			}
		}
	}
	return patch, strided
}
