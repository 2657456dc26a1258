package model

import (
	"math"
	"math/rand"
)

// HeadConfig holds the mixture head hyperparameters. PosDim, VelDim and
// ThetaDim size the per-substep action components; NumModes is the mixture
// size K.
type HeadConfig struct {
	HiddenDim      int
	PosDim         int
	VelDim         int
	ThetaDim       int
	NumModes       int
	NumActionSteps int
}

// Output is the mixture head's prediction for a batch of nodes. Pi holds
// unnormalized mixture logits. Loc/Scale pairs parameterize Laplace
// distributions over local position and velocity offsets; ThetaLoc/ThetaConc
// parameterize a von Mises over the heading change. Scales and concentrations
// are strictly positive.
type Output struct {
	Pi        [][]float64     // [N][K]
	PosLoc    [][][][]float64 // [N][K][H][PosDim]
	PosScale  [][][][]float64
	VelLoc    [][][][]float64 // [N][K][H][VelDim]
	VelScale  [][][][]float64
	ThetaLoc  [][][]float64 // [N][K][H]
	ThetaConc [][][]float64
}

// Head maps node embeddings to mixture action distributions. Each component
// is a separate projection off a shared trunk; positive parameters go
// through softplus.
type Head struct {
	Cfg HeadConfig

	Trunk     *MLP
	PiProj    *Linear
	PosProj   *Linear // K*H*2*PosDim (loc then scale per mode)
	VelProj   *Linear // K*H*2*VelDim
	ThetaProj *Linear // K*H*2 (loc then concentration)
}

// NewHead builds a mixture head with randomly initialized parameters.
func NewHead(cfg HeadConfig, rng *rand.Rand) *Head {
	kh := cfg.NumModes * cfg.NumActionSteps
	return &Head{
		Cfg:       cfg,
		Trunk:     NewMLP(cfg.HiddenDim, cfg.HiddenDim, cfg.HiddenDim, rng),
		PiProj:    NewLinear(cfg.HiddenDim, cfg.NumModes, rng),
		PosProj:   NewLinear(cfg.HiddenDim, kh*2*cfg.PosDim, rng),
		VelProj:   NewLinear(cfg.HiddenDim, kh*2*cfg.VelDim, rng),
		ThetaProj: NewLinear(cfg.HiddenDim, kh*2, rng),
	}
}

const minScale = 1e-3

func softplus(x float64) float64 {
	if x > 30 {
		return x
	}
	return math.Log1p(math.Exp(x))
}

// Forward predicts mixture parameters for every embedding row. When
// validIndex is non-nil only those rows are computed; all other entries stay
// at their zero values and must not be consumed.
func (h *Head) Forward(embeddings [][]float64, validIndex []int) *Output {
	cfg := h.Cfg
	n := len(embeddings)
	out := &Output{
		Pi:        make([][]float64, n),
		PosLoc:    make([][][][]float64, n),
		PosScale:  make([][][][]float64, n),
		VelLoc:    make([][][][]float64, n),
		VelScale:  make([][][][]float64, n),
		ThetaLoc:  make([][][]float64, n),
		ThetaConc: make([][][]float64, n),
	}
	predict := func(i int) {
		trunk := h.Trunk.Forward(embeddings[i])
		out.Pi[i] = h.PiProj.Forward(trunk)
		pos := h.PosProj.Forward(trunk)
		vel := h.VelProj.Forward(trunk)
		theta := h.ThetaProj.Forward(trunk)

		out.PosLoc[i] = make([][][]float64, cfg.NumModes)
		out.PosScale[i] = make([][][]float64, cfg.NumModes)
		out.VelLoc[i] = make([][][]float64, cfg.NumModes)
		out.VelScale[i] = make([][][]float64, cfg.NumModes)
		out.ThetaLoc[i] = make([][]float64, cfg.NumModes)
		out.ThetaConc[i] = make([][]float64, cfg.NumModes)
		for k := 0; k < cfg.NumModes; k++ {
			out.PosLoc[i][k] = make([][]float64, cfg.NumActionSteps)
			out.PosScale[i][k] = make([][]float64, cfg.NumActionSteps)
			out.VelLoc[i][k] = make([][]float64, cfg.NumActionSteps)
			out.VelScale[i][k] = make([][]float64, cfg.NumActionSteps)
			out.ThetaLoc[i][k] = make([]float64, cfg.NumActionSteps)
			out.ThetaConc[i][k] = make([]float64, cfg.NumActionSteps)
			for u := 0; u < cfg.NumActionSteps; u++ {
				pBase := ((k*cfg.NumActionSteps + u) * 2) * cfg.PosDim
				loc := make([]float64, cfg.PosDim)
				scale := make([]float64, cfg.PosDim)
				for j := 0; j < cfg.PosDim; j++ {
					loc[j] = pos[pBase+j]
					scale[j] = softplus(pos[pBase+cfg.PosDim+j]) + minScale
				}
				out.PosLoc[i][k][u] = loc
				out.PosScale[i][k][u] = scale

				vBase := ((k*cfg.NumActionSteps + u) * 2) * cfg.VelDim
				vloc := make([]float64, cfg.VelDim)
				vscale := make([]float64, cfg.VelDim)
				for j := 0; j < cfg.VelDim; j++ {
					vloc[j] = vel[vBase+j]
					vscale[j] = softplus(vel[vBase+cfg.VelDim+j]) + minScale
				}
				out.VelLoc[i][k][u] = vloc
				out.VelScale[i][k][u] = vscale

				tBase := (k*cfg.NumActionSteps + u) * 2
				out.ThetaLoc[i][k][u] = theta[tBase]
				out.ThetaConc[i][k][u] = softplus(theta[tBase+1]) + minScale
			}
		}
	}
	if validIndex != nil {
		for _, i := range validIndex {
			predict(i)
		}
		return out
	}
	for i := range embeddings {
		predict(i)
	}
	return out
}
