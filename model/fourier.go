package model

import (
	"math"
	"math/rand"
)

// FourierEmbedding lifts a small continuous feature vector into the hidden
// dimension. Each input dimension is expanded over learned frequency bands
// into [cos(2*pi*f*x), sin(2*pi*f*x), x], projected per dimension, summed
// with optional categorical embeddings, and passed through an output MLP.
type FourierEmbedding struct {
	InputDim int
	Hidden   int
	NumBands int

	Freqs   [][]float64 // [InputDim][NumBands]
	PerDim  []*Linear   // (2*NumBands+1) -> Hidden, one per input dim
	OutNorm *LayerNorm
	Out     *Linear
}

// NewFourierEmbedding builds an embedding for inputDim continuous features.
func NewFourierEmbedding(inputDim, hidden, numBands int, rng *rand.Rand) *FourierEmbedding {
	freqs := make([][]float64, inputDim)
	perDim := make([]*Linear, inputDim)
	for d := 0; d < inputDim; d++ {
		bands := make([]float64, numBands)
		for b := range bands {
			bands[b] = rng.NormFloat64()
		}
		freqs[d] = bands
		perDim[d] = NewLinear(2*numBands+1, hidden, rng)
	}
	return &FourierEmbedding{
		InputDim: inputDim,
		Hidden:   hidden,
		NumBands: numBands,
		Freqs:    freqs,
		PerDim:   perDim,
		OutNorm:  NewLayerNorm(hidden),
		Out:      NewLinear(hidden, hidden, rng),
	}
}

// Forward embeds one continuous feature vector, fusing the given categorical
// embeddings (summed in before the output projection).
func (e *FourierEmbedding) Forward(continuous []float64, categorical ...[]float64) []float64 {
	acc := make([]float64, e.Hidden)
	lifted := make([]float64, 2*e.NumBands+1)
	for d := 0; d < e.InputDim; d++ {
		x := continuous[d]
		for b, f := range e.Freqs[d] {
			arg := 2 * math.Pi * f * x
			lifted[2*b] = math.Cos(arg)
			lifted[2*b+1] = math.Sin(arg)
		}
		lifted[2*e.NumBands] = x
		addInto(acc, e.PerDim[d].Forward(lifted))
	}
	for _, cat := range categorical {
		addInto(acc, cat)
	}
	h := e.OutNorm.Forward(acc)
	for i, v := range h {
		if v < 0 {
			h[i] = 0
		}
	}
	return e.Out.Forward(h)
}

// ForwardAll embeds a batch of rows. When validIndex is non-nil only those
// rows are embedded and all other outputs stay zero; skipping invalid nodes
// is a compute-saving policy, and their rows must never be consumed
// downstream. categorical, when non-nil, supplies one embedding per row.
func (e *FourierEmbedding) ForwardAll(rows [][]float64, categorical [][]float64, validIndex []int) [][]float64 {
	out := make([][]float64, len(rows))
	embed := func(i int) {
		if categorical != nil {
			out[i] = e.Forward(rows[i], categorical[i])
		} else {
			out[i] = e.Forward(rows[i])
		}
	}
	if validIndex != nil {
		for i := range out {
			out[i] = make([]float64, e.Hidden)
		}
		for _, i := range validIndex {
			embed(i)
		}
		return out
	}
	for i := range rows {
		embed(i)
	}
	return out
}
