// Package model implements the relational decoder, the mixture prediction
// head, and the masked negative-log-likelihood losses. Layer parameters live
// in plain exported slices so checkpoints gob-encode directly; gonum/mat is
// used for the dense math.
package model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Linear is a dense layer y = Wx + b. W is stored row-major with shape
// [Out][In].
type Linear struct {
	In  int
	Out int
	W   []float64
	B   []float64

	dense *mat.Dense // rebuilt lazily after decode
}

// NewLinear creates a dense layer with Xavier/Glorot-uniform initialized
// weights and zero biases.
func NewLinear(in, out int, rng *rand.Rand) *Linear {
	w := make([]float64, out*in)
	limit := math.Sqrt(6.0 / float64(in+out))
	for i := range w {
		w[i] = (rng.Float64()*2 - 1) * limit
	}
	return &Linear{In: in, Out: out, W: w, B: make([]float64, out)}
}

func (l *Linear) matrix() *mat.Dense {
	if l.dense == nil {
		l.dense = mat.NewDense(l.Out, l.In, l.W)
	}
	return l.dense
}

// Forward applies the layer to a single input vector.
func (l *Linear) Forward(x []float64) []float64 {
	y := mat.NewVecDense(l.Out, nil)
	y.MulVec(l.matrix(), mat.NewVecDense(l.In, x))
	out := y.RawVector().Data
	for i := range out {
		out[i] += l.B[i]
	}
	return out
}

// LayerNorm normalizes a vector to zero mean and unit variance, then applies
// a learned affine transform.
type LayerNorm struct {
	Gamma []float64
	Beta  []float64
}

// NewLayerNorm creates a LayerNorm over dim features (gamma=1, beta=0).
func NewLayerNorm(dim int) *LayerNorm {
	g := make([]float64, dim)
	for i := range g {
		g[i] = 1
	}
	return &LayerNorm{Gamma: g, Beta: make([]float64, dim)}
}

const layerNormEps = 1e-5

// Forward normalizes x into a new slice.
func (n *LayerNorm) Forward(x []float64) []float64 {
	mean := 0.0
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))
	variance := 0.0
	for _, v := range x {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(x))
	inv := 1.0 / math.Sqrt(variance+layerNormEps)
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = (v-mean)*inv*n.Gamma[i] + n.Beta[i]
	}
	return out
}

// MLP is Linear -> ReLU -> Linear with a LayerNorm in front of the hidden
// activation.
type MLP struct {
	Hidden *Linear
	Norm   *LayerNorm
	Output *Linear
}

// NewMLP builds an in -> hidden -> out MLP.
func NewMLP(in, hidden, out int, rng *rand.Rand) *MLP {
	return &MLP{
		Hidden: NewLinear(in, hidden, rng),
		Norm:   NewLayerNorm(hidden),
		Output: NewLinear(hidden, out, rng),
	}
}

// Forward applies the MLP to a single vector.
func (m *MLP) Forward(x []float64) []float64 {
	h := m.Norm.Forward(m.Hidden.Forward(x))
	for i, v := range h {
		if v < 0 {
			h[i] = 0
		}
	}
	return m.Output.Forward(h)
}

// Embedding is a learned lookup table for discrete types.
type Embedding struct {
	Table [][]float64
}

// NewEmbedding creates a numTypes x dim table with small random entries.
func NewEmbedding(numTypes, dim int, rng *rand.Rand) *Embedding {
	table := make([][]float64, numTypes)
	for i := range table {
		row := make([]float64, dim)
		for j := range row {
			row[j] = rng.NormFloat64() * 0.02
		}
		table[i] = row
	}
	return &Embedding{Table: table}
}

// Lookup returns the embedding row for type t. Unknown types clamp to the
// last row rather than panicking; type vocabularies are fixed by config.
func (e *Embedding) Lookup(t int) []float64 {
	if t < 0 {
		t = 0
	}
	if t >= len(e.Table) {
		t = len(e.Table) - 1
	}
	return e.Table[t]
}

func addInto(dst, src []float64) {
	for i := range src {
		dst[i] += src[i]
	}
}
