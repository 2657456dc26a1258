package model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/wgangyiii/Scenario-Generation/graph"
)

// Layer is the attention primitive contract the decoder stacks: given
// destination (query) node features, source node features, one embedded
// feature vector per edge, and the edge list, it returns updated destination
// features of the same shape. Implementations are selected at construction
// time; the decoder never branches on the concrete type.
//
// For self-attention src and dst are the same slice. When validDst is
// non-nil, only those destination indices may be updated; every other row is
// passed through untouched. A destination with no incoming edges is also
// passed through (the no-neighbor convention).
type Layer interface {
	Apply(dst, src, edgeFeat [][]float64, edges []graph.Edge, validDst []int) [][]float64
}

// EdgeAttention is multi-head dot-product attention with an additive edge
// bias on keys and values, a residual output projection, and a residual
// feed-forward block. Queries come from destination nodes, keys and values
// from source nodes plus the per-edge relational embedding.
type EdgeAttention struct {
	Hidden   int
	NumHeads int
	HeadDim  int

	NormIn  *LayerNorm
	Q       *Linear
	K       *Linear
	V       *Linear
	EdgeK   *Linear
	EdgeV   *Linear
	OutProj *Linear
	NormFF  *LayerNorm
	FF      *MLP
}

// NewEdgeAttention builds an attention layer over hidden-sized features.
func NewEdgeAttention(hidden, numHeads, headDim int, rng *rand.Rand) *EdgeAttention {
	attnDim := numHeads * headDim
	return &EdgeAttention{
		Hidden:   hidden,
		NumHeads: numHeads,
		HeadDim:  headDim,
		NormIn:   NewLayerNorm(hidden),
		Q:        NewLinear(hidden, attnDim, rng),
		K:        NewLinear(hidden, attnDim, rng),
		V:        NewLinear(hidden, attnDim, rng),
		EdgeK:    NewLinear(hidden, attnDim, rng),
		EdgeV:    NewLinear(hidden, attnDim, rng),
		OutProj:  NewLinear(attnDim, hidden, rng),
		NormFF:   NewLayerNorm(hidden),
		FF:       NewMLP(hidden, 2*hidden, hidden, rng),
	}
}

// Apply implements Layer.
func (l *EdgeAttention) Apply(dst, src, edgeFeat [][]float64, edges []graph.Edge, validDst []int) [][]float64 {
	out := make([][]float64, len(dst))
	copy(out, dst)
	if len(edges) == 0 {
		return out
	}

	var allowed map[int]bool
	if validDst != nil {
		allowed = make(map[int]bool, len(validDst))
		for _, i := range validDst {
			allowed[i] = true
		}
	}

	incoming := make(map[int][]int)
	for ei, e := range edges {
		if allowed != nil && !allowed[e.Dst] {
			continue
		}
		incoming[e.Dst] = append(incoming[e.Dst], ei)
	}
	if len(incoming) == 0 {
		return out
	}

	// Source-side projections are shared across edges from the same node.
	kSrc := make(map[int][]float64)
	vSrc := make(map[int][]float64)
	for _, eis := range incoming {
		for _, ei := range eis {
			s := edges[ei].Src
			if _, ok := kSrc[s]; !ok {
				h := l.NormIn.Forward(src[s])
				kSrc[s] = l.K.Forward(h)
				vSrc[s] = l.V.Forward(h)
			}
		}
	}

	attnDim := l.NumHeads * l.HeadDim
	scale := 1.0 / math.Sqrt(float64(l.HeadDim))

	for d, eis := range incoming {
		q := l.Q.Forward(l.NormIn.Forward(dst[d]))

		keys := make([][]float64, len(eis))
		vals := make([][]float64, len(eis))
		for i, ei := range eis {
			ek := l.EdgeK.Forward(edgeFeat[ei])
			ev := l.EdgeV.Forward(edgeFeat[ei])
			k := append([]float64(nil), kSrc[edges[ei].Src]...)
			v := append([]float64(nil), vSrc[edges[ei].Src]...)
			addInto(k, ek)
			addInto(v, ev)
			keys[i] = k
			vals[i] = v
		}

		msg := make([]float64, attnDim)
		scores := make([]float64, len(eis))
		for h := 0; h < l.NumHeads; h++ {
			off := h * l.HeadDim
			for i := range eis {
				s := 0.0
				for j := 0; j < l.HeadDim; j++ {
					s += q[off+j] * keys[i][off+j]
				}
				scores[i] = s * scale
			}
			lse := floats.LogSumExp(scores)
			for i := range eis {
				alpha := math.Exp(scores[i] - lse)
				for j := 0; j < l.HeadDim; j++ {
					msg[off+j] += alpha * vals[i][off+j]
				}
			}
		}

		row := append([]float64(nil), dst[d]...)
		addInto(row, l.OutProj.Forward(msg))
		addInto(row, l.FF.Forward(l.NormFF.Forward(row)))
		out[d] = row
	}
	return out
}
