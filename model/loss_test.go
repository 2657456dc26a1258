package model

import (
	"math"
	"math/rand"
	"testing"

	"github.com/wgangyiii/Scenario-Generation/scene"
)

func TestLogBesselI0(t *testing.T) {
	if got := logBesselI0(0); math.Abs(got) > 1e-7 {
		t.Errorf("ln I0(0) = %v, want 0", got)
	}
	// I0(1) = 1.2660658..., table value from Abramowitz & Stegun.
	if got := logBesselI0(1); math.Abs(got-math.Log(1.2660658)) > 1e-6 {
		t.Errorf("ln I0(1) = %v, want %v", got, math.Log(1.2660658))
	}
	// The large-x branch must stay continuous with the small-x branch.
	lo := logBesselI0(3.74)
	hi := logBesselI0(3.76)
	if math.Abs(hi-lo) > 0.05 {
		t.Errorf("branch discontinuity at 3.75: %v vs %v", lo, hi)
	}
}

func TestVonMisesLogProb(t *testing.T) {
	// Near-zero concentration approaches the circular uniform density.
	got := vonMisesLogProb(1.0, 0, 1e-9)
	want := -math.Log(2 * math.Pi)
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("nearly flat log prob = %v, want %v", got, want)
	}
	// Density peaks at the location.
	atMean := vonMisesLogProb(0.5, 0.5, 4)
	offMean := vonMisesLogProb(0.5+1, 0.5, 4)
	if atMean <= offMean {
		t.Errorf("log prob at mean %v not above off-mean %v", atMean, offMean)
	}
}

func testHeadAndTarget(numModes int) (*Head, *Output, [][]float64, []bool) {
	rng := rand.New(rand.NewSource(3))
	head := NewHead(HeadConfig{
		HiddenDim:      8,
		PosDim:         2,
		VelDim:         2,
		ThetaDim:       1,
		NumModes:       numModes,
		NumActionSteps: scene.ActionSteps,
	}, rng)
	emb := make([][]float64, 1)
	emb[0] = make([]float64, 8)
	for i := range emb[0] {
		emb[0][i] = rng.NormFloat64()
	}
	out := head.Forward(emb, nil)

	target := make([][]float64, scene.ActionSteps)
	mask := make([]bool, scene.ActionSteps)
	for u := range target {
		target[u] = []float64{0.5, 0.1, 0, 1.0, 0.05, 0.02}
		mask[u] = u < 6
	}
	return head, out, target, mask
}

func TestSingleModeMixtureEqualsNLL(t *testing.T) {
	head, out, target, mask := testHeadAndTarget(1)
	plain, n1 := head.NLLLoss(out, 0, target, mask)
	mixture, n2 := head.MixtureNLLLoss(out, 0, target, mask)
	if n1 != 6 || n2 != 6 {
		t.Fatalf("substep counts = %d, %d, want 6", n1, n2)
	}
	if math.Abs(plain-mixture) > 1e-9 {
		t.Errorf("single-mode mixture loss %v != plain NLL %v", mixture, plain)
	}
}

func TestMixtureLossBounds(t *testing.T) {
	head, out, target, mask := testHeadAndTarget(4)
	mixture, _ := head.MixtureNLLLoss(out, 0, target, mask)
	if math.IsNaN(mixture) || math.IsInf(mixture, 0) {
		t.Fatalf("mixture loss = %v", mixture)
	}
	// The mixture can never beat its best component.
	best := math.Inf(1)
	for k := 0; k < 4; k++ {
		if ll := head.componentLogLik(out, 0, k, target, mask); -ll < best {
			best = -ll
		}
	}
	if mixture < best-1e-9 {
		t.Errorf("mixture loss %v below best component loss %v", mixture, best)
	}
}

func TestLossEmptyMask(t *testing.T) {
	head, out, target, _ := testHeadAndTarget(2)
	mask := make([]bool, scene.ActionSteps)
	loss, count := head.MixtureNLLLoss(out, 0, target, mask)
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
	// With nothing to explain, every component likelihood is 0 and the loss
	// collapses to -logsumexp(log softmax(pi)) = 0.
	if math.Abs(loss) > 1e-9 {
		t.Errorf("empty-mask loss = %v, want 0", loss)
	}
}

func TestHeadScalesPositive(t *testing.T) {
	_, out, _, _ := testHeadAndTarget(3)
	for k := 0; k < 3; k++ {
		for u := 0; u < scene.ActionSteps; u++ {
			for _, s := range out.PosScale[0][k][u] {
				if s <= 0 {
					t.Fatalf("position scale %v not positive", s)
				}
			}
			for _, s := range out.VelScale[0][k][u] {
				if s <= 0 {
					t.Fatalf("velocity scale %v not positive", s)
				}
			}
			if out.ThetaConc[0][k][u] <= 0 {
				t.Fatalf("concentration %v not positive", out.ThetaConc[0][k][u])
			}
		}
	}
}
