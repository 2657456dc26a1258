package model

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// logBesselI0 evaluates ln I0(x) for x >= 0 using the Abramowitz & Stegun
// polynomial fits (9.8.1 for small x, 9.8.2 for large x). gonum's distuv has
// no von Mises distribution, so the heading likelihood needs this directly.
func logBesselI0(x float64) float64 {
	if x < 0 {
		x = -x
	}
	if x < 3.75 {
		t := x / 3.75
		t *= t
		p := 1.0 + t*(3.5156229+t*(3.0899424+t*(1.2067492+
			t*(0.2659732+t*(0.0360768+t*0.0045813)))))
		return math.Log(p)
	}
	t := 3.75 / x
	p := 0.39894228 + t*(0.01328592+t*(0.00225319+t*(-0.00157565+
		t*(0.00916281+t*(-0.02057706+t*(0.02635537+
			t*(-0.01647633+t*0.00392377)))))))
	return x - 0.5*math.Log(x) + math.Log(p)
}

// vonMisesLogProb is the log density of a von Mises distribution with
// location mu and concentration kappa, evaluated at angle x.
func vonMisesLogProb(x, mu, kappa float64) float64 {
	return kappa*math.Cos(x-mu) - math.Log(2*math.Pi) - logBesselI0(kappa)
}

// componentLogLik sums the log likelihood of mode k of node i over every
// masked action substep. target rows are [dx, dy, dz, vx, vy, dtheta] in the
// anchor frame; position uses the first PosDim entries and velocity the
// VelDim entries starting at index 3.
func (h *Head) componentLogLik(out *Output, i, k int, target [][]float64, mask []bool) float64 {
	cfg := h.Cfg
	ll := 0.0
	for u := 0; u < cfg.NumActionSteps; u++ {
		if !mask[u] {
			continue
		}
		for j := 0; j < cfg.PosDim; j++ {
			d := distuv.Laplace{Mu: out.PosLoc[i][k][u][j], Scale: out.PosScale[i][k][u][j]}
			ll += d.LogProb(target[u][j])
		}
		for j := 0; j < cfg.VelDim; j++ {
			d := distuv.Laplace{Mu: out.VelLoc[i][k][u][j], Scale: out.VelScale[i][k][u][j]}
			ll += d.LogProb(target[u][3+j])
		}
		if cfg.ThetaDim > 0 {
			ll += vonMisesLogProb(target[u][5], out.ThetaLoc[i][k][u], out.ThetaConc[i][k][u])
		}
	}
	return ll
}

// NLLLoss is the plain negative log likelihood of node i's first mixture
// component over the masked substeps. It also reports how many substeps
// contributed.
func (h *Head) NLLLoss(out *Output, i int, target [][]float64, mask []bool) (loss float64, count int) {
	for u := 0; u < h.Cfg.NumActionSteps; u++ {
		if mask[u] {
			count++
		}
	}
	return -h.componentLogLik(out, i, 0, target, mask), count
}

// MixtureNLLLoss is the negative log likelihood of the full mixture for node
// i over the masked substeps: -logsumexp_k(log softmax(pi)_k + loglik_k).
// With a single mode it reduces to NLLLoss.
func (h *Head) MixtureNLLLoss(out *Output, i int, target [][]float64, mask []bool) (loss float64, count int) {
	for u := 0; u < h.Cfg.NumActionSteps; u++ {
		if mask[u] {
			count++
		}
	}
	k := h.Cfg.NumModes
	logPi := make([]float64, k)
	copy(logPi, out.Pi[i])
	lse := floats.LogSumExp(logPi)
	terms := make([]float64, k)
	for m := 0; m < k; m++ {
		terms[m] = (logPi[m] - lse) + h.componentLogLik(out, i, m, target, mask)
	}
	return -floats.LogSumExp(terms), count
}
