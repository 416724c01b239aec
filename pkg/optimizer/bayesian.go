package optimizer

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog/log"
)

// ============================================================================
// BAYESIAN SURROGATE OPTIMIZATION
// ============================================================================

// bayesianSearch runs sequential model-based optimization with a lightweight
// k-nearest-neighbor surrogate in place of a Gaussian process: after an
// initial uniform-random phase, each step scores a random candidate pool by
// Expected Improvement against a distance-weighted neighbor estimate and
// evaluates the winner. Candidate selection depends on all prior results, so
// evaluation is strictly one trial at a time.
type bayesianSearch struct {
	cfg   *Config
	space *ParameterSpace
	rng   *rand.Rand
}

// observation is one successful prior trial as seen by the surrogate
type observation struct {
	params ParameterSet
	score  float64
}

func (s *bayesianSearch) run(ctx context.Context, gw *evalGateway) {
	initial := s.cfg.InitialRandomSamples
	if initial == 0 {
		initial = s.cfg.MaxIterations / 5
		if initial > 10 {
			initial = 10
		}
		if initial < 1 {
			initial = 1
		}
	}

	for i := 0; i < initial; i++ {
		if gw.exhausted(ctx) {
			return
		}
		gw.evaluate(ctx, s.space.Sample(s.rng))
	}

	log.Debug().
		Int("initial_samples", initial).
		Msg("Bayesian warm-up phase complete")

	for !gw.exhausted(ctx) && !gw.stalled() {
		history := s.observations(gw)
		if len(history) == 0 {
			// Nothing usable to model yet; keep exploring uniformly
			gw.evaluate(ctx, s.space.Sample(s.rng))
			continue
		}

		bestSoFar := math.Inf(-1)
		for _, obs := range history {
			if obs.score > bestSoFar {
				bestSoFar = obs.score
			}
		}

		candidate := s.selectCandidate(history, bestSoFar)
		gw.evaluate(ctx, candidate)
	}
}

// observations snapshots the successful trials from the ledger
func (s *bayesianSearch) observations(gw *evalGateway) []observation {
	gw.mu.Lock()
	trials := gw.ledger.succeeded()
	gw.mu.Unlock()

	history := make([]observation, len(trials))
	for i, t := range trials {
		history[i] = observation{params: t.Parameters, score: t.SelectionScore()}
	}
	return history
}

// selectCandidate draws a uniform-random pool and picks the candidate
// maximizing Expected Improvement; ties go to the first-seen candidate.
// A zero-variance pool degrades to ranking by predicted mean alone.
func (s *bayesianSearch) selectCandidate(history []observation, bestSoFar float64) ParameterSet {
	pool := make([]ParameterSet, s.cfg.CandidatePoolSize)
	means := make([]float64, len(pool))
	stds := make([]float64, len(pool))

	allFlat := true
	for i := range pool {
		pool[i] = s.space.Sample(s.rng)
		means[i], stds[i] = s.predict(pool[i], history)
		if stds[i] > 0 {
			allFlat = false
		}
	}

	bestIdx := 0
	if allFlat {
		for i := 1; i < len(pool); i++ {
			if means[i] > means[bestIdx] {
				bestIdx = i
			}
		}
		return pool[bestIdx]
	}

	bestEI := expectedImprovement(means[0], stds[0], bestSoFar)
	for i := 1; i < len(pool); i++ {
		if ei := expectedImprovement(means[i], stds[i], bestSoFar); ei > bestEI {
			bestEI = ei
			bestIdx = i
		}
	}
	return pool[bestIdx]
}

// predict estimates the mean and standard deviation of the score at x via
// distance-weighted k-nearest-neighbor regression over prior observations.
func (s *bayesianSearch) predict(x ParameterSet, history []observation) (mean, std float64) {
	k := s.cfg.SurrogateNeighbors
	if k > len(history) {
		k = len(history)
	}

	type neighbor struct {
		dist  float64
		score float64
	}
	neighbors := make([]neighbor, len(history))
	for i, obs := range history {
		neighbors[i] = neighbor{dist: s.space.Distance(x, obs.params), score: obs.score}
	}
	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].dist < neighbors[j].dist })
	neighbors = neighbors[:k]

	const eps = 1e-9
	var wsum, acc float64
	for _, n := range neighbors {
		w := 1 / (n.dist + eps)
		wsum += w
		acc += w * n.score
	}
	mean = acc / wsum

	var varAcc float64
	for _, n := range neighbors {
		w := 1 / (n.dist + eps)
		d := n.score - mean
		varAcc += w * d * d
	}
	return mean, math.Sqrt(varAcc / wsum)
}

// expectedImprovement computes EI(x) = (mean-best)*Phi(z) + std*phi(z) with
// z = (mean-best)/std. With zero predictive deviation it collapses to
// max(mean-best, 0).
func expectedImprovement(mean, std, best float64) float64 {
	improvement := mean - best
	if std == 0 {
		if improvement > 0 {
			return improvement
		}
		return 0
	}
	z := improvement / std
	return improvement*normalCDF(z) + std*normalPDF(z)
}

// normalPDF is the standard normal density
func normalPDF(z float64) float64 {
	return math.Exp(-z*z/2) / math.Sqrt(2*math.Pi)
}

// normalCDF is the standard normal cumulative distribution, computed via
// the Abramowitz-Stegun erf approximation (formula 7.1.26, ~1e-7 accurate).
func normalCDF(z float64) float64 {
	return 0.5 * (1 + erfApprox(z/math.Sqrt2))
}

func erfApprox(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1.0
		x = -x
	}

	const (
		a1 = 0.254829592
		a2 = -0.284496736
		a3 = 1.421413741
		a4 = -1.453152027
		a5 = 1.061405429
		p  = 0.3275911
	)

	t := 1 / (1 + p*x)
	y := 1 - (((((a5*t+a4)*t)+a3)*t+a2)*t+a1)*t*math.Exp(-x*x)
	return sign * y
}
