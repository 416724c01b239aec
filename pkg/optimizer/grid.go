package optimizer

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog/log"
)

// ============================================================================
// GRID SEARCH
// ============================================================================

// gridSearch enumerates the Cartesian product of discretized parameter axes
// in a fixed, reproducible order. Continuous axes get GridPoints evenly
// spaced values including both endpoints; discrete axes use an integer step
// covering the same count; categorical axes contribute their full value set.
type gridSearch struct {
	cfg   *Config
	space *ParameterSpace
	rng   *rand.Rand
}

func (s *gridSearch) run(ctx context.Context, gw *evalGateway) {
	combos := s.enumerate()

	// Random-subsampling mode: distinct indices without replacement,
	// visited in grid order.
	if n := s.cfg.NumRandomSamples; n > 0 && n < len(combos) {
		picked := s.rng.Perm(len(combos))[:n]
		sort.Ints(picked)
		sampled := make([]ParameterSet, n)
		for i, idx := range picked {
			sampled[i] = combos[idx]
		}
		combos = sampled
	}

	log.Debug().
		Int("combinations", len(combos)).
		Int("grid_points", s.cfg.GridPoints).
		Msg("Grid search space enumerated")

	batchSize := 1
	if s.cfg.Parallel {
		batchSize = s.cfg.NumWorkers
	}

	for start := 0; start < len(combos); start += batchSize {
		if gw.exhausted(ctx) || gw.stalled() {
			return
		}

		end := start + batchSize
		if end > len(combos) {
			end = len(combos)
		}
		if rem := gw.remaining(); end-start > rem {
			end = start + rem
		}

		gw.evaluateBatch(ctx, combos[start:end], batchSize)
	}
}

// enumerate builds the full Cartesian product in definition order
func (s *gridSearch) enumerate() []ParameterSet {
	return s.expand(0, ParameterSet{})
}

func (s *gridSearch) expand(dim int, current ParameterSet) []ParameterSet {
	params := s.space.Parameters()
	if dim >= len(params) {
		return []ParameterSet{current.Clone()}
	}

	var combos []ParameterSet
	for _, v := range s.axisValues(&params[dim]) {
		next := current.Clone()
		next[params[dim].Name] = v
		combos = append(combos, s.expand(dim+1, next)...)
	}
	return combos
}

// axisValues discretizes one dimension
func (s *gridSearch) axisValues(p *Parameter) []interface{} {
	switch p.Type {
	case ParamTypeCategorical:
		values := make([]interface{}, len(p.Values))
		for i, v := range p.Values {
			values[i] = v
		}
		return values

	case ParamTypeDiscrete:
		lo, hi := int(p.Min), int(p.Max)
		count := s.cfg.GridPoints
		if hi-lo+1 <= count {
			values := make([]interface{}, 0, hi-lo+1)
			for v := lo; v <= hi; v++ {
				values = append(values, v)
			}
			return values
		}

		step := float64(hi-lo) / float64(count-1)
		values := make([]interface{}, 0, count)
		prev := lo - 1
		for i := 0; i < count; i++ {
			v := lo + int(math.Round(float64(i)*step))
			if v != prev {
				values = append(values, v)
				prev = v
			}
		}
		return values

	default: // continuous
		count := s.cfg.GridPoints
		step := (p.Max - p.Min) / float64(count-1)
		values := make([]interface{}, count)
		for i := 0; i < count; i++ {
			values[i] = p.Min + float64(i)*step
		}
		values[count-1] = p.Max // exact upper endpoint
		return values
	}
}
