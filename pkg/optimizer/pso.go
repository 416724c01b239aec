package optimizer

import (
	"context"
	"math"
	"math/rand"

	"github.com/rs/zerolog/log"
)

// ============================================================================
// PARTICLE SWARM OPTIMIZATION
// ============================================================================

// particleSwarmSearch moves a swarm of particles through the numeric
// dimensions of the space. Categorical dimensions are excluded from velocity
// math and re-sampled uniformly at each step instead.
type particleSwarmSearch struct {
	cfg   *Config
	space *ParameterSpace
	rng   *rand.Rand

	particles []*particle
}

// particle tracks position and velocity over the numeric dimensions plus
// the current categorical assignment.
type particle struct {
	numeric  map[string]float64 // continuous/discrete positions
	velocity map[string]float64
	category map[string]string

	best      ParameterSet
	bestScore float64
}

func (s *particleSwarmSearch) run(ctx context.Context, gw *evalGateway) {
	s.initSwarm()

	globalBest := ParameterSet{}
	globalScore := math.Inf(-1)

	iteration := 0
	for !gw.exhausted(ctx) && !gw.stalled() {
		count := len(s.particles)
		if rem := gw.remaining(); count > rem {
			count = rem
		}

		positions := make([]ParameterSet, count)
		for i := 0; i < count; i++ {
			positions[i] = s.materialize(s.particles[i])
		}

		trials := gw.evaluateBatch(ctx, positions, s.workers())

		for i, trial := range trials {
			p := s.particles[i]
			score := trial.SelectionScore()
			if score > p.bestScore {
				p.bestScore = score
				p.best = trial.Parameters.Clone()
			}
			if score > globalScore {
				globalScore = score
				globalBest = trial.Parameters.Clone()
			}
		}

		if gw.exhausted(ctx) {
			return
		}

		for _, p := range s.particles {
			s.step(p, globalBest, globalScore)
		}

		iteration++
		log.Debug().
			Int("iteration", iteration).
			Float64("global_best", globalScore).
			Msg("Swarm iteration complete")
	}
}

func (s *particleSwarmSearch) workers() int {
	if s.cfg.Parallel {
		return s.cfg.NumWorkers
	}
	return 1
}

func (s *particleSwarmSearch) initSwarm() {
	s.particles = make([]*particle, s.cfg.SwarmSize)
	for i := range s.particles {
		p := &particle{
			numeric:   make(map[string]float64),
			velocity:  make(map[string]float64),
			category:  make(map[string]string),
			bestScore: math.Inf(-1),
		}

		for j := range s.space.Parameters() {
			dim := &s.space.Parameters()[j]
			switch dim.Type {
			case ParamTypeCategorical:
				p.category[dim.Name] = dim.Values[s.rng.Intn(len(dim.Values))]
			default:
				p.numeric[dim.Name] = dim.Min + s.rng.Float64()*(dim.Max-dim.Min)
				vmax := s.cfg.VelocityClamp * (dim.Max - dim.Min)
				p.velocity[dim.Name] = (s.rng.Float64() - 0.5) * vmax
			}
		}

		s.particles[i] = p
	}
}

// materialize converts internal float positions to a typed ParameterSet,
// rounding discrete dimensions to the nearest integer.
func (s *particleSwarmSearch) materialize(p *particle) ParameterSet {
	ps := make(ParameterSet)
	for i := range s.space.Parameters() {
		dim := &s.space.Parameters()[i]
		switch dim.Type {
		case ParamTypeCategorical:
			ps[dim.Name] = p.category[dim.Name]
		case ParamTypeDiscrete:
			ps[dim.Name] = int(math.Round(p.numeric[dim.Name]))
		default:
			ps[dim.Name] = p.numeric[dim.Name]
		}
	}
	return ps
}

// step applies the velocity update to the numeric dimensions and re-samples
// the categorical ones.
func (s *particleSwarmSearch) step(p *particle, globalBest ParameterSet, globalScore float64) {
	for i := range s.space.Parameters() {
		dim := &s.space.Parameters()[i]

		if dim.Type == ParamTypeCategorical {
			p.category[dim.Name] = dim.Values[s.rng.Intn(len(dim.Values))]
			continue
		}

		pos := p.numeric[dim.Name]

		personal := pos
		if p.best != nil {
			if v, ok := numericValue(p.best[dim.Name]); ok {
				personal = v
			}
		}
		global := pos
		if !math.IsInf(globalScore, -1) {
			if v, ok := numericValue(globalBest[dim.Name]); ok {
				global = v
			}
		}

		r1, r2 := s.rng.Float64(), s.rng.Float64()
		v := s.cfg.InertiaWeight*p.velocity[dim.Name] +
			s.cfg.CognitiveWeight*r1*(personal-pos) +
			s.cfg.SocialWeight*r2*(global-pos)

		vmax := s.cfg.VelocityClamp * (dim.Max - dim.Min)
		if v > vmax {
			v = vmax
		} else if v < -vmax {
			v = -vmax
		}

		pos += v
		if pos < dim.Min {
			pos = dim.Min
		} else if pos > dim.Max {
			pos = dim.Max
		}

		p.velocity[dim.Name] = v
		p.numeric[dim.Name] = pos
	}
}
