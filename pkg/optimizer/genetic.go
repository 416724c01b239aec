package optimizer

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog/log"
)

// ============================================================================
// GENETIC ALGORITHM
// ============================================================================

// geneticSearch evolves a population of parameter vectors: the top
// ElitismCount individuals survive each generation unchanged, the remaining
// slots are filled by tournament selection, uniform crossover, and
// single-dimension mutation. The next generation fully replaces the old one
// apart from the elites.
type geneticSearch struct {
	cfg   *Config
	space *ParameterSpace
	rng   *rand.Rand
}

func (s *geneticSearch) run(ctx context.Context, gw *evalGateway) {
	popSize := s.cfg.PopulationSize

	initial := popSize
	if rem := gw.remaining(); initial > rem {
		initial = rem
	}
	seeds := make([]ParameterSet, initial)
	for i := range seeds {
		seeds[i] = s.space.Sample(s.rng)
	}
	population := gw.evaluateBatch(ctx, seeds, s.workers())

	generation := 1
	for !gw.exhausted(ctx) && !gw.stalled() {
		sort.SliceStable(population, func(i, j int) bool {
			return population[i].SelectionScore() > population[j].SelectionScore()
		})

		eliteCount := s.cfg.ElitismCount
		if eliteCount > len(population) {
			eliteCount = len(population)
		}
		elites := population[:eliteCount]

		offspringCount := popSize - eliteCount
		if rem := gw.remaining(); offspringCount > rem {
			offspringCount = rem
		}
		if offspringCount <= 0 {
			return
		}

		offspringParams := make([]ParameterSet, offspringCount)
		for i := range offspringParams {
			parent1 := s.tournament(population)
			parent2 := s.tournament(population)

			var child ParameterSet
			if s.rng.Float64() < s.cfg.CrossoverRate {
				child = s.crossover(parent1.Parameters, parent2.Parameters)
			} else {
				child = parent1.Parameters.Clone()
			}
			if s.rng.Float64() < s.cfg.MutationRate {
				s.mutate(child)
			}
			offspringParams[i] = child
		}

		offspring := gw.evaluateBatch(ctx, offspringParams, s.workers())

		next := make([]*Trial, 0, len(elites)+len(offspring))
		next = append(next, elites...)
		next = append(next, offspring...)
		population = next

		log.Debug().
			Int("generation", generation).
			Int("population", len(population)).
			Float64("best_score", bestOf(population)).
			Msg("Generation evolved")
		generation++
	}
}

// bestOf returns the highest selection score in a generation. The slice is
// unsorted at this point: an improving offspring must not be reported a
// generation late.
func bestOf(trials []*Trial) float64 {
	best := math.Inf(-1)
	for _, t := range trials {
		if s := t.SelectionScore(); s > best {
			best = s
		}
	}
	return best
}

func (s *geneticSearch) workers() int {
	if s.cfg.Parallel {
		return s.cfg.NumWorkers
	}
	return 1
}

// tournament draws TournamentSize individuals uniformly and keeps the
// strictly best; ties favor the earlier-seen contestant.
func (s *geneticSearch) tournament(population []*Trial) *Trial {
	best := population[s.rng.Intn(len(population))]
	for i := 1; i < s.cfg.TournamentSize; i++ {
		contestant := population[s.rng.Intn(len(population))]
		if contestant.SelectionScore() > best.SelectionScore() {
			best = contestant
		}
	}
	return best
}

// crossover inherits each gene independently 50/50 from either parent
func (s *geneticSearch) crossover(parent1, parent2 ParameterSet) ParameterSet {
	child := make(ParameterSet, len(parent1))
	for _, p := range s.space.Parameters() {
		if s.rng.Float64() < 0.5 {
			child[p.Name] = parent1[p.Name]
		} else {
			child[p.Name] = parent2[p.Name]
		}
	}
	return child
}

// mutate resamples one randomly chosen dimension uniformly from its domain
func (s *geneticSearch) mutate(individual ParameterSet) {
	params := s.space.Parameters()
	p := &params[s.rng.Intn(len(params))]
	individual[p.Name] = s.space.SampleDimension(s.rng, p)
}
