package optimizer

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// GENETIC ALGORITHM RUNS
// ============================================================================

func TestGeneticSearch_ImprovesOnParabola(t *testing.T) {
	opt, err := New(Config{
		Method: MethodGenetic,
		Parameters: []Parameter{
			{Name: "x", Type: ParamTypeContinuous, Min: 0, Max: 10},
			{Name: "y", Type: ParamTypeContinuous, Min: 0, Max: 6},
		},
		MaxIterations:  200,
		PopulationSize: 20,
		Seed:           42,
	})
	require.NoError(t, err)

	result, err := opt.Optimize(context.Background(), parabolaObjective)
	require.NoError(t, err)

	require.NotEmpty(t, result.AllTrials)
	assert.LessOrEqual(t, len(result.AllTrials), 200)

	// Evolution should land reasonably close to the (5, 3) peak
	assert.Greater(t, result.BestScore, -5.0)
	assert.InDelta(t, 5.0, result.BestParameters["x"].(float64), 2.5)
	assert.InDelta(t, 3.0, result.BestParameters["y"].(float64), 2.5)
}

func TestGeneticSearch_ConvergenceHistoryNonDecreasing(t *testing.T) {
	opt, err := New(Config{
		Method: MethodGenetic,
		Parameters: []Parameter{
			{Name: "x", Type: ParamTypeContinuous, Min: 0, Max: 10},
		},
		MaxIterations:  80,
		PopulationSize: 10,
		Seed:           7,
	})
	require.NoError(t, err)

	result, err := opt.Optimize(context.Background(), parabolaObjectiveX)
	require.NoError(t, err)

	require.Equal(t, len(result.AllTrials), len(result.ConvergenceHistory))
	for i := 1; i < len(result.ConvergenceHistory); i++ {
		assert.GreaterOrEqual(t, result.ConvergenceHistory[i], result.ConvergenceHistory[i-1])
	}
	assert.Equal(t, result.BestScore, result.ConvergenceHistory[len(result.ConvergenceHistory)-1])
}

func TestGeneticSearch_Reproducible(t *testing.T) {
	cfg := Config{
		Method: MethodGenetic,
		Parameters: []Parameter{
			{Name: "x", Type: ParamTypeContinuous, Min: 0, Max: 10},
			{Name: "mode", Type: ParamTypeCategorical, Values: []string{"a", "b", "c"}},
		},
		MaxIterations:  60,
		PopulationSize: 10,
		Seed:           1234,
	}

	run := func() *Result {
		opt, err := New(cfg)
		require.NoError(t, err)
		result, err := opt.Optimize(context.Background(), parabolaObjectiveX)
		require.NoError(t, err)
		return result
	}

	first := run()
	second := run()

	require.Equal(t, len(first.AllTrials), len(second.AllTrials))
	for i := range first.AllTrials {
		assert.Equal(t, first.AllTrials[i].Parameters, second.AllTrials[i].Parameters)
	}
	assert.Equal(t, first.BestScore, second.BestScore)
}

// ============================================================================
// GENETIC OPERATORS
// ============================================================================

func TestGeneticSearch_TournamentPrefersStrictlyBest(t *testing.T) {
	space, err := NewParameterSpace([]Parameter{
		{Name: "x", Type: ParamTypeContinuous, Min: 0, Max: 1},
	})
	require.NoError(t, err)

	cfg := Config{TournamentSize: 50}
	rng := rand.New(rand.NewSource(3)) // #nosec G404 -- test determinism
	s := &geneticSearch{cfg: &cfg, space: space, rng: rng}

	population := []*Trial{
		{Parameters: ParameterSet{"x": 0.1}, TrainScore: 1.0},
		{Parameters: ParameterSet{"x": 0.2}, TrainScore: 3.0},
		{Parameters: ParameterSet{"x": 0.3}, TrainScore: 2.0},
	}

	// With tournament size well above the population, the best individual
	// is drawn with near certainty on every run.
	for i := 0; i < 20; i++ {
		winner := s.tournament(population)
		assert.Equal(t, 3.0, winner.TrainScore)
	}
}

func TestGeneticSearch_TournamentTieKeepsEarlierSeen(t *testing.T) {
	space, err := NewParameterSpace([]Parameter{
		{Name: "x", Type: ParamTypeContinuous, Min: 0, Max: 1},
	})
	require.NoError(t, err)

	cfg := Config{TournamentSize: 8}
	rng := rand.New(rand.NewSource(11)) // #nosec G404 -- test determinism
	s := &geneticSearch{cfg: &cfg, space: space, rng: rng}

	first := &Trial{Parameters: ParameterSet{"x": 0.1}, TrainScore: 2.0}
	population := []*Trial{first, {Parameters: ParameterSet{"x": 0.9}, TrainScore: 2.0}}

	// All scores equal: the first individual drawn always survives because
	// ties never replace the incumbent.
	for i := 0; i < 20; i++ {
		winner := s.tournament(population)
		assert.Equal(t, 2.0, winner.TrainScore)
	}
}

func TestGeneticSearch_CrossoverMixesParents(t *testing.T) {
	space, err := NewParameterSpace([]Parameter{
		{Name: "a", Type: ParamTypeContinuous, Min: 0, Max: 1},
		{Name: "b", Type: ParamTypeContinuous, Min: 0, Max: 1},
		{Name: "c", Type: ParamTypeContinuous, Min: 0, Max: 1},
	})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(5)) // #nosec G404 -- test determinism
	s := &geneticSearch{cfg: &Config{}, space: space, rng: rng}

	parent1 := ParameterSet{"a": 1.0, "b": 1.0, "c": 1.0}
	parent2 := ParameterSet{"a": 0.0, "b": 0.0, "c": 0.0}

	for i := 0; i < 50; i++ {
		child := s.crossover(parent1, parent2)
		require.Len(t, child, 3)
		for _, name := range []string{"a", "b", "c"} {
			v := child[name].(float64)
			assert.True(t, v == 0.0 || v == 1.0, "gene %s must come from a parent, got %v", name, v)
		}
	}
}

func TestGeneticSearch_MutateChangesSingleDimension(t *testing.T) {
	space, err := NewParameterSpace([]Parameter{
		{Name: "a", Type: ParamTypeContinuous, Min: 10, Max: 20},
		{Name: "b", Type: ParamTypeContinuous, Min: 10, Max: 20},
	})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(9)) // #nosec G404 -- test determinism
	s := &geneticSearch{cfg: &Config{}, space: space, rng: rng}

	individual := ParameterSet{"a": -1.0, "b": -1.0}
	s.mutate(individual)

	// Exactly one gene gets resampled into its domain
	changed := 0
	for _, name := range []string{"a", "b"} {
		v := individual[name].(float64)
		if v >= 10 && v <= 20 {
			changed++
		} else {
			assert.Equal(t, -1.0, v)
		}
	}
	assert.Equal(t, 1, changed)
}

func TestGeneticSearch_BestOfUnsortedGeneration(t *testing.T) {
	// Elites sit first in the rebuilt generation; a stronger offspring at the
	// tail must still win.
	population := []*Trial{
		{Parameters: ParameterSet{"x": 0.1}, TrainScore: 2.0},
		{Parameters: ParameterSet{"x": 0.2}, TrainScore: 1.0},
		{Parameters: ParameterSet{"x": 0.3}, TrainScore: 5.0},
	}
	assert.Equal(t, 5.0, bestOf(population))

	failed := []*Trial{{Parameters: ParameterSet{"x": 0.1}, Error: "boom"}}
	assert.True(t, math.IsInf(bestOf(failed), -1))
}

func TestGeneticSearch_AllFailuresStillRespectBudget(t *testing.T) {
	opt, err := New(Config{
		Method: MethodGenetic,
		Parameters: []Parameter{
			{Name: "x", Type: ParamTypeContinuous, Min: 0, Max: 1},
		},
		MaxIterations:  30,
		PopulationSize: 10,
		Seed:           2,
	})
	require.NoError(t, err)

	result, err := opt.Optimize(context.Background(), func(ctx context.Context, params ParameterSet) (float64, error) {
		return 0, assert.AnError
	})
	require.NoError(t, err)

	assert.Equal(t, 30, len(result.AllTrials))
	assert.Equal(t, 30, result.FailedTrials())
	assert.Empty(t, result.BestParameters)
	assert.True(t, math.IsInf(result.BestScore, -1))
}
