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
// PARTICLE SWARM RUNS
// ============================================================================

func TestParticleSwarm_ImprovesOnParabola(t *testing.T) {
	opt, err := New(Config{
		Method: MethodParticleSwarm,
		Parameters: []Parameter{
			{Name: "x", Type: ParamTypeContinuous, Min: 0, Max: 10},
			{Name: "y", Type: ParamTypeContinuous, Min: 0, Max: 6},
		},
		MaxIterations: 200,
		SwarmSize:     15,
		Seed:          42,
	})
	require.NoError(t, err)

	result, err := opt.Optimize(context.Background(), parabolaObjective)
	require.NoError(t, err)

	require.NotEmpty(t, result.AllTrials)
	assert.LessOrEqual(t, len(result.AllTrials), 200)
	assert.Greater(t, result.BestScore, -5.0)
}

func TestParticleSwarm_Reproducible(t *testing.T) {
	cfg := Config{
		Method: MethodParticleSwarm,
		Parameters: []Parameter{
			{Name: "x", Type: ParamTypeContinuous, Min: 0, Max: 10},
			{Name: "n", Type: ParamTypeDiscrete, Min: 1, Max: 50},
		},
		MaxIterations: 60,
		SwarmSize:     10,
		Seed:          77,
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
}

// ============================================================================
// PARTICLE MECHANICS
// ============================================================================

func newTestSwarm(t *testing.T, params []Parameter, cfg Config) *particleSwarmSearch {
	t.Helper()
	space, err := NewParameterSpace(params)
	require.NoError(t, err)
	cfg.applyDefaults()
	rng := rand.New(rand.NewSource(13)) // #nosec G404 -- test determinism
	return &particleSwarmSearch{cfg: &cfg, space: space, rng: rng}
}

func TestParticleSwarm_InitialVelocityWithinClamp(t *testing.T) {
	s := newTestSwarm(t, []Parameter{
		{Name: "x", Type: ParamTypeContinuous, Min: 0, Max: 100},
	}, Config{SwarmSize: 50, VelocityClamp: 0.2})

	s.initSwarm()

	vmax := 0.2 * 100
	for _, p := range s.particles {
		assert.LessOrEqual(t, math.Abs(p.velocity["x"]), vmax)
		assert.GreaterOrEqual(t, p.numeric["x"], 0.0)
		assert.LessOrEqual(t, p.numeric["x"], 100.0)
	}
}

func TestParticleSwarm_StepClampsVelocityAndPosition(t *testing.T) {
	s := newTestSwarm(t, []Parameter{
		{Name: "x", Type: ParamTypeContinuous, Min: 0, Max: 10},
	}, Config{SwarmSize: 5, VelocityClamp: 0.1, InertiaWeight: 1.0, CognitiveWeight: 2.0, SocialWeight: 2.0})

	s.initSwarm()

	globalBest := ParameterSet{"x": 10.0}
	for iter := 0; iter < 100; iter++ {
		for _, p := range s.particles {
			p.best = ParameterSet{"x": 0.0}
			p.bestScore = 1.0
			s.step(p, globalBest, 2.0)

			assert.LessOrEqual(t, math.Abs(p.velocity["x"]), 1.0, "velocity exceeds clamp*range")
			assert.GreaterOrEqual(t, p.numeric["x"], 0.0)
			assert.LessOrEqual(t, p.numeric["x"], 10.0)
		}
	}
}

func TestParticleSwarm_MaterializeRoundsDiscrete(t *testing.T) {
	s := newTestSwarm(t, []Parameter{
		{Name: "n", Type: ParamTypeDiscrete, Min: 1, Max: 10},
		{Name: "mode", Type: ParamTypeCategorical, Values: []string{"a", "b"}},
	}, Config{SwarmSize: 1})

	p := &particle{
		numeric:  map[string]float64{"n": 3.7},
		velocity: map[string]float64{"n": 0},
		category: map[string]string{"mode": "b"},
	}

	ps := s.materialize(p)
	assert.Equal(t, 4, ps["n"])
	assert.Equal(t, "b", ps["mode"])
}

func TestParticleSwarm_StepWithoutBestsStaysInBounds(t *testing.T) {
	s := newTestSwarm(t, []Parameter{
		{Name: "x", Type: ParamTypeContinuous, Min: -5, Max: 5},
	}, Config{SwarmSize: 10})

	s.initSwarm()

	// No personal or global best yet: particles drift on inertia alone
	for _, p := range s.particles {
		s.step(p, ParameterSet{}, math.Inf(-1))
		assert.GreaterOrEqual(t, p.numeric["x"], -5.0)
		assert.LessOrEqual(t, p.numeric["x"], 5.0)
	}
}
