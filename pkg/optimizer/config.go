package optimizer

import (
	"time"
)

// ============================================================================
// METHOD SELECTION
// ============================================================================

// Method selects the search strategy for a run
type Method string

const (
	MethodGridSearch    Method = "grid_search"
	MethodGenetic       Method = "genetic"
	MethodParticleSwarm Method = "particle_swarm"
	MethodBayesian      Method = "bayesian"
)

// AnchorMode controls how walk-forward training windows grow
type AnchorMode string

const (
	AnchorRolling   AnchorMode = "rolling"
	AnchorExpanding AnchorMode = "expanding"
)

// CVMethod names the cross-validation scheme. Both supported schemes use
// contiguous chronological blocks and never shuffle.
type CVMethod string

const (
	CVTimeSeries CVMethod = "time_series"
	CVBlocked    CVMethod = "blocked"
)

// ============================================================================
// CONFIGURATION
// ============================================================================

// WalkForwardConfig enables walk-forward analysis over a time-ordered
// dataset: the timeline is split into Periods equal windows, each window is
// optimized in-sample and the winner evaluated on the following window.
type WalkForwardConfig struct {
	Enabled bool       `json:"enabled"`
	Periods int        `json:"periods"`
	Anchor  AnchorMode `json:"anchor"`
}

// CrossValidationConfig enables blocked time-series cross-validation
type CrossValidationConfig struct {
	Enabled bool     `json:"enabled"`
	Folds   int      `json:"folds"`
	Method  CVMethod `json:"method"`
}

// Config describes one optimization run. Zero values are replaced by
// defaults in New; set a ratio negative to disable that split slice.
type Config struct {
	Method     Method      `json:"method"`
	Parameters []Parameter `json:"parameters"`

	// Budgets, checked before each new trial starts
	MaxIterations int           `json:"max_iterations"`
	MaxTime       time.Duration `json:"max_time"`

	// Early stopping: stop when the best score improved by less than
	// ConvergenceThreshold over the last Patience trials. Patience 0
	// disables the check.
	Patience             int     `json:"patience"`
	ConvergenceThreshold float64 `json:"convergence_threshold"`

	// Seed fixes the call-scoped RNG for reproducible runs; 0 uses a
	// time-based seed.
	Seed int64 `json:"seed"`

	// Parallel evaluation of grid batches and GA/PSO generations
	Parallel   bool `json:"parallel"`
	NumWorkers int  `json:"num_workers"`

	// Grid search
	GridPoints       int `json:"grid_points"`
	NumRandomSamples int `json:"num_random_samples"` // 0 = full grid

	// Genetic algorithm
	PopulationSize int     `json:"population_size"`
	MutationRate   float64 `json:"mutation_rate"`
	CrossoverRate  float64 `json:"crossover_rate"`
	ElitismCount   int     `json:"elitism_count"`
	TournamentSize int     `json:"tournament_size"`

	// Particle swarm
	SwarmSize       int     `json:"swarm_size"`
	InertiaWeight   float64 `json:"inertia_weight"`
	CognitiveWeight float64 `json:"cognitive_weight"`
	SocialWeight    float64 `json:"social_weight"`
	VelocityClamp   float64 `json:"velocity_clamp"`

	// Bayesian surrogate
	InitialRandomSamples int `json:"initial_random_samples"` // 0 = min(10, 20% of budget)
	CandidatePoolSize    int `json:"candidate_pool_size"`
	SurrogateNeighbors   int `json:"surrogate_neighbors"`

	// Temporal split ratios for dataset-backed runs
	ValidationRatio      float64 `json:"validation_ratio"`
	TestRatio            float64 `json:"test_ratio"`
	OverfittingThreshold float64 `json:"overfitting_threshold"`

	WalkForward     WalkForwardConfig     `json:"walk_forward"`
	CrossValidation CrossValidationConfig `json:"cross_validation"`
}

// applyDefaults fills zero values with run defaults
func (c *Config) applyDefaults() {
	if c.MaxIterations == 0 {
		c.MaxIterations = 100
	}
	if c.NumWorkers == 0 {
		c.NumWorkers = 4
	}

	if c.GridPoints == 0 {
		c.GridPoints = 10
	}

	if c.PopulationSize == 0 {
		c.PopulationSize = 20
	}
	if c.MutationRate == 0 {
		c.MutationRate = 0.1
	}
	if c.CrossoverRate == 0 {
		c.CrossoverRate = 0.8
	}
	if c.ElitismCount == 0 {
		c.ElitismCount = 2
	}
	if c.TournamentSize == 0 {
		c.TournamentSize = 3
	}

	if c.SwarmSize == 0 {
		c.SwarmSize = 20
	}
	if c.InertiaWeight == 0 {
		c.InertiaWeight = 0.7
	}
	if c.CognitiveWeight == 0 {
		c.CognitiveWeight = 1.5
	}
	if c.SocialWeight == 0 {
		c.SocialWeight = 1.5
	}
	if c.VelocityClamp == 0 {
		c.VelocityClamp = 0.2
	}

	if c.CandidatePoolSize == 0 {
		c.CandidatePoolSize = 100
	}
	if c.SurrogateNeighbors == 0 {
		c.SurrogateNeighbors = 5
	}

	if c.ValidationRatio == 0 {
		c.ValidationRatio = 0.20
	}
	if c.TestRatio == 0 {
		c.TestRatio = 0.15
	}
	if c.ValidationRatio < 0 {
		c.ValidationRatio = 0
	}
	if c.TestRatio < 0 {
		c.TestRatio = 0
	}
	if c.OverfittingThreshold == 0 {
		c.OverfittingThreshold = 0.15
	}

	if c.Patience > 0 && c.ConvergenceThreshold == 0 {
		c.ConvergenceThreshold = 1e-6
	}

	if c.WalkForward.Enabled && c.WalkForward.Anchor == "" {
		c.WalkForward.Anchor = AnchorRolling
	}
	if c.CrossValidation.Enabled && c.CrossValidation.Method == "" {
		c.CrossValidation.Method = CVTimeSeries
	}
}

// validate checks everything that does not depend on the dataset.
// Parameter domains are validated separately by NewParameterSpace.
func (c *Config) validate() error {
	switch c.Method {
	case MethodGridSearch, MethodGenetic, MethodParticleSwarm, MethodBayesian:
	default:
		return configErrorf("method", "unknown optimization method %q", c.Method)
	}

	if c.MaxIterations < 1 {
		return configErrorf("max_iterations", "must be at least 1, got %d", c.MaxIterations)
	}
	if c.MaxTime < 0 {
		return configErrorf("max_time", "must not be negative")
	}
	if c.NumWorkers < 1 {
		return configErrorf("num_workers", "must be at least 1, got %d", c.NumWorkers)
	}
	if c.GridPoints < 2 {
		return configErrorf("grid_points", "must be at least 2, got %d", c.GridPoints)
	}
	if c.NumRandomSamples < 0 {
		return configErrorf("num_random_samples", "must not be negative")
	}

	if c.PopulationSize < 2 {
		return configErrorf("population_size", "must be at least 2, got %d", c.PopulationSize)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return configErrorf("mutation_rate", "must be in [0, 1], got %v", c.MutationRate)
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		return configErrorf("crossover_rate", "must be in [0, 1], got %v", c.CrossoverRate)
	}
	if c.ElitismCount < 0 || c.ElitismCount >= c.PopulationSize {
		return configErrorf("elitism_count", "must be in [0, population_size), got %d", c.ElitismCount)
	}
	if c.TournamentSize < 1 {
		return configErrorf("tournament_size", "must be at least 1, got %d", c.TournamentSize)
	}

	if c.SwarmSize < 1 {
		return configErrorf("swarm_size", "must be at least 1, got %d", c.SwarmSize)
	}
	if c.VelocityClamp <= 0 {
		return configErrorf("velocity_clamp", "must be positive, got %v", c.VelocityClamp)
	}

	if c.CandidatePoolSize < 1 {
		return configErrorf("candidate_pool_size", "must be at least 1, got %d", c.CandidatePoolSize)
	}
	if c.SurrogateNeighbors < 1 {
		return configErrorf("surrogate_neighbors", "must be at least 1, got %d", c.SurrogateNeighbors)
	}
	if c.InitialRandomSamples < 0 {
		return configErrorf("initial_random_samples", "must not be negative")
	}

	if c.ValidationRatio+c.TestRatio >= 1 {
		return configErrorf("validation_ratio", "validation and test ratios must leave room for training data")
	}

	if c.WalkForward.Enabled {
		if c.WalkForward.Periods < 2 {
			return configErrorf("walk_forward.periods", "must be at least 2, got %d", c.WalkForward.Periods)
		}
		switch c.WalkForward.Anchor {
		case AnchorRolling, AnchorExpanding:
		default:
			return configErrorf("walk_forward.anchor", "unknown anchor mode %q", c.WalkForward.Anchor)
		}
	}

	if c.CrossValidation.Enabled {
		if c.CrossValidation.Folds < 2 {
			return configErrorf("cross_validation.folds", "must be at least 2, got %d", c.CrossValidation.Folds)
		}
		switch c.CrossValidation.Method {
		case CVTimeSeries, CVBlocked:
		default:
			return configErrorf("cross_validation.method", "unknown method %q", c.CrossValidation.Method)
		}
	}

	return nil
}
