package optimizer

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
)

// ============================================================================
// OPTIMIZER FACADE
// ============================================================================

// Optimizer is the top-level entry point: it selects a search strategy from
// the config, applies budget and early-stopping rules, and assembles the
// final result. Each Optimize call owns its own trial ledger, RNG state,
// and timers; a single Optimizer value must not run concurrent searches —
// independent searches require independent instances.
type Optimizer struct {
	cfg   Config
	space *ParameterSpace

	onProgress ProgressFunc
	recorder   Recorder
}

// New validates the configuration and builds an optimizer. Unknown methods,
// inconsistent bounds, and empty categorical value sets are rejected here,
// before any trial runs.
func New(cfg Config) (*Optimizer, error) {
	cfg.applyDefaults()

	space, err := NewParameterSpace(cfg.Parameters)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Optimizer{cfg: cfg, space: space}, nil
}

// OnProgress registers the single progress observer; a later registration
// replaces the prior one. Pass nil to unsubscribe.
func (o *Optimizer) OnProgress(fn ProgressFunc) {
	o.onProgress = fn
}

// SetRecorder attaches a metrics recorder for run and trial events
func (o *Optimizer) SetRecorder(r Recorder) {
	o.recorder = r
}

// Config returns a copy of the effective configuration after defaults
func (o *Optimizer) Config() Config {
	return o.cfg
}

// Optimize searches for the parameter vector maximizing the objective.
// It always resolves with a best-effort result: budget exhaustion is normal
// termination, per-trial failures are isolated, and BestParameters is empty
// only when every trial failed.
func (o *Optimizer) Optimize(ctx context.Context, objective ObjectiveFunc) (*Result, error) {
	if objective == nil {
		return nil, configErrorf("objective", "objective function is required")
	}
	if o.cfg.WalkForward.Enabled || o.cfg.CrossValidation.Enabled {
		return nil, configErrorf("walk_forward", "walk-forward and cross-validation require a dataset; use OptimizeDataset")
	}

	gw := o.newGateway(objective, nil, nil, nil)
	return o.search(ctx, gw, o.cfg.Seed), nil
}

// OptimizeDataset searches over a time-ordered dataset with temporal
// train/validation/test splitting, then runs walk-forward analysis and
// cross-validation when enabled. The dataset is never shuffled; training
// never observes indices at or beyond the validation boundary.
func (o *Optimizer) OptimizeDataset(ctx context.Context, ds *Dataset) (*Result, error) {
	if ds == nil || ds.Score == nil {
		return nil, configErrorf("dataset", "dataset with a range scoring function is required")
	}
	if ds.Length < 1 {
		return nil, configErrorf("dataset", "dataset length must be positive, got %d", ds.Length)
	}

	trainEnd, valEnd := splitIndices(ds.Length, o.cfg.ValidationRatio, o.cfg.TestRatio)
	if trainEnd < 1 {
		return nil, configErrorf("dataset", "dataset too small for the configured split ratios")
	}

	train := []Range{{Start: 0, End: trainEnd}}
	var val *Range
	if valEnd > trainEnd {
		val = &Range{Start: trainEnd, End: valEnd}
	}

	gw := o.newGateway(nil, ds, train, val)
	result := o.search(ctx, gw, o.cfg.Seed)

	o.scoreHoldout(ctx, ds, result, valEnd)

	if o.cfg.WalkForward.Enabled {
		wf, score := o.runWalkForward(ctx, ds)
		result.WalkForwardResults = wf
		result.OverfittingScore = score
	}
	if o.cfg.CrossValidation.Enabled {
		cv, stability := o.runCrossValidation(ctx, ds)
		result.CrossValidationResults = cv
		result.StabilityScore = stability
	}

	return result, nil
}

// newGateway builds the call-scoped evaluation gateway
func (o *Optimizer) newGateway(objective ObjectiveFunc, ds *Dataset, train []Range, val *Range) *evalGateway {
	return &evalGateway{
		objective:      objective,
		data:           ds,
		train:          train,
		val:            val,
		ledger:         newTrialLedger(),
		onProgress:     o.onProgress,
		recorder:       o.recorder,
		start:          time.Now(),
		maxTrials:      o.cfg.MaxIterations,
		maxTime:        o.cfg.MaxTime,
		patience:       o.cfg.Patience,
		minImprovement: o.cfg.ConvergenceThreshold,
	}
}

// search drives one strategy run and assembles the core result
func (o *Optimizer) search(ctx context.Context, gw *evalGateway, seed int64) *Result {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed)) // #nosec G404 -- stochastic search needs reproducible, not cryptographic, randomness

	log.Info().
		Str("method", string(o.cfg.Method)).
		Int("parameters", len(o.cfg.Parameters)).
		Int("max_iterations", o.cfg.MaxIterations).
		Dur("max_time", o.cfg.MaxTime).
		Msg("Starting optimization")

	if o.recorder != nil {
		o.recorder.RunStarted(string(o.cfg.Method))
	}

	switch o.cfg.Method {
	case MethodGridSearch:
		(&gridSearch{cfg: &o.cfg, space: o.space, rng: rng}).run(ctx, gw)
	case MethodGenetic:
		(&geneticSearch{cfg: &o.cfg, space: o.space, rng: rng}).run(ctx, gw)
	case MethodParticleSwarm:
		(&particleSwarmSearch{cfg: &o.cfg, space: o.space, rng: rng}).run(ctx, gw)
	case MethodBayesian:
		(&bayesianSearch{cfg: &o.cfg, space: o.space, rng: rng}).run(ctx, gw)
	}

	elapsed := time.Since(gw.start)
	result := &Result{
		Method:             o.cfg.Method,
		BestParameters:     ParameterSet{},
		BestScore:          math.Inf(-1),
		AllTrials:          gw.ledger.trials,
		ConvergenceHistory: gw.ledger.convergence,
		ComputationTime:    elapsed,
	}

	if best := gw.ledger.best; best != nil && !best.Failed() {
		result.BestParameters = best.Parameters.Clone()
		result.BestScore = gw.ledger.bestScore
		result.ValidationScore = best.ValidationScore
	}

	if o.recorder != nil {
		o.recorder.RunCompleted(string(o.cfg.Method), elapsed, result.BestScore)
	}

	log.Info().
		Str("method", string(o.cfg.Method)).
		Int("trials", len(result.AllTrials)).
		Int("failed", result.FailedTrials()).
		Float64("best_score", result.BestScore).
		Dur("duration", elapsed).
		Msg("Optimization complete")

	return result
}

// scoreHoldout re-evaluates the winning parameters once on the held-out
// test slice and raises the overfitting warning on excessive degradation.
func (o *Optimizer) scoreHoldout(ctx context.Context, ds *Dataset, result *Result, valEnd int) {
	if len(result.BestParameters) == 0 {
		return
	}

	bestTrain := math.Inf(-1)
	for _, t := range result.AllTrials {
		if !t.Failed() && t.SelectionScore() == result.BestScore {
			bestTrain = t.TrainScore
			break
		}
	}

	compare := result.ValidationScore

	if valEnd < ds.Length {
		testScore, err := ds.Score(ctx, result.BestParameters, Range{Start: valEnd, End: ds.Length})
		if err != nil || math.IsNaN(testScore) || math.IsInf(testScore, 0) {
			log.Warn().Err(err).Msg("Held-out test evaluation failed")
		} else {
			result.TestScore = &testScore
			compare = &testScore
			for _, t := range result.AllTrials {
				if !t.Failed() && t.SelectionScore() == result.BestScore {
					t.TestScore = &testScore
					break
				}
			}
		}
	}

	if compare != nil && bestTrain != 0 && !math.IsInf(bestTrain, 0) {
		degradation := (bestTrain - *compare) / math.Abs(bestTrain)
		if degradation > o.cfg.OverfittingThreshold {
			result.OverfittingWarning = true
			log.Warn().
				Float64("train_score", bestTrain).
				Float64("holdout_score", *compare).
				Float64("degradation", degradation).
				Msg("Possible overfitting detected")
		}
	}
}
