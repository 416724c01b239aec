package optimizer

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ============================================================================
// EXTERNAL BOUNDARIES
// ============================================================================

// ObjectiveFunc is the externally supplied scoring function: it maps a
// parameter vector to one scalar score to maximize. It may block, return an
// error, or panic; failures are isolated per trial.
type ObjectiveFunc func(ctx context.Context, params ParameterSet) (float64, error)

// Range is a half-open index interval [Start, End) into a time-ordered
// dataset.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// RangeObjectiveFunc scores a parameter vector restricted to the given
// slices of a time-ordered dataset. Walk-forward and blocked
// cross-validation pass one or two contiguous ranges.
type RangeObjectiveFunc func(ctx context.Context, params ParameterSet, ranges ...Range) (float64, error)

// Dataset describes the caller's time-ordered observations at the boundary:
// the engine only needs the length and a way to score parameters on index
// ranges. Observations are assumed chronologically ordered; ranges are never
// shuffled.
type Dataset struct {
	Length int
	Score  RangeObjectiveFunc
}

// ProgressUpdate is emitted to the registered observer after each trial
type ProgressUpdate struct {
	Iteration              int           `json:"iteration"`
	CurrentBestScore       float64       `json:"current_best_score"`
	CurrentBestParameters  ParameterSet  `json:"current_best_parameters"`
	TimeElapsed            time.Duration `json:"time_elapsed"`
	EstimatedTimeRemaining time.Duration `json:"estimated_time_remaining"`
	ProgressPercent        float64       `json:"progress_percent"`
}

// ProgressFunc receives progress updates. It runs synchronously after each
// trial; panics are recovered and discarded so an observer can never abort
// the search.
type ProgressFunc func(ProgressUpdate)

// Recorder receives run and trial lifecycle events, typically backed by
// Prometheus collectors. A nil recorder is ignored.
type Recorder interface {
	RunStarted(method string)
	TrialCompleted(failed bool, bestScore float64)
	RunCompleted(method string, elapsed time.Duration, bestScore float64)
}

// ============================================================================
// EVALUATION GATEWAY
// ============================================================================

// evalGateway wraps the scoring function with failure isolation, ledger
// bookkeeping, budget accounting, and progress notification. It is owned by
// one Optimize call; concurrent batch evaluation synchronizes through it.
type evalGateway struct {
	objective ObjectiveFunc
	data      *Dataset
	train     []Range
	val       *Range

	ledger     *trialLedger
	onProgress ProgressFunc
	recorder   Recorder

	start     time.Time
	maxTrials int
	maxTime   time.Duration

	patience       int
	minImprovement float64

	mu sync.Mutex
}

// execute runs one evaluation without touching the ledger. Safe to call
// from worker goroutines.
func (g *evalGateway) execute(ctx context.Context, params ParameterSet) *Trial {
	trial := &Trial{
		ID:         uuid.NewString(),
		Parameters: params.Clone(),
		Timestamp:  time.Now(),
	}

	score, err := g.invoke(ctx, params, g.train)
	if err != nil {
		trial.TrainScore = math.Inf(-1)
		trial.Error = err.Error()
		return trial
	}
	trial.TrainScore = score

	if g.val != nil {
		vs, err := g.invoke(ctx, params, []Range{*g.val})
		if err != nil {
			trial.Error = fmt.Sprintf("validation scoring failed: %v", err)
			return trial
		}
		trial.ValidationScore = &vs
	}

	return trial
}

// invoke calls the external scoring function, converting panics and
// non-finite results into per-trial errors.
func (g *evalGateway) invoke(ctx context.Context, params ParameterSet, ranges []Range) (score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			score = 0
			err = fmt.Errorf("objective panicked: %v", r)
		}
	}()

	if g.data != nil {
		score, err = g.data.Score(ctx, params, ranges...)
	} else {
		score, err = g.objective(ctx, params)
	}
	if err != nil {
		return 0, err
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, fmt.Errorf("objective returned non-finite score %v", score)
	}
	return score, nil
}

// commit appends a finished trial to the ledger and notifies the observer.
// Commits happen on the coordinating goroutine in a deterministic order even
// when the batch itself ran concurrently.
func (g *evalGateway) commit(trial *Trial) {
	g.mu.Lock()
	g.ledger.record(trial)
	n := g.ledger.size()
	best := g.ledger.best
	bestScore := g.ledger.bestScore
	g.mu.Unlock()

	if g.recorder != nil {
		g.recorder.TrialCompleted(trial.Failed(), bestScore)
	}
	g.notify(n, bestScore, best)
}

// evaluate runs and commits a single trial (sequential strategies)
func (g *evalGateway) evaluate(ctx context.Context, params ParameterSet) *Trial {
	trial := g.execute(ctx, params)
	g.commit(trial)
	return trial
}

// evaluateBatch evaluates a batch of parameter vectors, concurrently when
// workers > 1, and commits the results in batch order. The caller must size
// the batch within the remaining budget.
func (g *evalGateway) evaluateBatch(ctx context.Context, batch []ParameterSet, workers int) []*Trial {
	trials := make([]*Trial, len(batch))

	if workers <= 1 || len(batch) <= 1 {
		for i, params := range batch {
			trials[i] = g.execute(ctx, params)
		}
	} else {
		eg, gctx := errgroup.WithContext(ctx)
		eg.SetLimit(workers)
		for i, params := range batch {
			eg.Go(func() error {
				trials[i] = g.execute(gctx, params)
				return nil
			})
		}
		_ = eg.Wait() // execute never returns an error; failures live on the trial
	}

	for _, trial := range trials {
		g.commit(trial)
	}
	return trials
}

// notify emits a progress update, swallowing observer panics
func (g *evalGateway) notify(iteration int, bestScore float64, best *Trial) {
	if g.onProgress == nil {
		return
	}
	defer func() {
		_ = recover()
	}()

	elapsed := time.Since(g.start)
	var eta time.Duration
	if iteration > 0 && iteration < g.maxTrials {
		perTrial := float64(elapsed) / float64(iteration)
		eta = time.Duration(perTrial * float64(g.maxTrials-iteration))
	}

	var bestParams ParameterSet
	if best != nil && !best.Failed() {
		bestParams = best.Parameters
	}

	g.onProgress(ProgressUpdate{
		Iteration:              iteration,
		CurrentBestScore:       bestScore,
		CurrentBestParameters:  bestParams,
		TimeElapsed:            elapsed,
		EstimatedTimeRemaining: eta,
		ProgressPercent:        float64(iteration) / float64(g.maxTrials) * 100,
	})
}

// remaining reports how many trials the iteration budget still allows
func (g *evalGateway) remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.maxTrials - g.ledger.size()
}

// exhausted checks the iteration and wall-clock budgets. Checked before
// each new trial starts; a running evaluation is never pre-empted.
func (g *evalGateway) exhausted(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	if g.remaining() <= 0 {
		return true
	}
	if g.maxTime > 0 && time.Since(g.start) >= g.maxTime {
		return true
	}
	return false
}

// stalled reports whether the best score improved by less than the
// convergence threshold over the last patience trials.
func (g *evalGateway) stalled() bool {
	if g.patience <= 0 {
		return false
	}

	g.mu.Lock()
	history := g.ledger.convergence
	var improvement float64
	ok := len(history) > g.patience
	if ok {
		improvement = history[len(history)-1] - history[len(history)-1-g.patience]
	}
	g.mu.Unlock()

	// improvement is NaN while every trial has failed; keep searching
	return ok && improvement < g.minImprovement
}
