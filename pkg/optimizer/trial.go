package optimizer

import (
	"math"
	"time"
)

// ============================================================================
// TRIAL
// ============================================================================

// Trial is one (parameters, score) evaluation record. Trials are created by
// the evaluation gateway, appended once to the ledger, and never mutated
// afterward (except the winning trial, which receives its held-out test
// score after the search ends).
type Trial struct {
	ID              string       `json:"id"`
	Parameters      ParameterSet `json:"parameters"`
	TrainScore      float64      `json:"train_score"`
	ValidationScore *float64     `json:"validation_score,omitempty"`
	TestScore       *float64     `json:"test_score,omitempty"`
	Timestamp       time.Time    `json:"timestamp"`
	Error           string       `json:"error,omitempty"`
}

// Failed reports whether the trial's evaluation errored or produced a
// non-finite score.
func (t *Trial) Failed() bool {
	return t.Error != ""
}

// SelectionScore is the score used for best-trial selection: the validation
// score when a validation slice exists, else the train score. Failed trials
// score -Inf and can never become best.
func (t *Trial) SelectionScore() float64 {
	if t.Failed() {
		return math.Inf(-1)
	}
	if t.ValidationScore != nil {
		return *t.ValidationScore
	}
	return t.TrainScore
}

// ============================================================================
// TRIAL LEDGER
// ============================================================================

// trialLedger is the append-only store of every evaluated trial plus the
// running best-so-far history, scoped to one Optimize call.
type trialLedger struct {
	trials      []*Trial
	convergence []float64
	best        *Trial
	bestScore   float64
}

func newTrialLedger() *trialLedger {
	return &trialLedger{bestScore: math.Inf(-1)}
}

// record appends a trial and extends the convergence history with the
// best-so-far score. The history is non-decreasing by construction.
func (l *trialLedger) record(t *Trial) {
	l.trials = append(l.trials, t)
	if s := t.SelectionScore(); s > l.bestScore {
		l.bestScore = s
		l.best = t
	}
	l.convergence = append(l.convergence, l.bestScore)
}

func (l *trialLedger) size() int {
	return len(l.trials)
}

// succeeded returns the non-failed trials in evaluation order
func (l *trialLedger) succeeded() []*Trial {
	out := make([]*Trial, 0, len(l.trials))
	for _, t := range l.trials {
		if !t.Failed() {
			out = append(out, t)
		}
	}
	return out
}
