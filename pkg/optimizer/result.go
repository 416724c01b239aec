package optimizer

import (
	"time"
)

// ============================================================================
// RESULTS
// ============================================================================

// WalkForwardResult records one in-sample/out-of-sample period of a
// walk-forward analysis. Degradation is (train-test)/train.
type WalkForwardResult struct {
	Period      int     `json:"period"`
	TrainStart  int     `json:"train_start"`
	TrainEnd    int     `json:"train_end"`
	TestStart   int     `json:"test_start"`
	TestEnd     int     `json:"test_end"`
	TrainScore  float64 `json:"train_score"`
	TestScore   float64 `json:"test_score"`
	Degradation float64 `json:"degradation"`
}

// CrossValidationResult records one fold of blocked time-series
// cross-validation.
type CrossValidationResult struct {
	Fold            int     `json:"fold"`
	TrainScore      float64 `json:"train_score"`
	ValidationScore float64 `json:"validation_score"`
}

// Result is the read-only snapshot assembled once per optimization run. It
// is independent of the run's internal state once returned.
type Result struct {
	Method         Method       `json:"method"`
	BestParameters ParameterSet `json:"best_parameters"`
	BestScore      float64      `json:"best_score"`

	AllTrials          []*Trial  `json:"all_trials"`
	ConvergenceHistory []float64 `json:"convergence_history"`

	ValidationScore *float64 `json:"validation_score,omitempty"`
	TestScore       *float64 `json:"test_score,omitempty"`

	ComputationTime    time.Duration `json:"computation_time"`
	OverfittingWarning bool          `json:"overfitting_warning"`

	WalkForwardResults []WalkForwardResult `json:"walk_forward_results,omitempty"`
	OverfittingScore   float64             `json:"overfitting_score,omitempty"`

	CrossValidationResults []CrossValidationResult `json:"cross_validation_results,omitempty"`
	StabilityScore         float64                 `json:"stability_score,omitempty"`
}

// FailedTrials counts trials whose evaluation errored
func (r *Result) FailedTrials() int {
	n := 0
	for _, t := range r.AllTrials {
		if t.Failed() {
			n++
		}
	}
	return n
}
