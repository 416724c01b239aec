package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Optimization Run Metrics
var (
	// Runs started, by search method
	RunsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optifunk_runs_started_total",
		Help: "Total number of optimization runs started by method",
	}, []string{"method"})

	// Runs completed, by search method
	RunsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "optifunk_runs_completed_total",
		Help: "Total number of optimization runs completed by method",
	}, []string{"method"})

	// Run duration
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "optifunk_run_duration_seconds",
		Help:    "Optimization run duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
	}, []string{"method"})

	// Best score of the most recent run
	BestScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "optifunk_best_score",
		Help: "Best score found by the most recent run by method",
	}, []string{"method"})
)

// Trial Metrics
var (
	// Trials evaluated
	TrialsEvaluated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "optifunk_trials_evaluated_total",
		Help: "Total number of trials evaluated",
	})

	// Trials that errored, panicked, or returned a non-finite score
	TrialsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "optifunk_trials_failed_total",
		Help: "Total number of failed trials",
	})

	// Best score observed so far within the running optimization
	CurrentBestScore = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "optifunk_current_best_score",
		Help: "Best score observed so far in the running optimization",
	})
)

// PrometheusRecorder bridges optimizer lifecycle events to the collectors
// above. The zero value is ready to use.
type PrometheusRecorder struct{}

// RunStarted records the start of an optimization run
func (PrometheusRecorder) RunStarted(method string) {
	RunsStarted.WithLabelValues(method).Inc()
}

// TrialCompleted records one evaluated trial
func (PrometheusRecorder) TrialCompleted(failed bool, bestScore float64) {
	TrialsEvaluated.Inc()
	if failed {
		TrialsFailed.Inc()
	}
	CurrentBestScore.Set(bestScore)
}

// RunCompleted records the end of an optimization run
func (PrometheusRecorder) RunCompleted(method string, elapsed time.Duration, bestScore float64) {
	RunsCompleted.WithLabelValues(method).Inc()
	RunDuration.WithLabelValues(method).Observe(elapsed.Seconds())
	BestScore.WithLabelValues(method).Set(bestScore)
}
