package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusRecorder_RunLifecycle(t *testing.T) {
	rec := PrometheusRecorder{}

	startedBefore := testutil.ToFloat64(RunsStarted.WithLabelValues("genetic"))
	completedBefore := testutil.ToFloat64(RunsCompleted.WithLabelValues("genetic"))

	rec.RunStarted("genetic")
	rec.RunCompleted("genetic", 2*time.Second, 0.75)

	assert.Equal(t, startedBefore+1, testutil.ToFloat64(RunsStarted.WithLabelValues("genetic")))
	assert.Equal(t, completedBefore+1, testutil.ToFloat64(RunsCompleted.WithLabelValues("genetic")))
	assert.Equal(t, 0.75, testutil.ToFloat64(BestScore.WithLabelValues("genetic")))
}

func TestPrometheusRecorder_TrialCounters(t *testing.T) {
	rec := PrometheusRecorder{}

	evaluatedBefore := testutil.ToFloat64(TrialsEvaluated)
	failedBefore := testutil.ToFloat64(TrialsFailed)

	rec.TrialCompleted(false, 0.5)
	rec.TrialCompleted(true, 0.5)
	rec.TrialCompleted(false, 0.9)

	assert.Equal(t, evaluatedBefore+3, testutil.ToFloat64(TrialsEvaluated))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(TrialsFailed))
	assert.Equal(t, 0.9, testutil.ToFloat64(CurrentBestScore))
}
