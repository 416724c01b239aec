package optimizer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	val := 0.82
	test := 0.79
	return &Result{
		Method:         MethodGenetic,
		BestParameters: ParameterSet{"x": 5.0, "mode": "fast"},
		BestScore:      0.82,
		AllTrials: []*Trial{
			{ID: "t1", Parameters: ParameterSet{"x": 1.0, "mode": "slow"}, TrainScore: 0.4},
			{ID: "t2", Parameters: ParameterSet{"x": 5.0, "mode": "fast"}, TrainScore: 0.9},
			{ID: "t3", Parameters: ParameterSet{"x": 9.0, "mode": "fast"}, TrainScore: 0.2, Error: "boom"},
		},
		ConvergenceHistory: []float64{0.4, 0.9, 0.9},
		ValidationScore:    &val,
		TestScore:          &test,
		ComputationTime:    3 * time.Second,
		WalkForwardResults: []WalkForwardResult{
			{Period: 1, TrainStart: 0, TrainEnd: 50, TestStart: 50, TestEnd: 100, TrainScore: 0.9, TestScore: 0.7, Degradation: 0.22},
		},
		OverfittingScore: 0.22,
		CrossValidationResults: []CrossValidationResult{
			{Fold: 1, TrainScore: 0.9, ValidationScore: 0.8},
			{Fold: 2, TrainScore: 0.85, ValidationScore: 0.75},
		},
		StabilityScore: 0.93,
	}
}

func sampleSpace() []Parameter {
	return []Parameter{
		{Name: "x", Type: ParamTypeContinuous, Min: 0, Max: 10},
		{Name: "mode", Type: ParamTypeCategorical, Values: []string{"fast", "slow"}},
	}
}

func TestReportGenerator_GenerateHTML(t *testing.T) {
	gen, err := NewReportGenerator(sampleResult(), sampleSpace())
	require.NoError(t, err)

	html, err := gen.GenerateHTML()
	require.NoError(t, err)

	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "Optimization Report")
	assert.Contains(t, html, "genetic")
	assert.Contains(t, html, "Walk-Forward Analysis")
	assert.Contains(t, html, "Cross-Validation")
	assert.Contains(t, html, "convergenceChart")
	assert.Contains(t, html, "0.8200") // best score
}

func TestReportGenerator_OmitsDisabledSections(t *testing.T) {
	result := sampleResult()
	result.ValidationScore = nil
	result.TestScore = nil
	result.WalkForwardResults = nil
	result.CrossValidationResults = nil

	gen, err := NewReportGenerator(result, sampleSpace())
	require.NoError(t, err)

	html, err := gen.GenerateHTML()
	require.NoError(t, err)

	assert.NotContains(t, html, "Walk-Forward Analysis")
	assert.NotContains(t, html, "Cross-Validation")
	assert.NotContains(t, html, "Validation Score")
}

func TestReportGenerator_OverfittingBanner(t *testing.T) {
	result := sampleResult()
	result.OverfittingWarning = true

	gen, err := NewReportGenerator(result, sampleSpace())
	require.NoError(t, err)

	html, err := gen.GenerateHTML()
	require.NoError(t, err)
	assert.Contains(t, html, "Possible overfitting")
}

func TestReportGenerator_TopTrialsExcludeFailures(t *testing.T) {
	gen, err := NewReportGenerator(sampleResult(), sampleSpace())
	require.NoError(t, err)

	top := gen.topTrials(10)
	require.Len(t, top, 2)
	assert.Equal(t, "t2", top[0].ID)
	assert.Equal(t, "t1", top[1].ID)
}

func TestReportGenerator_SaveToFile(t *testing.T) {
	gen, err := NewReportGenerator(sampleResult(), sampleSpace())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, gen.SaveToFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Optimization Report")
}

func TestReportGenerator_RequiresResult(t *testing.T) {
	_, err := NewReportGenerator(nil, sampleSpace())
	require.Error(t, err)
}
