package optimizer

import (
	"context"
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
)

// ============================================================================
// TEMPORAL SPLITTING
// ============================================================================

// splitIndices partitions a time-ordered dataset of n observations into
// train [0, trainEnd), validation [trainEnd, valEnd), and test [valEnd, n)
// slices without shuffling. Training never observes future observations.
func splitIndices(n int, valRatio, testRatio float64) (trainEnd, valEnd int) {
	testSize := int(float64(n) * testRatio)
	valSize := int(float64(n) * valRatio)
	trainEnd = n - valSize - testSize
	valEnd = trainEnd + valSize
	return trainEnd, valEnd
}

// ============================================================================
// WALK-FORWARD ANALYSIS
// ============================================================================

// runWalkForward splits the timeline into Periods consecutive equal windows,
// optimizes on each training window, and evaluates the winner out-of-sample
// on the following window. Rolling mode trains on window i alone; expanding
// mode trains on the growing prefix through window i. The overfitting score
// is the mean degradation clamped to [0, 1].
func (o *Optimizer) runWalkForward(ctx context.Context, ds *Dataset) ([]WalkForwardResult, float64) {
	periods := o.cfg.WalkForward.Periods
	window := ds.Length / periods
	if window < 1 {
		log.Warn().
			Int("length", ds.Length).
			Int("periods", periods).
			Msg("Dataset too small for walk-forward analysis")
		return nil, 0
	}

	sub := o.subOptimizer()

	var results []WalkForwardResult
	var degradations []float64

	for i := 0; i+1 < periods; i++ {
		if ctx.Err() != nil {
			break
		}

		trainStart := i * window
		if o.cfg.WalkForward.Anchor == AnchorExpanding {
			trainStart = 0
		}
		trainEnd := (i + 1) * window
		testStart := trainEnd
		testEnd := (i + 2) * window
		if i+2 == periods {
			testEnd = ds.Length
		}

		gw := sub.newGateway(nil, ds, []Range{{Start: trainStart, End: trainEnd}}, nil)
		inSample := sub.search(ctx, gw, o.subSeed(i))
		if len(inSample.BestParameters) == 0 {
			log.Warn().Int("period", i+1).Msg("Walk-forward window produced no usable parameters")
			continue
		}

		testScore, err := ds.Score(ctx, inSample.BestParameters, Range{Start: testStart, End: testEnd})
		if err != nil || math.IsNaN(testScore) || math.IsInf(testScore, 0) {
			log.Warn().Err(err).Int("period", i+1).Msg("Walk-forward out-of-sample evaluation failed")
			continue
		}

		degradation := 0.0
		if inSample.BestScore != 0 {
			degradation = (inSample.BestScore - testScore) / inSample.BestScore
		}
		degradations = append(degradations, degradation)

		results = append(results, WalkForwardResult{
			Period:      i + 1,
			TrainStart:  trainStart,
			TrainEnd:    trainEnd,
			TestStart:   testStart,
			TestEnd:     testEnd,
			TrainScore:  inSample.BestScore,
			TestScore:   testScore,
			Degradation: degradation,
		})

		log.Info().
			Int("period", i+1).
			Float64("train_score", inSample.BestScore).
			Float64("test_score", testScore).
			Float64("degradation", degradation).
			Msg("Walk-forward period complete")
	}

	if len(degradations) == 0 {
		return results, 0
	}

	score := stat.Mean(degradations, nil)
	if score < 0 {
		score = 0
	} else if score > 1 {
		score = 1
	}
	return results, score
}

// ============================================================================
// CROSS-VALIDATION
// ============================================================================

// runCrossValidation splits the timeline into Folds contiguous chronological
// blocks. Each fold serves once as validation while the remaining blocks
// train — blocked time-series CV with no leakage across blocks. Stability is
// max(0, 1 - stddev/mean) over the fold validation scores.
func (o *Optimizer) runCrossValidation(ctx context.Context, ds *Dataset) ([]CrossValidationResult, float64) {
	folds := o.cfg.CrossValidation.Folds
	block := ds.Length / folds
	if block < 1 {
		log.Warn().
			Int("length", ds.Length).
			Int("folds", folds).
			Msg("Dataset too small for cross-validation")
		return nil, 0
	}

	sub := o.subOptimizer()

	results := make([]CrossValidationResult, 0, folds)
	scores := make([]float64, 0, folds)

	for fold := 0; fold < folds; fold++ {
		if ctx.Err() != nil {
			break
		}

		valStart := fold * block
		valEnd := valStart + block
		if fold == folds-1 {
			valEnd = ds.Length
		}

		var train []Range
		if valStart > 0 {
			train = append(train, Range{Start: 0, End: valStart})
		}
		if valEnd < ds.Length {
			train = append(train, Range{Start: valEnd, End: ds.Length})
		}

		gw := sub.newGateway(nil, ds, train, nil)
		inSample := sub.search(ctx, gw, o.subSeed(fold))

		valScore := math.Inf(-1)
		if len(inSample.BestParameters) > 0 {
			score, err := ds.Score(ctx, inSample.BestParameters, Range{Start: valStart, End: valEnd})
			if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
				log.Warn().Err(err).Int("fold", fold+1).Msg("Cross-validation fold evaluation failed")
			} else {
				valScore = score
				scores = append(scores, score)
			}
		}

		results = append(results, CrossValidationResult{
			Fold:            fold + 1,
			TrainScore:      inSample.BestScore,
			ValidationScore: valScore,
		})
	}

	return results, stabilityScore(scores)
}

// stabilityScore is the inverse-normalized variance of fold scores
func stabilityScore(scores []float64) float64 {
	if len(scores) < 2 {
		return 0
	}
	mean := stat.Mean(scores, nil)
	if mean == 0 {
		return 0
	}
	sd := stat.StdDev(scores, nil)
	return math.Max(0, 1-sd/mean)
}

// subOptimizer clones this optimizer for in-sample sub-runs with the outer
// validation protocol disabled, sharing the observer and recorder.
func (o *Optimizer) subOptimizer() *Optimizer {
	cfg := o.cfg
	cfg.WalkForward = WalkForwardConfig{}
	cfg.CrossValidation = CrossValidationConfig{}
	cfg.ValidationRatio = 0
	cfg.TestRatio = 0

	return &Optimizer{
		cfg:        cfg,
		space:      o.space,
		onProgress: o.onProgress,
		recorder:   o.recorder,
	}
}

// subSeed derives a per-window seed so sub-runs are reproducible yet
// distinct. A zero base seed keeps sub-runs time-seeded too.
func (o *Optimizer) subSeed(i int) int64 {
	if o.cfg.Seed == 0 {
		return 0
	}
	return o.cfg.Seed + int64(i) + 1
}
