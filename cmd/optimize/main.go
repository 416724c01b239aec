// Optimization Runner CLI
// Tunes parameters of a scoring function and reports the best configuration
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/optifunk/internal/config"
	"github.com/ajitpratap0/optifunk/internal/metrics"
	"github.com/ajitpratap0/optifunk/pkg/optimizer"
)

// ============================================================================
// CLI FLAGS
// ============================================================================

var (
	// Run parameters
	configPath = flag.String("config", "", "Path to config file (optional)")
	method     = flag.String("method", "", "Search method (grid_search, genetic, particle_swarm, bayesian)")
	objective  = flag.String("objective", "parabola", "Objective surface (parabola, rastrigin, trend)")
	iterations = flag.Int("iterations", 0, "Maximum number of trials (0 = config default)")
	seed       = flag.Int64("seed", 0, "RNG seed for reproducible runs (0 = time-based)")
	workers    = flag.Int("workers", 0, "Parallel evaluation workers (0 = config default)")

	// Robustness analysis (trend objective only)
	walkForward = flag.Bool("walk-forward", false, "Run walk-forward analysis")
	crossVal    = flag.Bool("cv", false, "Run blocked time-series cross-validation")

	// Output
	reportFile = flag.String("report", "", "HTML report output path (optional)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
)

// ============================================================================
// MAIN
// ============================================================================

func main() {
	// Parse flags
	flag.Parse()

	// Bootstrap logging until the configured level is known
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logging from config; -verbose overrides the configured level
	config.InitLogger(logLevel(cfg), "console")

	ctx := context.Background()

	// Start metrics server if enabled
	if cfg.Monitoring.EnableMetrics {
		srv := metrics.NewServer(cfg.Monitoring.PrometheusPort, log.Logger)
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start metrics server")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if err := runOptimization(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Optimization failed")
	}

	log.Info().Msg("Optimization completed successfully")
}

// ============================================================================
// OPTIMIZATION EXECUTION
// ============================================================================

func runOptimization(ctx context.Context, cfg *config.Config) error {
	surface, err := lookupObjective(*objective)
	if err != nil {
		return err
	}

	optCfg := buildOptimizerConfig(cfg, surface)

	opt, err := optimizer.New(optCfg)
	if err != nil {
		return fmt.Errorf("failed to create optimizer: %w", err)
	}

	if cfg.Monitoring.EnableMetrics {
		opt.SetRecorder(metrics.PrometheusRecorder{})
	}

	opt.OnProgress(func(u optimizer.ProgressUpdate) {
		log.Debug().
			Int("trial", u.Iteration).
			Float64("progress_pct", u.ProgressPercent).
			Float64("best_score", u.CurrentBestScore).
			Msg("Progress")
	})

	log.Info().
		Str("method", string(optCfg.Method)).
		Str("objective", surface.name).
		Int("iterations", optCfg.MaxIterations).
		Msg("Starting optimization run")

	var result *optimizer.Result
	if surface.dataset != nil {
		result, err = opt.OptimizeDataset(ctx, surface.dataset)
	} else {
		result, err = opt.Optimize(ctx, surface.fn)
	}
	if err != nil {
		return fmt.Errorf("optimization run failed: %w", err)
	}

	// Display summary
	fmt.Println(formatSummary(result))

	// Write HTML report if requested via flag or config
	if path := resolveReportPath(*reportFile, cfg); path != "" {
		gen, err := optimizer.NewReportGenerator(result, optCfg.Parameters)
		if err != nil {
			return fmt.Errorf("failed to create report generator: %w", err)
		}
		if err := gen.SaveToFile(path); err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Failed to write report file")
		} else {
			log.Info().Str("file", path).Msg("Report written to file")
		}
	}

	return nil
}

// logLevel resolves the effective log level: -verbose wins over config
func logLevel(cfg *config.Config) string {
	if *verbose {
		return "debug"
	}
	return cfg.App.LogLevel
}

// resolveReportPath picks the report destination: the -report flag wins,
// otherwise the config section when report output is enabled there.
func resolveReportPath(flagPath string, cfg *config.Config) string {
	if flagPath != "" {
		return flagPath
	}
	if cfg.Report.Enabled {
		return cfg.Report.Path
	}
	return ""
}

// buildOptimizerConfig merges file config with CLI flag overrides
func buildOptimizerConfig(cfg *config.Config, surface *objectiveSurface) optimizer.Config {
	optCfg := optimizer.Config{
		Method:               optimizer.Method(cfg.Optimizer.Method),
		Parameters:           surface.parameters,
		MaxIterations:        cfg.Optimizer.MaxIterations,
		MaxTime:              cfg.Optimizer.GetMaxTime(),
		Patience:             cfg.Optimizer.Patience,
		ConvergenceThreshold: cfg.Optimizer.ConvergenceThreshold,
		Seed:                 cfg.Optimizer.Seed,
		Parallel:             cfg.Optimizer.Parallel,
		NumWorkers:           cfg.Optimizer.NumWorkers,
		GridPoints:           cfg.Optimizer.GridPoints,
		PopulationSize:       cfg.Optimizer.PopulationSize,
		MutationRate:         cfg.Optimizer.MutationRate,
		CrossoverRate:        cfg.Optimizer.CrossoverRate,
		ElitismCount:         cfg.Optimizer.ElitismCount,
		SwarmSize:            cfg.Optimizer.SwarmSize,
		InertiaWeight:        cfg.Optimizer.InertiaWeight,
		CognitiveWeight:      cfg.Optimizer.CognitiveWeight,
		SocialWeight:         cfg.Optimizer.SocialWeight,
		InitialRandomSamples: cfg.Optimizer.InitialSamples,
		CandidatePoolSize:    cfg.Optimizer.CandidatePool,
		ValidationRatio:      cfg.Validation.ValidationRatio,
		TestRatio:            cfg.Validation.TestRatio,
		OverfittingThreshold: cfg.Validation.OverfittingThreshold,
	}

	if *method != "" {
		optCfg.Method = optimizer.Method(*method)
	}
	if *iterations > 0 {
		optCfg.MaxIterations = *iterations
	}
	if *seed != 0 {
		optCfg.Seed = *seed
	}
	if *workers > 0 {
		optCfg.Parallel = true
		optCfg.NumWorkers = *workers
	}

	if *walkForward || cfg.Validation.WalkForwardEnabled {
		optCfg.WalkForward = optimizer.WalkForwardConfig{
			Enabled: true,
			Periods: cfg.Validation.WalkForwardPeriods,
			Anchor:  optimizer.AnchorMode(cfg.Validation.WalkForwardAnchor),
		}
	}
	if *crossVal || cfg.Validation.CrossValidationEnabled {
		optCfg.CrossValidation = optimizer.CrossValidationConfig{
			Enabled: true,
			Folds:   cfg.Validation.CrossValidationFolds,
			Method:  optimizer.CVTimeSeries,
		}
	}

	return optCfg
}

// ============================================================================
// DEMO OBJECTIVES
// ============================================================================

// objectiveSurface bundles a search space with the function being tuned.
// Dataset-backed surfaces support walk-forward and cross-validation.
type objectiveSurface struct {
	name       string
	parameters []optimizer.Parameter
	fn         optimizer.ObjectiveFunc
	dataset    *optimizer.Dataset
}

func lookupObjective(name string) (*objectiveSurface, error) {
	switch strings.ToLower(name) {
	case "parabola":
		return parabolaSurface(), nil
	case "rastrigin":
		return rastriginSurface(), nil
	case "trend":
		return trendSurface(), nil
	default:
		return nil, fmt.Errorf("unknown objective: %s (available: parabola, rastrigin, trend)", name)
	}
}

// parabolaSurface is a smooth unimodal bowl with maximum 0 at (3, -2)
func parabolaSurface() *objectiveSurface {
	return &objectiveSurface{
		name: "parabola",
		parameters: []optimizer.Parameter{
			{Name: "x", Type: optimizer.ParamTypeContinuous, Min: -10, Max: 10},
			{Name: "y", Type: optimizer.ParamTypeContinuous, Min: -10, Max: 10},
		},
		fn: func(ctx context.Context, params optimizer.ParameterSet) (float64, error) {
			x := params["x"].(float64)
			y := params["y"].(float64)
			return -((x-3)*(x-3) + (y+2)*(y+2)), nil
		},
	}
}

// rastriginSurface is a highly multimodal benchmark with maximum 0 at origin
func rastriginSurface() *objectiveSurface {
	return &objectiveSurface{
		name: "rastrigin",
		parameters: []optimizer.Parameter{
			{Name: "x", Type: optimizer.ParamTypeContinuous, Min: -5.12, Max: 5.12},
			{Name: "y", Type: optimizer.ParamTypeContinuous, Min: -5.12, Max: 5.12},
		},
		fn: func(ctx context.Context, params optimizer.ParameterSet) (float64, error) {
			x := params["x"].(float64)
			y := params["y"].(float64)
			val := 20 + x*x - 10*math.Cos(2*math.Pi*x) + y*y - 10*math.Cos(2*math.Pi*y)
			return -val, nil
		},
	}
}

// trendSurface tunes a moving-average crossover over a synthetic price
// series. Dataset-backed, so walk-forward and cross-validation apply.
func trendSurface() *objectiveSurface {
	prices := syntheticPrices(1000)

	return &objectiveSurface{
		name: "trend",
		parameters: []optimizer.Parameter{
			{Name: "fast", Type: optimizer.ParamTypeDiscrete, Min: 2, Max: 20},
			{Name: "slow", Type: optimizer.ParamTypeDiscrete, Min: 10, Max: 100},
		},
		dataset: &optimizer.Dataset{
			Length: len(prices),
			Score: func(ctx context.Context, params optimizer.ParameterSet, windows ...optimizer.Range) (float64, error) {
				fast := params["fast"].(int)
				slow := params["slow"].(int)
				if fast >= slow {
					return 0, fmt.Errorf("fast period %d must be below slow period %d", fast, slow)
				}
				total := 0.0
				for _, w := range windows {
					total += crossoverReturn(prices[w.Start:w.End], fast, slow)
				}
				return total, nil
			},
		},
	}
}

// syntheticPrices generates a noisy trending price series
func syntheticPrices(n int) []float64 {
	prices := make([]float64, n)
	price := 100.0
	for i := range prices {
		cycle := 5 * math.Sin(float64(i)/40)
		noise := 2 * math.Sin(float64(i)*1.7)
		price = 100 + float64(i)*0.05 + cycle + noise
		prices[i] = price
	}
	return prices
}

// crossoverReturn computes the cumulative return of a long-only
// fast/slow moving-average crossover on the given slice.
func crossoverReturn(prices []float64, fast, slow int) float64 {
	if len(prices) <= slow {
		return 0
	}

	total := 0.0
	for i := slow; i < len(prices); i++ {
		fastMA := mean(prices[i-fast : i])
		slowMA := mean(prices[i-slow : i])
		if fastMA > slowMA {
			total += (prices[i] - prices[i-1]) / prices[i-1]
		}
	}
	return total
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// ============================================================================
// SUMMARY OUTPUT
// ============================================================================

func formatSummary(r *optimizer.Result) string {
	var sb strings.Builder

	sb.WriteString("\n=== Optimization Summary ===\n")
	sb.WriteString(fmt.Sprintf("Method:          %s\n", r.Method))
	sb.WriteString(fmt.Sprintf("Trials:          %d (%d failed)\n", len(r.AllTrials), r.FailedTrials()))
	sb.WriteString(fmt.Sprintf("Duration:        %s\n", r.ComputationTime.Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("Best score:      %.6f\n", r.BestScore))

	if r.ValidationScore != nil {
		sb.WriteString(fmt.Sprintf("Validation:      %.6f\n", *r.ValidationScore))
	}
	if r.TestScore != nil {
		sb.WriteString(fmt.Sprintf("Test:            %.6f\n", *r.TestScore))
	}
	if r.OverfittingWarning {
		sb.WriteString("WARNING: best parameters degrade significantly on held-out data\n")
	}

	sb.WriteString("Best parameters:\n")
	for name, value := range r.BestParameters {
		sb.WriteString(fmt.Sprintf("  %-14s %v\n", name, value))
	}

	if len(r.WalkForwardResults) > 0 {
		sb.WriteString(fmt.Sprintf("\nWalk-forward (%d periods, overfitting score %.3f):\n",
			len(r.WalkForwardResults), r.OverfittingScore))
		for _, wf := range r.WalkForwardResults {
			sb.WriteString(fmt.Sprintf("  period %d: train %.4f, test %.4f, degradation %.1f%%\n",
				wf.Period, wf.TrainScore, wf.TestScore, wf.Degradation*100))
		}
	}

	if len(r.CrossValidationResults) > 0 {
		sb.WriteString(fmt.Sprintf("\nCross-validation (%d folds, stability %.3f):\n",
			len(r.CrossValidationResults), r.StabilityScore))
		for _, cv := range r.CrossValidationResults {
			sb.WriteString(fmt.Sprintf("  fold %d: train %.4f, validation %.4f\n",
				cv.Fold, cv.TrainScore, cv.ValidationScore))
		}
	}

	return sb.String()
}
