package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Optimizer  OptimizerConfig  `mapstructure:"optimizer"`
	Validation ValidationConfig `mapstructure:"validation"`
	Report     ReportConfig     `mapstructure:"report"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// AppConfig contains application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"` // development, staging, production
	LogLevel    string `mapstructure:"log_level"`
}

// OptimizerConfig contains search strategy settings
type OptimizerConfig struct {
	Method        string `mapstructure:"method"` // grid_search, genetic, particle_swarm, bayesian
	MaxIterations int    `mapstructure:"max_iterations"`
	MaxTimeMS     int    `mapstructure:"max_time_ms"`
	Parallel      bool   `mapstructure:"parallel"`
	NumWorkers    int    `mapstructure:"num_workers"`
	Seed          int64  `mapstructure:"seed"`

	Patience             int     `mapstructure:"patience"`
	ConvergenceThreshold float64 `mapstructure:"convergence_threshold"`

	GridPoints       int     `mapstructure:"grid_points"`
	PopulationSize   int     `mapstructure:"population_size"`
	MutationRate     float64 `mapstructure:"mutation_rate"`
	CrossoverRate    float64 `mapstructure:"crossover_rate"`
	ElitismCount     int     `mapstructure:"elitism_count"`
	SwarmSize        int     `mapstructure:"swarm_size"`
	InertiaWeight    float64 `mapstructure:"inertia_weight"`
	CognitiveWeight  float64 `mapstructure:"cognitive_weight"`
	SocialWeight     float64 `mapstructure:"social_weight"`
	InitialSamples   int     `mapstructure:"initial_samples"`
	CandidatePool    int     `mapstructure:"candidate_pool"`
}

// ValidationConfig contains train/validation/test and robustness settings
type ValidationConfig struct {
	ValidationRatio      float64 `mapstructure:"validation_ratio"`
	TestRatio            float64 `mapstructure:"test_ratio"`
	OverfittingThreshold float64 `mapstructure:"overfitting_threshold"`

	WalkForwardEnabled bool   `mapstructure:"walk_forward_enabled"`
	WalkForwardPeriods int    `mapstructure:"walk_forward_periods"`
	WalkForwardAnchor  string `mapstructure:"walk_forward_anchor"` // rolling, expanding

	CrossValidationEnabled bool `mapstructure:"cross_validation_enabled"`
	CrossValidationFolds   int  `mapstructure:"cross_validation_folds"`
}

// ReportConfig contains HTML report output settings
type ReportConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// MonitoringConfig contains monitoring settings
type MonitoringConfig struct {
	PrometheusPort int  `mapstructure:"prometheus_port"`
	EnableMetrics  bool `mapstructure:"enable_metrics"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable overrides
	v.AutomaticEnv()
	v.SetEnvPrefix("OPTIFUNK")

	// Set defaults
	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; using defaults and environment variables
	}

	// Unmarshal into struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "OptiFunk")
	v.SetDefault("app.version", Version)
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Optimizer defaults
	v.SetDefault("optimizer.method", "grid_search")
	v.SetDefault("optimizer.max_iterations", 100)
	v.SetDefault("optimizer.max_time_ms", 0)
	v.SetDefault("optimizer.parallel", true)
	v.SetDefault("optimizer.num_workers", 4)
	v.SetDefault("optimizer.seed", 0)
	v.SetDefault("optimizer.patience", 0)
	v.SetDefault("optimizer.convergence_threshold", 1e-6)
	v.SetDefault("optimizer.grid_points", 10)
	v.SetDefault("optimizer.population_size", 20)
	v.SetDefault("optimizer.mutation_rate", 0.1)
	v.SetDefault("optimizer.crossover_rate", 0.8)
	v.SetDefault("optimizer.elitism_count", 2)
	v.SetDefault("optimizer.swarm_size", 20)
	v.SetDefault("optimizer.inertia_weight", 0.7)
	v.SetDefault("optimizer.cognitive_weight", 1.5)
	v.SetDefault("optimizer.social_weight", 1.5)
	v.SetDefault("optimizer.initial_samples", 10)
	v.SetDefault("optimizer.candidate_pool", 100)

	// Validation defaults
	v.SetDefault("validation.validation_ratio", 0.20)
	v.SetDefault("validation.test_ratio", 0.15)
	v.SetDefault("validation.overfitting_threshold", 0.15)
	v.SetDefault("validation.walk_forward_enabled", false)
	v.SetDefault("validation.walk_forward_periods", 5)
	v.SetDefault("validation.walk_forward_anchor", "rolling")
	v.SetDefault("validation.cross_validation_enabled", false)
	v.SetDefault("validation.cross_validation_folds", 5)

	// Report defaults
	v.SetDefault("report.enabled", false)
	v.SetDefault("report.path", "optimization_report.html")

	// Monitoring defaults
	v.SetDefault("monitoring.prometheus_port", 9100)
	v.SetDefault("monitoring.enable_metrics", true)
}

// GetMaxTime returns the optimization wall-clock budget as time.Duration
func (c *OptimizerConfig) GetMaxTime() time.Duration {
	return time.Duration(c.MaxTimeMS) * time.Millisecond
}
