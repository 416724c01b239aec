package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Configuration validation failed with %d error(s):\n\n", len(ve)))
	for i, err := range ve {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	sb.WriteString("\nPlease fix the above errors and try again.\n")
	return sb.String()
}

// Validate performs comprehensive configuration validation
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateApp()...)
	errors = append(errors, c.validateOptimizer()...)
	errors = append(errors, c.validateValidation()...)
	errors = append(errors, c.validateMonitoring()...)

	if len(errors) > 0 {
		return errors
	}

	return nil
}

func (c *Config) validateApp() ValidationErrors {
	var errors ValidationErrors

	if c.App.Name == "" {
		errors = append(errors, ValidationError{
			Field:   "app.name",
			Message: "Application name is required",
		})
	}

	if c.App.Environment == "" {
		errors = append(errors, ValidationError{
			Field:   "app.environment",
			Message: "Environment is required (development, staging, or production)",
		})
	} else {
		validEnvs := []string{"development", "staging", "production"}
		valid := false
		for _, env := range validEnvs {
			if c.App.Environment == env {
				valid = true
				break
			}
		}
		if !valid {
			errors = append(errors, ValidationError{
				Field:   "app.environment",
				Message: fmt.Sprintf("Invalid environment '%s'. Must be one of: %v", c.App.Environment, validEnvs),
			})
		}
	}

	if c.App.LogLevel == "" {
		errors = append(errors, ValidationError{
			Field:   "app.log_level",
			Message: "Log level is required (debug, info, warn, error)",
		})
	}

	return errors
}

func (c *Config) validateOptimizer() ValidationErrors {
	var errors ValidationErrors

	validMethods := []string{"grid_search", "genetic", "particle_swarm", "bayesian"}
	valid := false
	for _, m := range validMethods {
		if c.Optimizer.Method == m {
			valid = true
			break
		}
	}
	if !valid {
		errors = append(errors, ValidationError{
			Field:   "optimizer.method",
			Message: fmt.Sprintf("Invalid method '%s'. Must be one of: %v", c.Optimizer.Method, validMethods),
		})
	}

	if c.Optimizer.MaxIterations < 1 {
		errors = append(errors, ValidationError{
			Field:   "optimizer.max_iterations",
			Message: "Iteration budget must be at least 1",
		})
	}

	if c.Optimizer.Parallel && c.Optimizer.NumWorkers < 1 {
		errors = append(errors, ValidationError{
			Field:   "optimizer.num_workers",
			Message: "Worker count must be at least 1 when parallel evaluation is enabled",
		})
	}

	if c.Optimizer.MutationRate < 0 || c.Optimizer.MutationRate > 1 {
		errors = append(errors, ValidationError{
			Field:   "optimizer.mutation_rate",
			Message: "Mutation rate must be within [0, 1]",
		})
	}

	if c.Optimizer.CrossoverRate < 0 || c.Optimizer.CrossoverRate > 1 {
		errors = append(errors, ValidationError{
			Field:   "optimizer.crossover_rate",
			Message: "Crossover rate must be within [0, 1]",
		})
	}

	return errors
}

func (c *Config) validateValidation() ValidationErrors {
	var errors ValidationErrors

	if c.Validation.ValidationRatio < 0 || c.Validation.ValidationRatio >= 1 {
		errors = append(errors, ValidationError{
			Field:   "validation.validation_ratio",
			Message: "Validation ratio must be within [0, 1)",
		})
	}

	if c.Validation.TestRatio < 0 || c.Validation.TestRatio >= 1 {
		errors = append(errors, ValidationError{
			Field:   "validation.test_ratio",
			Message: "Test ratio must be within [0, 1)",
		})
	}

	if c.Validation.ValidationRatio+c.Validation.TestRatio >= 1 {
		errors = append(errors, ValidationError{
			Field:   "validation.validation_ratio",
			Message: "Validation and test ratios together must leave room for training data",
		})
	}

	if c.Validation.WalkForwardEnabled && c.Validation.WalkForwardPeriods < 2 {
		errors = append(errors, ValidationError{
			Field:   "validation.walk_forward_periods",
			Message: "Walk-forward analysis requires at least 2 periods",
		})
	}

	if c.Validation.WalkForwardAnchor != "rolling" && c.Validation.WalkForwardAnchor != "expanding" {
		errors = append(errors, ValidationError{
			Field:   "validation.walk_forward_anchor",
			Message: fmt.Sprintf("Invalid anchor '%s'. Must be 'rolling' or 'expanding'", c.Validation.WalkForwardAnchor),
		})
	}

	if c.Validation.CrossValidationEnabled && c.Validation.CrossValidationFolds < 2 {
		errors = append(errors, ValidationError{
			Field:   "validation.cross_validation_folds",
			Message: "Cross-validation requires at least 2 folds",
		})
	}

	return errors
}

func (c *Config) validateMonitoring() ValidationErrors {
	var errors ValidationErrors

	if c.Monitoring.EnableMetrics {
		if c.Monitoring.PrometheusPort < 1 || c.Monitoring.PrometheusPort > 65535 {
			errors = append(errors, ValidationError{
				Field:   "monitoring.prometheus_port",
				Message: fmt.Sprintf("Invalid port %d. Must be within [1, 65535]", c.Monitoring.PrometheusPort),
			})
		}
	}

	return errors
}
