// Package optimizer implements parameter optimization for scoring functions:
// grid search, genetic algorithm, particle swarm, and a Bayesian surrogate,
// with temporal train/validation/test splitting, walk-forward analysis, and
// blocked time-series cross-validation for time-ordered data.
package optimizer

import (
	"fmt"
	"math"
	"math/rand"
)

// ============================================================================
// PARAMETER DEFINITION
// ============================================================================

// ParamType defines the domain of a tunable parameter
type ParamType string

const (
	ParamTypeContinuous  ParamType = "continuous"
	ParamTypeDiscrete    ParamType = "discrete"
	ParamTypeCategorical ParamType = "categorical"
)

// Parameter represents one tunable dimension of the search space
type Parameter struct {
	Name    string      `json:"name"`
	Type    ParamType   `json:"type"`
	Min     float64     `json:"min"`              // continuous/discrete lower bound (inclusive)
	Max     float64     `json:"max"`              // continuous/discrete upper bound (inclusive)
	Values  []string    `json:"values,omitempty"` // categorical value set
	Default interface{} `json:"default,omitempty"`
}

// ParameterSet maps parameter names to concrete values: float64 for
// continuous, int for discrete, string for categorical dimensions.
type ParameterSet map[string]interface{}

// Clone creates a shallow copy of the parameter set
func (ps ParameterSet) Clone() ParameterSet {
	clone := make(ParameterSet, len(ps))
	for k, v := range ps {
		clone[k] = v
	}
	return clone
}

// numericValue extracts a float from a continuous or discrete value
func numericValue(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	}
	return 0, false
}

// ============================================================================
// PARAMETER SPACE
// ============================================================================

// ParameterSpace describes the full search space and knows how to sample
// random vectors from it and measure distance between vectors.
type ParameterSpace struct {
	params []Parameter
}

// NewParameterSpace validates the parameter definitions and builds a space.
// Invalid bounds or an empty categorical value set are configuration errors.
func NewParameterSpace(params []Parameter) (*ParameterSpace, error) {
	if len(params) == 0 {
		return nil, configErrorf("parameters", "at least one parameter is required")
	}

	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if p.Name == "" {
			return nil, configErrorf("parameters", "parameter name must not be empty")
		}
		if seen[p.Name] {
			return nil, configErrorf("parameters", "duplicate parameter name %q", p.Name)
		}
		seen[p.Name] = true

		switch p.Type {
		case ParamTypeContinuous, ParamTypeDiscrete:
			if p.Min >= p.Max {
				return nil, configErrorf(p.Name, "min (%v) must be less than max (%v)", p.Min, p.Max)
			}
		case ParamTypeCategorical:
			if len(p.Values) == 0 {
				return nil, configErrorf(p.Name, "categorical parameter requires a non-empty value set")
			}
		default:
			return nil, configErrorf(p.Name, "unknown parameter type %q", p.Type)
		}
	}

	return &ParameterSpace{params: params}, nil
}

// Parameters returns the dimensions in definition order
func (s *ParameterSpace) Parameters() []Parameter {
	return s.params
}

// Sample draws one uniform-random parameter vector
func (s *ParameterSpace) Sample(rng *rand.Rand) ParameterSet {
	ps := make(ParameterSet, len(s.params))
	for i := range s.params {
		ps[s.params[i].Name] = s.SampleDimension(rng, &s.params[i])
	}
	return ps
}

// SampleDimension draws one uniform-random value for a single dimension
func (s *ParameterSpace) SampleDimension(rng *rand.Rand, p *Parameter) interface{} {
	switch p.Type {
	case ParamTypeContinuous:
		return p.Min + rng.Float64()*(p.Max-p.Min)
	case ParamTypeDiscrete:
		lo, hi := int(p.Min), int(p.Max)
		return lo + rng.Intn(hi-lo+1)
	default:
		return p.Values[rng.Intn(len(p.Values))]
	}
}

// Distance measures normalized distance between two vectors: the sum over
// numeric dimensions of ((a-b)/(max-min))^2, plus 1 per mismatched
// categorical dimension, square-rooted. Used by the Bayesian surrogate for
// neighbor weighting.
func (s *ParameterSpace) Distance(a, b ParameterSet) float64 {
	sum := 0.0
	for i := range s.params {
		p := &s.params[i]
		if p.Type == ParamTypeCategorical {
			if a[p.Name] != b[p.Name] {
				sum++
			}
			continue
		}

		av, okA := numericValue(a[p.Name])
		bv, okB := numericValue(b[p.Name])
		if !okA || !okB {
			sum++
			continue
		}

		span := p.Max - p.Min
		if span <= 0 {
			continue
		}
		d := (av - bv) / span
		sum += d * d
	}
	return math.Sqrt(sum)
}

// String implements fmt.Stringer for log output
func (p Parameter) String() string {
	if p.Type == ParamTypeCategorical {
		return fmt.Sprintf("%s(%s, %d values)", p.Name, p.Type, len(p.Values))
	}
	return fmt.Sprintf("%s(%s, [%v, %v])", p.Name, p.Type, p.Min, p.Max)
}
