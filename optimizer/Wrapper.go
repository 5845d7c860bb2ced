package optimizer

import (
	"fmt"
)

// WrapperConfig holds the flat tuning knobs of the update modifier
// wrapper. Each knob enables one modifier layer around the base
// optimizer; a knob left at its zero value (or at the documented
// disabled value) adds no layer.
type WrapperConfig struct {
	// Optimizer is the base optimizer configuration
	Optimizer Config

	// MultiStep is the number of inner updates per Step. 0 and 1 both
	// mean a single update with no modifier layer.
	MultiStep int

	// SubsamplingFraction is the fraction of batch timesteps to
	// subsample, in (0.0, 1.0]. 0 and 1.0 both mean no subsampling.
	SubsamplingFraction float64

	// ClippingThreshold is the maximum global update norm. 0 means no
	// clipping.
	ClippingThreshold float64

	// OptimizingIterations is the maximum number of line search
	// refinements per update. 0 means no line search.
	OptimizingIterations int

	// Seed seeds the subsampling source
	Seed uint64
}

// NewUpdateModifierWrapper translates a WrapperConfig into a nested
// optimizer, folding the enabled modifier layers around the base
// optimizer in a fixed order, innermost to outermost: line search,
// clipping, subsampling, multi-step.
//
// The order is not commutative. The line search must see the
// unclipped, unsubsampled step to search along; clipping must act on
// the step computed from the chosen subsample; and multi-step must
// repeat the entire composed pipeline each time.
func NewUpdateModifierWrapper(c WrapperConfig) (Optimizer, error) {
	if c.Optimizer == nil {
		return nil, fmt.Errorf("newUpdateModifierWrapper: no base " +
			"optimizer configuration")
	}
	if c.MultiStep < 0 {
		return nil, fmt.Errorf("newUpdateModifierWrapper: multiStep must "+
			"be non-negative, got %v", c.MultiStep)
	}
	if c.SubsamplingFraction < 0.0 || c.SubsamplingFraction > 1.0 {
		return nil, fmt.Errorf("newUpdateModifierWrapper: "+
			"subsamplingFraction must be in (0.0, 1.0], got %v",
			c.SubsamplingFraction)
	}
	if c.ClippingThreshold < 0.0 {
		return nil, fmt.Errorf("newUpdateModifierWrapper: "+
			"clippingThreshold must be non-negative, got %v",
			c.ClippingThreshold)
	}
	if c.OptimizingIterations < 0 {
		return nil, fmt.Errorf("newUpdateModifierWrapper: "+
			"optimizingIterations must be non-negative, got %v",
			c.OptimizingIterations)
	}

	layers := []struct {
		enabled bool
		wrap    func(inner Config) Config
	}{
		{
			enabled: c.OptimizingIterations > 0,
			wrap: func(inner Config) Config {
				return OptimizingStepConfig{
					Optimizer:     inner,
					MaxIterations: c.OptimizingIterations,
				}
			},
		},
		{
			enabled: c.ClippingThreshold != 0.0,
			wrap: func(inner Config) Config {
				return ClippingStepConfig{
					Optimizer: inner,
					Threshold: c.ClippingThreshold,
				}
			},
		},
		{
			enabled: c.SubsamplingFraction != 0.0 &&
				c.SubsamplingFraction != 1.0,
			wrap: func(inner Config) Config {
				return SubsamplingStepConfig{
					Optimizer: inner,
					Fraction:  c.SubsamplingFraction,
					Seed:      c.Seed,
				}
			},
		},
		{
			enabled: c.MultiStep > 1,
			wrap: func(inner Config) Config {
				return MultiStepConfig{
					Optimizer: inner,
					NumSteps:  c.MultiStep,
				}
			},
		},
	}

	spec := c.Optimizer
	for _, layer := range layers {
		if layer.enabled {
			spec = layer.wrap(spec)
		}
	}

	opt, err := create(spec)
	if err != nil {
		return nil, fmt.Errorf("newUpdateModifierWrapper: %v", err)
	}
	return opt, nil
}
