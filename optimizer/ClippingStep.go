package optimizer

import (
	"fmt"
	"math"

	"github.com/kumarYashaswi/tensorforce/values"
)

// clippingStep clips the update of its inner optimizer to a maximum
// global norm, measured across the entire collection. Because the
// inner optimizer has already applied its unclipped update when Step
// returns, the clip is applied as a correction on top of it.
type clippingStep struct {
	inner     Optimizer
	threshold float64
}

// NewClippingStep returns an update modifier clipping the inner
// optimizer's update to a global norm of threshold
func NewClippingStep(inner Optimizer, threshold float64) (Optimizer, error) {
	if inner == nil {
		return nil, fmt.Errorf("newClippingStep: no inner optimizer")
	}
	if threshold <= 0.0 {
		return nil, fmt.Errorf("newClippingStep: threshold must be "+
			"positive, got %v", threshold)
	}
	return &clippingStep{inner: inner, threshold: threshold}, nil
}

// Type returns the registered type of the optimizer
func (c *clippingStep) Type() Type {
	return ClippingStep
}

// Inner returns the wrapped optimizer
func (c *clippingStep) Inner() Optimizer {
	return c.inner
}

// Step performs the inner update and rescales it to the norm threshold
// if it exceeds it
func (c *clippingStep) Step(args *Arguments) (*values.Values, error) {
	delta, err := c.inner.Step(args)
	if err != nil {
		return nil, err
	}

	norm := math.Sqrt(delta.SumSquares())
	if norm <= c.threshold {
		return delta, nil
	}

	scale := c.threshold / norm
	clipped := delta.Fmap(func(x float64) float64 { return scale * x })

	// Back out the clipped-away portion of the applied update
	correction, err := clipped.FmapWith(
		func(clip, d float64) float64 { return clip - d }, delta)
	if err != nil {
		return nil, fmt.Errorf("step: %v", err)
	}
	if err := args.Apply(correction); err != nil {
		return nil, fmt.Errorf("step: %v", err)
	}

	return clipped, nil
}

// ClippingStepConfig describes a configuration of the norm-clipping
// update modifier
type ClippingStepConfig struct {
	Optimizer Config // Inner optimizer configuration
	Threshold float64
}

// Create returns a new clipping modifier as described by the config
func (c ClippingStepConfig) Create() (Optimizer, error) {
	inner, err := create(c.Optimizer)
	if err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}
	return NewClippingStep(inner, c.Threshold)
}

// ValidType returns if the given Optimizer type is a valid type to be
// created with this config.
func (c ClippingStepConfig) ValidType(t Type) bool {
	return t == ClippingStep
}

// Type returns the type of the Optimizer the Config describes
func (c ClippingStepConfig) Type() Type {
	return ClippingStep
}
