package optimizer

import (
	"fmt"

	"github.com/kumarYashaswi/tensorforce/values"
)

// optimizingStep refines the update of its inner optimizer with a
// bounded backtracking line search along the applied step. Whenever
// the loss after the inner update exceeds the loss before it, the
// applied step is halved, up to maxIterations times. The search sees
// the full inner update; it must therefore wrap inside any clipping or
// subsampling modifiers, never outside them.
type optimizingStep struct {
	inner         Optimizer
	maxIterations int
}

// NewOptimizingStep returns an update modifier line searching over the
// inner optimizer's update for at most maxIterations refinements
func NewOptimizingStep(inner Optimizer, maxIterations int) (Optimizer, error) {
	if inner == nil {
		return nil, fmt.Errorf("newOptimizingStep: no inner optimizer")
	}
	if maxIterations < 1 {
		return nil, fmt.Errorf("newOptimizingStep: maxIterations must be "+
			"positive, got %v", maxIterations)
	}
	return &optimizingStep{inner: inner, maxIterations: maxIterations}, nil
}

// Type returns the registered type of the optimizer
func (o *optimizingStep) Type() Type {
	return OptimizingStep
}

// Inner returns the wrapped optimizer
func (o *optimizingStep) Inner() Optimizer {
	return o.inner
}

// Step performs the inner update and backtracks along it while it
// increases the loss
func (o *optimizingStep) Step(args *Arguments) (*values.Values, error) {
	if args == nil || args.Loss == nil {
		return nil, fmt.Errorf("step: line search requires the Loss " +
			"callback")
	}

	lossBefore, err := args.Loss(args.Batch)
	if err != nil {
		return nil, fmt.Errorf("step: %v", err)
	}

	applied, err := o.inner.Step(args)
	if err != nil {
		return nil, err
	}

	loss, err := args.Loss(args.Batch)
	if err != nil {
		return nil, fmt.Errorf("step: %v", err)
	}

	for i := 0; i < o.maxIterations && loss > lossBefore; i++ {
		correction := applied.Fmap(func(x float64) float64 {
			return -x / 2.0
		})
		if err := args.Apply(correction); err != nil {
			return nil, fmt.Errorf("step: %v", err)
		}
		applied = applied.Fmap(func(x float64) float64 { return x / 2.0 })

		loss, err = args.Loss(args.Batch)
		if err != nil {
			return nil, fmt.Errorf("step: %v", err)
		}
	}

	return applied, nil
}

// OptimizingStepConfig describes a configuration of the line-search
// update modifier
type OptimizingStepConfig struct {
	Optimizer     Config // Inner optimizer configuration
	MaxIterations int
}

// Create returns a new line-search modifier as described by the config
func (o OptimizingStepConfig) Create() (Optimizer, error) {
	inner, err := create(o.Optimizer)
	if err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}
	return NewOptimizingStep(inner, o.MaxIterations)
}

// ValidType returns if the given Optimizer type is a valid type to be
// created with this config.
func (o OptimizingStepConfig) ValidType(t Type) bool {
	return t == OptimizingStep
}

// Type returns the type of the Optimizer the Config describes
func (o OptimizingStepConfig) Type() Type {
	return OptimizingStep
}
