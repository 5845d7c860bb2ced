package optimizer

import (
	"fmt"

	"github.com/kumarYashaswi/tensorforce/values"
)

// multiStep repeats its entire inner optimizer a fixed number of
// times per Step. Because the inner optimizer may itself be a stack of
// modifiers, every repetition runs the full pipeline, including any
// subsampling, clipping, and line search.
type multiStep struct {
	inner    Optimizer
	numSteps int
}

// NewMultiStep returns an update modifier performing numSteps inner
// updates per Step
func NewMultiStep(inner Optimizer, numSteps int) (Optimizer, error) {
	if inner == nil {
		return nil, fmt.Errorf("newMultiStep: no inner optimizer")
	}
	if numSteps < 1 {
		return nil, fmt.Errorf("newMultiStep: numSteps must be positive, "+
			"got %v", numSteps)
	}
	return &multiStep{inner: inner, numSteps: numSteps}, nil
}

// Type returns the registered type of the optimizer
func (m *multiStep) Type() Type {
	return MultiStep
}

// Inner returns the wrapped optimizer
func (m *multiStep) Inner() Optimizer {
	return m.inner
}

// Step performs numSteps inner updates, returning their summed delta
func (m *multiStep) Step(args *Arguments) (*values.Values, error) {
	var total *values.Values
	for i := 0; i < m.numSteps; i++ {
		delta, err := m.inner.Step(args)
		if err != nil {
			return nil, fmt.Errorf("step %d: %v", i, err)
		}

		if total == nil {
			total = delta
			continue
		}
		total, err = total.FmapWith(
			func(t, d float64) float64 { return t + d }, delta)
		if err != nil {
			return nil, fmt.Errorf("step %d: %v", i, err)
		}
	}
	return total, nil
}

// MultiStepConfig describes a configuration of the multi-step update
// modifier
type MultiStepConfig struct {
	Optimizer Config // Inner optimizer configuration
	NumSteps  int
}

// Create returns a new multi-step modifier as described by the config
func (m MultiStepConfig) Create() (Optimizer, error) {
	inner, err := create(m.Optimizer)
	if err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}
	return NewMultiStep(inner, m.NumSteps)
}

// ValidType returns if the given Optimizer type is a valid type to be
// created with this config.
func (m MultiStepConfig) ValidType(t Type) bool {
	return t == MultiStep
}

// Type returns the type of the Optimizer the Config describes
func (m MultiStepConfig) Type() Type {
	return MultiStep
}
