package optimizer

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/kumarYashaswi/tensorforce/values"
)

// subsamplingStep delegates to its inner optimizer on a random
// fraction of the batch timesteps. The subsample is drawn fresh for
// every Step from a seeded source, so runs are reproducible.
type subsamplingStep struct {
	inner    Optimizer
	fraction float64
	rng      *rand.Rand
}

// NewSubsamplingStep returns an update modifier delegating to inner on
// a random fraction of the batch. fraction must be in (0.0, 1.0].
func NewSubsamplingStep(inner Optimizer, fraction float64,
	seed uint64) (Optimizer, error) {
	if inner == nil {
		return nil, fmt.Errorf("newSubsamplingStep: no inner optimizer")
	}
	if fraction <= 0.0 || fraction > 1.0 {
		return nil, fmt.Errorf("newSubsamplingStep: fraction must be in "+
			"(0.0, 1.0], got %v", fraction)
	}

	return &subsamplingStep{
		inner:    inner,
		fraction: fraction,
		rng:      rand.New(rand.NewSource(seed)),
	}, nil
}

// Type returns the registered type of the optimizer
func (s *subsamplingStep) Type() Type {
	return SubsamplingStep
}

// Inner returns the wrapped optimizer
func (s *subsamplingStep) Inner() Optimizer {
	return s.inner
}

// Step delegates to the inner optimizer with a subsampled batch
func (s *subsamplingStep) Step(args *Arguments) (*values.Values, error) {
	subArgs := *args
	subArgs.Batch = args.Batch.Subsample(s.rng, s.fraction)
	return s.inner.Step(&subArgs)
}

// SubsamplingStepConfig describes a configuration of the subsampling
// update modifier
type SubsamplingStepConfig struct {
	Optimizer Config // Inner optimizer configuration
	Fraction  float64
	Seed      uint64
}

// Create returns a new subsampling modifier as described by the config
func (s SubsamplingStepConfig) Create() (Optimizer, error) {
	inner, err := create(s.Optimizer)
	if err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}
	return NewSubsamplingStep(inner, s.Fraction, s.Seed)
}

// ValidType returns if the given Optimizer type is a valid type to be
// created with this config.
func (s SubsamplingStepConfig) ValidType(t Type) bool {
	return t == SubsamplingStep
}

// Type returns the type of the Optimizer the Config describes
func (s SubsamplingStepConfig) Type() Type {
	return SubsamplingStep
}
