package optimizer

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// AdamConfig describes a configuration of the Adam optimizer
type AdamConfig struct {
	StepSize float64
	Epsilon  float64 // Smoothing factor
	Beta1    float64
	Beta2    float64
}

// NewDefaultAdam returns a new Adam optimizer with default
// hyperparameters
func NewDefaultAdam(stepSize float64) (Optimizer, error) {
	return NewAdam(stepSize, 1e-8, 0.9, 0.999)
}

// NewAdam returns a new Adam optimizer
func NewAdam(stepSize, epsilon, beta1, beta2 float64) (Optimizer, error) {
	return create(AdamConfig{
		StepSize: stepSize,
		Epsilon:  epsilon,
		Beta1:    beta1,
		Beta2:    beta2,
	})
}

// Create returns a new Adam optimizer as described by the AdamConfig
func (a AdamConfig) Create() (Optimizer, error) {
	if a.StepSize <= 0 {
		return nil, fmt.Errorf("create: step size must be positive, "+
			"got %v", a.StepSize)
	}

	solver := G.NewAdamSolver(
		G.WithLearnRate(a.StepSize),
		G.WithEps(a.Epsilon),
		G.WithBeta1(a.Beta1),
		G.WithBeta2(a.Beta2),
	)
	return newGradientDescent(Adam, solver), nil
}

// ValidType returns if the given Optimizer type is a valid type to be
// created with this config.
func (a AdamConfig) ValidType(t Type) bool {
	return t == Adam
}

// Type returns the type of the Optimizer the Config describes
func (a AdamConfig) Type() Type {
	return Adam
}
