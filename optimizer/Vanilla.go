package optimizer

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// VanillaConfig describes a configuration of the vanilla gradient
// descent optimizer
type VanillaConfig struct {
	StepSize float64
	Clip     float64 // <= 0 if no elementwise gradient clipping
}

// NewVanilla returns a new vanilla gradient descent optimizer
func NewVanilla(stepSize, clip float64) (Optimizer, error) {
	return create(VanillaConfig{StepSize: stepSize, Clip: clip})
}

// Create returns a vanilla gradient descent optimizer as described by
// the VanillaConfig
func (v VanillaConfig) Create() (Optimizer, error) {
	if v.StepSize <= 0 {
		return nil, fmt.Errorf("create: step size must be positive, "+
			"got %v", v.StepSize)
	}

	var solver G.Solver
	if v.Clip <= 0 {
		solver = G.NewVanillaSolver(
			G.WithLearnRate(v.StepSize),
		)
	} else {
		solver = G.NewVanillaSolver(
			G.WithLearnRate(v.StepSize),
			G.WithClip(v.Clip),
		)
	}
	return newGradientDescent(Vanilla, solver), nil
}

// ValidType returns if the given Optimizer type is a valid type to be
// created with this config.
func (v VanillaConfig) ValidType(t Type) bool {
	return t == Vanilla
}

// Type returns the type of the Optimizer the Config describes
func (v VanillaConfig) Type() Type {
	return Vanilla
}
