// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/kumarYashaswi/tensorforce/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() mat.Vector
}

// Ender determines when an episode ends
type Ender interface {
	// End takes the most recent timestep and determines whether it is
	// the last in the episode, modifying its StepType if so
	End(*timestep.TimeStep) bool
}

// Task implements the reward scheme for taking actions in some
// environment. Tasks determine the starting states in an environment,
// when an episode ends, and the rewards taken for actions in the
// environment.
type Task interface {
	Starter
	Ender
	GetReward(state mat.Vector, action mat.Vector,
		nextState mat.Vector) float64
	AtGoal(state mat.Matrix) bool
	Min() float64 // returns the min possible reward
	Max() float64 // returns the max possible reward
	RewardSpec() Spec
}

// Environment implements a simulated environment, which includes a
// Task to complete
type Environment interface {
	Task
	Reset() timestep.TimeStep // Resets between episodes
	Step(action *mat.VecDense) (timestep.TimeStep, bool)
	LastTimeStep() timestep.TimeStep
	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}
