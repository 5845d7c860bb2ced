package pendulum

import (
	"gonum.org/v1/gonum/mat"

	"github.com/kumarYashaswi/tensorforce/environment"
	"github.com/kumarYashaswi/tensorforce/timestep"
	"github.com/kumarYashaswi/tensorforce/utils/floatutils"
)

// Continuous implements the pendulum environment with continuous
// actions. Actions are 1-dimensional and determine the torque to apply
// to the pendulum at its fixed base. Actions are bounded by
// [MinContinuousAction, MaxContinuousAction] = [-2, 2]. Actions outside
// of this region are clipped to stay within these bounds.
//
// Continuous implements the environment.Environment interface
type Continuous struct {
	*base
}

// NewContinuous creates and returns a new Continuous environment
func NewContinuous(t environment.Task, discount float64) (*Continuous,
	timestep.TimeStep) {
	baseEnv, firstStep := newBase(t, discount)

	pendulum := Continuous{baseEnv}

	return &pendulum, firstStep
}

// Step takes one environmental step given action a and returns the next
// timestep as a timestep.TimeStep and a bool indicating whether or not
// the episode has ended. Actions outside the legal torque range are
// clipped to stay within the range.
func (p *Continuous) Step(action *mat.VecDense) (timestep.TimeStep, bool) {
	if action.Len() > ActionDims {
		panic("Actions should be 1-dimensional")
	}

	torque := floatutils.Clip(action.AtVec(0), MinContinuousAction,
		MaxContinuousAction)

	nextState := p.nextState(p.lastStep, torque)

	return p.update(action, nextState)
}

// ActionSpec returns the action specification of the environment
func (p *Continuous) ActionSpec() environment.Spec {
	shape := mat.NewVecDense(ActionDims, nil)

	minAction, maxAction := p.torqueBounds.Min, p.torqueBounds.Max
	lowerBound := mat.NewVecDense(ActionDims, []float64{minAction})
	upperBound := mat.NewVecDense(ActionDims, []float64{maxAction})

	return environment.NewSpec(shape, environment.Action, lowerBound,
		upperBound, environment.Continuous)
}
