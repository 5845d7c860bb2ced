package optimizer

import (
	"fmt"

	"github.com/kumarYashaswi/tensorforce/solver"
	"github.com/kumarYashaswi/tensorforce/values"
)

// naturalGradient implements natural gradient descent. The update
// direction solves F x = g, where g is the loss gradient and F is the
// curvature matrix supplied implicitly through Arguments.FnX, usually
// a Fisher-information-vector product. The system is solved with a
// conjugate gradient solver, so F is never materialized.
type naturalGradient struct {
	cg           solver.Solver
	learningRate float64
}

// Type returns the registered type of the optimizer
func (n *naturalGradient) Type() Type {
	return NaturalGradient
}

// Step computes and applies a single natural gradient update
func (n *naturalGradient) Step(args *Arguments) (*values.Values, error) {
	if args == nil || args.Gradient == nil || args.Apply == nil {
		return nil, fmt.Errorf("step: arguments require Gradient and Apply")
	}
	if args.FnX == nil {
		return nil, fmt.Errorf("step: natural gradient requires the " +
			"curvature-vector product FnX")
	}

	grad, err := args.Gradient(args.Batch)
	if err != nil {
		return nil, fmt.Errorf("step: %v", err)
	}

	// The curvature product is built on the same batch the gradient
	// was computed on
	direction, err := n.cg.Solve(nil, grad, args.FnX(args.Batch))
	if err != nil {
		return nil, fmt.Errorf("step: %v", err)
	}

	learningRate := n.learningRate
	delta := direction.Fmap(func(x float64) float64 {
		return -learningRate * x
	})
	if err := args.Apply(delta); err != nil {
		return nil, fmt.Errorf("step: %v", err)
	}
	return delta, nil
}

// NaturalGradientConfig describes a configuration of the natural
// gradient optimizer. CGMaxIterations and Damping configure the inner
// conjugate gradient solve of F x = g.
type NaturalGradientConfig struct {
	LearningRate    float64
	CGMaxIterations int
	Damping         float64
	UnrollLoop      bool
}

// Create returns a new natural gradient optimizer as described by the
// config
func (n NaturalGradientConfig) Create() (Optimizer, error) {
	if n.LearningRate <= 0 {
		return nil, fmt.Errorf("create: learning rate must be positive, "+
			"got %v", n.LearningRate)
	}

	cg, err := solver.NewConjugateGradient(n.CGMaxIterations,
		solver.Constant(n.Damping), n.UnrollLoop)
	if err != nil {
		return nil, fmt.Errorf("create: %v", err)
	}

	return &naturalGradient{cg: cg, learningRate: n.LearningRate}, nil
}

// ValidType returns if the given Optimizer type is a valid type to be
// created with this config.
func (n NaturalGradientConfig) ValidType(t Type) bool {
	return t == NaturalGradient
}

// Type returns the type of the Optimizer the Config describes
func (n NaturalGradientConfig) Type() Type {
	return NaturalGradient
}
