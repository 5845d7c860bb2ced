package optimizer

import (
	"fmt"

	G "gorgonia.org/gorgonia"

	"github.com/kumarYashaswi/tensorforce/values"
)

// gradientDescent implements first-order optimizers by delegating the
// update rule to a Gorgonia solver. The solver writes its in-place
// update into a zero collection paired with the gradient, so the zero
// collection holds exactly the delta afterwards; stateful rules such
// as Adam keep their moment estimates inside the Gorgonia solver
// across steps.
type gradientDescent struct {
	t      Type
	solver G.Solver
}

// newGradientDescent returns an optimizer of type t delegating to the
// given Gorgonia solver
func newGradientDescent(t Type, solver G.Solver) *gradientDescent {
	return &gradientDescent{t: t, solver: solver}
}

// Type returns the registered type of the optimizer
func (g *gradientDescent) Type() Type {
	return g.t
}

// Step computes and applies a single first-order update
func (g *gradientDescent) Step(args *Arguments) (*values.Values, error) {
	if args == nil || args.Gradient == nil || args.Apply == nil {
		return nil, fmt.Errorf("step: arguments require Gradient and Apply")
	}

	grad, err := args.Gradient(args.Batch)
	if err != nil {
		return nil, fmt.Errorf("step: %v", err)
	}

	delta := grad.ZerosLike()
	model, err := valueGrads(delta, grad)
	if err != nil {
		return nil, fmt.Errorf("step: %v", err)
	}
	if err := g.solver.Step(model); err != nil {
		return nil, fmt.Errorf("step: %v", err)
	}

	if err := args.Apply(delta); err != nil {
		return nil, fmt.Errorf("step: %v", err)
	}
	return delta, nil
}

// valueGrad pairs a weight tensor with its gradient so that Gorgonia
// solvers can step it
type valueGrad struct {
	value G.Value
	grad  G.Value
}

// Value returns the weight tensor
func (v valueGrad) Value() G.Value {
	return v.value
}

// Grad returns the gradient of the weight tensor
func (v valueGrad) Grad() (G.Value, error) {
	return v.grad, nil
}

// valueGrads pairs the tensors of two structurally identical
// collections, in key order
func valueGrads(value, grad *values.Values) ([]G.ValueGrad, error) {
	model := make([]G.ValueGrad, 0, value.Len())
	for _, key := range value.Keys() {
		v, _ := value.Get(key)
		g, ok := grad.Get(key)
		if !ok {
			return nil, fmt.Errorf("valueGrads: no gradient for value %v",
				key)
		}
		model = append(model, valueGrad{value: v, grad: g})
	}
	return model, nil
}
