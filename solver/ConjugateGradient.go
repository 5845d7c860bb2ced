package solver

import (
	"fmt"
	"math"

	"github.com/kumarYashaswi/tensorforce/utils/floatutils"
	"github.com/kumarYashaswi/tensorforce/values"
)

// ConjugateGradient iteratively finds a solution x for a system of
// linear equations A x = b, where A x could be, for instance, a locally
// linear approximation of a high-dimensional function. A must be
// symmetric positive-(semi)definite. A Tikhonov damping factor d > 0
// solves the regularized system (A + d I) x = b instead.
//
// Pseudo-code, following
// https://en.wikipedia.org/wiki/Conjugate_gradient_method:
//
//	r_0 := b - A * x_0
//	c_0 := r_0
//	r_0^2 := r_0^T * r_0
//
//	for t in 0, ..., maxIterations - 1:
//		if r_t^2 < epsilon: break
//		Ac := A * c_t
//		cAc := c_t^T * Ac
//		alpha := r_t^2 / cAc
//		x_{t+1} := x_t + alpha * c_t
//		r_{t+1} := r_t - alpha * Ac
//		r_{t+1}^2 := r_{t+1}^T * r_{t+1}
//		beta := r_{t+1}^2 / r_t^2
//		c_{t+1} := r_{t+1} + beta * c_t
type ConjugateGradient struct {
	Iterative
	damping Parameter

	// foldedResidual computes the initial residual as x_0 - A x_0
	// instead of b - A x_0, for callers whose fnX closes over the
	// right-hand side
	foldedResidual bool
}

// NewConjugateGradient returns a new conjugate gradient solver
// performing at most maxIterations iterations. damping is the Tikhonov
// damping factor in [0.0, 1.0] and may be nil for no damping. With
// unrollLoop, the solve loop always executes maxIterations gated
// iterations instead of exiting on convergence.
func NewConjugateGradient(maxIterations int, damping Parameter,
	unrollLoop bool) (*ConjugateGradient, error) {
	it, err := newIterative(maxIterations, unrollLoop)
	if err != nil {
		return nil, fmt.Errorf("newConjugateGradient: %v", err)
	}

	if damping == nil {
		damping = Constant(0.0)
	}
	if c, ok := damping.(Constant); ok {
		if c < 0.0 || c > 1.0 {
			return nil, fmt.Errorf("newConjugateGradient: damping must be "+
				"in [0.0, 1.0], got %v", float64(c))
		}
	}

	return &ConjugateGradient{Iterative: it, damping: damping}, nil
}

// UseFoldedResidual makes start compute the initial residual as
// x_0 - A x_0 rather than b - A x_0. Only callers whose fnX already
// accounts for the right-hand side should enable this.
func (c *ConjugateGradient) UseFoldedResidual() {
	c.foldedResidual = true
}

// Solve iteratively solves A x = b, where fnX computes A x. xInit is
// the initial solution guess and may be nil for the zero vector. The
// damping parameter is resolved once per call and held constant across
// the loop. Solve returns the best solution estimate available within
// the iteration budget; non-convergence is not an error.
func (c *ConjugateGradient) Solve(xInit, b *values.Values,
	fnX FnX) (*values.Values, error) {
	if b == nil {
		return nil, fmt.Errorf("solve: no right-hand side b")
	}
	if fnX == nil {
		return nil, fmt.Errorf("solve: no linear operator fnX")
	}

	damping := c.damping.Value()
	if damping < 0.0 || damping > 1.0 {
		return nil, fmt.Errorf("solve: damping must be in [0.0, 1.0], "+
			"got %v", damping)
	}

	run := &cgRun{
		fnX:            fnX,
		damping:        damping,
		foldedResidual: c.foldedResidual,
	}
	return c.run(run, xInit, b)
}

// cgState holds the loop variables of the conjugate gradient
// algorithm. squaredResidual is always the exact sum of squares of
// residual as of the last update.
type cgState struct {
	x               *values.Values
	conjugate       *values.Values
	residual        *values.Values
	squaredResidual float64
}

// cgRun binds one Solve call's operator and resolved hyperparameters,
// so the loop body never re-reads externally mutable parameters
type cgRun struct {
	fnX            FnX
	damping        float64
	foldedResidual bool
}

// start prepares the loop variables for the first iteration:
// x_0, c_0, r_0, r_0^2
func (r *cgRun) start(xInit, b *values.Values) (State, error) {
	if xInit == nil {
		// Initial guess is the zero vector if not given
		xInit = b.ZerosLike()
	}

	fx, err := r.fnX(xInit)
	if err != nil {
		return nil, fmt.Errorf("start: %v", err)
	}

	var residual *values.Values
	if r.foldedResidual {
		residual, err = xInit.FmapWith(
			func(x, fx float64) float64 { return x - fx }, fx)
	} else {
		// r_0 := b - A * x_0
		residual, err = b.FmapWith(
			func(b, fx float64) float64 { return b - fx }, fx)
	}
	if err != nil {
		return nil, fmt.Errorf("start: %v", err)
	}

	// c_0 := r_0, r_0^2 := r_0^T * r_0
	return &cgState{
		x:               xInit,
		conjugate:       residual,
		residual:        residual,
		squaredResidual: residual.SumSquares(),
	}, nil
}

// step computes the loop variables of the next iteration from the
// current ones
func (r *cgRun) step(s State) (State, error) {
	st := s.(*cgState)

	// Ac := A * c_t
	aConjugate, err := r.fnX(st.conjugate)
	if err != nil {
		return nil, fmt.Errorf("step: %v", err)
	}

	// Damping solves (A + d I) x = b; skipped entirely when disabled
	if r.damping != 0.0 {
		damping := r.damping
		aConjugate, err = aConjugate.FmapWith(
			func(ac, c float64) float64 { return ac + damping*c },
			st.conjugate)
		if err != nil {
			return nil, fmt.Errorf("step: %v", err)
		}
	}

	// cAc := c_t^T * Ac
	conjugateAConjugate, err := st.conjugate.Dot(aConjugate)
	if err != nil {
		return nil, fmt.Errorf("step: %v", err)
	}

	// alpha := r_t^2 / cAc
	alpha := st.squaredResidual /
		math.Max(conjugateAConjugate, floatutils.Epsilon)

	// x_{t+1} := x_t + alpha * c_t
	nextX, err := st.x.FmapWith(
		func(x, c float64) float64 { return x + alpha*c }, st.conjugate)
	if err != nil {
		return nil, fmt.Errorf("step: %v", err)
	}

	// r_{t+1} := r_t - alpha * Ac
	nextResidual, err := st.residual.FmapWith(
		func(res, ac float64) float64 { return res - alpha*ac }, aConjugate)
	if err != nil {
		return nil, fmt.Errorf("step: %v", err)
	}

	// r_{t+1}^2 := r_{t+1}^T * r_{t+1}
	nextSquaredResidual := nextResidual.SumSquares()

	// beta := r_{t+1}^2 / r_t^2
	beta := nextSquaredResidual /
		math.Max(st.squaredResidual, floatutils.Epsilon)

	// c_{t+1} := r_{t+1} + beta * c_t
	nextConjugate, err := nextResidual.FmapWith(
		func(res, c float64) float64 { return res + beta*c }, st.conjugate)
	if err != nil {
		return nil, fmt.Errorf("step: %v", err)
	}

	return &cgState{
		x:               nextX,
		conjugate:       nextConjugate,
		residual:        nextResidual,
		squaredResidual: nextSquaredResidual,
	}, nil
}

// nextStep returns whether the residual energy still exceeds the
// numerical floor. The threshold is the same epsilon used to floor
// denominators in step.
func (r *cgRun) nextStep(s State) bool {
	return s.(*cgState).squaredResidual >= floatutils.Epsilon
}

// end extracts the solution estimate from the final State
func (r *cgRun) end(s State) *values.Values {
	return s.(*cgState).x
}

// ConjugateGradientConfig describes a configuration of the conjugate
// gradient solver
type ConjugateGradientConfig struct {
	MaxIterations  int
	Damping        float64
	UnrollLoop     bool
	FoldedResidual bool
}

// Create returns a new conjugate gradient solver as described by the
// config
func (c ConjugateGradientConfig) Create() (Solver, error) {
	cg, err := NewConjugateGradient(c.MaxIterations, Constant(c.Damping),
		c.UnrollLoop)
	if err != nil {
		return nil, err
	}
	if c.FoldedResidual {
		cg.UseFoldedResidual()
	}
	return cg, nil
}

// ValidType returns if the given Solver type is a valid type to be
// created with this config.
func (c ConjugateGradientConfig) ValidType(t Type) bool {
	return t == ConjugateGradientSolver
}
