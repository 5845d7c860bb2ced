package solver

import (
	"fmt"

	"github.com/kumarYashaswi/tensorforce/values"
)

// State holds the algorithm-specific variables threaded through a
// solve loop. A State is produced by one iteration and consumed by the
// next; it is never shared between iterations or mutated after being
// returned.
type State interface{}

// algorithm is the algorithm-specific portion of an iterative solver.
// The generic loop in Iterative drives these callbacks; a concrete
// algorithm binds any per-solve quantities, such as the linear operator
// and resolved hyperparameters, before handing itself to the loop so
// that no resolution happens mid-solve.
type algorithm interface {
	// start produces the initial State from the initial solution guess
	// and the right-hand side
	start(xInit, b *values.Values) (State, error)

	// step computes the State of the next iteration from the current
	// one
	step(s State) (State, error)

	// nextStep returns whether another iteration should be performed
	nextStep(s State) bool

	// end extracts the solution from the final State
	end(s State) *values.Values
}

// Iterative implements the generic bounded loop shared by iterative
// solvers: run at most maxIterations steps, stopping early once the
// algorithm's termination predicate reports convergence.
//
// Two execution strategies are supported. The dynamic strategy checks
// the termination predicate before every step and exits the loop the
// first time it fails. The unrolled strategy always executes
// maxIterations iterations but gates each iteration body on the same
// predicate, so iterations past convergence leave the State untouched.
// The two strategies produce identical results.
type Iterative struct {
	maxIterations int
	unrollLoop    bool
}

// newIterative returns a new Iterative loop bound to at most
// maxIterations iterations
func newIterative(maxIterations int, unrollLoop bool) (Iterative, error) {
	if maxIterations < 0 {
		return Iterative{}, fmt.Errorf("newIterative: maxIterations must "+
			"be non-negative, got %v", maxIterations)
	}
	return Iterative{maxIterations: maxIterations, unrollLoop: unrollLoop}, nil
}

// MaxIterations returns the iteration bound of the loop
func (it Iterative) MaxIterations() int {
	return it.maxIterations
}

// run drives alg's callbacks. With maxIterations == 0 the output of
// start is finalized and returned without any step calls. Errors from
// the algorithm's callbacks abort the loop and propagate to the caller
// unchanged.
func (it Iterative) run(alg algorithm, xInit,
	b *values.Values) (*values.Values, error) {
	s, err := alg.start(xInit, b)
	if err != nil {
		return nil, err
	}

	if it.unrollLoop {
		for i := 0; i < it.maxIterations; i++ {
			if !alg.nextStep(s) {
				continue
			}
			s, err = alg.step(s)
			if err != nil {
				return nil, err
			}
		}
	} else {
		for i := 0; i < it.maxIterations; i++ {
			if !alg.nextStep(s) {
				break
			}
			s, err = alg.step(s)
			if err != nil {
				return nil, err
			}
		}
	}

	return alg.end(s), nil
}
