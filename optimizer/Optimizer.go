// Package optimizer implements optimizers which compute and apply
// updates to the weights of a learner, together with update modifiers
// which decorate an optimizer with a cross-cutting concern such as
// clipping, batch subsampling, line search, or update repetition.
// Modifiers nest: each exclusively owns the optimizer it wraps, so a
// fully configured optimizer is a strict tree built once at
// construction time.
package optimizer

import (
	"fmt"
	"reflect"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/kumarYashaswi/tensorforce/solver"
	"github.com/kumarYashaswi/tensorforce/values"
)

// Batch holds one update's worth of data, one row per timestep
type Batch struct {
	States     *mat.Dense
	Actions    *mat.Dense
	Advantages []float64
}

// Len returns the number of timesteps in the batch
func (b Batch) Len() int {
	if b.States == nil {
		return 0
	}
	rows, _ := b.States.Dims()
	return rows
}

// Subsample returns a batch holding a random subset of the receiver's
// timesteps. The subset size is fraction of the batch size, rounded up
// so that at least one timestep survives.
func (b Batch) Subsample(rng *rand.Rand, fraction float64) Batch {
	n := b.Len()
	if n == 0 {
		return b
	}

	size := int(fraction * float64(n))
	if size < 1 {
		size = 1
	}
	if size >= n {
		return b
	}

	perm := rng.Perm(n)[:size]

	_, stateCols := b.States.Dims()
	states := mat.NewDense(size, stateCols, nil)
	var actions *mat.Dense
	if b.Actions != nil {
		_, actionCols := b.Actions.Dims()
		actions = mat.NewDense(size, actionCols, nil)
	}

	var advantages []float64
	if b.Advantages != nil {
		advantages = make([]float64, size)
	}

	for i, row := range perm {
		states.SetRow(i, b.States.RawRowView(row))
		if actions != nil {
			actions.SetRow(i, b.Actions.RawRowView(row))
		}
		if advantages != nil {
			advantages[i] = b.Advantages[row]
		}
	}

	return Batch{States: states, Actions: actions, Advantages: advantages}
}

// Arguments packages the callbacks and data a Step operates on. The
// callbacks are supplied by the learner whose weights are being
// optimized and always evaluate at the learner's current weights, so
// an optimizer observes the effect of updates it has already applied.
type Arguments struct {
	// Batch is the data the update is computed on
	Batch Batch

	// Gradient returns the gradient of the loss with respect to the
	// learner's weights on the given batch
	Gradient func(batch Batch) (*values.Values, error)

	// Loss evaluates the loss on the given batch. Required only by
	// optimizers that search over candidate updates.
	Loss func(batch Batch) (float64, error)

	// FnX returns a closure computing the product of the problem's
	// curvature matrix on the given batch, for example the Fisher
	// information, with a vector. Required only by second-order
	// optimizers. Taking the batch here keeps the curvature consistent
	// with the gradient when a modifier narrows the batch.
	FnX func(batch Batch) solver.FnX

	// Apply commits a delta to the learner's weights
	Apply func(delta *values.Values) error
}

// Optimizer computes and applies weight updates
type Optimizer interface {
	// Step computes and applies a single update to the learner's
	// weights, returning the delta left applied when Step returns
	Step(args *Arguments) (*values.Values, error)

	// Type returns the registered type of the optimizer
	Type() Type
}

// UpdateModifier is an Optimizer decorating an inner optimizer with
// one cross-cutting concern
type UpdateModifier interface {
	Optimizer

	// Inner returns the wrapped optimizer
	Inner() Optimizer
}

// Type describes the different types of optimizers that are available
type Type string

// Available optimizer types
const (
	Vanilla         Type = "Vanilla"
	Adam            Type = "Adam"
	NaturalGradient Type = "NaturalGradient"
	MultiStep       Type = "MultiStep"
	SubsamplingStep Type = "SubsamplingStep"
	ClippingStep    Type = "ClippingStep"
	OptimizingStep  Type = "OptimizingStep"
)

// Config describes an Optimizer and can be used to create the
// Optimizer it describes
type Config interface {
	Create() (Optimizer, error)

	// ValidType returns whether a specific Optimizer type can be
	// created with the Config
	ValidType(Type) bool

	// Type returns the type of the Optimizer the Config describes
	Type() Type
}

// Registered types with the package. Construction goes through this
// registry so that a configuration naming an unknown optimizer type
// fails before any update runs.
var registeredConfigs map[Type]reflect.Type

func init() {
	registeredConfigs = make(map[Type]reflect.Type)

	Register(Vanilla, VanillaConfig{})
	Register(Adam, AdamConfig{})
	Register(NaturalGradient, NaturalGradientConfig{})
	Register(MultiStep, MultiStepConfig{})
	Register(SubsamplingStep, SubsamplingStepConfig{})
	Register(ClippingStep, ClippingStepConfig{})
	Register(OptimizingStep, OptimizingStepConfig{})
}

// Register registers an optimizer Type with a concrete Config type.
// Externally defined optimizers must register themselves before their
// configurations can be resolved.
func Register(t Type, config Config) {
	registeredConfigs[t] = reflect.TypeOf(config)
}

// create resolves a Config's type through the registry and creates the
// optimizer it describes
func create(c Config) (Optimizer, error) {
	if c == nil {
		return nil, fmt.Errorf("create: no optimizer configuration")
	}

	t := c.Type()
	if _, ok := registeredConfigs[t]; !ok {
		return nil, fmt.Errorf("create: unknown optimizer type %v", t)
	}
	if !c.ValidType(t) {
		return nil, fmt.Errorf("create: invalid optimizer type %v for "+
			"configuration %T", t, c)
	}

	return c.Create()
}

// Create resolves and creates the optimizer described by c. Unknown or
// mismatched optimizer types are configuration errors.
func Create(c Config) (Optimizer, error) {
	return create(c)
}
