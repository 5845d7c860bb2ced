// Package solver implements iterative solvers for systems of linear
// equations of the form A x = b, where the matrix A is not materialized
// but given implicitly through a function computing matrix-vector
// products A v. Solvers operate on values.Values so that a "vector" may
// be an arbitrary structured collection of named tensors, such as the
// weights of a learner.
package solver

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/kumarYashaswi/tensorforce/values"
)

// FnX computes the left-hand side A x of a system of linear equations
// for a solution candidate x. Implementations must be pure: the same
// input produces the same output, the output has the same structure as
// the input, and no external state is modified.
type FnX func(x *values.Values) (*values.Values, error)

// Solver iteratively solves a system of linear equations A x = b.
//
// Solve returns the best solution estimate available after at most the
// solver's configured number of iterations. Failure to converge within
// the iteration budget is not an error. xInit is the initial solution
// guess and may be nil, in which case an algorithm-defined default is
// used.
type Solver interface {
	Solve(xInit, b *values.Values, fnX FnX) (*values.Values, error)
}

// Parameter is a scalar hyperparameter which may vary over the
// lifetime of training, for example an annealed damping factor. Uses
// which require a fixed value for the duration of an operation resolve
// the parameter exactly once at the start of that operation.
type Parameter interface {
	Value() float64
}

// Constant is a Parameter with a fixed value
type Constant float64

// Value returns the constant's value
func (c Constant) Value() float64 {
	return float64(c)
}

// Type describes the different types of solvers that are available
type Type string

// Available solver types
const (
	ConjugateGradientSolver Type = "ConjugateGradient"
)

// Config describes a Solver and can be used to create the Solver it
// describes
type Config interface {
	Create() (Solver, error)

	// ValidType returns whether a specific Solver type can be created
	// with the Config
	ValidType(Type) bool
}

// Spec wraps a Solver together with the Type and Config that created
// it so that solvers can be JSON serialized into configuration files.
type Spec struct {
	Solver `json:"-"`
	Type
	Config
}

// NewSpec returns a new Spec holding a solver of the given type and
// configuration.
func NewSpec(t Type, c Config) (*Spec, error) {
	if !c.ValidType(t) {
		return nil, fmt.Errorf("newSpec: invalid solver type %v for "+
			"configuration %T", t, c)
	}

	solver, err := c.Create()
	if err != nil {
		return nil, fmt.Errorf("newSpec: %v", err)
	}

	return &Spec{Solver: solver, Type: t, Config: c}, nil
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (s *Spec) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(
		data,
		"Type",
		"Config",
		map[string]reflect.Type{
			string(ConjugateGradientSolver): reflect.TypeOf(
				ConjugateGradientConfig{},
			),
		})
	if err != nil {
		return err
	}

	s.Type = typeName
	s.Config = config
	s.Solver, err = s.Config.Create()

	return err
}

// unmarshalConfig uses reflection to unmarshal a Config into its
// concrete type. Both the Config and its Type are returned. An
// unregistered type name is a configuration error.
func unmarshalConfig(data []byte, typeJsonField, valueJsonField string,
	customTypes map[string]reflect.Type) (Config, Type, error) {
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", err
	}

	typeName, ok := m[typeJsonField].(string)
	if !ok {
		return nil, "", fmt.Errorf("unmarshalConfig: no %v field",
			typeJsonField)
	}

	ty, found := customTypes[typeName]
	if !found {
		return nil, "", fmt.Errorf("unmarshalConfig: unknown solver type %v",
			typeName)
	}
	value := reflect.New(ty).Interface().(Config)

	valueBytes, err := json.Marshal(m[valueJsonField])
	if err != nil {
		return nil, "", err
	}

	if err = json.Unmarshal(valueBytes, &value); err != nil {
		return nil, "", err
	}

	return value, Type(typeName), nil
}
