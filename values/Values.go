// Package values implements ordered, named collections of tensors which
// can be treated as a single flat vector by algorithms that need
// vector-space operations over heterogeneous structures, such as
// iterative linear-system solvers and optimizers.
package values

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Values is an ordered mapping from value name to a tensor of fixed
// shape. All tensors are float64. A Values is never mutated in place by
// the operations below; each operation returns a fresh Values so that
// algorithm state can be threaded through iterations as immutable
// snapshots.
type Values struct {
	keys []string
	data map[string]*tensor.Dense
}

// New returns a new, empty Values
func New() *Values {
	return &Values{
		keys: make([]string, 0),
		data: make(map[string]*tensor.Dense),
	}
}

// Set sets the tensor stored under name, appending name to the key
// order if it was not yet present. Only float64 tensors are accepted.
func (v *Values) Set(name string, t *tensor.Dense) error {
	if t.Dtype() != tensor.Float64 {
		return fmt.Errorf("set: value %v has dtype %v, requires %v", name,
			t.Dtype(), tensor.Float64)
	}
	if _, ok := v.data[name]; !ok {
		v.keys = append(v.keys, name)
	}
	v.data[name] = t
	return nil
}

// Get returns the tensor stored under name
func (v *Values) Get(name string) (*tensor.Dense, bool) {
	t, ok := v.data[name]
	return t, ok
}

// Keys returns the value names in their fixed order
func (v *Values) Keys() []string {
	keys := make([]string, len(v.keys))
	copy(keys, v.keys)
	return keys
}

// Len returns the number of named values
func (v *Values) Len() int {
	return len(v.keys)
}

// NumElements returns the total number of scalar elements across all
// named values
func (v *Values) NumElements() int {
	n := 0
	for _, key := range v.keys {
		n += v.data[key].Shape().TotalSize()
	}
	return n
}

// Clone returns a deep copy of the Values
func (v *Values) Clone() *Values {
	return v.Fmap(func(x float64) float64 { return x })
}

// ZerosLike returns a new Values of identical structure with every
// element set to zero
func (v *Values) ZerosLike() *Values {
	return v.Fmap(func(float64) float64 { return 0.0 })
}

// Fmap applies f elementwise to every value, returning a new Values of
// identical structure
func (v *Values) Fmap(f func(x float64) float64) *Values {
	out := New()
	for _, key := range v.keys {
		t := v.data[key]
		data := floats(t)
		mapped := make([]float64, len(data))
		for i, x := range data {
			mapped[i] = f(x)
		}
		out.keys = append(out.keys, key)
		out.data[key] = tensor.New(
			tensor.WithShape(t.Shape().Clone()...),
			tensor.WithBacking(mapped),
		)
	}
	return out
}

// FmapWith applies f elementwise to pairs of values zipped by key,
// returning a new Values of identical structure. The receiver supplies
// the first argument of f, other the second. A structural mismatch
// between the two collections is an error; no broadcasting is
// performed.
func (v *Values) FmapWith(f func(x, y float64) float64,
	other *Values) (*Values, error) {
	if err := v.matches(other); err != nil {
		return nil, fmt.Errorf("fmapWith: %v", err)
	}

	out := New()
	for _, key := range v.keys {
		t := v.data[key]
		data := floats(t)
		otherData := floats(other.data[key])
		mapped := make([]float64, len(data))
		for i, x := range data {
			mapped[i] = f(x, otherData[i])
		}
		out.keys = append(out.keys, key)
		out.data[key] = tensor.New(
			tensor.WithShape(t.Shape().Clone()...),
			tensor.WithBacking(mapped),
		)
	}
	return out, nil
}

// Flatten returns a copy of all elements concatenated in key order,
// each value flattened in row-major order
func (v *Values) Flatten() []float64 {
	flat := make([]float64, 0, v.NumElements())
	for _, key := range v.keys {
		flat = append(flat, floats(v.data[key])...)
	}
	return flat
}

// SumSquares returns the sum over all keys of the sum over all elements
// of the squared element value
func (v *Values) SumSquares() float64 {
	sum := 0.0
	for _, key := range v.keys {
		for _, x := range floats(v.data[key]) {
			sum += x * x
		}
	}
	return sum
}

// Dot returns the inner product of two structurally identical Values
func (v *Values) Dot(other *Values) (float64, error) {
	if err := v.matches(other); err != nil {
		return 0, fmt.Errorf("dot: %v", err)
	}

	sum := 0.0
	for _, key := range v.keys {
		data := floats(v.data[key])
		otherData := floats(other.data[key])
		for i, x := range data {
			sum += x * otherData[i]
		}
	}
	return sum, nil
}

// matches returns an error describing the first structural difference
// between two Values, or nil if they have identical keys and shapes
func (v *Values) matches(other *Values) error {
	if other == nil {
		return fmt.Errorf("no values to zip with")
	}
	if len(v.keys) != len(other.keys) {
		return fmt.Errorf("structural mismatch: %d values != %d values",
			len(v.keys), len(other.keys))
	}
	for i, key := range v.keys {
		if other.keys[i] != key {
			return fmt.Errorf("structural mismatch: value %v != value %v",
				key, other.keys[i])
		}
		shape := v.data[key].Shape()
		otherShape := other.data[key].Shape()
		if !shape.Eq(otherShape) {
			return fmt.Errorf("structural mismatch for value %v: "+
				"shape %v != shape %v", key, shape, otherShape)
		}
	}
	return nil
}

// floats returns the float64 backing of a tensor
func floats(t *tensor.Dense) []float64 {
	data, ok := t.Data().([]float64)
	if !ok {
		panic(fmt.Sprintf("floats: tensor backing is %T, not []float64",
			t.Data()))
	}
	return data
}
