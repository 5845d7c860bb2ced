package values

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Spec declares the structure of a Values: an ordered set of value
// names together with the tensor shape stored under each name. A Spec
// is supplied by whoever poses a problem over a Values (for example the
// learner whose weights the collection represents) and is used to
// construct zero collections and to validate collections crossing an
// API boundary.
type Spec struct {
	keys   []string
	shapes map[string][]int
}

// NewSpec returns a new, empty Spec
func NewSpec() *Spec {
	return &Spec{
		keys:   make([]string, 0),
		shapes: make(map[string][]int),
	}
}

// Add declares a value with the given name and shape. Shapes must have
// at least one dimension, and every dimension must be positive.
func (s *Spec) Add(name string, shape ...int) error {
	if _, ok := s.shapes[name]; ok {
		return fmt.Errorf("add: value %v already declared", name)
	}
	if len(shape) == 0 {
		return fmt.Errorf("add: value %v has no shape", name)
	}
	for _, dim := range shape {
		if dim <= 0 {
			return fmt.Errorf("add: value %v has non-positive dimension %v",
				name, dim)
		}
	}

	dims := make([]int, len(shape))
	copy(dims, shape)
	s.keys = append(s.keys, name)
	s.shapes[name] = dims
	return nil
}

// Keys returns the declared value names in order
func (s *Spec) Keys() []string {
	keys := make([]string, len(s.keys))
	copy(keys, s.keys)
	return keys
}

// Shape returns the declared shape of the named value
func (s *Spec) Shape(name string) ([]int, bool) {
	shape, ok := s.shapes[name]
	return shape, ok
}

// Zeros constructs a Values matching the Spec with every element set
// to zero
func (s *Spec) Zeros() *Values {
	out := New()
	for _, key := range s.keys {
		shape := s.shapes[key]
		size := 1
		for _, dim := range shape {
			size *= dim
		}
		out.keys = append(out.keys, key)
		out.data[key] = tensor.New(
			tensor.WithShape(shape...),
			tensor.WithBacking(make([]float64, size)),
		)
	}
	return out
}

// FromFlat constructs a Values matching the Spec from a flat slice
// holding all elements concatenated in key order, each value flattened
// in row-major order. The inverse of Values.Flatten for collections
// matching the Spec.
func (s *Spec) FromFlat(flat []float64) (*Values, error) {
	out := New()
	i := 0
	for _, key := range s.keys {
		shape := s.shapes[key]
		size := 1
		for _, dim := range shape {
			size *= dim
		}
		if i+size > len(flat) {
			return nil, fmt.Errorf("fromFlat: %d elements cannot fill "+
				"value %v", len(flat), key)
		}

		backing := make([]float64, size)
		copy(backing, flat[i:i+size])
		i += size

		out.keys = append(out.keys, key)
		out.data[key] = tensor.New(
			tensor.WithShape(shape...),
			tensor.WithBacking(backing),
		)
	}
	if i != len(flat) {
		return nil, fmt.Errorf("fromFlat: %d elements for %d declared",
			len(flat), i)
	}
	return out, nil
}

// Check validates that a Values has exactly the declared keys, order,
// and shapes
func (s *Spec) Check(v *Values) error {
	if v == nil {
		return fmt.Errorf("check: no values")
	}
	if len(v.keys) != len(s.keys) {
		return fmt.Errorf("check: %d values != %d declared", len(v.keys),
			len(s.keys))
	}
	for i, key := range s.keys {
		if v.keys[i] != key {
			return fmt.Errorf("check: value %v where %v declared", v.keys[i],
				key)
		}
		shape := v.data[key].Shape()
		if !shape.Eq(tensor.Shape(s.shapes[key])) {
			return fmt.Errorf("check: value %v has shape %v, declared %v",
				key, shape, tensor.Shape(s.shapes[key]))
		}
	}
	return nil
}
