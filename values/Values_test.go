package values

import (
	"math"
	"testing"

	"gorgonia.org/tensor"
)

// newTestValues returns a Values with two differently shaped keys
func newTestValues(t *testing.T) *Values {
	t.Helper()

	v := New()
	err := v.Set("mean", tensor.New(
		tensor.WithShape(2, 3),
		tensor.WithBacking([]float64{1, 2, 3, 4, 5, 6}),
	))
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	err = v.Set("std", tensor.New(
		tensor.WithShape(2),
		tensor.WithBacking([]float64{-1, 0.5}),
	))
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	return v
}

func TestFmap(t *testing.T) {
	v := newTestValues(t)
	doubled := v.Fmap(func(x float64) float64 { return 2 * x })

	want := []float64{2, 4, 6, 8, 10, 12, -2, 1}
	got := doubled.Flatten()
	if len(got) != len(want) {
		t.Fatalf("flatten: got %d elements, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d: got %v, want %v", i, got[i], want[i])
		}
	}

	// The receiver must be untouched
	if v.Flatten()[0] != 1 {
		t.Error("fmap mutated its receiver")
	}
}

func TestFmapWith(t *testing.T) {
	v := newTestValues(t)
	w := v.Fmap(func(x float64) float64 { return 10 * x })

	sum, err := v.FmapWith(func(x, y float64) float64 { return x + y }, w)
	if err != nil {
		t.Fatalf("fmapWith: %v", err)
	}
	got := sum.Flatten()
	for i, x := range v.Flatten() {
		if got[i] != 11*x {
			t.Errorf("element %d: got %v, want %v", i, got[i], 11*x)
		}
	}
}

func TestFmapWithStructuralMismatch(t *testing.T) {
	v := newTestValues(t)

	// Different key set
	w := New()
	err := w.Set("mean", tensor.New(
		tensor.WithShape(2, 3),
		tensor.WithBacking(make([]float64, 6)),
	))
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := v.FmapWith(func(x, y float64) float64 { return x }, w); err == nil {
		t.Error("expected error zipping values with different key sets")
	}

	// Same keys, different shape
	w = v.Clone()
	err = w.Set("std", tensor.New(
		tensor.WithShape(3),
		tensor.WithBacking(make([]float64, 3)),
	))
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := v.FmapWith(func(x, y float64) float64 { return x }, w); err == nil {
		t.Error("expected error zipping values with different shapes")
	}
}

func TestSumSquaresAndDot(t *testing.T) {
	v := newTestValues(t)

	want := 0.0
	for _, x := range v.Flatten() {
		want += x * x
	}
	if got := v.SumSquares(); got != want {
		t.Errorf("sumSquares: got %v, want %v", got, want)
	}

	dot, err := v.Dot(v)
	if err != nil {
		t.Fatalf("dot: %v", err)
	}
	if math.Abs(dot-want) > 1e-15 {
		t.Errorf("dot: got %v, want %v", dot, want)
	}
}

func TestZerosLike(t *testing.T) {
	v := newTestValues(t)
	z := v.ZerosLike()

	if z.Len() != v.Len() {
		t.Fatalf("zerosLike: got %d values, want %d", z.Len(), v.Len())
	}
	if got := z.SumSquares(); got != 0.0 {
		t.Errorf("zerosLike: sum of squares %v, want 0", got)
	}
}

func TestSetRejectsNonFloat64(t *testing.T) {
	v := New()
	err := v.Set("ints", tensor.New(
		tensor.WithShape(2),
		tensor.WithBacking([]int{1, 2}),
	))
	if err == nil {
		t.Error("expected error setting a non-float64 tensor")
	}
}

func TestSpecZerosAndCheck(t *testing.T) {
	spec := NewSpec()
	if err := spec.Add("mean", 2, 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := spec.Add("std", 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	zeros := spec.Zeros()
	if err := spec.Check(zeros); err != nil {
		t.Errorf("check: %v", err)
	}
	if zeros.NumElements() != 8 {
		t.Errorf("zeros: got %d elements, want 8", zeros.NumElements())
	}

	if err := spec.Check(zeros.ZerosLike()); err != nil {
		t.Errorf("check of structurally equal values: %v", err)
	}

	other := New()
	err := other.Set("mean", tensor.New(
		tensor.WithShape(3, 2),
		tensor.WithBacking(make([]float64, 6)),
	))
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := spec.Check(other); err == nil {
		t.Error("expected check to reject a mismatched structure")
	}
}

func TestSpecAddValidation(t *testing.T) {
	spec := NewSpec()
	if err := spec.Add("w"); err == nil {
		t.Error("expected error declaring a value with no shape")
	}
	if err := spec.Add("w", 0); err == nil {
		t.Error("expected error declaring a zero dimension")
	}
	if err := spec.Add("w", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := spec.Add("w", 2); err == nil {
		t.Error("expected error declaring a duplicate value")
	}
}

func TestFlattenRoundTrip(t *testing.T) {
	spec := NewSpec()
	if err := spec.Add("mean", 2, 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := spec.Add("std", 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	v := newTestValues(t)
	flat := v.Flatten()
	back, err := spec.FromFlat(flat)
	if err != nil {
		t.Fatalf("fromFlat: %v", err)
	}
	got := back.Flatten()
	for i := range flat {
		if got[i] != flat[i] {
			t.Errorf("element %d: got %v, want %v", i, got[i], flat[i])
		}
	}

	if _, err := spec.FromFlat(flat[:3]); err == nil {
		t.Error("expected error building values from a short slice")
	}
}
