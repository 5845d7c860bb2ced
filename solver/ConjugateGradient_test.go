package solver

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/kumarYashaswi/tensorforce/utils/floatutils"
	"github.com/kumarYashaswi/tensorforce/values"
)

// randomSPD returns a random symmetric positive-definite n x n matrix
func randomSPD(n int, seed uint64) *mat.Dense {
	rng := rand.New(rand.NewSource(seed))

	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.Set(i, j, rng.NormFloat64())
		}
	}

	// A = M^T M + n I is symmetric positive-definite
	a := mat.NewDense(n, n, nil)
	a.Mul(m.T(), m)
	for i := 0; i < n; i++ {
		a.Set(i, i, a.At(i, i)+float64(n))
	}
	return a
}

// matrixOperator returns an FnX computing A x over the flat
// representation of collections matching spec, together with a count of
// how many times the operator has been applied
func matrixOperator(spec *values.Spec, a *mat.Dense) (FnX, *int) {
	calls := new(int)
	fnX := func(x *values.Values) (*values.Values, error) {
		*calls++
		flat := x.Flatten()
		n := len(flat)

		ax := mat.NewVecDense(n, nil)
		ax.MulVec(a, mat.NewVecDense(n, flat))
		return spec.FromFlat(ax.RawVector().Data)
	}
	return fnX, calls
}

// referenceSolve solves A x = b directly
func referenceSolve(t *testing.T, a *mat.Dense, b []float64) []float64 {
	t.Helper()

	var x mat.VecDense
	if err := x.SolveVec(a, mat.NewVecDense(len(b), b)); err != nil {
		t.Fatalf("reference solve: %v", err)
	}
	return x.RawVector().Data
}

// singleKeySpec returns a values specification with one vector value
func singleKeySpec(t *testing.T, n int) *values.Spec {
	t.Helper()

	spec := values.NewSpec()
	if err := spec.Add("x", n); err != nil {
		t.Fatalf("add: %v", err)
	}
	return spec
}

func TestSolveMatchesDirectSolve(t *testing.T) {
	for _, n := range []int{1, 2, 5, 20} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			a := randomSPD(n, uint64(n))
			spec := singleKeySpec(t, n)
			fnX, _ := matrixOperator(spec, a)

			bFlat := make([]float64, n)
			for i := range bFlat {
				bFlat[i] = float64(i + 1)
			}
			b, err := spec.FromFlat(bFlat)
			if err != nil {
				t.Fatalf("fromFlat: %v", err)
			}

			cg, err := NewConjugateGradient(2*n, nil, false)
			if err != nil {
				t.Fatalf("newConjugateGradient: %v", err)
			}
			x, err := cg.Solve(nil, b, fnX)
			if err != nil {
				t.Fatalf("solve: %v", err)
			}

			want := referenceSolve(t, a, bFlat)
			got := x.Flatten()
			for i := range want {
				if math.Abs(got[i]-want[i]) > 1e-3 {
					t.Errorf("x[%d]: got %v, want %v", i, got[i], want[i])
				}
			}

			// The solution must satisfy the system up to the residual
			// threshold
			ax, err := fnX(x)
			if err != nil {
				t.Fatalf("fnX: %v", err)
			}
			diff, err := ax.FmapWith(
				func(ax, b float64) float64 { return ax - b }, b)
			if err != nil {
				t.Fatalf("fmapWith: %v", err)
			}
			if res := diff.SumSquares(); res > 10*floatutils.Epsilon {
				t.Errorf("residual energy %v exceeds threshold", res)
			}
		})
	}
}

func TestSolveMultiKeyStructure(t *testing.T) {
	// A block-diagonal operator over a two-key collection with
	// different per-key shapes
	spec := values.NewSpec()
	if err := spec.Add("mean", 2, 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := spec.Add("std", 4); err != nil {
		t.Fatalf("add: %v", err)
	}

	n := 10 // 6 + 4 elements
	a := randomSPD(n, 42)
	fnX, _ := matrixOperator(spec, a)

	bFlat := []float64{2, -1, 0.5, 3, 1, -2, 0.25, 4, -0.5, 1}
	b, err := spec.FromFlat(bFlat)
	if err != nil {
		t.Fatalf("fromFlat: %v", err)
	}

	cg, err := NewConjugateGradient(3*n, nil, false)
	if err != nil {
		t.Fatalf("newConjugateGradient: %v", err)
	}
	x, err := cg.Solve(nil, b, fnX)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if err := spec.Check(x); err != nil {
		t.Errorf("solution structure: %v", err)
	}

	want := referenceSolve(t, a, bFlat)
	for i, got := range x.Flatten() {
		if math.Abs(got-want[i]) > 1e-3 {
			t.Errorf("x[%d]: got %v, want %v", i, got, want[i])
		}
	}
}

func TestSolveZeroMaxIterations(t *testing.T) {
	n := 4
	a := randomSPD(n, 7)
	spec := singleKeySpec(t, n)
	fnX, calls := matrixOperator(spec, a)

	b, err := spec.FromFlat([]float64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("fromFlat: %v", err)
	}
	xInit, err := spec.FromFlat([]float64{-1, 0, 1, 2})
	if err != nil {
		t.Fatalf("fromFlat: %v", err)
	}

	cg, err := NewConjugateGradient(0, nil, false)
	if err != nil {
		t.Fatalf("newConjugateGradient: %v", err)
	}
	x, err := cg.Solve(xInit, b, fnX)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}

	// start applies the operator exactly once; step must never run
	if *calls != 1 {
		t.Errorf("operator applied %d times, want 1", *calls)
	}
	want := xInit.Flatten()
	for i, got := range x.Flatten() {
		if got != want[i] {
			t.Errorf("x[%d]: got %v, want initial guess %v", i, got, want[i])
		}
	}
}

func TestSolveDamping(t *testing.T) {
	n := 6
	a := randomSPD(n, 3)
	spec := singleKeySpec(t, n)
	fnX, _ := matrixOperator(spec, a)

	bFlat := []float64{1, -1, 2, -2, 3, -3}
	b, err := spec.FromFlat(bFlat)
	if err != nil {
		t.Fatalf("fromFlat: %v", err)
	}

	damping := 0.5
	cg, err := NewConjugateGradient(4*n, Constant(damping), false)
	if err != nil {
		t.Fatalf("newConjugateGradient: %v", err)
	}
	x, err := cg.Solve(nil, b, fnX)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}

	// Damping solves the regularized system (A + d I) x = b
	damped := mat.NewDense(n, n, nil)
	damped.CloneFrom(a)
	for i := 0; i < n; i++ {
		damped.Set(i, i, damped.At(i, i)+damping)
	}
	want := referenceSolve(t, damped, bFlat)
	for i, got := range x.Flatten() {
		if math.Abs(got-want[i]) > 1e-3 {
			t.Errorf("x[%d]: got %v, want %v", i, got, want[i])
		}
	}
}

func TestSolveDampingZeroMatchesUndamped(t *testing.T) {
	n := 5
	a := randomSPD(n, 11)
	spec := singleKeySpec(t, n)

	bFlat := []float64{0.5, 1.5, -2.5, 3.5, -4.5}
	b, err := spec.FromFlat(bFlat)
	if err != nil {
		t.Fatalf("fromFlat: %v", err)
	}

	solve := func(damping Parameter) []float64 {
		fnX, _ := matrixOperator(spec, a)
		cg, err := NewConjugateGradient(n, damping, false)
		if err != nil {
			t.Fatalf("newConjugateGradient: %v", err)
		}
		x, err := cg.Solve(nil, b, fnX)
		if err != nil {
			t.Fatalf("solve: %v", err)
		}
		return x.Flatten()
	}

	// Explicit zero damping takes the skip branch and must reproduce
	// the default bit-for-bit
	undamped := solve(nil)
	zeroDamped := solve(Constant(0.0))
	for i := range undamped {
		if undamped[i] != zeroDamped[i] {
			t.Errorf("x[%d]: zero damping %v != undamped %v", i,
				zeroDamped[i], undamped[i])
		}
	}
}

func TestSolveDampingIncreasesCurvatureTerm(t *testing.T) {
	// Identity operator, so with a zero initial guess the first
	// conjugate vector is b itself and c^T A c = b^T b exactly
	spec := singleKeySpec(t, 2)
	identity := func(x *values.Values) (*values.Values, error) {
		return x.Fmap(func(v float64) float64 { return v }), nil
	}

	b, err := spec.FromFlat([]float64{3, 4})
	if err != nil {
		t.Fatalf("fromFlat: %v", err)
	}
	rSquared := b.SumSquares()

	// A single iteration exposes c^T A c through the step size:
	// alpha = r_0^2 / cAc and x_1 = alpha * b
	cAc := func(damping float64) float64 {
		cg, err := NewConjugateGradient(1, Constant(damping), false)
		if err != nil {
			t.Fatalf("newConjugateGradient: %v", err)
		}
		x, err := cg.Solve(nil, b, identity)
		if err != nil {
			t.Fatalf("solve: %v", err)
		}
		alpha := x.Flatten()[0] / b.Flatten()[0]
		return rSquared / alpha
	}

	damping := 0.5
	undamped := cAc(0.0)
	damped := cAc(damping)

	if math.Abs(undamped-rSquared) > 1e-9 {
		t.Errorf("undamped cAc: got %v, want %v", undamped, rSquared)
	}
	if damped <= undamped {
		t.Errorf("damped cAc %v does not exceed undamped %v", damped,
			undamped)
	}

	// Damping adds exactly d * c^T c for the same conjugate vector
	want := undamped + damping*rSquared
	if math.Abs(damped-want) > 1e-9 {
		t.Errorf("damped cAc: got %v, want %v", damped, want)
	}
}

func TestSolveUnrolledMatchesDynamic(t *testing.T) {
	n := 8
	a := randomSPD(n, 19)
	spec := singleKeySpec(t, n)

	bFlat := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	b, err := spec.FromFlat(bFlat)
	if err != nil {
		t.Fatalf("fromFlat: %v", err)
	}

	// Before convergence (budget < dimension) and after convergence
	// (budget well past the iterations needed)
	for _, maxIterations := range []int{3, 10 * n} {
		t.Run(fmt.Sprintf("maxIterations=%d", maxIterations),
			func(t *testing.T) {
				solve := func(unroll bool) []float64 {
					fnX, _ := matrixOperator(spec, a)
					cg, err := NewConjugateGradient(maxIterations,
						Constant(0.1), unroll)
					if err != nil {
						t.Fatalf("newConjugateGradient: %v", err)
					}
					x, err := cg.Solve(nil, b, fnX)
					if err != nil {
						t.Fatalf("solve: %v", err)
					}
					return x.Flatten()
				}

				dynamic := solve(false)
				unrolled := solve(true)
				for i := range dynamic {
					if dynamic[i] != unrolled[i] {
						t.Errorf("x[%d]: unrolled %v != dynamic %v", i,
							unrolled[i], dynamic[i])
					}
				}
			})
	}
}

func TestSolveEmptyStructure(t *testing.T) {
	b := values.New()
	fnX := func(x *values.Values) (*values.Values, error) {
		return x.ZerosLike(), nil
	}

	cg, err := NewConjugateGradient(10, nil, false)
	if err != nil {
		t.Fatalf("newConjugateGradient: %v", err)
	}
	x, err := cg.Solve(nil, b, fnX)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}

	// All sums over an empty structure are zero, so the termination
	// predicate fails on the first check
	if x.Len() != 0 {
		t.Errorf("solution has %d values, want 0", x.Len())
	}
	if x.SumSquares() != 0.0 {
		t.Errorf("solution energy %v, want 0", x.SumSquares())
	}
}

func TestSolveFoldedResidual(t *testing.T) {
	n := 4
	a := randomSPD(n, 23)
	spec := singleKeySpec(t, n)
	fnX, _ := matrixOperator(spec, a)

	b, err := spec.FromFlat([]float64{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("fromFlat: %v", err)
	}

	cg, err := NewConjugateGradient(4*n, nil, false)
	if err != nil {
		t.Fatalf("newConjugateGradient: %v", err)
	}
	cg.UseFoldedResidual()

	// With a zero initial guess the folded residual x_0 - A x_0 is
	// zero, so the solver terminates immediately with the zero vector.
	// This pins the behavior of the folded formulation; the default
	// textbook residual b - A x_0 is covered by the other tests.
	x, err := cg.Solve(nil, b, fnX)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if got := x.SumSquares(); got != 0.0 {
		t.Errorf("folded residual with zero guess: energy %v, want 0", got)
	}
}

func TestSolveStructuralMismatchFromOperator(t *testing.T) {
	spec := singleKeySpec(t, 3)
	b, err := spec.FromFlat([]float64{1, 2, 3})
	if err != nil {
		t.Fatalf("fromFlat: %v", err)
	}

	other := values.NewSpec()
	if err := other.Add("y", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	fnX := func(x *values.Values) (*values.Values, error) {
		return other.Zeros(), nil
	}

	cg, err := NewConjugateGradient(5, nil, false)
	if err != nil {
		t.Fatalf("newConjugateGradient: %v", err)
	}
	if _, err := cg.Solve(nil, b, fnX); err == nil {
		t.Error("expected error for an operator returning a different " +
			"structure")
	}
}

func TestNewConjugateGradientValidation(t *testing.T) {
	if _, err := NewConjugateGradient(-1, nil, false); err == nil {
		t.Error("expected error for negative maxIterations")
	}
	if _, err := NewConjugateGradient(5, Constant(1.5), false); err == nil {
		t.Error("expected error for damping > 1")
	}
	if _, err := NewConjugateGradient(5, Constant(-0.1), false); err == nil {
		t.Error("expected error for negative damping")
	}
}

func TestSpecJSON(t *testing.T) {
	spec, err := NewSpec(ConjugateGradientSolver, ConjugateGradientConfig{
		MaxIterations: 12,
		Damping:       0.25,
	})
	if err != nil {
		t.Fatalf("newSpec: %v", err)
	}

	data, err := json.Marshal(spec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var loaded Spec
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if loaded.Type != ConjugateGradientSolver {
		t.Errorf("type: got %v, want %v", loaded.Type,
			ConjugateGradientSolver)
	}
	if loaded.Solver == nil {
		t.Error("unmarshal did not create a solver")
	}
}

func TestSpecJSONUnknownType(t *testing.T) {
	data := []byte(`{"Type": "Newton", "Config": {"MaxIterations": 3}}`)

	var loaded Spec
	if err := json.Unmarshal(data, &loaded); err == nil {
		t.Error("expected error unmarshalling an unknown solver type")
	}
}

func TestNewSpecInvalidType(t *testing.T) {
	_, err := NewSpec(Type("Newton"), ConjugateGradientConfig{
		MaxIterations: 3,
	})
	if err == nil {
		t.Error("expected error creating a spec with a mismatched type")
	}
}
