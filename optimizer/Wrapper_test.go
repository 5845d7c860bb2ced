package optimizer

import (
	"testing"
)

// unwrap asserts that opt is an update modifier of the wanted type and
// returns the optimizer it wraps
func unwrap(t *testing.T, opt Optimizer, want Type) Optimizer {
	t.Helper()

	if opt.Type() != want {
		t.Fatalf("optimizer type: got %v, want %v", opt.Type(), want)
	}
	modifier, ok := opt.(UpdateModifier)
	if !ok {
		t.Fatalf("optimizer of type %v is not an update modifier",
			opt.Type())
	}
	return modifier.Inner()
}

// assertBase asserts that opt is a plain optimizer of the wanted type,
// wrapping nothing
func assertBase(t *testing.T, opt Optimizer, want Type) {
	t.Helper()

	if opt.Type() != want {
		t.Fatalf("base optimizer type: got %v, want %v", opt.Type(), want)
	}
	if _, ok := opt.(UpdateModifier); ok {
		t.Fatalf("base optimizer of type %v is an update modifier",
			opt.Type())
	}
}

func TestWrapperNesting(t *testing.T) {
	opt, err := NewUpdateModifierWrapper(WrapperConfig{
		Optimizer:         VanillaConfig{StepSize: 0.1},
		MultiStep:         3,
		ClippingThreshold: 1.0,
	})
	if err != nil {
		t.Fatalf("newUpdateModifierWrapper: %v", err)
	}

	// Multi-step must wrap clipping, which must wrap the base
	inner := unwrap(t, opt, MultiStep)
	inner = unwrap(t, inner, ClippingStep)
	assertBase(t, inner, Vanilla)

	if ms, ok := opt.(*multiStep); !ok || ms.numSteps != 3 {
		t.Errorf("outer layer: got %T, want *multiStep with 3 steps", opt)
	}
}

func TestWrapperSingleLayer(t *testing.T) {
	opt, err := NewUpdateModifierWrapper(WrapperConfig{
		Optimizer:            VanillaConfig{StepSize: 0.1},
		OptimizingIterations: 5,
	})
	if err != nil {
		t.Fatalf("newUpdateModifierWrapper: %v", err)
	}

	inner := unwrap(t, opt, OptimizingStep)
	assertBase(t, inner, Vanilla)

	if ls, ok := opt.(*optimizingStep); !ok || ls.maxIterations != 5 {
		t.Errorf("outer layer: got %T, want *optimizingStep with 5 "+
			"iterations", opt)
	}
}

func TestWrapperFullStack(t *testing.T) {
	opt, err := NewUpdateModifierWrapper(WrapperConfig{
		Optimizer:            VanillaConfig{StepSize: 0.1},
		MultiStep:            2,
		SubsamplingFraction:  0.5,
		ClippingThreshold:    1.0,
		OptimizingIterations: 4,
		Seed:                 17,
	})
	if err != nil {
		t.Fatalf("newUpdateModifierWrapper: %v", err)
	}

	inner := unwrap(t, opt, MultiStep)
	inner = unwrap(t, inner, SubsamplingStep)
	inner = unwrap(t, inner, ClippingStep)
	inner = unwrap(t, inner, OptimizingStep)
	assertBase(t, inner, Vanilla)
}

func TestWrapperDisabledKnobs(t *testing.T) {
	// 1 repetition and a full subsampling fraction add no layers
	opt, err := NewUpdateModifierWrapper(WrapperConfig{
		Optimizer:           VanillaConfig{StepSize: 0.1},
		MultiStep:           1,
		SubsamplingFraction: 1.0,
	})
	if err != nil {
		t.Fatalf("newUpdateModifierWrapper: %v", err)
	}
	assertBase(t, opt, Vanilla)
}

func TestWrapperKnobValidation(t *testing.T) {
	base := VanillaConfig{StepSize: 0.1}

	configs := map[string]WrapperConfig{
		"no base optimizer":   {},
		"negative multi-step": {Optimizer: base, MultiStep: -1},
		"negative fraction": {Optimizer: base,
			SubsamplingFraction: -0.5},
		"fraction above 1": {Optimizer: base,
			SubsamplingFraction: 1.5},
		"negative threshold": {Optimizer: base,
			ClippingThreshold: -1.0},
		"negative iterations": {Optimizer: base,
			OptimizingIterations: -2},
	}

	for name, c := range configs {
		if _, err := NewUpdateModifierWrapper(c); err == nil {
			t.Errorf("expected error for %v", name)
		}
	}
}

// unregisteredConfig is a Config whose type is not in the registry
type unregisteredConfig struct{}

func (u unregisteredConfig) Create() (Optimizer, error) {
	return nil, nil
}

func (u unregisteredConfig) ValidType(t Type) bool {
	return t == u.Type()
}

func (u unregisteredConfig) Type() Type {
	return Type("Momentum")
}

func TestWrapperUnknownOptimizerType(t *testing.T) {
	_, err := NewUpdateModifierWrapper(WrapperConfig{
		Optimizer: unregisteredConfig{},
		MultiStep: 2,
	})
	if err == nil {
		t.Fatal("expected error for unregistered optimizer type")
	}
}

func TestCreateUnknownOptimizerType(t *testing.T) {
	if _, err := Create(unregisteredConfig{}); err == nil {
		t.Fatal("expected error for unregistered optimizer type")
	}
}
