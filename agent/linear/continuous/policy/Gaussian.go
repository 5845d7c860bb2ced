// Package policy implements linear continuous-action policies
package policy

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kumarYashaswi/tensorforce/environment"
	"github.com/kumarYashaswi/tensorforce/timestep"
	"github.com/kumarYashaswi/tensorforce/values"
)

// StdOffset is added to the exponentiated standard deviation so the
// policy always keeps a sampling floor
const StdOffset float64 = 1e-3

const (
	// Keys for the policy's weight collection
	MeanWeightsKey string = "mean"
	StdWeightsKey  string = "std"
)

// Gaussian implements a 1-dimensional linear Gaussian policy. The
// policy uses linear function approximation to compute the mean and
// log standard deviation of a normal distribution over actions. Its
// weights are held in a named collection so that optimizers can treat
// the mean and standard deviation weights as a single structured
// vector.
type Gaussian struct {
	weights  *values.Values
	spec     *values.Spec
	features int
	rng      distuv.Normal
}

// NewGaussian creates a new Gaussian policy with zero weights
func NewGaussian(seed uint64, env environment.Environment) (*Gaussian, error) {
	if env.ActionSpec().Shape.Len() != 1 {
		return nil, fmt.Errorf("newGaussian: Gaussian does not yet support " +
			"multi-dimensional actions")
	}
	features := env.ObservationSpec().Shape.Len()

	spec := values.NewSpec()
	if err := spec.Add(MeanWeightsKey, features); err != nil {
		return nil, fmt.Errorf("newGaussian: %v", err)
	}
	if err := spec.Add(StdWeightsKey, features); err != nil {
		return nil, fmt.Errorf("newGaussian: %v", err)
	}

	rng := distuv.Normal{
		Mu:    0,
		Sigma: 1,
		Src:   rand.NewSource(seed),
	}

	return &Gaussian{
		weights:  spec.Zeros(),
		spec:     spec,
		features: features,
		rng:      rng,
	}, nil
}

// WeightSpec returns the structure of the policy's weight collection
func (g *Gaussian) WeightSpec() *values.Spec {
	return g.spec
}

// Weights returns the policy's weight collection
func (g *Gaussian) Weights() *values.Values {
	return g.weights
}

// SetWeights replaces the policy's weight collection
func (g *Gaussian) SetWeights(weights *values.Values) error {
	if err := g.spec.Check(weights); err != nil {
		return fmt.Errorf("setWeights: %v", err)
	}
	g.weights = weights
	return nil
}

// Mean gets the mean of the policy given some state observation obs
func (g *Gaussian) Mean(obs mat.Vector) float64 {
	return g.linear(MeanWeightsKey, obs)
}

// Std gets the standard deviation of the policy given some state
// observation obs
func (g *Gaussian) Std(obs mat.Vector) float64 {
	return math.Exp(g.linear(StdWeightsKey, obs)) + StdOffset
}

// LogPdfOf returns the log probability density of taking action in the
// state with observation obs
func (g *Gaussian) LogPdfOf(obs mat.Vector, action float64) float64 {
	mean := g.Mean(obs)
	std := g.Std(obs)

	z := (action - mean) / std
	return -0.5*z*z - math.Log(std) - 0.5*math.Log(2*math.Pi)
}

// ScoreGradient returns the gradient of the log probability density of
// taking action in the state with observation obs, with respect to the
// policy's weights
func (g *Gaussian) ScoreGradient(obs mat.Vector,
	action float64) (*values.Values, error) {
	mean := g.Mean(obs)
	std := g.Std(obs)

	meanScale := (action - mean) / (std * std)
	stdScale := math.Pow((action-mean)/std, 2) - 1.0

	flat := make([]float64, 0, 2*g.features)
	for i := 0; i < g.features; i++ {
		flat = append(flat, meanScale*obs.AtVec(i))
	}
	for i := 0; i < g.features; i++ {
		flat = append(flat, stdScale*obs.AtVec(i))
	}

	grad, err := g.spec.FromFlat(flat)
	if err != nil {
		return nil, fmt.Errorf("scoreGradient: %v", err)
	}
	return grad, nil
}

// SelectAction selects an action from the policy for a given timestep
func (g *Gaussian) SelectAction(t timestep.TimeStep) *mat.VecDense {
	obs := t.Observation

	mean := g.Mean(obs)
	std := g.Std(obs)

	action := mean + std*g.rng.Rand()
	return mat.NewVecDense(1, []float64{action})
}

// GreedyAction returns the mean action of the policy for a given
// timestep
func (g *Gaussian) GreedyAction(t timestep.TimeStep) *mat.VecDense {
	return mat.NewVecDense(1, []float64{g.Mean(t.Observation)})
}

// linear computes the linear function approximation of the named
// weight vector at the observation obs
func (g *Gaussian) linear(key string, obs mat.Vector) float64 {
	t, ok := g.weights.Get(key)
	if !ok {
		panic(fmt.Sprintf("linear: no weights named %v", key))
	}
	data := t.Data().([]float64)
	if len(data) != obs.Len() {
		panic(fmt.Sprintf("linear: %d weights for %d features", len(data),
			obs.Len()))
	}

	sum := 0.0
	for i, w := range data {
		sum += w * obs.AtVec(i)
	}
	return sum
}
