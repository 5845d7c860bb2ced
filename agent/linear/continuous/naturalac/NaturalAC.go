// Package naturalac implements a natural-gradient actor-critic with
// linear function approximation
package naturalac

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/kumarYashaswi/tensorforce/agent"
	"github.com/kumarYashaswi/tensorforce/agent/linear/continuous/policy"
	"github.com/kumarYashaswi/tensorforce/environment"
	"github.com/kumarYashaswi/tensorforce/optimizer"
	"github.com/kumarYashaswi/tensorforce/solver"
	ts "github.com/kumarYashaswi/tensorforce/timestep"
	"github.com/kumarYashaswi/tensorforce/values"
)

// NaturalAC implements an episodic natural-gradient actor-critic.
//
// The agent uses linear function approximation to learn both a linear
// state value function critic and a Gaussian policy actor. Transitions
// are buffered over an episode; at the end of the episode the critic is
// updated with TD(0) and the actor takes one natural gradient update
// through an optimizer chain. The chain solves F x = g with conjugate
// gradient, where F is the empirical Fisher information of the policy
// on the episode and g is the advantage-weighted score gradient, so F
// is never materialized.
type NaturalAC struct {
	*policy.Gaussian

	critic   *mat.VecDense
	criticLR float64
	opt      optimizer.Optimizer

	step     ts.TimeStep
	action   *mat.VecDense
	nextStep ts.TimeStep

	transitions []ts.Transition
	features    int
	eval        bool
}

// NewNaturalAC returns a new NaturalAC agent on env
func NewNaturalAC(env environment.Environment, c agent.Config,
	seed uint64) (agent.Agent, error) {
	actionSpec := env.ActionSpec()
	if actionSpec.Cardinality != environment.Continuous {
		return nil, fmt.Errorf("newNaturalAC: actions must be continuous")
	}
	if actionSpec.Shape.Len() != 1 {
		return nil, fmt.Errorf("newNaturalAC: NaturalAC does not yet " +
			"support multi-dimensional actions")
	}
	if !c.ValidAgent(&NaturalAC{}) {
		return nil, fmt.Errorf("newNaturalAC: invalid agent for "+
			"configuration type %T", c)
	}
	config, ok := c.(Config)
	if !ok {
		return nil, fmt.Errorf("newNaturalAC: invalid config for agent " +
			"NaturalAC")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("newNaturalAC: %v", err)
	}

	pol, err := policy.NewGaussian(seed, env)
	if err != nil {
		return nil, fmt.Errorf("newNaturalAC: %v", err)
	}

	opt, err := optimizer.NewUpdateModifierWrapper(optimizer.WrapperConfig{
		Optimizer: optimizer.NaturalGradientConfig{
			LearningRate:    config.ActorLearningRate,
			CGMaxIterations: config.ConjugateGradientIterations,
			Damping:         config.Damping,
		},
		MultiStep:            config.MultiStep,
		SubsamplingFraction:  config.SubsamplingFraction,
		ClippingThreshold:    config.ClippingThreshold,
		OptimizingIterations: config.LineSearchIterations,
		Seed:                 seed,
	})
	if err != nil {
		return nil, fmt.Errorf("newNaturalAC: %v", err)
	}

	features := env.ObservationSpec().Shape.Len()

	return &NaturalAC{
		Gaussian: pol,
		critic:   mat.NewVecDense(features, nil),
		criticLR: config.CriticLearningRate,
		opt:      opt,
		features: features,
	}, nil
}

// SelectAction selects an action for the given timestep. In evaluation
// mode the mean action is selected.
func (n *NaturalAC) SelectAction(t ts.TimeStep) *mat.VecDense {
	if n.eval {
		return n.Gaussian.GreedyAction(t)
	}
	return n.Gaussian.SelectAction(t)
}

// Eval sets the agent to evaluation mode
func (n *NaturalAC) Eval() { n.eval = true }

// Train sets the agent to training mode
func (n *NaturalAC) Train() { n.eval = false }

// IsEval returns whether the agent is in evaluation mode
func (n *NaturalAC) IsEval() bool { return n.eval }

// ObserveFirst observes the first timestep in an episode
func (n *NaturalAC) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		fmt.Fprintf(os.Stderr, "warning: ObserveFirst() called on %v "+
			"timestep\n", t.StepType)
	}
	n.step = t
	n.nextStep = t
	n.transitions = n.transitions[:0]
	return nil
}

// Observe records the previously selected action and the timestep that
// it led to
func (n *NaturalAC) Observe(a mat.Vector, nextStep ts.TimeStep) error {
	action, ok := a.(*mat.VecDense)
	if !ok {
		return fmt.Errorf("observe: actions must be *mat.VecDense")
	}

	n.step = n.nextStep
	n.action = action
	n.nextStep = nextStep
	n.transitions = append(n.transitions,
		ts.NewTransition(n.step, action, nextStep))
	return nil
}

// TdError computes the TD error of the critic on a given transition
func (n *NaturalAC) TdError(t ts.Transition) float64 {
	stateValue := mat.Dot(n.critic, t.State)
	nextStateValue := mat.Dot(n.critic, t.NextState)

	return t.Reward + t.Discount*nextStateValue - stateValue
}

// Step updates the agent's weights. The actual update happens once per
// episode, on the last timestep; all other calls are no-ops.
func (n *NaturalAC) Step() error {
	if n.eval || !n.nextStep.Last() {
		return nil
	}
	return n.update()
}

// EndEpisode performs cleanup at the end of an episode
func (n *NaturalAC) EndEpisode() {
	n.transitions = n.transitions[:0]
}

// update performs the end-of-episode critic and actor updates
func (n *NaturalAC) update() error {
	N := len(n.transitions)
	if N == 0 {
		return nil
	}

	// Advantages are TD errors under the pre-update critic
	advantages := make([]float64, N)
	for i, tr := range n.transitions {
		advantages[i] = n.TdError(tr)
	}

	// TD(0) critic update, one sweep over the episode
	for _, tr := range n.transitions {
		δ := n.TdError(tr)
		n.critic.AddScaledVec(n.critic, n.criticLR*δ, tr.State)
	}

	states := mat.NewDense(N, n.features, nil)
	actions := mat.NewDense(N, 1, nil)
	for i, tr := range n.transitions {
		for j := 0; j < n.features; j++ {
			states.Set(i, j, tr.State.AtVec(j))
		}
		actions.Set(i, 0, tr.Action.AtVec(0))
	}

	args := &optimizer.Arguments{
		Batch: optimizer.Batch{
			States:     states,
			Actions:    actions,
			Advantages: advantages,
		},
		Gradient: n.gradient,
		Loss:     n.loss,
		FnX:      n.fisherProduct,
		Apply:    n.apply,
	}

	if _, err := n.opt.Step(args); err != nil {
		return fmt.Errorf("step: %v", err)
	}

	n.transitions = n.transitions[:0]
	return nil
}

// gradient returns the gradient of the surrogate loss
// -(1/N) Σ A_i log π(a_i | s_i) with respect to the actor weights
func (n *NaturalAC) gradient(batch optimizer.Batch) (*values.Values, error) {
	N := batch.Len()
	if N == 0 {
		return nil, fmt.Errorf("gradient: empty batch")
	}

	var sum *values.Values
	for i := 0; i < N; i++ {
		state := mat.NewVecDense(n.features, batch.States.RawRowView(i))
		action := batch.Actions.At(i, 0)

		score, err := n.Gaussian.ScoreGradient(state, action)
		if err != nil {
			return nil, fmt.Errorf("gradient: %v", err)
		}

		advantage := batch.Advantages[i]
		weighted := score.Fmap(func(x float64) float64 {
			return advantage * x
		})

		if sum == nil {
			sum = weighted
			continue
		}
		sum, err = sum.FmapWith(
			func(s, w float64) float64 { return s + w }, weighted)
		if err != nil {
			return nil, fmt.Errorf("gradient: %v", err)
		}
	}

	scale := -1.0 / float64(N)
	return sum.Fmap(func(x float64) float64 { return scale * x }), nil
}

// loss evaluates the surrogate loss -(1/N) Σ A_i log π(a_i | s_i) at
// the actor's current weights
func (n *NaturalAC) loss(batch optimizer.Batch) (float64, error) {
	N := batch.Len()
	if N == 0 {
		return 0, fmt.Errorf("loss: empty batch")
	}

	sum := 0.0
	for i := 0; i < N; i++ {
		state := mat.NewVecDense(n.features, batch.States.RawRowView(i))
		action := batch.Actions.At(i, 0)
		sum += batch.Advantages[i] * n.Gaussian.LogPdfOf(state, action)
	}
	return -sum / float64(N), nil
}

// fisherProduct returns a closure computing the product of the
// empirical Fisher information on the batch with a vector:
// F v = (1/N) Σ g_i (g_i · v), where g_i is the score gradient of the
// i-th transition at the actor's current weights. The optimizer chain
// supplies the batch it steps on, so a subsampling modifier narrows the
// Fisher estimate together with the gradient.
func (n *NaturalAC) fisherProduct(batch optimizer.Batch) solver.FnX {
	return func(v *values.Values) (*values.Values, error) {
		N := batch.Len()
		if N == 0 {
			return nil, fmt.Errorf("fisherProduct: empty batch")
		}

		result := v.ZerosLike()
		for i := 0; i < N; i++ {
			state := mat.NewVecDense(n.features, batch.States.RawRowView(i))
			action := batch.Actions.At(i, 0)

			score, err := n.Gaussian.ScoreGradient(state, action)
			if err != nil {
				return nil, fmt.Errorf("fisherProduct: %v", err)
			}

			inner, err := score.Dot(v)
			if err != nil {
				return nil, fmt.Errorf("fisherProduct: %v", err)
			}

			result, err = result.FmapWith(
				func(r, g float64) float64 { return r + inner*g }, score)
			if err != nil {
				return nil, fmt.Errorf("fisherProduct: %v", err)
			}
		}

		scale := 1.0 / float64(N)
		return result.Fmap(func(x float64) float64 { return scale * x }), nil
	}
}

// apply commits a delta to the actor's weights
func (n *NaturalAC) apply(delta *values.Values) error {
	next, err := n.Gaussian.Weights().FmapWith(
		func(w, d float64) float64 { return w + d }, delta)
	if err != nil {
		return fmt.Errorf("apply: %v", err)
	}
	return n.Gaussian.SetWeights(next)
}
