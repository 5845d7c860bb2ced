package naturalac

import (
	"fmt"

	"github.com/kumarYashaswi/tensorforce/agent"
	"github.com/kumarYashaswi/tensorforce/environment"
)

// Config represents a configuration for a NaturalAC agent. The modifier
// knobs mirror the update modifier wrapper: each left at its zero value
// adds no modifier layer around the natural gradient update.
type Config struct {
	ActorLearningRate  float64
	CriticLearningRate float64

	// ConjugateGradientIterations bounds the inner solve of F x = g
	ConjugateGradientIterations int

	// Damping regularizes the Fisher information towards the identity
	Damping float64

	// Update modifier knobs
	MultiStep            int
	SubsamplingFraction  float64
	ClippingThreshold    float64
	LineSearchIterations int
}

// CreateAgent creates the agent from the Config
func (c Config) CreateAgent(env environment.Environment,
	seed uint64) (agent.Agent, error) {
	return NewNaturalAC(env, c, seed)
}

// ValidAgent returns whether the argument agent is a valid agent for
// construction with the Config
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*NaturalAC)
	return ok
}

// Validate ensures that the Config is valid
func (c Config) Validate() error {
	if c.ActorLearningRate <= 0 {
		return fmt.Errorf("actor learning rate must be positive, got %v",
			c.ActorLearningRate)
	}
	if c.CriticLearningRate <= 0 {
		return fmt.Errorf("critic learning rate must be positive, got %v",
			c.CriticLearningRate)
	}
	if c.ConjugateGradientIterations < 0 {
		return fmt.Errorf("conjugate gradient iterations must be "+
			"non-negative, got %v", c.ConjugateGradientIterations)
	}
	if c.Damping < 0 || c.Damping > 1 {
		return fmt.Errorf("damping must be in [0.0, 1.0], got %v", c.Damping)
	}
	return nil
}
