package main

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r1"

	"github.com/kumarYashaswi/tensorforce/agent/linear/continuous/naturalac"
	"github.com/kumarYashaswi/tensorforce/environment"
	"github.com/kumarYashaswi/tensorforce/environment/classiccontrol/pendulum"
	"github.com/kumarYashaswi/tensorforce/experiment"
	"github.com/kumarYashaswi/tensorforce/experiment/tracker"
)

func main() {
	var seed uint64 = 192382

	// Create the environment
	bounds := r1.Interval{Min: -0.01, Max: 0.01}

	s := environment.NewUniformStarter([]r1.Interval{bounds, bounds}, seed)
	task := pendulum.NewSwingUp(s, 500)
	p, _ := pendulum.NewContinuous(task, 1.0)

	// Create the learning algorithm
	config := naturalac.Config{
		ActorLearningRate:           0.001,
		CriticLearningRate:          0.01,
		ConjugateGradientIterations: 20,
		Damping:                     0.001,
		ClippingThreshold:           0.5,
		LineSearchIterations:        5,
	}
	a, err := config.CreateAgent(p, seed)
	if err != nil {
		panic(fmt.Sprintf("could not create agent: %v", err))
	}

	// Experiment
	t := tracker.NewReturn("./data.bin")
	e := experiment.NewOnline(p, a, 100_000, t)
	e.Run()
	e.Save()

	data := tracker.LoadData("./data.bin")
	fmt.Println(data[len(data)-10:])
}
