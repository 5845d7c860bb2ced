package experiment

import (
	"log"
	"time"

	"github.com/kumarYashaswi/tensorforce/agent"
	env "github.com/kumarYashaswi/tensorforce/environment"
	"github.com/kumarYashaswi/tensorforce/experiment/tracker"
	ts "github.com/kumarYashaswi/tensorforce/timestep"
	"github.com/kumarYashaswi/tensorforce/utils/progressbar"
)

// Online is an Experiment that runs an agent online only. No offline
// evaluation is performed.
type Online struct {
	env.Environment
	agent.Agent
	maxSteps     uint
	currentSteps uint
	trackers     []tracker.Tracker
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. The steps parameter determines how
// many timesteps the experiment is run for, and the t parameter
// is a slice of tracker.Tracker which determine what data is saved.
func NewOnline(e env.Environment, a agent.Agent, steps uint,
	t ...tracker.Tracker) *Online {
	return &Online{e, a, steps, 0, t}
}

// Register registers a tracker.Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RunEpisode runs a single episode of the experiment
func (o *Online) RunEpisode() bool {
	step := o.Environment.Reset()
	if err := o.Agent.ObserveFirst(step); err != nil {
		log.Fatalf("runEpisode: %v", err)
	}
	o.track(step)

	for !step.Last() && o.currentSteps < o.maxSteps {
		o.currentSteps++

		// Select action, step in environment
		action := o.Agent.SelectAction(step)
		step, _ = o.Environment.Step(action)

		// Cache the environment step in each Tracker
		o.track(step)

		// Observe the timestep and step the agent
		if err := o.Agent.Observe(action, step); err != nil {
			log.Fatalf("runEpisode: %v", err)
		}
		if err := o.Agent.Step(); err != nil {
			log.Fatalf("runEpisode: %v", err)
		}
	}
	o.Agent.EndEpisode()

	// Return whether or not the max timestep limit has been reached
	return o.currentSteps >= o.maxSteps
}

// Run runs the entire experiment for all timesteps
func (o *Online) Run() {
	bar := progressbar.NewProgressBar(40, int(o.maxSteps), time.Second,
		false)
	bar.Display()

	ended := false
	for !ended {
		progress := o.currentSteps
		ended = o.RunEpisode()
		for ; progress < o.currentSteps; progress++ {
			bar.Increment()
		}
	}
	bar.Close()
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() {
	for _, t := range o.trackers {
		t.Save()
	}
}

// track tracks the current timestep by caching its data in each
// tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tr := range o.trackers {
		tr.Track(t)
	}
}
