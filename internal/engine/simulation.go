// Simulation ties the population state, the random stream and the event
// rules together and runs them one site at a time.
package engine

import (
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/talgya/socweb/internal/ecology"
	"github.com/talgya/socweb/internal/entropy"
)

// Feeding constants. The main trial loop makes FeedingAttempts attempts per
// predator trial, and each attempt draws PreyDrawsPerAttempt prey.
const (
	DefaultFeedingAttempts     = 5
	DefaultPreyDrawsPerAttempt = 1
)

// Params are the tuning knobs of the event rules.
type Params struct {
	FeedingAttempts     int `json:"feeding_attempts"`
	PreyDrawsPerAttempt int `json:"prey_draws_per_attempt"`
}

// DefaultParams returns the feeding constants the model was calibrated with.
func DefaultParams() Params {
	return Params{
		FeedingAttempts:     DefaultFeedingAttempts,
		PreyDrawsPerAttempt: DefaultPreyDrawsPerAttempt,
	}
}

// Simulation holds the state of one realization.
type Simulation struct {
	State  *ecology.State
	RNG    entropy.Stream
	Params Params

	LastTick int // Most recent timestep processed

	// Statistics over the whole run.
	Stats SimStats
}

// SimStats tracks aggregate event counts.
type SimStats struct {
	TotalPopulation int `json:"total_population"`
	Trials          int `json:"trials"`
	NaturalDeaths   int `json:"natural_deaths"`
	Predations      int `json:"predations"`
	Births          int `json:"births"`
	Migrants        int `json:"migrants"`
}

// NewSimulation wires a populated state to its random stream.
func NewSimulation(st *ecology.State, rng entropy.Stream, params Params) *Simulation {
	sim := &Simulation{
		State:  st,
		RNG:    rng,
		Params: params,
	}
	sim.updateStats()
	return sim
}

// RunSite runs the accounting phase and then the trial phase of one site.
func (s *Simulation) RunSite(site int) {
	st := s.State.SiteAt(site)
	st.BeginTimestep()
	s.runTrials(site)

	s.Stats.Trials += st.Tally.Trials
	s.Stats.NaturalDeaths += st.Tally.NaturalDeaths
	s.Stats.Predations += st.Tally.Predations
	s.Stats.Births += st.Tally.Births
}

// RecordEpoch stores the per-species totals of a sampling epoch.
func (s *Simulation) RecordEpoch(epoch int) {
	for i, sp := range s.State.Species {
		sp.Record(epoch, s.State.SpeciesTotal(i))
	}
	s.updateStats()
}

// LogReport logs an aggregate summary of the run so far.
func (s *Simulation) LogReport(tick int) {
	s.updateStats()

	alive := 0
	for i := range s.State.Species {
		if s.State.SpeciesTotal(i) > 0 {
			alive++
		}
	}

	slog.Info("population report",
		"tick", tick,
		"individuals", humanize.Comma(int64(s.Stats.TotalPopulation)),
		"species_alive", alive,
		"species", len(s.State.Species),
		"trials", humanize.Comma(int64(s.Stats.Trials)),
		"natural_deaths", s.Stats.NaturalDeaths,
		"predations", s.Stats.Predations,
		"births", s.Stats.Births,
		"migrants", s.Stats.Migrants,
	)
}

func (s *Simulation) updateStats() {
	total := 0
	for _, site := range s.State.Sites {
		total += site.TotalPopulation()
	}
	s.Stats.TotalPopulation = total
}
