// Package engine provides the Monte Carlo timestep loop of the food-web
// model: per-site accounting and trials, periodic migration, and the
// reporting triggers.
package engine

import (
	"fmt"
	"log/slog"
)

// Schedule defines the run length and when each periodic layer fires.
// A non-positive interval disables its layer.
type Schedule struct {
	Niter          int `json:"niter"`           // Timesteps to run
	MigrationEvery int `json:"migration_every"` // tm
	NetworksEvery  int `json:"networks_every"`  // tcn
	ShowEvery      int `json:"show_every"`      // Snapshot interval
	SaveEvery      int `json:"save_every"`      // Time-series interval
}

// Engine drives a Simulation through its timesteps.
type Engine struct {
	Tick     int // Current timestep
	Schedule Schedule

	// Callbacks for each layer. A callback error stops the run.
	OnSiteDone   func(tick, site int) error        // After each site's trials on the last timestep
	OnMigration  func(tick int, moved []int) error // After each migration pass
	OnSnapshot   func(tick, epoch int) error       // Every ShowEvery timesteps
	OnTimeSeries func(tick int) error              // Every SaveEvery timesteps, t > 0
	OnNetworks   func(tick int) error              // Every NetworksEvery timesteps, t > 0
	OnFinal      func(tick int) error              // Once, on the last timestep
	OnTick       func(tick int) error              // End of every timestep
}

// NewEngine creates an engine for the given schedule.
func NewEngine(sched Schedule) *Engine {
	return &Engine{Schedule: sched}
}

// Run advances sim through all Niter timesteps.
func (e *Engine) Run(sim *Simulation) error {
	slog.Info("simulation started",
		"niter", e.Schedule.Niter,
		"sites", len(sim.State.Sites),
		"species", len(sim.State.Species),
	)

	for t := 0; t < e.Schedule.Niter; t++ {
		if err := e.step(sim, t); err != nil {
			return fmt.Errorf("timestep %d: %w", t, err)
		}
	}

	slog.Info("simulation finished", "tick", e.Tick)
	return nil
}

// step advances the simulation by one timestep.
func (e *Engine) step(sim *Simulation, t int) error {
	e.Tick = t
	sim.LastTick = t
	last := t == e.Schedule.Niter-1

	// Every timestep: accounting and trials, site by site.
	for i := range sim.State.Sites {
		sim.RunSite(i)
		if last && e.OnSiteDone != nil {
			if err := e.OnSiteDone(t, i); err != nil {
				return err
			}
		}
	}

	if every(t, e.Schedule.MigrationEvery) && t > 0 {
		moved := sim.Migrate()
		if e.OnMigration != nil {
			if err := e.OnMigration(t, moved); err != nil {
				return err
			}
		}
	}

	if every(t, e.Schedule.ShowEvery) {
		epoch := t / e.Schedule.ShowEvery
		sim.RecordEpoch(epoch)
		if e.OnSnapshot != nil {
			if err := e.OnSnapshot(t, epoch); err != nil {
				return err
			}
		}
	}

	if every(t, e.Schedule.SaveEvery) && t > 0 && e.OnTimeSeries != nil {
		if err := e.OnTimeSeries(t); err != nil {
			return err
		}
	}

	if every(t, e.Schedule.NetworksEvery) && t > 0 && e.OnNetworks != nil {
		if err := e.OnNetworks(t); err != nil {
			return err
		}
	}

	if last && e.OnFinal != nil {
		if err := e.OnFinal(t); err != nil {
			return err
		}
	}

	sim.updateStats()
	slog.Debug("timestep done", "tick", t, "individuals", sim.Stats.TotalPopulation)

	if e.OnTick != nil {
		return e.OnTick(t)
	}
	return nil
}

func every(t, interval int) bool {
	return interval > 0 && t%interval == 0
}
