// Package experiment runs a sequence of independent realizations of the
// food-web model and routes every periodic layer to the report files and
// the run store.
package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"github.com/talgya/socweb/internal/coexist"
	"github.com/talgya/socweb/internal/config"
	"github.com/talgya/socweb/internal/ecology"
	"github.com/talgya/socweb/internal/engine"
	"github.com/talgya/socweb/internal/entropy"
	"github.com/talgya/socweb/internal/persistence"
	"github.com/talgya/socweb/internal/report"
)

// RunParams is what the run store records about each realization.
type RunParams struct {
	Schedule engine.Schedule `json:"schedule"`
	Feeding  engine.Params   `json:"feeding"`
	BaseSeed int64           `json:"base_seed"`
}

// Runner executes realizations one after another. Store may be nil.
type Runner struct {
	Config *config.Config
	Web    ecology.FoodWeb
	Land   ecology.Landscape
	Store  *persistence.DB
}

// Schedule converts the run configuration.
func Schedule(cfg *config.Config) engine.Schedule {
	return engine.Schedule{
		Niter:          cfg.Run.Niter,
		MigrationEvery: cfg.Run.MigrationEvery,
		NetworksEvery:  cfg.Run.NetworksEvery,
		ShowEvery:      cfg.Run.ShowEvery,
		SaveEvery:      cfg.Run.SaveEvery,
	}
}

// Params converts the feeding configuration.
func Params(cfg *config.Config) engine.Params {
	return engine.Params{
		FeedingAttempts:     cfg.Feeding.Attempts,
		PreyDrawsPerAttempt: cfg.Feeding.PreyDrawsPerAttempt,
	}
}

// RealizationSeed is the stream seed of realization k (1-based).
func RealizationSeed(base int64, k int) int64 {
	return base + int64(k-1)
}

// Run executes every configured realization and appends their stability
// records to the shared stability file. cfg.Run.Seed must already be set.
func (r *Runner) Run(ctx context.Context) ([]report.Stability, error) {
	var rows []report.Stability
	for k := 1; k <= r.Config.Run.Realizations; k++ {
		if err := ctx.Err(); err != nil {
			return rows, err
		}
		row, err := r.realization(ctx, k)
		if err != nil {
			return rows, fmt.Errorf("realization %d: %w", k, err)
		}
		rows = append(rows, row)
	}

	if err := report.WriteStability(r.Config.Output.Dir, rows); err != nil {
		return rows, err
	}
	return rows, nil
}

// realization runs one independent realization from a fresh state.
func (r *Runner) realization(ctx context.Context, k int) (report.Stability, error) {
	cfg := r.Config
	stability := report.Stability{Realization: k}

	st, err := ecology.NewState(r.Web, r.Land)
	if err != nil {
		return stability, fmt.Errorf("building state: %w", err)
	}
	seed := RealizationSeed(cfg.Run.Seed, k)
	rng := entropy.NewSource(seed)
	st.Populate(rng)
	sim := engine.NewSimulation(st, rng, Params(cfg))

	out, err := report.NewWriter(cfg.Output.Dir, cfg.Run.Seed, k)
	if err != nil {
		return stability, err
	}
	if err := out.FoodWeb(st); err != nil {
		return stability, err
	}

	sched := Schedule(cfg)
	var runID string
	if r.Store != nil {
		runID, err = r.Store.BeginRun(seed, k, st, RunParams{Schedule: sched, Feeding: sim.Params, BaseSeed: cfg.Run.Seed})
		if err != nil {
			return stability, fmt.Errorf("recording run: %w", err)
		}
	}

	slog.Info("realization started",
		"realization", k,
		"seed", seed,
		"run", runID,
		"individuals", humanize.Comma(int64(sim.Stats.TotalPopulation)),
	)

	eng := engine.NewEngine(sched)
	r.wire(ctx, eng, sim, out, runID)

	if err := eng.Run(sim); err != nil {
		return stability, err
	}

	// The closing time series covers every epoch of the run.
	last, err := out.TimeSeries(st, sched.Niter, sched.ShowEvery)
	if err != nil {
		return stability, err
	}
	stability.LastAllAlive = last

	if r.Store != nil {
		if err := r.Store.FinishRun(runID, eng.Tick, last, sim.Stats); err != nil {
			return stability, fmt.Errorf("recording run: %w", err)
		}
	}

	sim.LogReport(eng.Tick)
	slog.Info("realization finished", "realization", k, "last_all_alive", last)
	return stability, nil
}

// wire connects engine callbacks to the writer and the store.
func (r *Runner) wire(ctx context.Context, eng *engine.Engine, sim *engine.Simulation, out *report.Writer, runID string) {
	st := sim.State
	store := r.Store
	reportEvery := r.Config.Run.ReportEvery

	eng.OnSiteDone = func(tick, site int) error {
		if err := out.SOC(st, site); err != nil {
			return err
		}
		if store != nil {
			return store.SaveSOC(runID, st, site)
		}
		return nil
	}

	eng.OnMigration = func(tick int, moved []int) error {
		if err := out.Migration(moved); err != nil {
			return err
		}
		if store != nil {
			return store.SaveMigration(runID, tick, st, moved)
		}
		return nil
	}

	eng.OnSnapshot = func(tick, epoch int) error {
		if err := out.Snapshot(st); err != nil {
			return err
		}
		if store != nil {
			return store.SaveSnapshot(runID, tick, st)
		}
		return nil
	}

	eng.OnTimeSeries = func(tick int) error {
		last, err := out.TimeSeries(st, tick, eng.Schedule.ShowEvery)
		if err != nil {
			return err
		}
		slog.Debug("time series written", "tick", tick, "last_all_alive", last)
		return nil
	}

	eng.OnNetworks = func(tick int) error {
		nets := coexist.Compute(st)
		if err := out.Networks(st, tick, nets); err != nil {
			return err
		}
		if store != nil {
			return store.SaveNetworks(runID, tick, st, nets)
		}
		return nil
	}

	eng.OnFinal = func(tick int) error {
		return out.EndSOC(st)
	}

	eng.OnTick = func(tick int) error {
		if reportEvery > 0 && tick > 0 && tick%reportEvery == 0 {
			sim.LogReport(tick)
		}
		return ctx.Err()
	}
}
