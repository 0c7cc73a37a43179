package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/talgya/socweb/internal/ecology"
	"github.com/talgya/socweb/internal/entropy"
)

func threeTierWeb() ecology.FoodWeb {
	return ecology.FoodWeb{
		Species: []ecology.SpeciesDef{
			{ID: 1, Name: "algae", Initial: 60},
			{ID: 2, Name: "snail", Initial: 25},
			{ID: 3, Name: "crab", Initial: 10},
			{ID: 4, Name: "kelp", Initial: 40},
		},
		Edges: []ecology.Edge{
			{Prey: 1, Predator: 2}, {Prey: 4, Predator: 2}, {Prey: 2, Predator: 3},
		},
	}
}

func ringOfSites() ecology.Landscape {
	return ecology.Landscape{
		Sites: []ecology.SiteDef{
			{ID: 1, Name: "a", Capacity: 80}, {ID: 2, Name: "b", Capacity: 60}, {ID: 3, Name: "c", Capacity: 40},
		},
		Edges: []ecology.SiteEdge{
			{From: 1, To: 2, Weight: 1}, {From: 2, To: 3, Weight: 1}, {From: 3, To: 1, Weight: 1},
			{From: 2, To: 1, Weight: 1},
		},
	}
}

func newRun(t *testing.T, seed int64) *Simulation {
	t.Helper()
	st := newState(t, threeTierWeb(), ringOfSites())
	rng := entropy.NewSource(seed)
	st.Populate(rng)
	return NewSimulation(st, rng, DefaultParams())
}

func TestEngineTriggers(t *testing.T) {
	sim := newRun(t, 42)
	eng := NewEngine(Schedule{Niter: 10, MigrationEvery: 3, NetworksEvery: 4, ShowEvery: 2, SaveEvery: 5})

	var migrations, snapshots, series, networks, finals []int
	siteDone, ticks := 0, 0
	eng.OnTick = func(tick int) error {
		if tick != ticks {
			t.Errorf("expected tick %d, got %d", ticks, tick)
		}
		ticks++
		return nil
	}
	eng.OnMigration = func(tick int, moved []int) error {
		if len(moved) != 3 {
			t.Errorf("expected 3 site counts, got %d", len(moved))
		}
		migrations = append(migrations, tick)
		return nil
	}
	eng.OnSnapshot = func(tick, epoch int) error {
		if epoch != tick/2 {
			t.Errorf("tick %d: expected epoch %d, got %d", tick, tick/2, epoch)
		}
		snapshots = append(snapshots, tick)
		return nil
	}
	eng.OnTimeSeries = func(tick int) error { series = append(series, tick); return nil }
	eng.OnNetworks = func(tick int) error { networks = append(networks, tick); return nil }
	eng.OnFinal = func(tick int) error { finals = append(finals, tick); return nil }
	eng.OnSiteDone = func(tick, site int) error {
		if tick != 9 {
			t.Errorf("expected site callbacks on the last timestep only, got tick %d", tick)
		}
		siteDone++
		return nil
	}

	if err := eng.Run(sim); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	check := func(name string, got, want []int) {
		t.Helper()
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s: expected %v, got %v", name, want, got)
		}
	}
	check("migrations", migrations, []int{3, 6, 9})
	check("snapshots", snapshots, []int{0, 2, 4, 6, 8})
	check("time series", series, []int{5})
	check("networks", networks, []int{4, 8})
	check("final", finals, []int{9})
	if ticks != 10 {
		t.Errorf("expected 10 tick callbacks, got %d", ticks)
	}
	if siteDone != 3 {
		t.Errorf("expected 3 site callbacks, got %d", siteDone)
	}
	if eng.Tick != 9 || sim.LastTick != 9 {
		t.Errorf("expected last tick 9, got %d / %d", eng.Tick, sim.LastTick)
	}
	if got := len(sim.State.Species[0].Trajectory); got != 5 {
		t.Errorf("expected 5 trajectory epochs, got %d", got)
	}
}

func TestEngineStopsOnCallbackError(t *testing.T) {
	sim := newRun(t, 1)
	eng := NewEngine(Schedule{Niter: 10, ShowEvery: 1})
	boom := errors.New("disk full")
	calls := 0
	eng.OnSnapshot = func(tick, epoch int) error {
		calls++
		if tick == 2 {
			return boom
		}
		return nil
	}

	err := eng.Run(sim)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped callback error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected the run to stop after 3 snapshots, got %d", calls)
	}
}

func TestEngineDeterministic(t *testing.T) {
	record := func(seed int64) [][][]int {
		sim := newRun(t, seed)
		eng := NewEngine(Schedule{Niter: 25, MigrationEvery: 4, ShowEvery: 1})
		var frames [][][]int
		eng.OnSnapshot = func(tick, epoch int) error {
			frames = append(frames, sim.State.Matrix())
			return nil
		}
		if err := eng.Run(sim); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		return frames
	}

	a := record(99)
	b := record(99)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("expected identical population matrices for identical seeds")
	}

	for tick, frame := range a {
		for site, row := range frame {
			for sp, n := range row {
				if n < 0 {
					t.Fatalf("tick %d site %d species %d: negative population %d", tick, site, sp, n)
				}
			}
		}
	}
}

func TestEngineZeroIntervalsDisabled(t *testing.T) {
	sim := newRun(t, 7)
	eng := NewEngine(Schedule{Niter: 3})
	called := false
	eng.OnMigration = func(int, []int) error { called = true; return nil }
	eng.OnSnapshot = func(int, int) error { called = true; return nil }
	if err := eng.Run(sim); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if called {
		t.Error("expected disabled layers not to fire")
	}
}
