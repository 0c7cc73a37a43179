package engine

import (
	"testing"

	"github.com/talgya/socweb/internal/ecology"
	"github.com/talgya/socweb/internal/entropy"
)

func twoSites(capB int) ecology.Landscape {
	return ecology.Landscape{
		Sites: []ecology.SiteDef{
			{ID: 1, Name: "A", Capacity: 100},
			{ID: 2, Name: "B", Capacity: capB},
		},
		Edges: []ecology.SiteEdge{{From: 1, To: 2, Weight: 1}},
	}
}

func TestMigrateScenarioB(t *testing.T) {
	web := ecology.FoodWeb{Species: []ecology.SpeciesDef{{ID: 1, Name: "vole"}}}

	tests := []struct {
		name      string
		capB      int
		wantMoved int
	}{
		{name: "ample vacancy", capB: 10, wantMoved: 5},
		{name: "exact vacancy", capB: 5, wantMoved: 5},
		{name: "short vacancy", capB: 3, wantMoved: 3},
		{name: "full target", capB: 0, wantMoved: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newState(t, web, twoSites(tt.capB))
			st.Sites[0].Pop[0].Old = 5
			sim := NewSimulation(st, entropy.NewSource(11), DefaultParams())

			moved := sim.Migrate()

			if moved[0] != tt.wantMoved {
				t.Errorf("expected %d migrants from A, got %d", tt.wantMoved, moved[0])
			}
			if moved[1] != 0 {
				t.Errorf("expected no migrants from B, got %d", moved[1])
			}
			if got := st.Sites[0].Pop[0].Old; got != 5-tt.wantMoved {
				t.Errorf("expected A Old %d, got %d", 5-tt.wantMoved, got)
			}
			if got := st.Sites[1].Pop[0].New; got != tt.wantMoved {
				t.Errorf("expected B New %d, got %d", tt.wantMoved, got)
			}
			if got := st.Sites[1].Pop[0].Old; got != 0 {
				t.Errorf("expected B Old untouched, got %d", got)
			}
		})
	}
}

func TestMigrateIgnoresPendingArrivals(t *testing.T) {
	web := ecology.FoodWeb{Species: []ecology.SpeciesDef{{ID: 1, Name: "vole"}}}

	tests := []struct {
		name      string
		oldB      int
		newB      int
		wantMoved int
	}{
		{name: "newborns at target", oldB: 0, newB: 3, wantMoved: 5},
		{name: "residents and newborns", oldB: 2, newB: 4, wantMoved: 3},
		{name: "residents fill target", oldB: 5, newB: 1, wantMoved: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newState(t, web, twoSites(5))
			st.Sites[0].Pop[0].Old = 5
			st.Sites[1].Pop[0].Old = tt.oldB
			st.Sites[1].Pop[0].New = tt.newB
			sim := NewSimulation(st, entropy.NewSource(3), DefaultParams())

			moved := sim.Migrate()

			if moved[0] != tt.wantMoved {
				t.Errorf("expected %d migrants from A, got %d", tt.wantMoved, moved[0])
			}
			if got := st.Sites[1].Pop[0].New; got != tt.newB+tt.wantMoved {
				t.Errorf("expected B New %d, got %d", tt.newB+tt.wantMoved, got)
			}
			if got := st.Sites[0].Pop[0].Old; got != 5-tt.wantMoved {
				t.Errorf("expected A Old %d, got %d", 5-tt.wantMoved, got)
			}
		})
	}
}

func TestMigrateUsesLocalDensity(t *testing.T) {
	web := ecology.FoodWeb{Species: []ecology.SpeciesDef{{ID: 1, Name: "vole"}, {ID: 2, Name: "shrew"}}}
	st := newState(t, web, twoSites(100))
	st.Sites[0].Pop[0].Old = 6
	st.Sites[0].Pop[1].Old = 2

	sim := NewSimulation(st, entropy.NewSource(5), DefaultParams())
	moved := sim.Migrate()

	// Voles move floor(6 * 6/8) = 4 whichever species goes first: shrews
	// going first move floor(2 * 2/8) = 0 and leave the total unchanged.
	vole, shrew := st.Sites[1].Pop[0].New, st.Sites[1].Pop[1].New
	if moved[0] != vole+shrew {
		t.Errorf("expected moved %d to equal arrivals %d", moved[0], vole+shrew)
	}
	if vole != 4 {
		t.Errorf("expected 4 vole migrants, got %d", vole)
	}
	if st.Sites[0].Pop[0].Old+vole != 6 || st.Sites[0].Pop[1].Old+shrew != 2 {
		t.Errorf("individuals not conserved: %+v / %+v", st.Sites[0].Pop, st.Sites[1].Pop)
	}
}

func TestMigrateConservation(t *testing.T) {
	web := ecology.FoodWeb{
		Species: []ecology.SpeciesDef{
			{ID: 1, Name: "plant", Initial: 40},
			{ID: 2, Name: "grazer", Initial: 20},
			{ID: 3, Name: "hunter", Initial: 8},
		},
		Edges: []ecology.Edge{{Prey: 1, Predator: 2}, {Prey: 2, Predator: 3}},
	}
	land := ecology.Landscape{
		Sites: []ecology.SiteDef{
			{ID: 1, Capacity: 30}, {ID: 2, Capacity: 50}, {ID: 3, Capacity: 10}, {ID: 4, Capacity: 40},
		},
		Edges: []ecology.SiteEdge{
			{From: 1, To: 2, Weight: 1}, {From: 2, To: 1, Weight: 1},
			{From: 2, To: 3, Weight: 2}, {From: 3, To: 4, Weight: 1},
			{From: 4, To: 1, Weight: 1}, {From: 1, To: 3, Weight: 1},
		},
	}

	for seed := int64(1); seed <= 10; seed++ {
		st := newState(t, web, land)
		rng := entropy.NewSource(seed)
		st.Populate(rng)
		sim := NewSimulation(st, rng, DefaultParams())

		before := st.Matrix()
		moved := sim.Migrate()

		for i, site := range st.Sites {
			left := 0
			for sp := range st.Species {
				left += before[i][sp] - site.Pop[sp].Old
				if site.Pop[sp].Old < 0 {
					t.Fatalf("seed %d: negative population at site %d species %d", seed, i, sp)
				}
			}
			if left != moved[i] {
				t.Errorf("seed %d site %d: Old dropped by %d but %d reported", seed, i, left, moved[i])
			}
			if moved[i] > sumRow(before[i]) {
				t.Errorf("seed %d site %d: %d migrants exceed population %d", seed, i, moved[i], sumRow(before[i]))
			}
		}

		for sp := range st.Species {
			total := 0
			for _, site := range st.Sites {
				total += site.Pop[sp].Old + site.Pop[sp].New
			}
			want := 0
			for i := range st.Sites {
				want += before[i][sp]
			}
			if total != want {
				t.Errorf("seed %d species %d: expected %d individuals after the pass, got %d", seed, sp, want, total)
			}
		}
	}
}

func TestMigratePreference(t *testing.T) {
	st := newState(t, grassRabbitFox(), twoSites(10))
	s := st.Sites[0]
	s.Pop[0].Old = 9
	s.Pop[1].Old = 4
	s.Pop[2].Old = 1

	sim := NewSimulation(st, entropy.NewSource(3), DefaultParams())
	sim.Migrate()

	// Preference is computed before anyone moves.
	if s.Preference[1] != 9-1 {
		t.Errorf("expected rabbit preference 8, got %v", s.Preference[1])
	}
	if s.Preference[0] != -4 {
		t.Errorf("expected grass preference -4, got %v", s.Preference[0])
	}
}

func sumRow(row []int) int {
	total := 0
	for _, n := range row {
		total += n
	}
	return total
}
