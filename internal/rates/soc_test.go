package rates

import (
	"math"
	"testing"

	"github.com/talgya/socweb/internal/ecology"
)

// chain builds grass <- rabbit <- fox on one site with capacity 50.
func chain(t *testing.T, grass, rabbit, fox int) *ecology.State {
	t.Helper()
	web := ecology.FoodWeb{
		Species: []ecology.SpeciesDef{
			{ID: 1, Name: "grass"},
			{ID: 2, Name: "rabbit"},
			{ID: 3, Name: "fox"},
		},
		Edges: []ecology.Edge{
			{Prey: 1, Predator: 2},
			{Prey: 2, Predator: 3},
		},
	}
	land := ecology.Landscape{Sites: []ecology.SiteDef{{ID: 1, Name: "meadow", Capacity: 50}}}
	st, err := ecology.NewState(web, land)
	if err != nil {
		t.Fatalf("NewState failed: %v", err)
	}
	s := st.Sites[0]
	s.Pop[0].Old = grass
	s.Pop[1].Old = rabbit
	s.Pop[2].Old = fox
	return st
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

const (
	grass  = 0
	rabbit = 1
	fox    = 2
)

func TestPredationPressure(t *testing.T) {
	st := chain(t, 4, 2, 2)
	if got := PredationPressure(st, grass, 0); !near(got, 0.25) {
		t.Errorf("expected 0.25 for grass, got %v", got)
	}
	if got := PredationPressure(st, fox, 0); got != 0 {
		t.Errorf("expected 0 for the top predator, got %v", got)
	}

	empty := chain(t, 0, 0, 0)
	if got := PredationPressure(empty, grass, 0); got != 0 {
		t.Errorf("expected 0 on an empty site, got %v", got)
	}
}

func TestComputeChain(t *testing.T) {
	st := chain(t, 4, 2, 2)

	tests := []struct {
		name string
		sp   int
		want ecology.Rates
	}{
		{
			name: "grass",
			sp:   grass,
			want: ecology.Rates{Birth: 0.375, Death: 1, NaturalDeath: 0, Migration: 0.5, CarryingCapacity: 50},
		},
		{
			name: "rabbit",
			sp:   rabbit,
			want: ecology.Rates{Birth: 0.2109375, Death: 0.0234375, NaturalDeath: 0.03125, Migration: 0.5, CarryingCapacity: 2},
		},
		{
			name: "fox",
			sp:   fox,
			want: ecology.Rates{Birth: 0.140625, Death: 0.046875, NaturalDeath: 0.25 * 0.1875, Migration: 0.5, CarryingCapacity: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(st, tt.sp, 0)
			if !near(got.Birth, tt.want.Birth) {
				t.Errorf("Birth: expected %v, got %v", tt.want.Birth, got.Birth)
			}
			if !near(got.Death, tt.want.Death) {
				t.Errorf("Death: expected %v, got %v", tt.want.Death, got.Death)
			}
			if !near(got.NaturalDeath, tt.want.NaturalDeath) {
				t.Errorf("NaturalDeath: expected %v, got %v", tt.want.NaturalDeath, got.NaturalDeath)
			}
			if !near(got.Migration, tt.want.Migration) {
				t.Errorf("Migration: expected %v, got %v", tt.want.Migration, got.Migration)
			}
			if got.CarryingCapacity != tt.want.CarryingCapacity {
				t.Errorf("CarryingCapacity: expected %d, got %d", tt.want.CarryingCapacity, got.CarryingCapacity)
			}
		})
	}
}

func TestMigrationFollowsExitus(t *testing.T) {
	st := chain(t, 4, 2, 2)
	st.Sites[0].Exitus[rabbit] = 0.5
	if got := Migration(st, rabbit, 0); !near(got, 0.25) {
		t.Errorf("expected 0.25, got %v", got)
	}
	st.Sites[0].Exitus[rabbit] = 1
	if got := Migration(st, rabbit, 0); got != 0 {
		t.Errorf("expected 0 for exitus 1, got %v", got)
	}
}

func TestNaturalDeathMonopoly(t *testing.T) {
	// Fox alone on the site: no predators, density 1.
	st := chain(t, 0, 0, 7)
	if got := NaturalDeath(st, fox, 0); got != 1 {
		t.Errorf("expected 1 for a predator-free monopolist, got %v", got)
	}

	// Grass alone has predators declared, so the override does not apply.
	st = chain(t, 9, 0, 0)
	if got := NaturalDeath(st, grass, 0); got != 0 {
		t.Errorf("expected 0 for grass alone, got %v", got)
	}
}

func TestDeathByPredationWithoutPrey(t *testing.T) {
	for _, pop := range [][3]int{{0, 0, 0}, {5, 5, 5}, {1, 0, 0}} {
		st := chain(t, pop[0], pop[1], pop[2])
		if got := DeathByPredation(st, grass, 0); got != 1 {
			t.Errorf("population %v: expected 1 for a basal species, got %v", pop, got)
		}
	}
}

func TestCarryingCapacityDivisorFloor(t *testing.T) {
	// No rabbits means no pressure on grass; divisor becomes 1/total.
	st := chain(t, 4, 0, 0)
	if got := CarryingCapacity(st, rabbit, 0); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}

	empty := chain(t, 0, 0, 0)
	if got := CarryingCapacity(empty, rabbit, 0); got != 0 {
		t.Errorf("expected 0 on an empty site, got %d", got)
	}
	if got := CarryingCapacity(empty, grass, 0); got != 50 {
		t.Errorf("expected the site capacity for basal species, got %d", got)
	}
}

func TestRatesInUnitInterval(t *testing.T) {
	pops := [][3]int{{1, 1, 1}, {10, 0, 3}, {0, 4, 4}, {100, 30, 2}, {0, 0, 1}}
	for _, pop := range pops {
		st := chain(t, pop[0], pop[1], pop[2])
		for sp := 0; sp < 3; sp++ {
			r := Compute(st, sp, 0)
			for name, v := range map[string]float64{
				"birth": r.Birth, "death": r.Death, "natural_death": r.NaturalDeath, "migration": r.Migration,
			} {
				if v < 0 || v > 1 {
					t.Errorf("population %v species %d: %s out of [0,1]: %v", pop, sp, name, v)
				}
			}
			if r.CarryingCapacity < 0 {
				t.Errorf("population %v species %d: negative capacity %d", pop, sp, r.CarryingCapacity)
			}
		}
	}
}

func TestRefreshStoresRates(t *testing.T) {
	st := chain(t, 4, 2, 2)
	r := Refresh(st, rabbit, 0)
	if st.Species[rabbit].Rates != r {
		t.Errorf("expected stored rates %+v, got %+v", r, st.Species[rabbit].Rates)
	}
}
