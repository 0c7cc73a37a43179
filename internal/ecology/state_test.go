package ecology

import (
	"math"
	"testing"

	"github.com/talgya/socweb/internal/entropy"
)

func twoSpeciesWeb() FoodWeb {
	return FoodWeb{
		Species: []SpeciesDef{
			{ID: 1, Name: "grass", Birth: 0.5, Initial: 10},
			{ID: 2, Name: "rabbit", Birth: 0.3, Initial: 4},
		},
		Edges: []Edge{{Prey: 1, Predator: 2}},
	}
}

func twoSiteLandscape() Landscape {
	return Landscape{
		Sites: []SiteDef{{ID: 10, Name: "a", Capacity: 10}, {ID: 20, Name: "b", Capacity: 5}},
		Edges: []SiteEdge{{From: 10, To: 20, Weight: 1}},
	}
}

func TestNewStateResolvesIDs(t *testing.T) {
	st, err := NewState(twoSpeciesWeb(), twoSiteLandscape())
	if err != nil {
		t.Fatalf("NewState failed: %v", err)
	}

	if got := st.Species[1].Prey; len(got) != 1 || got[0] != 0 {
		t.Errorf("expected rabbit prey [0], got %v", got)
	}
	if got := st.Species[0].Predators; len(got) != 1 || got[0] != 1 {
		t.Errorf("expected grass predators [1], got %v", got)
	}
	if !st.Species[1].IsPredator() || st.Species[0].IsPredator() {
		t.Error("expected only the rabbit to be a predator")
	}

	if i, ok := st.SiteIndex(20); !ok || i != 1 {
		t.Errorf("expected site 20 at index 1, got %d (%v)", i, ok)
	}
	if n := st.Sites[0].Neighbors; len(n) != 1 || n[0].Site != 1 || n[0].Weight != 1 {
		t.Errorf("unexpected neighborhood %+v", n)
	}
	if len(st.Sites[1].Neighbors) != 0 {
		t.Errorf("expected edges stored on the source site only, got %+v", st.Sites[1].Neighbors)
	}
}

func TestNewStateRejectsUnknownIDs(t *testing.T) {
	tests := []struct {
		name string
		web  FoodWeb
		land Landscape
	}{
		{
			name: "unknown prey",
			web: FoodWeb{
				Species: []SpeciesDef{{ID: 1}},
				Edges:   []Edge{{Prey: 9, Predator: 1}},
			},
			land: twoSiteLandscape(),
		},
		{
			name: "duplicate species",
			web:  FoodWeb{Species: []SpeciesDef{{ID: 1}, {ID: 1}}},
			land: twoSiteLandscape(),
		},
		{
			name: "unknown site",
			web:  twoSpeciesWeb(),
			land: Landscape{
				Sites: []SiteDef{{ID: 1, Capacity: 3}},
				Edges: []SiteEdge{{From: 1, To: 2, Weight: 1}},
			},
		},
		{
			name: "negative capacity",
			web:  twoSpeciesWeb(),
			land: Landscape{Sites: []SiteDef{{ID: 1, Capacity: -1}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewState(tt.web, tt.land); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestPopulate(t *testing.T) {
	st, err := NewState(twoSpeciesWeb(), twoSiteLandscape())
	if err != nil {
		t.Fatalf("NewState failed: %v", err)
	}
	r := &entropy.Replay{Floats: []float64{0.5, 0.99, 0.0, 0.25}}
	st.Populate(r)

	want := [][]int{{5, 3}, {0, 1}}
	for i, row := range st.Matrix() {
		for sp, n := range row {
			if n != want[i][sp] {
				t.Errorf("site %d species %d: expected %d, got %d", i, sp, want[i][sp], n)
			}
			if st.Sites[i].Pop[sp].OldIni != n {
				t.Errorf("site %d species %d: expected OldIni %d, got %d", i, sp, n, st.Sites[i].Pop[sp].OldIni)
			}
		}
	}
}

func TestDensity(t *testing.T) {
	s := NewSite(1, "s", 10, 3)
	for sp := 0; sp < 3; sp++ {
		if d := s.Density(sp); d != 0 {
			t.Errorf("expected density 0 on empty site, got %v", d)
		}
	}

	s.Pop[0].Old = 3
	s.Pop[1].Old = 1
	sum := 0.0
	for sp := 0; sp < 3; sp++ {
		sum += s.Density(sp)
	}
	if sum > 1+1e-12 {
		t.Errorf("expected densities to sum to at most 1, got %v", sum)
	}
	if d := s.Density(0); math.Abs(d-0.75) > 1e-12 {
		t.Errorf("expected 0.75, got %v", d)
	}
}

func TestBeginTimestep(t *testing.T) {
	s := NewSite(1, "s", 10, 2)
	s.Pop[0] = Counters{Old: 4, New: 3, Newborn: 2, OldIni: 4}
	s.Pop[1] = Counters{Old: 0, New: 2, Newborn: 0, OldIni: 0}
	s.Accumulate(0, Rates{Birth: 1})

	s.BeginTimestep()

	if s.Exitus[0] != 0.5 {
		t.Errorf("expected exitus 0.5, got %v", s.Exitus[0])
	}
	if s.Exitus[1] != 1 {
		t.Errorf("expected exitus 1 when OldIni is 0, got %v", s.Exitus[1])
	}
	want := []Counters{{Old: 7, OldIni: 7}, {Old: 2, OldIni: 2}}
	for i, c := range s.Pop {
		if c != want[i] {
			t.Errorf("species %d: expected %+v, got %+v", i, want[i], c)
		}
	}
	if s.SOC[0].Trials != 0 {
		t.Errorf("expected accumulators reset, got %+v", s.SOC[0])
	}
}

func TestDieNeverNegative(t *testing.T) {
	s := NewSite(1, "s", 10, 1)
	s.Pop[0].Old = 1
	if !s.Die(0) {
		t.Error("expected first death to apply")
	}
	if s.Die(0) {
		t.Error("expected death on empty population to be refused")
	}
	if s.Pop[0].Old != 0 {
		t.Errorf("expected 0, got %d", s.Pop[0].Old)
	}
}

func TestBornGoesToNew(t *testing.T) {
	s := NewSite(1, "s", 10, 1)
	s.Pop[0].Old = 2
	s.Born(0)
	if s.Pop[0].Old != 2 || s.Pop[0].New != 1 || s.Pop[0].Newborn != 1 {
		t.Errorf("unexpected counters after birth: %+v", s.Pop[0])
	}
}

func TestAccumulatorMean(t *testing.T) {
	var a Accumulator
	if a.Mean() != (Rates{}) {
		t.Error("expected zero mean without trials")
	}
	s := NewSite(1, "s", 10, 1)
	s.Accumulate(0, Rates{Birth: 0.2, Death: 0.4})
	s.Accumulate(0, Rates{Birth: 0.4, Death: 0.0})
	m := s.SOC[0].Mean()
	if math.Abs(m.Birth-0.3) > 1e-12 || math.Abs(m.Death-0.2) > 1e-12 {
		t.Errorf("unexpected mean %+v", m)
	}
}

func TestSpeciesRecord(t *testing.T) {
	sp := &Species{}
	sp.Record(2, 5)
	if len(sp.Trajectory) != 3 || sp.Trajectory[2] != 5 || !sp.Present[2] || sp.Present[0] {
		t.Errorf("unexpected trajectory %v / %v", sp.Trajectory, sp.Present)
	}
}

func TestSpeciesAtPanicsOutOfRange(t *testing.T) {
	st, err := NewState(twoSpeciesWeb(), twoSiteLandscape())
	if err != nil {
		t.Fatalf("NewState failed: %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic for out-of-range index")
		}
	}()
	st.SpeciesAt(5)
}
