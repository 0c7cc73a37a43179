package ecology

import (
	"fmt"

	"github.com/talgya/socweb/internal/entropy"
)

// SpeciesDef is one species as declared in a food-web definition.
type SpeciesDef struct {
	ID           int
	Name         string
	Birth        float64
	Death        float64
	NaturalDeath float64
	Migration    float64
	Initial      int
}

// Edge is a trophic relation: Predator eats Prey. Both are declared ids.
type Edge struct {
	Prey     int
	Predator int
}

// FoodWeb is a parsed food-web definition.
type FoodWeb struct {
	Species []SpeciesDef
	Edges   []Edge
}

// SiteDef is one site as declared in a spatial-neighborhood definition.
type SiteDef struct {
	ID       int
	Name     string
	Capacity int
}

// SiteEdge links site From to site To. Both are declared ids.
type SiteEdge struct {
	From   int
	To     int
	Weight float64
}

// Landscape is a parsed spatial-neighborhood definition.
type Landscape struct {
	Sites []SiteDef
	Edges []SiteEdge
}

// State owns every Site and Species of one realization.
type State struct {
	Species []*Species
	Sites   []*Site

	speciesIndex map[int]int
	siteIndex    map[int]int
}

// NewState builds the arena from validated definitions. Ids are resolved to
// indices here, once.
func NewState(web FoodWeb, land Landscape) (*State, error) {
	st := &State{
		speciesIndex: make(map[int]int, len(web.Species)),
		siteIndex:    make(map[int]int, len(land.Sites)),
	}

	for i, def := range web.Species {
		if _, dup := st.speciesIndex[def.ID]; dup {
			return nil, fmt.Errorf("duplicate species id %d", def.ID)
		}
		st.speciesIndex[def.ID] = i
		st.Species = append(st.Species, &Species{
			ID:   def.ID,
			Name: def.Name,
			Declared: Rates{
				Birth:        def.Birth,
				Death:        def.Death,
				NaturalDeath: def.NaturalDeath,
				Migration:    def.Migration,
			},
			InitialCount: def.Initial,
		})
	}

	for _, e := range web.Edges {
		prey, ok := st.speciesIndex[e.Prey]
		if !ok {
			return nil, fmt.Errorf("trophic edge %d->%d: unknown prey %d", e.Prey, e.Predator, e.Prey)
		}
		pred, ok := st.speciesIndex[e.Predator]
		if !ok {
			return nil, fmt.Errorf("trophic edge %d->%d: unknown predator %d", e.Prey, e.Predator, e.Predator)
		}
		st.Species[pred].Prey = append(st.Species[pred].Prey, prey)
		st.Species[prey].Predators = append(st.Species[prey].Predators, pred)
	}

	for i, def := range land.Sites {
		if _, dup := st.siteIndex[def.ID]; dup {
			return nil, fmt.Errorf("duplicate site id %d", def.ID)
		}
		if def.Capacity < 0 {
			return nil, fmt.Errorf("site %d: negative carrying capacity %d", def.ID, def.Capacity)
		}
		st.siteIndex[def.ID] = i
		st.Sites = append(st.Sites, NewSite(def.ID, def.Name, def.Capacity, len(st.Species)))
	}

	for _, e := range land.Edges {
		from, ok := st.siteIndex[e.From]
		if !ok {
			return nil, fmt.Errorf("site edge %d-%d: unknown site %d", e.From, e.To, e.From)
		}
		to, ok := st.siteIndex[e.To]
		if !ok {
			return nil, fmt.Errorf("site edge %d-%d: unknown site %d", e.From, e.To, e.To)
		}
		st.Sites[from].AddNeighbor(to, e.Weight)
	}

	return st, nil
}

// Populate seeds every site with floor(initial × u) individuals per species,
// sites in the outer loop and species in the inner loop.
func (st *State) Populate(rng entropy.Stream) {
	for _, site := range st.Sites {
		for sp, species := range st.Species {
			n := int(float64(species.InitialCount) * rng.Float())
			site.Pop[sp] = Counters{Old: n, OldIni: n}
		}
	}
}

// SpeciesIndex resolves a declared species id.
func (st *State) SpeciesIndex(id int) (int, bool) {
	i, ok := st.speciesIndex[id]
	return i, ok
}

// SiteIndex resolves a declared site id.
func (st *State) SiteIndex(id int) (int, bool) {
	i, ok := st.siteIndex[id]
	return i, ok
}

// SpeciesAt returns the species at index i. An out-of-range index is a
// programming error.
func (st *State) SpeciesAt(i int) *Species {
	if i < 0 || i >= len(st.Species) {
		panic(fmt.Sprintf("ecology: species index %d out of range [0,%d)", i, len(st.Species)))
	}
	return st.Species[i]
}

// SiteAt returns the site at index i. An out-of-range index is a
// programming error.
func (st *State) SiteAt(i int) *Site {
	if i < 0 || i >= len(st.Sites) {
		panic(fmt.Sprintf("ecology: site index %d out of range [0,%d)", i, len(st.Sites)))
	}
	return st.Sites[i]
}

// SpeciesTotal returns Old of sp summed over all sites.
func (st *State) SpeciesTotal(sp int) int {
	total := 0
	for _, site := range st.Sites {
		total += site.Pop[sp].Old
	}
	return total
}

// PreyIndividuals returns the number of prey individuals of sp at a site.
func (st *State) PreyIndividuals(site, sp int) int {
	s := st.SiteAt(site)
	sum := 0
	for _, prey := range st.SpeciesAt(sp).Prey {
		sum += s.Pop[prey].Old
	}
	return sum
}

// PredatorIndividuals returns the number of predator individuals of sp at a site.
func (st *State) PredatorIndividuals(site, sp int) int {
	s := st.SiteAt(site)
	sum := 0
	for _, pred := range st.SpeciesAt(sp).Predators {
		sum += s.Pop[pred].Old
	}
	return sum
}

// Matrix returns a copy of Old as [site][species].
func (st *State) Matrix() [][]int {
	m := make([][]int, len(st.Sites))
	for i, site := range st.Sites {
		row := make([]int, len(st.Species))
		for sp, c := range site.Pop {
			row[sp] = c.Old
		}
		m[i] = row
	}
	return m
}

// AllPresent reports whether every species was alive at the given epoch.
func (st *State) AllPresent(epoch int) bool {
	for _, sp := range st.Species {
		if epoch >= len(sp.Present) || !sp.Present[epoch] {
			return false
		}
	}
	return true
}
