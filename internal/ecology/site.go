package ecology

// Counters are the population views of one species at one site.
type Counters struct {
	Old     int `json:"old"`     // Live individuals available for trials
	New     int `json:"new"`     // Births and arrivals, merged at the next timestep
	Newborn int `json:"newborn"` // Births this timestep
	OldIni  int `json:"old_ini"` // Old at the start of the timestep
}

// Neighbor is one edge of the spatial network, stored on the source site.
type Neighbor struct {
	Site   int     `json:"site"` // Index of the neighboring site
	Weight float64 `json:"weight"`
}

// Accumulator sums the rates drawn for a species at a site over one
// timestep, for averaging in the SOC parameter dump.
type Accumulator struct {
	Birth        float64 `json:"birth"`
	Death        float64 `json:"death"`
	Migration    float64 `json:"migration"`
	NaturalDeath float64 `json:"natural_death"`
	Trials       int     `json:"trials"`
}

// Mean returns the averaged rates. All zero when no trial ran.
func (a Accumulator) Mean() Rates {
	if a.Trials == 0 {
		return Rates{}
	}
	n := float64(a.Trials)
	return Rates{
		Birth:        a.Birth / n,
		Death:        a.Death / n,
		Migration:    a.Migration / n,
		NaturalDeath: a.NaturalDeath / n,
	}
}

// Tally counts events at a site since the last timestep boundary.
type Tally struct {
	Trials        int `json:"trials"`
	NaturalDeaths int `json:"natural_deaths"`
	Predations    int `json:"predations"`
	Births        int `json:"births"`
}

// Site is one habitat patch.
type Site struct {
	ID       int    `json:"id"` // Declared id
	Name     string `json:"name"`
	Capacity int    `json:"capacity"` // Fixed carrying capacity

	Pop        []Counters    `json:"pop"`        // Indexed by species
	Exitus     []float64     `json:"exitus"`     // Reproductive exitus per species
	Preference []float64     `json:"preference"` // Prey minus predator individuals
	SOC        []Accumulator `json:"soc"`
	Order      []int         `json:"order"` // Species order for migration passes

	Neighbors []Neighbor `json:"neighbors"`
	Tally     Tally      `json:"tally"`
}

// NewSite creates an empty site sized for nSpecies species.
func NewSite(id int, name string, capacity, nSpecies int) *Site {
	s := &Site{
		ID:         id,
		Name:       name,
		Capacity:   capacity,
		Pop:        make([]Counters, nSpecies),
		Exitus:     make([]float64, nSpecies),
		Preference: make([]float64, nSpecies),
		SOC:        make([]Accumulator, nSpecies),
		Order:      make([]int, nSpecies),
	}
	for i := range s.Order {
		s.Order[i] = i
	}
	return s
}

// TotalPopulation returns the sum of Old over all species.
func (s *Site) TotalPopulation() int {
	total := 0
	for _, c := range s.Pop {
		total += c.Old
	}
	return total
}

// Density returns Old[sp] / total population, or 0 on an empty site.
func (s *Site) Density(sp int) float64 {
	total := s.TotalPopulation()
	if total == 0 {
		return 0
	}
	return float64(s.Pop[sp].Old) / float64(total)
}

// Present returns the indices of species with Old > 0, in index order.
func (s *Site) Present() []int {
	var out []int
	for i, c := range s.Pop {
		if c.Old > 0 {
			out = append(out, i)
		}
	}
	return out
}

// Die removes one individual of sp. It never drives Old below zero.
func (s *Site) Die(sp int) bool {
	if s.Pop[sp].Old <= 0 {
		return false
	}
	s.Pop[sp].Old--
	return true
}

// Born registers one newborn of sp. It becomes available at the next timestep.
func (s *Site) Born(sp int) {
	s.Pop[sp].New++
	s.Pop[sp].Newborn++
	s.Tally.Births++
}

// AddNeighbor appends an edge to another site.
func (s *Site) AddNeighbor(site int, weight float64) {
	s.Neighbors = append(s.Neighbors, Neighbor{Site: site, Weight: weight})
}

// BeginTimestep runs the per-site accounting that opens every timestep:
// reproductive exitus from the previous timestep, merge of New into Old,
// a fresh OldIni snapshot, and cleared counters and accumulators.
func (s *Site) BeginTimestep() {
	for i := range s.Pop {
		c := &s.Pop[i]
		if c.OldIni > 0 {
			s.Exitus[i] = float64(c.Newborn) / float64(c.OldIni)
		} else {
			s.Exitus[i] = 1
		}
		c.Old += c.New
		c.OldIni = c.Old
		c.New = 0
		c.Newborn = 0
		s.SOC[i] = Accumulator{}
	}
	s.Tally = Tally{}
}

// Accumulate adds the rates of one trial of sp to the running sums.
func (s *Site) Accumulate(sp int, r Rates) {
	a := &s.SOC[sp]
	a.Birth += r.Birth
	a.Death += r.Death
	a.Migration += r.Migration
	a.NaturalDeath += r.NaturalDeath
	a.Trials++
}
