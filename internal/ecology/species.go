// Package ecology holds the population state of a food web spread over a
// network of habitat sites: species, sites, and the State arena that owns
// both. Everything past load time addresses species and sites by 0-based
// index; declared ids are only used for lookup and output.
package ecology

// Rates are the vital rates of a species at one site. The engine recomputes
// them before every individual trial.
type Rates struct {
	Birth            float64 `json:"birth"`
	Death            float64 `json:"death"`
	NaturalDeath     float64 `json:"natural_death"`
	Migration        float64 `json:"migration"`
	CarryingCapacity int     `json:"carrying_capacity"`
}

// Species is one node of the trophic network.
type Species struct {
	ID   int    `json:"id"` // Declared 1-based id
	Name string `json:"name"`

	// Declared rates from the food-web file. CarryingCapacity is unused here.
	Declared     Rates `json:"declared"`
	InitialCount int   `json:"initial_count"`

	Prey      []int `json:"prey"`      // Indices of species this one eats
	Predators []int `json:"predators"` // Indices of species that eat this one

	// Rates from the most recent trial of this species, wherever it ran.
	Rates Rates `json:"rates"`

	// Trajectory holds the total population across sites per sampling epoch.
	Trajectory []int  `json:"trajectory"`
	Present    []bool `json:"present"` // Trajectory[i] > 0
}

// IsPredator reports whether the species has at least one prey.
func (sp *Species) IsPredator() bool {
	return len(sp.Prey) > 0
}

// HasPredators reports whether anything eats this species.
func (sp *Species) HasPredators() bool {
	return len(sp.Predators) > 0
}

// Record stores the species total for a sampling epoch, growing the buffer
// as needed.
func (sp *Species) Record(epoch, total int) {
	for len(sp.Trajectory) <= epoch {
		sp.Trajectory = append(sp.Trajectory, 0)
		sp.Present = append(sp.Present, false)
	}
	sp.Trajectory[epoch] = total
	sp.Present[epoch] = total > 0
}
