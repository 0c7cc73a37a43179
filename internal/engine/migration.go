package engine

import (
	"math"

	"github.com/talgya/socweb/internal/entropy"
	"github.com/talgya/socweb/internal/rates"
)

// Migrate runs one migration pass over all sites and returns the number of
// individuals that left each site, indexed by site.
//
// Sites are visited in a fresh random order and, within a site, species in a
// fresh random order. Migrants land in the target's New counter and leave
// the source's Old counter once per (site, species), so nobody moves twice
// in the same pass.
func (s *Simulation) Migrate() []int {
	sites := s.State.Sites

	order := make([]int, len(sites))
	for i := range order {
		order[i] = i
	}
	entropy.Shuffle(s.RNG, order)

	for _, i := range order {
		site := sites[i]
		entropy.Shuffle(s.RNG, site.Order)
		for _, sp := range site.Order {
			site.Preference[sp] = float64(s.State.PreyIndividuals(i, sp) - s.State.PredatorIndividuals(i, sp))
		}
	}

	moved := make([]int, len(sites))
	for _, i := range order {
		for _, sp := range sites[i].Order {
			moved[i] += s.migrateSpecies(i, sp)
		}
	}

	total := 0
	for _, n := range moved {
		total += n
	}
	s.Stats.Migrants += total
	return moved
}

// migrateSpecies moves individuals of sp from site to its neighbors, in the
// order the neighborhood was declared.
func (s *Simulation) migrateSpecies(site, sp int) int {
	src := s.State.SiteAt(site)
	if src.Pop[sp].Old == 0 {
		return 0
	}
	density := src.Density(sp)

	moved := 0
	for _, n := range src.Neighbors {
		remaining := src.Pop[sp].Old - moved
		if remaining <= 0 {
			break
		}
		migrants := int(math.Floor(float64(remaining) * density))
		if migrants > remaining {
			migrants = remaining
		}
		if migrants <= 0 {
			continue
		}

		dst := s.State.SiteAt(n.Site)
		vacancy := rates.CarryingCapacity(s.State, sp, n.Site) - dst.Pop[sp].Old
		if vacancy <= 0 {
			// Full target. Predation on arrival is disabled.
			continue
		}
		if migrants > vacancy {
			migrants = vacancy
		}
		dst.Pop[sp].New += migrants
		moved += migrants
	}

	src.Pop[sp].Old -= moved
	return moved
}
