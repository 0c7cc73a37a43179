// Package rates computes the self-organized vital rates of a species at a
// site from the current densities. The functions only read state; the engine
// calls Compute before every individual trial.
package rates

import (
	"math"

	"github.com/talgya/socweb/internal/ecology"
)

// PredationPressure is the fraction of the site population made of
// predators of prey. Zero on an empty site.
func PredationPressure(st *ecology.State, prey, site int) float64 {
	total := st.SiteAt(site).TotalPopulation()
	if total == 0 {
		return 0
	}
	return float64(st.PredatorIndividuals(site, prey)) / float64(total)
}

// Migration is 0.5 × (1 − reproductive exitus): successful breeders stay.
func Migration(st *ecology.State, sp, site int) float64 {
	return 0.5 * (1 - st.SiteAt(site).Exitus[sp])
}

// preyScarcity accumulates Σ pressure(prey) × (1 − d_prey) over the prey of sp.
func preyScarcity(st *ecology.State, sp, site int) float64 {
	s := st.SiteAt(site)
	dx := 0.0
	for _, prey := range st.SpeciesAt(sp).Prey {
		dx += PredationPressure(st, prey, site) * (1 - s.Density(prey))
	}
	return dx
}

// predatorDensity is the summed density of the predators of sp.
func predatorDensity(st *ecology.State, sp, site int) float64 {
	s := st.SiteAt(site)
	dy := 0.0
	for _, pred := range st.SpeciesAt(sp).Predators {
		dy += s.Density(pred)
	}
	return dy
}

// NaturalDeath is own density × prey scarcity. A species without predators
// that fills the whole site dies with probability 1.
func NaturalDeath(st *ecology.State, sp, site int) float64 {
	own := st.SiteAt(site).Density(sp)
	if !st.SpeciesAt(sp).HasPredators() && own == 1 {
		return 1
	}
	return own * preyScarcity(st, sp, site)
}

// DeathByPredation is own density, damped by the predators already present
// and scaled by prey scarcity. A species without prey returns 1.
func DeathByPredation(st *ecology.State, sp, site int) float64 {
	species := st.SpeciesAt(sp)
	if !species.IsPredator() {
		return 1
	}
	p := st.SiteAt(site).Density(sp)
	if species.HasPredators() {
		p *= 1 - predatorDensity(st, sp, site)
	}
	return p * preyScarcity(st, sp, site)
}

// CarryingCapacity is the site capacity for basal species. For consumers it
// is Σ d_prey / Σ pressure(prey), with a zero divisor floored to 1/total.
func CarryingCapacity(st *ecology.State, sp, site int) int {
	s := st.SiteAt(site)
	species := st.SpeciesAt(sp)
	if !species.IsPredator() {
		return s.Capacity
	}

	total := s.TotalPopulation()
	if total == 0 {
		return 0
	}

	dPrey, pressure := 0.0, 0.0
	for _, prey := range species.Prey {
		dPrey += s.Density(prey)
		pressure += PredationPressure(st, prey, site)
	}
	if pressure == 0 {
		pressure = 1 / float64(total)
	}
	return int(math.Floor(dPrey / pressure))
}

// Birth is (1 − own density), scaled by prey availability for consumers and
// by (1 − predator density) for species that are being hunted.
func Birth(st *ecology.State, sp, site int) float64 {
	s := st.SiteAt(site)
	species := st.SpeciesAt(sp)

	p := 1 - s.Density(sp)
	if species.IsPredator() {
		bx := 0.0
		for _, prey := range species.Prey {
			bx += s.Density(prey) * (1 - PredationPressure(st, prey, site))
		}
		p *= bx
	}
	if species.HasPredators() {
		if by := predatorDensity(st, sp, site); by > 0 {
			p *= 1 - by
		}
	}
	return p
}

// Compute evaluates all five rates of sp at site.
func Compute(st *ecology.State, sp, site int) ecology.Rates {
	return ecology.Rates{
		Birth:            Birth(st, sp, site),
		Death:            DeathByPredation(st, sp, site),
		NaturalDeath:     NaturalDeath(st, sp, site),
		Migration:        Migration(st, sp, site),
		CarryingCapacity: CarryingCapacity(st, sp, site),
	}
}

// Refresh computes the rates of sp at site and stores them on the species.
func Refresh(st *ecology.State, sp, site int) ecology.Rates {
	r := Compute(st, sp, site)
	st.SpeciesAt(sp).Rates = r
	return r
}
