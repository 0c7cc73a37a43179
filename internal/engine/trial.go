package engine

import (
	"context"
	"log/slog"
	"math"

	"github.com/talgya/socweb/internal/logging"
	"github.com/talgya/socweb/internal/rates"
)

// TrialBudget is the number of individual trials a site with sumOld
// individuals runs: floor(10 ln sumOld), and none for an empty site.
func TrialBudget(sumOld int) int {
	if sumOld <= 0 {
		return 0
	}
	return int(math.Floor(10 * math.Log(float64(sumOld))))
}

// runTrials runs trials at a site until the budget, re-evaluated from the
// current population after every trial, is spent.
func (s *Simulation) runTrials(site int) {
	st := s.State.SiteAt(site)
	sumOld := st.TotalPopulation()
	for i := 0; i < TrialBudget(sumOld); i++ {
		s.Trial(site)
		sumOld = st.TotalPopulation()
	}
}

// Trial samples one individual at site and applies one stochastic trial to
// it. It returns the sampled species, or -1 when nobody is alive.
func (s *Simulation) Trial(site int) int {
	st := s.State.SiteAt(site)
	sp := s.pickSpecies(site)
	if sp < 0 {
		return -1
	}

	r := rates.Refresh(s.State, sp, site)
	st.Tally.Trials++

	switch {
	case s.RNG.Float() < r.NaturalDeath:
		if st.Die(sp) {
			st.Tally.NaturalDeaths++
		}
	case s.State.SpeciesAt(sp).IsPredator():
		s.feed(site, sp, r.Birth)
	default:
		if st.Pop[sp].Old < r.CarryingCapacity && s.RNG.Float() < r.Birth {
			st.Born(sp)
		}
	}

	st.Accumulate(sp, r)

	if ctx := context.Background(); slog.Default().Enabled(ctx, logging.LevelTrace) {
		slog.Log(ctx, logging.LevelTrace, "trial",
			"site", st.ID,
			"species", s.State.SpeciesAt(sp).ID,
			"old", st.Pop[sp].Old,
			"birth", r.Birth,
			"natural_death", r.NaturalDeath,
			"capacity", r.CarryingCapacity,
		)
	}
	return sp
}

// feed runs the feeding attempts of one predator trial. A kill gives the
// predator one chance to breed; at most one birth happens per trial.
func (s *Simulation) feed(site, sp int, birth float64) {
	st := s.State.SiteAt(site)
	born := false

	for a := 0; a < s.Params.FeedingAttempts; a++ {
		for d := 0; d < s.Params.PreyDrawsPerAttempt; d++ {
			prey := s.pickPrey(site, sp)
			if prey < 0 {
				continue
			}
			pr := rates.Refresh(s.State, prey, site)
			if s.RNG.Float() >= pr.Death {
				continue
			}
			if !st.Die(prey) {
				continue
			}
			st.Tally.Predations++

			u := s.RNG.Float()
			if born || u >= birth {
				continue
			}
			if st.Pop[sp].Old < rates.CarryingCapacity(s.State, sp, site) {
				st.Born(sp)
				born = true
			}
		}
	}
}

// pickSpecies draws uniformly among species alive at site.
func (s *Simulation) pickSpecies(site int) int {
	present := s.State.SiteAt(site).Present()
	if len(present) == 0 {
		return -1
	}
	return present[s.RNG.Intn(len(present))]
}

// pickPrey draws a prey of sp at site, weighted by the prey's population.
func (s *Simulation) pickPrey(site, sp int) int {
	st := s.State.SiteAt(site)
	sum := 0
	for _, prey := range s.State.SpeciesAt(sp).Prey {
		sum += st.Pop[prey].Old
	}
	if sum == 0 {
		return -1
	}

	n := s.RNG.Intn(sum)
	for _, prey := range s.State.SpeciesAt(sp).Prey {
		n -= st.Pop[prey].Old
		if n < 0 {
			return prey
		}
	}
	return -1
}
