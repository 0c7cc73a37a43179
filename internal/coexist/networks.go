// Package coexist derives pairwise species co-occurrence networks from the
// spatial distribution of a population state.
package coexist

import (
	"github.com/talgya/socweb/internal/ecology"
)

// Kind identifies one of the co-occurrence measures.
type Kind int

const (
	OverlapSites     Kind = iota + 1 // Sites where both species are alive
	OverlapSum                       // Σ (total1 + total2) over shared sites
	OverlapProduct                   // Σ (total1 × total2) over shared sites
	AbundanceSimilar                 // Mean per-site min/max abundance ratio
	Exclusion                        // Individuals on sites holding exactly one of the two, over total1 + total2
	Asymmetric                       // Shared sites over sites holding the source species
	AboveNull                        // Asymmetric overlap above the null-model expectation
	IndividualShare                  // Source individuals on shared sites over total1 + total2
)

// Kinds lists every measure in file order.
var Kinds = []Kind{
	OverlapSites, OverlapSum, OverlapProduct, AbundanceSimilar,
	Exclusion, Asymmetric, AboveNull, IndividualShare,
}

// Directed reports whether links of this kind are arcs.
func (k Kind) Directed() bool {
	return k >= Asymmetric
}

// Link is a weighted relation between two species indices.
type Link struct {
	From  int     `json:"from"`
	To    int     `json:"to"`
	Value float64 `json:"value"`
}

// Network is one co-occurrence measure over all species pairs.
type Network struct {
	Kind  Kind   `json:"kind"`
	Links []Link `json:"links"`
}

// pair holds the per-pair sums collected over sites.
type pair struct {
	shared       int
	sitesA       int
	sitesB       int
	sum          float64
	product      float64
	similarity   float64
	exclusion    int
	sharedA      int
	sharedB      int
	nullA, nullB float64
}

// Compute builds all networks from the current Old counts. Zero-valued
// links are omitted.
func Compute(st *ecology.State) []Network {
	nets := make([]Network, len(Kinds))
	for i, k := range Kinds {
		nets[i].Kind = k
	}
	add := func(k Kind, from, to int, v float64) {
		if v != 0 {
			nets[k-1].Links = append(nets[k-1].Links, Link{From: from, To: to, Value: v})
		}
	}

	nSites := len(st.Sites)
	totals := make([]int, len(st.Species))
	for sp := range st.Species {
		totals[sp] = st.SpeciesTotal(sp)
	}

	for a := 0; a < len(st.Species)-1; a++ {
		for b := a + 1; b < len(st.Species); b++ {
			p := collect(st, a, b, totals[a], totals[b])
			both := float64(totals[a] + totals[b])

			add(OverlapSites, a, b, float64(p.shared))
			add(OverlapSum, a, b, p.sum)
			add(OverlapProduct, a, b, p.product)
			if nSites > 0 {
				add(AbundanceSimilar, a, b, p.similarity/float64(nSites))
			}
			if p.exclusion > 0 {
				add(Exclusion, a, b, float64(p.exclusion)/both)
			}

			var dAB, dBA float64
			if p.sitesA > 0 {
				dAB = float64(p.shared) / float64(p.sitesA)
				add(Asymmetric, a, b, dAB)
			}
			if p.sitesB > 0 {
				dBA = float64(p.shared) / float64(p.sitesB)
				add(Asymmetric, b, a, dBA)
			}
			if nSites > 0 {
				if dAB > p.nullB/float64(nSites) {
					add(AboveNull, a, b, dAB)
				}
				if dBA > p.nullA/float64(nSites) {
					add(AboveNull, b, a, dBA)
				}
			}
			if p.sharedA > 0 {
				add(IndividualShare, a, b, float64(p.sharedA)/both)
			}
			if p.sharedB > 0 {
				add(IndividualShare, b, a, float64(p.sharedB)/both)
			}
		}
	}
	return nets
}

func collect(st *ecology.State, a, b, totalA, totalB int) pair {
	var p pair
	for _, site := range st.Sites {
		nA, nB := site.Pop[a].Old, site.Pop[b].Old
		p.nullA += site.Density(a)
		p.nullB += site.Density(b)

		switch {
		case nA > 0 && nB > 0:
			p.shared++
			p.sitesA++
			p.sitesB++
			p.sum += float64(totalA + totalB)
			p.product += float64(totalA) * float64(totalB)
			p.similarity += float64(min(nA, nB)) / float64(max(nA, nB))
			p.sharedA += nA
			p.sharedB += nB
		case nA > 0:
			p.sitesA++
			p.exclusion += nA
		case nB > 0:
			p.sitesB++
			p.exclusion += nB
		}
	}
	return p
}
