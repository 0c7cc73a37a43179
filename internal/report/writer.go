// Package report writes the plain-text results of a realization: population
// snapshots, species time series, SOC parameter averages, realized
// migration, coexistence networks and the stability record.
package report

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/talgya/socweb/internal/coexist"
	"github.com/talgya/socweb/internal/ecology"
	"github.com/talgya/socweb/internal/netfile"
)

// StabilityFile collects one line per realization across runs.
const StabilityFile = "Realizations_vs_IterationWithAllAlive.dat"

// Writer writes the files of one realization into Dir. File names carry the
// seed and realization so several realizations can share a directory.
type Writer struct {
	Dir         string
	Seed        int64
	Realization int
}

// NewWriter creates dir if needed.
func NewWriter(dir string, seed int64, realization int) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	return &Writer{Dir: dir, Seed: seed, Realization: realization}, nil
}

func (w *Writer) suffix() string {
	return fmt.Sprintf("seed_%d_real_%d", w.Seed, w.Realization)
}

func (w *Writer) path(name string) string {
	return filepath.Join(w.Dir, name)
}

// SpeciesFile is the snapshot file of species index sp.
func (w *Writer) SpeciesFile(sp int) string {
	return w.path(fmt.Sprintf("output_species_%03d_%s.dat", sp+1, w.suffix()))
}

// SOCFile is the SOC parameter file of species index sp.
func (w *Writer) SOCFile(sp int) string {
	return w.path(fmt.Sprintf("SOC_Parameters_sp_%03d_%s.dat", sp+1, w.suffix()))
}

// TimeSeriesFile holds the species totals per sampling epoch.
func (w *Writer) TimeSeriesFile() string {
	return w.path(fmt.Sprintf("AverIndInTime_%s.dat", w.suffix()))
}

// MigrationFile holds one line of realized migrants per migration pass.
func (w *Writer) MigrationFile() string {
	return w.path(fmt.Sprintf("realMigration_%s.dat", w.suffix()))
}

// NetworkFile is the coexistence network of the given kind at tick.
func (w *Writer) NetworkFile(tick int, kind coexist.Kind) string {
	return w.path(fmt.Sprintf("overlapping_%05d_%s_%d.net", tick+1, w.suffix(), kind))
}

// FoodWebFile is the echo of the food web the realization ran with.
func (w *Writer) FoodWebFile() string {
	return w.path(fmt.Sprintf("FoodWeb_seed_%d.net", w.Seed))
}

// appendTo opens name for appending and hands a buffered writer to fn.
func appendTo(name string, fn func(*bufio.Writer)) error {
	f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	fn(bw)
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// rewrite truncates name and fills it through a buffered writer.
func rewrite(name string, fn func(*bufio.Writer)) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	fn(bw)
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Snapshot appends one line per species with its Old count at every site.
func (w *Writer) Snapshot(st *ecology.State) error {
	for sp := range st.Species {
		err := appendTo(w.SpeciesFile(sp), func(bw *bufio.Writer) {
			for _, site := range st.Sites {
				bw.WriteString(strconv.Itoa(site.Pop[sp].Old))
				bw.WriteByte(' ')
			}
			bw.WriteByte('\n')
		})
		if err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
	}
	return nil
}

// TimeSeries rewrites the time-series file with every sampling epoch
// before tick and returns the stability record: one past the last sampled
// timestep at which all species were alive, or 0.
func (w *Writer) TimeSeries(st *ecology.State, tick, showEvery int) (int, error) {
	last := 0
	err := rewrite(w.TimeSeriesFile(), func(bw *bufio.Writer) {
		for t := 0; showEvery > 0 && t < tick; t += showEvery {
			epoch := t / showEvery
			bw.WriteString(strconv.Itoa(t))
			for _, sp := range st.Species {
				n := 0
				if epoch < len(sp.Trajectory) {
					n = sp.Trajectory[epoch]
				}
				bw.WriteByte(' ')
				bw.WriteString(strconv.Itoa(n))
			}
			bw.WriteByte('\n')
			if st.AllPresent(epoch) {
				last = t + 1
			}
		}
	})
	if err != nil {
		return 0, fmt.Errorf("writing time series: %w", err)
	}
	return last, nil
}

// SOC appends the averaged rates and the population of every species at
// site as "{bp,dp,mp,ndp,n} ".
func (w *Writer) SOC(st *ecology.State, site int) error {
	s := st.SiteAt(site)
	for sp := range st.Species {
		m := s.SOC[sp].Mean()
		err := appendTo(w.SOCFile(sp), func(bw *bufio.Writer) {
			fmt.Fprintf(bw, "{%g,%g,%g,%g,%d} ", m.Birth, m.Death, m.Migration, m.NaturalDeath, s.Pop[sp].Old)
		})
		if err != nil {
			return fmt.Errorf("writing SOC parameters: %w", err)
		}
	}
	return nil
}

// EndSOC terminates the current line of every SOC parameter file.
func (w *Writer) EndSOC(st *ecology.State) error {
	for sp := range st.Species {
		if err := appendTo(w.SOCFile(sp), func(bw *bufio.Writer) { bw.WriteByte('\n') }); err != nil {
			return fmt.Errorf("writing SOC parameters: %w", err)
		}
	}
	return nil
}

// Migration appends the realized migrant count of every site.
func (w *Writer) Migration(moved []int) error {
	err := appendTo(w.MigrationFile(), func(bw *bufio.Writer) {
		for _, n := range moved {
			bw.WriteString(strconv.Itoa(n))
			bw.WriteByte(' ')
		}
		bw.WriteByte('\n')
	})
	if err != nil {
		return fmt.Errorf("writing migration: %w", err)
	}
	return nil
}

// Networks writes one file per coexistence network. Vertices are labelled
// with declared species ids.
func (w *Writer) Networks(st *ecology.State, tick int, nets []coexist.Network) error {
	labels := make([]string, len(st.Species))
	for i, sp := range st.Species {
		labels[i] = strconv.Itoa(sp.ID)
	}
	for _, n := range nets {
		links := make([]netfile.Link, len(n.Links))
		for i, l := range n.Links {
			links[i] = netfile.Link{From: l.From + 1, To: l.To + 1, Weight: l.Value}
		}
		if err := writeFile(w.NetworkFile(tick, n.Kind), func(f *os.File) error {
			return netfile.WriteNetwork(f, labels, n.Kind.Directed(), links)
		}); err != nil {
			return fmt.Errorf("writing coexistence network %d: %w", n.Kind, err)
		}
	}
	return nil
}

// FoodWeb writes the declared food web back out.
func (w *Writer) FoodWeb(st *ecology.State) error {
	err := writeFile(w.FoodWebFile(), func(f *os.File) error {
		return netfile.WriteFoodWeb(f, Definition(st))
	})
	if err != nil {
		return fmt.Errorf("writing food web: %w", err)
	}
	return nil
}

// Definition rebuilds the declared food web from a state.
func Definition(st *ecology.State) ecology.FoodWeb {
	var web ecology.FoodWeb
	for _, sp := range st.Species {
		web.Species = append(web.Species, ecology.SpeciesDef{
			ID:           sp.ID,
			Name:         sp.Name,
			Birth:        sp.Declared.Birth,
			Death:        sp.Declared.Death,
			NaturalDeath: sp.Declared.NaturalDeath,
			Migration:    sp.Declared.Migration,
			Initial:      sp.InitialCount,
		})
	}
	for _, sp := range st.Species {
		for _, prey := range sp.Prey {
			web.Edges = append(web.Edges, ecology.Edge{Prey: st.Species[prey].ID, Predator: sp.ID})
		}
	}
	return web
}

// Stability is the stability record of one realization.
type Stability struct {
	Realization  int
	LastAllAlive int
}

// WriteStability appends the records to the shared stability file in dir.
func WriteStability(dir string, rows []Stability) error {
	err := appendTo(filepath.Join(dir, StabilityFile), func(bw *bufio.Writer) {
		for _, r := range rows {
			fmt.Fprintf(bw, "%d %d\n", r.Realization, r.LastAllAlive)
		}
	})
	if err != nil {
		return fmt.Errorf("writing stability: %w", err)
	}
	return nil
}

func writeFile(name string, fn func(*os.File) error) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
