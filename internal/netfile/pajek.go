// Package netfile reads and writes the Pajek-style network files that
// describe food webs, site neighborhoods and coexistence networks.
//
// A file is a "*Vertices N" header, N vertex records, a section header such
// as "*Arcs" or "*Edges", then link records until end of input. Tokens are
// separated by any whitespace.
package netfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/talgya/socweb/internal/ecology"
)

// ErrMalformed is returned when a file does not follow the expected layout.
var ErrMalformed = errors.New("malformed network file")

// tokens walks a whitespace-separated stream.
type tokens struct {
	sc   *bufio.Scanner
	last string
	n    int
}

func newTokens(r io.Reader) *tokens {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	return &tokens{sc: sc}
}

func (t *tokens) next() (string, bool) {
	if !t.sc.Scan() {
		return "", false
	}
	t.n++
	t.last = t.sc.Text()
	return t.last, true
}

func (t *tokens) err(format string, args ...any) error {
	return fmt.Errorf("%w: token %d (%q): %s", ErrMalformed, t.n, t.last, fmt.Sprintf(format, args...))
}

func (t *tokens) word(what string) (string, error) {
	s, ok := t.next()
	if !ok {
		if err := t.sc.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: unexpected end of input, want %s", ErrMalformed, what)
	}
	return s, nil
}

func (t *tokens) int(what string) (int, error) {
	s, err := t.word(what)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, t.err("%s is not an integer", what)
	}
	return n, nil
}

func (t *tokens) float(what string) (float64, error) {
	s, err := t.word(what)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, t.err("%s is not a number", what)
	}
	return f, nil
}

// section reads a "*Name" header.
func (t *tokens) section(what string) error {
	s, err := t.word(what)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(s, "*") {
		return t.err("want %s header", what)
	}
	return nil
}

// vertices reads the "*Vertices N" header and returns N.
func (t *tokens) vertices() (int, error) {
	if err := t.section("*Vertices"); err != nil {
		return 0, err
	}
	n, err := t.int("vertex count")
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, t.err("negative vertex count")
	}
	return n, nil
}

// ReadFoodWeb parses a food-web file. Vertex records are
// "id name birth death naturalDeath migration initial"; a link "i j" means
// species i eats species j.
func ReadFoodWeb(r io.Reader) (ecology.FoodWeb, error) {
	var web ecology.FoodWeb
	t := newTokens(r)

	n, err := t.vertices()
	if err != nil {
		return web, err
	}
	for i := 0; i < n; i++ {
		var def ecology.SpeciesDef
		if def.ID, err = t.int("species id"); err != nil {
			return web, err
		}
		if def.Name, err = t.word("species name"); err != nil {
			return web, err
		}
		if def.Birth, err = t.float("birth rate"); err != nil {
			return web, err
		}
		if def.Death, err = t.float("death rate"); err != nil {
			return web, err
		}
		if def.NaturalDeath, err = t.float("natural death rate"); err != nil {
			return web, err
		}
		if def.Migration, err = t.float("migration rate"); err != nil {
			return web, err
		}
		if def.Initial, err = t.int("initial individuals"); err != nil {
			return web, err
		}
		web.Species = append(web.Species, def)
	}

	if err := t.section("*Arcs"); err != nil {
		return web, err
	}
	for {
		s, ok := t.next()
		if !ok {
			break
		}
		predator, err := strconv.Atoi(s)
		if err != nil {
			return web, t.err("predator id is not an integer")
		}
		prey, err := t.int("prey id")
		if err != nil {
			return web, err
		}
		web.Edges = append(web.Edges, ecology.Edge{Prey: prey, Predator: predator})
	}
	return web, t.sc.Err()
}

// ReadLandscape parses a site-neighborhood file. Vertex records are
// "id name capacity"; a link "i j w" makes j a neighbor of i with weight w.
func ReadLandscape(r io.Reader) (ecology.Landscape, error) {
	var land ecology.Landscape
	t := newTokens(r)

	n, err := t.vertices()
	if err != nil {
		return land, err
	}
	for i := 0; i < n; i++ {
		var def ecology.SiteDef
		if def.ID, err = t.int("site id"); err != nil {
			return land, err
		}
		if def.Name, err = t.word("site name"); err != nil {
			return land, err
		}
		if def.Capacity, err = t.int("carrying capacity"); err != nil {
			return land, err
		}
		land.Sites = append(land.Sites, def)
	}

	if err := t.section("*Edges"); err != nil {
		return land, err
	}
	for {
		s, ok := t.next()
		if !ok {
			break
		}
		from, err := strconv.Atoi(s)
		if err != nil {
			return land, t.err("source site id is not an integer")
		}
		to, err := t.int("target site id")
		if err != nil {
			return land, err
		}
		w, err := t.float("link weight")
		if err != nil {
			return land, err
		}
		land.Edges = append(land.Edges, ecology.SiteEdge{From: from, To: to, Weight: w})
	}
	return land, t.sc.Err()
}

// LoadFoodWeb reads a food-web file from disk.
func LoadFoodWeb(path string) (ecology.FoodWeb, error) {
	f, err := os.Open(path)
	if err != nil {
		return ecology.FoodWeb{}, fmt.Errorf("opening food web: %w", err)
	}
	defer f.Close()

	web, err := ReadFoodWeb(f)
	if err != nil {
		return web, fmt.Errorf("reading food web %s: %w", path, err)
	}
	return web, nil
}

// LoadLandscape reads a site-neighborhood file from disk.
func LoadLandscape(path string) (ecology.Landscape, error) {
	f, err := os.Open(path)
	if err != nil {
		return ecology.Landscape{}, fmt.Errorf("opening sites: %w", err)
	}
	defer f.Close()

	land, err := ReadLandscape(f)
	if err != nil {
		return land, fmt.Errorf("reading sites %s: %w", path, err)
	}
	return land, nil
}
