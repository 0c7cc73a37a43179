package netfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/talgya/socweb/internal/ecology"
)

// Link is a weighted link between 1-based vertex numbers.
type Link struct {
	From   int
	To     int
	Weight float64
}

// WriteNetwork writes a labelled network. Vertex i+1 is labelled labels[i].
// Directed networks use an "*Arcs" section, the rest "*Edges".
func WriteNetwork(w io.Writer, labels []string, directed bool, links []Link) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "*Vertices %d\n", len(labels))
	for i, l := range labels {
		fmt.Fprintf(bw, "%d %s\n", i+1, l)
	}
	if directed {
		bw.WriteString("*Arcs\n")
	} else {
		bw.WriteString("*Edges\n")
	}
	for _, l := range links {
		fmt.Fprintf(bw, "%d %d %s\n", l.From, l.To, formatFloat(l.Weight))
	}
	return bw.Flush()
}

// WriteFoodWeb writes web in the layout ReadFoodWeb accepts.
func WriteFoodWeb(w io.Writer, web ecology.FoodWeb) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "*Vertices %d\n", len(web.Species))
	for _, s := range web.Species {
		fmt.Fprintf(bw, "%d %s %s %s %s %s %d\n", s.ID, s.Name,
			formatFloat(s.Birth), formatFloat(s.Death),
			formatFloat(s.NaturalDeath), formatFloat(s.Migration), s.Initial)
	}
	bw.WriteString("*Arcs\n")
	for _, e := range web.Edges {
		fmt.Fprintf(bw, "%d %d\n", e.Predator, e.Prey)
	}
	return bw.Flush()
}

// WriteLandscape writes land in the layout ReadLandscape accepts.
func WriteLandscape(w io.Writer, land ecology.Landscape) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "*Vertices %d\n", len(land.Sites))
	for _, s := range land.Sites {
		fmt.Fprintf(bw, "%d %s %d\n", s.ID, s.Name, s.Capacity)
	}
	bw.WriteString("*Edges\n")
	for _, e := range land.Edges {
		fmt.Fprintf(bw, "%d %d %s\n", e.From, e.To, formatFloat(e.Weight))
	}
	return bw.Flush()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
