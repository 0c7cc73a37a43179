// Landscape generation using layered simplex noise. Habitat quality drives
// the carrying capacity of each cell; cells below the water level are left
// out of the network.
package landscape

import (
	"fmt"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/socweb/internal/ecology"
)

// GenConfig holds landscape generation parameters.
type GenConfig struct {
	Radius      int     // Hex grid radius
	Seed        int64   // Noise seed
	MaxCapacity int     // Capacity of a cell of perfect habitat
	Frequency   float64 // Base noise frequency
	Octaves     int
	Persistence float64 // Amplitude falloff per octave
	WaterLevel  float64 // Normalized noise threshold for habitat (0.0–1.0)
}

// DefaultGenConfig returns a small landscape suitable for quick runs.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Radius:      4,
		Seed:        1,
		MaxCapacity: 200,
		Frequency:   0.15,
		Octaves:     4,
		Persistence: 0.5,
		WaterLevel:  0.3,
	}
}

// Cell is one generated habitat site.
type Cell struct {
	Coord    HexCoord `json:"coord"`
	Quality  float64  `json:"quality"` // Normalized noise, 0.0–1.0
	Capacity int      `json:"capacity"`
}

// Generate builds the habitat cells within cfg.Radius, in q-major order.
func Generate(cfg GenConfig) []Cell {
	noise := opensimplex.NewNormalized(cfg.Seed)

	var cells []Cell
	for q := -cfg.Radius; q <= cfg.Radius; q++ {
		for r := -cfg.Radius; r <= cfg.Radius; r++ {
			coord := HexCoord{Q: q, R: r}
			if coord.Ring() > cfg.Radius {
				continue
			}

			// Hex axial → cartesian: x = q + r*0.5, y = r * sqrt(3)/2
			x := float64(q) + float64(r)*0.5
			y := float64(r) * math.Sqrt(3.0) / 2.0
			quality := octaveNoise(noise, x, y, cfg.Octaves, cfg.Frequency, cfg.Persistence)
			if quality < cfg.WaterLevel {
				continue
			}

			cells = append(cells, Cell{
				Coord:    coord,
				Quality:  quality,
				Capacity: capacity(quality, cfg),
			})
		}
	}
	return cells
}

// capacity rescales quality above the water level onto [0, MaxCapacity].
func capacity(quality float64, cfg GenConfig) int {
	span := 1.0 - cfg.WaterLevel
	if span <= 0 {
		return cfg.MaxCapacity
	}
	c := int(float64(cfg.MaxCapacity) * (quality - cfg.WaterLevel) / span)
	return min(max(c, 0), cfg.MaxCapacity)
}

// Build turns cells into a site network. Site ids follow cell order from 1;
// every pair of adjacent cells is linked both ways with weight 1.
func Build(cells []Cell) ecology.Landscape {
	var land ecology.Landscape
	ids := make(map[HexCoord]int, len(cells))
	for i, c := range cells {
		ids[c.Coord] = i + 1
		land.Sites = append(land.Sites, ecology.SiteDef{
			ID:       i + 1,
			Name:     fmt.Sprintf("q%d_r%d", c.Coord.Q, c.Coord.R),
			Capacity: c.Capacity,
		})
	}
	for i, c := range cells {
		for _, n := range c.Coord.Neighbors() {
			if to, ok := ids[n]; ok {
				land.Edges = append(land.Edges, ecology.SiteEdge{From: i + 1, To: to, Weight: 1})
			}
		}
	}
	return land
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
