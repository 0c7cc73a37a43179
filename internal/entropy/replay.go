package entropy

// Replay is a Stream that returns pre-recorded values in order. Tests use it
// to drive the engine through an exact sequence of draws.
//
// When Floats is exhausted, Float returns Fallback. When Ints is exhausted,
// Intn returns 0.
type Replay struct {
	Floats   []float64
	Ints     []int
	Fallback float64

	floatPos int
	intPos   int
}

// Float returns the next recorded float.
func (r *Replay) Float() float64 {
	if r.floatPos >= len(r.Floats) {
		return r.Fallback
	}
	v := r.Floats[r.floatPos]
	r.floatPos++
	return v
}

// Intn returns the next recorded integer, reduced modulo n.
func (r *Replay) Intn(n int) int {
	if r.intPos >= len(r.Ints) {
		return 0
	}
	v := r.Ints[r.intPos] % n
	r.intPos++
	return v
}

// Consumed reports how many floats and ints have been read.
func (r *Replay) Consumed() (floats, ints int) {
	return r.floatPos, r.intPos
}
