package netgraph

import "math"

// lcg is a small deterministic generator used to jitter initial node
// placement. Seeded layout keeps repeated loads of identical data from
// flickering into different arrangements, and lets tests assert exact
// positions.
type lcg struct {
	state uint64
}

func newLCG(seed uint64) *lcg {
	return &lcg{state: seed}
}

// Float64 returns the next value in [0, 1).
func (r *lcg) Float64() float64 {
	r.state = r.state*6364136223846793005 + 1
	return float64(r.state) / float64(math.MaxUint64)
}
