package averager

import "math"

// Bounds is the half-open interval [Start, End) of a bin, in UNIX seconds.
type Bounds struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// boundsFor returns the bin containing t. Floor division keeps the remainder
// non-negative, so negative timestamps land in the bin below zero.
func boundsFor(t float64, binSize int64) Bounds {
	size := float64(binSize)
	start := math.Floor(t/size) * size
	// t/size can round across an integer boundary; nudge back so t is inside.
	if start > t {
		start -= size
	} else if t >= start+size {
		start += size
	}
	return Bounds{Start: start, End: start + size}
}

// Contains reports whether Start <= t < End.
func (b Bounds) Contains(t float64) bool {
	return b.Start <= t && t < b.End
}
