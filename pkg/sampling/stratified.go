package sampling

import (
	"iter"
	"math"

	"github.com/KholdStare/qndraytracer/pkg/core"
)

// Stratified yields jittered samples on a side×side grid over [0,1)²
type Stratified struct {
	side int
}

// NewStratified creates a sampler with floor(sqrt(n))² samples, at least one
func NewStratified(n int) Stratified {
	side := int(math.Sqrt(float64(n)))
	if side < 1 {
		side = 1
	}
	return Stratified{side: side}
}

// N returns the number of samples produced per pass
func (s Stratified) N() int {
	return s.side * s.side
}

// Samples yields one jittered point per grid cell, drawing the jitter from sampler
func (s Stratified) Samples(sampler core.Sampler) iter.Seq[core.Vec2] {
	return func(yield func(core.Vec2) bool) {
		inv := 1 / float64(s.side)
		for i := 0; i < s.side; i++ {
			for j := 0; j < s.side; j++ {
				jitter := sampler.Get2D()
				p := core.NewVec2((float64(i)+jitter.X)*inv, (float64(j)+jitter.Y)*inv)
				if !yield(p) {
					return
				}
			}
		}
	}
}
