// Package sampling provides the direction sampling strategies combined by
// the integrator with the balance heuristic.
package sampling

import (
	"math"

	"github.com/KholdStare/qndraytracer/pkg/core"
	"github.com/KholdStare/qndraytracer/pkg/geometry"
)

// Surface is the per-ray data a strategy needs: the shaded point and its
// unit normal. It is passed by value for every call.
type Surface struct {
	Point  core.Vec3
	Normal core.Vec3
}

// Strategy is a stateless policy for choosing directions over the
// hemisphere at a surface. Probabilities are relative to uniform
// hemisphere sampling, so a uniform strategy has probability 1.
type Strategy interface {
	// Sample maps (u, v) in [0,1)² to a unit direction
	Sample(surface Surface, u, v float64) core.Vec3
	// Probability returns the relative density of Sample producing dir
	Probability(surface Surface, dir core.Vec3) float64
}

// Hemisphere samples the hemisphere around the normal uniformly
type Hemisphere struct{}

// Sample draws cosθ = u and azimuth 2πv around the surface normal
func (Hemisphere) Sample(surface Surface, u, v float64) core.Vec3 {
	sinTheta := math.Sqrt(max(0, 1-u*u))
	phi := 2 * math.Pi * v
	local := core.NewVec3(math.Cos(phi)*sinTheta, math.Sin(phi)*sinTheta, u)
	return core.RotateFromZ(local, surface.Normal)
}

// Probability is 1 for every direction
func (Hemisphere) Probability(Surface, core.Vec3) float64 {
	return 1
}

// LightVolumeStrategy samples the cone subtended by a light volume
type LightVolumeStrategy struct {
	Volume geometry.LightVolume
}

// Sample returns a direction toward the light volume
func (s LightVolumeStrategy) Sample(surface Surface, u, v float64) core.Vec3 {
	return s.Volume.SubtendedDir(surface.Point, u, v)
}

// Probability returns the subtended probability for directions that hit the
// volume and 0 for all others.
func (s LightVolumeStrategy) Probability(surface Surface, dir core.Vec3) float64 {
	if !s.Volume.IsSubtended(surface.Point, dir) {
		return 0
	}
	return s.Volume.SubtendedProbability(surface.Point)
}

// Weighted pairs a strategy with the stratified sampler that drives it
type Weighted struct {
	Strategy Strategy
	Sampler  Stratified
}

// Normalization is the balance heuristic denominator for dir: the sum over
// all strategies of each one's probability times its sample count.
func Normalization(strategies []Weighted, surface Surface, dir core.Vec3) float64 {
	normalization := 0.0
	for _, w := range strategies {
		normalization += w.Strategy.Probability(surface, dir) * float64(w.Sampler.N())
	}
	return normalization
}
