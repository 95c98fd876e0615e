package material

import (
	"math"

	"github.com/KholdStare/qndraytracer/pkg/core"
)

// FresnelResult describes how light splits at the boundary between two media
type FresnelResult struct {
	Reflected   core.Vec3
	Transmitted core.Vec3 // zero when TotalInternalReflection is set
	Reflection  float64   // fraction of light reflected, in [0, 1]

	TotalInternalReflection bool
}

// Transmission returns the fraction of light that crosses the boundary
func (f FresnelResult) Transmission() float64 {
	return 1 - f.Reflection
}

// Fresnel computes reflection and refraction for a unit incident direction
// travelling from a medium of index n1 into one of index n2. The normal
// must face against the incident direction.
func Fresnel(n1, n2 float64, normal, incident core.Vec3) FresnelResult {
	cosI := -normal.Dot(incident)
	ratio := n1 / n2
	sinT2 := ratio * ratio * (1 - cosI*cosI)

	result := FresnelResult{Reflected: core.Reflect(incident, normal)}
	if sinT2 > 1 {
		result.TotalInternalReflection = true
		result.Reflection = 1
		return result
	}
	cosT := math.Sqrt(1 - sinT2)

	result.Transmitted = incident.Multiply(ratio).Add(normal.Multiply(ratio*cosI - cosT))

	s := (n1*cosI - n2*cosT) / (n1*cosI + n2*cosT)
	p := (n1*cosT - n2*cosI) / (n1*cosT + n2*cosI)
	result.Reflection = (s*s + p*p) / 2
	return result
}
