package geometry

import (
	"math"

	"github.com/KholdStare/qndraytracer/pkg/core"
)

// LightSphere is a spherical light volume. It bounds an emitter so the
// directions subtended by the sphere can be importance sampled.
type LightSphere struct {
	BoundingSphere
}

// NewLightSphere creates a light sphere centered at the origin
func NewLightSphere(radius float64) *LightSphere {
	return &LightSphere{BoundingSphere: BoundingSphere{Placement: Identity(), Radius: radius}}
}

// CosThetaMax returns the cosine of the half-angle of the cone subtended by
// the sphere from viewpoint, or 0 when viewpoint is inside the sphere.
func (l *LightSphere) CosThetaMax(viewpoint core.Vec3) float64 {
	cosThetaMax, _ := l.cone(viewpoint)
	return cosThetaMax
}

// cone returns the cone half-angle cosine and the unit axis toward the center
func (l *LightSphere) cone(viewpoint core.Vec3) (float64, core.Vec3) {
	toCenter := l.Pos.Subtract(viewpoint)
	distance := toCenter.Length()
	axis := toCenter.Normalize()

	radius := l.Radius * l.Scale
	if radius > distance {
		return 0, axis
	}

	sinThetaMax := radius / distance
	return math.Sqrt(1 - sinThetaMax*sinThetaMax), axis
}

// SubtendedDir samples a direction uniformly in solid angle within the
// subtended cone.
func (l *LightSphere) SubtendedDir(viewpoint core.Vec3, u, v float64) core.Vec3 {
	cosThetaMax, axis := l.cone(viewpoint)

	cosTheta := 1 - u + u*cosThetaMax
	sinTheta := math.Sqrt(max(0, 1-cosTheta*cosTheta))
	phi := 2 * math.Pi * v

	local := core.NewVec3(math.Cos(phi)*sinTheta, math.Sin(phi)*sinTheta, cosTheta)
	return core.RotateFromZ(local, axis)
}

// IsSubtended reports whether unit direction dir from viewpoint hits the sphere
func (l *LightSphere) IsSubtended(viewpoint, dir core.Vec3) bool {
	return l.FastIntersect(viewpoint, dir)
}

// SubtendedProbability returns 1 / (1 - cosThetaMax). It is 1 from inside
// the sphere and grows with distance.
func (l *LightSphere) SubtendedProbability(viewpoint core.Vec3) float64 {
	return 1 / (1 - l.CosThetaMax(viewpoint))
}
