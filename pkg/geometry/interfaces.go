package geometry

import (
	"github.com/KholdStare/qndraytracer/pkg/core"
)

// Placement positions a volume in world space. It is written once during
// scene preprocessing and read-only while rendering.
type Placement struct {
	Pos   core.Vec3
	Scale float64
}

// Identity is the placement of a volume at the origin with unit scale
func Identity() Placement {
	return Placement{Scale: 1}
}

// BoundingVolume is a cheap conservative acceptance test for rays.
// Implemented by *BoundingSphere and *BoundingBox.
type BoundingVolume interface {
	// FastIntersect reports whether the ray starting at origin with unit
	// direction dir may hit anything inside the volume.
	FastIntersect(origin, dir core.Vec3) bool
	// Place sets the world position and uniform scale of the volume
	Place(p Placement)
}

// LightVolume is a volume known to contain an emitter, used to importance
// sample the directions from which its light arrives.
// Implemented by *LightSphere.
type LightVolume interface {
	BoundingVolume
	// SubtendedDir maps (u, v) in [0,1)² to a unit direction from viewpoint
	// inside the cone subtended by the volume.
	SubtendedDir(viewpoint core.Vec3, u, v float64) core.Vec3
	// IsSubtended reports whether unit direction dir from viewpoint hits the volume
	IsSubtended(viewpoint, dir core.Vec3) bool
	// SubtendedProbability is the density of SubtendedDir relative to uniform
	// hemisphere sampling, 1 / (1 - cosThetaMax).
	SubtendedProbability(viewpoint core.Vec3) float64
}
