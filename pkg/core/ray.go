package core

import "math"

// Epsilon is the float64 machine epsilon
const Epsilon = 2.220446049250313e-16

const (
	// ConsolidationEpsilon is the smallest distance at which a candidate
	// intersection is accepted; closer hits are treated as self-intersection.
	ConsolidationEpsilon = 15000 * Epsilon

	// SameEpsilon is the tolerance used by AreSame.
	SameEpsilon = 5 * Epsilon
)

// AreSame reports whether two floats are equal within SameEpsilon
func AreSame(a, b float64) bool {
	return math.Abs(a-b) < SameEpsilon
}

// MaterialID is a handle into a scene's material arena
type MaterialID int32

// NoMaterial marks an intersection that has no material assigned
const NoMaterial MaterialID = -1

// Intersection is the nearest surface hit recorded on a ray.
// The zero value is a miss.
type Intersection struct {
	Point    Vec3
	Normal   Vec3
	UV       Vec2
	Material MaterialID
	T        float64

	Hit    bool // false means no-hit; no other field may be read
	Inside bool // the ray originated inside a solid object
	Solid  bool // the hit object encloses a volume
}

// Ray is a mutable ray that carries the nearest intersection found so far
// and the color accumulated while shading it.
type Ray struct {
	Origin       Vec3
	Direction    Vec3
	Intersection Intersection
	Color        Vec3
}

// NewRay creates a ray with no intersection and black color
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction}
}

// At returns the point at parameter t along the ray
func (r *Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Multiply(t))
}

// Renormalize scales the direction to unit length and rescales the recorded
// intersection distance so that it still refers to the same point.
func (r *Ray) Renormalize() {
	length := r.Direction.Length()
	if length == 0 || length == 1 {
		return
	}
	r.Direction = r.Direction.Multiply(1 / length)
	if r.Intersection.Hit {
		r.Intersection.T *= length
	}
}

// Consolidate merges a candidate intersection into the ray. Candidates closer
// than ConsolidationEpsilon are rejected as self-intersections; otherwise the
// candidate is kept only if the ray has no hit yet or the candidate is nearer.
// Rejected candidates are marked as misses.
func Consolidate(ray *Ray, candidate *Intersection) bool {
	if !candidate.Hit {
		return false
	}
	if candidate.T < ConsolidationEpsilon {
		candidate.Hit = false
		return false
	}
	if !ray.Intersection.Hit || candidate.T < ray.Intersection.T {
		ray.Intersection = *candidate
		return true
	}
	candidate.Hit = false
	return false
}
