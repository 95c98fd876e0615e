package geometry

import (
	"math"

	"github.com/KholdStare/qndraytracer/pkg/core"
)

// boundEpsilon is the smallest discriminant accepted as a sphere hit.
// Tangential rays below it are rejected to absorb cancellation error.
const boundEpsilon = 500 * core.Epsilon

// BoundingSphere is a sphere of the given radius centered on its placement
type BoundingSphere struct {
	Placement
	Radius float64
}

// NewBoundingSphere creates a sphere bound centered at the origin
func NewBoundingSphere(radius float64) *BoundingSphere {
	return &BoundingSphere{Placement: Identity(), Radius: radius}
}

// Place sets the world position and scale
func (s *BoundingSphere) Place(p Placement) {
	s.Placement = p
}

// FastIntersect solves the ray/sphere quadratic and accepts when the
// discriminant is comfortably positive.
func (s *BoundingSphere) FastIntersect(origin, dir core.Vec3) bool {
	return sphereDiscriminant(s.Pos, s.Radius*s.Scale, origin, dir) > boundEpsilon
}

// sphereDiscriminant returns the quarter discriminant of the ray/sphere
// quadratic for a unit direction.
func sphereDiscriminant(center core.Vec3, radius float64, origin, dir core.Vec3) float64 {
	toCenter := center.Subtract(origin)
	a := dir.Dot(toCenter)
	return a*a - toCenter.LengthSquared() + radius*radius
}

// BoundingBox is an axis-aligned box given by its min and max corners,
// scaled and then offset by its placement.
type BoundingBox struct {
	Placement
	Min, Max core.Vec3
}

// NewBoundingBox creates a box bound with identity placement
func NewBoundingBox(minPoint, maxPoint core.Vec3) *BoundingBox {
	return &BoundingBox{Placement: Identity(), Min: minPoint, Max: maxPoint}
}

// BoxFromPoints returns the tightest box containing all points.
// An empty input yields an inverted (empty) box.
func BoxFromPoints(points ...core.Vec3) BoundingBox {
	inf := math.Inf(1)
	box := BoundingBox{
		Placement: Identity(),
		Min:       core.Splat(inf),
		Max:       core.Splat(-inf),
	}
	for _, p := range points {
		box.Extend(p)
	}
	return box
}

// Extend grows the box to contain p
func (b *BoundingBox) Extend(p core.Vec3) {
	b.Min = core.NewVec3(min(b.Min.X, p.X), min(b.Min.Y, p.Y), min(b.Min.Z, p.Z))
	b.Max = core.NewVec3(max(b.Max.X, p.X), max(b.Max.Y, p.Y), max(b.Max.Z, p.Z))
}

// Place sets the world position and scale
func (b *BoundingBox) Place(p Placement) {
	b.Placement = p
}

// FastIntersect reports whether the ray enters the box in front of its origin
func (b *BoundingBox) FastIntersect(origin, dir core.Vec3) bool {
	_, _, ok := b.Intersect(origin, dir)
	return ok
}

// Intersect runs the slab test and returns the parametric interval
// [near, far] over which the ray is inside the box. near may be negative
// when the origin is inside the box.
func (b *BoundingBox) Intersect(origin, dir core.Vec3) (near, far float64, ok bool) {
	local := origin.Subtract(b.Pos)
	near = math.Inf(-1)
	far = math.Inf(1)

	for axis := 0; axis < 3; axis++ {
		lo := b.Min.Axis(axis) * b.Scale
		hi := b.Max.Axis(axis) * b.Scale
		o := local.Axis(axis)
		d := dir.Axis(axis)

		if core.AreSame(d, 0) {
			// parallel to the slab: either always inside it or never
			if o > hi || o < lo {
				return 0, 0, false
			}
			continue
		}

		t1 := (hi - o) / d
		t2 := (lo - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		near = max(near, t1)
		far = min(far, t2)

		if near > far || far < 0 {
			return 0, 0, false
		}
	}

	return near, far, true
}

// Extent returns the unscaled size of the box along axis
func (b BoundingBox) Extent(axis int) float64 {
	return b.Max.Axis(axis) - b.Min.Axis(axis)
}

// MinExtent returns the smallest unscaled size over the three axes
func (b BoundingBox) MinExtent() float64 {
	return min(b.Extent(0), b.Extent(1), b.Extent(2))
}

// Center returns the unscaled center of the box
func (b BoundingBox) Center() core.Vec3 {
	return b.Min.Add(b.Max).Multiply(0.5)
}

// EnclosingRadius returns the radius of the smallest origin-centered sphere
// containing the unscaled box.
func (b BoundingBox) EnclosingRadius() float64 {
	minAbs, maxAbs := b.Min.Abs(), b.Max.Abs()
	return core.NewVec3(
		max(minAbs.X, maxAbs.X),
		max(minAbs.Y, maxAbs.Y),
		max(minAbs.Z, maxAbs.Z),
	).Length()
}

// Expanded returns the box grown by amount on every side
func (b BoundingBox) Expanded(amount float64) BoundingBox {
	b.Min = b.Min.Subtract(core.Splat(amount))
	b.Max = b.Max.Add(core.Splat(amount))
	return b
}

// Split cuts the box at boundary along axis into the part below and the
// part above the plane.
func (b BoundingBox) Split(axis int, boundary float64) (less, more BoundingBox) {
	less, more = b, b
	less.Max = b.Max.WithAxis(axis, boundary)
	more.Min = b.Min.WithAxis(axis, boundary)
	return less, more
}

// Contains reports whether p lies inside the unscaled box, boundary included
func (b BoundingBox) Contains(p core.Vec3) bool {
	for axis := 0; axis < 3; axis++ {
		v := p.Axis(axis)
		if v < b.Min.Axis(axis) || v > b.Max.Axis(axis) {
			return false
		}
	}
	return true
}
