package scene

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/KholdStare/qndraytracer/pkg/core"
)

// Axis selects a rotation axis
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// transform is an affine map together with its inverse
type transform struct {
	forward mgl64.Mat4 // model to parent (or world)
	inverse mgl64.Mat4 // parent (or world) to model
}

func identityTransform() transform {
	return transform{forward: mgl64.Ident4(), inverse: mgl64.Ident4()}
}

// then appends m after t, so m is applied to model coordinates first
func (t transform) then(m, mInv mgl64.Mat4) transform {
	return transform{
		forward: t.forward.Mul4(m),
		inverse: mInv.Mul4(t.inverse),
	}
}

// compose returns parent·t, mapping model space of t into parent's outer space
func (t transform) compose(parent transform) transform {
	return transform{
		forward: parent.forward.Mul4(t.forward),
		inverse: t.inverse.Mul4(parent.inverse),
	}
}

func toMgl(v core.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func fromMgl(v mgl64.Vec3) core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}

func transformPoint(m mgl64.Mat4, p core.Vec3) core.Vec3 {
	return fromMgl(m.Mul4x1(toMgl(p).Vec4(1)).Vec3())
}

func transformVector(m mgl64.Mat4, v core.Vec3) core.Vec3 {
	return fromMgl(m.Mul4x1(toMgl(v).Vec4(0)).Vec3())
}

// transformNormal maps a model-space normal to world space using the
// transpose of the world-to-model matrix.
func transformNormal(inverse mgl64.Mat4, n core.Vec3) core.Vec3 {
	return fromMgl(inverse.Transpose().Mul4x1(toMgl(n).Vec4(0)).Vec3())
}

func translation(offset core.Vec3) (mgl64.Mat4, mgl64.Mat4) {
	return mgl64.Translate3D(offset.X, offset.Y, offset.Z),
		mgl64.Translate3D(-offset.X, -offset.Y, -offset.Z)
}

func rotation(axis Axis, degrees float64) (mgl64.Mat4, mgl64.Mat4) {
	angle := mgl64.DegToRad(degrees)
	switch axis {
	case AxisX:
		return mgl64.HomogRotate3DX(angle), mgl64.HomogRotate3DX(-angle)
	case AxisY:
		return mgl64.HomogRotate3DY(angle), mgl64.HomogRotate3DY(-angle)
	default:
		return mgl64.HomogRotate3DZ(angle), mgl64.HomogRotate3DZ(-angle)
	}
}

// scaling scales by factors about origin
func scaling(origin, factors core.Vec3) (mgl64.Mat4, mgl64.Mat4) {
	o := toMgl(origin)
	toOrigin := mgl64.Translate3D(-o[0], -o[1], -o[2])
	back := mgl64.Translate3D(o[0], o[1], o[2])

	m := back.Mul4(mgl64.Scale3D(factors.X, factors.Y, factors.Z)).Mul4(toOrigin)
	mInv := back.Mul4(mgl64.Scale3D(1/factors.X, 1/factors.Y, 1/factors.Z)).Mul4(toOrigin)
	return m, mInv
}
