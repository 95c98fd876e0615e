package geometry

import (
	"math"

	"github.com/KholdStare/qndraytracer/pkg/core"
)

// Vertex is a corner of a mesh face
type Vertex struct {
	Point  core.Vec3
	Normal core.Vec3
}

// Face is a triangle with per-vertex normals and a precomputed outward
// face normal. Faces are immutable once a mesh is built.
type Face struct {
	Vertices [3]Vertex
	Normal   core.Vec3
}

// NewFace creates a face and derives its normal from the counter-clockwise
// winding of the vertices. Vertices without normals get the face normal.
func NewFace(v0, v1, v2 Vertex) Face {
	normal := v1.Point.Subtract(v0.Point).Cross(v2.Point.Subtract(v0.Point)).Normalize()
	f := Face{Vertices: [3]Vertex{v0, v1, v2}, Normal: normal}
	for i := range f.Vertices {
		if f.Vertices[i].Normal.IsZero() {
			f.Vertices[i].Normal = normal
		}
	}
	return f
}

// NewFlatFace creates a face from three points with the face normal on every vertex
func NewFlatFace(p0, p1, p2 core.Vec3) Face {
	return NewFace(Vertex{Point: p0}, Vertex{Point: p1}, Vertex{Point: p2})
}

// Bound returns the tight box around the face
func (f *Face) Bound() BoundingBox {
	return BoxFromPoints(f.Vertices[0].Point, f.Vertices[1].Point, f.Vertices[2].Point)
}

// FaceIntersection records the best face hit found so far along a ray.
// S and U locate the hit as Vertices[0] + S·(V1−V0) + U·(V2−V0).
type FaceIntersection struct {
	Face *Face // nil when nothing was hit; refers into the mesh's storage
	T    float64
	S, U float64
}

// NewFaceIntersection returns an empty record with T at +Inf
func NewFaceIntersection() FaceIntersection {
	return FaceIntersection{T: math.Inf(1)}
}

// Hit reports whether a face has been recorded
func (fi *FaceIntersection) Hit() bool {
	return fi.Face != nil
}

// Intersect tests the ray against the face and records the hit in best if
// it is front-facing, in front of the origin and no farther than best.T.
func (f *Face) Intersect(origin, dir core.Vec3, best *FaceIntersection) bool {
	denom := f.Normal.Dot(dir)
	if denom >= 0 {
		return false
	}

	v0 := f.Vertices[0].Point
	t := -f.Normal.Dot(origin.Subtract(v0)) / denom
	if t > best.T || t < 0 {
		return false
	}

	p := origin.Add(dir.Multiply(t))
	u := f.Vertices[1].Point.Subtract(v0)
	v := f.Vertices[2].Point.Subtract(v0)
	w := p.Subtract(v0)

	uu := u.LengthSquared()
	uv := u.Dot(v)
	vv := v.LengthSquared()
	wu := w.Dot(u)
	wv := w.Dot(v)
	d := uv*uv - uu*vv

	s := (uv*wv - vv*wu) / d
	if s < 0 || s > 1 {
		return false
	}
	tt := (uv*wu - uu*wv) / d
	if tt < 0 || s+tt > 1 {
		return false
	}

	best.Face = f
	best.T = t
	best.S = s
	best.U = tt
	return true
}

// InterpolatedNormal blends the vertex normals at the recorded hit
func (fi *FaceIntersection) InterpolatedNormal() core.Vec3 {
	v := fi.Face.Vertices
	n0 := v[0].Normal
	return n0.
		Add(v[1].Normal.Subtract(n0).Multiply(fi.S)).
		Add(v[2].Normal.Subtract(n0).Multiply(fi.U)).
		Normalize()
}
