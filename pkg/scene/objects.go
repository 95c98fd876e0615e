package scene

import (
	"math"

	"github.com/KholdStare/qndraytracer/pkg/core"
	"github.com/KholdStare/qndraytracer/pkg/geometry"
	"github.com/KholdStare/qndraytracer/pkg/kdtree"
)

// sphereEpsilon is the distance below which a sphere hit counts as behind
// the ray origin.
const sphereEpsilon = 300 * core.Epsilon

// cubeInsideEpsilon is the near distance below which a cube ray is treated
// as starting inside the cube.
const cubeInsideEpsilon = 15 * core.Epsilon

// Object is a primitive defined in its own model space. Implemented by
// UnitSphere, UnitCube, UnitSquare and *Mesh.
type Object interface {
	// Intersect records the nearest hit of the model-space ray in hit.
	// dir need not be unit length; hit.T is measured in units of dir.
	Intersect(origin, dir core.Vec3, hit *core.Intersection)

	// Solid reports whether the object encloses a volume
	Solid() bool

	// LightRadius is the radius of an origin-centered sphere that
	// contains the object in model space.
	LightRadius() float64
}

// UnitSphere is a sphere of radius 1 centered at the origin
type UnitSphere struct{}

func (UnitSphere) Solid() bool          { return true }
func (UnitSphere) LightRadius() float64 { return 1 }

func (UnitSphere) Intersect(origin, dir core.Vec3, hit *core.Intersection) {
	length := dir.Length()
	dir = dir.Multiply(1 / length)

	a := -dir.Dot(origin)
	discriminant := a*a - origin.LengthSquared() + 1
	if discriminant < core.Epsilon {
		return
	}

	d := math.Sqrt(discriminant)
	if a+d < sphereEpsilon {
		return
	}

	t := a - d
	inside := false
	if t < sphereEpsilon {
		t = a + d
		inside = true
	}

	point := origin.Add(dir.Multiply(t))
	normal := point
	if inside {
		normal = point.Negate()
	}

	*hit = core.Intersection{
		Point:    point,
		Normal:   normal,
		UV:       core.NewVec2((math.Atan2(point.Y, point.X)/math.Pi+1)/2, (point.Z+1)/2),
		Material: core.NoMaterial,
		T:        t / length,
		Hit:      true,
		Inside:   inside,
	}
}

// UnitCube is the axis-aligned cube [-0.5, 0.5]³
type UnitCube struct{}

func (UnitCube) Solid() bool          { return true }
func (UnitCube) LightRadius() float64 { return math.Sqrt(3) / 2 }

// Intersect clips the ray against the three slab pairs
func (UnitCube) Intersect(origin, dir core.Vec3, hit *core.Intersection) {
	near := math.Inf(-1)
	far := math.Inf(1)
	nearDim, farDim := 0, 0

	for dim := 0; dim < 3; dim++ {
		o, d := origin.Axis(dim), dir.Axis(dim)
		if core.AreSame(d, 0) {
			if o > 0.5 || o < -0.5 {
				return
			}
			continue
		}

		t1 := (0.5 - o) / d
		t2 := -(0.5 + o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > near {
			near = t1
			nearDim = dim
		}
		if t2 < far {
			far = t2
			farDim = dim
		}

		if near > far || far < 0 {
			return
		}
	}

	result := core.Intersection{Material: core.NoMaterial, Hit: true, T: near}
	hitDim := nearDim
	if near < cubeInsideEpsilon {
		// leaving the cube through the far face
		result.T = far
		result.Inside = true
		hitDim = farDim
	}
	// the normal always faces against the ray
	if dir.Axis(hitDim) < 0 {
		result.Normal = result.Normal.WithAxis(hitDim, 1)
	} else {
		result.Normal = result.Normal.WithAxis(hitDim, -1)
	}
	result.Point = origin.Add(dir.Multiply(result.T))

	// uv comes from the two axes spanning the hit face
	uv := [2]float64{}
	i := 0
	for d := 0; d < 3; d++ {
		if d == hitDim {
			continue
		}
		uv[i] = result.Point.Axis(d) + 0.5
		i++
	}
	result.UV = core.NewVec2(uv[0], uv[1])

	*hit = result
}

// UnitSquare is the square [-0.5, 0.5]² in the z=0 plane. It can only be
// hit from the +z side, which makes it usable as a see-through wall.
type UnitSquare struct{}

func (UnitSquare) Solid() bool          { return false }
func (UnitSquare) LightRadius() float64 { return math.Sqrt2 / 2 }

func (UnitSquare) Intersect(origin, dir core.Vec3, hit *core.Intersection) {
	if core.AreSame(dir.Z, 0) || origin.Z < 0 {
		return
	}

	t := -origin.Z / dir.Z
	point := origin.Add(dir.Multiply(t))
	if point.X > 0.5 || point.X < -0.5 || point.Y > 0.5 || point.Y < -0.5 {
		return
	}

	*hit = core.Intersection{
		Point:    point,
		Normal:   core.NewVec3(0, 0, 1),
		UV:       core.NewVec2(point.X+0.5, point.Y+0.5),
		Material: core.NoMaterial,
		T:        t,
		Hit:      true,
	}
}

// Mesh is a triangle mesh indexed by a kd-tree. Only front faces are hit.
type Mesh struct {
	faces  []geometry.Face
	bound  geometry.BoundingBox
	tree   *kdtree.Tree
	smooth bool
}

// NewMesh builds the kd-tree over faces. bound must contain every face.
// When smooth is set, normals are interpolated from the vertex normals.
func NewMesh(faces []geometry.Face, bound geometry.BoundingBox, smooth bool) *Mesh {
	return &Mesh{
		faces:  faces,
		bound:  bound,
		tree:   kdtree.Build(faces, bound),
		smooth: smooth,
	}
}

func (m *Mesh) Solid() bool { return false }

// LightRadius is the distance to the farthest corner of the mesh bound
func (m *Mesh) LightRadius() float64 {
	return m.bound.EnclosingRadius()
}

// Tree exposes the mesh's kd-tree for statistics
func (m *Mesh) Tree() *kdtree.Tree {
	return m.tree
}

// FaceCount returns the number of triangles in the mesh
func (m *Mesh) FaceCount() int {
	return len(m.faces)
}

func (m *Mesh) Intersect(origin, dir core.Vec3, hit *core.Intersection) {
	length := dir.Length()
	dir = dir.Multiply(1 / length)

	best := geometry.NewFaceIntersection()
	if !m.tree.Traverse(origin, dir, &best) {
		return
	}

	normal := best.Face.Normal
	if m.smooth {
		normal = best.InterpolatedNormal()
	}

	*hit = core.Intersection{
		Point:    origin.Add(dir.Multiply(best.T)),
		Normal:   normal,
		Material: core.NoMaterial,
		T:        best.T / length,
		Hit:      true,
	}
}
