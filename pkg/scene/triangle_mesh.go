package scene

import (
	"math"

	"github.com/KholdStare/qndraytracer/pkg/core"
	"github.com/KholdStare/qndraytracer/pkg/geometry"
	"github.com/KholdStare/qndraytracer/pkg/lights"
	"github.com/KholdStare/qndraytracer/pkg/loaders"
	"github.com/KholdStare/qndraytracer/pkg/material"
	"github.com/KholdStare/qndraytracer/pkg/renderer"
)

// NewTriangleMeshScene creates a scene showcasing triangle meshes. When data
// is nil, a box, a pyramid and an icosahedron are generated; otherwise the
// loaded mesh is fitted into a 2-unit cube standing on the floor.
func NewTriangleMeshScene(data *loaders.MeshData) (*Scene, renderer.CameraConfig) {
	cameraConfig := renderer.CameraConfig{
		Center:           core.NewVec3(0, 2, 6), // Position camera to see the meshes
		LookAt:           core.NewVec3(0, 1, 0), // Look at the center of the scene
		Up:               core.NewVec3(0, 1, 0),
		Width:            600,
		AspectRatio:      16.0 / 9.0,
		VFov:             45.0,
		AntialiasSamples: 4,
	}

	s := New()
	addTriangleMeshLighting(s)
	addTriangleMeshGround(s)

	if data == nil {
		addBasicTriangleMeshGeometry(s)
	} else {
		addLoadedMesh(s, data)
	}
	return s, cameraConfig
}

// addTriangleMeshLighting adds a warm key light, a cool fill light and a
// faint sun from above
func addTriangleMeshLighting(s *Scene) {
	key := s.AddMaterial(material.Emissive(core.NewVec3(12.0, 11.0, 10.0)))
	fill := s.AddMaterial(material.Emissive(core.NewVec3(6.0, 7.0, 8.0)))

	addSphere(s, core.NewVec3(2, 6, 3), 1.5, key)
	addSphere(s, core.NewVec3(-3, 4, 2), 0.8, fill)
	s.AddLight(lights.NewDirectionalLight(core.NewVec3(-1, -3, -2), core.Splat(0.1)))
}

// addTriangleMeshGround adds a large grey floor in the y = 0 plane
func addTriangleMeshGround(s *Scene) {
	ground := s.AddObject(Root, UnitSquare{}, s.AddMaterial(material.Diffuse(core.NewVec3(0.7, 0.7, 0.7))))
	s.Rotate(ground, AxisX, -90)
	s.ScaleUniform(ground, 50)
}

// addBasicTriangleMeshGeometry adds simple generated meshes
func addBasicTriangleMeshGeometry(s *Scene) {
	redGloss := s.AddMaterial(material.New(
		core.NewVec3(0.08, 0.02, 0.02),
		core.NewVec3(0.8, 0.2, 0.2),
		core.Splat(0.4),
		60,
	))
	blue := s.AddMaterial(material.Diffuse(core.NewVec3(0.2, 0.3, 0.8)))
	gold := s.AddMaterial(material.New(
		core.NewVec3(0.08, 0.06, 0.02),
		core.NewVec3(0.8, 0.6, 0.2),
		core.Splat(0.6),
		20,
	))

	// Box rotated to show multiple faces
	box := s.AddObject(Root, createBoxMesh(), redGloss)
	s.Translate(box, core.NewVec3(-2, 0.5, 0))
	s.Rotate(box, AxisY, 30)

	pyramid := s.AddObject(Root, createPyramidMesh(1.5, 2.0), blue)
	s.Translate(pyramid, core.NewVec3(0, 1, 0))
	s.Rotate(pyramid, AxisY, 45)

	icosahedron := s.AddObject(Root, createIcosahedronMesh(0.8), gold)
	s.Translate(icosahedron, core.NewVec3(2, 0.8, 0))
	s.Rotate(icosahedron, AxisY, 60)
}

// addLoadedMesh scales and centers a mesh so it stands on the floor
func addLoadedMesh(s *Scene, data *loaders.MeshData) {
	mat := s.AddMaterial(material.New(
		core.NewVec3(0.07, 0.07, 0.07),
		core.NewVec3(0.7, 0.7, 0.7),
		core.Splat(0.3),
		30,
	))

	bound := data.Bound
	extent := max(bound.Extent(0), bound.Extent(1), bound.Extent(2))
	factor := 1.0
	if extent > 0 {
		factor = 2 / extent
	}
	center := bound.Center()

	id := s.AddObject(Root, NewMesh(data.Faces, bound, data.Smooth), mat)
	s.Translate(id, core.NewVec3(0, bound.Extent(1)*factor/2, 0))
	s.ScaleUniform(id, factor)
	s.Translate(id, center.Negate())
}

// createBoxMesh creates a unit cube mesh centered at the origin
func createBoxMesh() *Mesh {
	vertices := []core.Vec3{
		core.NewVec3(-0.5, -0.5, -0.5), // 0: left-bottom-back
		core.NewVec3(+0.5, -0.5, -0.5), // 1: right-bottom-back
		core.NewVec3(+0.5, +0.5, -0.5), // 2: right-top-back
		core.NewVec3(-0.5, +0.5, -0.5), // 3: left-top-back
		core.NewVec3(-0.5, -0.5, +0.5), // 4: left-bottom-front
		core.NewVec3(+0.5, -0.5, +0.5), // 5: right-bottom-front
		core.NewVec3(+0.5, +0.5, +0.5), // 6: right-top-front
		core.NewVec3(-0.5, +0.5, +0.5), // 7: left-top-front
	}

	// Define the 12 triangles (2 per face, 6 faces)
	indices := []int{
		0, 1, 2, 0, 2, 3, // back
		4, 6, 5, 4, 7, 6, // front
		0, 3, 7, 0, 7, 4, // left
		1, 5, 6, 1, 6, 2, // right
		0, 4, 5, 0, 5, 1, // bottom
		3, 2, 6, 3, 6, 7, // top
	}
	return newConvexMesh(vertices, indices)
}

// createPyramidMesh creates a square pyramid centered at the origin
func createPyramidMesh(baseSize, height float64) *Mesh {
	halfBase := baseSize * 0.5
	halfHeight := height * 0.5

	vertices := []core.Vec3{
		core.NewVec3(-halfBase, -halfHeight, -halfBase), // 0: left-back
		core.NewVec3(+halfBase, -halfHeight, -halfBase), // 1: right-back
		core.NewVec3(+halfBase, -halfHeight, +halfBase), // 2: right-front
		core.NewVec3(-halfBase, -halfHeight, +halfBase), // 3: left-front
		core.NewVec3(0, +halfHeight, 0),                 // 4: apex
	}

	indices := []int{
		0, 2, 1, 0, 3, 2, // base
		0, 1, 4, // back
		1, 2, 4, // right
		2, 3, 4, // front
		3, 0, 4, // left
	}
	return newConvexMesh(vertices, indices)
}

// createIcosahedronMesh creates an icosahedron with its vertices on a
// sphere of the given radius
func createIcosahedronMesh(radius float64) *Mesh {
	phi := (1 + math.Sqrt(5)) / 2
	scale := radius / math.Sqrt(1+phi*phi)

	vertices := []core.Vec3{
		core.NewVec3(-1, phi, 0),  // 0
		core.NewVec3(1, phi, 0),   // 1
		core.NewVec3(-1, -phi, 0), // 2
		core.NewVec3(1, -phi, 0),  // 3
		core.NewVec3(0, -1, phi),  // 4
		core.NewVec3(0, 1, phi),   // 5
		core.NewVec3(0, -1, -phi), // 6
		core.NewVec3(0, 1, -phi),  // 7
		core.NewVec3(phi, 0, -1),  // 8
		core.NewVec3(phi, 0, 1),   // 9
		core.NewVec3(-phi, 0, -1), // 10
		core.NewVec3(-phi, 0, 1),  // 11
	}
	for i := range vertices {
		vertices[i] = vertices[i].Multiply(scale)
	}

	indices := []int{
		// 5 faces around point 0
		0, 11, 5, 0, 5, 1, 0, 1, 7, 0, 7, 10, 0, 10, 11,
		// 5 adjacent faces
		1, 5, 9, 5, 11, 4, 11, 10, 2, 10, 7, 6, 7, 1, 8,
		// 5 faces around point 3
		3, 9, 4, 3, 4, 2, 3, 2, 6, 3, 6, 8, 3, 8, 9,
		// 5 adjacent faces
		4, 9, 5, 2, 4, 11, 6, 2, 10, 8, 6, 7, 9, 8, 1,
	}
	return newConvexMesh(vertices, indices)
}

// newConvexMesh builds a flat-shaded mesh of a convex solid around the
// origin. Faces are wound so their normals point away from the origin.
func newConvexMesh(vertices []core.Vec3, indices []int) *Mesh {
	faces := make([]geometry.Face, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		p0, p1, p2 := vertices[indices[i]], vertices[indices[i+1]], vertices[indices[i+2]]
		face := geometry.NewFlatFace(p0, p1, p2)
		if face.Normal.Dot(p0) < 0 {
			face = geometry.NewFlatFace(p0, p2, p1)
		}
		faces = append(faces, face)
	}
	return NewMesh(faces, geometry.BoxFromPoints(vertices...), false)
}
