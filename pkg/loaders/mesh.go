// Package loaders reads meshes and textures from disk into the renderer's
// own geometry and material types.
package loaders

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fogleman/fauxgl"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/KholdStare/qndraytracer/pkg/core"
	"github.com/KholdStare/qndraytracer/pkg/geometry"
)

var (
	// ErrUnsupportedFormat is returned for mesh files with an unknown extension
	ErrUnsupportedFormat = errors.New("unsupported mesh format")

	// ErrEmptyMesh is returned when a file holds no usable triangles
	ErrEmptyMesh = errors.New("mesh has no triangles")
)

// MeshData is a triangle soup in model space together with its bound
type MeshData struct {
	Faces  []geometry.Face
	Bound  geometry.BoundingBox
	Smooth bool // vertex normals are meaningful and should be interpolated
}

// SupportedExtensions lists the mesh file extensions LoadMesh accepts
func SupportedExtensions() []string {
	return []string{".obj", ".stl", ".ply", ".3ds", ".gltf", ".glb"}
}

// LoadMesh reads a mesh file, choosing the decoder from its extension.
// With smooth set, vertex normals are kept (or computed by averaging when
// the file has none) and interpolated across faces.
func LoadMesh(path string, smooth bool) (*MeshData, error) {
	var (
		data *MeshData
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj", ".stl", ".ply", ".3ds":
		data, err = loadFauxGL(path, smooth)
	case ".gltf", ".glb":
		data, err = loadGLTF(path, smooth)
	default:
		return nil, fmt.Errorf("load mesh %s: %w: %q", path, ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("load mesh %s: %w", path, err)
	}
	if len(data.Faces) == 0 {
		return nil, fmt.Errorf("load mesh %s: %w", path, ErrEmptyMesh)
	}
	return data, nil
}

func loadFauxGL(path string, smooth bool) (*MeshData, error) {
	mesh, err := fauxgl.LoadMesh(path)
	if err != nil {
		return nil, err
	}
	if smooth {
		mesh.SmoothNormals()
	}

	builder := newMeshBuilder(len(mesh.Triangles), smooth)
	for _, t := range mesh.Triangles {
		builder.add(
			vertexFromFauxGL(t.V1, smooth),
			vertexFromFauxGL(t.V2, smooth),
			vertexFromFauxGL(t.V3, smooth),
		)
	}
	return builder.data(), nil
}

func vertexFromFauxGL(v fauxgl.Vertex, smooth bool) geometry.Vertex {
	vertex := geometry.Vertex{Point: core.NewVec3(v.Position.X, v.Position.Y, v.Position.Z)}
	if smooth {
		vertex.Normal = core.NewVec3(v.Normal.X, v.Normal.Y, v.Normal.Z)
	}
	return vertex
}

func loadGLTF(path string, smooth bool) (*MeshData, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	builder := newMeshBuilder(0, smooth)
	for _, m := range doc.Meshes {
		for _, prim := range m.Primitives {
			if err := builder.addPrimitive(doc, prim); err != nil {
				return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
			}
		}
	}
	if smooth && !builder.hasNormals {
		builder.smoothNormals()
	}
	return builder.data(), nil
}

// meshBuilder accumulates faces and the bound of their vertices
type meshBuilder struct {
	faces      []geometry.Face
	bound      geometry.BoundingBox
	smooth     bool
	hasNormals bool
}

func newMeshBuilder(capacity int, smooth bool) *meshBuilder {
	return &meshBuilder{
		faces:  make([]geometry.Face, 0, capacity),
		bound:  geometry.BoxFromPoints(),
		smooth: smooth,
	}
}

// add appends a face, dropping triangles with no area
func (b *meshBuilder) add(v0, v1, v2 geometry.Vertex) {
	edge1 := v1.Point.Subtract(v0.Point)
	edge2 := v2.Point.Subtract(v0.Point)
	if edge1.Cross(edge2).LengthSquared() == 0 {
		return
	}
	for _, v := range [3]geometry.Vertex{v0, v1, v2} {
		b.bound.Extend(v.Point)
		if !v.Normal.IsZero() {
			b.hasNormals = true
		}
	}
	b.faces = append(b.faces, geometry.NewFace(v0, v1, v2))
}

func (b *meshBuilder) addPrimitive(doc *gltf.Document, prim *gltf.Primitive) error {
	if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
		// lines and points have no surface
		return nil
	}
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil
	}

	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return fmt.Errorf("read positions: %w", err)
	}

	var normals [][3]float32
	if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok && b.smooth {
		normals, err = modeler.ReadNormal(doc, doc.Accessors[normIdx], nil)
		if err != nil {
			return fmt.Errorf("read normals: %w", err)
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	vertex := func(i uint32) (geometry.Vertex, error) {
		if int(i) >= len(positions) {
			return geometry.Vertex{}, fmt.Errorf("index %d out of range for %d positions", i, len(positions))
		}
		p := positions[i]
		v := geometry.Vertex{Point: core.NewVec3(float64(p[0]), float64(p[1]), float64(p[2]))}
		if int(i) < len(normals) {
			n := normals[i]
			v.Normal = core.NewVec3(float64(n[0]), float64(n[1]), float64(n[2])).Normalize()
		}
		return v, nil
	}

	for i := 0; i+2 < len(indices); i += 3 {
		var corners [3]geometry.Vertex
		for j := range corners {
			if corners[j], err = vertex(indices[i+j]); err != nil {
				return err
			}
		}
		b.add(corners[0], corners[1], corners[2])
	}
	return nil
}

// smoothNormals replaces every vertex normal with the area-weighted average
// of the normals of all faces sharing that position.
func (b *meshBuilder) smoothNormals() {
	sums := make(map[core.Vec3]core.Vec3)
	for i := range b.faces {
		f := &b.faces[i]
		p0, p1, p2 := f.Vertices[0].Point, f.Vertices[1].Point, f.Vertices[2].Point
		weighted := p1.Subtract(p0).Cross(p2.Subtract(p0))
		for _, v := range f.Vertices {
			sums[v.Point] = sums[v.Point].Add(weighted)
		}
	}
	for i := range b.faces {
		f := &b.faces[i]
		for j := range f.Vertices {
			if n := sums[f.Vertices[j].Point]; !n.IsZero() {
				f.Vertices[j].Normal = n.Normalize()
			} else {
				f.Vertices[j].Normal = f.Normal
			}
		}
	}
}

func (b *meshBuilder) data() *MeshData {
	return &MeshData{Faces: b.faces, Bound: b.bound, Smooth: b.smooth}
}
