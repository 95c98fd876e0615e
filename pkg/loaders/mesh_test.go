package loaders

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"

	"github.com/KholdStare/qndraytracer/pkg/core"
	"github.com/KholdStare/qndraytracer/pkg/geometry"
)

// a unit square in the z = 0 plane facing +z, plus one degenerate triangle
const squareOBJ = `# test square
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 2 2 0
f 1 2 3
f 1 3 4
f 1 3 5
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadMesh_OBJ(t *testing.T) {
	path := writeFile(t, "square.obj", squareOBJ)

	data, err := LoadMesh(path, false)
	if err != nil {
		t.Fatalf("LoadMesh failed: %v", err)
	}

	if len(data.Faces) != 2 {
		t.Fatalf("Expected 2 faces (degenerate dropped), got %d", len(data.Faces))
	}
	if data.Smooth {
		t.Errorf("Expected flat mesh")
	}

	if data.Bound.Min != core.NewVec3(0, 0, 0) || data.Bound.Max != core.NewVec3(1, 1, 0) {
		t.Errorf("Unexpected bound %v - %v", data.Bound.Min, data.Bound.Max)
	}

	for i, f := range data.Faces {
		if f.Normal.Subtract(core.NewVec3(0, 0, 1)).Length() > 1e-9 {
			t.Errorf("Face %d normal %v, want +z", i, f.Normal)
		}
		for j, v := range f.Vertices {
			if v.Normal != f.Normal {
				t.Errorf("Face %d vertex %d normal %v should equal the face normal", i, j, v.Normal)
			}
		}
	}

	// the faces cover the square: a ray down through its middle hits
	best := geometry.NewFaceIntersection()
	for i := range data.Faces {
		data.Faces[i].Intersect(core.NewVec3(0.3, 0.6, 1), core.NewVec3(0, 0, -1), &best)
	}
	if !best.Hit() || math.Abs(best.T-1) > 1e-9 {
		t.Errorf("Expected a hit at distance 1, got hit=%v t=%f", best.Hit(), best.T)
	}
}

func TestLoadMesh_Errors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		expected error
	}{
		{"Unsupported extension", "mesh.xyz", squareOBJ, ErrUnsupportedFormat},
		{"No faces", "empty.obj", "v 0 0 0\nv 1 0 0\nv 0 1 0\n", ErrEmptyMesh},
		{"Only degenerate faces", "line.obj", "v 0 0 0\nv 1 0 0\nv 2 0 0\nf 1 2 3\n", ErrEmptyMesh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			if _, err := LoadMesh(path, false); !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
		})
	}

	if _, err := LoadMesh(filepath.Join(t.TempDir(), "missing.obj"), false); err == nil {
		t.Errorf("Expected an error for a missing file")
	}
}

func TestMeshBuilder_SmoothNormals(t *testing.T) {
	// two faces of a roof meeting at the ridge y = 1
	b := newMeshBuilder(2, true)
	b.add(
		geometry.Vertex{Point: core.NewVec3(-1, 0, 0)},
		geometry.Vertex{Point: core.NewVec3(0, 1, 1)},
		geometry.Vertex{Point: core.NewVec3(0, 1, -1)},
	)
	b.add(
		geometry.Vertex{Point: core.NewVec3(1, 0, 0)},
		geometry.Vertex{Point: core.NewVec3(0, 1, -1)},
		geometry.Vertex{Point: core.NewVec3(0, 1, 1)},
	)
	if b.hasNormals {
		t.Fatalf("Builder should not report normals for bare positions")
	}
	b.smoothNormals()

	data := b.data()
	up := core.NewVec3(0, 1, 0)
	for i, f := range data.Faces {
		for j := 1; j < 3; j++ {
			if n := f.Vertices[j].Normal; n.Subtract(up).Length() > 1e-9 {
				t.Errorf("Face %d ridge vertex %d normal %v, want %v", i, j, n, up)
			}
		}
		if n := f.Vertices[0].Normal; n.Subtract(f.Normal).Length() > 1e-9 {
			t.Errorf("Face %d eave normal %v, want face normal %v", i, n, f.Normal)
		}
	}
}

func TestMeshBuilder_SkipsNonTrianglePrimitives(t *testing.T) {
	b := newMeshBuilder(0, false)
	prim := &gltf.Primitive{Mode: gltf.PrimitiveLines}
	if err := b.addPrimitive(&gltf.Document{}, prim); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(b.faces) != 0 {
		t.Errorf("Line primitives should add no faces")
	}
}
