package kdtree

import (
	"math"
	"math/rand"
	"testing"

	"github.com/KholdStare/qndraytracer/pkg/core"
	"github.com/KholdStare/qndraytracer/pkg/geometry"
)

// faceSoup returns n small random triangles inside [-5, 5]³ and their bound
func faceSoup(random *rand.Rand, n int) ([]geometry.Face, geometry.BoundingBox) {
	faces := make([]geometry.Face, 0, n)
	box := geometry.BoxFromPoints()
	for i := 0; i < n; i++ {
		center := core.NewVec3(random.Float64()*9-4.5, random.Float64()*9-4.5, random.Float64()*9-4.5)
		var points [3]core.Vec3
		for j := range points {
			points[j] = center.Add(core.NewVec3(random.Float64()-0.5, random.Float64()-0.5, random.Float64()-0.5))
			box.Extend(points[j])
		}
		faces = append(faces, geometry.NewFlatFace(points[0], points[1], points[2]))
	}
	return faces, box
}

// grid returns a flat quad grid in the z=0 plane facing +z
func grid(n int) ([]geometry.Face, geometry.BoundingBox) {
	var faces []geometry.Face
	box := geometry.BoxFromPoints()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			x, y := float64(i), float64(j)
			p00 := core.NewVec3(x, y, 0)
			p10 := core.NewVec3(x+1, y, 0)
			p01 := core.NewVec3(x, y+1, 0)
			p11 := core.NewVec3(x+1, y+1, 0)
			faces = append(faces,
				geometry.NewFlatFace(p00, p10, p11),
				geometry.NewFlatFace(p00, p11, p01))
			box.Extend(p00)
			box.Extend(p11)
		}
	}
	return faces, box
}

func TestBuild_CountTotalFaces(t *testing.T) {
	random := rand.New(rand.NewSource(42))

	tests := []struct {
		name  string
		faces func() ([]geometry.Face, geometry.BoundingBox)
	}{
		{"Empty", func() ([]geometry.Face, geometry.BoundingBox) {
			return nil, *geometry.NewBoundingBox(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1))
		}},
		{"Single face", func() ([]geometry.Face, geometry.BoundingBox) { return faceSoup(random, 1) }},
		{"Five faces", func() ([]geometry.Face, geometry.BoundingBox) { return faceSoup(random, 5) }},
		{"Fifty faces", func() ([]geometry.Face, geometry.BoundingBox) { return faceSoup(random, 50) }},
		{"Two thousand faces", func() ([]geometry.Face, geometry.BoundingBox) { return faceSoup(random, 2000) }},
		{"Flat grid", func() ([]geometry.Face, geometry.BoundingBox) { return grid(20) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faces, box := tt.faces()
			tree := Build(faces, box)

			if got := tree.CountTotalFaces(); got != len(faces) {
				t.Errorf("CountTotalFaces() = %d, want %d", got, len(faces))
			}
			if stats := tree.Stats(); stats.Faces != len(faces) {
				t.Errorf("Stats().Faces = %d, want %d", stats.Faces, len(faces))
			}
		})
	}
}

func TestBuild_EveryFaceInExactlyOneNode(t *testing.T) {
	faces, box := faceSoup(rand.New(rand.NewSource(42)), 1000)
	tree := Build(faces, box)

	seen := make([]int, len(faces))
	for _, n := range tree.nodes {
		for _, fi := range n.faces {
			seen[fi]++
		}
	}
	for i, count := range seen {
		if count != 1 {
			t.Fatalf("face %d held by %d nodes", i, count)
		}
	}
}

func TestBuild_Idempotent(t *testing.T) {
	faces, box := faceSoup(rand.New(rand.NewSource(42)), 1500)

	first := Build(faces, box)
	second := Build(faces, box)

	if first.Depth() != second.Depth() {
		t.Errorf("Depth differs: %d vs %d", first.Depth(), second.Depth())
	}
	if first.MaxLeafObjects() != second.MaxLeafObjects() {
		t.Errorf("MaxLeafObjects differs: %d vs %d", first.MaxLeafObjects(), second.MaxLeafObjects())
	}
	if first.NodeCount() != second.NodeCount() {
		t.Errorf("NodeCount differs: %d vs %d", first.NodeCount(), second.NodeCount())
	}
	if first.Stats() != second.Stats() {
		t.Errorf("Stats differ: %v vs %v", first.Stats(), second.Stats())
	}
}

func TestBuild_SmallMeshIsSingleLeaf(t *testing.T) {
	faces, box := faceSoup(rand.New(rand.NewSource(42)), fomThreshold-1)
	tree := Build(faces, box)

	if tree.NodeCount() != 1 {
		t.Errorf("Expected a single node, got %d", tree.NodeCount())
	}
	if tree.Depth() != 1 {
		t.Errorf("Expected depth 1, got %d", tree.Depth())
	}
	if tree.MaxLeafObjects() != len(faces) {
		t.Errorf("Expected leaf with %d faces, got %d", len(faces), tree.MaxLeafObjects())
	}
}

func TestBuild_LargeMeshIsSubdivided(t *testing.T) {
	faces, box := faceSoup(rand.New(rand.NewSource(42)), 2000)
	tree := Build(faces, box)

	if tree.Depth() < 3 {
		t.Errorf("Expected a deeper tree, got depth %d", tree.Depth())
	}
	if tree.MaxLeafObjects() >= len(faces)/2 {
		t.Errorf("Largest leaf holds %d of %d faces", tree.MaxLeafObjects(), len(faces))
	}
}

func TestTraverse_MatchesBruteForce(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	faces, box := faceSoup(random, 800)
	tree := Build(faces, box)

	hits := 0
	for i := 0; i < 3000; i++ {
		var origin core.Vec3
		if i%2 == 0 {
			// from outside the mesh bound
			origin = core.NewVec3(random.Float64()*30-15, random.Float64()*30-15, random.Float64()*30-15)
		} else {
			// from inside the mesh bound
			origin = core.NewVec3(random.Float64()*8-4, random.Float64()*8-4, random.Float64()*8-4)
		}
		var dir core.Vec3
		if i%3 == 0 {
			// aim at the mesh
			dir = core.NewVec3(random.Float64()*4-2, random.Float64()*4-2, random.Float64()*4-2).Subtract(origin).Normalize()
		} else {
			dir = core.NewVec3(random.Float64()*2-1, random.Float64()*2-1, random.Float64()*2-1).Normalize()
		}

		expected := geometry.NewFaceIntersection()
		for fi := range faces {
			faces[fi].Intersect(origin, dir, &expected)
		}

		got := geometry.NewFaceIntersection()
		hit := tree.Traverse(origin, dir, &got)

		if hit != expected.Hit() {
			t.Fatalf("ray %d (%v, %v): tree hit=%v, brute force hit=%v", i, origin, dir, hit, expected.Hit())
		}
		if !hit {
			continue
		}
		hits++
		if got.Face != expected.Face || math.Abs(got.T-expected.T) > 1e-9 {
			t.Fatalf("ray %d: tree found t=%f, brute force t=%f", i, got.T, expected.T)
		}
	}

	if hits < 100 {
		t.Errorf("Test rays hit too rarely (%d) to be meaningful", hits)
	}
}

// shellAndGrid returns a two-sided axis-aligned cube shell of half size 4
// and a z=0 quad grid over [-8, 8]², all on integer coordinates
func shellAndGrid() ([]geometry.Face, geometry.BoundingBox) {
	var faces []geometry.Face
	box := geometry.BoxFromPoints()
	quad := func(p00, p10, p11, p01 core.Vec3) {
		faces = append(faces,
			geometry.NewFlatFace(p00, p10, p11),
			geometry.NewFlatFace(p00, p11, p01),
			// reversed winding so the quad is hit from both sides
			geometry.NewFlatFace(p00, p11, p10),
			geometry.NewFlatFace(p00, p01, p11))
		for _, p := range []core.Vec3{p00, p10, p11, p01} {
			box.Extend(p)
		}
	}

	const h = 4.0
	for axis := 0; axis < 3; axis++ {
		u, v := (axis+1)%3, (axis+2)%3
		for _, side := range []float64{-h, h} {
			corner := func(a, b float64) core.Vec3 {
				return core.Vec3{}.WithAxis(axis, side).WithAxis(u, a).WithAxis(v, b)
			}
			quad(corner(-h, -h), corner(h, -h), corner(h, h), corner(-h, h))
		}
	}

	for x := -8.0; x < 8; x++ {
		for y := -8.0; y < 8; y++ {
			quad(core.NewVec3(x, y, 0), core.NewVec3(x+1, y, 0),
				core.NewVec3(x+1, y+1, 0), core.NewVec3(x, y+1, 0))
		}
	}
	return faces, box
}

func TestTraverse_RaysThroughSplitPlanes(t *testing.T) {
	faces, box := shellAndGrid()
	tree := Build(faces, box)
	random := rand.New(rand.NewSource(7))
	lattice := func(extent int) float64 {
		return float64(random.Intn(2*extent+1) - extent)
	}

	hits := 0
	for i := 0; i < 20000; i++ {
		// integer origins sit on split planes and integer targets send rays
		// through face edges and vertices
		origin := core.NewVec3(lattice(10), lattice(10), lattice(10))
		target := core.NewVec3(lattice(8), lattice(8), lattice(8))
		if target == origin {
			continue
		}
		dir := target.Subtract(origin).Normalize()

		expected := geometry.NewFaceIntersection()
		for fi := range faces {
			faces[fi].Intersect(origin, dir, &expected)
		}

		got := geometry.NewFaceIntersection()
		hit := tree.Traverse(origin, dir, &got)

		if hit != expected.Hit() {
			t.Fatalf("ray %d (%v, %v): tree hit=%v, brute force hit=%v (t=%f)",
				i, origin, dir, hit, expected.Hit(), expected.T)
		}
		if !hit {
			continue
		}
		hits++
		// adjacent faces can tie, so only the distance is compared
		if math.Abs(got.T-expected.T) > 1e-9 {
			t.Fatalf("ray %d (%v, %v): tree found t=%f, brute force t=%f", i, origin, dir, got.T, expected.T)
		}
	}

	if hits < 1000 {
		t.Errorf("Test rays hit too rarely (%d) to be meaningful", hits)
	}
}

func TestTraverse_AxisAlignedRays(t *testing.T) {
	faces, box := grid(16)
	tree := Build(faces, box)

	for _, p := range []core.Vec3{
		core.NewVec3(0.3, 0.3, 5),
		core.NewVec3(7.5, 3.25, 1),
		core.NewVec3(15.9, 15.9, 2),
	} {
		best := geometry.NewFaceIntersection()
		if !tree.Traverse(p, core.NewVec3(0, 0, -1), &best) {
			t.Errorf("Expected hit below %v", p)
			continue
		}
		if math.Abs(best.T-p.Z) > 1e-9 {
			t.Errorf("Expected t=%f, got %f", p.Z, best.T)
		}
	}

	best := geometry.NewFaceIntersection()
	if tree.Traverse(core.NewVec3(20, 20, 5), core.NewVec3(0, 0, -1), &best) {
		t.Errorf("Ray outside the grid should miss")
	}
}

func TestTraverse_EmptyTree(t *testing.T) {
	tree := Build(nil, *geometry.NewBoundingBox(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1)))
	best := geometry.NewFaceIntersection()
	if tree.Traverse(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1), &best) {
		t.Errorf("Empty tree should never report a hit")
	}
	if best.Hit() {
		t.Errorf("Empty tree must not record a face")
	}
}

// Known quirk: refinement stops as soon as both sides of the current step
// hold the same number of faces, even when the faces already assigned by
// coarser steps leave the split unbalanced.
func TestChooseDimPlane_EqualSidesStopsRefinement_KnownQuirk(t *testing.T) {
	faces := []geometry.Face{
		geometry.NewFlatFace(core.NewVec3(1, 0, 0), core.NewVec3(1.5, 1, 0), core.NewVec3(1.2, 0, 1)),
		geometry.NewFlatFace(core.NewVec3(2, 0, 0), core.NewVec3(2.5, 1, 0), core.NewVec3(2.2, 0, 1)),
		geometry.NewFlatFace(core.NewVec3(5, 0, 0), core.NewVec3(5.5, 1, 0), core.NewVec3(5.2, 0, 1)),
		geometry.NewFlatFace(core.NewVec3(6, 0, 0), core.NewVec3(6.5, 1, 0), core.NewVec3(6.2, 0, 1)),
	}
	tree := &Tree{faces: faces, resolution: 1e-3}

	eval := tree.chooseDimPlane(0, []int32{0, 1, 2, 3}, 10, 0, 0, 8)

	if eval.boundary != 4 {
		t.Errorf("Expected refinement to stop at the first midpoint 4, got %f", eval.boundary)
	}
	if eval.leftCount() != 12 || eval.rightCount() != 2 {
		t.Errorf("Expected counts 12/2, got %d/%d", eval.leftCount(), eval.rightCount())
	}
	if eval.fom() < fomThreshold {
		t.Errorf("Stop was not caused by the figure of merit (fom=%d)", eval.fom())
	}
}

func TestChooseDimPlane_NarrowsTowardHeavierSide(t *testing.T) {
	// seven faces packed near x=1 and one near x=7
	var faces []geometry.Face
	var indices []int32
	for i := 0; i < 7; i++ {
		x := 0.5 + float64(i)*0.2
		faces = append(faces, geometry.NewFlatFace(
			core.NewVec3(x, 0, 0), core.NewVec3(x+0.1, 1, 0), core.NewVec3(x+0.05, 0, 1)))
		indices = append(indices, int32(i))
	}
	faces = append(faces, geometry.NewFlatFace(
		core.NewVec3(7, 0, 0), core.NewVec3(7.1, 1, 0), core.NewVec3(7.05, 0, 1)))
	indices = append(indices, 7)

	tree := &Tree{faces: faces, resolution: 1e-3}
	eval := tree.chooseDimPlane(0, indices, 0, 0, 0, 8)

	if eval.boundary >= 4 {
		t.Errorf("Expected boundary to move below the first midpoint, got %f", eval.boundary)
	}
	if total := len(eval.left) + len(eval.right) + len(eval.shared); total != len(faces) {
		t.Errorf("Merged evaluation lost faces: %d of %d", total, len(faces))
	}
	if eval.fom() >= 6 {
		t.Errorf("Expected refinement to reach a figure of merit below 6, got %d", eval.fom())
	}
}
