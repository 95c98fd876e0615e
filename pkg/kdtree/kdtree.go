// Package kdtree implements a binary space partition over mesh faces that
// answers nearest-hit queries for rays.
package kdtree

import (
	"math"

	"github.com/KholdStare/qndraytracer/pkg/core"
	"github.com/KholdStare/qndraytracer/pkg/geometry"
)

const (
	// fomThreshold is the figure of merit below which a split is not worth refining
	fomThreshold = 6

	// resolutionDivisor relates the smallest extent of the mesh bound to the
	// smallest interval the split search will bisect.
	resolutionDivisor = 1000

	// planeSlack widens the ray interval when deciding which children of a
	// split to visit, so hits on or near the plane are never skipped.
	planeSlack = 1e-9
)

// nodeRef addresses a node in the tree's arena; noNode marks an absent child
type nodeRef int32

const noNode nodeRef = -1

func (r nodeRef) ok() bool {
	return r != noNode
}

// node is either a leaf holding faces, or an internal node holding the faces
// that straddle its splitting plane plus up to two children.
type node struct {
	faces     []int32 // indices into Tree.faces
	faceBound geometry.BoundingBox
	dim       int
	boundary  float64
	less      nodeRef
	more      nodeRef
}

func (n *node) isLeaf() bool {
	return !n.less.ok() && !n.more.ok()
}

// Tree is a kd-tree over a face slice owned by the caller. It is read-only
// after Build and safe for concurrent traversal.
type Tree struct {
	faces      []geometry.Face
	box        geometry.BoundingBox
	cullBox    geometry.BoundingBox // box padded by resolution for ray tests
	nodes      []node
	root       nodeRef
	resolution float64
}

// Build creates a tree over faces, all of which lie inside bound
func Build(faces []geometry.Face, bound geometry.BoundingBox) *Tree {
	t := &Tree{
		faces:      faces,
		box:        bound,
		root:       noNode,
		resolution: resolutionFor(bound),
	}
	t.box.Placement = geometry.Identity()

	indices := make([]int32, len(faces))
	for i := range indices {
		indices[i] = int32(i)
	}

	t.cullBox = t.box.Expanded(t.resolution)
	t.root = t.build(indices, t.box)
	return t
}

// resolutionFor returns the smallest bisection interval for a mesh bound.
// Flat meshes fall back to a fraction of the largest extent so the split
// search always terminates.
func resolutionFor(bound geometry.BoundingBox) float64 {
	resolution := bound.MinExtent() / resolutionDivisor
	if resolution > 0 {
		return resolution
	}
	largest := max(bound.Extent(0), bound.Extent(1), bound.Extent(2))
	if largest > 0 {
		return largest / (resolutionDivisor * resolutionDivisor)
	}
	return core.ConsolidationEpsilon
}

func (t *Tree) newNode() nodeRef {
	t.nodes = append(t.nodes, node{dim: 3, less: noNode, more: noNode})
	return nodeRef(len(t.nodes) - 1)
}

func (t *Tree) build(faces []int32, box geometry.BoundingBox) nodeRef {
	bestDim := 3
	bestFom := math.MaxInt
	var best planeEval

	for dim := 0; dim < 3; dim++ {
		// skip dimensions that are already too thin
		if math.Abs(box.Extent(dim)) < t.resolution {
			continue
		}
		eval := t.chooseDimPlane(dim, faces, 0, 0, box.Min.Axis(dim), box.Max.Axis(dim))
		if fom := eval.fom(); fom < bestFom {
			best = eval
			bestDim = dim
			bestFom = fom
		}
	}

	ref := t.newNode()
	t.nodes[ref].dim = bestDim

	if bestFom >= len(faces) || bestFom < fomThreshold {
		t.nodes[ref].faces = faces
		t.nodes[ref].faceBound = t.boundOf(faces)
		return ref
	}

	// faces on the boundary stay with this node
	t.nodes[ref].boundary = best.boundary
	t.nodes[ref].faces = best.shared
	t.nodes[ref].faceBound = t.boundOf(best.shared)

	lessBox, moreBox := box.Split(bestDim, best.boundary)
	if len(best.left) > 0 {
		less := t.build(best.left, lessBox)
		t.nodes[ref].less = less
	}
	if len(best.right) > 0 {
		more := t.build(best.right, moreBox)
		t.nodes[ref].more = more
	}

	return ref
}

// boundOf returns the box around faces, padded by the resolution so rays
// grazing an edge still reach the face test
func (t *Tree) boundOf(faces []int32) geometry.BoundingBox {
	box := geometry.BoxFromPoints()
	for _, fi := range faces {
		for _, v := range t.faces[fi].Vertices {
			box.Extend(v.Point)
		}
	}
	if len(faces) == 0 {
		return box
	}
	return box.Expanded(t.resolution)
}

// Traverse finds the nearest front-facing face hit by the ray and records it
// in best. dir must be unit length. It reports whether a face was recorded.
func (t *Tree) Traverse(origin, dir core.Vec3, best *geometry.FaceIntersection) bool {
	if !t.root.ok() {
		return false
	}

	near, far, ok := t.cullBox.Intersect(origin, dir)
	if !ok {
		return false
	}

	return t.traverse(t.root, origin, dir, near, far, best)
}

func (t *Tree) traverse(ref nodeRef, origin, dir core.Vec3, near, far float64, best *geometry.FaceIntersection) bool {
	if !ref.ok() {
		return false
	}
	n := &t.nodes[ref]

	hitHere := false
	if len(n.faces) > 0 && n.faceBound.FastIntersect(origin, dir) {
		for _, fi := range n.faces {
			if t.faces[fi].Intersect(origin, dir, best) {
				hitHere = true
			}
		}
	}

	if n.isLeaf() {
		return hitHere
	}

	o := origin.Axis(n.dim)
	d := dir.Axis(n.dim)

	if d == 0 {
		if o == n.boundary {
			// a ray lying in the plane can hit edges of faces on both sides
			hitLess := t.traverse(n.less, origin, dir, near, far, best)
			hitMore := t.traverse(n.more, origin, dir, near, far, best)
			return hitLess || hitMore || hitHere
		}
		side := n.less
		if o > n.boundary {
			side = n.more
		}
		return t.traverse(side, origin, dir, near, far, best) || hitHere
	}

	// parameters below tBoundary lie on the near side
	tBoundary := (n.boundary - o) / d
	nearSide, farSide := n.less, n.more
	if d < 0 {
		nearSide, farSide = farSide, nearSide
	}

	switch {
	case tBoundary < near-planeSlack:
		return t.traverse(farSide, origin, dir, near, far, best) || hitHere
	case tBoundary > far+planeSlack:
		return t.traverse(nearSide, origin, dir, near, far, best) || hitHere
	}

	// anything found on the near side is closer than the far side
	if t.traverse(nearSide, origin, dir, near, tBoundary, best) {
		return true
	}
	return t.traverse(farSide, origin, dir, tBoundary, far, best) || hitHere
}

// Bound returns the overall box the tree was built over
func (t *Tree) Bound() geometry.BoundingBox {
	return t.box
}

// Faces returns the face storage the tree indexes
func (t *Tree) Faces() []geometry.Face {
	return t.faces
}
