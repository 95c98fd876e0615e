// Package scene holds the objects, materials and lights of a render. Nodes
// form a tree of affine transforms stored in an arena; after Preprocess the
// scene is read-only and may be traversed from many goroutines.
package scene

import (
	"errors"
	"fmt"

	"github.com/KholdStare/qndraytracer/pkg/core"
	"github.com/KholdStare/qndraytracer/pkg/geometry"
	"github.com/KholdStare/qndraytracer/pkg/lights"
	"github.com/KholdStare/qndraytracer/pkg/material"
)

// ErrUnknownScene is returned when a built-in scene name is not registered
var ErrUnknownScene = errors.New("unknown scene")

// NodeID is a handle to a node in a scene's arena
type NodeID int32

// Root is the node every scene starts with. It has no object.
const Root NodeID = 0

// Node places an optional object in the scene tree
type Node struct {
	Object   Object // nil for pure transform nodes
	Material core.MaterialID
	Parent   NodeID

	local     transform
	world     transform
	maxFactor float64 // largest scale factor applied to this node
	absFactor float64 // product of maxFactor from the root to this node

	light geometry.LightVolume // also used as the bounding volume
}

// Scene contains all the elements needed for rendering
type Scene struct {
	nodes     []Node
	materials []material.Material
	lights    []lights.Light

	emissive      []NodeID
	hasAreaLights bool
	preprocessed  bool
}

// New creates an empty scene with only the root node
func New() *Scene {
	s := &Scene{}
	s.nodes = append(s.nodes, Node{
		Material:  core.NoMaterial,
		Parent:    -1,
		local:     identityTransform(),
		world:     identityTransform(),
		maxFactor: 1,
		absFactor: 1,
	})
	return s
}

// AddMaterial copies m into the material arena and returns its handle
func (s *Scene) AddMaterial(m *material.Material) core.MaterialID {
	s.materials = append(s.materials, *m)
	return core.MaterialID(len(s.materials) - 1)
}

// Material returns the material for a handle. It panics on an invalid handle.
func (s *Scene) Material(id core.MaterialID) *material.Material {
	if id < 0 || int(id) >= len(s.materials) {
		panic(fmt.Sprintf("scene: invalid material handle %d", id))
	}
	return &s.materials[id]
}

// AddObject adds obj under parent with the given material. Objects with an
// emissive material become area lights; solid transmissive objects are
// also sampled as light sources so caustics converge.
func (s *Scene) AddObject(parent NodeID, obj Object, mat core.MaterialID) NodeID {
	s.checkNode(parent)
	m := s.Material(mat)

	id := NodeID(len(s.nodes))
	s.nodes = append(s.nodes, Node{
		Object:    obj,
		Material:  mat,
		Parent:    parent,
		local:     identityTransform(),
		world:     identityTransform(),
		maxFactor: 1,
		absFactor: 1,
		light:     geometry.NewLightSphere(obj.LightRadius()),
	})

	switch {
	case m.IsEmissive():
		s.hasAreaLights = true
		s.emissive = append(s.emissive, id)
	case m.IsTransmissive && obj.Solid():
		s.emissive = append(s.emissive, id)
	}
	s.preprocessed = false
	return id
}

// AddGroup adds a node with no object, used to transform its children together
func (s *Scene) AddGroup(parent NodeID) NodeID {
	s.checkNode(parent)
	id := NodeID(len(s.nodes))
	s.nodes = append(s.nodes, Node{
		Material:  core.NoMaterial,
		Parent:    parent,
		local:     identityTransform(),
		world:     identityTransform(),
		maxFactor: 1,
		absFactor: 1,
	})
	s.preprocessed = false
	return id
}

// AddLight adds a point or directional light
func (s *Scene) AddLight(l lights.Light) {
	if l == nil {
		return
	}
	s.lights = append(s.lights, l)
}

// Translate moves a node by offset in its parent's space
func (s *Scene) Translate(id NodeID, offset core.Vec3) {
	n := s.node(id)
	m, mInv := translation(offset)
	n.local = n.local.then(m, mInv)
	s.preprocessed = false
}

// Rotate rotates a node about one of its own axes by degrees
func (s *Scene) Rotate(id NodeID, axis Axis, degrees float64) {
	n := s.node(id)
	m, mInv := rotation(axis, degrees)
	n.local = n.local.then(m, mInv)
	s.preprocessed = false
}

// Scale scales a node by per-axis factors about origin
func (s *Scene) Scale(id NodeID, origin, factors core.Vec3) {
	n := s.node(id)
	m, mInv := scaling(origin, factors)
	n.local = n.local.then(m, mInv)
	n.maxFactor *= factors.MaxComponent()
	s.preprocessed = false
}

// ScaleUniform scales a node equally on all axes about its origin
func (s *Scene) ScaleUniform(id NodeID, factor float64) {
	s.Scale(id, core.Vec3{}, core.Splat(factor))
}

// Preprocess computes world transforms and places every light volume.
// It must be called after the last modification and before rendering.
func (s *Scene) Preprocess() {
	// parents always precede their children in the arena
	for i := 1; i < len(s.nodes); i++ {
		n := &s.nodes[i]
		parent := &s.nodes[n.Parent]
		n.world = n.local.compose(parent.world)
		n.absFactor = parent.absFactor * n.maxFactor

		if n.light != nil {
			n.light.Place(geometry.Placement{
				Pos:   fromMgl(n.world.forward.Col(3).Vec3()),
				Scale: n.absFactor,
			})
		}
	}
	s.preprocessed = true
}

// Preprocessed reports whether the scene is ready for rendering
func (s *Scene) Preprocessed() bool {
	return s.preprocessed
}

// Traverse finds the nearest intersection along the world-space ray and
// records it on the ray. The ray direction is renormalized first.
func (s *Scene) Traverse(ray *core.Ray) {
	ray.Renormalize()

	for i := range s.nodes {
		n := &s.nodes[i]
		if n.Object == nil {
			continue
		}
		if !n.light.FastIntersect(ray.Origin, ray.Direction) {
			continue
		}
		s.intersect(ray, n)
	}
}

func (s *Scene) intersect(ray *core.Ray, n *Node) {
	origin := transformPoint(n.world.inverse, ray.Origin)
	dir := transformVector(n.world.inverse, ray.Direction)

	var hit core.Intersection
	n.Object.Intersect(origin, dir, &hit)
	if !hit.Hit {
		return
	}

	hit.Point = transformPoint(n.world.forward, hit.Point)
	hit.Normal = transformNormal(n.world.inverse, hit.Normal).Normalize()
	hit.Solid = n.Object.Solid()
	hit.Material = n.Material
	core.Consolidate(ray, &hit)
}

// Lights returns the point and directional lights
func (s *Scene) Lights() []lights.Light {
	return s.lights
}

// HasAreaLights reports whether any object has an emissive material
func (s *Scene) HasAreaLights() bool {
	return s.hasAreaLights
}

// EmissiveVolumes returns the placed light volumes of all emissive and
// caustic-casting objects.
func (s *Scene) EmissiveVolumes() []geometry.LightVolume {
	volumes := make([]geometry.LightVolume, 0, len(s.emissive))
	for _, id := range s.emissive {
		volumes = append(volumes, s.nodes[id].light)
	}
	return volumes
}

// Stats summarizes the contents of a scene
type Stats struct {
	Objects   int
	Meshes    int
	Faces     int
	Materials int
	Lights    int
	Emissive  int
}

func (st Stats) String() string {
	return fmt.Sprintf("objects=%d meshes=%d faces=%d materials=%d lights=%d emissive=%d",
		st.Objects, st.Meshes, st.Faces, st.Materials, st.Lights, st.Emissive)
}

// Stats counts the objects, mesh faces and lights in the scene
func (s *Scene) Stats() Stats {
	st := Stats{Materials: len(s.materials), Lights: len(s.lights), Emissive: len(s.emissive)}
	for i := range s.nodes {
		switch obj := s.nodes[i].Object.(type) {
		case nil:
		case *Mesh:
			st.Objects++
			st.Meshes++
			st.Faces += obj.FaceCount()
		default:
			st.Objects++
		}
	}
	return st
}

func (s *Scene) node(id NodeID) *Node {
	s.checkNode(id)
	return &s.nodes[id]
}

func (s *Scene) checkNode(id NodeID) {
	if id < 0 || int(id) >= len(s.nodes) {
		panic(fmt.Sprintf("scene: invalid node handle %d", id))
	}
}
