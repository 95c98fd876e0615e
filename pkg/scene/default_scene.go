package scene

import (
	"github.com/KholdStare/qndraytracer/pkg/core"
	"github.com/KholdStare/qndraytracer/pkg/lights"
	"github.com/KholdStare/qndraytracer/pkg/material"
	"github.com/KholdStare/qndraytracer/pkg/renderer"
)

// NewDefaultScene creates a showcase of spheres with diffuse, mirror, glass
// and glossy materials. The floor is checkered unless floorTexture is set.
func NewDefaultScene(floorTexture material.Texture[core.Vec3]) (*Scene, renderer.CameraConfig) {
	cameraConfig := renderer.CameraConfig{
		Center:           core.NewVec3(0, 0.75, 2), // Position camera higher and farther back
		LookAt:           core.NewVec3(0, 0.5, -1), // Look at the sphere center
		Up:               core.NewVec3(0, 1, 0),    // Standard up direction
		Width:            400,
		AspectRatio:      16.0 / 9.0,
		VFov:             40.0,
		AntialiasSamples: 4,
	}

	s := New()

	// Create materials
	if floorTexture == nil {
		floorTexture = material.NewChecker(20,
			core.NewVec3(0.48, 0.48, 0.0),
			core.NewVec3(0.9, 0.9, 0.85))
	}
	floorMat := material.Diffuse(core.Splat(1))
	floorMat.Diffuse = material.Textured(floorTexture)
	floorMat.Ambient = material.Const(core.Splat(0.05))

	red := s.AddMaterial(material.Diffuse(core.NewVec3(0.65, 0.25, 0.2)))
	blue := s.AddMaterial(material.Diffuse(core.NewVec3(0.1, 0.2, 0.5)))
	floor := s.AddMaterial(floorMat)
	silver := s.AddMaterial(material.Mirror(0.9))
	gold := s.AddMaterial(material.New(
		core.NewVec3(0.08, 0.06, 0.02),
		core.NewVec3(0.8, 0.6, 0.2),
		core.NewVec3(0.5, 0.5, 0.5),
		40,
	))
	glass := s.AddMaterial(material.Glass(1.5, core.NewVec3(0.95, 0.95, 1)))
	sun := s.AddMaterial(material.Emissive(core.NewVec3(15.0, 14.0, 13.0)))

	// Ground square, large but finite so it has a light volume
	ground := s.AddObject(Root, UnitSquare{}, floor)
	s.Rotate(ground, AxisX, -90)
	s.ScaleUniform(ground, 20)

	addSphere(s, core.NewVec3(0, 0.5, -1), 0.5, red)
	addSphere(s, core.NewVec3(-1, 0.5, -1), 0.5, silver)
	addSphere(s, core.NewVec3(1, 0.5, -1), 0.5, gold)
	addSphere(s, core.NewVec3(0.5, 0.25, -0.5), 0.25, glass)

	// Glass shell around a blue core
	shell := s.AddGroup(Root)
	s.Translate(shell, core.NewVec3(-0.5, 0.25, -0.5))
	addSphere(s, core.Vec3{}, 0.25, glass, shell)
	addSphere(s, core.Vec3{}, 0.15, blue, shell)

	// Distant sphere light and a dim fill light
	addSphere(s, core.NewVec3(30, 30.5, 15), 10, sun)
	s.AddLight(lights.NewPointLight(core.NewVec3(-2, 3, 2), core.Splat(0.2)))

	return s, cameraConfig
}

// addSphere places a scaled unit sphere under parent, or the root if none is given
func addSphere(s *Scene, center core.Vec3, radius float64, mat core.MaterialID, parent ...NodeID) NodeID {
	p := Root
	if len(parent) > 0 {
		p = parent[0]
	}
	id := s.AddObject(p, UnitSphere{}, mat)
	s.Translate(id, center)
	s.ScaleUniform(id, radius)
	return id
}
