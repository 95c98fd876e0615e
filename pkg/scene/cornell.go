package scene

import (
	"github.com/KholdStare/qndraytracer/pkg/core"
	"github.com/KholdStare/qndraytracer/pkg/material"
	"github.com/KholdStare/qndraytracer/pkg/renderer"
)

// cornellSize is the edge length of the standard Cornell box
const cornellSize = 555.0

// NewCornellScene creates a classic Cornell box lit by a sphere light under
// the ceiling, with a mirror sphere and a glass sphere inside
func NewCornellScene() (*Scene, renderer.CameraConfig) {
	cameraConfig := renderer.CameraConfig{
		Center:           core.NewVec3(278, 278, -800), // Position camera outside the box looking in
		LookAt:           core.NewVec3(278, 278, 0),    // Look at the center of the box
		Up:               core.NewVec3(0, 1, 0),
		Width:            400,
		AspectRatio:      1.0,
		VFov:             40.0,
		AntialiasSamples: 4,
	}

	s := New()

	// Create materials
	white := s.AddMaterial(material.Diffuse(core.NewVec3(0.73, 0.73, 0.73)))
	red := s.AddMaterial(material.Diffuse(core.NewVec3(0.65, 0.05, 0.05)))
	green := s.AddMaterial(material.Diffuse(core.NewVec3(0.12, 0.45, 0.15)))
	light := s.AddMaterial(material.Emissive(core.NewVec3(15.0, 15.0, 15.0)))
	mirror := s.AddMaterial(material.Mirror(0.95))
	glass := s.AddMaterial(material.Glass(1.5, core.Splat(1)))

	half := cornellSize / 2

	// Each wall is a unit square turned to face into the box
	walls := []struct {
		center core.Vec3
		axis   Axis
		angle  float64
		mat    core.MaterialID
	}{
		{core.NewVec3(half, 0, half), AxisX, -90, white},           // floor
		{core.NewVec3(half, cornellSize, half), AxisX, 90, white},  // ceiling
		{core.NewVec3(half, half, cornellSize), AxisY, 180, white}, // back wall
		{core.NewVec3(0, half, half), AxisY, 90, red},              // left wall
		{core.NewVec3(cornellSize, half, half), AxisY, -90, green}, // right wall
	}
	for _, w := range walls {
		id := s.AddObject(Root, UnitSquare{}, w.mat)
		s.Translate(id, w.center)
		s.Rotate(id, w.axis, w.angle)
		s.ScaleUniform(id, cornellSize)
	}

	addSphere(s, core.NewVec3(half, cornellSize-70, half), 50, light)
	addSphere(s, core.NewVec3(185, 82.5, 169), 82.5, mirror)
	addSphere(s, core.NewVec3(370, 90, 351), 90, glass)

	return s, cameraConfig
}
