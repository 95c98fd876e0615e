package renderer

import (
	"math"

	"github.com/KholdStare/qndraytracer/pkg/core"
	"github.com/KholdStare/qndraytracer/pkg/sampling"
)

// RadianceFunc returns the radiance arriving along a camera ray
type RadianceFunc func(ray *core.Ray, sampler core.Sampler) core.Vec3

// CameraConfig describes the viewpoint, image size and lens
type CameraConfig struct {
	Center      core.Vec3 // Eye position
	LookAt      core.Vec3 // Point the camera faces
	Up          core.Vec3 // Up direction, need not be orthogonal to the view
	Width       int       // Image width in pixels
	AspectRatio float64   // Width / height
	VFov        float64   // Vertical field of view in degrees

	Aperture      float64 // Lens radius, 0 for a pinhole camera
	FocusDistance float64 // Distance to the focal plane, 0 for the distance to LookAt

	AntialiasSamples int // Samples per pixel, rounded down to a square
	ApertureSamples  int // Lens samples averaged per pixel sample
}

// Height returns the image height implied by Width and AspectRatio
func (c CameraConfig) Height() int {
	if c.AspectRatio <= 0 {
		return c.Width
	}
	return max(1, int(float64(c.Width)/c.AspectRatio))
}

// MergeCameraConfig returns base with every non-zero field of override applied
func MergeCameraConfig(base, override CameraConfig) CameraConfig {
	result := base
	if !override.Center.IsZero() {
		result.Center = override.Center
	}
	if !override.LookAt.IsZero() {
		result.LookAt = override.LookAt
	}
	if !override.Up.IsZero() {
		result.Up = override.Up
	}
	if override.Width > 0 {
		result.Width = override.Width
	}
	if override.AspectRatio > 0 {
		result.AspectRatio = override.AspectRatio
	}
	if override.VFov > 0 {
		result.VFov = override.VFov
	}
	if override.Aperture > 0 {
		result.Aperture = override.Aperture
	}
	if override.FocusDistance > 0 {
		result.FocusDistance = override.FocusDistance
	}
	if override.AntialiasSamples > 0 {
		result.AntialiasSamples = override.AntialiasSamples
	}
	if override.ApertureSamples > 0 {
		result.ApertureSamples = override.ApertureSamples
	}
	return result
}

// Camera maps sensor positions to world-space rays
type Camera struct {
	config CameraConfig
	width  int
	height int

	forward core.Vec3
	right   core.Vec3
	up      core.Vec3

	factor float64 // pixels per unit of image plane at distance 1
	focal  float64

	antialias sampling.Stratified
	lens      sampling.Stratified
}

// NewCamera creates a camera from its configuration
func NewCamera(config CameraConfig) *Camera {
	forward := config.LookAt.Subtract(config.Center).Normalize()
	up := config.Up.Subtract(forward.Multiply(config.Up.Dot(forward))).Normalize()
	right := forward.Cross(up)

	height := config.Height()
	focal := config.FocusDistance
	if focal <= 0 {
		focal = config.LookAt.Subtract(config.Center).Length()
	}

	return &Camera{
		config:    config,
		width:     config.Width,
		height:    height,
		forward:   forward,
		right:     right,
		up:        up,
		factor:    (float64(height) / 2) / math.Tan(config.VFov*math.Pi/360),
		focal:     focal,
		antialias: sampling.NewStratified(config.AntialiasSamples),
		lens:      sampling.NewStratified(config.ApertureSamples),
	}
}

// Width returns the image width in pixels
func (c *Camera) Width() int { return c.width }

// Height returns the image height in pixels
func (c *Camera) Height() int { return c.height }

// GetCameraForward returns the unit view direction
func (c *Camera) GetCameraForward() core.Vec3 {
	return c.forward
}

// SamplesPerPixel is the number of sensor samples SamplePixel deposits
func (c *Camera) SamplesPerPixel() int {
	return c.antialias.N()
}

// GetRay returns the pinhole ray through sensor position (x, y), measured in
// pixels from the image center with y up.
func (c *Camera) GetRay(x, y float64) core.Ray {
	dir := c.right.Multiply(x / c.factor).
		Add(c.up.Multiply(y / c.factor)).
		Add(c.forward)
	return core.NewRay(c.config.Center, dir)
}

// SamplePixel computes the radiance through pixel (row, col), where row 0 is
// the bottom of the image. It returns the sum of all samples taken and their
// count, ready to be deposited on a Sensor.
func (c *Camera) SamplePixel(row, col int, radiance RadianceFunc, sampler core.Sampler) (core.Vec3, int) {
	xStart := -float64(c.width)/2 + float64(col)
	yStart := -float64(c.height)/2 + float64(row)

	if c.antialias.N() == 1 {
		return c.sampleLens(xStart+0.5, yStart+0.5, radiance, sampler), 1
	}

	var sum core.Vec3
	for offset := range c.antialias.Samples(sampler) {
		sum = sum.Add(c.sampleLens(xStart+offset.X, yStart+offset.Y, radiance, sampler))
	}
	return sum, c.antialias.N()
}

// sampleLens shoots rays from the lens toward sensor position (x, y) on the
// focal plane and averages them.
func (c *Camera) sampleLens(x, y float64, radiance RadianceFunc, sampler core.Sampler) core.Vec3 {
	if c.config.Aperture <= core.Epsilon || c.lens.N() == 1 {
		ray := c.GetRay(x, y)
		return radiance(&ray, sampler)
	}

	x = x * c.focal / c.factor
	y = y * c.focal / c.factor
	focus := c.config.Center.
		Add(c.right.Multiply(x)).
		Add(c.up.Multiply(y)).
		Add(c.forward.Multiply(c.focal))

	var sum core.Vec3
	for sample := range c.lens.Samples(sampler) {
		disk := core.SamplePointInUnitDisk(sample).Multiply(c.config.Aperture)
		origin := c.config.Center.Add(c.right.Multiply(disk.X)).Add(c.up.Multiply(disk.Y))
		ray := core.NewRay(origin, focus.Subtract(origin))
		sum = sum.Add(radiance(&ray, sampler))
	}
	return sum.Multiply(1 / float64(c.lens.N()))
}
