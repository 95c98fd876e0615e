// Package material describes how surfaces respond to light: Phong
// parameters that may be textured, emission, and the optical properties of
// transmissive media.
package material

import (
	"math"

	"github.com/KholdStare/qndraytracer/pkg/core"
)

// Material is the full description of a surface. Materials live in a scene
// arena and are referenced by core.MaterialID.
type Material struct {
	Ambient     Param[core.Vec3] // Phong ambient response
	Diffuse     Param[core.Vec3] // Phong diffuse response
	Specular    Param[core.Vec3] // Phong specular response
	SpecularExp float64

	Reflectance Param[float64] // fraction of light mirrored off the surface

	// Emittance is the radiance emitted by the surface. A material with any
	// non-black emittance makes its object an area light.
	Emittance Param[core.Vec3]

	IsTransmissive  bool
	RefractiveIndex float64

	// Absorption is the per-channel absorption coefficient of the medium.
	// Use SetAbsorptionColor to specify it by transmitted color.
	Absorption core.Vec3
}

// New creates a Phong material with the given constant responses
func New(ambient, diffuse, specular core.Vec3, exp float64) *Material {
	return &Material{
		Ambient:         Const(ambient),
		Diffuse:         Const(diffuse),
		Specular:        Const(specular),
		SpecularExp:     exp,
		RefractiveIndex: 1.0,
	}
}

// Diffuse creates a matte material of the given color with a faint ambient term
func Diffuse(color core.Vec3) *Material {
	return New(color.Multiply(0.1), color, core.Vec3{}, 1)
}

// Emissive creates a material that only emits light
func Emissive(emission core.Vec3) *Material {
	m := New(core.Vec3{}, core.Vec3{}, core.Vec3{}, 1)
	m.Emittance = Const(emission)
	return m
}

// Mirror creates a material that reflects the given fraction of light
func Mirror(reflectance float64) *Material {
	m := New(core.Vec3{}, core.Vec3{}, core.Splat(1), 100)
	m.Reflectance = Const(reflectance)
	return m
}

// Glass creates a transmissive material. The tint is the color of light that
// survives passing through the medium; white is perfectly clear.
func Glass(refractiveIndex float64, tint core.Vec3) *Material {
	m := New(core.Vec3{}, core.Vec3{}, core.Splat(1), 200)
	m.IsTransmissive = true
	m.RefractiveIndex = refractiveIndex
	m.SetAbsorptionColor(tint)
	return m
}

// SetAbsorptionColor sets the color of light passing through the medium.
// The inverse is absorbed, so blue glass absorbs orange.
func (m *Material) SetAbsorptionColor(color core.Vec3) {
	m.Absorption = core.Splat(1).Subtract(color)
}

// IsEmissive reports whether the material emits light anywhere on its surface
func (m *Material) IsEmissive() bool {
	if m.Emittance.Texture != nil {
		return true
	}
	return !m.Emittance.Value.IsZero()
}

// PhongBRDF returns the per-channel ratio of outgoing to incoming radiance.
// Both directions face away from the surface and must be unit length.
func (m *Material) PhongBRDF(incoming, outgoing, normal core.Vec3, uv core.Vec2) core.Vec3 {
	ratio := m.Diffuse.At(uv)

	cosIn := incoming.Dot(normal)
	reflectDir := normal.Multiply(2 * cosIn).Subtract(incoming).Normalize()

	if rv := reflectDir.Dot(outgoing); rv > 0 {
		ratio = ratio.Add(m.Specular.At(uv).Multiply(math.Pow(rv, m.SpecularExp)))
	}
	return ratio
}
