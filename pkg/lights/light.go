// Package lights holds the simple non-physical lights shaded with the Phong
// model. Area lights are not here: any object with an emissive material is
// sampled by the integrator instead.
package lights

import (
	"math"

	"github.com/KholdStare/qndraytracer/pkg/core"
	"github.com/KholdStare/qndraytracer/pkg/material"
)

// TraverseFunc finds the nearest intersection along a ray, recording it on
// the ray. Lights use it for shadow tests.
type TraverseFunc func(ray *core.Ray)

// Light adds its contribution at the ray's intersection to ray.Color.
// The ray must hold a hit; mat is the material at that hit.
type Light interface {
	Shade(ray *core.Ray, mat *material.Material, traverse TraverseFunc)
}

// PointLight emits from a single position with separate Phong colors
type PointLight struct {
	Position core.Vec3
	Ambient  core.Vec3
	Diffuse  core.Vec3
	Specular core.Vec3
}

// NewPointLight creates a point light using one color for all Phong terms
func NewPointLight(position, color core.Vec3) *PointLight {
	return &PointLight{Position: position, Ambient: color, Diffuse: color, Specular: color}
}

// Shade adds ambient light unconditionally, then diffuse and specular terms
// when the surface faces the light and nothing blocks it.
func (l *PointLight) Shade(ray *core.Ray, mat *material.Material, traverse TraverseFunc) {
	hit := &ray.Intersection
	ray.Color = ray.Color.Add(l.Ambient.MultiplyVec(mat.Ambient.At(hit.UV)))

	toLight := l.Position.Subtract(hit.Point)
	distance := toLight.Length()
	if distance == 0 {
		return
	}
	toLight = toLight.Multiply(1 / distance)

	cosAngle := toLight.Dot(hit.Normal)
	if cosAngle < 0 || blocked(hit.Point, toLight, distance, traverse) {
		return
	}
	shadePhong(ray, mat, toLight, cosAngle, l.Diffuse, l.Specular)
}

// DirectionalLight illuminates every point from the same direction, like a
// very distant sun.
type DirectionalLight struct {
	Direction core.Vec3 // direction the light travels, unit length
	Ambient   core.Vec3
	Diffuse   core.Vec3
	Specular  core.Vec3
}

// NewDirectionalLight creates a directional light travelling along direction
func NewDirectionalLight(direction, color core.Vec3) *DirectionalLight {
	return &DirectionalLight{
		Direction: direction.Normalize(),
		Ambient:   color,
		Diffuse:   color,
		Specular:  color,
	}
}

// Shade behaves like PointLight.Shade with the light infinitely far away
func (l *DirectionalLight) Shade(ray *core.Ray, mat *material.Material, traverse TraverseFunc) {
	hit := &ray.Intersection
	ray.Color = ray.Color.Add(l.Ambient.MultiplyVec(mat.Ambient.At(hit.UV)))

	toLight := l.Direction.Negate()
	cosAngle := toLight.Dot(hit.Normal)
	if cosAngle < 0 || blocked(hit.Point, toLight, math.Inf(1), traverse) {
		return
	}
	shadePhong(ray, mat, toLight, cosAngle, l.Diffuse, l.Specular)
}

// blocked reports whether a shadow ray from point toward the light hits
// anything closer than distance.
func blocked(point, toLight core.Vec3, distance float64, traverse TraverseFunc) bool {
	shadow := core.NewRay(point, toLight)
	traverse(&shadow)
	return shadow.Intersection.Hit && shadow.Intersection.T < distance
}

func shadePhong(ray *core.Ray, mat *material.Material, toLight core.Vec3, cosAngle float64, diffuse, specular core.Vec3) {
	hit := &ray.Intersection
	ray.Color = ray.Color.Add(diffuse.MultiplyVec(mat.Diffuse.At(hit.UV)).Multiply(cosAngle))

	reflectDir := hit.Normal.Multiply(2 * cosAngle).Subtract(toLight).Normalize()
	if rv := -reflectDir.Dot(ray.Direction); rv > 0 {
		ray.Color = ray.Color.Add(specular.MultiplyVec(mat.Specular.At(hit.UV)).Multiply(math.Pow(rv, mat.SpecularExp)))
	}
}
