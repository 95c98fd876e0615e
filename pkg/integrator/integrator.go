// Package integrator computes the radiance arriving along a ray. Diffuse
// lighting combines direction sampling toward every emissive object with
// uniform hemisphere sampling using the balance heuristic; mirror and
// glass surfaces recurse deterministically.
package integrator

import (
	"github.com/KholdStare/qndraytracer/pkg/core"
	"github.com/KholdStare/qndraytracer/pkg/material"
	"github.com/KholdStare/qndraytracer/pkg/sampling"
	"github.com/KholdStare/qndraytracer/pkg/scene"
)

// Config holds the bounce budgets and per-strategy sample counts
type Config struct {
	MaxDiffuse     int // diffuse bounces before a path stops gathering light
	MaxSpecular    int // mirror and glass bounces
	LightSamples   int // stratified samples per emissive object
	DiffuseSamples int // stratified hemisphere samples
}

// DefaultConfig returns the budgets used for final renders
func DefaultConfig() Config {
	return Config{
		MaxDiffuse:     2,
		MaxSpecular:    3,
		LightSamples:   9,
		DiffuseSamples: 16,
	}
}

// Raytracer shades rays against a preprocessed scene. It holds no per-ray
// state and is safe for concurrent use.
type Raytracer struct {
	scene  *scene.Scene
	config Config

	lightStrategies []sampling.Weighted
	hemisphere      sampling.Weighted
}

// NewRaytracer creates a raytracer for sc, preprocessing it if needed
func NewRaytracer(sc *scene.Scene, config Config) *Raytracer {
	if !sc.Preprocessed() {
		sc.Preprocess()
	}

	r := &Raytracer{
		scene:  sc,
		config: config,
		hemisphere: sampling.Weighted{
			Strategy: sampling.Hemisphere{},
			Sampler:  sampling.NewStratified(config.DiffuseSamples),
		},
	}

	if sc.HasAreaLights() {
		for _, volume := range sc.EmissiveVolumes() {
			r.lightStrategies = append(r.lightStrategies, sampling.Weighted{
				Strategy: sampling.LightVolumeStrategy{Volume: volume},
				Sampler:  sampling.NewStratified(config.LightSamples),
			})
		}
	}
	return r
}

// Config returns the configuration the raytracer was created with
func (r *Raytracer) Config() Config {
	return r.config
}

// Radiance shades a camera ray with the configured budgets. It has the
// signature of renderer.RadianceFunc.
func (r *Raytracer) Radiance(ray *core.Ray, sampler core.Sampler) core.Vec3 {
	return r.ShadeRay(ray, r.config.MaxDiffuse, r.config.MaxSpecular, sampler)
}

// ShadeRay returns the radiance arriving at the ray origin from its
// direction. diffuse and specular are the remaining bounce budgets; when
// either is negative the result is black. ray.Intersection and ray.Color
// are overwritten.
func (r *Raytracer) ShadeRay(ray *core.Ray, diffuse, specular int, sampler core.Sampler) core.Vec3 {
	if diffuse < 0 || specular < 0 {
		return core.Vec3{}
	}

	r.scene.Traverse(ray)
	hit := &ray.Intersection
	if !hit.Hit {
		return core.Vec3{}
	}

	ray.Color = core.Vec3{}
	mat := r.scene.Material(hit.Material)
	emission := mat.Emittance.At(hit.UV)
	var color core.Vec3

	switch {
	case !emission.IsZero():
		color = emission

	case mat.IsTransmissive:
		color = r.shadeTransmissive(ray, mat, diffuse, specular, sampler)

	case diffuse > 0:
		color = r.shadeDiffuse(ray, mat, diffuse, specular, sampler)
	}

	if hit.Inside && !mat.Absorption.IsZero() {
		color = core.AttenuateByAbsorption(color, mat.Absorption, hit.T)
	}
	return color
}

func (r *Raytracer) shadeTransmissive(ray *core.Ray, mat *material.Material, diffuse, specular int, sampler core.Sampler) core.Vec3 {
	hit := ray.Intersection

	n1, n2 := 1.0, mat.RefractiveIndex
	if hit.Inside {
		n1, n2 = n2, n1
	}
	fresnel := material.Fresnel(n1, n2, hit.Normal, ray.Direction)

	reflected := core.NewRay(hit.Point, fresnel.Reflected)
	reflectedColor := r.ShadeRay(&reflected, diffuse, specular-1, sampler)
	if fresnel.TotalInternalReflection {
		return reflectedColor
	}

	// thin surfaces let light straight through
	direction := ray.Direction
	if hit.Solid {
		direction = fresnel.Transmitted
	}
	transmitted := core.NewRay(hit.Point, direction)
	transmittedColor := r.ShadeRay(&transmitted, diffuse, specular-1, sampler)

	return reflectedColor.Multiply(fresnel.Reflection).
		Add(transmittedColor.Multiply(fresnel.Transmission()))
}

func (r *Raytracer) shadeDiffuse(ray *core.Ray, mat *material.Material, diffuse, specular int, sampler core.Sampler) core.Vec3 {
	strategies := r.lightStrategies
	if diffuse > 1 {
		strategies = append(strategies[:len(strategies):len(strategies)], r.hemisphere)
	}
	r.gather(ray, mat, strategies, diffuse, specular, sampler)

	for _, light := range r.scene.Lights() {
		light.Shade(ray, mat, r.scene.Traverse)
	}

	hit := ray.Intersection
	reflectance := mat.Reflectance.At(hit.UV)
	color := ray.Color.Multiply(1 - reflectance)
	if reflectance > 0 {
		mirror := core.NewRay(hit.Point, core.Reflect(ray.Direction, hit.Normal))
		color = color.Add(r.ShadeRay(&mirror, diffuse, specular-1, sampler).Multiply(reflectance))
	}
	return color
}

// gather adds the sampled incoming light at the ray's hit to ray.Color.
// Every direction is weighted by the balance heuristic over all strategies.
func (r *Raytracer) gather(ray *core.Ray, mat *material.Material, strategies []sampling.Weighted, diffuse, specular int, sampler core.Sampler) {
	hit := ray.Intersection
	surface := sampling.Surface{Point: hit.Point, Normal: hit.Normal}
	outgoing := ray.Direction.Negate()

	for _, w := range strategies {
		for uv := range w.Sampler.Samples(sampler) {
			dir := w.Strategy.Sample(surface, uv.X, uv.Y)
			normalization := sampling.Normalization(strategies, surface, dir)
			if normalization <= 0 {
				continue
			}

			secondary := core.NewRay(hit.Point, dir)
			incoming := r.ShadeRay(&secondary, diffuse-1, specular, sampler)

			radiance := reflectedRadiance(mat, hit, dir, outgoing, incoming)
			ray.Color = ray.Color.Add(radiance.Multiply(1 / normalization))
		}
	}
}

// reflectedRadiance is the light arriving from dir that leaves toward
// outgoing, relative to uniform hemisphere sampling.
func reflectedRadiance(mat *material.Material, hit core.Intersection, dir, outgoing, incoming core.Vec3) core.Vec3 {
	cosIn := dir.Dot(hit.Normal)
	if cosIn <= 0 {
		return core.Vec3{}
	}
	brdf := mat.PhongBRDF(dir, outgoing, hit.Normal, hit.UV)
	return incoming.MultiplyVec(brdf).Multiply(2 * cosIn)
}
