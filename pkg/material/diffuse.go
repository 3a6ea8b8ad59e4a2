package material

import (
	"github.com/df07/go-recursive-raytracer/pkg/core"
)

// Diffuse represents a Lambertian surface
type Diffuse struct {
	Albedo core.Color
}

// NewDiffuse creates a new diffuse material
func NewDiffuse(albedo core.Color) *Diffuse {
	return &Diffuse{Albedo: albedo}
}

// DefaultMaterial is the fallback used when a mesh names a material that does not exist
func DefaultMaterial() Material {
	return NewDiffuse(core.NewColor(0.5, 0.5, 0.5))
}

// Scatter bounces toward a random point in the unit sphere tangent to the hit point
func (d *Diffuse) Scatter(rayIn core.Ray, hit *HitRecord, sampler core.Sampler) (ScatterResult, bool) {
	return ScatterResult{
		Attenuation: d.Albedo,
		Scattered:   diffuseRay(rayIn, hit, sampler),
	}, true
}
