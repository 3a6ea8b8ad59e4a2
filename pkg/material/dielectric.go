package material

import (
	"fmt"
	"math"

	"github.com/df07/go-recursive-raytracer/pkg/core"
)

// Dielectric represents a transparent material like glass that can both reflect and refract
type Dielectric struct {
	RefractiveIndex float64 // Index of refraction (e.g., 1.5 for glass)
}

// NewDielectric creates a new dielectric material; the index must be positive
func NewDielectric(refractiveIndex float64) (*Dielectric, error) {
	if !(refractiveIndex > 0) {
		return nil, fmt.Errorf("%w: refractive index %g must be positive", ErrInvalidParameter, refractiveIndex)
	}
	return &Dielectric{RefractiveIndex: refractiveIndex}, nil
}

// MustDielectric is NewDielectric for literal scene construction
func MustDielectric(refractiveIndex float64) *Dielectric {
	d, err := NewDielectric(refractiveIndex)
	if err != nil {
		panic(err)
	}
	return d
}

// Scatter implements the Material interface for dielectric scattering.
// Light is split between reflection and refraction stochastically, weighted by Schlick.
func (d *Dielectric) Scatter(rayIn core.Ray, hit *HitRecord, sampler core.Sampler) (ScatterResult, bool) {
	// Dielectrics always attenuate by 1.0 (no color absorption for clear glass)
	attenuation := core.White()

	direction := rayIn.Direction
	length := direction.Length()
	dDotN := direction.Dot(hit.Normal)

	// Determine if we're entering or exiting the material
	var outwardNormal core.Vec3
	var refractionRatio, cosine float64
	if dDotN > 0 {
		outwardNormal = hit.Normal.Negate()
		refractionRatio = d.RefractiveIndex
		cosine = d.RefractiveIndex * dDotN / length
	} else {
		outwardNormal = hit.Normal
		refractionRatio = 1.0 / d.RefractiveIndex
		cosine = -dDotN / length
	}

	refracted, canRefract := Refract(direction, outwardNormal, refractionRatio)
	if canRefract && Schlick(cosine, d.RefractiveIndex) < sampler.Get1D() {
		// Transmitted rays start just behind the surface
		return ScatterResult{
			Attenuation: attenuation,
			Scattered:   core.NewRay(offsetOrigin(hit.Point, outwardNormal.Negate()), refracted),
		}, true
	}

	return ScatterResult{
		Attenuation: attenuation,
		Scattered:   core.NewRay(offsetOrigin(hit.Point, outwardNormal), Reflect(direction, outwardNormal)),
	}, true
}

// Reflect mirrors v about the normal n and returns the unit result
func Reflect(v, n core.Vec3) core.Vec3 {
	// r = v - 2*dot(v,n)*n
	return v.Subtract(n.Multiply(2 * v.Dot(n))).Normalize()
}

// Refract bends v through a surface with normal n using Snell's law.
// It reports false on total internal reflection.
func Refract(v, n core.Vec3, niOverNt float64) (core.Vec3, bool) {
	uv := v.Normalize()
	dt := uv.Dot(n)
	discriminant := 1.0 - niOverNt*niOverNt*(1.0-dt*dt)
	if discriminant <= 0 {
		return core.Vec3{}, false
	}
	refracted := uv.Subtract(n.Multiply(dt)).Multiply(niOverNt).Subtract(n.Multiply(math.Sqrt(discriminant)))
	return refracted.Normalize(), true
}

// Schlick calculates the Fresnel reflectance using Schlick's approximation
func Schlick(cosine, refractiveIndex float64) float64 {
	r0 := (1 - refractiveIndex) / (1 + refractiveIndex)
	r0 = r0 * r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}
