package material

import (
	"fmt"

	"github.com/df07/go-recursive-raytracer/pkg/core"
)

// Metal represents a metallic material with specular reflection
type Metal struct {
	Albedo   core.Color // Metal color
	Fuzzness float64    // 0.0 = perfect mirror, 1.0 = very fuzzy
}

// NewMetal creates a new metal material; fuzzness must lie in [0, 1]
func NewMetal(albedo core.Color, fuzzness float64) (*Metal, error) {
	if fuzzness < 0 || fuzzness > 1 {
		return nil, fmt.Errorf("%w: metal fuzzness %g outside [0,1]", ErrInvalidParameter, fuzzness)
	}
	return &Metal{Albedo: albedo, Fuzzness: fuzzness}, nil
}

// MustMetal is NewMetal for literal scene construction; it panics on invalid input
func MustMetal(albedo core.Color, fuzzness float64) *Metal {
	m, err := NewMetal(albedo, fuzzness)
	if err != nil {
		panic(err)
	}
	return m
}

// Scatter implements the Material interface for metal scattering
func (m *Metal) Scatter(rayIn core.Ray, hit *HitRecord, sampler core.Sampler) (ScatterResult, bool) {
	normal := facingNormal(rayIn.Direction, hit.Normal)
	reflected := Reflect(rayIn.Direction, normal)

	// Add fuzziness by perturbing the reflection direction
	if m.Fuzzness > 0 {
		reflected = reflected.Add(core.RandomInUnitSphere(sampler).Multiply(m.Fuzzness))
	}

	// A perturbed direction pointing into the surface is absorbed
	if reflected.Dot(normal) <= 0 {
		return ScatterResult{}, false
	}

	return ScatterResult{
		Attenuation: m.Albedo,
		Scattered:   core.NewRay(offsetOrigin(hit.Point, normal), reflected),
	}, true
}
