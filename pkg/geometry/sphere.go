package geometry

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/material"
)

// Sphere represents a sphere shape
type Sphere struct {
	Center   core.Vec3
	Radius   float64
	Material material.Material
}

// NewSphere creates a new sphere; the radius must be positive
func NewSphere(center core.Vec3, radius float64, mat material.Material) (*Sphere, error) {
	if !(radius > 0) {
		return nil, fmt.Errorf("%w: sphere radius %g must be positive", ErrInvalidShape, radius)
	}
	if mat == nil {
		return nil, fmt.Errorf("%w: sphere has no material", ErrInvalidShape)
	}
	return &Sphere{
		Center:   center,
		Radius:   radius,
		Material: mat,
	}, nil
}

// MustSphere is NewSphere for literal scene construction
func MustSphere(center core.Vec3, radius float64, mat material.Material) *Sphere {
	s, err := NewSphere(center, radius, mat)
	if err != nil {
		panic(err)
	}
	return s
}

// Hit tests if a ray intersects with the sphere
func (s *Sphere) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	// Vector from sphere center to ray origin
	oc := ray.Origin.Subtract(s.Center)

	// Quadratic equation coefficients: at² + 2bt + c = 0
	a := ray.Direction.Dot(ray.Direction)
	halfB := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius

	// Tangent rays count as misses
	discriminant := halfB*halfB - a*c
	if discriminant <= 0 {
		return nil, false
	}
	sqrtD := math.Sqrt(discriminant)

	// Try the closer intersection point first
	root := (-halfB - sqrtD) / a
	if root <= tMin || root >= tMax {
		root = (-halfB + sqrtD) / a
		if root <= tMin || root >= tMax {
			return nil, false
		}
	}

	point := ray.At(root)
	return &material.HitRecord{
		T:        root,
		Point:    point,
		Normal:   point.Subtract(s.Center).Divide(s.Radius),
		Material: s.Material,
	}, true
}

// MoveTo returns a copy of the sphere centered at position
func (s *Sphere) MoveTo(position core.Vec3) Shape {
	moved := *s
	moved.Center = position
	return &moved
}

// Transform returns a copy placed by m. A sphere only stays a sphere under
// uniform scale; any other matrix fails with ErrInvalidShape.
func (s *Sphere) Transform(m mgl64.Mat4) (*Sphere, error) {
	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	if math.Abs(sx-sy) > 1e-9*sx || math.Abs(sx-sz) > 1e-9*sx {
		return nil, fmt.Errorf("%w: sphere cannot take non-uniform scale (%g, %g, %g)", ErrInvalidShape, sx, sy, sz)
	}
	moved := *s
	moved.Center = TransformPoint(m, s.Center)
	moved.Radius = s.Radius * sx
	return &moved, nil
}
