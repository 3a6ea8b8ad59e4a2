package geometry

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/material"
)

// parallelEpsilon is the determinant band treated as a ray parallel to the triangle
const parallelEpsilon = 1e-8

// Triangle represents a single flat-shaded triangle defined by three vertices
type Triangle struct {
	V0, V1, V2 core.Vec3         // The three vertices
	Material   material.Material // Material of the triangle
	normal     core.Vec3         // Cached face normal
}

// NewTriangle creates a new triangle from three vertices
func NewTriangle(v0, v1, v2 core.Vec3, mat material.Material) *Triangle {
	t := &Triangle{
		V0:       v0,
		V1:       v1,
		V2:       v2,
		Material: mat,
	}
	t.normal = v1.Subtract(v0).Cross(v2.Subtract(v0)).Normalize()
	return t
}

// Normal returns the triangle's face normal
func (t *Triangle) Normal() core.Vec3 {
	return t.normal
}

// Degenerate reports whether the triangle has (near) zero area
func (t *Triangle) Degenerate() bool {
	return t.V1.Subtract(t.V0).Cross(t.V2.Subtract(t.V0)).LengthSquared() < parallelEpsilon*parallelEpsilon
}

// Hit tests if a ray intersects with the triangle
func (t *Triangle) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	tParam, _, _, ok := t.intersect(ray, tMin, tMax)
	if !ok {
		return nil, false
	}
	return &material.HitRecord{
		T:        tParam,
		Point:    ray.At(tParam),
		Normal:   t.normal,
		Material: t.Material,
	}, true
}

// intersect runs Möller-Trumbore and returns the ray parameter and barycentric (u, v)
func (t *Triangle) intersect(ray core.Ray, tMin, tMax float64) (float64, float64, float64, bool) {
	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)

	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	// If determinant is near zero, ray lies in plane of triangle
	if a > -parallelEpsilon && a < parallelEpsilon {
		return 0, 0, 0, false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(t.V0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return 0, 0, 0, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return 0, 0, 0, false
	}

	// A line intersection outside the window is not a ray intersection
	tParam := f * edge2.Dot(q)
	if tParam <= tMin || tParam >= tMax {
		return 0, 0, 0, false
	}
	return tParam, u, v, true
}

// Transform returns a copy with every vertex placed by m
func (t *Triangle) Transform(m mgl64.Mat4) *Triangle {
	return NewTriangle(TransformPoint(m, t.V0), TransformPoint(m, t.V1), TransformPoint(m, t.V2), t.Material)
}
