package material

import (
	"errors"

	"github.com/df07/go-recursive-raytracer/pkg/core"
)

// ErrInvalidParameter is returned when a material is constructed outside its valid range
var ErrInvalidParameter = errors.New("invalid material parameter")

// OriginOffset pushes scattered ray origins off the surface so they do not re-hit it
const OriginOffset = 1e-6

// Material interface for objects that can scatter rays
type Material interface {
	// Scatter returns the attenuation and outgoing ray, or false when the ray is absorbed
	Scatter(rayIn core.Ray, hit *HitRecord, sampler core.Sampler) (ScatterResult, bool)
}

// ScatterResult contains the result of material scattering
type ScatterResult struct {
	Attenuation core.Color // Color attenuation
	Scattered   core.Ray   // The scattered ray
}

// HitRecord contains information about a ray-object intersection.
// Normal is unit length but not oriented against the ray; materials resolve orientation.
// A HitRecord is only meaningful for the duration of the trace step that produced it.
type HitRecord struct {
	T        float64   // Parameter t along the ray
	Point    core.Vec3 // Point of intersection
	Normal   core.Vec3 // Surface normal at intersection
	Material Material  // Material of the hit object
}

// facingNormal returns the normal flipped, if needed, to oppose the incoming direction
func facingNormal(direction, normal core.Vec3) core.Vec3 {
	if direction.Dot(normal) > 0 {
		return normal.Negate()
	}
	return normal
}

// offsetOrigin moves a point off the surface along n
func offsetOrigin(point, n core.Vec3) core.Vec3 {
	return point.Add(n.Multiply(OriginOffset))
}

// diffuseRay builds the Lambertian bounce shared by diffuse and textured materials
func diffuseRay(rayIn core.Ray, hit *HitRecord, sampler core.Sampler) core.Ray {
	normal := facingNormal(rayIn.Direction, hit.Normal)
	target := hit.Point.Add(normal).Add(core.RandomInUnitSphere(sampler))
	origin := offsetOrigin(hit.Point, normal)
	direction := target.Subtract(origin)
	if direction.NearZero(1e-12) {
		direction = normal
	}
	return core.NewRay(origin, direction.Normalize())
}
