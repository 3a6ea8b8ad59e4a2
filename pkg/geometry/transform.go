package geometry

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-recursive-raytracer/pkg/core"
)

// Placement describes where a shape loaded in model space is put in the world.
// Rotations are in degrees and applied X, then Y, then Z, after scaling.
// Scale is uniform, so every shape, spheres included, can take the matrix.
type Placement struct {
	Translate core.Vec3
	Rotate    core.Vec3
	Scale     float64
}

// Matrix returns the model-to-world transform
func (p Placement) Matrix() mgl64.Mat4 {
	scale := p.Scale
	if scale == 0 {
		scale = 1
	}
	m := mgl64.Translate3D(p.Translate.X, p.Translate.Y, p.Translate.Z)
	m = m.Mul4(mgl64.HomogRotate3DZ(mgl64.DegToRad(p.Rotate.Z)))
	m = m.Mul4(mgl64.HomogRotate3DY(mgl64.DegToRad(p.Rotate.Y)))
	m = m.Mul4(mgl64.HomogRotate3DX(mgl64.DegToRad(p.Rotate.X)))
	return m.Mul4(mgl64.Scale3D(scale, scale, scale))
}

// TransformPoint applies a homogeneous transform to a point
func TransformPoint(m mgl64.Mat4, p core.Vec3) core.Vec3 {
	out := mgl64.TransformCoordinate(toMgl(p), m)
	return fromMgl(out)
}

func toMgl(v core.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func fromMgl(v mgl64.Vec3) core.Vec3 {
	return core.NewVec3(v[0], v[1], v[2])
}
