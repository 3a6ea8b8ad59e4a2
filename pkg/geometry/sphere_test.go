package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/material"
)

var grey = material.NewDiffuse(core.NewColor(0.5, 0.5, 0.5))

func TestNewSphere_RejectsNonPositiveRadius(t *testing.T) {
	for _, radius := range []float64{0, -1} {
		if _, err := NewSphere(core.NewVec3(0, 0, 0), radius, grey); err == nil {
			t.Errorf("Expected error for radius %f", radius)
		}
	}
}

func TestSphere_Hit_Miss(t *testing.T) {
	sphere := MustSphere(core.NewVec3(0, 0, 0), 1.0, grey)
	ray := core.NewRay(core.NewVec3(2, 0, 0), core.NewVec3(0, 1, 0))

	hit, isHit := sphere.Hit(ray, 0, math.Inf(1))
	if isHit {
		t.Errorf("Expected miss, but got hit at t=%f", hit.T)
	}
}

func TestSphere_Hit_OutsideAndInside(t *testing.T) {
	sphere := MustSphere(core.NewVec3(0, 0, 0), 1.0, grey)

	tests := []struct {
		name           string
		rayOrigin      core.Vec3
		rayDirection   core.Vec3
		expectedT      float64
		expectedNormal core.Vec3
	}{
		{
			name:           "from outside",
			rayOrigin:      core.NewVec3(0, 0, 2),
			rayDirection:   core.NewVec3(0, 0, -1),
			expectedT:      1.0,
			expectedNormal: core.NewVec3(0, 0, 1),
		},
		{
			name:           "from inside keeps outward normal",
			rayOrigin:      core.NewVec3(0, 0, 0),
			rayDirection:   core.NewVec3(0, 0, 1),
			expectedT:      1.0,
			expectedNormal: core.NewVec3(0, 0, 1),
		},
		{
			name:           "unnormalized direction",
			rayOrigin:      core.NewVec3(0, 0, 3),
			rayDirection:   core.NewVec3(0, 0, -2),
			expectedT:      1.0,
			expectedNormal: core.NewVec3(0, 0, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := core.NewRay(tt.rayOrigin, tt.rayDirection)
			hit, isHit := sphere.Hit(ray, 0, math.Inf(1))

			if !isHit {
				t.Fatal("Expected hit, but got miss")
			}
			if math.Abs(hit.T-tt.expectedT) > 1e-9 {
				t.Errorf("Expected t=%f, got t=%f", tt.expectedT, hit.T)
			}
			if !hit.Normal.Equals(tt.expectedNormal, 1e-9) {
				t.Errorf("Expected normal %v, got %v", tt.expectedNormal, hit.Normal)
			}
			if hit.Material != grey {
				t.Error("Expected hit record to carry the sphere's material")
			}
		})
	}
}

func TestSphere_Hit_TangentIsMiss(t *testing.T) {
	sphere := MustSphere(core.NewVec3(0, 0, 0), 1.0, grey)
	ray := core.NewRay(core.NewVec3(1, 0, 2), core.NewVec3(0, 0, -1))

	if hit, isHit := sphere.Hit(ray, 0, math.Inf(1)); isHit {
		t.Errorf("Expected tangent ray to miss, got hit at %v", hit.Point)
	}
}

func TestSphere_Hit_Bounds(t *testing.T) {
	sphere := MustSphere(core.NewVec3(0, 0, 0), 1.0, grey)
	ray := core.NewRay(core.NewVec3(0, 0, 2), core.NewVec3(0, 0, -1))

	// tMax excludes both roots
	if hit, isHit := sphere.Hit(ray, 0, 0.5); isHit {
		t.Errorf("Expected miss due to tMax bound, but got hit at t=%f", hit.T)
	}

	// tMin excludes the near root, so the far root is reported
	hit, isHit := sphere.Hit(ray, 1.5, 1000.0)
	if !isHit || math.Abs(hit.T-3.0) > 1e-9 {
		t.Errorf("Expected far root at t=3, got %v (hit=%t)", hit, isHit)
	}

	// The window is open: a root exactly at tMax is rejected
	if _, isHit := sphere.Hit(ray, 1.5, 3.0); isHit {
		t.Error("Expected root at tMax to be rejected")
	}
}

func TestSphere_Hit_PointOnSurface(t *testing.T) {
	sphere := MustSphere(core.NewVec3(0.3, -0.2, -1), 0.7, grey)
	sampler := core.NewSeededSampler(11)

	hits := 0
	for i := 0; i < 500; i++ {
		origin := core.RandomInUnitSphere(sampler).Multiply(4).Add(core.NewVec3(0, 0, 3))
		direction := core.RandomInUnitSphere(sampler)
		hit, isHit := sphere.Hit(core.NewRay(origin, direction), 0, math.Inf(1))
		if !isHit {
			continue
		}
		hits++
		distance := hit.Point.Subtract(sphere.Center).Length()
		if math.Abs(distance-sphere.Radius) > 1e-9 {
			t.Fatalf("Hit point %v is %f from center, want %f", hit.Point, distance, sphere.Radius)
		}
		if math.Abs(hit.Normal.Length()-1) > 1e-9 {
			t.Fatalf("Normal %v is not unit length", hit.Normal)
		}
	}
	if hits == 0 {
		t.Fatal("Expected at least one random ray to hit")
	}
}

func TestSphere_MoveTo(t *testing.T) {
	sphere := MustSphere(core.NewVec3(0, 0, 0), 1.0, grey)
	moved := sphere.MoveTo(core.NewVec3(0, 0, -5)).(*Sphere)

	if moved.Center != core.NewVec3(0, 0, -5) || moved.Radius != 1 {
		t.Errorf("Unexpected moved sphere %+v", moved)
	}
	if sphere.Center != core.NewVec3(0, 0, 0) {
		t.Error("MoveTo must not modify the original sphere")
	}
}

func TestSphere_Transform(t *testing.T) {
	sphere := MustSphere(core.NewVec3(1, 0, 0), 0.5, grey)
	placed, err := sphere.Transform(Placement{Translate: core.NewVec3(0, 2, 0), Scale: 2}.Matrix())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !placed.Center.Equals(core.NewVec3(2, 2, 0), 1e-12) {
		t.Errorf("Expected center (2,2,0), got %v", placed.Center)
	}
	if math.Abs(placed.Radius-1.0) > 1e-12 {
		t.Errorf("Expected radius 1, got %f", placed.Radius)
	}
}

func TestSphere_TransformRejectsNonUniformScale(t *testing.T) {
	sphere := MustSphere(core.NewVec3(0, 0, 0), 1, grey)

	for _, m := range []mgl64.Mat4{
		mgl64.Scale3D(2, 1, 1),
		mgl64.Scale3D(1, 1, 3),
		mgl64.HomogRotate3DY(mgl64.DegToRad(30)).Mul4(mgl64.Scale3D(1, 2, 1)),
	} {
		placed, err := sphere.Transform(m)
		if !errors.Is(err, ErrInvalidShape) {
			t.Errorf("Expected ErrInvalidShape for %v, got %v", m, err)
		}
		if placed != nil {
			t.Errorf("Expected no sphere for %v, got %+v", m, placed)
		}
	}

	rotated, err := sphere.Transform(Placement{Rotate: core.NewVec3(10, 20, 30), Scale: 3}.Matrix())
	if err != nil {
		t.Fatalf("Rotation with uniform scale should be accepted: %v", err)
	}
	if math.Abs(rotated.Radius-3) > 1e-9 {
		t.Errorf("Expected radius 3, got %f", rotated.Radius)
	}
}
