package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-recursive-raytracer/pkg/core"
)

func TestTriangle_Hit(t *testing.T) {
	// Create a triangle in the XY plane
	triangle := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0), grey)

	tests := []struct {
		name      string
		ray       core.Ray
		tMin      float64
		tMax      float64
		shouldHit bool
		expectedT float64
	}{
		{
			name:      "Ray hits triangle center",
			ray:       core.NewRay(core.NewVec3(0.25, 0.25, -1), core.NewVec3(0, 0, 1)),
			tMin:      0,
			tMax:      10.0,
			shouldHit: true,
			expectedT: 1.0,
		},
		{
			name:      "Ray hits triangle edge",
			ray:       core.NewRay(core.NewVec3(0.5, 0, -1), core.NewVec3(0, 0, 1)),
			tMin:      0,
			tMax:      10.0,
			shouldHit: true,
			expectedT: 1.0,
		},
		{
			name:      "Ray misses triangle",
			ray:       core.NewRay(core.NewVec3(1, 1, -1), core.NewVec3(0, 0, 1)),
			tMin:      0,
			tMax:      10.0,
			shouldHit: false,
		},
		{
			name:      "Ray parallel to triangle",
			ray:       core.NewRay(core.NewVec3(0.25, 0.25, 0), core.NewVec3(1, 0, 0)),
			tMin:      0,
			tMax:      10.0,
			shouldHit: false,
		},
		{
			name:      "Ray almost parallel inside epsilon band",
			ray:       core.NewRay(core.NewVec3(-1, 0.25, 1e-12), core.NewVec3(1, 0, 1e-10)),
			tMin:      0,
			tMax:      10.0,
			shouldHit: false,
		},
		{
			name:      "Ray hits from behind",
			ray:       core.NewRay(core.NewVec3(0.25, 0.25, 1), core.NewVec3(0, 0, -1)),
			tMin:      0,
			tMax:      10.0,
			shouldHit: true,
			expectedT: 1.0,
		},
		{
			name:      "Hit beyond tMax",
			ray:       core.NewRay(core.NewVec3(0.25, 0.25, -1), core.NewVec3(0, 0, 1)),
			tMin:      0,
			tMax:      1.0,
			shouldHit: false,
		},
		{
			name:      "Triangle behind origin",
			ray:       core.NewRay(core.NewVec3(0.25, 0.25, 1), core.NewVec3(0, 0, 1)),
			tMin:      0,
			tMax:      10.0,
			shouldHit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, isHit := triangle.Hit(tt.ray, tt.tMin, tt.tMax)
			require.Equal(t, tt.shouldHit, isHit)
			if !tt.shouldHit {
				return
			}
			require.NotNil(t, hit)
			assert.InDelta(t, tt.expectedT, hit.T, 1e-9)
			// Flat shading: always the face normal, never re-oriented
			assert.True(t, hit.Normal.Equals(core.NewVec3(0, 0, 1), 1e-12), "normal %v", hit.Normal)
		})
	}
}

func TestTriangle_BarycentricAndPlane(t *testing.T) {
	triangle := NewTriangle(core.NewVec3(-1, 0, -2), core.NewVec3(2, 0.5, -3), core.NewVec3(0, 2, -2.5), grey)
	sampler := core.NewSeededSampler(5)

	hits := 0
	for i := 0; i < 2000; i++ {
		direction := core.RandomInUnitSphere(sampler).Add(core.NewVec3(0, 0, -1))
		ray := core.NewRay(core.NewVec3(0, 0.5, 0), direction)

		tParam, u, v, ok := triangle.intersect(ray, 0, math.Inf(1))
		if !ok {
			continue
		}
		hits++
		assert.GreaterOrEqual(t, u, 0.0)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, u+v, 1.0)

		point := ray.At(tParam)
		assert.InDelta(t, 0.0, point.Subtract(triangle.V0).Dot(triangle.Normal()), 1e-9)
	}
	assert.Positive(t, hits)
}

func TestTriangle_Degenerate(t *testing.T) {
	flat := NewTriangle(core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 1), core.NewVec3(2, 2, 2), grey)
	assert.True(t, flat.Degenerate())

	_, isHit := flat.Hit(core.NewRay(core.NewVec3(1, 1, -1), core.NewVec3(0, 0, 1)), 0, math.Inf(1))
	assert.False(t, isHit)
}
