package renderer

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/geometry"
	"github.com/df07/go-recursive-raytracer/pkg/material"
)

// shapeList is a minimal nearest-hit world for renderer tests
type shapeList []geometry.Shape

func (l shapeList) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	var closest *material.HitRecord
	for _, shape := range l {
		if hit, ok := shape.Hit(ray, tMin, tMax); ok {
			closest, tMax = hit, hit.T
		}
	}
	return closest, closest != nil
}

func redSphereWorld() shapeList {
	red := material.NewDiffuse(core.NewColor(1, 0, 0))
	return shapeList{geometry.MustSphere(core.NewVec3(0, 0, -1), 0.5, red)}
}

func mirrorQuad(z float64, mirror material.Material) []geometry.Shape {
	a := core.NewVec3(-10, -10, z)
	b := core.NewVec3(10, -10, z)
	c := core.NewVec3(10, 10, z)
	d := core.NewVec3(-10, 10, z)
	return []geometry.Shape{
		geometry.NewTriangle(a, b, c, mirror),
		geometry.NewTriangle(a, c, d, mirror),
	}
}

// isGradient reports whether a gamma-encoded pixel lies on the sky gradient
func isGradient(c core.Color) bool {
	r, g := c.R*c.R, c.G*c.G
	tFromR := (1 - r) / 0.5
	tFromG := (1 - g) / 0.3
	return math.Abs(c.B-1) < 1e-9 && math.Abs(tFromR-tFromG) < 1e-9 && tFromR >= -1e-9 && tFromR <= 1+1e-9
}

func TestTraceRay_EmptySceneReturnsBackground(t *testing.T) {
	rt := NewRaytracer(shapeList{}, nil, 0)
	sampler := core.NewSeededSampler(1)
	sky := NewSkyGradient()

	directions := []core.Vec3{
		core.NewVec3(0, 1, 0),
		core.NewVec3(0, -1, 0),
		core.NewVec3(1, 0.3, -2),
		core.NewVec3(0, 0, 5),
	}
	for _, d := range directions {
		ray := core.NewRay(core.NewVec3(0, 0, 0), d)
		color, bounces := rt.TraceRay(ray, sampler)
		assert.Equal(t, sky.Emit(ray), color)
		assert.Zero(t, bounces)
	}

	straightUp, _ := rt.TraceRay(core.NewRay(core.Vec3{}, core.NewVec3(0, 1, 0)), sampler)
	assert.True(t, straightUp.Equals(core.NewColor(0.5, 0.7, 1.0)))
	straightDown, _ := rt.TraceRay(core.NewRay(core.Vec3{}, core.NewVec3(0, -1, 0)), sampler)
	assert.True(t, straightDown.Equals(core.White()))
}

func TestTraceRay_EmptySceneWithEnvironment(t *testing.T) {
	env := material.NewSolidImage(8, 4, 51, 102, 204)
	rt := NewRaytracer(nil, NewEnvironment(env), 0)

	color, bounces := rt.TraceRay(core.NewRay(core.Vec3{}, core.NewVec3(0.2, 0.4, -1)), core.NewSeededSampler(1))
	assert.Zero(t, bounces)
	assert.InDelta(t, 51/255.99, color.R, 1e-12)
	assert.InDelta(t, 102/255.99, color.G, 1e-12)
	assert.InDelta(t, 204/255.99, color.B, 1e-12)
}

func TestTraceRay_AttenuationCompounds(t *testing.T) {
	// A perfect mirror facing the camera reflects the sky straight back
	mirror := material.MustMetal(core.NewColor(0.5, 0.8, 1.0), 0)
	rt := NewRaytracer(shapeList(mirrorQuad(-1, mirror)), nil, 0)

	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
	color, bounces := rt.TraceRay(ray, core.NewSeededSampler(1))

	require.Equal(t, 1, bounces)
	horizon := NewSkyGradient().Emit(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, 1)))
	assert.True(t, color.Equals(horizon.MultiplyColor(core.NewColor(0.5, 0.8, 1.0))), "got %v", color)
}

func TestTraceRay_FacingMirrorsTerminate(t *testing.T) {
	mirror := material.MustMetal(core.NewColor(0.9, 0.9, 0.9), 0)
	world := shapeList(append(mirrorQuad(-1, mirror), mirrorQuad(1, mirror)...))
	rt := NewRaytracer(world, nil, 0)
	sampler := core.NewSeededSampler(7)

	// Straight down the corridor: bounces until the depth cap
	color, bounces := rt.TraceRay(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1)), sampler)
	assert.Equal(t, MaxDepth, bounces)
	assert.True(t, color.IsBlack())

	for i := 0; i < 200; i++ {
		direction := core.RandomInUnitSphere(sampler)
		if direction.NearZero(1e-6) {
			continue
		}
		color, bounces := rt.TraceRay(core.NewRay(core.Vec3{}, direction), sampler)
		assert.True(t, color.IsFinite(), "non-finite color %v", color)
		assert.LessOrEqual(t, bounces, MaxDepth)
	}
}

func TestTraceRay_InsideMirrorSphereHitsDepthCap(t *testing.T) {
	mirror := material.MustMetal(core.NewColor(1, 1, 1), 0)
	rt := NewRaytracer(shapeList{geometry.MustSphere(core.Vec3{}, 2, mirror)}, nil, 10)

	color, bounces := rt.TraceRay(core.NewRay(core.Vec3{}, core.NewVec3(0.3, 0.1, -1)), core.NewSeededSampler(1))
	assert.Equal(t, 10, bounces)
	assert.True(t, color.IsBlack())
}

func TestTraceScene_RedSphere(t *testing.T) {
	opts := Options{Width: 20, Height: 10, Samples: 1, Seed: 42}
	camera := NewCamera(CameraConfig{
		Center:      core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		AspectRatio: 2.0,
		VFov:        90.0,
	})

	pixels, err := TraceScene(context.Background(), opts, camera, redSphereWorld())
	require.NoError(t, err)
	require.Len(t, pixels, opts.Width*opts.Height)

	center := pixels[(opts.Height/2)*opts.Width+opts.Width/2]
	assert.False(t, center.IsBlack(), "center pixel should not be black")
	assert.Greater(t, center.R, center.B, "center pixel should be red dominated, got %v", center)

	corners := []int{0, opts.Width - 1, (opts.Height - 1) * opts.Width, opts.Height*opts.Width - 1}
	for _, i := range corners {
		assert.True(t, isGradient(pixels[i]), "corner %d = %v is not the sky gradient", i, pixels[i])
	}

	// Top row looks further up the gradient than the bottom row
	assert.Less(t, pixels[0].R, pixels[(opts.Height-1)*opts.Width].R)
}

func TestTraceScene_DeterministicAcrossWorkerCounts(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig())
	base := Options{Width: 16, Height: 9, Samples: 4, Seed: 9}

	single := base
	single.Workers = 1
	many := base
	many.Workers = 4

	a, err := TraceScene(context.Background(), single, camera, redSphereWorld())
	require.NoError(t, err)
	b, err := TraceScene(context.Background(), many, camera, redSphereWorld())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTraceScene_VarianceFallsWithSamples(t *testing.T) {
	// A single pixel spanning sphere and sky gives high per-sample variance
	camera := NewCamera(CameraConfig{
		Center:      core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		AspectRatio: 1.0,
		VFov:        60.0,
	})

	variance := func(samples int) float64 {
		var sum, sumSq float64
		const runs = 40
		for seed := int64(0); seed < runs; seed++ {
			pixels, err := TraceScene(context.Background(), Options{Width: 1, Height: 1, Samples: samples, Seed: seed * 1000}, camera, redSphereWorld())
			require.NoError(t, err)
			lum := pixels[0].Luminance()
			sum += lum
			sumSq += lum * lum
		}
		mean := sum / runs
		return sumSq/runs - mean*mean
	}

	assert.Less(t, variance(32), variance(1))
}

func TestTraceScene_InvalidDimensions(t *testing.T) {
	camera := NewCamera(DefaultCameraConfig())
	for _, opts := range []Options{
		{Width: 0, Height: 10, Samples: 1},
		{Width: 10, Height: -1, Samples: 1},
		{Width: 10, Height: 10, Samples: 0},
	} {
		_, err := TraceScene(context.Background(), opts, camera, nil)
		assert.ErrorIs(t, err, ErrInvalidDimensions)
	}
}

func TestTraceScene_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := TraceScene(ctx, Options{Width: 8, Height: 8, Samples: 2}, NewCamera(DefaultCameraConfig()), redSphereWorld())
	assert.ErrorIs(t, err, context.Canceled)
}
