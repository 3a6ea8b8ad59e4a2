package renderer

import (
	"math"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/geometry"
	"github.com/df07/go-recursive-raytracer/pkg/material"
)

// MaxDepth is the bounce cap after which a path contributes black
const MaxDepth = 50

// Raytracer evaluates light paths through a world of shapes.
// It holds no mutable state and can be shared by all workers.
type Raytracer struct {
	world      geometry.Shape
	background Background
	maxDepth   int
}

// NewRaytracer creates a raytracer. A nil world is empty, a nil background
// is the sky gradient and a non-positive maxDepth means MaxDepth.
func NewRaytracer(world geometry.Shape, background Background, maxDepth int) *Raytracer {
	if background == nil {
		background = NewSkyGradient()
	}
	if maxDepth <= 0 {
		maxDepth = MaxDepth
	}
	return &Raytracer{
		world:      world,
		background: background,
		maxDepth:   maxDepth,
	}
}

// TraceRay returns the color carried back along ray and the number of
// scatter events on the path. Attenuation compounds multiplicatively at each
// bounce; absorption and the depth cap both terminate with black.
func (rt *Raytracer) TraceRay(ray core.Ray, sampler core.Sampler) (core.Color, int) {
	throughput := core.White()

	for depth := 0; depth < rt.maxDepth; depth++ {
		var hit *material.HitRecord
		isHit := false
		if rt.world != nil {
			hit, isHit = rt.world.Hit(ray, 0, math.Inf(1))
		}
		if !isHit {
			return throughput.MultiplyColor(rt.background.Emit(ray)), depth
		}

		scatter, didScatter := hit.Material.Scatter(ray, hit, sampler)
		if !didScatter {
			return core.Black(), depth
		}

		throughput = throughput.MultiplyColor(scatter.Attenuation)
		ray = scatter.Scattered
	}

	return core.Black(), rt.maxDepth
}

// SamplePixel takes one jittered sample of pixel (x, y). Row 0 is the top of
// the image while t=0 is the bottom of the camera's image plane.
func (rt *Raytracer) SamplePixel(camera *Camera, x, y, width, height int, sampler core.Sampler) (core.Color, int) {
	s := (float64(x) + sampler.Get1D()) / float64(width)
	t := (float64(height-y-1) + sampler.Get1D()) / float64(height)
	return rt.TraceRay(camera.GetRay(s, t, sampler), sampler)
}

// RenderRow brings every pixel of row y up to targetSamples samples and
// returns the number of scatter events traced
func (rt *Raytracer) RenderRow(camera *Camera, y, width, height, targetSamples int, row []PixelStats, sampler core.Sampler) int {
	bounces := 0
	for x := 0; x < width; x++ {
		ps := &row[x]
		for ps.SampleCount < targetSamples {
			color, n := rt.SamplePixel(camera, x, y, width, height, sampler)
			ps.AddSample(color)
			bounces += n
		}
	}
	return bounces
}
