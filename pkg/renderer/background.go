package renderer

import (
	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/material"
)

// Background supplies the radiance of rays that leave the scene
type Background interface {
	Emit(ray core.Ray) core.Color
}

// Gradient blends between Bottom and Top by the ray's vertical direction
type Gradient struct {
	Top    core.Color
	Bottom core.Color
}

// NewSkyGradient returns the default white-to-sky-blue background
func NewSkyGradient() *Gradient {
	return &Gradient{
		Top:    core.NewColor(0.5, 0.7, 1.0),
		Bottom: core.White(),
	}
}

// Emit returns the gradient color for the ray direction
func (g *Gradient) Emit(ray core.Ray) core.Color {
	unitDirection := ray.Direction.Normalize()
	t := 0.5 * (unitDirection.Y + 1.0)
	return g.Bottom.Lerp(g.Top, t)
}

// Environment looks the ray direction up in a spherical environment image
type Environment struct {
	Image material.PixelSource
}

// NewEnvironment wraps an image as a background
func NewEnvironment(image material.PixelSource) *Environment {
	return &Environment{Image: image}
}

// Emit returns the environment pixel the ray direction maps to
func (e *Environment) Emit(ray core.Ray) core.Color {
	return material.SampleSpherical(e.Image, ray.Direction)
}

// backgroundFor chooses the environment image when one is configured
func backgroundFor(environment material.PixelSource) Background {
	if environment != nil {
		return NewEnvironment(environment)
	}
	return NewSkyGradient()
}
