package core

import "math"

// Color is a linear-space RGB triple. Channels are unclamped and may leave [0,1]
// until the output stage clamps them.
type Color struct {
	R, G, B float64
}

// NewColor creates a new color
func NewColor(r, g, b float64) Color {
	return Color{R: r, G: g, B: b}
}

// Black returns (0,0,0)
func Black() Color {
	return Color{}
}

// White returns (1,1,1)
func White() Color {
	return Color{R: 1, G: 1, B: 1}
}

// Add returns the channel-wise sum
func (c Color) Add(other Color) Color {
	return Color{c.R + other.R, c.G + other.G, c.B + other.B}
}

// Multiply scales every channel
func (c Color) Multiply(scalar float64) Color {
	return Color{c.R * scalar, c.G * scalar, c.B * scalar}
}

// MultiplyColor returns the channel-wise product, used to compound attenuation
func (c Color) MultiplyColor(other Color) Color {
	return Color{c.R * other.R, c.G * other.G, c.B * other.B}
}

// Divide divides every channel by a scalar
func (c Color) Divide(scalar float64) Color {
	return Color{c.R / scalar, c.G / scalar, c.B / scalar}
}

// Lerp blends from c (t=0) to other (t=1)
func (c Color) Lerp(other Color, t float64) Color {
	return c.Multiply(1 - t).Add(other.Multiply(t))
}

// Gamma2 applies gamma-2 encoding (per-channel square root)
func (c Color) Gamma2() Color {
	return Color{math.Sqrt(c.R), math.Sqrt(c.G), math.Sqrt(c.B)}
}

// Clamp returns a color with channels clamped to [minVal, maxVal]
func (c Color) Clamp(minVal, maxVal float64) Color {
	return Color{
		R: max(minVal, min(maxVal, c.R)),
		G: max(minVal, min(maxVal, c.G)),
		B: max(minVal, min(maxVal, c.B)),
	}
}

// Luminance returns the perceptual luminance of the color
// Uses standard luminance weights: 0.299*R + 0.587*G + 0.114*B
func (c Color) Luminance() float64 {
	return 0.299*c.R + 0.587*c.G + 0.114*c.B
}

// IsFinite reports whether no channel is NaN or infinite
func (c Color) IsFinite() bool {
	for _, ch := range [3]float64{c.R, c.G, c.B} {
		if math.IsNaN(ch) || math.IsInf(ch, 0) {
			return false
		}
	}
	return true
}

// IsBlack reports whether every channel is exactly zero
func (c Color) IsBlack() bool {
	return c.R == 0 && c.G == 0 && c.B == 0
}

// Equals reports whether two colors match within 1e-9 per channel
func (c Color) Equals(other Color) bool {
	return math.Abs(c.R-other.R) < 1e-9 && math.Abs(c.G-other.G) < 1e-9 && math.Abs(c.B-other.B) < 1e-9
}
