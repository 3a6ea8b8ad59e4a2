package material

import (
	"math"

	"github.com/df07/go-recursive-raytracer/pkg/core"
)

// PixelSource is a decoded 2-D image exposing byte RGB pixels.
// Row 0 is the top of the image.
type PixelSource interface {
	Width() int
	Height() int
	PixelAt(x, y int) (r, g, b uint8)
}

// SphericalUV maps a unit direction onto [0,1]² latitude/longitude coordinates
func SphericalUV(d core.Vec3) core.Vec2 {
	y := math.Max(-1, math.Min(1, d.Y))
	u := 0.5 + math.Atan2(d.Z, d.X)/(2*math.Pi)
	v := 0.5 - math.Asin(y)/math.Pi
	return core.NewVec2(u, v)
}

// SampleSpherical looks up the pixel a direction maps to with nearest-neighbor filtering
func SampleSpherical(src PixelSource, direction core.Vec3) core.Color {
	uv := SphericalUV(direction.Normalize())
	width, height := src.Width(), src.Height()

	x := int((1.0 - uv.X) * float64(width))
	y := int(uv.Y * float64(height))

	// Clamp to image bounds
	x = max(0, min(width-1, x))
	y = max(0, min(height-1, y))

	r, g, b := src.PixelAt(x, y)
	return core.NewColor(float64(r)/255.99, float64(g)/255.99, float64(b)/255.99)
}

// Textured takes its albedo from an image wrapped around the hit normal
type Textured struct {
	Texture PixelSource
}

// NewTextured creates a new textured material
func NewTextured(texture PixelSource) (*Textured, error) {
	if texture == nil || texture.Width() <= 0 || texture.Height() <= 0 {
		return nil, ErrInvalidParameter
	}
	return &Textured{Texture: texture}, nil
}

// Scatter samples the texture at the spherical coordinates of the hit normal and bounces diffusely
func (t *Textured) Scatter(rayIn core.Ray, hit *HitRecord, sampler core.Sampler) (ScatterResult, bool) {
	return ScatterResult{
		Attenuation: SampleSpherical(t.Texture, hit.Normal),
		Scattered:   diffuseRay(rayIn, hit, sampler),
	}, true
}

// SolidImage is an in-memory PixelSource, row-major with Pixels[y*Width + x]
type SolidImage struct {
	W, H   int
	Pixels [][3]uint8
}

// NewSolidImage creates an image filled with one color
func NewSolidImage(width, height int, r, g, b uint8) *SolidImage {
	pixels := make([][3]uint8, width*height)
	for i := range pixels {
		pixels[i] = [3]uint8{r, g, b}
	}
	return &SolidImage{W: width, H: height, Pixels: pixels}
}

func (s *SolidImage) Width() int  { return s.W }
func (s *SolidImage) Height() int { return s.H }

// PixelAt returns the pixel at (x, y)
func (s *SolidImage) PixelAt(x, y int) (uint8, uint8, uint8) {
	p := s.Pixels[y*s.W+x]
	return p[0], p[1], p[2]
}

// Set overwrites the pixel at (x, y)
func (s *SolidImage) Set(x, y int, r, g, b uint8) {
	s.Pixels[y*s.W+x] = [3]uint8{r, g, b}
}
