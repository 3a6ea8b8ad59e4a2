package scene

import (
	"errors"

	"github.com/df07/go-recursive-raytracer/pkg/animate"
	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/geometry"
	"github.com/df07/go-recursive-raytracer/pkg/material"
	"github.com/df07/go-recursive-raytracer/pkg/renderer"
)

// ErrUnknownScene is returned when a scene name is not registered
var ErrUnknownScene = errors.New("unknown scene")

// Scene contains all the elements needed for rendering. It is itself a
// shape: a flat list answered by a linear nearest-hit scan.
type Scene struct {
	Name           string
	Shapes         []geometry.Shape // Objects in the scene, owned by the scene
	CameraConfig   renderer.CameraConfig
	SamplingConfig SamplingConfig
	Environment    material.PixelSource // Optional background image
	Animations     []Animation          // Keyframed shapes, by index into Shapes
}

// SamplingConfig contains the scene's preferred render settings
type SamplingConfig struct {
	SamplesPerPixel int // Number of rays per pixel
	MaxDepth        int // Maximum ray bounce depth
}

// Animation moves the shape at Shapes[Index] along a keyframed path
type Animation struct {
	Index int
	Keys  *animate.Keyframes
}

// New creates an empty scene
func New(name string, cameraConfig renderer.CameraConfig) *Scene {
	return &Scene{
		Name:         name,
		Shapes:       make([]geometry.Shape, 0),
		CameraConfig: cameraConfig,
		SamplingConfig: SamplingConfig{
			SamplesPerPixel: 100,
			MaxDepth:        renderer.MaxDepth,
		},
	}
}

// Add appends shapes and returns the index of the first one
func (s *Scene) Add(shapes ...geometry.Shape) int {
	index := len(s.Shapes)
	s.Shapes = append(s.Shapes, shapes...)
	return index
}

// Hit returns the nearest intersection across all shapes. The search window
// shrinks to each accepted hit, so the result does not depend on shape order.
func (s *Scene) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	var closestHit *material.HitRecord
	closestSoFar := tMax

	for _, shape := range s.Shapes {
		if hit, isHit := shape.Hit(ray, tMin, closestSoFar); isHit {
			closestSoFar = hit.T
			closestHit = hit
		}
	}

	return closestHit, closestHit != nil
}

// MoveTo is not supported for whole scenes; the scene is returned unchanged
func (s *Scene) MoveTo(core.Vec3) geometry.Shape {
	return s
}

// Camera builds the scene camera for the given aspect ratio (0 keeps the configured one)
func (s *Scene) Camera(aspectRatio float64) *renderer.Camera {
	return renderer.NewCamera(renderer.MergeCameraConfig(s.CameraConfig, renderer.CameraConfig{AspectRatio: aspectRatio}))
}

// Animate registers a keyframed path for the shape at index
func (s *Scene) Animate(index int, keys *animate.Keyframes) error {
	if index < 0 || index >= len(s.Shapes) {
		return geometry.ErrInvalidShape
	}
	if _, ok := s.Shapes[index].(geometry.Movable); !ok {
		return geometry.ErrInvalidShape
	}
	s.Animations = append(s.Animations, Animation{Index: index, Keys: keys})
	return nil
}

// FrameRange returns the frames covered by the scene's animations
func (s *Scene) FrameRange() (first, last int, ok bool) {
	for i, anim := range s.Animations {
		f, l := anim.Keys.Range()
		if i == 0 || f < first {
			first = f
		}
		if i == 0 || l > last {
			last = l
		}
	}
	return first, last, len(s.Animations) > 0
}

// AtFrame returns a copy of the scene with every animated shape placed for frame
func (s *Scene) AtFrame(frame int) *Scene {
	frameScene := *s
	frameScene.Shapes = append([]geometry.Shape(nil), s.Shapes...)
	for _, anim := range s.Animations {
		track := animate.Track{Shape: s.Shapes[anim.Index].(geometry.Movable), Keys: anim.Keys}
		frameScene.Shapes[anim.Index] = track.At(frame)
	}
	return &frameScene
}

// GetPrimitiveCount returns the total number of primitive objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	count := 0
	for _, shape := range s.Shapes {
		switch obj := shape.(type) {
		case *geometry.Mesh:
			// Meshes contain multiple triangles
			count += obj.GetTriangleCount()
		default:
			count++
		}
	}
	return count
}

// NewQuadMesh creates a two-triangle parallelogram spanning corner+u and corner+v
func NewQuadMesh(name string, corner, u, v core.Vec3, mat material.Material) *geometry.Mesh {
	a := corner
	b := corner.Add(u)
	c := corner.Add(u).Add(v)
	d := corner.Add(v)
	faces := []geometry.Face{
		{Vertices: [3]core.Vec3{a, b, c}, MaterialName: name},
		{Vertices: [3]core.Vec3{a, c, d}, MaterialName: name},
	}
	return geometry.NewMesh(name, faces, map[string]material.Material{name: mat}, mat)
}

// NewGroundQuad creates a large horizontal quad centered at center with normal (0,1,0)
func NewGroundQuad(center core.Vec3, size float64, mat material.Material) *geometry.Mesh {
	corner := core.NewVec3(center.X-size/2, center.Y, center.Z-size/2)
	// (0,0,size) × (size,0,0) points up
	return NewQuadMesh("ground", corner, core.NewVec3(0, 0, size), core.NewVec3(size, 0, 0), mat)
}
