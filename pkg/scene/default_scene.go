package scene

import (
	"github.com/df07/go-recursive-raytracer/pkg/animate"
	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/geometry"
	"github.com/df07/go-recursive-raytracer/pkg/material"
	"github.com/df07/go-recursive-raytracer/pkg/renderer"
)

// NewSpheresScene creates the basic scene: a red diffuse sphere resting on a
// large ground sphere, seen from the origin looking down -Z
func NewSpheresScene(cameraOverrides ...renderer.CameraConfig) *Scene {
	defaultCameraConfig := renderer.CameraConfig{
		Center:      core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		AspectRatio: 16.0 / 9.0,
		VFov:        90.0,
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = renderer.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	s := New("spheres", cameraConfig)

	red := material.NewDiffuse(core.NewColor(1.0, 0.0, 0.0))
	ground := material.NewDiffuse(core.NewColor(0.8, 0.8, 0.0))

	s.Add(
		geometry.MustSphere(core.NewVec3(0, 0, -1), 0.5, red),
		geometry.MustSphere(core.NewVec3(0, -100.5, -1), 100, ground),
	)

	return s
}

// NewMaterialsScene creates a scene with one sphere per material kind,
// including a hollow glass sphere, on a green ground. The gold sphere
// bounces across frames 0-24.
func NewMaterialsScene(cameraOverrides ...renderer.CameraConfig) *Scene {
	defaultCameraConfig := renderer.CameraConfig{
		Center:        core.NewVec3(0, 0.75, 2), // Position camera higher and farther back
		LookAt:        core.NewVec3(0, 0.5, -1), // Look at the sphere center
		Up:            core.NewVec3(0, 1, 0),    // Standard up direction
		AspectRatio:   16.0 / 9.0,
		VFov:          40.0, // Narrower field of view for focus effect
		Aperture:      0.05, // Mild depth of field blur
		FocusDistance: 0.0,  // Auto-calculate focus distance
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = renderer.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	s := New("materials", cameraConfig)
	s.SamplingConfig.SamplesPerPixel = 200

	// Create materials
	diffuseGreen := material.NewDiffuse(core.NewColor(0.8, 0.8, 0.0).Multiply(0.6))
	diffuseBlue := material.NewDiffuse(core.NewColor(0.1, 0.2, 0.5))
	diffuseRed := material.NewDiffuse(core.NewColor(0.65, 0.25, 0.2))
	metalSilver := material.MustMetal(core.NewColor(0.8, 0.8, 0.8), 0.0)
	metalGold := material.MustMetal(core.NewColor(0.8, 0.6, 0.2), 0.3)
	glass := material.MustDielectric(1.5)
	// Glass-to-air boundary for the inside of a hollow shell
	air := material.MustDielectric(1.0 / 1.5)

	s.Add(
		geometry.MustSphere(core.NewVec3(0, 0.5, -1), 0.5, diffuseRed),
		geometry.MustSphere(core.NewVec3(-1, 0.5, -1), 0.5, metalSilver),
		geometry.MustSphere(core.NewVec3(0.5, 0.25, -0.5), 0.25, glass),
		NewGroundQuad(core.NewVec3(0, 0, 0), 10000.0, diffuseGreen),
	)

	// Hollow glass sphere with blue sphere inside
	s.Add(
		geometry.MustSphere(core.NewVec3(-0.5, 0.25, -0.5), 0.25, glass),
		geometry.MustSphere(core.NewVec3(-0.5, 0.25, -0.5), 0.24, air),
		geometry.MustSphere(core.NewVec3(-0.5, 0.25, -0.5), 0.20, diffuseBlue),
	)

	gold := s.Add(geometry.MustSphere(core.NewVec3(1, 0.5, -1), 0.5, metalGold))
	keys, err := animate.NewKeyframes(
		animate.Keyframe{Frame: 0, Position: core.NewVec3(1, 0.5, -1)},
		animate.Keyframe{Frame: 12, Position: core.NewVec3(1, 1.5, -1)},
		animate.Keyframe{Frame: 24, Position: core.NewVec3(1, 0.5, -1)},
	)
	if err != nil {
		panic(err)
	}
	if err := s.Animate(gold, keys); err != nil {
		panic(err)
	}

	return s
}

// NewMirrorsScene creates two mutually facing mirrors with a diffuse sphere
// between them, producing long chains of reflections
func NewMirrorsScene(cameraOverrides ...renderer.CameraConfig) *Scene {
	defaultCameraConfig := renderer.CameraConfig{
		Center:      core.NewVec3(0.8, 0.6, 1.2),
		LookAt:      core.NewVec3(-0.2, 0.4, -2),
		Up:          core.NewVec3(0, 1, 0),
		AspectRatio: 16.0 / 9.0,
		VFov:        60.0,
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = renderer.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	s := New("mirrors", cameraConfig)

	mirror := material.MustMetal(core.NewColor(0.95, 0.95, 0.95), 0.0)
	ground := material.NewDiffuse(core.NewColor(0.5, 0.5, 0.5))
	orange := material.NewDiffuse(core.NewColor(0.9, 0.4, 0.1))

	// Back mirror faces +Z, front mirror faces -Z
	s.Add(
		NewQuadMesh("back-mirror", core.NewVec3(-3, -0.5, -2), core.NewVec3(6, 0, 0), core.NewVec3(0, 3.5, 0), mirror),
		NewQuadMesh("front-mirror", core.NewVec3(-3, -0.5, 2), core.NewVec3(0, 3.5, 0), core.NewVec3(6, 0, 0), mirror),
		NewGroundQuad(core.NewVec3(0, -0.5, 0), 100, ground),
		geometry.MustSphere(core.NewVec3(0, 0, -0.5), 0.5, orange),
	)

	return s
}

// NewTexturedScene creates a textured sphere on a grey ground. A nil
// texture uses a generated checkerboard.
func NewTexturedScene(texture material.PixelSource, cameraOverrides ...renderer.CameraConfig) (*Scene, error) {
	defaultCameraConfig := renderer.CameraConfig{
		Center:      core.NewVec3(0, 0.5, 1.5),
		LookAt:      core.NewVec3(0, 0.2, -1),
		Up:          core.NewVec3(0, 1, 0),
		AspectRatio: 16.0 / 9.0,
		VFov:        50.0,
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = renderer.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	if texture == nil {
		texture = NewCheckerboard(64, 32, 8, [3]uint8{230, 230, 230}, [3]uint8{40, 60, 200})
	}
	textured, err := material.NewTextured(texture)
	if err != nil {
		return nil, err
	}

	s := New("textured", cameraConfig)
	s.Add(
		geometry.MustSphere(core.NewVec3(0, 0.2, -1), 0.7, textured),
		NewGroundQuad(core.NewVec3(0, -0.5, 0), 100, material.NewDiffuse(core.NewColor(0.5, 0.5, 0.5))),
	)
	return s, nil
}

// NewCheckerboard creates a checkerboard image with square cells of the given size
func NewCheckerboard(width, height, cell int, a, b [3]uint8) *material.SolidImage {
	img := material.NewSolidImage(width, height, a[0], a[1], a[2])
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/cell+y/cell)%2 == 1 {
				img.Set(x, y, b[0], b[1], b[2])
			}
		}
	}
	return img
}
