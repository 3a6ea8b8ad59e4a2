package scene

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/geometry"
	"github.com/df07/go-recursive-raytracer/pkg/loaders"
	"github.com/df07/go-recursive-raytracer/pkg/renderer"
)

// OBJOptions controls how a mesh file is assembled into a scene
type OBJOptions struct {
	Placement geometry.Placement // Applied to every mesh; zero Scale means 1
	Logger    core.Logger
}

// NewOBJScene loads a Wavefront OBJ file (and its MTL libraries) into one
// mesh per object. Faces naming an unknown material use the default material.
// The camera frames the origin from above and in front.
func NewOBJScene(path string, opts OBJOptions, cameraOverrides ...renderer.CameraConfig) (*Scene, error) {
	logger := opts.Logger
	if logger == nil {
		logger = core.NopLogger{}
	}

	defaultCameraConfig := renderer.CameraConfig{
		Center:      core.NewVec3(-5.5, 5.5, -9),
		LookAt:      core.NewVec3(0, 0, 0),
		Up:          core.NewVec3(0, 1, 0),
		AspectRatio: 16.0 / 9.0,
		VFov:        35.0,
	}

	cameraConfig := defaultCameraConfig
	if len(cameraOverrides) > 0 {
		cameraConfig = renderer.MergeCameraConfig(defaultCameraConfig, cameraOverrides[0])
	}

	data, err := loaders.LoadOBJ(path, logger)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s := New("obj:"+name, cameraConfig)

	matrix := opts.Placement.Matrix()

	for _, obj := range data.Objects {
		var faces []geometry.Face
		for _, face := range obj.Faces {
			for _, tri := range face.Triangles() {
				faces = append(faces, geometry.Face{
					Vertices:     [3]core.Vec3{data.Vertices[tri[0]], data.Vertices[tri[1]], data.Vertices[tri[2]]},
					MaterialName: face.Material,
				})
			}
		}

		mesh := geometry.NewMesh(obj.Name, faces, data.Materials, nil).Transform(matrix)
		if n := mesh.FallbackCount(); n > 0 {
			logger.Warnf("Mesh %s: %d triangles use the default material", obj.Name, n)
		}
		if n := countDegenerate(mesh); n > 0 {
			logger.Warnf("Mesh %s: %d zero-area triangles can never be hit", obj.Name, n)
		}
		s.Add(mesh)
	}

	if len(s.Shapes) == 0 {
		return nil, fmt.Errorf("%w: %s contains no faces", loaders.ErrMalformedOBJ, path)
	}
	return s, nil
}

func countDegenerate(mesh *geometry.Mesh) int {
	n := 0
	for _, tri := range mesh.GetTriangles() {
		if tri.Degenerate() {
			n++
		}
	}
	return n
}
