package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/material"
)

func quadFaces(z float64, name string) []Face {
	a := core.NewVec3(-1, -1, z)
	b := core.NewVec3(1, -1, z)
	c := core.NewVec3(1, 1, z)
	d := core.NewVec3(-1, 1, z)
	return []Face{
		{Vertices: [3]core.Vec3{a, b, c}, MaterialName: name},
		{Vertices: [3]core.Vec3{a, c, d}, MaterialName: name},
	}
}

func TestMesh_NearestHitIndependentOfOrder(t *testing.T) {
	red := material.NewDiffuse(core.NewColor(1, 0, 0))
	blue := material.NewDiffuse(core.NewColor(0, 0, 1))
	materials := map[string]material.Material{"red": red, "blue": blue}

	near := quadFaces(-1, "red")
	far := quadFaces(-3, "blue")
	ray := core.NewRay(core.NewVec3(0.1, 0.2, 0), core.NewVec3(0, 0, -1))

	for name, faces := range map[string][]Face{
		"near first": append(append([]Face{}, near...), far...),
		"far first":  append(append([]Face{}, far...), near...),
	} {
		t.Run(name, func(t *testing.T) {
			mesh := NewMesh("quads", faces, materials, nil)
			hit, ok := mesh.Hit(ray, 0, math.Inf(1))
			require.True(t, ok)
			assert.InDelta(t, 1.0, hit.T, 1e-12)
			assert.Same(t, red, hit.Material)
		})
	}
}

func TestMesh_FallbackMaterial(t *testing.T) {
	fallback := material.NewDiffuse(core.NewColor(0, 1, 0))
	mesh := NewMesh("quad", quadFaces(-1, "missing"), map[string]material.Material{}, fallback)

	assert.Equal(t, 2, mesh.GetTriangleCount())
	assert.Equal(t, 2, mesh.FallbackCount())

	hit, ok := mesh.Hit(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), 0, math.Inf(1))
	require.True(t, ok)
	assert.Same(t, fallback, hit.Material)

	// Without an explicit fallback the default grey diffuse is used
	defaulted := NewMesh("quad", quadFaces(-1, ""), nil, nil)
	hit, ok = defaulted.Hit(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), 0, math.Inf(1))
	require.True(t, ok)
	assert.Equal(t, material.DefaultMaterial(), hit.Material)
}

func TestMesh_WindowRespected(t *testing.T) {
	mesh := NewMesh("quad", quadFaces(-2, ""), nil, nil)
	_, ok := mesh.Hit(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), 0, 2)
	assert.False(t, ok)
}

func TestMesh_TransformAndMoveTo(t *testing.T) {
	mesh := NewMesh("quad", quadFaces(0, ""), nil, nil)
	assert.True(t, mesh.Center().Equals(core.NewVec3(0, 0, 0), 1e-12))

	placed := mesh.Transform(Placement{Translate: core.NewVec3(0, 0, -4), Rotate: core.NewVec3(0, 90, 0)}.Matrix())
	lo, hi := placed.Bounds()
	assert.InDelta(t, 0.0, hi.X-lo.X, 1e-9, "rotated quad should be edge-on along X")
	assert.InDelta(t, -4.0, placed.Center().Z, 1e-9)

	moved := mesh.MoveTo(core.NewVec3(3, 0, -2)).(*Mesh)
	assert.True(t, moved.Center().Equals(core.NewVec3(3, 0, -2), 1e-9))
	assert.True(t, mesh.Center().Equals(core.NewVec3(0, 0, 0), 1e-12), "original mesh untouched")
}
