package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/material"
)

// Face is one triangle of a mesh together with the name of its material
type Face struct {
	Vertices     [3]core.Vec3
	MaterialName string
}

// Mesh is a collection of triangles each bound to a material from a name table.
// It is intersected by brute-force scan; there is no acceleration structure.
type Mesh struct {
	Name      string
	triangles []*Triangle
	materials map[string]material.Material
	fallbacks int
}

// NewMesh binds every face to materials[face.MaterialName], or to fallback when the name
// is absent. A nil fallback means material.DefaultMaterial().
func NewMesh(name string, faces []Face, materials map[string]material.Material, fallback material.Material) *Mesh {
	if fallback == nil {
		fallback = material.DefaultMaterial()
	}

	m := &Mesh{
		Name:      name,
		triangles: make([]*Triangle, 0, len(faces)),
		materials: materials,
	}
	for _, face := range faces {
		mat, ok := materials[face.MaterialName]
		if !ok || mat == nil {
			mat = fallback
			m.fallbacks++
		}
		m.triangles = append(m.triangles, NewTriangle(face.Vertices[0], face.Vertices[1], face.Vertices[2], mat))
	}
	return m
}

// Hit returns the nearest triangle hit, shrinking the window after every accepted hit
func (m *Mesh) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	var closest *material.HitRecord
	closestSoFar := tMax

	for _, triangle := range m.triangles {
		if hit, ok := triangle.Hit(ray, tMin, closestSoFar); ok {
			closestSoFar = hit.T
			closest = hit
		}
	}
	return closest, closest != nil
}

// Transform returns a copy of the mesh with every triangle placed by matrix
func (m *Mesh) Transform(matrix mgl64.Mat4) *Mesh {
	moved := &Mesh{
		Name:      m.Name,
		triangles: make([]*Triangle, len(m.triangles)),
		materials: m.materials,
		fallbacks: m.fallbacks,
	}
	for i, triangle := range m.triangles {
		moved.triangles[i] = triangle.Transform(matrix)
	}
	return moved
}

// MoveTo translates the mesh so its bounding-box center sits at position
func (m *Mesh) MoveTo(position core.Vec3) Shape {
	offset := position.Subtract(m.Center())
	return m.Transform(mgl64.Translate3D(offset.X, offset.Y, offset.Z))
}

// Center returns the midpoint of the mesh's bounds
func (m *Mesh) Center() core.Vec3 {
	lo, hi := m.Bounds()
	return lo.Add(hi).Multiply(0.5)
}

// Bounds returns the component-wise min and max over all vertices
func (m *Mesh) Bounds() (core.Vec3, core.Vec3) {
	if len(m.triangles) == 0 {
		return core.Vec3{}, core.Vec3{}
	}
	inf := math.Inf(1)
	lo := core.NewVec3(inf, inf, inf)
	hi := lo.Negate()
	for _, t := range m.triangles {
		for _, v := range [3]core.Vec3{t.V0, t.V1, t.V2} {
			lo = core.NewVec3(math.Min(lo.X, v.X), math.Min(lo.Y, v.Y), math.Min(lo.Z, v.Z))
			hi = core.NewVec3(math.Max(hi.X, v.X), math.Max(hi.Y, v.Y), math.Max(hi.Z, v.Z))
		}
	}
	return lo, hi
}

// GetTriangleCount returns the number of triangles in this mesh
func (m *Mesh) GetTriangleCount() int {
	return len(m.triangles)
}

// GetTriangles returns the individual triangles
func (m *Mesh) GetTriangles() []*Triangle {
	return m.triangles
}

// FallbackCount returns how many faces were bound to the fallback material
func (m *Mesh) FallbackCount() int {
	return m.fallbacks
}
