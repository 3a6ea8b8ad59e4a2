package scene

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-recursive-raytracer/pkg/animate"
	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/geometry"
	"github.com/df07/go-recursive-raytracer/pkg/loaders"
	"github.com/df07/go-recursive-raytracer/pkg/material"
	"github.com/df07/go-recursive-raytracer/pkg/renderer"
)

func TestSceneHitIsOrderIndependent(t *testing.T) {
	grey := material.NewDiffuse(core.NewColor(0.5, 0.5, 0.5))
	near := geometry.MustSphere(core.NewVec3(0, 0, -2), 0.5, grey)
	far := geometry.MustSphere(core.NewVec3(0, 0, -5), 0.5, grey)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))

	a := New("a", renderer.DefaultCameraConfig())
	a.Add(near, far)
	b := New("b", renderer.DefaultCameraConfig())
	b.Add(far, near)

	hitA, okA := a.Hit(ray, 0, math.Inf(1))
	hitB, okB := b.Hit(ray, 0, math.Inf(1))
	require.True(t, okA)
	require.True(t, okB)
	assert.InDelta(t, 1.5, hitA.T, 1e-9)
	assert.InDelta(t, hitA.T, hitB.T, 1e-12)
}

func TestSceneHitMiss(t *testing.T) {
	s := NewSpheresScene()
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0))

	hit, ok := s.Hit(ray, 0, math.Inf(1))
	assert.False(t, ok)
	assert.Nil(t, hit)
}

func TestSceneAddReturnsFirstIndex(t *testing.T) {
	s := New("test", renderer.DefaultCameraConfig())
	grey := material.NewDiffuse(core.NewColor(0.5, 0.5, 0.5))

	assert.Equal(t, 0, s.Add(geometry.MustSphere(core.NewVec3(0, 0, 0), 1, grey)))
	assert.Equal(t, 1, s.Add(
		geometry.MustSphere(core.NewVec3(1, 0, 0), 1, grey),
		geometry.MustSphere(core.NewVec3(2, 0, 0), 1, grey),
	))
	assert.Len(t, s.Shapes, 3)
}

func TestSceneMoveToReturnsSelf(t *testing.T) {
	s := NewSpheresScene()
	assert.Same(t, s, s.MoveTo(core.NewVec3(5, 5, 5)))
}

func TestSceneAnimateRejectsBadIndex(t *testing.T) {
	s := NewSpheresScene()
	keys, err := animate.NewKeyframes(animate.Keyframe{Frame: 0}, animate.Keyframe{Frame: 1})
	require.NoError(t, err)

	assert.ErrorIs(t, s.Animate(-1, keys), geometry.ErrInvalidShape)
	assert.ErrorIs(t, s.Animate(len(s.Shapes), keys), geometry.ErrInvalidShape)
}

func TestMaterialsSceneAnimation(t *testing.T) {
	s := NewMaterialsScene()

	first, last, ok := s.FrameRange()
	require.True(t, ok)
	assert.Equal(t, 0, first)
	assert.Equal(t, 24, last)

	gold := s.Animations[0].Index
	frame := s.AtFrame(12)
	moved, ok := frame.Shapes[gold].(*geometry.Sphere)
	require.True(t, ok)
	assert.InDelta(t, 1.5, moved.Center.Y, 1e-9)

	// The source scene is untouched
	original := s.Shapes[gold].(*geometry.Sphere)
	assert.InDelta(t, 0.5, original.Center.Y, 1e-9)
	assert.Len(t, frame.Shapes, len(s.Shapes))
}

func TestStaticSceneHasNoFrameRange(t *testing.T) {
	_, _, ok := NewMirrorsScene().FrameRange()
	assert.False(t, ok)
}

func TestGetPrimitiveCount(t *testing.T) {
	// Two spheres
	assert.Equal(t, 2, NewSpheresScene().GetPrimitiveCount())
	// Two mirror quads, the ground quad and a sphere
	assert.Equal(t, 7, NewMirrorsScene().GetPrimitiveCount())
}

func TestGroundQuadFacesUp(t *testing.T) {
	grey := material.NewDiffuse(core.NewColor(0.5, 0.5, 0.5))
	quad := NewGroundQuad(core.NewVec3(0, 0, 0), 10, grey)

	hit, ok := quad.Hit(core.NewRay(core.NewVec3(1, 5, 1), core.NewVec3(0, -1, 0)), 0, math.Inf(1))
	require.True(t, ok)
	assert.InDelta(t, 5, hit.T, 1e-9)
	assert.InDelta(t, 1, hit.Normal.Y, 1e-9)
}

func TestSceneCameraOverride(t *testing.T) {
	override := renderer.CameraConfig{VFov: 20}
	s := NewSpheresScene(override)

	assert.Equal(t, 20.0, s.CameraConfig.VFov)
	assert.Equal(t, core.NewVec3(0, 0, -1), s.CameraConfig.LookAt)
}

func TestLoad(t *testing.T) {
	for _, name := range BuiltinNames() {
		t.Run(name, func(t *testing.T) {
			s, err := Load(name, LoadOptions{})
			require.NoError(t, err)
			assert.Equal(t, name, s.Name)
			assert.NotEmpty(t, s.Shapes)
		})
	}
}

func TestLoadUnknownScene(t *testing.T) {
	_, err := Load("cornell-box", LoadOptions{})
	assert.ErrorIs(t, err, ErrUnknownScene)
}

func TestLoadAppliesEnvironment(t *testing.T) {
	env := material.NewSolidImage(4, 2, 10, 20, 30)
	s, err := Load("spheres", LoadOptions{Environment: env})
	require.NoError(t, err)
	assert.Same(t, env, s.Environment)
}

func TestTexturedSceneUsesGivenTexture(t *testing.T) {
	tex := material.NewSolidImage(2, 2, 255, 0, 0)
	s, err := NewTexturedScene(tex)
	require.NoError(t, err)

	sphere := s.Shapes[0].(*geometry.Sphere)
	textured, ok := sphere.Material.(*material.Textured)
	require.True(t, ok)
	assert.Same(t, tex, textured.Texture)
}

func TestTexturedSceneRejectsEmptyTexture(t *testing.T) {
	_, err := NewTexturedScene(material.NewSolidImage(0, 0, 0, 0, 0))
	assert.ErrorIs(t, err, material.ErrInvalidParameter)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOBJScene(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "brick.mtl", "newmtl red\nKd 0.8 0.1 0.1\nillum 2\n")
	path := writeFile(t, dir, "brick.obj", `# Scene: Brick
mtllib brick.mtl
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
o top
usemtl red
f 1 2 3 4
o side
usemtl missing
f 1 2 3
`)

	s, err := Load("obj:"+path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "obj:brick", s.Name)
	require.Len(t, s.Shapes, 2)
	assert.Equal(t, 3, s.GetPrimitiveCount())

	top := s.Shapes[0].(*geometry.Mesh)
	assert.Equal(t, 0, top.FallbackCount())
	red, ok := top.GetTriangles()[0].Material.(*material.Diffuse)
	require.True(t, ok)
	assert.True(t, red.Albedo.Equals(core.NewColor(0.8, 0.1, 0.1)))

	side := s.Shapes[1].(*geometry.Mesh)
	assert.Equal(t, 1, side.FallbackCount())
}

func TestOBJScenePlacement(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tri.obj", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")

	s, err := NewOBJScene(path, OBJOptions{Placement: geometry.Placement{
		Translate: core.NewVec3(0, 0, -3),
		Scale:     2,
	}})
	require.NoError(t, err)

	tri := s.Shapes[0].(*geometry.Mesh).GetTriangles()[0]
	assert.InDelta(t, -3, tri.V0.Z, 1e-9)
	assert.InDelta(t, 2, tri.V1.X, 1e-9)
}

func TestOBJSceneWithoutFaces(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.obj", "v 0 0 0\n")

	_, err := NewOBJScene(path, OBJOptions{})
	assert.ErrorIs(t, err, loaders.ErrMalformedOBJ)
}

func TestOBJSceneMissingFile(t *testing.T) {
	_, err := Load("obj:"+filepath.Join(t.TempDir(), "nope.obj"), LoadOptions{})
	assert.Error(t, err)
}

// warningLogger records warnings
type warningLogger struct {
	core.NopLogger
	warnings []string
}

func (l *warningLogger) Warnf(format string, args ...interface{}) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func TestOBJSceneWarnsAboutDegenerateTriangles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "flat.obj", "o flat\nv 0 0 0\nv 1 0 0\nv 2 0 0\nv 0 1 0\nf 1 2 3\nf 1 2 4\n")

	logger := &warningLogger{}
	s, err := Load("obj:"+path, LoadOptions{Logger: logger})
	require.NoError(t, err)
	assert.Equal(t, 2, s.GetPrimitiveCount())

	var degenerate []string
	for _, w := range logger.warnings {
		if strings.Contains(w, "zero-area") {
			degenerate = append(degenerate, w)
		}
	}
	require.Len(t, degenerate, 1)
	assert.Contains(t, degenerate[0], "1 zero-area")
}
