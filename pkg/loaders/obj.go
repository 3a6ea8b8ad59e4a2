package loaders

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/material"
)

var (
	// ErrMalformedOBJ is returned for OBJ or MTL input the parser cannot use
	ErrMalformedOBJ = errors.New("malformed OBJ data")
	// ErrUnknownMaterialKind is returned for an MTL illumination model outside 0-10
	ErrUnknownMaterialKind = errors.New("unknown material kind")
)

// OBJFace is a polygon with 0-based vertex indices and the material active when it was declared
type OBJFace struct {
	Indices  []int
	Material string
}

// OBJObject is a named group of faces ("o" or "g" statement)
type OBJObject struct {
	Name  string
	Faces []OBJFace
}

// OBJData contains the geometry parsed from an OBJ file
type OBJData struct {
	Vertices     []core.Vec3
	Objects      []*OBJObject
	MaterialLibs []string                     // mtllib paths as written in the file
	Materials    map[string]material.Material // Filled by LoadOBJ from the material libraries
}

// Triangles fan-triangulates the face into vertex index triples
func (f OBJFace) Triangles() [][3]int {
	var tris [][3]int
	for i := 1; i+1 < len(f.Indices); i++ {
		tris = append(tris, [3]int{f.Indices[0], f.Indices[i], f.Indices[i+1]})
	}
	return tris
}

// TriangleCount returns the number of triangles across all objects
func (d *OBJData) TriangleCount() int {
	count := 0
	for _, obj := range d.Objects {
		for _, face := range obj.Faces {
			count += len(face.Indices) - 2
		}
	}
	return count
}

// ParseOBJ parses Wavefront OBJ geometry. Only positions, faces, objects,
// groups, usemtl and mtllib are interpreted; other statements are skipped.
// Face indices are validated against the vertices declared so far.
func ParseOBJ(r io.Reader) (*OBJData, error) {
	data := &OBJData{}
	var current *OBJObject
	currentMaterial := ""

	startObject := func(name string) {
		current = &OBJObject{Name: name}
		data.Objects = append(data.Objects, current)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		fields := strings.Fields(stripComment(scanner.Text()))
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: vertex: %v", ErrMalformedOBJ, lineNumber, err)
			}
			data.Vertices = append(data.Vertices, v)
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: face needs at least 3 vertices, got %d", ErrMalformedOBJ, lineNumber, len(fields)-1)
			}
			face := OBJFace{Material: currentMaterial}
			for _, ref := range fields[1:] {
				index, err := resolveIndex(ref, len(data.Vertices))
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedOBJ, lineNumber, err)
				}
				face.Indices = append(face.Indices, index)
			}
			if current == nil {
				startObject("default")
			}
			current.Faces = append(current.Faces, face)
		case "o", "g":
			name := "default"
			if len(fields) > 1 {
				name = strings.Join(fields[1:], " ")
			}
			startObject(name)
		case "usemtl":
			if len(fields) < 2 {
				return nil, fmt.Errorf("%w: line %d: usemtl without a name", ErrMalformedOBJ, lineNumber)
			}
			currentMaterial = fields[1]
		case "mtllib":
			data.MaterialLibs = append(data.MaterialLibs, fields[1:]...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read OBJ data: %w", err)
	}

	// Drop groups that only carried a name
	objects := data.Objects[:0]
	for _, obj := range data.Objects {
		if len(obj.Faces) > 0 {
			objects = append(objects, obj)
		}
	}
	data.Objects = objects

	return data, nil
}

// resolveIndex converts a face vertex reference ("7", "7/1", "7//3", "-1")
// into a 0-based index into the vertices declared so far
func resolveIndex(ref string, vertexCount int) (int, error) {
	position, _, _ := strings.Cut(ref, "/")
	index, err := strconv.Atoi(position)
	if err != nil {
		return 0, fmt.Errorf("bad vertex reference %q", ref)
	}
	switch {
	case index > 0:
		index--
	case index < 0:
		index += vertexCount
	default:
		return 0, fmt.Errorf("vertex index 0 in %q", ref)
	}
	if index < 0 || index >= vertexCount {
		return 0, fmt.Errorf("vertex reference %q outside %d declared vertices", ref, vertexCount)
	}
	return index, nil
}

// LoadOBJ loads an OBJ file together with its material libraries, resolved
// relative to the OBJ file's directory
func LoadOBJ(filename string, logger core.Logger) (*OBJData, error) {
	startTime := time.Now()

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open OBJ file: %w", err)
	}
	defer file.Close()

	data, err := ParseOBJ(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	baseDir := filepath.Dir(filename)
	data.Materials = make(map[string]material.Material)
	for _, lib := range data.MaterialLibs {
		materials, err := LoadMTL(filepath.Join(baseDir, lib))
		if err != nil {
			return nil, err
		}
		for name, m := range materials {
			data.Materials[name] = m
		}
	}

	logger.Infof("Loaded OBJ %s: %d vertices, %d triangles, %d materials in %v",
		filename, len(data.Vertices), data.TriangleCount(), len(data.Materials), time.Since(startTime))

	return data, nil
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

func parseVec3(fields []string) (core.Vec3, error) {
	if len(fields) < 3 {
		return core.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	var xyz [3]float64
	for i := range xyz {
		value, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return core.Vec3{}, err
		}
		xyz[i] = value
	}
	return core.NewVec3(xyz[0], xyz[1], xyz[2]), nil
}
