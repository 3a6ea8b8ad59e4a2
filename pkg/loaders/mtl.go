package loaders

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/material"
)

// MaterialSpec is one "newmtl" block of an MTL library
type MaterialSpec struct {
	Name  string
	Kd    core.Color // Diffuse color
	Ks    core.Color // Specular color
	Ns    float64    // Specular exponent, 0-1000
	Ni    float64    // Optical density (refractive index)
	D     float64    // Dissolve; 1 is opaque
	Illum int        // Illumination model
	MapKd string     // Diffuse texture path as written in the file
}

// ParseMTL parses MTL material definitions in declaration order
func ParseMTL(r io.Reader) ([]*MaterialSpec, error) {
	var specs []*MaterialSpec
	var current *MaterialSpec

	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		fields := strings.Fields(stripComment(scanner.Text()))
		if len(fields) == 0 {
			continue
		}

		if fields[0] == "newmtl" {
			if len(fields) < 2 {
				return nil, fmt.Errorf("%w: mtl line %d: newmtl without a name", ErrMalformedOBJ, lineNumber)
			}
			current = &MaterialSpec{Name: fields[1], Kd: core.NewColor(0.5, 0.5, 0.5), D: 1}
			specs = append(specs, current)
			continue
		}
		if current == nil {
			continue
		}

		var err error
		switch fields[0] {
		case "Kd":
			current.Kd, err = parseColor(fields[1:])
		case "Ks":
			current.Ks, err = parseColor(fields[1:])
		case "Ns":
			current.Ns, err = parseScalar(fields[1:])
		case "Ni":
			current.Ni, err = parseScalar(fields[1:])
		case "d":
			current.D, err = parseScalar(fields[1:])
		case "Tr":
			var tr float64
			tr, err = parseScalar(fields[1:])
			current.D = 1 - tr
		case "illum":
			var illum float64
			illum, err = parseScalar(fields[1:])
			current.Illum = int(illum)
		case "map_Kd":
			if len(fields) > 1 {
				// Options such as -s come first; the path is last
				current.MapKd = fields[len(fields)-1]
			}
		}
		if err != nil {
			return nil, fmt.Errorf("%w: mtl line %d: %s: %v", ErrMalformedOBJ, lineNumber, fields[0], err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read MTL data: %w", err)
	}
	return specs, nil
}

// BuildMaterial converts an MTL definition into a material. Transparency
// wins over a diffuse texture, which wins over reflection; everything else
// is diffuse. Textures are resolved relative to baseDir.
func BuildMaterial(spec *MaterialSpec, baseDir string) (material.Material, error) {
	if spec.Illum < 0 || spec.Illum > 10 {
		return nil, fmt.Errorf("%w: %s uses illum %d", ErrUnknownMaterialKind, spec.Name, spec.Illum)
	}

	switch {
	case spec.Illum == 4 || spec.Illum == 6 || spec.Illum == 7 || spec.Illum == 9 || (spec.D < 1 && spec.Ni > 0):
		index := spec.Ni
		if index <= 0 {
			index = 1.5
		}
		dielectric, err := material.NewDielectric(index)
		if err != nil {
			return nil, fmt.Errorf("material %s: %w", spec.Name, err)
		}
		return dielectric, nil

	case spec.MapKd != "":
		path := spec.MapKd
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		texture, err := LoadImage(path)
		if err != nil {
			return nil, fmt.Errorf("material %s: %w", spec.Name, err)
		}
		textured, err := material.NewTextured(texture)
		if err != nil {
			return nil, fmt.Errorf("material %s: %w", spec.Name, err)
		}
		return textured, nil

	case spec.Illum == 3 || spec.Illum == 5 || spec.Illum == 8:
		albedo := spec.Ks
		if albedo.IsBlack() {
			albedo = spec.Kd
		}
		fuzz := max(0, min(1, 1-spec.Ns/1000))
		metal, err := material.NewMetal(albedo, fuzz)
		if err != nil {
			return nil, fmt.Errorf("material %s: %w", spec.Name, err)
		}
		return metal, nil
	}

	return material.NewDiffuse(spec.Kd), nil
}

// LoadMTL reads an MTL library and builds every material it defines
func LoadMTL(filename string) (map[string]material.Material, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open MTL file: %w", err)
	}
	defer file.Close()

	specs, err := ParseMTL(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	materials := make(map[string]material.Material, len(specs))
	for _, spec := range specs {
		m, err := BuildMaterial(spec, filepath.Dir(filename))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		materials[spec.Name] = m
	}
	return materials, nil
}

func parseColor(fields []string) (core.Color, error) {
	v, err := parseVec3(fields)
	if err != nil {
		return core.Color{}, err
	}
	return core.NewColor(v.X, v.Y, v.Z), nil
}

func parseScalar(fields []string) (float64, error) {
	if len(fields) < 1 {
		return 0, fmt.Errorf("missing value")
	}
	return strconv.ParseFloat(fields[0], 64)
}
