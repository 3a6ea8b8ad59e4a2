package server

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/geometry"
	"github.com/df07/go-recursive-raytracer/pkg/material"
	"github.com/df07/go-recursive-raytracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	MaterialType string                 `json:"materialType"`
	GeometryType string                 `json:"geometryType"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	FrontFace    bool                   `json:"frontFace"`
	Properties   map[string]interface{} `json:"properties"`
}

func vecArray(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func colorArray(c core.Color) [3]float64 {
	return [3]float64{c.R, c.G, c.B}
}

func hexColor(c core.Color) string {
	return fmt.Sprintf("#%02x%02x%02x",
		int(math.Min(c.R, 1)*255), int(math.Min(c.G, 1)*255), int(math.Min(c.B, 1)*255))
}

// extractMaterialInfo extracts detailed material information with type assertions
func extractMaterialInfo(mat material.Material) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch m := mat.(type) {
	case *material.Diffuse:
		properties["albedo"] = colorArray(m.Albedo)
		properties["color"] = hexColor(m.Albedo)
		return "diffuse", properties

	case *material.Metal:
		properties["albedo"] = colorArray(m.Albedo)
		properties["color"] = hexColor(m.Albedo)
		properties["fuzzness"] = m.Fuzzness
		return "metal", properties

	case *material.Dielectric:
		properties["refractiveIndex"] = m.RefractiveIndex
		properties["color"] = "#ffffff" // Clear glass
		return "dielectric", properties

	case *material.Textured:
		properties["textureWidth"] = m.Texture.Width()
		properties["textureHeight"] = m.Texture.Height()
		return "textured", properties

	default:
		return "unknown", properties
	}
}

// extractGeometryInfo extracts detailed geometry information
func extractGeometryInfo(shape geometry.Shape) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch geom := shape.(type) {
	case *geometry.Sphere:
		properties["center"] = vecArray(geom.Center)
		properties["radius"] = geom.Radius
		return "sphere", properties

	case *geometry.Triangle:
		properties["vertices"] = [3][3]float64{vecArray(geom.V0), vecArray(geom.V1), vecArray(geom.V2)}
		properties["normal"] = vecArray(geom.Normal())
		return "triangle", properties

	case *geometry.Mesh:
		properties["name"] = geom.Name
		properties["triangleCount"] = geom.GetTriangleCount()
		lo, hi := geom.Bounds()
		properties["boundingBox"] = map[string]interface{}{
			"min": vecArray(lo),
			"max": vecArray(hi),
		}
		return "mesh", properties

	default:
		return "unknown", properties
	}
}

// InspectResult contains the nearest hit of an inspection ray and the shape it belongs to
type InspectResult struct {
	Hit       bool
	HitRecord *material.HitRecord
	Ray       core.Ray
	Shape     geometry.Shape
}

// inspectPixel casts a ray through the center of the pixel and returns the first object hit
func inspectPixel(sceneObj *scene.Scene, width, height, pixelX, pixelY int) InspectResult {
	camera := sceneObj.Camera(float64(width) / float64(height))

	// Fixed seed so lens sampling is repeatable
	sampler := core.NewSeededSampler(0)
	s := (float64(pixelX) + 0.5) / float64(width)
	t := (float64(height-pixelY-1) + 0.5) / float64(height)
	ray := camera.GetRay(s, t, sampler)

	// Same nearest-hit scan as Scene.Hit, keeping track of the shape
	result := InspectResult{Ray: ray}
	closestSoFar := math.Inf(1)
	for _, shape := range sceneObj.Shapes {
		if hit, isHit := shape.Hit(ray, 0, closestSoFar); isHit {
			closestSoFar = hit.T
			result = InspectResult{Hit: true, HitRecord: hit, Ray: ray, Shape: shape}
		}
	}
	return result
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	inspectReq := &RenderRequest{}

	if err := s.parseCommonSceneParams(r, inspectReq); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid scene parameters: " + err.Error()})
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid x coordinate"})
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid y coordinate"})
		return
	}

	if pixelX < 0 || pixelX >= inspectReq.Width || pixelY < 0 || pixelY >= inspectReq.Height {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Pixel coordinates out of bounds"})
		return
	}

	sceneObj, err := s.createScene(inspectReq.Scene, nil)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if len(sceneObj.Animations) > 0 {
		sceneObj = sceneObj.AtFrame(inspectReq.Frame)
	}

	result := inspectPixel(sceneObj, inspectReq.Width, inspectReq.Height, pixelX, pixelY)
	if !result.Hit {
		writeJSON(w, http.StatusOK, InspectResponse{Hit: false})
		return
	}

	materialType, materialProps := extractMaterialInfo(result.HitRecord.Material)
	geometryType, geometryProps := extractGeometryInfo(result.Shape)

	writeJSON(w, http.StatusOK, InspectResponse{
		Hit:          true,
		MaterialType: materialType,
		GeometryType: geometryType,
		Point:        vecArray(result.HitRecord.Point),
		Normal:       vecArray(result.HitRecord.Normal),
		Distance:     result.HitRecord.T,
		FrontFace:    result.Ray.Direction.Dot(result.HitRecord.Normal) < 0,
		Properties: map[string]interface{}{
			"material": materialProps,
			"geometry": geometryProps,
		},
	})
}
