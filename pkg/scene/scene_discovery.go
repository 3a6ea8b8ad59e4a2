package scene

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/geometry"
	"github.com/df07/go-recursive-raytracer/pkg/material"
	"github.com/df07/go-recursive-raytracer/pkg/renderer"
)

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Name accepted by Load
	Name        string `json:"name"`        // Scene name
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "obj"
	FilePath    string `json:"filePath"`    // Path to OBJ file (obj type only)
	Variant     string `json:"variant"`     // Variant name (optional)
	Animated    bool   `json:"animated"`    // Whether the scene has keyframed shapes
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

// LoadOptions carries everything a scene may need beyond its name
type LoadOptions struct {
	Texture        material.PixelSource  // Texture for the textured scene
	Environment    material.PixelSource  // Background image for any scene
	Placement      geometry.Placement    // Placement for mesh scenes
	CameraOverride renderer.CameraConfig // Non-zero fields replace the scene's camera settings
	Logger         core.Logger
}

const builtinGroup = "Built-in Scenes"

var builtinScenes = []SceneInfo{
	{
		ID:          "spheres",
		Name:        "Spheres",
		DisplayName: "Spheres",
		Description: "Red diffuse sphere on a ground sphere",
		Group:       builtinGroup,
		Type:        "builtin",
	},
	{
		ID:          "materials",
		Name:        "Materials",
		DisplayName: "Materials",
		Description: "Diffuse, metal, glass and hollow glass spheres",
		Group:       builtinGroup,
		Type:        "builtin",
		Animated:    true,
	},
	{
		ID:          "mirrors",
		Name:        "Mirrors",
		DisplayName: "Mirrors",
		Description: "Two facing mirrors reflecting a sphere",
		Group:       builtinGroup,
		Type:        "builtin",
	},
	{
		ID:          "textured",
		Name:        "Textured",
		DisplayName: "Textured",
		Description: "Image-textured sphere",
		Group:       builtinGroup,
		Type:        "builtin",
	},
}

// Load builds the named scene. Names are the built-in IDs or "obj:<path>".
func Load(name string, opts LoadOptions) (*Scene, error) {
	var s *Scene
	var err error

	override := opts.CameraOverride
	switch {
	case strings.HasPrefix(name, "obj:"):
		s, err = NewOBJScene(strings.TrimPrefix(name, "obj:"), OBJOptions{Placement: opts.Placement, Logger: opts.Logger}, override)
	case name == "spheres":
		s = NewSpheresScene(override)
	case name == "materials":
		s = NewMaterialsScene(override)
	case name == "mirrors":
		s = NewMirrorsScene(override)
	case name == "textured":
		s, err = NewTexturedScene(opts.Texture, override)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	if err != nil {
		return nil, err
	}

	if opts.Environment != nil {
		s.Environment = opts.Environment
	}
	return s, nil
}

// ListOBJScenes scans dir for .obj files and returns them as loadable scenes.
// A missing directory yields an empty list.
func ListOBJScenes(dir string, logger core.Logger) ([]SceneInfo, error) {
	if logger == nil {
		logger = core.NopLogger{}
	}
	if _, err := os.Stat(dir); err != nil {
		return []SceneInfo{}, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.obj"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	var scenes []SceneInfo
	for _, filePath := range files {
		sceneInfo, err := ParseOBJMetadata(filePath)
		if err != nil {
			// Keep going with the other files
			logger.Warnf("failed to parse metadata for %s: %v", filePath, err)
			continue
		}
		scenes = append(scenes, sceneInfo)
	}

	// Sort scenes by display name
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})

	return scenes, nil
}

// ParseOBJMetadata extracts metadata from leading "# Key: value" comments of an OBJ file
func ParseOBJMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	// Fallback values
	sceneInfo := SceneInfo{
		ID:          "obj:" + filePath,
		Name:        titleCase(nameWithoutExt),
		DisplayName: titleCase(nameWithoutExt),
		Group:       "Mesh Scenes",
		Type:        "obj",
		FilePath:    filePath,
	}

	file, err := os.Open(filePath)
	if err != nil {
		return sceneInfo, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Stop parsing at first non-comment line
		if !strings.HasPrefix(line, "#") {
			break
		}

		content := strings.TrimSpace(strings.TrimPrefix(line, "#"))
		key, value, ok := strings.Cut(content, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "Scene":
			sceneInfo.Name = value
		case "Variant":
			sceneInfo.Variant = value
		case "Description":
			sceneInfo.Description = value
		case "Group":
			sceneInfo.Group = value
		}
	}

	if sceneInfo.Variant != "" {
		sceneInfo.DisplayName = fmt.Sprintf("%s - %s", sceneInfo.Name, sceneInfo.Variant)
	} else {
		sceneInfo.DisplayName = sceneInfo.Name
	}

	return sceneInfo, scanner.Err()
}

// ListAllScenes returns the built-in scenes and the OBJ scenes found in dir, grouped by category
func ListAllScenes(dir string, logger core.Logger) (ScenesResponse, error) {
	var response ScenesResponse

	objScenes, err := ListOBJScenes(dir, logger)
	if err != nil {
		return response, fmt.Errorf("failed to list OBJ scenes: %w", err)
	}

	allScenes := append(append([]SceneInfo(nil), builtinScenes...), objScenes...)

	groupMap := make(map[string][]SceneInfo)
	for _, scene := range allScenes {
		groupMap[scene.Group] = append(groupMap[scene.Group], scene)
	}

	// Built-in first, then alphabetical
	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtinGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	response.Groups = append(response.Groups, SceneGroup{
		Name:   builtinGroup,
		Scenes: groupMap[builtinGroup],
	})
	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   groupName,
			Scenes: groupMap[groupName],
		})
	}

	return response, nil
}

// BuiltinNames returns the IDs of the built-in scenes
func BuiltinNames() []string {
	names := make([]string, len(builtinScenes))
	for i, info := range builtinScenes {
		names[i] = info.ID
	}
	return names
}

// titleCase converts a filename-style string to title case
// e.g., "lego-brick" -> "Lego Brick"
func titleCase(s string) string {
	// Replace hyphens and underscores with spaces
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}

	return strings.Join(words, " ")
}
