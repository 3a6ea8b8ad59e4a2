package scene

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseOBJMetadata(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		expected SceneInfo
	}{
		{
			name: "full_metadata.obj",
			content: `# Scene: Lego Brick
# Variant: Plastic
# Description: A single 2x4 brick
# Group: Toys

v 0 0 0`,
			expected: SceneInfo{
				Name:        "Lego Brick",
				DisplayName: "Lego Brick - Plastic",
				Description: "A single 2x4 brick",
				Group:       "Toys",
				Type:        "obj",
				Variant:     "Plastic",
			},
		},
		{
			name: "partial_metadata.obj",
			content: `# Scene: Teapot
# Description: Teapot mesh scene

v 0 0 0`,
			expected: SceneInfo{
				Name:        "Teapot",
				DisplayName: "Teapot",
				Description: "Teapot mesh scene",
				Group:       "Mesh Scenes", // Default group
				Type:        "obj",
			},
		},
		{
			name:    "no_metadata.obj",
			content: `v 0 0 0`,
			expected: SceneInfo{
				Name:        "No Metadata", // From filename
				DisplayName: "No Metadata",
				Group:       "Mesh Scenes",
				Type:        "obj",
			},
		},
	}

	dir := t.TempDir()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name)
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("Failed to write temp file: %v", err)
			}

			result, err := ParseOBJMetadata(path)
			if err != nil {
				t.Fatalf("ParseOBJMetadata() error: %v", err)
			}

			if result.ID != "obj:"+path {
				t.Errorf("ID = %q, want %q", result.ID, "obj:"+path)
			}
			if result.FilePath != path {
				t.Errorf("FilePath = %q, want %q", result.FilePath, path)
			}
			if result.Name != tc.expected.Name {
				t.Errorf("Name = %q, want %q", result.Name, tc.expected.Name)
			}
			if result.DisplayName != tc.expected.DisplayName {
				t.Errorf("DisplayName = %q, want %q", result.DisplayName, tc.expected.DisplayName)
			}
			if result.Description != tc.expected.Description {
				t.Errorf("Description = %q, want %q", result.Description, tc.expected.Description)
			}
			if result.Group != tc.expected.Group {
				t.Errorf("Group = %q, want %q", result.Group, tc.expected.Group)
			}
			if result.Type != tc.expected.Type {
				t.Errorf("Type = %q, want %q", result.Type, tc.expected.Type)
			}
			if result.Variant != tc.expected.Variant {
				t.Errorf("Variant = %q, want %q", result.Variant, tc.expected.Variant)
			}
		})
	}
}

func TestListOBJScenes_MissingDirectory(t *testing.T) {
	scenes, err := ListOBJScenes(filepath.Join(t.TempDir(), "missing"), nil)
	if err != nil {
		t.Errorf("ListOBJScenes() error: %v", err)
	}
	if scenes == nil {
		t.Error("ListOBJScenes() returned nil, expected empty slice")
	}
	if len(scenes) != 0 {
		t.Errorf("ListOBJScenes() returned %d scenes, want 0", len(scenes))
	}
}

func TestListOBJScenes_SortedByDisplayName(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"zebra.obj", "apple.obj", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("v 0 0 0\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	scenes, err := ListOBJScenes(dir, nil)
	if err != nil {
		t.Fatalf("ListOBJScenes() error: %v", err)
	}
	if len(scenes) != 2 {
		t.Fatalf("ListOBJScenes() returned %d scenes, want 2", len(scenes))
	}
	if scenes[0].DisplayName != "Apple" || scenes[1].DisplayName != "Zebra" {
		t.Errorf("unexpected order: %q, %q", scenes[0].DisplayName, scenes[1].DisplayName)
	}
}

func TestListAllScenes(t *testing.T) {
	response, err := ListAllScenes(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("ListAllScenes() error: %v", err)
	}

	if len(response.Groups) != 1 {
		t.Fatalf("ListAllScenes() returned %d groups, want 1", len(response.Groups))
	}

	builtInGroup := response.Groups[0]
	if builtInGroup.Name != "Built-in Scenes" {
		t.Errorf("first group = %q, want Built-in Scenes", builtInGroup.Name)
	}

	expectedScenes := []string{"spheres", "materials", "mirrors", "textured"}
	if len(builtInGroup.Scenes) != len(expectedScenes) {
		t.Errorf("Built-in scenes count = %d, want %d", len(builtInGroup.Scenes), len(expectedScenes))
	}

	sceneIDs := make(map[string]bool)
	for _, scene := range builtInGroup.Scenes {
		sceneIDs[scene.ID] = true
	}
	for _, expectedID := range expectedScenes {
		if !sceneIDs[expectedID] {
			t.Errorf("Missing expected built-in scene: %s", expectedID)
		}
	}
}

func TestListAllScenes_WithOBJScenes(t *testing.T) {
	dir := t.TempDir()
	content := "# Scene: Brick\n# Group: Toys\nv 0 0 0\n"
	if err := os.WriteFile(filepath.Join(dir, "brick.obj"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	response, err := ListAllScenes(dir, nil)
	if err != nil {
		t.Fatalf("ListAllScenes() error: %v", err)
	}

	if len(response.Groups) != 2 {
		t.Fatalf("ListAllScenes() returned %d groups, want 2", len(response.Groups))
	}
	if response.Groups[0].Name != "Built-in Scenes" {
		t.Errorf("Built-in Scenes should be first, got %q", response.Groups[0].Name)
	}
	if response.Groups[1].Name != "Toys" || len(response.Groups[1].Scenes) != 1 {
		t.Errorf("unexpected mesh group: %+v", response.Groups[1])
	}
}

func TestTitleCase(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"cornell-box", "Cornell Box"},
		{"simple_sphere", "Simple Sphere"},
		{"test", "Test"},
		{"multi-word-scene-name", "Multi Word Scene Name"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			result := titleCase(tc.input)
			if result != tc.expected {
				t.Errorf("titleCase(%q) = %q, want %q", tc.input, result, tc.expected)
			}
		})
	}
}
