package plugin

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, root, name string, manifest Manifest) string {
	t.Helper()

	pluginDir := filepath.Join(root, name)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	return pluginDir
}

func TestManager_Discover(t *testing.T) {
	tmpDir := t.TempDir()

	writeManifest(t, tmpDir, "keyboard", Manifest{
		Name:        "keyboard",
		Version:     "1.0.0",
		Description: "Simulates key presses on tap",
		Executable:  "keyboard",
		Actions:     []string{"press_key", "type_text"},
	})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(plugins))
	}

	p, err := manager.Get("keyboard")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if p.Manifest.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %s", p.Manifest.Version)
	}
	if len(p.Manifest.Actions) != 2 {
		t.Errorf("expected 2 actions, got %d", len(p.Manifest.Actions))
	}
	if p.Executable != filepath.Join(tmpDir, "keyboard", "keyboard") {
		t.Errorf("unexpected executable path: %s", p.Executable)
	}
}

func TestManager_Discover_SkipsInvalidEntries(t *testing.T) {
	tmpDir := t.TempDir()

	// A directory without a manifest.
	if err := os.MkdirAll(filepath.Join(tmpDir, "no-manifest"), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	// A directory with a malformed manifest.
	badDir := filepath.Join(tmpDir, "bad-manifest")
	if err := os.MkdirAll(badDir, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(badDir, "plugin.json"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	// A loose file at the top level.
	if err := os.WriteFile(filepath.Join(tmpDir, "stray.txt"), []byte("hi"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	writeManifest(t, tmpDir, "good", Manifest{
		Name:       "good",
		Executable: "good",
	})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(plugins))
	}
	if plugins[0].Manifest.Name != "good" {
		t.Errorf("expected plugin 'good', got %s", plugins[0].Manifest.Name)
	}
}

func TestManager_Discover_MissingDirectory(t *testing.T) {
	manager := NewManager(filepath.Join(t.TempDir(), "does-not-exist"))
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() on missing dir failed: %v", err)
	}
	if len(manager.List()) != 0 {
		t.Errorf("expected no plugins, got %d", len(manager.List()))
	}
}

func TestManager_Get_NotFound(t *testing.T) {
	manager := NewManager(t.TempDir())
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	_, err := manager.Get("missing")
	if !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}
