package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/ayusman/tapflow/internal/detector"
	"github.com/ayusman/tapflow/internal/feature"
	"github.com/ayusman/tapflow/internal/session"
	"github.com/ayusman/tapflow/internal/store"
)

func TestApp_RecordingPersistsWindow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	// Setup test store
	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	app := New(Config{
		Store:     s,
		PluginDir: tmpDir,
	})
	app.SetDetector(detector.NewMockDetector())

	// Drive the engine directly; the camera loop is not needed here.
	engine := app.Engine()
	engine.Start()
	defer engine.Stop()

	engine.SetMode(session.ModeRecording)
	if err := engine.StartRecording("tap"); err != nil {
		t.Fatalf("StartRecording() error = %v", err)
	}

	hand := detector.RestingHandLandmarks()
	for i := 0; i < feature.WindowSize; i++ {
		engine.Observe(detector.Observation{Hand: &hand, Time: time.Now()})
	}

	// Persistence is asynchronous; poll the store until the window lands.
	deadline := time.Now().Add(2 * time.Second)
	var windows []store.Window
	for time.Now().Before(deadline) {
		windows, err = s.Windows().List()
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(windows) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if len(windows) != 1 {
		t.Fatalf("persisted %d windows, want 1", len(windows))
	}
	if windows[0].Label != "tap" {
		t.Errorf("window label = %s, want tap", windows[0].Label)
	}

	full, err := s.Windows().GetByID(windows[0].ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(full.Samples) != feature.WindowSize {
		t.Errorf("window has %d samples, want %d", len(full.Samples), feature.WindowSize)
	}
}

func TestApp_ActionDispatch(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	// Setup store with one enabled action binding
	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	// Build a plugin that records its invocation to a marker file
	pluginDir := filepath.Join(tmpDir, "plugins")
	markerPath := filepath.Join(tmpDir, "invoked.json")
	testPluginDir := filepath.Join(pluginDir, "marker")
	if err := os.MkdirAll(testPluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	manifest := `{"name":"marker","version":"1.0.0","executable":"marker.sh","actions":["touch"]}`
	if err := os.WriteFile(filepath.Join(testPluginDir, "plugin.json"), []byte(manifest), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	script := `#!/bin/sh
cat > ` + markerPath + `
echo '{"success":true}'
`
	if err := os.WriteFile(filepath.Join(testPluginDir, "marker.sh"), []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	if err := s.Actions().Create(&store.Action{
		ID:         "binding-1",
		PluginName: "marker",
		ActionName: "touch",
		Config:     json.RawMessage(`{"note":"hello"}`),
		Enabled:    true,
	}); err != nil {
		t.Fatalf("failed to create action: %v", err)
	}

	app := New(Config{
		Store:     s,
		PluginDir: pluginDir,
	})
	if err := app.DiscoverPlugins(); err != nil {
		t.Fatalf("DiscoverPlugins() error = %v", err)
	}

	app.executeActions(session.ActionEvent{
		Label:      "tap",
		Confidence: 2.4,
		Time:       time.Now(),
	})

	data, err := os.ReadFile(markerPath)
	if err != nil {
		t.Fatalf("plugin was not invoked: %v", err)
	}

	var received struct {
		Action     string  `json:"action"`
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal(data, &received); err != nil {
		t.Fatalf("failed to unmarshal plugin input: %v", err)
	}
	if received.Action != "touch" {
		t.Errorf("plugin received action %q, want touch", received.Action)
	}
	if received.Label != "tap" {
		t.Errorf("plugin received label %q, want tap", received.Label)
	}
	if received.Confidence != 2.4 {
		t.Errorf("plugin received confidence %f, want 2.4", received.Confidence)
	}
}

func TestApp_DisabledSkipsNothingPersisted(t *testing.T) {
	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	app := New(Config{Store: s, PluginDir: tmpDir})

	if !app.IsEnabled() {
		t.Error("expected app to start enabled")
	}

	app.SetEnabled(false)
	if app.IsEnabled() {
		t.Error("expected app to be disabled after SetEnabled(false)")
	}
}
