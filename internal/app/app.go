// Package app wires the camera, detector, classifier, engine, and plugins
// into the running tapflow application.
package app

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/ayusman/tapflow/internal/capture"
	"github.com/ayusman/tapflow/internal/classifier"
	"github.com/ayusman/tapflow/internal/detector"
	"github.com/ayusman/tapflow/internal/feature"
	"github.com/ayusman/tapflow/internal/plugin"
	"github.com/ayusman/tapflow/internal/session"
	"github.com/ayusman/tapflow/internal/store"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate when no motion is detected.
	IdleFPS = 5
	// ActiveFPS is the frame rate during active detection.
	ActiveFPS = 15
	// IdleTimeoutMs is the time in milliseconds to wait before switching back to idle mode.
	IdleTimeoutMs = 2000
)

// Config holds configuration options for the application.
type Config struct {
	Store        *store.Store
	PluginDir    string
	CameraID     int
	MotionThresh float64
	Threshold    float64
	Cooldown     time.Duration

	// OnAction is called after plugin dispatch for each fired tap.
	OnAction func(session.ActionEvent)
	// OnStatus receives session status lines for presentation surfaces.
	OnStatus func(string)
}

// App orchestrates tap detection and action execution.
type App struct {
	config     Config
	camera     capture.Camera
	motion     *capture.MotionDetector
	detector   detector.Detector
	classifier classifier.Classifier
	engine     *session.Engine
	pluginMgr  *plugin.Manager
	pluginExec *plugin.Executor
	enabled    bool
	mu         sync.RWMutex
	stopCh     chan struct{}
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	motionThreshold := config.MotionThresh
	if motionThreshold <= 0 {
		motionThreshold = 1.0 // Default threshold: 1% pixel change
	}

	a := &App{
		config:     config,
		camera:     capture.NewCamera(config.CameraID),
		motion:     capture.NewMotionDetector(motionThreshold),
		pluginMgr:  plugin.NewManager(config.PluginDir),
		pluginExec: plugin.NewExecutor(plugin.DefaultTimeoutMs),
		enabled:    true,
	}

	// Try MediaPipe first, fall back to mock detector
	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	// The tap model runs in a Python sidecar. Without it the engine still
	// runs, reporting not-ready in inference mode.
	if sc, err := classifier.NewServiceClassifier(); err == nil {
		a.classifier = sc
		log.Println("Using tap model service")
	} else {
		log.Printf("Tap model service not available: %v", err)
	}

	var sink session.Sink
	if config.Store != nil {
		sink = &windowSink{windows: config.Store.Windows()}
	}

	a.engine = session.NewEngine(session.Config{
		Sink:       sink,
		Classifier: a.classifier,
		OnAction:   a.handleAction,
		OnStatus:   config.OnStatus,
		Threshold:  config.Threshold,
		Cooldown:   config.Cooldown,
	})

	return a
}

// windowSink persists completed recording windows through the store.
type windowSink struct {
	windows *store.WindowRepository
}

func (s *windowSink) SaveWindow(label string, samples []feature.Sample) error {
	rows := make([]store.WindowSample, len(samples))
	for i, sm := range samples {
		rows[i] = store.WindowSample{
			RelativeYVelocity:     sm.RelativeVelocityY,
			RelativeYAcceleration: sm.RelativeAccelerationY,
			StabilityRatio:        sm.PalmStability,
		}
	}
	_, err := s.windows.Create(label, rows)
	return err
}

// handleAction dispatches a fired tap to every enabled action binding, then
// forwards the event to the configured callback.
func (a *App) handleAction(ev session.ActionEvent) {
	a.executeActions(ev)
	if a.config.OnAction != nil {
		a.config.OnAction(ev)
	}
}

// executeActions runs every enabled action binding for a fired tap. Each
// binding resolves to a plugin and executes with the binding's config.
func (a *App) executeActions(ev session.ActionEvent) {
	if a.config.Store == nil {
		return
	}

	actions, err := a.config.Store.Actions().ListEnabled()
	if err != nil {
		log.Printf("Failed to list action bindings: %v", err)
		return
	}

	for _, action := range actions {
		p, err := a.pluginMgr.Get(action.PluginName)
		if err != nil {
			log.Printf("Plugin %s not found for action %s", action.PluginName, action.ActionName)
			continue
		}

		config := action.Config
		if config == nil {
			config = json.RawMessage("{}")
		}

		req := &plugin.Request{
			Action:     action.ActionName,
			Label:      ev.Label,
			Confidence: ev.Confidence,
			Config:     config,
		}

		resp, err := a.pluginExec.Execute(p, req)
		if err != nil {
			log.Printf("Plugin %s action %s failed: %v", action.PluginName, action.ActionName, err)
			continue
		}
		if !resp.Success {
			log.Printf("Plugin %s action %s reported error: %s", action.PluginName, action.ActionName, resp.Error)
		}
	}
}

// SetEnabled enables or disables tap detection.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether tap detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// Start opens the camera and begins the detection pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(IdleFPS)

	a.engine.Start()

	a.stopCh = make(chan struct{})
	go a.runPipeline(a.stopCh)

	log.Println("Detection pipeline started")
	return nil
}

// Stop halts the detection pipeline and releases resources.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		close(a.stopCh)
		a.stopCh = nil
	}

	a.engine.Stop()

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	a.motion.Close()

	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	if a.classifier != nil {
		if err := a.classifier.Close(); err != nil {
			log.Printf("Error closing classifier: %v", err)
		}
	}

	log.Println("Detection pipeline stopped")
}

// Engine returns the session engine.
func (a *App) Engine() *session.Engine {
	return a.engine
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// MotionDetector returns the motion detector instance.
func (a *App) MotionDetector() *capture.MotionDetector {
	return a.motion
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}
