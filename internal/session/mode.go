// Package session implements the tap detection state machines: the mode
// controller, the recording window manager, and the inference sliding-window
// gate, all driven through a single-goroutine engine.
package session

import "sync"

// Mode represents the operating session of the pipeline.
type Mode string

const (
	// ModeRecording captures labeled training windows.
	ModeRecording Mode = "recording"
	// ModeInference runs sliding-window classification with action gating.
	ModeInference Mode = "inference"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeRecording || m == ModeInference
}

// ModeController holds the process-wide operating mode. Transitions are
// explicit and synchronous; observers are notified of the new mode for
// presentation purposes only. The controller itself never touches window
// buffers — clearing on transition is the engine's job.
type ModeController struct {
	mode      Mode
	observers []func(Mode)
	mu        sync.RWMutex
}

// NewModeController creates a controller starting in inference mode.
func NewModeController() *ModeController {
	return &ModeController{mode: ModeInference}
}

// Mode returns the current operating mode.
func (c *ModeController) Mode() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// Set transitions to the given mode and notifies observers.
// Returns false if the mode was already active; observers are not re-notified.
func (c *ModeController) Set(m Mode) bool {
	c.mu.Lock()
	if c.mode == m {
		c.mu.Unlock()
		return false
	}
	c.mode = m
	observers := c.observers
	c.mu.Unlock()

	for _, fn := range observers {
		fn(m)
	}
	return true
}

// Observe registers a callback invoked after each mode transition.
func (c *ModeController) Observe(fn func(Mode)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}
