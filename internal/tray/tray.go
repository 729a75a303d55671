// Package tray provides the system tray interface for the tapflow tap
// detection daemon.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/tapflow/internal/session"
)

// Tray is the system tray application.
type Tray struct {
	onToggle   func(enabled bool)
	onMode     func(m session.Mode)
	onSettings func()
	onQuit     func()
	enabled    bool
	mode       session.Mode
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle    *systray.MenuItem
	menuRecording *systray.MenuItem
	menuInference *systray.MenuItem
	menuLastTap   *systray.MenuItem
}

// New creates a Tray starting enabled and in inference mode.
func New() *Tray {
	return &Tray{
		enabled: true,
		mode:    session.ModeInference,
	}
}

// OnToggle sets the callback invoked when detection is enabled or disabled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnModeChange sets the callback invoked when the operating mode is switched
// from the menu.
func (t *Tray) OnModeChange(fn func(m session.Mode)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onMode = fn
}

// OnSettings sets the callback invoked when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback invoked when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray. Blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetTitle("Tapflow")
	systray.SetTooltip("Tapflow Tap Detection")

	t.menuToggle = systray.AddMenuItem("● Enabled", "Toggle tap detection")
	systray.AddSeparator()

	t.menuInference = systray.AddMenuItemCheckbox("Inference Mode", "Detect taps and run actions", true)
	t.menuRecording = systray.AddMenuItemCheckbox("Recording Mode", "Capture training windows", false)
	systray.AddSeparator()

	t.menuLastTap = systray.AddMenuItem("Last tap: none", "Last detected tap")
	t.menuLastTap.Disable()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Tapflow")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuInference.ClickedCh:
				t.handleMode(session.ModeInference)
			case <-t.menuRecording.ClickedCh:
				t.handleMode(session.ModeRecording)
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if enabled {
		t.menuToggle.SetTitle("● Enabled")
	} else {
		t.menuToggle.SetTitle("○ Disabled")
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleMode(m session.Mode) {
	t.mu.Lock()
	t.mode = m
	t.updateModeChecks(m)
	callback := t.onMode
	t.mu.Unlock()

	if callback != nil {
		callback(m)
	}
}

func (t *Tray) updateModeChecks(m session.Mode) {
	if t.menuInference == nil || t.menuRecording == nil {
		return
	}
	if m == session.ModeInference {
		t.menuInference.Check()
		t.menuRecording.Uncheck()
	} else {
		t.menuInference.Uncheck()
		t.menuRecording.Check()
	}
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetMode updates the mode checkmarks when the mode changed elsewhere, for
// example through the HTTP API.
func (t *Tray) SetMode(m session.Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.mode = m
	t.updateModeChecks(m)
}

// SetLastTap updates the last tap display in the menu.
func (t *Tray) SetLastTap(confidence float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastTap != nil {
		t.menuLastTap.SetTitle(fmt.Sprintf("Last tap: %.2f", confidence))
	}
}

// IsEnabled returns whether detection is enabled.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Mode returns the mode as the tray last saw it.
func (t *Tray) Mode() session.Mode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mode
}
