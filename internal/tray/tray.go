// Package tray provides a system tray menu for the Kathakali avatar
// animation service.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle   func(enabled bool)
	onNextClip func()
	onStopClip func()
	onOpen     func()
	onQuit     func()
	enabled    bool
	state      string
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuState  *systray.MenuItem
}

// New creates a new Tray with tracking shown as disabled.
func New() *Tray {
	return &Tray{state: "disabled"}
}

// OnToggle sets the callback for the tracking toggle.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnNextClip sets the callback for the next clip item.
func (t *Tray) OnNextClip(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onNextClip = fn
}

// OnStopClip sets the callback for the stop clip item.
func (t *Tray) OnStopClip(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStopClip = fn
}

// OnOpen sets the callback for the open UI item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

func (t *Tray) onReady() {
	systray.SetTitle("Kathakali")
	systray.SetTooltip("Kathakali Avatar Animation")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle live tracking")
	systray.AddSeparator()
	t.menuState = systray.AddMenuItem(stateTitle(t.state), "Tracking state")
	t.menuState.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuNext := systray.AddMenuItem("Next Clip", "Play the next clip")
	menuStop := systray.AddMenuItem("Stop Clip", "Stop clip playback")
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open...", "Open the viewer in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Kathakali")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuNext.ClickedCh:
				t.call(func() func() { return t.onNextClip })
			case <-menuStop.ClickedCh:
				t.call(func() func() { return t.onStopClip })
			case <-menuOpen.ClickedCh:
				t.call(func() func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.call(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

// call runs the callback picked under the read lock.
func (t *Tray) call(pick func() func()) {
	t.mu.RLock()
	callback := pick()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	enabled := !t.enabled
	callback := t.onToggle
	t.mu.Unlock()

	// The callback confirms the new state through SetEnabled.
	if callback != nil {
		callback(enabled)
	}
}

// SetEnabled updates the toggle without firing the callback.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// SetState shows the tracking state.
func (t *Tray) SetState(state string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
	if t.menuState != nil {
		t.menuState.SetTitle(stateTitle(state))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// State returns the last state shown.
func (t *Tray) State() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Tracking"
	}
	return "○ Tracking Off"
}

func stateTitle(state string) string {
	switch state {
	case "live":
		return "State: live"
	case "cooldown":
		return "State: signal lost"
	case "fallback":
		return "State: playing clips"
	case "waiting":
		return "State: waiting for signal"
	case "":
		return "State: unknown"
	}
	return "State: " + state
}
