// Package tray provides a system tray menu for the depth portrait runtime.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/depthportrait/internal/control"
)

// Tray represents the system tray menu.
type Tray struct {
	onEvent    func(control.Event)
	onSnapshot func()
	onQuit     func()
	settings   control.Settings
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuDepth  *systray.MenuItem
	menuCloud  *systray.MenuItem
	menuPeople *systray.MenuItem
	menuTilt   *systray.MenuItem
}

// New creates a new Tray showing the default settings.
func New() *Tray {
	return &Tray{
		settings: control.Default(),
	}
}

// OnEvent sets the callback for menu items that map to input events.
func (t *Tray) OnEvent(fn func(control.Event)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onEvent = fn
}

// OnSnapshot sets the callback function to be called when the snapshot menu item is clicked.
func (t *Tray) OnSnapshot(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSnapshot = fn
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
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray and returns from Run.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Depth Portrait")
	systray.SetTooltip("Depth Portrait")

	t.mu.Lock()
	s := t.settings
	t.menuDepth = systray.AddMenuItem(toggleLabel("Depth view", s.ShowDepth), "Show the depth mask and blob outlines")
	t.menuCloud = systray.AddMenuItem(toggleLabel("Point cloud", s.PointCloud), "Draw the depth point cloud")
	systray.AddSeparator()

	t.menuTilt = systray.AddMenuItem(tiltLabel(s.TiltAngle), "Sensor tilt")
	t.menuTilt.Disable()
	menuTiltUp := systray.AddMenuItem("Tilt up", "Tilt the sensor up one degree")
	menuTiltDown := systray.AddMenuItem("Tilt down", "Tilt the sensor down one degree")
	systray.AddSeparator()

	t.menuPeople = systray.AddMenuItem(peopleLabel(0), "People in view")
	t.menuPeople.Disable()
	systray.AddSeparator()

	menuSnapshot := systray.AddMenuItem("Save snapshot", "Save the current frame")
	menuQuit := systray.AddMenuItem("Quit", "Quit Depth Portrait")
	t.mu.Unlock()

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuDepth.ClickedCh:
				t.handleEvent(control.ToggleDepth)
			case <-t.menuCloud.ClickedCh:
				t.handleEvent(control.TogglePointCloud)
			case <-menuTiltUp.ClickedCh:
				t.handleEvent(control.TiltUp)
			case <-menuTiltDown.ClickedCh:
				t.handleEvent(control.TiltDown)
			case <-menuSnapshot.ClickedCh:
				t.handleSnapshot()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

// handleEvent forwards a menu click as an input event.
func (t *Tray) handleEvent(e control.Event) {
	t.mu.RLock()
	callback := t.onEvent
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(e)
	}
}

// handleSnapshot handles the snapshot menu item click.
func (t *Tray) handleSnapshot() {
	t.mu.RLock()
	callback := t.onSnapshot
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetSettings updates the toggle and tilt labels.
func (t *Tray) SetSettings(s control.Settings) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.settings = s
	if t.menuDepth != nil {
		t.menuDepth.SetTitle(toggleLabel("Depth view", s.ShowDepth))
	}
	if t.menuCloud != nil {
		t.menuCloud.SetTitle(toggleLabel("Point cloud", s.PointCloud))
	}
	if t.menuTilt != nil {
		t.menuTilt.SetTitle(tiltLabel(s.TiltAngle))
	}
}

// SetPeopleCount updates the people count display in the menu.
func (t *Tray) SetPeopleCount(n int) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuPeople != nil {
		t.menuPeople.SetTitle(peopleLabel(n))
	}
}

func toggleLabel(name string, on bool) string {
	if on {
		return "● " + name
	}
	return "○ " + name
}

func tiltLabel(degrees int) string {
	return fmt.Sprintf("Tilt: %d°", degrees)
}

func peopleLabel(n int) string {
	if n == 1 {
		return "1 person"
	}
	return fmt.Sprintf("%d people", n)
}
