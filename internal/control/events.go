package control

import "fmt"

// Event is a discrete input that changes Settings.
type Event int

// Input events.
const (
	FarUp Event = iota + 1
	FarDown
	NearUp
	NearDown
	ToggleDepth
	TogglePointCloud
	TiltUp
	TiltDown
)

var eventNames = map[Event]string{
	FarUp:            "far_up",
	FarDown:          "far_down",
	NearUp:           "near_up",
	NearDown:         "near_down",
	ToggleDepth:      "toggle_depth",
	TogglePointCloud: "toggle_point_cloud",
	TiltUp:           "tilt_up",
	TiltDown:         "tilt_down",
}

// String returns the API name of the event.
func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// ParseEvent converts an API name such as "near_up" into an Event.
func ParseEvent(name string) (Event, error) {
	for e, n := range eventNames {
		if n == name {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown event %q", name)
}

// Arrow key codes as reported by the HighGUI backends (GTK, Win32, Cocoa).
const (
	KeyUpGTK     = 65362
	KeyDownGTK   = 65364
	KeyUpWin32   = 2490368
	KeyDownWin32 = 2621440
	KeyUpCocoa   = 63232
	KeyDownCocoa = 63233
)

// KeyEvent maps a key code from the preview window to an input event.
func KeyEvent(key int) (Event, bool) {
	switch key {
	case '>', '.':
		return FarUp, true
	case '<', ',':
		return FarDown, true
	case '+', '=':
		return NearUp, true
	case '-':
		return NearDown, true
	case 'x':
		return ToggleDepth, true
	case 'p':
		return TogglePointCloud, true
	case KeyUpGTK, KeyUpWin32, KeyUpCocoa:
		return TiltUp, true
	case KeyDownGTK, KeyDownWin32, KeyDownCocoa:
		return TiltDown, true
	}
	return 0, false
}
