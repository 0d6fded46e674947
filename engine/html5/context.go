// Package html5 wires an off-screen browser into a host renderer and input stack.
//
// A Plugin owns the render bridge, the input bridge and the browser instance. The host builds a
// Context holding its collaborators, calls Init once, then calls Update from its tick and Present
// from its render pass every frame.
package html5

import (
	"github.com/Carmen-Shannon/oxy-html5/engine/browser"
	"github.com/Carmen-Shannon/oxy-html5/engine/camera"
	"github.com/Carmen-Shannon/oxy-html5/engine/input"
	"github.com/Carmen-Shannon/oxy-html5/engine/overlay"
	"github.com/Carmen-Shannon/oxy-html5/engine/pak"
)

// Context holds the host collaborators a Plugin depends on. Engine, Device and Viewport are
// required; every other field may be nil.
type Context struct {
	// Engine is the browser engine. The plugin initializes and shuts it down.
	Engine browser.Engine

	// Device draws the overlay texture.
	Device overlay.Device

	// Viewport reports the host render target size.
	Viewport overlay.Viewport

	// Cursor is the host cursor, used for relative mouse input and IsCursorOnSurface.
	Cursor input.Cursor

	// Reservation is the host cursor visibility counter held at input level 3.
	Reservation input.CursorReservation

	// Console suppresses input while open.
	Console input.ConsoleState

	// Archive serves the custom URL scheme. The caller keeps ownership and closes it.
	Archive pak.Archive

	// Camera is used by WorldToScreen.
	Camera camera.Camera
}

// missing returns the name of the first required collaborator that is nil.
func (c *Context) missing() string {
	switch {
	case c == nil:
		return "context"
	case c.Engine == nil:
		return "browser engine"
	case c.Device == nil:
		return "render device"
	case c.Viewport == nil:
		return "viewport"
	}
	return ""
}
