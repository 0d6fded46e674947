package window

import (
	"fmt"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-html5/engine/input"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwWindow holds the GLFW-specific window state.
type glfwWindow struct {
	parent  *engineWindow
	window  *glfw.Window
	running bool

	// lastX and lastY are the raw cursor position of the previous cursor callback.
	lastX, lastY float64
	seenCursor   bool

	clicks  input.ClickTracker
	pending *pendingKey
	gamepad gamepadSnapshot
}

// newPlatformWindow creates the GLFW window with input callbacks and stores it as the internal window.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
// go-gl/glfw: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw
func newPlatformWindow(w *engineWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %v", err)
	}

	// WebGPU provides its own graphics API, so disable OpenGL context creation.
	// Reference: https://www.glfw.org/docs/latest/window_guide.html#window_hints_ctx
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %v", err)
	}
	win.SetSizeLimits(w.minWidth, w.minHeight, w.maxWidth, w.maxHeight)

	// Report caps and num lock in the modifier mask.
	// Reference: https://www.glfw.org/docs/latest/input_guide.html#input_key
	win.SetInputMode(glfw.LockKeyMods, glfw.True)

	gw := &glfwWindow{
		parent:  w,
		window:  win,
		running: true,
	}
	w.internalWindow = gw
	applyCursorMode(gw, w.idleCursor)

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetKeyCallback
	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		gw.onKey(key, action, mods)
	})

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetCharCallback
	win.SetCharCallback(func(_ *glfw.Window, char rune) {
		gw.onChar(char)
	})

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetScrollCallback
	win.SetScrollCallback(func(_ *glfw.Window, xoff, yoff float64) {
		if w.reserved() {
			x, y := win.GetCursorPos()
			w.emitHardware(int(x), int(y), input.HardwareMouseWheel, int(yoff*wheelUnit))
			return
		}
		for _, ev := range wheelEvents(yoff) {
			w.emitDevice(ev)
		}
	})

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetMouseButtonCallback
	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		press := action == glfw.Press
		if w.reserved() {
			x, y := win.GetCursorPos()
			double := false
			if press {
				double = gw.clicks.Press(buttonIndex(button), int(x), int(y), time.Now())
			}
			if ev, ok := hardwareButton(button, press, double); ok {
				w.emitHardware(int(x), int(y), ev, 0)
			}
			return
		}
		if ev, ok := mouseButtonEvent(button, press); ok {
			w.emitDevice(ev)
		}
	})

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetCursorPosCallback
	win.SetCursorPosCallback(func(_ *glfw.Window, xpos, ypos float64) {
		dx, dy := xpos-gw.lastX, ypos-gw.lastY
		first := !gw.seenCursor
		gw.lastX, gw.lastY, gw.seenCursor = xpos, ypos, true

		if w.reserved() {
			w.trackCursor(float32(xpos), float32(ypos))
			w.emitHardware(int(xpos), int(ypos), input.HardwareMouseMove, 0)
			return
		}
		if first {
			return
		}
		if dx != 0 {
			w.emitDevice(input.DeviceEvent{Device: input.DeviceMouse, Key: input.KeyMouseX, State: input.StateChanged, Value: float32(dx)})
		}
		if dy != 0 {
			w.emitDevice(input.DeviceEvent{Device: input.DeviceMouse, Key: input.KeyMouseY, State: input.StateChanged, Value: float32(dy)})
		}
	})

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetFocusCallback
	win.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		if w.onFocus != nil {
			w.onFocus(focused)
		}
	})

	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetIconifyCallback
	win.SetIconifyCallback(func(_ *glfw.Window, iconified bool) {
		if w.onActivate != nil {
			w.onActivate(!iconified)
		}
	})

	// Use framebuffer size callback for pixel-accurate resize events.
	// On high-DPI displays (e.g., macOS Retina), framebuffer size differs from window size.
	// The renderer requires pixel dimensions for correct surface configuration.
	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetFramebufferSizeCallback
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width = width
		w.height = height
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})

	// Update stored dimensions to reflect actual framebuffer size (may differ from requested on high-DPI).
	fbWidth, fbHeight := win.GetFramebufferSize()
	w.width = fbWidth
	w.height = fbHeight

	return nil
}

// onKey reports special keys immediately. A printable press is held until its character
// callback so the event can carry the typed rune; flushPendingKey reports presses that
// produced no character, such as Ctrl+A.
func (gw *glfwWindow) onKey(key glfw.Key, action glfw.Action, mods glfw.ModifierKey) {
	w := gw.parent
	switch action {
	case glfw.Press, glfw.Repeat:
		if w.onKeyDown != nil {
			w.onKeyDown(uint32(key))
		}
	case glfw.Release:
		if w.onKeyUp != nil {
			w.onKeyUp(uint32(key))
		}
	}

	gw.flushPendingKey()

	m := modifiers(mods,
		gw.window.GetKey(glfw.KeyRightShift) == glfw.Press,
		gw.window.GetKey(glfw.KeyRightControl) == glfw.Press,
		gw.window.GetKey(glfw.KeyRightAlt) == glfw.Press,
	)
	state := input.StatePressed
	if action == glfw.Release {
		state = input.StateReleased
	}

	if id, ok := specialKey(key); ok {
		w.emitDevice(keyEvent(id, state, 0, 0, m))
		return
	}

	c := keyChar(key)
	if c == 0 {
		return
	}
	if state == input.StateReleased {
		w.emitDevice(keyEvent(input.KeyOther, state, c, 0, m))
		return
	}
	gw.pending = &pendingKey{char: c, mods: m}
}

// onChar completes a held printable press with its rune.
func (gw *glfwWindow) onChar(char rune) {
	if gw.pending == nil {
		return
	}
	p := gw.pending
	gw.pending = nil
	gw.parent.emitDevice(keyEvent(input.KeyOther, input.StatePressed, p.char, char, p.mods))
}

// flushPendingKey reports a held printable press without a rune.
func (gw *glfwWindow) flushPendingKey() {
	if gw.pending == nil {
		return
	}
	p := gw.pending
	gw.pending = nil
	gw.parent.emitDevice(keyEvent(input.KeyOther, input.StatePressed, p.char, 0, p.mods))
}

// pollGamepad reports changes of the first joystick's gamepad state.
//
// Reference: https://www.glfw.org/docs/latest/input_guide.html#gamepad
func (gw *glfwWindow) pollGamepad() {
	var cur gamepadSnapshot
	if glfw.Joystick1.IsGamepad() {
		cur = snapshotGamepad(glfw.Joystick1.GetGamepadState())
	}
	for _, ev := range diffGamepad(gw.gamepad, cur) {
		gw.parent.emitDevice(ev)
	}
	gw.gamepad = cur
}

// applyCursorMode sets the GLFW cursor input mode.
func applyCursorMode(gw *glfwWindow, mode CursorMode) {
	switch mode {
	case CursorHidden:
		gw.window.SetInputMode(glfw.CursorMode, glfw.CursorHidden)
	case CursorDisabled:
		gw.window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	default:
		gw.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
	// Mode switches move the reported position; measure the next delta from the new origin.
	gw.seenCursor = false
}

// platformSetCursorMode applies a cursor mode on the message loop thread.
func platformSetCursorMode(w *engineWindow, mode CursorMode) {
	if w.internalWindow == nil {
		return
	}
	applyCursorMode(w.internalWindow.(*glfwWindow), mode)
}

// platformSetCursorPos moves the cursor within the client area.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetCursorPos
func platformSetCursorPos(w *engineWindow, x, y float64) {
	if w.internalWindow == nil {
		return
	}
	gw := w.internalWindow.(*glfwWindow)
	gw.window.SetCursorPos(x, y)
	gw.lastX, gw.lastY = x, y
}

// platformGetSurfaceDescriptor creates a platform-appropriate wgpu.SurfaceDescriptor from the GLFW window.
// Uses the wgpuglfw bridge package which has per-platform implementations (Windows, X11, Wayland, macOS).
//
// Reference: https://pkg.go.dev/github.com/cogentcore/webgpu/wgpuglfw#GetSurfaceDescriptor
func platformGetSurfaceDescriptor(w *engineWindow) *wgpu.SurfaceDescriptor {
	if w.internalWindow == nil {
		return nil
	}
	gw := w.internalWindow.(*glfwWindow)
	return wgpuglfw.GetSurfaceDescriptor(gw.window)
}

// platformIsRunningCheck returns whether the GLFW window is still active.
// Returns false if the internal window is nil, the running flag is cleared, or GLFW reports ShouldClose.
//
// Parameters:
//   - w: the engineWindow to check
//
// Returns:
//   - bool: true if the window is still running
func platformIsRunningCheck(w *engineWindow) bool {
	if w.internalWindow == nil {
		return false
	}
	gw := w.internalWindow.(*glfwWindow)
	return gw.running && !gw.window.ShouldClose()
}

// platformCloseWindow destroys the GLFW window and terminates the GLFW library.
// Returns an error if the internal window has not been initialized.
//
// Parameters:
//   - w: the engineWindow to close
//
// Returns:
//   - error: error if the window is not initialized
func platformCloseWindow(w *engineWindow) error {
	if w.internalWindow == nil {
		return fmt.Errorf("window is not initialized")
	}
	gw := w.internalWindow.(*glfwWindow)
	if !gw.running {
		return nil
	}
	gw.running = false
	gw.window.SetShouldClose(true)
	gw.window.Destroy()
	glfw.Terminate()
	return nil
}

// platformProcessMessages polls GLFW for pending events without blocking, then polls the
// gamepad. A printable press whose character never arrived is reported once polling ends.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#PollEvents
func platformProcessMessages(w *engineWindow) bool {
	glfw.PollEvents()
	if !platformIsRunningCheck(w) {
		return false
	}
	gw := w.internalWindow.(*glfwWindow)
	gw.flushPendingKey()
	if w.pollGamepad {
		gw.pollGamepad()
	}
	return true
}
