package window

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-html5/engine/input"
	"github.com/cogentcore/webgpu/wgpu"
)

// CursorMode is how the window shows the cursor while no cursor reservation is held.
type CursorMode int

const (
	// CursorNormal leaves the cursor visible and free.
	CursorNormal CursorMode = iota
	// CursorHidden hides the cursor over the client area.
	CursorHidden
	// CursorDisabled hides and captures the cursor, reporting unbounded relative motion.
	CursorDisabled
)

// Window provides platform windowing and input event handling.
// Wraps platform-specific window implementations with a common interface.
//
// A Window is also the host cursor of the input bridge: it implements input.Cursor and
// input.CursorReservation. While at least one reservation is held the cursor is visible and
// mouse activity is reported through the hardware mouse callback in client pixels. Otherwise
// the cursor follows the idle CursorMode and mouse activity is reported as relative
// device events.
type Window interface {
	input.Cursor
	input.CursorReservation

	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the window is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback sets the callback for key press events. It runs before the key is
	// reported as a device event and is meant for host hotkeys.
	//
	// Parameters:
	//   - callback: function receiving the GLFW key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback for key release events.
	//
	// Parameters:
	//   - callback: function receiving the GLFW key code
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetDeviceEventCallback sets the callback receiving keyboard, relative mouse and gamepad
	// events.
	//
	// Parameters:
	//   - callback: function receiving the event; its result is ignored by the window
	SetDeviceEventCallback(callback func(ev input.DeviceEvent) bool)

	// SetHardwareMouseCallback sets the callback receiving cursor events while the cursor
	// is reserved.
	//
	// Parameters:
	//   - callback: function receiving the client position, the event and the wheel amount
	SetHardwareMouseCallback(callback func(x, y int, ev input.HardwareMouseEvent, wheelDelta int))

	// SetFocusCallback sets the callback for keyboard focus changes.
	SetFocusCallback(callback func(focused bool))

	// SetActivateCallback sets the callback for minimize and restore. active is false while
	// the window is iconified.
	SetActivateCallback(callback func(active bool))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error

	// ProcessMessages runs the window message loop.
	// Blocks until the window is closed. Calls OnUpdate callback each iteration.
	ProcessMessages()

	// Width returns the current window client area width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current window client area height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and event callbacks.
type engineWindow struct {
	// title is the window title displayed in the title bar.
	title string

	// maxWidth is the maximum allowed window width during resize.
	maxWidth int

	// maxHeight is the maximum allowed window height during resize.
	maxHeight int

	// minWidth is the minimum allowed window width during resize.
	minWidth int

	// minHeight is the minimum allowed window height during resize.
	minHeight int

	// width is the current window client area width in pixels.
	width int

	// height is the current window client area height in pixels.
	height int

	// idleCursor is the cursor mode applied while no reservation is held.
	idleCursor CursorMode

	// pollGamepad enables gamepad polling in the message loop.
	pollGamepad bool

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	// mu guards the cursor state and the posted task list, which other goroutines touch.
	mu           *sync.Mutex
	reservations int
	cursorX      float32
	cursorY      float32
	cursorKnown  bool
	tasks        []func()

	// onUpdate is called each iteration of the message loop (if set).
	onUpdate func()

	// onResize is called when the window is resized.
	onResize func(width, height int)

	// onKeyDown is called when a key is pressed.
	onKeyDown func(keyCode uint32)

	// onKeyUp is called when a key is released.
	onKeyUp func(keyCode uint32)

	onDeviceEvent   func(ev input.DeviceEvent) bool
	onHardwareMouse func(x, y int, ev input.HardwareMouseEvent, wheelDelta int)
	onFocus         func(focused bool)
	onActivate      func(active bool)
}

var _ Window = &engineWindow{}

// NewWindow creates a new Window with the specified options.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the configured window (not yet spawned)
func NewWindow(options ...WindowBuilderOption) Window {
	w := newEngineWindow(options...)
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	return w
}

// newEngineWindow applies the defaults and options without creating the platform window.
func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		title:       "Default Window Title",
		maxWidth:    1600,
		maxHeight:   1200,
		minWidth:    600,
		minHeight:   200,
		width:       1280,
		height:      720,
		idleCursor:  CursorNormal,
		pollGamepad: true,
		mu:          &sync.Mutex{},
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SetDeviceEventCallback(callback func(ev input.DeviceEvent) bool) {
	w.onDeviceEvent = callback
}

func (w *engineWindow) SetHardwareMouseCallback(callback func(x, y int, ev input.HardwareMouseEvent, wheelDelta int)) {
	w.onHardwareMouse = callback
}

func (w *engineWindow) SetFocusCallback(callback func(focused bool)) {
	w.onFocus = callback
}

func (w *engineWindow) SetActivateCallback(callback func(active bool)) {
	w.onActivate = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		w.runTasks()

		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// CursorPosition reports the client cursor position while the cursor is reserved. Without a
// reservation the cursor is not a pointer the user aims with, so ok is false.
func (w *engineWindow) CursorPosition() (float32, float32, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.reservations == 0 || !w.cursorKnown {
		return 0, 0, false
	}
	return w.cursorX, w.cursorY, true
}

func (w *engineWindow) SetCursorPosition(x, y float32) {
	w.mu.Lock()
	w.cursorX, w.cursorY = x, y
	w.cursorKnown = true
	w.mu.Unlock()

	w.post(func() {
		platformSetCursorPos(w, float64(x), float64(y))
	})
}

func (w *engineWindow) AcquireCursor() {
	w.mu.Lock()
	w.reservations++
	first := w.reservations == 1
	w.mu.Unlock()

	if first {
		w.post(func() {
			platformSetCursorMode(w, CursorNormal)
		})
	}
}

func (w *engineWindow) ReleaseCursor() {
	w.mu.Lock()
	if w.reservations == 0 {
		w.mu.Unlock()
		return
	}
	w.reservations--
	last := w.reservations == 0
	w.mu.Unlock()

	if last {
		w.post(func() {
			platformSetCursorMode(w, w.idleCursor)
		})
	}
}

// reserved reports whether a cursor reservation is held.
func (w *engineWindow) reserved() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reservations > 0
}

// trackCursor records the latest client cursor position.
func (w *engineWindow) trackCursor(x, y float32) {
	w.mu.Lock()
	w.cursorX, w.cursorY = x, y
	w.cursorKnown = true
	w.mu.Unlock()
}

// post queues fn to run on the message loop thread. GLFW cursor calls are main-thread only.
func (w *engineWindow) post(fn func()) {
	w.mu.Lock()
	w.tasks = append(w.tasks, fn)
	w.mu.Unlock()
}

// runTasks runs the posted tasks in order.
func (w *engineWindow) runTasks() {
	w.mu.Lock()
	tasks := w.tasks
	w.tasks = nil
	w.mu.Unlock()

	for _, fn := range tasks {
		fn()
	}
}

// emitDevice forwards a device event to the callback, if any.
func (w *engineWindow) emitDevice(ev input.DeviceEvent) {
	if w.onDeviceEvent != nil {
		w.onDeviceEvent(ev)
	}
}

// emitHardware forwards a hardware cursor event to the callback, if any.
func (w *engineWindow) emitHardware(x, y int, ev input.HardwareMouseEvent, wheelDelta int) {
	if w.onHardwareMouse != nil {
		w.onHardwareMouse(x, y, ev, wheelDelta)
	}
}
