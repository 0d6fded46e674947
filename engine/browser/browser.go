// Package browser defines the boundary between the overlay and an off-screen browser engine.
// The types mirror the embedding API of Chromium-based engines so that a native engine can be
// plugged in behind the same interfaces as the software engine shipped in this package.
package browser

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-html5/common"
)

var (
	// ErrNotInitialized is returned when a browser is requested before Initialize succeeded.
	ErrNotInitialized = errors.New("browser engine not initialized")

	// ErrShutdown is returned by operations on an engine that has been shut down.
	ErrShutdown = errors.New("browser engine shut down")

	// ErrInvalidSize is returned when a browser is created with a non-positive surface size.
	ErrInvalidSize = errors.New("invalid browser surface size")
)

// EventFlags is the modifier bit set carried by mouse and key events.
type EventFlags uint32

const (
	FlagNone              EventFlags = 0
	FlagCapsLockOn        EventFlags = 1 << 0
	FlagShiftDown         EventFlags = 1 << 1
	FlagControlDown       EventFlags = 1 << 2
	FlagAltDown           EventFlags = 1 << 3
	FlagLeftMouseButton   EventFlags = 1 << 4
	FlagMiddleMouseButton EventFlags = 1 << 5
	FlagRightMouseButton  EventFlags = 1 << 6
	FlagCommandDown       EventFlags = 1 << 7
	FlagNumLockOn         EventFlags = 1 << 8
	FlagIsKeyPad          EventFlags = 1 << 9
	FlagIsLeft            EventFlags = 1 << 10
	FlagIsRight           EventFlags = 1 << 11
)

// MouseButton identifies a mouse button in click events.
type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonMiddle
	MouseButtonRight
)

// MouseEvent is a pointer position in surface pixels plus the active modifier flags.
type MouseEvent struct {
	X, Y      int
	Modifiers EventFlags
}

// KeyEventType distinguishes key transitions from character input.
type KeyEventType int

const (
	KeyEventRawKeyDown KeyEventType = iota
	KeyEventKeyDown
	KeyEventKeyUp
	KeyEventChar
)

// KeyEvent is a keyboard event as delivered to the browser.
type KeyEvent struct {
	Type                KeyEventType
	Modifiers           EventFlags
	WindowsKeyCode      int
	NativeKeyCode       int
	IsSystemKey         bool
	Character           uint16
	UnmodifiedCharacter uint16
}

// Host is the input side of a browser instance. All methods may be called from any goroutine;
// implementations serialize onto the browser's own message loop.
type Host interface {
	// SendMouseMoveEvent moves the pointer.
	//
	// Parameters:
	//   - ev: the pointer position in surface pixels and the held modifiers
	//   - mouseLeave: true when the pointer left the surface
	SendMouseMoveEvent(ev MouseEvent, mouseLeave bool)

	// SendMouseClickEvent presses or releases a mouse button.
	//
	// Parameters:
	//   - ev: the pointer position and modifiers at the time of the click
	//   - button: the button that changed
	//   - mouseUp: true for a release, false for a press
	//   - clickCount: 1 for a single click, 2 for a double click
	SendMouseClickEvent(ev MouseEvent, button MouseButton, mouseUp bool, clickCount int)

	// SendMouseWheelEvent scrolls at the pointer position.
	//
	// Parameters:
	//   - ev: the pointer position and modifiers
	//   - deltaX, deltaY: the scroll amount in pixels
	SendMouseWheelEvent(ev MouseEvent, deltaX, deltaY int)

	// SendKeyEvent delivers a key transition or a character.
	//
	// Parameters:
	//   - ev: the key event
	SendKeyEvent(ev KeyEvent)

	// SetFocus changes whether the browser view owns keyboard focus.
	//
	// Parameters:
	//   - focus: true to focus
	SetFocus(focus bool)

	// SendFocusEvent notifies page content of a focus change.
	//
	// Parameters:
	//   - focus: true when focus was gained
	SendFocusEvent(focus bool)
}

// PaintHandler receives rendered frames from the browser's message loop.
type PaintHandler interface {
	// OnPaint is invoked after the browser rendered new content. The buffer holds width*height
	// pixels, 4 bytes each, and stays valid until the next OnPaint call.
	//
	// Parameters:
	//   - buffer: the whole surface
	//   - width, height: the surface size in pixels
	//   - dirty: the rectangles that changed since the previous paint
	OnPaint(buffer []byte, width, height int, dirty []common.Rect)
}

// PaintHandlerFunc adapts an ordinary function to the PaintHandler interface.
type PaintHandlerFunc func(buffer []byte, width, height int, dirty []common.Rect)

// OnPaint calls f.
func (f PaintHandlerFunc) OnPaint(buffer []byte, width, height int, dirty []common.Rect) {
	f(buffer, width, height, dirty)
}

// Browser is one off-screen browser instance.
type Browser interface {
	// LoadURL navigates the main frame.
	//
	// Parameters:
	//   - url: the address to load
	LoadURL(url string)

	// URL returns the address of the current page.
	URL() string

	// ExecuteJavaScript runs a script in the main frame.
	//
	// Parameters:
	//   - code: the script source
	//   - scriptURL: the URL reported in stack traces
	//   - startLine: the line number reported for the first line of code
	ExecuteJavaScript(code, scriptURL string, startLine int)

	// Host returns the input side of this browser.
	Host() Host

	// DevToolsURL returns the inspector address, or an empty string when remote debugging is off.
	DevToolsURL() string

	// Resize changes the surface size. A full repaint follows.
	//
	// Parameters:
	//   - width, height: the new surface size in pixels
	Resize(width, height int)

	// Close releases the browser. No paints are delivered after Close returns.
	Close()
}

// ResourceHandler streams one response for a custom-scheme request.
type ResourceHandler interface {
	// Status returns the HTTP-style status code of the response.
	Status() int

	// MimeType returns the content type of the response.
	MimeType() string

	// Size returns the response length in bytes.
	Size() int64

	// Read copies the next chunk of the response into p.
	Read(p []byte) (int, error)

	// Cancel aborts the request and releases any held resources.
	Cancel()
}

// SchemeHandlerFactory resolves requests for a registered URL scheme.
type SchemeHandlerFactory interface {
	// Open creates the handler for a single request.
	//
	// Parameters:
	//   - url: the full request URL including the scheme
	//
	// Returns:
	//   - ResourceHandler: the response stream
	//   - error: an error if the request could not be served at all
	Open(url string) (ResourceHandler, error)
}

// SchemeHandlerFunc adapts an ordinary function to the SchemeHandlerFactory interface.
type SchemeHandlerFunc func(url string) (ResourceHandler, error)

// Open calls f.
func (f SchemeHandlerFunc) Open(url string) (ResourceHandler, error) {
	return f(url)
}

// Settings configures an Engine at initialization.
type Settings struct {
	// RemoteDebuggingPort enables the inspector on the given local port when greater than zero.
	RemoteDebuggingPort int

	// TransparentPainting keeps the page background fully transparent.
	TransparentPainting bool
}

// Engine is a browser engine process.
type Engine interface {
	// Initialize starts the engine. It must be called once before any other method.
	//
	// Parameters:
	//   - settings: the engine-wide settings
	//
	// Returns:
	//   - error: an error if the engine could not start
	Initialize(settings Settings) error

	// RegisterSchemeHandlerFactory routes every request for scheme to the factory.
	//
	// Parameters:
	//   - scheme: the URL scheme without "://"
	//   - factory: the resolver for the scheme
	//
	// Returns:
	//   - error: an error if the engine is not running
	RegisterSchemeHandlerFactory(scheme string, factory SchemeHandlerFactory) error

	// CreateBrowser opens an off-screen browser.
	//
	// Parameters:
	//   - url: the initial address
	//   - width, height: the surface size in pixels
	//   - paint: the sink for rendered frames
	//
	// Returns:
	//   - Browser: the new browser
	//   - error: an error if the browser could not be created
	CreateBrowser(url string, width, height int, paint PaintHandler) (Browser, error)

	// Shutdown closes every browser and stops the engine.
	Shutdown()
}
