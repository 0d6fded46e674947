// Package ebitenhost runs the browser overlay inside an ebiten game.
//
// The Host is the overlay's render device and viewport, the input bridge's cursor and cursor
// reservation, and an ebiten.Game that polls input and updates the overlay in Update and
// composites it in Draw.
package ebitenhost

import (
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-html5/common"
	"github.com/Carmen-Shannon/oxy-html5/engine/input"
	"github.com/Carmen-Shannon/oxy-html5/engine/overlay"
	"github.com/hajimehoshi/ebiten/v2"
)

var (
	// ErrNoFrame is returned by DrawFullscreen outside Draw.
	ErrNoFrame = errors.New("no frame in progress")

	// ErrForeignTexture is returned when a texture was not created by this host.
	ErrForeignTexture = errors.New("texture not created by this host")
)

// Overlay is what the host drives each frame. html5.Plugin implements it.
type Overlay interface {
	// Update delivers queued input. Called from ebiten's Update.
	Update(dt float32)
	// Present composites the overlay. Called from ebiten's Draw.
	Present()
	// InputBridge receives polled device activity. It may return nil.
	InputBridge() input.Bridge
}

// Host is an ebiten.Game hosting the browser overlay.
type Host interface {
	ebiten.Game
	overlay.Device
	overlay.Viewport
	input.Cursor
	input.CursorReservation

	// Attach sets the overlay the host updates and draws. Pass nil to detach.
	Attach(o Overlay)
}

type hostImpl struct {
	mu *sync.Mutex

	overlay Overlay
	width   int
	height  int
	screen  *ebiten.Image
	scratch []byte

	reservations int
	idleMode     ebiten.CursorModeType
	appliedMode  ebiten.CursorModeType
	modeDirty    bool
	cursorX      float32
	cursorY      float32
	cursorKnown  bool

	background func(screen *ebiten.Image)
	onKey      func(key ebiten.Key) error

	input  *dispatcher
	snap   snapshot
	padIDs []ebiten.GamepadID
}

var _ Host = &hostImpl{}

// ebitenTexture is an overlay texture backed by an ebiten image.
type ebitenTexture struct {
	img    *ebiten.Image
	width  int
	height int
	format overlay.PixelFormat
}

var _ overlay.Texture = &ebitenTexture{}

func (t *ebitenTexture) Width() int  { return t.width }
func (t *ebitenTexture) Height() int { return t.height }

func (t *ebitenTexture) Release() {
	if t.img != nil {
		t.img.Deallocate()
		t.img = nil
	}
}

// NewHost creates a Host. Attach an overlay before running the game with ebiten.RunGame.
//
// Parameters:
//   - options: functional options to configure the host
//
// Returns:
//   - Host: the host
func NewHost(options ...HostBuilderOption) Host {
	h := &hostImpl{
		mu:          &sync.Mutex{},
		idleMode:    ebiten.CursorModeVisible,
		appliedMode: ebiten.CursorModeVisible,
	}
	for _, opt := range options {
		opt(h)
	}
	h.modeDirty = h.idleMode != h.appliedMode

	h.input = &dispatcher{
		device: func(ev input.DeviceEvent) {
			if b := h.bridge(); b != nil {
				b.OnDeviceEvent(ev)
			}
		},
		hardware: func(x, y int, ev input.HardwareMouseEvent, wheelDelta int) {
			if b := h.bridge(); b != nil {
				b.OnHardwareMouse(x, y, ev, wheelDelta)
			}
		},
		focus: func(focused bool) {
			if b := h.bridge(); b != nil {
				b.OnFocus(focused)
			}
		},
	}
	return h
}

func (h *hostImpl) Attach(o Overlay) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.overlay = o
}

func (h *hostImpl) current() Overlay {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.overlay
}

func (h *hostImpl) bridge() input.Bridge {
	if o := h.current(); o != nil {
		return o.InputBridge()
	}
	return nil
}

// Update polls input, forwards it to the overlay's input bridge and delivers it.
func (h *hostImpl) Update() error {
	h.applyCursorMode()

	h.padIDs = poll(&h.snap, h.padIDs)
	if h.onKey != nil {
		for _, k := range h.snap.pressed {
			if err := h.onKey(k); err != nil {
				return err
			}
		}
	}

	reserved := h.reserved()
	if reserved {
		h.trackCursor(float32(h.snap.x), float32(h.snap.y))
	}
	h.input.dispatch(&h.snap, reserved, time.Now())

	if o := h.current(); o != nil {
		tps := ebiten.TPS()
		if tps <= 0 {
			tps = ebiten.DefaultTPS
		}
		o.Update(1 / float32(tps))
	}
	return nil
}

// Draw runs the background callback and then composites the overlay.
func (h *hostImpl) Draw(screen *ebiten.Image) {
	h.mu.Lock()
	h.screen = screen
	o := h.overlay
	h.mu.Unlock()

	if h.background != nil {
		h.background(screen)
	}
	if o != nil {
		o.Present()
	}

	h.mu.Lock()
	h.screen = nil
	h.mu.Unlock()
}

// Layout uses the outside size as the screen size, so viewport pixels are window pixels.
func (h *hostImpl) Layout(outsideWidth, outsideHeight int) (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.width, h.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

func (h *hostImpl) ViewportSize() (int, int, int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return 0, 0, h.width, h.height
}

func (h *hostImpl) CreateTexture(width, height int, format overlay.PixelFormat) (overlay.Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid texture size %dx%d", width, height)
	}
	log.Printf("[Host] created %dx%d overlay image", width, height)
	return &ebitenTexture{
		img:    ebiten.NewImage(width, height),
		width:  width,
		height: height,
		format: format,
	}, nil
}

// UploadPitch requires tightly packed rows: WritePixels takes exactly width*height pixels.
func (h *hostImpl) UploadPitch(width int) int {
	return width * overlay.BytesPerPixel
}

func (h *hostImpl) UpdateSubregion(tex overlay.Texture, region common.Rect, data []byte, rowPitch int) error {
	t, ok := tex.(*ebitenTexture)
	if !ok || t == nil {
		return ErrForeignTexture
	}
	w, ht := region.Width(), region.Height()
	if region.Empty() || region.MinX < 0 || region.MinY < 0 || region.MaxX > t.width || region.MaxY > t.height {
		return fmt.Errorf("region %+v outside %dx%d texture", region, t.width, t.height)
	}
	if rowPitch != w*overlay.BytesPerPixel {
		return fmt.Errorf("row pitch %d, want %d", rowPitch, w*overlay.BytesPerPixel)
	}
	size := w * ht * overlay.BytesPerPixel
	if len(data) < size {
		return fmt.Errorf("data holds %d bytes, region needs %d", len(data), size)
	}
	if t.img == nil {
		return ErrForeignTexture
	}

	pixels := data[:size]
	if t.format == overlay.PixelFormatBGRA {
		h.scratch = swizzleBGRA(h.scratch, pixels)
		pixels = h.scratch
	}

	rect := image.Rect(region.MinX, region.MinY, region.MaxX, region.MaxY)
	t.img.SubImage(rect).(*ebiten.Image).WritePixels(pixels)
	return nil
}

func (h *hostImpl) DrawFullscreen(tex overlay.Texture) error {
	t, ok := tex.(*ebitenTexture)
	if !ok || t == nil || t.img == nil {
		return ErrForeignTexture
	}

	h.mu.Lock()
	screen := h.screen
	h.mu.Unlock()
	if screen == nil {
		return ErrNoFrame
	}

	b := screen.Bounds()
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(b.Dx())/float64(t.width), float64(b.Dy())/float64(t.height))
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(t.img, op)
	return nil
}

// swizzleBGRA converts BGRA pixels to the RGBA order ebiten expects, reusing dst.
func swizzleBGRA(dst, src []byte) []byte {
	if cap(dst) < len(src) {
		dst = make([]byte, len(src))
	}
	dst = dst[:len(src)]
	for i := 0; i+3 < len(src); i += 4 {
		dst[i+0] = src[i+2]
		dst[i+1] = src[i+1]
		dst[i+2] = src[i+0]
		dst[i+3] = src[i+3]
	}
	return dst
}

// CursorPosition reports the last polled cursor position while the cursor is reserved.
func (h *hostImpl) CursorPosition() (float32, float32, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.reservations == 0 || !h.cursorKnown {
		return 0, 0, false
	}
	return h.cursorX, h.cursorY, true
}

// SetCursorPosition records the position. Ebiten cannot move the system cursor, so the next
// poll reports where the cursor really is.
func (h *hostImpl) SetCursorPosition(x, y float32) {
	h.trackCursor(x, y)
}

func (h *hostImpl) AcquireCursor() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reservations++
	h.modeDirty = true
}

func (h *hostImpl) ReleaseCursor() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.reservations == 0 {
		return
	}
	h.reservations--
	h.modeDirty = true
}

func (h *hostImpl) reserved() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reservations > 0
}

func (h *hostImpl) trackCursor(x, y float32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cursorX, h.cursorY = x, y
	h.cursorKnown = true
}

// wantedMode returns the cursor mode for the current reservation count.
// Caller must hold h.mu.
func (h *hostImpl) wantedMode() ebiten.CursorModeType {
	if h.reservations > 0 {
		return ebiten.CursorModeVisible
	}
	return h.idleMode
}

// applyCursorMode switches the cursor mode on the game goroutine when the reservation count
// crossed zero since the last Update.
func (h *hostImpl) applyCursorMode() {
	h.mu.Lock()
	if !h.modeDirty {
		h.mu.Unlock()
		return
	}
	h.modeDirty = false
	mode := h.wantedMode()
	changed := mode != h.appliedMode
	h.appliedMode = mode
	h.mu.Unlock()

	if changed {
		ebiten.SetCursorMode(mode)
	}
}
