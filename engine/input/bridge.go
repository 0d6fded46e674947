package input

import (
	"log"
	"math"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-html5/engine/browser"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Bridge converts host device activity into browser input.
//
// The On* methods are producers: they run on whichever goroutine the host delivers device
// callbacks on and only push events. Tick and Drain run once per frame on the update goroutine
// and are the only place button and pointer state change.
type Bridge interface {
	// SetMode changes the capture level and the exclusive flag. Entering level 3 acquires the
	// host cursor reservation once and leaving it releases it once. Levels are clamped to 0..3.
	//
	// Parameters:
	//   - level: the capture level
	//   - exclusive: the value OnDeviceEvent reports for consumed events
	SetMode(level int, exclusive bool)

	// Mode returns the current capture mode.
	Mode() Mode

	// SetActive enables or disables every producer, Emulate and Tick.
	SetActive(active bool)

	// OnHardwareMouse handles a host cursor event. Ignored below level 3.
	//
	// Parameters:
	//   - x, y: the cursor position in viewport pixels
	//   - ev: what happened
	//   - wheelDelta: the wheel amount for HardwareMouseWheel
	OnHardwareMouse(x, y int, ev HardwareMouseEvent, wheelDelta int)

	// OnDeviceEvent handles a raw keyboard, mouse or gamepad event.
	//
	// Parameters:
	//   - ev: the device event
	//
	// Returns:
	//   - bool: the exclusive flag, or false when the bridge is inactive or a console is open
	OnDeviceEvent(ev DeviceEvent) bool

	// OnFocus reports a window focus change.
	OnFocus(focused bool)

	// OnActivate reports a window activation change. Only deactivation produces an event.
	OnActivate(active bool)

	// Emulate advances analog-stick pointer emulation by dt seconds. No-op while inactive.
	Emulate(dt float32)

	// Drain dispatches every queued event to target in order. A nil target still consumes the
	// queue and updates the state.
	Drain(target browser.Host)

	// Tick runs Emulate and then Drain. While inactive it does nothing and queued events wait
	// for reactivation.
	Tick(dt float32, target browser.Host)

	// CursorPosition returns the pointer position of the last drained move, in viewport pixels.
	CursorPosition() (x, y float32)

	// Buttons returns the drained left, middle and right button state.
	Buttons() (left, middle, right bool)

	// Pending returns the number of queued events.
	Pending() int

	// Close drops to level 0, releasing any cursor reservation.
	Close()
}

type bridgeImpl struct {
	queue *Queue

	// mu guards the producer side: mode, tracked position and emulation velocity.
	mu        *sync.Mutex
	mode      Mode
	posX      float32
	posY      float32
	emulateVX float32
	emulateVY float32

	active atomic.Bool

	// drainMu guards the consumer side.
	drainMu *sync.Mutex
	cursorX float32
	cursorY float32
	buttons [3]bool

	cursor      Cursor
	reservation CursorReservation
	console     ConsoleState
	scaler      Scaler

	maxSpeed  float32
	deadZone  float32
	wheelStep int
	codePage  encoding.Encoding
}

var _ Bridge = &bridgeImpl{}

// NewBridge creates an active Bridge at level 0.
//
// Parameters:
//   - options: functional options to configure the bridge
//
// Returns:
//   - Bridge: the bridge
func NewBridge(options ...BridgeBuilderOption) Bridge {
	b := &bridgeImpl{
		queue:     NewQueue(),
		mu:        &sync.Mutex{},
		drainMu:   &sync.Mutex{},
		mode:      Mode{Level: LevelNone, Exclusive: true},
		maxSpeed:  500,
		deadZone:  0.01,
		wheelStep: 50,
		codePage:  charmap.Windows1252,
	}
	b.active.Store(true)

	for _, opt := range options {
		opt(b)
	}
	return b
}

func (b *bridgeImpl) SetMode(level int, exclusive bool) {
	level = max(LevelNone, min(level, LevelCursor))

	b.mu.Lock()
	from := b.mode.Level
	b.mode = Mode{Level: level, Exclusive: exclusive}
	b.mu.Unlock()

	switch transition(from, level) {
	case reservationAcquire:
		if b.reservation != nil {
			b.reservation.AcquireCursor()
		}
	case reservationRelease:
		if b.reservation != nil {
			b.reservation.ReleaseCursor()
		}
	}

	if from != level {
		log.Printf("[Input] mode %d -> %d (exclusive=%t)", from, level, exclusive)
	}
}

func (b *bridgeImpl) Mode() Mode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode
}

func (b *bridgeImpl) SetActive(active bool) {
	b.active.Store(active)
}

func (b *bridgeImpl) OnHardwareMouse(x, y int, ev HardwareMouseEvent, wheelDelta int) {
	if !b.active.Load() {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.posX, b.posY = float32(x), float32(y)
	if b.mode.Level != LevelCursor {
		return
	}

	b.queue.Push(PointerMove(x, y))
	switch ev {
	case HardwareMouseLeftDown:
		b.queue.Push(ButtonDown(browser.MouseButtonLeft))
	case HardwareMouseLeftUp:
		b.queue.Push(ButtonUp(browser.MouseButtonLeft))
	case HardwareMouseLeftDoubleClick:
		b.queue.Push(DoubleClick(browser.MouseButtonLeft))
	case HardwareMouseRightDown:
		b.queue.Push(ButtonDown(browser.MouseButtonRight))
	case HardwareMouseRightUp:
		b.queue.Push(ButtonUp(browser.MouseButtonRight))
	case HardwareMouseRightDoubleClick:
		b.queue.Push(DoubleClick(browser.MouseButtonRight))
	case HardwareMouseMiddleDown:
		b.queue.Push(ButtonDown(browser.MouseButtonMiddle))
	case HardwareMouseMiddleUp:
		b.queue.Push(ButtonUp(browser.MouseButtonMiddle))
	case HardwareMouseMiddleDoubleClick:
		b.queue.Push(DoubleClick(browser.MouseButtonMiddle))
	case HardwareMouseWheel:
		b.queue.Push(Scroll(wheelDelta))
	}
}

func (b *bridgeImpl) OnDeviceEvent(ev DeviceEvent) bool {
	if b.console != nil && b.console.ConsoleOpen() {
		return false
	}
	if !b.active.Load() {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.mode.Level >= LevelDevices && (ev.Device == DeviceMouse || ev.Device == DeviceGamepad):
		b.onPointerDevice(ev)
	case b.mode.Level >= LevelKeyboard && ev.Device == DeviceKeyboard:
		b.onKeyboard(ev)
	}
	return b.mode.Exclusive
}

// onPointerDevice handles mouse and gamepad events. Caller must hold b.mu.
func (b *bridgeImpl) onPointerDevice(ev DeviceEvent) {
	switch ev.Key {
	case KeyMouseX:
		b.emulateVX = 0
		b.syncPosition()
		b.posX += ev.Value
		b.queue.Push(PointerMove(int(b.posX), int(b.posY)))
	case KeyMouseY:
		b.emulateVY = 0
		b.syncPosition()
		b.posY += ev.Value
		b.queue.Push(PointerMove(int(b.posX), int(b.posY)))
	case KeyPadThumbLX:
		b.emulateVX = ev.Value
	case KeyPadThumbLY:
		b.emulateVY = -ev.Value
	case KeyMouse1, KeyPadX, KeyPadA, KeyPadThumbL:
		b.pushButton(ev.State, browser.MouseButtonLeft)
	case KeyMouse2, KeyPadB, KeyPadThumbR:
		b.pushButton(ev.State, browser.MouseButtonRight)
	case KeyMouse3, KeyPadY:
		b.pushButton(ev.State, browser.MouseButtonMiddle)
	case KeyMouseWheelUp, KeyPadDPadUp:
		if ev.State == StatePressed {
			b.queue.Push(Scroll(b.wheelStep))
		}
	case KeyMouseWheelDown, KeyPadDPadDown:
		if ev.State == StatePressed {
			b.queue.Push(Scroll(-b.wheelStep))
		}
	}
}

func (b *bridgeImpl) pushButton(state KeyState, button browser.MouseButton) {
	switch state {
	case StatePressed:
		b.queue.Push(ButtonDown(button))
	case StateReleased:
		b.queue.Push(ButtonUp(button))
	}
}

// onKeyboard pushes a key transition and, for printable presses, the typed character.
// Caller must hold b.mu.
func (b *bridgeImpl) onKeyboard(ev DeviceEvent) {
	if ev.State != StatePressed && ev.State != StateReleased {
		return
	}

	m := mapKey(ev)
	kind := KindKeyUp
	if ev.State == StatePressed {
		kind = KindKeyDown
	}
	keyChar := uint16(m.char)
	if _, special := specialKeys[ev.Key]; special {
		keyChar = uint16(m.keyCode)
	}
	b.queue.Push(Event{Kind: kind, KeyCode: m.keyCode, Char: keyChar, Modifiers: m.modifiers})

	if ev.State != StatePressed || !m.printable {
		return
	}

	var char uint16
	if ev.Rune != 0 {
		char = runeUnit(ev.Rune)
	} else {
		char = decodeChar(b.codePage, m.char)
	}
	if char == 0 {
		return
	}

	code := m.keyCode
	if _, special := specialKeys[ev.Key]; !special {
		code = int(char)
	}
	b.queue.Push(Event{Kind: KindTextChar, KeyCode: code, Char: char, Modifiers: m.modifiers})
}

// syncPosition refreshes the tracked position from the host cursor. Caller must hold b.mu.
func (b *bridgeImpl) syncPosition() {
	if b.cursor == nil {
		return
	}
	if x, y, ok := b.cursor.CursorPosition(); ok {
		b.posX, b.posY = x, y
	}
}

func (b *bridgeImpl) OnFocus(focused bool) {
	if focused {
		b.queue.Push(FocusGained())
		return
	}
	b.queue.Push(FocusLost())
}

func (b *bridgeImpl) OnActivate(active bool) {
	if !active {
		b.queue.Push(FocusLost())
	}
}

func (b *bridgeImpl) Emulate(dt float32) {
	if !b.active.Load() {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if abs32(b.emulateVX) <= b.deadZone && abs32(b.emulateVY) <= b.deadZone {
		return
	}

	dx := b.emulateVX * b.maxSpeed * dt
	dy := b.emulateVY * b.maxSpeed * dt

	b.syncPosition()
	b.posX += dx
	b.posY += dy
	if b.cursor != nil {
		b.cursor.SetCursorPosition(b.posX, b.posY)
	}
	b.queue.Push(PointerMove(int(b.posX), int(b.posY)))
}

func (b *bridgeImpl) Tick(dt float32, target browser.Host) {
	if !b.active.Load() {
		return
	}
	b.Emulate(dt)
	b.Drain(target)
}

func (b *bridgeImpl) Drain(target browser.Host) {
	events := b.queue.DrainAll()

	b.drainMu.Lock()
	defer b.drainMu.Unlock()

	for _, ev := range events {
		switch ev.Kind {
		case KindPointerMove:
			b.cursorX, b.cursorY = float32(ev.X), float32(ev.Y)
			if target != nil {
				target.SendMouseMoveEvent(b.mouseEvent(), false)
			}

		case KindButtonDown, KindButtonUp:
			down := ev.Kind == KindButtonDown
			b.buttons[buttonIndex(ev.Button)] = down
			if target != nil {
				target.SendMouseClickEvent(b.mouseEvent(), ev.Button, !down, 1)
			}

		case KindDoubleClick:
			if target != nil {
				target.SendMouseClickEvent(b.mouseEvent(), ev.Button, true, 2)
			}

		case KindScroll:
			if target != nil {
				target.SendMouseWheelEvent(b.mouseEvent(), 0, ev.Delta)
			}

		case KindKeyDown, KindKeyUp, KindTextChar:
			if target != nil {
				target.SendKeyEvent(keyEvent(ev))
			}

		case KindFocusLost:
			b.buttons = [3]bool{}
			if target != nil {
				target.SetFocus(false)
				target.SendFocusEvent(false)
			}

		case KindFocusGained:
			if target != nil {
				target.SetFocus(true)
				target.SendFocusEvent(true)
			}
		}
	}
}

// mouseEvent builds the pointer position in surface pixels and the held button flags.
// Caller must hold b.drainMu.
func (b *bridgeImpl) mouseEvent() browser.MouseEvent {
	x, y := b.cursorX, b.cursorY
	if b.scaler != nil {
		x, y = b.scaler.Scale(x, y, true, true)
	}

	var mods browser.EventFlags
	if b.buttons[buttonIndex(browser.MouseButtonLeft)] {
		mods |= browser.FlagLeftMouseButton
	}
	if b.buttons[buttonIndex(browser.MouseButtonMiddle)] {
		mods |= browser.FlagMiddleMouseButton
	}
	if b.buttons[buttonIndex(browser.MouseButtonRight)] {
		mods |= browser.FlagRightMouseButton
	}
	return browser.MouseEvent{X: int(x), Y: int(y), Modifiers: mods}
}

func keyEvent(ev Event) browser.KeyEvent {
	t := browser.KeyEventChar
	switch ev.Kind {
	case KindKeyDown:
		t = browser.KeyEventKeyDown
	case KindKeyUp:
		t = browser.KeyEventKeyUp
	}
	return browser.KeyEvent{
		Type:                t,
		Modifiers:           ev.Modifiers,
		WindowsKeyCode:      ev.KeyCode,
		NativeKeyCode:       ev.KeyCode,
		Character:           ev.Char,
		UnmodifiedCharacter: ev.Char,
	}
}

func buttonIndex(button browser.MouseButton) int {
	switch button {
	case browser.MouseButtonMiddle:
		return 1
	case browser.MouseButtonRight:
		return 2
	default:
		return 0
	}
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}

func (b *bridgeImpl) CursorPosition() (float32, float32) {
	b.drainMu.Lock()
	defer b.drainMu.Unlock()
	return b.cursorX, b.cursorY
}

func (b *bridgeImpl) Buttons() (left, middle, right bool) {
	b.drainMu.Lock()
	defer b.drainMu.Unlock()
	return b.buttons[0], b.buttons[1], b.buttons[2]
}

func (b *bridgeImpl) Pending() int {
	return b.queue.Len()
}

func (b *bridgeImpl) Close() {
	b.SetMode(LevelNone, false)
}
