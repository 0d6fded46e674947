package ebitenhost

import (
	"time"

	"github.com/Carmen-Shannon/oxy-html5/engine/input"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const (
	// wheelUnit is the wheel amount of one scroll notch.
	wheelUnit = 120
	// axisEpsilon is the smallest stick change reported as a new axis value.
	axisEpsilon = 0.01
)

var specialKeys = map[ebiten.Key]input.KeyID{
	ebiten.KeyBackspace:    input.KeyBackspace,
	ebiten.KeyTab:          input.KeyTab,
	ebiten.KeyEnter:        input.KeyEnter,
	ebiten.KeyNumpadEnter:  input.KeyEnter,
	ebiten.KeyShiftLeft:    input.KeyLShift,
	ebiten.KeyShiftRight:   input.KeyRShift,
	ebiten.KeyControlLeft:  input.KeyLCtrl,
	ebiten.KeyControlRight: input.KeyRCtrl,
	ebiten.KeyAltLeft:      input.KeyLAlt,
	ebiten.KeyAltRight:     input.KeyRAlt,
	ebiten.KeyEscape:       input.KeyEscape,
	ebiten.KeyArrowLeft:    input.KeyArrowLeft,
	ebiten.KeyArrowUp:      input.KeyArrowUp,
	ebiten.KeyArrowRight:   input.KeyArrowRight,
	ebiten.KeyArrowDown:    input.KeyArrowDown,
	ebiten.KeyInsert:       input.KeyInsert,
	ebiten.KeyDelete:       input.KeyDelete,
}

// printableKeys are the unshifted US-layout characters of the printable keys.
var printableKeys = map[ebiten.Key]byte{
	ebiten.KeyA:              'a',
	ebiten.KeyB:              'b',
	ebiten.KeyC:              'c',
	ebiten.KeyD:              'd',
	ebiten.KeyE:              'e',
	ebiten.KeyF:              'f',
	ebiten.KeyG:              'g',
	ebiten.KeyH:              'h',
	ebiten.KeyI:              'i',
	ebiten.KeyJ:              'j',
	ebiten.KeyK:              'k',
	ebiten.KeyL:              'l',
	ebiten.KeyM:              'm',
	ebiten.KeyN:              'n',
	ebiten.KeyO:              'o',
	ebiten.KeyP:              'p',
	ebiten.KeyQ:              'q',
	ebiten.KeyR:              'r',
	ebiten.KeyS:              's',
	ebiten.KeyT:              't',
	ebiten.KeyU:              'u',
	ebiten.KeyV:              'v',
	ebiten.KeyW:              'w',
	ebiten.KeyX:              'x',
	ebiten.KeyY:              'y',
	ebiten.KeyZ:              'z',
	ebiten.KeyDigit0:         '0',
	ebiten.KeyDigit1:         '1',
	ebiten.KeyDigit2:         '2',
	ebiten.KeyDigit3:         '3',
	ebiten.KeyDigit4:         '4',
	ebiten.KeyDigit5:         '5',
	ebiten.KeyDigit6:         '6',
	ebiten.KeyDigit7:         '7',
	ebiten.KeyDigit8:         '8',
	ebiten.KeyDigit9:         '9',
	ebiten.KeyNumpad0:        '0',
	ebiten.KeyNumpad1:        '1',
	ebiten.KeyNumpad2:        '2',
	ebiten.KeyNumpad3:        '3',
	ebiten.KeyNumpad4:        '4',
	ebiten.KeyNumpad5:        '5',
	ebiten.KeyNumpad6:        '6',
	ebiten.KeyNumpad7:        '7',
	ebiten.KeyNumpad8:        '8',
	ebiten.KeyNumpad9:        '9',
	ebiten.KeySpace:          ' ',
	ebiten.KeyQuote:          '\'',
	ebiten.KeyComma:          ',',
	ebiten.KeyMinus:          '-',
	ebiten.KeyPeriod:         '.',
	ebiten.KeySlash:          '/',
	ebiten.KeySemicolon:      ';',
	ebiten.KeyEqual:          '=',
	ebiten.KeyBracketLeft:    '[',
	ebiten.KeyBackslash:      '\\',
	ebiten.KeyBracketRight:   ']',
	ebiten.KeyBackquote:      '`',
	ebiten.KeyNumpadDecimal:  '.',
	ebiten.KeyNumpadDivide:   '/',
	ebiten.KeyNumpadMultiply: '*',
	ebiten.KeyNumpadSubtract: '-',
	ebiten.KeyNumpadAdd:      '+',
	ebiten.KeyNumpadEqual:    '=',
}

// mouseButtons are the reported mouse buttons, indexed by click tracker slot.
var mouseButtons = [3]struct {
	button                ebiten.MouseButton
	key                   input.KeyID
	down, up, doubleClick input.HardwareMouseEvent
}{
	{ebiten.MouseButtonLeft, input.KeyMouse1, input.HardwareMouseLeftDown, input.HardwareMouseLeftUp, input.HardwareMouseLeftDoubleClick},
	{ebiten.MouseButtonRight, input.KeyMouse2, input.HardwareMouseRightDown, input.HardwareMouseRightUp, input.HardwareMouseRightDoubleClick},
	{ebiten.MouseButtonMiddle, input.KeyMouse3, input.HardwareMouseMiddleDown, input.HardwareMouseMiddleUp, input.HardwareMouseMiddleDoubleClick},
}

// gamepadButtons are the reported standard-layout gamepad buttons, in report order.
var gamepadButtons = [...]struct {
	button ebiten.StandardGamepadButton
	key    input.KeyID
}{
	{ebiten.StandardGamepadButtonRightBottom, input.KeyPadA},
	{ebiten.StandardGamepadButtonRightRight, input.KeyPadB},
	{ebiten.StandardGamepadButtonRightLeft, input.KeyPadX},
	{ebiten.StandardGamepadButtonRightTop, input.KeyPadY},
	{ebiten.StandardGamepadButtonLeftStick, input.KeyPadThumbL},
	{ebiten.StandardGamepadButtonRightStick, input.KeyPadThumbR},
	{ebiten.StandardGamepadButtonLeftTop, input.KeyPadDPadUp},
	{ebiten.StandardGamepadButtonLeftBottom, input.KeyPadDPadDown},
}

// gamepadState is the polled state of the reported gamepad inputs. Up on the stick is positive.
type gamepadState struct {
	leftX   float32
	leftY   float32
	buttons [len(gamepadButtons)]bool
}

// snapshot is the input polled during one Update.
type snapshot struct {
	x, y     int
	wheel    float64
	buttons  [len(mouseButtons)]bool
	pressed  []ebiten.Key
	released []ebiten.Key
	chars    []rune
	mods     input.Modifier
	focused  bool
	pad      gamepadState
}

// poll fills s from ebiten's input state, reusing its slices.
//
// Reference: https://pkg.go.dev/github.com/hajimehoshi/ebiten/v2/inpututil
func poll(s *snapshot, padIDs []ebiten.GamepadID) []ebiten.GamepadID {
	s.x, s.y = ebiten.CursorPosition()
	_, s.wheel = ebiten.Wheel()
	for i, b := range mouseButtons {
		s.buttons[i] = ebiten.IsMouseButtonPressed(b.button)
	}
	s.pressed = inpututil.AppendJustPressedKeys(s.pressed[:0])
	s.released = inpututil.AppendJustReleasedKeys(s.released[:0])
	s.chars = ebiten.AppendInputChars(s.chars[:0])
	s.focused = ebiten.IsFocused()

	s.mods = 0
	for key, mod := range modifierKeys {
		if ebiten.IsKeyPressed(key) {
			s.mods |= mod
		}
	}

	s.pad = gamepadState{}
	padIDs = ebiten.AppendGamepadIDs(padIDs[:0])
	for _, id := range padIDs {
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		s.pad.leftX = float32(ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal))
		// Ebiten reports down as positive.
		s.pad.leftY = -float32(ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical))
		for i, b := range gamepadButtons {
			s.pad.buttons[i] = ebiten.IsStandardGamepadButtonPressed(id, b.button)
		}
		break
	}
	return padIDs
}

var modifierKeys = map[ebiten.Key]input.Modifier{
	ebiten.KeyShiftLeft:    input.ModLShift,
	ebiten.KeyShiftRight:   input.ModRShift,
	ebiten.KeyControlLeft:  input.ModLCtrl,
	ebiten.KeyControlRight: input.ModRCtrl,
	ebiten.KeyAltLeft:      input.ModLAlt,
	ebiten.KeyAltRight:     input.ModRAlt,
}

// dispatcher turns consecutive snapshots into input bridge calls.
type dispatcher struct {
	device   func(ev input.DeviceEvent)
	hardware func(x, y int, ev input.HardwareMouseEvent, wheelDelta int)
	focus    func(focused bool)

	seen    bool
	x, y    int
	buttons [len(mouseButtons)]bool
	focused bool
	pad     gamepadState
	clicks  input.ClickTracker
}

// dispatch reports the changes from the previous snapshot. While reserved, mouse activity goes
// to the hardware callback in client pixels; otherwise it is reported as relative device events.
func (d *dispatcher) dispatch(s *snapshot, reserved bool, now time.Time) {
	if d.seen && s.focused != d.focused && d.focus != nil {
		d.focus(s.focused)
	}

	d.dispatchKeys(s)
	if reserved {
		d.dispatchHardware(s, now)
	} else {
		d.dispatchRelative(s)
	}
	d.dispatchGamepad(s.pad)

	d.seen = true
	d.x, d.y = s.x, s.y
	d.buttons = s.buttons
	d.focused = s.focused
	d.pad = s.pad
}

// dispatchKeys pairs printable presses with the typed characters in order.
func (d *dispatcher) dispatchKeys(s *snapshot) {
	chars := s.chars
	for _, k := range s.pressed {
		if id, ok := specialKeys[k]; ok {
			d.emit(keyEvent(id, input.StatePressed, 0, 0, s.mods))
			continue
		}
		c, ok := printableKeys[k]
		if !ok {
			continue
		}
		var r rune
		if len(chars) > 0 {
			r, chars = chars[0], chars[1:]
		}
		d.emit(keyEvent(input.KeyOther, input.StatePressed, c, r, s.mods))
	}
	for _, k := range s.released {
		if id, ok := specialKeys[k]; ok {
			d.emit(keyEvent(id, input.StateReleased, 0, 0, s.mods))
			continue
		}
		if c, ok := printableKeys[k]; ok {
			d.emit(keyEvent(input.KeyOther, input.StateReleased, c, 0, s.mods))
		}
	}
}

func (d *dispatcher) dispatchHardware(s *snapshot, now time.Time) {
	if d.hardware == nil {
		return
	}
	if !d.seen || s.x != d.x || s.y != d.y {
		d.hardware(s.x, s.y, input.HardwareMouseMove, 0)
	}
	for i, b := range mouseButtons {
		switch {
		case s.buttons[i] && !d.buttons[i]:
			ev := b.down
			if d.clicks.Press(i, s.x, s.y, now) {
				ev = b.doubleClick
			}
			d.hardware(s.x, s.y, ev, 0)
		case !s.buttons[i] && d.buttons[i]:
			d.hardware(s.x, s.y, b.up, 0)
		}
	}
	if s.wheel != 0 {
		d.hardware(s.x, s.y, input.HardwareMouseWheel, int(s.wheel*wheelUnit))
	}
}

func (d *dispatcher) dispatchRelative(s *snapshot) {
	if d.seen {
		if dx := s.x - d.x; dx != 0 {
			d.emit(input.DeviceEvent{Device: input.DeviceMouse, Key: input.KeyMouseX, State: input.StateChanged, Value: float32(dx)})
		}
		if dy := s.y - d.y; dy != 0 {
			d.emit(input.DeviceEvent{Device: input.DeviceMouse, Key: input.KeyMouseY, State: input.StateChanged, Value: float32(dy)})
		}
	}
	for i, b := range mouseButtons {
		switch {
		case s.buttons[i] && !d.buttons[i]:
			d.emit(input.DeviceEvent{Device: input.DeviceMouse, Key: b.key, State: input.StatePressed})
		case !s.buttons[i] && d.buttons[i]:
			d.emit(input.DeviceEvent{Device: input.DeviceMouse, Key: b.key, State: input.StateReleased})
		}
	}

	var wheel input.KeyID
	switch {
	case s.wheel > 0:
		wheel = input.KeyMouseWheelUp
	case s.wheel < 0:
		wheel = input.KeyMouseWheelDown
	default:
		return
	}
	d.emit(input.DeviceEvent{Device: input.DeviceMouse, Key: wheel, State: input.StatePressed})
	d.emit(input.DeviceEvent{Device: input.DeviceMouse, Key: wheel, State: input.StateReleased})
}

func (d *dispatcher) dispatchGamepad(cur gamepadState) {
	prev := d.pad
	if abs32(cur.leftX-prev.leftX) >= axisEpsilon {
		d.emit(input.DeviceEvent{Device: input.DeviceGamepad, Key: input.KeyPadThumbLX, State: input.StateChanged, Value: cur.leftX})
	}
	if abs32(cur.leftY-prev.leftY) >= axisEpsilon {
		d.emit(input.DeviceEvent{Device: input.DeviceGamepad, Key: input.KeyPadThumbLY, State: input.StateChanged, Value: cur.leftY})
	}
	for i, b := range gamepadButtons {
		if cur.buttons[i] == prev.buttons[i] {
			continue
		}
		state := input.StateReleased
		if cur.buttons[i] {
			state = input.StatePressed
		}
		d.emit(input.DeviceEvent{Device: input.DeviceGamepad, Key: b.key, State: state})
	}
}

func (d *dispatcher) emit(ev input.DeviceEvent) {
	if d.device != nil {
		d.device(ev)
	}
}

func keyEvent(id input.KeyID, state input.KeyState, char byte, r rune, mods input.Modifier) input.DeviceEvent {
	return input.DeviceEvent{
		Device:    input.DeviceKeyboard,
		Key:       id,
		State:     state,
		Modifiers: mods,
		Char:      char,
		Rune:      r,
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
