package window

import (
	"github.com/Carmen-Shannon/oxy-html5/engine/input"
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	// wheelUnit is the wheel amount of one scroll notch.
	wheelUnit = 120
	// axisEpsilon is the smallest stick change reported as a new axis value.
	axisEpsilon = 0.01
)

var specialKeys = map[glfw.Key]input.KeyID{
	glfw.KeyBackspace:    input.KeyBackspace,
	glfw.KeyTab:          input.KeyTab,
	glfw.KeyEnter:        input.KeyEnter,
	glfw.KeyKPEnter:      input.KeyEnter,
	glfw.KeyLeftShift:    input.KeyLShift,
	glfw.KeyRightShift:   input.KeyRShift,
	glfw.KeyLeftControl:  input.KeyLCtrl,
	glfw.KeyRightControl: input.KeyRCtrl,
	glfw.KeyLeftAlt:      input.KeyLAlt,
	glfw.KeyRightAlt:     input.KeyRAlt,
	glfw.KeyEscape:       input.KeyEscape,
	glfw.KeyLeft:         input.KeyArrowLeft,
	glfw.KeyUp:           input.KeyArrowUp,
	glfw.KeyRight:        input.KeyArrowRight,
	glfw.KeyDown:         input.KeyArrowDown,
	glfw.KeyInsert:       input.KeyInsert,
	glfw.KeyDelete:       input.KeyDelete,
}

var keypadChars = map[glfw.Key]byte{
	glfw.KeyKPDecimal:  '.',
	glfw.KeyKPDivide:   '/',
	glfw.KeyKPMultiply: '*',
	glfw.KeyKPSubtract: '-',
	glfw.KeyKPAdd:      '+',
	glfw.KeyKPEqual:    '=',
}

// specialKey returns the KeyID of a key with its own id.
func specialKey(key glfw.Key) (input.KeyID, bool) {
	id, ok := specialKeys[key]
	return id, ok
}

// keyChar returns the unshifted ASCII character a key produces on a US layout, or 0.
// Letters are lower case.
func keyChar(key glfw.Key) byte {
	switch {
	case key >= glfw.KeyA && key <= glfw.KeyZ:
		return byte('a' + (key - glfw.KeyA))
	case key >= glfw.KeyKP0 && key <= glfw.KeyKP9:
		return byte('0' + (key - glfw.KeyKP0))
	case key >= glfw.KeySpace && key <= glfw.KeyGraveAccent:
		// GLFW printable key codes below the letters are their ASCII values.
		return byte(key)
	}
	return keypadChars[key]
}

// modifiers converts a GLFW modifier mask. GLFW reports no side, so the right-hand bits are
// taken from the current state of the right modifier keys.
func modifiers(mods glfw.ModifierKey, rightShift, rightCtrl, rightAlt bool) input.Modifier {
	var m input.Modifier
	if mods&glfw.ModShift != 0 {
		m |= sided(rightShift, input.ModLShift, input.ModRShift)
	}
	if mods&glfw.ModControl != 0 {
		m |= sided(rightCtrl, input.ModLCtrl, input.ModRCtrl)
	}
	if mods&glfw.ModAlt != 0 {
		m |= sided(rightAlt, input.ModLAlt, input.ModRAlt)
	}
	if mods&glfw.ModCapsLock != 0 {
		m |= input.ModCapsLock
	}
	if mods&glfw.ModNumLock != 0 {
		m |= input.ModNumLock
	}
	return m
}

func sided(right bool, l, r input.Modifier) input.Modifier {
	if right {
		return r
	}
	return l
}

// pendingKey is a printable key press waiting for its character callback.
type pendingKey struct {
	char byte
	mods input.Modifier
}

// keyEvent builds a keyboard DeviceEvent.
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

// hardwareButton maps a GLFW mouse button and action to the hardware cursor event, or false for
// unsupported buttons.
func hardwareButton(button glfw.MouseButton, press, double bool) (input.HardwareMouseEvent, bool) {
	var down, up, dbl input.HardwareMouseEvent
	switch button {
	case glfw.MouseButtonLeft:
		down, up, dbl = input.HardwareMouseLeftDown, input.HardwareMouseLeftUp, input.HardwareMouseLeftDoubleClick
	case glfw.MouseButtonRight:
		down, up, dbl = input.HardwareMouseRightDown, input.HardwareMouseRightUp, input.HardwareMouseRightDoubleClick
	case glfw.MouseButtonMiddle:
		down, up, dbl = input.HardwareMouseMiddleDown, input.HardwareMouseMiddleUp, input.HardwareMouseMiddleDoubleClick
	default:
		return 0, false
	}
	switch {
	case !press:
		return up, true
	case double:
		return dbl, true
	}
	return down, true
}

// buttonIndex returns the click tracker slot of a mouse button, or -1.
func buttonIndex(button glfw.MouseButton) int {
	switch button {
	case glfw.MouseButtonLeft:
		return 0
	case glfw.MouseButtonRight:
		return 1
	case glfw.MouseButtonMiddle:
		return 2
	}
	return -1
}

var mouseKeys = map[glfw.MouseButton]input.KeyID{
	glfw.MouseButtonLeft:   input.KeyMouse1,
	glfw.MouseButtonRight:  input.KeyMouse2,
	glfw.MouseButtonMiddle: input.KeyMouse3,
}

// mouseButtonEvent builds the relative-mode DeviceEvent for a mouse button.
func mouseButtonEvent(button glfw.MouseButton, press bool) (input.DeviceEvent, bool) {
	id, ok := mouseKeys[button]
	if !ok {
		return input.DeviceEvent{}, false
	}
	state := input.StateReleased
	if press {
		state = input.StatePressed
	}
	return input.DeviceEvent{Device: input.DeviceMouse, Key: id, State: state}, true
}

// wheelEvents builds the relative-mode press and release pair for one scroll notch direction.
func wheelEvents(yoff float64) []input.DeviceEvent {
	var id input.KeyID
	switch {
	case yoff > 0:
		id = input.KeyMouseWheelUp
	case yoff < 0:
		id = input.KeyMouseWheelDown
	default:
		return nil
	}
	return []input.DeviceEvent{
		{Device: input.DeviceMouse, Key: id, State: input.StatePressed},
		{Device: input.DeviceMouse, Key: id, State: input.StateReleased},
	}
}

// gamepadButtons are the gamepad buttons reported, in report order.
var gamepadButtons = []struct {
	button glfw.GamepadButton
	key    input.KeyID
}{
	{glfw.ButtonA, input.KeyPadA},
	{glfw.ButtonB, input.KeyPadB},
	{glfw.ButtonX, input.KeyPadX},
	{glfw.ButtonY, input.KeyPadY},
	{glfw.ButtonLeftThumb, input.KeyPadThumbL},
	{glfw.ButtonRightThumb, input.KeyPadThumbR},
	{glfw.ButtonDpadUp, input.KeyPadDPadUp},
	{glfw.ButtonDpadDown, input.KeyPadDPadDown},
}

// gamepadSnapshot is the polled state of the reported gamepad inputs.
type gamepadSnapshot struct {
	leftX   float32
	leftY   float32
	buttons [8]bool
}

// snapshotGamepad extracts the reported inputs from a GLFW gamepad state. GLFW reports down as
// positive Y, so the stick Y axis is inverted.
func snapshotGamepad(state *glfw.GamepadState) gamepadSnapshot {
	var s gamepadSnapshot
	if state == nil {
		return s
	}
	s.leftX = state.Axes[glfw.AxisLeftX]
	s.leftY = -state.Axes[glfw.AxisLeftY]
	for i, b := range gamepadButtons {
		s.buttons[i] = state.Buttons[b.button] == glfw.Press
	}
	return s
}

// diffGamepad returns the device events that turn prev into cur.
func diffGamepad(prev, cur gamepadSnapshot) []input.DeviceEvent {
	var events []input.DeviceEvent
	if abs32(cur.leftX-prev.leftX) >= axisEpsilon {
		events = append(events, input.DeviceEvent{Device: input.DeviceGamepad, Key: input.KeyPadThumbLX, State: input.StateChanged, Value: cur.leftX})
	}
	if abs32(cur.leftY-prev.leftY) >= axisEpsilon {
		events = append(events, input.DeviceEvent{Device: input.DeviceGamepad, Key: input.KeyPadThumbLY, State: input.StateChanged, Value: cur.leftY})
	}
	for i, b := range gamepadButtons {
		if cur.buttons[i] == prev.buttons[i] {
			continue
		}
		state := input.StateReleased
		if cur.buttons[i] {
			state = input.StatePressed
		}
		events = append(events, input.DeviceEvent{Device: input.DeviceGamepad, Key: b.key, State: state})
	}
	return events
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
