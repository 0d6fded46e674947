package input

// Device identifies the source of a DeviceEvent.
type Device int

const (
	DeviceKeyboard Device = iota
	DeviceMouse
	DeviceGamepad
)

// KeyID identifies the key, button or axis of a DeviceEvent.
type KeyID int

const (
	// KeyOther is any keyboard key without its own id. Its character is carried in
	// DeviceEvent.Char or DeviceEvent.Rune.
	KeyOther KeyID = iota

	KeyBackspace
	KeyTab
	KeyEnter
	KeyLShift
	KeyRShift
	KeyLCtrl
	KeyRCtrl
	KeyLAlt
	KeyRAlt
	KeyEscape
	KeyArrowLeft
	KeyArrowUp
	KeyArrowRight
	KeyArrowDown
	KeyInsert
	KeyDelete

	// Mouse axes carry a relative movement in Value.
	KeyMouseX
	KeyMouseY
	KeyMouse1
	KeyMouse2
	KeyMouse3
	KeyMouseWheelUp
	KeyMouseWheelDown

	// Gamepad axes carry a deflection in [-1, 1] in Value. Up on the left stick is positive.
	KeyPadThumbLX
	KeyPadThumbLY
	KeyPadA
	KeyPadB
	KeyPadX
	KeyPadY
	KeyPadThumbL
	KeyPadThumbR
	KeyPadDPadUp
	KeyPadDPadDown
)

// KeyState is the transition a DeviceEvent reports.
type KeyState int

const (
	StatePressed KeyState = iota
	StateReleased
	// StateChanged is reported for axis movement.
	StateChanged
	// StateDown is reported while a key is held.
	StateDown
)

// Modifier is the host keyboard modifier mask of a DeviceEvent.
type Modifier uint16

const (
	ModLShift Modifier = 1 << iota
	ModRShift
	ModLCtrl
	ModRCtrl
	ModLAlt
	ModRAlt
	ModCapsLock
	ModNumLock

	ModShift = ModLShift | ModRShift
	ModCtrl  = ModLCtrl | ModRCtrl
	ModAlt   = ModLAlt | ModRAlt
)

// DeviceEvent is a raw key, button or axis event reported by the host.
type DeviceEvent struct {
	Device    Device
	Key       KeyID
	State     KeyState
	Value     float32
	Modifiers Modifier

	// Char is the 8-bit character in the bridge's code page the key produces, or 0.
	Char byte
	// Rune is the character as reported by a host text input, or 0. It takes precedence over Char.
	Rune rune
}

// HardwareMouseEvent is a host cursor event delivered while the hardware cursor is reserved.
type HardwareMouseEvent int

const (
	HardwareMouseMove HardwareMouseEvent = iota
	HardwareMouseLeftDown
	HardwareMouseLeftUp
	HardwareMouseLeftDoubleClick
	HardwareMouseRightDown
	HardwareMouseRightUp
	HardwareMouseRightDoubleClick
	HardwareMouseMiddleDown
	HardwareMouseMiddleUp
	HardwareMouseMiddleDoubleClick
	HardwareMouseWheel
)

// Cursor is the host cursor in viewport pixels.
type Cursor interface {
	// CursorPosition returns the current cursor position. ok is false when it is unknown.
	CursorPosition() (x, y float32, ok bool)
	// SetCursorPosition moves the cursor.
	SetCursorPosition(x, y float32)
}

// CursorReservation is the host's shared hardware cursor visibility counter.
type CursorReservation interface {
	// AcquireCursor increments the counter.
	AcquireCursor()
	// ReleaseCursor decrements the counter.
	ReleaseCursor()
}

// ConsoleState reports whether a host console currently owns input.
type ConsoleState interface {
	ConsoleOpen() bool
}

// Scaler maps host viewport pixels to surface pixels. overlay.RenderBridge implements it.
type Scaler interface {
	Scale(x, y float32, limit, relative bool) (float32, float32)
}
