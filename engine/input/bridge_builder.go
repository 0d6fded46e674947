package input

import "golang.org/x/text/encoding"

// BridgeBuilderOption is a functional option for configuring a Bridge.
type BridgeBuilderOption func(*bridgeImpl)

// WithCursor sets the host cursor used as the base for relative movement and emulation.
//
// Parameters:
//   - cursor: the host cursor, or nil when unavailable
//
// Returns:
//   - BridgeBuilderOption: a function that applies the cursor
func WithCursor(cursor Cursor) BridgeBuilderOption {
	return func(b *bridgeImpl) {
		b.cursor = cursor
	}
}

// WithCursorReservation sets the counter acquired while the bridge is at level 3.
//
// Parameters:
//   - reservation: the host cursor reservation, or nil when unavailable
//
// Returns:
//   - BridgeBuilderOption: a function that applies the reservation
func WithCursorReservation(reservation CursorReservation) BridgeBuilderOption {
	return func(b *bridgeImpl) {
		b.reservation = reservation
	}
}

// WithConsole sets the console whose open state suppresses device events.
//
// Parameters:
//   - console: the host console, or nil
//
// Returns:
//   - BridgeBuilderOption: a function that applies the console
func WithConsole(console ConsoleState) BridgeBuilderOption {
	return func(b *bridgeImpl) {
		b.console = console
	}
}

// WithScaler sets the transform from viewport pixels to surface pixels used during drain.
//
// Parameters:
//   - scaler: the transform, usually the overlay render bridge
//
// Returns:
//   - BridgeBuilderOption: a function that applies the scaler
func WithScaler(scaler Scaler) BridgeBuilderOption {
	return func(b *bridgeImpl) {
		b.scaler = scaler
	}
}

// WithMaxEmulationSpeed sets the pointer speed at full stick deflection, in pixels per second.
func WithMaxEmulationSpeed(pixelsPerSecond float32) BridgeBuilderOption {
	return func(b *bridgeImpl) {
		b.maxSpeed = pixelsPerSecond
	}
}

// WithDeadZone sets the stick deflection below which emulation is idle.
func WithDeadZone(deadZone float32) BridgeBuilderOption {
	return func(b *bridgeImpl) {
		b.deadZone = deadZone
	}
}

// WithWheelStep sets the scroll amount of one wheel notch or d-pad press.
func WithWheelStep(step int) BridgeBuilderOption {
	return func(b *bridgeImpl) {
		b.wheelStep = step
	}
}

// WithCodePage sets the code page of DeviceEvent.Char. Defaults to Windows-1252.
//
// Parameters:
//   - codePage: an 8-bit encoding such as charmap.ISO8859_15
//
// Returns:
//   - BridgeBuilderOption: a function that applies the code page
func WithCodePage(codePage encoding.Encoding) BridgeBuilderOption {
	return func(b *bridgeImpl) {
		if codePage != nil {
			b.codePage = codePage
		}
	}
}
