package ebitenhost

import "github.com/hajimehoshi/ebiten/v2"

// HostBuilderOption is a functional option for configuring a Host.
type HostBuilderOption func(*hostImpl)

// WithBackground sets a function that draws the scene under the overlay each frame.
//
// Parameters:
//   - draw: called from Draw before the overlay is composited
//
// Returns:
//   - HostBuilderOption: option function to apply
func WithBackground(draw func(screen *ebiten.Image)) HostBuilderOption {
	return func(h *hostImpl) {
		h.background = draw
	}
}

// WithIdleCursorMode sets the cursor mode used while no cursor reservation is held.
// Defaults to ebiten.CursorModeVisible.
//
// Parameters:
//   - mode: the idle cursor mode
//
// Returns:
//   - HostBuilderOption: option function to apply
func WithIdleCursorMode(mode ebiten.CursorModeType) HostBuilderOption {
	return func(h *hostImpl) {
		h.idleMode = mode
	}
}

// WithKeyCallback sets a function called for every key pressed this tick, before the key reaches
// the overlay. A non-nil error ends the game; return ebiten.Termination for a clean exit.
//
// Parameters:
//   - onKey: the hotkey handler
//
// Returns:
//   - HostBuilderOption: option function to apply
func WithKeyCallback(onKey func(key ebiten.Key) error) HostBuilderOption {
	return func(h *hostImpl) {
		h.onKey = onKey
	}
}
