// Package input turns host device activity into browser input events.
//
// Device callbacks on any goroutine push Event values into a Queue. Once per tick the Bridge
// drains the queue in order, updates the pointer and button state, and dispatches each event to
// the browser host.
package input

import "github.com/Carmen-Shannon/oxy-html5/engine/browser"

// Kind selects which fields of an Event are meaningful.
type Kind uint8

const (
	// KindPointerMove carries X and Y in host viewport pixels.
	KindPointerMove Kind = iota
	// KindButtonDown carries Button.
	KindButtonDown
	// KindButtonUp carries Button.
	KindButtonUp
	// KindDoubleClick carries Button.
	KindDoubleClick
	// KindScroll carries Delta.
	KindScroll
	// KindKeyDown carries KeyCode, Char and Modifiers.
	KindKeyDown
	// KindKeyUp carries KeyCode, Char and Modifiers.
	KindKeyUp
	// KindTextChar carries KeyCode, Char and Modifiers.
	KindTextChar
	// KindFocusLost has no payload.
	KindFocusLost
	// KindFocusGained has no payload.
	KindFocusGained
)

var kindNames = [...]string{
	KindPointerMove: "PointerMove",
	KindButtonDown:  "ButtonDown",
	KindButtonUp:    "ButtonUp",
	KindDoubleClick: "DoubleClick",
	KindScroll:      "Scroll",
	KindKeyDown:     "KeyDown",
	KindKeyUp:       "KeyUp",
	KindTextChar:    "TextChar",
	KindFocusLost:   "FocusLost",
	KindFocusGained: "FocusGained",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Event is one queued input event. It is a plain value: queues store it without allocating.
type Event struct {
	Kind Kind

	X, Y   int
	Button browser.MouseButton
	Delta  int

	Modifiers browser.EventFlags
	KeyCode   int
	Char      uint16
}

// PointerMove returns a KindPointerMove event.
func PointerMove(x, y int) Event {
	return Event{Kind: KindPointerMove, X: x, Y: y}
}

// ButtonDown returns a KindButtonDown event.
func ButtonDown(button browser.MouseButton) Event {
	return Event{Kind: KindButtonDown, Button: button}
}

// ButtonUp returns a KindButtonUp event.
func ButtonUp(button browser.MouseButton) Event {
	return Event{Kind: KindButtonUp, Button: button}
}

// DoubleClick returns a KindDoubleClick event.
func DoubleClick(button browser.MouseButton) Event {
	return Event{Kind: KindDoubleClick, Button: button}
}

// Scroll returns a KindScroll event. Positive delta scrolls up.
func Scroll(delta int) Event {
	return Event{Kind: KindScroll, Delta: delta}
}

// FocusLost returns a KindFocusLost event.
func FocusLost() Event {
	return Event{Kind: KindFocusLost}
}

// FocusGained returns a KindFocusGained event.
func FocusGained() Event {
	return Event{Kind: KindFocusGained}
}
