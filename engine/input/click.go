package input

import "time"

const (
	// DoubleClickTime is the longest gap between the two presses of a double click.
	DoubleClickTime = 500 * time.Millisecond
	// DoubleClickDistance is the largest movement in pixels between the two presses.
	DoubleClickDistance = 4
)

// ClickTracker turns repeated presses of a hardware mouse button into double clicks for hosts
// that only report single presses. The zero value is ready to use.
type ClickTracker struct {
	last  [3]time.Time
	lastX [3]int
	lastY [3]int
}

// Press records a press of button (0 left, 1 right, 2 middle) at x, y and reports whether it
// completes a double click. A completed double click is forgotten, so a third press starts a
// new pair. Out-of-range buttons never double click.
func (c *ClickTracker) Press(button, x, y int, now time.Time) bool {
	if button < 0 || button >= len(c.last) {
		return false
	}
	prev := c.last[button]
	dx, dy := x-c.lastX[button], y-c.lastY[button]
	double := !prev.IsZero() &&
		now.Sub(prev) <= DoubleClickTime &&
		dx*dx+dy*dy <= DoubleClickDistance*DoubleClickDistance

	if double {
		c.last[button] = time.Time{}
		return true
	}
	c.last[button] = now
	c.lastX[button], c.lastY[button] = x, y
	return false
}
