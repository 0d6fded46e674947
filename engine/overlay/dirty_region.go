package overlay

import (
	"math"

	"github.com/Carmen-Shannon/oxy-html5/common"
)

// DirtyRegion accumulates the bounding box of every rectangle reported since the last reset.
// Disjoint rectangles are coalesced into one box, so a small change in each corner uploads the
// whole surface. The zero value is not ready for use; call Reset or use NewDirtyRegion.
type DirtyRegion struct {
	MinX, MinY int
	MaxX, MaxY int
}

// NewDirtyRegion returns an accumulator in the empty state.
func NewDirtyRegion() DirtyRegion {
	var d DirtyRegion
	d.Reset()
	return d
}

// Reset returns the accumulator to the empty sentinel state.
func (d *DirtyRegion) Reset() {
	d.MinX, d.MinY = math.MaxInt, math.MaxInt
	d.MaxX, d.MaxY = 0, 0
}

// Add grows the bounds to include the rectangle at (x, y) of size w x h.
func (d *DirtyRegion) Add(x, y, w, h int) {
	d.MinX = min(d.MinX, x)
	d.MinY = min(d.MinY, y)
	d.MaxX = max(d.MaxX, x+w)
	d.MaxY = max(d.MaxY, y+h)
}

// AddRect grows the bounds to include r.
func (d *DirtyRegion) AddRect(r common.Rect) {
	d.Add(r.MinX, r.MinY, r.Width(), r.Height())
}

// HasPending reports whether any rectangle was added since the last reset.
func (d *DirtyRegion) HasPending() bool {
	return d.MaxX > 0 && d.MaxY > 0
}

// Bounds returns the accumulated rectangle without resetting.
func (d *DirtyRegion) Bounds() common.Rect {
	return common.Rect{MinX: d.MinX, MinY: d.MinY, MaxX: d.MaxX, MaxY: d.MaxY}
}

// TakeAndReset returns the accumulated rectangle and empties the accumulator.
func (d *DirtyRegion) TakeAndReset() common.Rect {
	r := d.Bounds()
	d.Reset()
	return r
}
