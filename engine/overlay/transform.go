package overlay

import "github.com/Carmen-Shannon/oxy-html5/common"

// Transform maps host coordinates to surface pixel coordinates.
type Transform struct {
	// SurfaceWidth and SurfaceHeight are the fixed browser surface size in pixels.
	SurfaceWidth, SurfaceHeight int
	// Viewport is queried on every Scale call. A nil Viewport behaves like a zero-sized one.
	Viewport Viewport
}

// Scale maps (x, y) to surface pixels.
//
// With relative set, x and y are host viewport pixels and are first divided by the current
// viewport size. Otherwise they are already normalized to [0, 1]. With limit set, the normalized
// values are clamped to [0, 1] before scaling, so the result stays on the surface.
// A zero-sized viewport yields (0, 0).
//
// Parameters:
//   - x, y: the input coordinates
//   - limit: clamp to the surface
//   - relative: treat the input as viewport pixels
//
// Returns:
//   - outX, outY: the surface coordinates
func (t Transform) Scale(x, y float32, limit, relative bool) (outX, outY float32) {
	if relative {
		var w, h int
		if t.Viewport != nil {
			_, _, w, h = t.Viewport.ViewportSize()
		}
		if w <= 0 || h <= 0 {
			return 0, 0
		}
		x /= float32(w)
		y /= float32(h)
	}

	if limit {
		x = common.Clamp(x, 0, 1)
		y = common.Clamp(y, 0, 1)
	}

	return x * float32(t.SurfaceWidth), y * float32(t.SurfaceHeight)
}
