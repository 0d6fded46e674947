// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import "math"

// Rect is an axis-aligned pixel rectangle stored as its min (inclusive) and max (exclusive) corners.
type Rect struct {
	MinX, MinY int
	MaxX, MaxY int
}

// NewRect builds a Rect from an origin and a size.
//
// Parameters:
//   - x, y: the top-left corner in pixels
//   - w, h: the width and height in pixels
//
// Returns:
//   - Rect: the rectangle covering [x, x+w) x [y, y+h)
func NewRect(x, y, w, h int) Rect {
	return Rect{MinX: x, MinY: y, MaxX: x + w, MaxY: y + h}
}

// Width returns the horizontal extent of the rectangle, or 0 when it is empty.
func (r Rect) Width() int {
	return max(r.MaxX-r.MinX, 0)
}

// Height returns the vertical extent of the rectangle, or 0 when it is empty.
func (r Rect) Height() int {
	return max(r.MaxY-r.MinY, 0)
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.MaxX <= r.MinX || r.MaxY <= r.MinY
}

// Union returns the smallest rectangle containing both r and o.
// Empty rectangles are ignored.
//
// Parameters:
//   - o: the rectangle to merge with r
//
// Returns:
//   - Rect: the bounding rectangle of r and o
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	return Rect{
		MinX: min(r.MinX, o.MinX),
		MinY: min(r.MinY, o.MinY),
		MaxX: max(r.MaxX, o.MaxX),
		MaxY: max(r.MaxY, o.MaxY),
	}
}

// Intersect returns the overlap of r and o. The result is empty when they do not overlap.
//
// Parameters:
//   - o: the rectangle to clip r against
//
// Returns:
//   - Rect: the intersection of r and o
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		MinX: max(r.MinX, o.MinX),
		MinY: max(r.MinY, o.MinY),
		MaxX: min(r.MaxX, o.MaxX),
		MaxY: min(r.MaxY, o.MaxY),
	}
	if out.Empty() {
		return Rect{}
	}
	return out
}

// Contains reports whether the pixel (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.MinX && x < r.MaxX && y >= r.MinY && y < r.MaxY
}

// Color is an 8-bit-per-channel RGBA color.
type Color struct {
	R, G, B, A uint8
}

// Vec3 is a three component float vector used for world and screen positions.
type Vec3 struct {
	X, Y, Z float32
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v multiplied by s.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float32 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns the cross product v x o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Length returns the euclidean length of v.
func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}

// Normalize returns v scaled to unit length. A zero vector is returned unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l < 1e-8 {
		return v
	}
	return v.Scale(1 / l)
}
