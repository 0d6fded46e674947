package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectUnionIgnoresEmpty(t *testing.T) {
	a := NewRect(10, 10, 5, 5)
	assert.Equal(t, a, a.Union(Rect{}))
	assert.Equal(t, a, Rect{}.Union(a))

	b := NewRect(100, 100, 5, 5)
	assert.Equal(t, Rect{MinX: 10, MinY: 10, MaxX: 105, MaxY: 105}, a.Union(b))
	assert.Equal(t, a.Union(b), b.Union(a))
}

func TestRectIntersect(t *testing.T) {
	surface := NewRect(0, 0, 1024, 1024)

	assert.Equal(t, Rect{MinX: 1000, MinY: 0, MaxX: 1024, MaxY: 20}, NewRect(1000, -5, 100, 25).Intersect(surface))
	assert.True(t, NewRect(2000, 2000, 10, 10).Intersect(surface).Empty())
}

func TestRectContains(t *testing.T) {
	r := NewRect(0, 0, 4, 4)
	assert.True(t, r.Contains(0, 0))
	assert.True(t, r.Contains(3, 3))
	assert.False(t, r.Contains(4, 0))
	assert.False(t, r.Contains(-1, 2))
	assert.Equal(t, 4, r.Width())
	assert.Equal(t, 0, Rect{MinX: 5, MaxX: 1}.Width())
}

func TestVec3CrossAndNormalize(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	assert.Equal(t, Vec3{0, 0, 1}, x.Cross(y))

	n := Vec3{3, 0, 4}.Normalize()
	assert.InDelta(t, 1.0, n.Length(), 1e-6)
	assert.Equal(t, Vec3{}, Vec3{}.Normalize())
}

func TestClamp(t *testing.T) {
	assert.Equal(t, float32(0), Clamp(float32(-0.5), 0, 1))
	assert.Equal(t, float32(1), Clamp(float32(2), 0, 1))
	assert.Equal(t, 3, Clamp(3, 0, 10))
}
