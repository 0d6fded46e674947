package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvert4RoundTrip(t *testing.T) {
	var proj, inv, out [16]float32
	Perspective(proj[:], math.Pi/4, 16.0/9.0, 0.1, 100)
	require.True(t, Invert4(inv[:], proj[:]))

	Mul4(out[:], proj[:], inv[:])
	var ident [16]float32
	Identity(ident[:])
	for i := range out {
		assert.InDelta(t, ident[i], out[i], 1e-4, "element %d", i)
	}
}

func TestMulVec4ProjectsTargetToCenter(t *testing.T) {
	var view, proj, vp [16]float32
	LookAt(view[:], 0, 0, 10, 0, 0, 0, 0, 1, 0)
	Perspective(proj[:], math.Pi/4, 1, 0.1, 100)
	Mul4(vp[:], proj[:], view[:])

	clip := MulVec4(vp[:], [4]float32{0, 0, 0, 1})
	require.NotZero(t, clip[3])
	assert.InDelta(t, 0, clip[0]/clip[3], 1e-6)
	assert.InDelta(t, 0, clip[1]/clip[3], 1e-6)
	assert.InDelta(t, 10, clip[3], 1e-5)
}
