package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-html5/common"
	"github.com/stretchr/testify/assert"
)

func TestOrbitControllerPlacesEyeOnSphere(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(10), WithAngles(0, 0), WithTarget(common.Vec3{X: 1}))

	assert.InDelta(t, 1, ctrl.Position().X, 1e-5)
	assert.InDelta(t, 0, ctrl.Position().Y, 1e-5)
	assert.InDelta(t, 10, ctrl.Position().Z, 1e-5)
	assert.InDelta(t, 10, ctrl.Position().Sub(ctrl.Target()).Length(), 1e-4)
}

func TestOrbitControllerClampsElevationAndRadius(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(10), WithRadiusBounds(5, 20))

	ctrl.Orbit(0, math.Pi)
	assert.Less(t, ctrl.Position().Y, float32(10))

	ctrl.Zoom(100)
	assert.Equal(t, float32(5), ctrl.Radius())
	ctrl.Zoom(-100)
	assert.Equal(t, float32(20), ctrl.Radius())
}

func TestCameraForwardPointsAtTarget(t *testing.T) {
	cam := NewCamera(WithController(NewOrbitController(WithRadius(10), WithAngles(0, 0))))

	f := cam.Forward()
	assert.InDelta(t, 0, f.X, 1e-5)
	assert.InDelta(t, 0, f.Y, 1e-5)
	assert.InDelta(t, -1, f.Z, 1e-5)
	assert.InDelta(t, 10, cam.Position().Z, 1e-5)
}

func TestCameraWithoutControllerKeepsIdentity(t *testing.T) {
	cam := NewCamera()
	cam.Update()

	var identity [16]float32
	common.Identity(identity[:])
	assert.Equal(t, identity, cam.ViewProjectionMatrix())
	assert.Equal(t, common.Vec3{}, cam.Forward())
}

func TestSetAspectIgnoresNonPositive(t *testing.T) {
	cam := NewCamera(WithAspect(2))
	cam.SetAspect(0)
	assert.Equal(t, float32(2), cam.Aspect())
}
