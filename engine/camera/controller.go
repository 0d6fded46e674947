package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-html5/common"
)

// Controller owns the eye position and the look-at target the Camera reads each update.
type Controller interface {
	// Position returns the world-space eye position.
	Position() common.Vec3

	// Target returns the world-space look-at point.
	Target() common.Vec3

	// SetTarget moves the pivot and recomputes the eye position.
	//
	// Parameters:
	//   - target: the new pivot
	SetTarget(target common.Vec3)

	// Orbit rotates the eye around the target. Elevation is clamped to the configured bounds.
	//
	// Parameters:
	//   - dAzimuth: horizontal rotation in radians
	//   - dElevation: vertical rotation in radians
	Orbit(dAzimuth, dElevation float32)

	// Zoom moves the eye toward the target by delta * zoom speed, clamped to the radius bounds.
	//
	// Parameters:
	//   - delta: positive zooms in
	Zoom(delta float32)

	// Radius returns the distance between eye and target.
	Radius() float32
}

// orbitController places the eye on a sphere around the target.
type orbitController struct {
	mu *sync.Mutex

	position common.Vec3
	target   common.Vec3

	radius    float32
	azimuth   float32
	elevation float32

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	zoomSpeed float32
}

var _ Controller = &orbitController{}

// NewOrbitController creates an orbit Controller looking at the origin from 250 units away.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - Controller: the newly created controller
func NewOrbitController(options ...ControllerBuilderOption) Controller {
	oc := &orbitController{
		mu:           &sync.Mutex{},
		radius:       250.0,
		elevation:    float32(math.Pi / 6),
		minRadius:    1.0,
		maxRadius:    2000.0,
		minElevation: float32(-math.Pi/2 + 0.1),
		maxElevation: float32(math.Pi/2 - 0.1),
		zoomSpeed:    15.0,
	}
	for _, option := range options {
		option(oc)
	}
	oc.radius = common.Clamp(oc.radius, oc.minRadius, oc.maxRadius)
	oc.elevation = common.Clamp(oc.elevation, oc.minElevation, oc.maxElevation)
	oc.updatePosition()
	return oc
}

// updatePosition recomputes the eye from the spherical coordinates. Caller must hold the mutex.
func (oc *orbitController) updatePosition() {
	cosElev := float32(math.Cos(float64(oc.elevation)))
	sinElev := float32(math.Sin(float64(oc.elevation)))
	cosAzim := float32(math.Cos(float64(oc.azimuth)))
	sinAzim := float32(math.Sin(float64(oc.azimuth)))

	oc.position = oc.target.Add(common.Vec3{
		X: oc.radius * cosElev * sinAzim,
		Y: oc.radius * sinElev,
		Z: oc.radius * cosElev * cosAzim,
	})
}

func (oc *orbitController) Position() common.Vec3 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.position
}

func (oc *orbitController) Target() common.Vec3 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.target
}

func (oc *orbitController) SetTarget(target common.Vec3) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.target = target
	oc.updatePosition()
}

func (oc *orbitController) Orbit(dAzimuth, dElevation float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.azimuth += dAzimuth
	oc.elevation = common.Clamp(oc.elevation+dElevation, oc.minElevation, oc.maxElevation)
	oc.updatePosition()
}

func (oc *orbitController) Zoom(delta float32) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	oc.radius = common.Clamp(oc.radius-delta*oc.zoomSpeed, oc.minRadius, oc.maxRadius)
	oc.updatePosition()
}

func (oc *orbitController) Radius() float32 {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.radius
}
