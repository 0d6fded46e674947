package camera

import "github.com/Carmen-Shannon/oxy-html5/common"

// ControllerBuilderOption is a functional option for configuring an orbit Controller.
type ControllerBuilderOption func(*orbitController)

// WithRadius sets the initial distance from the target.
//
// Parameters:
//   - radius: distance from the target
//
// Returns:
//   - ControllerBuilderOption: a function that sets the radius
func WithRadius(radius float32) ControllerBuilderOption {
	return func(oc *orbitController) {
		oc.radius = radius
	}
}

// WithAngles sets the initial azimuth and elevation in radians. Azimuth 0 looks down -Z.
//
// Parameters:
//   - azimuth: horizontal angle around the Y axis
//   - elevation: vertical angle from the horizontal plane
//
// Returns:
//   - ControllerBuilderOption: a function that sets both angles
func WithAngles(azimuth, elevation float32) ControllerBuilderOption {
	return func(oc *orbitController) {
		oc.azimuth = azimuth
		oc.elevation = elevation
	}
}

// WithTarget sets the look-at pivot.
//
// Parameters:
//   - target: the pivot in world space
//
// Returns:
//   - ControllerBuilderOption: a function that sets the target
func WithTarget(target common.Vec3) ControllerBuilderOption {
	return func(oc *orbitController) {
		oc.target = target
	}
}

// WithRadiusBounds sets the zoom limits.
//
// Parameters:
//   - minRadius, maxRadius: the closest and farthest allowed distances
//
// Returns:
//   - ControllerBuilderOption: a function that sets the bounds
func WithRadiusBounds(minRadius, maxRadius float32) ControllerBuilderOption {
	return func(oc *orbitController) {
		oc.minRadius, oc.maxRadius = minRadius, maxRadius
	}
}

// WithZoomSpeed sets the zoom multiplier.
func WithZoomSpeed(speed float32) ControllerBuilderOption {
	return func(oc *orbitController) {
		oc.zoomSpeed = speed
	}
}
