package overlay

import (
	"github.com/Carmen-Shannon/oxy-html5/common"
	"github.com/Carmen-Shannon/oxy-html5/engine/camera"
)

// facingDistance places the reference point far behind the eye, so the offset basis stays stable
// for points close to the camera.
const facingDistance = 1000

// worldUp is the world's vertical axis. Offsets use it rather than the camera's up vector, so a
// tilted camera does not rotate them.
var worldUp = common.Vec3{X: 0, Y: 1, Z: 0}

// TransformSource supplies the current surface transform. RenderBridge implements it.
type TransformSource interface {
	Transform() Transform
}

// Projector maps world-space points to surface pixel coordinates, for anchoring UI elements to
// objects in the scene.
type Projector struct {
	Source TransformSource
}

// NewProjector creates a Projector reading the surface size and viewport from src.
func NewProjector(src TransformSource) *Projector {
	return &Projector{Source: src}
}

// WorldToScreen projects world, shifted by offset, onto the surface.
//
// The offset is expressed in a basis built around the view ray: X along the screen-right
// direction, Y along the ray, Z along the world's vertical axis.
//
// Parameters:
//   - cam: the camera whose view-projection is used
//   - world: the world-space point
//   - offset: the local offset applied before projecting
//
// Returns:
//   - common.Vec3: X and Y in surface pixels (unclamped), Z the distance from the eye
//   - bool: false when there is no surface, no camera controller, or the point projects to w == 0
func (p *Projector) WorldToScreen(cam camera.Camera, world, offset common.Vec3) (common.Vec3, bool) {
	if p == nil || p.Source == nil || cam == nil || cam.Controller() == nil {
		return common.Vec3{}, false
	}
	t := p.Source.Transform()
	if t.Viewport == nil || t.SurfaceWidth <= 0 || t.SurfaceHeight <= 0 {
		return common.Vec3{}, false
	}
	_, _, vpW, vpH := t.Viewport.ViewportSize()
	if vpW <= 0 || vpH <= 0 {
		return common.Vec3{}, false
	}

	eye := cam.Position()
	up := worldUp
	facing := eye.Sub(cam.Forward().Scale(facingDistance))
	dir := world.Sub(facing).Normalize()

	world = world.
		Add(dir.Cross(up).Normalize().Scale(offset.X)).
		Add(dir.Scale(offset.Y)).
		Add(up.Scale(offset.Z))

	vp := cam.ViewProjectionMatrix()
	clip := common.MulVec4(vp[:], [4]float32{world.X, world.Y, world.Z, 1})
	if clip[3] == 0 {
		return common.Vec3{}, false
	}
	ndcX, ndcY := clip[0]/clip[3], clip[1]/clip[3]

	px := (ndcX + 1) * 0.5 * float32(vpW)
	py := (1 - ndcY) * 0.5 * float32(vpH)
	sx, sy := t.Scale(px, py, false, true)

	return common.Vec3{X: sx, Y: sy, Z: eye.Sub(world).Length()}, true
}
