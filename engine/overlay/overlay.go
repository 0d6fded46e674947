// Package overlay composites an off-screen browser surface over the host renderer.
//
// The RenderBridge receives painted frames from the browser's message loop, folds their dirty
// rectangles, and on the render goroutine uploads the changed region into a GPU texture that is
// drawn as a full-screen quad. The Transform and Projector map between host viewport pixels,
// world space, and surface pixels.
package overlay

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-html5/common"
)

var (
	// ErrTextureCreation is wrapped when the host device could not create the surface texture.
	ErrTextureCreation = errors.New("overlay texture creation failed")

	// ErrNoSurface is returned by projections when no surface or render target is available.
	ErrNoSurface = errors.New("overlay surface unavailable")
)

// PixelFormat is the byte order of the 4-byte pixels in a painted buffer.
type PixelFormat int

const (
	// PixelFormatBGRA is the order produced by Chromium-based engines.
	PixelFormatBGRA PixelFormat = iota
	// PixelFormatRGBA is the order used by Go's image.RGBA.
	PixelFormatRGBA
)

// BytesPerPixel is the size of one surface pixel in every supported format.
const BytesPerPixel = 4

// Texture is a host GPU texture holding the surface.
type Texture interface {
	// Width returns the texture width in pixels.
	Width() int
	// Height returns the texture height in pixels.
	Height() int
	// Release frees the GPU resources. Safe to call more than once.
	Release()
}

// Device is the part of the host renderer the bridge draws with. All methods are called on the
// render goroutine.
type Device interface {
	// CreateTexture allocates a sampled texture the size of the surface.
	//
	// Parameters:
	//   - width, height: the texture size in pixels
	//   - format: the byte order of uploaded pixels
	//
	// Returns:
	//   - Texture: the new texture
	//   - error: an error if the texture could not be created
	CreateTexture(width, height int, format PixelFormat) (Texture, error)

	// UploadPitch reports the row pitch UpdateSubregion requires for a region of the given width.
	// Zero means any pitch of at least width*4 bytes is accepted.
	//
	// Parameters:
	//   - width: the region width in pixels
	//
	// Returns:
	//   - int: the required row pitch in bytes, or 0
	UploadPitch(width int) int

	// UpdateSubregion copies pixel rows into a region of the texture.
	//
	// Parameters:
	//   - tex: the destination texture
	//   - region: the destination rectangle in texture pixels
	//   - data: the source rows, the first byte being the region's top-left pixel
	//   - rowPitch: the distance in bytes between the starts of consecutive rows in data
	//
	// Returns:
	//   - error: an error if the upload failed
	UpdateSubregion(tex Texture, region common.Rect, data []byte, rowPitch int) error

	// DrawFullscreen draws tex over the current render target with standard alpha blending.
	//
	// Parameters:
	//   - tex: the texture to composite
	//
	// Returns:
	//   - error: an error if the draw could not be recorded
	DrawFullscreen(tex Texture) error
}

// Viewport reports the current host render target rectangle. It is read on every call, so it
// follows resizes.
type Viewport interface {
	// ViewportSize returns the viewport origin and size in pixels.
	ViewportSize() (x, y, width, height int)
}

// ViewportFunc adapts an ordinary function to the Viewport interface.
type ViewportFunc func() (x, y, width, height int)

// ViewportSize calls f.
func (f ViewportFunc) ViewportSize() (x, y, width, height int) {
	return f()
}

// BridgeState is the lifecycle state of a RenderBridge.
type BridgeState int32

const (
	// StateUninitialized means no texture exists yet.
	StateUninitialized BridgeState = iota
	// StateReady means the texture exists and no upload is running.
	StateReady
	// StateUpdating means an upload into the texture is in progress.
	StateUpdating
	// StateDisposed means the bridge was closed. It is terminal.
	StateDisposed
)

func (s BridgeState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateUpdating:
		return "updating"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// decodePixel reads the pixel at byte offset off of buf in the given format.
func decodePixel(buf []byte, off int, format PixelFormat) common.Color {
	p := buf[off : off+BytesPerPixel]
	if format == PixelFormatRGBA {
		return common.Color{R: p[0], G: p[1], B: p[2], A: p[3]}
	}
	return common.Color{R: p[2], G: p[1], B: p[0], A: p[3]}
}
