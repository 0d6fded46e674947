package renderer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-html5/common"
	"github.com/Carmen-Shannon/oxy-html5/engine/overlay"
	"github.com/Carmen-Shannon/oxy-html5/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	clearColor           common.Color
}

// Renderer is the host renderer the browser overlay composites into.
//
// It owns the swapchain and one render pass per frame. Between BeginFrame and EndFrame the
// overlay render bridge uploads its dirty region and draws its texture through the
// overlay.Device methods. ViewportSize reports the configured surface size, so the Renderer is
// also the viewport the coordinate transform reads.
type Renderer interface {
	overlay.Device
	overlay.Viewport

	// Resize configures the underlying backend to handle a new surface size.
	// This should be called when re-sizing the window or when the surface size should change.
	// A zero-sized surface (minimized window) is recorded but not configured.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	// A call to Resize is required after changing this for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// BeginFrame acquires the swapchain texture and begins the main render pass.
	// Must be paired with EndFrame after all draws within a single frame.
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame() error

	// EndFrame ends the current render pass and submits the command buffer to the GPU.
	// Does not present the surface, call Present() after EndFrame to display the frame.
	EndFrame()

	// Present presents the surface to the display and releases the swapchain texture.
	// Must be called once per frame after EndFrame.
	Present()

	// Release frees the overlay pipeline, the render targets and the device.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type for the given window.
// The surface is created from Window.SurfaceDescriptor() and configured to the window size.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - window: the window providing the surface descriptor and initial size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		clearColor:  common.Color{R: 26, G: 26, B: 26, A: 255},
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	msaa := MSAAOff
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter, msaa, clearValue(r.clearColor))
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	r.backend.ConfigureSurface(window.Width(), window.Height())
	return r
}

// clearValue converts an 8-bit color to the normalized wgpu clear color.
func clearValue(c common.Color) wgpu.Color {
	return wgpu.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
		A: float64(c.A) / 255,
	}
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) ViewportSize() (int, int, int, int) {
	w, h := r.backend.SurfaceSize()
	return 0, 0, w, h
}

func (r *renderer) CreateTexture(width, height int, format overlay.PixelFormat) (overlay.Texture, error) {
	return r.backend.CreateOverlayTexture(width, height, format)
}

// UploadPitch returns 0: Queue.WriteTexture accepts any row pitch, so the render bridge can hand
// over its surface stride directly.
func (r *renderer) UploadPitch(width int) int {
	return 0
}

func (r *renderer) UpdateSubregion(tex overlay.Texture, region common.Rect, data []byte, rowPitch int) error {
	return r.backend.WriteOverlayRegion(tex, region, data, rowPitch)
}

func (r *renderer) DrawFullscreen(tex overlay.Texture) error {
	return r.backend.DrawOverlay(tex)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.Release()
}
