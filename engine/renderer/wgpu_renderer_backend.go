package renderer

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-html5/common"
	"github.com/Carmen-Shannon/oxy-html5/engine/overlay"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrNoFrame is returned by DrawOverlay outside BeginFrame/EndFrame.
	ErrNoFrame = errors.New("no frame in progress")

	// ErrForeignTexture is returned when a texture was not created by this renderer.
	ErrForeignTexture = errors.New("texture not created by this renderer")

	// ErrNoPipeline is returned by DrawOverlay when the overlay pipeline could not be built.
	ErrNoPipeline = errors.New("overlay pipeline unavailable")
)

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        *wgpu.TextureFormat
	width                int
	height               int
	msaaTexture          *wgpu.Texture
	msaaTextureView      *wgpu.TextureView
	depthTexture         *wgpu.Texture
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	presentMode wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)
	sampleCount MSAASampleCount  // MSAA sample count for the main render pass
	clearColor  wgpu.Color

	// Frame state for the single render pass of a frame
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	// Overlay pipeline objects, built once the surface format is known
	overlayLayout   *wgpu.BindGroupLayout
	overlayPipeline *wgpu.RenderPipeline
	overlaySampler  *wgpu.Sampler
}

type wgpuRendererBackend interface {
	// ConfigureSurface is a wrapper for boilerplate logic required when calling ConfigureSurface on a surface.
	// This is required when the surface size changes, such as when the window is resized.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SurfaceSize returns the size passed to the last ConfigureSurface call.
	SurfaceSize() (int, int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// CreateOverlayTexture creates a sampled, copy-destination texture and its bind group for the
	// overlay pipeline.
	//
	// Parameters:
	//   - width, height: the texture size in pixels
	//   - format: the byte order of the pixels that will be written
	//
	// Returns:
	//   - overlay.Texture: the texture
	//   - error: an error if any GPU object could not be created
	CreateOverlayTexture(width, height int, format overlay.PixelFormat) (overlay.Texture, error)

	// WriteOverlayRegion copies a rectangle of pixels into an overlay texture through the queue.
	//
	// Parameters:
	//   - tex: a texture returned by CreateOverlayTexture
	//   - region: the destination rectangle
	//   - data: the pixels, starting at the region's top-left pixel
	//   - rowPitch: the distance in bytes between rows in data
	//
	// Returns:
	//   - error: ErrForeignTexture, or an error describing an out-of-range region
	WriteOverlayRegion(tex overlay.Texture, region common.Rect, data []byte, rowPitch int) error

	// DrawOverlay draws the overlay texture over the current render pass.
	//
	// Returns:
	//   - error: ErrNoFrame, ErrNoPipeline or ErrForeignTexture
	DrawOverlay(tex overlay.Texture) error

	// BeginFrame acquires the next swapchain texture, creates a command encoder, and begins
	// the main render pass. Must be paired with EndFrame.
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame() error

	// EndFrame ends the current render pass and submits the command buffer to the GPU.
	EndFrame()

	// Present presents the surface to the display and releases the swapchain texture.
	Present()

	// Release frees every GPU object owned by the backend.
	Release()
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

// wgpuTexture is the overlay texture plus the bind group that samples it.
type wgpuTexture struct {
	texture   *wgpu.Texture
	view      *wgpu.TextureView
	bindGroup *wgpu.BindGroup
	width     int
	height    int
}

var _ overlay.Texture = &wgpuTexture{}

func (t *wgpuTexture) Width() int  { return t.width }
func (t *wgpuTexture) Height() int { return t.height }

func (t *wgpuTexture) Release() {
	if t.bindGroup != nil {
		t.bindGroup.Release()
		t.bindGroup = nil
	}
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, sampleCount MSAASampleCount, clearColor wgpu.Color) wgpuRendererBackend {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		sampleCount: sampleCount,
		clearColor:  clearColor,
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		panic(err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		panic(err)
	}
	w.device = d
	w.queue = d.GetQueue()

	return w
}

// textureFormat maps the overlay pixel byte order to the matching 8-bit unorm texture format.
func textureFormat(format overlay.PixelFormat) wgpu.TextureFormat {
	if format == overlay.PixelFormatRGBA {
		return wgpu.TextureFormatRGBA8Unorm
	}
	return wgpu.TextureFormatBGRA8Unorm
}

// overlayBlend composites premultiplied browser pixels over the frame.
var overlayBlend = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.width, b.height = width, height
	if width <= 0 || height <= 0 {
		return
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	b.releaseTargets()

	count := uint32(b.sampleCount)
	msaaEnabled := count > 1

	if msaaEnabled {
		// The render pass draws into the MSAA texture; the resolved result is written to the
		// swapchain view as the ResolveTarget.
		msaaTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "MSAA Texture",
			Size: wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        *b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			panic(err)
		}
		b.msaaTexture = msaaTexture
		b.msaaTextureView, err = msaaTexture.CreateView(nil)
		if err != nil {
			panic(err)
		}
	}

	// Depth texture sample count must match the color attachment.
	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	b.depthTexture = depthTexture
	b.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	// When MSAA is enabled, View is the MSAA texture and ResolveTarget is set per-frame to the
	// swapchain view. When disabled, View is set per-frame and ResolveTarget stays nil.
	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:          b.msaaTextureView,
				ResolveTarget: nil,
				LoadOp:        wgpu.LoadOpClear,
				StoreOp:       storeOp,
				ClearValue:    b.clearColor,
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}

	if b.overlayPipeline == nil {
		if err := b.createOverlayPipeline(); err != nil {
			log.Printf("[Renderer] overlay pipeline: %v", err)
		}
	}
}

// releaseTargets frees the MSAA and depth targets of the previous configuration.
// Caller must hold b.mu.
func (b *wgpuRendererBackendImpl) releaseTargets() {
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTextureView = nil
	}
	if b.msaaTexture != nil {
		b.msaaTexture.Release()
		b.msaaTexture = nil
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTextureView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
}

// createOverlayPipeline builds the full-screen triangle pipeline, its bind group layout and the
// shared sampler. Caller must hold b.mu and the surface format must be known.
func (b *wgpuRendererBackendImpl) createOverlayPipeline() error {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "Overlay Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: overlayShaderSource,
		},
	})
	if err != nil {
		return fmt.Errorf("shader module: %w", err)
	}
	defer module.Release()

	layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Overlay Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("bind group layout: %w", err)
	}

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Overlay Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{layout},
	})
	if err != nil {
		layout.Release()
		return fmt.Errorf("pipeline layout: %w", err)
	}
	defer pipelineLayout.Release()

	sampler, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Overlay Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		layout.Release()
		return fmt.Errorf("sampler: %w", err)
	}

	blend := overlayBlend
	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Overlay Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    *b.surfaceFormat,
					Blend:     &blend,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		// The pass carries a depth attachment; the overlay ignores it and never writes depth.
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: false,
			DepthCompare:      wgpu.CompareFunctionAlways,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		sampler.Release()
		layout.Release()
		return fmt.Errorf("render pipeline: %w", err)
	}

	b.overlayLayout = layout
	b.overlaySampler = sampler
	b.overlayPipeline = created
	return nil
}

func (b *wgpuRendererBackendImpl) SurfaceSize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) CreateOverlayTexture(width, height int, format overlay.PixelFormat) (overlay.Texture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.overlayLayout == nil {
		return nil, ErrNoPipeline
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     "Overlay Texture",
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		Format:        textureFormat(format),
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Overlay Bind Group",
		Layout: b.overlayLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: view},
			{Binding: 1, Sampler: b.overlaySampler},
		},
	})
	if err != nil {
		view.Release()
		tex.Release()
		return nil, err
	}

	return &wgpuTexture{
		texture:   tex,
		view:      view,
		bindGroup: bindGroup,
		width:     width,
		height:    height,
	}, nil
}

// writeLayout validates a region against a texture and returns the copy origin, data layout
// and extent for Queue.WriteTexture.
func writeLayout(texWidth, texHeight int, region common.Rect, dataLen, rowPitch int) (wgpu.Origin3D, wgpu.TextureDataLayout, wgpu.Extent3D, error) {
	w, h := region.Width(), region.Height()
	if region.Empty() || region.MinX < 0 || region.MinY < 0 || region.MaxX > texWidth || region.MaxY > texHeight {
		return wgpu.Origin3D{}, wgpu.TextureDataLayout{}, wgpu.Extent3D{}, fmt.Errorf("region %+v outside %dx%d texture", region, texWidth, texHeight)
	}
	rowBytes := w * overlay.BytesPerPixel
	if rowPitch < rowBytes {
		return wgpu.Origin3D{}, wgpu.TextureDataLayout{}, wgpu.Extent3D{}, fmt.Errorf("row pitch %d shorter than row %d", rowPitch, rowBytes)
	}
	if need := (h-1)*rowPitch + rowBytes; dataLen < need {
		return wgpu.Origin3D{}, wgpu.TextureDataLayout{}, wgpu.Extent3D{}, fmt.Errorf("data holds %d bytes, region needs %d", dataLen, need)
	}

	origin := wgpu.Origin3D{X: uint32(region.MinX), Y: uint32(region.MinY)}
	layout := wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(rowPitch),
		RowsPerImage: uint32(h),
	}
	extent := wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}
	return origin, layout, extent, nil
}

func (b *wgpuRendererBackendImpl) WriteOverlayRegion(tex overlay.Texture, region common.Rect, data []byte, rowPitch int) error {
	t, ok := tex.(*wgpuTexture)
	if !ok || t.texture == nil {
		return ErrForeignTexture
	}

	origin, layout, extent, err := writeLayout(t.width, t.height, region, len(data), rowPitch)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.texture,
			MipLevel: 0,
			Origin:   origin,
			Aspect:   wgpu.TextureAspectAll,
		},
		data,
		&layout,
		&extent,
	)
	return nil
}

func (b *wgpuRendererBackendImpl) DrawOverlay(tex overlay.Texture) error {
	t, ok := tex.(*wgpuTexture)
	if !ok || t.bindGroup == nil {
		return ErrForeignTexture
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return ErrNoFrame
	}
	if b.overlayPipeline == nil {
		return ErrNoPipeline
	}

	b.framePass.SetPipeline(b.overlayPipeline)
	b.framePass.SetBindGroup(0, t.bindGroup, nil)
	b.framePass.Draw(3, 1, 0, 0)
	return nil
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A surface image still held from the previous frame cannot be acquired again.
	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}
	if b.renderPassDescriptor == nil {
		return fmt.Errorf("surface not configured (%dx%d)", b.width, b.height)
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	if b.sampleCount > 1 {
		b.renderPassDescriptor.ColorAttachments[0].ResolveTarget = view
	} else {
		b.renderPassDescriptor.ColorAttachments[0].View = view
	}
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view

	return nil
}

func (b *wgpuRendererBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.framePass.End()

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.frameEncoder.Release()
		b.frameView.Release()
		b.frameSurface.Release()
		b.frameEncoder = nil
		b.framePass = nil
		b.frameSurface = nil
		b.frameView = nil
		return
	}

	b.queue.Submit(commandBuffer)

	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil
	b.framePass = nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}

	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	b.frameSurface.Release()
	b.frameSurface = nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseTargets()
	if b.overlayPipeline != nil {
		b.overlayPipeline.Release()
		b.overlayPipeline = nil
	}
	if b.overlaySampler != nil {
		b.overlaySampler.Release()
		b.overlaySampler = nil
	}
	if b.overlayLayout != nil {
		b.overlayLayout.Release()
		b.overlayLayout = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
