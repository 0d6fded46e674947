package overlay

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-html5/common"
	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

// RenderBridge turns painted browser frames into a composited GPU texture.
//
// OnPaint runs on the browser's message loop and only records the buffer and its dirty
// rectangles. OnPresent runs on the render goroutine once per frame and does all GPU work.
//
// In the default single-buffer mode the painted buffer is referenced, not copied: the browser
// must not write the next frame into the same memory while OnPresent is uploading from it.
// WithFrameCopy(true) removes that requirement at the cost of one copy per paint.
type RenderBridge interface {
	// OnPaint records a new frame. It never touches the GPU.
	//
	// Parameters:
	//   - buffer: the full surface, width*height*4 bytes in the bridge's pixel format
	//   - width, height: the painted size, which must match the surface size
	//   - dirty: the rectangles that changed since the previous paint
	OnPaint(buffer []byte, width, height int, dirty []common.Rect)

	// OnPresent uploads pending changes and draws the overlay. Call it once per frame on the
	// render goroutine, between the host's begin and end of frame.
	OnPresent()

	// SetActive enables or disables presenting. An inactive bridge keeps recording paints.
	SetActive(active bool)

	// Active reports whether presenting is enabled.
	Active() bool

	// Pixel returns the pixel at (x, y) of the last painted frame, or the zero color when the
	// coordinates are outside the surface or nothing was painted yet.
	Pixel(x, y int) common.Color

	// Scale maps host coordinates to surface pixels. See Transform.Scale.
	Scale(x, y float32, limit, relative bool) (float32, float32)

	// Transform returns the coordinate transform for the current surface size.
	Transform() Transform

	// SurfaceSize returns the surface size in pixels.
	SurfaceSize() (width, height int)

	// Resize changes the surface size. The texture and the last frame are dropped and recreated
	// on the next paint and present.
	Resize(width, height int)

	// DeviceLost drops the texture after the host lost its GPU device. The last frame is kept and
	// fully re-uploaded on the next present.
	DeviceLost()

	// State returns the current lifecycle state.
	State() BridgeState

	// Stats returns cumulative upload counters.
	Stats() UploadStats

	// Close releases the texture. The bridge ignores every later call. Safe to call more than once.
	Close()
}

// UploadStats counts texture uploads performed by a RenderBridge.
type UploadStats struct {
	Uploads  uint64
	Bytes    uint64
	Failures uint64
}

type renderBridge struct {
	// mu guards the frame slot and the dirty accumulator. It is never held during a copy.
	mu     *sync.Mutex
	buffer []byte
	dirty  DirtyRegion
	width  int
	height int

	// frame-copy mode: the browser writes into a spare slot while the renderer reads another.
	// stale[i] covers the rows painted since slot i was last written.
	frameCopy bool
	frames    [3][]byte
	stale     [3]common.Rect
	current   int
	busy      int

	// texMu guards the render-side resources.
	texMu   *sync.Mutex
	device  Device
	texture Texture
	staging []byte

	viewport Viewport
	format   PixelFormat
	active   atomic.Bool
	state    atomic.Int32

	pool       worker.DynamicWorkerPool
	poolSize   int
	stripeRows int

	failLog *rate.Limiter

	uploads  atomic.Uint64
	bytes    atomic.Uint64
	failures atomic.Uint64
}

var _ RenderBridge = &renderBridge{}

// NewRenderBridge creates a RenderBridge drawing through device.
//
// Parameters:
//   - device: the host renderer adapter
//   - viewport: the host render target, used by Scale
//   - options: functional options to configure the bridge
//
// Returns:
//   - RenderBridge: the bridge, active and uninitialized
func NewRenderBridge(device Device, viewport Viewport, options ...RenderBridgeBuilderOption) RenderBridge {
	b := &renderBridge{
		mu:         &sync.Mutex{},
		texMu:      &sync.Mutex{},
		dirty:      NewDirtyRegion(),
		width:      1024,
		height:     1024,
		current:    -1,
		busy:       -1,
		device:     device,
		viewport:   viewport,
		format:     PixelFormatBGRA,
		poolSize:   max(runtime.NumCPU()-1, 1),
		stripeRows: 64,
		failLog:    rate.NewLimiter(rate.Every(5*time.Second), 1),
	}
	b.active.Store(true)

	for _, opt := range options {
		opt(b)
	}

	return b
}

func (b *renderBridge) OnPaint(buffer []byte, width, height int, dirty []common.Rect) {
	if b.State() == StateDisposed {
		return
	}

	b.mu.Lock()
	w, h := b.width, b.height
	b.mu.Unlock()

	if width != w || height != h || len(buffer) < w*h*BytesPerPixel {
		if b.failLog.Allow() {
			log.Printf("[Overlay] ignoring %dx%d paint (%d bytes) for %dx%d surface", width, height, len(buffer), w, h)
		}
		return
	}

	if !b.frameCopy {
		b.mu.Lock()
		b.buffer = buffer
		for _, r := range dirty {
			b.dirty.AddRect(r)
		}
		b.mu.Unlock()
		return
	}

	surface := common.NewRect(0, 0, w, h)
	var painted common.Rect
	for _, r := range dirty {
		painted = painted.Union(r.Intersect(surface))
	}

	b.mu.Lock()
	slot := b.spareLocked()
	dst := b.frames[slot]
	rows := b.stale[slot].Union(painted)
	b.mu.Unlock()

	// Only the rows changed since the slot was last written are copied.
	size := w * h * BytesPerPixel
	if len(dst) != size {
		dst = make([]byte, size)
		rows = surface
	}
	if !rows.Empty() {
		stride := w * BytesPerPixel
		copy(dst[rows.MinY*stride:rows.MaxY*stride], buffer[rows.MinY*stride:rows.MaxY*stride])
	}

	b.mu.Lock()
	// A resize between the copy and the publish makes this frame stale.
	if b.width == w && b.height == h {
		b.frames[slot] = dst
		for i := range b.stale {
			if i == slot {
				b.stale[i] = common.Rect{}
			} else {
				b.stale[i] = b.stale[i].Union(painted)
			}
		}
		b.current = slot
		b.buffer = dst
		for _, r := range dirty {
			b.dirty.AddRect(r)
		}
	}
	b.mu.Unlock()
}

// spareLocked returns a frame slot that is neither published nor being uploaded. Caller must hold b.mu.
func (b *renderBridge) spareLocked() int {
	for i := range b.frames {
		if i != b.current && i != b.busy {
			return i
		}
	}
	return 0
}

func (b *renderBridge) OnPresent() {
	if !b.active.Load() || b.State() == StateDisposed {
		return
	}

	b.texMu.Lock()
	defer b.texMu.Unlock()

	// Close may have run while this present waited for texMu.
	if b.State() == StateDisposed {
		return
	}
	if b.texture == nil && !b.createTexture() {
		return
	}

	b.mu.Lock()
	var (
		buf    []byte
		region common.Rect
		width  = b.width
		height = b.height
	)
	if b.buffer != nil && b.dirty.HasPending() {
		buf = b.buffer
		region = b.dirty.TakeAndReset()
		b.busy = b.current
	}
	b.mu.Unlock()

	if buf != nil {
		b.state.Store(int32(StateUpdating))
		err := b.upload(buf, width, height, region)
		b.state.Store(int32(StateReady))

		b.mu.Lock()
		b.busy = -1
		if err != nil {
			b.dirty.AddRect(region)
		}
		b.mu.Unlock()

		if err != nil {
			b.failures.Add(1)
			if b.failLog.Allow() {
				log.Printf("[Overlay] upload failed, retrying next frame: %v", err)
			}
		}
	}

	if err := b.device.DrawFullscreen(b.texture); err != nil && b.failLog.Allow() {
		log.Printf("[Overlay] composite failed: %v", err)
	}
}

// createTexture creates the surface texture. Caller must hold b.texMu.
func (b *renderBridge) createTexture() bool {
	if b.State() == StateDisposed {
		return false
	}

	b.mu.Lock()
	w, h := b.width, b.height
	b.mu.Unlock()

	tex, err := b.device.CreateTexture(w, h, b.format)
	if err != nil {
		b.failures.Add(1)
		if b.failLog.Allow() {
			log.Printf("[Overlay] %v", fmt.Errorf("%w: %dx%d: %v", ErrTextureCreation, w, h, err))
		}
		return false
	}

	b.texture = tex
	b.state.Store(int32(StateReady))
	log.Printf("[Overlay] created %dx%d surface texture (%s)", w, h, humanize.Bytes(uint64(w*h*BytesPerPixel)))
	return true
}

// upload copies region of buf into the texture. Caller must hold b.texMu.
func (b *renderBridge) upload(buf []byte, width, height int, region common.Rect) error {
	region = region.Intersect(common.NewRect(0, 0, width, height))
	if region.Empty() {
		return nil
	}

	stride := width * BytesPerPixel
	rw, rh := region.Width(), region.Height()
	rowBytes := rw * BytesPerPixel
	start := region.MinY*stride + region.MinX*BytesPerPixel

	pitch := b.device.UploadPitch(rw)
	if pitch == 0 || pitch == stride {
		end := start + (rh-1)*stride + rowBytes
		if err := b.device.UpdateSubregion(b.texture, region, buf[start:end], stride); err != nil {
			return err
		}
		b.count(rh * rowBytes)
		return nil
	}
	if pitch < rowBytes {
		return fmt.Errorf("device pitch %d is smaller than the %d byte row", pitch, rowBytes)
	}

	size := pitch * rh
	if cap(b.staging) < size {
		b.staging = make([]byte, size)
	}
	staging := b.staging[:size]

	pack := func(from, to int) {
		for row := from; row < to; row++ {
			src := start + row*stride
			copy(staging[row*pitch:row*pitch+rowBytes], buf[src:src+rowBytes])
		}
	}

	if rh < 2*b.stripeRows || b.poolSize < 2 {
		pack(0, rh)
	} else {
		b.packStriped(rh, pack)
	}

	if err := b.device.UpdateSubregion(b.texture, region, staging, pitch); err != nil {
		return err
	}
	b.count(rh * rowBytes)
	return nil
}

// packStriped splits rows into stripes and packs them on the worker pool.
func (b *renderBridge) packStriped(rows int, pack func(from, to int)) {
	if b.pool == nil {
		b.pool = worker.NewDynamicWorkerPool(b.poolSize, 256, 1*time.Second)
	}

	var wg sync.WaitGroup
	taskID := 0
	for from := 0; from < rows; from += b.stripeRows {
		to := min(from+b.stripeRows, rows)
		wg.Add(1)
		id := taskID
		taskID++
		b.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				pack(from, to)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func (b *renderBridge) count(n int) {
	b.uploads.Add(1)
	b.bytes.Add(uint64(n))
}

func (b *renderBridge) SetActive(active bool) {
	b.active.Store(active)
}

func (b *renderBridge) Active() bool {
	return b.active.Load()
}

func (b *renderBridge) Pixel(x, y int) common.Color {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.buffer == nil || x < 0 || y < 0 || x >= b.width || y >= b.height {
		return common.Color{}
	}
	off := (y*b.width + x) * BytesPerPixel
	if off+BytesPerPixel > len(b.buffer) {
		return common.Color{}
	}
	return decodePixel(b.buffer, off, b.format)
}

func (b *renderBridge) Scale(x, y float32, limit, relative bool) (float32, float32) {
	return b.Transform().Scale(x, y, limit, relative)
}

func (b *renderBridge) Transform() Transform {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Transform{SurfaceWidth: b.width, SurfaceHeight: b.height, Viewport: b.viewport}
}

func (b *renderBridge) SurfaceSize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *renderBridge) Resize(width, height int) {
	if width <= 0 || height <= 0 || b.State() == StateDisposed {
		return
	}

	b.texMu.Lock()
	defer b.texMu.Unlock()
	if b.State() == StateDisposed {
		return
	}

	b.mu.Lock()
	b.width, b.height = width, height
	b.buffer = nil
	b.frames = [3][]byte{}
	b.stale = [3]common.Rect{}
	b.current, b.busy = -1, -1
	b.dirty.Reset()
	b.mu.Unlock()

	b.releaseTexture()
	b.staging = nil
}

func (b *renderBridge) DeviceLost() {
	if b.State() == StateDisposed {
		return
	}

	b.texMu.Lock()
	defer b.texMu.Unlock()
	if b.State() == StateDisposed {
		return
	}
	b.releaseTexture()

	b.mu.Lock()
	b.dirty.Add(0, 0, b.width, b.height)
	b.mu.Unlock()
}

// releaseTexture drops the texture and returns to StateUninitialized. Caller must hold b.texMu.
func (b *renderBridge) releaseTexture() {
	if b.texture != nil {
		b.texture.Release()
		b.texture = nil
	}
	b.state.Store(int32(StateUninitialized))
}

func (b *renderBridge) State() BridgeState {
	return BridgeState(b.state.Load())
}

func (b *renderBridge) Stats() UploadStats {
	return UploadStats{
		Uploads:  b.uploads.Load(),
		Bytes:    b.bytes.Load(),
		Failures: b.failures.Load(),
	}
}

func (b *renderBridge) Close() {
	b.texMu.Lock()
	defer b.texMu.Unlock()

	if b.State() == StateDisposed {
		return
	}
	b.releaseTexture()
	b.state.Store(int32(StateDisposed))

	b.mu.Lock()
	b.buffer = nil
	b.frames = [3][]byte{}
	b.dirty.Reset()
	b.mu.Unlock()

	stats := b.Stats()
	log.Printf("[Overlay] closed after %d uploads (%s)", stats.Uploads, humanize.Bytes(stats.Bytes))
}
