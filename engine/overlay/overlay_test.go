package overlay

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-html5/common"
	"github.com/Carmen-Shannon/oxy-html5/engine/camera"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTexture struct {
	w, h     int
	released int
}

func (t *fakeTexture) Width() int  { return t.w }
func (t *fakeTexture) Height() int { return t.h }
func (t *fakeTexture) Release()    { t.released++ }

type upload struct {
	region common.Rect
	data   []byte
	pitch  int
}

// fakeDevice records every call the bridge makes.
type fakeDevice struct {
	pitch      func(width int) int
	createErrs int
	uploadErrs int

	created  []*fakeTexture
	uploads  []upload
	draws    int
	lastDraw Texture
}

func (d *fakeDevice) CreateTexture(width, height int, format PixelFormat) (Texture, error) {
	if d.createErrs > 0 {
		d.createErrs--
		return nil, errors.New("out of memory")
	}
	tex := &fakeTexture{w: width, h: height}
	d.created = append(d.created, tex)
	return tex, nil
}

func (d *fakeDevice) UploadPitch(width int) int {
	if d.pitch == nil {
		return 0
	}
	return d.pitch(width)
}

func (d *fakeDevice) UpdateSubregion(tex Texture, region common.Rect, data []byte, rowPitch int) error {
	if d.uploadErrs > 0 {
		d.uploadErrs--
		return errors.New("device busy")
	}
	d.uploads = append(d.uploads, upload{region: region, data: append([]byte(nil), data...), pitch: rowPitch})
	return nil
}

func (d *fakeDevice) DrawFullscreen(tex Texture) error {
	d.draws++
	d.lastDraw = tex
	return nil
}

// gatedDevice blocks the first DrawFullscreen until gate is closed.
type gatedDevice struct {
	fakeDevice
	entered chan struct{}
	gate    chan struct{}
	once    sync.Once
}

func (d *gatedDevice) DrawFullscreen(tex Texture) error {
	d.once.Do(func() {
		close(d.entered)
		<-d.gate
	})
	return d.fakeDevice.DrawFullscreen(tex)
}

func viewport(w, h int) Viewport {
	return ViewportFunc(func() (int, int, int, int) { return 0, 0, w, h })
}

// frame returns a w*h BGRA buffer whose bytes encode their own index.
func frame(w, h int) []byte {
	buf := make([]byte, w*h*BytesPerPixel)
	for i := range buf {
		buf[i] = byte(i)
	}
	return buf
}

func full(w, h int) []common.Rect {
	return []common.Rect{common.NewRect(0, 0, w, h)}
}

func TestScaleMapsViewportCentreToSurfaceCentre(t *testing.T) {
	tr := Transform{SurfaceWidth: 1024, SurfaceHeight: 1024, Viewport: viewport(1920, 1080)}

	x, y := tr.Scale(960, 540, false, true)
	assert.Equal(t, float32(512), x)
	assert.Equal(t, float32(512), y)

	x, y = tr.Scale(0.25, 0.75, false, false)
	assert.Equal(t, float32(256), x)
	assert.Equal(t, float32(768), y)
}

func TestScaleWithLimitStaysOnSurface(t *testing.T) {
	tr := Transform{SurfaceWidth: 1024, SurfaceHeight: 512, Viewport: viewport(800, 600)}

	for _, in := range [][2]float32{{-100, -100}, {0, 0}, {400, 300}, {801, 601}, {1e6, -1e6}} {
		x, y := tr.Scale(in[0], in[1], true, true)
		assert.GreaterOrEqual(t, x, float32(0))
		assert.LessOrEqual(t, x, float32(1024))
		assert.GreaterOrEqual(t, y, float32(0))
		assert.LessOrEqual(t, y, float32(512))
	}
}

func TestScaleZeroViewportReturnsOrigin(t *testing.T) {
	tr := Transform{SurfaceWidth: 1024, SurfaceHeight: 1024, Viewport: viewport(0, 0)}
	x, y := tr.Scale(10, 10, false, true)
	assert.Zero(t, x)
	assert.Zero(t, y)

	x, y = Transform{SurfaceWidth: 1024, SurfaceHeight: 1024}.Scale(10, 10, true, true)
	assert.Zero(t, x)
	assert.Zero(t, y)
}

func TestDirtyRegionCoalescesIntoBoundingBox(t *testing.T) {
	d := NewDirtyRegion()
	assert.False(t, d.HasPending())

	d.Add(10, 10, 5, 5)
	d.Add(100, 100, 5, 5)
	require.True(t, d.HasPending())
	assert.Equal(t, common.Rect{MinX: 10, MinY: 10, MaxX: 105, MaxY: 105}, d.TakeAndReset())
	assert.False(t, d.HasPending())

	d.Add(7, 3, 1, 1)
	assert.Equal(t, common.Rect{MinX: 7, MinY: 3, MaxX: 8, MaxY: 4}, d.Bounds())
}

func TestDirtyRegionIsOrderIndependent(t *testing.T) {
	rects := []common.Rect{
		common.NewRect(5, 40, 10, 10),
		common.NewRect(60, 2, 3, 3),
		common.NewRect(0, 0, 1, 1),
	}
	a, b := NewDirtyRegion(), NewDirtyRegion()
	for i := range rects {
		a.AddRect(rects[i])
		b.AddRect(rects[len(rects)-1-i])
	}
	assert.Equal(t, a.Bounds(), b.Bounds())
	assert.Equal(t, common.Rect{MinX: 0, MinY: 0, MaxX: 63, MaxY: 50}, a.Bounds())
}

func TestInactiveBridgeDoesNothing(t *testing.T) {
	dev := &fakeDevice{}
	b := NewRenderBridge(dev, viewport(64, 64), WithSurfaceSize(4, 4), WithActive(false))

	b.OnPaint(frame(4, 4), 4, 4, full(4, 4))
	b.OnPresent()

	assert.Empty(t, dev.created)
	assert.Zero(t, dev.draws)
	assert.Equal(t, StateUninitialized, b.State())

	b.SetActive(true)
	b.OnPresent()
	assert.Len(t, dev.created, 1)
	assert.Len(t, dev.uploads, 1)
	assert.Equal(t, 1, dev.draws)
}

func TestTextureCreationFailureIsRetried(t *testing.T) {
	dev := &fakeDevice{createErrs: 1}
	b := NewRenderBridge(dev, viewport(64, 64), WithSurfaceSize(4, 4))
	b.OnPaint(frame(4, 4), 4, 4, full(4, 4))

	b.OnPresent()
	assert.Empty(t, dev.created)
	assert.Zero(t, dev.draws)
	assert.Equal(t, uint64(1), b.Stats().Failures)

	b.OnPresent()
	require.Len(t, dev.created, 1)
	assert.Equal(t, 4, dev.created[0].Width())
	assert.Len(t, dev.uploads, 1)
	assert.Equal(t, StateReady, b.State())
}

func TestDirectUploadUsesSurfaceStride(t *testing.T) {
	dev := &fakeDevice{}
	b := NewRenderBridge(dev, viewport(64, 64), WithSurfaceSize(8, 4))
	buf := frame(8, 4)

	b.OnPaint(buf, 8, 4, []common.Rect{common.NewRect(2, 1, 3, 2)})
	b.OnPresent()

	require.Len(t, dev.uploads, 1)
	up := dev.uploads[0]
	assert.Equal(t, common.NewRect(2, 1, 3, 2), up.region)
	assert.Equal(t, 8*4, up.pitch)

	start := (1*8 + 2) * 4
	assert.Equal(t, buf[start:start+8*4+3*4], up.data)
	assert.Equal(t, uint64(1), b.Stats().Uploads)

	// Nothing pending: draw only.
	b.OnPresent()
	assert.Len(t, dev.uploads, 1)
	assert.Equal(t, 2, dev.draws)
}

func TestStagedUploadPacksRows(t *testing.T) {
	dev := &fakeDevice{pitch: func(width int) int { return width*4 + 4 }}
	b := NewRenderBridge(dev, viewport(64, 64), WithSurfaceSize(8, 4), WithUploadWorkers(1))
	buf := frame(8, 4)

	b.OnPaint(buf, 8, 4, []common.Rect{common.NewRect(1, 1, 2, 3)})
	b.OnPresent()

	require.Len(t, dev.uploads, 1)
	up := dev.uploads[0]
	assert.Equal(t, 12, up.pitch)
	require.Len(t, up.data, 12*3)
	for row := 0; row < 3; row++ {
		src := ((1+row)*8 + 1) * 4
		assert.Equal(t, buf[src:src+8], up.data[row*12:row*12+8], "row %d", row)
	}
	assert.Equal(t, uint64(2*3*4), b.Stats().Bytes)
}

func TestStripedUploadMatchesSerialPacking(t *testing.T) {
	dev := &fakeDevice{pitch: func(width int) int { return (width*4 + 255) / 256 * 256 }}
	b := NewRenderBridge(dev, viewport(64, 64), WithSurfaceSize(16, 40), WithUploadWorkers(3), WithStripeRows(4))
	buf := frame(16, 40)

	b.OnPaint(buf, 16, 40, []common.Rect{common.NewRect(3, 0, 10, 40)})
	b.OnPresent()

	require.Len(t, dev.uploads, 1)
	up := dev.uploads[0]
	assert.Equal(t, 256, up.pitch)
	for row := 0; row < 40; row++ {
		src := (row*16 + 3) * 4
		require.Equal(t, buf[src:src+40], up.data[row*256:row*256+40], "row %d", row)
	}
}

func TestFailedUploadStaysPending(t *testing.T) {
	dev := &fakeDevice{uploadErrs: 1}
	b := NewRenderBridge(dev, viewport(64, 64), WithSurfaceSize(4, 4))

	b.OnPaint(frame(4, 4), 4, 4, []common.Rect{common.NewRect(1, 1, 1, 1)})
	b.OnPresent()
	assert.Empty(t, dev.uploads)
	assert.Equal(t, 1, dev.draws)

	b.OnPresent()
	require.Len(t, dev.uploads, 1)
	assert.Equal(t, common.NewRect(1, 1, 1, 1), dev.uploads[0].region)
}

func TestMismatchedPaintIsIgnored(t *testing.T) {
	dev := &fakeDevice{}
	b := NewRenderBridge(dev, viewport(64, 64), WithSurfaceSize(4, 4))

	b.OnPaint(frame(2, 2), 2, 2, full(2, 2))
	b.OnPaint(make([]byte, 3), 4, 4, full(4, 4))
	b.OnPresent()

	assert.Empty(t, dev.uploads)
	assert.Equal(t, common.Color{}, b.Pixel(0, 0))
}

func TestPixelDecodesFormat(t *testing.T) {
	buf := make([]byte, 2*2*4)
	copy(buf[4:8], []byte{10, 20, 30, 40})

	bgra := NewRenderBridge(&fakeDevice{}, viewport(1, 1), WithSurfaceSize(2, 2))
	bgra.OnPaint(buf, 2, 2, full(2, 2))
	assert.Equal(t, common.Color{R: 30, G: 20, B: 10, A: 40}, bgra.Pixel(1, 0))

	rgba := NewRenderBridge(&fakeDevice{}, viewport(1, 1), WithSurfaceSize(2, 2), WithPixelFormat(PixelFormatRGBA))
	rgba.OnPaint(buf, 2, 2, full(2, 2))
	assert.Equal(t, common.Color{R: 10, G: 20, B: 30, A: 40}, rgba.Pixel(1, 0))

	assert.Equal(t, common.Color{}, rgba.Pixel(-1, 0))
	assert.Equal(t, common.Color{}, rgba.Pixel(2, 0))
	assert.Equal(t, common.Color{}, rgba.Pixel(0, 2))
}

func TestFrameCopyDetachesFromPaintBuffer(t *testing.T) {
	dev := &fakeDevice{}
	b := NewRenderBridge(dev, viewport(1, 1), WithSurfaceSize(2, 2), WithFrameCopy(true))
	buf := make([]byte, 2*2*4)
	buf[3] = 200

	b.OnPaint(buf, 2, 2, full(2, 2))
	buf[3] = 0
	assert.Equal(t, uint8(200), b.Pixel(0, 0).A)

	b.OnPresent()
	require.Len(t, dev.uploads, 1)
	assert.Equal(t, byte(200), dev.uploads[0].data[3])

	buf[3] = 7
	b.OnPaint(buf, 2, 2, full(2, 2))
	assert.Equal(t, uint8(7), b.Pixel(0, 0).A)
}

func TestFrameCopyOnlyCopiesChangedRows(t *testing.T) {
	dev := &fakeDevice{}
	b := NewRenderBridge(dev, viewport(1, 1), WithSurfaceSize(2, 3), WithFrameCopy(true))
	fill := func(v byte) []byte { return bytes.Repeat([]byte{v}, 2*3*BytesPerPixel) }

	// The first two paints land in fresh slots and are copied whole.
	b.OnPaint(fill(1), 2, 3, full(2, 3))
	b.OnPaint(fill(2), 2, 3, []common.Rect{common.NewRect(0, 0, 2, 1)})
	assert.Equal(t, uint8(2), b.Pixel(1, 2).A)

	// The third reuses the first slot: rows painted since it was written are refreshed, the rest
	// keeps the slot's previous contents.
	b.OnPaint(fill(3), 2, 3, []common.Rect{common.NewRect(0, 1, 2, 1)})
	assert.Equal(t, uint8(3), b.Pixel(0, 0).A)
	assert.Equal(t, uint8(3), b.Pixel(1, 1).A)
	assert.Equal(t, uint8(1), b.Pixel(0, 2).A)
}

func TestDeviceLostReuploadsEverything(t *testing.T) {
	dev := &fakeDevice{}
	b := NewRenderBridge(dev, viewport(1, 1), WithSurfaceSize(4, 4))
	b.OnPaint(frame(4, 4), 4, 4, []common.Rect{common.NewRect(0, 0, 1, 1)})
	b.OnPresent()

	b.DeviceLost()
	assert.Equal(t, 1, dev.created[0].released)
	assert.Equal(t, StateUninitialized, b.State())

	b.OnPresent()
	require.Len(t, dev.created, 2)
	require.Len(t, dev.uploads, 2)
	assert.Equal(t, common.NewRect(0, 0, 4, 4), dev.uploads[1].region)
	assert.Same(t, dev.created[1], dev.lastDraw)
}

func TestResizeDropsFrameAndTexture(t *testing.T) {
	dev := &fakeDevice{}
	b := NewRenderBridge(dev, viewport(1, 1), WithSurfaceSize(4, 4))
	b.OnPaint(frame(4, 4), 4, 4, full(4, 4))
	b.OnPresent()

	b.Resize(8, 2)
	w, h := b.SurfaceSize()
	assert.Equal(t, 8, w)
	assert.Equal(t, 2, h)
	assert.Equal(t, common.Color{}, b.Pixel(1, 1))
	assert.Equal(t, 1, dev.created[0].released)

	b.OnPaint(frame(4, 4), 4, 4, full(4, 4))
	b.OnPresent()
	require.Len(t, dev.created, 2)
	assert.Equal(t, 8, dev.created[1].Width())
	assert.Len(t, dev.uploads, 1)
}

func TestCloseIsTerminalAndIdempotent(t *testing.T) {
	dev := &fakeDevice{}
	b := NewRenderBridge(dev, viewport(1, 1), WithSurfaceSize(4, 4))
	b.OnPaint(frame(4, 4), 4, 4, full(4, 4))
	b.OnPresent()

	b.Close()
	b.Close()
	assert.Equal(t, StateDisposed, b.State())
	assert.Equal(t, 1, dev.created[0].released)

	b.OnPaint(frame(4, 4), 4, 4, full(4, 4))
	b.OnPresent()
	assert.Equal(t, 1, dev.draws)
	assert.Equal(t, common.Color{}, b.Pixel(0, 0))
}

func TestCloseDuringPresentStaysDisposed(t *testing.T) {
	dev := &gatedDevice{entered: make(chan struct{}), gate: make(chan struct{})}
	b := NewRenderBridge(dev, viewport(1, 1), WithSurfaceSize(4, 4))
	b.OnPaint(frame(4, 4), 4, 4, full(4, 4))

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		b.OnPresent()
	}()
	<-dev.entered

	go func() {
		defer wg.Done()
		b.Close()
	}()
	time.Sleep(20 * time.Millisecond)
	go func() {
		defer wg.Done()
		b.OnPresent()
	}()
	time.Sleep(20 * time.Millisecond)

	close(dev.gate)
	wg.Wait()

	assert.Equal(t, StateDisposed, b.State())
	require.Len(t, dev.created, 1)
	assert.Equal(t, 1, dev.created[0].released)

	b.Resize(8, 8)
	b.DeviceLost()
	b.OnPresent()
	assert.Equal(t, StateDisposed, b.State())
	assert.Len(t, dev.created, 1)
}

func TestWorldToScreenProjectsTargetToCentre(t *testing.T) {
	cam := camera.NewCamera(camera.WithController(camera.NewOrbitController(camera.WithRadius(10), camera.WithAngles(0, 0))))
	b := NewRenderBridge(&fakeDevice{}, viewport(1920, 1080), WithSurfaceSize(1024, 1024))
	p := NewProjector(b)

	pos, ok := p.WorldToScreen(cam, common.Vec3{}, common.Vec3{})
	require.True(t, ok)
	assert.InDelta(t, 512, pos.X, 1e-2)
	assert.InDelta(t, 512, pos.Y, 1e-2)
	assert.InDelta(t, 10, pos.Z, 1e-4)

	right, ok := p.WorldToScreen(cam, common.Vec3{X: 1}, common.Vec3{})
	require.True(t, ok)
	assert.Greater(t, right.X, float32(512))

	raised, ok := p.WorldToScreen(cam, common.Vec3{}, common.Vec3{Z: 1})
	require.True(t, ok)
	assert.Less(t, raised.Y, float32(512))
}

func TestWorldToScreenOffsetIgnoresCameraTilt(t *testing.T) {
	cam := camera.NewCamera(
		camera.WithUp(common.Vec3{X: 1, Y: 1, Z: 0}),
		camera.WithController(camera.NewOrbitController(camera.WithRadius(10), camera.WithAngles(0, 0))),
	)
	p := NewProjector(NewRenderBridge(&fakeDevice{}, viewport(1920, 1080), WithSurfaceSize(1024, 1024)))

	raised, ok := p.WorldToScreen(cam, common.Vec3{}, common.Vec3{Z: 2})
	require.True(t, ok)
	above, ok := p.WorldToScreen(cam, common.Vec3{Y: 2}, common.Vec3{})
	require.True(t, ok)
	assert.InDelta(t, above.X, raised.X, 1e-3)
	assert.InDelta(t, above.Y, raised.Y, 1e-3)
}

func TestWorldToScreenFailures(t *testing.T) {
	b := NewRenderBridge(&fakeDevice{}, viewport(640, 480), WithSurfaceSize(256, 256))
	p := NewProjector(b)

	_, ok := p.WorldToScreen(camera.NewCamera(), common.Vec3{}, common.Vec3{})
	assert.False(t, ok, "no controller")

	cam := camera.NewCamera(camera.WithController(camera.NewOrbitController(camera.WithRadius(10), camera.WithAngles(0, 0))))
	_, ok = p.WorldToScreen(cam, cam.Position(), common.Vec3{})
	assert.False(t, ok, "w == 0 at the eye")

	_, ok = NewProjector(NewRenderBridge(&fakeDevice{}, viewport(0, 0))).WorldToScreen(cam, common.Vec3{}, common.Vec3{})
	assert.False(t, ok, "no render target")

	_, ok = (&Projector{}).WorldToScreen(cam, common.Vec3{}, common.Vec3{})
	assert.False(t, ok, "no surface")
}
