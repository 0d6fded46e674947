package ebitenhost

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-html5/common"
	"github.com/Carmen-Shannon/oxy-html5/engine/input"
	"github.com/Carmen-Shannon/oxy-html5/engine/overlay"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hardwareCall struct {
	x, y  int
	ev    input.HardwareMouseEvent
	wheel int
}

type recorder struct {
	devices  []input.DeviceEvent
	hardware []hardwareCall
	focus    []bool
}

func newRecordingDispatcher() (*dispatcher, *recorder) {
	r := &recorder{}
	d := &dispatcher{
		device: func(ev input.DeviceEvent) {
			r.devices = append(r.devices, ev)
		},
		hardware: func(x, y int, ev input.HardwareMouseEvent, wheelDelta int) {
			r.hardware = append(r.hardware, hardwareCall{x, y, ev, wheelDelta})
		},
		focus: func(focused bool) {
			r.focus = append(r.focus, focused)
		},
	}
	return d, r
}

func TestSwizzleBGRA(t *testing.T) {
	src := []byte{1, 2, 3, 4, 10, 20, 30, 40}
	dst := swizzleBGRA(nil, src)
	assert.Equal(t, []byte{3, 2, 1, 4, 30, 20, 10, 40}, dst)

	// The destination buffer is reused when large enough.
	again := swizzleBGRA(dst, src[:4])
	assert.Equal(t, []byte{3, 2, 1, 4}, again)
	assert.Equal(t, &dst[0], &again[0])
}

func TestLayoutSetsViewport(t *testing.T) {
	h := NewHost()
	w, ht := h.Layout(1280, 720)
	assert.Equal(t, 1280, w)
	assert.Equal(t, 720, ht)

	x, y, vw, vh := h.ViewportSize()
	assert.Equal(t, [4]int{0, 0, 1280, 720}, [4]int{x, y, vw, vh})
}

func TestUploadPitchIsTight(t *testing.T) {
	h := NewHost()
	assert.Equal(t, 40, h.UploadPitch(10))
}

func TestUpdateSubregionValidates(t *testing.T) {
	h := NewHost()
	tex := &ebitenTexture{width: 16, height: 16, format: overlay.PixelFormatBGRA}
	region := common.Rect{MinX: 2, MinY: 2, MaxX: 6, MaxY: 4}

	assert.ErrorIs(t, h.UpdateSubregion(nil, region, nil, 16), ErrForeignTexture)
	assert.Error(t, h.UpdateSubregion(tex, common.Rect{MaxX: 17, MaxY: 1}, make([]byte, 68), 68))
	assert.Error(t, h.UpdateSubregion(tex, region, make([]byte, 64), 64), "pitch must be tight")
	assert.Error(t, h.UpdateSubregion(tex, region, make([]byte, 31), 16), "short data")
	assert.ErrorIs(t, h.UpdateSubregion(tex, region, make([]byte, 32), 16), ErrForeignTexture, "released image")
}

func TestDrawFullscreenOutsideDraw(t *testing.T) {
	h := NewHost()
	assert.ErrorIs(t, h.DrawFullscreen(nil), ErrForeignTexture)
}

func TestCreateTextureRejectsEmpty(t *testing.T) {
	h := NewHost()
	_, err := h.CreateTexture(0, 10, overlay.PixelFormatRGBA)
	assert.Error(t, err)
}

func TestCursorReservation(t *testing.T) {
	h := NewHost(WithIdleCursorMode(ebiten.CursorModeCaptured)).(*hostImpl)
	assert.True(t, h.modeDirty, "captured idle mode must be applied on the first update")

	h.trackCursor(5, 6)
	_, _, ok := h.CursorPosition()
	assert.False(t, ok)

	h.AcquireCursor()
	h.AcquireCursor()
	x, y, ok := h.CursorPosition()
	require.True(t, ok)
	assert.Equal(t, float32(5), x)
	assert.Equal(t, float32(6), y)

	h.mu.Lock()
	assert.Equal(t, ebiten.CursorModeVisible, h.wantedMode())
	h.mu.Unlock()

	h.ReleaseCursor()
	h.ReleaseCursor()
	h.ReleaseCursor()
	assert.False(t, h.reserved())

	h.mu.Lock()
	assert.Equal(t, 0, h.reservations)
	assert.Equal(t, ebiten.CursorModeCaptured, h.wantedMode())
	h.mu.Unlock()
}

func TestDispatchKeysPairsCharacters(t *testing.T) {
	d, r := newRecordingDispatcher()
	d.dispatch(&snapshot{
		pressed: []ebiten.Key{ebiten.KeyShiftLeft, ebiten.KeyA, ebiten.KeyDigit1},
		chars:   []rune{'A', '!'},
		mods:    input.ModLShift,
	}, false, time.Now())

	require.Len(t, r.devices, 3)
	assert.Equal(t, input.KeyLShift, r.devices[0].Key)
	assert.Equal(t, input.KeyOther, r.devices[1].Key)
	assert.Equal(t, byte('a'), r.devices[1].Char)
	assert.Equal(t, 'A', r.devices[1].Rune)
	assert.Equal(t, byte('1'), r.devices[2].Char)
	assert.Equal(t, '!', r.devices[2].Rune)
	assert.Equal(t, input.ModLShift, r.devices[2].Modifiers)

	r.devices = nil
	d.dispatch(&snapshot{released: []ebiten.Key{ebiten.KeyA, ebiten.KeyF5}}, false, time.Now())
	require.Len(t, r.devices, 1)
	assert.Equal(t, input.StateReleased, r.devices[0].State)
	assert.Equal(t, byte('a'), r.devices[0].Char)
	assert.Zero(t, r.devices[0].Rune)
}

func TestDispatchRelativeMouse(t *testing.T) {
	d, r := newRecordingDispatcher()
	now := time.Now()

	// The first snapshot only establishes the origin.
	d.dispatch(&snapshot{x: 100, y: 100}, false, now)
	assert.Empty(t, r.devices)

	s := &snapshot{x: 110, y: 95, wheel: 1}
	s.buttons[0] = true
	d.dispatch(s, false, now)

	require.Len(t, r.devices, 5)
	assert.Equal(t, input.KeyMouseX, r.devices[0].Key)
	assert.Equal(t, float32(10), r.devices[0].Value)
	assert.Equal(t, input.KeyMouseY, r.devices[1].Key)
	assert.Equal(t, float32(-5), r.devices[1].Value)
	assert.Equal(t, input.KeyMouse1, r.devices[2].Key)
	assert.Equal(t, input.StatePressed, r.devices[2].State)
	assert.Equal(t, input.KeyMouseWheelUp, r.devices[3].Key)
	assert.Equal(t, input.StateReleased, r.devices[4].State)
	assert.Empty(t, r.hardware)
}

func TestDispatchHardwareMouse(t *testing.T) {
	d, r := newRecordingDispatcher()
	now := time.Now()

	d.dispatch(&snapshot{x: 40, y: 50}, true, now)
	require.Len(t, r.hardware, 1)
	assert.Equal(t, hardwareCall{40, 50, input.HardwareMouseMove, 0}, r.hardware[0])

	down := &snapshot{x: 40, y: 50}
	down.buttons[0] = true
	up := &snapshot{x: 40, y: 50}

	d.dispatch(down, true, now)
	d.dispatch(up, true, now.Add(50*time.Millisecond))
	d.dispatch(down, true, now.Add(100*time.Millisecond))
	d.dispatch(&snapshot{x: 40, y: 50, wheel: -1}, true, now.Add(150*time.Millisecond))

	require.Len(t, r.hardware, 6)
	assert.Equal(t, input.HardwareMouseLeftDown, r.hardware[1].ev)
	assert.Equal(t, input.HardwareMouseLeftUp, r.hardware[2].ev)
	assert.Equal(t, input.HardwareMouseLeftDoubleClick, r.hardware[3].ev)
	assert.Equal(t, input.HardwareMouseLeftUp, r.hardware[4].ev)
	assert.Equal(t, hardwareCall{40, 50, input.HardwareMouseWheel, -120}, r.hardware[5])
	assert.Empty(t, r.devices)
}

func TestDispatchGamepadAndFocus(t *testing.T) {
	d, r := newRecordingDispatcher()
	d.dispatch(&snapshot{focused: true}, false, time.Now())
	assert.Empty(t, r.focus)

	s := &snapshot{focused: false}
	s.pad.leftY = 0.5
	s.pad.buttons[6] = true
	d.dispatch(s, false, time.Now())

	assert.Equal(t, []bool{false}, r.focus)
	require.Len(t, r.devices, 2)
	assert.Equal(t, input.KeyPadThumbLY, r.devices[0].Key)
	assert.Equal(t, float32(0.5), r.devices[0].Value)
	assert.Equal(t, input.KeyPadDPadUp, r.devices[1].Key)
	assert.Equal(t, input.StatePressed, r.devices[1].State)
}

type fakeOverlay struct {
	updates  int
	presents int
	bridge   input.Bridge
}

func (o *fakeOverlay) Update(dt float32)         { o.updates++ }
func (o *fakeOverlay) Present()                  { o.presents++ }
func (o *fakeOverlay) InputBridge() input.Bridge { return o.bridge }

func TestDeviceEventsReachBridge(t *testing.T) {
	h := NewHost().(*hostImpl)
	bridge := input.NewBridge()
	bridge.SetMode(1, true)
	h.Attach(&fakeOverlay{bridge: bridge})

	h.input.dispatch(&snapshot{pressed: []ebiten.Key{ebiten.KeyEnter}}, false, time.Now())
	assert.Equal(t, 2, bridge.Pending(), "key down and the typed carriage return")

	h.Attach(nil)
	h.input.dispatch(&snapshot{pressed: []ebiten.Key{ebiten.KeyEnter}}, false, time.Now())
	assert.Equal(t, 2, bridge.Pending())
}
