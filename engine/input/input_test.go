package input

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-html5/common"
	"github.com/Carmen-Shannon/oxy-html5/engine/browser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

type click struct {
	ev     browser.MouseEvent
	button browser.MouseButton
	up     bool
	count  int
}

type wheel struct {
	ev     browser.MouseEvent
	dx, dy int
}

// recordingHost captures everything dispatched to the browser.
type recordingHost struct {
	moves  []browser.MouseEvent
	clicks []click
	wheels []wheel
	keys   []browser.KeyEvent
	focus  []bool
	sent   []bool
}

func (h *recordingHost) SendMouseMoveEvent(ev browser.MouseEvent, mouseLeave bool) {
	h.moves = append(h.moves, ev)
}

func (h *recordingHost) SendMouseClickEvent(ev browser.MouseEvent, button browser.MouseButton, mouseUp bool, clickCount int) {
	h.clicks = append(h.clicks, click{ev: ev, button: button, up: mouseUp, count: clickCount})
}

func (h *recordingHost) SendMouseWheelEvent(ev browser.MouseEvent, dx, dy int) {
	h.wheels = append(h.wheels, wheel{ev: ev, dx: dx, dy: dy})
}

func (h *recordingHost) SendKeyEvent(ev browser.KeyEvent) { h.keys = append(h.keys, ev) }
func (h *recordingHost) SetFocus(focus bool)              { h.focus = append(h.focus, focus) }
func (h *recordingHost) SendFocusEvent(focus bool)        { h.sent = append(h.sent, focus) }

type fakeCursor struct {
	x, y float32
	ok   bool
	sets int
}

func (c *fakeCursor) CursorPosition() (float32, float32, bool) { return c.x, c.y, c.ok }
func (c *fakeCursor) SetCursorPosition(x, y float32) {
	c.x, c.y = x, y
	c.sets++
}

type counter struct{ acquired, released int }

func (c *counter) AcquireCursor() { c.acquired++ }
func (c *counter) ReleaseCursor() { c.released++ }

type console bool

func (c console) ConsoleOpen() bool { return bool(c) }

type halfScaler struct{}

func (halfScaler) Scale(x, y float32, limit, relative bool) (float32, float32) {
	return x / 2, y / 2
}

func press(key KeyID, char byte) DeviceEvent {
	return DeviceEvent{Device: DeviceKeyboard, Key: key, State: StatePressed, Char: char}
}

func TestQueueDrainsInOrderAndReuses(t *testing.T) {
	q := NewQueue()
	q.Push(Scroll(1))
	q.Push(Scroll(2))
	q.Push(Scroll(3))
	assert.Equal(t, 3, q.Len())

	got := q.DrainAll()
	require.Len(t, got, 3)
	for i, ev := range got {
		assert.Equal(t, i+1, ev.Delta)
	}
	assert.Zero(t, q.Len())
	assert.Empty(t, q.DrainAll())

	q.Push(Scroll(4))
	assert.Equal(t, []Event{Scroll(4)}, q.DrainAll())
}

func TestQueuePreservesPerProducerOrder(t *testing.T) {
	q := NewQueue()
	const producers, perProducer = 4, 500

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(Event{Kind: KindScroll, X: p, Delta: i})
			}
		}()
	}
	wg.Wait()

	events := q.DrainAll()
	require.Len(t, events, producers*perProducer)
	next := make([]int, producers)
	for _, ev := range events {
		require.Equal(t, next[ev.X], ev.Delta, "producer %d out of order", ev.X)
		next[ev.X]++
	}
}

func TestSetModePairsReservation(t *testing.T) {
	c := &counter{}
	b := NewBridge(WithCursorReservation(c))

	b.SetMode(3, true)
	b.SetMode(3, true)
	assert.Equal(t, 1, c.acquired)
	assert.Zero(t, c.released)

	b.SetMode(1, false)
	assert.Equal(t, 1, c.acquired)
	assert.Equal(t, 1, c.released)
	assert.Equal(t, Mode{Level: 1, Exclusive: false}, b.Mode())

	b.SetMode(9, true)
	assert.Equal(t, LevelCursor, b.Mode().Level)
	b.Close()
	assert.Equal(t, 2, c.acquired)
	assert.Equal(t, 2, c.released)
}

func TestSetModeWithoutReservationIsNoop(t *testing.T) {
	b := NewBridge()
	b.SetMode(3, true)
	b.SetMode(0, true)
	assert.Equal(t, LevelNone, b.Mode().Level)
}

func TestFocusLostClearsButtons(t *testing.T) {
	b := NewBridge()
	b.SetMode(2, true)
	host := &recordingHost{}

	b.OnDeviceEvent(DeviceEvent{Device: DeviceMouse, Key: KeyMouse1, State: StatePressed})
	b.OnDeviceEvent(DeviceEvent{Device: DeviceMouse, Key: KeyMouse2, State: StatePressed})
	b.OnDeviceEvent(DeviceEvent{Device: DeviceGamepad, Key: KeyPadY, State: StatePressed})
	b.Drain(host)

	l, m, r := b.Buttons()
	require.True(t, l && m && r)
	last := host.clicks[len(host.clicks)-1]
	assert.Equal(t, browser.FlagLeftMouseButton|browser.FlagMiddleMouseButton|browser.FlagRightMouseButton, last.ev.Modifiers)

	b.OnFocus(false)
	b.Drain(host)
	l, m, r = b.Buttons()
	assert.False(t, l || m || r)
	assert.Equal(t, []bool{false}, host.focus)
	assert.Equal(t, []bool{false}, host.sent)

	b.OnFocus(true)
	b.Drain(host)
	assert.Equal(t, []bool{false, true}, host.focus)
}

func TestButtonMapping(t *testing.T) {
	cases := []struct {
		key    KeyID
		device Device
		button browser.MouseButton
	}{
		{KeyMouse1, DeviceMouse, browser.MouseButtonLeft},
		{KeyPadA, DeviceGamepad, browser.MouseButtonLeft},
		{KeyPadX, DeviceGamepad, browser.MouseButtonLeft},
		{KeyPadThumbL, DeviceGamepad, browser.MouseButtonLeft},
		{KeyMouse2, DeviceMouse, browser.MouseButtonRight},
		{KeyPadB, DeviceGamepad, browser.MouseButtonRight},
		{KeyPadThumbR, DeviceGamepad, browser.MouseButtonRight},
		{KeyMouse3, DeviceMouse, browser.MouseButtonMiddle},
		{KeyPadY, DeviceGamepad, browser.MouseButtonMiddle},
	}
	for _, tc := range cases {
		b := NewBridge()
		b.SetMode(2, true)
		host := &recordingHost{}

		b.OnDeviceEvent(DeviceEvent{Device: tc.device, Key: tc.key, State: StatePressed})
		b.OnDeviceEvent(DeviceEvent{Device: tc.device, Key: tc.key, State: StateDown})
		b.OnDeviceEvent(DeviceEvent{Device: tc.device, Key: tc.key, State: StateReleased})
		b.Drain(host)

		require.Len(t, host.clicks, 2, "key %d", tc.key)
		assert.Equal(t, tc.button, host.clicks[0].button)
		assert.False(t, host.clicks[0].up)
		assert.True(t, host.clicks[1].up)
		assert.Equal(t, 1, host.clicks[1].count)
	}
}

func TestPrintableKeyProducesTextChar(t *testing.T) {
	b := NewBridge()
	b.SetMode(1, true)
	host := &recordingHost{}

	assert.True(t, b.OnDeviceEvent(press(KeyOther, 'a')))
	b.Drain(host)

	require.Len(t, host.keys, 2)
	assert.Equal(t, browser.KeyEventKeyDown, host.keys[0].Type)
	assert.Equal(t, 'A', rune(host.keys[0].WindowsKeyCode))
	assert.Equal(t, browser.KeyEventChar, host.keys[1].Type)
	assert.Equal(t, uint16('a'), host.keys[1].Character)
}

func TestNavigationKeysNeverProduceTextChar(t *testing.T) {
	for _, key := range []KeyID{KeyBackspace, KeyLShift, KeyRCtrl, KeyLAlt, KeyEscape, KeyArrowLeft, KeyArrowDown, KeyInsert, KeyDelete} {
		b := NewBridge()
		b.SetMode(1, true)
		host := &recordingHost{}

		b.OnDeviceEvent(press(key, 0))
		b.Drain(host)

		require.Len(t, host.keys, 1, "key %d", key)
		assert.Equal(t, browser.KeyEventKeyDown, host.keys[0].Type)
		assert.Equal(t, specialKeys[key].vk, host.keys[0].WindowsKeyCode)
	}
}

func TestTabAndEnterProduceTextChar(t *testing.T) {
	b := NewBridge()
	b.SetMode(1, true)
	host := &recordingHost{}

	b.OnDeviceEvent(press(KeyEnter, 0))
	b.OnDeviceEvent(press(KeyTab, 0))
	b.Drain(host)

	require.Len(t, host.keys, 4)
	assert.Equal(t, common.VKReturn, host.keys[0].WindowsKeyCode)
	assert.Equal(t, uint16('\r'), host.keys[1].Character)
	assert.Equal(t, uint16('\t'), host.keys[3].Character)
}

func TestCodePageDecoding(t *testing.T) {
	b := NewBridge()
	b.SetMode(1, true)
	host := &recordingHost{}

	b.OnDeviceEvent(press(KeyOther, 0xE9))
	b.OnDeviceEvent(press(KeyOther, 0x80))
	b.Drain(host)

	require.Len(t, host.keys, 4)
	assert.Equal(t, uint16(0x00E9), host.keys[1].Character)
	assert.Equal(t, uint16(0x20AC), host.keys[3].Character)

	cyrillic := NewBridge(WithCodePage(charmap.Windows1251))
	cyrillic.SetMode(1, true)
	host = &recordingHost{}
	cyrillic.OnDeviceEvent(press(KeyOther, 0xC0))
	cyrillic.Drain(host)
	require.Len(t, host.keys, 2)
	assert.Equal(t, uint16(0x0410), host.keys[1].Character)
}

func TestHostRuneBypassesCodePage(t *testing.T) {
	b := NewBridge()
	b.SetMode(1, true)
	host := &recordingHost{}

	ev := press(KeyOther, '?')
	ev.Rune = '日'
	b.OnDeviceEvent(ev)
	b.Drain(host)

	require.Len(t, host.keys, 2)
	assert.Equal(t, uint16('日'), host.keys[1].Character)
}

func TestKeyReleaseHasNoTextChar(t *testing.T) {
	b := NewBridge()
	b.SetMode(1, true)
	host := &recordingHost{}

	b.OnDeviceEvent(DeviceEvent{Device: DeviceKeyboard, Key: KeyOther, State: StateReleased, Char: 'x', Modifiers: ModLShift})
	b.Drain(host)

	require.Len(t, host.keys, 1)
	assert.Equal(t, browser.KeyEventKeyUp, host.keys[0].Type)
	assert.Equal(t, browser.FlagShiftDown|browser.FlagIsLeft, host.keys[0].Modifiers)
}

func TestModeGating(t *testing.T) {
	b := NewBridge()

	assert.True(t, b.OnDeviceEvent(press(KeyOther, 'a')))
	assert.Zero(t, b.Pending())

	b.SetMode(1, false)
	assert.False(t, b.OnDeviceEvent(DeviceEvent{Device: DeviceMouse, Key: KeyMouse1, State: StatePressed}))
	assert.Zero(t, b.Pending())

	b.SetMode(2, true)
	b.OnHardwareMouse(5, 5, HardwareMouseLeftDown, 0)
	assert.Zero(t, b.Pending())
}

func TestConsoleAndInactiveSuppressInput(t *testing.T) {
	b := NewBridge(WithConsole(console(true)))
	b.SetMode(2, true)
	assert.False(t, b.OnDeviceEvent(press(KeyOther, 'a')))
	assert.Zero(t, b.Pending())

	b = NewBridge()
	b.SetMode(3, true)
	b.SetActive(false)
	assert.False(t, b.OnDeviceEvent(press(KeyOther, 'a')))
	b.OnHardwareMouse(1, 1, HardwareMouseLeftDown, 0)
	assert.Zero(t, b.Pending())
}

func TestRelativeMouseAxesStartFromHostCursor(t *testing.T) {
	cur := &fakeCursor{x: 100, y: 50, ok: true}
	b := NewBridge(WithCursor(cur))
	b.SetMode(2, true)
	host := &recordingHost{}

	b.OnDeviceEvent(DeviceEvent{Device: DeviceMouse, Key: KeyMouseX, State: StateChanged, Value: 10})
	b.OnDeviceEvent(DeviceEvent{Device: DeviceMouse, Key: KeyMouseY, State: StateChanged, Value: -5})
	b.Drain(host)

	require.Len(t, host.moves, 2)
	assert.Equal(t, browser.MouseEvent{X: 110, Y: 50}, host.moves[0])
	assert.Equal(t, browser.MouseEvent{X: 100, Y: 45}, host.moves[1])
	x, y := b.CursorPosition()
	assert.Equal(t, float32(100), x)
	assert.Equal(t, float32(45), y)
}

func TestStickEmulationMovesCursor(t *testing.T) {
	cur := &fakeCursor{x: 200, y: 200, ok: true}
	b := NewBridge(WithCursor(cur))
	b.SetMode(2, true)
	host := &recordingHost{}

	b.OnDeviceEvent(DeviceEvent{Device: DeviceGamepad, Key: KeyPadThumbLX, State: StateChanged, Value: 0.5})
	b.OnDeviceEvent(DeviceEvent{Device: DeviceGamepad, Key: KeyPadThumbLY, State: StateChanged, Value: 1})
	b.Tick(0.1, host)

	assert.Equal(t, 1, cur.sets)
	assert.InDelta(t, 225, cur.x, 1e-3)
	assert.InDelta(t, 150, cur.y, 1e-3)
	require.Len(t, host.moves, 1)
	assert.Equal(t, browser.MouseEvent{X: 225, Y: 150}, host.moves[0])

	// A relative mouse axis cancels emulation on that axis only.
	b.OnDeviceEvent(DeviceEvent{Device: DeviceMouse, Key: KeyMouseX, State: StateChanged, Value: 0})
	b.Tick(0.1, host)
	assert.InDelta(t, 225, cur.x, 1e-3)
	assert.InDelta(t, 100, cur.y, 1e-3)
}

func TestInactiveTickLeavesCursorAndQueue(t *testing.T) {
	cur := &fakeCursor{x: 100, y: 100, ok: true}
	b := NewBridge(WithCursor(cur))
	b.SetMode(2, true)
	host := &recordingHost{}

	b.OnDeviceEvent(DeviceEvent{Device: DeviceGamepad, Key: KeyPadThumbLX, State: StateChanged, Value: 1})
	b.OnFocus(false)
	b.SetActive(false)
	for range 3 {
		b.Tick(0.1, host)
	}
	b.Emulate(0.1)

	assert.Zero(t, cur.sets)
	assert.Equal(t, float32(100), cur.x)
	assert.Empty(t, host.moves)
	assert.Empty(t, host.focus)
	assert.Equal(t, 1, b.Pending())

	b.SetActive(true)
	b.Tick(0.1, host)
	assert.Equal(t, 1, cur.sets)
	assert.InDelta(t, 150, cur.x, 1e-3)
	assert.Len(t, host.moves, 1)
}

func TestStickInsideDeadZoneIsIdle(t *testing.T) {
	cur := &fakeCursor{ok: true}
	b := NewBridge(WithCursor(cur))
	b.SetMode(2, true)

	b.OnDeviceEvent(DeviceEvent{Device: DeviceGamepad, Key: KeyPadThumbLX, State: StateChanged, Value: 0.005})
	b.Emulate(1)
	assert.Zero(t, cur.sets)
	assert.Zero(t, b.Pending())
}

func TestWheelAndDPadScrollOnPress(t *testing.T) {
	b := NewBridge()
	b.SetMode(2, true)
	host := &recordingHost{}

	b.OnDeviceEvent(DeviceEvent{Device: DeviceMouse, Key: KeyMouseWheelUp, State: StatePressed})
	b.OnDeviceEvent(DeviceEvent{Device: DeviceMouse, Key: KeyMouseWheelUp, State: StateReleased})
	b.OnDeviceEvent(DeviceEvent{Device: DeviceGamepad, Key: KeyPadDPadDown, State: StatePressed})
	b.Drain(host)

	require.Len(t, host.wheels, 2)
	assert.Equal(t, 50, host.wheels[0].dy)
	assert.Zero(t, host.wheels[0].dx)
	assert.Equal(t, -50, host.wheels[1].dy)
}

func TestHardwareMouseAtCursorLevel(t *testing.T) {
	b := NewBridge(WithScaler(halfScaler{}))
	b.SetMode(3, true)
	host := &recordingHost{}

	b.OnHardwareMouse(40, 20, HardwareMouseRightDown, 0)
	b.OnHardwareMouse(40, 20, HardwareMouseLeftDoubleClick, 0)
	b.OnHardwareMouse(40, 20, HardwareMouseWheel, -120)
	b.Drain(host)

	require.Len(t, host.moves, 3)
	assert.Equal(t, browser.MouseEvent{X: 20, Y: 10}, host.moves[0])
	require.Len(t, host.clicks, 2)
	assert.Equal(t, click{ev: browser.MouseEvent{X: 20, Y: 10, Modifiers: browser.FlagRightMouseButton}, button: browser.MouseButtonRight, count: 1}, host.clicks[0])
	assert.Equal(t, 2, host.clicks[1].count)
	assert.Equal(t, browser.MouseButtonLeft, host.clicks[1].button)

	_, _, right := b.Buttons()
	assert.True(t, right)
	left, _, _ := b.Buttons()
	assert.False(t, left, "double click leaves state alone")
	require.Len(t, host.wheels, 1)
	assert.Equal(t, -120, host.wheels[0].dy)
}

func TestActivateOnlyReportsDeactivation(t *testing.T) {
	b := NewBridge()
	b.OnActivate(true)
	assert.Zero(t, b.Pending())
	b.OnActivate(false)
	assert.Equal(t, 1, b.Pending())
}

func TestDrainWithoutTargetStillUpdatesState(t *testing.T) {
	b := NewBridge()
	b.SetMode(3, true)
	b.OnHardwareMouse(7, 9, HardwareMouseLeftDown, 0)
	b.Drain(nil)

	left, _, _ := b.Buttons()
	assert.True(t, left)
	x, y := b.CursorPosition()
	assert.Equal(t, float32(7), x)
	assert.Equal(t, float32(9), y)
	assert.Zero(t, b.Pending())
}
