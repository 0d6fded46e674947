package browser

import (
	"bytes"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-html5/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memResource struct {
	status int
	mime   string
	r      *bytes.Reader
}

func (m *memResource) Status() int                { return m.status }
func (m *memResource) MimeType() string           { return m.mime }
func (m *memResource) Size() int64                { return m.r.Size() }
func (m *memResource) Read(p []byte) (int, error) { return m.r.Read(p) }
func (m *memResource) Cancel()                    {}

func memScheme(pages map[string]string) SchemeHandlerFactory {
	return SchemeHandlerFunc(func(url string) (ResourceHandler, error) {
		body, ok := pages[url]
		if !ok {
			return &memResource{status: 404, mime: "text/html", r: bytes.NewReader(nil)}, nil
		}
		return &memResource{status: 200, mime: "text/html", r: bytes.NewReader([]byte(body))}, nil
	})
}

// paintRecorder collects frames delivered by the message loop.
type paintRecorder struct {
	mu     sync.Mutex
	frames int
	last   []common.Rect
	pixels []byte
}

func (r *paintRecorder) OnPaint(buffer []byte, width, height int, dirty []common.Rect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames++
	r.last = append([]common.Rect(nil), dirty...)
	r.pixels = append(r.pixels[:0], buffer...)
}

func (r *paintRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func newTestEngine(t *testing.T) Engine {
	t.Helper()
	e := NewSoftwareEngine()
	require.NoError(t, e.Initialize(Settings{RemoteDebuggingPort: 8012, TransparentPainting: true}))
	require.NoError(t, e.RegisterSchemeHandlerFactory("app", memScheme(map[string]string{
		"app://ui/index.html": "<html><title>Menu</title><body><p>Start</p><script>var x;</script></body></html>",
		"app://ui/next.html":  "next page",
	})))
	t.Cleanup(e.Shutdown)
	return e
}

func TestCreateBrowserRequiresInitialize(t *testing.T) {
	e := NewSoftwareEngine()
	_, err := e.CreateBrowser("app://ui/index.html", 64, 64, nil)
	assert.ErrorIs(t, err, ErrNotInitialized)

	require.NoError(t, e.Initialize(Settings{}))
	_, err = e.CreateBrowser("app://ui/index.html", 0, 64, nil)
	assert.ErrorIs(t, err, ErrInvalidSize)

	e.Shutdown()
	_, err = e.CreateBrowser("app://ui/index.html", 64, 64, nil)
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestInitialLoadPaintsWholeSurface(t *testing.T) {
	e := newTestEngine(t)
	rec := &paintRecorder{}

	b, err := e.CreateBrowser("app://ui/index.html", 256, 128, rec)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return rec.count() >= 1 }, time.Second, 5*time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []common.Rect{{MinX: 0, MinY: 0, MaxX: 256, MaxY: 128}}, rec.last)
	assert.Len(t, rec.pixels, 256*128*4)
	assert.Equal(t, "app://ui/index.html", b.URL())
}

func TestTransparentCornerAndOpaquePanel(t *testing.T) {
	e := newTestEngine(t)
	rec := &paintRecorder{}
	_, err := e.CreateBrowser("app://ui/index.html", 256, 256, rec)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return rec.count() >= 1 }, time.Second, 5*time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	alpha := func(x, y int) byte { return rec.pixels[(y*256+x)*4+3] }
	assert.Equal(t, byte(0), alpha(0, 0))
	assert.NotZero(t, alpha(128, 128))
}

func TestTypingEnterNavigates(t *testing.T) {
	e := newTestEngine(t)
	rec := &paintRecorder{}
	b, err := e.CreateBrowser("app://ui/index.html", 256, 256, rec)
	require.NoError(t, err)

	for _, c := range "app://ui/next.html" {
		b.Host().SendKeyEvent(KeyEvent{Type: KeyEventChar, Character: uint16(c)})
	}
	b.Host().SendKeyEvent(KeyEvent{Type: KeyEventChar, Character: '\r'})

	require.Eventually(t, func() bool { return b.URL() == "app://ui/next.html" }, time.Second, 5*time.Millisecond)
}

func TestCloseStopsPaints(t *testing.T) {
	e := newTestEngine(t)
	rec := &paintRecorder{}
	b, err := e.CreateBrowser("app://ui/index.html", 64, 64, rec)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return rec.count() >= 1 }, time.Second, 5*time.Millisecond)

	b.Close()
	n := rec.count()
	b.Host().SendMouseMoveEvent(MouseEvent{X: 10, Y: 10}, false)
	b.LoadURL("app://ui/next.html")
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, rec.count())
}

func TestDevToolsURL(t *testing.T) {
	e := newTestEngine(t)
	b, err := e.CreateBrowser("app://ui/index.html", 64, 64, nil)
	require.NoError(t, err)
	assert.Contains(t, b.DevToolsURL(), "localhost:8012")

	plain := NewSoftwareEngine()
	require.NoError(t, plain.Initialize(Settings{}))
	defer plain.Shutdown()
	b2, err := plain.CreateBrowser("about:blank", 64, 64, nil)
	require.NoError(t, err)
	assert.Empty(t, b2.DevToolsURL())
}

func TestStripTags(t *testing.T) {
	title, text := stripTags("<html><head><title>A &amp; B</title><style>p{}</style></head><body><h1>Head</h1>one<br/>two &lt;3</body></html>")
	assert.Equal(t, "A & B", title)
	assert.Equal(t, []string{"Head", "one", "two <3"}, splitLines(text))
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"abc"}, wrap("abc", 5))
	assert.Equal(t, []string{"abcd", "efgh", "i"}, wrap("abcdefghi", 4))
}

func TestCopyBGRASwapsChannels(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	copy(src.Pix, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	dst := make([]byte, 8)

	copyBGRA(dst, src, image.Rect(1, 0, 2, 1))
	assert.Equal(t, []byte{0, 0, 0, 0, 7, 6, 5, 8}, dst)
}
