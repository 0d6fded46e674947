package browser

import (
	"fmt"
	"image"
	"log"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-html5/common"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// softwareEngine is a diagnostic Engine that paints pages on the CPU.
// It renders the page address, the text of custom-scheme resources, decoded images,
// typed input and the pointer, which is enough to exercise the overlay end to end.
type softwareEngine struct {
	mu *sync.Mutex

	settings    Settings
	initialized bool
	shutdown    bool

	schemes  map[string]SchemeHandlerFactory
	browsers map[int]*softwareBrowser
	nextID   int

	face            font.Face
	maxResourceSize int64
	commandBuffer   int
}

var _ Engine = &softwareEngine{}

// NewSoftwareEngine creates a software browser engine.
//
// Parameters:
//   - options: functional options to configure the engine
//
// Returns:
//   - Engine: the engine, not yet initialized
func NewSoftwareEngine(options ...SoftwareEngineOption) Engine {
	e := &softwareEngine{
		mu:              &sync.Mutex{},
		schemes:         make(map[string]SchemeHandlerFactory),
		browsers:        make(map[int]*softwareBrowser),
		face:            basicfont.Face7x13,
		maxResourceSize: 4 << 20,
		commandBuffer:   256,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

func (e *softwareEngine) Initialize(settings Settings) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.shutdown {
		return ErrShutdown
	}
	e.settings = settings
	e.initialized = true
	log.Printf("[Browser] software engine initialized (remote debugging port %d)", settings.RemoteDebuggingPort)
	return nil
}

func (e *softwareEngine) RegisterSchemeHandlerFactory(scheme string, factory SchemeHandlerFactory) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return ErrNotInitialized
	}
	if e.shutdown {
		return ErrShutdown
	}
	e.schemes[strings.ToLower(scheme)] = factory
	return nil
}

func (e *softwareEngine) CreateBrowser(url string, width, height int, paint PaintHandler) (Browser, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return nil, ErrNotInitialized
	}
	if e.shutdown {
		e.mu.Unlock()
		return nil, ErrShutdown
	}
	id := e.nextID
	e.nextID++
	b := newSoftwareBrowser(e, id, width, height, paint)
	e.browsers[id] = b
	e.mu.Unlock()

	b.start()
	b.LoadURL(url)
	return b, nil
}

func (e *softwareEngine) Shutdown() {
	e.mu.Lock()
	if e.shutdown {
		e.mu.Unlock()
		return
	}
	e.shutdown = true
	browsers := make([]*softwareBrowser, 0, len(e.browsers))
	for _, b := range e.browsers {
		browsers = append(browsers, b)
	}
	e.mu.Unlock()

	for _, b := range browsers {
		b.Close()
	}
	log.Printf("[Browser] software engine shut down")
}

// schemeFactory returns the registered factory for scheme, or nil.
func (e *softwareEngine) schemeFactory(scheme string) SchemeHandlerFactory {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.schemes[strings.ToLower(scheme)]
}

// forget drops a closed browser from the engine's registry.
func (e *softwareEngine) forget(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.browsers, id)
}

// softwareBrowser runs one page on its own message loop goroutine.
// Every field below cmds is owned by the loop goroutine.
type softwareBrowser struct {
	engine *softwareEngine
	id     int
	paint  PaintHandler

	cmds      chan func()
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	urlMu *sync.Mutex
	url   string

	page page
}

var _ Browser = &softwareBrowser{}
var _ Host = &softwareBrowser{}

func newSoftwareBrowser(e *softwareEngine, id, width, height int, paint PaintHandler) *softwareBrowser {
	return &softwareBrowser{
		engine: e,
		id:     id,
		paint:  paint,
		cmds:   make(chan func(), e.commandBuffer),
		quit:   make(chan struct{}),
		urlMu:  &sync.Mutex{},
		page:   newPage(width, height, e.face, e.settings.TransparentPainting),
	}
}

func (b *softwareBrowser) start() {
	b.wg.Add(1)
	go b.loop()
}

// loop is the browser message loop. Commands run in submission order.
func (b *softwareBrowser) loop() {
	defer b.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Browser] message loop recovered from panic: %v", r)
		}
	}()

	for {
		select {
		case <-b.quit:
			return
		case cmd := <-b.cmds:
			cmd()
		}
	}
}

// post queues cmd on the message loop. Commands posted after Close are dropped.
func (b *softwareBrowser) post(cmd func()) {
	select {
	case <-b.quit:
	case b.cmds <- cmd:
	}
}

// flush converts the dirty regions of the canvas and hands the frame to the paint handler.
func (b *softwareBrowser) flush(dirty []image.Rectangle) {
	rects := b.page.present(dirty)
	if len(rects) == 0 || b.paint == nil {
		return
	}
	b.paint.OnPaint(b.page.out, b.page.width, b.page.height, rects)
}

func (b *softwareBrowser) LoadURL(url string) {
	b.setURL(url)
	b.post(func() {
		b.navigate(url)
	})
}

// navigate loads url and repaints the whole surface. Runs on the message loop.
func (b *softwareBrowser) navigate(url string) {
	b.page.load(url, b.engine.schemeFactory(schemeOf(url)), b.engine.maxResourceSize)
	b.flush([]image.Rectangle{b.page.bounds()})
}

func (b *softwareBrowser) setURL(url string) {
	b.urlMu.Lock()
	b.url = url
	b.urlMu.Unlock()
}

func (b *softwareBrowser) URL() string {
	b.urlMu.Lock()
	defer b.urlMu.Unlock()
	return b.url
}

func (b *softwareBrowser) ExecuteJavaScript(code, scriptURL string, startLine int) {
	b.post(func() {
		log.Printf("[Browser] script %s:%d: %s", scriptURL, startLine, code)
		b.flush(b.page.script(code))
	})
}

func (b *softwareBrowser) Host() Host {
	return b
}

func (b *softwareBrowser) DevToolsURL() string {
	port := b.engine.settings.RemoteDebuggingPort
	if port <= 0 {
		return ""
	}
	return fmt.Sprintf("http://localhost:%d/devtools/devtools.html?ws=localhost:%d/devtools/page/%d", port, port, b.id)
}

func (b *softwareBrowser) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	b.post(func() {
		b.page.resize(width, height)
		b.flush([]image.Rectangle{b.page.bounds()})
	})
}

func (b *softwareBrowser) Close() {
	b.closeOnce.Do(func() {
		close(b.quit)
		b.wg.Wait()
		b.engine.forget(b.id)
	})
}

func (b *softwareBrowser) SendMouseMoveEvent(ev MouseEvent, mouseLeave bool) {
	b.post(func() {
		b.flush(b.page.movePointer(ev.X, ev.Y, !mouseLeave))
	})
}

func (b *softwareBrowser) SendMouseClickEvent(ev MouseEvent, button MouseButton, mouseUp bool, clickCount int) {
	b.post(func() {
		dirty := b.page.movePointer(ev.X, ev.Y, true)
		dirty = append(dirty, b.page.click(ev.X, ev.Y, button, mouseUp, clickCount)...)
		b.flush(dirty)
	})
}

func (b *softwareBrowser) SendMouseWheelEvent(ev MouseEvent, deltaX, deltaY int) {
	b.post(func() {
		b.flush(b.page.scroll(deltaY))
	})
}

func (b *softwareBrowser) SendKeyEvent(ev KeyEvent) {
	b.post(func() {
		dirty, submitted := b.page.key(ev)
		b.flush(dirty)
		if strings.Contains(submitted, "://") {
			b.setURL(submitted)
			b.navigate(submitted)
		}
	})
}

func (b *softwareBrowser) SetFocus(focus bool) {
	b.post(func() {
		b.flush(b.page.setFocus(focus))
	})
}

func (b *softwareBrowser) SendFocusEvent(focus bool) {
	b.post(func() {
		b.page.pageFocused = focus
	})
}

// schemeOf returns the scheme of url without "://", or an empty string.
func schemeOf(url string) string {
	if i := strings.Index(url, "://"); i > 0 {
		return url[:i]
	}
	return ""
}

// rectsFrom converts canvas rectangles to the common.Rect form used by paint handlers.
func rectsFrom(rs []image.Rectangle) []common.Rect {
	out := make([]common.Rect, 0, len(rs))
	for _, r := range rs {
		if r.Empty() {
			continue
		}
		out = append(out, common.Rect{MinX: r.Min.X, MinY: r.Min.Y, MaxX: r.Max.X, MaxY: r.Max.Y})
	}
	return out
}
