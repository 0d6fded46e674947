package html5

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-html5/common"
	"github.com/Carmen-Shannon/oxy-html5/engine/browser"
	"github.com/Carmen-Shannon/oxy-html5/engine/input"
	"github.com/Carmen-Shannon/oxy-html5/engine/overlay"
	"github.com/hako/durafmt"
)

var (
	// ErrMissingDependency is returned by Init when a required Context field is nil.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrBrowserInit wraps failures to start the browser engine or register the archive scheme.
	ErrBrowserInit = errors.New("browser engine initialization failed")

	// ErrBrowserCreate wraps failures to open the browser instance.
	ErrBrowserCreate = errors.New("browser creation failed")
)

// scriptURL is reported by the browser for scripts run through ExecuteJS.
const scriptURL = "oxy-html5"

// Plugin is the public surface of the browser overlay.
type Plugin interface {
	// Init starts the browser engine, registers the archive scheme and opens the browser.
	//
	// Returns:
	//   - error: ErrMissingDependency, ErrBrowserInit or ErrBrowserCreate, wrapped with detail
	Init() error

	// Shutdown releases the input reservation, the browser, the overlay texture and the engine.
	// Afterwards every command reports false until Init runs again.
	// Safe to call more than once and before Init.
	Shutdown()

	// SetURL navigates the browser.
	//
	// Returns:
	//   - bool: false when no browser is open
	SetURL(url string) bool

	// ExecuteJS runs a script in the page.
	//
	// Returns:
	//   - bool: false when no browser is open
	ExecuteJS(code string) bool

	// SetActive enables or disables rendering and input.
	//
	// Returns:
	//   - bool: false before Init
	SetActive(active bool) bool

	// Active reports whether rendering and input are enabled.
	Active() bool

	// SetInputMode changes the input capture level (0 to 3) and the exclusive flag.
	//
	// Returns:
	//   - bool: false before Init
	SetInputMode(level int, exclusive bool) bool

	// WorldToScreen projects a world position onto the surface using the Context camera.
	//
	// Parameters:
	//   - world: the world-space position
	//   - offset: a camera-relative offset applied first
	//
	// Returns:
	//   - common.Vec3: surface X and Y plus the distance to the camera in Z
	//   - bool: false when the projection is not possible
	WorldToScreen(world, offset common.Vec3) (common.Vec3, bool)

	// ScaleCoordinates maps host coordinates to surface pixels. Before Init it returns (0, 0).
	ScaleCoordinates(x, y float32, limit, relative bool) (float32, float32)

	// IsCursorOnSurface reports whether the host cursor is over an opaque surface pixel.
	IsCursorOnSurface() bool

	// IsOpaque reports whether the surface pixel at (x, y) has an alpha at or above the
	// configured threshold.
	IsOpaque(x, y float32) bool

	// DevToolsURL returns the inspector address.
	//
	// Returns:
	//   - string: the address
	//   - bool: false when no browser is open or remote debugging is off
	DevToolsURL() (string, bool)

	// Update drives analog emulation and delivers queued input. Call once per tick. Does nothing
	// while the plugin is inactive.
	Update(dt float32)

	// Present uploads and draws the overlay. Call once per frame inside the host's render pass.
	Present()

	// RenderBridge returns the overlay render bridge, or nil before Init.
	RenderBridge() overlay.RenderBridge

	// InputBridge returns the input bridge, or nil before Init.
	InputBridge() input.Bridge
}

type pluginImpl struct {
	mu *sync.Mutex

	ctx *Context

	width               int
	height              int
	startURL            string
	scheme              string
	remoteDebuggingPort int
	alphaThreshold      float32
	frameCopy           bool
	pixelFormat         overlay.PixelFormat
	active              bool

	render    overlay.RenderBridge
	input     input.Bridge
	projector *overlay.Projector
	browser   browser.Browser

	engineUp bool
	started  time.Time
}

var _ Plugin = &pluginImpl{}

// NewPlugin creates a Plugin with a 1024x1024 surface showing app://UI/index.html.
//
// Parameters:
//   - ctx: the host collaborators
//   - options: functional options to configure the plugin
//
// Returns:
//   - Plugin: the plugin, not yet initialized
func NewPlugin(ctx *Context, options ...PluginBuilderOption) Plugin {
	p := &pluginImpl{
		mu:                  &sync.Mutex{},
		ctx:                 ctx,
		width:               1024,
		height:              1024,
		startURL:            "app://UI/index.html",
		scheme:              "app",
		remoteDebuggingPort: 8012,
		alphaThreshold:      0.3,
		frameCopy:           true,
		pixelFormat:         overlay.PixelFormatBGRA,
		active:              true,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *pluginImpl) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if name := p.ctx.missing(); name != "" {
		log.Printf("[HTML5] init failed: %s not provided", name)
		return fmt.Errorf("%w: %s", ErrMissingDependency, name)
	}
	if p.browser != nil {
		return nil
	}

	ctx := p.ctx
	err := ctx.Engine.Initialize(browser.Settings{
		RemoteDebuggingPort: p.remoteDebuggingPort,
		TransparentPainting: true,
	})
	if err != nil {
		log.Printf("[HTML5] engine initialize failed: %v", err)
		return fmt.Errorf("%w: %w", ErrBrowserInit, err)
	}
	p.engineUp = true
	log.Printf("[HTML5] engine initialized (remote debugging port %d)", p.remoteDebuggingPort)

	if ctx.Archive != nil {
		archive := ctx.Archive
		factory := browser.SchemeHandlerFunc(func(url string) (browser.ResourceHandler, error) {
			res, err := archive.Open(url)
			if err != nil {
				return nil, err
			}
			return res, nil
		})
		if err := ctx.Engine.RegisterSchemeHandlerFactory(p.scheme, factory); err != nil {
			p.shutdownEngine()
			log.Printf("[HTML5] scheme %q registration failed: %v", p.scheme, err)
			return fmt.Errorf("%w: scheme %s: %w", ErrBrowserInit, p.scheme, err)
		}
	}

	render := overlay.NewRenderBridge(ctx.Device, ctx.Viewport,
		overlay.WithSurfaceSize(p.width, p.height),
		overlay.WithPixelFormat(p.pixelFormat),
		overlay.WithFrameCopy(p.frameCopy),
		overlay.WithActive(p.active),
	)
	in := input.NewBridge(
		input.WithCursor(ctx.Cursor),
		input.WithCursorReservation(ctx.Reservation),
		input.WithConsole(ctx.Console),
		input.WithScaler(render),
	)
	in.SetActive(p.active)

	b, err := ctx.Engine.CreateBrowser(p.startURL, p.width, p.height, render)
	if err != nil {
		render.Close()
		p.shutdownEngine()
		log.Printf("[HTML5] create browser failed: %v", err)
		return fmt.Errorf("%w: %w", ErrBrowserCreate, err)
	}

	p.render = render
	p.input = in
	p.projector = overlay.NewProjector(render)
	p.browser = b
	p.started = time.Now()
	log.Printf("[HTML5] browser created at %s (%dx%d)", p.startURL, p.width, p.height)
	return nil
}

// shutdownEngine stops the engine if Init started it. Caller must hold p.mu.
func (p *pluginImpl) shutdownEngine() {
	if p.engineUp {
		p.ctx.Engine.Shutdown()
		p.engineUp = false
	}
}

func (p *pluginImpl) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.input != nil {
		p.input.Close()
		p.input = nil
	}
	if p.browser != nil {
		p.browser.Close()
		p.browser = nil
	}
	if p.render != nil {
		p.render.Close()
		p.render = nil
	}
	p.projector = nil
	p.shutdownEngine()

	if !p.started.IsZero() {
		log.Printf("[HTML5] shut down after %s", durafmt.Parse(time.Since(p.started)).LimitFirstN(2).String())
		p.started = time.Time{}
	}
}

func (p *pluginImpl) currentBrowser() browser.Browser {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.browser
}

func (p *pluginImpl) SetURL(url string) bool {
	b := p.currentBrowser()
	if b == nil {
		return false
	}
	b.LoadURL(url)
	return true
}

func (p *pluginImpl) ExecuteJS(code string) bool {
	b := p.currentBrowser()
	if b == nil {
		return false
	}
	b.ExecuteJavaScript(code, scriptURL, 0)
	return true
}

func (p *pluginImpl) SetActive(active bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.active = active
	if p.render == nil {
		return false
	}
	p.render.SetActive(active)
	p.input.SetActive(active)
	return true
}

func (p *pluginImpl) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *pluginImpl) SetInputMode(level int, exclusive bool) bool {
	p.mu.Lock()
	in := p.input
	p.mu.Unlock()

	if in == nil {
		return false
	}
	in.SetMode(level, exclusive)
	return true
}

func (p *pluginImpl) WorldToScreen(world, offset common.Vec3) (common.Vec3, bool) {
	p.mu.Lock()
	proj, cam := p.projector, p.ctx.Camera
	p.mu.Unlock()

	if proj == nil || cam == nil {
		return common.Vec3{}, false
	}
	return proj.WorldToScreen(cam, world, offset)
}

func (p *pluginImpl) ScaleCoordinates(x, y float32, limit, relative bool) (float32, float32) {
	p.mu.Lock()
	render := p.render
	p.mu.Unlock()

	if render == nil {
		return 0, 0
	}
	return render.Scale(x, y, limit, relative)
}

func (p *pluginImpl) IsCursorOnSurface() bool {
	p.mu.Lock()
	render, in, cursor, active := p.render, p.input, p.ctx.Cursor, p.active
	p.mu.Unlock()

	if !active || render == nil {
		return false
	}

	var x, y float32
	ok := false
	if cursor != nil {
		x, y, ok = cursor.CursorPosition()
	}
	if !ok {
		x, y = in.CursorPosition()
	}
	sx, sy := render.Scale(x, y, true, true)
	return p.IsOpaque(sx, sy)
}

func (p *pluginImpl) IsOpaque(x, y float32) bool {
	p.mu.Lock()
	render, active, threshold := p.render, p.active, p.alphaThreshold
	p.mu.Unlock()

	if !active || render == nil {
		return false
	}
	c := render.Pixel(int(x), int(y))
	return float32(c.A) >= threshold*255
}

func (p *pluginImpl) DevToolsURL() (string, bool) {
	b := p.currentBrowser()
	if b == nil {
		return "", false
	}
	url := b.DevToolsURL()
	return url, url != ""
}

func (p *pluginImpl) Update(dt float32) {
	p.mu.Lock()
	in, b, active := p.input, p.browser, p.active
	p.mu.Unlock()

	if in == nil || !active {
		return
	}
	var host browser.Host
	if b != nil {
		host = b.Host()
	}
	in.Tick(dt, host)
}

func (p *pluginImpl) Present() {
	p.mu.Lock()
	render := p.render
	p.mu.Unlock()

	if render != nil {
		render.OnPresent()
	}
}

func (p *pluginImpl) RenderBridge() overlay.RenderBridge {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.render
}

func (p *pluginImpl) InputBridge() input.Bridge {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.input
}
