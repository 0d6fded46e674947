package browser

import (
	"bytes"
	"fmt"
	"html"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/Carmen-Shannon/oxy-html5/common"
	"github.com/dustin/go-humanize"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

var (
	backgroundColor = color.RGBA{12, 12, 16, 255}
	panelColor      = color.RGBA{16, 19, 26, 224}
	titleBarColor   = color.RGBA{34, 40, 54, 240}
	inputColor      = color.RGBA{6, 8, 12, 240}
	textColor       = color.RGBA{228, 228, 228, 255}
	dimTextColor    = color.RGBA{140, 146, 160, 255}
	accentColor     = color.RGBA{80, 160, 255, 255}
	borderColor     = color.RGBA{60, 64, 76, 255}
	errorColor      = color.RGBA{255, 96, 96, 255}
	pointerColor    = color.RGBA{255, 255, 255, 255}
)

const maxClickMarks = 8

// clickMark is a drawn marker for a recent press.
type clickMark struct {
	at     image.Point
	button MouseButton
}

// page is the state and painter of one software browser surface.
type page struct {
	width, height int
	transparent   bool

	canvas *image.RGBA
	out    []byte

	face       font.Face
	lineHeight int
	ascent     int
	advance    int

	url    string
	title  string
	status string
	failed bool
	lines  []string
	img    image.Image

	scrollY      int
	wrappedLines int

	input        []rune
	inputFocused bool
	focused      bool
	pageFocused  bool
	scripts      int

	pointer        image.Point
	pointerVisible bool
	marks          []clickMark
}

func newPage(width, height int, face font.Face, transparent bool) page {
	m := face.Metrics()
	adv := font.MeasureString(face, "0").Ceil()
	p := page{
		transparent:  transparent,
		face:         face,
		lineHeight:   m.Height.Ceil() + 2,
		ascent:       m.Ascent.Ceil(),
		advance:      max(adv, 1),
		inputFocused: true,
	}
	p.resize(width, height)
	return p
}

func (p *page) bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

func (p *page) resize(width, height int) {
	p.width = width
	p.height = height
	p.canvas = image.NewRGBA(image.Rect(0, 0, width, height))
	p.out = make([]byte, width*height*4)
}

// layout holds the regions of the page chrome for the current surface size.
type layout struct {
	panel, title, content, status, input image.Rectangle
}

func (p *page) layout() layout {
	m := min(32, min(p.width, p.height)/8)
	panel := image.Rect(m, m, p.width-m, p.height-m)
	title := image.Rect(panel.Min.X, panel.Min.Y, panel.Max.X, panel.Min.Y+p.lineHeight+8)
	input := image.Rect(panel.Min.X+8, panel.Max.Y-p.lineHeight-16, panel.Max.X-8, panel.Max.Y-8)
	status := image.Rect(panel.Min.X, input.Min.Y-p.lineHeight-8, panel.Max.X, input.Min.Y-4)
	content := image.Rect(panel.Min.X+8, title.Max.Y+8, panel.Max.X-8, status.Min.Y-4)
	return layout{panel: panel, title: title, content: content, status: status, input: input}
}

// load fetches url through factory and replaces the page content.
func (p *page) load(url string, factory SchemeHandlerFactory, limit int64) {
	p.url = url
	p.title = url
	p.lines = nil
	p.img = nil
	p.scrollY = 0
	p.failed = false

	if factory == nil {
		p.fail(fmt.Sprintf("no handler registered for %q", url))
		return
	}

	res, err := factory.Open(url)
	if err != nil {
		p.fail(err.Error())
		return
	}
	defer res.Cancel()

	data, err := io.ReadAll(io.LimitReader(res, limit))
	if err != nil {
		p.fail(fmt.Sprintf("read %s: %v", url, err))
		return
	}
	if res.Status() != 200 {
		p.fail(fmt.Sprintf("%d: %s", res.Status(), url))
		return
	}

	mime := res.MimeType()
	p.status = fmt.Sprintf("%s, %s", mime, humanize.Bytes(uint64(len(data))))

	switch {
	case strings.HasPrefix(mime, "image/"):
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			p.fail(fmt.Sprintf("decode %s: %v", url, err))
			return
		}
		p.img = img
	case mime == "text/html":
		title, text := stripTags(string(data))
		if title != "" {
			p.title = title
		}
		p.lines = splitLines(text)
	default:
		p.lines = splitLines(string(data))
	}
}

func (p *page) fail(msg string) {
	p.failed = true
	p.status = msg
}

func (p *page) script(code string) []image.Rectangle {
	p.scripts++
	p.status = fmt.Sprintf("js #%d: %s", p.scripts, code)
	p.failed = false
	return []image.Rectangle{p.layout().status}
}

func (p *page) movePointer(x, y int, visible bool) []image.Rectangle {
	at := image.Pt(x, y)
	if at == p.pointer && visible == p.pointerVisible {
		return nil
	}
	dirty := []image.Rectangle{pointerBox(p.pointer), pointerBox(at)}
	p.pointer = at
	p.pointerVisible = visible
	return dirty
}

func (p *page) click(x, y int, button MouseButton, mouseUp bool, clickCount int) []image.Rectangle {
	if mouseUp {
		return nil
	}
	l := p.layout()
	at := image.Pt(x, y)
	dirty := []image.Rectangle{l.input, l.status, markBox(at)}

	if at.In(l.panel) {
		p.inputFocused = at.In(l.input)
	}
	if len(p.marks) == maxClickMarks {
		dirty = append(dirty, markBox(p.marks[0].at))
		p.marks = p.marks[1:]
	}
	p.marks = append(p.marks, clickMark{at: at, button: button})
	p.status = fmt.Sprintf("%s click x%d at %d,%d", buttonName(button), clickCount, x, y)
	p.failed = false
	return dirty
}

func (p *page) scroll(deltaY int) []image.Rectangle {
	l := p.layout()
	maxScroll := max(p.wrappedLines*p.lineHeight-l.content.Dy(), 0)
	next := common.Clamp(p.scrollY-deltaY, 0, maxScroll)
	if next == p.scrollY {
		return nil
	}
	p.scrollY = next
	return []image.Rectangle{l.content}
}

// key applies a key event to the input line. submitted is the line text when Enter was typed.
func (p *page) key(ev KeyEvent) (dirty []image.Rectangle, submitted string) {
	l := p.layout()
	switch ev.Type {
	case KeyEventRawKeyDown, KeyEventKeyDown:
		if !p.inputFocused {
			return nil, ""
		}
		switch ev.WindowsKeyCode {
		case common.VKBack:
			if len(p.input) > 0 {
				p.input = p.input[:len(p.input)-1]
			}
		case common.VKEscape:
			p.input = p.input[:0]
		default:
			return nil, ""
		}
		return []image.Rectangle{l.input}, ""
	case KeyEventChar:
		if !p.inputFocused {
			return nil, ""
		}
		c := rune(ev.Character)
		switch {
		case c == '\r':
			submitted = string(p.input)
			p.input = p.input[:0]
			p.status = "submitted: " + submitted
			p.failed = false
			return []image.Rectangle{l.input, l.status}, submitted
		case c < 0x20 || c == 0x7f || !utf8.ValidRune(c):
			return nil, ""
		}
		p.input = append(p.input, c)
		return []image.Rectangle{l.input}, ""
	}
	return nil, ""
}

func (p *page) setFocus(focus bool) []image.Rectangle {
	if p.focused == focus {
		return nil
	}
	p.focused = focus
	return []image.Rectangle{p.layout().panel}
}

// present repaints the canvas and copies the dirty regions into the BGRA output buffer.
func (p *page) present(dirty []image.Rectangle) []common.Rect {
	clipped := make([]image.Rectangle, 0, len(dirty))
	for _, r := range dirty {
		if r = r.Intersect(p.bounds()); !r.Empty() {
			clipped = append(clipped, r)
		}
	}
	if len(clipped) == 0 {
		return nil
	}

	p.redraw()
	for _, r := range clipped {
		copyBGRA(p.out, p.canvas, r)
	}
	return rectsFrom(clipped)
}

func (p *page) redraw() {
	l := p.layout()

	bg := image.Image(image.Transparent)
	if !p.transparent {
		bg = image.NewUniform(backgroundColor)
	}
	draw.Draw(p.canvas, p.canvas.Bounds(), bg, image.Point{}, draw.Src)
	fill(p.canvas, l.panel, panelColor)

	border := borderColor
	if p.focused {
		border = accentColor
	}
	outline(p.canvas, l.panel, border)

	fill(p.canvas, l.title, titleBarColor)
	p.text(l.title, l.title.Min.X+8, l.title.Min.Y+4+p.ascent, p.title, textColor)

	p.drawContent(l.content)

	statusColor := dimTextColor
	if p.failed {
		statusColor = errorColor
	}
	p.text(l.status, l.status.Min.X+8, l.status.Min.Y+4+p.ascent, p.status, statusColor)

	fill(p.canvas, l.input, inputColor)
	inputBorder := borderColor
	if p.inputFocused {
		inputBorder = accentColor
	}
	outline(p.canvas, l.input, inputBorder)
	line := "> " + string(p.input)
	if p.inputFocused {
		line += "_"
	}
	p.text(l.input, l.input.Min.X+6, l.input.Min.Y+(l.input.Dy()-p.lineHeight)/2+p.ascent+1, line, textColor)

	for _, m := range p.marks {
		c := accentColor
		if m.button != MouseButtonLeft {
			c = errorColor
		}
		outline(p.canvas, markBox(m.at), c)
	}

	if p.pointerVisible {
		fill(p.canvas, image.Rect(p.pointer.X-6, p.pointer.Y, p.pointer.X+7, p.pointer.Y+1), pointerColor)
		fill(p.canvas, image.Rect(p.pointer.X, p.pointer.Y-6, p.pointer.X+1, p.pointer.Y+7), pointerColor)
	}
}

func (p *page) drawContent(r image.Rectangle) {
	if p.img != nil {
		src := p.img.Bounds()
		scale := min(float64(r.Dx())/float64(src.Dx()), float64(r.Dy())/float64(src.Dy()), 1)
		w, h := int(float64(src.Dx())*scale), int(float64(src.Dy())*scale)
		dst := image.Rect(r.Min.X, r.Min.Y, r.Min.X+w, r.Min.Y+h)
		xdraw.ApproxBiLinear.Scale(p.canvas, dst, p.img, src, xdraw.Over, nil)
		p.wrappedLines = 0
		return
	}

	perLine := max(r.Dx()/p.advance, 1)
	wrapped := make([]string, 0, len(p.lines))
	for _, line := range p.lines {
		wrapped = append(wrapped, wrap(line, perLine)...)
	}
	p.wrappedLines = len(wrapped)

	first := p.scrollY / p.lineHeight
	y := r.Min.Y + p.ascent - p.scrollY%p.lineHeight
	for i := first; i < len(wrapped) && y-p.ascent < r.Max.Y; i++ {
		p.text(r, r.Min.X, y, wrapped[i], textColor)
		y += p.lineHeight
	}
}

// text draws s with its baseline at (x, y), clipped to r.
func (p *page) text(r image.Rectangle, x, y int, s string, c color.Color) {
	dst, ok := p.canvas.SubImage(r).(*image.RGBA)
	if !ok || dst.Bounds().Empty() {
		return
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: p.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func fill(dst *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func outline(dst *image.RGBA, r image.Rectangle, c color.Color) {
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), c)
	fill(dst, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), c)
	fill(dst, image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y), c)
	fill(dst, image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y), c)
}

func pointerBox(at image.Point) image.Rectangle {
	return image.Rect(at.X-6, at.Y-6, at.X+7, at.Y+7)
}

func markBox(at image.Point) image.Rectangle {
	return image.Rect(at.X-4, at.Y-4, at.X+5, at.Y+5)
}

func buttonName(b MouseButton) string {
	switch b {
	case MouseButtonMiddle:
		return "middle"
	case MouseButtonRight:
		return "right"
	default:
		return "left"
	}
}

// copyBGRA writes the pixels of src inside r into dst as BGRA rows of src's full width.
func copyBGRA(dst []byte, src *image.RGBA, r image.Rectangle) {
	stride := src.Bounds().Dx() * 4
	for y := r.Min.Y; y < r.Max.Y; y++ {
		s := src.Pix[src.PixOffset(r.Min.X, y):src.PixOffset(r.Max.X, y)]
		d := dst[y*stride+r.Min.X*4 : y*stride+r.Max.X*4]
		for i := 0; i < len(s); i += 4 {
			d[i], d[i+1], d[i+2], d[i+3] = s[i+2], s[i+1], s[i], s[i+3]
		}
	}
}

// stripTags reduces an HTML document to its title and visible text. Script and style bodies are dropped.
func stripTags(src string) (title, text string) {
	lower := strings.ToLower(src)
	var b strings.Builder
	for i := 0; i < len(src); {
		if src[i] != '<' {
			b.WriteByte(src[i])
			i++
			continue
		}
		end := strings.IndexByte(src[i:], '>')
		if end < 0 {
			break
		}
		name := tagName(lower[i+1 : i+end])
		switch name {
		case "script", "style", "title":
			body := i + end + 1
			closing := strings.Index(lower[body:], "</"+name)
			if closing < 0 {
				i = len(src)
				continue
			}
			if name == "title" {
				title = strings.TrimSpace(html.UnescapeString(src[body : body+closing]))
			}
			tail := strings.IndexByte(lower[body+closing:], '>')
			if tail < 0 {
				i = len(src)
				continue
			}
			i = body + closing + tail + 1
			continue
		case "br", "p", "/p", "div", "/div", "li", "tr", "h1", "h2", "h3", "/h1", "/h2", "/h3":
			b.WriteByte('\n')
		}
		i += end + 1
	}
	return title, html.UnescapeString(b.String())
}

func tagName(tag string) string {
	tag = strings.TrimSpace(tag)
	for i, r := range tag {
		if r == ' ' || r == '\t' || r == '\n' || (r == '/' && i > 0) {
			return tag[:i]
		}
	}
	return tag
}

// splitLines splits text into non-empty lines with collapsed whitespace.
func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// wrap breaks line into chunks of at most n runes.
func wrap(line string, n int) []string {
	runes := []rune(line)
	if len(runes) <= n {
		return []string{line}
	}
	out := make([]string, 0, len(runes)/n+1)
	for len(runes) > n {
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return append(out, string(runes))
}
