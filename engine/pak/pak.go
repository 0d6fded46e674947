// Package pak serves custom-scheme browser requests from a packed archive or any fs.FS.
package pak

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

var (
	// ErrNotFound is wrapped by lookups that found no file for a request.
	ErrNotFound = errors.New("resource not found")

	// ErrClosed is returned by Open after the archive was closed.
	ErrClosed = errors.New("archive closed")

	// ErrCanceled is returned by Read after Cancel.
	ErrCanceled = errors.New("request canceled")
)

const (
	StatusOK       = 200
	StatusNotFound = 404
)

// Archive resolves URLs of the form "scheme://path" to files.
type Archive interface {
	// Open starts a request. A missing file is not an error: it produces a Resource with StatusNotFound.
	//
	// Parameters:
	//   - url: the request URL including the scheme
	//
	// Returns:
	//   - Resource: the response stream
	//   - error: ErrClosed if the archive was closed
	Open(url string) (Resource, error)

	// OpenHandles returns the number of file handles currently held by unfinished requests.
	OpenHandles() int

	// Close releases the archive. Requests already open keep their handles until they finish.
	//
	// Returns:
	//   - error: an error from the underlying archive reader
	Close() error
}

// Resource is one response. Its data is read sequentially in chunks.
type Resource interface {
	// Status returns StatusOK or StatusNotFound.
	Status() int

	// MimeType returns the content type derived from the file extension.
	MimeType() string

	// Size returns the response length in bytes.
	Size() int64

	// Read copies up to len(p) bytes of the remaining response into p.
	// The file handle is released once the last byte was read.
	Read(p []byte) (int, error)

	// Cancel releases the file handle immediately. Safe to call more than once.
	Cancel()
}

type archiveImpl struct {
	mu *sync.Mutex

	fsys   fs.FS
	closer io.Closer
	closed bool

	caseInsensitive bool
	handles         int
	served          uint64

	missLog *rate.Limiter
}

var _ Archive = &archiveImpl{}

// OpenZip opens a zip file as an Archive.
//
// Parameters:
//   - name: the path of the zip file
//   - options: functional options to configure the archive
//
// Returns:
//   - Archive: the opened archive
//   - error: an error if the zip file could not be read
func OpenZip(name string, options ...ArchiveBuilderOption) (Archive, error) {
	rc, err := zip.OpenReader(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", name, err)
	}
	a := newArchive(rc, options...)
	a.closer = rc
	log.Printf("[Pak] opened %s (%d files)", name, len(rc.File))
	return a, nil
}

// NewArchive serves requests from an arbitrary file system, such as os.DirFS for loose files.
//
// Parameters:
//   - fsys: the file system holding the resources
//   - options: functional options to configure the archive
//
// Returns:
//   - Archive: the archive
func NewArchive(fsys fs.FS, options ...ArchiveBuilderOption) Archive {
	return newArchive(fsys, options...)
}

func newArchive(fsys fs.FS, options ...ArchiveBuilderOption) *archiveImpl {
	a := &archiveImpl{
		mu:      &sync.Mutex{},
		fsys:    fsys,
		missLog: rate.NewLimiter(rate.Every(time.Second), 5),
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

func (a *archiveImpl) Open(url string) (Resource, error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil, ErrClosed
	}
	fsys := a.fsys
	a.mu.Unlock()

	name := PathFromURL(url)
	mime := MimeType(name)

	f, size, err := a.lookup(fsys, name)
	if err != nil {
		if a.missLog.Allow() {
			log.Printf("[Pak] %s: %v", url, err)
		}
		return &resourceImpl{status: StatusNotFound, mime: mime}, nil
	}

	a.mu.Lock()
	a.handles++
	a.mu.Unlock()

	return &resourceImpl{
		mu:        &sync.Mutex{},
		archive:   a,
		status:    StatusOK,
		mime:      mime,
		size:      size,
		remaining: size,
		file:      f,
	}, nil
}

func (a *archiveImpl) OpenHandles() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.handles
}

func (a *archiveImpl) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	log.Printf("[Pak] closed after serving %s", humanize.Bytes(a.served))
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// lookup opens name, falling back to a case-insensitive directory walk when enabled.
func (a *archiveImpl) lookup(fsys fs.FS, name string) (fs.File, int64, error) {
	if name == "" {
		return nil, 0, fmt.Errorf("%w: empty path", ErrNotFound)
	}

	f, err := fsys.Open(name)
	if err != nil && a.caseInsensitive && errors.Is(err, fs.ErrNotExist) {
		if resolved, ok := resolveFold(fsys, name); ok {
			f, err = fsys.Open(resolved)
		}
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %v", ErrNotFound, name, err)
	}

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		f.Close()
		return nil, 0, fmt.Errorf("%w: %s is not a file", ErrNotFound, name)
	}
	return f, info.Size(), nil
}

func (a *archiveImpl) release(n int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handles--
	a.served += uint64(n)
}

// resolveFold matches every segment of name against directory entries ignoring case.
func resolveFold(fsys fs.FS, name string) (string, bool) {
	dir := "."
	for _, seg := range strings.Split(name, "/") {
		entries, err := fs.ReadDir(fsys, dir)
		if err != nil {
			return "", false
		}
		found := ""
		for _, e := range entries {
			if strings.EqualFold(e.Name(), seg) {
				found = e.Name()
				break
			}
		}
		if found == "" {
			return "", false
		}
		dir = path.Join(dir, found)
	}
	return dir, true
}

// PathFromURL strips the scheme, query and fragment from url and returns a clean, slash-separated
// path relative to the archive root.
//
// Parameters:
//   - url: a URL such as "app://UI/index.html?x=1"
//
// Returns:
//   - string: the archive path, e.g. "UI/index.html", or "" for the root
func PathFromURL(url string) string {
	if i := strings.Index(url, "://"); i >= 0 {
		url = url[i+3:]
	}
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	url = strings.ReplaceAll(url, "\\", "/")
	p := strings.TrimPrefix(path.Clean("/"+url), "/")
	return p
}

var mimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".jpe":  "image/jpeg",
	".bmp":  "image/bmp",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".js":   "text/javascript",
	".css":  "text/css",
	".json": "application/json",
	".wasm": "application/wasm",
	".txt":  "text/plain",
}

// MimeType returns the content type for a file name by extension. Unknown extensions are served as HTML.
//
// Parameters:
//   - name: the file name or path
//
// Returns:
//   - string: the content type
func MimeType(name string) string {
	if m, ok := mimeTypes[strings.ToLower(path.Ext(name))]; ok {
		return m
	}
	return "text/html"
}

type resourceImpl struct {
	mu      *sync.Mutex
	archive *archiveImpl

	status int
	mime   string
	size   int64

	file      fs.File
	remaining int64
	read      int64
	canceled  bool
}

var _ Resource = &resourceImpl{}

func (r *resourceImpl) Status() int {
	return r.status
}

func (r *resourceImpl) MimeType() string {
	return r.mime
}

func (r *resourceImpl) Size() int64 {
	return r.size
}

func (r *resourceImpl) Read(p []byte) (int, error) {
	if r.file == nil && r.mu == nil {
		return 0, io.EOF
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.canceled {
		return 0, ErrCanceled
	}
	if r.file == nil || r.remaining <= 0 {
		r.closeLocked()
		return 0, io.EOF
	}

	chunk := p
	if int64(len(chunk)) > r.remaining {
		chunk = chunk[:r.remaining]
	}
	n, err := r.file.Read(chunk)
	r.remaining -= int64(n)
	r.read += int64(n)
	if r.remaining <= 0 || err != nil {
		r.closeLocked()
	}
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

func (r *resourceImpl) Cancel() {
	if r.mu == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil {
		r.canceled = true
	}
	r.closeLocked()
}

// closeLocked releases the file handle once. Caller must hold r.mu.
func (r *resourceImpl) closeLocked() {
	if r.file == nil {
		return
	}
	r.file.Close()
	r.file = nil
	r.archive.release(r.read)
}
