package pak

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"UI/index.html":   {Data: []byte("<html>menu</html>")},
		"UI/logo.png":     {Data: []byte("not really a png")},
		"UI/scripts/a.js": {Data: []byte("var a = 1;")},
	}
}

func TestPathFromURL(t *testing.T) {
	cases := map[string]string{
		"app://UI/index.html":          "UI/index.html",
		"app://UI/../UI/index.html?x=1": "UI/index.html",
		"game://UI\\scripts\\a.js#top":  "UI/scripts/a.js",
		"app://":                        "",
		"UI/index.html":                 "UI/index.html",
	}
	for in, want := range cases {
		assert.Equal(t, want, PathFromURL(in), in)
	}
}

func TestMimeType(t *testing.T) {
	assert.Equal(t, "image/png", MimeType("a/b.PNG"))
	assert.Equal(t, "image/jpeg", MimeType("photo.jpe"))
	assert.Equal(t, "image/bmp", MimeType("x.bmp"))
	assert.Equal(t, "text/javascript", MimeType("main.js"))
	assert.Equal(t, "text/html", MimeType("page"))
	assert.Equal(t, "text/html", MimeType("page.html"))
}

func TestOpenServesFileInChunks(t *testing.T) {
	a := NewArchive(testFS())
	res, err := a.Open("app://UI/scripts/a.js")
	require.NoError(t, err)

	assert.Equal(t, StatusOK, res.Status())
	assert.Equal(t, "text/javascript", res.MimeType())
	assert.Equal(t, int64(10), res.Size())
	assert.Equal(t, 1, a.OpenHandles())

	buf := make([]byte, 4)
	var got []byte
	for {
		n, err := res.Read(buf)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.LessOrEqual(t, n, 4)
	}
	assert.Equal(t, "var a = 1;", string(got))
	assert.Equal(t, 0, a.OpenHandles())
}

func TestOpenMissingIsNotFound(t *testing.T) {
	a := NewArchive(testFS())
	res, err := a.Open("app://UI/missing.html")
	require.NoError(t, err)

	assert.Equal(t, StatusNotFound, res.Status())
	assert.Zero(t, res.Size())
	n, err := res.Read(make([]byte, 8))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, io.EOF)
	res.Cancel()
	assert.Equal(t, 0, a.OpenHandles())
}

func TestOpenDirectoryIsNotFound(t *testing.T) {
	a := NewArchive(testFS())
	res, err := a.Open("app://UI")
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, res.Status())
}

func TestCancelReleasesHandle(t *testing.T) {
	a := NewArchive(testFS())
	res, err := a.Open("app://UI/index.html")
	require.NoError(t, err)
	require.Equal(t, 1, a.OpenHandles())

	res.Cancel()
	res.Cancel()
	assert.Equal(t, 0, a.OpenHandles())

	_, err = res.Read(make([]byte, 8))
	assert.ErrorIs(t, err, ErrCanceled)
}

func TestCaseInsensitiveLookup(t *testing.T) {
	strict := NewArchive(testFS())
	res, err := strict.Open("app://ui/INDEX.html")
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, res.Status())

	folded := NewArchive(testFS(), WithCaseInsensitiveLookup(true))
	res, err = folded.Open("app://ui/INDEX.html")
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status())
	res.Cancel()
}

func TestOpenAfterClose(t *testing.T) {
	a := NewArchive(testFS())
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	_, err := a.Open("app://UI/index.html")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOpenZip(t *testing.T) {
	name := filepath.Join(t.TempDir(), "ui.pak")
	f, err := os.Create(name)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("UI/index.html")
	require.NoError(t, err)
	_, err = w.Write([]byte("<p>packed</p>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	a, err := OpenZip(name)
	require.NoError(t, err)
	defer a.Close()

	res, err := a.Open("app://UI/index.html")
	require.NoError(t, err)
	data, err := io.ReadAll(res)
	require.NoError(t, err)
	assert.Equal(t, "<p>packed</p>", string(data))

	_, err = OpenZip(filepath.Join(t.TempDir(), "missing.pak"))
	assert.Error(t, err)
}
