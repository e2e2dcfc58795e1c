package devlog

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDisplayMode(t *testing.T) {
	cases := map[string]DisplayMode{
		"light":  DisplayLight,
		" Dark ": DisplayDark,
		"auto":   DisplayAuto,
		"":       DisplayAuto,
		"sepia":  DisplayAuto,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseDisplayMode(in), in)
	}
}

func TestRequestDisplayMode(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, DisplayAuto, RequestDisplayMode(req))

	req.Header.Set("Sec-CH-Prefers-Color-Scheme", "dark")
	assert.Equal(t, DisplayDark, RequestDisplayMode(req))

	req.AddCookie(&http.Cookie{Name: "theme", Value: "light"})
	assert.Equal(t, DisplayLight, RequestDisplayMode(req), "cookie wins over the client hint")
}

func TestDisplayModeContext(t *testing.T) {
	assert.Equal(t, DisplayAuto, DisplayModeFromContext(context.Background()))
	ctx := WithDisplayMode(context.Background(), DisplayDark)
	assert.Equal(t, DisplayDark, DisplayModeFromContext(ctx))
}

func TestThemedImageVariant(t *testing.T) {
	img := ThemedImage{Light: "a.png", Dark: "a-dark.png"}
	assert.Equal(t, "a.png", img.Variant(DisplayLight))
	assert.Equal(t, "a.png", img.Variant(DisplayAuto))
	assert.Equal(t, "a-dark.png", img.Variant(DisplayDark))
	assert.Equal(t, "b.png", ThemedImage{Light: "b.png"}.Variant(DisplayDark), "falls back to light")
}

func renderString(t *testing.T, r *ImageRegistry, name string, m DisplayMode) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.Component(name, m).Render(context.Background(), &buf))
	return buf.String()
}

func TestImageComponent(t *testing.T) {
	r := NewImageRegistry("public", true)
	r.Register("hero", ThemedImage{Light: "hero.png", Dark: "hero-dark.png", Alt: `Tom & "Jerry"`, Width: 640, Height: 480})

	auto := renderString(t, r, "hero", DisplayAuto)
	assert.True(t, strings.HasPrefix(auto, "<picture>"))
	assert.Contains(t, auto, `<source srcset="/images/hero?mode=dark" media="(prefers-color-scheme: dark)">`)
	assert.Contains(t, auto, `src="/images/hero?mode=light"`)
	assert.Contains(t, auto, `alt="Tom &amp; &#34;Jerry&#34;"`)
	assert.Contains(t, auto, `width="640" height="480"`)

	dark := renderString(t, r, "hero", DisplayDark)
	assert.NotContains(t, dark, "<picture>")
	assert.Contains(t, dark, `src="/images/hero?mode=dark"`)

	assert.Empty(t, renderString(t, r, "missing", DisplayAuto))

	plain := NewImageRegistry("public", false)
	plain.Register("hero", ThemedImage{Light: "hero.png", Dark: "hero-dark.png"})
	assert.Contains(t, renderString(t, plain, "hero", DisplayDark), `src="/images/hero?mode=light"`, "theming disabled")
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestScaleImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wide.png")
	writePNG(t, path, 800, 400)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	data, err := scaleImage(f, 200)
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Width)
	assert.Equal(t, 100, cfg.Height)

	_, err = scaleImage(strings.NewReader("not an image"), 100)
	assert.Error(t, err)
}

func TestHandleImageScalesDown(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "small.png"), 100, 50)
	r := NewImageRegistry(dir, false)
	r.Register("small", ThemedImage{Light: "small.png"})

	e := echo.New()
	e.GET("/images/:name", r.handleImage)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/small?w=400", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	cfg, err := jpeg.DecodeConfig(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width, "never scaled up")
}
