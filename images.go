package devlog

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 2400
	jpegQuality   = 80
	themeCookie   = "theme"
)

// DisplayMode is the visitor's colour-scheme preference.
type DisplayMode string

const (
	DisplayAuto  DisplayMode = "auto"
	DisplayLight DisplayMode = "light"
	DisplayDark  DisplayMode = "dark"
)

// ParseDisplayMode maps any string to a DisplayMode; unknown values are auto.
func ParseDisplayMode(s string) DisplayMode {
	switch DisplayMode(strings.ToLower(strings.TrimSpace(s))) {
	case DisplayLight:
		return DisplayLight
	case DisplayDark:
		return DisplayDark
	}
	return DisplayAuto
}

// RequestDisplayMode reads the theme cookie, then the
// Sec-CH-Prefers-Color-Scheme client hint.
func RequestDisplayMode(r *http.Request) DisplayMode {
	if ck, err := r.Cookie(themeCookie); err == nil {
		if m := ParseDisplayMode(ck.Value); m != DisplayAuto {
			return m
		}
	}
	return ParseDisplayMode(r.Header.Get("Sec-CH-Prefers-Color-Scheme"))
}

type displayModeKey struct{}

// WithDisplayMode stores m in ctx for templates.
func WithDisplayMode(ctx context.Context, m DisplayMode) context.Context {
	return context.WithValue(ctx, displayModeKey{}, m)
}

// DisplayModeFromContext returns the mode stored by WithDisplayMode, or auto.
func DisplayModeFromContext(ctx context.Context) DisplayMode {
	if m, ok := ctx.Value(displayModeKey{}).(DisplayMode); ok {
		return m
	}
	return DisplayAuto
}

// ThemedImage is a pair of assets for light and dark display modes. Paths
// are relative to the static directory. Dark is optional.
type ThemedImage struct {
	Light  string `toml:"light"`
	Dark   string `toml:"dark"`
	Alt    string `toml:"alt"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// Variant returns the asset path for m. Auto resolves to light.
func (img ThemedImage) Variant(m DisplayMode) string {
	if m == DisplayDark && img.Dark != "" {
		return img.Dark
	}
	return img.Light
}

// ImageRegistry holds the themed images of a site.
type ImageRegistry struct {
	images    map[string]ThemedImage
	staticDir string
	themed    bool
}

// NewImageRegistry creates a registry serving files from staticDir. When
// themed is false every request gets the light asset.
func NewImageRegistry(staticDir string, themed bool) *ImageRegistry {
	return &ImageRegistry{images: make(map[string]ThemedImage), staticDir: staticDir, themed: themed}
}

// Register adds or replaces the image called name.
func (r *ImageRegistry) Register(name string, img ThemedImage) {
	r.images[name] = img
}

// Lookup returns the image called name.
func (r *ImageRegistry) Lookup(name string) (ThemedImage, bool) {
	img, ok := r.images[name]
	return img, ok
}

func (r *ImageRegistry) mode(m DisplayMode) DisplayMode {
	if !r.themed {
		return DisplayLight
	}
	return m
}

// Component renders the image called name for mode m. In auto mode a
// <picture> lets the browser pick via prefers-color-scheme. Unknown names
// render nothing.
func (r *ImageRegistry) Component(name string, m DisplayMode) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		img, ok := r.images[name]
		if !ok {
			return nil
		}
		mode := r.mode(m)
		src := "/images/" + name
		var b strings.Builder
		if mode == DisplayAuto && img.Dark != "" {
			b.WriteString(`<picture><source srcset="` + html.EscapeString(src+"?mode=dark") + `" media="(prefers-color-scheme: dark)">`)
			writeImgTag(&b, src+"?mode=light", img)
			b.WriteString(`</picture>`)
		} else {
			writeImgTag(&b, src+"?mode="+string(mode.resolved()), img)
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func (m DisplayMode) resolved() DisplayMode {
	if m == DisplayDark {
		return DisplayDark
	}
	return DisplayLight
}

func writeImgTag(b *strings.Builder, src string, img ThemedImage) {
	b.WriteString(`<img src="` + html.EscapeString(src) + `" alt="` + html.EscapeString(img.Alt) + `"`)
	if img.Width > 0 {
		b.WriteString(` width="` + strconv.Itoa(img.Width) + `"`)
	}
	if img.Height > 0 {
		b.WriteString(` height="` + strconv.Itoa(img.Height) + `"`)
	}
	b.WriteString(` loading="lazy" data-themed>`)
}

// handleImage serves the variant of a registered image. The mode query
// parameter wins over the request preference; w scales the image down.
func (r *ImageRegistry) handleImage(c echo.Context) error {
	img, ok := r.images[c.Param("name")]
	if !ok {
		return echo.ErrNotFound
	}
	m := ParseDisplayMode(c.QueryParam("mode"))
	if m == DisplayAuto {
		m = RequestDisplayMode(c.Request())
	}
	rel := img.Variant(r.mode(m))
	path := filepath.Join(r.staticDir, filepath.FromSlash(rel))
	c.Response().Header().Set("Vary", "Cookie, Sec-CH-Prefers-Color-Scheme")

	width, _ := strconv.Atoi(c.QueryParam("w"))
	if width <= 0 {
		return c.File(path)
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return echo.ErrNotFound
		}
		return err
	}
	defer f.Close()
	data, err := scaleImage(f, width)
	if err != nil {
		return fmt.Errorf("scale %s: %w", rel, err)
	}
	return c.Blob(http.StatusOK, "image/jpeg", data)
}

// scaleImage decodes an image from src, scales it down to maxWidth if it is
// wider, and encodes it as JPEG.
func scaleImage(src io.Reader, maxWidth int) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if maxWidth > maxImageWidth {
		maxWidth = maxImageWidth
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxWidth {
		newH := h * maxWidth / w
		if newH < 1 {
			newH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
