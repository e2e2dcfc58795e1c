package devlog

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedirectTableLookup(t *testing.T) {
	table := NewRedirectTable(map[string]string{
		"/old/":  "/posts/new/",
		"legacy": "/posts/legacy/",
		"/feed":  "https://example.com/rss.xml",
	})

	for _, p := range []string{"/old", "/old/", "/old//"} {
		to, ok := table.Lookup(p)
		assert.True(t, ok, p)
		assert.Equal(t, "/posts/new/", to, p)
	}
	to, ok := table.Lookup("/legacy/")
	assert.True(t, ok)
	assert.Equal(t, "/posts/legacy/", to)

	_, ok = table.Lookup("/posts/new/")
	assert.False(t, ok)
}

func TestRedirectMiddleware(t *testing.T) {
	e := echo.New()
	table := NewRedirectTable(map[string]string{
		"/old":  "/posts/new/",
		"/feed": "https://example.com/rss.xml?format=full",
	})
	e.Pre(table.middleware)
	e.GET("/posts/new/", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	cases := []struct {
		target, location string
	}{
		{"/old", "/posts/new/"},
		{"/old/?ref=hn", "/posts/new/?ref=hn"},
		{"/feed?x=1", "https://example.com/rss.xml?format=full&x=1"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.target, nil))
		assert.Equal(t, http.StatusMovedPermanently, rec.Code, tc.target)
		assert.Equal(t, tc.location, rec.Header().Get("Location"), tc.target)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/new/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestValidateRedirects(t *testing.T) {
	require.NoError(t, validateRedirects(nil))
	require.NoError(t, validateRedirects(map[string]string{
		"/a": "/b/",
		"/b": "/c/",
		"/x": "https://example.com/x",
	}))

	err := validateRedirects(map[string]string{"a": "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source must be an absolute path")
	assert.Contains(t, err.Error(), "must be an absolute path or URL")

	err = validateRedirects(map[string]string{"/a": "/b", "/b": "/c/", "/c": "/a/"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loops")

	err = validateRedirects(map[string]string{"/self/": "/self?x=1"})
	require.Error(t, err)
}
