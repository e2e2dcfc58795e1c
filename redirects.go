package devlog

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
)

// RedirectTable maps legacy paths to canonical locations. Keys are stored
// without a trailing slash so "/old" and "/old/" match the same entry.
type RedirectTable map[string]string

// NewRedirectTable normalises the configured redirects.
func NewRedirectTable(m map[string]string) RedirectTable {
	t := make(RedirectTable, len(m))
	for from, to := range m {
		t[normalizeRedirectPath(from)] = to
	}
	return t
}

// Lookup returns the redirect target for path.
func (t RedirectTable) Lookup(path string) (string, bool) {
	to, ok := t[normalizeRedirectPath(path)]
	return to, ok
}

func normalizeRedirectPath(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}

// middleware answers legacy paths with 301 before routing.
func (t RedirectTable) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if len(t) == 0 {
			return next(c)
		}
		req := c.Request()
		to, ok := t.Lookup(req.URL.Path)
		if !ok {
			return next(c)
		}
		if q := req.URL.RawQuery; q != "" {
			sep := "?"
			if strings.Contains(to, "?") {
				sep = "&"
			}
			to += sep + q
		}
		return c.Redirect(http.StatusMovedPermanently, to)
	}
}

func isExternal(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// validateRedirects rejects relative paths and redirect loops.
func validateRedirects(m map[string]string) error {
	if len(m) == 0 {
		return nil
	}
	var errs []error
	sources := make([]string, 0, len(m))
	for from := range m {
		sources = append(sources, from)
	}
	sort.Strings(sources)
	for _, from := range sources {
		to := m[from]
		if !strings.HasPrefix(from, "/") {
			errs = append(errs, fmt.Errorf("redirect %q: source must be an absolute path", from))
		}
		if !strings.HasPrefix(to, "/") && !isExternal(to) {
			errs = append(errs, fmt.Errorf("redirect %q: target %q must be an absolute path or URL", from, to))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	t := NewRedirectTable(m)
	for _, from := range sources {
		seen := map[string]bool{}
		cur := normalizeRedirectPath(from)
		for {
			if seen[cur] {
				errs = append(errs, fmt.Errorf("redirect %q: loops back to %q", from, cur))
				break
			}
			seen[cur] = true
			next, ok := t[cur]
			if !ok || isExternal(next) {
				break
			}
			cur = normalizeRedirectPath(strings.SplitN(next, "?", 2)[0])
		}
	}
	return errors.Join(errs...)
}
