package devlog

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
)

func (a *App) setupAdminRoutes() {
	g := a.Echo.Group("/admin", a.adminMiddleware()...)
	g.GET("/", a.handleAdmin)
	g.POST("/login/", a.handleAdminLogin)
	g.POST("/logout/", handleAdminLogout)
	g.GET("/preview/:slug/", a.handleAdminPreview)
	g.POST("/reindex/", a.handleAdminReindex)
}

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	a.Logger.Warn("admin login failed", "ip", ip)
	return RenderStatus(c, http.StatusUnauthorized, a.Views.AdminLogin(true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

// handleAdminPreview renders any indexed post, drafts and scheduled posts
// included, with the public post template.
func (a *App) handleAdminPreview(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	post, err := a.Store.GetPostAny(c.Request().Context(), pathParam(c, "slug"))
	if errors.Is(err, ErrNotFound) {
		return echo.ErrNotFound
	}
	if err != nil {
		return err
	}
	c.Response().Header().Set("X-Robots-Tag", "noindex")
	return Render(c, a.Views.Post(post, nil))
}

func (a *App) handleAdminReindex(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	n, err := a.Indexer.Sync(c.Request().Context())
	msg := fmt.Sprintf("Indexed %d posts.", n)
	if err != nil {
		msg = "Reindex failed: " + err.Error()
	}
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(msg))
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	posts, err := a.Store.ListAllPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminDashboard(posts, BuildTagIndex(posts), msg, CsrfToken(c)))
}
