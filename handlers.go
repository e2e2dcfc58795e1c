package devlog

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eringen/devlog/slug"
)

func (a *App) handleHome(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	var featured, recent []BlogPost
	for _, p := range posts {
		if p.Featured {
			featured = append(featured, p)
		} else if len(recent) < a.Config.PostsPerPage {
			recent = append(recent, p)
		}
	}
	return Render(c, a.Views.Home(featured, recent))
}

func (a *App) handlePosts(c echo.Context) error {
	return a.renderPostsPage(c, 1)
}

func (a *App) renderPostsPage(c echo.Context, page int) error {
	posts, err := a.Cache.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	items, pg, ok := Paginate(posts, page, a.Config.PostsPerPage, "/posts/")
	if !ok {
		return echo.ErrNotFound
	}
	return Render(c, a.Views.Posts(items, pg))
}

// handlePost serves a single post. Numeric parameters that are not a post
// slug are listing pages, so /posts/2/ is page two.
func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	param := pathParam(c, "slug")
	post, err := a.Cache.GetPost(ctx, param)
	if errors.Is(err, ErrNotFound) {
		if page, perr := strconv.Atoi(param); perr == nil {
			if page == 1 {
				return c.Redirect(http.StatusMovedPermanently, "/posts/")
			}
			return a.renderPostsPage(c, page)
		}
		if canonical := slug.Make(param); canonical != param {
			if _, cerr := a.Cache.GetPost(ctx, canonical); cerr == nil {
				return c.Redirect(http.StatusMovedPermanently, PostPath(canonical))
			}
		}
		return echo.ErrNotFound
	}
	if err != nil {
		return err
	}
	posts, err := a.Cache.ListPosts(ctx, "")
	if err != nil {
		return err
	}
	return Render(c, a.Views.Post(post, FilterRelatedPosts(post, posts)))
}

func (a *App) handleTags(c echo.Context) error {
	tags, err := a.Cache.ListTags(c.Request().Context())
	if err != nil {
		return err
	}
	return Render(c, a.Views.Tags(tags))
}

// handleTag serves the posts of one tag. A tag given in any spelling other
// than its slug ("C++", "Cpp") is redirected to the slug form.
func (a *App) handleTag(c echo.Context) error {
	ctx := c.Request().Context()
	raw := pathParam(c, "tag")
	tagSlug := slug.Make(raw)
	if tagSlug == "" {
		return echo.ErrNotFound
	}

	page := 1
	if p := c.Param("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return echo.ErrNotFound
		}
		page = n
	}

	if tagSlug != raw {
		to := TagPath(tagSlug)
		if page > 1 {
			to = pageURL(to, page)
		}
		return c.Redirect(http.StatusMovedPermanently, to)
	}
	if c.Param("page") == "1" {
		return c.Redirect(http.StatusMovedPermanently, TagPath(tagSlug))
	}

	tag, err := a.Cache.GetTag(ctx, tagSlug)
	if errors.Is(err, ErrNotFound) {
		return echo.ErrNotFound
	}
	if err != nil {
		return err
	}
	posts, err := a.Cache.ListPosts(ctx, tagSlug)
	if err != nil {
		return err
	}
	items, pg, ok := Paginate(posts, page, a.Config.PostsPerPage, TagPath(tagSlug))
	if !ok {
		return echo.ErrNotFound
	}
	return Render(c, a.Views.TagPosts(tag, items, pg))
}

func (a *App) handleArchives(c echo.Context) error {
	if !a.Config.Features.ShowArchives {
		return echo.ErrNotFound
	}
	posts, err := a.Cache.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return Render(c, a.Views.Archives(GroupArchives(posts, a.Config.Location())))
}

func (a *App) handleSitemap(c echo.Context) error {
	ctx := c.Request().Context()
	posts, err := a.Cache.ListPosts(ctx, "")
	if err != nil {
		return err
	}
	tags, err := a.Cache.ListTags(ctx)
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts, tags)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(filepath.Join(a.Config.StaticDir, "favicon.svg"))
}

func (a *App) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /admin/\n\nSitemap: %s\n", BuildURL(a.Config.URL, "sitemap.xml"))
	return c.String(http.StatusOK, body)
}

// pathParam returns the unescaped route parameter name.
func pathParam(c echo.Context, name string) string {
	v := c.Param(name)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error",
			"method", c.Request().Method,
			"uri", c.Request().RequestURI,
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			"error", err,
		)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
