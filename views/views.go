// Package views is the default devlog theme. Pages are html/template files
// embedded in the binary and exposed as templ components, so a site can
// swap any of them for its own templ code through devlog.ViewFuncs.
package views

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/devlog"
	"github.com/eringen/devlog/markdown"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageFiles = []string{
	"home", "posts", "post", "tags", "tag", "archives",
	"login", "dashboard", "notfound", "error",
}

// Theme renders the default templates for one site.
type Theme struct {
	cfg    devlog.SiteConfig
	images *devlog.ImageRegistry
	pages  map[string]*template.Template
}

// New parses the embedded templates. images may be nil.
func New(cfg devlog.SiteConfig, images *devlog.ImageRegistry) (*Theme, error) {
	t := &Theme{cfg: cfg, images: images, pages: make(map[string]*template.Template, len(pageFiles))}
	base, err := template.New("base").Funcs(funcMap(cfg)).ParseFS(templateFS, "templates/layout.html", "templates/partials.html")
	if err != nil {
		return nil, fmt.Errorf("views: parse layout: %w", err)
	}
	for _, name := range pageFiles {
		pt, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := pt.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("views: parse %s: %w", name, err)
		}
		t.pages[name] = pt
	}
	return t, nil
}

// Funcs returns the ViewFuncs devlog renders pages with.
func (t *Theme) Funcs() devlog.ViewFuncs {
	return devlog.ViewFuncs{
		Home:           t.Home,
		Posts:          t.Posts,
		Post:           t.Post,
		Tags:           t.Tags,
		TagPosts:       t.TagPosts,
		Archives:       t.Archives,
		AdminLogin:     t.AdminLogin,
		AdminDashboard: t.AdminDashboard,
		NotFound:       t.NotFound,
		ServerError:    t.ServerError,
	}
}

// page is the data every template receives.
type page struct {
	ctx    context.Context
	images *devlog.ImageRegistry

	Site   devlog.SiteConfig
	Meta   devlog.PageMeta
	Mode   devlog.DisplayMode
	JSONLD template.JS

	Featured   []devlog.BlogPost
	Posts      []devlog.BlogPost
	Post       devlog.BlogPost
	Related    []devlog.BlogPost
	Content    template.HTML
	Tags       []devlog.Tag
	Tag        devlog.Tag
	Pagination devlog.Pagination
	Years      []devlog.ArchiveYear
	Message    string
	CSRF       string
	ShowError  bool
}

// Dark reports whether the visitor forced dark mode.
func (p page) Dark() bool {
	return p.Site.Features.LightAndDarkMode && p.Mode == devlog.DisplayDark
}

// Image renders a registered themed image for the visitor's display mode.
func (p page) Image(name string) (template.HTML, error) {
	if p.images == nil {
		return "", nil
	}
	return templ.ToGoHTML(p.ctx, p.images.Component(name, p.Mode))
}

func (t *Theme) render(name string, fill func(*page)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := page{
			ctx:    ctx,
			images: t.images,
			Site:   t.cfg,
			Mode:   devlog.DisplayModeFromContext(ctx),
			Meta: devlog.PageMeta{
				Title:       t.cfg.Title,
				Description: t.cfg.Description,
				URL:         devlog.BuildURL(t.cfg.URL),
				OGType:      "website",
			},
		}
		if fill != nil {
			fill(&p)
		}
		return t.pages[name].ExecuteTemplate(w, "layout", p)
	})
}

func (t *Theme) title(s string) string {
	if s == "" {
		return t.cfg.Title
	}
	return s + " | " + t.cfg.Title
}

func (t *Theme) Home(featured, recent []devlog.BlogPost) templ.Component {
	return t.render("home", func(p *page) {
		p.Featured = featured
		p.Posts = recent
		p.JSONLD = template.JS(devlog.WebsiteJsonLD(t.cfg))
	})
}

func (t *Theme) Posts(posts []devlog.BlogPost, pg devlog.Pagination) templ.Component {
	return t.render("posts", func(p *page) {
		p.Posts = posts
		p.Pagination = pg
		p.Meta.Title = t.title("Posts")
		p.Meta.URL = devlog.BuildURL(t.cfg.URL, "posts")
	})
}

func (t *Theme) Post(post devlog.BlogPost, related []devlog.BlogPost) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		body, err := templ.ToGoHTML(ctx, markdown.Markdown(post.Content))
		if err != nil {
			return err
		}
		return t.render("post", func(p *page) {
			p.Post = post
			p.Related = related
			p.Content = body
			p.Meta = devlog.PageMeta{
				Title:       t.title(post.Title),
				Description: post.Description,
				URL:         devlog.CanonicalURL(t.cfg, post),
				OGType:      "article",
				OGImage:     post.OGImage,
			}
			p.JSONLD = template.JS(devlog.BlogPostingJsonLD(post, t.cfg))
		}).Render(ctx, w)
	})
}

func (t *Theme) Tags(tags []devlog.Tag) templ.Component {
	return t.render("tags", func(p *page) {
		p.Tags = tags
		p.Meta.Title = t.title("Tags")
		p.Meta.URL = devlog.BuildURL(t.cfg.URL, "tags")
	})
}

func (t *Theme) TagPosts(tag devlog.Tag, posts []devlog.BlogPost, pg devlog.Pagination) templ.Component {
	return t.render("tag", func(p *page) {
		p.Tag = tag
		p.Posts = posts
		p.Pagination = pg
		p.Meta.Title = t.title("Tag: " + tag.Name)
		p.Meta.Description = fmt.Sprintf("All the articles with the tag %q.", tag.Name)
		p.Meta.URL = devlog.BuildURL(t.cfg.URL, "tags", tag.Slug)
	})
}

func (t *Theme) Archives(years []devlog.ArchiveYear) templ.Component {
	return t.render("archives", func(p *page) {
		p.Years = years
		p.Meta.Title = t.title("Archives")
		p.Meta.URL = devlog.BuildURL(t.cfg.URL, "archives")
	})
}

func (t *Theme) AdminLogin(showError bool, csrfToken string) templ.Component {
	return t.render("login", func(p *page) {
		p.ShowError = showError
		p.CSRF = csrfToken
		p.Meta.Title = t.title("Admin")
	})
}

// AdminDashboard lists every indexed post and the tag counts over all of
// them, drafts included.
func (t *Theme) AdminDashboard(posts []devlog.BlogPost, tags []devlog.Tag, message, csrfToken string) templ.Component {
	return t.render("dashboard", func(p *page) {
		p.Posts = posts
		p.Tags = tags
		p.Message = message
		p.CSRF = csrfToken
		p.Meta.Title = t.title("Admin")
	})
}

func (t *Theme) NotFound() templ.Component {
	return t.render("notfound", func(p *page) {
		p.Meta.Title = t.title("Not found")
	})
}

func (t *Theme) ServerError() templ.Component {
	return t.render("error", func(p *page) {
		p.Meta.Title = t.title("Error")
	})
}
