package devlog

import (
	"encoding/xml"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (a *App) renderSitemap(c echo.Context, posts []BlogPost, tags []Tag) error {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: BuildURL(base)},
		{Loc: BuildURL(base, "posts")},
		{Loc: BuildURL(base, "tags")},
	}
	if len(posts) > 0 {
		urls[0].LastMod = posts[0].Updated().Format("2006-01-02")
	}
	if a.Config.Features.ShowArchives {
		urls = append(urls, sitemapURL{Loc: BuildURL(base, "archives")})
	}
	for _, p := range posts {
		// Posts published elsewhere first are indexed at their canonical URL.
		if p.CanonicalURL != "" {
			continue
		}
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, "posts", p.Slug),
			LastMod: p.Updated().Format("2006-01-02"),
		})
	}
	for _, t := range tags {
		urls = append(urls, sitemapURL{Loc: BuildURL(base, "tags", t.Slug)})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	return renderXML(c, "application/xml; charset=utf-8", sitemap)
}
