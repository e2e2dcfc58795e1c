package devlog

import (
	"encoding/xml"
	"time"

	"github.com/labstack/echo/v4"
)

// rssLimit caps the number of items in the feed.
const rssLimit = 20

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	AtomNS  string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	AtomLink      atomLink  `xml:"atom:link"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	Author      string   `xml:"author,omitempty"`
	Categories  []string `xml:"category"`
	PubDate     string   `xml:"pubDate"`
	GUID        rssGUID  `xml:"guid"`
}

type rssGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

func (a *App) renderRSS(c echo.Context, posts []BlogPost) error {
	base := a.Config.URL
	if len(posts) > rssLimit {
		posts = posts[:rssLimit]
	}
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		postURL := BuildURL(base, "posts", p.Slug)
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        CanonicalURL(a.Config, p),
			Description: p.Description,
			Author:      p.Author,
			Categories:  p.Tags,
			PubDate:     p.PubDatetime.Format(time.RFC1123Z),
			GUID:        rssGUID{Value: postURL, IsPermaLink: true},
		})
	}
	feed := rssXML{
		Version: "2.0",
		AtomNS:  "http://www.w3.org/2005/Atom",
		Channel: rssChannel{
			Title:       a.Config.Title,
			Link:        BuildURL(base),
			Description: a.Config.Description,
			Language:    a.Config.Lang,
			AtomLink: atomLink{
				Href: BuildURL(base, "rss.xml"),
				Rel:  "self",
				Type: "application/rss+xml",
			},
			Items: items,
		},
	}
	if len(posts) > 0 {
		feed.Channel.LastBuildDate = posts[0].Updated().Format(time.RFC1123Z)
	}
	return renderXML(c, "application/rss+xml; charset=utf-8", feed)
}
