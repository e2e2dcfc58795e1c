package devlog

import (
	"encoding/json"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
)

// PostPath returns the permalink path of a post.
func PostPath(slug string) string {
	return "/posts/" + slug + "/"
}

// TagPath returns the index path of a tag.
func TagPath(tagSlug string) string {
	return "/tags/" + tagSlug + "/"
}

// BuildURL joins a base URL with path segments. Page paths get a trailing
// slash; file paths such as "rss.xml" do not.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && path.Ext(u.Path) == "" && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// CanonicalURL returns the front-matter canonical URL of post, or its
// permalink on the site.
func CanonicalURL(cfg SiteConfig, post BlogPost) string {
	if post.CanonicalURL != "" {
		return post.CanonicalURL
	}
	return BuildURL(cfg.URL, "posts", post.Slug)
}

// FilterRelatedPosts finds posts that share at least one tag slug with current.
func FilterRelatedPosts(current BlogPost, posts []BlogPost) []BlogPost {
	tagSet := make(map[string]struct{}, len(current.TagSlugs))
	for _, t := range current.TagSlugs {
		tagSet[t] = struct{}{}
	}
	var related []BlogPost
	for _, p := range posts {
		if p.Slug == current.Slug {
			continue
		}
		for _, t := range p.TagSlugs {
			if _, ok := tagSet[t]; ok {
				related = append(related, p)
				break
			}
		}
	}
	return related
}

// Paginate returns the posts of page (1-based) and its navigation. ok is
// false when page is out of range; page 1 of an empty list is in range.
func Paginate(posts []BlogPost, page, perPage int, basePath string) (items []BlogPost, p Pagination, ok bool) {
	if perPage <= 0 {
		perPage = len(posts)
		if perPage == 0 {
			perPage = 1
		}
	}
	total := (len(posts) + perPage - 1) / perPage
	if total == 0 {
		total = 1
	}
	if page < 1 || page > total {
		return nil, Pagination{}, false
	}
	start := (page - 1) * perPage
	end := start + perPage
	if end > len(posts) {
		end = len(posts)
	}
	p = Pagination{Page: page, TotalPages: total}
	if page > 1 {
		p.PrevURL = pageURL(basePath, page-1)
	}
	if page < total {
		p.NextURL = pageURL(basePath, page+1)
	}
	return posts[start:end], p, true
}

func pageURL(basePath string, page int) string {
	if page == 1 {
		return basePath
	}
	return basePath + strconv.Itoa(page) + "/"
}

// GroupArchives buckets posts by year and month in loc, newest first.
// posts must already be sorted newest first.
func GroupArchives(posts []BlogPost, loc *time.Location) []ArchiveYear {
	var years []ArchiveYear
	for _, p := range posts {
		t := p.PubDatetime.In(loc)
		if n := len(years); n == 0 || years[n-1].Year != t.Year() {
			years = append(years, ArchiveYear{Year: t.Year()})
		}
		y := &years[len(years)-1]
		if n := len(y.Months); n == 0 || y.Months[n-1].Month != t.Month() {
			y.Months = append(y.Months, ArchiveMonth{Month: t.Month()})
		}
		m := &y.Months[len(y.Months)-1]
		m.Posts = append(m.Posts, p)
	}
	return years
}

// FilterEmpty removes empty/whitespace-only strings from a slice.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// WebsiteJsonLD returns a JSON-LD string for a WebSite schema using SiteConfig.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context":   "https://schema.org",
		"@type":      "WebSite",
		"name":       cfg.Title,
		"url":        BuildURL(cfg.URL),
		"inLanguage": cfg.Lang,
	}
	if cfg.Description != "" {
		data["description"] = cfg.Description
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD returns a JSON-LD string for a BlogPosting schema.
func BlogPostingJsonLD(post BlogPost, cfg SiteConfig) string {
	postURL := CanonicalURL(cfg, post)
	data := map[string]interface{}{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      post.Title,
		"description":   post.Description,
		"datePublished": post.PubDatetime.Format(time.RFC3339),
		"dateModified":  post.Updated().Format(time.RFC3339),
		"url":           postURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	author := post.Author
	if author == "" {
		author = cfg.Author
	}
	if author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  author,
		}
	}
	if len(post.Tags) > 0 {
		data["keywords"] = strings.Join(post.Tags, ", ")
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
