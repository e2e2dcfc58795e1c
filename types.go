package devlog

import "time"

// BlogPost is the core content type indexed in SQLite and rendered by templates.
type BlogPost struct {
	Slug         string
	Title        string
	Author       string
	Description  string
	Tags         []string // display names
	TagSlugs     []string // parallel to Tags
	PubDatetime  time.Time
	ModDatetime  time.Time // zero when never revised
	CanonicalURL string
	OGImage      string
	Featured     bool
	Draft        bool
	ReadingTime  int
	Content      string
	Link         string // site-relative permalink
	SourcePath   string
}

// Updated returns the last modification time of the post.
func (p BlogPost) Updated() time.Time {
	if p.ModDatetime.After(p.PubDatetime) {
		return p.ModDatetime
	}
	return p.PubDatetime
}

// Tag is one entry of the tag index.
type Tag struct {
	Slug  string
	Name  string
	Count int
}

// Pagination describes one page of a post listing.
type Pagination struct {
	Page       int
	TotalPages int
	PrevURL    string
	NextURL    string
}

// ArchiveMonth groups the posts of one month.
type ArchiveMonth struct {
	Month time.Month
	Posts []BlogPost
}

// ArchiveYear groups the posts of one year, newest month first.
type ArchiveYear struct {
	Year   int
	Months []ArchiveMonth
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	OGImage     string
}
