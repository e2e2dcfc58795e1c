package views

import (
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/eringen/devlog"
)

func funcMap(cfg devlog.SiteConfig) template.FuncMap {
	loc := cfg.Location()
	return template.FuncMap{
		"postPath": devlog.PostPath,
		"tagPath":  devlog.TagPath,
		"pathEscape": func(s string) string {
			return url.PathEscape(s)
		},
		"joinTags": JoinTags,
		"tagClass": TagClass,
		"date": func(t time.Time) string {
			return FormatDate(t, loc)
		},
		"isoDate": func(t time.Time) string {
			return t.In(loc).Format(time.RFC3339)
		},
		"monthName": func(m time.Month) string {
			return m.String()
		},
		"editURL": func(p devlog.BlogPost) string {
			return EditURL(cfg.EditPostURL, p)
		},
		"status": PostStatus,
	}
}

// FormatDate formats t as shown under post titles, e.g. "Jan 2, 2006".
func FormatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("Jan 2, 2006")
}

// EditURL appends the post's source path to the configured edit link.
// An empty base disables the link.
func EditURL(base string, p devlog.BlogPost) string {
	if base == "" || p.SourcePath == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p.SourcePath, "/")
}

// PostStatus labels a post in the admin listing.
func PostStatus(p devlog.BlogPost) string {
	switch {
	case p.Draft:
		return "draft"
	case p.PubDatetime.After(time.Now()):
		return "scheduled"
	default:
		return "published"
	}
}

// TagClass returns CSS classes for a tag pill, with active variant.
func TagClass(active bool) string {
	if active {
		return "tag tag-active"
	}
	return "tag"
}

// JoinTags formats a tag slice as a comma-separated string.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
