// Package content loads the Markdown article corpus from disk.
package content

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/eringen/devlog/frontmatter"
	"github.com/eringen/devlog/markdown"
	"github.com/eringen/devlog/slug"
)

// ErrDuplicateSlug is returned when two posts resolve to the same slug.
var ErrDuplicateSlug = errors.New("duplicate post slug")

// Post is a parsed article.
type Post struct {
	Path        string // path within the content FS
	Slug        string
	TagSlugs    []string // parallel to Meta.Tags
	Meta        frontmatter.Meta
	Body        string
	ReadingTime int // minutes
}

// Corpus is the set of posts loaded from one content tree, newest first.
type Corpus struct {
	Posts []Post
}

// Options controls Load.
type Options struct {
	// Location is used for timestamps without an offset. Nil means UTC.
	Location *time.Location
}

// Load reads every Markdown file in fsys. Files and directories whose names
// start with "_" or "." are skipped. All invalid files are reported
// together.
func Load(fsys fs.FS, opts Options) (*Corpus, error) {
	var (
		posts []Post
		errs  []error
		seen  = make(map[string]string)
	)
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if p != "." && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || path.Ext(name) != ".md" {
			return nil
		}
		post, err := loadFile(fsys, p, opts.Location)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
			return nil
		}
		if other, ok := seen[post.Slug]; ok {
			errs = append(errs, fmt.Errorf("%s: %w %q (also used by %s)", p, ErrDuplicateSlug, post.Slug, other))
			return nil
		}
		seen[post.Slug] = p
		posts = append(posts, post)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk content: %w", err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i].Meta.PubDatetime, posts[j].Meta.PubDatetime
		if !a.Equal(b) {
			return a.After(b)
		}
		return posts[i].Slug < posts[j].Slug
	})
	return &Corpus{Posts: posts}, nil
}

func loadFile(fsys fs.FS, p string, loc *time.Location) (Post, error) {
	b, err := fs.ReadFile(fsys, p)
	if err != nil {
		return Post{}, err
	}
	meta, body, err := frontmatter.Parse(b, loc)
	if err != nil {
		return Post{}, err
	}
	if err := meta.Validate(); err != nil {
		return Post{}, err
	}
	s := meta.PostSlug
	if s == "" {
		s = meta.Title
	}
	meta.Tags = dedupeTags(meta.Tags)
	post := Post{
		Path:        p,
		Slug:        slug.Make(s),
		TagSlugs:    slug.MakeAll(meta.Tags),
		Meta:        meta,
		Body:        string(body),
		ReadingTime: markdown.ReadingTime(string(body)),
	}
	if post.Slug == "" {
		return Post{}, fmt.Errorf("%w: title %q produces an empty slug", frontmatter.ErrInvalid, meta.Title)
	}
	for i, ts := range post.TagSlugs {
		if ts == "" {
			return Post{}, fmt.Errorf("%w: tag %q produces an empty slug", frontmatter.ErrInvalid, meta.Tags[i])
		}
	}
	return post, nil
}

// dedupeTags drops tags whose slug repeats an earlier tag of the same post,
// so "C++" and "cpp" on one post count once.
func dedupeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := tags[:0:0]
	for _, t := range tags {
		s := slug.Make(t)
		if _, ok := seen[s]; ok && s != "" {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, t)
	}
	return out
}
