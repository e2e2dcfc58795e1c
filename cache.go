package devlog

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned when a requested post does not exist.
var ErrNotFound = sql.ErrNoRows

// PostCache is an in-memory cache of visible posts and tags with TTL.
// Drafts never enter the cache; posts scheduled later than now+margin are
// held back until a reload after their publish time.
type PostCache struct {
	mu      sync.RWMutex
	posts   []BlogPost
	tags    []Tag
	fetched time.Time
	ttl     time.Duration
	margin  time.Duration
	now     func() time.Time
	store   *Store
}

// NewPostCache creates a PostCache backed by the given Store.
func NewPostCache(s *Store, ttl, margin time.Duration, now func() time.Time) *PostCache {
	if now == nil {
		now = time.Now
	}
	return &PostCache{store: s, ttl: ttl, margin: margin, now: now}
}

func (c *PostCache) valid() bool {
	return c.posts != nil && c.now().Sub(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.tags = nil
	c.mu.Unlock()
}

func (c *PostCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	all, err := c.store.ListPosts(ctx, "")
	if err != nil {
		return err
	}
	now := c.now()
	posts := make([]BlogPost, 0, len(all))
	for _, p := range all {
		if IsVisible(p, now, c.margin) {
			posts = append(posts, p)
		}
	}
	c.posts = posts
	c.tags = BuildTagIndex(posts)
	c.fetched = now
	return nil
}

// ensureLoaded returns cached posts and tags after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *PostCache) ensureLoaded(ctx context.Context) ([]BlogPost, []Tag, error) {
	c.mu.RLock()
	if c.valid() {
		posts, tags := c.posts, c.tags
		c.mu.RUnlock()
		return posts, tags, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, nil, err
	}
	return c.posts, c.tags, nil
}

// ListPosts returns visible posts, optionally filtered by tag slug.
func (c *PostCache) ListPosts(ctx context.Context, tagSlug string) ([]BlogPost, error) {
	posts, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	if tagSlug == "" {
		return posts, nil
	}
	var filtered []BlogPost
	for _, p := range posts {
		for _, t := range p.TagSlugs {
			if t == tagSlug {
				filtered = append(filtered, p)
				break
			}
		}
	}
	return filtered, nil
}

// ListTags returns the tag index of visible posts.
func (c *PostCache) ListTags(ctx context.Context) ([]Tag, error) {
	_, tags, err := c.ensureLoaded(ctx)
	return tags, err
}

// GetTag looks up one tag of the index by slug.
func (c *PostCache) GetTag(ctx context.Context, tagSlug string) (Tag, error) {
	tags, err := c.ListTags(ctx)
	if err != nil {
		return Tag{}, err
	}
	for _, t := range tags {
		if t.Slug == tagSlug {
			return t, nil
		}
	}
	return Tag{}, ErrNotFound
}

// GetPost returns a single visible post by slug from the cache.
func (c *PostCache) GetPost(ctx context.Context, slug string) (BlogPost, error) {
	posts, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return BlogPost{}, err
	}
	for _, p := range posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return BlogPost{}, ErrNotFound
}

// IsVisible reports whether p may be shown publicly at now. A post becomes
// visible margin before its publish time.
func IsVisible(p BlogPost, now time.Time, margin time.Duration) bool {
	if p.Draft {
		return false
	}
	return !p.PubDatetime.After(now.Add(margin))
}

// BuildTagIndex collects the unique tags of posts, sorted by slug. A tag is
// named after the first spelling met in posts, so callers pass them newest
// first.
func BuildTagIndex(posts []BlogPost) []Tag {
	idx := make(map[string]*Tag)
	for _, p := range posts {
		for i, s := range p.TagSlugs {
			t, ok := idx[s]
			if !ok {
				t = &Tag{Slug: s}
				if i < len(p.Tags) {
					t.Name = p.Tags[i]
				}
				idx[s] = t
			}
			t.Count++
		}
	}
	tags := make([]Tag, 0, len(idx))
	for _, t := range idx {
		tags = append(tags, *t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Slug < tags[j].Slug })
	return tags
}
