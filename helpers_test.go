package devlog

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildURL(t *testing.T) {
	assert.Equal(t, "https://example.com", BuildURL("https://example.com"))
	assert.Equal(t, "https://example.com/posts/a/", BuildURL("https://example.com", "posts", "a"))
	assert.Equal(t, "https://example.com/blog/tags/cpp/", BuildURL("https://example.com/blog", "tags", "cpp"))
	assert.Equal(t, "https://example.com/rss.xml", BuildURL("https://example.com", "rss.xml"))
}

func TestCanonicalURL(t *testing.T) {
	cfg := SiteConfig{URL: "https://example.com"}
	p := BlogPost{Slug: "a"}
	assert.Equal(t, "https://example.com/posts/a/", CanonicalURL(cfg, p))
	p.CanonicalURL = "https://elsewhere.example/a"
	assert.Equal(t, "https://elsewhere.example/a", CanonicalURL(cfg, p))
}

func TestFilterRelatedPosts(t *testing.T) {
	current := BlogPost{Slug: "x", TagSlugs: []string{"cpp"}}
	posts := []BlogPost{
		current,
		{Slug: "y", TagSlugs: []string{"debugging", "cpp"}},
		{Slug: "z", TagSlugs: []string{"rust"}},
	}
	related := FilterRelatedPosts(current, posts)
	require.Len(t, related, 1)
	assert.Equal(t, "y", related[0].Slug)
}

func TestPaginate(t *testing.T) {
	posts := make([]BlogPost, 5)
	for i := range posts {
		posts[i].Slug = string(rune('a' + i))
	}

	items, p, ok := Paginate(posts, 1, 2, "/posts/")
	require.True(t, ok)
	assert.Len(t, items, 2)
	assert.Equal(t, Pagination{Page: 1, TotalPages: 3, NextURL: "/posts/2/"}, p)

	items, p, ok = Paginate(posts, 3, 2, "/tags/cpp/")
	require.True(t, ok)
	assert.Equal(t, "e", items[0].Slug)
	assert.Equal(t, "/tags/cpp/2/", p.PrevURL)
	assert.Empty(t, p.NextURL)

	_, p, ok = Paginate(posts, 2, 2, "/posts/")
	require.True(t, ok)
	assert.Equal(t, "/posts/", p.PrevURL)

	_, _, ok = Paginate(posts, 4, 2, "/posts/")
	assert.False(t, ok)
	_, _, ok = Paginate(posts, 0, 2, "/posts/")
	assert.False(t, ok)

	items, p, ok = Paginate(nil, 1, 10, "/posts/")
	assert.True(t, ok)
	assert.Empty(t, items)
	assert.Equal(t, 1, p.TotalPages)
}

func TestGroupArchives(t *testing.T) {
	posts := []BlogPost{
		{Slug: "c", PubDatetime: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)},
		{Slug: "b", PubDatetime: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Slug: "a", PubDatetime: time.Date(2023, 12, 31, 23, 30, 0, 0, time.UTC)},
	}
	years := GroupArchives(posts, time.UTC)
	require.Len(t, years, 2)
	assert.Equal(t, 2024, years[0].Year)
	require.Len(t, years[0].Months, 1)
	assert.Len(t, years[0].Months[0].Posts, 2)

	// In UTC+1 the last post falls into January 2024.
	years = GroupArchives(posts, time.FixedZone("CET", 3600))
	require.Len(t, years, 1)
	assert.Len(t, years[0].Months, 2)
	assert.Equal(t, time.January, years[0].Months[1].Month)
}

func TestFilterEmpty(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, FilterEmpty([]string{"a", "", "  ", "b"}))
	assert.Nil(t, FilterEmpty(nil))
}

func TestBlogPostingJsonLD(t *testing.T) {
	cfg := SiteConfig{URL: "https://example.com", Author: "Jane Doe"}
	post := BlogPost{
		Slug:        "a",
		Title:       "Deducing This",
		Tags:        []string{"C++", "Standards"},
		PubDatetime: time.Date(2023, 5, 14, 9, 0, 0, 0, time.UTC),
	}
	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(BlogPostingJsonLD(post, cfg)), &data))
	assert.Equal(t, "BlogPosting", data["@type"])
	assert.Equal(t, "https://example.com/posts/a/", data["url"])
	assert.Equal(t, "C++, Standards", data["keywords"])
	assert.Equal(t, "2023-05-14T09:00:00Z", data["dateModified"])
	assert.Equal(t, "Jane Doe", data["author"].(map[string]any)["name"])
}
