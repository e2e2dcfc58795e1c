package devlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsVisible(t *testing.T) {
	now := day(2024, 1, 1)
	margin := 15 * time.Minute

	cases := []struct {
		name string
		post BlogPost
		want bool
	}{
		{"past", BlogPost{PubDatetime: now.Add(-time.Hour)}, true},
		{"now", BlogPost{PubDatetime: now}, true},
		{"inside margin", BlogPost{PubDatetime: now.Add(10 * time.Minute)}, true},
		{"at margin", BlogPost{PubDatetime: now.Add(margin)}, true},
		{"after margin", BlogPost{PubDatetime: now.Add(margin + time.Second)}, false},
		{"draft", BlogPost{PubDatetime: now.Add(-time.Hour), Draft: true}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsVisible(tc.post, now, margin))
		})
	}
}

func TestPostCache(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := day(2024, 1, 1)

	require.NoError(t, s.ReplaceAll(ctx, []BlogPost{
		testPost("a", "A", day(2023, 1, 1), "C++"),
		testPost("b", "B", day(2023, 6, 1), "cpp", "Debugging"),
		testPost("later", "Later", day(2024, 2, 1), "Trip Report"),
	}))

	c := NewPostCache(s, time.Minute, 15*time.Minute, func() time.Time { return now })

	posts, err := c.ListPosts(ctx, "")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "b", posts[0].Slug)

	cpp, err := c.ListPosts(ctx, "cpp")
	require.NoError(t, err)
	assert.Len(t, cpp, 2)

	tags, err := c.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2, "tags of scheduled posts are not listed")
	assert.Equal(t, Tag{Slug: "cpp", Name: "cpp", Count: 2}, tags[0])

	tag, err := c.GetTag(ctx, "debugging")
	require.NoError(t, err)
	assert.Equal(t, 1, tag.Count)
	_, err = c.GetTag(ctx, "trip-report")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = c.GetPost(ctx, "later")
	assert.True(t, errors.Is(err, ErrNotFound))

	// TTL expiry picks up the scheduled post once its time has come.
	now = day(2024, 2, 1)
	_, err = c.GetPost(ctx, "later")
	require.NoError(t, err)
}

func TestPostCacheInvalidate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	c := NewPostCache(s, time.Hour, 0, nil)

	posts, err := c.ListPosts(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, posts)

	require.NoError(t, s.ReplaceAll(ctx, []BlogPost{testPost("a", "A", day(2020, 1, 1))}))
	posts, _ = c.ListPosts(ctx, "")
	assert.Empty(t, posts, "served from cache")

	c.Invalidate()
	posts, _ = c.ListPosts(ctx, "")
	assert.Len(t, posts, 1)
}

func TestBuildTagIndex(t *testing.T) {
	posts := []BlogPost{
		testPost("newest", "Newest", day(2024, 3, 1), "cpp", "Debugging"),
		testPost("older", "Older", day(2023, 1, 1), "C++"),
		testPost("oldest", "Oldest", day(2022, 1, 1), "Trip Report"),
	}

	tags := BuildTagIndex(posts)
	assert.Equal(t, []Tag{
		{Slug: "cpp", Name: "cpp", Count: 2},
		{Slug: "debugging", Name: "Debugging", Count: 1},
		{Slug: "trip-report", Name: "Trip Report", Count: 1},
	}, tags)

	assert.Empty(t, BuildTagIndex(nil))
}
