package devlog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/devlog/content"
	"github.com/eringen/devlog/frontmatter"
)

func writePost(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, filepath.Dir(name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestIndexerSync(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "one.md", "---\ntitle: C++ Modules\npubDatetime: 2024-01-02\ntags: [C++]\n---\nbody\n")
	writePost(t, dir, "nested/two.md", "---\ntitle: GDB Tricks\npubDatetime: 2024-01-03\n---\nbody\n")

	s := setupTestStore(t)
	m := NewMetrics()
	ix := NewIndexer(dir, time.UTC, s, nil, m, nil)

	n, err := ix.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	p, err := s.GetPost(context.Background(), "cpp-modules")
	require.NoError(t, err)
	assert.Equal(t, []string{"cpp"}, p.TagSlugs)
	assert.Equal(t, "one.md", p.SourcePath)

	p, err = s.GetPost(context.Background(), "gdb-tricks")
	require.NoError(t, err)
	assert.Equal(t, []string{frontmatter.DefaultTag}, p.Tags)

	// A broken file fails the sync and keeps the previous index.
	writePost(t, dir, "broken.md", "---\ntitle: Broken\n")
	_, err = ix.Sync(context.Background())
	require.Error(t, err)
	all, err := s.ListAllPosts(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestIndexerSyncConcurrent(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		writePost(t, dir, fmt.Sprintf("post-%d.md", i), fmt.Sprintf("---\ntitle: Post %d\npubDatetime: 2024-01-0%d\n---\nbody\n", i, i+1))
	}

	s := setupTestStore(t)
	c := NewPostCache(s, time.Hour, 0, nil)
	ix := NewIndexer(dir, time.UTC, s, c, NewMetrics(), nil)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := ix.Sync(context.Background())
			if err == nil && n != 5 {
				err = fmt.Errorf("synced %d posts, want 5", n)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	all, err := s.ListAllPosts(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 5)
	posts, err := c.ListPosts(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, posts, 5)
}

func TestFromContent(t *testing.T) {
	pub := time.Date(2023, 5, 14, 9, 0, 0, 0, time.UTC)
	p := FromContent(content.Post{
		Path:        "2023/deducing-this.md",
		Slug:        "deducing-this-cpp-23",
		TagSlugs:    []string{"cpp"},
		Body:        "body",
		ReadingTime: 1,
		Meta: frontmatter.Meta{
			Title:        "Deducing This (C++23)",
			PubDatetime:  pub,
			Tags:         []string{"C++"},
			Featured:     true,
			CanonicalURL: "https://elsewhere.example/x",
		},
	})
	assert.Equal(t, "/posts/deducing-this-cpp-23/", p.Link)
	assert.Equal(t, "Deducing This (C++23)", p.Title)
	assert.Equal(t, []string{"C++"}, p.Tags)
	assert.True(t, p.Featured)
	assert.Equal(t, "https://elsewhere.example/x", p.CanonicalURL)
	assert.Equal(t, "2023/deducing-this.md", p.SourcePath)
}

func TestSchedulerRunsJob(t *testing.T) {
	s, err := NewScheduler(nil)
	require.NoError(t, err)

	var runs atomic.Int32
	require.NoError(t, s.Every("tick", 20*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
	}))
	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Stop())
}
