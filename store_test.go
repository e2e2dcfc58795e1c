package devlog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "test_blog.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func testPost(slug, title string, pub time.Time, tags ...string) BlogPost {
	slugs := make([]string, len(tags))
	for i, t := range tags {
		slugs[i] = testTagSlugs[t]
	}
	return BlogPost{
		Slug:        slug,
		Title:       title,
		Author:      "Jane Doe",
		Description: title + " summary",
		Tags:        tags,
		TagSlugs:    slugs,
		PubDatetime: pub,
		ReadingTime: 3,
		Content:     "# " + title + "\n\nBody.",
		SourcePath:  slug + ".md",
	}
}

var testTagSlugs = map[string]string{
	"C++":         "cpp",
	"Debugging":   "debugging",
	"Trip Report": "trip-report",
	"cpp":         "cpp",
}

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
}

func TestReplaceAllAndGetPost(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	post := testPost("deducing-this-cpp-23", "Deducing This (C++23)", day(2023, 5, 14), "C++", "Debugging")
	post.ModDatetime = day(2023, 6, 1)
	post.Featured = true
	post.CanonicalURL = "https://devblogs.example.com/deducing-this"

	if err := s.ReplaceAll(ctx, []BlogPost{post}); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	got, err := s.GetPost(ctx, "deducing-this-cpp-23")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != post.Title {
		t.Errorf("Title = %q, want %q", got.Title, post.Title)
	}
	if !got.PubDatetime.Equal(post.PubDatetime) {
		t.Errorf("PubDatetime = %v, want %v", got.PubDatetime, post.PubDatetime)
	}
	if !got.ModDatetime.Equal(post.ModDatetime) {
		t.Errorf("ModDatetime = %v, want %v", got.ModDatetime, post.ModDatetime)
	}
	if !got.Featured {
		t.Error("Featured should be true")
	}
	if got.CanonicalURL != post.CanonicalURL {
		t.Errorf("CanonicalURL = %q, want %q", got.CanonicalURL, post.CanonicalURL)
	}
	if got.Link != "/posts/deducing-this-cpp-23/" {
		t.Errorf("Link = %q", got.Link)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "C++" || got.TagSlugs[0] != "cpp" || got.TagSlugs[1] != "debugging" {
		t.Errorf("Tags = %v / %v", got.Tags, got.TagSlugs)
	}
}

func TestGetPostNotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.GetPost(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDraftsAreHiddenFromPublicQueries(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	draft := testPost("wip", "Work in progress", day(2024, 1, 1), "C++")
	draft.Draft = true
	if err := s.ReplaceAll(ctx, []BlogPost{draft, testPost("live", "Live", day(2023, 1, 1), "Debugging")}); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	if _, err := s.GetPost(ctx, "wip"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPost(draft) err = %v, want ErrNotFound", err)
	}
	if p, err := s.GetPostAny(ctx, "wip"); err != nil || !p.Draft {
		t.Errorf("GetPostAny(draft) = %+v, %v", p, err)
	}

	posts, err := s.ListPosts(ctx, "")
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != 1 || posts[0].Slug != "live" {
		t.Errorf("ListPosts = %v, want only live", posts)
	}

	all, err := s.ListAllPosts(ctx)
	if err != nil {
		t.Fatalf("ListAllPosts failed: %v", err)
	}
	if len(all) != 2 || all[0].Slug != "wip" {
		t.Errorf("ListAllPosts = %v, want wip first", all)
	}

	cpp, err := s.ListPosts(ctx, "cpp")
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(cpp) != 0 {
		t.Errorf("ListPosts(cpp) = %v, want no drafts", cpp)
	}
}

func TestListPostsByTagSlug(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	posts := []BlogPost{
		testPost("a", "A", day(2024, 1, 1), "C++"),
		testPost("b", "B", day(2024, 2, 1), "cpp", "Debugging"),
		testPost("c", "C", day(2024, 3, 1), "Debugging"),
	}
	if err := s.ReplaceAll(ctx, posts); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	got, err := s.ListPosts(ctx, "cpp")
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(got) != 2 || got[0].Slug != "b" || got[1].Slug != "a" {
		t.Errorf("ListPosts(cpp) = %v, want [b a]", got)
	}

	got, err = s.ListPosts(ctx, "debugging")
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(got) != 2 || got[0].Slug != "c" {
		t.Errorf("ListPosts(debugging) = %v, want [c b]", got)
	}
}

func TestReplaceAllDropsRemovedPosts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.ReplaceAll(ctx, []BlogPost{testPost("old", "Old", day(2020, 1, 1), "C++")}); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}
	if err := s.ReplaceAll(ctx, []BlogPost{testPost("new", "New", day(2021, 1, 1), "Debugging")}); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}
	all, _ := s.ListAllPosts(ctx)
	if len(all) != 1 || all[0].Slug != "new" {
		t.Errorf("ListAllPosts = %v, want [new]", all)
	}
	stale, _ := s.ListPosts(ctx, "cpp")
	if len(stale) != 0 {
		t.Errorf("stale tags left behind: %+v", stale)
	}
}

func TestReplaceAllIsAtomic(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.ReplaceAll(ctx, []BlogPost{testPost("keep", "Keep", day(2020, 1, 1))}); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}
	bad := testPost("bad", "Bad", day(2021, 1, 1))
	bad.Tags = []string{"untagged"}
	if err := s.ReplaceAll(ctx, []BlogPost{testPost("x", "X", day(2021, 1, 1)), bad}); err == nil {
		t.Fatal("expected ReplaceAll to fail on a tag without slug")
	}
	all, _ := s.ListAllPosts(ctx)
	if len(all) != 1 || all[0].Slug != "keep" {
		t.Errorf("ListAllPosts = %v, want previous index intact", all)
	}
}
