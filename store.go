package devlog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store wraps a SQLite database holding the indexed posts.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the server read while a re-index writes; busy_timeout makes
	// writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    slug TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    author TEXT NOT NULL,
    description TEXT NOT NULL,
    pub_datetime TEXT NOT NULL,
    mod_datetime TEXT NOT NULL,
    canonical_url TEXT NOT NULL,
    og_image TEXT NOT NULL,
    featured INTEGER NOT NULL DEFAULT 0,
    draft INTEGER NOT NULL DEFAULT 0,
    reading_time INTEGER NOT NULL DEFAULT 0,
    content TEXT NOT NULL,
    source_path TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS post_tags (
    post_slug TEXT NOT NULL,
    tag_slug TEXT NOT NULL,
    tag_name TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (post_slug, tag_slug)
);
CREATE INDEX IF NOT EXISTS post_tags_tag ON post_tags(tag_slug);
CREATE INDEX IF NOT EXISTS posts_pub ON posts(pub_datetime);
`)
	return err
}

const postColumns = `slug, title, author, description, pub_datetime, mod_datetime, canonical_url, og_image, featured, draft, reading_time, content, source_path`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(r rowScanner) (BlogPost, error) {
	var (
		p             BlogPost
		pub, mod      string
		featured, dft int
	)
	if err := r.Scan(&p.Slug, &p.Title, &p.Author, &p.Description, &pub, &mod,
		&p.CanonicalURL, &p.OGImage, &featured, &dft, &p.ReadingTime, &p.Content, &p.SourcePath); err != nil {
		return BlogPost{}, err
	}
	p.PubDatetime = parseStoredTime(pub)
	p.ModDatetime = parseStoredTime(mod)
	p.Featured = featured == 1
	p.Draft = dft == 1
	p.Link = PostPath(p.Slug)
	return p, nil
}

func formatStoredTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseStoredTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// queryPosts runs a post query and attaches tags.
func (s *Store) queryPosts(ctx context.Context, query string, args ...any) ([]BlogPost, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []BlogPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Store) attachTags(ctx context.Context, posts []BlogPost) error {
	if len(posts) == 0 {
		return nil
	}
	index := make(map[string]int, len(posts))
	for i, p := range posts {
		index[p.Slug] = i
	}
	rows, err := s.db.QueryContext(ctx, `SELECT post_slug, tag_slug, tag_name FROM post_tags ORDER BY post_slug, position`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var postSlug, tagSlug, tagName string
		if err := rows.Scan(&postSlug, &tagSlug, &tagName); err != nil {
			return err
		}
		if i, ok := index[postSlug]; ok {
			posts[i].Tags = append(posts[i].Tags, tagName)
			posts[i].TagSlugs = append(posts[i].TagSlugs, tagSlug)
		}
	}
	return rows.Err()
}

// ListPosts returns all non-draft posts ordered by publish time descending.
// If tagSlug is non-empty, results are limited to posts carrying that tag.
func (s *Store) ListPosts(ctx context.Context, tagSlug string) ([]BlogPost, error) {
	if tagSlug == "" {
		return s.queryPosts(ctx, `SELECT `+postColumns+` FROM posts WHERE draft = 0 ORDER BY pub_datetime DESC, slug`)
	}
	return s.queryPosts(ctx, `SELECT `+postColumns+` FROM posts
		WHERE draft = 0 AND slug IN (SELECT post_slug FROM post_tags WHERE tag_slug = ?)
		ORDER BY pub_datetime DESC, slug`, tagSlug)
}

// ListAllPosts returns every post, drafts included, newest first.
func (s *Store) ListAllPosts(ctx context.Context) ([]BlogPost, error) {
	return s.queryPosts(ctx, `SELECT `+postColumns+` FROM posts ORDER BY pub_datetime DESC, slug`)
}

// GetPost returns a single non-draft post by slug.
func (s *Store) GetPost(ctx context.Context, slug string) (BlogPost, error) {
	return s.getPost(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ? AND draft = 0`, slug)
}

// GetPostAny returns a post by slug regardless of draft status (for admin).
func (s *Store) GetPostAny(ctx context.Context, slug string) (BlogPost, error) {
	return s.getPost(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug)
}

func (s *Store) getPost(ctx context.Context, query, slug string) (BlogPost, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		return BlogPost{}, err
	}
	posts := []BlogPost{p}
	if err := s.attachTags(ctx, posts); err != nil {
		return BlogPost{}, err
	}
	return posts[0], nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertPost(ctx context.Context, db execer, p BlogPost) error {
	if _, err := db.ExecContext(ctx, `INSERT OR REPLACE INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Slug, p.Title, p.Author, p.Description, formatStoredTime(p.PubDatetime), formatStoredTime(p.ModDatetime),
		p.CanonicalURL, p.OGImage, boolInt(p.Featured), boolInt(p.Draft), p.ReadingTime, p.Content, p.SourcePath); err != nil {
		return fmt.Errorf("insert post %s: %w", p.Slug, err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM post_tags WHERE post_slug = ?`, p.Slug); err != nil {
		return err
	}
	for i, name := range p.Tags {
		tagSlug := ""
		if i < len(p.TagSlugs) {
			tagSlug = p.TagSlugs[i]
		}
		if tagSlug == "" {
			return fmt.Errorf("post %s: tag %q has no slug", p.Slug, name)
		}
		if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO post_tags (post_slug, tag_slug, tag_name, position) VALUES (?, ?, ?, ?)`,
			p.Slug, tagSlug, strings.TrimSpace(name), i); err != nil {
			return fmt.Errorf("insert tag %s/%s: %w", p.Slug, tagSlug, err)
		}
	}
	return nil
}

// ReplaceAll swaps the whole index for posts in one transaction.
func (s *Store) ReplaceAll(ctx context.Context, posts []BlogPost) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM post_tags; DELETE FROM posts;`); err != nil {
			return err
		}
		for _, p := range posts {
			if err := insertPost(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
