package main

import (
	"fmt"
	"io"
	"os"

	"github.com/eringen/devlog"
	"github.com/eringen/devlog/content"
)

// runCheck loads the content directory and reports every invalid post.
func runCheck(w io.Writer, configPath string) error {
	cfg, err := devlog.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	corpus, err := content.Load(os.DirFS(cfg.ContentDir), content.Options{Location: cfg.Location()})
	if err != nil {
		return err
	}
	drafts := 0
	posts := make([]devlog.BlogPost, 0, len(corpus.Posts))
	for _, p := range corpus.Posts {
		if p.Meta.Draft {
			drafts++
		}
		posts = append(posts, devlog.FromContent(p))
	}
	tags := devlog.BuildTagIndex(posts)
	fmt.Fprintf(w, "%d posts (%d drafts), %d tags: ok\n", len(corpus.Posts), drafts, len(tags))
	return nil
}
