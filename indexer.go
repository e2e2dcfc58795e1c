package devlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/eringen/devlog/content"
)

// Indexer loads the content directory into the store.
type Indexer struct {
	dir     string
	loc     *time.Location
	store   *Store
	cache   *PostCache
	metrics *Metrics
	logger  *slog.Logger

	mu sync.Mutex
}

// NewIndexer creates an Indexer for the Markdown tree at dir. cache and
// metrics may be nil.
func NewIndexer(dir string, loc *time.Location, store *Store, cache *PostCache, metrics *Metrics, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{dir: dir, loc: loc, store: store, cache: cache, metrics: metrics, logger: logger}
}

// Sync re-reads every post and replaces the index. Concurrent calls run one
// after another. On error the previous index is kept.
func (ix *Indexer) Sync(ctx context.Context) (int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	start := time.Now()
	n, err := ix.sync(ctx)
	if ix.metrics != nil {
		ix.metrics.observeSync(n, err)
	}
	if err != nil {
		ix.logger.Error("content sync failed", "dir", ix.dir, "error", err)
		return 0, err
	}
	ix.logger.Info("content synced", "dir", ix.dir, "posts", n, "took", time.Since(start))
	return n, nil
}

func (ix *Indexer) sync(ctx context.Context) (int, error) {
	corpus, err := content.Load(os.DirFS(ix.dir), content.Options{Location: ix.loc})
	if err != nil {
		return 0, fmt.Errorf("load content: %w", err)
	}
	posts := make([]BlogPost, 0, len(corpus.Posts))
	for _, p := range corpus.Posts {
		posts = append(posts, FromContent(p))
	}
	if err := ix.store.ReplaceAll(ctx, posts); err != nil {
		return 0, fmt.Errorf("replace index: %w", err)
	}
	if ix.cache != nil {
		ix.cache.Invalidate()
	}
	return len(posts), nil
}

// FromContent converts a parsed article into its indexed form.
func FromContent(p content.Post) BlogPost {
	return BlogPost{
		Slug:         p.Slug,
		Title:        p.Meta.Title,
		Author:       p.Meta.Author,
		Description:  p.Meta.Description,
		Tags:         p.Meta.Tags,
		TagSlugs:     p.TagSlugs,
		PubDatetime:  p.Meta.PubDatetime,
		ModDatetime:  p.Meta.ModDatetime,
		CanonicalURL: p.Meta.CanonicalURL,
		OGImage:      p.Meta.OGImage,
		Featured:     p.Meta.Featured,
		Draft:        p.Meta.Draft,
		ReadingTime:  p.ReadingTime,
		Content:      p.Body,
		Link:         PostPath(p.Slug),
		SourcePath:   p.Path,
	}
}

// Scheduler runs periodic background jobs.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{scheduler: s, logger: logger, ctx: ctx, cancel: cancel}, nil
}

// Every schedules fn at a fixed interval. A run is skipped while the
// previous one is still going.
func (s *Scheduler) Every(name string, interval time.Duration, fn func(context.Context)) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { fn(s.ctx) }),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	return nil
}

// Start begins running scheduled jobs.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler")
	s.scheduler.Start()
}

// Stop cancels running jobs, waits for them and shuts the scheduler down.
func (s *Scheduler) Stop() error {
	s.logger.Info("stopping scheduler")
	s.cancel()
	return s.scheduler.Shutdown()
}
