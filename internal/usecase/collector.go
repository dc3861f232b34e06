package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const (
	// DefaultFetchTimeout bounds one adapter fetch.
	DefaultFetchTimeout = 30 * time.Second
	// DefaultAnnotateTimeout bounds inline batch annotation in full mode.
	DefaultAnnotateTimeout = 60 * time.Second
	// DefaultMaxParallel bounds the fan-out over sources.
	DefaultMaxParallel = 4
)

// CollectorDeps wires the stores and per-type fetcher adapters.
type CollectorDeps struct {
	Sources   ports.SourceStore
	Articles  ports.ArticleStore
	Annotator *Annotator
	Feed      ports.Fetcher
	Video     ports.Fetcher
	Mailbox   ports.Fetcher
	Logger    *slog.Logger
}

// CollectorOptions tunes timeouts, mode, and fan-out parallelism. Zero values
// take the package defaults.
type CollectorOptions struct {
	Mode            domain.CollectMode
	FetchTimeout    time.Duration
	AnnotateTimeout time.Duration
	MaxParallel     int
}

// Collector orchestrates fetch, dedup, annotate, and persist for sources.
type Collector struct {
	sources   ports.SourceStore
	articles  ports.ArticleStore
	annotator *Annotator
	feed      ports.Fetcher
	video     ports.Fetcher
	mailbox   ports.Fetcher
	opts      CollectorOptions
	logger    *slog.Logger
}

// NewCollector constructs the collection component.
func NewCollector(deps CollectorDeps, opts CollectorOptions) *Collector {
	if opts.Mode == "" {
		opts.Mode = domain.CollectFast
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.AnnotateTimeout <= 0 {
		opts.AnnotateTimeout = DefaultAnnotateTimeout
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = DefaultMaxParallel
	}
	return &Collector{
		sources:   deps.Sources,
		articles:  deps.Articles,
		annotator: deps.Annotator,
		feed:      deps.Feed,
		video:     deps.Video,
		mailbox:   deps.Mailbox,
		opts:      opts,
		logger:    deps.Logger,
	}
}

// CollectFromSource runs one collection pass for a single source. Errors are
// accumulated into the result rather than returned: collection is best-effort
// and partial success is preferred over a hard abort.
func (c *Collector) CollectFromSource(ctx context.Context, sourceID string) domain.CollectionResult {
	started := time.Now()
	result := domain.CollectionResult{SourceID: sourceID}
	defer func() {
		result.Duration = time.Since(started)
	}()

	src, err := c.sources.GetSource(ctx, sourceID)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("load source: %v", err))
		return result
	}
	if src == nil || !src.Active {
		result.Errors = append(result.Errors, "Source not found or inactive")
		return result
	}
	result.SourceName = src.Name

	items, err := c.fetch(ctx, *src)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("fetch %s: %v", src.Name, err))
		c.touch(ctx, src.ID)
		return result
	}

	c.debug("collected items", "source", src.Name, "items", len(items))

	fresh := c.filterNew(ctx, src.ID, items, &result)

	switch c.opts.Mode {
	case domain.CollectFull:
		c.persistAnnotated(ctx, *src, fresh, &result)
	default:
		c.persistPending(ctx, *src, fresh, &result)
	}

	c.touch(ctx, src.ID)

	c.debug("collection done",
		"source", src.Name, "new", result.NewArticles, "errors", len(result.Errors))
	return result
}

// CollectFromAllSources fans CollectFromSource out over every configured
// source through a bounded worker pool. Inactive sources fail fast inside
// their own run and surface a recorded error; no global timeout wraps the
// fan-out, each source is bounded by its own fetch timeout.
func (c *Collector) CollectFromAllSources(ctx context.Context) []domain.CollectionResult {
	sources, err := c.sources.ListSources(ctx)
	if err != nil {
		c.warn("list sources failed", "error", err)
		return nil
	}

	c.debug("collecting from sources", "count", len(sources))

	results := make([]domain.CollectionResult, len(sources))
	sem := make(chan struct{}, c.opts.MaxParallel)
	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = c.CollectFromSource(ctx, id)
		}(i, src.ID)
	}
	wg.Wait()

	report := domain.Aggregate(results)
	c.debug("collection fan-out complete",
		"sources", report.CheckedSources, "new", report.NewArticles, "errors", len(report.Errors))
	return results
}

// fetch dispatches to the adapter for the source type under the fetch timeout.
func (c *Collector) fetch(ctx context.Context, src domain.Source) ([]domain.Item, error) {
	fctx, cancel := context.WithTimeout(ctx, c.opts.FetchTimeout)
	defer cancel()

	switch src.Type {
	case domain.SourceTypeFeed:
		return c.feed.Fetch(fctx, src)
	case domain.SourceTypeVideo:
		return c.video.Fetch(fctx, src)
	case domain.SourceTypeMailbox:
		return c.mailbox.Fetch(fctx, src)
	default:
		return nil, fmt.Errorf("unsupported source type: %s", src.Type)
	}
}

// filterNew drops items that already exist under the (source, title,
// publishedAt) identity. Lookup failures skip the item and record an error.
func (c *Collector) filterNew(ctx context.Context, sourceID string, items []domain.Item, result *domain.CollectionResult) []domain.Item {
	fresh := make([]domain.Item, 0, len(items))
	for _, item := range items {
		exists, err := c.articles.ArticleExists(ctx, sourceID, item.Title, item.PublishedAt)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("dedup check for %q: %v", item.Title, err))
			continue
		}
		if exists {
			continue
		}
		fresh = append(fresh, item)
	}
	return fresh
}

// persistPending stores items immediately with sentinel topics (fast mode).
func (c *Collector) persistPending(ctx context.Context, src domain.Source, items []domain.Item, result *domain.CollectionResult) {
	for _, item := range items {
		article := newArticle(src.ID, item, domain.PendingTopic, domain.PendingTopic)
		if err := c.articles.CreateArticle(ctx, &article); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to process item: %s", item.Title))
			c.warn("persist item failed", "source", src.Name, "title", item.Title, "error", err)
			continue
		}
		result.NewArticles++
		result.PendingTopicExtraction++
	}
}

// persistAnnotated annotates the whole batch before persisting (full mode).
// A total annotation failure aborts persistence for the batch: silently
// storing un-annotated data is worse than retrying next cycle.
func (c *Collector) persistAnnotated(ctx context.Context, src domain.Source, items []domain.Item, result *domain.CollectionResult) {
	if len(items) == 0 {
		return
	}

	inputs := make([]TopicInput, len(items))
	for i, item := range items {
		inputs[i] = TopicInput{Title: item.Title, Content: item.Content}
	}

	actx, cancel := context.WithTimeout(ctx, c.opts.AnnotateTimeout)
	defer cancel()

	topics, err := c.annotator.ExtractTopicsInBatch(actx, inputs)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("annotate batch for %s: %v", src.Name, err))
		return
	}

	for i, item := range items {
		article := newArticle(src.ID, item, topics[i].Topic, topics[i].MacroTopic)
		if err := c.articles.CreateArticle(ctx, &article); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to process item: %s", item.Title))
			c.warn("persist item failed", "source", src.Name, "title", item.Title, "error", err)
			continue
		}
		result.NewArticles++
	}
}

func (c *Collector) touch(ctx context.Context, sourceID string) {
	if err := c.sources.TouchSource(ctx, sourceID, time.Now()); err != nil {
		c.warn("update lastChecked failed", "source", sourceID, "error", err)
	}
}

func newArticle(sourceID string, item domain.Item, topic, macroTopic string) domain.Article {
	return domain.Article{
		SourceID:    sourceID,
		Title:       item.Title,
		Content:     item.Content,
		Author:      item.Author,
		PublishedAt: item.PublishedAt,
		Topic:       topic,
		MacroTopic:  macroTopic,
		URL:         item.URL,
	}
}

func (c *Collector) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Collector) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
