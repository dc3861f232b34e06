// Package fetch provides the per-source-type adapters that pull normalized
// items from upstream feeds, channels, and mailboxes.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/gofeed"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

// FeedFetcher pulls items from a syndication feed (RSS or Atom).
type FeedFetcher struct {
	parser *gofeed.Parser
	logger *slog.Logger
}

var _ ports.Fetcher = (*FeedFetcher)(nil)

// NewFeedFetcher builds a fetcher with a shared feed parser.
func NewFeedFetcher(logger *slog.Logger) *FeedFetcher {
	return &FeedFetcher{parser: gofeed.NewParser(), logger: logger}
}

// Fetch downloads and parses the configured feed URL.
func (f *FeedFetcher) Fetch(ctx context.Context, src domain.Source) ([]domain.Item, error) {
	cfg := src.Config.Feed
	if cfg == nil {
		return nil, fmt.Errorf("source %s has no feed config", src.ID)
	}

	if f.logger != nil {
		f.logger.Debug("fetching feed", "url", cfg.FeedURL)
	}

	feed, err := f.parser.ParseURLWithContext(cfg.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", cfg.FeedURL, err)
	}

	return feedItems(feed, ""), nil
}

// feedItems normalizes parsed entries. An empty fallbackAuthor keeps the
// per-item author only.
func feedItems(feed *gofeed.Feed, fallbackAuthor string) []domain.Item {
	items := make([]domain.Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		items = append(items, normalizeEntry(entry, fallbackAuthor))
	}
	return items
}

func normalizeEntry(entry *gofeed.Item, fallbackAuthor string) domain.Item {
	title := entry.Title
	if title == "" {
		title = "Untitled"
	}

	content := entry.Content
	if content == "" {
		content = entry.Description
	}

	author := fallbackAuthor
	if len(entry.Authors) > 0 && entry.Authors[0].Name != "" {
		author = entry.Authors[0].Name
	}

	published := time.Now()
	if entry.PublishedParsed != nil {
		published = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		published = *entry.UpdatedParsed
	}

	return domain.Item{
		Title:       title,
		Content:     content,
		Author:      author,
		PublishedAt: published,
		URL:         entry.Link,
	}
}
