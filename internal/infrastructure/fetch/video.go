package fetch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmcdole/gofeed"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const videoFeedTemplate = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"

// VideoFetcher pulls a video channel's upload feed (published as Atom).
type VideoFetcher struct {
	parser *gofeed.Parser
	logger *slog.Logger
}

var _ ports.Fetcher = (*VideoFetcher)(nil)

// NewVideoFetcher builds the channel-feed fetcher.
func NewVideoFetcher(logger *slog.Logger) *VideoFetcher {
	return &VideoFetcher{parser: gofeed.NewParser(), logger: logger}
}

// Fetch resolves the channel id to its upload feed and parses it. The
// channel title stands in for missing per-video authors.
func (f *VideoFetcher) Fetch(ctx context.Context, src domain.Source) ([]domain.Item, error) {
	cfg := src.Config.Channel
	if cfg == nil {
		return nil, fmt.Errorf("source %s has no channel config", src.ID)
	}

	feedURL := fmt.Sprintf(videoFeedTemplate, cfg.ChannelID)
	if f.logger != nil {
		f.logger.Debug("fetching channel feed", "url", feedURL)
	}

	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch channel %s: %w", cfg.ChannelID, err)
	}

	items := feedItems(feed, feed.Title)
	for i := range items {
		if items[i].Title == "Untitled" {
			items[i].Title = "Untitled Video"
		}
	}
	return items, nil
}
