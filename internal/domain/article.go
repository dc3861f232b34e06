package domain

import "time"

// PendingTopic is the sentinel marking an article whose annotation has not
// run yet. The reconciler sweep replaces it with real topics.
const PendingTopic = "pending"

// Item is a normalized content item as returned by a fetcher adapter,
// before deduplication and persistence.
type Item struct {
	Title       string
	Content     string
	Author      string
	PublishedAt time.Time
	URL         string
}

// Article is a persisted, deduplicated content item. Identity for
// deduplication is (SourceID, Title, PublishedAt).
type Article struct {
	ID          string
	SourceID    string
	Title       string
	Content     string
	Author      string
	PublishedAt time.Time
	Topic       string
	MacroTopic  string
	URL         string
	ExtractedAt time.Time
}

// Pending reports whether the article still carries the sentinel topic.
func (a Article) Pending() bool {
	return a.Topic == PendingTopic
}

// ArticleRef is the snapshot of an article embedded into summaries.
type ArticleRef struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Ref returns the embeddable snapshot of the article.
func (a Article) Ref() ArticleRef {
	return ArticleRef{ID: a.ID, Title: a.Title, URL: a.URL, PublishedAt: a.PublishedAt}
}

// ArticleQuery bounds article retrieval by date range and optional topic filter.
type ArticleQuery struct {
	Start  time.Time
	End    time.Time
	Topics []string
	Limit  int
}
