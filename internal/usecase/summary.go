package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const (
	// MaxSummaryArticles caps how many articles feed one summary. Exceeding
	// the cap silently keeps the most recent ones: recency over completeness.
	MaxSummaryArticles = 100

	// DefaultSummarizeTimeout bounds one per-topic summarization call.
	DefaultSummarizeTimeout = 120 * time.Second

	summaryContentLimit = 1000
	summaryMaxWords     = 500
)

// SummaryRequest identifies a summary by date range and optional topic filter.
type SummaryRequest struct {
	StartDate    time.Time
	EndDate      time.Time
	Topics       []string
	ForceRefresh bool
}

// ProgressFunc is invoked after every processed topic with the running count
// and the total. Returning an error aborts generation.
type ProgressFunc func(current, total int) error

// TopicCluster groups articles sharing a topic label, in first-seen order.
type TopicCluster struct {
	Topic    string
	Articles []domain.Article
}

// ClusterByTopic groups articles by their current topic field. Cluster order
// follows the first occurrence of each topic in the input; no semantic
// merging of near-duplicate labels.
func ClusterByTopic(articles []domain.Article) []TopicCluster {
	index := make(map[string]int, len(articles))
	var clusters []TopicCluster
	for _, a := range articles {
		i, ok := index[a.Topic]
		if !ok {
			i = len(clusters)
			index[a.Topic] = i
			clusters = append(clusters, TopicCluster{Topic: a.Topic})
		}
		clusters[i].Articles = append(clusters[i].Articles, a)
	}
	return clusters
}

// SummaryService produces topic-clustered narrative summaries, consulting a
// persisted cache keyed on the exact (start, end, queryTopics) triple.
type SummaryService struct {
	sources          ports.SourceStore
	articles         ports.ArticleStore
	summaries        ports.SummaryStore
	inference        ports.Inference
	summarizeTimeout time.Duration
	logger           *slog.Logger
}

// NewSummaryService constructs the generator.
func NewSummaryService(sources ports.SourceStore, articles ports.ArticleStore, summaries ports.SummaryStore, inference ports.Inference, summarizeTimeout time.Duration, logger *slog.Logger) *SummaryService {
	if summarizeTimeout <= 0 {
		summarizeTimeout = DefaultSummarizeTimeout
	}
	return &SummaryService{
		sources:          sources,
		articles:         articles,
		summaries:        summaries,
		inference:        inference,
		summarizeTimeout: summarizeTimeout,
		logger:           logger,
	}
}

// Generate builds a summary for the request. Unless ForceRefresh is set, a
// still-valid cached summary is returned verbatim (its ID is populated). A
// freshly generated summary is returned without an ID; persisting it is the
// caller's responsibility.
func (s *SummaryService) Generate(ctx context.Context, req SummaryRequest, onProgress ProgressFunc) (*domain.Summary, error) {
	if !req.ForceRefresh {
		if cached := s.cachedSummary(ctx, req); cached != nil {
			s.debug("using cached summary", "id", cached.ID)
			return cached, nil
		}
	}

	articles, err := s.articles.ListArticles(ctx, domain.ArticleQuery{
		Start:  req.StartDate,
		End:    req.EndDate,
		Topics: req.Topics,
		Limit:  MaxSummaryArticles,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch articles: %w", err)
	}

	s.debug("generating summary", "articles", len(articles))

	summary := &domain.Summary{
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		QueryTopics: normalizeTopics(req.Topics),
		Topics:      []domain.TopicSummary{},
		ArticleIDs:  []string{},
		GeneratedAt: time.Now(),
	}

	if len(articles) == 0 {
		return summary, nil
	}

	sourceRefs, err := s.sourceRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load source refs: %w", err)
	}

	clusters := ClusterByTopic(articles)
	total := len(clusters)

	for i, cluster := range clusters {
		topicSummary := s.summarizeTopic(ctx, cluster, sourceRefs)
		summary.Topics = append(summary.Topics, topicSummary)

		s.debug("topic processed", "topic", truncate(cluster.Topic, 50), "n", i+1, "total", total)

		if onProgress != nil {
			if err := onProgress(i+1, total); err != nil {
				return nil, fmt.Errorf("report progress: %w", err)
			}
		}
	}

	summary.TotalArticles = len(articles)
	for _, a := range articles {
		summary.ArticleIDs = append(summary.ArticleIDs, a.ID)
	}

	return summary, nil
}

// GenerateAndSave runs Generate and persists a freshly built summary. A cache
// hit is returned as-is. A persistence failure downgrades to returning the
// unsaved summary: the result is still useful, only its cache entry is lost.
func (s *SummaryService) GenerateAndSave(ctx context.Context, req SummaryRequest) (*domain.Summary, error) {
	summary, err := s.Generate(ctx, req, nil)
	if err != nil {
		return nil, err
	}
	if summary.ID != "" {
		return summary, nil
	}

	if err := s.summaries.CreateSummary(ctx, summary); err != nil {
		s.warn("could not save summary to cache", "error", err)
	}
	return summary, nil
}

// cachedSummary returns the most recent matching summary still valid for the
// request, or nil. Any lookup failure is treated as a cache miss.
func (s *SummaryService) cachedSummary(ctx context.Context, req SummaryRequest) *domain.Summary {
	cached, err := s.summaries.LatestSummary(ctx, req.StartDate, req.EndDate, normalizeTopics(req.Topics))
	if err != nil {
		s.warn("cache lookup failed", "error", err)
		return nil
	}
	if cached == nil {
		return nil
	}

	newer, err := s.articles.CountArticlesExtractedAfter(ctx, domain.ArticleQuery{
		Start:  req.StartDate,
		End:    req.EndDate,
		Topics: req.Topics,
	}, cached.GeneratedAt)
	if err != nil {
		s.warn("cache freshness check failed", "error", err)
		return nil
	}
	if newer > 0 {
		s.debug("cache invalidated", "newArticles", newer)
		return nil
	}

	return cached
}

// summarizeTopic narrates one cluster. A summarization failure substitutes a
// placeholder embedding the error so one bad topic cannot abort the request.
func (s *SummaryService) summarizeTopic(ctx context.Context, cluster TopicCluster, sourceRefs map[string]domain.SourceRef) domain.TopicSummary {
	text, err := s.summarizeArticles(ctx, cluster.Articles)
	if err != nil {
		s.warn("topic summarization failed", "topic", cluster.Topic, "error", err)
		return domain.TopicSummary{
			Topic:    cluster.Topic,
			Summary:  fmt.Sprintf("[Error: %v]", err),
			Articles: []domain.ArticleRef{},
			Sources:  []domain.SourceRef{},
		}
	}

	refs := make([]domain.ArticleRef, 0, len(cluster.Articles))
	seen := make(map[string]bool)
	var sources []domain.SourceRef
	for _, a := range cluster.Articles {
		refs = append(refs, a.Ref())
		if seen[a.SourceID] {
			continue
		}
		seen[a.SourceID] = true
		if ref, ok := sourceRefs[a.SourceID]; ok {
			sources = append(sources, ref)
		}
	}

	return domain.TopicSummary{
		Topic:    cluster.Topic,
		Summary:  text,
		Articles: refs,
		Sources:  sources,
		Count:    len(cluster.Articles),
	}
}

// summarizeArticles turns a cluster of articles into one narrative paragraph.
func (s *SummaryService) summarizeArticles(ctx context.Context, articles []domain.Article) (string, error) {
	var body strings.Builder
	for i, a := range articles {
		author := a.Author
		if author == "" {
			author = "Unknown"
		}
		fmt.Fprintf(&body, "Article %d:\nTitle: %s\nAuthor: %s\nContent: %s...\n---\n\n",
			i+1, a.Title, author, truncate(a.Content, summaryContentLimit))
	}

	prompt := fmt.Sprintf(`You are an assistant that writes news digests.
You receive %d articles about the same subject from different sources.

Task:
1. Identify the shared and the unique information
2. Drop redundancies
3. Write one consolidated, coherent narrative paragraph
4. At most %d words
5. Keep a neutral, journalistic tone

Articles:
%s
Summary:`, len(articles), summaryMaxWords, body.String())

	ictx, cancel := context.WithTimeout(ctx, s.summarizeTimeout)
	defer cancel()

	text, err := s.inference.Infer(ictx, prompt, false)
	if err != nil {
		return "", fmt.Errorf("summarize articles: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// GetSummary returns a persisted summary by id, nil when absent.
func (s *SummaryService) GetSummary(ctx context.Context, id string) (*domain.Summary, error) {
	return s.summaries.GetSummary(ctx, id)
}

// ListSummaries returns persisted summaries, newest first.
func (s *SummaryService) ListSummaries(ctx context.Context, start, end *time.Time, limit int) ([]domain.Summary, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.summaries.ListSummaries(ctx, start, end, limit)
}

// CleanOldSummaries deletes summaries generated before the retention window.
func (s *SummaryService) CleanOldSummaries(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	deleted, err := s.summaries.DeleteSummariesBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("clean old summaries: %w", err)
	}
	s.debug("old summaries deleted", "count", deleted)
	return deleted, nil
}

func (s *SummaryService) sourceRefs(ctx context.Context) (map[string]domain.SourceRef, error) {
	sources, err := s.sources.ListSources(ctx)
	if err != nil {
		return nil, err
	}
	refs := make(map[string]domain.SourceRef, len(sources))
	for _, src := range sources {
		refs[src.ID] = src.Ref()
	}
	return refs, nil
}

func normalizeTopics(topics []string) []string {
	if topics == nil {
		return []string{}
	}
	return topics
}

func (s *SummaryService) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *SummaryService) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
