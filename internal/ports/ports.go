package ports

import (
	"context"
	"time"

	"NewsDigest/internal/domain"
)

// SourceStore reads and touches configured sources.
type SourceStore interface {
	GetSource(ctx context.Context, id string) (*domain.Source, error)
	ListSources(ctx context.Context) ([]domain.Source, error)
	CreateSource(ctx context.Context, src *domain.Source) error
	DeleteSource(ctx context.Context, id string) error
	TouchSource(ctx context.Context, id string, checkedAt time.Time) error
}

// ArticleStore persists deduplicated content items.
type ArticleStore interface {
	// ArticleExists is the deduplication check: equality on all three
	// identity fields, no fuzzy matching.
	ArticleExists(ctx context.Context, sourceID, title string, publishedAt time.Time) (bool, error)
	CreateArticle(ctx context.Context, article *domain.Article) error
	ListArticles(ctx context.Context, q domain.ArticleQuery) ([]domain.Article, error)
	ListPendingArticles(ctx context.Context, limit int) ([]domain.Article, error)
	UpdateArticleTopics(ctx context.Context, id, topic, macroTopic string) error
	// CountArticlesExtractedAfter counts articles in the query range whose
	// extraction time is strictly after the given instant.
	CountArticlesExtractedAfter(ctx context.Context, q domain.ArticleQuery, after time.Time) (int, error)
}

// SummaryStore persists generated summaries.
type SummaryStore interface {
	CreateSummary(ctx context.Context, summary *domain.Summary) error
	GetSummary(ctx context.Context, id string) (*domain.Summary, error)
	// LatestSummary returns the most recent summary exactly matching the
	// (start, end, queryTopics) triple, or nil when none exists.
	LatestSummary(ctx context.Context, start, end time.Time, queryTopics []string) (*domain.Summary, error)
	ListSummaries(ctx context.Context, start, end *time.Time, limit int) ([]domain.Summary, error)
	DeleteSummariesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// JobStore is the durable FIFO queue of summary requests.
type JobStore interface {
	CreateJob(ctx context.Context, job *domain.SummaryJob) error
	GetJob(ctx context.Context, id string) (*domain.SummaryJob, error)
	// OldestQueuedJob returns the next claimable job, or nil when the queue
	// is empty.
	OldestQueuedJob(ctx context.Context) (*domain.SummaryJob, error)
	// ClaimJob transitions QUEUED to PROCESSING only if the job is still
	// QUEUED. Returns false when the claim was lost to another writer.
	ClaimJob(ctx context.Context, id string, startedAt time.Time) (bool, error)
	UpdateJobProgress(ctx context.Context, id string, current, total int) error
	MarkJobCompleted(ctx context.Context, id string, result *domain.Summary, completedAt time.Time) error
	MarkJobFailed(ctx context.Context, id, message string, completedAt time.Time) error
	DeleteJob(ctx context.Context, id string) error
	ListJobsByStatus(ctx context.Context, status domain.JobStatus) ([]domain.SummaryJob, error)
	// DeleteJobsBefore removes jobs in the given status created before the
	// cutoff and returns the number deleted.
	DeleteJobsBefore(ctx context.Context, status domain.JobStatus, cutoff time.Time) (int64, error)
}

// Store bundles all persistence contracts; the SQL store satisfies it.
type Store interface {
	SourceStore
	ArticleStore
	SummaryStore
	JobStore
}

// Fetcher pulls normalized items for one source. Implementations may fail or
// time out; the caller applies its own deadline.
type Fetcher interface {
	Fetch(ctx context.Context, src domain.Source) ([]domain.Item, error)
}

// Inference is the boundary to the external text-generation service. Callers
// parse and validate the response; malformed output is a failure, not a crash.
type Inference interface {
	Infer(ctx context.Context, prompt string, expectJSON bool) (string, error)
}

// Scheduler controls when collection runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
