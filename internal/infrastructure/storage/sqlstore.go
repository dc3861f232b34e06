// Package storage implements the persistence contracts on top of a SQL
// database. Queries are built with squirrel so the same code runs against
// SQLite (question placeholders) and PostgreSQL (dollar placeholders).
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

// SQLStore satisfies every persistence port against one SQL database.
type SQLStore struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.Store = (*SQLStore)(nil)

// Open connects to the database named by driver ("sqlite" or "postgres"),
// applies the schema, and returns the store. The caller owns the lifecycle
// and must Close on shutdown.
func Open(driver, dsn string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	var placeholder sq.PlaceholderFormat = sq.Question
	if driver == "postgres" {
		placeholder = sq.Dollar
	}

	store := &SQLStore{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(placeholder),
	}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sources (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		config TEXT NOT NULL,
		active BOOLEAN NOT NULL,
		last_checked TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL REFERENCES sources(id),
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		author TEXT NOT NULL DEFAULT '',
		published_at TIMESTAMP NOT NULL,
		topic TEXT NOT NULL,
		macro_topic TEXT NOT NULL,
		url TEXT NOT NULL DEFAULT '',
		extracted_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_articles_identity ON articles(source_id, title, published_at);
	CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published_at);
	CREATE INDEX IF NOT EXISTS idx_articles_topic ON articles(topic);
	CREATE TABLE IF NOT EXISTS summaries (
		id TEXT PRIMARY KEY,
		start_date TIMESTAMP NOT NULL,
		end_date TIMESTAMP NOT NULL,
		query_topics TEXT NOT NULL,
		topics TEXT NOT NULL,
		total_articles INTEGER NOT NULL,
		article_ids TEXT NOT NULL,
		generated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_summaries_range ON summaries(start_date, end_date);
	CREATE TABLE IF NOT EXISTS summary_jobs (
		id TEXT PRIMARY KEY,
		start_date TIMESTAMP NOT NULL,
		end_date TIMESTAMP NOT NULL,
		topics TEXT NOT NULL,
		status TEXT NOT NULL,
		current_topic INTEGER NOT NULL DEFAULT 0,
		total_topics INTEGER NOT NULL DEFAULT 0,
		result TEXT,
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		started_at TIMESTAMP,
		completed_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_jobs_status ON summary_jobs(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// --- Sources ---

// CreateSource validates the config variant, assigns an id, and inserts.
func (s *SQLStore) CreateSource(ctx context.Context, src *domain.Source) error {
	if err := src.Config.Validate(src.Type); err != nil {
		return fmt.Errorf("source config: %w", err)
	}

	cfg, err := json.Marshal(src.Config)
	if err != nil {
		return fmt.Errorf("marshal source config: %w", err)
	}

	if src.ID == "" {
		src.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	src.CreatedAt = now
	src.UpdatedAt = now

	query, args, err := s.sb.Insert("sources").
		Columns("id", "name", "type", "config", "active", "last_checked", "created_at", "updated_at").
		Values(src.ID, src.Name, src.Type, string(cfg), src.Active, nullTime(src.LastChecked), now, now).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert source: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert source: %w", err)
	}
	return nil
}

// GetSource returns a source by id, nil when absent.
func (s *SQLStore) GetSource(ctx context.Context, id string) (*domain.Source, error) {
	query, args, err := s.sb.Select(sourceColumns...).
		From("sources").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select source: %w", err)
	}

	src, err := scanSource(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select source: %w", err)
	}
	return src, nil
}

// ListSources returns every configured source ordered by name.
func (s *SQLStore) ListSources(ctx context.Context) ([]domain.Source, error) {
	query, args, err := s.sb.Select(sourceColumns...).
		From("sources").OrderBy("name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list sources: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, *src)
	}
	return sources, rows.Err()
}

// DeleteSource removes a source row.
func (s *SQLStore) DeleteSource(ctx context.Context, id string) error {
	query, args, err := s.sb.Delete("sources").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete source: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	return nil
}

// TouchSource records a completed collection pass.
func (s *SQLStore) TouchSource(ctx context.Context, id string, checkedAt time.Time) error {
	query, args, err := s.sb.Update("sources").
		Set("last_checked", checkedAt.UTC()).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build touch source: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("touch source: %w", err)
	}
	return nil
}

var sourceColumns = []string{"id", "name", "type", "config", "active", "last_checked", "created_at", "updated_at"}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (*domain.Source, error) {
	var (
		src         domain.Source
		cfg         string
		lastChecked sql.NullTime
	)
	if err := row.Scan(&src.ID, &src.Name, &src.Type, &cfg, &src.Active, &lastChecked, &src.CreatedAt, &src.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cfg), &src.Config); err != nil {
		return nil, fmt.Errorf("unmarshal source config: %w", err)
	}
	if lastChecked.Valid {
		t := lastChecked.Time
		src.LastChecked = &t
	}
	return &src, nil
}

// --- Articles ---

// ArticleExists checks the deduplication identity tuple.
func (s *SQLStore) ArticleExists(ctx context.Context, sourceID, title string, publishedAt time.Time) (bool, error) {
	query, args, err := s.sb.Select("1").From("articles").
		Where(sq.Eq{"source_id": sourceID, "title": title, "published_at": publishedAt.UTC()}).
		Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("article exists: %w", err)
	}
	return true, nil
}

// CreateArticle assigns an id and extraction time, then inserts.
func (s *SQLStore) CreateArticle(ctx context.Context, article *domain.Article) error {
	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	if article.ExtractedAt.IsZero() {
		article.ExtractedAt = time.Now()
	}
	article.ExtractedAt = article.ExtractedAt.UTC()
	article.PublishedAt = article.PublishedAt.UTC()

	query, args, err := s.sb.Insert("articles").
		Columns("id", "source_id", "title", "content", "author", "published_at", "topic", "macro_topic", "url", "extracted_at").
		Values(article.ID, article.SourceID, article.Title, article.Content, article.Author,
			article.PublishedAt, article.Topic, article.MacroTopic, article.URL, article.ExtractedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert article: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

// ListArticles returns articles in the query range, newest first.
func (s *SQLStore) ListArticles(ctx context.Context, q domain.ArticleQuery) ([]domain.Article, error) {
	builder := s.sb.Select(articleColumns...).From("articles").
		Where(sq.GtOrEq{"published_at": q.Start.UTC()}).
		Where(sq.LtOrEq{"published_at": q.End.UTC()}).
		OrderBy("published_at DESC")
	if len(q.Topics) > 0 {
		builder = builder.Where(sq.Eq{"topic": q.Topics})
	}
	if q.Limit > 0 {
		builder = builder.Limit(uint64(q.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list articles: %w", err)
	}
	return s.queryArticles(ctx, query, args)
}

// ListPendingArticles returns sentinel-topic articles, oldest extraction
// first, so the reconciler drains the backlog in arrival order.
func (s *SQLStore) ListPendingArticles(ctx context.Context, limit int) ([]domain.Article, error) {
	query, args, err := s.sb.Select(articleColumns...).From("articles").
		Where(sq.Eq{"topic": domain.PendingTopic}).
		OrderBy("extracted_at ASC").
		Limit(uint64(limit)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list pending: %w", err)
	}
	return s.queryArticles(ctx, query, args)
}

// UpdateArticleTopics replaces the topic pair in place.
func (s *SQLStore) UpdateArticleTopics(ctx context.Context, id, topic, macroTopic string) error {
	query, args, err := s.sb.Update("articles").
		Set("topic", topic).
		Set("macro_topic", macroTopic).
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build update topics: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update article topics: %w", err)
	}
	return nil
}

// CountArticlesExtractedAfter counts range-matching articles extracted
// strictly after the given instant; the cache manager uses it to detect
// staleness.
func (s *SQLStore) CountArticlesExtractedAfter(ctx context.Context, q domain.ArticleQuery, after time.Time) (int, error) {
	builder := s.sb.Select("COUNT(*)").From("articles").
		Where(sq.GtOrEq{"published_at": q.Start.UTC()}).
		Where(sq.LtOrEq{"published_at": q.End.UTC()}).
		Where(sq.Gt{"extracted_at": after.UTC()})
	if len(q.Topics) > 0 {
		builder = builder.Where(sq.Eq{"topic": q.Topics})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return count, nil
}

var articleColumns = []string{"id", "source_id", "title", "content", "author", "published_at", "topic", "macro_topic", "url", "extracted_at"}

func (s *SQLStore) queryArticles(ctx context.Context, query string, args []any) ([]domain.Article, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		var a domain.Article
		if err := rows.Scan(&a.ID, &a.SourceID, &a.Title, &a.Content, &a.Author,
			&a.PublishedAt, &a.Topic, &a.MacroTopic, &a.URL, &a.ExtractedAt); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// --- Summaries ---

// CreateSummary assigns an id and inserts the snapshot.
func (s *SQLStore) CreateSummary(ctx context.Context, summary *domain.Summary) error {
	if summary.ID == "" {
		summary.ID = uuid.NewString()
	}
	if summary.GeneratedAt.IsZero() {
		summary.GeneratedAt = time.Now()
	}
	summary.GeneratedAt = summary.GeneratedAt.UTC()

	topics, err := json.Marshal(summary.Topics)
	if err != nil {
		return fmt.Errorf("marshal topic summaries: %w", err)
	}
	queryTopics, err := marshalStrings(summary.QueryTopics)
	if err != nil {
		return err
	}
	articleIDs, err := marshalStrings(summary.ArticleIDs)
	if err != nil {
		return err
	}

	query, args, err := s.sb.Insert("summaries").
		Columns("id", "start_date", "end_date", "query_topics", "topics", "total_articles", "article_ids", "generated_at").
		Values(summary.ID, summary.StartDate.UTC(), summary.EndDate.UTC(), queryTopics,
			string(topics), summary.TotalArticles, articleIDs, summary.GeneratedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert summary: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

// GetSummary returns a summary by id, nil when absent.
func (s *SQLStore) GetSummary(ctx context.Context, id string) (*domain.Summary, error) {
	query, args, err := s.sb.Select(summaryColumns...).
		From("summaries").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get summary: %w", err)
	}

	summary, err := scanSummary(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get summary: %w", err)
	}
	return summary, nil
}

// LatestSummary matches the exact (start, end, queryTopics) triple. The
// filter comparison is on the serialized list, so equality is order
// sensitive by construction.
func (s *SQLStore) LatestSummary(ctx context.Context, start, end time.Time, queryTopics []string) (*domain.Summary, error) {
	encoded, err := marshalStrings(queryTopics)
	if err != nil {
		return nil, err
	}

	query, args, err := s.sb.Select(summaryColumns...).From("summaries").
		Where(sq.Eq{"start_date": start.UTC(), "end_date": end.UTC(), "query_topics": encoded}).
		OrderBy("generated_at DESC").Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build latest summary: %w", err)
	}

	summary, err := scanSummary(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest summary: %w", err)
	}
	return summary, nil
}

// ListSummaries returns persisted summaries, newest first.
func (s *SQLStore) ListSummaries(ctx context.Context, start, end *time.Time, limit int) ([]domain.Summary, error) {
	builder := s.sb.Select(summaryColumns...).From("summaries").
		OrderBy("generated_at DESC").Limit(uint64(limit))
	if start != nil {
		builder = builder.Where(sq.GtOrEq{"start_date": start.UTC()})
	}
	if end != nil {
		builder = builder.Where(sq.LtOrEq{"end_date": end.UTC()})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list summaries: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var summaries []domain.Summary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, *summary)
	}
	return summaries, rows.Err()
}

// DeleteSummariesBefore removes summaries generated before the cutoff.
func (s *SQLStore) DeleteSummariesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args, err := s.sb.Delete("summaries").
		Where(sq.Lt{"generated_at": cutoff.UTC()}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete summaries: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete summaries: %w", err)
	}
	return res.RowsAffected()
}

var summaryColumns = []string{"id", "start_date", "end_date", "query_topics", "topics", "total_articles", "article_ids", "generated_at"}

func scanSummary(row rowScanner) (*domain.Summary, error) {
	var (
		summary     domain.Summary
		queryTopics string
		topics      string
		articleIDs  string
	)
	if err := row.Scan(&summary.ID, &summary.StartDate, &summary.EndDate, &queryTopics,
		&topics, &summary.TotalArticles, &articleIDs, &summary.GeneratedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(queryTopics), &summary.QueryTopics); err != nil {
		return nil, fmt.Errorf("unmarshal query topics: %w", err)
	}
	if err := json.Unmarshal([]byte(topics), &summary.Topics); err != nil {
		return nil, fmt.Errorf("unmarshal topic summaries: %w", err)
	}
	if err := json.Unmarshal([]byte(articleIDs), &summary.ArticleIDs); err != nil {
		return nil, fmt.Errorf("unmarshal article ids: %w", err)
	}
	return &summary, nil
}

// --- Jobs ---

// CreateJob assigns an id and creation time, then inserts as QUEUED.
func (s *SQLStore) CreateJob(ctx context.Context, job *domain.SummaryJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = domain.JobQueued
	}
	job.CreatedAt = time.Now().UTC()

	topics, err := marshalStrings(job.Topics)
	if err != nil {
		return err
	}

	query, args, err := s.sb.Insert("summary_jobs").
		Columns("id", "start_date", "end_date", "topics", "status", "current_topic", "total_topics", "result", "error", "created_at", "started_at", "completed_at").
		Values(job.ID, job.StartDate.UTC(), job.EndDate.UTC(), topics, job.Status,
			job.CurrentTopic, job.TotalTopics, nil, job.Error, job.CreatedAt,
			nullTime(job.StartedAt), nullTime(job.CompletedAt)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert job: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// GetJob returns a job by id, nil when absent.
func (s *SQLStore) GetJob(ctx context.Context, id string) (*domain.SummaryJob, error) {
	query, args, err := s.sb.Select(jobColumns...).
		From("summary_jobs").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get job: %w", err)
	}

	job, err := scanJob(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// OldestQueuedJob returns the next claimable job in FIFO order, nil when the
// queue is empty.
func (s *SQLStore) OldestQueuedJob(ctx context.Context) (*domain.SummaryJob, error) {
	query, args, err := s.sb.Select(jobColumns...).From("summary_jobs").
		Where(sq.Eq{"status": domain.JobQueued}).
		OrderBy("created_at ASC").Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build oldest queued: %w", err)
	}

	job, err := scanJob(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("oldest queued job: %w", err)
	}
	return job, nil
}

// ClaimJob is the atomic QUEUED-to-PROCESSING transition: the update is
// filtered on the previous status, so zero rows affected means another
// writer won the claim.
func (s *SQLStore) ClaimJob(ctx context.Context, id string, startedAt time.Time) (bool, error) {
	query, args, err := s.sb.Update("summary_jobs").
		Set("status", domain.JobProcessing).
		Set("started_at", startedAt.UTC()).
		Where(sq.Eq{"id": id, "status": domain.JobQueued}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build claim job: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("claim job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim job rows: %w", err)
	}
	return affected == 1, nil
}

// UpdateJobProgress persists the per-topic progress counters.
func (s *SQLStore) UpdateJobProgress(ctx context.Context, id string, current, total int) error {
	query, args, err := s.sb.Update("summary_jobs").
		Set("current_topic", current).
		Set("total_topics", total).
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build update progress: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}
	return nil
}

// MarkJobCompleted records the result payload and terminal timestamps.
func (s *SQLStore) MarkJobCompleted(ctx context.Context, id string, result *domain.Summary, completedAt time.Time) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal job result: %w", err)
	}

	builder := s.sb.Update("summary_jobs").
		Set("status", domain.JobCompleted).
		Set("result", string(payload)).
		Set("completed_at", completedAt.UTC()).
		Where(sq.Eq{"id": id})
	if result != nil {
		builder = builder.Set("total_topics", len(result.Topics))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build complete job: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return nil
}

// MarkJobFailed records the error text; FAILED rows are kept for inspection.
func (s *SQLStore) MarkJobFailed(ctx context.Context, id, message string, completedAt time.Time) error {
	query, args, err := s.sb.Update("summary_jobs").
		Set("status", domain.JobFailed).
		Set("error", message).
		Set("completed_at", completedAt.UTC()).
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build fail job: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return nil
}

// DeleteJob removes a job row.
func (s *SQLStore) DeleteJob(ctx context.Context, id string) error {
	query, args, err := s.sb.Delete("summary_jobs").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete job: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

// ListJobsByStatus returns jobs in the status, oldest first.
func (s *SQLStore) ListJobsByStatus(ctx context.Context, status domain.JobStatus) ([]domain.SummaryJob, error) {
	query, args, err := s.sb.Select(jobColumns...).From("summary_jobs").
		Where(sq.Eq{"status": status}).OrderBy("created_at ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list jobs: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.SummaryJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// DeleteJobsBefore removes jobs in the status created before the cutoff.
func (s *SQLStore) DeleteJobsBefore(ctx context.Context, status domain.JobStatus, cutoff time.Time) (int64, error) {
	query, args, err := s.sb.Delete("summary_jobs").
		Where(sq.Eq{"status": status}).
		Where(sq.Lt{"created_at": cutoff.UTC()}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete jobs: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete jobs: %w", err)
	}
	return res.RowsAffected()
}

var jobColumns = []string{"id", "start_date", "end_date", "topics", "status", "current_topic", "total_topics", "result", "error", "created_at", "started_at", "completed_at"}

func scanJob(row rowScanner) (*domain.SummaryJob, error) {
	var (
		job         domain.SummaryJob
		topics      string
		result      sql.NullString
		startedAt   sql.NullTime
		completedAt sql.NullTime
	)
	if err := row.Scan(&job.ID, &job.StartDate, &job.EndDate, &topics, &job.Status,
		&job.CurrentTopic, &job.TotalTopics, &result, &job.Error,
		&job.CreatedAt, &startedAt, &completedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(topics), &job.Topics); err != nil {
		return nil, fmt.Errorf("unmarshal job topics: %w", err)
	}
	if result.Valid && result.String != "" {
		var summary domain.Summary
		if err := json.Unmarshal([]byte(result.String), &summary); err != nil {
			return nil, fmt.Errorf("unmarshal job result: %w", err)
		}
		job.Result = &summary
	}
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return &job, nil
}

// --- helpers ---

func marshalStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("marshal string list: %w", err)
	}
	return string(encoded), nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
