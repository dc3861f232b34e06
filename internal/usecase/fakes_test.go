package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"NewsDigest/internal/domain"
)

// fakeInference replays scripted responses in order and records prompts.
type fakeInference struct {
	mu        sync.Mutex
	responses []string
	err       error
	prompts   []string
}

func (f *fakeInference) Infer(ctx context.Context, prompt string, expectJSON bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no scripted response left")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *fakeInference) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// fakeFetcher returns canned items.
type fakeFetcher struct {
	items []domain.Item
	err   error
}

func (f *fakeFetcher) Fetch(ctx context.Context, src domain.Source) ([]domain.Item, error) {
	return f.items, f.err
}

// fakeSources is an in-memory SourceStore.
type fakeSources struct {
	mu      sync.Mutex
	sources []domain.Source
	touched []string
}

func (f *fakeSources) GetSource(ctx context.Context, id string) (*domain.Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sources {
		if s.ID == id {
			copy := s
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeSources) ListSources(ctx context.Context) ([]domain.Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Source(nil), f.sources...), nil
}

func (f *fakeSources) CreateSource(ctx context.Context, src *domain.Source) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if src.ID == "" {
		src.ID = fmt.Sprintf("src-%d", len(f.sources)+1)
	}
	f.sources = append(f.sources, *src)
	return nil
}

func (f *fakeSources) DeleteSource(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.sources {
		if s.ID == id {
			f.sources = append(f.sources[:i], f.sources[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeSources) TouchSource(ctx context.Context, id string, checkedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, id)
	return nil
}

// fakeArticles is an in-memory ArticleStore.
type fakeArticles struct {
	mu       sync.Mutex
	articles []domain.Article
	seq      int
}

func (f *fakeArticles) ArticleExists(ctx context.Context, sourceID, title string, publishedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.articles {
		if a.SourceID == sourceID && a.Title == title && a.PublishedAt.Equal(publishedAt) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeArticles) CreateArticle(ctx context.Context, article *domain.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	if article.ID == "" {
		article.ID = fmt.Sprintf("art-%d", f.seq)
	}
	if article.ExtractedAt.IsZero() {
		article.ExtractedAt = time.Now()
	}
	f.articles = append(f.articles, *article)
	return nil
}

func (f *fakeArticles) ListArticles(ctx context.Context, q domain.ArticleQuery) ([]domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Article
	for _, a := range f.articles {
		if a.PublishedAt.Before(q.Start) || a.PublishedAt.After(q.End) {
			continue
		}
		if len(q.Topics) > 0 && !containsString(q.Topics, a.Topic) {
			continue
		}
		out = append(out, a)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeArticles) ListPendingArticles(ctx context.Context, limit int) ([]domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Article
	for _, a := range f.articles {
		if a.Topic != domain.PendingTopic {
			continue
		}
		out = append(out, a)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeArticles) UpdateArticleTopics(ctx context.Context, id, topic, macroTopic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.articles {
		if f.articles[i].ID == id {
			f.articles[i].Topic = topic
			f.articles[i].MacroTopic = macroTopic
			return nil
		}
	}
	return fmt.Errorf("article %s not found", id)
}

func (f *fakeArticles) CountArticlesExtractedAfter(ctx context.Context, q domain.ArticleQuery, after time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, a := range f.articles {
		if a.PublishedAt.Before(q.Start) || a.PublishedAt.After(q.End) {
			continue
		}
		if len(q.Topics) > 0 && !containsString(q.Topics, a.Topic) {
			continue
		}
		if a.ExtractedAt.After(after) {
			count++
		}
	}
	return count, nil
}

func (f *fakeArticles) byID(id string) *domain.Article {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.articles {
		if f.articles[i].ID == id {
			copy := f.articles[i]
			return &copy
		}
	}
	return nil
}

// fakeSummaries is an in-memory SummaryStore with the same order-sensitive
// topic matching the SQL store applies.
type fakeSummaries struct {
	mu        sync.Mutex
	summaries []domain.Summary
	seq       int

	failCreate bool
}

func (f *fakeSummaries) CreateSummary(ctx context.Context, summary *domain.Summary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return errors.New("create summary failed")
	}
	f.seq++
	if summary.ID == "" {
		summary.ID = fmt.Sprintf("sum-%d", f.seq)
	}
	if summary.GeneratedAt.IsZero() {
		summary.GeneratedAt = time.Now()
	}
	f.summaries = append(f.summaries, *summary)
	return nil
}

func (f *fakeSummaries) GetSummary(ctx context.Context, id string) (*domain.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.summaries {
		if s.ID == id {
			copy := s
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeSummaries) LatestSummary(ctx context.Context, start, end time.Time, queryTopics []string) (*domain.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := encodeTopics(queryTopics)
	var best *domain.Summary
	for i := range f.summaries {
		s := f.summaries[i]
		if !s.StartDate.Equal(start) || !s.EndDate.Equal(end) || encodeTopics(s.QueryTopics) != want {
			continue
		}
		if best == nil || s.GeneratedAt.After(best.GeneratedAt) {
			copy := s
			best = &copy
		}
	}
	return best, nil
}

func (f *fakeSummaries) ListSummaries(ctx context.Context, start, end *time.Time, limit int) ([]domain.Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Summary
	for _, s := range f.summaries {
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeSummaries) DeleteSummariesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []domain.Summary
	var deleted int64
	for _, s := range f.summaries {
		if s.GeneratedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, s)
	}
	f.summaries = kept
	return deleted, nil
}

func (f *fakeSummaries) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.summaries)
}

// fakeJobs is an in-memory JobStore with the conditional claim semantics of
// the SQL store.
type fakeJobs struct {
	mu   sync.Mutex
	jobs []*domain.SummaryJob
	seq  int
}

func (f *fakeJobs) CreateJob(ctx context.Context, job *domain.SummaryJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	if job.ID == "" {
		job.ID = fmt.Sprintf("job-%d", f.seq)
	}
	if job.Status == "" {
		job.Status = domain.JobQueued
	}
	job.CreatedAt = time.Now()
	copy := *job
	f.jobs = append(f.jobs, &copy)
	return nil
}

func (f *fakeJobs) GetJob(ctx context.Context, id string) (*domain.SummaryJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.ID == id {
			copy := *j
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeJobs) OldestQueuedJob(ctx context.Context) (*domain.SummaryJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.Status == domain.JobQueued {
			copy := *j
			return &copy, nil
		}
	}
	return nil, nil
}

func (f *fakeJobs) ClaimJob(ctx context.Context, id string, startedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.ID == id && j.Status == domain.JobQueued {
			j.Status = domain.JobProcessing
			j.StartedAt = &startedAt
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeJobs) UpdateJobProgress(ctx context.Context, id string, current, total int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.ID == id {
			j.CurrentTopic = current
			j.TotalTopics = total
			return nil
		}
	}
	return fmt.Errorf("job %s not found", id)
}

func (f *fakeJobs) MarkJobCompleted(ctx context.Context, id string, result *domain.Summary, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.ID == id {
			j.Status = domain.JobCompleted
			j.Result = result
			j.CompletedAt = &completedAt
			return nil
		}
	}
	return fmt.Errorf("job %s not found", id)
}

func (f *fakeJobs) MarkJobFailed(ctx context.Context, id, message string, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.ID == id {
			j.Status = domain.JobFailed
			j.Error = message
			j.CompletedAt = &completedAt
			return nil
		}
	}
	return fmt.Errorf("job %s not found", id)
}

func (f *fakeJobs) DeleteJob(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, j := range f.jobs {
		if j.ID == id {
			f.jobs = append(f.jobs[:i], f.jobs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeJobs) ListJobsByStatus(ctx context.Context, status domain.JobStatus) ([]domain.SummaryJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.SummaryJob
	for _, j := range f.jobs {
		if j.Status == status {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (f *fakeJobs) DeleteJobsBefore(ctx context.Context, status domain.JobStatus, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []*domain.SummaryJob
	var deleted int64
	for _, j := range f.jobs {
		if j.Status == status && j.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, j)
	}
	f.jobs = kept
	return deleted, nil
}

func (f *fakeJobs) byID(id string) *domain.SummaryJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.ID == id {
			copy := *j
			return &copy
		}
	}
	return nil
}

func (f *fakeJobs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func encodeTopics(topics []string) string {
	if topics == nil {
		topics = []string{}
	}
	raw, _ := json.Marshal(topics)
	return string(raw)
}
