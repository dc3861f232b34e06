package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

// JobStatusView is the read model served to status API consumers.
type JobStatusView struct {
	ID           string           `json:"id"`
	Status       domain.JobStatus `json:"status"`
	CurrentTopic int              `json:"currentTopic"`
	TotalTopics  int              `json:"totalTopics"`
	Progress     float64          `json:"progress"`
	Result       *domain.Summary  `json:"result,omitempty"`
	Error        string           `json:"error,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	StartedAt    *time.Time       `json:"startedAt,omitempty"`
	CompletedAt  *time.Time       `json:"completedAt,omitempty"`
}

// JobService creates summary jobs and serves their status.
type JobService struct {
	jobs      ports.JobStore
	summaries ports.SummaryStore
	logger    *slog.Logger
}

// NewJobService constructs the queue-facing service.
func NewJobService(jobs ports.JobStore, summaries ports.SummaryStore, logger *slog.Logger) *JobService {
	return &JobService{jobs: jobs, summaries: summaries, logger: logger}
}

// CreateSummaryJob enqueues a summary request and returns the job id
// immediately; the worker picks it up on its next poll.
func (s *JobService) CreateSummaryJob(ctx context.Context, start, end time.Time, topics []string) (string, error) {
	job := &domain.SummaryJob{
		StartDate: start,
		EndDate:   end,
		Topics:    normalizeTopics(topics),
		Status:    domain.JobQueued,
	}
	if err := s.jobs.CreateJob(ctx, job); err != nil {
		return "", fmt.Errorf("create summary job: %w", err)
	}
	s.debug("job created", "id", job.ID)
	return job.ID, nil
}

// GetJobStatus returns the status view for a job, nil when unknown. A
// completed job whose record has already been drained into the summary store
// is not found here; callers read the summary instead.
func (s *JobService) GetJobStatus(ctx context.Context, id string) (*JobStatusView, error) {
	job, err := s.jobs.GetJob(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	if job == nil {
		return nil, nil
	}
	return &JobStatusView{
		ID:           job.ID,
		Status:       job.Status,
		CurrentTopic: job.CurrentTopic,
		TotalTopics:  job.TotalTopics,
		Progress:     job.Progress(),
		Result:       job.Result,
		Error:        job.Error,
		CreatedAt:    job.CreatedAt,
		StartedAt:    job.StartedAt,
		CompletedAt:  job.CompletedAt,
	}, nil
}

// CleanupTerminalJobs deletes jobs in the given statuses created before the
// cutoff. Used by the one-shot cleanup entry point.
func (s *JobService) CleanupTerminalJobs(ctx context.Context, olderThan time.Duration, statuses []domain.JobStatus) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	var total int64
	for _, status := range statuses {
		deleted, err := s.jobs.DeleteJobsBefore(ctx, status, cutoff)
		if err != nil {
			return total, fmt.Errorf("delete %s jobs: %w", status, err)
		}
		total += deleted
	}
	return total, nil
}

// CountJobs returns how many jobs currently sit in the given status.
func (s *JobService) CountJobs(ctx context.Context, status domain.JobStatus) (int, error) {
	jobs, err := s.jobs.ListJobsByStatus(ctx, status)
	if err != nil {
		return 0, err
	}
	return len(jobs), nil
}

// MigrateCompletedJobs copies any COMPLETED job results left over from a
// pre-draining deployment into the summary store, then deletes the source
// rows. Per-job failures are counted, not fatal.
func (s *JobService) MigrateCompletedJobs(ctx context.Context) (migrated, failed int, err error) {
	jobs, err := s.jobs.ListJobsByStatus(ctx, domain.JobCompleted)
	if err != nil {
		return 0, 0, fmt.Errorf("list completed jobs: %w", err)
	}

	for _, job := range jobs {
		if err := s.migrateJob(ctx, job); err != nil {
			s.warn("job migration failed", "id", job.ID, "error", err)
			failed++
			continue
		}
		migrated++
	}
	return migrated, failed, nil
}

func (s *JobService) migrateJob(ctx context.Context, job domain.SummaryJob) error {
	if job.Result == nil {
		return fmt.Errorf("completed job %s has no result", job.ID)
	}

	summary := *job.Result
	summary.ID = ""
	summary.QueryTopics = normalizeTopics(job.Topics)
	if job.CompletedAt != nil {
		summary.GeneratedAt = *job.CompletedAt
	}

	if err := s.summaries.CreateSummary(ctx, &summary); err != nil {
		return fmt.Errorf("copy result: %w", err)
	}
	if err := s.jobs.DeleteJob(ctx, job.ID); err != nil {
		return fmt.Errorf("delete job row: %w", err)
	}
	s.debug("job migrated", "job", job.ID, "summary", summary.ID)
	return nil
}

func (s *JobService) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *JobService) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
