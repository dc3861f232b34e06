package usecase

import (
	"context"
	"testing"
	"time"

	"NewsDigest/internal/domain"
)

func TestCreateSummaryJobQueuesImmediately(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobs{}
	s := NewJobService(jobs, &fakeSummaries{}, nil)

	id, err := s.CreateSummaryJob(context.Background(), rangeStart, rangeEnd, nil)
	if err != nil {
		t.Fatalf("CreateSummaryJob: %v", err)
	}
	if id == "" {
		t.Fatal("job id must be returned immediately")
	}

	job := jobs.byID(id)
	if job.Status != domain.JobQueued {
		t.Fatalf("expected QUEUED, got %s", job.Status)
	}
	if job.Topics == nil {
		t.Fatal("nil topic filter must normalize to an empty list")
	}
}

func TestGetJobStatusProgress(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobs{}
	s := NewJobService(jobs, &fakeSummaries{}, nil)

	id, err := s.CreateSummaryJob(context.Background(), rangeStart, rangeEnd, nil)
	if err != nil {
		t.Fatalf("CreateSummaryJob: %v", err)
	}

	status, err := s.GetJobStatus(context.Background(), id)
	if err != nil {
		t.Fatalf("GetJobStatus: %v", err)
	}
	if status.Progress != 0 {
		t.Fatalf("zero total topics must report 0%%, got %v", status.Progress)
	}

	if err := jobs.UpdateJobProgress(context.Background(), id, 3, 4); err != nil {
		t.Fatalf("UpdateJobProgress: %v", err)
	}
	status, err = s.GetJobStatus(context.Background(), id)
	if err != nil {
		t.Fatalf("GetJobStatus: %v", err)
	}
	if status.Progress != 75 {
		t.Fatalf("expected 75%%, got %v", status.Progress)
	}
}

func TestGetJobStatusUnknownJob(t *testing.T) {
	t.Parallel()

	s := NewJobService(&fakeJobs{}, &fakeSummaries{}, nil)

	status, err := s.GetJobStatus(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetJobStatus: %v", err)
	}
	if status != nil {
		t.Fatalf("expected nil for unknown job, got %+v", status)
	}
}

func TestCleanupTerminalJobs(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobs{}
	s := NewJobService(jobs, &fakeSummaries{}, nil)
	ctx := context.Background()

	makeJob := func(status domain.JobStatus, age time.Duration) {
		job := &domain.SummaryJob{StartDate: rangeStart, EndDate: rangeEnd}
		if err := jobs.CreateJob(ctx, job); err != nil {
			t.Fatalf("CreateJob: %v", err)
		}
		jobs.mu.Lock()
		for _, j := range jobs.jobs {
			if j.ID == job.ID {
				j.Status = status
				j.CreatedAt = time.Now().Add(-age)
			}
		}
		jobs.mu.Unlock()
	}

	makeJob(domain.JobCompleted, 48*time.Hour)
	makeJob(domain.JobFailed, 48*time.Hour)
	makeJob(domain.JobCompleted, time.Hour)
	makeJob(domain.JobQueued, 48*time.Hour)

	deleted, err := s.CleanupTerminalJobs(ctx, 24*time.Hour, []domain.JobStatus{domain.JobCompleted, domain.JobFailed})
	if err != nil {
		t.Fatalf("CleanupTerminalJobs: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}
	if jobs.count() != 2 {
		t.Fatalf("expected 2 remaining, got %d", jobs.count())
	}
}

func TestMigrateCompletedJobs(t *testing.T) {
	t.Parallel()

	jobs := &fakeJobs{}
	summaries := &fakeSummaries{}
	s := NewJobService(jobs, summaries, nil)
	ctx := context.Background()

	completedAt := time.Date(2026, time.August, 15, 10, 0, 0, 0, time.UTC)
	withResult := &domain.SummaryJob{
		StartDate: rangeStart,
		EndDate:   rangeEnd,
		Topics:    []string{"Go"},
		Status:    domain.JobCompleted,
		Result: &domain.Summary{
			ID:            "stale-id",
			StartDate:     rangeStart,
			EndDate:       rangeEnd,
			TotalArticles: 5,
		},
		CompletedAt: &completedAt,
	}
	if err := jobs.CreateJob(ctx, withResult); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	// A completed job without a result cannot be migrated.
	broken := &domain.SummaryJob{StartDate: rangeStart, EndDate: rangeEnd, Status: domain.JobCompleted}
	if err := jobs.CreateJob(ctx, broken); err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	migrated, failed, err := s.MigrateCompletedJobs(ctx)
	if err != nil {
		t.Fatalf("MigrateCompletedJobs: %v", err)
	}
	if migrated != 1 || failed != 1 {
		t.Fatalf("expected 1 migrated and 1 failed, got %d and %d", migrated, failed)
	}

	if summaries.count() != 1 {
		t.Fatalf("expected 1 summary, got %d", summaries.count())
	}
	saved := summaries.summaries[0]
	if saved.ID == "stale-id" {
		t.Fatal("migrated summary must get a fresh id")
	}
	if len(saved.QueryTopics) != 1 || saved.QueryTopics[0] != "Go" {
		t.Fatalf("migrated summary must carry job topics, got %v", saved.QueryTopics)
	}
	if !saved.GeneratedAt.Equal(completedAt) {
		t.Fatalf("migrated summary must keep the completion time, got %v", saved.GeneratedAt)
	}

	if jobs.byID(withResult.ID) != nil {
		t.Fatal("migrated job row must be deleted")
	}
	if jobs.byID(broken.ID) == nil {
		t.Fatal("unmigratable job must be retained")
	}
}
