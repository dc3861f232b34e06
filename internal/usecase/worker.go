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

// DefaultPollInterval is the queue polling cadence.
const DefaultPollInterval = 5 * time.Second

// Worker drains the summary job queue: claims the oldest QUEUED job per poll
// cycle, drives the generator with a persisted progress callback, copies the
// result into the summary store, and deletes the job row. Failures mark the
// job FAILED with the captured error; the loop itself survives any single
// tick going wrong. The claim is a conditional QUEUED-to-PROCESSING update,
// so a second worker losing the race simply skips the tick.
type Worker struct {
	jobs      ports.JobStore
	summaries ports.SummaryStore
	generator *SummaryService
	interval  time.Duration
	logger    *slog.Logger

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewWorker constructs the polling worker.
func NewWorker(jobs ports.JobStore, summaries ports.SummaryStore, generator *SummaryService, interval time.Duration, logger *slog.Logger) *Worker {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Worker{
		jobs:      jobs,
		summaries: summaries,
		generator: generator,
		interval:  interval,
		logger:    logger,
	}
}

// Start launches the polling loop.
func (w *Worker) Start(ctx context.Context) {
	if w.stop != nil {
		return
	}
	w.stop = make(chan struct{})
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.info("worker started, monitoring jobs", "interval", w.interval)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.runOnce(ctx)
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			}
		}
	}()
}

// Stop halts the polling loop and waits for the in-flight tick to finish.
func (w *Worker) Stop() {
	if w.stop == nil {
		return
	}
	close(w.stop)
	w.wg.Wait()
	w.stop = nil
}

// runOnce processes at most one job. Every claimed job ends in an observable
// terminal state: either drained into a summary or marked FAILED.
func (w *Worker) runOnce(ctx context.Context) {
	job, err := w.jobs.OldestQueuedJob(ctx)
	if err != nil {
		w.warn("poll queue failed", "error", err)
		return
	}
	if job == nil {
		return
	}

	claimed, err := w.jobs.ClaimJob(ctx, job.ID, time.Now())
	if err != nil {
		w.warn("claim job failed", "job", job.ID, "error", err)
		return
	}
	if !claimed {
		// Lost the race to another worker; try again next tick.
		return
	}

	w.info("processing job", "job", job.ID)

	if err := w.execute(ctx, job); err != nil {
		w.failJob(ctx, job.ID, err)
		return
	}

	w.info("job completed", "job", job.ID)
}

// execute runs generation for a claimed job. The job id is threaded through
// explicitly so failure handling never has to guess which job was in flight.
func (w *Worker) execute(ctx context.Context, job *domain.SummaryJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during job execution: %v", r)
		}
	}()

	onProgress := func(current, total int) error {
		if err := w.jobs.UpdateJobProgress(ctx, job.ID, current, total); err != nil {
			return fmt.Errorf("persist progress: %w", err)
		}
		w.debug("job progress", "job", job.ID, "current", current, "total", total)
		return nil
	}

	result, err := w.generator.Generate(ctx, SummaryRequest{
		StartDate:    job.StartDate,
		EndDate:      job.EndDate,
		Topics:       job.Topics,
		ForceRefresh: true,
	}, onProgress)
	if err != nil {
		return fmt.Errorf("generate summary: %w", err)
	}

	result.QueryTopics = normalizeTopics(job.Topics)
	now := time.Now()

	if err := w.jobs.MarkJobCompleted(ctx, job.ID, result, now); err != nil {
		return fmt.Errorf("record result: %w", err)
	}
	if err := w.summaries.CreateSummary(ctx, result); err != nil {
		return fmt.Errorf("persist summary: %w", err)
	}
	// Queue-draining design: the durable copy lives in the summary store,
	// the job row goes away.
	if err := w.jobs.DeleteJob(ctx, job.ID); err != nil {
		return fmt.Errorf("delete drained job: %w", err)
	}
	return nil
}

func (w *Worker) failJob(ctx context.Context, jobID string, cause error) {
	w.warn("job failed", "job", jobID, "error", cause)
	if err := w.jobs.MarkJobFailed(ctx, jobID, cause.Error(), time.Now()); err != nil {
		w.warn("mark job failed errored", "job", jobID, "error", err)
	}
}

func (w *Worker) debug(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Debug(msg, args...)
	}
}

func (w *Worker) info(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Info(msg, args...)
	}
}

func (w *Worker) warn(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Warn(msg, args...)
	}
}
