// Command cleanupjobs deletes old terminal job rows. It counts the matches,
// announces what it is about to remove, waits a short grace period, and then
// deletes. FAILED rows are included only with -include-failed.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/infrastructure/storage"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/usecase"
)

func main() {
	_ = godotenv.Load()

	olderThan := flag.Duration("older-than", 24*time.Hour, "delete jobs created before now minus this duration")
	includeFailed := flag.Bool("include-failed", false, "also delete FAILED jobs")
	grace := flag.Duration("grace", 5*time.Second, "pause before deleting, to allow an abort")
	flag.Parse()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)
	ctx := context.Background()

	store, err := storage.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	jobs := usecase.NewJobService(store, store, logger)

	statuses := []domain.JobStatus{domain.JobCompleted}
	if *includeFailed {
		statuses = append(statuses, domain.JobFailed)
	}

	for _, status := range statuses {
		count, err := jobs.CountJobs(ctx, status)
		if err != nil {
			logger.Error("count jobs", "status", status, "error", err)
			os.Exit(1)
		}
		logger.Info("jobs in status", "status", status, "count", count)
	}

	logger.Warn("deleting old jobs", "olderThan", olderThan.String(), "grace", grace.String())
	time.Sleep(*grace)

	deleted, err := jobs.CleanupTerminalJobs(ctx, *olderThan, statuses)
	if err != nil {
		logger.Error("cleanup failed", "deletedSoFar", deleted, "error", err)
		os.Exit(1)
	}
	logger.Info("cleanup finished", "deleted", deleted)
}
