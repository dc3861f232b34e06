// Command migratejobs moves COMPLETED job results left over from a
// deployment that kept results on the job row into the summaries table,
// deleting each migrated job row. Safe to run repeatedly.
package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"NewsDigest/internal/config"
	"NewsDigest/internal/infrastructure/storage"
	"NewsDigest/internal/logging"
	"NewsDigest/internal/usecase"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	store, err := storage.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	jobs := usecase.NewJobService(store, store, logger)

	migrated, failed, err := jobs.MigrateCompletedJobs(context.Background())
	if err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	logger.Info("migration finished", "migrated", migrated, "failed", failed)
	if failed > 0 {
		os.Exit(1)
	}
}
