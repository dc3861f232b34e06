// Package scheduler provides the cron-based trigger for periodic
// collection runs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"NewsDigest/internal/ports"
)

// CronScheduler runs a callback on a cron expression.
type CronScheduler struct {
	expression string
	cron       *cron.Cron
	logger     *slog.Logger
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler accepts standard five-field cron expressions as well as
// the @every shorthand.
func NewCronScheduler(expression string, logger *slog.Logger) *CronScheduler {
	return &CronScheduler{
		expression: expression,
		logger:     logger,
	}
}

// Start registers the job and begins the cron loop. The job receives the
// scheduled fire time and must handle its own timeouts.
func (s *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	c := cron.New()
	_, err := c.AddFunc(s.expression, func() {
		if ctx.Err() != nil {
			return
		}
		job(time.Now())
	})
	if err != nil {
		return fmt.Errorf("add cron job %q: %w", s.expression, err)
	}

	s.cron = c
	c.Start()
	s.log("cron scheduler started", "expression", s.expression)
	return nil
}

// Stop halts scheduling and waits for a running job to finish, bounded by
// the context deadline.
func (s *CronScheduler) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}

	done := s.cron.Stop().Done()
	select {
	case <-done:
		s.log("cron scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop cron scheduler: %w", ctx.Err())
	}
}

func (s *CronScheduler) log(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}
