package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"NewsDigest/internal/ports"
)

// Reconciler is the background sweep that resolves sentinel-annotated
// articles to their real topics in batches.
type Reconciler struct {
	articles  ports.ArticleStore
	annotator *Annotator
	batchSize int
	logger    *slog.Logger

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewReconciler constructs the pending-topic sweep.
func NewReconciler(articles ports.ArticleStore, annotator *Annotator, batchSize int, logger *slog.Logger) *Reconciler {
	if batchSize <= 0 {
		batchSize = DefaultChunkSize
	}
	return &Reconciler{
		articles:  articles,
		annotator: annotator,
		batchSize: batchSize,
		logger:    logger,
	}
}

// ProcessPendingTopics resolves up to batchSize sentinel-topic articles and
// returns the number updated. A total annotation failure is returned to the
// caller: the sweep runs on its own schedule and can simply retry next cycle.
func (r *Reconciler) ProcessPendingTopics(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = r.batchSize
	}

	articles, err := r.articles.ListPendingArticles(ctx, batchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending articles: %w", err)
	}
	if len(articles) == 0 {
		return 0, nil
	}

	inputs := make([]TopicInput, len(articles))
	for i, a := range articles {
		inputs[i] = TopicInput{Title: a.Title, Content: a.Content}
	}

	topics, err := r.annotator.ExtractTopicsInBatch(ctx, inputs)
	if err != nil {
		return 0, fmt.Errorf("resolve pending topics: %w", err)
	}

	updated := 0
	for i, a := range articles {
		if err := r.articles.UpdateArticleTopics(ctx, a.ID, topics[i].Topic, topics[i].MacroTopic); err != nil {
			r.warn("update article topics failed", "article", a.ID, "error", err)
			continue
		}
		updated++
	}

	r.debug("pending topics reconciled", "updated", updated, "batch", len(articles))
	return updated, nil
}

// Start launches the recurring sweep on the given interval.
func (r *Reconciler) Start(ctx context.Context, interval time.Duration) {
	if r.stop != nil {
		return
	}
	r.stop = make(chan struct{})
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := r.ProcessPendingTopics(ctx, r.batchSize); err != nil {
					r.warn("pending topic sweep failed", "error", err)
				}
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			}
		}
	}()
}

// Stop halts the sweep goroutine and waits for it to exit.
func (r *Reconciler) Stop() {
	if r.stop == nil {
		return
	}
	close(r.stop)
	r.wg.Wait()
	r.stop = nil
}

func (r *Reconciler) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

func (r *Reconciler) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
