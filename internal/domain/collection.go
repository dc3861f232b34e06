package domain

import "time"

// CollectMode selects the collection strategy.
type CollectMode string

const (
	// CollectFast persists new items immediately with sentinel topics and
	// leaves annotation to the reconciler sweep.
	CollectFast CollectMode = "fast"
	// CollectFull annotates new items inline before persisting them.
	CollectFull CollectMode = "full"
)

// CollectionResult reports the outcome of one source collection run.
type CollectionResult struct {
	SourceID               string
	SourceName             string
	NewArticles            int
	PendingTopicExtraction int
	Errors                 []string
	Duration               time.Duration
}

// CollectionReport aggregates the results of a fan-out over all sources.
type CollectionReport struct {
	CheckedSources         int
	NewArticles            int
	PendingTopicExtraction int
	Errors                 []string
	Results                []CollectionResult
}

// Aggregate folds per-source results into a single report.
func Aggregate(results []CollectionResult) CollectionReport {
	report := CollectionReport{Results: results, CheckedSources: len(results)}
	for _, r := range results {
		report.NewArticles += r.NewArticles
		report.PendingTopicExtraction += r.PendingTopicExtraction
		report.Errors = append(report.Errors, r.Errors...)
	}
	return report
}
