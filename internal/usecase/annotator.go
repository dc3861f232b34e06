package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsDigest/internal/ports"
)

const (
	// DefaultChunkSize bounds how many items share one inference call.
	DefaultChunkSize = 20

	fallbackTitleLen   = 50
	singleContentLimit = 500
	batchContentLimit  = 300

	fallbackMacroTopic = "General"
	defaultTopic       = "General"
	defaultMacroTopic  = "News"
)

// TopicInput is the slice of an item the annotator looks at.
type TopicInput struct {
	Title   string
	Content string
}

// TopicResult is one {topic, macroTopic} assignment.
type TopicResult struct {
	Topic      string `json:"topic"`
	MacroTopic string `json:"macroTopic"`
}

// Annotator assigns a short topic and a broader macro-topic to items via the
// inference service, degrading to title-derived defaults when inference fails.
type Annotator struct {
	inference ports.Inference
	chunkSize int
	logger    *slog.Logger
}

// NewAnnotator wires the inference boundary. A non-positive chunk size falls
// back to DefaultChunkSize.
func NewAnnotator(inference ports.Inference, chunkSize int, logger *slog.Logger) *Annotator {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Annotator{inference: inference, chunkSize: chunkSize, logger: logger}
}

// ExtractTopic annotates a single item with one inference call. It never
// fails: any inference or parsing error degrades to the truncated-title
// fallback.
func (a *Annotator) ExtractTopic(ctx context.Context, title, content string) TopicResult {
	prompt := fmt.Sprintf(`Analyze this article and extract:
1. A specific topic (2-4 words)
2. A macro topic/category (1-2 words)

Article Title: %s
Article Content: %s...

Respond ONLY in this JSON format:
{
  "topic": "specific topic here",
  "macroTopic": "category here"
}`, title, truncate(content, singleContentLimit))

	raw, err := a.inference.Infer(ctx, prompt, true)
	if err != nil {
		a.warn("topic extraction failed", "title", title, "error", err)
		return fallbackResult(title)
	}

	var result TopicResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		a.warn("topic extraction returned malformed JSON", "title", title, "error", err)
		return fallbackResult(title)
	}

	return normalizeResult(result)
}

// ExtractTopicsInBatch annotates up to chunk-size items with one inference
// call. The returned slice is always aligned to the input: entry i belongs to
// items[i]. On a length mismatch the missing entries degrade to the per-item
// fallback while present entries are kept. A total failure (inference error
// or unparseable response) returns an error so inline-annotation callers can
// abort instead of persisting un-annotated data.
func (a *Annotator) ExtractTopicsInBatch(ctx context.Context, items []TopicInput) ([]TopicResult, error) {
	if len(items) == 0 {
		return nil, nil
	}

	var list strings.Builder
	for i, item := range items {
		fmt.Fprintf(&list, "Article %d:\nTitle: %s\nContent: %s...\n---\n\n",
			i+1, item.Title, truncate(item.Content, batchContentLimit))
	}

	prompt := fmt.Sprintf(`You are analyzing %d articles. For each article, extract:
1. A specific topic (2-4 words)
2. A macro topic/category (1-2 words)

Articles:
%s
Respond ONLY with a JSON array of objects, one per article in order:
[
  {"topic": "specific topic", "macroTopic": "category"},
  {"topic": "specific topic", "macroTopic": "category"},
  ...
]`, len(items), list.String())

	started := time.Now()
	raw, err := a.inference.Infer(ctx, prompt, true)
	if err != nil {
		return nil, fmt.Errorf("batch topic extraction: %w", err)
	}

	var parsed []TopicResult
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse batch topic response: %w", err)
	}

	a.debug("batch extraction complete",
		"items", len(items), "returned", len(parsed), "duration", time.Since(started))

	if len(parsed) != len(items) {
		a.warn("batch extraction length mismatch", "expected", len(items), "got", len(parsed))
	}

	results := make([]TopicResult, len(items))
	for i := range items {
		if i < len(parsed) {
			results[i] = normalizeResult(parsed[i])
		} else {
			results[i] = fallbackResult(items[i].Title)
		}
	}

	return results, nil
}

// ExtractTopicsChunked splits an arbitrarily large item list into fixed-size
// chunks and annotates each with ExtractTopicsInBatch, concatenating results
// in input order. A chunk-level failure degrades only that chunk to the
// title-derived fallback; the run as a whole never fails.
func (a *Annotator) ExtractTopicsChunked(ctx context.Context, items []TopicInput) []TopicResult {
	if len(items) == 0 {
		return nil
	}

	chunks := (len(items) + a.chunkSize - 1) / a.chunkSize
	results := make([]TopicResult, 0, len(items))

	for i := 0; i < len(items); i += a.chunkSize {
		end := i + a.chunkSize
		if end > len(items) {
			end = len(items)
		}
		chunk := items[i:end]

		a.debug("processing chunk", "chunk", i/a.chunkSize+1, "chunks", chunks, "items", len(chunk))

		chunkResults, err := a.ExtractTopicsInBatch(ctx, chunk)
		if err != nil {
			a.warn("chunk extraction failed, falling back to title-based topics",
				"chunk", i/a.chunkSize+1, "error", err)
			for _, item := range chunk {
				results = append(results, fallbackResult(item.Title))
			}
			continue
		}
		results = append(results, chunkResults...)
	}

	return results
}

func fallbackResult(title string) TopicResult {
	return TopicResult{Topic: truncate(title, fallbackTitleLen), MacroTopic: fallbackMacroTopic}
}

func normalizeResult(r TopicResult) TopicResult {
	if r.Topic == "" {
		r.Topic = defaultTopic
	}
	if r.MacroTopic == "" {
		r.MacroTopic = defaultMacroTopic
	}
	return r
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func (a *Annotator) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}

func (a *Annotator) warn(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}
