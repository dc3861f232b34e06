package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestExtractTopicParsesResponse(t *testing.T) {
	t.Parallel()

	inference := &fakeInference{responses: []string{`{"topic": "AI Regulation", "macroTopic": "Technology"}`}}
	a := NewAnnotator(inference, 0, nil)

	got := a.ExtractTopic(context.Background(), "EU passes AI act", "The parliament voted...")
	if got.Topic != "AI Regulation" || got.MacroTopic != "Technology" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestExtractTopicFallsBackOnError(t *testing.T) {
	t.Parallel()

	inference := &fakeInference{err: errors.New("connection refused")}
	a := NewAnnotator(inference, 0, nil)

	title := strings.Repeat("x", 80)
	got := a.ExtractTopic(context.Background(), title, "content")
	if got.Topic != title[:50] {
		t.Fatalf("expected truncated title fallback, got %q", got.Topic)
	}
	if got.MacroTopic != "General" {
		t.Fatalf("expected General macro topic, got %q", got.MacroTopic)
	}
}

func TestExtractTopicFallsBackOnMalformedJSON(t *testing.T) {
	t.Parallel()

	inference := &fakeInference{responses: []string{"not json at all"}}
	a := NewAnnotator(inference, 0, nil)

	got := a.ExtractTopic(context.Background(), "Short title", "content")
	if got.Topic != "Short title" || got.MacroTopic != "General" {
		t.Fatalf("unexpected fallback: %+v", got)
	}
}

func TestExtractTopicNormalizesEmptyFields(t *testing.T) {
	t.Parallel()

	inference := &fakeInference{responses: []string{`{"topic": "", "macroTopic": ""}`}}
	a := NewAnnotator(inference, 0, nil)

	got := a.ExtractTopic(context.Background(), "Title", "content")
	if got.Topic != "General" || got.MacroTopic != "News" {
		t.Fatalf("unexpected normalization: %+v", got)
	}
}

func TestExtractTopicsInBatchPreservesOrder(t *testing.T) {
	t.Parallel()

	inference := &fakeInference{responses: []string{
		`[{"topic": "First", "macroTopic": "A"}, {"topic": "Second", "macroTopic": "B"}, {"topic": "Third", "macroTopic": "C"}]`,
	}}
	a := NewAnnotator(inference, 10, nil)

	items := []TopicInput{{Title: "one"}, {Title: "two"}, {Title: "three"}}
	results, err := a.ExtractTopicsInBatch(context.Background(), items)
	if err != nil {
		t.Fatalf("batch returned error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, want := range []string{"First", "Second", "Third"} {
		if results[i].Topic != want {
			t.Fatalf("result %d: expected %q, got %q", i, want, results[i].Topic)
		}
	}
	if inference.calls() != 1 {
		t.Fatalf("expected 1 inference call, got %d", inference.calls())
	}
}

func TestExtractTopicsInBatchLengthMismatchFallsBack(t *testing.T) {
	t.Parallel()

	inference := &fakeInference{responses: []string{
		`[{"topic": "Kept", "macroTopic": "A"}]`,
	}}
	a := NewAnnotator(inference, 10, nil)

	items := []TopicInput{{Title: "covered"}, {Title: "missing entry"}}
	results, err := a.ExtractTopicsInBatch(context.Background(), items)
	if err != nil {
		t.Fatalf("mismatch must not be an error: %v", err)
	}
	if results[0].Topic != "Kept" {
		t.Fatalf("present entry lost: %+v", results[0])
	}
	if results[1].Topic != "missing entry" || results[1].MacroTopic != "General" {
		t.Fatalf("expected fallback for missing entry, got %+v", results[1])
	}
}

func TestExtractTopicsInBatchTotalFailureReturnsError(t *testing.T) {
	t.Parallel()

	inference := &fakeInference{err: errors.New("model offline")}
	a := NewAnnotator(inference, 10, nil)

	if _, err := a.ExtractTopicsInBatch(context.Background(), []TopicInput{{Title: "x"}}); err == nil {
		t.Fatal("expected error on inference failure")
	}

	inference = &fakeInference{responses: []string{"garbage"}}
	a = NewAnnotator(inference, 10, nil)
	if _, err := a.ExtractTopicsInBatch(context.Background(), []TopicInput{{Title: "x"}}); err == nil {
		t.Fatal("expected error on unparseable response")
	}
}

func TestExtractTopicsChunkedSplitsByChunkSize(t *testing.T) {
	t.Parallel()

	// 45 items at chunk size 20 is three calls: 20, 20, 5.
	makeBatch := func(n int) string {
		var sb strings.Builder
		sb.WriteString("[")
		for i := 0; i < n; i++ {
			if i > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, `{"topic": "t%d", "macroTopic": "m"}`, i)
		}
		sb.WriteString("]")
		return sb.String()
	}
	inference := &fakeInference{responses: []string{makeBatch(20), makeBatch(20), makeBatch(5)}}
	a := NewAnnotator(inference, 20, nil)

	items := make([]TopicInput, 45)
	for i := range items {
		items[i] = TopicInput{Title: fmt.Sprintf("item %d", i)}
	}

	results := a.ExtractTopicsChunked(context.Background(), items)
	if len(results) != 45 {
		t.Fatalf("expected 45 results, got %d", len(results))
	}
	if inference.calls() != 3 {
		t.Fatalf("expected 3 inference calls, got %d", inference.calls())
	}
	// First entry of the final chunk maps back to item 40.
	if results[40].Topic != "t0" {
		t.Fatalf("chunk boundary misaligned: %+v", results[40])
	}
}

func TestExtractTopicsChunkedDegradesFailedChunk(t *testing.T) {
	t.Parallel()

	inference := &fakeInference{responses: []string{
		`[{"topic": "ok1", "macroTopic": "m"}, {"topic": "ok2", "macroTopic": "m"}]`,
		"garbage response",
	}}
	a := NewAnnotator(inference, 2, nil)

	items := []TopicInput{
		{Title: "a"}, {Title: "b"},
		{Title: "c"}, {Title: "d"},
	}
	results := a.ExtractTopicsChunked(context.Background(), items)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if results[0].Topic != "ok1" || results[1].Topic != "ok2" {
		t.Fatalf("healthy chunk corrupted: %+v", results[:2])
	}
	if results[2].Topic != "c" || results[3].Topic != "d" {
		t.Fatalf("failed chunk should fall back to titles: %+v", results[2:])
	}
}
