package domain

import "time"

// TopicSummary is one narrated cluster inside a summary.
type TopicSummary struct {
	Topic    string       `json:"topic"`
	Summary  string       `json:"summary"`
	Articles []ArticleRef `json:"articles"`
	Sources  []SourceRef  `json:"sources"`
	Count    int          `json:"count"`
}

// Summary is a clustered, narrated digest over a date range and optional
// topic filter. Immutable once created; newer articles supersede it with a
// fresh summary rather than mutating it in place.
type Summary struct {
	ID            string         `json:"id,omitempty"`
	StartDate     time.Time      `json:"startDate"`
	EndDate       time.Time      `json:"endDate"`
	QueryTopics   []string       `json:"queryTopics"`
	Topics        []TopicSummary `json:"topics"`
	TotalArticles int            `json:"totalArticles"`
	ArticleIDs    []string       `json:"articleIds"`
	GeneratedAt   time.Time      `json:"generatedAt"`
}
