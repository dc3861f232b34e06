package domain

import "time"

// JobStatus enumerates the summary job state machine.
type JobStatus string

const (
	JobQueued     JobStatus = "QUEUED"
	JobProcessing JobStatus = "PROCESSING"
	JobCompleted  JobStatus = "COMPLETED"
	JobFailed     JobStatus = "FAILED"
)

// SummaryJob is a durable queue entry for an asynchronous summary request.
// COMPLETED is transient: once the result is copied into the summary store
// the job row is deleted. FAILED rows are retained for inspection.
type SummaryJob struct {
	ID           string
	StartDate    time.Time
	EndDate      time.Time
	Topics       []string
	Status       JobStatus
	CurrentTopic int
	TotalTopics  int
	Result       *Summary
	Error        string
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
}

// Progress returns the completion percentage, zero when no topics are known.
func (j SummaryJob) Progress() float64 {
	if j.TotalTopics == 0 {
		return 0
	}
	return float64(j.CurrentTopic) / float64(j.TotalTopics) * 100
}
