package domain

// Job status constants. Transitions are monotonic:
// pending -> in_progress -> finished | failed.
const (
	JobStatusPending    = "pending"
	JobStatusInProgress = "in_progress"
	JobStatusFinished   = "finished"
	JobStatusFailed     = "failed"
)

// JobState is the persisted state of a background collection job.
type JobState struct {
	Status string         `json:"status"`
	Result []SellerRecord `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Terminal reports whether the job has reached a final state.
func (s *JobState) Terminal() bool {
	return s.Status == JobStatusFinished || s.Status == JobStatusFailed
}
