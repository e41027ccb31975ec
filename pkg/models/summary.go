package models

// Status is the generation state reported by the summarization service.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusInProgress Status = "in_progress"
	StatusError      Status = "error"
)

// Known reports whether s is one of the statuses the service documents.
func (s Status) Known() bool {
	switch s {
	case StatusCompleted, StatusInProgress, StatusError:
		return true
	}
	return false
}

// Summary is a service response for one topic and one day. Only completed
// summaries are ever cached.
type Summary struct {
	Status  Status `json:"status"`
	Summary string `json:"summary,omitempty"`
}

// Completed reports whether the summary holds a finished result.
func (s Summary) Completed() bool {
	return s.Status == StatusCompleted
}
