package domain

import "time"

// JobStatus enumerates queue-row lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Terminal reports whether no further transitions are permitted from s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// DefaultMaxAttempts caps processing attempts unless the caller overrides it.
const DefaultMaxAttempts = 3

// JobPayload holds the immutable generation parameters captured at enqueue
// time. SourceUploadKey references the uploaded photo in object storage;
// Analysis, when present, is a caller-supplied photo analysis that lets the
// worker skip the vision call entirely.
type JobPayload struct {
	SceneText       string         `json:"scene_text"`
	Style           Style          `json:"style"`
	Difficulty      Difficulty     `json:"difficulty"`
	SourceUploadKey string         `json:"source_upload_key"`
	Orientation     string         `json:"orientation,omitempty"`
	Quality         string         `json:"quality,omitempty"`
	Analysis        *PhotoAnalysis `json:"analysis,omitempty"`
}

// Job is one durable queue row tracking a page-generation request through
// the pending/processing/completed/failed/retrying state machine. PageID is
// the user-facing page record this row serves; one page maps to at most one
// live queue row.
type Job struct {
	ID          string
	PageID      string
	OwnerID     *string
	Status      JobStatus
	Priority    int
	Attempt     int
	MaxAttempts int
	Payload     JobPayload
	LastError   *string
	ScheduledAt time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
