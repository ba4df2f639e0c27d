package domain

import "time"

// PageStatus enumerates the user-facing page record lifecycle. It mirrors the
// queue row outcome but lives on its own table with its own lifecycle.
type PageStatus string

const (
	PageStatusQueued     PageStatus = "queued"
	PageStatusProcessing PageStatus = "processing"
	PageStatusCompleted  PageStatus = "completed"
	PageStatusFailed     PageStatus = "failed"
)

// Page is the user-facing coloring-page record.
type Page struct {
	ID           string
	UserID       *string
	SceneText    string
	Prompt       string
	Style        Style
	Difficulty   Difficulty
	SourceKey    string
	StorageKey   string
	OutputURL    string
	Status       PageStatus
	ErrorMessage string
	AnalysisJSON []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UploadClaim tracks ownership of an anonymously uploaded photo. The nonce is
// issued at upload time and must be presented exactly once to associate the
// file with an authenticated user.
type UploadClaim struct {
	ID         string
	StorageKey string
	Nonce      string
	UserID     *string
	ClaimedAt  *time.Time
	CreatedAt  time.Time
}
