package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// Queue is the durable job queue over the generation_queue table. All
// coordination happens through the database; the struct itself holds no
// mutable state and is safe to share across goroutines and processes.
type Queue struct {
	sql infra.SQLExecutor
}

func New(sql infra.SQLExecutor) *Queue {
	return &Queue{sql: sql}
}

// Backoff returns the retry delay applied after a failure on the given
// attempt number: 2^attempt minutes.
func Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return time.Duration(1<<uint(attempt)) * time.Minute
}

// EnqueueParams describes a new queue row.
type EnqueueParams struct {
	PageID      string
	OwnerID     *string
	Payload     domain.JobPayload
	Priority    int
	MaxAttempts int
}

func (p *EnqueueParams) validate() error {
	if strings.TrimSpace(p.PageID) == "" {
		return fmt.Errorf("%w: page id is required", domain.ErrValidation)
	}
	if strings.TrimSpace(p.Payload.SourceUploadKey) == "" {
		return fmt.Errorf("%w: source upload key is required", domain.ErrValidation)
	}
	if _, err := domain.ParseStyle(string(p.Payload.Style)); err != nil {
		return err
	}
	if _, err := domain.ParseDifficulty(int(p.Payload.Difficulty)); err != nil {
		return err
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = domain.DefaultMaxAttempts
	}
	return nil
}

// Enqueue inserts a new pending row scheduled immediately.
func (q *Queue) Enqueue(ctx context.Context, params EnqueueParams) (*domain.Job, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	payloadJSON, err := json.Marshal(params.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode payload: %v", domain.ErrValidation, err)
	}

	job := &domain.Job{
		ID:          uuid.NewString(),
		PageID:      params.PageID,
		OwnerID:     params.OwnerID,
		Status:      domain.JobStatusPending,
		Priority:    params.Priority,
		MaxAttempts: params.MaxAttempts,
		Payload:     params.Payload,
	}
	row := q.sql.QueryRow(ctx, sqlinline.QEnqueueJob,
		job.ID, job.PageID, job.OwnerID, job.Priority, job.MaxAttempts, payloadJSON)
	if err := row.Scan(&job.CreatedAt, &job.ScheduledAt); err != nil {
		return nil, fmt.Errorf("%w: enqueue job: %v", domain.ErrPersistence, err)
	}
	job.UpdatedAt = job.CreatedAt
	return job, nil
}

// ClaimNext atomically moves the highest-priority, oldest-scheduled pending
// row to processing and returns it. A nil job means nothing is claimable.
func (q *Queue) ClaimNext(ctx context.Context) (*domain.Job, error) {
	row := q.sql.QueryRow(ctx, sqlinline.QClaimNextJob)

	var (
		job         domain.Job
		payloadJSON []byte
	)
	err := row.Scan(
		&job.ID,
		&job.PageID,
		&job.OwnerID,
		&job.Status,
		&job.Priority,
		&job.Attempt,
		&job.MaxAttempts,
		&payloadJSON,
		&job.LastError,
		&job.ScheduledAt,
		&job.StartedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: claim job: %v", domain.ErrPersistence, err)
	}
	if err := json.Unmarshal(payloadJSON, &job.Payload); err != nil {
		return nil, fmt.Errorf("%w: decode payload for job %s: %v", domain.ErrPersistence, job.ID, err)
	}
	return &job, nil
}

// MarkCompleted finalizes a processing row. The conditional update surfaces
// an error when the row is missing or not in processing, since completing a
// job twice would indicate a claim-exclusivity bug.
func (q *Queue) MarkCompleted(ctx context.Context, jobID string) error {
	var id string
	row := q.sql.QueryRow(ctx, sqlinline.QMarkJobCompleted, jobID)
	if err := row.Scan(&id); err != nil {
		if infra.IsNoRows(err) {
			return fmt.Errorf("%w: mark completed: job %s not in processing", domain.ErrPersistence, jobID)
		}
		return fmt.Errorf("%w: mark completed %s: %v", domain.ErrPersistence, jobID, err)
	}
	return nil
}

// MarkFailed records the failure and decides retry versus terminal failure:
// when attempt+1 is still below max_attempts the row moves to retrying with
// scheduled_at pushed out by Backoff(attempt), otherwise it is terminally
// failed. Returns the resulting status.
func (q *Queue) MarkFailed(ctx context.Context, jobID, errorMessage string) (domain.JobStatus, error) {
	var attempt, maxAttempts int
	row := q.sql.QueryRow(ctx, sqlinline.QGetJobAttempts, jobID)
	if err := row.Scan(&attempt, &maxAttempts); err != nil {
		if infra.IsNoRows(err) {
			return "", fmt.Errorf("%w: mark failed: job %s not in processing", domain.ErrPersistence, jobID)
		}
		return "", fmt.Errorf("%w: mark failed %s: %v", domain.ErrPersistence, jobID, err)
	}

	var id string
	if attempt+1 < maxAttempts {
		retryAt := time.Now().UTC().Add(Backoff(attempt))
		row := q.sql.QueryRow(ctx, sqlinline.QMarkJobRetrying, jobID, errorMessage, retryAt)
		if err := row.Scan(&id); err != nil {
			return "", fmt.Errorf("%w: schedule retry %s: %v", domain.ErrPersistence, jobID, err)
		}
		return domain.JobStatusRetrying, nil
	}

	row = q.sql.QueryRow(ctx, sqlinline.QMarkJobFailed, jobID, errorMessage)
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("%w: mark failed %s: %v", domain.ErrPersistence, jobID, err)
	}
	return domain.JobStatusFailed, nil
}

// PromoteRetryable moves every retrying row whose backoff has elapsed back to
// pending. It runs before each polling cycle so retried jobs never starve.
func (q *Queue) PromoteRetryable(ctx context.Context) (int64, error) {
	tag, err := q.sql.Exec(ctx, sqlinline.QPromoteRetryable)
	if err != nil {
		return 0, fmt.Errorf("%w: promote retryable: %v", domain.ErrPersistence, err)
	}
	return tag.RowsAffected(), nil
}

// PurgeTerminal deletes completed and failed rows older than the retention
// window. Page records keep the durable history; the queue stays small.
func (q *Queue) PurgeTerminal(ctx context.Context, retentionDays int) (int64, error) {
	tag, err := q.sql.Exec(ctx, sqlinline.QPurgeTerminalJobs, retentionDays)
	if err != nil {
		return 0, fmt.Errorf("%w: purge terminal jobs: %v", domain.ErrPersistence, err)
	}
	return tag.RowsAffected(), nil
}
