package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"server/internal/domain"
	"server/internal/sqlinline"
)

type simpleRow struct {
	scan func(dest ...any) error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

type sqlCall struct {
	query string
	args  []any
}

type fakeSQL struct {
	calls    []sqlCall
	queryRow func(call sqlCall) pgx.Row
	exec     func(call sqlCall) (pgconn.CommandTag, error)
}

func (f *fakeSQL) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	call := sqlCall{query: query, args: args}
	f.calls = append(f.calls, call)
	if f.exec == nil {
		return pgconn.CommandTag{}, nil
	}
	return f.exec(call)
}

func (f *fakeSQL) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	call := sqlCall{query: query, args: args}
	f.calls = append(f.calls, call)
	if f.queryRow == nil {
		return simpleRow{}
	}
	return f.queryRow(call)
}

func (f *fakeSQL) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("query not supported in fake")
}

func validParams() EnqueueParams {
	return EnqueueParams{
		PageID: "page-1",
		Payload: domain.JobPayload{
			SceneText:       "playing in the park",
			Style:           domain.StyleClassic,
			Difficulty:      3,
			SourceUploadKey: "public/uploads/photo.jpg",
		},
	}
}

func TestBackoffExactValues(t *testing.T) {
	t.Parallel()
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: time.Minute},
		{attempt: 1, want: 2 * time.Minute},
		{attempt: 2, want: 4 * time.Minute},
		{attempt: 3, want: 8 * time.Minute},
		{attempt: -1, want: time.Minute},
	}
	for _, tc := range cases {
		if got := Backoff(tc.attempt); got != tc.want {
			t.Fatalf("Backoff(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}

func TestBackoffMonotonic(t *testing.T) {
	t.Parallel()
	for attempt := 1; attempt < 8; attempt++ {
		if Backoff(attempt) <= Backoff(attempt-1) {
			t.Fatalf("Backoff(%d) = %v not greater than Backoff(%d) = %v",
				attempt, Backoff(attempt), attempt-1, Backoff(attempt-1))
		}
	}
}

func TestEnqueueValidation(t *testing.T) {
	t.Parallel()
	q := New(&fakeSQL{})

	cases := []struct {
		name   string
		mutate func(*EnqueueParams)
	}{
		{name: "missing_page_id", mutate: func(p *EnqueueParams) { p.PageID = " " }},
		{name: "missing_source_key", mutate: func(p *EnqueueParams) { p.Payload.SourceUploadKey = "" }},
		{name: "unknown_style", mutate: func(p *EnqueueParams) { p.Payload.Style = "watercolor" }},
		{name: "difficulty_too_low", mutate: func(p *EnqueueParams) { p.Payload.Difficulty = 0 }},
		{name: "difficulty_too_high", mutate: func(p *EnqueueParams) { p.Payload.Difficulty = 6 }},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			params := validParams()
			tc.mutate(&params)
			_, err := q.Enqueue(context.Background(), params)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("Enqueue error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestEnqueueDefaultsMaxAttempts(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()
	fake := &fakeSQL{
		queryRow: func(call sqlCall) pgx.Row {
			return simpleRow{scan: func(dest ...any) error {
				*(dest[0].(*time.Time)) = now
				*(dest[1].(*time.Time)) = now
				return nil
			}}
		},
	}
	q := New(fake)

	job, err := q.Enqueue(context.Background(), validParams())
	if err != nil {
		t.Fatalf("Enqueue returned error: %v", err)
	}
	if job.MaxAttempts != domain.DefaultMaxAttempts {
		t.Fatalf("MaxAttempts = %d, want %d", job.MaxAttempts, domain.DefaultMaxAttempts)
	}
	if job.Status != domain.JobStatusPending {
		t.Fatalf("Status = %q, want %q", job.Status, domain.JobStatusPending)
	}
	if job.ID == "" {
		t.Fatal("expected generated job id")
	}
	if len(fake.calls) != 1 || fake.calls[0].query != sqlinline.QEnqueueJob {
		t.Fatalf("expected one enqueue statement, got %d calls", len(fake.calls))
	}
	if got := fake.calls[0].args[4].(int); got != domain.DefaultMaxAttempts {
		t.Fatalf("bound max_attempts = %d, want %d", got, domain.DefaultMaxAttempts)
	}
}

func TestClaimNextEmptyQueue(t *testing.T) {
	t.Parallel()
	q := New(&fakeSQL{})

	job, err := q.ClaimNext(context.Background())
	if err != nil {
		t.Fatalf("ClaimNext returned error: %v", err)
	}
	if job != nil {
		t.Fatalf("ClaimNext = %+v, want nil on empty queue", job)
	}
}

func TestClaimNextDecodesRow(t *testing.T) {
	t.Parallel()
	payload := domain.JobPayload{
		SceneText:       "at the beach",
		Style:           domain.StyleMandala,
		Difficulty:      4,
		SourceUploadKey: "users/u1/uploads/a.jpg",
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	now := time.Now().UTC()
	owner := "u1"
	fake := &fakeSQL{
		queryRow: func(call sqlCall) pgx.Row {
			if call.query != sqlinline.QClaimNextJob {
				t.Fatalf("unexpected statement: %q", call.query)
			}
			return simpleRow{scan: func(dest ...any) error {
				*(dest[0].(*string)) = "job-1"
				*(dest[1].(*string)) = "page-1"
				*(dest[2].(**string)) = &owner
				*(dest[3].(*domain.JobStatus)) = domain.JobStatusProcessing
				*(dest[4].(*int)) = 5
				*(dest[5].(*int)) = 1
				*(dest[6].(*int)) = 3
				*(dest[7].(*[]byte)) = payloadJSON
				*(dest[8].(**string)) = nil
				*(dest[9].(*time.Time)) = now
				*(dest[10].(**time.Time)) = &now
				*(dest[11].(*time.Time)) = now
				*(dest[12].(*time.Time)) = now
				return nil
			}}
		},
	}
	q := New(fake)

	job, err := q.ClaimNext(context.Background())
	if err != nil {
		t.Fatalf("ClaimNext returned error: %v", err)
	}
	if job == nil {
		t.Fatal("ClaimNext returned nil job")
	}
	if job.ID != "job-1" || job.PageID != "page-1" {
		t.Fatalf("job identity = (%q, %q)", job.ID, job.PageID)
	}
	if job.Status != domain.JobStatusProcessing {
		t.Fatalf("Status = %q, want processing", job.Status)
	}
	if job.OwnerID == nil || *job.OwnerID != "u1" {
		t.Fatalf("OwnerID = %v, want u1", job.OwnerID)
	}
	if job.Payload.Style != domain.StyleMandala || job.Payload.Difficulty != 4 {
		t.Fatalf("payload decoded wrong: %+v", job.Payload)
	}
}

func TestMarkCompletedRequiresProcessingRow(t *testing.T) {
	t.Parallel()
	q := New(&fakeSQL{})

	err := q.MarkCompleted(context.Background(), "job-1")
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("MarkCompleted error = %v, want ErrPersistence", err)
	}
	if !strings.Contains(err.Error(), "not in processing") {
		t.Fatalf("error %q should name the missing processing row", err)
	}
}

func TestMarkFailedSchedulesRetry(t *testing.T) {
	t.Parallel()
	var retryAt time.Time
	fake := &fakeSQL{}
	fake.queryRow = func(call sqlCall) pgx.Row {
		switch call.query {
		case sqlinline.QGetJobAttempts:
			return simpleRow{scan: func(dest ...any) error {
				*(dest[0].(*int)) = 0
				*(dest[1].(*int)) = 3
				return nil
			}}
		case sqlinline.QMarkJobRetrying:
			retryAt = call.args[2].(time.Time)
			return simpleRow{scan: func(dest ...any) error {
				*(dest[0].(*string)) = "job-1"
				return nil
			}}
		default:
			t.Fatalf("unexpected statement: %q", call.query)
			return simpleRow{}
		}
	}
	q := New(fake)

	before := time.Now().UTC()
	status, err := q.MarkFailed(context.Background(), "job-1", "boom")
	if err != nil {
		t.Fatalf("MarkFailed returned error: %v", err)
	}
	if status != domain.JobStatusRetrying {
		t.Fatalf("status = %q, want retrying", status)
	}
	wantMin := before.Add(Backoff(0))
	wantMax := time.Now().UTC().Add(Backoff(0))
	if retryAt.Before(wantMin) || retryAt.After(wantMax) {
		t.Fatalf("retryAt = %v, want within [%v, %v]", retryAt, wantMin, wantMax)
	}
}

func TestMarkFailedTerminalOnLastAttempt(t *testing.T) {
	t.Parallel()
	var terminalStatement bool
	fake := &fakeSQL{}
	fake.queryRow = func(call sqlCall) pgx.Row {
		switch call.query {
		case sqlinline.QGetJobAttempts:
			return simpleRow{scan: func(dest ...any) error {
				*(dest[0].(*int)) = 2
				*(dest[1].(*int)) = 3
				return nil
			}}
		case sqlinline.QMarkJobFailed:
			terminalStatement = true
			if got := call.args[1].(string); got != "boom" {
				t.Fatalf("last_error = %q, want boom", got)
			}
			return simpleRow{scan: func(dest ...any) error {
				*(dest[0].(*string)) = "job-1"
				return nil
			}}
		default:
			t.Fatalf("unexpected statement: %q", call.query)
			return simpleRow{}
		}
	}
	q := New(fake)

	status, err := q.MarkFailed(context.Background(), "job-1", "boom")
	if err != nil {
		t.Fatalf("MarkFailed returned error: %v", err)
	}
	if status != domain.JobStatusFailed {
		t.Fatalf("status = %q, want failed", status)
	}
	if !terminalStatement {
		t.Fatal("expected the terminal failure statement to run")
	}
}

func TestMarkFailedUnknownJob(t *testing.T) {
	t.Parallel()
	q := New(&fakeSQL{})

	_, err := q.MarkFailed(context.Background(), "job-x", "boom")
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("MarkFailed error = %v, want ErrPersistence", err)
	}
}

func TestPromoteRetryableReportsCount(t *testing.T) {
	t.Parallel()
	fake := &fakeSQL{
		exec: func(call sqlCall) (pgconn.CommandTag, error) {
			if call.query != sqlinline.QPromoteRetryable {
				t.Fatalf("unexpected statement: %q", call.query)
			}
			return pgconn.NewCommandTag("UPDATE 3"), nil
		},
	}
	q := New(fake)

	promoted, err := q.PromoteRetryable(context.Background())
	if err != nil {
		t.Fatalf("PromoteRetryable returned error: %v", err)
	}
	if promoted != 3 {
		t.Fatalf("promoted = %d, want 3", promoted)
	}
}

func TestPurgeTerminalPassesRetention(t *testing.T) {
	t.Parallel()
	fake := &fakeSQL{
		exec: func(call sqlCall) (pgconn.CommandTag, error) {
			if got := call.args[0].(int); got != 7 {
				t.Fatalf("retention days = %d, want 7", got)
			}
			return pgconn.NewCommandTag("DELETE 12"), nil
		},
	}
	q := New(fake)

	purged, err := q.PurgeTerminal(context.Background(), 7)
	if err != nil {
		t.Fatalf("PurgeTerminal returned error: %v", err)
	}
	if purged != 12 {
		t.Fatalf("purged = %d, want 12", purged)
	}
}
