package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"server/internal/adapter/repo"
	"server/internal/queue"
	"server/internal/storage"
	"server/internal/telemetry"
	"server/internal/uploads"
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

// sliceRows replays canned result rows through the pgx.Rows interface.
type sliceRows struct {
	rows [][]any
	idx  int
}

func (r *sliceRows) Close()                                       {}
func (r *sliceRows) Err() error                                   { return nil }
func (r *sliceRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *sliceRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *sliceRows) Values() ([]any, error)                       { return nil, nil }
func (r *sliceRows) RawValues() [][]byte                          { return nil }
func (r *sliceRows) Conn() *pgx.Conn                              { return nil }

var _ pgx.Rows = (*sliceRows)(nil)

func (r *sliceRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *sliceRows) Scan(dest ...any) error {
	row := r.rows[r.idx-1]
	if len(dest) != len(row) {
		return errors.New("scan arity mismatch")
	}
	for i, v := range row {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *int:
			*d = v.(int)
		default:
			return errors.New("unsupported scan destination")
		}
	}
	return nil
}

// fakeSQL dispatches statements to registered row builders, keyed by the full
// marked statement text. Unregistered statements answer no rows.
type fakeSQL struct {
	rows    map[string]func(args []any) simpleRow
	execs   map[string]func(args []any) (pgconn.CommandTag, error)
	queries map[string]func(args []any) (pgx.Rows, error)
}

func newFakeSQL() *fakeSQL {
	return &fakeSQL{
		rows:    make(map[string]func(args []any) simpleRow),
		execs:   make(map[string]func(args []any) (pgconn.CommandTag, error)),
		queries: make(map[string]func(args []any) (pgx.Rows, error)),
	}
}

func (f *fakeSQL) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	if fn, ok := f.execs[query]; ok {
		return fn(args)
	}
	return pgconn.CommandTag{}, nil
}

func (f *fakeSQL) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	if fn, ok := f.rows[query]; ok {
		return fn(args)
	}
	return simpleRow{}
}

func (f *fakeSQL) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	if fn, ok := f.queries[query]; ok {
		return fn(args)
	}
	return nil, errors.New("query not supported in fake")
}

func newTestApp(t *testing.T, fake *fakeSQL) *App {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	logger := zerolog.Nop()
	analytics := repo.NewAnalyticsRepository(fake)
	return &App{
		Queue:       queue.New(fake),
		Status:      queue.NewStatusChain(fake),
		Pages:       repo.NewPageRepository(fake),
		Uploads:     uploads.NewService(fake, store),
		Analytics:   analytics,
		Sink:        telemetry.NewSink(analytics, logger),
		URLs:        storage.NewURLBuilder("https://assets.example", "secret"),
		Logger:      logger,
		MaxAttempts: 3,
	}
}
