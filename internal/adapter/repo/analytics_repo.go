package repo

import (
	"context"
	"fmt"
	"time"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// DailyCounters is one day's worth of usage metrics.
type DailyCounters struct {
	Requests         int
	PagesQueued      int
	PagesCompleted   int
	PagesFailed      int
	FallbackAnalyses int
}

// DailySummary is the stored rollup row.
type DailySummary struct {
	Day string
	DailyCounters
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AnalyticsRepository upserts daily usage counters.
type AnalyticsRepository struct {
	sql infra.SQLExecutor
}

func NewAnalyticsRepository(sql infra.SQLExecutor) *AnalyticsRepository {
	return &AnalyticsRepository{sql: sql}
}

// CountryRequests is one country's share of a day's requests.
type CountryRequests struct {
	Country  string
	Requests int
}

// IncrementCounters adds the given deltas to the row for day (YYYY-MM-DD).
func (r *AnalyticsRepository) IncrementCounters(ctx context.Context, day string, c DailyCounters) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QUpsertDailyCounters,
		day, c.Requests, c.PagesQueued, c.PagesCompleted, c.PagesFailed, c.FallbackAnalyses,
	); err != nil {
		return fmt.Errorf("%w: increment analytics for %s: %v", domain.ErrPersistence, day, err)
	}
	return nil
}

// IncrementCountryRequests adds n requests to the (day, country) row. The
// country is a resolved ISO code; unknown origins are skipped by the caller.
func (r *AnalyticsRepository) IncrementCountryRequests(ctx context.Context, day, country string, n int) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QUpsertCountryRequests, day, country, n); err != nil {
		return fmt.Errorf("%w: increment country requests for %s/%s: %v", domain.ErrPersistence, day, country, err)
	}
	return nil
}

// CountryBreakdown lists one day's requests per country, busiest first.
func (r *AnalyticsRepository) CountryBreakdown(ctx context.Context, day string) ([]CountryRequests, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QCountryBreakdown, day)
	if err != nil {
		return nil, fmt.Errorf("%w: load country breakdown for %s: %v", domain.ErrPersistence, day, err)
	}
	defer rows.Close()

	var out []CountryRequests
	for rows.Next() {
		var c CountryRequests
		if err := rows.Scan(&c.Country, &c.Requests); err != nil {
			return nil, fmt.Errorf("%w: scan country breakdown: %v", domain.ErrPersistence, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate country breakdown: %v", domain.ErrPersistence, err)
	}
	return out, nil
}

// Latest returns the most recent daily summary.
func (r *AnalyticsRepository) Latest(ctx context.Context) (*DailySummary, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QDailySummary)
	var s DailySummary
	if err := row.Scan(
		&s.Day,
		&s.Requests,
		&s.PagesQueued,
		&s.PagesCompleted,
		&s.PagesFailed,
		&s.FallbackAnalyses,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: load analytics summary: %v", domain.ErrPersistence, err)
	}
	return &s, nil
}
