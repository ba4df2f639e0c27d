package sqlinline

const QUpsertDailyCounters = `--sql 90c4e7f1-2b86-4da3-a057-c1f9d3b62e08
insert into analytics_daily (
    day, requests, pages_queued, pages_completed, pages_failed, fallback_analyses
) values (
    $1, $2, $3, $4, $5, $6
) on conflict (day) do update set
    requests = analytics_daily.requests + excluded.requests,
    pages_queued = analytics_daily.pages_queued + excluded.pages_queued,
    pages_completed = analytics_daily.pages_completed + excluded.pages_completed,
    pages_failed = analytics_daily.pages_failed + excluded.pages_failed,
    fallback_analyses = analytics_daily.fallback_analyses + excluded.fallback_analyses,
    updated_at = now();
`

const QDailySummary = `--sql 25f8b9d0-6c47-4e12-83fa-07d2e4c19b56
select day, requests, pages_queued, pages_completed, pages_failed, fallback_analyses, created_at, updated_at
from analytics_daily
order by day desc
limit 1;
`

const QUpsertCountryRequests = `--sql 3ab1f6c8-9e24-47d5-b18c-6f40d7a92e31
insert into analytics_country_daily (
    day, country, requests
) values (
    $1, $2, $3
) on conflict (day, country) do update set
    requests = analytics_country_daily.requests + excluded.requests,
    updated_at = now();
`

const QCountryBreakdown = `--sql c7d95a20-48e1-4f6b-9c3d-52e8b01f7a94
select country, requests
from analytics_country_daily
where day = $1
order by requests desc, country asc;
`
