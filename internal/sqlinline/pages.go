package sqlinline

const QInsertPage = `--sql 4e7a1c85-d2f9-4b60-8c34-a61e0b97d523
insert into pages (
    id, user_id, scene_text, style, difficulty, source_key, status
)
values (
    $1, $2, $3, $4, $5, $6, 'queued'
)
returning created_at;
`

const QUpdatePageStatus = `--sql 1d83f6a9-75c0-4e2b-90d8-4b5f2c61a7e0
update pages
set status = $2, error_message = coalesce($3, error_message), updated_at = now()
where id = $1;
`

const QCompletePage = `--sql c6b29e71-3a54-48df-b0e6-57d1f8a40c92
update pages
set status = 'completed',
    prompt = $2,
    storage_key = $3,
    output_url = $4,
    analysis_json = $5::jsonb,
    error_message = '',
    updated_at = now()
where id = $1;
`

const QGetPage = `--sql 82f5d0c4-697e-4b18-a3d2-0c84e1f6b759
select id, user_id, scene_text, prompt, style, difficulty, source_key,
       storage_key, output_url, status, error_message, analysis_json,
       created_at, updated_at
from pages
where id = $1;
`

const QPageStatus = `--sql f03c8a57-1e62-4d9b-8740-9ad5b2e6c138
select status
from pages
where id = $1;
`
