package sqlinline

// Statements operating on the generation_queue table. The claim statement is
// the only place a row may move from pending to processing; the CTE with
// FOR UPDATE SKIP LOCKED guarantees two workers never claim the same row.

const QEnqueueJob = `--sql 7c1f4a02-93d4-4a8e-b1c5-2f6e8a09d341
insert into generation_queue (
    id, page_id, owner_id, status, priority, attempt, max_attempts, payload, scheduled_at
)
values (
    $1, $2, $3, 'pending', $4, 0, $5, $6::jsonb, now()
)
returning created_at, scheduled_at;
`

const QClaimNextJob = `--sql 3b8e2d77-5f01-4c29-9a44-c07d1b5e86f2
with next_job as (
    select id
    from generation_queue
    where status = 'pending'
      and scheduled_at <= now()
    order by priority desc, scheduled_at asc
    for update skip locked
    limit 1
),
claimed as (
    update generation_queue
    set status = 'processing', started_at = now(), updated_at = now()
    where id in (select id from next_job)
    returning id, page_id, owner_id, status, priority, attempt, max_attempts,
              payload, last_error, scheduled_at, started_at, created_at, updated_at
)
select * from claimed;
`

const QMarkJobCompleted = `--sql 9d50c3ae-8b27-4f6b-a5d9-14e2f7c0b863
update generation_queue
set status = 'completed', completed_at = now(), updated_at = now()
where id = $1 and status = 'processing'
returning id;
`

const QGetJobAttempts = `--sql 61a9f5d8-0c34-4b7e-8f21-d95b3a6c47e0
select attempt, max_attempts
from generation_queue
where id = $1 and status = 'processing';
`

const QMarkJobRetrying = `--sql e4b72c19-6d85-40fa-b3c7-8a90f1d25e64
update generation_queue
set status = 'retrying',
    attempt = attempt + 1,
    last_error = $2,
    scheduled_at = $3,
    updated_at = now()
where id = $1 and status = 'processing'
returning id;
`

const QMarkJobFailed = `--sql 0f6d8b43-27a9-4e50-91c2-b5e7d4a38f16
update generation_queue
set status = 'failed',
    attempt = attempt + 1,
    last_error = $2,
    completed_at = now(),
    updated_at = now()
where id = $1 and status = 'processing'
returning id;
`

const QPromoteRetryable = `--sql a2c95e60-41fb-4d87-8e13-96f0b7d2c485
update generation_queue
set status = 'pending', updated_at = now()
where status = 'retrying' and scheduled_at <= now();
`

const QQueueStatusByPage = `--sql 58d1f7b2-c4e8-4a06-b92d-3f71a0e65c98
select status
from generation_queue
where page_id = $1
order by created_at desc
limit 1;
`

const QPurgeTerminalJobs = `--sql b7e04d26-f198-4c53-a6b0-28c9d5f7e314
delete from generation_queue
where status in ('completed', 'failed')
  and updated_at < now() - ($1 * interval '1 day');
`
