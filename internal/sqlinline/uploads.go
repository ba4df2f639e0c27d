package sqlinline

const QInsertUploadClaim = `--sql 6a2d9f48-c571-4e03-b86a-d39e5c07f214
insert into upload_claims (id, storage_key, nonce, user_id)
values ($1, $2, $3, $4)
returning created_at;
`

const QGetUploadByNonce = `--sql d95b0e36-82a4-4f17-9c58-6e31f7a0d482
select id, storage_key, user_id, claimed_at, created_at
from upload_claims
where nonce = $1;
`

const QMarkUploadClaimed = `--sql 37e6c1b0-f4d8-40a9-95e3-b20c74d8f165
update upload_claims
set user_id = $2, storage_key = $3, claimed_at = now()
where id = $1 and claimed_at is null
returning id;
`

const QRevertUploadClaim = `--sql 84f2a6d9-1c35-4b7e-8a04-f96d3e25c8b1
update upload_claims
set user_id = null, storage_key = $2, claimed_at = null
where id = $1;
`
