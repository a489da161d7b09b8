package sqlinline

const QUpsertStudioJob = `--sql 3f1c9a7e-52d4-4b8e-9c61-0e7a4d2b8f15
insert into studio_jobs (id, session_id, kind, state, operation, prompt, result_location, error_message, started_at, updated_at)
values ($1::uuid, $2::text, $3::text, $4::text, nullif($5::text, ''), $6::text, nullif($7::text, ''), nullif($8::text, ''), $9, $10)
on conflict (id) do update set
    state = excluded.state,
    operation = coalesce(excluded.operation, studio_jobs.operation),
    result_location = coalesce(excluded.result_location, studio_jobs.result_location),
    error_message = excluded.error_message,
    updated_at = excluded.updated_at;
`

const QListStudioJobsBySession = `--sql b7e24d09-8a3f-4c15-a6d2-91f0c3e85b47
select id::text, session_id, kind, state, coalesce(operation, ''), prompt,
       coalesce(result_location, ''), coalesce(error_message, ''), started_at, updated_at
from studio_jobs
where session_id = $1::text
order by started_at desc
limit $2;
`
