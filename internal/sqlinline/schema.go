package sqlinline

const QEnsureStudioSchema = `--sql 5c0e8b2d-4a7f-4e19-b3d6-8f21a9c47e60
create table if not exists integration_tokens (
    id uuid primary key,
    provider text not null unique,
    token text not null,
    properties jsonb not null default '{}'::jsonb,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);

create table if not exists studio_jobs (
    id uuid primary key,
    session_id text not null,
    kind text not null,
    state text not null,
    operation text,
    prompt text not null default '',
    result_location text,
    error_message text,
    started_at timestamptz not null,
    updated_at timestamptz not null
);

create index if not exists studio_jobs_session_started_idx
    on studio_jobs (session_id, started_at desc);
`
