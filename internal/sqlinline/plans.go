package sqlinline

const QInsertPlan = `--sql 8f1c5a77-4f0d-4f21-9f0e-6c2d1b3a9e41
insert into plans(
  id,
  job_name,
  natural_language,
  config,
  script_path,
  run_id,
  created_at
) values (
  $1::uuid,
  $2::text,
  $3::text,
  $4::jsonb,
  nullif($5::text, ''),
  nullif($6::text, ''),
  now()
) returning id;
`

const QListRecentPlans = `--sql 2d9b6c15-7a3e-4c58-b1f4-0a8e5d2c7f93
select id, job_name, natural_language, config, script_path, run_id, created_at
from plans
order by created_at desc
limit $1::int;
`

const QGetPlan = `--sql c4a8e2f0-1b6d-4d37-a5c9-3e7f0b8d6a12
select id, job_name, natural_language, config, script_path, run_id, created_at
from plans
where id = $1::uuid
limit 1;
`
