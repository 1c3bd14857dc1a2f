package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool wraps pgxpool.Pool so repositories share one connection pool.
type Pool struct {
	*pgxpool.Pool
}

// Connect establishes a pgx connection pool. The audit trail writes a row
// per record, so a small pool is plenty.
func Connect(ctx context.Context, cfg Config) (*Pool, error) {
	conf, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, err
	}
	conf.MaxConns = 4
	conf.MinConns = 0
	conf.MaxConnLifetime = 55 * time.Minute
	conf.MaxConnIdleTime = 10 * time.Minute
	conf.HealthCheckPeriod = 30 * time.Second

	p, err := pgxpool.NewWithConfig(ctx, conf)
	if err != nil {
		return nil, err
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return &Pool{Pool: p}, nil
}

const schema = `
create table if not exists import_outcome (
    id            bigserial primary key,
    run_id        uuid        not null,
    client_number integer     not null default 0,
    kind          text        not null,
    message       text        not null default '',
    created_at    timestamptz not null default now()
);
create index if not exists import_outcome_run_idx on import_outcome (run_id, id);`

// Migrate creates the audit table when missing.
func (p *Pool) Migrate(ctx context.Context) error {
	_, err := p.Exec(ctx, schema)
	return err
}

// Close closes the underlying pool.
func (p *Pool) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}
