package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yourorg/rips-import/internal/types"
)

// OutcomeRepository persists the per-record audit trail of import runs.
type OutcomeRepository interface {
	Record(ctx context.Context, o types.Outcome) (types.Outcome, error)
	Get(ctx context.Context, id int64) (types.Outcome, error)
	// ListByRun returns the outcomes of one run in insertion order.
	ListByRun(ctx context.Context, runID string, limit, offset int) ([]types.Outcome, error)
	// CountByKind aggregates a run's outcomes per kind.
	CountByKind(ctx context.Context, runID string) (map[types.OutcomeKind]int64, error)
}

// NewOutcomeRepo returns a repository bound to the pool.
func NewOutcomeRepo(p *Pool) OutcomeRepository { return &outcomeRepo{p: p} }

type outcomeRepo struct{ p *Pool }

func validate(o types.Outcome) error {
	if _, err := uuid.Parse(o.RunID); err != nil {
		return fmt.Errorf("%w: run id %q: %v", ErrValidation, o.RunID, err)
	}
	if !o.Kind.Valid() {
		return fmt.Errorf("%w: kind %q", ErrValidation, o.Kind)
	}
	if o.ClientNumber < 0 {
		return fmt.Errorf("%w: client number %d", ErrValidation, o.ClientNumber)
	}
	return nil
}

func (r *outcomeRepo) Record(ctx context.Context, o types.Outcome) (types.Outcome, error) {
	if err := validate(o); err != nil {
		return types.Outcome{}, err
	}
	const q = `insert into import_outcome (run_id, client_number, kind, message)
               values ($1, $2, $3, $4)
               returning id, created_at`
	err := r.p.QueryRow(ctx, q, o.RunID, o.ClientNumber, string(o.Kind), o.Message).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return types.Outcome{}, mapPgErr(err)
	}
	return o, nil
}

func (r *outcomeRepo) Get(ctx context.Context, id int64) (types.Outcome, error) {
	const q = `select id, run_id::text, client_number, kind, message, created_at
               from import_outcome where id=$1`
	o, err := scanOutcome(r.p.QueryRow(ctx, q, id))
	if err != nil {
		return types.Outcome{}, mapRowErr(err)
	}
	return o, nil
}

func (r *outcomeRepo) ListByRun(ctx context.Context, runID string, limit, offset int) ([]types.Outcome, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const q = `select id, run_id::text, client_number, kind, message, created_at
               from import_outcome where run_id=$1
               order by id asc limit $2 offset $3`
	rows, err := r.p.Query(ctx, q, runID, limit, offset)
	if err != nil {
		return nil, mapPgErr(err)
	}
	defer rows.Close()
	var out []types.Outcome
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *outcomeRepo) CountByKind(ctx context.Context, runID string) (map[types.OutcomeKind]int64, error) {
	const q = `select kind, count(*) from import_outcome where run_id=$1 group by kind`
	rows, err := r.p.Query(ctx, q, runID)
	if err != nil {
		return nil, mapPgErr(err)
	}
	defer rows.Close()
	out := make(map[types.OutcomeKind]int64)
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		out[types.OutcomeKind(kind)] = n
	}
	return out, rows.Err()
}

func scanOutcome(row pgx.Row) (types.Outcome, error) {
	var o types.Outcome
	var kind string
	if err := row.Scan(&o.ID, &o.RunID, &o.ClientNumber, &kind, &o.Message, &o.CreatedAt); err != nil {
		return types.Outcome{}, err
	}
	o.Kind = types.OutcomeKind(kind)
	return o, nil
}

// mapPgErr maps common pg errors to friendly domain errors
func mapPgErr(err error) error {
	if err == nil {
		return nil
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		switch pe.Code {
		case "23505": // unique_violation
			return ErrConflict
		case "22P02": // invalid_text_representation, e.g. a malformed uuid
			return fmt.Errorf("%w: %s", ErrValidation, pe.Message)
		}
	}
	return err
}

// mapRowErr translates not found cases to ErrNotFound
func mapRowErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return mapPgErr(err)
}
