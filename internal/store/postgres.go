package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	_ "github.com/jackc/pgx/v5/stdlib"

	"fleetroute/internal/model"
	"fleetroute/internal/solver"
)

// Postgres stores solutions and their search metrics as jsonb rows.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	p := &Postgres{db: db}
	if err := p.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS solutions (
    id         text PRIMARY KEY,
    status     text NOT NULL,
    payload    jsonb NOT NULL,
    created_at timestamptz NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS search_metrics (
    solution_id text PRIMARY KEY REFERENCES solutions(id) ON DELETE CASCADE,
    payload     jsonb NOT NULL
);
CREATE INDEX IF NOT EXISTS solutions_created_at_idx ON solutions (created_at DESC, id DESC);
`)
	return err
}

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) SaveSolution(ctx context.Context, sol model.Solution) error {
	payload, err := json.Marshal(sol)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
INSERT INTO solutions (id, status, payload)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, payload = EXCLUDED.payload`,
		sol.ID, sol.Status, payload)
	return err
}

func (p *Postgres) GetSolution(ctx context.Context, id string) (model.Solution, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx, `SELECT payload FROM solutions WHERE id=$1`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Solution{}, ErrNotFound
	}
	if err != nil {
		return model.Solution{}, err
	}
	var sol model.Solution
	if err := json.Unmarshal(payload, &sol); err != nil {
		return model.Solution{}, err
	}
	return sol, nil
}

func (p *Postgres) ListSolutions(ctx context.Context, cursor string, limit int) ([]model.Solution, string, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT payload FROM solutions ORDER BY created_at DESC, id DESC LIMIT $1`
	args := []any{limit + 1}
	if cursor != "" {
		// Keyset predicate and ORDER BY must agree on (created_at DESC, id DESC)
		// or pages duplicate and skip rows on created_at ties.
		query = `
SELECT payload FROM solutions
WHERE (created_at, id) < (SELECT created_at, id FROM solutions WHERE id=$2)
ORDER BY created_at DESC, id DESC LIMIT $1`
		args = append(args, cursor)
	}
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	out := []model.Solution{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, "", err
		}
		var sol model.Solution
		if err := json.Unmarshal(payload, &sol); err != nil {
			return nil, "", err
		}
		out = append(out, sol)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	next := ""
	if len(out) > limit {
		out = out[:limit]
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func (p *Postgres) SaveSearchMetrics(ctx context.Context, solutionID string, sm solver.SearchMetrics) error {
	payload, err := json.Marshal(sm)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
INSERT INTO search_metrics (solution_id, payload)
VALUES ($1, $2)
ON CONFLICT (solution_id) DO UPDATE SET payload = EXCLUDED.payload`,
		solutionID, payload)
	return err
}

func (p *Postgres) GetSearchMetrics(ctx context.Context, solutionID string) (solver.SearchMetrics, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx, `SELECT payload FROM search_metrics WHERE solution_id=$1`, solutionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return solver.SearchMetrics{}, ErrNotFound
	}
	if err != nil {
		return solver.SearchMetrics{}, err
	}
	var sm solver.SearchMetrics
	if err := json.Unmarshal(payload, &sm); err != nil {
		return solver.SearchMetrics{}, err
	}
	return sm, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }
