package warehouse

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresExecutor runs queries against a Postgres-hosted retail database,
// for deployments whose warehouse does not live in a SQLite file.
type PostgresExecutor struct {
	pool *pgxpool.Pool
}

func NewPostgresExecutor(ctx context.Context, dsn string) (*PostgresExecutor, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresExecutor{pool: pool}, nil
}

func (e *PostgresExecutor) Execute(ctx context.Context, query string) ExecutionResult {
	rows, err := e.pool.Query(ctx, query)
	if err != nil {
		return ExecutionResult{Success: false, Error: err.Error()}
	}
	defer rows.Close()

	descs := rows.FieldDescriptions()
	cols := make([]string, len(descs))
	for i, d := range descs {
		cols[i] = d.Name
	}
	out := make([][]string, 0, 16)
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return ExecutionResult{Success: false, Error: err.Error()}
		}
		rec := make([]string, len(vals))
		for i, v := range vals {
			if v != nil {
				rec[i] = fmt.Sprint(v)
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return ExecutionResult{Success: false, Error: err.Error()}
	}
	return ExecutionResult{Success: true, Columns: cols, Rows: out}
}

func (e *PostgresExecutor) Schema(ctx context.Context) (string, error) {
	rows, err := e.pool.Query(ctx, `
SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = 'public'
ORDER BY table_name, ordinal_position`)
	if err != nil {
		return "", fmt.Errorf("query schema: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	last := ""
	for rows.Next() {
		var table, column, dtype string
		if err := rows.Scan(&table, &column, &dtype); err != nil {
			return "", fmt.Errorf("scan schema row: %w", err)
		}
		if table != last {
			fmt.Fprintf(&b, "Table: %s\n", table)
			last = table
		}
		fmt.Fprintf(&b, "- %s (%s)\n", column, dtype)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate schema rows: %w", err)
	}
	return b.String(), nil
}

func (e *PostgresExecutor) Close() error {
	e.pool.Close()
	return nil
}
