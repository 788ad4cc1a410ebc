package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteExecutor runs queries against the Northwind SQLite file, the default
// retail database.
type SQLiteExecutor struct {
	db *sql.DB
}

func NewSQLiteExecutor(path string) (*SQLiteExecutor, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return &SQLiteExecutor{db: db}, nil
}

func (e *SQLiteExecutor) Execute(ctx context.Context, query string) ExecutionResult {
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return ExecutionResult{Success: false, Error: err.Error()}
	}
	defer rows.Close()
	return collectRows(rows)
}

// Schema dumps table and column names in the prompt format the query
// generator expects.
func (e *SQLiteExecutor) Schema(ctx context.Context) (string, error) {
	tables, err := e.tableNames(ctx)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, table := range tables {
		fmt.Fprintf(&b, "Table: %s\n", table)
		cols, err := e.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
		if err != nil {
			return "", fmt.Errorf("table_info %s: %w", table, err)
		}
		for cols.Next() {
			var cid int
			var name, ctype string
			var notnull int
			var dflt sql.NullString
			var pk int
			if err := cols.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
				cols.Close()
				return "", fmt.Errorf("scan table_info %s: %w", table, err)
			}
			fmt.Fprintf(&b, "- %s (%s)\n", name, ctype)
		}
		if err := cols.Err(); err != nil {
			cols.Close()
			return "", fmt.Errorf("iterate table_info %s: %w", table, err)
		}
		cols.Close()
	}
	return b.String(), nil
}

func (e *SQLiteExecutor) tableNames(ctx context.Context) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()
	out := make([]string, 0, 16)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (e *SQLiteExecutor) Close() error {
	return e.db.Close()
}

// collectRows reads every row as strings so the synthesizer and normalizer
// can consume results without driver-specific types.
func collectRows(rows *sql.Rows) ExecutionResult {
	cols, err := rows.Columns()
	if err != nil {
		return ExecutionResult{Success: false, Error: err.Error()}
	}
	out := make([][]string, 0, 16)
	for rows.Next() {
		raw := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return ExecutionResult{Success: false, Error: err.Error()}
		}
		rec := make([]string, len(cols))
		for i, v := range raw {
			if v.Valid {
				rec[i] = v.String
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return ExecutionResult{Success: false, Error: err.Error()}
	}
	return ExecutionResult{Success: true, Columns: cols, Rows: out}
}
