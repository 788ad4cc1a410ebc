package warehouse

import "context"

// ExecutionResult is the outcome of one query execution. On failure Columns
// and Rows are nil and Error carries the engine's message.
type ExecutionResult struct {
	Success bool       `json:"success"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Error   string     `json:"error,omitempty"`
}

// Executor runs a query string against the retail database. The pipeline
// never inspects query syntax; it only reads the returned error text for
// repair hints.
type Executor interface {
	Execute(ctx context.Context, query string) ExecutionResult
	Schema(ctx context.Context) (string, error)
	Close() error
}
