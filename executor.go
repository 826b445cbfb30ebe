package main

import (
	"context"
	"fmt"
	"time"
)

// ExecutionReport is the payload for a successful mysql_query call. Elapsed
// time covers dispatch to driver return, in milliseconds with one decimal
// place.
type ExecutionReport struct {
	Rows      []map[string]any `json:"rows"`
	ElapsedMS string           `json:"elapsed_ms"`
}

// Executor runs caller-supplied SQL against the pool. Statements are not
// validated or whitelisted: the startup privilege gate is the safety
// boundary, so anything the read-only account may run is accepted.
type Executor struct {
	pool *Pool
}

func NewExecutor(pool *Pool) *Executor { return &Executor{pool: pool} }

// RunQuery executes query and reports its rows plus wall-clock elapsed time.
func (e *Executor) RunQuery(ctx context.Context, query string) (*ExecutionReport, error) {
	start := time.Now()
	rows, _, err := e.pool.Execute(ctx, query)
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}

	return &ExecutionReport{
		Rows:      rows,
		ElapsedMS: fmt.Sprintf("%.1f", float64(elapsed.Microseconds())/1e3),
	}, nil
}
