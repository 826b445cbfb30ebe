package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Connection pool bounds
const (
	ConnectionTimeout  = 10 * time.Second
	MaxConnectionsIdle = 5
	MaxConnectionsOpen = 10
)

// Pool is the process-wide connection pool facade. It owns one *sql.DB;
// database/sql handles borrow/return internally and queues callers once
// MaxConnectionsOpen connections are in flight, so callers need no locking.
type Pool struct {
	db *sql.DB
}

// NewPool wraps an already-opened database handle. Tests use this to
// substitute an in-memory engine.
func NewPool(db *sql.DB) *Pool { return &Pool{db: db} }

// OpenPool opens and pings the MySQL pool described by cfg. Ping errors are
// returned unclassified; the caller maps them onto the startup taxonomy.
func OpenPool(ctx context.Context, cfg *Config) (*Pool, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxIdleConns(MaxConnectionsIdle)
	db.SetMaxOpenConns(MaxConnectionsOpen)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, pingCancel := context.WithTimeout(ctx, ConnectionTimeout)
	defer pingCancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	return &Pool{db: db}, nil
}

// Execute runs query with positional params on a pooled connection and
// returns every row as a column-name keyed map, plus the field order.
// Driver errors propagate unchanged; nothing is retried or swallowed here.
func (p *Pool) Execute(ctx context.Context, query string, args ...any) ([]map[string]any, []string, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	fields, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	results := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(fields))
		valuePtrs := make([]any, len(fields))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, nil, err
		}

		row := make(map[string]any, len(fields))
		for i, field := range fields {
			// []byte values would serialize as base64; surface them as text.
			if b, ok := values[i].([]byte); ok {
				row[field] = string(b)
			} else {
				row[field] = values[i]
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return results, fields, nil
}

// Exec runs a statement that returns no rows.
func (p *Pool) Exec(ctx context.Context, query string, args ...any) error {
	_, err := p.db.ExecContext(ctx, query, args...)
	return err
}

// Close releases the pool.
func (p *Pool) Close() error { return p.db.Close() }
