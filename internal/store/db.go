package store

import (
	"context"
	"database/sql"
)

// DBTX is the common query surface of *sql.DB and *sql.Tx. Card and review
// log stores are built against it so the same implementation serves both a
// plain connection and a transaction handed out by RunInTransaction (a
// review's schedule write and log append, a claim's copy and counter bump).
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
