package tx

import (
	"context"
	"database/sql"
	"sync"
)

type ctxKey struct{}

var txKey = ctxKey{}

// unit is the transaction carried in ctx plus the callbacks queued for after
// it commits.
type unit struct {
	tx *sql.Tx

	mu          sync.Mutex
	afterCommit []func(ctx context.Context)
}

// DBTX is the subset of *sql.DB and *sql.Tx used by stores.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, &unit{tx: tx})
}

func unitFrom(ctx context.Context) (*unit, bool) {
	u, ok := ctx.Value(txKey).(*unit)
	return u, ok
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	if u, ok := unitFrom(ctx); ok {
		return u.tx, true
	}
	return nil, false
}

// Conn returns the transaction carried by ctx, or db when there is none.
func Conn(ctx context.Context, db *sql.DB) DBTX {
	if tx, ok := From(ctx); ok {
		return tx
	}
	return db
}

// AfterCommit queues fn to run once the transaction in ctx commits and reports
// whether it did. fn is dropped on rollback. Without a transaction in ctx
// nothing is queued and the caller decides what to do.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) bool {
	u, ok := unitFrom(ctx)
	if !ok {
		return false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.afterCommit = append(u.afterCommit, fn)
	return true
}

// Run executes fn inside a transaction on db. A transaction already present in
// ctx is reused, so nested calls join the outer unit of work. Callbacks queued
// with AfterCommit run with ctx after a successful commit.
func Run(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) (err error) {
	if _, ok := From(ctx); ok {
		return fn(ctx)
	}
	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()
	u := &unit{tx: sqlTx}
	if err = fn(context.WithValue(ctx, txKey, u)); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return err
	}
	u.mu.Lock()
	hooks := u.afterCommit
	u.afterCommit = nil
	u.mu.Unlock()
	for _, hook := range hooks {
		hook(ctx)
	}
	return nil
}
