package store

import (
	"context"
	"database/sql"
	"sync"

	"customerapi/pkg/platform/tx"
)

// InMemoryTx serialises units of work with a mutex. It has no rollback: a
// failed unit keeps whatever writes it already made.
type InMemoryTx struct {
	mu sync.Mutex
}

func NewInMemoryTx() *InMemoryTx {
	return &InMemoryTx{}
}

func (t *InMemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

// PostgresTx runs units of work in a database transaction carried in ctx.
type PostgresTx struct {
	db *sql.DB
}

func NewPostgresTx(db *sql.DB) *PostgresTx {
	return &PostgresTx{db: db}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return tx.Run(ctx, t.db, fn)
}
