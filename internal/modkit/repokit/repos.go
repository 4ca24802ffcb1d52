// Package repokit binds domain repositories to a pool or a live transaction
package repokit

import (
	"context"

	"auracast/internal/platform/store"
)

type (
	// Queryer is what a bound repo runs statements on
	Queryer = store.RowQuerier
	// TxRunner is a Queryer that can also open a transaction
	TxRunner   = store.TxRunner
	Rows       = store.Rows
	Row        = store.Row
	CommandTag = store.CommandTag
)

// Binder builds a repo over a Queryer, so the same repo works on the pool and inside WithTx
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc lets a plain function serve as a Binder
type BindFunc[T any] func(Queryer) T

func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// MustBind binds q and panics when it is nil
func MustBind[T any](b Binder[T], q Queryer) T {
	if q == nil {
		panic("repokit: nil Queryer")
	}
	return b.Bind(q)
}

// WithTx runs fn inside a transaction on tx, an error from fn rolls it back
func WithTx(ctx context.Context, tx TxRunner, fn func(q Queryer) error) error {
	return tx.Tx(ctx, fn)
}
