// Package repokit holds the seams repos and services share: querier aliases, binders and tx hooks
package repokit

import (
	"context"

	"ringroster/internal/platform/store"
)

type (
	// Queryer is the minimal read and write surface for SQL repos
	Queryer = store.RowQuerier
	// TxRunner can execute a function inside a transaction
	TxRunner = store.TxRunner
	// Rows are the result set of a query
	Rows = store.Rows
	// Row is a single row result from a query
	Row = store.Row
	// CommandTag is the result of a command that modifies data
	CommandTag = store.CommandTag
)

// Binder binds a domain repo to a Queryer, the pool or a transaction
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc lets a constructor act as a Binder
type BindFunc[T any] func(Queryer) T

// Bind calls f
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// MustBind panics on a nil q, then binds
func MustBind[T any](b Binder[T], q Queryer) T {
	if q == nil {
		panic("repokit: nil Queryer")
	}
	return b.Bind(q)
}

// WithTx runs fn with the repo bound to a fresh transaction
func WithTx[T any](ctx context.Context, db TxRunner, b Binder[T], fn func(repo T) error) error {
	return db.Tx(ctx, func(q Queryer) error { return fn(b.Bind(q)) })
}
